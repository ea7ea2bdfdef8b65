package search

import (
	"strconv"
	"strings"

	"github.com/registryscout/registryscout/internal/registry"
	"github.com/registryscout/registryscout/internal/sic"
)

// publicRegistryURL is the public site prefix for one company's filing page.
const publicRegistryURL = "https://find-and-update.company-information.service.gov.uk/company/"

// CompanyRecord is the flattened view of one registry entity returned to
// callers and fed to the export layer. Enrichment fields stay zero unless
// the search requested people data.
type CompanyRecord struct {
	CompanyNumber   string `json:"company_number"`
	CompanyName     string `json:"company_name"`
	CompanyStatus   string `json:"company_status"`
	CompanyType     string `json:"company_type"`
	Jurisdiction    string `json:"jurisdiction"`
	DateOfCreation  string `json:"date_of_creation"`
	DateOfCessation string `json:"date_of_cessation"`

	SICCodes        string `json:"sic_codes"`
	SICDescriptions string `json:"sic_descriptions"`

	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	FullAddress  string `json:"full_address"`

	AccountsOverdue              bool `json:"accounts_overdue"`
	ConfirmationStatementOverdue bool `json:"confirmation_statement_overdue"`
	HasInsolvencyHistory         bool `json:"has_insolvency_history"`
	OfficeInDispute              bool `json:"registered_office_in_dispute"`

	DirectorsCount int    `json:"directors_count,omitempty"`
	DirectorsNames string `json:"directors_names,omitempty"`
	PSCCount       int    `json:"psc_count,omitempty"`
	PSCNames       string `json:"psc_names,omitempty"`
	PSCControl     string `json:"psc_control,omitempty"`
	LikelyChain    string `json:"likely_chain,omitempty"`

	RegistryURL string `json:"companies_house_url"`
}

// NewRecord flattens one raw registry item into a CompanyRecord.
func NewRecord(item registry.Company) CompanyRecord {
	descs := make([]string, len(item.SICCodes))
	for i, code := range item.SICCodes {
		descs[i] = sic.DescriptionFor(code)
	}
	addr := item.RegisteredOfficeAddress
	return CompanyRecord{
		CompanyNumber:                item.CompanyNumber,
		CompanyName:                  item.CompanyName,
		CompanyStatus:                item.CompanyStatus,
		CompanyType:                  item.CompanyType,
		Jurisdiction:                 item.Jurisdiction,
		DateOfCreation:               item.DateOfCreation,
		DateOfCessation:              item.DateOfCessation,
		SICCodes:                     strings.Join(item.SICCodes, ", "),
		SICDescriptions:              strings.Join(descs, ", "),
		AddressLine1:                 addr.AddressLine1,
		AddressLine2:                 addr.AddressLine2,
		Locality:                     addr.Locality,
		Region:                       addr.Region,
		PostalCode:                   addr.PostalCode,
		Country:                      addr.Country,
		FullAddress:                  formatAddress(addr),
		AccountsOverdue:              item.Accounts.Overdue,
		ConfirmationStatementOverdue: item.ConfirmationStatement.Overdue,
		HasInsolvencyHistory:         item.HasInsolvencyHistory,
		OfficeInDispute:              item.OfficeInDispute,
		RegistryURL:                  publicRegistryURL + item.CompanyNumber,
	}
}

func formatAddress(addr registry.Address) string {
	parts := []string{
		addr.AddressLine1,
		addr.AddressLine2,
		addr.Locality,
		addr.Region,
		addr.PostalCode,
		addr.Country,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Field renders one named field as a display string for export. Unknown keys
// render empty so callers can request column subsets freely.
func (r CompanyRecord) Field(key string) string {
	switch key {
	case "company_number":
		return r.CompanyNumber
	case "company_name":
		return r.CompanyName
	case "company_status":
		return r.CompanyStatus
	case "company_type":
		return r.CompanyType
	case "jurisdiction":
		return r.Jurisdiction
	case "date_of_creation":
		return r.DateOfCreation
	case "date_of_cessation":
		return r.DateOfCessation
	case "sic_codes":
		return r.SICCodes
	case "sic_descriptions":
		return r.SICDescriptions
	case "address_line_1":
		return r.AddressLine1
	case "address_line_2":
		return r.AddressLine2
	case "locality":
		return r.Locality
	case "region":
		return r.Region
	case "postal_code":
		return r.PostalCode
	case "country":
		return r.Country
	case "full_address":
		return r.FullAddress
	case "accounts_overdue":
		return strconv.FormatBool(r.AccountsOverdue)
	case "confirmation_statement_overdue":
		return strconv.FormatBool(r.ConfirmationStatementOverdue)
	case "has_insolvency_history":
		return strconv.FormatBool(r.HasInsolvencyHistory)
	case "registered_office_in_dispute":
		return strconv.FormatBool(r.OfficeInDispute)
	case "directors_count":
		return strconv.Itoa(r.DirectorsCount)
	case "directors_names":
		return r.DirectorsNames
	case "psc_count":
		return strconv.Itoa(r.PSCCount)
	case "psc_names":
		return r.PSCNames
	case "psc_control":
		return r.PSCControl
	case "likely_chain":
		return r.LikelyChain
	case "companies_house_url":
		return r.RegistryURL
	default:
		return ""
	}
}
