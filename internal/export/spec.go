// Package export serialises aggregated company records to CSV and XLSX.
package export

import (
	"fmt"

	"github.com/registryscout/registryscout/internal/platform/httpx"
	"github.com/registryscout/registryscout/internal/search"
)

// DefaultColumns is the column order used when the caller does not choose a
// subset.
var DefaultColumns = []string{
	"company_name", "company_number", "company_status", "company_type",
	"date_of_creation", "date_of_cessation",
	"sic_codes", "sic_descriptions",
	"address_line_1", "address_line_2", "locality", "region",
	"postal_code", "country", "full_address",
	"accounts_overdue", "confirmation_statement_overdue",
	"has_insolvency_history", "registered_office_in_dispute",
	"directors_count", "directors_names",
	"psc_count", "psc_names", "psc_control", "likely_chain",
	"companies_house_url",
}

// Spec drives column order and header labels in exported files. It is
// decoupled from CompanyRecord's field set so the same records can be
// exported in different shapes.
type Spec struct {
	Companies   []search.CompanyRecord `json:"companies"`
	Columns     []string               `json:"columns"`
	ColumnNames map[string]string      `json:"column_names"`
}

// normalize validates the spec and resolves the effective columns and header
// labels. Columns without a display name fall back to the field key.
func (s Spec) normalize() (columns, headers []string, err error) {
	if len(s.Companies) == 0 {
		return nil, nil, fmt.Errorf("%w: no companies in export request", httpx.ErrEmptyExport)
	}
	columns = s.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	headers = make([]string, len(columns))
	for i, col := range columns {
		if name, ok := s.ColumnNames[col]; ok && name != "" {
			headers[i] = name
			continue
		}
		headers[i] = col
	}
	return columns, headers, nil
}
