package registry

// Query describes one advanced-search request against the registry.
// Exactly one of SICCode or NameContains is normally set; the aggregator
// issues one query per requested SIC code and one per include keyword.
type Query struct {
	SICCode      string
	NameContains string
	ActiveOnly   bool
}

// Address is the registered office address as returned by the registry.
type Address struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// OverdueFlag mirrors the overdue indicator nested under accounts and
// confirmation statement blocks.
type OverdueFlag struct {
	Overdue bool `json:"overdue"`
}

// Company is one raw item from the advanced-search endpoint.
type Company struct {
	CompanyNumber           string      `json:"company_number"`
	CompanyName             string      `json:"company_name"`
	CompanyStatus           string      `json:"company_status"`
	CompanyType             string      `json:"company_type"`
	Jurisdiction            string      `json:"jurisdiction"`
	DateOfCreation          string      `json:"date_of_creation"`
	DateOfCessation         string      `json:"date_of_cessation"`
	RegisteredOfficeAddress Address     `json:"registered_office_address"`
	SICCodes                []string    `json:"sic_codes"`
	Accounts                OverdueFlag `json:"accounts"`
	ConfirmationStatement   OverdueFlag `json:"confirmation_statement"`
	HasInsolvencyHistory    bool        `json:"has_insolvency_history"`
	OfficeInDispute         bool        `json:"registered_office_is_in_dispute"`
}

// Page is one slab of advanced-search results. TotalHits is the upstream
// total for the whole query, not the page.
type Page struct {
	Items     []Company
	TotalHits int
}

// Officer is one entry from the company officers endpoint.
type Officer struct {
	Name        string `json:"name"`
	Role        string `json:"officer_role"`
	AppointedOn string `json:"appointed_on"`
	ResignedOn  string `json:"resigned_on"`
}

// PSC is one person-with-significant-control entry.
type PSC struct {
	Name             string   `json:"name"`
	NaturesOfControl []string `json:"natures_of_control"`
	CeasedOn         string   `json:"ceased_on"`
}
