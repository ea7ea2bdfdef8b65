package search

import (
	"strings"

	"github.com/registryscout/registryscout/internal/registry"
)

// niNumberPrefixes are company number prefixes assigned to Northern Ireland
// registrations.
var niNumberPrefixes = []string{"NI", "R0"}

// niIndicators are place and jurisdiction labels that mark a registered
// office as Northern Irish. The upstream is inconsistent about which address
// field carries the region, so all address fields are checked.
var niIndicators = []string{
	"NORTHERN IRELAND", "BELFAST", "ANTRIM", "ARMAGH", "DERRY",
	"DOWN", "FERMANAGH", "TYRONE", "LISBURN", "NEWRY",
}

// Matches reports whether one raw registry item passes the criteria.
//
// SIC and include-keyword filters combine with OR at the top level: an item
// passes if its SIC codes intersect the requested set or its name contains
// any include keyword. Exclusion always wins over inclusion.
func Matches(item registry.Company, c Criteria) bool {
	if c.ActiveOnly && !strings.EqualFold(item.CompanyStatus, "active") {
		return false
	}
	if c.ExcludeNorthernIreland && isNorthernIreland(item) {
		return false
	}
	if matchesAnyKeyword(item.CompanyName, c.ExcludeKeywords) {
		return false
	}

	sicOK := len(c.SICCodes) > 0 && intersects(item.SICCodes, c.SICCodes)
	keywordOK := len(c.IncludeKeywords) > 0 && matchesAnyKeyword(item.CompanyName, c.IncludeKeywords)

	switch {
	case len(c.SICCodes) == 0:
		return keywordOK
	case len(c.IncludeKeywords) == 0:
		return sicOK
	default:
		return sicOK || keywordOK
	}
}

// matchesAnyKeyword reports whether any keyword appears as a case-insensitive
// substring of the name. OR semantics across keywords.
func matchesAnyKeyword(name string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	upper := strings.ToUpper(name)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func isNorthernIreland(item registry.Company) bool {
	for _, prefix := range niNumberPrefixes {
		if strings.HasPrefix(item.CompanyNumber, prefix) {
			return true
		}
	}
	addr := item.RegisteredOfficeAddress
	combined := strings.ToUpper(strings.Join([]string{
		addr.Locality, addr.Region, addr.Country, item.Jurisdiction,
	}, " "))
	for _, indicator := range niIndicators {
		if strings.Contains(combined, indicator) {
			return true
		}
	}
	return false
}
