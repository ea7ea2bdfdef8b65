// Package search implements the search, filter and aggregation pipeline over
// the company registry.
package search

import (
	"fmt"

	"github.com/registryscout/registryscout/internal/platform/httpx"
)

// Criteria captures one validated search request.
type Criteria struct {
	SICCodes               []string `json:"sic_codes"`
	IncludeKeywords        []string `json:"include_keywords"`
	ExcludeKeywords        []string `json:"exclude_keywords"`
	ActiveOnly             bool     `json:"active_only"`
	ExcludeNorthernIreland bool     `json:"exclude_northern_ireland"`
	IncludePeople          bool     `json:"include_people"`
}

// Validate enforces the search invariant: a query must carry at least one SIC
// code or one include keyword, otherwise it would sweep the whole registry.
func (c Criteria) Validate() error {
	if len(c.SICCodes) == 0 && len(c.IncludeKeywords) == 0 {
		return fmt.Errorf("%w: at least one SIC code or include keyword is required", httpx.ErrValidation)
	}
	return nil
}
