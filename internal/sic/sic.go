// Package sic holds the Standard Industrial Classification reference data.
package sic

import "sort"

// Code pairs a SIC code with its description.
type Code struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// DescriptionFor returns the description for a SIC code, or "Unknown" for
// codes missing from the reference table.
func DescriptionFor(code string) string {
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return "Unknown"
}

// Known reports whether the code appears in the reference table.
func Known(code string) bool {
	_, ok := descriptions[code]
	return ok
}

// All returns every known SIC code sorted by code.
func All() []Code {
	out := make([]Code, 0, len(descriptions))
	for code, desc := range descriptions {
		out = append(out, Code{Code: code, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
