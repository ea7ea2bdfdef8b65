package export

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV serialises the export spec as comma-separated UTF-8 with a BOM.
// The BOM is what makes Excel open the file with the right encoding; plain
// CSV consumers skip it. Input records are not mutated.
func WriteCSV(w io.Writer, spec Spec) error {
	columns, headers, err := spec.normalize()
	if err != nil {
		return err
	}

	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(bom)

	if err := writer.Write(headers); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range spec.Companies {
		for i, col := range columns {
			row[i] = rec.Field(col)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return bom.Close()
}
