package directory

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteCSV re-serializes a provider list as CSV with the canonical header
// order. Every field is double-quoted with embedded quotes doubled, so the
// output survives spreadsheet round trips regardless of content.
//
// Exporting a list and re-parsing it yields field-for-field equal records;
// the synthetic id is recomputed identically since it is deterministic.
func WriteCSV(w io.Writer, list ProviderList) error {
	if err := writeRow(w, Fields); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(Fields))
	for i, rec := range list {
		for j, name := range Fields {
			row[j] = rec.fieldValue(name)
		}
		if err := writeRow(w, row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	return nil
}

// writeRow writes one CSV line with every field quoted.
func writeRow(w io.Writer, values []string) error {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// ExportFilename returns a timestamped download filename for an export.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("providers_%s.csv", now.Format("20060102_150405"))
}
