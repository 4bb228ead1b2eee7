package directory

import (
	"fmt"
	"log/slog"
	"strings"
)

// FormatError indicates the CSV text is structurally unusable: it lacks a
// header row or any data rows. Individual malformed rows never produce a
// FormatError; they are skipped.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("csv format: %s", e.Reason)
}

// Parse tokenizes raw CSV text into a ProviderList.
//
// The first line is the header; its names are zipped positionally onto each
// subsequent row's values. Missing trailing values become empty strings and
// extra values are ignored. Rows whose Company or Category is empty are
// skipped with a warning, never stored. Returns an empty list when every
// row is rejected; the caller decides whether that is an error.
func Parse(text string) (ProviderList, error) {
	lines := strings.Split(sanitizeText(text), "\n")

	// Trailing newline produces a final empty element; drop it so the
	// header-only check counts real lines.
	for len(lines) > 0 && isBlankLine(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}

	if len(lines) < 2 {
		return nil, &FormatError{Reason: "need a header row and at least one data row"}
	}

	header := tokenizeLine(lines[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records := make(ProviderList, 0, len(lines)-1)
	for n, line := range lines[1:] {
		if isBlankLine(line) {
			continue
		}

		rec, ok := parseRow(header, line, n+2)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseRow tokenizes one data line and maps it onto the header. The second
// return value is false when the row is skipped. A panic while processing a
// row is confined to that row.
func parseRow(header []string, line string, lineNum int) (rec ProviderRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("provider row skipped: unexpected error",
				"line", lineNum,
				"error", fmt.Sprint(r),
			)
			ok = false
		}
	}()

	values := tokenizeLine(line)

	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(values) {
			fields[name] = strings.TrimSpace(values[i])
		} else {
			fields[name] = ""
		}
	}

	if fields[FieldCompany] == "" || fields[FieldCategory] == "" {
		slog.Warn("provider row skipped: missing Company or Category", "line", lineNum)
		return ProviderRecord{}, false
	}

	return recordFromFields(fields), true
}

// tokenizeLine splits one CSV line into field values.
//
// RFC 4180-like scanning: a quote toggles quoted mode, a doubled quote
// inside quoted text is a literal quote, and a comma separates fields only
// outside quotes. The scanner is total; any input produces some token list.
func tokenizeLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// Escaped literal quote
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	// Final field, even when empty: no trailing-field truncation.
	fields = append(fields, cur.String())
	return fields
}
