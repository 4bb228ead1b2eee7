package directory

// sanitize.go cleans raw CSV text before scanning.
//
// The dataset is exported from spreadsheets on Windows machines, so the
// text routinely arrives with a UTF-8 BOM, CRLF line endings, and the
// occasional invalid byte sequence. All three are repaired here so the
// scanner can assume clean input.

import "strings"

// utf8BOM is the UTF-8 byte order mark some Windows tools prepend.
const utf8BOM = "\ufeff"

// sanitizeText normalizes raw CSV text: strips a leading BOM, replaces
// invalid UTF-8 sequences with the Unicode replacement character, and
// converts CRLF/CR line endings to LF.
func sanitizeText(text string) string {
	text = strings.TrimPrefix(text, utf8BOM)
	text = strings.ToValidUTF8(text, "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// isBlankLine reports whether a line contains nothing but whitespace.
func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
