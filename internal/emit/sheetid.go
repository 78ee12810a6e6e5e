package emit

import (
	"regexp"
	"strings"
)

var (
	bareIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{30,}$`)
	urlIDPattern    = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	prefixIDPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]{30,})[/?#]`)
)

// ExtractSpreadsheetID accepts a bare spreadsheet id or a full Sheets URL and returns
// the id. Unrecognized input is returned trimmed.
func ExtractSpreadsheetID(input string) string {
	input = strings.TrimSpace(input)
	if bareIDPattern.MatchString(input) {
		return input
	}
	if m := urlIDPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if m := prefixIDPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}
