package googlesheet

import (
	"fmt"
	"regexp"
	"strings"
)

var spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID extracts the spreadsheet id from a full sheet URL. A value
// that does not look like a URL is treated as a bare id.
func SpreadsheetID(urlOrID string) (string, error) {
	s := strings.TrimSpace(urlOrID)
	if s == "" {
		return "", fmt.Errorf("spreadsheet URL or id is empty")
	}
	if m := spreadsheetURLPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if strings.Contains(s, "/") {
		return "", fmt.Errorf("cannot extract spreadsheet id from %q", s)
	}
	return s, nil
}

// MergeHeader appends the required columns missing from the existing
// header. The existing order and any extra columns are preserved; the
// second result reports whether anything was appended.
func MergeHeader(existing []string, required []string) ([]string, bool) {
	merged := make([]string, len(existing))
	copy(merged, existing)
	present := make(map[string]struct{}, len(existing))
	for _, col := range existing {
		present[col] = struct{}{}
	}
	changed := false
	for _, col := range required {
		if _, ok := present[col]; !ok {
			merged = append(merged, col)
			present[col] = struct{}{}
			changed = true
		}
	}
	return merged, changed
}

// ColumnLetter converts a 1-based column number to its A1 letter form
// (1 -> A, 27 -> AA).
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// RowFields maps one raw sheet row onto the header, defaulting missing
// trailing cells to "".
func RowFields(header []string, raw []interface{}) map[string]string {
	fields := make(map[string]string, len(header))
	for idx, col := range header {
		if idx < len(raw) {
			fields[col] = cellString(raw[idx])
		} else {
			fields[col] = ""
		}
	}
	return fields
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
