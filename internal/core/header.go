package core

import "strings"

// HeaderIndex maps normalized, lowercased column names to their position in
// a CSV row.
type HeaderIndex map[string]int

// NormalizeHeader trims surrounding whitespace from a header name and
// replaces internal spaces with underscores: " Quantity Box " becomes
// "Quantity_Box".
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.TrimSpace(h), " ", "_")
}

// MakeHeaderIndex builds a HeaderIndex from a CSV header row.
// Call it once per file and reuse it for every row. When a name repeats,
// the last column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(NormalizeHeader(h))] = i
	}
	return idx
}

// Cell returns the value of the named column, or "" when the column is
// absent from the header or the row is short.
func (idx HeaderIndex) Cell(row []string, name string) (string, bool) {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return "", false
	}
	return row[pos], true
}

// Has reports whether the named column is present in the header.
func (idx HeaderIndex) Has(name string) bool {
	_, ok := idx[strings.ToLower(name)]
	return ok
}

// CleanCell strips spreadsheet artifacts from a numeric cell: surrounding
// whitespace, an Excel formula prefix (="42" or =42) and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
