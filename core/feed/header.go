package feed

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoHeader = errors.New("no header found")

	looseLabelRegex  = regexp.MustCompile(`[\s_/]`)
	strictLabelRegex = regexp.MustCompile(`[^A-Z0-9]`)
)

const (
	officeLabel   = "OFFICE"
	divisionLabel = "DIVISION"
)

// NormalizeLabel upper-cases a column label and strips whitespace, underscores and slashes.
// In strict mode every non-alphanumeric character is removed.
func NormalizeLabel(label string, strict bool) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if strict {
		return strictLabelRegex.ReplaceAllString(label, "")
	}
	return looseLabelRegex.ReplaceAllString(label, "")
}

// FindHeader returns the position of the first row, within the first `window` rows, holding both
// an "OFFICE" cell and a cell containing "DIVISION" (case-insensitive).
func FindHeader(rows []Row, window int) (int, error) {
	if window <= 0 || window > len(rows) {
		window = len(rows)
	}
	for i := 0; i < window; i++ {
		var hasOffice, hasDivision bool
		for _, cell := range rows[i] {
			label := strings.ToUpper(strings.TrimSpace(cell))
			if label == officeLabel {
				hasOffice = true
			}
			if strings.Contains(label, divisionLabel) {
				hasDivision = true
			}
		}
		if hasOffice && hasDivision {
			return i, nil
		}
	}
	return -1, ErrNoHeader
}

// HeaderIndex maps normalized header labels to column positions. It is built once per fetch and never mutated.
//
// Lookups are fuzzy on purpose: the spreadsheet labels drift between revisions ("PLANEED ACTION 1",
// "TA NEEDED/HELP NEEDED 1"...), so an exact normalized match wins and otherwise the first header
// containing the searched label is used.
type HeaderIndex struct {
	strict bool
	labels []string // normalized, in column order
	exact  map[string]int
}

func NewHeaderIndex(header Row, strict bool) *HeaderIndex {
	idx := &HeaderIndex{
		strict: strict,
		labels: make([]string, len(header)),
		exact:  make(map[string]int, len(header)),
	}
	for i, cell := range header {
		label := NormalizeLabel(cell, strict)
		idx.labels[i] = label
		if _, ok := idx.exact[label]; !ok && label != "" {
			idx.exact[label] = i
		}
	}
	return idx
}

// Len returns the number of header columns.
func (idx *HeaderIndex) Len() int { return len(idx.labels) }

func (idx *HeaderIndex) lookupExact(label string) int {
	if i, ok := idx.exact[label]; ok {
		return i
	}
	return -1
}

func (idx *HeaderIndex) lookupContains(label string) int {
	if label == "" {
		return -1
	}
	for i, h := range idx.labels {
		if strings.Contains(h, label) {
			return i
		}
	}
	return -1
}

// Lookup returns the column of `name`, or -1 when missing.
func (idx *HeaderIndex) Lookup(name string) int {
	label := NormalizeLabel(name, idx.strict)
	if i := idx.lookupExact(label); i != -1 {
		return i
	}
	return idx.lookupContains(label)
}

// Resolve returns the column of the first candidate that exists.
// Every candidate is tried for an exact match before any substring fallback, so a later exact label
// beats an earlier fuzzy one.
func (idx *HeaderIndex) Resolve(candidates ...string) int {
	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = NormalizeLabel(c, idx.strict)
		if col := idx.lookupExact(labels[i]); col != -1 {
			return col
		}
	}
	for _, label := range labels {
		if col := idx.lookupContains(label); col != -1 {
			return col
		}
	}
	return -1
}

// cell reads column i of row, "" when the column is missing or the row is short.
func cell(row Row, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
