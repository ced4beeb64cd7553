package feed

import "strings"

// SplitRows splits delimited text into row strings. A newline inside a quoted span does not end the row.
// Trailing carriage returns are stripped and blank rows are dropped.
// Malformed quoting is not an error: an unterminated quote swallows the rest of the input into the last row.
func SplitRows(text string) []string {
	rows := make([]string, 0, strings.Count(text, "\n")+1)
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		row := strings.TrimRight(cur.String(), "\r")
		cur.Reset()
		if strings.TrimSpace(row) != "" {
			rows = append(rows, row)
		}
	}

	for _, char := range text {
		if char == '"' {
			inQuotes = !inQuotes
		}
		if char == '\n' && !inQuotes {
			flush()
			continue
		}
		cur.WriteRune(char)
	}
	flush()
	return rows
}

// SplitCells splits one row string into trimmed cells.
// A double quote toggles the quoted state, "" inside a quoted span is a literal quote,
// and a comma outside quotes ends the cell.
func SplitCells(line string) Row {
	cells := make(Row, 0, strings.Count(line, ",")+1)
	var cur strings.Builder
	inQuotes := false

	chars := []rune(line)
	for i := 0; i < len(chars); i++ {
		char := chars[i]
		switch {
		case char == '"':
			if inQuotes && i+1 < len(chars) && chars[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case char == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(char)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

// Tokenize turns raw CSV text into rows of cells.
func Tokenize(text string) []Row {
	lines := SplitRows(text)
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, SplitCells(line))
	}
	return rows
}

// CleanRows trims every cell and drops blank rows. Used for rows that did not come through Tokenize (e.g. XLSX).
func CleanRows(raw [][]string) []Row {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := make(Row, len(r))
		blank := true
		for i, c := range r {
			row[i] = strings.TrimSpace(strings.TrimRight(c, "\r"))
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
