package state

import "time"

// DataFrame represents a loaded CSV file with its data
type DataFrame struct {
	Headers  []string
	Rows     [][]string
	FileName string
	LoadedAt time.Time
}

// ColumnIndex returns the position of a header, or -1.
func (df *DataFrame) ColumnIndex(name string) int {
	for i, h := range df.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the header is present.
func (df *DataFrame) HasColumn(name string) bool {
	return df.ColumnIndex(name) >= 0
}

// Cell returns the value at row/col, or "" for short rows.
func (df *DataFrame) Cell(row, col int) string {
	if row < 0 || row >= len(df.Rows) || col < 0 || col >= len(df.Rows[row]) {
		return ""
	}
	return df.Rows[row][col]
}

// Distinct returns the unique values of a column in first-seen order.
func (df *DataFrame) Distinct(column string) []string {
	idx := df.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	seen := make(map[string]bool)
	values := []string{}
	for i := range df.Rows {
		v := df.Cell(i, idx)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// Head returns the first n rows as header → value maps.
func (df *DataFrame) Head(n int) []map[string]string {
	if n > len(df.Rows) {
		n = len(df.Rows)
	}
	if n < 0 {
		n = 0
	}
	data := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		row := make(map[string]string, len(df.Headers))
		for j, header := range df.Headers {
			row[header] = df.Cell(i, j)
		}
		data[i] = row
	}
	return data
}

// GetNumericColumnIndices returns indices of numeric columns
func (df *DataFrame) GetNumericColumnIndices() map[int]bool {
	if len(df.Rows) == 0 {
		return nil
	}

	numericCols := make(map[int]bool)
	for colIdx := range df.Headers {
		isNumeric := true
		seen := false
		// Check first 20 rows (or all if fewer)
		checkRows := 20
		if len(df.Rows) < checkRows {
			checkRows = len(df.Rows)
		}
		for i := 0; i < checkRows; i++ {
			val := df.Cell(i, colIdx)
			if val == "" {
				continue
			}
			seen = true
			if !isNumericString(val) {
				isNumeric = false
				break
			}
		}
		if isNumeric && seen {
			numericCols[colIdx] = true
		}
	}
	return numericCols
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	dotCount := 0
	digits := 0
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c == '.' {
			dotCount++
			if dotCount > 1 {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
		digits++
	}
	return digits > 0
}
