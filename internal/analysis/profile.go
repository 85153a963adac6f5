package analysis

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"forecast-studio/internal/models"
	"forecast-studio/internal/state"
)

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsMissing reports whether a cell holds no value.
func IsMissing(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses a numeric cell. ok is false for missing cells.
func ParseNumber(s string) (v float64, ok bool, err error) {
	if IsMissing(s) {
		return math.NaN(), false, nil
	}
	v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN(), false, err
	}
	return v, true, nil
}

// ProfileColumn analyzes a single column. rows restricts the profile to a
// subset of row indices; nil means every row.
func ProfileColumn(df *state.DataFrame, column string, rows []int) (models.ColumnProfile, error) {
	colIdx := df.ColumnIndex(column)
	if colIdx < 0 {
		return models.ColumnProfile{}, &MissingColumnError{Column: column}
	}
	if rows == nil {
		rows = make([]int, len(df.Rows))
		for i := range rows {
			rows[i] = i
		}
	}

	profile := models.ColumnProfile{
		ColumnName: column,
		TotalRows:  len(rows),
	}

	uniqueValues := make(map[string]int)
	numbers := make([]float64, 0, len(rows))
	for _, i := range rows {
		value := df.Cell(i, colIdx)
		if IsMissing(value) {
			continue
		}
		profile.NonNullRows++
		uniqueValues[value]++

		if v, ok, err := ParseNumber(value); err == nil && ok {
			numbers = append(numbers, v)
			if v < 0 {
				profile.NegativeRows++
			}
		}
	}

	profile.DistinctCount = len(uniqueValues)
	profile.NumericRows = len(numbers)
	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-profile.NonNullRows) / float64(profile.TotalRows)
	}
	profile.Entropy = entropy(uniqueValues, profile.NonNullRows)

	if len(numbers) > 0 {
		profile.Min, profile.Max = numbers[0], numbers[0]
		for _, v := range numbers[1:] {
			profile.Min = math.Min(profile.Min, v)
			profile.Max = math.Max(profile.Max, v)
		}
		profile.Mean, profile.StdDev = stat.MeanStdDev(numbers, nil)
		if len(numbers) == 1 {
			profile.StdDev = 0
		}
	}
	return profile, nil
}

// entropy computes Shannon entropy in bits.
func entropy(valueCounts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, count := range valueCounts {
		if count > 0 {
			p := float64(count) / float64(total)
			h -= p * math.Log2(p)
		}
	}
	return h
}

// ColumnTypes classifies every column as numeric, datetime or categorical.
func ColumnTypes(df *state.DataFrame) map[string]string {
	types := make(map[string]string, len(df.Headers))
	numericCols := df.GetNumericColumnIndices()

	for i, header := range df.Headers {
		values := make([]string, 0, len(df.Rows))
		for r := range df.Rows {
			values = append(values, df.Cell(r, i))
		}
		switch {
		case numericCols[i]:
			types[header] = "numeric"
		case IsDateColumn(values):
			types[header] = "datetime"
		default:
			types[header] = "categorical"
		}
	}
	return types
}
