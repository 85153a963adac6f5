package service

import (
	"fmt"
	"slices"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/forecast"
	"forecast-studio/internal/state"
)

// PrepareOptions names the columns Prepare reads and the metrics it accepts.
type PrepareOptions struct {
	CategoryColumn string
	DateColumn     string
	Metrics        []string
}

// Prepare filters df to one category and turns the metric column into a
// forecast series. Rows with a missing or negative value are dropped. The
// result may be empty.
func Prepare(df *state.DataFrame, category, metric string, opts PrepareOptions) ([]forecast.Point, error) {
	if df == nil {
		return nil, ErrNoTable
	}
	if !slices.Contains(opts.Metrics, metric) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if err := analysis.ValidateSchema(df, opts.CategoryColumn, opts.DateColumn, metric); err != nil {
		return nil, err
	}

	catIdx := df.ColumnIndex(opts.CategoryColumn)
	dateIdx := df.ColumnIndex(opts.DateColumn)
	valIdx := df.ColumnIndex(metric)

	points := []forecast.Point{}
	for i := range df.Rows {
		if df.Cell(i, catIdx) != category {
			continue
		}

		raw := df.Cell(i, valIdx)
		v, ok, err := analysis.ParseNumber(raw)
		if err != nil {
			return nil, &InvalidValueError{Column: metric, Row: i + 1, Value: raw}
		}
		if !ok || v < 0 {
			continue
		}

		rawDate := df.Cell(i, dateIdx)
		ds, err := analysis.ParseDate(rawDate)
		if err != nil {
			return nil, &DateParseError{Column: opts.DateColumn, Row: i + 1, Value: rawDate}
		}
		points = append(points, forecast.Point{DS: ds, Y: v})
	}
	return points, nil
}

// MatchingRows returns the indices of rows in category, for profiling.
func MatchingRows(df *state.DataFrame, categoryColumn, category string) []int {
	idx := df.ColumnIndex(categoryColumn)
	if idx < 0 {
		return []int{}
	}
	rows := []int{}
	for i := range df.Rows {
		if df.Cell(i, idx) == category {
			rows = append(rows, i)
		}
	}
	return rows
}
