package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when the selected category and metric leave no rows.
	ErrNoData = errors.New("no rows for this category and metric")
	// ErrUnknownMetric is returned for metrics outside the allow-list.
	ErrUnknownMetric = errors.New("metric is not in the allowed list")
	// ErrNoTable is returned when a run is requested before any upload.
	ErrNoTable = errors.New("no table loaded")
)

// InvalidValueError reports a metric cell that is neither numeric nor missing.
type InvalidValueError struct {
	Column string
	Row    int // 1-based data row
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("column %q row %d: %q is not a number", e.Column, e.Row, e.Value)
}

// DateParseError reports a date cell no supported layout accepts.
type DateParseError struct {
	Column string
	Row    int // 1-based data row
	Value  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot parse date %q", e.Column, e.Row, e.Value)
}
