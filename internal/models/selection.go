package models

import (
	"errors"
	"fmt"
	"slices"

	"forecast-studio/internal/forecast"
)

// ErrInvalidSelection is returned when a selection names an unknown
// category, metric or horizon.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the user's current choice of series and horizon.
type Selection struct {
	Category string        `json:"category"`
	Metric   string        `json:"metric"`
	Periods  int           `json:"periods"`
	Freq     forecast.Freq `json:"freq"`
}

// Horizon returns the forecast horizon of the selection.
func (s Selection) Horizon() forecast.Horizon {
	return forecast.Horizon{Periods: s.Periods, Freq: s.Freq}
}

// SelectionRequest is a selection as submitted by the page or the API.
// A nil Periods means the field was absent.
type SelectionRequest struct {
	Category string        `json:"category"`
	Metric   string        `json:"metric"`
	Periods  *int          `json:"periods"`
	Freq     forecast.Freq `json:"freq"`
}

// WithDefaults fills absent fields: the first category, the first metric,
// defaultPeriods and daily steps. An explicit periods value is kept as is
// and left to Validate.
func (r SelectionRequest) WithDefaults(categories, metrics []string, defaultPeriods int) Selection {
	s := Selection{Category: r.Category, Metric: r.Metric, Periods: defaultPeriods, Freq: r.Freq}
	if r.Periods != nil {
		s.Periods = *r.Periods
	}
	if s.Category == "" && len(categories) > 0 {
		s.Category = categories[0]
	}
	if s.Metric == "" && len(metrics) > 0 {
		s.Metric = metrics[0]
	}
	if s.Freq == "" {
		s.Freq = forecast.Daily
	}
	return s
}

// Validate checks the selection against the metric allow-list and the
// horizon bounds. Categories are not checked: an absent category yields
// an empty series rather than an error.
func (s Selection) Validate(metrics []string, maxPeriods int) error {
	if s.Metric == "" {
		return fmt.Errorf("%w: metric is required", ErrInvalidSelection)
	}
	if !slices.Contains(metrics, s.Metric) {
		return fmt.Errorf("%w: metric %q is not in the allowed list", ErrInvalidSelection, s.Metric)
	}
	freq, err := forecast.ParseFreq(string(s.Freq))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	h := forecast.Horizon{Periods: s.Periods, Freq: freq}
	if err := h.Validate(maxPeriods); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return nil
}
