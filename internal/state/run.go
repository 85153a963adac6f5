package state

import (
	"time"

	"forecast-studio/internal/forecast"
	"forecast-studio/internal/models"
)

// Run is the output of one pipeline execution. It replaces the session's
// previous run and is never modified afterwards.
type Run struct {
	Selection  models.Selection
	Input      []forecast.Point
	Result     *forecast.Result
	Components []forecast.Component
	Err        error
	Duration   time.Duration
	At         time.Time
}

// OK reports whether the run produced a forecast.
func (r *Run) OK() bool {
	return r != nil && r.Err == nil && r.Result != nil
}
