package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("model has not been fitted")
	// ErrTooFewPoints is returned when fitting fewer than two observations.
	ErrTooFewPoints = errors.New("series has less than 2 non-NaN rows")
	// ErrZeroSpan is returned when every observation shares one timestamp.
	ErrZeroSpan = errors.New("all timestamps are identical")
	// ErrNonFinite is returned for NaN or infinite observations.
	ErrNonFinite = errors.New("series contains non-finite values")
	// ErrSingular is returned when the normal equations cannot be solved.
	ErrSingular = errors.New("design matrix is singular")
)

// FitError reports a failure of the forecasting engine.
type FitError struct {
	Stage string // "fit" or "predict"
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("forecast %s failed: %v", e.Stage, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

func fitErr(err error) error     { return &FitError{Stage: "fit", Err: err} }
func predictErr(err error) error { return &FitError{Stage: "predict", Err: err} }
