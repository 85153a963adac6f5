package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedUpload is returned when the upload cannot be read as delimited text.
	ErrMalformedUpload = errors.New("file is not valid delimited text")
	// ErrNotCSV is returned for uploads without a .csv extension.
	ErrNotCSV = errors.New("only .csv files are accepted")
)

// MissingColumnError reports a required column absent from the table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpload, fmt.Sprintf(format, args...))
}
