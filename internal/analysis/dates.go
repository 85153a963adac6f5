package analysis

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",          // ISO: 2024-01-15
	"2006-01-02 15:04:05", // SQL datetime
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006", // US first
	"02/01/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses s with the first matching supported layout. Values
// without a zone are read as UTC; zoned values are converted to UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// IsDateColumn reports whether the first non-empty values of a column all
// parse as dates.
func IsDateColumn(values []string) bool {
	checked := 0
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		if _, err := ParseDate(v); err != nil {
			return false
		}
		checked++
		if checked == 5 {
			break
		}
	}
	return checked > 0
}
