package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Freq is the step unit of a forecast horizon.
type Freq string

const (
	Daily   Freq = "D"
	Weekly  Freq = "W"  // Sundays
	Monthly Freq = "M"  // month ends
	YearEnd Freq = "YE" // 31 December
)

// Freqs lists the supported units in display order.
var Freqs = []Freq{Daily, Weekly, Monthly, YearEnd}

// ParseFreq accepts the canonical codes and a few long names.
func ParseFreq(s string) (Freq, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "DAY", "DAILY":
		return Daily, nil
	case "W", "WEEK", "WEEKLY":
		return Weekly, nil
	case "M", "MONTH", "MONTHLY", "ME":
		return Monthly, nil
	case "YE", "Y", "YEAR", "YEAR-END", "YEAREND":
		return YearEnd, nil
	}
	return "", fmt.Errorf("unknown frequency %q (want one of D, W, M, YE)", s)
}

// Label returns a human readable name for the unit.
func (f Freq) Label() string {
	switch f {
	case Daily:
		return "día"
	case Weekly:
		return "semana"
	case Monthly:
		return "mes"
	case YearEnd:
		return "fin de año"
	}
	return string(f)
}

// Horizon is how far past the last observation to extrapolate.
type Horizon struct {
	Periods int
	Freq    Freq
}

// Validate checks that Periods is in [1, maxPeriods] and Freq is known.
func (h Horizon) Validate(maxPeriods int) error {
	if h.Periods < 1 || h.Periods > maxPeriods {
		return fmt.Errorf("periods must be between 1 and %d, got %d", maxPeriods, h.Periods)
	}
	if _, err := ParseFreq(string(h.Freq)); err != nil {
		return err
	}
	return nil
}

// MakeFutureDates returns h.Periods dates strictly after last. Daily steps
// are consecutive days; anchored units (W, M, YE) return the first anchors
// that fall strictly after last, keeping last's time of day.
func MakeFutureDates(last time.Time, h Horizon) []time.Time {
	if h.Periods <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, h.Periods)

	switch h.Freq {
	case Weekly:
		offset := (7 - int(last.Weekday())) % 7
		next := last.AddDate(0, 0, offset)
		if !next.After(last) {
			next = next.AddDate(0, 0, 7)
		}
		for i := 0; i < h.Periods; i++ {
			dates = append(dates, next.AddDate(0, 0, 7*i))
		}
	case Monthly:
		month := 1
		if monthEnd(last, 0).After(last) {
			month = 0
		}
		for i := 0; i < h.Periods; i++ {
			dates = append(dates, monthEnd(last, month+i))
		}
	case YearEnd:
		year := 1
		if yearEnd(last, 0).After(last) {
			year = 0
		}
		for i := 0; i < h.Periods; i++ {
			dates = append(dates, yearEnd(last, year+i))
		}
	default:
		for i := 1; i <= h.Periods; i++ {
			dates = append(dates, last.AddDate(0, 0, i))
		}
	}
	return dates
}

// monthEnd is the last day of the month `add` months after t's month.
func monthEnd(t time.Time, add int) time.Time {
	h, m, s := t.Clock()
	return time.Date(t.Year(), t.Month()+time.Month(add)+1, 0, h, m, s, t.Nanosecond(), t.Location())
}

func yearEnd(t time.Time, add int) time.Time {
	h, m, s := t.Clock()
	return time.Date(t.Year()+add, time.December, 31, h, m, s, t.Nanosecond(), t.Location())
}
