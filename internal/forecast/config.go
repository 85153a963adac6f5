package forecast

import (
	"fmt"
	"sort"
)

// SeasonalityMode selects how seasonal terms combine with the trend.
// Only additive seasonality is supported.
const SeasonalityMode = "additive"

// Seasonality describes one Fourier seasonal term.
type Seasonality struct {
	Name         string
	Period       float64 // in days
	FourierOrder int
	PriorScale   float64
}

// Toggle controls a built-in seasonality.
type Toggle string

const (
	Auto Toggle = "auto"
	On   Toggle = "on"
	Off  Toggle = "off"
)

// Config holds model hyperparameters.
type Config struct {
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	NChangepoints         int
	ChangepointRange      float64 // fraction of history eligible for changepoints
	IntervalWidth         float64
	UncertaintySamples    int
	Seed                  uint64

	Yearly Toggle
	Weekly Toggle
	Daily  Toggle

	custom []Seasonality
}

// DefaultConfig returns the configuration used by the dashboard pipeline.
func DefaultConfig() *Config {
	return &Config{
		ChangepointPriorScale: 0.04,
		SeasonalityPriorScale: 10.0,
		NChangepoints:         25,
		ChangepointRange:      0.8,
		IntervalWidth:         0.8,
		UncertaintySamples:    1000,
		Seed:                  42,
		Yearly:                Auto,
		Weekly:                Auto,
		Daily:                 Auto,
	}
}

// AddSeasonality registers a custom seasonal term. The prior scale defaults
// to SeasonalityPriorScale. Re-adding a name replaces the previous term.
func (c *Config) AddSeasonality(name string, period float64, fourierOrder int) *Config {
	s := Seasonality{
		Name:         name,
		Period:       period,
		FourierOrder: fourierOrder,
		PriorScale:   c.SeasonalityPriorScale,
	}
	for i := range c.custom {
		if c.custom[i].Name == name {
			c.custom[i] = s
			return c
		}
	}
	c.custom = append(c.custom, s)
	return c
}

// CustomSeasonalities returns a copy of the registered custom terms.
func (c *Config) CustomSeasonalities() []Seasonality {
	out := make([]Seasonality, len(c.custom))
	copy(out, c.custom)
	return out
}

// Validate checks hyperparameter ranges.
func (c *Config) Validate() error {
	if c.ChangepointPriorScale <= 0 {
		return fmt.Errorf("changepoint prior scale must be positive, got %v", c.ChangepointPriorScale)
	}
	if c.SeasonalityPriorScale <= 0 {
		return fmt.Errorf("seasonality prior scale must be positive, got %v", c.SeasonalityPriorScale)
	}
	if c.NChangepoints < 0 {
		return fmt.Errorf("number of changepoints must be >= 0, got %d", c.NChangepoints)
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		return fmt.Errorf("changepoint range must be in (0, 1], got %v", c.ChangepointRange)
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return fmt.Errorf("interval width must be in (0, 1), got %v", c.IntervalWidth)
	}
	if c.UncertaintySamples < 0 {
		return fmt.Errorf("uncertainty samples must be >= 0, got %d", c.UncertaintySamples)
	}
	for _, s := range c.custom {
		if s.Name == "" {
			return fmt.Errorf("seasonality name is required")
		}
		if reservedColumns[s.Name] {
			return fmt.Errorf("seasonality name %q is reserved", s.Name)
		}
		if s.Period <= 0 {
			return fmt.Errorf("seasonality %q: period must be positive", s.Name)
		}
		if s.FourierOrder < 1 {
			return fmt.Errorf("seasonality %q: fourier order must be >= 1", s.Name)
		}
		if s.PriorScale <= 0 {
			return fmt.Errorf("seasonality %q: prior scale must be positive", s.Name)
		}
	}
	return nil
}

var reservedColumns = map[string]bool{
	"ds": true, "y": true, "trend": true, "yhat": true,
	"additive_terms": true, "multiplicative_terms": true,
}

// activeSeasonalities resolves the built-in toggles against the history span
// and the minimum spacing between observations, both in days.
func (c *Config) activeSeasonalities(spanDays, minSpacingDays float64) []Seasonality {
	var out []Seasonality
	enabled := func(t Toggle, auto bool) bool {
		switch t {
		case On:
			return true
		case Off:
			return false
		default:
			return auto
		}
	}

	if enabled(c.Yearly, spanDays >= 730) {
		out = append(out, Seasonality{Name: "yearly", Period: 365.25, FourierOrder: 10, PriorScale: c.SeasonalityPriorScale})
	}
	if enabled(c.Weekly, spanDays >= 14 && minSpacingDays < 7) {
		out = append(out, Seasonality{Name: "weekly", Period: 7, FourierOrder: 3, PriorScale: c.SeasonalityPriorScale})
	}
	if enabled(c.Daily, spanDays >= 2 && minSpacingDays < 1) {
		out = append(out, Seasonality{Name: "daily", Period: 1, FourierOrder: 4, PriorScale: c.SeasonalityPriorScale})
	}

	for _, s := range c.custom {
		replaced := false
		for i := range out {
			if out[i].Name == s.Name {
				out[i] = s
				replaced = true
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
