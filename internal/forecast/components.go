package forecast

import (
	"fmt"
	"time"
)

// ComponentKind distinguishes the trend panel from seasonal panels.
type ComponentKind string

const (
	TrendComponent    ComponentKind = "trend"
	SeasonalComponent ComponentKind = "seasonal"
)

// Component is one panel of the decomposition plot.
//
// Trend panels carry one point per result row with X as Unix seconds.
// Seasonal panels cover exactly one period with X as days into the cycle.
type Component struct {
	Name   string
	Kind   ComponentKind
	Period float64
	X      []float64
	Y      []float64
	Lower  []float64
	Upper  []float64
	Start  time.Time // first date of the seasonal cycle
}

const seasonalResolution = 200

// Components decomposes a prediction into the trend and one period of each
// seasonal term, in the order they appear in res.
func (md *Model) Components(res *Result) ([]Component, error) {
	if !md.fitted {
		return nil, ErrNotFitted
	}
	if res == nil || res.Len() == 0 {
		return nil, fmt.Errorf("empty forecast result")
	}

	trend := Component{
		Name:  "trend",
		Kind:  TrendComponent,
		X:     make([]float64, res.Len()),
		Y:     res.Trend(),
		Lower: res.cols["trend_lower"],
		Upper: res.cols["trend_upper"],
	}
	for i, d := range res.DS {
		trend.X[i] = float64(d.Unix())
	}
	out := []Component{trend}

	for _, name := range res.Seasonalities() {
		s, ok := md.seasonality(name)
		if !ok {
			continue
		}
		start := cycleStart(md.history[0].DS, s)
		c := Component{
			Name:   s.Name,
			Kind:   SeasonalComponent,
			Period: s.Period,
			Start:  start,
			X:      make([]float64, seasonalResolution),
			Y:      make([]float64, seasonalResolution),
		}
		step := s.Period / float64(seasonalResolution-1)
		for i := 0; i < seasonalResolution; i++ {
			days := step * float64(i)
			d := start.Add(time.Duration(days * secondsPerDay * float64(time.Second)))
			c.X[i] = days
			c.Y[i] = md.seasonalAt(d, s) * md.yScale
		}
		c.Lower = c.Y
		c.Upper = c.Y
		out = append(out, c)
	}
	return out, nil
}

func (md *Model) seasonality(name string) (Seasonality, bool) {
	for _, s := range md.seasonalities {
		if s.Name == name {
			return s, true
		}
	}
	return Seasonality{}, false
}

// cycleStart anchors the yearly panel on 1 January and the weekly panel on
// Sunday; other terms start at the first observation.
func cycleStart(first time.Time, s Seasonality) time.Time {
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	switch s.Name {
	case "yearly":
		return time.Date(first.Year(), time.January, 1, 0, 0, 0, 0, first.Location())
	case "weekly":
		return day.AddDate(0, 0, -int(day.Weekday()))
	}
	return day
}
