package forecast

import (
	"math"
	"sort"
	"time"
)

const secondsPerDay = 86400.0

// Point is one observation of the series.
type Point struct {
	DS time.Time
	Y  float64
}

// Model is an additive trend + seasonality model.
type Model struct {
	cfg    *Config
	fitted bool

	history []Point // sorted by DS
	start   float64 // unix seconds of the first observation
	tScale  float64 // seconds from first to last observation
	yScale  float64

	seasonalities []Seasonality
	changepoints  []float64 // in scaled time

	k      float64
	m      float64
	deltas []float64
	betas  map[string][]float64
	sigma  float64 // observation noise in scaled units
}

// New creates an unfitted model. A nil config means DefaultConfig().
func New(cfg *Config) *Model {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Model{cfg: cfg}
}

// Fit estimates trend, changepoint and seasonal coefficients from points.
// Points need not be sorted; duplicate timestamps are allowed.
func (md *Model) Fit(points []Point) error {
	if err := md.cfg.Validate(); err != nil {
		return fitErr(err)
	}
	if len(points) < 2 {
		return fitErr(ErrTooFewPoints)
	}
	for _, p := range points {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return fitErr(ErrNonFinite)
		}
	}

	history := make([]Point, len(points))
	copy(history, points)
	sort.SliceStable(history, func(i, j int) bool { return history[i].DS.Before(history[j].DS) })

	start := unixSeconds(history[0].DS)
	span := unixSeconds(history[len(history)-1].DS) - start
	if span <= 0 {
		return fitErr(ErrZeroSpan)
	}

	md.history = history
	md.start = start
	md.tScale = span
	md.yScale = 0
	for _, p := range history {
		md.yScale = math.Max(md.yScale, math.Abs(p.Y))
	}
	if md.yScale == 0 {
		md.yScale = 1
	}

	md.seasonalities = md.cfg.activeSeasonalities(span/secondsPerDay, minSpacingDays(history))
	md.changepoints = md.placeChangepoints()

	n := len(history)
	dates := make([]time.Time, n)
	t := make([]float64, n)
	y := make([]float64, n)
	for i, p := range history {
		dates[i] = p.DS
		t[i] = md.scaleTime(p.DS)
		y[i] = p.Y / md.yScale
	}

	beta, sigma, err := md.solve(dates, t, y)
	if err != nil {
		return fitErr(err)
	}

	md.m = beta[0]
	md.k = beta[1]
	nc := len(md.changepoints)
	md.deltas = append([]float64(nil), beta[2:2+nc]...)
	md.betas = make(map[string][]float64, len(md.seasonalities))
	offset := 2 + nc
	for _, s := range md.seasonalities {
		width := 2 * s.FourierOrder
		md.betas[s.Name] = append([]float64(nil), beta[offset:offset+width]...)
		offset += width
	}
	md.sigma = sigma
	md.fitted = true
	return nil
}

// Seasonalities returns the seasonal terms in use after fitting.
func (md *Model) Seasonalities() []Seasonality {
	out := make([]Seasonality, len(md.seasonalities))
	copy(out, md.seasonalities)
	return out
}

// LastDate returns the latest observed timestamp.
func (md *Model) LastDate() (time.Time, error) {
	if !md.fitted {
		return time.Time{}, ErrNotFitted
	}
	return md.history[len(md.history)-1].DS, nil
}

// HistoryDates returns the unique observed timestamps in ascending order.
func (md *Model) HistoryDates() []time.Time {
	var out []time.Time
	for i, p := range md.history {
		if i > 0 && p.DS.Equal(md.history[i-1].DS) {
			continue
		}
		out = append(out, p.DS)
	}
	return out
}

// MakeFutureDataframe returns the unique history dates followed by h future dates.
func (md *Model) MakeFutureDataframe(h Horizon) ([]time.Time, error) {
	last, err := md.LastDate()
	if err != nil {
		return nil, err
	}
	dates := md.HistoryDates()
	return append(dates, MakeFutureDates(last, h)...), nil
}

// Predict forecasts every unique history date plus h future dates.
func (md *Model) Predict(h Horizon) (*Result, error) {
	dates, err := md.MakeFutureDataframe(h)
	if err != nil {
		return nil, predictErr(err)
	}
	return md.PredictDates(dates)
}

// PredictDates forecasts the given dates.
func (md *Model) PredictDates(dates []time.Time) (*Result, error) {
	if !md.fitted {
		return nil, predictErr(ErrNotFitted)
	}

	n := len(dates)
	t := make([]float64, n)
	trend := make([]float64, n)
	additive := make([]float64, n)
	seasonal := make(map[string][]float64, len(md.seasonalities))
	for _, s := range md.seasonalities {
		seasonal[s.Name] = make([]float64, n)
	}

	for i, d := range dates {
		t[i] = md.scaleTime(d)
		trend[i] = md.trendAt(t[i]) * md.yScale
		for _, s := range md.seasonalities {
			v := md.seasonalAt(d, s) * md.yScale
			seasonal[s.Name][i] = v
			additive[i] += v
		}
	}

	yhat := make([]float64, n)
	for i := range yhat {
		yhat[i] = trend[i] + additive[i]
	}

	yLower, yUpper, tLower, tUpper := md.intervals(t, trend, additive)

	res := newResult(dates)
	res.set("trend", trend)
	res.set("yhat_lower", yLower)
	res.set("yhat_upper", yUpper)
	res.set("trend_lower", tLower)
	res.set("trend_upper", tUpper)
	res.set("additive_terms", additive)
	res.set("additive_terms_lower", additive)
	res.set("additive_terms_upper", additive)
	for _, s := range md.seasonalities {
		res.set(s.Name, seasonal[s.Name])
		res.set(s.Name+"_lower", seasonal[s.Name])
		res.set(s.Name+"_upper", seasonal[s.Name])
		res.seasonal = append(res.seasonal, s.Name)
	}
	zeros := make([]float64, n)
	res.set("multiplicative_terms", zeros)
	res.set("multiplicative_terms_lower", zeros)
	res.set("multiplicative_terms_upper", zeros)
	res.set("yhat", yhat)
	return res, nil
}

func (md *Model) scaleTime(d time.Time) float64 {
	return (unixSeconds(d) - md.start) / md.tScale
}

// unixSeconds avoids time.Duration, which saturates past about 292 years.
func unixSeconds(d time.Time) float64 {
	return float64(d.Unix()) + float64(d.Nanosecond())/1e9
}

// trendAt evaluates the piecewise-linear trend in scaled units.
func (md *Model) trendAt(t float64) float64 {
	v := md.m + md.k*t
	for j, c := range md.changepoints {
		if t > c {
			v += md.deltas[j] * (t - c)
		}
	}
	return v
}

// seasonalAt evaluates one seasonal term in scaled units.
func (md *Model) seasonalAt(d time.Time, s Seasonality) float64 {
	feats := fourier(epochDays(d), s.Period, s.FourierOrder)
	beta := md.betas[s.Name]
	v := 0.0
	for i, f := range feats {
		v += f * beta[i]
	}
	return v
}

// placeChangepoints spreads NChangepoints evenly over the first
// ChangepointRange of the history, skipping the first observation.
func (md *Model) placeChangepoints() []float64 {
	n := len(md.history)
	histSize := int(math.Floor(float64(n) * md.cfg.ChangepointRange))
	nc := md.cfg.NChangepoints
	if nc+1 > histSize {
		nc = histSize - 1
	}
	if nc <= 0 {
		return nil
	}

	cps := make([]float64, 0, nc)
	step := float64(histSize-1) / float64(nc)
	for i := 1; i <= nc; i++ {
		idx := int(math.Round(step * float64(i)))
		cps = append(cps, md.scaleTime(md.history[idx].DS))
	}
	return cps
}

func epochDays(d time.Time) float64 {
	return unixSeconds(d) / secondsPerDay
}

// fourier returns sin/cos pairs for orders 1..order.
func fourier(days, period float64, order int) []float64 {
	out := make([]float64, 0, 2*order)
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * days / period
		out = append(out, math.Sin(x), math.Cos(x))
	}
	return out
}

// minSpacingDays is the smallest non-zero gap between sorted observations.
func minSpacingDays(history []Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(history); i++ {
		gap := (unixSeconds(history[i].DS) - unixSeconds(history[i-1].DS)) / secondsPerDay
		if gap > 0 && gap < best {
			best = gap
		}
	}
	return best
}
