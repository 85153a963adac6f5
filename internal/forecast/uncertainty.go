package forecast

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// intervals simulates UncertaintySamples trajectories and returns the
// yhat and trend quantile bands at IntervalWidth. Inputs and outputs are in
// original units. With zero samples every band collapses to the point value.
func (md *Model) intervals(t, trend, additive []float64) (yLower, yUpper, tLower, tUpper []float64) {
	n := len(t)
	yLower = make([]float64, n)
	yUpper = make([]float64, n)
	tLower = make([]float64, n)
	tUpper = make([]float64, n)

	samples := md.cfg.UncertaintySamples
	if samples == 0 {
		for i := range t {
			yLower[i] = trend[i] + additive[i]
			yUpper[i] = yLower[i]
			tLower[i] = trend[i]
			tUpper[i] = trend[i]
		}
		return
	}

	rng := rand.New(rand.NewPCG(md.cfg.Seed, md.cfg.Seed^0x9e3779b97f4a7c15))

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return t[order[a]] < t[order[b]] })

	tMax := math.Inf(-1)
	for _, v := range t {
		tMax = math.Max(tMax, v)
	}

	// Changepoint draws are kept per trajectory; sample values are held
	// for one row at a time, so memory does not grow with len(t).
	cps := make([][]float64, samples)
	deltas := make([][]float64, samples)
	for s := range cps {
		cps[s], deltas[s] = md.sampleFutureChangepoints(rng, tMax)
	}

	// Per trajectory, Σ δ and Σ δ·c over the changepoints already passed.
	sumDelta := make([]float64, samples)
	sumDeltaC := make([]float64, samples)
	next := make([]int, samples)

	ys := make([]float64, samples)
	trs := make([]float64, samples)
	noise := md.sigma * md.yScale
	lo := (1 - md.cfg.IntervalWidth) / 2
	hi := 1 - lo

	for _, i := range order {
		for s := 0; s < samples; s++ {
			for next[s] < len(cps[s]) && cps[s][next[s]] < t[i] {
				sumDelta[s] += deltas[s][next[s]]
				sumDeltaC[s] += deltas[s][next[s]] * cps[s][next[s]]
				next[s]++
			}
			tr := trend[i] + (t[i]*sumDelta[s]-sumDeltaC[s])*md.yScale
			trs[s] = tr
			ys[s] = tr + additive[i] + rng.NormFloat64()*noise
		}
		sort.Float64s(ys)
		sort.Float64s(trs)
		yLower[i] = stat.Quantile(lo, stat.Empirical, ys, nil)
		yUpper[i] = stat.Quantile(hi, stat.Empirical, ys, nil)
		tLower[i] = stat.Quantile(lo, stat.Empirical, trs, nil)
		tUpper[i] = stat.Quantile(hi, stat.Empirical, trs, nil)
	}
	return
}

// sampleFutureChangepoints draws new changepoints in (1, tMax] at the rate
// observed in the history, with Laplace slope changes whose scale is the
// mean absolute fitted delta. Returned changepoints are sorted.
func (md *Model) sampleFutureChangepoints(rng *rand.Rand, tMax float64) ([]float64, []float64) {
	if tMax <= 1 || len(md.changepoints) == 0 {
		return nil, nil
	}

	rate := float64(len(md.changepoints)) * (tMax - 1)
	count := poisson(rng, rate)
	if count == 0 {
		return nil, nil
	}

	scale := 1e-8
	for _, d := range md.deltas {
		scale += math.Abs(d) / float64(len(md.deltas))
	}

	cps := make([]float64, count)
	for i := range cps {
		cps[i] = 1 + rng.Float64()*(tMax-1)
	}
	sort.Float64s(cps)

	deltas := make([]float64, count)
	for i := range deltas {
		deltas[i] = laplace(rng, scale)
	}
	return cps, deltas
}

// poisson uses Knuth's method for small rates and a rounded normal
// approximation above 30.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		v := math.Round(lambda + math.Sqrt(lambda)*rng.NormFloat64())
		if v < 0 {
			return 0
		}
		return int(v)
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func laplace(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64() - 0.5
	if u == -0.5 {
		return 0
	}
	if u < 0 {
		return scale * math.Log(1+2*u)
	}
	return -scale * math.Log(1-2*u)
}
