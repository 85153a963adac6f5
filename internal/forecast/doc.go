// Package forecast fits additive trend + seasonality models to a univariate
// time series and extrapolates them with uncertainty intervals.
//
// The model is
//
//	y(t) = g(t) + s(t) + ε
//
// where g is a piecewise-linear trend with automatically placed changepoints
// and s is a sum of Fourier series, one per seasonality (yearly, weekly,
// daily, plus any custom terms). Parameters are the MAP estimate under
// Gaussian priors, solved in closed form on the normal equations.
//
// Uncertainty intervals are simulated: future trend changes are sampled at the
// historical changepoint rate with Laplace-distributed slope deltas, and
// observation noise is added on top.
//
// # Quick Start
//
//	cfg := forecast.DefaultConfig()
//	cfg.AddSeasonality("monthly", 12, 2)
//	model := forecast.New(cfg)
//	if err := model.Fit(points); err != nil {
//		return err
//	}
//	result, err := model.Predict(forecast.Horizon{Periods: 30, Freq: forecast.Daily})
//
// Result rows cover every unique historical date followed by the future
// dates produced by MakeFutureDates.
package forecast
