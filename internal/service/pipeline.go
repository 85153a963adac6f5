package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/forecast"
	"forecast-studio/internal/metrics"
	"forecast-studio/internal/models"
	"forecast-studio/internal/state"
)

// Forecaster is the model contract the pipeline drives.
type Forecaster interface {
	Fit(points []forecast.Point) error
	Predict(h forecast.Horizon) (*forecast.Result, error)
	Components(res *forecast.Result) ([]forecast.Component, error)
}

// PipelineConfig fixes the columns, allow-list and engine settings.
type PipelineConfig struct {
	Prepare    PrepareOptions
	MaxPeriods int
	Engine     *forecast.Config
}

// Pipeline runs Prepare → Fit → Predict → Components for one selection.
type Pipeline struct {
	cfg           PipelineConfig
	newForecaster func() Forecaster
	logger        *logrus.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewPipeline creates a pipeline. m may be nil.
func NewPipeline(cfg PipelineConfig, logger *logrus.Logger, m *metrics.Metrics) *Pipeline {
	if cfg.Engine == nil {
		cfg.Engine = forecast.DefaultConfig()
	}
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	p.newForecaster = func() Forecaster { return forecast.New(p.cfg.Engine) }
	return p
}

// SetForecasterFactory replaces the engine constructor.
func (p *Pipeline) SetForecasterFactory(f func() Forecaster) {
	p.newForecaster = f
}

// Options returns the column and metric settings.
func (p *Pipeline) Options() PrepareOptions { return p.cfg.Prepare }

// Execute runs the whole pipeline. The returned Run is never nil and
// carries the same error that is returned.
func (p *Pipeline) Execute(ctx context.Context, df *state.DataFrame, sel models.Selection) (*state.Run, error) {
	start := p.now()
	run := &state.Run{Selection: sel, At: start}
	log := p.logger.WithFields(logrus.Fields{
		"category": sel.Category,
		"metric":   sel.Metric,
		"periods":  sel.Periods,
		"freq":     sel.Freq,
	})

	finish := func(err error) (*state.Run, error) {
		run.Err = err
		run.Duration = p.now().Sub(start)
		outcome := Outcome(err)
		if p.metrics != nil {
			p.metrics.RecordRun(outcome)
		}
		entry := log.WithFields(logrus.Fields{
			"outcome":     outcome,
			"rows":        len(run.Input),
			"duration_ms": run.Duration.Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("pipeline run failed")
		} else {
			entry.Info("pipeline run completed")
		}
		return run, err
	}

	if df == nil {
		return finish(ErrNoTable)
	}
	if err := sel.Validate(p.cfg.Prepare.Metrics, p.cfg.MaxPeriods); err != nil {
		return finish(err)
	}
	freq, _ := forecast.ParseFreq(string(sel.Freq))
	sel.Freq = freq
	run.Selection = sel

	points, err := Prepare(df, sel.Category, sel.Metric, p.cfg.Prepare)
	if err != nil {
		return finish(err)
	}
	run.Input = points
	if len(points) == 0 {
		return finish(ErrNoData)
	}
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	fitStart := p.now()
	model := p.newForecaster()
	if err := model.Fit(points); err != nil {
		return finish(err)
	}
	res, err := model.Predict(sel.Horizon())
	if err != nil {
		return finish(err)
	}
	comps, err := model.Components(res)
	if err != nil {
		return finish(err)
	}
	if p.metrics != nil {
		p.metrics.ObserveFit(p.now().Sub(fitStart))
	}

	run.Result = res
	run.Components = comps
	return finish(nil)
}

// Outcome classifies a pipeline error for metrics and logs.
func Outcome(err error) string {
	var (
		fitErr     *forecast.FitError
		valueErr   *InvalidValueError
		dateErr    *DateParseError
		missingErr *analysis.MissingColumnError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNoData):
		return metrics.OutcomeNoData
	case errors.Is(err, models.ErrInvalidSelection), errors.Is(err, ErrUnknownMetric):
		return metrics.OutcomeInvalidSelection
	case errors.As(err, &fitErr), errors.Is(err, forecast.ErrNotFitted):
		return metrics.OutcomeFitError
	case errors.As(err, &valueErr), errors.As(err, &dateErr), errors.As(err, &missingErr), errors.Is(err, ErrNoTable):
		return metrics.OutcomeInvalidInput
	}
	return "error"
}
