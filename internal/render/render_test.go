package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast-studio/internal/forecast"
)

func fittedRun(t *testing.T) ([]forecast.Point, *forecast.Result, []forecast.Component) {
	t.Helper()
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.Point, 60)
	for i := range points {
		points[i] = forecast.Point{
			DS: start.AddDate(0, 0, i),
			Y:  50 + float64(i) + 5*math.Sin(2*math.Pi*float64(i)/7),
		}
	}
	cfg := forecast.DefaultConfig()
	cfg.UncertaintySamples = 100
	cfg.AddSeasonality("monthly", 12, 2)

	model := forecast.New(cfg)
	require.NoError(t, model.Fit(points))
	res, err := model.Predict(forecast.Horizon{Periods: 10, Freq: forecast.Daily})
	require.NoError(t, err)
	comps, err := model.Components(res)
	require.NoError(t, err)
	return points, res, comps
}

func TestHistoryChart(t *testing.T) {
	points, _, _ := fittedRun(t)

	var buf bytes.Buffer
	require.NoError(t, History(&buf, points, "trips_per_day"))
	html := buf.String()
	assert.Contains(t, html, "Datos históricos")
	assert.Contains(t, html, "trips_per_day")
	assert.Contains(t, html, "Fecha")
}

func TestForecastChart(t *testing.T) {
	points, res, _ := fittedRun(t)

	var buf bytes.Buffer
	require.NoError(t, Forecast(&buf, points, res, "trips_per_day", "bus"))
	html := buf.String()
	assert.Contains(t, html, "Predicción para trips_per_day (bus)")
	assert.Contains(t, html, "Límite superior")
	assert.Contains(t, html, "Límite inferior")
	assert.Contains(t, html, "dashed")

	assert.Error(t, Forecast(&buf, points, nil, "trips_per_day", "bus"))
}

func TestComponentsImage(t *testing.T) {
	_, _, comps := fittedRun(t)
	require.Len(t, comps, 3)

	var buf bytes.Buffer
	require.NoError(t, Components(&buf, comps))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Greater(t, bounds.Dy(), bounds.Dx()/2)

	var single bytes.Buffer
	require.NoError(t, Components(&single, comps[:1]))
	one, err := png.Decode(&single)
	require.NoError(t, err)
	assert.Less(t, one.Bounds().Dy(), bounds.Dy())

	assert.Error(t, Components(&buf, nil))
}
