package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"forecast-studio/internal/forecast"
)

const (
	historyTitle = "Datos históricos"
	dateAxis     = "Fecha"
	boundColor   = "gray"
)

// History renders the filtered series as an interactive line chart.
func History(w io.Writer, points []forecast.Point, metric string) error {
	line := newLine(historyTitle, metric)

	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = point(p.DS, p.Y)
	}
	line.AddSeries(metric, data)
	return line.Render(w)
}

// ForecastTitle is the heading of the forecast chart.
func ForecastTitle(metric, category string) string {
	return fmt.Sprintf("Predicción para %s (%s)", metric, category)
}

// Forecast overlays the history, the point forecast and both interval
// bounds on one time axis.
func Forecast(w io.Writer, points []forecast.Point, res *forecast.Result, metric, category string) error {
	if res == nil {
		return fmt.Errorf("no forecast to render")
	}
	line := newLine(ForecastTitle(metric, category), metric)

	actual := make([]opts.LineData, len(points))
	for i, p := range points {
		actual[i] = point(p.DS, p.Y)
	}

	yhat, lower, upper := res.YHat(), res.Lower(), res.Upper()
	pred := make([]opts.LineData, res.Len())
	lo := make([]opts.LineData, res.Len())
	hi := make([]opts.LineData, res.Len())
	for i, d := range res.DS {
		pred[i] = point(d, yhat[i])
		lo[i] = point(d, lower[i])
		hi[i] = point(d, upper[i])
	}

	bound := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: boundColor, Width: 1})
	line.AddSeries("Datos históricos", actual).
		AddSeries("Predicción", pred, charts.WithLineStyleOpts(opts.LineStyle{Width: 2})).
		AddSeries("Límite superior", hi, bound).
		AddSeries("Límite inferior", lo, bound)
	return line.Render(w)
}

func newLine(title, metric string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: dateAxis, Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: metric}),
	)
	return line
}

func point(d time.Time, v float64) opts.LineData {
	return opts.LineData{Value: []interface{}{d.Format(time.RFC3339), v}}
}
