package render

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"forecast-studio/internal/forecast"
)

const (
	panelWidth  = 9 * vg.Inch
	panelHeight = 2.6 * vg.Inch
)

var (
	seriesColor = color.RGBA{R: 0, G: 114, B: 178, A: 255}
	bandColor   = color.Gray{Y: 150}
)

// Components draws one stacked panel per component as a PNG.
func Components(w io.Writer, comps []forecast.Component) error {
	if len(comps) == 0 {
		return fmt.Errorf("no components to render")
	}

	plots := make([][]*plot.Plot, len(comps))
	for i, c := range comps {
		p, err := componentPlot(c)
		if err != nil {
			return fmt.Errorf("component %s: %w", c.Name, err)
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(panelWidth, panelHeight*vg.Length(len(comps)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(comps),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

func componentPlot(c forecast.Component) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Name
	p.Y.Label.Text = c.Name
	p.Add(plotter.NewGrid())

	xs := c.X
	if c.Kind == forecast.SeasonalComponent {
		xs = make([]float64, len(c.X))
		for i, days := range c.X {
			xs[i] = float64(c.Start.Add(time.Duration(days * float64(24*time.Hour))).Unix())
		}
	}
	p.X.Tick.Marker = plot.TimeTicks{Format: tickFormat(c)}
	if c.Kind == forecast.TrendComponent {
		p.X.Label.Text = "ds"
	} else {
		p.X.Label.Text = fmt.Sprintf("period %.4g days", c.Period)
	}

	main, err := plotter.NewLine(xyPairs(xs, c.Y))
	if err != nil {
		return nil, err
	}
	main.LineStyle.Color = seriesColor
	main.LineStyle.Width = vg.Points(1.5)

	if c.Kind == forecast.TrendComponent && len(c.Lower) == len(xs) && len(c.Upper) == len(xs) {
		for _, band := range [][]float64{c.Lower, c.Upper} {
			l, err := plotter.NewLine(xyPairs(xs, band))
			if err != nil {
				return nil, err
			}
			l.LineStyle.Color = bandColor
			l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(l)
		}
	}
	p.Add(main)
	return p, nil
}

func tickFormat(c forecast.Component) string {
	switch {
	case c.Kind == forecast.TrendComponent:
		return "2006-01-02"
	case c.Period <= 1:
		return "15:04"
	case c.Period <= 7:
		return "Mon"
	default:
		return "Jan 2"
	}
}

func xyPairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
