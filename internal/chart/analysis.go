package chart

import (
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
)

// VsStrokes renders split, stroke rate and distance per stroke against
// total strokes as three stacked panels.
func VsStrokes(style Style, samples []session.Sample, bounds AxisBounds, title string) (*image.RGBA, error) {
	return analysis(style, samples, bounds, title, "Stroke Count [ - ]",
		func(s session.Sample) float64 { return s.TotalStrokes })
}

// VsDistance renders the same panels against distance rowed.
func VsDistance(style Style, samples []session.Sample, bounds AxisBounds, title string) (*image.RGBA, error) {
	return analysis(style, samples, bounds, title, "Distance [ metres ]",
		func(s session.Sample) float64 { return s.Distance })
}

type panel struct {
	label  string
	color  color.Color
	shape  draw.GlyphDrawer
	bounds [2]float64
	value  func(session.Sample) float64
}

func analysis(style Style, samples []session.Sample, bounds AxisBounds, title, xLabel string, x func(session.Sample) float64) (*image.RGBA, error) {
	if len(samples) < 2 {
		return nil, ErrTooFewSamples
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	panels := []panel{
		{"Split (GPS) [ minutes : seconds ]", style.SplitColor, draw.SquareGlyph{}, bounds.split(),
			func(s session.Sample) float64 { return s.Split }},
		{"Stroke Rate [ strokes / minute ]", style.StrokeRateColor, draw.RingGlyph{}, bounds.strokeRate(),
			func(s session.Sample) float64 { return s.StrokeRate }},
		{"Distance Per Stroke [ metres / - ]", style.DistancePerStrokeColor, draw.RingGlyph{}, bounds.distancePerStroke(),
			func(s session.Sample) float64 { return s.DistancePerStroke }},
	}

	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = x(s)
	}
	xMin, xMax := floatRange(xs)

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		xys := make(plotter.XYs, len(samples))
		for j, s := range samples {
			xys[j] = plotter.XY{X: xs[j], Y: pn.value(s)}
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = pn.color
		line.LineStyle.Width = style.LineWidth
		points.GlyphStyle.Color = pn.color
		points.GlyphStyle.Shape = pn.shape
		points.GlyphStyle.Radius = style.GlyphRadius

		p := plot.New()
		p.Add(plotter.NewGrid(), line, points)
		p.X.Min, p.X.Max = xMin, xMax
		p.Y.Min, p.Y.Max = pn.bounds[0], pn.bounds[1]
		p.Y.Label.Text = pn.label
		p.Y.Label.TextStyle.Color = pn.color
		p.Y.Label.TextStyle.Font.Size = style.LabelSize

		switch i {
		case 0:
			p.Title.Text = title
			p.Title.TextStyle.Font.Size = style.TitleSize
			p.Y.Tick.Marker = splitTicks
			p.X.Tick.Marker = unlabelledTicks
		case len(panels) - 1:
			p.X.Label.Text = xLabel
			p.X.Label.TextStyle.Font.Size = style.LabelSize
		default:
			p.X.Tick.Marker = unlabelledTicks
		}
		plots[i] = []*plot.Plot{p}
	}

	img := rasterize(style.AnalysisWidth, style.AnalysisHeight, style.DPI, func(dc draw.Canvas) {
		tiles := draw.Tiles{
			Rows:      len(panels),
			Cols:      1,
			PadY:      vg.Points(6),
			PadTop:    vg.Points(4),
			PadBottom: vg.Points(4),
			PadLeft:   vg.Points(4),
			PadRight:  vg.Points(12),
		}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			plots[i][0].Draw(canvases[i][0])
		}
	})
	return img, nil
}
