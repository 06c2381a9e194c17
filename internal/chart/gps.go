package chart

import (
	"errors"
	"image"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
)

// ErrTooFewSamples is returned when a chart needs more samples than given.
var ErrTooFewSamples = errors.New("chart: at least two samples are required")

// GPS renders the track colored by boat speed over mapImg, which must span
// box. mapImg may be nil, in which case the track is drawn on white.
// The figure width follows the aspect ratio of the map.
func GPS(style Style, samples []session.Sample, mapImg image.Image, box coord.Bounds, title string) (*image.RGBA, error) {
	if len(samples) < 2 {
		return nil, ErrTooFewSamples
	}
	cmap, err := NewColorMap(style.ColorMap)
	if err != nil {
		return nil, err
	}

	xys := make(plotter.XYs, len(samples))
	speed := make([]float64, len(samples))
	for i, s := range samples {
		xys[i] = plotter.XY{X: s.Lon, Y: s.Lat}
		speed[i] = s.Speed
	}
	lo, hi := floatRange(speed)
	if hi <= lo {
		hi = lo + 1
	}
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = style.TitleSize
	p.HideAxes()
	p.X.Min, p.X.Max = box.MinLon, box.MaxLon
	p.Y.Min, p.Y.Max = box.MinLat, box.MaxLat
	if mapImg != nil {
		p.Add(plotter.NewImage(mapImg, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat))
	}
	p.Add(&speedTrack{XYs: xys, Speed: speed, ColorMap: cmap, Width: style.TrackWidth})

	bar := plot.New()
	bar.HideX()
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	bar.Y.Label.Text = "Boat Speed [m/s]"
	bar.Y.Label.TextStyle.Font.Size = style.LabelSize

	titleH := 2 * style.TitleSize
	mapH := style.GPSHeight - titleH
	w := vg.Length(float64(mapH)*mapAspect(mapImg, box)) + style.ColorBarWidth

	img := rasterize(w, style.GPSHeight, style.DPI, func(dc draw.Canvas) {
		width := dc.Max.X - dc.Min.X
		p.Draw(draw.Crop(dc, 0, -style.ColorBarWidth, 0, 0))
		bar.Draw(draw.Crop(dc, width-style.ColorBarWidth, 0, 0, -titleH))
	})
	return img, nil
}

// mapAspect is the width over height of the plotted area. Without a map
// the degree extent is corrected for longitude convergence.
func mapAspect(mapImg image.Image, box coord.Bounds) float64 {
	if mapImg != nil {
		b := mapImg.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 {
			return float64(b.Dx()) / float64(b.Dy())
		}
	}
	if box.Height() <= 0 || box.Width() <= 0 {
		return 1
	}
	a := box.Width() * math.Cos(box.CenterLat()*math.Pi/180) / box.Height()
	return math.Max(0.25, math.Min(4, a))
}

// speedTrack draws a polyline whose segments are colored by the speed at
// their first point.
type speedTrack struct {
	plotter.XYs
	Speed    []float64
	ColorMap palette.ColorMap
	Width    vg.Length
}

func (t *speedTrack) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	lo, hi := t.ColorMap.Min(), t.ColorMap.Max()
	for i := 1; i < len(t.XYs); i++ {
		col, err := t.ColorMap.At(math.Max(lo, math.Min(hi, t.Speed[i-1])))
		if err != nil {
			continue
		}
		seg := []vg.Point{
			{X: trX(t.XYs[i-1].X), Y: trY(t.XYs[i-1].Y)},
			{X: trX(t.XYs[i].X), Y: trY(t.XYs[i].Y)},
		}
		c.StrokeLines(draw.LineStyle{Color: col, Width: t.Width}, c.ClipLinesXY(seg)...)
	}
}

func (t *speedTrack) DataRange() (xmin, xmax, ymin, ymax float64) {
	return plotter.XYRange(t.XYs)
}

func floatRange(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
