// Package chart renders session charts: the GPS track over a map colored
// by boat speed, and split / stroke rate / distance per stroke panels
// against stroke count or distance.
package chart

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
)

// Style holds every visual parameter of the charts. Each render call takes
// a Style value; there is no package-level styling state.
type Style struct {
	DPI int

	GPSHeight     vg.Length
	ColorBarWidth vg.Length
	TrackWidth    vg.Length
	ColorMap      string

	AnalysisWidth  vg.Length
	AnalysisHeight vg.Length
	LineWidth      vg.Length
	GlyphRadius    vg.Length

	TitleSize vg.Length
	LabelSize vg.Length

	SplitColor             color.Color
	StrokeRateColor        color.Color
	DistancePerStrokeColor color.Color
}

// DefaultStyle returns the standard chart look.
func DefaultStyle() Style {
	return Style{
		DPI:                    100,
		GPSHeight:              5 * vg.Inch,
		ColorBarWidth:          1.1 * vg.Inch,
		TrackWidth:             vg.Points(2.5),
		ColorMap:               "blackbody",
		AnalysisWidth:          30 * vg.Inch,
		AnalysisHeight:         10 * vg.Inch,
		LineWidth:              vg.Points(1),
		GlyphRadius:            vg.Points(2.5),
		TitleSize:              vg.Points(14),
		LabelSize:              vg.Points(11),
		SplitColor:             color.RGBA{B: 255, A: 255},
		StrokeRateColor:        color.RGBA{R: 255, A: 255},
		DistancePerStrokeColor: color.RGBA{G: 128, A: 255},
	}
}

var colorMaps = map[string]func() palette.ColorMap{
	"blackbody": moreland.ExtendedBlackBody,
	"kindlmann": moreland.ExtendedKindlmann,
	"bluered":   func() palette.ColorMap { return moreland.SmoothBlueRed() },
	"greenred":  func() palette.ColorMap { return moreland.SmoothGreenRed() },
}

// NewColorMap returns a fresh color map by name.
func NewColorMap(name string) (palette.ColorMap, error) {
	fn, ok := colorMaps[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown color map %q (supported: blackbody, kindlmann, bluered, greenred)", name)
	}
	return fn(), nil
}

// AxisBounds overrides the y range of the analysis panels. A nil field
// keeps the default range.
type AxisBounds struct {
	Split             *[2]float64
	StrokeRate        *[2]float64
	DistancePerStroke *[2]float64
}

// Default y ranges of the analysis panels.
var (
	DefaultSplitBounds             = [2]float64{80, 120}
	DefaultStrokeRateBounds        = [2]float64{20, 50}
	DefaultDistancePerStrokeBounds = [2]float64{0, 12}
)

func (b AxisBounds) split() [2]float64 { return orDefault(b.Split, DefaultSplitBounds) }

func (b AxisBounds) strokeRate() [2]float64 {
	return orDefault(b.StrokeRate, DefaultStrokeRateBounds)
}

func (b AxisBounds) distancePerStroke() [2]float64 {
	return orDefault(b.DistancePerStroke, DefaultDistancePerStrokeBounds)
}

func orDefault(v *[2]float64, def [2]float64) [2]float64 {
	if v == nil {
		return def
	}
	return *v
}

// Validate rejects empty or inverted ranges.
func (b AxisBounds) Validate() error {
	for name, v := range map[string]*[2]float64{
		"split":               b.Split,
		"stroke rate":         b.StrokeRate,
		"distance per stroke": b.DistancePerStroke,
	} {
		if v != nil && !(v[0] < v[1]) {
			return fmt.Errorf("%s bounds [%v, %v]: min must be below max", name, v[0], v[1])
		}
	}
	return nil
}
