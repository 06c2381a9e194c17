package chart

import (
	"image"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// rasterize draws onto a w×h canvas at dpi and returns the pixels.
func rasterize(w, h vg.Length, dpi int, fn func(dc draw.Canvas)) *image.RGBA {
	if dpi <= 0 {
		dpi = vgimg.DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	fn(draw.New(c))
	// NewWith backs the canvas with an *image.RGBA.
	return c.Image().(*image.RGBA)
}
