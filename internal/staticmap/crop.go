package staticmap

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
)

// CropRect returns the pixel rectangle of box inside an image of size
// w×h that spans covering. Latitude is interpolated linearly, which is
// accurate to well under a pixel at the zoom levels used for a session.
// The rectangle is at least 1×1 and lies inside the image.
func CropRect(w, h int, box, covering coord.Bounds) image.Rectangle {
	dLon := covering.Width()
	dLat := covering.Height()
	if w <= 0 || h <= 0 || dLon <= 0 || dLat <= 0 {
		return image.Rect(0, 0, max(w, 0), max(h, 0))
	}

	x0 := int(math.Round(float64(w) * (box.MinLon - covering.MinLon) / dLon))
	y0 := int(math.Round(float64(h) * (covering.MaxLat - box.MaxLat) / dLat))
	cw := int(math.Round(float64(w) * box.Width() / dLon))
	ch := int(math.Round(float64(h) * box.Height() / dLat))

	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)
	cw = clamp(cw, 1, w-x0)
	ch = clamp(ch, 1, h-y0)
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

// Crop cuts box out of img, whose extent is covering. The result's bounds
// start at the origin.
func Crop(img image.Image, box, covering coord.Bounds) image.Image {
	b := img.Bounds()
	r := CropRect(b.Dx(), b.Dy(), box, covering).Add(b.Min)

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
