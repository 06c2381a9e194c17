package staticmap

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const attributionPad = 3

// Attribute stamps text in the bottom-right corner of img on a translucent
// white box and returns the result. size is the font size in pixels.
func Attribute(img image.Image, text string, size float64) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	if text == "" {
		return dst
	}

	face := resolveFontFace(size, basicfont.Face7x13)
	textW := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	box := image.Rect(
		b.Dx()-textW-2*attributionPad, b.Dy()-ascent-descent-2*attributionPad,
		b.Dx(), b.Dy(),
	).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(color.RGBA{255, 255, 255, 180}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{40, 40, 40, 255}),
		Face: face,
		Dot:  fixed.P(box.Min.X+attributionPad, b.Dy()-descent-attributionPad),
	}
	d.DrawString(text)
	return dst
}

func resolveFontFace(size float64, fallback font.Face) font.Face {
	if face := goFontFace(size); face != nil {
		return face
	}
	return fallback
}

var (
	goFontOnce  sync.Once
	goFontData  *opentype.Font
	goFontErr   error
	goFontMu    sync.Mutex
	goFontFaces = make(map[float64]font.Face)
)

func goFontFace(size float64) font.Face {
	goFontOnce.Do(func() {
		goFontData, goFontErr = opentype.Parse(goregular.TTF)
	})
	if goFontErr != nil || goFontData == nil || size <= 0 {
		return nil
	}
	goFontMu.Lock()
	defer goFontMu.Unlock()
	if face, ok := goFontFaces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(goFontData, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	goFontFaces[size] = face
	return face
}
