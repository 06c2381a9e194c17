package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
)

// DefaultQuality is used for lossy formats when no quality is configured.
const DefaultQuality = 90

// Format is a raster format that static maps arrive in and charts are
// written in.
type Format struct {
	Name        string
	Extension   string
	ContentType string
	Lossy       bool

	match  func(data []byte) bool
	decode func(r io.Reader) (image.Image, error)
	encode func(w io.Writer, img image.Image, quality int) error
}

var formats = []*Format{
	{
		Name:        "png",
		Extension:   ".png",
		ContentType: "image/png",
		match:       func(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")) },
		decode:      png.Decode,
		encode: func(w io.Writer, img image.Image, _ int) error {
			enc := png.Encoder{CompressionLevel: png.BestSpeed}
			return enc.Encode(w, img)
		},
	},
	{
		Name:        "jpeg",
		Extension:   ".jpg",
		ContentType: "image/jpeg",
		Lossy:       true,
		match:       func(b []byte) bool { return bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}) },
		decode:      jpeg.Decode,
		encode: func(w io.Writer, img image.Image, quality int) error {
			return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality})
		},
	},
	{
		Name:        "webp",
		Extension:   ".webp",
		ContentType: "image/webp",
		Lossy:       true,
		match: func(b []byte) bool {
			return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP"
		},
		decode: webp.Decode,
		// Quality 100 switches to lossless; chart line art compresses well that way.
		encode: func(w io.Writer, img image.Image, quality int) error {
			return webp.Encode(w, img, webp.Options{Quality: quality, Lossless: quality >= 100})
		},
	},
}

var aliases = map[string]string{"jpg": "jpeg"}

// Lookup returns the format registered under name (case-insensitive).
func Lookup(name string) (*Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unsupported image format: %q (supported: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the canonical format names.
func Names() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// flatten composites img onto white. JPEG has no alpha channel and would
// otherwise render transparent chart margins black.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
