package encode

import (
	"bytes"
	"fmt"
	"image"
	"io"
)

// Encoder writes charts and map crops in one output format.
type Encoder struct {
	format  *Format
	quality int
}

// NewEncoder creates an encoder for the named format. quality applies to
// lossy formats; values <= 0 select DefaultQuality and values above 100
// are clamped.
func NewEncoder(name string, quality int) (*Encoder, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	switch {
	case quality <= 0:
		quality = DefaultQuality
	case quality > 100:
		quality = 100
	}
	return &Encoder{format: f, quality: quality}, nil
}

// Encode returns the encoded bytes of img.
func (e *Encoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.EncodeTo(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo streams the encoded image to w.
func (e *Encoder) EncodeTo(w io.Writer, img image.Image) error {
	if err := e.format.encode(w, img, e.quality); err != nil {
		return fmt.Errorf("encode %s: %w", e.format.Name, err)
	}
	return nil
}

func (e *Encoder) Format() string        { return e.format.Name }
func (e *Encoder) ContentType() string   { return e.format.ContentType }
func (e *Encoder) FileExtension() string { return e.format.Extension }
func (e *Encoder) Quality() int          { return e.quality }
