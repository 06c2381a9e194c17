package encode

import (
	"bytes"
	"errors"
	"image"
)

// ErrUnknownFormat is returned by DecodeImage when the payload matches no
// supported image signature.
var ErrUnknownFormat = errors.New("unknown image format")

// SniffFormat inspects the leading bytes of data and returns the format
// name, or "" when the signature is not recognized. The Content-Type header
// of a provider response is not consulted.
func SniffFormat(data []byte) string {
	for _, f := range formats {
		if f.match(data) {
			return f.Name
		}
	}
	return ""
}

// DecodeImage decodes image bytes, detecting the format from the payload.
func DecodeImage(data []byte) (image.Image, string, error) {
	format := SniffFormat(data)
	if format == "" {
		return nil, "", ErrUnknownFormat
	}
	img, err := DecodeFormat(data, format)
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

// DecodeFormat decodes image bytes in the named format.
func DecodeFormat(data []byte, name string) (image.Image, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return f.decode(bytes.NewReader(data))
}
