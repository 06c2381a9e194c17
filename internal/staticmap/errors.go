package staticmap

import "fmt"

// NetworkError is a failed map request: a transport error or a non-2xx
// response. URL has the access token redacted.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a response body that is not a PNG, JPEG or WebP image.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode map image (content type %q): %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
