// Package staticmap fetches a rendered map image for a bounding box from a
// static-map HTTP API and crops it to the box.
package staticmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/encode"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/metrics"
)

// DefaultTimeout bounds a single map request.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps the downloaded payload. A 2x 1280×1280 PNG is well below.
const maxBodySize = 32 << 20

// Map is a fetched and cropped map image.
type Map struct {
	Image     image.Image  // cropped to Box
	Full      image.Image  // as returned by the provider
	Format    string       // png, jpeg or webp
	Zoom      int          // selected zoom level
	Covering  coord.Bounds // extent of Full
	Box       coord.Bounds // requested extent
	Requested image.Point  // requested size in logical pixels
	Returned  image.Point  // size of Full in pixels
	Scale     float64      // Returned.X / Requested.X; 2 for retina responses
	Bytes     int          // payload size
	// Resolution is the ground size of one returned pixel in meters at the
	// latitude of the box center.
	Resolution float64
}

// Fetcher downloads static maps from one provider.
type Fetcher struct {
	Provider Provider
	Client   *http.Client
	// Progress, when non-nil, receives a byte progress bar for the download.
	Progress io.Writer
	// AttributionSize is the font size of the attribution stamp; 0 disables it.
	AttributionSize float64
	Metrics         *metrics.Recorder
	Logger          *slog.Logger
}

// NewFetcher returns a Fetcher with its own HTTP client. timeout <= 0
// disables the client timeout; the context still applies.
func NewFetcher(p Provider, timeout time.Duration) *Fetcher {
	if timeout < 0 {
		timeout = 0
	}
	return &Fetcher{
		Provider: p,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          4,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Plan selects the zoom for box and returns it with the covering bounds and
// the request URL, without touching the network.
func (f *Fetcher) Plan(box coord.Bounds) (zoom int, covering coord.Bounds, url string) {
	p := f.Provider
	zoom, covering = coord.SelectZoom(p.Projection(), box, p.Width, p.Height, p.MaxZoom)
	lon, lat := box.Center()
	return zoom, covering, p.URL(lon, lat, zoom)
}

// Fetch selects a zoom level for box, downloads the map and crops it to box.
// The request is made once; failures are *NetworkError or *DecodeError.
func (f *Fetcher) Fetch(ctx context.Context, box coord.Bounds) (*Map, error) {
	if err := f.Provider.Validate(); err != nil {
		return nil, err
	}
	zoom, covering, url := f.Plan(box)
	redacted := f.Provider.Redact(url)
	log := f.logger().With("provider", f.Provider.Name)
	if !covering.Contains(box) {
		log.Warn("box larger than the coarsest map, track will be clipped", "box", box.String(), "covering", covering.String())
	}
	log.Debug("fetching map", "url", redacted, "zoom", zoom)

	start := time.Now()
	data, contentType, err := f.get(ctx, url, redacted)
	if err != nil {
		f.Metrics.ObserveFetch(f.Provider.Name, "network", len(data), time.Since(start))
		return nil, err
	}

	full, format, err := encode.DecodeImage(data)
	if err != nil {
		f.Metrics.ObserveFetch(f.Provider.Name, "decode", len(data), time.Since(start))
		return nil, &DecodeError{ContentType: contentType, Err: err}
	}
	f.Metrics.ObserveFetch(f.Provider.Name, "ok", len(data), time.Since(start))

	fb := full.Bounds()
	m := &Map{
		Full:      full,
		Format:    format,
		Zoom:      zoom,
		Covering:  covering,
		Box:       box,
		Requested: image.Pt(f.Provider.Width, f.Provider.Height),
		Returned:  image.Pt(fb.Dx(), fb.Dy()),
		Scale:     float64(fb.Dx()) / float64(f.Provider.Width),
		Bytes:     len(data),
	}
	m.Resolution = f.Provider.Projection().ResolutionAtLat(box.CenterLat(), zoom)
	if m.Scale > 0 {
		m.Resolution /= m.Scale
	}
	m.Image = Crop(full, box, covering)
	if f.AttributionSize > 0 && f.Provider.Attribution != "" {
		m.Image = Attribute(m.Image, f.Provider.Attribution, f.AttributionSize*m.Scale)
	}
	f.Metrics.ObserveMap(zoom, m.Scale)

	log.Info("map fetched",
		"zoom", zoom,
		"format", format,
		"returned", fmt.Sprintf("%dx%d", m.Returned.X, m.Returned.Y),
		"scale", m.Scale,
		"m_per_px", fmt.Sprintf("%.2f", m.Resolution),
		"crop", fmt.Sprintf("%dx%d", m.Image.Bounds().Dx(), m.Image.Bounds().Dy()),
		"bytes", m.Bytes,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return m, nil
}

func (f *Fetcher) get(ctx context.Context, url, redacted string) ([]byte, string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &NetworkError{URL: redacted, Err: err}
	}
	req.Header.Set("Accept", "image/png,image/jpeg,image/webp,*/*;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		// The transport error text repeats the URL; keep the token out of it.
		var ue *neturl.Error
		if errors.As(err, &ue) {
			ue.URL = redacted
		}
		return nil, "", &NetworkError{URL: redacted, Err: err}
	}
	defer resp.Body.Close()
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, contentType, &NetworkError{
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(snippet)),
		}
	}

	var body io.Reader = io.LimitReader(resp.Body, maxBodySize)
	if f.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(f.Progress),
			progressbar.OptionSetDescription("Downloading map"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		body = io.TeeReader(body, bar)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return data, contentType, &NetworkError{URL: redacted, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, contentType, nil
}
