package staticmap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/encode"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/metrics"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 30, 90, 200, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testProvider is a mapbox-shaped provider pointing at a test server.
func testProvider(baseURL string) Provider {
	return Provider{
		Name:        "test",
		URLTemplate: baseURL + "/static/{lon},{lat},{zoom}/{w}x{h}{retina}?access_token={token}",
		TileSize:    512,
		MaxZoom:     16,
		Width:       1024,
		Height:      1024,
		Retina:      true,
		Token:       "pk.secret",
		Attribution: "© Test",
	}
}

// mapServer serves body with contentType and records the last request URL.
func mapServer(t *testing.T, status int, contentType string, body []byte) (*httptest.Server, func() string) {
	t.Helper()
	var (
		mu   sync.Mutex
		last string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.URL.String()
		mu.Unlock()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() string {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestFetch_Retina(t *testing.T) {
	srv, last := mapServer(t, http.StatusOK, "image/png", solidPNG(t, 2048, 2048))
	f := NewFetcher(testProvider(srv.URL), 5*time.Second)

	m, err := f.Fetch(context.Background(), thames)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(last(), "/static/-0.09500,51.50500,15/1024x1024@2x?access_token=pk.secret") {
		t.Errorf("request = %s", last())
	}
	if m.Zoom != 15 || m.Format != "png" {
		t.Errorf("zoom %d format %s, want 15 png", m.Zoom, m.Format)
	}
	if m.Scale != 2 || m.Returned != image.Pt(2048, 2048) || m.Requested != image.Pt(1024, 1024) {
		t.Errorf("scale %v returned %v requested %v, want 2x", m.Scale, m.Returned, m.Requested)
	}
	if b := m.Image.Bounds(); b.Dx() != 932 || b.Dy() != 1497 {
		t.Errorf("crop = %dx%d, want 932x1497", b.Dx(), b.Dy())
	}
	// z15 with 512px tiles is ~1.49 m/px at 51.5°N; retina halves it.
	want := f.Provider.Projection().ResolutionAtLat(thames.CenterLat(), 15) / 2
	if math.Abs(m.Resolution-want) > 1e-9 || m.Resolution < 0.7 || m.Resolution > 0.8 {
		t.Errorf("resolution = %v m/px, want %v", m.Resolution, want)
	}
	if !m.Covering.Contains(m.Box) {
		t.Errorf("covering %v does not contain box %v", m.Covering, m.Box)
	}
}

func TestFetch_StandardDensity(t *testing.T) {
	srv, _ := mapServer(t, http.StatusOK, "image/png", solidPNG(t, 1024, 1024))
	m, err := NewFetcher(testProvider(srv.URL), 0).Fetch(context.Background(), thames)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if m.Scale != 1 {
		t.Errorf("scale = %v, want 1", m.Scale)
	}
	if m.Resolution < 1.4 || m.Resolution > 1.6 {
		t.Errorf("resolution = %v m/px, want ~1.49", m.Resolution)
	}
	if b := m.Image.Bounds(); b.Dx() != 466 || b.Dy() != 749 {
		t.Errorf("crop = %dx%d, want 466x749", b.Dx(), b.Dy())
	}
}

func TestFetch_WebP(t *testing.T) {
	enc, err := encode.NewEncoder("webp", 80)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 1024, 1024))
	data, err := enc.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	srv, _ := mapServer(t, http.StatusOK, "image/webp", data)
	m, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(context.Background(), thames)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if m.Format != "webp" {
		t.Errorf("format = %s, want webp", m.Format)
	}
}

func TestFetch_DegenerateBox(t *testing.T) {
	srv, last := mapServer(t, http.StatusOK, "image/png", solidPNG(t, 2048, 2048))
	box := coord.Bounds{MinLon: 0.1234, MaxLon: 0.1234, MinLat: 52.2, MaxLat: 52.2}
	m, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(context.Background(), box)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if m.Zoom != 16 || !strings.Contains(last(), ",16/") {
		t.Errorf("zoom = %d (request %s), want provider max 16", m.Zoom, last())
	}
	if b := m.Image.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("crop = %v, want 1x1", b)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv, _ := mapServer(t, http.StatusInternalServerError, "application/json", []byte(`{"message":"boom"}`))
	_, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(context.Background(), thames)

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if ne.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", ne.StatusCode)
	}
	if strings.Contains(err.Error(), "pk.secret") {
		t.Errorf("error leaks token: %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %v does not carry the response body", err)
	}
}

func TestFetch_Unauthorized(t *testing.T) {
	srv, _ := mapServer(t, http.StatusUnauthorized, "application/json", []byte(`{"message":"Not Authorized - Invalid Token"}`))
	_, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(context.Background(), thames)
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 *NetworkError", err)
	}
}

func TestFetch_NotAnImage(t *testing.T) {
	srv, _ := mapServer(t, http.StatusOK, "text/html; charset=utf-8", []byte("<html>captive portal</html>"))
	_, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(context.Background(), thames)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.ContentType != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", de.ContentType)
	}
	if !errors.Is(err, encode.ErrUnknownFormat) {
		t.Errorf("error = %v, want wrapped ErrUnknownFormat", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewFetcher(testProvider(base), time.Second).Fetch(context.Background(), thames)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if ne.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for a transport failure", ne.StatusCode)
	}
	if strings.Contains(err.Error(), "pk.secret") {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	srv, _ := mapServer(t, http.StatusOK, "image/png", solidPNG(t, 8, 8))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(testProvider(srv.URL), time.Second).Fetch(ctx, thames)
	var ne *NetworkError
	if !errors.As(err, &ne) || !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want *NetworkError wrapping context.Canceled", err)
	}
}

func TestFetch_MissingToken(t *testing.T) {
	p := testProvider("http://127.0.0.1:1")
	p.Token = ""
	if _, err := NewFetcher(p, time.Second).Fetch(context.Background(), thames); err == nil {
		t.Fatal("Fetch without token succeeded")
	}
}

func TestFetch_AttributionProgressMetrics(t *testing.T) {
	srv, _ := mapServer(t, http.StatusOK, "image/png", solidPNG(t, 2048, 2048))
	var progress bytes.Buffer
	rec := metrics.New()

	f := NewFetcher(testProvider(srv.URL), time.Second)
	f.Progress = &progress
	f.AttributionSize = 9
	f.Metrics = rec

	m, err := f.Fetch(context.Background(), thames)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	b := m.Image.Bounds()
	corner := color.RGBAModel.Convert(m.Image.At(b.Max.X-1, b.Max.Y-1)).(color.RGBA)
	if corner == (color.RGBA{30, 90, 200, 255}) {
		t.Error("bottom-right corner unchanged, want attribution stamp")
	}

	path := filepath.Join(t.TempDir(), "fetch.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	out, _ := os.ReadFile(path)
	for _, want := range []string{
		`strokecoach_map_fetches_total{provider="test",result="ok"} 1`,
		"strokecoach_map_zoom 15",
		"strokecoach_map_pixel_scale 2",
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("metrics missing %q:\n%s", want, out)
		}
	}
}

func TestPlan(t *testing.T) {
	f := NewFetcher(testProvider("http://maps.test"), 0)
	zoom, covering, url := f.Plan(thames)
	if zoom != 15 || !covering.Contains(thames) {
		t.Errorf("Plan = z%d %v", zoom, covering)
	}
	if url != "http://maps.test/static/-0.09500,51.50500,15/1024x1024@2x?access_token=pk.secret" {
		t.Errorf("url = %s", url)
	}
}
