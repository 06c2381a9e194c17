package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/config"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/metrics"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/staticmap"
)

const sessionFile = "Toms Speedcoach 20230307 0427pm.csv"

// writeExport writes a synthetic SpeedCoach export with n strokes.
func writeExport(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Session Information:\n")
	for i := 1; i < 28; i++ {
		fmt.Fprintf(&b, "Meta %d:,value\n", i)
	}
	header := make([]string, 24)
	units := make([]string, 24)
	for i := range header {
		header[i] = fmt.Sprintf("Col %d", i)
		units[i] = "(-)"
	}
	header[1], header[3], header[4], header[5] = "Distance (GPS)", "Elapsed Time", "Split (GPS)", "Speed (GPS)"
	header[8], header[9], header[10] = "Stroke Rate", "Total Strokes", "Distance/Stroke (GPS)"
	header[22], header[23] = "GPS Lat.", "GPS Lon."
	b.WriteString(strings.Join(header, ",") + "\n")
	b.WriteString(strings.Join(units, ",") + "\n")

	for i := 0; i < n; i++ {
		a := float64(i) / float64(n) * math.Pi
		split := 105 + 5*math.Sin(a)
		row := make([]string, 24)
		for j := range row {
			row[j] = "0"
		}
		row[1] = fmt.Sprintf("%.1f", float64(i)*9)
		row[3] = fmt.Sprintf("00:%02d:%04.1f", (i*2)/60, float64((i*2)%60))
		row[4] = fmt.Sprintf("%02d:%04.1f", int(split)/60, math.Mod(split, 60))
		row[5] = fmt.Sprintf("%.2f", 500/split)
		row[8] = "32.0"
		row[9] = fmt.Sprint(i + 1)
		row[10] = "9.0"
		row[22] = fmt.Sprintf("%.6f", 51.5000+0.0001*float64(i))
		row[23] = fmt.Sprintf("%.6f", -0.1000+0.0002*float64(i))
		b.WriteString(strings.Join(row, ",") + "\n")
	}

	path := filepath.Join(dir, sessionFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testConfig returns a fast configuration writing into dir and fetching
// maps from baseURL.
func testConfig(dir, baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Map.Token = "pk.test"
	cfg.Map.URLTemplate = baseURL + "/static/{lon},{lat},{zoom}/{w}x{h}{retina}?access_token={token}"
	cfg.Charts.OutputDir = filepath.Join(dir, "session_graphs")
	cfg.Charts.DPI = 20
	cfg.Export.GeoJSON = true
	return cfg
}

func mapServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	body := pngBytes(t, 2048, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, 60)
	srv, hits := mapServer(t)

	cfg := testConfig(dir, srv.URL)
	cfg.Session.Slice = "3:-5"
	cfg.Metrics.Textfile = filepath.Join(dir, "strokecoach.prom")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, path, Options{Stdout: &out, Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Stem != "tue_07_mar_2023_1627_pm" || res.Label != "Tue 07 Mar 2023 - 16:27 PM" {
		t.Errorf("stem %q label %q", res.Stem, res.Label)
	}
	// samples[3 : 60-5-1]
	if len(res.Selected) != 51 || res.Selected[0].TotalStrokes != 4 {
		t.Errorf("selected %d samples starting at stroke %v, want 51 from stroke 4",
			len(res.Selected), res.Selected[0].TotalStrokes)
	}
	if hits.Load() != 1 {
		t.Errorf("map requests = %d, want 1", hits.Load())
	}
	if res.Map == nil || res.Map.Scale != 2 || !res.Map.Covering.Contains(res.Box) {
		t.Errorf("map = %+v", res.Map)
	}
	if !strings.Contains(out.String(), "Tue 07 Mar 2023 - 16:27 PM") || !strings.Contains(out.String(), "Total Number of Strokes        50") {
		t.Errorf("stdout:\n%s", out.String())
	}

	graphs := cfg.Charts.OutputDir
	for _, name := range []string{
		"tue_07_mar_2023_1627_pm_gps.png",
		"tue_07_mar_2023_1627_pm_analysis1.png",
		"tue_07_mar_2023_1627_pm_analysis2.png",
		"tue_07_mar_2023_1627_pm_track.geojson",
		"tue_07_mar_2023_1627_pm_summary.yaml",
	} {
		if _, err := os.Stat(filepath.Join(graphs, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if len(res.Files) != 5 {
		t.Errorf("Files = %v, want 5 entries", res.Files)
	}

	f, err := os.Open(filepath.Join(graphs, "tue_07_mar_2023_1627_pm_analysis1.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode chart: %v", err)
	}
	if cfgImg.Width != 600 || cfgImg.Height != 200 {
		t.Errorf("analysis chart = %dx%d, want 600x200 (30x10in at 20dpi)", cfgImg.Width, cfgImg.Height)
	}

	data, err := os.ReadFile(filepath.Join(graphs, "tue_07_mar_2023_1627_pm_summary.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Session string `yaml:"session"`
		Slice   string `yaml:"slice"`
		Parsed  int    `yaml:"parsed_samples"`
		Stats   struct {
			TotalStrokes int `yaml:"total_strokes"`
		} `yaml:"stats"`
		Map struct {
			Zoom   int     `yaml:"zoom"`
			Scale  float64 `yaml:"scale"`
			MPerPx float64 `yaml:"meters_per_pixel"`
		} `yaml:"map"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("summary yaml: %v", err)
	}
	if doc.Session != res.Label || doc.Slice != "3:-5" || doc.Parsed != 60 || doc.Stats.TotalStrokes != 50 {
		t.Errorf("summary = %+v", doc)
	}
	if doc.Map.Zoom != res.Map.Zoom || doc.Map.Scale != 2 || doc.Map.MPerPx <= 0 || doc.Map.MPerPx != res.Map.Resolution {
		t.Errorf("summary map = %+v", doc.Map)
	}

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	for _, want := range []string{
		`strokecoach_chart_rendered_total{kind="gps"} 1`,
		"strokecoach_session_samples_parsed_total 60",
		"strokecoach_session_samples_selected_total 51",
	} {
		if !strings.Contains(string(prom), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, 20)
	srv, _ := mapServer(t)
	cfg := testConfig(dir, srv.URL)

	res, err := Run(context.Background(), cfg, path, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("dry run wrote %v", res.Files)
	}
	if _, err := os.Stat(cfg.Charts.OutputDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created the output directory: %v", err)
	}
	for _, kind := range []string{ChartGPS, ChartStrokes, ChartDistance} {
		if res.Charts[kind] == nil {
			t.Errorf("chart %s not rendered", kind)
		}
	}
}

func TestRun_MapDisabled(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, 20)
	srv, hits := mapServer(t)
	cfg := testConfig(dir, srv.URL)
	cfg.Map.Enabled = false
	cfg.Charts.Strokes = false
	cfg.Charts.Distance = false
	cfg.Charts.Format = "jpeg"

	res, err := Run(context.Background(), cfg, path, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hits.Load() != 0 || res.Map != nil {
		t.Errorf("map fetched with map disabled")
	}
	if _, err := os.Stat(filepath.Join(cfg.Charts.OutputDir, res.Stem+"_gps.jpg")); err != nil {
		t.Errorf("gps jpeg missing: %v", err)
	}
	if len(res.Charts) != 1 {
		t.Errorf("rendered %d charts, want 1", len(res.Charts))
	}
}

func TestRun_MapFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Run(context.Background(), testConfig(dir, srv.URL), path, Options{})
	var ne *staticmap.NetworkError
	if !errors.As(err, &ne) || ne.StatusCode != http.StatusBadGateway {
		t.Fatalf("error = %v, want 502 *staticmap.NetworkError", err)
	}
}

func TestRun_BadInputs(t *testing.T) {
	dir := t.TempDir()
	srv, _ := mapServer(t)
	cfg := testConfig(dir, srv.URL)

	if _, err := Run(context.Background(), cfg, filepath.Join(dir, "session.csv"), Options{}); err == nil {
		t.Error("file name without timestamp accepted")
	}

	path := writeExport(t, dir, 10)
	cfg.Session.Slice = "8:-5"
	if _, err := Run(context.Background(), cfg, path, Options{}); err == nil {
		t.Error("empty stroke window accepted")
	}

	cfg.Session.Slice = ""
	if _, err := Run(context.Background(), cfg, filepath.Join(dir, "Other 20230307 0427pm.csv"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
