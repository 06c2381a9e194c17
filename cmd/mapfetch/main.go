package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/config"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/encode"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/logging"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/staticmap"
)

func main() {
	configPath := flag.String("config", "", "Config file")
	providerName := flag.String("provider", "", "Map provider (default from config)")
	token := flag.String("token", "", "Access token (default from config)")
	boxFlag := flag.String("box", "", "Bounding box min_lon,max_lon,min_lat,max_lat")
	sessionPath := flag.String("session", "", "Take the bounding box from a session export instead")
	padding := flag.Float64("padding", 0.001, "Padding in degrees around a session track")
	outDir := flag.String("out", ".", "Directory for the fetched and cropped images")
	planOnly := flag.Bool("plan", false, "Print the zoom plan without fetching")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if *providerName != "" {
		cfg.Map.Provider = *providerName
	}
	if *token != "" {
		cfg.Map.Token = *token
	}
	logging.Setup("debug", "text")

	box, err := resolveBox(*boxFlag, *sessionPath, *padding)
	if err != nil {
		fail(err)
	}

	p, err := cfg.Provider()
	if err != nil && (!*planOnly || p.Name == "") {
		fail(err)
	}
	proj := p.Projection()
	lon, lat := box.Center()

	fmt.Printf("Provider: %s (tile %d, max zoom %d, %dx%d, retina %v)\n", p.Name, p.TileSize, p.MaxZoom, p.Width, p.Height, p.Retina)
	fmt.Printf("Box: %s\n", box)
	fmt.Printf("Center: %.5f, %.5f\n", coord.RoundCenter(lon), coord.RoundCenter(lat))

	fmt.Println("\n--- Zoom Plan ---")
	for z := p.MaxZoom; z >= 1; z-- {
		covering := proj.CoveringBounds(coord.RoundCenter(lon), coord.RoundCenter(lat), z, p.Width, p.Height)
		fmt.Printf("  z%-2d %7.2f m/px  covering %s contains=%v\n", z, proj.ResolutionAtLat(box.CenterLat(), z), covering, covering.Contains(box))
	}

	f := staticmap.NewFetcher(p, cfg.Map.Timeout)
	zoom, covering, url := f.Plan(box)
	fmt.Printf("Selected: z%d, covering %s\n", zoom, covering)
	fmt.Printf("URL: %s\n", p.Redact(url))
	if *planOnly {
		return
	}

	fmt.Println("\n--- Fetch ---")
	f.Progress = os.Stderr
	ctx, cancel := fetchContext(context.Background(), cfg.Map.Timeout)
	defer cancel()
	m, err := f.Fetch(ctx, box)
	if err != nil {
		fail(err)
	}
	crop := m.Image.Bounds()
	fmt.Printf("Returned: %dx%d %s, %d bytes, scale %g, %.2f m/px\n", m.Returned.X, m.Returned.Y, m.Format, m.Bytes, m.Scale, m.Resolution)
	fmt.Printf("Crop: %v (%dx%d)\n", staticmap.CropRect(m.Returned.X, m.Returned.Y, box, m.Covering), crop.Dx(), crop.Dy())

	enc, err := encode.NewEncoder("png", 0)
	if err != nil {
		fail(err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fail(err)
	}
	for name, img := range map[string]image.Image{"full": m.Full, "crop": m.Image} {
		data, err := enc.Encode(img)
		if err != nil {
			fail(err)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("map_z%d_%s%s", m.Zoom, name, enc.FileExtension()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

// fetchContext bounds the fetch a little beyond the client timeout so the
// client error wins. timeout <= 0 leaves the fetch unbounded.
func fetchContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout+5*time.Second)
}

func resolveBox(boxFlag, sessionPath string, padding float64) (coord.Bounds, error) {
	if sessionPath != "" {
		s, err := session.Load(sessionPath, session.DefaultLayout())
		if err != nil {
			return coord.Bounds{}, err
		}
		samples, err := session.StrokeSlice{}.Apply(s.Samples)
		if err != nil {
			return coord.Bounds{}, err
		}
		return session.TrackBounds(samples, padding)
	}

	parts := strings.Split(boxFlag, ",")
	if len(parts) != 4 {
		return coord.Bounds{}, fmt.Errorf("-box wants min_lon,max_lon,min_lat,max_lat, got %q", boxFlag)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return coord.Bounds{}, fmt.Errorf("-box value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return coord.NewBounds(v[0], v[1], v[2], v[3])
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
