package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/config"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/logging"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/metrics"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/pipeline"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/staticmap"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configPath  string
		provider    string
		token       string
		format      string
		quality     int
		dpi         int
		slice       string
		clock       string
		outDir      string
		timeout     time.Duration
		noMap       bool
		geojson     bool
		metricsFile string
		dryRun      bool
		progress    bool
		verbose     bool
		logFormat   string
		showVersion bool
		cpuProfile  string
		memProfile  string
	)

	flag.StringVar(&configPath, "config", "", "Config file (default: strokecoach.yaml in . or ./configs)")
	flag.StringVar(&provider, "provider", "", "Map provider: "+strings.Join(staticmap.ProviderNames(), ", "))
	flag.StringVar(&token, "token", "", "Map provider access token (or STROKECOACH_MAP_TOKEN)")
	flag.StringVar(&format, "format", "", "Chart encoding: png, jpeg, webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP quality 1-100")
	flag.IntVar(&dpi, "dpi", 0, "Chart resolution in dots per inch")
	flag.StringVar(&slice, "slice", "", "Stroke window start:end, negative counts from the end (e.g. 3:-25)")
	flag.StringVar(&clock, "clock", "", "File name time format: 12h or 24h")
	flag.StringVar(&outDir, "out", "", "Output directory (default: session_graphs)")
	flag.DurationVar(&timeout, "timeout", 0, "Map request timeout (default: 30s)")
	flag.BoolVar(&noMap, "no-map", false, "Draw the GPS track without fetching a map")
	flag.BoolVar(&geojson, "geojson", false, "Also write the GPS track as GeoJSON")
	flag.StringVar(&metricsFile, "metrics", "", "Write Prometheus metrics to this textfile")
	flag.BoolVar(&dryRun, "dry-run", false, "Render charts but do not write any file")
	flag.BoolVar(&progress, "progress", false, "Show map download progress")
	flag.BoolVar(&verbose, "verbose", false, "Debug logging")
	flag.StringVar(&logFormat, "log-format", "", "Log format: text, json")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: strokeplot [flags] <session.csv>\n\n")
		fmt.Fprintf(os.Stderr, "Summarize an NK SpeedCoach session export and render its charts.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("strokeplot %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	// Flags given on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			cfg.Map.Provider = provider
		case "token":
			cfg.Map.Token = token
		case "format":
			cfg.Charts.Format = format
		case "quality":
			cfg.Charts.Quality = quality
		case "dpi":
			cfg.Charts.DPI = dpi
		case "slice":
			cfg.Session.Slice = slice
		case "clock":
			cfg.Session.Clock = clock
		case "out":
			cfg.Charts.OutputDir = outDir
		case "timeout":
			cfg.Map.Timeout = timeout
		case "no-map":
			cfg.Map.Enabled = !noMap
		case "geojson":
			cfg.Export.GeoJSON = geojson
		case "metrics":
			cfg.Metrics.Textfile = metricsFile
		case "progress":
			cfg.Map.Progress = progress
		case "log-format":
			cfg.Log.Format = logFormat
		}
	})
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// CPU profiling.
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		slog.Debug("CPU profiling enabled", "path", cpuProfile)
	}

	// Memory profile (written at exit).
	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
			slog.Debug("Memory profile written", "path", memProfile)
		}()
	}

	// Print settings summary.
	fmt.Printf("strokeplot %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-14s %s\n", "Input:", inputPath)
	if cfg.Map.Enabled {
		fmt.Printf("  %-14s %s (timeout: %v)\n", "Map:", cfg.Map.Provider, cfg.Map.Timeout)
	} else {
		fmt.Printf("  %-14s disabled\n", "Map:")
	}
	switch cfg.Charts.Format {
	case "jpeg", "jpg", "webp":
		fmt.Printf("  %-14s %s (quality: %d)\n", "Format:", cfg.Charts.Format, cfg.Charts.Quality)
	default:
		fmt.Printf("  %-14s %s\n", "Format:", cfg.Charts.Format)
	}
	fmt.Printf("  %-14s %d dpi\n", "Resolution:", cfg.Charts.DPI)
	if ss, _ := cfg.StrokeSlice(); ss != (session.StrokeSlice{}) {
		fmt.Printf("  %-14s %s\n", "Strokes:", ss)
	} else {
		fmt.Printf("  %-14s all\n", "Strokes:")
	}
	fmt.Printf("  %-14s %s\n", "Clock:", cfg.Session.Clock)
	if dryRun {
		fmt.Printf("  %-14s dry run\n", "Output:")
	} else {
		fmt.Printf("  %-14s %s\n", "Output:", cfg.Charts.OutputDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, err := pipeline.Run(ctx, cfg, inputPath, pipeline.Options{
		DryRun:  dryRun,
		Stdout:  os.Stdout,
		Metrics: metrics.New(),
	})
	if err != nil {
		var pe *session.ParseError
		var ne *staticmap.NetworkError
		switch {
		case errors.As(err, &pe):
			log.Fatalf("Malformed session export: %v", err)
		case errors.As(err, &ne) && ne.StatusCode == http.StatusUnauthorized:
			log.Fatalf("Map provider rejected the access token: %v", err)
		default:
			log.Fatal(err)
		}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if res.Map != nil {
		fmt.Printf("Map: zoom %d, %dx%d @%gx, %.2f m/px, %s\n", res.Map.Zoom, res.Map.Returned.X, res.Map.Returned.Y, res.Map.Scale, res.Map.Resolution, formatBytes(res.Map.Bytes))
	}
	fmt.Printf("Done: %d file(s), %v → %s\n", len(res.Files), elapsed, cfg.Charts.OutputDir)
}

// formatBytes renders n in decimal units, whole kilobytes below 1 MB.
func formatBytes(n int) string {
	switch {
	case n >= 1e6:
		return fmt.Sprintf("%.2f MB", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%d kB", (n+500)/1000)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
