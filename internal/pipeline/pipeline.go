// Package pipeline runs the analysis of one session export: load, select
// the stroke window, summarize, fetch the map, render and write charts.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/chart"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/config"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/encode"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/metrics"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/staticmap"
)

// Chart kinds, also used as output file suffixes.
const (
	ChartGPS      = "gps"
	ChartStrokes  = "analysis1"
	ChartDistance = "analysis2"
)

// Options are per-invocation settings that do not belong in the config file.
type Options struct {
	// DryRun renders everything but writes no files.
	DryRun bool
	// Stdout receives the statistics printout; nil discards it.
	Stdout  io.Writer
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Result describes a completed run.
type Result struct {
	Session  *session.Session
	Start    time.Time
	Label    string
	Stem     string
	Slice    session.StrokeSlice
	Selected []session.Sample
	Summary  session.Summary
	Box      coord.Bounds
	Map      *staticmap.Map
	Charts   map[string]*image.RGBA
	Files    []string
}

// Run analyses the export at path.
func Run(ctx context.Context, cfg *config.Config, path string, opts Options) (*Result, error) {
	started := time.Now()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := opts.Metrics

	clock, err := cfg.Clock()
	if err != nil {
		return nil, err
	}
	slice, err := cfg.StrokeSlice()
	if err != nil {
		return nil, err
	}

	start, err := session.ParseStartTime(path, clock)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Start:  start,
		Label:  session.Label(start),
		Stem:   session.FileStem(start),
		Slice:  slice,
		Charts: make(map[string]*image.RGBA),
	}

	res.Session, err = session.Load(path, session.DefaultLayout())
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	res.Selected, err = slice.Apply(res.Session.Samples)
	if err != nil {
		return nil, err
	}
	rec.ObserveSamples(len(res.Session.Samples), len(res.Selected))
	log.Info("session loaded",
		"session", res.Label,
		"encoding", res.Session.Encoding,
		"samples", len(res.Session.Samples),
		"selected", len(res.Selected),
		"slice", slice.String(),
	)

	res.Summary, err = session.Summarize(res.Selected)
	if err != nil {
		return nil, err
	}
	if opts.Stdout != nil {
		fmt.Fprintf(opts.Stdout, "%s\n", res.Label)
		if err := res.Summary.Print(opts.Stdout); err != nil {
			return nil, err
		}
	}

	res.Box, err = session.TrackBounds(res.Selected, cfg.Map.Padding)
	if err != nil {
		return nil, err
	}

	w := &writer{dir: cfg.Charts.OutputDir, dryRun: opts.DryRun, log: log}

	if cfg.Charts.Enabled {
		if err := renderCharts(ctx, cfg, res, w, rec, log); err != nil {
			return nil, err
		}
	}

	if cfg.Export.GeoJSON {
		data, err := session.TrackGeoJSON(res.Selected, res.Stem)
		if err != nil {
			return nil, err
		}
		if err := w.write(res, res.Stem+"_track.geojson", data); err != nil {
			return nil, err
		}
	}
	if cfg.Export.Summary {
		data, err := summaryYAML(res, cfg)
		if err != nil {
			return nil, err
		}
		if err := w.write(res, res.Stem+"_summary.yaml", data); err != nil {
			return nil, err
		}
	}

	rec.ObserveRun(time.Since(started))
	if cfg.Metrics.Textfile != "" && !opts.DryRun {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
	}
	log.Info("session done", "files", len(res.Files), "elapsed", time.Since(started).Round(time.Millisecond))
	return res, nil
}

func renderCharts(ctx context.Context, cfg *config.Config, res *Result, w *writer, rec *metrics.Recorder, log *slog.Logger) error {
	enc, err := encode.NewEncoder(cfg.Charts.Format, cfg.Charts.Quality)
	if err != nil {
		return err
	}
	bounds, err := cfg.AxisBounds()
	if err != nil {
		return err
	}
	style := cfg.ChartStyle()

	if cfg.Charts.GPS {
		var mapImg image.Image
		if cfg.Map.Enabled {
			res.Map, err = fetchMap(ctx, cfg, res.Box, rec, log)
			if err != nil {
				return err
			}
			mapImg = res.Map.Image
		}
		img, err := chart.GPS(style, res.Selected, mapImg, res.Box, res.Label)
		if err != nil {
			return fmt.Errorf("render gps chart: %w", err)
		}
		if err := w.image(res, ChartGPS, img, enc, rec); err != nil {
			return err
		}
	}

	if cfg.Charts.Strokes {
		img, err := chart.VsStrokes(style, res.Selected, bounds, res.Label)
		if err != nil {
			return fmt.Errorf("render stroke chart: %w", err)
		}
		if err := w.image(res, ChartStrokes, img, enc, rec); err != nil {
			return err
		}
	}

	if cfg.Charts.Distance {
		img, err := chart.VsDistance(style, res.Selected, bounds, res.Label)
		if err != nil {
			return fmt.Errorf("render distance chart: %w", err)
		}
		if err := w.image(res, ChartDistance, img, enc, rec); err != nil {
			return err
		}
	}
	return nil
}

func fetchMap(ctx context.Context, cfg *config.Config, box coord.Bounds, rec *metrics.Recorder, log *slog.Logger) (*staticmap.Map, error) {
	p, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	f := staticmap.NewFetcher(p, cfg.Map.Timeout)
	f.Metrics = rec
	f.Logger = log
	if cfg.Map.Attribution {
		f.AttributionSize = cfg.Map.AttributionSize
	}
	if cfg.Map.Progress {
		f.Progress = os.Stderr
	}
	m, err := f.Fetch(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("fetch map: %w", err)
	}
	return m, nil
}

// writer puts output files into one directory, creating it on first use.
type writer struct {
	dir     string
	dryRun  bool
	log     *slog.Logger
	created bool
}

func (w *writer) image(res *Result, kind string, img *image.RGBA, enc *encode.Encoder, rec *metrics.Recorder) error {
	res.Charts[kind] = img
	rec.ObserveChart(kind)
	data, err := enc.Encode(img)
	if err != nil {
		return fmt.Errorf("encode %s chart: %w", kind, err)
	}
	return w.write(res, res.Stem+"_"+kind+enc.FileExtension(), data)
}

func (w *writer) write(res *Result, name string, data []byte) error {
	path := filepath.Join(w.dir, name)
	if w.dryRun {
		w.log.Info("dry run, not writing", "path", path, "bytes", len(data))
		return nil
	}
	if !w.created {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		w.created = true
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	res.Files = append(res.Files, path)
	w.log.Debug("wrote file", "path", path, "bytes", len(data))
	return nil
}
