// Package metrics records per-run counters for the analysis tools and
// writes them in the Prometheus text format for the node exporter's
// textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "strokecoach"

// Recorder holds the metrics of one run. A nil *Recorder discards
// every observation.
type Recorder struct {
	Registry *prometheus.Registry

	mapFetches       *prometheus.CounterVec
	mapFetchDuration *prometheus.HistogramVec
	mapBytes         prometheus.Counter
	mapZoom          prometheus.Gauge
	mapScale         prometheus.Gauge
	chartsRendered   *prometheus.CounterVec
	samplesParsed    prometheus.Counter
	samplesSelected  prometheus.Counter
	runDuration      prometheus.Gauge
}

// New creates a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		Registry: reg,
		mapFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "map",
			Name:      "fetches_total",
			Help:      "Static map fetches by provider and result",
		}, []string{"provider", "result"}),
		mapFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "map",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of static map requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		mapBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "map",
			Name:      "fetched_bytes_total",
			Help:      "Bytes of map imagery downloaded",
		}),
		mapZoom: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "map",
			Name:      "zoom",
			Help:      "Zoom level selected for the last map",
		}),
		mapScale: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "map",
			Name:      "pixel_scale",
			Help:      "Returned over requested pixel width of the last map",
		}),
		chartsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "rendered_total",
			Help:      "Charts rendered by kind",
		}, []string{"kind"}),
		samplesParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "samples_parsed_total",
			Help:      "Per-stroke rows parsed from exports",
		}),
		samplesSelected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "samples_selected_total",
			Help:      "Per-stroke rows kept by the stroke slice",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
}

// ObserveFetch records one map request. result is "ok" or an error class
// such as "network" or "decode".
func (r *Recorder) ObserveFetch(provider, result string, bytes int, d time.Duration) {
	if r == nil {
		return
	}
	r.mapFetches.WithLabelValues(provider, result).Inc()
	r.mapFetchDuration.WithLabelValues(provider).Observe(d.Seconds())
	if bytes > 0 {
		r.mapBytes.Add(float64(bytes))
	}
}

// ObserveMap records the zoom and pixel scale of a fetched map.
func (r *Recorder) ObserveMap(zoom int, scale float64) {
	if r == nil {
		return
	}
	r.mapZoom.Set(float64(zoom))
	r.mapScale.Set(scale)
}

// ObserveChart counts one rendered chart.
func (r *Recorder) ObserveChart(kind string) {
	if r == nil {
		return
	}
	r.chartsRendered.WithLabelValues(kind).Inc()
}

// ObserveSamples records parsed and selected row counts.
func (r *Recorder) ObserveSamples(parsed, selected int) {
	if r == nil {
		return
	}
	r.samplesParsed.Add(float64(parsed))
	r.samplesSelected.Add(float64(selected))
}

// ObserveRun records the wall time of a run.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
