package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/chart"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/encode"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/staticmap"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Map     MapConfig     `mapstructure:"map"`
	Session SessionConfig `mapstructure:"session"`
	Charts  ChartsConfig  `mapstructure:"charts"`
	Export  ExportConfig  `mapstructure:"export"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MapConfig selects the static-map provider. Zero sizes, zoom and an
// empty style or URL template keep the provider's built-in values.
type MapConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	Token           string        `mapstructure:"token"`
	Style           string        `mapstructure:"style"`
	URLTemplate     string        `mapstructure:"url_template"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	MaxZoom         int           `mapstructure:"max_zoom"`
	Retina          bool          `mapstructure:"retina"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Padding         float64       `mapstructure:"padding"`
	Attribution     bool          `mapstructure:"attribution"`
	AttributionSize float64       `mapstructure:"attribution_size"`
	Progress        bool          `mapstructure:"progress"`
}

type SessionConfig struct {
	Clock string `mapstructure:"clock"`
	Slice string `mapstructure:"slice"`
}

type ChartsConfig struct {
	Enabled                 bool      `mapstructure:"enabled"`
	OutputDir               string    `mapstructure:"output_dir"`
	Format                  string    `mapstructure:"format"`
	Quality                 int       `mapstructure:"quality"`
	DPI                     int       `mapstructure:"dpi"`
	ColorMap                string    `mapstructure:"color_map"`
	GPS                     bool      `mapstructure:"gps"`
	Strokes                 bool      `mapstructure:"strokes"`
	Distance                bool      `mapstructure:"distance"`
	SplitBounds             []float64 `mapstructure:"split_bounds"`
	StrokeRateBounds        []float64 `mapstructure:"stroke_rate_bounds"`
	DistancePerStrokeBounds []float64 `mapstructure:"distance_per_stroke_bounds"`
}

type ExportConfig struct {
	GeoJSON bool `mapstructure:"geojson"`
	Summary bool `mapstructure:"summary"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads configuration from defaults, an optional YAML file and
// STROKECOACH_* environment variables, in increasing precedence. An empty
// path looks for strokecoach.yaml in . and ./configs and tolerates its
// absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("strokecoach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: STROKECOACH_MAP_TOKEN → map.token
	v.SetEnvPrefix("STROKECOACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("map.enabled", true)
	v.SetDefault("map.provider", "mapbox")
	v.SetDefault("map.token", "")
	v.SetDefault("map.style", "")
	v.SetDefault("map.url_template", "")
	v.SetDefault("map.width", 0)
	v.SetDefault("map.height", 0)
	v.SetDefault("map.max_zoom", 0)
	v.SetDefault("map.retina", true)
	v.SetDefault("map.timeout", staticmap.DefaultTimeout)
	v.SetDefault("map.padding", 0.001)
	v.SetDefault("map.attribution", true)
	v.SetDefault("map.attribution_size", 9.0)
	v.SetDefault("map.progress", false)

	v.SetDefault("session.clock", string(session.Clock12h))
	v.SetDefault("session.slice", "")

	v.SetDefault("charts.enabled", true)
	v.SetDefault("charts.output_dir", "session_graphs")
	v.SetDefault("charts.format", "png")
	v.SetDefault("charts.quality", 90)
	v.SetDefault("charts.dpi", 100)
	v.SetDefault("charts.color_map", "blackbody")
	v.SetDefault("charts.gps", true)
	v.SetDefault("charts.strokes", true)
	v.SetDefault("charts.distance", true)
	v.SetDefault("charts.split_bounds", []float64{})
	v.SetDefault("charts.stroke_rate_bounds", []float64{})
	v.SetDefault("charts.distance_per_stroke_bounds", []float64{})

	v.SetDefault("export.geojson", false)
	v.SetDefault("export.summary", true)

	v.SetDefault("metrics.textfile", "")
}

// Validate checks that the configuration is usable and reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if c.Map.Enabled && c.Charts.Enabled && c.Charts.GPS {
		if _, err := c.Provider(); err != nil {
			errs = append(errs, "map: "+err.Error())
		}
	}
	if c.Map.Padding < 0 {
		errs = append(errs, fmt.Sprintf("map.padding must not be negative, got %v", c.Map.Padding))
	}
	if c.Map.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("map.timeout must not be negative, got %v", c.Map.Timeout))
	}

	if _, err := session.ParseClock(c.Session.Clock); err != nil {
		errs = append(errs, "session.clock: "+err.Error())
	}
	if _, err := session.ParseStrokeSlice(c.Session.Slice); err != nil {
		errs = append(errs, "session.slice: "+err.Error())
	}

	if c.Charts.Enabled {
		if c.Charts.OutputDir == "" {
			errs = append(errs, "charts.output_dir is required")
		}
		if _, err := encode.NewEncoder(c.Charts.Format, c.Charts.Quality); err != nil {
			errs = append(errs, "charts.format: "+err.Error())
		}
		if c.Charts.Quality < 1 || c.Charts.Quality > 100 {
			errs = append(errs, fmt.Sprintf("charts.quality must be 1-100, got %d", c.Charts.Quality))
		}
		if c.Charts.DPI < 10 || c.Charts.DPI > 1200 {
			errs = append(errs, fmt.Sprintf("charts.dpi must be 10-1200, got %d", c.Charts.DPI))
		}
		if _, err := chart.NewColorMap(c.Charts.ColorMap); err != nil {
			errs = append(errs, "charts.color_map: "+err.Error())
		}
		if _, err := c.AxisBounds(); err != nil {
			errs = append(errs, "charts: "+err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Provider resolves the configured static-map provider with overrides applied.
func (c *Config) Provider() (staticmap.Provider, error) {
	p, err := staticmap.LookupProvider(c.Map.Provider)
	if err != nil {
		return staticmap.Provider{}, err
	}
	p.Token = c.Map.Token
	p.Retina = c.Map.Retina
	if c.Map.Style != "" {
		p.Style = c.Map.Style
	}
	if c.Map.URLTemplate != "" {
		p.URLTemplate = c.Map.URLTemplate
	}
	if c.Map.Width > 0 {
		p.Width = c.Map.Width
	}
	if c.Map.Height > 0 {
		p.Height = c.Map.Height
	}
	if c.Map.MaxZoom > 0 {
		p.MaxZoom = c.Map.MaxZoom
	}
	if !c.Map.Attribution {
		p.Attribution = ""
	}
	return p, p.Validate()
}

// Clock returns the parsed session clock policy.
func (c *Config) Clock() (session.Clock, error) {
	return session.ParseClock(c.Session.Clock)
}

// StrokeSlice returns the parsed stroke window.
func (c *Config) StrokeSlice() (session.StrokeSlice, error) {
	return session.ParseStrokeSlice(c.Session.Slice)
}

// AxisBounds converts the configured y ranges. Empty lists keep defaults.
func (c *Config) AxisBounds() (chart.AxisBounds, error) {
	var b chart.AxisBounds
	var err error
	if b.Split, err = pair("split_bounds", c.Charts.SplitBounds); err != nil {
		return b, err
	}
	if b.StrokeRate, err = pair("stroke_rate_bounds", c.Charts.StrokeRateBounds); err != nil {
		return b, err
	}
	if b.DistancePerStroke, err = pair("distance_per_stroke_bounds", c.Charts.DistancePerStrokeBounds); err != nil {
		return b, err
	}
	return b, b.Validate()
}

func pair(name string, v []float64) (*[2]float64, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 2:
		return &[2]float64{v[0], v[1]}, nil
	default:
		return nil, fmt.Errorf("%s needs [min, max], got %d values", name, len(v))
	}
}

// ChartStyle returns the chart style for the configured DPI and color map.
func (c *Config) ChartStyle() chart.Style {
	s := chart.DefaultStyle()
	if c.Charts.DPI > 0 {
		s.DPI = c.Charts.DPI
	}
	if c.Charts.ColorMap != "" {
		s.ColorMap = c.Charts.ColorMap
	}
	return s
}
