package pipeline

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/config"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
)

// summaryDoc is the YAML summary written next to the charts.
type summaryDoc struct {
	Session string          `yaml:"session"`
	Source  string          `yaml:"source"`
	Start   time.Time       `yaml:"start"`
	Slice   string          `yaml:"slice"`
	Parsed  int             `yaml:"parsed_samples"`
	Stats   session.Summary `yaml:"stats"`
	Bounds  coord.Bounds    `yaml:"bounds"`
	Map     *mapDoc         `yaml:"map,omitempty"`
}

type mapDoc struct {
	Provider string       `yaml:"provider"`
	Zoom     int          `yaml:"zoom"`
	Format   string       `yaml:"format"`
	Scale    float64      `yaml:"scale"`
	MPerPx   float64      `yaml:"meters_per_pixel"`
	Size     string       `yaml:"size"`
	Crop     string       `yaml:"crop"`
	Covering coord.Bounds `yaml:"covering"`
}

func summaryYAML(res *Result, cfg *config.Config) ([]byte, error) {
	doc := summaryDoc{
		Session: res.Label,
		Source:  res.Session.Path,
		Start:   res.Start,
		Slice:   res.Slice.String(),
		Parsed:  len(res.Session.Samples),
		Stats:   res.Summary,
		Bounds:  res.Box,
	}
	if m := res.Map; m != nil {
		b := m.Image.Bounds()
		doc.Map = &mapDoc{
			Provider: cfg.Map.Provider,
			Zoom:     m.Zoom,
			Format:   m.Format,
			Scale:    m.Scale,
			MPerPx:   m.Resolution,
			Size:     fmt.Sprintf("%dx%d", m.Returned.X, m.Returned.Y),
			Crop:     fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
			Covering: m.Covering,
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return data, nil
}
