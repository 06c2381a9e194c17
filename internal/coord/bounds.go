package coord

import (
	"fmt"
	"math"
)

// Bounds is a WGS84 bounding box in degrees.
// MinLon <= MaxLon and MinLat <= MaxLat always hold for values built by NewBounds.
type Bounds struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
}

// NewBounds validates and returns a bounding box.
func NewBounds(minLon, maxLon, minLat, maxLat float64) (Bounds, error) {
	for _, v := range []float64{minLon, maxLon, minLat, maxLat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Bounds{}, fmt.Errorf("bounds: non-finite coordinate in (%v, %v, %v, %v)", minLon, maxLon, minLat, maxLat)
		}
	}
	if minLon > maxLon {
		return Bounds{}, fmt.Errorf("bounds: min lon %.6f > max lon %.6f", minLon, maxLon)
	}
	if minLat > maxLat {
		return Bounds{}, fmt.Errorf("bounds: min lat %.6f > max lat %.6f", minLat, maxLat)
	}
	return Bounds{MinLon: minLon, MaxLon: maxLon, MinLat: minLat, MaxLat: maxLat}, nil
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// CenterLat returns the latitude midpoint.
func (b Bounds) CenterLat() float64 {
	return (b.MinLat + b.MaxLat) / 2
}

// Width returns the longitude span in degrees.
func (b Bounds) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitude span in degrees.
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Pad grows the box by margin degrees on every side.
func (b Bounds) Pad(margin float64) Bounds {
	return Bounds{
		MinLon: b.MinLon - margin,
		MaxLon: b.MaxLon + margin,
		MinLat: b.MinLat - margin,
		MaxLat: b.MaxLat + margin,
	}
}

// Contains reports whether other lies entirely within b (edges inclusive).
func (b Bounds) Contains(other Bounds) bool {
	return b.MinLon <= other.MinLon && other.MaxLon <= b.MaxLon &&
		b.MinLat <= other.MinLat && other.MaxLat <= b.MaxLat
}

func (b Bounds) String() string {
	return fmt.Sprintf("lon [%.6f, %.6f], lat [%.6f, %.6f]", b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}
