package session

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
)

// Track returns the GPS trace of samples as a line string.
func Track(samples []Sample) orb.LineString {
	ls := make(orb.LineString, len(samples))
	for i, s := range samples {
		ls[i] = orb.Point{s.Lon, s.Lat}
	}
	return ls
}

// TrackLength returns the haversine length of the GPS trace in meters.
func TrackLength(samples []Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	return geo.LengthHaversine(Track(samples))
}

// TrackBounds returns the bounding box of the GPS trace grown by padding
// degrees on every side.
func TrackBounds(samples []Sample, padding float64) (coord.Bounds, error) {
	if len(samples) == 0 {
		return coord.Bounds{}, ErrNoSamples
	}
	if padding < 0 {
		return coord.Bounds{}, errors.New("track bounds: negative padding")
	}
	b := Track(samples).Bound()
	box, err := coord.NewBounds(b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
	if err != nil {
		return coord.Bounds{}, err
	}
	return box.Pad(padding), nil
}

// TrackGeoJSON encodes the GPS trace as a FeatureCollection holding one
// LineString feature. Per-point measurements are attached as parallel
// property arrays.
func TrackGeoJSON(samples []Sample, name string) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	speed := make([]float64, len(samples))
	strokeRate := make([]float64, len(samples))
	strokes := make([]float64, len(samples))
	for i, s := range samples {
		speed[i] = s.Speed
		strokeRate[i] = s.StrokeRate
		strokes[i] = s.TotalStrokes
	}

	f := geojson.NewFeature(Track(samples))
	f.Properties["name"] = name
	f.Properties["speed_mps"] = speed
	f.Properties["stroke_rate_spm"] = strokeRate
	f.Properties["total_strokes"] = strokes

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc.MarshalJSON()
}
