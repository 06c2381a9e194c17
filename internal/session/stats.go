package session

import (
	"errors"
	"fmt"
	"io"
)

// Range summarizes one measurement over a window of samples.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
	Avg float64 `yaml:"avg" json:"avg"`
}

// Summary holds the statistics of a stroke window.
type Summary struct {
	Samples           int     `yaml:"samples" json:"samples"`
	Speed             Range   `yaml:"speed_mps" json:"speed_mps"`
	Split             Range   `yaml:"split_s_per_500m" json:"split_s_per_500m"`
	StrokeRate        Range   `yaml:"stroke_rate_spm" json:"stroke_rate_spm"`
	DistancePerStroke Range   `yaml:"distance_per_stroke_m" json:"distance_per_stroke_m"`
	TotalStrokes      int     `yaml:"total_strokes" json:"total_strokes"`
	TotalDistance     float64 `yaml:"total_distance_m" json:"total_distance_m"`
	ElapsedTime       float64 `yaml:"elapsed_time_s" json:"elapsed_time_s"`
	TrackLength       float64 `yaml:"track_length_m" json:"track_length_m"`
}

// ErrNoSamples is returned when statistics are requested for an empty window.
var ErrNoSamples = errors.New("no samples")

// Summarize computes statistics over samples. Totals are differences between
// the last and first sample of the window.
func Summarize(samples []Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrNoSamples
	}
	first, last := samples[0], samples[len(samples)-1]
	return Summary{
		Samples:           len(samples),
		Speed:             rangeOf(samples, func(s Sample) float64 { return s.Speed }),
		Split:             rangeOf(samples, func(s Sample) float64 { return s.Split }),
		StrokeRate:        rangeOf(samples, func(s Sample) float64 { return s.StrokeRate }),
		DistancePerStroke: rangeOf(samples, func(s Sample) float64 { return s.DistancePerStroke }),
		TotalStrokes:      int(last.TotalStrokes - first.TotalStrokes),
		TotalDistance:     last.Distance - first.Distance,
		ElapsedTime:       last.ElapsedTime - first.ElapsedTime,
		TrackLength:       TrackLength(samples),
	}, nil
}

func rangeOf(samples []Sample, get func(Sample) float64) Range {
	r := Range{Min: get(samples[0]), Max: get(samples[0])}
	var sum float64
	for _, s := range samples {
		v := get(s)
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
		sum += v
	}
	r.Avg = sum / float64(len(samples))
	return r
}

// Print writes the summary as an aligned text table.
func (s Summary) Print(w io.Writer) error {
	rows := []struct {
		label string
		r     Range
	}{
		{"Speed [m/s]", s.Speed},
		{"Split [s/500m]", s.Split},
		{"Stroke Rate [strokes/minute]", s.StrokeRate},
		{"Distance Per Stroke [metres]", s.DistancePerStroke},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "  %-30s Min: %7.2f, Max: %7.2f, Avg: %7.2f\n",
			row.label, row.r.Min, row.r.Max, row.r.Avg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w,
		"  %-30s %d\n  %-30s %.2f\n  %-30s %.2f\n  %-30s %.2f\n",
		"Total Number of Strokes", s.TotalStrokes,
		"Total Distance Rowed [metres]", s.TotalDistance,
		"Total Elapsed Time [seconds]", s.ElapsedTime,
		"GPS Track Length [metres]", s.TrackLength,
	)
	return err
}
