package session

import (
	"fmt"
	"strconv"
	"strings"
)

// StrokeSlice selects a window of samples. Negative indices count from the
// end. End == 0 means the end of the session. The sample just before End is
// excluded as well, so the window is samples[Start : End-1]; the zero value
// selects every sample but the last.
type StrokeSlice struct {
	Start int
	End   int
}

// ParseStrokeSlice parses "start:end" (either side may be empty).
func ParseStrokeSlice(s string) (StrokeSlice, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StrokeSlice{}, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return StrokeSlice{}, fmt.Errorf("stroke slice %q: want start:end", s)
	}
	var ss StrokeSlice
	var err error
	if lo = strings.TrimSpace(lo); lo != "" {
		if ss.Start, err = strconv.Atoi(lo); err != nil {
			return StrokeSlice{}, fmt.Errorf("stroke slice %q: start: %w", s, err)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if ss.End, err = strconv.Atoi(hi); err != nil {
			return StrokeSlice{}, fmt.Errorf("stroke slice %q: end: %w", s, err)
		}
	}
	return ss, nil
}

func (ss StrokeSlice) String() string {
	return fmt.Sprintf("%d:%d", ss.Start, ss.End)
}

// Bounds resolves the slice against n samples and returns the half-open
// index range [lo, hi).
func (ss StrokeSlice) Bounds(n int) (lo, hi int) {
	lo = ss.Start
	if lo < 0 {
		lo += n
	}
	hi = ss.End
	if hi <= 0 {
		hi += n
	}
	hi--

	lo = clampIndex(lo, n)
	hi = clampIndex(hi, n)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Apply returns the selected window. It fails when the window is empty.
func (ss StrokeSlice) Apply(samples []Sample) ([]Sample, error) {
	lo, hi := ss.Bounds(len(samples))
	if hi <= lo {
		return nil, fmt.Errorf("stroke slice %s selects no samples out of %d", ss, len(samples))
	}
	return samples[lo:hi], nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
