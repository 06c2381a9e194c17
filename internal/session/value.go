package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmptyCell    = errors.New("empty cell")
	errTooManyParts = errors.New("duration has more than 3 fields")
)

// durationWeights converts H:M:S fields to seconds.
var durationWeights = [3]float64{3600, 60, 1}

// ParseValue converts one export cell to a float64. Cells are either plain
// numbers ("45.5") or colon-separated durations ("1:02:03", "02:03") which
// are left-padded to H:M:S and returned in seconds.
func ParseValue(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, errEmptyCell
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > len(durationWeights) {
		return 0, errTooManyParts
	}

	offset := len(durationWeights) - len(parts)
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("duration field %d: %w", i+1, err)
		}
		total += v * durationWeights[offset+i]
	}
	return total, nil
}
