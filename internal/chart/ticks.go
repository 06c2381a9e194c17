package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
)

// FormatSplit formats seconds per 500 m as m:ss, rounding to the second.
func FormatSplit(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	sign := ""
	total := int(math.Round(seconds))
	if total < 0 {
		sign, total = "-", -total
	}
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}

// splitTicks places ticks like plot.DefaultTicks and labels them as m:ss.
var splitTicks = plot.TickerFunc(func(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = FormatSplit(ticks[i].Value)
		}
	}
	return ticks
})

// unlabelledTicks keeps the default tick marks of a shared axis but drops
// their labels.
var unlabelledTicks = plot.TickerFunc(func(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		ticks[i].Label = ""
	}
	return ticks
})
