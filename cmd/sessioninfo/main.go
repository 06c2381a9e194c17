package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/session"
)

func main() {
	sliceFlag := flag.String("slice", "", "Stroke window start:end")
	clockFlag := flag.String("clock", "12h", "File name time format: 12h or 24h")
	rows := flag.Int("rows", 3, "Number of leading and trailing rows to print")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: sessioninfo [flags] <session.csv>\n")
		os.Exit(1)
	}
	path := flag.Arg(0)

	clock, err := session.ParseClock(*clockFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slice, err := session.ParseStrokeSlice(*sliceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s, err := session.Load(path, session.DefaultLayout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Encoding: %s\n", s.Encoding)
	if start, err := session.ParseStartTime(path, clock); err != nil {
		fmt.Printf("Start: unknown (%v)\n", err)
	} else {
		fmt.Printf("Start: %s\n", start.Format(time.RFC3339))
		fmt.Printf("Label: %s\n", session.Label(start))
		fmt.Printf("Stem: %s\n", session.FileStem(start))
	}
	fmt.Printf("Samples: %d\n", len(s.Samples))

	fmt.Printf("Columns:\n")
	for _, c := range session.DefaultLayout().Columns {
		fmt.Printf("  %2d %-24s %s\n", c.Index, c.Field, s.Units[c.Field])
	}

	lo, hi := slice.Bounds(len(s.Samples))
	fmt.Printf("\nStroke window %s: rows [%d, %d)\n", slice, lo, hi)
	selected, err := slice.Apply(s.Samples)
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		os.Exit(1)
	}

	if box, err := session.TrackBounds(selected, 0); err == nil {
		fmt.Printf("  Bounds: %s\n", box)
	}
	sum, err := session.Summarize(selected)
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		os.Exit(1)
	}
	sum.Print(os.Stdout)

	printRows(selected, *rows)
}

func printRows(samples []session.Sample, count int) {
	if count <= 0 {
		return
	}
	fmt.Printf("\n  Rows (first/last %d):\n", count)
	for i, s := range samples {
		if i >= count && i < len(samples)-count {
			continue
		}
		fmt.Printf("    %4d: t=%7.1fs d=%7.1fm split=%6.1fs rate=%4.1f dps=%4.1fm (%.6f, %.6f)\n",
			i, s.ElapsedTime, s.Distance, s.Split, s.StrokeRate, s.DistancePerStroke, s.Lat, s.Lon)
	}
}
