package session

// Field identifies one per-stroke measurement in a SpeedCoach export.
type Field int

const (
	FieldDistance Field = iota
	FieldElapsedTime
	FieldSplit
	FieldSpeed
	FieldStrokeRate
	FieldTotalStrokes
	FieldDistancePerStroke
	FieldLat
	FieldLon
)

var fieldNames = [...]string{
	FieldDistance:          "Distance (GPS)",
	FieldElapsedTime:       "Elapsed Time",
	FieldSplit:             "Split (GPS)",
	FieldSpeed:             "Speed (GPS)",
	FieldStrokeRate:        "Stroke Rate",
	FieldTotalStrokes:      "Total Strokes",
	FieldDistancePerStroke: "Distance/Stroke (GPS)",
	FieldLat:               "GPS Lat.",
	FieldLon:               "GPS Lon.",
}

// String returns the column header the export uses for the field.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Column binds a field to its zero-based position in a CSV row.
type Column struct {
	Field Field
	Index int
}

// Layout describes where the per-stroke table lives in an export.
// Line numbers are zero-based file lines, blank lines included.
type Layout struct {
	HeaderLine int
	UnitsLine  int
	DataLine   int
	Columns    []Column
}

// DefaultLayout is the NK SpeedCoach per-stroke export: 28 lines of session
// metadata, then a header row, a units row, and one row per stroke.
func DefaultLayout() Layout {
	return Layout{
		HeaderLine: 28,
		UnitsLine:  29,
		DataLine:   30,
		Columns: []Column{
			{FieldDistance, 1},
			{FieldElapsedTime, 3},
			{FieldSplit, 4},
			{FieldSpeed, 5},
			{FieldStrokeRate, 8},
			{FieldTotalStrokes, 9},
			{FieldDistancePerStroke, 10},
			{FieldLat, 22},
			{FieldLon, 23},
		},
	}
}

func (l Layout) maxIndex() int {
	m := -1
	for _, c := range l.Columns {
		if c.Index > m {
			m = c.Index
		}
	}
	return m
}
