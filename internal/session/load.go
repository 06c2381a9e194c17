package session

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Sample is one per-stroke row of an export.
type Sample struct {
	ElapsedTime       float64 // seconds
	Distance          float64 // meters
	Split             float64 // seconds per 500 m
	Speed             float64 // m/s
	StrokeRate        float64 // strokes per minute
	TotalStrokes      float64
	DistancePerStroke float64 // meters
	Lat               float64
	Lon               float64
}

func (s *Sample) set(f Field, v float64) {
	switch f {
	case FieldDistance:
		s.Distance = v
	case FieldElapsedTime:
		s.ElapsedTime = v
	case FieldSplit:
		s.Split = v
	case FieldSpeed:
		s.Speed = v
	case FieldStrokeRate:
		s.StrokeRate = v
	case FieldTotalStrokes:
		s.TotalStrokes = v
	case FieldDistancePerStroke:
		s.DistancePerStroke = v
	case FieldLat:
		s.Lat = v
	case FieldLon:
		s.Lon = v
	}
}

// Session is a parsed export.
type Session struct {
	Path     string
	Encoding string
	Units    map[Field]string
	Samples  []Sample
}

// Name returns the export file name without directory or extension.
func (s *Session) Name() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads and parses an export file.
func Load(path string, layout Layout) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	s, err := Parse(data, layout)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Parse parses export bytes. Input that is not valid UTF-8 is decoded as
// Windows-1252, which older SpeedCoach firmware writes.
func Parse(data []byte, layout Layout) (*Session, error) {
	text, encoding := decodeText(data)
	lines := splitLines(text)

	if len(lines) <= layout.HeaderLine {
		return nil, &ParseError{Line: len(lines), Err: fmt.Errorf("file has %d lines, header expected on line %d", len(lines), layout.HeaderLine+1)}
	}

	header, err := readRow(lines[layout.HeaderLine])
	if err != nil {
		return nil, &ParseError{Line: layout.HeaderLine + 1, Err: err}
	}
	if err := checkHeader(header, layout); err != nil {
		return nil, err
	}

	s := &Session{Encoding: encoding, Units: make(map[Field]string, len(layout.Columns))}
	if layout.UnitsLine >= 0 && layout.UnitsLine < len(lines) {
		if units, err := readRow(lines[layout.UnitsLine]); err == nil {
			for _, c := range layout.Columns {
				if c.Index < len(units) {
					s.Units[c.Field] = strings.TrimSpace(units[c.Index])
				}
			}
		}
	}

	need := layout.maxIndex() + 1
	for i := layout.DataLine; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		row, err := readRow(lines[i])
		if err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}
		if len(row) < need {
			return nil, &ParseError{Line: i + 1, Err: fmt.Errorf("row has %d columns, need %d", len(row), need)}
		}

		var sample Sample
		for _, c := range layout.Columns {
			v, err := ParseValue(row[c.Index])
			if err != nil {
				return nil, &ParseError{
					Line:   i + 1,
					Column: c.Index + 1,
					Field:  c.Field.String(),
					Value:  row[c.Index],
					Err:    err,
				}
			}
			sample.set(c.Field, v)
		}
		s.Samples = append(s.Samples, sample)
	}

	if len(s.Samples) == 0 {
		return nil, &ParseError{Line: layout.DataLine + 1, Err: errors.New("no data rows")}
	}
	return s, nil
}

func checkHeader(header []string, layout Layout) error {
	for _, c := range layout.Columns {
		if c.Index >= len(header) {
			return &ParseError{
				Line:   layout.HeaderLine + 1,
				Column: c.Index + 1,
				Field:  c.Field.String(),
				Err:    fmt.Errorf("unexpected column layout: header has %d columns", len(header)),
			}
		}
		got := strings.TrimSpace(header[c.Index])
		if !strings.EqualFold(got, c.Field.String()) {
			return &ParseError{
				Line:   layout.HeaderLine + 1,
				Column: c.Index + 1,
				Field:  c.Field.String(),
				Err:    fmt.Errorf("unexpected column layout: found %q", got),
			}
		}
	}
	return nil
}

func decodeText(data []byte) (string, string) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), "unknown"
	}
	return string(decoded), "windows-1252"
}

func splitLines(text string) []string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := make([]string, 0, 1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// readRow splits one line with CSV quoting rules. Lines are split before
// CSV parsing so that line numbers match the file, blank lines included.
func readRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	return row, nil
}
