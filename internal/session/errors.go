package session

import "fmt"

// ParseError reports a malformed cell or an unexpected column layout.
// Line and Column are 1-based; Column is 0 when the error concerns a whole row.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	if e.Column > 0 {
		loc += fmt.Sprintf(", column %d", e.Column)
	}
	if e.Field != "" {
		loc += " (" + e.Field + ")"
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: parse %q: %v", loc, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
