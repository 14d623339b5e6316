package enrich

import (
	"errors"
	"strings"
)

// State is the lookup state of one enrichment field.
type State int

const (
	StatePending  State = iota // not attempted yet
	StateResolved              // lookup produced a value
	StateNotFound              // lookup attempted, no usable value
)

// String returns a human-readable representation of the State
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrEmptyResult is recorded when a fetch reports success without a value.
var ErrEmptyResult = errors.New("empty result")

// Field is the value of one enrichment column for one row.
// Err carries the failure reason of a NotFound field produced during this
// run; fields read back from disk never have one.
type Field struct {
	State State
	Value string
	Err   error
}

// Resolved returns a field holding v.
func Resolved(v string) Field {
	return Field{State: StateResolved, Value: v}
}

// NotFound returns a field recording a failed lookup.
func NotFound(err error) Field {
	return Field{State: StateNotFound, Err: err}
}

// Column describes an enrichment column and the sentinel written to the
// file when its lookup fails.
type Column struct {
	Name     string
	Sentinel string
}

// Render converts f to its cell text. Sentinels only exist at this
// boundary.
func (c Column) Render(f Field) string {
	switch f.State {
	case StateResolved:
		return f.Value
	case StateNotFound:
		return c.Sentinel
	default:
		return ""
	}
}

// Parse converts cell text back to a field.
func (c Column) Parse(cell string) Field {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "":
		return Field{}
	case c.Sentinel:
		return Field{State: StateNotFound}
	default:
		return Resolved(cell)
	}
}
