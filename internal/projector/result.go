package projector

import (
	"fmt"
	"strconv"
)

// ResultKind classifies a decoded reply.
type ResultKind int

const (
	// ResultAbsent means the projector rejected the command ("F").
	ResultAbsent ResultKind = iota
	// ResultBool carries a true/false answer.
	ResultBool
	// ResultString carries a text payload such as a source name.
	ResultString
)

// String returns a human-readable name for the kind.
func (k ResultKind) String() string {
	switch k {
	case ResultAbsent:
		return "absent"
	case ResultBool:
		return "bool"
	case ResultString:
		return "string"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the decoded outcome of one command.
type Result struct {
	Kind ResultKind
	Bool bool
	Text string
}

// Absent returns the result of a rejected command.
func Absent() Result {
	return Result{Kind: ResultAbsent}
}

// BoolResult wraps a boolean answer.
func BoolResult(b bool) Result {
	return Result{Kind: ResultBool, Bool: b}
}

// StringResult wraps a text answer.
func StringResult(s string) Result {
	return Result{Kind: ResultString, Text: s}
}

// IsAbsent reports whether the projector rejected the command.
func (r Result) IsAbsent() bool {
	return r.Kind == ResultAbsent
}

// True reports whether r is a boolean true.
func (r Result) True() bool {
	return r.Kind == ResultBool && r.Bool
}

// Value returns nil, a bool or a string depending on the kind.
func (r Result) Value() any {
	switch r.Kind {
	case ResultBool:
		return r.Bool
	case ResultString:
		return r.Text
	default:
		return nil
	}
}

// String renders the result for display.
func (r Result) String() string {
	switch r.Kind {
	case ResultBool:
		return strconv.FormatBool(r.Bool)
	case ResultString:
		return r.Text
	default:
		return "absent"
	}
}
