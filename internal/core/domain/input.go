package domain

import (
	"errors"
	"fmt"
)

var ErrMalformedInput = errors.New("malformed input")

// LineError locates a malformed input line. It unwraps to the parse error,
// which in turn wraps ErrMalformedInput.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Rejection is the reportable form of a LineError.
type Rejection struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e *LineError) Rejection() Rejection {
	return Rejection{Line: e.Line, Text: e.Text, Reason: e.Err.Error()}
}
