package syntax

import (
	"errors"
	"fmt"
)

// Common parse errors. Every *Error wraps one of these so callers can
// classify failures with errors.Is.
var (
	// ErrUnbalanced indicates a missing or extra group or class delimiter.
	ErrUnbalanced = errors.New("unbalanced delimiter")

	// ErrQuantifier indicates a quantifier in a position where it cannot apply.
	ErrQuantifier = errors.New("invalid quantifier")

	// ErrEscape indicates a malformed or unknown escape sequence.
	ErrEscape = errors.New("invalid escape")

	// ErrGroup indicates an unknown or malformed group opener.
	ErrGroup = errors.New("invalid group")

	// ErrClass indicates a malformed custom character class.
	ErrClass = errors.New("invalid character class")

	// ErrTooDeep indicates the pattern nests groups beyond ParseOptions.MaxDepth.
	ErrTooDeep = errors.New("pattern nesting too deep")
)

// Error is a parse failure located in the pattern source.
type Error struct {
	Message  string
	Location Loc
	Kind     error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Location)
}

// Unwrap returns the error class
func (e *Error) Unwrap() error {
	return e.Kind
}
