package match

import (
	"errors"
	"fmt"
)

// ErrCycleLimit is returned when a search exceeds Config.MaxCycles, which
// usually means catastrophic backtracking.
var ErrCycleLimit = errors.New("cycle limit exceeded")

// SearchError reports a search that was stopped.
type SearchError struct {
	// At is the byte offset of the text where the stopped search began.
	At     int
	Cycles int
	Err    error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("match: search at offset %d stopped after %d cycles: %v", e.At, e.Cycles, e.Err)
}

// Unwrap returns the underlying error.
func (e *SearchError) Unwrap() error {
	return e.Err
}
