// Package engine compiles a syntax tree into a program for a backtracking
// processor and runs it one execution cycle at a time.
//
// A cycle executes exactly one instruction. When an instruction fails, the
// processor restores the most recent save point within the same cycle; that
// restore is one backtrack. When an attempt exhausts its save points the
// processor resets at the next start position. Programs are immutable once
// built and may be shared by any number of processors.
package engine

import (
	"errors"
	"fmt"

	"github.com/coregx/regexlab/syntax"
)

// Common engine errors
var (
	// ErrUnsupported indicates a construct that parses but cannot be executed
	ErrUnsupported = errors.New("unsupported construct")

	// ErrInvalidReference indicates a reference to a group that does not exist
	ErrInvalidReference = errors.New("invalid group reference")

	// ErrTooComplex indicates the pattern is too large to compile
	ErrTooComplex = errors.New("pattern too complex")

	// ErrInvalidOption indicates an unknown matching option name
	ErrInvalidOption = errors.New("invalid matching option")
)

// CompileError reports a construct the compiler rejected, located in the
// pattern source.
type CompileError struct {
	Message  string
	Location syntax.Loc
	Err      error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Location, e.Message)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError represents an error during program construction via the Builder API
type BuildError struct {
	Message string
	InstID  InstID
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.InstID != InvalidInst {
		return fmt.Sprintf("program build error at instruction %d: %s", e.InstID, e.Message)
	}
	return fmt.Sprintf("program build error: %s", e.Message)
}
