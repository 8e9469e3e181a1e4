package debugger

import (
	"errors"
	"fmt"

	"github.com/coregx/regexlab/span"
)

// Common debugger errors
var (
	// ErrStepLimit indicates a run that exceeded Config.MaxSteps
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrEnginePanic indicates the engine panicked while cycling
	ErrEnginePanic = errors.New("engine panic")
)

// ParseError reports a pattern that failed to parse. Location is in UTF-16
// code units of the pattern.
type ParseError struct {
	Message  string
	Location span.Span
	Err      error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// CompileError reports a pattern that parsed but could not be compiled.
// Location is in UTF-16 code units of the pattern.
type CompileError struct {
	Message  string
	Location span.Span
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

// MatchingEngineError reports an engine failure during a pass other than the
// intentional stop at the target step.
type MatchingEngineError struct {
	// Pass is "discovery" or "bounded".
	Pass string
	Step int
	Err  error
}

// Error implements the error interface
func (e *MatchingEngineError) Error() string {
	return fmt.Sprintf("matching engine failed in %s pass at step %d: %v", e.Pass, e.Step, e.Err)
}

// Unwrap returns the underlying error
func (e *MatchingEngineError) Unwrap() error {
	return e.Err
}

// ReplayInconsistencyError reports that the bounded pass disagreed with the
// discovery pass for identical inputs. It always indicates a bug in the
// engine or in the debugger, never a problem with the pattern.
type ReplayInconsistencyError struct {
	StepCount int
	Target    int
	Reached   int
	Reason    string
}

// Error implements the error interface
func (e *ReplayInconsistencyError) Error() string {
	return fmt.Sprintf("replay inconsistency: %s (step count %d, target %d, reached %d)",
		e.Reason, e.StepCount, e.Target, e.Reached)
}
