package debugger

import (
	"github.com/coregx/regexlab/span"
)

// Request asks for the engine state at one step of matching Pattern
// against Text.
type Request struct {
	Pattern string `json:"pattern"`
	Text    string `json:"text"`
	// Options are matching option names such as "i", "s" or
	// "asciiOnlyDigits"; see engine.ParseOptions.
	Options []string `json:"matchOptions"`
	// Step is the 1-based cycle to stop after. Nil selects the last step;
	// values outside [1, stepCount] are clamped.
	Step *int `json:"step,omitempty"`
}

// WithStep returns a copy of r targeting step.
func (r Request) WithStep(step int) Request {
	r.Step = &step
	return r
}

// Trace is the text consumed by the current attempt, [start, current).
type Trace struct {
	Location span.Span `json:"location"`
}

// Metrics is a snapshot of the engine right after the cycle at Step.
// Offsets are UTF-16 code units of the text.
type Metrics struct {
	Instructions []string `json:"instructions"`
	// ProgramCounter is the instruction executed at Step.
	ProgramCounter int `json:"programCounter"`

	// StepCount is the number of cycles of the complete run.
	StepCount int `json:"stepCount"`
	Step      int `json:"step"`

	TotalCycleCount int `json:"totalCycleCount"`
	Resets          int `json:"resets"`
	Backtracks      int `json:"backtracks"`

	// State is "inProgress", "accept" or "fail".
	State         string `json:"state"`
	StartOffset   int    `json:"startOffset"`
	CurrentOffset int    `json:"currentOffset"`

	Traces []Trace `json:"traces"`
	// FailurePosition is the position before the cycle at Step.
	FailurePosition int `json:"failurePosition"`
	// Failure is set only when the cycle at Step backtracked. It spans the
	// current position and FailurePosition. A client that flashes the
	// failure whenever Backtracks grew since the step it showed last can
	// build the same span from CurrentOffset and FailurePosition, which are
	// always present.
	Failure *span.Span `json:"failure,omitempty"`
}

func newMetrics(instructions []string, text string, stepCount, step int, c *Context) Metrics {
	ix := span.NewIndex(text)
	start := ix.Offset(c.Start)
	current := ix.Offset(c.Current)
	failure := ix.Offset(c.FailurePosition)

	m := Metrics{
		Instructions:    instructions,
		ProgramCounter:  c.ProgramCounter,
		StepCount:       stepCount,
		Step:            step,
		TotalCycleCount: c.TotalCycleCount,
		Resets:          c.Resets,
		Backtracks:      c.Backtracks,
		State:           c.State.String(),
		StartOffset:     start,
		CurrentOffset:   current,
		FailurePosition: failure,
		Traces: []Trace{
			// Lookbehind bodies move the position backwards.
			{Location: span.New(min(start, current), max(start, current))},
		},
	}
	if c.Backtracked {
		f := span.New(min(current, failure), max(current, failure))
		m.Failure = &f
	}
	return m
}

// Navigator moves between the steps of one debug run. Every move clamps
// into [1, StepCount]; the caller recomputes Metrics for the new step.
type Navigator struct {
	Step      int
	StepCount int
}

// NewNavigator returns a navigator positioned at m.Step.
func NewNavigator(m Metrics) Navigator {
	return Navigator{Step: m.Step, StepCount: m.StepCount}.Goto(m.Step)
}

// First moves to step 1.
func (n Navigator) First() Navigator { return n.Goto(1) }

// Next moves one step forward.
func (n Navigator) Next() Navigator { return n.Goto(n.Step + 1) }

// Prev moves one step back.
func (n Navigator) Prev() Navigator { return n.Goto(n.Step - 1) }

// Last moves to the final step.
func (n Navigator) Last() Navigator { return n.Goto(n.StepCount) }

// Goto moves to step.
func (n Navigator) Goto(step int) Navigator {
	n.Step = clampStep(step, n.StepCount)
	return n
}

// AtFirst reports whether no earlier step exists.
func (n Navigator) AtFirst() bool { return n.Step <= 1 }

// AtLast reports whether no later step exists.
func (n Navigator) AtLast() bool { return n.Step >= n.StepCount }

// clampStep clamps step into [1, stepCount]. A run always has at least one
// step unless stepCount is zero.
func clampStep(step, stepCount int) int {
	if stepCount < 1 {
		return 0
	}
	return max(1, min(step, stepCount))
}
