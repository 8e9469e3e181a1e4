package debugger

import "github.com/coregx/regexlab/engine"

// Context is the state of one pass over a pattern and text. A new Context is
// created for every pass of every request; nothing in it is shared.
//
// Offsets are byte offsets into the text.
type Context struct {
	// ProgramCounter is the instruction executed by the most recent cycle.
	ProgramCounter int

	// StepCount is the number of cycles executed so far.
	StepCount int
	// BreakPoint stops the pass right after this many cycles. Zero runs to
	// completion.
	BreakPoint int

	// Start is where the current attempt began.
	Start int
	// Current is the position after the most recent cycle.
	Current int
	// FailurePosition is the position before the most recent cycle.
	FailurePosition int

	TotalCycleCount int
	Resets          int
	Backtracks      int

	// Backtracked reports whether the most recent cycle restored a save point.
	Backtracked bool

	// State is the cursor state after the most recent cycle.
	State engine.State
}

// newContext returns a context that stops after breakPoint cycles.
func newContext(breakPoint int) *Context {
	return &Context{BreakPoint: breakPoint}
}

// before records the cursor state ahead of a cycle.
func (c *Context) before(cur Cursor) {
	c.ProgramCounter = cur.PC()
	c.FailurePosition = cur.Position()
}

// after records the cursor state once a cycle has executed.
func (c *Context) after(cur Cursor) {
	c.StepCount++
	c.Current = cur.Position()
	c.Start = cur.Start()
	c.State = cur.State()

	m := cur.Metrics()
	c.Backtracked = m.Backtracks > c.Backtracks
	c.TotalCycleCount = m.Cycles
	c.Resets = m.Resets
	c.Backtracks = m.Backtracks
}

// stopped reports whether the pass reached its breakpoint.
func (c *Context) stopped() bool {
	return c.BreakPoint > 0 && c.StepCount == c.BreakPoint
}
