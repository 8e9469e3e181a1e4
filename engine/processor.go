package engine

import (
	"fmt"
	"unicode/utf8"
)

// State is the execution state of a Processor.
type State uint8

const (
	// InProgress means the processor can execute more cycles.
	InProgress State = iota
	// Accept means the processor found a match.
	Accept
	// Fail means no match exists at or after the search start.
	Fail
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "inProgress"
	case Accept:
		return "accept"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Metrics are the processor counters. They stay zero unless the program
// was compiled with metrics enabled.
type Metrics struct {
	Cycles     int
	Resets     int
	Backtracks int
}

// savePoint is a backtracking entry. A fence with pc < 0 is never resumed;
// it only delimits the entries a cut discards.
type savePoint struct {
	pc         int
	pos        int
	fence      bool
	caps       []int
	regs       []int
	matchStart int
}

// Processor executes a Program against one input, one cycle at a time.
// It is not safe for concurrent use; create one per goroutine.
type Processor struct {
	prog *Program
	in   *input

	// first is the position passed to Reset, tested by \G.
	first int
	// start is where the current attempt began.
	start int

	pc         int
	pos        int
	matchStart int
	caps       []int
	regs       []int
	stack      []savePoint
	state      State
	metrics    Metrics

	// single confines the search to one attempt; see Attempt.
	single bool
}

// NewProcessor creates a processor searching text from searchStart, a byte
// offset.
func NewProcessor(prog *Program, text string, searchStart int) *Processor {
	p := &Processor{
		prog: prog,
		in:   newInput(text, prog.semantics),
		caps: make([]int, 2*len(prog.captureNames)),
		regs: make([]int, prog.numRegs),
	}
	p.Reset(searchStart)
	return p
}

// Reset restarts the search at pos and clears the counters.
func (p *Processor) Reset(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(p.in.text) {
		pos = len(p.in.text)
	}
	p.first = pos
	p.single = false
	p.metrics = Metrics{}
	p.restart(pos)
}

// restart begins a new attempt at pos.
func (p *Processor) restart(pos int) {
	p.start = pos
	p.pc = 0
	p.pos = pos
	p.matchStart = pos
	for i := range p.caps {
		p.caps[i] = -1
	}
	for i := range p.regs {
		p.regs[i] = -1
	}
	p.stack = p.stack[:0]
	p.state = InProgress
}

// Attempt prepares a single attempt anchored at pos. Cycle and Run then end
// in Fail where a search would move on to the next start position. The
// position tested by \G stays the one passed to Reset, and Reset returns to
// a normal search. Counters keep accumulating across attempts.
func (p *Processor) Attempt(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(p.in.text) {
		pos = len(p.in.text)
	}
	p.single = true
	p.restart(pos)
}

// State returns the current execution state.
func (p *Processor) State() State { return p.state }

// PC returns the index of the next instruction to execute.
func (p *Processor) PC() int { return p.pc }

// Position returns the current byte offset.
func (p *Processor) Position() int { return p.pos }

// Start returns the byte offset where the current attempt began.
func (p *Processor) Start() int { return p.start }

// MatchStart returns the byte offset where the current attempt's match
// begins. It differs from Start after \K.
func (p *Processor) MatchStart() int { return p.matchStart }

// Metrics returns the counters.
func (p *Processor) Metrics() Metrics { return p.metrics }

// Captures returns capture offsets as pairs: [2*i, 2*i+1] are the start and
// end of group i, -1 when the group did not participate. Group 0 is set
// once the processor accepts.
func (p *Processor) Captures() []int {
	out := make([]int, len(p.caps))
	copy(out, p.caps)
	return out
}

// Run cycles until the processor accepts or fails.
func (p *Processor) Run() State {
	for p.state == InProgress {
		p.Cycle()
	}
	return p.state
}

// Cycle executes one instruction. A failing instruction restores the newest
// save point, or moves on to the next start position, in the same cycle.
func (p *Processor) Cycle() State {
	if p.state != InProgress {
		return p.state
	}
	if p.prog.metrics {
		p.metrics.Cycles++
	}
	if !p.step() {
		p.fail()
	}
	return p.state
}

func (p *Processor) push(pc int, fence bool) {
	sp := savePoint{
		pc:         pc,
		pos:        p.pos,
		fence:      fence,
		matchStart: p.matchStart,
		caps:       append([]int(nil), p.caps...),
	}
	if len(p.regs) > 0 {
		sp.regs = append([]int(nil), p.regs...)
	}
	p.stack = append(p.stack, sp)
}

// cut discards save points down to and including the newest fence and
// returns it.
func (p *Processor) cut() savePoint {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].fence {
			sp := p.stack[i]
			p.stack = p.stack[:i]
			return sp
		}
	}
	panic("engine: cut without a fence")
}

func (p *Processor) fail() {
	for len(p.stack) > 0 {
		sp := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		if sp.pc < 0 {
			continue
		}
		p.pc = sp.pc
		p.pos = sp.pos
		p.matchStart = sp.matchStart
		copy(p.caps, sp.caps)
		copy(p.regs, sp.regs)
		if p.prog.metrics {
			p.metrics.Backtracks++
		}
		return
	}

	if p.single || p.prog.anchoredStart || p.start >= len(p.in.text) {
		p.state = Fail
		return
	}
	next := p.start
	if p.in.graphemes {
		next = p.in.clusterEnd(next)
	} else {
		next, _ = p.in.nextScalar(next)
	}
	p.restart(next)
	if p.prog.metrics {
		p.metrics.Resets++
	}
}

// step executes the instruction at pc and reports whether it succeeded.
func (p *Processor) step() bool {
	in := &p.prog.insts[p.pc]
	switch in.Op {
	case OpChar:
		r, end, single, ok := p.read(in.Reverse)
		if !ok || !single {
			return false
		}
		if r != in.Rune && !(in.Fold && foldEqual(in.Rune, r)) {
			return false
		}
		p.pos = end
	case OpSet:
		r, end, _, ok := p.read(in.Reverse)
		if !ok || !p.prog.sets[in.Index].Matches(r) {
			return false
		}
		p.pos = end
	case OpAny:
		_, end, _, ok := p.read(in.Reverse)
		if !ok {
			return false
		}
		p.pos = end
	case OpAnyNotNewline:
		r, end, _, ok := p.read(in.Reverse)
		if !ok || r == '\n' {
			return false
		}
		p.pos = end
	case OpAnyScalar:
		var ok bool
		if in.Reverse {
			p.pos, ok = p.in.prevScalar(p.pos)
		} else {
			p.pos, ok = p.in.nextScalar(p.pos)
		}
		if !ok {
			return false
		}
	case OpGrapheme:
		if in.Reverse {
			if p.pos <= 0 {
				return false
			}
			p.pos = p.in.clusterStart(p.pos)
		} else {
			if p.pos >= len(p.in.text) {
				return false
			}
			p.pos = p.in.clusterEnd(p.pos)
		}
	case OpNewlineSequence:
		if !p.newlineSequence(in.Reverse) {
			return false
		}
	case OpAssert:
		if !p.assert(in) {
			return false
		}
	case OpSave:
		p.push(int(in.Target), false)
	case OpFence:
		p.push(-1, true)
	case OpSaveFence:
		p.push(int(in.Target), true)
	case OpCut:
		p.cut()
	case OpCutRestore:
		sp := p.cut()
		p.pos = sp.pos
	case OpCutFail:
		p.cut()
		return false
	case OpBranch:
		p.pc = int(in.Target)
		return true
	case OpCaptureStart:
		p.caps[2*in.Index] = p.pos
	case OpCaptureEnd:
		p.caps[2*in.Index+1] = p.pos
	case OpBackref:
		s, e := p.caps[2*in.Index], p.caps[2*in.Index+1]
		if s < 0 || e < 0 || s > e {
			return false
		}
		end, ok := p.in.matchText(p.pos, p.in.text[s:e], in.Fold, in.Reverse)
		if !ok {
			return false
		}
		p.pos = end
	case OpCondCapture:
		if p.caps[2*in.Index+1] < 0 {
			p.pc = int(in.Target)
			return true
		}
	case OpSetRegister:
		p.regs[in.Index] = p.pos
	case OpCheckProgress:
		if p.pos == p.regs[in.Index] {
			p.pc = int(in.Target)
			return true
		}
	case OpResetStart:
		p.matchStart = p.pos
	case OpAccept:
		p.caps[0] = p.matchStart
		p.caps[1] = p.pos
		p.state = Accept
		return true
	case OpFail:
		return false
	default:
		panic(fmt.Sprintf("engine: unknown opcode %s", in.Op))
	}
	p.pc++
	return true
}

func (p *Processor) read(reverse bool) (r rune, pos int, single, ok bool) {
	if reverse {
		return p.in.prev(p.pos)
	}
	return p.in.next(p.pos)
}

func (p *Processor) newlineSequence(reverse bool) bool {
	text := p.in.text
	if reverse {
		if p.pos >= 2 && text[p.pos-2:p.pos] == "\r\n" {
			p.pos -= 2
			return true
		}
		r, size := utf8.DecodeLastRuneInString(text[:p.pos])
		if p.pos > 0 && isVerticalSpace(r) {
			p.pos -= size
			return true
		}
		return false
	}
	if len(text)-p.pos >= 2 && text[p.pos:p.pos+2] == "\r\n" {
		p.pos += 2
		return true
	}
	r, size := utf8.DecodeRuneInString(text[p.pos:])
	if p.pos < len(text) && isVerticalSpace(r) {
		p.pos += size
		return true
	}
	return false
}

func (p *Processor) assert(in *Inst) bool {
	text := p.in.text
	pos := p.pos
	switch in.Assert {
	case AssertStartOfSubject:
		return pos == 0
	case AssertEndOfSubject:
		return pos == len(text)
	case AssertEndOfSubjectBeforeNewline:
		return pos == len(text) || pos == len(text)-1 && text[pos] == '\n'
	case AssertStartOfLine:
		return pos == 0 || text[pos-1] == '\n'
	case AssertEndOfLine:
		return pos == len(text) || text[pos] == '\n'
	case AssertFirstMatchingPosition:
		return pos == p.first
	case AssertWordBoundary, AssertNotWordBoundary:
		isWord := isWordRune
		if in.ASCIIWord {
			isWord = isASCIIWord
		}
		before := pos > 0 && isWord(p.in.runeBefore(pos))
		after := pos < len(text) && isWord(p.in.runeAt(pos))
		return (before != after) == (in.Assert == AssertWordBoundary)
	case AssertTextSegment:
		return p.in.isBoundary(pos)
	case AssertNotTextSegment:
		return !p.in.isBoundary(pos)
	}
	return false
}
