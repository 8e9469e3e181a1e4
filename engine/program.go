package engine

import (
	"fmt"

	"github.com/coregx/regexlab/internal/conv"
	"github.com/coregx/regexlab/internal/sparse"
)

// Program is a compiled pattern. It is immutable after Build and safe for
// concurrent use by any number of processors.
type Program struct {
	insts        []Inst
	sets         []*CharSet
	numRegs      int
	captureNames []string
	metrics      bool
	semantics    Semantics
	pattern      string

	// anchoredStart is true when every path from the entry passes a start
	// anchor before consuming input.
	anchoredStart bool
}

// Len returns the number of instructions
func (p *Program) Len() int {
	return len(p.insts)
}

// Inst returns the instruction with the given ID.
func (p *Program) Inst(id InstID) *Inst {
	return &p.insts[id]
}

// Instructions returns the disassembly listing, one line per instruction.
func (p *Program) Instructions() []string {
	out := make([]string, len(p.insts))
	for i := range p.insts {
		out[i] = p.insts[i].format(p.sets)
	}
	return out
}

// String returns the numbered disassembly listing.
func (p *Program) String() string {
	s := ""
	for i, line := range p.Instructions() {
		s += fmt.Sprintf("%4d %s\n", i, line)
	}
	return s
}

// CaptureCount returns the number of capture groups, excluding group 0.
func (p *Program) CaptureCount() int {
	return len(p.captureNames) - 1
}

// CaptureNames returns the group names; index 0 is the whole match and
// unnamed groups are "".
func (p *Program) CaptureNames() []string {
	out := make([]string, len(p.captureNames))
	copy(out, p.captureNames)
	return out
}

// MetricsEnabled reports whether processors count cycles, resets and
// backtracks.
func (p *Program) MetricsEnabled() bool {
	return p.metrics
}

// Semantics returns the matching semantics the program was compiled with.
func (p *Program) Semantics() Semantics {
	return p.semantics
}

// Pattern returns the source pattern.
func (p *Program) Pattern() string {
	return p.pattern
}

// CanOnlyMatchAtStart reports whether a match can only begin at the search
// start, in which case the processor does not retry at later positions.
func (p *Program) CanOnlyMatchAtStart() bool {
	return p.anchoredStart
}

// analyzeAnchoredStart walks every path from the entry instruction without
// consuming input. A path that reaches a consuming instruction or accept
// before a start anchor means the program may match elsewhere.
func (p *Program) analyzeAnchoredStart() bool {
	n := conv.IntToUint32(len(p.insts))
	seen := sparse.New(n)
	stack := []InstID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Insert(uint32(id)) {
			continue
		}

		in := &p.insts[id]
		switch in.Op {
		case OpAssert:
			if in.Assert == AssertStartOfSubject || in.Assert == AssertFirstMatchingPosition {
				continue
			}
			stack = append(stack, id+1)
		case OpSave, OpSaveFence, OpCondCapture, OpCheckProgress:
			stack = append(stack, id+1, in.Target)
		case OpBranch:
			stack = append(stack, in.Target)
		case OpFail, OpCutFail:
		case OpFence, OpCut, OpCutRestore, OpCaptureStart, OpCaptureEnd, OpSetRegister, OpResetStart:
			stack = append(stack, id+1)
		default:
			return false
		}
	}
	return true
}
