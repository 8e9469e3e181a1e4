package engine

import (
	"fmt"

	"github.com/coregx/regexlab/internal/conv"
)

// Builder constructs programs incrementally using a low-level API.
// Instructions are appended in order; forward jumps are emitted with
// InvalidInst and patched once the target is known.
type Builder struct {
	insts   []Inst
	sets    []*CharSet
	numRegs int
}

// NewBuilder creates a new program builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new program builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{insts: make([]Inst, 0, capacity)}
}

func (b *Builder) add(in Inst) InstID {
	id := InstID(conv.IntToUint32(len(b.insts)))
	b.insts = append(b.insts, in)
	return id
}

// Next returns the ID the next added instruction will receive.
func (b *Builder) Next() InstID {
	return InstID(conv.IntToUint32(len(b.insts)))
}

// Len returns the current number of instructions
func (b *Builder) Len() int {
	return len(b.insts)
}

// AddChar adds an instruction consuming the character r.
func (b *Builder) AddChar(r rune, fold, reverse bool) InstID {
	return b.add(Inst{Op: OpChar, Rune: r, Fold: fold, Reverse: reverse})
}

// AddSet registers cs and adds an instruction consuming one of its members.
func (b *Builder) AddSet(cs *CharSet, reverse bool) InstID {
	b.sets = append(b.sets, cs)
	return b.add(Inst{Op: OpSet, Index: len(b.sets) - 1, Reverse: reverse})
}

// AddConsume adds an operand-free consuming instruction such as OpAny.
func (b *Builder) AddConsume(op OpCode, reverse bool) InstID {
	return b.add(Inst{Op: op, Reverse: reverse})
}

// AddAssert adds a zero-width assertion.
func (b *Builder) AddAssert(kind AssertKind, asciiWord bool) InstID {
	return b.add(Inst{Op: OpAssert, Assert: kind, ASCIIWord: asciiWord})
}

// AddSave adds a save point resuming at target.
func (b *Builder) AddSave(target InstID) InstID {
	return b.add(Inst{Op: OpSave, Target: target})
}

// AddBranch adds an unconditional jump.
func (b *Builder) AddBranch(target InstID) InstID {
	return b.add(Inst{Op: OpBranch, Target: target})
}

// AddFence adds a non-resumable marker.
func (b *Builder) AddFence() InstID {
	return b.add(Inst{Op: OpFence})
}

// AddSaveFence adds a marker that resumes at target when backtracked into.
func (b *Builder) AddSaveFence(target InstID) InstID {
	return b.add(Inst{Op: OpSaveFence, Target: target})
}

// AddCut adds one of OpCut, OpCutRestore or OpCutFail.
func (b *Builder) AddCut(op OpCode) InstID {
	return b.add(Inst{Op: op})
}

// AddCapture adds a capture boundary for group index.
func (b *Builder) AddCapture(index int, isStart bool) InstID {
	op := OpCaptureEnd
	if isStart {
		op = OpCaptureStart
	}
	return b.add(Inst{Op: op, Index: index})
}

// AddBackref adds an instruction consuming the text of group index.
func (b *Builder) AddBackref(index int, fold, reverse bool) InstID {
	return b.add(Inst{Op: OpBackref, Index: index, Fold: fold, Reverse: reverse})
}

// AddCondCapture adds a jump to target taken when group index is unset.
func (b *Builder) AddCondCapture(index int, target InstID) InstID {
	return b.add(Inst{Op: OpCondCapture, Index: index, Target: target})
}

// NewRegister allocates a loop register.
func (b *Builder) NewRegister() int {
	b.numRegs++
	return b.numRegs - 1
}

// AddSetRegister stores the position in register reg.
func (b *Builder) AddSetRegister(reg int) InstID {
	return b.add(Inst{Op: OpSetRegister, Index: reg})
}

// AddCheckProgress jumps to target when no progress was made since reg was set.
func (b *Builder) AddCheckProgress(reg int, target InstID) InstID {
	return b.add(Inst{Op: OpCheckProgress, Index: reg, Target: target})
}

// AddSimple adds an operand-free instruction such as OpAccept.
func (b *Builder) AddSimple(op OpCode) InstID {
	return b.add(Inst{Op: op})
}

// Patch updates an instruction's target. This is used during compilation to
// handle forward references (e.g., loops, alternations).
func (b *Builder) Patch(id, target InstID) error {
	if int(id) >= len(b.insts) {
		return &BuildError{
			Message: "instruction ID out of bounds",
			InstID:  id,
		}
	}
	in := &b.insts[id]
	switch in.Op {
	case OpSave, OpSaveFence, OpBranch, OpCondCapture, OpCheckProgress:
		in.Target = target
		return nil
	default:
		return &BuildError{
			Message: fmt.Sprintf("cannot patch instruction of kind %s", in.Op),
			InstID:  id,
		}
	}
}

// Validate checks that every jump target points at an instruction.
func (b *Builder) Validate() error {
	if len(b.insts) == 0 {
		return &BuildError{Message: "empty program", InstID: InvalidInst}
	}
	for i, in := range b.insts {
		switch in.Op {
		case OpSave, OpSaveFence, OpBranch, OpCondCapture, OpCheckProgress:
			if int(in.Target) >= len(b.insts) {
				return &BuildError{
					Message: fmt.Sprintf("invalid target %d", in.Target),
					InstID:  InstID(conv.IntToUint32(i)),
				}
			}
		}
	}
	return nil
}

// Build finalizes and returns the constructed program.
func (b *Builder) Build(opts ...BuildOption) (*Program, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	prog := &Program{
		insts:        b.insts,
		sets:         b.sets,
		numRegs:      b.numRegs,
		captureNames: []string{""},
	}
	for _, opt := range opts {
		opt(prog)
	}
	prog.anchoredStart = prog.analyzeAnchoredStart()
	return prog, nil
}

// BuildOption is a functional option for configuring the built program
type BuildOption func(*Program)

// WithCaptureNames sets the capture group names. Index 0 should be ""
// (entire match); the slice length fixes the number of groups.
func WithCaptureNames(names []string) BuildOption {
	return func(p *Program) {
		if len(names) > 0 {
			p.captureNames = make([]string, len(names))
			copy(p.captureNames, names)
		}
	}
}

// WithMetrics enables cycle, reset and backtrack counters in processors.
func WithMetrics(enabled bool) BuildOption {
	return func(p *Program) {
		p.metrics = enabled
	}
}

// WithSemantics sets the unit consuming instructions advance by.
func WithSemantics(s Semantics) BuildOption {
	return func(p *Program) {
		p.semantics = s
	}
}

// WithPattern records the source pattern for diagnostics.
func WithPattern(pattern string) BuildOption {
	return func(p *Program) {
		p.pattern = pattern
	}
}
