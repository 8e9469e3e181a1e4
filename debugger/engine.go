package debugger

import (
	"fmt"

	"github.com/coregx/regexlab/engine"
	"github.com/coregx/regexlab/syntax"
)

// Program is a compiled pattern as seen by the debugger.
type Program interface {
	// Instructions returns the disassembly, one entry per instruction.
	Instructions() []string
}

// Cursor steps one execution of a Program. *engine.Processor implements it.
type Cursor interface {
	Cycle() engine.State
	State() engine.State
	// PC is the index of the next instruction to execute.
	PC() int
	// Position is the current byte offset in the text.
	Position() int
	// Start is the byte offset where the current attempt began.
	Start() int
	Metrics() engine.Metrics
}

// Engine compiles patterns and creates cursors over them. Implementations
// must be deterministic: two cursors over the same Program and text must
// execute the same cycles.
type Engine interface {
	Compile(pattern string, opts engine.Options) (Program, error)
	NewCursor(prog Program, text string) Cursor
}

// Backtracker is the Engine backed by the engine package. Compile returns
// *syntax.Error for patterns that fail to parse and *engine.CompileError
// for patterns the compiler rejects.
type Backtracker struct{}

// Compile parses and compiles pattern.
func (Backtracker) Compile(pattern string, opts engine.Options) (Program, error) {
	ast, err := syntax.Parse(pattern, syntax.ParseOptions{Initial: opts.Flags})
	if err != nil {
		return nil, err
	}
	prog, err := engine.Compile(ast, opts)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// NewCursor returns a processor searching text from its start.
func (Backtracker) NewCursor(prog Program, text string) Cursor {
	p, ok := prog.(*engine.Program)
	if !ok {
		panic(fmt.Sprintf("debugger: Backtracker cannot run %T", prog))
	}
	return engine.NewProcessor(p, text, 0)
}
