// Package regexlab explains regular expressions.
//
// It provides three views of a pattern:
//   - Annotate classifies every construct of a pattern, for syntax
//     highlighting and hover help
//   - Debug replays the backtracking engine and reports its state after any
//     execution step
//   - Match lists matches with their capture groups
//
// All offsets in results are UTF-16 code unit offsets.
//
// Basic usage:
//
//	m, err := regexlab.DebugAt(ctx, `a(b|c)`, "ac", nil, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m.Instructions[m.ProgramCounter], m.State)
//
// The packages annotate, debugger, match and api expose the full
// configuration; these functions use the defaults.
package regexlab

import (
	"context"
	"sync"

	"github.com/coregx/regexlab/annotate"
	"github.com/coregx/regexlab/debugger"
	"github.com/coregx/regexlab/match"
)

var (
	sessionOnce sync.Once
	session     *debugger.Session
)

func defaultSession() *debugger.Session {
	sessionOnce.Do(func() {
		s, err := debugger.NewSession(debugger.DefaultConfig())
		if err != nil {
			panic("regexlab: default debugger config: " + err.Error())
		}
		session = s
	})
	return session
}

// Annotate parses pattern with the given option flags ("x", "i", ...) and
// returns its tokens. A pattern that fails to parse yields no tokens and
// one diagnostic.
func Annotate(pattern string, options []string) annotate.Result {
	return annotate.Pattern(pattern, annotate.OptionsFromFlags(options))
}

// Debug returns the engine state after the last step of matching pattern
// against text.
func Debug(ctx context.Context, pattern, text string, options []string) (debugger.Metrics, error) {
	req := debugger.Request{Pattern: pattern, Text: text, Options: options}
	return defaultSession().ComputeMetrics(ctx, req)
}

// DebugAt returns the engine state right after step. Steps outside
// [1, stepCount] are clamped.
func DebugAt(ctx context.Context, pattern, text string, options []string, step int) (debugger.Metrics, error) {
	req := debugger.Request{Pattern: pattern, Text: text, Options: options}
	return defaultSession().ComputeMetrics(ctx, req.WithStep(step))
}

// Match returns the first match of pattern in text, or every match when
// options contain "g". The result is empty, not nil, when nothing matches.
func Match(ctx context.Context, pattern, text string, options []string) ([]match.Match, error) {
	m, err := match.Compile(pattern, options, match.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, text)
}
