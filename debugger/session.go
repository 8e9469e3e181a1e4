// Package debugger reconstructs the state of the backtracking engine at an
// arbitrary execution cycle.
//
// The engine cannot pause. A request is answered by two passes over the same
// immutable program: a discovery pass that runs to completion and counts the
// cycles, and a bounded pass that stops right after the requested cycle.
// Every pass owns a fresh Context, so sessions may be used concurrently.
package debugger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/coregx/regexlab/engine"
	"github.com/coregx/regexlab/span"
	"github.com/coregx/regexlab/syntax"
)

// cancelInterval is how many cycles run between context checks.
const cancelInterval = 4096

// Session answers debug requests. It is safe for concurrent use.
type Session struct {
	config Config
	engine Engine
	logger *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithEngine replaces the engine, e.g. with a fake in tests.
func WithEngine(e Engine) Option {
	return func(s *Session) {
		s.engine = e
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession validates config and returns a session.
func NewSession(config Config, opts ...Option) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		config: config,
		engine: Backtracker{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ComputeMetrics returns the engine state right after cycle req.Step.
//
// A pattern that fails to parse yields *ParseError, one the compiler rejects
// *CompileError. A pattern that does not match is not an error. Engine
// failures yield *MatchingEngineError and disagreement between the passes
// *ReplayInconsistencyError.
func (s *Session) ComputeMetrics(ctx context.Context, req Request) (Metrics, error) {
	opts, err := s.options(req.Options)
	if err != nil {
		return Metrics{}, err
	}
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	prog, err := s.engine.Compile(req.Pattern, opts)
	if err != nil {
		return Metrics{}, locate(req.Pattern, err)
	}

	discovery := newContext(0)
	if err := s.pass(ctx, "discovery", prog, req.Text, discovery); err != nil {
		return Metrics{}, err
	}
	stepCount := discovery.StepCount

	target := stepCount
	if req.Step != nil {
		target = *req.Step
	}
	target = clampStep(target, stepCount)

	s.logger.Debug("discovery pass done",
		zap.String("pattern", req.Pattern),
		zap.Int("stepCount", stepCount),
		zap.Int("target", target),
		zap.Stringer("state", discovery.State))

	if target == 0 {
		return newMetrics(prog.Instructions(), req.Text, 0, 0, discovery), nil
	}
	if err := ctx.Err(); err != nil {
		return Metrics{}, err
	}

	bounded := newContext(target)
	if err := s.pass(ctx, "bounded", prog, req.Text, bounded); err != nil {
		return Metrics{}, err
	}
	if err := verify(discovery, bounded, target); err != nil {
		s.logger.Error("replay inconsistency",
			zap.String("pattern", req.Pattern),
			zap.Error(err))
		return Metrics{}, err
	}

	s.logger.Debug("bounded pass done",
		zap.Int("step", target),
		zap.Int("programCounter", bounded.ProgramCounter),
		zap.Int("current", bounded.Current))

	return newMetrics(prog.Instructions(), req.Text, stepCount, target, bounded), nil
}

// options builds the compile options of a request. Metrics are always
// enabled.
func (s *Session) options(names []string) (engine.Options, error) {
	opts, err := engine.ParseOptions(names)
	if err != nil {
		return opts, fmt.Errorf("debugger: %w", err)
	}
	opts.EnableMetrics = true
	opts.MaxRepetition = s.config.MaxRepetition
	opts.MaxInstructions = s.config.MaxInstructions
	return opts, nil
}

// pass runs one cursor until it terminates or reaches c.BreakPoint.
func (s *Session) pass(ctx context.Context, name string, prog Program, text string, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MatchingEngineError{
				Pass: name,
				Step: c.StepCount,
				Err:  fmt.Errorf("%w: %v", ErrEnginePanic, r),
			}
		}
	}()

	cur := s.engine.NewCursor(prog, text)
	c.Start = cur.Start()
	c.Current = cur.Position()
	c.State = cur.State()

	for cur.State() == engine.InProgress {
		if c.StepCount >= s.config.MaxSteps {
			return &MatchingEngineError{Pass: name, Step: c.StepCount, Err: ErrStepLimit}
		}
		if c.StepCount%cancelInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		c.before(cur)
		cur.Cycle()
		c.after(cur)
		if c.stopped() {
			return nil
		}
	}
	return nil
}

// verify checks that the bounded pass replayed the discovery pass.
func verify(discovery, bounded *Context, target int) error {
	fail := func(reason string) error {
		return &ReplayInconsistencyError{
			StepCount: discovery.StepCount,
			Target:    target,
			Reached:   bounded.StepCount,
			Reason:    reason,
		}
	}
	if bounded.StepCount != target {
		return fail("bounded pass ended before the target step")
	}
	if target < discovery.StepCount {
		if bounded.State != engine.InProgress {
			return fail(fmt.Sprintf("bounded pass reached %s before the last step", bounded.State))
		}
		return nil
	}
	switch {
	case bounded.State != discovery.State:
		return fail(fmt.Sprintf("final state %s, discovery ended in %s", bounded.State, discovery.State))
	case bounded.Current != discovery.Current, bounded.Start != discovery.Start:
		return fail("final position differs from the discovery pass")
	case bounded.TotalCycleCount != discovery.TotalCycleCount,
		bounded.Resets != discovery.Resets,
		bounded.Backtracks != discovery.Backtracks:
		return fail("final counters differ from the discovery pass")
	}
	return nil
}

// locate converts parser and compiler errors into errors located in UTF-16
// offsets of the pattern.
func locate(pattern string, err error) error {
	ix := span.NewIndex(pattern)

	var se *syntax.Error
	if errors.As(err, &se) {
		return &ParseError{
			Message:  se.Message,
			Location: ix.Span(se.Location.Start, se.Location.End),
			Err:      err,
		}
	}
	var ce *engine.CompileError
	if errors.As(err, &ce) {
		return &CompileError{
			Message:  ce.Message,
			Location: ix.Span(ce.Location.Start, ce.Location.End),
			Err:      err,
		}
	}
	return &CompileError{Message: err.Error(), Err: err}
}
