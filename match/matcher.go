// Package match finds the matches of a pattern in a text, with their
// captures, in UTF-16 offsets.
//
// Matching runs the backtracking engine. When the pattern begins with
// literal text and uses scalar semantics, a prefilter finds the candidate
// start positions and the engine only makes an attempt at those.
package match

import (
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"

	"github.com/coregx/regexlab/engine"
	"github.com/coregx/regexlab/literal"
	"github.com/coregx/regexlab/prefilter"
	"github.com/coregx/regexlab/span"
	"github.com/coregx/regexlab/syntax"
)

// cancelInterval is how many cycles run between context checks.
const cancelInterval = 4096

// Group is one capture group of a match. Location and Value are nil when
// the group did not participate; Name is nil for unnamed groups.
type Group struct {
	Location *span.Span `json:"location,omitempty"`
	Value    *string    `json:"value,omitempty"`
	Name     *string    `json:"name,omitempty"`
}

// Match is one match and its capture groups, excluding group 0.
type Match struct {
	Location span.Span `json:"location"`
	Value    string    `json:"value"`
	Captures []Group   `json:"captures"`
}

// Matcher is a compiled pattern. It is safe for concurrent use.
type Matcher struct {
	prog      *engine.Program
	prefilter prefilter.Prefilter
	names     []string
	global    bool
	config    Config
	logger    *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// Compile parses and compiles pattern under the request options, such as
// "i" or "unicodeScalarSemantics". The option "g" makes Find return every
// match instead of the first.
//
// Parse failures are *syntax.Error, unsupported constructs
// *engine.CompileError.
func Compile(pattern string, options []string, config Config, opts ...Option) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	eopts, err := engine.ParseOptions(options)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	eopts.MaxRepetition = config.MaxRepetition

	ast, err := syntax.Parse(pattern, syntax.ParseOptions{
		Initial:  eopts.Flags,
		MaxDepth: config.MaxRecursionDepth,
	})
	if err != nil {
		return nil, err
	}
	prog, err := engine.Compile(ast, eopts)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		prog:   prog,
		names:  prog.CaptureNames(),
		global: slices.Contains(options, "g"),
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if config.EnablePrefilter && canPrefilter(prog) {
		lc := literal.DefaultConfig()
		lc.MaxLiterals = config.MaxLiterals
		prefixes := literal.New(lc).ExtractPrefixes(ast)
		m.prefilter = prefilter.NewBuilder(prefixes).Build()
	}

	heap := 0
	if m.prefilter != nil {
		heap = m.prefilter.HeapBytes()
	}
	m.logger.Debug("pattern compiled",
		zap.String("pattern", pattern),
		zap.Int("instructions", prog.Len()),
		zap.String("prefilter", prefilter.Name(m.prefilter)),
		zap.Int("prefilterBytes", heap))
	return m, nil
}

// canPrefilter reports whether skipping start positions is sound: attempts
// must start at scalar boundaries and the search must not be anchored.
func canPrefilter(prog *engine.Program) bool {
	return prog.Semantics() == engine.UnicodeScalarSemantics && !prog.CanOnlyMatchAtStart()
}

// Global reports whether the "g" option was given.
func (m *Matcher) Global() bool {
	return m.global
}

// Prefilter returns the name of the prefilter strategy, "none" without one.
func (m *Matcher) Prefilter() string {
	return prefilter.Name(m.prefilter)
}

// Program returns the compiled program.
func (m *Matcher) Program() *engine.Program {
	return m.prog
}

// Find returns every match with the "g" option and at most the first one
// otherwise. The result is never nil.
func (m *Matcher) Find(ctx context.Context, text string) ([]Match, error) {
	if m.global {
		return m.FindAll(ctx, text)
	}
	first, err := m.FindFirst(ctx, text)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return []Match{}, nil
	}
	return []Match{*first}, nil
}

// FindFirst returns the leftmost match, or nil.
func (m *Matcher) FindFirst(ctx context.Context, text string) (*Match, error) {
	s := m.newSearcher(text)
	caps, err := s.next(ctx, 0)
	if err != nil || caps == nil {
		return nil, err
	}
	mt := s.match(caps)
	return &mt, nil
}

// FindAll returns the successive non-overlapping matches, at most
// Config.MaxMatches of them. After an empty match the search resumes one
// character past it, so no location is reported twice.
func (m *Matcher) FindAll(ctx context.Context, text string) ([]Match, error) {
	s := m.newSearcher(text)
	out := []Match{}
	at := 0
	for at <= len(text) && len(out) < m.config.MaxMatches {
		caps, err := s.next(ctx, at)
		if err != nil {
			return nil, err
		}
		if caps == nil {
			break
		}
		out = append(out, s.match(caps))

		end := caps[1]
		if end > caps[0] && end > at {
			at = end
			continue
		}
		// An empty match is reported once; step over the character after it.
		at = max(at, end)
		if at >= len(text) {
			break
		}
		at += s.advance(at)
	}

	if s.tracker != nil {
		m.logger.Debug("prefilter stats",
			zap.String("prefilter", prefilter.Name(m.prefilter)),
			zap.Object("stats", s.tracker.Stats()))
	}
	return out, nil
}

// searcher holds the per-call state of a search.
type searcher struct {
	m       *Matcher
	text    string
	hay     []byte
	ix      *span.Index
	proc    *engine.Processor
	tracker *prefilter.Tracker
	cycles  int
}

func (m *Matcher) newSearcher(text string) *searcher {
	s := &searcher{
		m:    m,
		text: text,
		proc: engine.NewProcessor(m.prog, text, 0),
	}
	if m.prefilter != nil {
		s.hay = []byte(text)
		s.tracker = prefilter.NewTracker(m.prefilter)
	}
	return s
}

// next returns the capture offsets of the first match at or after from, or
// nil.
func (s *searcher) next(ctx context.Context, from int) ([]int, error) {
	s.cycles = 0
	s.proc.Reset(from)
	if s.tracker == nil {
		if err := s.run(ctx, from); err != nil {
			return nil, err
		}
		return s.result(), nil
	}

	at := from
	for at <= len(s.text) {
		cand := at
		if s.tracker.IsActive() {
			cand = s.tracker.Find(s.hay, at)
			if cand < 0 {
				return nil, nil
			}
		}
		s.proc.Attempt(cand)
		if err := s.run(ctx, from); err != nil {
			return nil, err
		}
		if caps := s.result(); caps != nil {
			s.tracker.ConfirmMatch()
			return caps, nil
		}
		if cand >= len(s.text) {
			break
		}
		_, size := utf8.DecodeRuneInString(s.text[cand:])
		at = cand + size
	}
	return nil, nil
}

func (s *searcher) run(ctx context.Context, from int) error {
	for s.proc.State() == engine.InProgress {
		if s.cycles >= s.m.config.MaxCycles {
			return &SearchError{At: from, Cycles: s.cycles, Err: ErrCycleLimit}
		}
		if s.cycles%cancelInterval == 0 {
			if err := ctx.Err(); err != nil {
				return &SearchError{At: from, Cycles: s.cycles, Err: err}
			}
		}
		s.proc.Cycle()
		s.cycles++
	}
	return nil
}

func (s *searcher) result() []int {
	if s.proc.State() != engine.Accept {
		return nil
	}
	return s.proc.Captures()
}

// advance returns the byte length of the character at pos under the
// program's semantics.
func (s *searcher) advance(pos int) int {
	if s.m.prog.Semantics() == engine.GraphemeClusterSemantics {
		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s.text[pos:], -1)
		if len(cluster) > 0 {
			return len(cluster)
		}
	}
	_, size := utf8.DecodeRuneInString(s.text[pos:])
	return size
}

func (s *searcher) match(caps []int) Match {
	if s.ix == nil {
		s.ix = span.NewIndex(s.text)
	}
	start, end := caps[0], caps[1]
	// \K inside a lookahead can move the start past the end.
	start = min(start, end)

	mt := Match{
		Location: s.ix.Span(start, end),
		Value:    s.text[start:end],
		Captures: make([]Group, 0, len(caps)/2-1),
	}
	for i := 1; i < len(caps)/2; i++ {
		var g Group
		if i < len(s.m.names) && s.m.names[i] != "" {
			name := s.m.names[i]
			g.Name = &name
		}
		if gs, ge := caps[2*i], caps[2*i+1]; gs >= 0 && ge >= gs {
			loc := s.ix.Span(gs, ge)
			value := s.text[gs:ge]
			g.Location = &loc
			g.Value = &value
		}
		mt.Captures = append(mt.Captures, g)
	}
	return mt
}
