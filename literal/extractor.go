// Package literal extracts the literal prefixes every match of a pattern
// must begin with. The matcher turns them into a prefilter that skips the
// positions where no attempt can succeed.
package literal

import (
	"unicode/utf8"

	"github.com/coregx/regexlab/syntax"
)

// ExtractorConfig limits extraction.
type ExtractorConfig struct {
	// MaxLiterals bounds the size of a sequence. Default: 64.
	MaxLiterals int

	// MaxLiteralLen truncates longer literals, which become incomplete.
	// Default: 64.
	MaxLiteralLen int

	// MaxClassSize is the largest custom class expanded into one literal
	// per member, as in [abc] -> a, b, c. Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default limits.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// Extractor walks syntax trees.
type Extractor struct {
	config ExtractorConfig
}

// New creates an extractor.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes returns the literals a match attempt must begin with, or
// nil when any position may start a match.
//
// Case-insensitive patterns and patterns that change matching options
// inline yield nil: the literals would depend on flags the walk does not
// track.
//
//	"hello"       -> [hello]
//	"(foo|bar)x"  -> [foox barx]
//	"[ab]c+"      -> [ac* bc*]  (* = incomplete)
//	"a*b"         -> [b a*], since "b" alone and "a..." both start matches
//	".*"          -> nil
func (e *Extractor) ExtractPrefixes(ast *syntax.AST) *Seq {
	if ast == nil || ast.Root == nil || changesOptions(ast) {
		return nil
	}
	seq := e.prefixes(ast.Root)
	if seq.IsEmpty() || seq.ContainsEmpty() {
		return nil
	}
	return seq
}

// changesOptions reports whether case folding is on or flags change inside
// the pattern.
func changesOptions(ast *syntax.AST) bool {
	if ast.Options.Has(syntax.OptCaseInsensitive) {
		return true
	}
	found := false
	syntax.Inspect(ast.Root, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Atom:
			if n.Kind == syntax.AtomChangeMatchingOptions {
				found = true
			}
		case *syntax.Group:
			if n.Kind.Options != nil || n.Kind.Type == syntax.GroupChangeOptions {
				found = true
			}
		}
		return !found
	})
	return found
}

func (e *Extractor) prefixes(n syntax.Node) *Seq {
	switch n := n.(type) {
	case *syntax.Empty, *syntax.Trivia:
		return empty()
	case *syntax.Quote:
		return e.literal([]byte(n.Literal))
	case *syntax.Atom:
		return e.atom(n)
	case *syntax.CustomCharacterClass:
		return e.class(n)
	case *syntax.Concatenation:
		return e.concat(n.Children)
	case *syntax.Alternation:
		var out *Seq
		for i, child := range n.Children {
			seq := e.prefixes(child)
			if i == 0 {
				out = seq
				continue
			}
			out = union(out, seq, e.config.MaxLiterals)
			if out == nil {
				return nil
			}
		}
		return out
	case *syntax.Group:
		if n.Kind.Type.IsLookaround() {
			return empty()
		}
		return e.prefixes(n.Child)
	case *syntax.Quantification:
		return e.repeat(n)
	}
	// Conditionals, absent functions and interpolations.
	return nil
}

func (e *Extractor) literal(b []byte) *Seq {
	lit := Literal{Bytes: b, Complete: true}
	if len(b) > e.config.MaxLiteralLen {
		lit.Bytes = b[:e.config.MaxLiteralLen]
		lit.Complete = false
	}
	return NewSeq(lit)
}

func (e *Extractor) atom(a *syntax.Atom) *Seq {
	if r, ok := a.Literal(); ok {
		return e.literal(utf8.AppendRune(nil, r))
	}
	switch a.Kind {
	case syntax.AtomScalarSequence:
		var b []byte
		for _, r := range a.Scalars {
			b = utf8.AppendRune(b, r)
		}
		return e.literal(b)
	case syntax.AtomStartOfLine, syntax.AtomEndOfLine:
		return empty()
	case syntax.AtomEscaped:
		if a.Escaped.IsAssertion() {
			return empty()
		}
	}
	return nil
}

// class expands a small class of plain characters and ranges.
func (e *Extractor) class(c *syntax.CustomCharacterClass) *Seq {
	if c.Start == syntax.ClassInverted {
		return nil
	}
	var runes []rune
	add := func(lo, hi rune) bool {
		if hi < lo || len(runes)+int(hi-lo)+1 > e.config.MaxClassSize {
			return false
		}
		for r := lo; r <= hi; r++ {
			runes = append(runes, r)
		}
		return true
	}
	for _, m := range c.Members {
		switch m := m.(type) {
		case *syntax.Atom:
			r, ok := m.Literal()
			if !ok || !add(r, r) {
				return nil
			}
		case *syntax.ClassRange:
			lo, ok1 := m.LHS.Literal()
			hi, ok2 := m.RHS.Literal()
			if !ok1 || !ok2 || !add(lo, hi) {
				return nil
			}
		case *syntax.Quote:
			for _, r := range m.Literal {
				if !add(r, r) {
					return nil
				}
			}
		case *syntax.Trivia:
		default:
			return nil
		}
	}
	if len(runes) == 0 {
		return nil
	}
	out := &Seq{}
	for _, r := range runes {
		out.literals = append(out.literals, Literal{Bytes: utf8.AppendRune(nil, r), Complete: true})
	}
	out.Dedup()
	return out
}

func (e *Extractor) concat(children []syntax.Node) *Seq {
	acc := empty()
	for _, child := range children {
		if !anyComplete(acc) {
			break
		}
		acc = cross(acc, e.prefixes(child), e.config.MaxLiterals, e.config.MaxLiteralLen)
	}
	return acc
}

func (e *Extractor) repeat(q *syntax.Quantification) *Seq {
	lo, hi := q.Amount.Bounds()
	if hi == 0 {
		return empty()
	}
	child := e.prefixes(q.Child)
	if child == nil {
		return nil
	}
	if lo == 1 && hi == 1 {
		return child
	}
	if hi != 1 {
		child.MakeInexact()
	}
	if lo == 0 {
		return union(empty(), child, e.config.MaxLiterals)
	}
	return child
}

func anyComplete(s *Seq) bool {
	for _, lit := range s.Literals() {
		if lit.Complete {
			return true
		}
	}
	return false
}
