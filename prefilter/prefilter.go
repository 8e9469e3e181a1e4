// Package prefilter finds candidate match positions from the literal
// prefixes of a pattern.
//
// Every position a prefilter skips is one where no match attempt can
// succeed, so the matcher only starts the backtracking engine at candidates.
// The strategy depends on the literals:
//   - one single-byte literal: memchr
//   - one literal, or literals sharing a long common prefix: memmem
//   - several literals: an Aho-Corasick automaton
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/regexlab/literal"
)

// Prefilter finds candidate positions.
type Prefilter interface {
	// Find returns the first candidate at or after start, or -1.
	Find(haystack []byte, start int) int

	// HeapBytes returns the approximate memory retained.
	HeapBytes() int
}

// minCommonPrefix is the shortest common prefix worth a memmem search
// instead of an automaton.
const minCommonPrefix = 3

// Builder selects and builds a prefilter.
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a builder for the given prefix literals.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build returns nil when the literals cannot drive a search: the sequence
// is infinite or empty, or some literal is empty.
func (b *Builder) Build() Prefilter {
	seq := b.prefixes
	if seq.IsEmpty() || seq.ContainsEmpty() {
		return nil
	}
	seq = seq.Clone()
	seq.Minimize()

	if seq.Len() == 1 {
		lit := seq.Get(0)
		if lit.Len() == 1 {
			return newMemchr(lit.Bytes[0])
		}
		return newMemmem(lit.Bytes)
	}
	if lcp := seq.LongestCommonPrefix(); len(lcp) >= minCommonPrefix {
		return newMemmem(lcp)
	}
	return newAhoCorasick(seq)
}

type memchrPrefilter struct {
	needle byte
}

func newMemchr(needle byte) Prefilter {
	return &memchrPrefilter{needle: needle}
}

func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	i := bytes.IndexByte(haystack[start:], p.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memchrPrefilter) HeapBytes() int { return 0 }

type memmemPrefilter struct {
	needle []byte
}

func newMemmem(needle []byte) Prefilter {
	return &memmemPrefilter{needle: append([]byte{}, needle...)}
}

func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start+len(p.needle) > len(haystack) {
		return -1
	}
	i := bytes.Index(haystack[start:], p.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memmemPrefilter) HeapBytes() int { return len(p.needle) }

// ahoCorasickPrefilter matches all literals at once.
type ahoCorasickPrefilter struct {
	auto *ahocorasick.Automaton
	heap int
}

// newAhoCorasick returns nil if the automaton cannot be built; the caller
// then searches without a prefilter.
func newAhoCorasick(seq *literal.Seq) Prefilter {
	b := ahocorasick.NewBuilder()
	heap := 0
	for _, lit := range seq.Literals() {
		b.AddPattern(lit.Bytes)
		heap += lit.Len()
	}
	auto, err := b.Build()
	if err != nil {
		return nil
	}
	return &ahoCorasickPrefilter{auto: auto, heap: heap}
}

func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

func (p *ahoCorasickPrefilter) HeapBytes() int { return p.heap }

// Name returns a short name of the strategy of pf, or "none" for nil.
func Name(pf Prefilter) string {
	switch pf.(type) {
	case nil:
		return "none"
	case *memchrPrefilter:
		return "memchr"
	case *memmemPrefilter:
		return "memmem"
	case *ahoCorasickPrefilter:
		return "aho-corasick"
	}
	return "custom"
}
