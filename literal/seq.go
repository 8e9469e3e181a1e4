package literal

import (
	"bytes"
	"fmt"
	"sort"
)

// Literal is a byte string every match attempt must begin with.
//
// A complete literal is the whole text of the subexpression it was
// extracted from; an incomplete one is only its beginning, so nothing may be
// appended to it.
type Literal struct {
	Bytes    []byte
	Complete bool
}

// NewLiteral creates a literal.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{Bytes: b, Complete: complete}
}

// Len returns the length in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

func (l Literal) String() string {
	return fmt.Sprintf("literal{%s, complete=%v}", l.Bytes, l.Complete)
}

// Seq is a finite set of alternative literals.
//
// A nil *Seq is the infinite set: any text may start a match and the
// sequence carries no information. Methods accept a nil receiver.
type Seq struct {
	literals []Literal
}

// NewSeq creates a sequence holding lits.
func NewSeq(lits ...Literal) *Seq {
	s := &Seq{literals: make([]Literal, 0, len(lits))}
	s.literals = append(s.literals, lits...)
	return s
}

// empty returns the sequence holding only the complete empty literal.
func empty() *Seq {
	return NewSeq(Literal{Bytes: []byte{}, Complete: true})
}

// Len returns the number of literals; zero for the infinite set.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// IsEmpty reports whether s holds no literals.
func (s *Seq) IsEmpty() bool {
	return s.Len() == 0
}

// Get returns the i-th literal.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// Literals returns the literals. The slice must not be modified.
func (s *Seq) Literals() []Literal {
	if s == nil {
		return nil
	}
	return s.literals
}

// Clone returns a deep copy.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}
	out := &Seq{literals: make([]Literal, len(s.literals))}
	for i, lit := range s.literals {
		out.literals[i] = Literal{Bytes: append([]byte{}, lit.Bytes...), Complete: lit.Complete}
	}
	return out
}

// ContainsEmpty reports whether some literal is the empty string, which
// makes the sequence useless for finding candidates.
func (s *Seq) ContainsEmpty() bool {
	for _, lit := range s.Literals() {
		if len(lit.Bytes) == 0 {
			return true
		}
	}
	return false
}

// MakeInexact marks every literal incomplete.
func (s *Seq) MakeInexact() {
	if s == nil {
		return
	}
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

// Dedup removes duplicate literals, keeping the first. Two literals with
// equal bytes but different completeness merge into an incomplete one.
func (s *Seq) Dedup() {
	if s == nil {
		return
	}
	kept := s.literals[:0]
	index := make(map[string]int, len(s.literals))
	for _, lit := range s.literals {
		if i, ok := index[string(lit.Bytes)]; ok {
			kept[i].Complete = kept[i].Complete && lit.Complete
			continue
		}
		index[string(lit.Bytes)] = len(kept)
		kept = append(kept, lit)
	}
	s.literals = kept
}

// Minimize drops every literal that has a shorter literal of the sequence
// as a prefix: finding the shorter one already finds it. The survivors are
// sorted by length, then bytes.
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}
	s.Dedup()
	sort.SliceStable(s.literals, func(i, j int) bool {
		a, b := s.literals[i].Bytes, s.literals[j].Bytes
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})
	kept := make([]Literal, 0, len(s.literals))
	for _, lit := range s.literals {
		covered := false
		for _, short := range kept {
			if bytes.HasPrefix(lit.Bytes, short.Bytes) {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, lit)
		}
	}
	s.literals = kept
}

// LongestCommonPrefix returns the longest prefix shared by all literals.
func (s *Seq) LongestCommonPrefix() []byte {
	if s.IsEmpty() {
		return nil
	}
	prefix := s.literals[0].Bytes
	for _, lit := range s.literals[1:] {
		n := 0
		for n < len(prefix) && n < len(lit.Bytes) && prefix[n] == lit.Bytes[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return prefix
}

// union returns the literals of a followed by those of b. The result is
// infinite if either side is or if it would exceed limit.
func union(a, b *Seq, limit int) *Seq {
	if a == nil || b == nil || a.Len()+b.Len() > limit {
		return nil
	}
	out := NewSeq(a.literals...)
	out.literals = append(out.literals, b.literals...)
	out.Dedup()
	return out
}

// cross appends every literal of b to every complete literal of a.
// Incomplete literals of a are kept unchanged. When b is infinite or the
// product would exceed limit, a is returned with all literals incomplete.
func cross(a, b *Seq, limit, maxLen int) *Seq {
	if b == nil {
		a.MakeInexact()
		return a
	}
	size := 0
	for _, x := range a.literals {
		if x.Complete {
			size += b.Len()
		} else {
			size++
		}
	}
	if size > limit {
		a.MakeInexact()
		return a
	}

	out := &Seq{literals: make([]Literal, 0, size)}
	for _, x := range a.literals {
		if !x.Complete {
			out.literals = append(out.literals, x)
			continue
		}
		for _, y := range b.literals {
			lit := Literal{Complete: y.Complete}
			lit.Bytes = make([]byte, 0, len(x.Bytes)+len(y.Bytes))
			lit.Bytes = append(append(lit.Bytes, x.Bytes...), y.Bytes...)
			if len(lit.Bytes) > maxLen {
				lit.Bytes = lit.Bytes[:maxLen]
				lit.Complete = false
			}
			out.literals = append(out.literals, lit)
		}
	}
	out.Dedup()
	return out
}
