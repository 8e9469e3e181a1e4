package engine

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// input is the subject text together with its extended grapheme cluster
// boundaries, which are computed on first use.
type input struct {
	text      string
	graphemes bool
	bounds    []int
}

func newInput(text string, s Semantics) *input {
	return &input{text: text, graphemes: s == GraphemeClusterSemantics}
}

func (in *input) boundaries() []int {
	if in.bounds == nil {
		bounds := []int{0}
		g := uniseg.NewGraphemes(in.text)
		for g.Next() {
			_, to := g.Positions()
			bounds = append(bounds, to)
		}
		in.bounds = bounds
	}
	return in.bounds
}

// isBoundary reports whether pos falls between two grapheme clusters.
func (in *input) isBoundary(pos int) bool {
	b := in.boundaries()
	i := sort.SearchInts(b, pos)
	return i < len(b) && b[i] == pos
}

// clusterEnd returns the end of the cluster starting at or spanning pos.
func (in *input) clusterEnd(pos int) int {
	b := in.boundaries()
	i := sort.SearchInts(b, pos+1)
	if i >= len(b) {
		return len(in.text)
	}
	return b[i]
}

// clusterStart returns the start of the cluster ending at or spanning pos.
func (in *input) clusterStart(pos int) int {
	b := in.boundaries()
	i := sort.SearchInts(b, pos)
	if i == 0 {
		return 0
	}
	return b[i-1]
}

// next returns the first character after pos under the input's semantics:
// its first rune, the position after it and whether the character is a
// single rune.
func (in *input) next(pos int) (r rune, end int, single, ok bool) {
	if pos >= len(in.text) {
		return 0, pos, false, false
	}
	r, size := utf8.DecodeRuneInString(in.text[pos:])
	if !in.graphemes {
		return r, pos + size, true, true
	}
	end = in.clusterEnd(pos)
	return r, end, end == pos+size, true
}

// prev is next in the backwards direction; r is the first rune of the
// character that ends at pos.
func (in *input) prev(pos int) (r rune, start int, single, ok bool) {
	if pos <= 0 {
		return 0, pos, false, false
	}
	if !in.graphemes {
		r, size := utf8.DecodeLastRuneInString(in.text[:pos])
		return r, pos - size, true, true
	}
	start = in.clusterStart(pos)
	r, size := utf8.DecodeRuneInString(in.text[start:])
	return r, start, start+size == pos, true
}

// nextScalar and prevScalar step one rune regardless of semantics.
func (in *input) nextScalar(pos int) (int, bool) {
	if pos >= len(in.text) {
		return pos, false
	}
	_, size := utf8.DecodeRuneInString(in.text[pos:])
	return pos + size, true
}

func (in *input) prevScalar(pos int) (int, bool) {
	if pos <= 0 {
		return pos, false
	}
	_, size := utf8.DecodeLastRuneInString(in.text[:pos])
	return pos - size, true
}

// runeBefore and runeAt return the scalars adjacent to pos, or -1.
func (in *input) runeBefore(pos int) rune {
	if pos <= 0 {
		return -1
	}
	r, _ := utf8.DecodeLastRuneInString(in.text[:pos])
	return r
}

func (in *input) runeAt(pos int) rune {
	if pos >= len(in.text) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(in.text[pos:])
	return r
}

// foldEqual reports whether a and b are equal under simple case folding.
func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for v := unicode.SimpleFold(a); v != a; v = unicode.SimpleFold(v) {
		if v == b {
			return true
		}
	}
	return false
}

// matchText compares sub with the text after pos (or before it when
// reverse) and returns the position past the match.
func (in *input) matchText(pos int, sub string, fold, reverse bool) (int, bool) {
	if !fold {
		if reverse {
			if pos >= len(sub) && in.text[pos-len(sub):pos] == sub {
				return pos - len(sub), true
			}
			return pos, false
		}
		if len(in.text)-pos >= len(sub) && in.text[pos:pos+len(sub)] == sub {
			return pos + len(sub), true
		}
		return pos, false
	}
	if reverse {
		for i := len(sub); i > 0; {
			want, wsize := utf8.DecodeLastRuneInString(sub[:i])
			if pos <= 0 {
				return pos, false
			}
			got, gsize := utf8.DecodeLastRuneInString(in.text[:pos])
			if !foldEqual(want, got) {
				return pos, false
			}
			i -= wsize
			pos -= gsize
		}
		return pos, true
	}
	for i := 0; i < len(sub); {
		want, wsize := utf8.DecodeRuneInString(sub[i:])
		if pos >= len(in.text) {
			return pos, false
		}
		got, gsize := utf8.DecodeRuneInString(in.text[pos:])
		if !foldEqual(want, got) {
			return pos, false
		}
		i += wsize
		pos += gsize
	}
	return pos, true
}
