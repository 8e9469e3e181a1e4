// Package span provides half-open offset ranges over pattern and subject text.
//
// Inside the module, parsers and engines work with UTF-8 byte offsets because
// that is how Go strings are indexed. Every Span handed to a caller is
// expressed in UTF-16 code units instead, which is the metric used by browser
// and editor text APIs. Index converts between the two.
package span

import (
	"fmt"
	"unicode/utf8"
)

// Span is a half-open range [Start, End) of offsets into a string.
// A zero-width span (Start == End) marks a position.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New returns the span [start, end). It panics if start > end or start < 0,
// both of which indicate a bookkeeping bug in the caller.
func New(start, end int) Span {
	if start < 0 || start > end {
		panic(fmt.Sprintf("span: invalid range [%d, %d)", start, end))
	}
	return Span{Start: start, End: end}
}

// Point returns the zero-width span at pos.
func Point(pos int) Span {
	return New(pos, pos)
}

// Len returns the number of offsets covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span is zero-width.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Overlaps reports whether s and o share at least one offset.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// String returns "start-end".
func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Index maps UTF-8 byte offsets of a string to UTF-16 code unit offsets.
//
// The zero value is not usable; build one with NewIndex. An Index is
// immutable and safe for concurrent use.
type Index struct {
	// utf16 holds, for every byte offset 0..len(s), the UTF-16 offset of that
	// byte. Offsets inside a multi-byte sequence map to the offset of the
	// sequence start.
	utf16 []int
	// bytes holds, for every UTF-16 offset, the byte offset it starts at.
	bytes []int
	ascii bool
	size  int
}

// NewIndex builds the offset index for s.
func NewIndex(s string) *Index {
	ix := &Index{size: len(s), ascii: true}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ix.ascii = false
			break
		}
	}
	if ix.ascii {
		return ix
	}

	ix.utf16 = make([]int, len(s)+1)
	ix.bytes = make([]int, 0, len(s)+1)
	u := 0
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < w; j++ {
			ix.utf16[i+j] = u
		}
		ix.bytes = append(ix.bytes, i)
		if r >= 0x10000 {
			// Surrogate pair: the second code unit points at the same rune.
			ix.bytes = append(ix.bytes, i)
			u += 2
		} else {
			u++
		}
		i += w
	}
	ix.utf16[len(s)] = u
	ix.bytes = append(ix.bytes, len(s))
	return ix
}

// Offset converts a byte offset into a UTF-16 offset. Offsets outside
// [0, len] are clamped.
func (ix *Index) Offset(byteOffset int) int {
	byteOffset = max(0, min(byteOffset, ix.size))
	if ix.ascii {
		return byteOffset
	}
	return ix.utf16[byteOffset]
}

// ByteOffset converts a UTF-16 offset back into a byte offset. Offsets
// outside the string are clamped.
func (ix *Index) ByteOffset(utf16Offset int) int {
	if ix.ascii {
		return max(0, min(utf16Offset, ix.size))
	}
	utf16Offset = max(0, min(utf16Offset, len(ix.bytes)-1))
	return ix.bytes[utf16Offset]
}

// Len returns the length of the indexed string in UTF-16 code units.
func (ix *Index) Len() int {
	return ix.Offset(ix.size)
}

// Span converts the byte range [start, end) into a UTF-16 span.
func (ix *Index) Span(start, end int) Span {
	return New(ix.Offset(start), ix.Offset(end))
}
