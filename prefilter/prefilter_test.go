package prefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/regexlab/literal"
)

func seq(complete bool, lits ...string) *literal.Seq {
	out := make([]literal.Literal, 0, len(lits))
	for _, l := range lits {
		out = append(out, literal.NewLiteral([]byte(l), complete))
	}
	return literal.NewSeq(out...)
}

func TestBuildSelectsStrategy(t *testing.T) {
	tests := []struct {
		name string
		seq  *literal.Seq
		want any
	}{
		{"single byte", seq(true, "a"), &memchrPrefilter{}},
		{"single literal", seq(true, "hello"), &memmemPrefilter{}},
		{"covered literal", seq(true, "foo", "foobar"), &memmemPrefilter{}},
		{"common prefix", seq(true, "hello", "help"), &memmemPrefilter{}},
		{"several literals", seq(true, "foo", "bar"), &ahoCorasickPrefilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			require.NotNil(t, pf)
			assert.IsType(t, tt.want, pf)
		})
	}
}

func TestBuildNil(t *testing.T) {
	assert.Nil(t, NewBuilder(nil).Build())
	assert.Nil(t, NewBuilder(literal.NewSeq()).Build())
	assert.Nil(t, NewBuilder(seq(true, "a", "")).Build())
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	s := seq(true, "foobar", "foo")
	NewBuilder(s).Build()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "foobar", string(s.Get(0).Bytes))
}

func TestFind(t *testing.T) {
	haystack := []byte("foo hello bar world baz")
	tests := []struct {
		name  string
		seq   *literal.Seq
		start int
		want  int
	}{
		{"memchr", seq(true, "b"), 0, 10},
		{"memchr from start", seq(true, "b"), 11, 20},
		{"memchr past end", seq(true, "b"), 99, -1},
		{"memmem", seq(true, "world"), 0, 14},
		{"memmem none", seq(true, "world"), 15, -1},
		{"memmem needle longer than rest", seq(true, "baz!"), 20, -1},
		{"aho-corasick", seq(true, "world", "hello"), 0, 4},
		{"aho-corasick from start", seq(true, "world", "hello"), 5, 14},
		{"aho-corasick none", seq(true, "xyz", "qqq"), 0, -1},
		{"aho-corasick past end", seq(true, "xyz", "qqq"), 30, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			require.NotNil(t, pf)
			assert.Equal(t, tt.want, pf.Find(haystack, tt.start))
		})
	}
}

func TestHeapBytes(t *testing.T) {
	assert.Equal(t, 0, NewBuilder(seq(true, "a")).Build().HeapBytes())
	assert.Equal(t, 5, NewBuilder(seq(true, "hello")).Build().HeapBytes())
	assert.Equal(t, 5, NewBuilder(seq(true, "ab", "cde")).Build().HeapBytes())
}

func TestName(t *testing.T) {
	assert.Equal(t, "none", Name(nil))
	assert.Equal(t, "memchr", Name(NewBuilder(seq(true, "a")).Build()))
	assert.Equal(t, "memmem", Name(NewBuilder(seq(true, "ab")).Build()))
	assert.Equal(t, "aho-corasick", Name(NewBuilder(seq(true, "ab", "cd")).Build()))
	assert.Equal(t, "custom", Name(every(1)))
}
