package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/regexlab/syntax"
)

func compile(t *testing.T, pattern string, opts Options) *Program {
	t.Helper()
	ast, err := syntax.Parse(pattern, syntax.ParseOptions{Initial: opts.Flags})
	require.NoError(t, err, "parse %q", pattern)
	prog, err := Compile(ast, opts)
	require.NoError(t, err, "compile %q", pattern)
	return prog
}

func TestCompileListings(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{
			pattern: "a(b|c)",
			want: []string{
				"char 'a'",
				"captureStart 1",
				"save 5",
				"char 'b'",
				"branch 6",
				"char 'c'",
				"captureEnd 1",
				"accept",
			},
		},
		{
			pattern: ".*b",
			want: []string{
				"save 3",
				"anyNonNewline",
				"branch 0",
				"char 'b'",
				"accept",
			},
		},
		{
			pattern: "a*?",
			want: []string{
				"save 2",
				"branch 4",
				"char 'a'",
				"branch 0",
				"accept",
			},
		},
		{
			pattern: "a+",
			want: []string{
				"char 'a'",
				"save 3",
				"branch 0",
				"accept",
			},
		},
		{
			pattern: "a+?",
			want: []string{
				"char 'a'",
				"save 0",
				"accept",
			},
		},
		{
			pattern: "a??",
			want: []string{
				"save 2",
				"branch 3",
				"char 'a'",
				"accept",
			},
		},
		{
			pattern: "a{1,2}",
			want: []string{
				"char 'a'",
				"save 3",
				"char 'a'",
				"accept",
			},
		},
		{
			pattern: "a*+",
			want: []string{
				"fence",
				"save 4",
				"char 'a'",
				"branch 1",
				"cut",
				"accept",
			},
		},
		{
			pattern: "(?=a)",
			want: []string{
				"fence",
				"char 'a'",
				"cutRestore",
				"accept",
			},
		},
		{
			pattern: "(?!a)",
			want: []string{
				"saveFence 3",
				"char 'a'",
				"cutFail",
				"accept",
			},
		},
		{
			pattern: "(?<=ab)",
			want: []string{
				"fence",
				"char 'b' reverse",
				"char 'a' reverse",
				"cutRestore",
				"accept",
			},
		},
		{
			pattern: "(a)(?(1)b|c)",
			want: []string{
				"captureStart 1",
				"char 'a'",
				"captureEnd 1",
				"condCapture 1 6",
				"char 'b'",
				"branch 7",
				"char 'c'",
				"accept",
			},
		},
		{
			pattern: "(?:)*",
			want: []string{
				"save 4",
				"setRegister 0",
				"checkProgress 0 4",
				"branch 0",
				"accept",
			},
		},
		{
			pattern: `\d`,
			want: []string{
				`set \d`,
				"accept",
			},
		},
		{
			pattern: "(?i)a1",
			want: []string{
				"char 'a' (i)",
				"char '1'",
				"accept",
			},
		},
		{
			pattern: "^a$",
			want: []string{
				"assert startOfSubject",
				"char 'a'",
				"assert endOfSubjectBeforeNewline",
				"accept",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := compile(t, tt.pattern, DefaultOptions())
			assert.Equal(t, tt.want, prog.Instructions())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		pattern string
		kind    error
	}{
		{"(?1)(a)", ErrUnsupported},
		{"(?R)", ErrUnsupported},
		{"a(?C1)", ErrUnsupported},
		{"(?~abc)", ErrUnsupported},
		{"<{x}>", ErrUnsupported},
		{"a(*COMMIT)", ErrUnsupported},
		{"(*sr:a)", ErrUnsupported},
		{"(?*a)", ErrUnsupported},
		{"(?(R)a)", ErrUnsupported},
		{"(?(VERSION>=10)a)", ErrUnsupported},
		{`\p{Nope}`, ErrUnsupported},
		{"(?(2)a)", ErrInvalidReference},
		{"(a)\\k<b>", ErrInvalidReference},
		{"a{1001}", ErrTooComplex},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			ast, err := syntax.Parse(tt.pattern, syntax.ParseOptions{})
			require.NoError(t, err)
			_, err = Compile(ast, DefaultOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.LessOrEqual(t, ce.Location.End, len(tt.pattern))
		})
	}
}

func TestCompileMaxInstructions(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxInstructions = 10
	ast, err := syntax.Parse("a{20}", syntax.ParseOptions{})
	require.NoError(t, err)
	_, err = Compile(ast, opts)
	assert.ErrorIs(t, err, ErrTooComplex)
}

func TestCompileDefineIsSkipped(t *testing.T) {
	prog := compile(t, "(?(DEFINE)(?<d>x))a", DefaultOptions())
	assert.Equal(t, []string{"char 'a'", "accept"}, prog.Instructions())
	assert.Equal(t, 1, prog.CaptureCount())
	assert.Equal(t, []string{"", "d"}, prog.CaptureNames())
}

func TestProgramAnchoredStart(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"^abc", true},
		{`\Aabc`, true},
		{`\Gabc`, true},
		{"^a|^b", true},
		{"(^a)", true},
		{"abc", false},
		{"^a|b", false},
		{"(?m)^a", false},
		{"a*^", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := compile(t, tt.pattern, DefaultOptions())
			assert.Equal(t, tt.want, prog.CanOnlyMatchAtStart())
		})
	}
}

func TestBuilderPatchErrors(t *testing.T) {
	b := NewBuilder()
	id := b.AddChar('a', false, false)

	err := b.Patch(id, 0)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, id, be.InstID)

	err = b.Patch(99, 0)
	require.ErrorAs(t, err, &be)

	b.AddBranch(InvalidInst)
	_, err = b.Build()
	assert.Error(t, err)

	_, err = NewBuilder().Build()
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]string{"i", "g", "asciiOnlyDigits", "unicodeScalarSemantics"})
	require.NoError(t, err)
	assert.True(t, opts.Flags.Has(syntax.OptCaseInsensitive))
	assert.True(t, opts.Flags.Has(syntax.OptASCIIOnlyDigit))
	assert.Equal(t, UnicodeScalarSemantics, opts.Semantics)

	opts, err = ParseOptions([]string{"asciiOnlyCharacterClasses"})
	require.NoError(t, err)
	assert.True(t, opts.Flags.Has(syntax.OptASCIIOnlyWord))
	assert.True(t, opts.Flags.Has(syntax.OptASCIIOnlyPOSIXProps))
	assert.Equal(t, GraphemeClusterSemantics, opts.Semantics)

	_, err = ParseOptions([]string{"bogus"})
	assert.ErrorIs(t, err, ErrInvalidOption)
}
