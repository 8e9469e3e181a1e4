package annotate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/regexlab/span"
)

func annotate(t *testing.T, pattern string, opts Options) []Token {
	t.Helper()
	res := Pattern(pattern, opts)
	require.Empty(t, res.Diagnostics, "pattern %q", pattern)
	return res.Tokens
}

func withClass(tokens []Token, class string) []Token {
	var out []Token
	for _, tok := range tokens {
		if len(tok.Classes) > 0 && tok.Classes[0] == class {
			out = append(out, tok)
		}
	}
	return out
}

func sp(start, end int) *span.Span {
	s := span.New(start, end)
	return &s
}

func TestPatternCardNumber(t *testing.T) {
	tokens := annotate(t, `(CREDIT|DEBIT)\s+(\d{1,2}/\d{1,2}/\d{4})`, Options{})

	alts := withClass(tokens, "alt")
	require.Len(t, alts, 1)
	assert.Equal(t, span.New(7, 8), alts[0].Location)
	require.NotNil(t, alts[0].Related)
	assert.Equal(t, span.New(1, 13), alts[0].Related.Location)

	delims := withClass(tokens, "group")
	require.Len(t, delims, 4)
	assert.Equal(t, span.New(0, 1), delims[0].Location)
	assert.Equal(t, span.New(13, 14), delims[1].Location)
	assert.Equal(t, span.New(17, 18), delims[2].Location)
	assert.Equal(t, span.New(39, 40), delims[3].Location)
	for _, d := range delims {
		assert.Equal(t, []string{"group", "group-0"}, d.Classes)
		assert.Equal(t, "group", d.Tooltip.Key)
	}
	assert.Equal(t, "1", delims[0].Tooltip.Substitution["{{group.num}}"])
	assert.Equal(t, "2", delims[2].Tooltip.Substitution["{{group.num}}"])

	quants := withClass(tokens, "quant")
	require.Len(t, quants, 4)
	wantQuants := []struct {
		loc     span.Span
		related span.Span
		text    string
	}{
		{span.New(16, 17), span.New(14, 17), "1 or more"},
		{span.New(20, 25), span.New(18, 25), "between 1 and 2"},
		{span.New(28, 33), span.New(26, 33), "between 1 and 2"},
		{span.New(36, 39), span.New(34, 39), "4"},
	}
	for i, w := range wantQuants {
		assert.Equal(t, w.loc, quants[i].Location)
		assert.Equal(t, w.related, quants[i].Related.Location)
		assert.Equal(t, w.text, quants[i].Tooltip.Substitution["{{getQuant()}}"])
	}

	// The \s+ quantifier relates to a span that starts at the whitespace atom.
	ws := withClass(tokens, "charclass")
	require.NotEmpty(t, ws)
	assert.Equal(t, span.New(14, 16), ws[0].Location)
	assert.Equal(t, "whitespace", ws[0].Tooltip.Key)
}

func TestPatternDiagnostics(t *testing.T) {
	res := Pattern("a(b", Options{})
	assert.Empty(t, res.Tokens)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, BehaviorError, res.Diagnostics[0].Behavior)
	assert.Equal(t, span.New(1, 2), res.Diagnostics[0].Location)
	assert.NotEmpty(t, res.Diagnostics[0].Message)

	// Diagnostic locations are UTF-16.
	res = Pattern("😀(b", Options{})
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, span.New(2, 3), res.Diagnostics[0].Location)
}

func TestAnnotateCharacterClass(t *testing.T) {
	tokens := annotate(t, "[^a-z]", Options{})

	whole := sp(0, 6)
	rangeSel := sp(2, 5)
	setnot := &Tooltip{Category: "charclasses", Key: "setnot", Substitution: map[string]string{}}
	rng := &Tooltip{Category: "charclasses", Key: "range", Substitution: map[string]string{
		"{{getChar(prev)}}": `"a"`,
		"{{getChar(next)}}": `"z"`,
		"{{code(prev)}}":    "U+61",
		"{{code(next)}}":    "U+7A",
	}}
	want := []Token{
		{Classes: []string{"set"}, Location: span.New(0, 2), Selection: whole, Tooltip: setnot},
		{Classes: []string{"group-set"}, Location: span.New(0, 6), Selection: whole, Tooltip: setnot},
		{Classes: []string{"char"}, Location: span.New(2, 3), Selection: rangeSel, Tooltip: rng},
		{Classes: []string{"set"}, Location: span.New(3, 4), Selection: rangeSel, Tooltip: rng},
		{Classes: []string{"char"}, Location: span.New(4, 5), Selection: rangeSel, Tooltip: rng},
		{Classes: []string{"set"}, Location: span.New(5, 6), Selection: whole, Tooltip: setnot},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

// charToken is the token of an unescaped, case-sensitive literal character
// at offset pos.
func charToken(r rune, name string, pos int) Token {
	return Token{
		Classes:   []string{"char"},
		Location:  span.New(pos, pos+1),
		Selection: sp(pos, pos+1),
		Tooltip: &Tooltip{Category: "misc", Key: "char", Substitution: map[string]string{
			"{{getChar()}}":        `"` + string(r) + `"`,
			"{{code}}":             fmt.Sprintf("U+%X", r),
			"{{getInsensitive()}}": "Case sensitive",
			"{{name}}":             name,
		}},
	}
}

func TestAnnotateGroupKinds(t *testing.T) {
	noSub := map[string]string{}
	tests := []struct {
		pattern string
		want    []Token
	}{
		{
			pattern: "(?<=a)b",
			want: func() []Token {
				tip := &Tooltip{Category: "lookaround", Key: "poslookbehind", Substitution: noSub}
				return []Token{
					{Classes: []string{"group-0"}, Location: span.New(0, 6)},
					{Classes: []string{"group", "group-0"}, Location: span.New(0, 4), Selection: sp(0, 6), Tooltip: tip},
					charToken('a', "LATIN SMALL LETTER A", 4),
					{Classes: []string{"group", "group-0"}, Location: span.New(5, 6), Selection: sp(0, 6), Tooltip: tip},
					charToken('b', "LATIN SMALL LETTER B", 6),
				}
			}(),
		},
		{
			pattern: "(?>a)",
			want: func() []Token {
				tip := &Tooltip{Category: "groups", Key: "atomic", Substitution: noSub}
				return []Token{
					{Classes: []string{"group-0"}, Location: span.New(0, 5)},
					{Classes: []string{"group", "group-0"}, Location: span.New(0, 3), Selection: sp(0, 5), Tooltip: tip},
					charToken('a', "LATIN SMALL LETTER A", 3),
					{Classes: []string{"group", "group-0"}, Location: span.New(4, 5), Selection: sp(0, 5), Tooltip: tip},
				}
			}(),
		},
		{
			pattern: "(?|a|b)",
			want: func() []Token {
				tip := &Tooltip{Category: "groups", Key: "branchreset", Substitution: noSub}
				return []Token{
					{Classes: []string{"group-0"}, Location: span.New(0, 7)},
					{Classes: []string{"group", "group-0"}, Location: span.New(0, 3), Selection: sp(0, 7), Tooltip: tip},
					charToken('a', "LATIN SMALL LETTER A", 3),
					{
						Classes:   []string{"alt"},
						Location:  span.New(4, 5),
						Selection: sp(4, 5),
						Related:   &Related{Location: span.New(3, 6)},
						Tooltip:   &Tooltip{Category: "quants", Key: "alt", Substitution: noSub},
					},
					charToken('b', "LATIN SMALL LETTER B", 5),
					{Classes: []string{"group", "group-0"}, Location: span.New(6, 7), Selection: sp(0, 7), Tooltip: tip},
				}
			}(),
		},
		{
			pattern: "(?~|ab|c)",
			want: func() []Token {
				tip := &Tooltip{Category: "groups", Key: "absentfunction", Substitution: noSub}
				return []Token{
					{Classes: []string{"group-0"}, Location: span.New(0, 9)},
					{Classes: []string{"group", "group-0"}, Location: span.New(0, 4), Selection: sp(0, 9), Tooltip: tip},
					charToken('a', "LATIN SMALL LETTER A", 4),
					charToken('b', "LATIN SMALL LETTER B", 5),
					{
						Classes:   []string{"alt"},
						Location:  span.New(6, 7),
						Selection: sp(6, 7),
						Related:   &Related{Location: span.New(0, 9)},
						Tooltip:   tip,
					},
					charToken('c', "LATIN SMALL LETTER C", 7),
					{Classes: []string{"group", "group-0"}, Location: span.New(8, 9), Selection: sp(0, 9), Tooltip: tip},
				}
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			tokens := annotate(t, tt.pattern, Options{})
			if diff := cmp.Diff(tt.want, tokens); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnnotateQuantifierModifiers(t *testing.T) {
	tokens := annotate(t, "a*?b{2,}+", Options{})
	classes := make([]string, len(tokens))
	for i, tok := range tokens {
		classes[i] = tok.Classes[0]
	}
	assert.Equal(t, []string{"char", "quant", "lazy", "char", "quant", "possessive"}, classes)

	assert.Equal(t, span.New(1, 2), tokens[2].Related.Location)
	assert.Equal(t, span.New(4, 8), tokens[5].Related.Location)
	assert.Equal(t, "2 or more", tokens[4].Tooltip.Substitution["{{getQuant()}}"])
}

func TestAnnotateGroupDepth(t *testing.T) {
	tokens := annotate(t, "((?:a)(?<n>b))", Options{})

	var got []string
	for _, tok := range withClass(tokens, "group") {
		got = append(got, tok.Classes[1]+" "+tok.Tooltip.Key)
	}
	assert.Equal(t, []string{
		"group-0 group",
		"group-1 noncapgroup",
		"group-1 noncapgroup",
		"group-1 namedgroup",
		"group-1 namedgroup",
		"group-0 group",
	}, got)

	named := withClass(tokens, "group")[3]
	assert.Equal(t, map[string]string{"{{group.num}}": "2", "{{group.name}}": "n"}, named.Tooltip.Substitution)

	// Content tokens carry no selection and span the whole group.
	content := withClass(tokens, "group-0")
	require.Len(t, content, 1)
	assert.Nil(t, content[0].Selection)
	assert.Equal(t, span.New(0, 14), content[0].Location)
}

func TestAnnotateConditional(t *testing.T) {
	tokens := annotate(t, "(a)?(?(1)b|c)", Options{})
	special := withClass(tokens, "special")
	require.Len(t, special, 3)

	assert.Equal(t, span.New(4, 9), special[0].Location)
	assert.Equal(t, "conditionalgroup", special[0].Tooltip.Key)
	assert.Equal(t, "1", special[0].Tooltip.Substitution["{{name}}"])
	assert.Equal(t, span.New(4, 13), special[0].SelectionSpan())

	assert.Equal(t, span.New(10, 11), special[1].Location)
	assert.Equal(t, "conditionalelse", special[1].Tooltip.Key)
	assert.Equal(t, span.New(4, 13), special[1].Related.Location)

	assert.Equal(t, span.New(12, 13), special[2].Location)
	assert.Equal(t, "conditional", special[2].Tooltip.Key)
}

func TestAnnotateLookaroundConditional(t *testing.T) {
	tokens := annotate(t, "(?(?=a)ab|cd)", Options{})
	special := withClass(tokens, "special")
	require.Len(t, special, 5)

	keys := make([]string, len(special))
	for i, tok := range special {
		keys[i] = tok.Location.String() + " " + tok.Tooltip.Key
	}
	assert.Equal(t, []string{
		"0-2 conditional",
		"2-5 condition",
		"6-7 condition",
		"9-10 conditionalelse",
		"12-13 conditional",
	}, keys)
}

func TestAnnotateAtoms(t *testing.T) {
	tests := []struct {
		pattern  string
		class    string
		category string
		key      string
	}{
		{"a", "char", "misc", "char"},
		{`\.`, "esc", "misc", "escchar"},
		{`\n`, "esc", "misc", "escchar"},
		{`\d`, "charclass", "charclasses", "digit"},
		{`\W`, "charclass", "charclasses", "notword"},
		{`\X`, "charclass", "charclasses", "graphemecluster"},
		{`\b`, "anchor", "anchors", "wordboundary"},
		{`\A`, "anchor", "anchors", "bos"},
		{`\K`, "charclass", "lookaround", "keepout"},
		{"^", "anchor", "anchors", "bof"},
		{"$", "anchor", "anchors", "eof"},
		{".", "charclass", "charclasses", "dot"},
		{`\p{Lu}`, "charclass", "charclasses", "unicodecat"},
		{`\p{Greek}`, "charclass", "charclasses", "script"},
		{`\x{41}`, "char", "misc", "char"},
		{"(?i)", "special", "other", "mode"},
		{"(?R)", "special", "other", "recursion"},
		{"(*FAIL)", "charclass", "charclass", "fail"},
		{"(?C1)", "charclass", "charclasses", "callout"},
		{`\Qa.b\E`, "esc", "escchars", "escsequence"},
		{"(?#note)", "comment", "other", "comment"},
		{"<{x}>", "interpolation", "other", "interpolation"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			tokens := annotate(t, tt.pattern, Options{})
			require.Len(t, tokens, 1)
			tok := tokens[0]
			assert.Equal(t, tt.class, tok.Classes[0])
			require.NotNil(t, tok.Tooltip)
			assert.Equal(t, tt.category, tok.Tooltip.Category)
			assert.Equal(t, tt.key, tok.Tooltip.Key)
			assert.Equal(t, span.New(0, len(tt.pattern)), tok.Location)
		})
	}
}

func TestAnnotateCharSubstitution(t *testing.T) {
	tokens := annotate(t, "A", Options{})
	require.Len(t, tokens, 1)
	assert.Equal(t, map[string]string{
		"{{getChar()}}":        `"A"`,
		"{{code}}":             "U+41",
		"{{getInsensitive()}}": "Case sensitive",
		"{{name}}":             "LATIN CAPITAL LETTER A",
	}, tokens[0].Tooltip.Substitution)

	tokens = annotate(t, "A", OptionsFromFlags([]string{"i"}))
	assert.Equal(t, "Case insensitive", tokens[0].Tooltip.Substitution["{{getInsensitive()}}"])

	tokens = annotate(t, `\t`, Options{})
	assert.Equal(t, "TAB", tokens[0].Tooltip.Substitution["{{getChar}}"])
}

func TestAnnotateUTF16Offsets(t *testing.T) {
	tokens := annotate(t, "😀a|é", Options{})
	require.Len(t, tokens, 4)
	assert.Equal(t, span.New(0, 2), tokens[0].Location)
	assert.Equal(t, span.New(2, 3), tokens[1].Location)
	assert.Equal(t, span.New(3, 4), tokens[2].Location)
	assert.Equal(t, span.New(0, 5), tokens[2].Related.Location)
	assert.Equal(t, span.New(4, 5), tokens[3].Location)
}

func TestAnnotateAlternationPipes(t *testing.T) {
	tokens := annotate(t, "a|b|c", Options{})
	var got []string
	for _, tok := range tokens {
		got = append(got, tok.Classes[0]+"@"+tok.Location.String())
	}
	assert.Equal(t, []string{"char@0-1", "alt@1-2", "char@2-3", "alt@3-4", "char@4-5"}, got)
}

func TestAnnotateEmpty(t *testing.T) {
	tokens := annotate(t, "", Options{})
	require.Len(t, tokens, 1)
	assert.Equal(t, "empty", tokens[0].Classes[0])
	assert.Equal(t, span.Point(0), tokens[0].Location)
}

func TestAnnotateSetOperation(t *testing.T) {
	tokens := annotate(t, `[\w&&[^\d]]`, Options{})
	ops := 0
	for _, tok := range tokens {
		if tok.Tooltip != nil && tok.Tooltip.Key == "setoperation" {
			ops++
			assert.Equal(t, span.New(3, 5), tok.Location)
			assert.Equal(t, "&&", tok.Tooltip.Substitution["{{value}}"])
		}
	}
	assert.Equal(t, 1, ops)
	assert.Len(t, withClass(tokens, "group-set"), 2)
}

// Properties that hold for every pattern: tokens are ordered by start
// offset, lie within the pattern, and delimiters come in pairs.
func TestAnnotateInvariants(t *testing.T) {
	patterns := []string{
		`(CREDIT|DEBIT)\s+(\d{1,2}/\d{1,2}/\d{4})`,
		`^(?<user>[\w.+-]+)@(?<host>[\w-]+\.[a-z]{2,})$`,
		`(?i)(?:ab|cd)*?(?=x)(?<!y)[[:alpha:]&&[^q]]`,
		`(a)?(?(1)b|c)(?(?!z)d|e)`,
		`\Qa|b\E(?#c)\p{L}+\P{N}?\k<1>`,
		`(?~abc)(?~|a|b)(?>x++)`,
		`(?x) a b # comment`,
		`é(😀|ü){3}`,
		`a||b`,
	}
	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			tokens := annotate(t, pattern, Options{})
			n := span.NewIndex(pattern).Len()

			opens := map[string]int{}
			prev := 0
			for i, tok := range tokens {
				assert.GreaterOrEqual(t, tok.Location.Start, prev, "token %d %v out of order", i, tok)
				prev = tok.Location.Start
				assert.LessOrEqual(t, tok.Location.End, n)
				assert.NotEmpty(t, tok.Classes)
				if tok.Classes[0] == "group" {
					opens[tok.SelectionSpan().String()]++
				}
				if strings.HasPrefix(tok.Classes[0], "group-") && tok.Classes[0] != "group-set" {
					assert.Nil(t, tok.Selection)
				}
			}
			for sel, count := range opens {
				assert.Zero(t, count%2, "unpaired delimiters for %s", sel)
			}
		})
	}
}
