package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, pattern string) *AST {
	t.Helper()
	ast, err := Parse(pattern, ParseOptions{})
	require.NoError(t, err, "pattern %q", pattern)
	return ast
}

func TestParseCardPattern(t *testing.T) {
	ast := parse(t, `(CREDIT|DEBIT)\s+(\d{1,2}/\d{1,2}/\d{4})`)
	assert.Equal(t, 2, ast.CaptureCount)

	root, ok := ast.Root.(*Concatenation)
	require.True(t, ok)
	require.Len(t, root.Children, 3)

	g1 := root.Children[0].(*Group)
	assert.Equal(t, GroupCapture, g1.Kind.Type)
	assert.Equal(t, 1, g1.Number)
	assert.Equal(t, Loc{0, 14}, g1.Location)
	assert.Equal(t, Loc{0, 1}, g1.KindLoc)

	alt := g1.Child.(*Alternation)
	assert.Equal(t, Loc{1, 13}, alt.Location)
	assert.Equal(t, []Loc{{7, 8}}, alt.Pipes)

	q := root.Children[1].(*Quantification)
	assert.Equal(t, OneOrMore, q.Amount.Type)
	assert.Equal(t, Loc{14, 17}, q.Location)
	assert.Equal(t, Loc{16, 17}, q.AmountLoc)
	assert.Equal(t, Loc{17, 17}, q.KindLoc)
	assert.Equal(t, EscWhitespace, q.Child.(*Atom).Escaped)

	g2 := root.Children[2].(*Group)
	assert.Equal(t, 2, g2.Number)
	assert.Equal(t, len(ast.Pattern), g2.Location.End)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		pattern string
		kind    error
		loc     Loc
	}{
		{"a(b", ErrUnbalanced, Loc{1, 2}},
		{"a(?:b", ErrUnbalanced, Loc{1, 4}},
		{"a)", ErrUnbalanced, Loc{1, 2}},
		{"*a", ErrQuantifier, Loc{0, 1}},
		{"a|+", ErrQuantifier, Loc{2, 3}},
		{"a**", ErrQuantifier, Loc{2, 3}},
		{"{2}", ErrQuantifier, Loc{0, 3}},
		{"a{3,2}", ErrQuantifier, Loc{1, 6}},
		{"[abc", ErrUnbalanced, Loc{0, 1}},
		{"[^abc", ErrUnbalanced, Loc{0, 2}},
		{"[z-a]", ErrClass, Loc{1, 4}},
		{`\q`, ErrEscape, Loc{0, 2}},
		{`ab\`, ErrEscape, Loc{2, 3}},
		{`\x{110000}`, ErrEscape, Loc{0, 10}},
		{`\N{NOT A REAL CHARACTER}`, ErrEscape, Loc{0, 24}},
		{"(?Z)", ErrGroup, Loc{0, 3}},
		{"(*FOO)", ErrGroup, Loc{0, 6}},
		{"(?<a>x)(?<a>y)", ErrGroup, Loc{7, 12}},
		{"(?(1)a|b|c)", ErrGroup, Loc{8, 9}},
		{"(?#unterminated", ErrUnbalanced, Loc{0, 3}},
		{"<{x", ErrUnbalanced, Loc{0, 2}},
		{`\g{-1}`, ErrGroup, Loc{3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Parse(tt.pattern, ParseOptions{})
			require.Error(t, err)
			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.loc, perr.Location)
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	_, err := Parse("((a))", ParseOptions{MaxDepth: 1})
	require.ErrorIs(t, err, ErrTooDeep)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Loc{1, 2}, perr.Location)
}

func TestParseGroupKinds(t *testing.T) {
	tests := []struct {
		pattern string
		typ     GroupType
		kindLoc Loc
		name    string
	}{
		{"(a)", GroupCapture, Loc{0, 1}, ""},
		{"(?:a)", GroupNonCapture, Loc{0, 3}, ""},
		{"(?|a)", GroupBranchReset, Loc{0, 3}, ""},
		{"(?>a)", GroupAtomic, Loc{0, 3}, ""},
		{"(?=a)", GroupLookahead, Loc{0, 3}, ""},
		{"(?!a)", GroupNegativeLookahead, Loc{0, 3}, ""},
		{"(?*a)", GroupNonAtomicLookahead, Loc{0, 3}, ""},
		{"(?<=a)", GroupLookbehind, Loc{0, 4}, ""},
		{"(?<!a)", GroupNegativeLookbehind, Loc{0, 4}, ""},
		{"(?<*a)", GroupNonAtomicLookbehind, Loc{0, 4}, ""},
		{"(?<year>a)", GroupNamedCapture, Loc{0, 8}, "year"},
		{"(?'year'a)", GroupNamedCapture, Loc{0, 8}, "year"},
		{"(?P<year>a)", GroupNamedCapture, Loc{0, 9}, "year"},
		{"(?<a-b>x)", GroupBalancedCapture, Loc{0, 7}, "a"},
		{"(?i:a)", GroupChangeOptions, Loc{0, 4}, ""},
		{"(*pla:a)", GroupLookahead, Loc{0, 6}, ""},
		{"(*negative_lookbehind:a)", GroupNegativeLookbehind, Loc{0, 22}, ""},
		{"(*sr:a)", GroupScriptRun, Loc{0, 5}, ""},
		{"(*asr:a)", GroupAtomicScriptRun, Loc{0, 6}, ""},
		{"(*atomic:a)", GroupAtomic, Loc{0, 9}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			ast := parse(t, tt.pattern)
			g, ok := ast.Root.(*Group)
			require.True(t, ok, "root is %T", ast.Root)
			assert.Equal(t, tt.typ, g.Kind.Type)
			assert.Equal(t, tt.kindLoc, g.KindLoc)
			assert.Equal(t, tt.name, g.Kind.Name)
			assert.Equal(t, Loc{0, len(tt.pattern)}, g.Location)
		})
	}
}

func TestParseNamedCaptures(t *testing.T) {
	ast := parse(t, `(?<y>\d{4})-(\d\d)-(?P<d>\d\d)`)
	assert.Equal(t, 3, ast.CaptureCount)
	assert.Equal(t, []string{"", "y", "", "d"}, ast.CaptureNames)
}

func TestParseNamedCapturesOnly(t *testing.T) {
	ast, err := Parse("(a)(?<b>c)", ParseOptions{Initial: OptionsFromFlags("n")})
	require.NoError(t, err)
	assert.Equal(t, 1, ast.CaptureCount)
	root := ast.Root.(*Concatenation)
	assert.Equal(t, GroupNonCapture, root.Children[0].(*Group).Kind.Type)
	assert.Equal(t, 1, root.Children[1].(*Group).Number)
}

func TestParseBranchReset(t *testing.T) {
	ast := parse(t, "(?|(a)|(b)(c))(d)")
	assert.Equal(t, 3, ast.CaptureCount)
	root := ast.Root.(*Concatenation)
	last := root.Children[1].(*Group)
	assert.Equal(t, 3, last.Number)

	br := root.Children[0].(*Group)
	alt := br.Child.(*Alternation)
	assert.Equal(t, 1, alt.Children[0].(*Group).Number)
	second := alt.Children[1].(*Concatenation)
	assert.Equal(t, 1, second.Children[0].(*Group).Number)
	assert.Equal(t, 2, second.Children[1].(*Group).Number)
}

func TestParseQuantifiers(t *testing.T) {
	tests := []struct {
		pattern   string
		amount    AmountType
		kind      QuantKind
		amountLoc Loc
		kindLoc   Loc
		lo, hi    int
	}{
		{"a*", ZeroOrMore, Eager, Loc{1, 2}, Loc{2, 2}, 0, -1},
		{"a+?", OneOrMore, Reluctant, Loc{1, 2}, Loc{2, 3}, 1, -1},
		{"a?+", ZeroOrOne, Possessive, Loc{1, 2}, Loc{2, 3}, 0, 1},
		{"a{3}", Exactly, Eager, Loc{1, 4}, Loc{4, 4}, 3, 3},
		{"a{3,}", NOrMore, Eager, Loc{1, 5}, Loc{5, 5}, 3, -1},
		{"a{,3}", UpToN, Eager, Loc{1, 5}, Loc{5, 5}, 0, 3},
		{"a{2,5}?", Range, Reluctant, Loc{1, 6}, Loc{6, 7}, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			q, ok := parse(t, tt.pattern).Root.(*Quantification)
			require.True(t, ok)
			assert.Equal(t, tt.amount, q.Amount.Type)
			assert.Equal(t, tt.kind, q.Kind)
			assert.Equal(t, tt.amountLoc, q.AmountLoc)
			assert.Equal(t, tt.kindLoc, q.KindLoc)
			lo, hi := q.Amount.Bounds()
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
			assert.Equal(t, Loc{0, len(tt.pattern)}, q.Location)
		})
	}
}

func TestParseBraceLiteral(t *testing.T) {
	root, ok := parse(t, "a{x}").Root.(*Concatenation)
	require.True(t, ok)
	require.Len(t, root.Children, 4)
	assert.Equal(t, '{', root.Children[1].(*Atom).Char)
}

func TestParseAlternationPipes(t *testing.T) {
	alt, ok := parse(t, "a|b|").Root.(*Alternation)
	require.True(t, ok)
	require.Len(t, alt.Children, 3)
	assert.Equal(t, []Loc{{1, 2}, {3, 4}}, alt.Pipes)
	assert.Equal(t, &Empty{Location: Loc{4, 4}}, alt.Children[2])
}

func TestParseEmptyPattern(t *testing.T) {
	assert.Equal(t, &Empty{Location: Loc{0, 0}}, parse(t, "").Root)
}

func TestParseEscapes(t *testing.T) {
	tests := []struct {
		pattern string
		check   func(t *testing.T, a *Atom)
	}{
		{`\d`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomEscaped, a.Kind)
			assert.Equal(t, EscDecimalDigit, a.Escaped)
		}},
		{`\n`, func(t *testing.T, a *Atom) {
			r, ok := a.Literal()
			assert.True(t, ok)
			assert.Equal(t, '\n', r)
		}},
		{`\x41`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomScalar, a.Kind)
			assert.Equal(t, []rune{'A'}, a.Scalars)
		}},
		{`\x{1F600}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, []rune{0x1F600}, a.Scalars)
		}},
		{`é`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomChar, a.Kind)
			assert.Equal(t, 'é', a.Char)
		}},
		{`\u{61 62}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomScalarSequence, a.Kind)
			assert.Equal(t, []rune{'a', 'b'}, a.Scalars)
		}},
		{`\o{101}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, []rune{'A'}, a.Scalars)
		}},
		{`\012`, func(t *testing.T, a *Atom) {
			assert.Equal(t, []rune{'\n'}, a.Scalars)
		}},
		{`\N{LATIN SMALL LETTER A}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomNamedCharacter, a.Kind)
			assert.Equal(t, 'a', a.Char)
		}},
		{`\N{U+263A}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, rune(0x263A), a.Char)
		}},
		{`\cA`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomKeyboardControl, a.Kind)
			assert.Equal(t, rune(1), a.Char)
		}},
		{`\C-b`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomKeyboardControl, a.Kind)
			assert.Equal(t, rune(2), a.Char)
		}},
		{`\M-a`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomKeyboardMeta, a.Kind)
			assert.Equal(t, rune('a'|0x80), a.Char)
		}},
		{`\M-\C-a`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomKeyboardMetaControl, a.Kind)
			assert.Equal(t, rune(0x81), a.Char)
		}},
		{`\C`, func(t *testing.T, a *Atom) {
			assert.Equal(t, EscSingleDataUnit, a.Escaped)
		}},
		{`\.`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomChar, a.Kind)
			assert.Equal(t, '.', a.Char)
		}},
		{`\p{Lu}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomProperty, a.Kind)
			assert.Equal(t, PropGeneralCategory, a.Property.Kind)
			assert.Equal(t, "Lu", a.Property.Name)
		}},
		{`\pL`, func(t *testing.T, a *Atom) {
			assert.Equal(t, "L", a.Property.Name)
		}},
		{`\P{Greek}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, PropScript, a.Property.Kind)
			assert.True(t, a.Property.Inverted)
		}},
		{`\p{scx=Latin}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, PropScriptExtension, a.Property.Kind)
			assert.Equal(t, "Latin", a.Property.Name)
		}},
		{`\p{White_Space}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, PropBinary, a.Property.Kind)
			assert.Equal(t, "White_Space", a.Property.Name)
		}},
		{`\p{Any}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, PropAny, a.Property.Kind)
		}},
		{`\p{NotAProperty}`, func(t *testing.T, a *Atom) {
			assert.Equal(t, AtomInvalid, a.Kind)
			assert.Equal(t, PropInvalid, a.Property.Kind)
		}},
		{`\b`, func(t *testing.T, a *Atom) {
			assert.Equal(t, EscWordBoundary, a.Escaped)
			assert.True(t, a.Escaped.IsAssertion())
		}},
		{`\K`, func(t *testing.T, a *Atom) {
			assert.Equal(t, EscResetStartOfMatch, a.Escaped)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			a, ok := parse(t, tt.pattern).Root.(*Atom)
			require.True(t, ok)
			assert.Equal(t, Loc{0, len(tt.pattern)}, a.Location)
			tt.check(t, a)
		})
	}
}

func TestParseReferences(t *testing.T) {
	tests := []struct {
		pattern  string
		kind     AtomKind
		refKind  RefKind
		resolved int
		name     string
	}{
		{`(a)\1`, AtomBackreference, RefAbsolute, 1, ""},
		{`(a)\g1`, AtomBackreference, RefAbsolute, 1, ""},
		{`(a)\g{-1}`, AtomBackreference, RefRelative, 1, ""},
		{`(a)(b)\g-2`, AtomBackreference, RefRelative, 1, ""},
		{`(?<n>a)\k<n>`, AtomBackreference, RefNamed, 0, "n"},
		{`(?<n>a)\k'n'`, AtomBackreference, RefNamed, 0, "n"},
		{`(?<n>a)\k{n}`, AtomBackreference, RefNamed, 0, "n"},
		{`(?P<n>a)(?P=n)`, AtomBackreference, RefNamed, 0, "n"},
		{`(a)(?1)`, AtomSubpattern, RefAbsolute, 1, ""},
		{`(a)(?-1)`, AtomSubpattern, RefRelative, 1, ""},
		{`(?<n>a)(?&n)`, AtomSubpattern, RefNamed, 0, "n"},
		{`(?<n>a)(?P>n)`, AtomSubpattern, RefNamed, 0, "n"},
		{`(a)\g<1>`, AtomSubpattern, RefAbsolute, 1, ""},
		{`a(?R)`, AtomSubpattern, RefAbsolute, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			root := parse(t, tt.pattern).Root.(*Concatenation)
			a := root.Children[len(root.Children)-1].(*Atom)
			assert.Equal(t, tt.kind, a.Kind)
			require.NotNil(t, a.Ref)
			assert.Equal(t, tt.refKind, a.Ref.Kind)
			assert.Equal(t, tt.resolved, a.Ref.Resolved)
			assert.Equal(t, tt.name, a.Ref.Name)
			assert.Equal(t, len(tt.pattern), a.Location.End)
		})
	}
}

func TestParseRecursesWholePattern(t *testing.T) {
	root := parse(t, "a(?R)?b").Root.(*Concatenation)
	q := root.Children[1].(*Quantification)
	a := q.Child.(*Atom)
	assert.True(t, a.Ref.RecursesWholePattern())
	assert.Equal(t, Loc{1, 5}, a.Location)
}

func TestParseCustomClass(t *testing.T) {
	cc, ok := parse(t, "[a-z&&[^aeiou]]").Root.(*CustomCharacterClass)
	require.True(t, ok)
	assert.Equal(t, ClassNormal, cc.Start)
	assert.Equal(t, Loc{0, 1}, cc.StartLoc)
	assert.Equal(t, Loc{0, 15}, cc.Location)
	require.Len(t, cc.Members, 1)

	op := cc.Members[0].(*SetOperation)
	assert.Equal(t, SetIntersection, op.Op)
	assert.Equal(t, Loc{4, 6}, op.OpLoc)
	assert.Equal(t, Loc{1, 14}, op.Location)

	rng := op.LHS[0].(*ClassRange)
	assert.Equal(t, Loc{2, 3}, rng.DashLoc)
	assert.Equal(t, 'a', rng.LHS.Char)
	assert.Equal(t, 'z', rng.RHS.Char)

	inner := op.RHS[0].(*CustomCharacterClass)
	assert.Equal(t, ClassInverted, inner.Start)
	assert.Equal(t, Loc{6, 8}, inner.StartLoc)
	assert.Len(t, inner.Members, 5)
}

func TestParseCustomClassMembers(t *testing.T) {
	cc := parse(t, `[]a\d-[:alpha:][:^digit:]\Q-]\E\x41-\x43-]`).Root.(*CustomCharacterClass)
	require.Len(t, cc.Members, 9)

	assert.Equal(t, ']', cc.Members[0].(*Atom).Char)
	assert.Equal(t, 'a', cc.Members[1].(*Atom).Char)
	assert.Equal(t, EscDecimalDigit, cc.Members[2].(*Atom).Escaped)
	assert.Equal(t, '-', cc.Members[3].(*Atom).Char)

	alpha := cc.Members[4].(*Atom)
	assert.Equal(t, PropPOSIX, alpha.Property.Kind)
	assert.Equal(t, "alpha", alpha.Property.Name)
	assert.False(t, alpha.Property.Inverted)
	assert.True(t, cc.Members[5].(*Atom).Property.Inverted)

	assert.Equal(t, "-]", cc.Members[6].(*Quote).Literal)

	rng := cc.Members[7].(*ClassRange)
	assert.Equal(t, AtomScalar, rng.LHS.Kind)
	assert.Equal(t, AtomScalar, rng.RHS.Kind)
	assert.Equal(t, '-', cc.Members[8].(*Atom).Char)
}

func TestParseBackspaceInClass(t *testing.T) {
	cc := parse(t, `[\b]`).Root.(*CustomCharacterClass)
	assert.Equal(t, EscBackspace, cc.Members[0].(*Atom).Escaped)
}

func TestParseConditionals(t *testing.T) {
	tests := []struct {
		pattern string
		kind    ConditionKind
		condLoc Loc
	}{
		{"(?(1)a|b)", CondGroupMatched, Loc{3, 4}},
		{"(?(<n>)a|b)", CondGroupMatched, Loc{3, 6}},
		{"(?('n')a|b)", CondGroupMatched, Loc{3, 6}},
		{"(?(n)a|b)", CondGroupMatched, Loc{3, 4}},
		{"(?(R)a|b)", CondRecursionCheck, Loc{3, 4}},
		{"(?(R2)a|b)", CondGroupRecursionCheck, Loc{3, 5}},
		{"(?(R&n)a|b)", CondGroupRecursionCheck, Loc{3, 6}},
		{"(?(DEFINE)a)", CondDefine, Loc{3, 9}},
		{"(?(VERSION>=10.3)a|b)", CondVersionCheck, Loc{3, 16}},
		{"(?(?=x)a|b)", CondGroup, Loc{2, 7}},
		{"(?(?<!x)a|b)", CondGroup, Loc{2, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			c, ok := parse(t, tt.pattern).Root.(*Conditional)
			require.True(t, ok)
			assert.Equal(t, tt.kind, c.Condition.Kind)
			assert.Equal(t, tt.condLoc, c.Condition.Location)
			assert.Equal(t, Loc{0, len(tt.pattern)}, c.Location)
		})
	}
}

func TestParseConditionalBranches(t *testing.T) {
	c := parse(t, "(?(1)a|b)").Root.(*Conditional)
	require.NotNil(t, c.Pipe)
	assert.Equal(t, Loc{6, 7}, *c.Pipe)
	assert.Equal(t, 'a', c.TrueBranch.(*Atom).Char)
	assert.Equal(t, 'b', c.FalseBranch.(*Atom).Char)
	assert.Equal(t, 1, c.Condition.Ref.Number)

	noElse := parse(t, "(?(1)a)").Root.(*Conditional)
	assert.Nil(t, noElse.Pipe)
	assert.Equal(t, &Empty{Location: Loc{6, 6}}, noElse.FalseBranch)
}

func TestParseAbsentFunctions(t *testing.T) {
	tests := []struct {
		pattern string
		kind    AbsentKind
		start   Loc
	}{
		{"(?~abc)", AbsentRepeater, Loc{0, 3}},
		{`(?~|abc|\d+)`, AbsentExpression, Loc{0, 4}},
		{"(?~|abc)", AbsentStopper, Loc{0, 4}},
		{"(?~|)", AbsentClearer, Loc{0, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			a, ok := parse(t, tt.pattern).Root.(*AbsentFunction)
			require.True(t, ok)
			assert.Equal(t, tt.kind, a.Kind)
			assert.Equal(t, tt.start, a.Start)
			assert.Equal(t, Loc{0, len(tt.pattern)}, a.Location)
		})
	}
}

func TestParseDirectivesAndCallouts(t *testing.T) {
	tests := []struct {
		pattern string
		kind    AtomKind
		dir     DirectiveKind
		name    string
	}{
		{"(*ACCEPT)", AtomBacktrackingDirective, DirAccept, ""},
		{"(*F)", AtomBacktrackingDirective, DirFail, ""},
		{"(*MARK:here)", AtomBacktrackingDirective, DirMark, "here"},
		{"(*:here)", AtomBacktrackingDirective, DirMark, "here"},
		{"(*SKIP)", AtomBacktrackingDirective, DirSkip, ""},
		{"(?C)", AtomCallout, 0, ""},
		{"(?C12)", AtomCallout, 0, "12"},
		{`(?C"text")`, AtomCallout, 0, "text"},
		{"(?{code})", AtomCallout, 0, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			a, ok := parse(t, tt.pattern).Root.(*Atom)
			require.True(t, ok)
			assert.Equal(t, tt.kind, a.Kind)
			assert.Equal(t, tt.dir, a.Directive)
			assert.Equal(t, tt.name, a.Name)
			assert.Equal(t, Loc{0, len(tt.pattern)}, a.Location)
		})
	}
}

func TestParseOptions(t *testing.T) {
	root := parse(t, "(?i-m)a").Root.(*Concatenation)
	a := root.Children[0].(*Atom)
	assert.Equal(t, AtomChangeMatchingOptions, a.Kind)
	require.Len(t, a.Options.Adding, 1)
	assert.Equal(t, OptCaseInsensitive, a.Options.Adding[0].Kind)
	require.NotNil(t, a.Options.Minus)
	assert.Equal(t, Loc{3, 4}, *a.Options.Minus)
	assert.Equal(t, OptMultiline, a.Options.Removing[0].Kind)

	set := a.Options.Apply(OptionSet(0).With(OptMultiline))
	assert.True(t, set.Has(OptCaseInsensitive))
	assert.False(t, set.Has(OptMultiline))
	assert.Equal(t, "i", set.String())
}

func TestParseExtendedMode(t *testing.T) {
	root := parse(t, "(?x)a +#c").Root.(*Concatenation)
	require.Len(t, root.Children, 3)
	q := root.Children[1].(*Quantification)
	assert.Equal(t, Loc{4, 7}, q.Location)
	assert.Equal(t, 'a', q.Child.(*Atom).Char)
	tr := root.Children[2].(*Trivia)
	assert.Equal(t, "#c", tr.Contents)

	// Extended mode ends with the group that enabled it.
	root = parse(t, "(?x: a ) b").Root.(*Concatenation)
	assert.IsType(t, &Group{}, root.Children[0])
	assert.Equal(t, ' ', root.Children[1].(*Atom).Char)

	ast, err := Parse("a b", ParseOptions{Initial: OptionsFromFlags("x")})
	require.NoError(t, err)
	assert.Len(t, ast.Root.(*Concatenation).Children, 3)
}

func TestParseQuoteCommentInterpolation(t *testing.T) {
	root := parse(t, `\Q*+\E(?#note)<{name}>`).Root.(*Concatenation)
	require.Len(t, root.Children, 3)
	assert.Equal(t, &Quote{Literal: "*+", Location: Loc{0, 6}}, root.Children[0])
	assert.Equal(t, &Trivia{Contents: "note", Location: Loc{6, 14}}, root.Children[1])
	assert.Equal(t, &Interpolation{Contents: "name", Location: Loc{14, 22}}, root.Children[2])
}

// TestParseSpansNest checks that every child lies within its parent and that
// siblings are in source order.
func TestParseSpansNest(t *testing.T) {
	patterns := []string{
		`(CREDIT|DEBIT)\s+(\d{1,2}/\d{1,2}/\d{4})`,
		`\d+(?(?=regex)then|else(?(?=regex)then|else))(a)^(START)?\d+(?(1)END|\b)`,
		`^[^<>]*(((?'Open'<)[^<>]*)+((?'Close-Open'>)[^<>]*)+)*(?(Open)(?!))$`,
		`rege(x(es)?|xps?)`,
		`[2-9]|[12]\d|3[0-6]`,
		`(?~|abc|\d+)x(?<=ab)c{2,}+`,
		`é(ü|😀)+`,
	}
	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			ast := parse(t, pattern)
			Inspect(ast.Root, func(n Node) bool {
				parent := n.Loc()
				assert.LessOrEqual(t, parent.Start, parent.End)
				prevEnd := parent.Start
				for _, c := range Children(n) {
					loc := c.Loc()
					assert.GreaterOrEqual(t, loc.Start, prevEnd, "child %T of %T", c, n)
					assert.LessOrEqual(t, loc.End, parent.End, "child %T of %T", c, n)
					prevEnd = loc.End
				}
				return true
			})
		})
	}
}
