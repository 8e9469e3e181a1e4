package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxBound caps quantifier bounds while scanning so that absurd values do
// not overflow; the compiler rejects anything this large anyway.
const maxBound = 1 << 20

type parser struct {
	src      string
	pos      int
	opts     OptionSet
	depth    int
	maxDepth int
	captures int
	names    []string
}

// Parse parses pattern into a syntax tree.
//
// On failure the returned error is a *Error locating the offending construct.
// Only the first error is reported.
func Parse(pattern string, opts ParseOptions) (*AST, error) {
	p := &parser{
		src:      pattern,
		opts:     opts.Initial,
		maxDepth: opts.MaxDepth,
		names:    []string{""},
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}

	root, err := p.parseAlternation(false)
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// Only a stray ')' stops the top-level alternation early.
		return nil, p.errorf(ErrUnbalanced, Loc{p.pos, p.pos + 1}, "unbalanced ')'")
	}
	for len(p.names) <= p.captures {
		p.names = append(p.names, "")
	}
	return &AST{
		Root:         root,
		Pattern:      pattern,
		Options:      opts.Initial,
		CaptureCount: p.captures,
		CaptureNames: p.names,
	}, nil
}

// MustParse is like Parse but panics on error. It simplifies tests and
// package-level pattern tables.
func MustParse(pattern string) *AST {
	ast, err := Parse(pattern, ParseOptions{})
	if err != nil {
		panic(fmt.Sprintf("syntax: Parse(%q): %v", pattern, err))
	}
	return ast
}

func (p *parser) errorf(kind error, loc Loc, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Location: loc, Kind: kind}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

// peek returns the next byte, or 0 at the end of input.
func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(p.src[p.pos:])
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) enter(loc Loc) error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf(ErrTooDeep, loc, "pattern nesting exceeds %d levels", p.maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// parseAlternation parses branches separated by '|'. Inside a branch reset
// group every branch numbers its captures from the same base.
func (p *parser) parseAlternation(branchReset bool) (Node, error) {
	start := p.pos
	base := p.captures
	highest := base

	first, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	var pipes []Loc
	for p.peek() == '|' {
		pipes = append(pipes, Loc{p.pos, p.pos + 1})
		p.pos++
		if branchReset {
			highest = max(highest, p.captures)
			p.captures = base
		}
		branch, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		children = append(children, branch)
	}
	if branchReset {
		p.captures = max(highest, p.captures)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &Alternation{Children: children, Pipes: pipes, Location: Loc{start, p.pos}}, nil
}

func (p *parser) parseConcatenation() (Node, error) {
	start := p.pos
	var children []Node
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		if t := p.lexTrivia(); t != nil {
			children = append(children, t)
			continue
		}

		q, err := p.tryQuantifier()
		if err != nil {
			return nil, err
		}
		if q != nil {
			i := len(children) - 1
			for i >= 0 {
				if _, ok := children[i].(*Trivia); !ok {
					break
				}
				i--
			}
			if i < 0 {
				return nil, p.errorf(ErrQuantifier, q.AmountLoc,
					"quantifier '%s' must follow operand", p.src[q.AmountLoc.Start:q.AmountLoc.End])
			}
			operand := children[i]
			if err := p.checkQuantifiable(operand, q); err != nil {
				return nil, err
			}
			q.Child = operand
			q.Location = Loc{operand.Loc().Start, q.Location.End}
			children = append(children[:i], q)
			continue
		}

		n, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}

	switch len(children) {
	case 0:
		return &Empty{Location: Loc{start, start}}, nil
	case 1:
		return children[0], nil
	}
	return &Concatenation{Children: children, Location: Loc{start, p.pos}}, nil
}

func (p *parser) checkQuantifiable(operand Node, q *Quantification) error {
	switch n := operand.(type) {
	case *Quantification:
		return p.errorf(ErrQuantifier, q.AmountLoc, "quantifier cannot follow another quantifier")
	case *Atom:
		if n.Kind == AtomChangeMatchingOptions {
			return p.errorf(ErrQuantifier, q.AmountLoc, "quantifier cannot follow an option change")
		}
	}
	return nil
}

// lexTrivia consumes whitespace and '#' comments in extended mode.
func (p *parser) lexTrivia() *Trivia {
	if !p.opts.Has(OptExtended) || p.eof() {
		return nil
	}
	start := p.pos
	if p.peek() == '#' {
		end := strings.IndexByte(p.src[p.pos:], '\n')
		if end < 0 {
			p.pos = len(p.src)
		} else {
			p.pos += end
		}
		return &Trivia{Contents: p.src[start:p.pos], Location: Loc{start, p.pos}}
	}
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return nil
	}
	return &Trivia{Contents: p.src[start:p.pos], Location: Loc{start, p.pos}}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// tryQuantifier parses a quantifier at the current position. It returns nil
// without consuming input when there is none; a '{' that does not form a
// valid bound is a literal.
func (p *parser) tryQuantifier() (*Quantification, error) {
	start := p.pos
	var amt Amount
	switch p.peek() {
	case '*':
		amt.Type = ZeroOrMore
		p.pos++
	case '+':
		amt.Type = OneOrMore
		p.pos++
	case '?':
		amt.Type = ZeroOrOne
		p.pos++
	case '{':
		a, end, ok := p.scanBraces()
		if !ok {
			return nil, nil
		}
		amt = a
		p.pos = end
	default:
		return nil, nil
	}

	q := &Quantification{
		Amount:    amt,
		AmountLoc: Loc{start, p.pos},
		Kind:      Eager,
		KindLoc:   Loc{p.pos, p.pos},
	}
	if amt.Type == Range && amt.N.Value > amt.M.Value {
		return nil, p.errorf(ErrQuantifier, q.AmountLoc, "quantifier range is out of order")
	}
	switch p.peek() {
	case '?':
		q.Kind = Reluctant
		q.KindLoc = Loc{p.pos, p.pos + 1}
		p.pos++
	case '+':
		q.Kind = Possessive
		q.KindLoc = Loc{p.pos, p.pos + 1}
		p.pos++
	}
	q.Location = Loc{start, p.pos}
	return q, nil
}

// scanBraces recognizes {n}, {n,}, {,n} and {n,m} at the current position.
func (p *parser) scanBraces() (Amount, int, bool) {
	i := p.pos + 1
	n, i := p.scanNumber(i)
	comma := false
	if i < len(p.src) && p.src[i] == ',' {
		comma = true
		i++
	}
	m, i := p.scanNumber(i)
	if i >= len(p.src) || p.src[i] != '}' {
		return Amount{}, 0, false
	}
	i++

	switch {
	case !comma && n != nil:
		return Amount{Type: Exactly, N: n}, i, true
	case comma && n != nil && m == nil:
		return Amount{Type: NOrMore, N: n}, i, true
	case comma && n == nil && m != nil:
		return Amount{Type: UpToN, N: m}, i, true
	case comma && n != nil && m != nil:
		return Amount{Type: Range, N: n, M: m}, i, true
	}
	return Amount{}, 0, false
}

func (p *parser) scanNumber(i int) (*Number, int) {
	start := i
	v := 0
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		v = min(v*10+int(p.src[i]-'0'), maxBound)
		i++
	}
	if i == start {
		return nil, i
	}
	return &Number{Value: v, Location: Loc{start, i}}, i
}

func (p *parser) parseAtom() (Node, error) {
	start := p.pos
	switch c := p.peek(); c {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseCustomClass()
	case '\\':
		return p.parseEscape(false)
	case '.':
		p.pos++
		return &Atom{Kind: AtomAny, Location: Loc{start, p.pos}}, nil
	case '^':
		p.pos++
		return &Atom{Kind: AtomStartOfLine, Location: Loc{start, p.pos}}, nil
	case '$':
		p.pos++
		return &Atom{Kind: AtomEndOfLine, Location: Loc{start, p.pos}}, nil
	case '<':
		if p.hasPrefix("<{") {
			return p.parseInterpolation()
		}
	}
	r, w := p.peekRune()
	p.pos += w
	return &Atom{Kind: AtomChar, Char: r, Location: Loc{start, p.pos}}, nil
}

func (p *parser) parseInterpolation() (Node, error) {
	start := p.pos
	end := strings.Index(p.src[start+2:], "}>")
	if end < 0 {
		return nil, p.errorf(ErrUnbalanced, Loc{start, start + 2}, "expected '}>'")
	}
	p.pos = start + 2 + end + 2
	return &Interpolation{
		Contents: p.src[start+2 : start+2+end],
		Location: Loc{start, p.pos},
	}, nil
}

func (p *parser) parseGroup() (Node, error) {
	open := p.pos
	switch {
	case p.hasPrefix("(?#"):
		return p.parseComment()
	case p.hasPrefix("(*"):
		return p.parseStarGroup()
	case p.hasPrefix("(?("):
		return p.parseConditional()
	case p.hasPrefix("(?~"):
		return p.parseAbsent()
	case p.hasPrefix("(?"):
		return p.parseQuestionGroup()
	}
	p.pos++
	kind := GroupKind{Type: GroupCapture}
	if p.opts.Has(OptNamedCapturesOnly) {
		kind.Type = GroupNonCapture
	}
	return p.parseGroupBody(kind, Loc{open, p.pos})
}

// parseGroupBody parses the contents of a group whose opener has been
// consumed, through the closing ')'.
func (p *parser) parseGroupBody(kind GroupKind, kindLoc Loc) (*Group, error) {
	if err := p.enter(kindLoc); err != nil {
		return nil, err
	}
	defer p.leave()

	g := &Group{Kind: kind, KindLoc: kindLoc}
	if kind.Type.IsCapturing() {
		p.captures++
		g.Number = p.captures
		if err := p.nameGroup(g.Number, kind.Name, kindLoc); err != nil {
			return nil, err
		}
	}

	saved := p.opts
	if kind.Options != nil {
		p.opts = kind.Options.Apply(p.opts)
	}
	child, err := p.parseAlternation(kind.Type == GroupBranchReset)
	p.opts = saved
	if err != nil {
		return nil, err
	}
	if p.peek() != ')' {
		return nil, p.errorf(ErrUnbalanced, kindLoc, "expected ')'")
	}
	p.pos++
	g.Child = child
	g.Location = Loc{kindLoc.Start, p.pos}
	return g, nil
}

func (p *parser) nameGroup(num int, name string, loc Loc) error {
	for len(p.names) <= num {
		p.names = append(p.names, "")
	}
	if name == "" {
		return nil
	}
	if !p.opts.Has(OptAllowDuplicateNames) {
		for i, existing := range p.names {
			if existing == name && i != num {
				return p.errorf(ErrGroup, loc, "duplicate group name '%s'", name)
			}
		}
	}
	p.names[num] = name
	return nil
}

func (p *parser) parseComment() (Node, error) {
	open := p.pos
	end := strings.IndexByte(p.src[open+3:], ')')
	if end < 0 {
		return nil, p.errorf(ErrUnbalanced, Loc{open, open + 3}, "expected ')'")
	}
	p.pos = open + 3 + end + 1
	return &Trivia{Contents: p.src[open+3 : open+3+end], Location: Loc{open, p.pos}}, nil
}

var simpleGroups = []struct {
	prefix string
	typ    GroupType
}{
	{":", GroupNonCapture},
	{"|", GroupBranchReset},
	{">", GroupAtomic},
	{"=", GroupLookahead},
	{"!", GroupNegativeLookahead},
	{"*", GroupNonAtomicLookahead},
	{"<=", GroupLookbehind},
	{"<!", GroupNegativeLookbehind},
	{"<*", GroupNonAtomicLookbehind},
}

func (p *parser) parseQuestionGroup() (Node, error) {
	open := p.pos
	rest := p.src[open+2:]
	for _, sg := range simpleGroups {
		if strings.HasPrefix(rest, sg.prefix) {
			p.pos = open + 2 + len(sg.prefix)
			return p.parseGroupBody(GroupKind{Type: sg.typ}, Loc{open, p.pos})
		}
	}

	switch {
	case strings.HasPrefix(rest, "P<"):
		return p.parseNamedGroup(open, open+4, '>')
	case strings.HasPrefix(rest, "P="):
		return p.parseGroupReference(open, open+4, AtomBackreference)
	case strings.HasPrefix(rest, "P>"):
		return p.parseGroupReference(open, open+4, AtomSubpattern)
	case strings.HasPrefix(rest, "&"):
		return p.parseGroupReference(open, open+3, AtomSubpattern)
	case strings.HasPrefix(rest, "<"):
		return p.parseNamedGroup(open, open+3, '>')
	case strings.HasPrefix(rest, "'"):
		return p.parseNamedGroup(open, open+3, '\'')
	case strings.HasPrefix(rest, "R)"):
		p.pos = open + 4
		return &Atom{
			Kind:     AtomSubpattern,
			Ref:      &Reference{Kind: RefAbsolute, Location: Loc{open + 2, open + 3}},
			Location: Loc{open, p.pos},
		}, nil
	case len(rest) > 0 && isDigit(rest[0]),
		len(rest) > 1 && (rest[0] == '+' || rest[0] == '-') && isDigit(rest[1]):
		return p.parseGroupReference(open, open+2, AtomSubpattern)
	case strings.HasPrefix(rest, "C"), strings.HasPrefix(rest, "{"):
		return p.parseCallout()
	}
	return p.parseOptionGroup(open)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanIdent returns the end of the identifier starting at i.
func (p *parser) scanIdent(i int) int {
	for i < len(p.src) {
		r, w := utf8.DecodeRuneInString(p.src[i:])
		if !isIdentRune(r) {
			break
		}
		i += w
	}
	return i
}

func (p *parser) parseNamedGroup(open, nameStart int, closer byte) (Node, error) {
	i := p.scanIdent(nameStart)
	name := p.src[nameStart:i]
	kind := GroupKind{Type: GroupNamedCapture, Name: name}
	if i < len(p.src) && p.src[i] == '-' {
		priorStart := i + 1
		i = p.scanIdent(priorStart)
		kind.Type = GroupBalancedCapture
		kind.PriorName = p.src[priorStart:i]
		if kind.PriorName == "" {
			return nil, p.errorf(ErrGroup, Loc{open, i}, "expected group name")
		}
	}
	if i >= len(p.src) || p.src[i] != closer {
		return nil, p.errorf(ErrGroup, Loc{open, min(i+1, len(p.src))}, "expected '%c'", closer)
	}
	if name == "" && kind.Type == GroupNamedCapture {
		return nil, p.errorf(ErrGroup, Loc{open, i + 1}, "expected group name")
	}
	if name != "" && isDigit(name[0]) {
		return nil, p.errorf(ErrGroup, Loc{nameStart, i}, "group name must not start with a digit")
	}
	p.pos = i + 1
	return p.parseGroupBody(kind, Loc{open, p.pos})
}

// parseGroupReference parses (?P=name), (?P>name), (?&name) and (?1)-style
// references through the closing ')'.
func (p *parser) parseGroupReference(open, refStart int, kind AtomKind) (Node, error) {
	end := strings.IndexByte(p.src[refStart:], ')')
	if end < 0 {
		return nil, p.errorf(ErrUnbalanced, Loc{open, refStart}, "expected ')'")
	}
	text := p.src[refStart : refStart+end]
	ref, err := p.parseRefText(text, Loc{refStart, refStart + end}, false)
	if err != nil {
		return nil, err
	}
	p.pos = refStart + end + 1
	return &Atom{Kind: kind, Ref: ref, Location: Loc{open, p.pos}}, nil
}

// resolveRelative converts a relative group offset into an absolute number
// given the captures opened so far: -1 is the most recently opened group,
// +1 the next one.
func (p *parser) resolveRelative(n int) int {
	if n < 0 {
		return p.captures + n + 1
	}
	return p.captures + n
}

// parseRefText interprets the text of a group reference: a number, a signed
// relative offset, or a name with an optional recursion level.
func (p *parser) parseRefText(text string, loc Loc, allowLevel bool) (*Reference, error) {
	if text == "" {
		return nil, p.errorf(ErrGroup, loc, "expected group name or number")
	}
	sign := 0
	digits := text
	switch text[0] {
	case '+':
		sign, digits = 1, text[1:]
	case '-':
		sign, digits = -1, text[1:]
	}
	if digits != "" && strings.Trim(digits, "0123456789") == "" {
		v := 0
		for i := 0; i < len(digits); i++ {
			v = min(v*10+int(digits[i]-'0'), maxBound)
		}
		if sign == 0 {
			return &Reference{Kind: RefAbsolute, Number: v, Resolved: v, Location: loc}, nil
		}
		if v == 0 {
			return nil, p.errorf(ErrGroup, loc, "relative group reference must not be zero")
		}
		n := sign * v
		resolved := p.resolveRelative(n)
		if resolved < 1 {
			return nil, p.errorf(ErrGroup, loc, "relative group reference '%s' refers to a group before the pattern", text)
		}
		return &Reference{Kind: RefRelative, Number: n, Resolved: resolved, Location: loc}, nil
	}
	if sign != 0 {
		return nil, p.errorf(ErrGroup, loc, "invalid group reference '%s'", text)
	}

	name := text
	ref := &Reference{Kind: RefNamed, Location: loc}
	if allowLevel {
		if i := strings.LastIndexAny(text, "+-"); i > 0 && strings.Trim(text[i+1:], "0123456789") == "" && i+1 < len(text) {
			level := 0
			for _, c := range text[i+1:] {
				level = min(level*10+int(c-'0'), maxBound)
			}
			if text[i] == '-' {
				level = -level
			}
			ref.RecursionLevel = &level
			name = text[:i]
		}
	}
	for _, r := range name {
		if !isIdentRune(r) {
			return nil, p.errorf(ErrGroup, loc, "invalid group name '%s'", name)
		}
	}
	if isDigit(name[0]) {
		return nil, p.errorf(ErrGroup, loc, "invalid group reference '%s'", text)
	}
	ref.Name = name
	return ref, nil
}

// parseCallout parses (?C), (?Cn), (?C"text") and (?{code}).
func (p *parser) parseCallout() (Node, error) {
	open := p.pos
	if p.hasPrefix("(?{") {
		end := strings.Index(p.src[open+3:], "})")
		if end < 0 {
			return nil, p.errorf(ErrUnbalanced, Loc{open, open + 3}, "expected '})'")
		}
		p.pos = open + 3 + end + 2
		return &Atom{Kind: AtomCallout, Name: p.src[open+3 : open+3+end], Location: Loc{open, p.pos}}, nil
	}

	i := open + 3
	var text string
	switch {
	case i < len(p.src) && isDigit(p.src[i]):
		start := i
		for i < len(p.src) && isDigit(p.src[i]) {
			i++
		}
		text = p.src[start:i]
	case i < len(p.src) && strings.IndexByte("\"'`^%#${", p.src[i]) >= 0:
		delim := p.src[i]
		if delim == '{' {
			delim = '}'
		}
		end := strings.IndexByte(p.src[i+1:], delim)
		if end < 0 {
			return nil, p.errorf(ErrUnbalanced, Loc{open, i + 1}, "expected '%c'", delim)
		}
		text = p.src[i+1 : i+1+end]
		i += end + 2
	}
	if i >= len(p.src) || p.src[i] != ')' {
		return nil, p.errorf(ErrGroup, Loc{open, min(i+1, len(p.src))}, "invalid callout")
	}
	p.pos = i + 1
	return &Atom{Kind: AtomCallout, Name: text, Location: Loc{open, p.pos}}, nil
}

func optionAt(s string) (OptionKind, int, bool) {
	switch {
	case strings.HasPrefix(s, "xx"):
		return OptExtraExtended, 2, true
	case strings.HasPrefix(s, "y{g}"):
		return OptGraphemeTextSegments, 4, true
	case strings.HasPrefix(s, "y{w}"):
		return OptWordTextSegments, 4, true
	case s == "":
		return 0, 0, false
	}
	switch s[0] {
	case 'i':
		return OptCaseInsensitive, 1, true
	case 'J':
		return OptAllowDuplicateNames, 1, true
	case 'm':
		return OptMultiline, 1, true
	case 'n':
		return OptNamedCapturesOnly, 1, true
	case 's':
		return OptSingleLine, 1, true
	case 'U':
		return OptReluctantByDefault, 1, true
	case 'x':
		return OptExtended, 1, true
	case 'w':
		return OptUnicodeWordBoundaries, 1, true
	case 'D':
		return OptASCIIOnlyDigit, 1, true
	case 'P':
		return OptASCIIOnlyPOSIXProps, 1, true
	case 'S':
		return OptASCIIOnlySpace, 1, true
	case 'W':
		return OptASCIIOnlyWord, 1, true
	}
	return 0, 0, false
}

// parseOptionGroup parses (?flags) and (?flags:...).
func (p *parser) parseOptionGroup(open int) (Node, error) {
	i := open + 2
	seq := &OptionSequence{}
	if i < len(p.src) && p.src[i] == '^' {
		seq.Caret = &Loc{i, i + 1}
		i++
	}
	adding := true
	for {
		if i >= len(p.src) {
			return nil, p.errorf(ErrUnbalanced, Loc{open, open + 2}, "expected ')'")
		}
		switch c := p.src[i]; c {
		case ')':
			p.pos = i + 1
			p.opts = seq.Apply(p.opts)
			return &Atom{Kind: AtomChangeMatchingOptions, Options: seq, Location: Loc{open, p.pos}}, nil
		case ':':
			p.pos = i + 1
			return p.parseGroupBody(GroupKind{Type: GroupChangeOptions, Options: seq}, Loc{open, p.pos})
		case '-':
			if !adding || seq.Caret != nil {
				return nil, p.errorf(ErrGroup, Loc{i, i + 1}, "unexpected '-' in option sequence")
			}
			seq.Minus = &Loc{i, i + 1}
			adding = false
			i++
		default:
			kind, w, ok := optionAt(p.src[i:])
			if !ok {
				_, rw := utf8.DecodeRuneInString(p.src[i:])
				return nil, p.errorf(ErrGroup, Loc{open, i + rw}, "unknown group kind '%s'", p.src[open:i+rw])
			}
			opt := MatchingOption{Kind: kind, Location: Loc{i, i + w}}
			if adding {
				seq.Adding = append(seq.Adding, opt)
			} else {
				seq.Removing = append(seq.Removing, opt)
			}
			i += w
		}
	}
}

var alphaGroups = []struct {
	names []string
	typ   GroupType
}{
	{[]string{"pla", "positive_lookahead"}, GroupLookahead},
	{[]string{"nla", "negative_lookahead"}, GroupNegativeLookahead},
	{[]string{"plb", "positive_lookbehind"}, GroupLookbehind},
	{[]string{"nlb", "negative_lookbehind"}, GroupNegativeLookbehind},
	{[]string{"napla", "non_atomic_positive_lookahead"}, GroupNonAtomicLookahead},
	{[]string{"naplb", "non_atomic_positive_lookbehind"}, GroupNonAtomicLookbehind},
	{[]string{"sr", "script_run"}, GroupScriptRun},
	{[]string{"asr", "atomic_script_run"}, GroupAtomicScriptRun},
	{[]string{"atomic"}, GroupAtomic},
}

var verbs = map[string]DirectiveKind{
	"ACCEPT": DirAccept,
	"FAIL":   DirFail,
	"F":      DirFail,
	"MARK":   DirMark,
	"":       DirMark,
	"COMMIT": DirCommit,
	"PRUNE":  DirPrune,
	"SKIP":   DirSkip,
	"THEN":   DirThen,
}

// parseStarGroup parses (*verb) control verbs and (*name: ...) alpha
// assertions.
func (p *parser) parseStarGroup() (Node, error) {
	open := p.pos
	rest := p.src[open+2:]
	for _, ag := range alphaGroups {
		for _, name := range ag.names {
			if strings.HasPrefix(rest, name+":") {
				p.pos = open + 2 + len(name) + 1
				return p.parseGroupBody(GroupKind{Type: ag.typ}, Loc{open, p.pos})
			}
		}
	}

	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return nil, p.errorf(ErrUnbalanced, Loc{open, open + 2}, "expected ')'")
	}
	loc := Loc{open, open + 2 + end + 1}
	verb, arg, hasArg := strings.Cut(rest[:end], ":")
	d, ok := verbs[verb]
	if !ok {
		return nil, p.errorf(ErrGroup, loc, "unknown control verb '%s'", verb)
	}
	if d == DirMark && (!hasArg || arg == "") {
		return nil, p.errorf(ErrGroup, loc, "(*MARK) requires a name")
	}
	p.pos = loc.End
	return &Atom{Kind: AtomBacktrackingDirective, Directive: d, Name: arg, Location: loc}, nil
}

var lookaroundOpeners = []string{
	"(?=", "(?!", "(?<=", "(?<!", "(?*", "(?<*",
	"(*pla:", "(*nla:", "(*plb:", "(*nlb:", "(*napla:", "(*naplb:",
	"(*positive_lookahead:", "(*negative_lookahead:",
	"(*positive_lookbehind:", "(*negative_lookbehind:",
	"(*non_atomic_positive_lookahead:", "(*non_atomic_positive_lookbehind:",
}

func (p *parser) parseConditional() (Node, error) {
	open := p.pos
	if err := p.enter(Loc{open, open + 2}); err != nil {
		return nil, err
	}
	defer p.leave()

	c := &Conditional{}
	lookaround := false
	for _, prefix := range lookaroundOpeners {
		if strings.HasPrefix(p.src[open+2:], prefix) {
			lookaround = true
			break
		}
	}
	if lookaround {
		p.pos = open + 2
		n, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		g := n.(*Group)
		c.Condition = Condition{Kind: CondGroup, Group: g, Location: g.Location}
	} else {
		inner := open + 3
		end := strings.IndexByte(p.src[inner:], ')')
		if end < 0 {
			return nil, p.errorf(ErrUnbalanced, Loc{open, inner}, "expected ')'")
		}
		cond, err := p.parseCondition(p.src[inner:inner+end], Loc{inner, inner + end})
		if err != nil {
			return nil, err
		}
		c.Condition = cond
		p.pos = inner + end + 1
	}

	saved := p.opts
	defer func() { p.opts = saved }()

	t, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}
	c.TrueBranch = t
	if p.peek() == '|' {
		c.Pipe = &Loc{p.pos, p.pos + 1}
		p.pos++
		f, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		if p.peek() == '|' {
			return nil, p.errorf(ErrGroup, Loc{p.pos, p.pos + 1}, "conditional has more than two branches")
		}
		c.FalseBranch = f
	} else {
		c.FalseBranch = &Empty{Location: Loc{p.pos, p.pos}}
	}
	if p.peek() != ')' {
		return nil, p.errorf(ErrUnbalanced, Loc{open, open + 2}, "expected ')'")
	}
	p.pos++
	c.Location = Loc{open, p.pos}
	return c, nil
}

func (p *parser) parseCondition(text string, loc Loc) (Condition, error) {
	switch {
	case text == "R":
		return Condition{Kind: CondRecursionCheck, Location: loc}, nil
	case text == "DEFINE":
		return Condition{Kind: CondDefine, Location: loc}, nil
	case strings.HasPrefix(text, "VERSION"):
		return Condition{Kind: CondVersionCheck, Version: text[len("VERSION"):], Location: loc}, nil
	case strings.HasPrefix(text, "R&"):
		ref, err := p.parseRefText(text[2:], Loc{loc.Start + 2, loc.End}, false)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondGroupRecursionCheck, Ref: ref, Location: loc}, nil
	case len(text) > 1 && text[0] == 'R' && strings.Trim(text[1:], "0123456789") == "":
		ref, err := p.parseRefText(text[1:], Loc{loc.Start + 1, loc.End}, false)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondGroupRecursionCheck, Ref: ref, Location: loc}, nil
	}

	inner, innerLoc := text, loc
	if len(text) >= 2 && (text[0] == '<' && text[len(text)-1] == '>' || text[0] == '\'' && text[len(text)-1] == '\'') {
		inner = text[1 : len(text)-1]
		innerLoc = Loc{loc.Start + 1, loc.End - 1}
	}
	ref, err := p.parseRefText(inner, innerLoc, false)
	if err != nil {
		return Condition{}, p.errorf(ErrGroup, loc, "invalid condition '%s'", text)
	}
	return Condition{Kind: CondGroupMatched, Ref: ref, Location: loc}, nil
}

func (p *parser) parseAbsent() (Node, error) {
	open := p.pos
	a := &AbsentFunction{}
	if p.hasPrefix("(?~|") {
		a.Start = Loc{open, open + 4}
	} else {
		a.Start = Loc{open, open + 3}
	}
	if err := p.enter(a.Start); err != nil {
		return nil, err
	}
	defer p.leave()
	p.pos = a.Start.End

	if a.Start.Len() == 3 {
		a.Kind = AbsentRepeater
		n, err := p.parseAlternation(false)
		if err != nil {
			return nil, err
		}
		a.Absentee = n
	} else if p.peek() == ')' {
		a.Kind = AbsentClearer
	} else {
		n, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		a.Absentee = n
		a.Kind = AbsentStopper
		if p.peek() == '|' {
			a.Kind = AbsentExpression
			a.Pipe = &Loc{p.pos, p.pos + 1}
			p.pos++
			e, err := p.parseAlternation(false)
			if err != nil {
				return nil, err
			}
			a.Expr = e
		}
	}
	if p.peek() != ')' {
		return nil, p.errorf(ErrUnbalanced, a.Start, "expected ')'")
	}
	p.pos++
	a.Location = Loc{open, p.pos}
	return a, nil
}
