package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// escapeBuiltins maps escape letters to builtins outside of custom classes.
var escapeBuiltins = map[byte]EscapedBuiltin{
	'a': EscAlarm,
	'e': EscEscape,
	'f': EscFormfeed,
	'n': EscNewline,
	'r': EscCarriageReturn,
	't': EscTab,
	'd': EscDecimalDigit,
	'D': EscNotDecimalDigit,
	'h': EscHorizontalWhitespace,
	'H': EscNotHorizontalWhitespace,
	'N': EscNotNewline,
	'R': EscNewlineSequence,
	's': EscWhitespace,
	'S': EscNotWhitespace,
	'v': EscVerticalTab,
	'V': EscNotVerticalTab,
	'w': EscWordCharacter,
	'W': EscNotWordCharacter,
	'X': EscGraphemeCluster,
	'O': EscTrueAnychar,
	'b': EscWordBoundary,
	'B': EscNotWordBoundary,
	'A': EscStartOfSubject,
	'Z': EscEndOfSubjectBeforeNewline,
	'z': EscEndOfSubject,
	'G': EscFirstMatchingPosition,
	'K': EscResetStartOfMatch,
	'y': EscTextSegment,
	'Y': EscNotTextSegment,
}

// parseEscape parses a backslash sequence. The result is an *Atom, a *Quote
// for \Q...\E, or a *Trivia for a stray \E.
func (p *parser) parseEscape(inClass bool) (Node, error) {
	start := p.pos
	p.pos++
	if p.eof() {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "expected escape sequence")
	}
	if p.src[p.pos] >= utf8.RuneSelf {
		r, w := p.peekRune()
		p.pos += w
		return &Atom{Kind: AtomChar, Char: r, Location: Loc{start, p.pos}}, nil
	}
	c := p.src[p.pos]
	p.pos++
	loc := func() Loc { return Loc{start, p.pos} }

	switch c {
	case 'Q':
		end := strings.Index(p.src[p.pos:], `\E`)
		var lit string
		if end < 0 {
			lit = p.src[p.pos:]
			p.pos = len(p.src)
		} else {
			lit = p.src[p.pos : p.pos+end]
			p.pos += end + 2
		}
		return &Quote{Literal: lit, Location: loc()}, nil
	case 'E':
		return &Trivia{Contents: `\E`, Location: loc()}, nil
	case 'x':
		return p.parseHexEscape(start)
	case 'u':
		return p.parseUnicodeEscape(start)
	case 'U':
		return p.parseFixedHex(start, 8)
	case 'o':
		if p.peek() != '{' {
			return nil, p.errorf(ErrEscape, loc(), "expected '{' after \\o")
		}
		return p.parseBracedScalar(start, 8)
	case '0':
		i := p.pos
		for i < len(p.src) && i-p.pos < 2 && p.src[i] >= '0' && p.src[i] <= '7' {
			i++
		}
		v, _ := strconv.ParseUint("0"+p.src[p.pos:i], 8, 32)
		p.pos = i
		return &Atom{Kind: AtomScalar, Scalars: []rune{rune(v)}, Location: loc()}, nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		i := p.pos
		for i < len(p.src) && isDigit(p.src[i]) {
			i++
		}
		digits := p.src[p.pos-1 : i]
		if inClass {
			v, err := strconv.ParseUint(digits, 8, 32)
			if err != nil {
				return nil, p.errorf(ErrEscape, Loc{start, i}, "invalid octal escape '\\%s'", digits)
			}
			p.pos = i
			return &Atom{Kind: AtomScalar, Scalars: []rune{rune(v)}, Location: loc()}, nil
		}
		p.pos = i
		ref, err := p.parseRefText(digits, Loc{start + 1, i}, false)
		if err != nil {
			return nil, err
		}
		return &Atom{Kind: AtomBackreference, Ref: ref, Location: loc()}, nil
	case 'k':
		return p.parseDelimitedReference(start, AtomBackreference, true)
	case 'g':
		return p.parseGEscape(start)
	case 'p', 'P':
		return p.parsePropertyEscape(start, c == 'P')
	case 'N':
		if p.peek() == '{' {
			return p.parseNamedCharacter(start)
		}
	case 'c':
		r, err := p.controlTarget(start)
		if err != nil {
			return nil, err
		}
		return &Atom{Kind: AtomKeyboardControl, Char: r, Location: loc()}, nil
	case 'C':
		if p.peek() == '-' {
			p.pos++
			r, err := p.controlTarget(start)
			if err != nil {
				return nil, err
			}
			return &Atom{Kind: AtomKeyboardControl, Char: r, Location: loc()}, nil
		}
	case 'M':
		if p.hasPrefix(`-\C-`) {
			p.pos += 4
			r, err := p.controlTarget(start)
			if err != nil {
				return nil, err
			}
			return &Atom{Kind: AtomKeyboardMetaControl, Char: r | 0x80, Location: loc()}, nil
		}
		if p.peek() == '-' && p.pos+1 < len(p.src) {
			p.pos++
			r, w := p.peekRune()
			p.pos += w
			if r >= utf8.RuneSelf {
				return nil, p.errorf(ErrEscape, loc(), "meta escape requires an ASCII character")
			}
			return &Atom{Kind: AtomKeyboardMeta, Char: r | 0x80, Location: loc()}, nil
		}
		return nil, p.errorf(ErrEscape, loc(), "expected '-' after \\M")
	}

	if inClass {
		switch c {
		case 'b':
			return &Atom{Kind: AtomEscaped, Escaped: EscBackspace, Location: loc()}, nil
		case 'B', 'A', 'Z', 'z', 'G', 'K', 'y', 'Y', 'R', 'X':
			return nil, p.errorf(ErrEscape, loc(), "'\\%c' is not valid in a custom character class", c)
		}
	}
	if c == 'C' {
		return &Atom{Kind: AtomEscaped, Escaped: EscSingleDataUnit, Location: loc()}, nil
	}
	if e, ok := escapeBuiltins[c]; ok {
		return &Atom{Kind: AtomEscaped, Escaped: e, Location: loc()}, nil
	}
	if isASCIIAlnum(c) {
		return nil, p.errorf(ErrEscape, loc(), "invalid escape sequence '\\%c'", c)
	}
	return &Atom{Kind: AtomChar, Char: rune(c), Location: loc()}, nil
}

func isASCIIAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// controlTarget reads the character after \c or \C- and returns its control
// value.
func (p *parser) controlTarget(start int) (rune, error) {
	if p.eof() {
		return 0, p.errorf(ErrEscape, Loc{start, p.pos}, "expected control character")
	}
	c := p.src[p.pos]
	if c >= utf8.RuneSelf {
		_, w := p.peekRune()
		return 0, p.errorf(ErrEscape, Loc{start, p.pos + w}, "control escape requires an ASCII character")
	}
	p.pos++
	if c == '?' {
		return 0x7F, nil
	}
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return rune(c) ^ 0x40, nil
}

func (p *parser) checkScalar(v uint64, start int) (rune, error) {
	if v > utf8.MaxRune || v >= 0xD800 && v <= 0xDFFF {
		return 0, p.errorf(ErrEscape, Loc{start, p.pos}, "invalid Unicode scalar value U+%X", v)
	}
	return rune(v), nil
}

// parseHexEscape parses \xhh (zero to two digits) and \x{h...}.
func (p *parser) parseHexEscape(start int) (Node, error) {
	if p.peek() == '{' {
		return p.parseBracedScalar(start, 16)
	}
	i := p.pos
	for i < len(p.src) && i-p.pos < 2 && isHex(p.src[i]) {
		i++
	}
	v := uint64(0)
	if i > p.pos {
		v, _ = strconv.ParseUint(p.src[p.pos:i], 16, 32)
	}
	p.pos = i
	return &Atom{Kind: AtomScalar, Scalars: []rune{rune(v)}, Location: Loc{start, p.pos}}, nil
}

// parseFixedHex parses exactly n hex digits, as in \uhhhh and \Uhhhhhhhh.
func (p *parser) parseFixedHex(start, n int) (Node, error) {
	if p.pos+n > len(p.src) {
		return nil, p.errorf(ErrEscape, Loc{start, len(p.src)}, "expected %d hex digits", n)
	}
	digits := p.src[p.pos : p.pos+n]
	for i := 0; i < n; i++ {
		if !isHex(digits[i]) {
			return nil, p.errorf(ErrEscape, Loc{start, p.pos + i + 1}, "expected %d hex digits", n)
		}
	}
	v, _ := strconv.ParseUint(digits, 16, 64)
	p.pos += n
	r, err := p.checkScalar(v, start)
	if err != nil {
		return nil, err
	}
	return &Atom{Kind: AtomScalar, Scalars: []rune{r}, Location: Loc{start, p.pos}}, nil
}

// parseBracedScalar parses {digits} in the given base.
func (p *parser) parseBracedScalar(start, base int) (Node, error) {
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos + 1}, "expected '}'")
	}
	digits := strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
	v, err := strconv.ParseUint(digits, base, 32)
	p.pos += end + 1
	if err != nil || digits == "" {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "invalid scalar value '%s'", digits)
	}
	r, err := p.checkScalar(v, start)
	if err != nil {
		return nil, err
	}
	return &Atom{Kind: AtomScalar, Scalars: []rune{r}, Location: Loc{start, p.pos}}, nil
}

// parseUnicodeEscape parses \uhhhh and \u{h h ...}; the braced form may hold
// a whitespace-separated scalar sequence.
func (p *parser) parseUnicodeEscape(start int) (Node, error) {
	if p.peek() != '{' {
		return p.parseFixedHex(start, 4)
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos + 1}, "expected '}'")
	}
	fields := strings.Fields(p.src[p.pos+1 : p.pos+end])
	p.pos += end + 1
	if len(fields) == 0 {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "expected hex digits")
	}
	scalars := make([]rune, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 16, 32)
		if err != nil {
			return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "invalid scalar value '%s'", f)
		}
		r, err := p.checkScalar(v, start)
		if err != nil {
			return nil, err
		}
		scalars = append(scalars, r)
	}
	kind := AtomScalar
	if len(scalars) > 1 {
		kind = AtomScalarSequence
	}
	return &Atom{Kind: kind, Scalars: scalars, Location: Loc{start, p.pos}}, nil
}

// parseDelimitedReference parses \k<ref>, \k'ref' and \k{ref}.
func (p *parser) parseDelimitedReference(start int, kind AtomKind, allowLevel bool) (Node, error) {
	var closer byte
	switch p.peek() {
	case '<':
		closer = '>'
	case '\'':
		closer = '\''
	case '{':
		closer = '}'
	default:
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "expected group reference")
	}
	end := strings.IndexByte(p.src[p.pos+1:], closer)
	if end < 0 {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos + 1}, "expected '%c'", closer)
	}
	refLoc := Loc{p.pos + 1, p.pos + 1 + end}
	ref, err := p.parseRefText(p.src[refLoc.Start:refLoc.End], refLoc, allowLevel)
	if err != nil {
		return nil, err
	}
	p.pos = refLoc.End + 1
	return &Atom{Kind: kind, Ref: ref, Location: Loc{start, p.pos}}, nil
}

// parseGEscape parses \g{n}, \gN and \g-N backreferences and \g<...>,
// \g'...' subpattern calls.
func (p *parser) parseGEscape(start int) (Node, error) {
	switch p.peek() {
	case '{':
		return p.parseDelimitedReference(start, AtomBackreference, false)
	case '<', '\'':
		return p.parseDelimitedReference(start, AtomSubpattern, false)
	}
	i := p.pos
	if i < len(p.src) && (p.src[i] == '-' || p.src[i] == '+') {
		i++
	}
	digitStart := i
	for i < len(p.src) && isDigit(p.src[i]) {
		i++
	}
	if i == digitStart {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "expected group reference after \\g")
	}
	refLoc := Loc{p.pos, i}
	ref, err := p.parseRefText(p.src[p.pos:i], refLoc, false)
	if err != nil {
		return nil, err
	}
	p.pos = i
	return &Atom{Kind: AtomBackreference, Ref: ref, Location: Loc{start, p.pos}}, nil
}

// parsePropertyEscape parses \pL, \p{...} and the inverted \P forms.
func (p *parser) parsePropertyEscape(start int, inverted bool) (Node, error) {
	var text string
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return nil, p.errorf(ErrEscape, Loc{start, p.pos + 1}, "expected '}'")
		}
		text = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		if p.eof() {
			return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "expected property name")
		}
		_, w := p.peekRune()
		text = p.src[p.pos : p.pos+w]
		p.pos += w
	}
	prop := classifyProperty(text)
	if inverted {
		prop.Inverted = !prop.Inverted
	}
	return propertyAtom(prop, Loc{start, p.pos}), nil
}

// propertyAtom wraps prop in an atom. Unknown properties become AtomInvalid
// so that the pattern can still be highlighted; the compiler rejects them.
func propertyAtom(prop *Property, loc Loc) *Atom {
	kind := AtomProperty
	if prop.Kind == PropInvalid {
		kind = AtomInvalid
	}
	return &Atom{Kind: kind, Property: prop, Location: loc}
}

// parseNamedCharacter parses \N{NAME} and \N{U+hhhh}.
func (p *parser) parseNamedCharacter(start int) (Node, error) {
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos + 1}, "expected '}'")
	}
	name := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	if hex, ok := strings.CutPrefix(name, "U+"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "invalid scalar value '%s'", hex)
		}
		r, err := p.checkScalar(v, start)
		if err != nil {
			return nil, err
		}
		return &Atom{Kind: AtomNamedCharacter, Name: name, Char: r, Location: Loc{start, p.pos}}, nil
	}
	r, ok := LookupCharacterName(name)
	if !ok {
		return nil, p.errorf(ErrEscape, Loc{start, p.pos}, "unknown character name '%s'", name)
	}
	return &Atom{Kind: AtomNamedCharacter, Name: name, Char: r, Location: Loc{start, p.pos}}, nil
}
