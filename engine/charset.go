package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/runenames"

	"github.com/coregx/regexlab/syntax"
)

// CharSet is a compiled character set: a custom class, a builtin class such
// as \d, or a Unicode property.
type CharSet struct {
	desc  string
	match func(r rune) bool
}

// Matches reports whether r belongs to the set.
func (cs *CharSet) Matches(r rune) bool {
	return cs.match(r)
}

func (cs *CharSet) String() string {
	return cs.desc
}

func newSet(desc string, f func(rune) bool) *CharSet {
	return &CharSet{desc: desc, match: f}
}

// foldSet wraps f so that any case variant of r matches.
func foldSet(f func(rune) bool) func(rune) bool {
	return func(r rune) bool {
		if f(r) {
			return true
		}
		for v := unicode.SimpleFold(r); v != r; v = unicode.SimpleFold(v) {
			if f(v) {
				return true
			}
		}
		return false
	}
}

func not(f func(rune) bool) func(rune) bool {
	return func(r rune) bool { return !f(r) }
}

func inTables(tables ...*unicode.RangeTable) func(rune) bool {
	return func(r rune) bool { return unicode.In(r, tables...) }
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func isASCIIWord(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || isASCIIDigit(r)
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.Is(unicode.M, r) || unicode.Is(unicode.Pc, r)
}

func isHorizontalSpace(r rune) bool {
	switch r {
	case '\t', ' ', 0xA0, 0x1680, 0x180E, 0x202F, 0x205F, 0x3000:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

func isVerticalSpace(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\r', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// builtinSet returns the predicate of a class escape under the given flags.
func builtinSet(e syntax.EscapedBuiltin, flags syntax.OptionSet) (func(rune) bool, bool) {
	asciiDigit := flags.Has(syntax.OptASCIIOnlyDigit)
	asciiSpace := flags.Has(syntax.OptASCIIOnlySpace)
	asciiWord := flags.Has(syntax.OptASCIIOnlyWord)

	digit := unicode.IsDigit
	if asciiDigit {
		digit = isASCIIDigit
	}
	space := unicode.IsSpace
	if asciiSpace {
		space = isASCIISpace
	}
	word := isWordRune
	if asciiWord {
		word = isASCIIWord
	}
	hspace := isHorizontalSpace
	if asciiSpace {
		hspace = func(r rune) bool { return r == ' ' || r == '\t' }
	}
	vspace := isVerticalSpace
	if asciiSpace {
		vspace = func(r rune) bool { return r >= '\n' && r <= '\r' }
	}

	switch e {
	case syntax.EscDecimalDigit:
		return digit, true
	case syntax.EscNotDecimalDigit:
		return not(digit), true
	case syntax.EscWhitespace:
		return space, true
	case syntax.EscNotWhitespace:
		return not(space), true
	case syntax.EscWordCharacter:
		return word, true
	case syntax.EscNotWordCharacter:
		return not(word), true
	case syntax.EscHorizontalWhitespace:
		return hspace, true
	case syntax.EscNotHorizontalWhitespace:
		return not(hspace), true
	case syntax.EscVerticalTab:
		return vspace, true
	case syntax.EscNotVerticalTab:
		return not(vspace), true
	case syntax.EscNotNewline:
		return func(r rune) bool { return r != '\n' }, true
	}
	return nil, false
}

// posixSet returns the predicate of a POSIX class name.
func posixSet(name string, ascii bool) (func(rune) bool, bool) {
	if ascii {
		switch name {
		case "alnum":
			return func(r rune) bool { return isASCIIWord(r) && r != '_' }, true
		case "alpha":
			return func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }, true
		case "blank":
			return func(r rune) bool { return r == ' ' || r == '\t' }, true
		case "cntrl":
			return func(r rune) bool { return r < 0x20 || r == 0x7F }, true
		case "digit":
			return isASCIIDigit, true
		case "graph":
			return func(r rune) bool { return r > 0x20 && r < 0x7F }, true
		case "lower":
			return func(r rune) bool { return r >= 'a' && r <= 'z' }, true
		case "print":
			return func(r rune) bool { return r >= 0x20 && r < 0x7F }, true
		case "punct":
			return func(r rune) bool {
				return r > 0x20 && r < 0x7F && !isASCIIWord(r) || r == '_'
			}, true
		case "space":
			return isASCIISpace, true
		case "upper":
			return func(r rune) bool { return r >= 'A' && r <= 'Z' }, true
		}
	}
	switch name {
	case "alnum":
		return func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }, true
	case "alpha":
		return alphabetic, true
	case "ascii":
		return func(r rune) bool { return r < 0x80 }, true
	case "blank":
		return isHorizontalSpace, true
	case "cntrl":
		return inTables(unicode.Cc), true
	case "digit":
		return unicode.IsDigit, true
	case "graph":
		return graph, true
	case "lower":
		return lowercase, true
	case "print":
		return func(r rune) bool { return graph(r) || isHorizontalSpace(r) && !unicode.Is(unicode.Cc, r) }, true
	case "punct":
		return unicode.IsPunct, true
	case "space":
		return unicode.IsSpace, true
	case "upper":
		return uppercase, true
	case "word":
		if ascii {
			return isASCIIWord, true
		}
		return isWordRune, true
	case "xdigit":
		return func(r rune) bool { return isASCIIDigit(r) || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F' }, true
	}
	return nil, false
}

func alphabetic(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r) || unicode.Is(unicode.Other_Alphabetic, r)
}

func lowercase(r rune) bool {
	return unicode.IsLower(r) || unicode.Is(unicode.Other_Lowercase, r)
}

func uppercase(r rune) bool {
	return unicode.IsUpper(r) || unicode.Is(unicode.Other_Uppercase, r)
}

func assigned(r rune) bool {
	return unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z, unicode.C)
}

func graph(r rune) bool {
	return assigned(r) && !unicode.IsSpace(r) && !unicode.In(r, unicode.Cc, unicode.Cs)
}

// propertySet returns the predicate of a Unicode property, or false when the
// property kind is not supported.
func propertySet(p *syntax.Property, flags syntax.OptionSet) (func(rune) bool, bool) {
	var f func(rune) bool
	switch p.Kind {
	case syntax.PropAny:
		f = func(rune) bool { return true }
	case syntax.PropAssigned:
		f = assigned
	case syntax.PropASCII:
		f = func(r rune) bool { return r < 0x80 }
	case syntax.PropGeneralCategory:
		f = generalCategory(p.Name)
	case syntax.PropScript, syntax.PropScriptExtension:
		if t, ok := unicode.Scripts[p.Name]; ok {
			f = inTables(t)
		}
	case syntax.PropBinary:
		f = binaryProperty(p.Name)
	case syntax.PropNamed:
		want := strings.ToUpper(p.Name)
		f = func(r rune) bool { return runenames.Name(r) == want }
	case syntax.PropPOSIX:
		f, _ = posixSet(p.Name, flags.Has(syntax.OptASCIIOnlyPOSIXProps))
	case syntax.PropPCRESpecial:
		f = pcreSpecial(p.Name)
	}
	if f == nil {
		return nil, false
	}
	if p.Inverted {
		f = not(f)
	}
	return f, true
}

func generalCategory(code string) func(rune) bool {
	switch code {
	case "LC":
		return inTables(unicode.Lu, unicode.Ll, unicode.Lt)
	case "Cn":
		return not(assigned)
	}
	if t, ok := unicode.Categories[code]; ok {
		return inTables(t)
	}
	return nil
}

func binaryProperty(name string) func(rune) bool {
	switch name {
	case "Alphabetic":
		return alphabetic
	case "Lowercase":
		return lowercase
	case "Uppercase":
		return uppercase
	case "Math":
		return func(r rune) bool { return unicode.In(r, unicode.Sm, unicode.Other_Math) }
	case "Any":
		return func(rune) bool { return true }
	}
	if t, ok := unicode.Properties[name]; ok {
		return inTables(t)
	}
	return nil
}

func pcreSpecial(name string) func(rune) bool {
	switch strings.ToLower(name) {
	case "xan":
		return func(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }
	case "xps", "xsp":
		return unicode.IsSpace
	case "xwd":
		return func(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' }
	case "xuc":
		return func(r rune) bool {
			return r == '$' || r == '@' || r == '`' || r >= 0xA0 && !(r >= 0xD800 && r <= 0xDFFF)
		}
	}
	return nil
}
