package syntax

import "fmt"

// AtomKind identifies the kind of an Atom.
type AtomKind uint8

const (
	AtomChar AtomKind = iota
	AtomScalar
	AtomScalarSequence
	AtomProperty
	AtomEscaped
	AtomKeyboardControl
	AtomKeyboardMeta
	AtomKeyboardMetaControl
	AtomNamedCharacter
	AtomAny
	AtomStartOfLine
	AtomEndOfLine
	AtomBackreference
	AtomSubpattern
	AtomCallout
	AtomBacktrackingDirective
	AtomChangeMatchingOptions
	AtomInvalid
)

var atomKindNames = [...]string{
	AtomChar:                  "char",
	AtomScalar:                "scalar",
	AtomScalarSequence:        "scalarSequence",
	AtomProperty:              "property",
	AtomEscaped:               "escaped",
	AtomKeyboardControl:       "keyboardControl",
	AtomKeyboardMeta:          "keyboardMeta",
	AtomKeyboardMetaControl:   "keyboardMetaControl",
	AtomNamedCharacter:        "namedCharacter",
	AtomAny:                   "any",
	AtomStartOfLine:           "startOfLine",
	AtomEndOfLine:             "endOfLine",
	AtomBackreference:         "backreference",
	AtomSubpattern:            "subpattern",
	AtomCallout:               "callout",
	AtomBacktrackingDirective: "backtrackingDirective",
	AtomChangeMatchingOptions: "changeMatchingOptions",
	AtomInvalid:               "invalid",
}

func (k AtomKind) String() string {
	if int(k) < len(atomKindNames) {
		return atomKindNames[k]
	}
	return fmt.Sprintf("AtomKind(%d)", k)
}

// Atom is a leaf of the syntax tree: a character, escape, anchor, property,
// reference or directive.
type Atom struct {
	Kind AtomKind

	// Char is the literal value of AtomChar, AtomNamedCharacter and the
	// keyboard kinds (already combined with the control/meta modifier).
	Char rune
	// Scalars holds the value of AtomScalar (one entry) and
	// AtomScalarSequence (one or more entries).
	Scalars []rune
	// Name is the character name of AtomNamedCharacter, the mark name of a
	// directive, or the text of a callout.
	Name string

	Escaped   EscapedBuiltin
	Property  *Property
	Ref       *Reference
	Directive DirectiveKind
	Options   *OptionSequence

	Location Loc
}

// Literal returns the single character an atom stands for, if any.
func (a *Atom) Literal() (rune, bool) {
	switch a.Kind {
	case AtomChar, AtomNamedCharacter, AtomKeyboardControl, AtomKeyboardMeta, AtomKeyboardMetaControl:
		return a.Char, true
	case AtomScalar:
		return a.Scalars[0], true
	case AtomEscaped:
		return a.Escaped.Scalar()
	}
	return 0, false
}

// EscapedBuiltin is a backslash escape with a fixed meaning.
type EscapedBuiltin uint8

const (
	EscAlarm                  EscapedBuiltin = iota // \a
	EscEscape                                       // \e
	EscFormfeed                                     // \f
	EscNewline                                      // \n
	EscCarriageReturn                               // \r
	EscTab                                          // \t
	EscBackspace                                    // \b in a custom class
	EscSingleDataUnit                               // \C
	EscDecimalDigit                                 // \d
	EscNotDecimalDigit                              // \D
	EscHorizontalWhitespace                         // \h
	EscNotHorizontalWhitespace                      // \H
	EscNotNewline                                   // \N
	EscNewlineSequence                              // \R
	EscWhitespace                                   // \s
	EscNotWhitespace                                // \S
	EscVerticalTab                                  // \v
	EscNotVerticalTab                               // \V
	EscWordCharacter                                // \w
	EscNotWordCharacter                             // \W
	EscGraphemeCluster                              // \X
	EscTrueAnychar                                  // \O
	EscWordBoundary                                 // \b
	EscNotWordBoundary                              // \B
	EscStartOfSubject                               // \A
	EscEndOfSubjectBeforeNewline                    // \Z
	EscEndOfSubject                                 // \z
	EscFirstMatchingPosition                        // \G
	EscResetStartOfMatch                            // \K
	EscTextSegment                                  // \y
	EscNotTextSegment                               // \Y
)

var escapedLetters = [...]byte{
	EscAlarm:                     'a',
	EscEscape:                    'e',
	EscFormfeed:                  'f',
	EscNewline:                   'n',
	EscCarriageReturn:            'r',
	EscTab:                       't',
	EscBackspace:                 'b',
	EscSingleDataUnit:            'C',
	EscDecimalDigit:              'd',
	EscNotDecimalDigit:           'D',
	EscHorizontalWhitespace:      'h',
	EscNotHorizontalWhitespace:   'H',
	EscNotNewline:                'N',
	EscNewlineSequence:           'R',
	EscWhitespace:                's',
	EscNotWhitespace:             'S',
	EscVerticalTab:               'v',
	EscNotVerticalTab:            'V',
	EscWordCharacter:             'w',
	EscNotWordCharacter:          'W',
	EscGraphemeCluster:           'X',
	EscTrueAnychar:               'O',
	EscWordBoundary:              'b',
	EscNotWordBoundary:           'B',
	EscStartOfSubject:            'A',
	EscEndOfSubjectBeforeNewline: 'Z',
	EscEndOfSubject:              'z',
	EscFirstMatchingPosition:     'G',
	EscResetStartOfMatch:         'K',
	EscTextSegment:               'y',
	EscNotTextSegment:            'Y',
}

func (e EscapedBuiltin) String() string {
	if int(e) < len(escapedLetters) {
		return `\` + string(escapedLetters[e])
	}
	return fmt.Sprintf("EscapedBuiltin(%d)", e)
}

// Scalar returns the character value of escapes that denote exactly one
// character (\a \e \f \n \r \t and \b inside a class).
func (e EscapedBuiltin) Scalar() (rune, bool) {
	switch e {
	case EscAlarm:
		return 0x07, true
	case EscEscape:
		return 0x1B, true
	case EscFormfeed:
		return 0x0C, true
	case EscNewline:
		return '\n', true
	case EscCarriageReturn:
		return '\r', true
	case EscTab:
		return '\t', true
	case EscBackspace:
		return 0x08, true
	}
	return 0, false
}

// IsAssertion reports whether the escape is zero-width.
func (e EscapedBuiltin) IsAssertion() bool {
	switch e {
	case EscWordBoundary, EscNotWordBoundary, EscStartOfSubject,
		EscEndOfSubjectBeforeNewline, EscEndOfSubject, EscFirstMatchingPosition,
		EscResetStartOfMatch, EscTextSegment, EscNotTextSegment:
		return true
	}
	return false
}

// RefKind identifies how a reference names its group.
type RefKind uint8

const (
	RefAbsolute RefKind = iota
	RefRelative
	RefNamed
)

// Reference names a capture group by number, relative offset or name.
type Reference struct {
	Kind RefKind
	// Number is the absolute group number for RefAbsolute and the signed
	// offset for RefRelative. The parser resolves relative references into
	// Resolved.
	Number int
	Name   string
	// Resolved is the absolute group number after relative resolution; 0 when
	// unresolved (named references are resolved by the compiler).
	Resolved int
	// RecursionLevel is Oniguruma's \k<name+level> suffix.
	RecursionLevel *int
	Location       Loc
}

// RecursesWholePattern reports whether the reference is to group 0, as in
// (?R) and (?0).
func (r *Reference) RecursesWholePattern() bool {
	return r.Kind == RefAbsolute && r.Number == 0
}

func (r *Reference) String() string {
	switch r.Kind {
	case RefRelative:
		return fmt.Sprintf("%+d", r.Number)
	case RefNamed:
		return r.Name
	}
	return fmt.Sprintf("%d", r.Number)
}

// DirectiveKind is a PCRE backtracking control verb.
type DirectiveKind uint8

const (
	DirAccept DirectiveKind = iota
	DirFail
	DirMark
	DirCommit
	DirPrune
	DirSkip
	DirThen
)

var directiveNames = [...]string{
	DirAccept: "ACCEPT",
	DirFail:   "FAIL",
	DirMark:   "MARK",
	DirCommit: "COMMIT",
	DirPrune:  "PRUNE",
	DirSkip:   "SKIP",
	DirThen:   "THEN",
}

func (d DirectiveKind) String() string {
	if int(d) < len(directiveNames) {
		return directiveNames[d]
	}
	return fmt.Sprintf("DirectiveKind(%d)", d)
}

// ClassStart is the opening of a custom character class.
type ClassStart uint8

const (
	ClassNormal   ClassStart = iota // [
	ClassInverted                   // [^
)

// CustomCharacterClass is a bracketed set [...].
type CustomCharacterClass struct {
	Start    ClassStart
	StartLoc Loc
	Members  []ClassMember
	Location Loc
}

// ClassMember is one element of a custom character class: *Atom, *ClassRange,
// *Quote, *Trivia, *CustomCharacterClass or *SetOperation.
type ClassMember interface {
	Loc() Loc
	classMember()
}

// ClassRange is lhs-rhs inside a class.
type ClassRange struct {
	LHS      *Atom
	DashLoc  Loc
	RHS      *Atom
	Location Loc
}

// SetOp is a set operator inside a class.
type SetOp uint8

const (
	SetIntersection        SetOp = iota // &&
	SetSubtraction                      // --
	SetSymmetricDifference              // ~~
)

func (op SetOp) String() string {
	switch op {
	case SetIntersection:
		return "&&"
	case SetSubtraction:
		return "--"
	case SetSymmetricDifference:
		return "~~"
	}
	return "?"
}

// SetOperation combines two member lists with a set operator. Chains are
// left-associative.
type SetOperation struct {
	LHS      []ClassMember
	Op       SetOp
	OpLoc    Loc
	RHS      []ClassMember
	Location Loc
}

func (n *ClassRange) Loc() Loc   { return n.Location }
func (n *SetOperation) Loc() Loc { return n.Location }

func (*Atom) classMember()                 {}
func (*ClassRange) classMember()           {}
func (*Quote) classMember()                {}
func (*Trivia) classMember()               {}
func (*CustomCharacterClass) classMember() {}
func (*SetOperation) classMember()         {}
