package syntax

import "strings"

// OptionKind is a single matching option that can be toggled inside a
// pattern with (?flags) or (?flags:...).
type OptionKind uint8

const (
	OptCaseInsensitive        OptionKind = iota // i
	OptAllowDuplicateNames                      // J
	OptMultiline                                // m
	OptNamedCapturesOnly                        // n
	OptSingleLine                               // s
	OptReluctantByDefault                       // U
	OptExtended                                 // x
	OptExtraExtended                            // xx
	OptUnicodeWordBoundaries                    // w
	OptASCIIOnlyDigit                           // D
	OptASCIIOnlyPOSIXProps                      // P
	OptASCIIOnlySpace                           // S
	OptASCIIOnlyWord                            // W
	OptGraphemeTextSegments                     // y{g}
	OptWordTextSegments                         // y{w}
)

var optionSpellings = [...]string{
	OptCaseInsensitive:       "i",
	OptAllowDuplicateNames:   "J",
	OptMultiline:             "m",
	OptNamedCapturesOnly:     "n",
	OptSingleLine:            "s",
	OptReluctantByDefault:    "U",
	OptExtended:              "x",
	OptExtraExtended:         "xx",
	OptUnicodeWordBoundaries: "w",
	OptASCIIOnlyDigit:        "D",
	OptASCIIOnlyPOSIXProps:   "P",
	OptASCIIOnlySpace:        "S",
	OptASCIIOnlyWord:         "W",
	OptGraphemeTextSegments:  "y{g}",
	OptWordTextSegments:      "y{w}",
}

func (k OptionKind) String() string {
	if int(k) < len(optionSpellings) {
		return optionSpellings[k]
	}
	return "?"
}

// OptionSet is a set of OptionKind values.
type OptionSet uint32

// Has reports whether k is in the set.
func (s OptionSet) Has(k OptionKind) bool {
	return s&(1<<k) != 0
}

// With returns s with k added.
func (s OptionSet) With(k OptionKind) OptionSet {
	return s | 1<<k
}

// Without returns s with k removed.
func (s OptionSet) Without(k OptionKind) OptionSet {
	return s &^ (1 << k)
}

// String renders the set as pattern flag letters, e.g. "imx".
func (s OptionSet) String() string {
	var b strings.Builder
	for k := OptionKind(0); int(k) < len(optionSpellings); k++ {
		if s.Has(k) {
			b.WriteString(optionSpellings[k])
		}
	}
	return b.String()
}

// MatchingOption is one flag of an option sequence with its location.
type MatchingOption struct {
	Kind     OptionKind
	Location Loc
}

// OptionSequence is the flag list of (?^imx-s) or (?i:...).
type OptionSequence struct {
	// Caret is set for (?^...), which resets all options to their defaults
	// before applying Adding.
	Caret    *Loc
	Adding   []MatchingOption
	Minus    *Loc
	Removing []MatchingOption
}

// Apply returns cur with the sequence applied.
func (seq *OptionSequence) Apply(cur OptionSet) OptionSet {
	if seq.Caret != nil {
		// (?^) resets to defaults, which keeps only the non-toggleable
		// semantic-level options.
		cur &= OptionSet(0).With(OptGraphemeTextSegments).With(OptWordTextSegments)
	}
	for _, o := range seq.Adding {
		cur = cur.With(o.Kind)
		if o.Kind == OptExtraExtended {
			cur = cur.With(OptExtended)
		}
	}
	for _, o := range seq.Removing {
		cur = cur.Without(o.Kind)
		if o.Kind == OptExtended {
			cur = cur.Without(OptExtraExtended)
		}
	}
	return cur
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Initial is the option set in force at the start of the pattern, typically
	// built from request flags with OptionsFromFlags.
	Initial OptionSet
	// MaxDepth bounds group nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultMaxDepth is the default nesting limit of the parser.
const DefaultMaxDepth = 250

// OptionsFromFlags converts request-level flag letters ("imsxnU") into an
// OptionSet. Unknown letters are ignored.
func OptionsFromFlags(flags string) OptionSet {
	var s OptionSet
	for _, c := range flags {
		switch c {
		case 'i':
			s = s.With(OptCaseInsensitive)
		case 'm':
			s = s.With(OptMultiline)
		case 's':
			s = s.With(OptSingleLine)
		case 'x':
			s = s.With(OptExtended)
		case 'n':
			s = s.With(OptNamedCapturesOnly)
		case 'U':
			s = s.With(OptReluctantByDefault)
		case 'J':
			s = s.With(OptAllowDuplicateNames)
		case 'w':
			s = s.With(OptUnicodeWordBoundaries)
		}
	}
	return s
}
