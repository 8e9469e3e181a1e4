package engine

import (
	"fmt"

	"github.com/coregx/regexlab/syntax"
)

// Semantics selects the unit a consuming instruction advances by.
type Semantics uint8

const (
	// GraphemeClusterSemantics consumes extended grapheme clusters.
	GraphemeClusterSemantics Semantics = iota
	// UnicodeScalarSemantics consumes single Unicode scalar values.
	UnicodeScalarSemantics
)

func (s Semantics) String() string {
	if s == UnicodeScalarSemantics {
		return "unicodeScalar"
	}
	return "graphemeCluster"
}

const (
	// DefaultMaxRepetition bounds the counted repetitions {n,m} that are
	// unrolled into the program.
	DefaultMaxRepetition = 1000

	// DefaultMaxInstructions bounds the size of a compiled program.
	DefaultMaxInstructions = 1 << 20
)

// Options configures compilation.
type Options struct {
	// Flags are the matching options in force at the start of the pattern.
	Flags syntax.OptionSet

	Semantics Semantics

	// EnableMetrics makes processors count cycles, resets and backtracks.
	EnableMetrics bool

	// MaxRepetition limits counted repetition bounds. Zero means
	// DefaultMaxRepetition.
	MaxRepetition int

	// MaxInstructions limits the program size. Zero means
	// DefaultMaxInstructions.
	MaxInstructions int
}

// DefaultOptions returns grapheme-cluster semantics with no flags set.
func DefaultOptions() Options {
	return Options{
		Semantics:       GraphemeClusterSemantics,
		MaxRepetition:   DefaultMaxRepetition,
		MaxInstructions: DefaultMaxInstructions,
	}
}

// ParseOptions builds Options from request-level option names. Single
// letters are pattern flags ("i", "m", "s", "x", "n", "U"); the long names
// select ASCII-only classes and the matching semantics. "g" is a matcher
// option and is ignored here.
func ParseOptions(names []string) (Options, error) {
	opts := DefaultOptions()
	for _, name := range names {
		switch name {
		case "i", "m", "s", "x", "n", "U", "J", "w":
			opts.Flags |= syntax.OptionsFromFlags(name)
		case "g":
		case "asciiOnlyWordCharacters":
			opts.Flags = opts.Flags.With(syntax.OptASCIIOnlyWord)
		case "asciiOnlyDigits":
			opts.Flags = opts.Flags.With(syntax.OptASCIIOnlyDigit)
		case "asciiOnlyWhitespace":
			opts.Flags = opts.Flags.With(syntax.OptASCIIOnlySpace)
		case "asciiOnlyCharacterClasses":
			opts.Flags = opts.Flags.
				With(syntax.OptASCIIOnlyWord).
				With(syntax.OptASCIIOnlyDigit).
				With(syntax.OptASCIIOnlySpace).
				With(syntax.OptASCIIOnlyPOSIXProps)
		case "graphemeClusterSemantics":
			opts.Semantics = GraphemeClusterSemantics
		case "unicodeScalarSemantics":
			opts.Semantics = UnicodeScalarSemantics
		default:
			return opts, fmt.Errorf("%w: %q", ErrInvalidOption, name)
		}
	}
	return opts, nil
}
