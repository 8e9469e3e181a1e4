// Package annotate turns a parsed pattern into a flat list of source-located
// tokens carrying highlighting classes, hover tooltips and cross references.
//
// Every span in a Token is expressed in UTF-16 code units of the pattern.
package annotate

import (
	"fmt"

	"github.com/coregx/regexlab/span"
	"github.com/coregx/regexlab/syntax"
)

// Token decorates one part of the pattern.
type Token struct {
	// Classes are the rendering tags; the first one is the primary class.
	Classes []string `json:"classes"`
	// Location is the substring this token decorates.
	Location span.Span `json:"location"`
	// Selection is the whole construct the token belongs to, highlighted on
	// hover. Nil means Location.
	Selection *span.Span `json:"selection,omitempty"`
	// Related cross-references another construct, such as the operand of a
	// quantifier.
	Related *Related `json:"related,omitempty"`
	Tooltip *Tooltip `json:"tooltip,omitempty"`
}

// SelectionSpan returns Selection, defaulting to Location.
func (t Token) SelectionSpan() span.Span {
	if t.Selection != nil {
		return *t.Selection
	}
	return t.Location
}

func (t Token) String() string {
	return fmt.Sprintf("%v %s", t.Classes, t.Location)
}

// Related is a cross reference to another part of the pattern.
type Related struct {
	Location span.Span `json:"location"`
}

// Tooltip references an entry of an external documentation table. The
// substitution values replace the template variables of that entry
// verbatim.
type Tooltip struct {
	Category     string            `json:"category"`
	Key          string            `json:"key"`
	Substitution map[string]string `json:"substitution"`
}

func (t *Tooltip) String() string {
	return fmt.Sprintf("%s.%s %v", t.Category, t.Key, t.Substitution)
}

// Options configures the annotator.
type Options struct {
	// CaseInsensitive selects the case note rendered for literal characters.
	CaseInsensitive bool

	// Syntax holds the options in force at the start of the pattern when
	// Pattern parses it, e.g. extended mode.
	Syntax syntax.OptionSet
}

// OptionsFromFlags builds Options from request flag names such as "i" and
// "x". Unknown names are ignored.
func OptionsFromFlags(flags []string) Options {
	var opts Options
	for _, f := range flags {
		opts.Syntax |= syntax.OptionsFromFlags(f)
	}
	opts.CaseInsensitive = opts.Syntax.Has(syntax.OptCaseInsensitive)
	return opts
}

// Diagnostic behaviors.
const (
	BehaviorFatal   = "Fatal Error"
	BehaviorError   = "Error"
	BehaviorWarning = "Warning"
)

// Diagnostic is a located problem report.
type Diagnostic struct {
	Behavior string    `json:"behavior"`
	Message  string    `json:"message"`
	Location span.Span `json:"location"`
}

// Result is the outcome of Pattern: tokens for a valid pattern, diagnostics
// otherwise.
type Result struct {
	Tokens      []Token      `json:"tokens"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
