package annotate

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/runenames"

	"github.com/coregx/regexlab/syntax"
)

// atomKey is the closed variant of an atom the table is keyed by: the atom
// kind plus the sub-kind that selects its rendering (escape, property kind,
// reference kind or directive).
type atomKey struct {
	kind syntax.AtomKind
	sub  uint8
}

// substFunc computes the template values of an atom's tooltip.
type substFunc func(a *annotator, atom *syntax.Atom) map[string]string

type atomEntry struct {
	class    string
	category string
	key      string
	subst    substFunc
}

// Sub-kinds of atoms that are not distinguished by an enum of their own.
const (
	subPlain    uint8 = 0
	subEscaped  uint8 = 1
	subWhole    uint8 = 1
	subNotWhole uint8 = 0
)

func esc(e syntax.EscapedBuiltin) atomKey {
	return atomKey{syntax.AtomEscaped, uint8(e)}
}

func prop(k syntax.PropertyKind) atomKey {
	return atomKey{syntax.AtomProperty, uint8(k)}
}

func ref(k syntax.RefKind) atomKey {
	return atomKey{syntax.AtomBackreference, uint8(k)}
}

func verb(d syntax.DirectiveKind) atomKey {
	return atomKey{syntax.AtomBacktrackingDirective, uint8(d)}
}

func plain(k syntax.AtomKind) atomKey {
	return atomKey{k, subPlain}
}

var atomTable = map[atomKey]atomEntry{
	plain(syntax.AtomChar):                         {"char", "misc", "char", charSubst},
	{syntax.AtomChar, subEscaped}:                  {"esc", "misc", "escchar", charSubst},
	plain(syntax.AtomScalar):                       {"char", "misc", "char", charSubst},
	plain(syntax.AtomScalarSequence):               {"char", "misc", "char", charSubst},
	plain(syntax.AtomNamedCharacter):               {"charclass", "charclass", "namedcharacter", charSubst},
	plain(syntax.AtomKeyboardControl):              {"charclass", "charclass", "keyboardcontrol", charSubst},
	plain(syntax.AtomKeyboardMeta):                 {"charclass", "charclass", "keyboardmeta", charSubst},
	plain(syntax.AtomKeyboardMetaControl):          {"charclass", "charclass", "keyboardmetacontrol", charSubst},
	plain(syntax.AtomAny):                          {"charclass", "charclasses", "dot", nil},
	plain(syntax.AtomStartOfLine):                  {"anchor", "anchors", "bof", nil},
	plain(syntax.AtomEndOfLine):                    {"anchor", "anchors", "eof", nil},
	plain(syntax.AtomCallout):                      {"charclass", "charclasses", "callout", nil},
	plain(syntax.AtomChangeMatchingOptions):        {"special", "other", "mode", modeSubst},
	plain(syntax.AtomInvalid):                      {"charclass", "charclasses", "invalid", nil},
	{syntax.AtomSubpattern, subWhole}:              {"special", "other", "recursion", nil},
	{syntax.AtomSubpattern, subNotWhole}:           {"charclass", "charclasses", "subpattern", refSubst},
	ref(syntax.RefAbsolute):                        {"ref", "groups", "numref", refSubst},
	ref(syntax.RefRelative):                        {"ref", "groups", "numref", refSubst},
	ref(syntax.RefNamed):                           {"ref", "groups", "namedref", refSubst},
	verb(syntax.DirAccept):                         {"charclass", "charclass", "accept", nil},
	verb(syntax.DirFail):                           {"charclass", "charclass", "fail", nil},
	verb(syntax.DirMark):                           {"charclass", "charclass", "mark", markSubst},
	verb(syntax.DirCommit):                         {"charclass", "charclass", "commit", nil},
	verb(syntax.DirPrune):                          {"charclass", "charclass", "prune", nil},
	verb(syntax.DirSkip):                           {"charclass", "charclass", "skip", nil},
	verb(syntax.DirThen):                           {"charclass", "charclass", "then", nil},
	esc(syntax.EscAlarm):                           {"esc", "misc", "escchar", escName("ALARM")},
	esc(syntax.EscEscape):                          {"esc", "misc", "escchar", escName("ESCAPE")},
	esc(syntax.EscFormfeed):                        {"esc", "misc", "escchar", escName("FORM FEED")},
	esc(syntax.EscNewline):                         {"esc", "misc", "escchar", escName("LINE FEED")},
	esc(syntax.EscCarriageReturn):                  {"esc", "misc", "escchar", escName("CARRIAGE RETURN")},
	esc(syntax.EscTab):                             {"esc", "misc", "escchar", escName("TAB")},
	esc(syntax.EscBackspace):                       {"esc", "misc", "escchar", escName("BACKSPACE")},
	esc(syntax.EscSingleDataUnit):                  {"esc", "misc", "escchar", escName("SINGLE DATA UNIT")},
	esc(syntax.EscDecimalDigit):                    {"charclass", "charclasses", "digit", nil},
	esc(syntax.EscNotDecimalDigit):                 {"charclass", "charclasses", "notdigit", nil},
	esc(syntax.EscHorizontalWhitespace):            {"charclass", "charclasses", "hwhitespace", nil},
	esc(syntax.EscNotHorizontalWhitespace):         {"charclass", "charclasses", "nothwhitespace", nil},
	esc(syntax.EscNotNewline):                      {"charclass", "charclasses", "notlinebreak", nil},
	esc(syntax.EscNewlineSequence):                 {"charclass", "charclasses", "linebreak", nil},
	esc(syntax.EscWhitespace):                      {"charclass", "charclasses", "whitespace", nil},
	esc(syntax.EscNotWhitespace):                   {"charclass", "charclasses", "notwhitespace", nil},
	esc(syntax.EscVerticalTab):                     {"charclass", "charclasses", "vwhitespace", nil},
	esc(syntax.EscNotVerticalTab):                  {"charclass", "charclasses", "notvwhitespace", nil},
	esc(syntax.EscWordCharacter):                   {"charclass", "charclasses", "word", nil},
	esc(syntax.EscNotWordCharacter):                {"charclass", "charclasses", "notword", nil},
	esc(syntax.EscGraphemeCluster):                 {"charclass", "charclasses", "graphemecluster", nil},
	esc(syntax.EscTrueAnychar):                     {"charclass", "charclass", "trueanychar", nil},
	esc(syntax.EscWordBoundary):                    {"anchor", "anchors", "wordboundary", nil},
	esc(syntax.EscNotWordBoundary):                 {"anchor", "anchors", "notwordboundary", nil},
	esc(syntax.EscStartOfSubject):                  {"anchor", "anchors", "bos", nil},
	esc(syntax.EscEndOfSubjectBeforeNewline):       {"anchor", "anchors", "eos", nil},
	esc(syntax.EscEndOfSubject):                    {"anchor", "anchors", "abseos", nil},
	esc(syntax.EscFirstMatchingPosition):           {"anchor", "anchors", "prevmatchend", nil},
	esc(syntax.EscResetStartOfMatch):               {"charclass", "lookaround", "keepout", nil},
	esc(syntax.EscTextSegment):                     {"charclass", "charclass", "textsegment", nil},
	esc(syntax.EscNotTextSegment):                  {"charclass", "charclass", "nottextsegment", nil},
	prop(syntax.PropAny):                           {"charclass", "misc", "any", nil},
	prop(syntax.PropAssigned):                      {"charclass", "misc", "assigned", nil},
	prop(syntax.PropASCII):                         {"charclass", "misc", "ascii", nil},
	prop(syntax.PropGeneralCategory):               {"charclass", "charclasses", "unicodecat", uniCatSubst},
	prop(syntax.PropBinary):                        {"charclass", "charclasses", "binary", propSubst},
	prop(syntax.PropScript):                        {"charclass", "charclasses", "script", propSubst},
	prop(syntax.PropScriptExtension):               {"charclass", "charclasses", "scriptextension", propSubst},
	prop(syntax.PropNamed):                         {"charclass", "charclasses", "named", propSubst},
	prop(syntax.PropNumericType):                   {"charclass", "charclasses", "numerictype", propSubst},
	prop(syntax.PropNumericValue):                  {"charclass", "charclasses", "numericvalue", propSubst},
	prop(syntax.PropMapping):                       {"charclass", "charclasses", "mapping", propSubst},
	prop(syntax.PropCCC):                           {"charclass", "charclasses", "ccc", propSubst},
	prop(syntax.PropAge):                           {"charclass", "charclasses", "age", propSubst},
	prop(syntax.PropBlock):                         {"charclass", "charclasses", "block", propSubst},
	prop(syntax.PropPOSIX):                         {"charclass", "charclasses", "posixcharclass", propSubst},
	prop(syntax.PropPCRESpecial):                   {"charclass", "pcreSpecial", "pcrespecial", propSubst},
	prop(syntax.PropJavaSpecial):                   {"charclass", "javaSpecial", "javaspecial", propSubst},
	prop(syntax.PropInvalid):                       {"charclass", "charclasses", "invalid", nil},
}

// keyOf returns the table key of an atom.
func (a *annotator) keyOf(atom *syntax.Atom) atomKey {
	switch atom.Kind {
	case syntax.AtomChar:
		if strings.HasPrefix(a.source(atom.Location), `\`) {
			return atomKey{syntax.AtomChar, subEscaped}
		}
	case syntax.AtomEscaped:
		return esc(atom.Escaped)
	case syntax.AtomProperty:
		return prop(atom.Property.Kind)
	case syntax.AtomBackreference:
		return ref(atom.Ref.Kind)
	case syntax.AtomSubpattern:
		if atom.Ref != nil && atom.Ref.RecursesWholePattern() {
			return atomKey{syntax.AtomSubpattern, subWhole}
		}
		return atomKey{syntax.AtomSubpattern, subNotWhole}
	case syntax.AtomBacktrackingDirective:
		return verb(atom.Directive)
	}
	return plain(atom.Kind)
}

// lookupAtom returns the table entry of an atom. Every atom the parser
// produces has an entry; the invalid entry is the fallback.
func (a *annotator) lookupAtom(atom *syntax.Atom) atomEntry {
	if e, ok := atomTable[a.keyOf(atom)]; ok {
		return e
	}
	return atomTable[plain(syntax.AtomInvalid)]
}

// atomRunes returns the characters an atom stands for.
func atomRunes(atom *syntax.Atom) []rune {
	if atom.Kind == syntax.AtomScalarSequence {
		return atom.Scalars
	}
	if r, ok := atom.Literal(); ok {
		return []rune{r}
	}
	return nil
}

func codePoints(runes []rune) string {
	codes := make([]string, len(runes))
	for i, r := range runes {
		codes[i] = fmt.Sprintf("U+%X", r)
	}
	return strings.Join(codes, " ")
}

func quoted(s string) string {
	return `"` + s + `"`
}

func charSubst(a *annotator, atom *syntax.Atom) map[string]string {
	runes := atomRunes(atom)
	sub := map[string]string{
		"{{getChar()}}":        quoted(string(runes)),
		"{{code}}":             codePoints(runes),
		"{{getInsensitive()}}": a.caseNote(),
	}
	if len(runes) == 1 {
		if name := runenames.Name(runes[0]); name != "" {
			sub["{{name}}"] = name
		}
	}
	return sub
}

func escName(name string) substFunc {
	return func(*annotator, *syntax.Atom) map[string]string {
		return map[string]string{"{{getChar}}": name}
	}
}

func uniCatSubst(_ *annotator, atom *syntax.Atom) map[string]string {
	name := syntax.GeneralCategoryNames[atom.Property.Name]
	if name == "" {
		name = atom.Property.Name
	}
	return map[string]string{"{{getUniCat()}}": name}
}

func propSubst(_ *annotator, atom *syntax.Atom) map[string]string {
	value := atom.Property.Name
	if value == "" {
		value = atom.Property.Value
	}
	return map[string]string{"{{value}}": value}
}

func refSubst(_ *annotator, atom *syntax.Atom) map[string]string {
	r := atom.Ref
	if r == nil {
		return nil
	}
	if r.Kind == syntax.RefNamed {
		return map[string]string{"{{group.name}}": r.Name}
	}
	return map[string]string{"{{group.num}}": fmt.Sprintf("%d", r.Number)}
}

func markSubst(_ *annotator, atom *syntax.Atom) map[string]string {
	return map[string]string{"{{name}}": atom.Name}
}

func modeSubst(*annotator, *syntax.Atom) map[string]string {
	return map[string]string{
		"{{~getDesc()}}": "Enables or disables modes for the remainder of the expression.",
	}
}

// groupEntry describes the tooltip of a group kind and whether the group
// takes a capture number.
type groupEntry struct {
	category  string
	key       string
	capturing bool
}

var groupTable = map[syntax.GroupType]groupEntry{
	syntax.GroupCapture:             {"groups", "group", true},
	syntax.GroupNamedCapture:        {"groups", "namedgroup", true},
	syntax.GroupBalancedCapture:     {"groups", "balancedcapture", true},
	syntax.GroupNonCapture:          {"groups", "noncapgroup", false},
	syntax.GroupBranchReset:         {"groups", "branchreset", false},
	syntax.GroupAtomic:              {"groups", "atomic", false},
	syntax.GroupLookahead:           {"lookaround", "poslookahead", false},
	syntax.GroupNegativeLookahead:   {"lookaround", "neglookahead", false},
	syntax.GroupNonAtomicLookahead:  {"lookaround", "nonatomicposlookahead", false},
	syntax.GroupLookbehind:          {"lookaround", "poslookbehind", false},
	syntax.GroupNegativeLookbehind:  {"lookaround", "neglookbehind", false},
	syntax.GroupNonAtomicLookbehind: {"lookaround", "nonatomicposlookbehind", false},
	syntax.GroupScriptRun:           {"groups", "scriptrun", false},
	syntax.GroupAtomicScriptRun:     {"groups", "atomicscriptrun", false},
	syntax.GroupChangeOptions:       {"other", "mode", false},
}

// conditionTable holds the tooltip key of each non-lookaround condition.
var conditionTable = map[syntax.ConditionKind]string{
	syntax.CondGroupMatched:        "conditionalgroup",
	syntax.CondRecursionCheck:      "recursion",
	syntax.CondGroupRecursionCheck: "recursion",
	syntax.CondDefine:              "define",
	syntax.CondVersionCheck:        "versioncheck",
}

// quantText renders the bounds of a quantifier, reading numbers from the
// pattern so that leading zeros are kept.
func (a *annotator) quantText(amt syntax.Amount) string {
	num := func(n *syntax.Number) string {
		if n == nil {
			return "?"
		}
		return a.source(n.Location)
	}
	switch amt.Type {
	case syntax.ZeroOrMore:
		return "0 or more"
	case syntax.OneOrMore:
		return "1 or more"
	case syntax.ZeroOrOne:
		return "between 0 and 1"
	case syntax.Exactly:
		return num(amt.N)
	case syntax.NOrMore:
		return num(amt.N) + " or more"
	case syntax.UpToN:
		return "between 0 and " + num(amt.N)
	case syntax.Range:
		return "between " + num(amt.N) + " and " + num(amt.M)
	}
	return ""
}
