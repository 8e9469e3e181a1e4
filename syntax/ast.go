// Package syntax parses regular expression patterns into a syntax tree whose
// every node, and every sub-part of a node (delimiters, pipes, range dashes,
// quantifier amounts), carries its exact source location.
//
// Unlike regexp/syntax, the tree is not simplified: it is a faithful record
// of what the user wrote, which is what highlighting and hover tooltips need.
// The grammar is the "traditional" PCRE/Oniguruma/ICU family: groups of all
// kinds, conditionals, quantifiers with reluctant and possessive modifiers,
// Unicode properties, custom character classes with set operations, quotes,
// comments, callouts and backtracking control verbs.
//
// Locations are UTF-8 byte offsets into the pattern.
package syntax

import "fmt"

// Loc is a half-open byte range [Start, End) in the pattern source.
type Loc struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (l Loc) Len() int {
	return l.End - l.Start
}

func (l Loc) String() string {
	return fmt.Sprintf("%d-%d", l.Start, l.End)
}

// Node is a node of the pattern syntax tree.
type Node interface {
	// Loc returns the source range covered by the node.
	Loc() Loc
	node()
}

// AST is the result of parsing a pattern.
type AST struct {
	Root    Node
	Pattern string

	// Options are the matching options in force at the start of the pattern.
	Options OptionSet

	// CaptureCount is the number of capture groups (group 0 excluded).
	CaptureCount int
	// CaptureNames holds one entry per capture group number; index 0 is the
	// whole match and is always "".
	CaptureNames []string
}

// Alternation is a choice between two or more branches: a|b|c.
type Alternation struct {
	Children []Node
	// Pipes holds the location of each '|' separator, len(Children)-1 entries.
	Pipes    []Loc
	Location Loc
}

// Concatenation is a sequence of nodes matched one after another.
type Concatenation struct {
	Children []Node
	Location Loc
}

// GroupType identifies the kind of a parenthesised group.
type GroupType uint8

const (
	GroupCapture GroupType = iota
	GroupNamedCapture
	GroupBalancedCapture
	GroupNonCapture
	GroupBranchReset
	GroupAtomic
	GroupLookahead
	GroupNegativeLookahead
	GroupNonAtomicLookahead
	GroupLookbehind
	GroupNegativeLookbehind
	GroupNonAtomicLookbehind
	GroupScriptRun
	GroupAtomicScriptRun
	GroupChangeOptions
)

var groupTypeNames = [...]string{
	GroupCapture:             "capture",
	GroupNamedCapture:        "namedCapture",
	GroupBalancedCapture:     "balancedCapture",
	GroupNonCapture:          "nonCapture",
	GroupBranchReset:         "branchReset",
	GroupAtomic:              "atomic",
	GroupLookahead:           "lookahead",
	GroupNegativeLookahead:   "negativeLookahead",
	GroupNonAtomicLookahead:  "nonAtomicLookahead",
	GroupLookbehind:          "lookbehind",
	GroupNegativeLookbehind:  "negativeLookbehind",
	GroupNonAtomicLookbehind: "nonAtomicLookbehind",
	GroupScriptRun:           "scriptRun",
	GroupAtomicScriptRun:     "atomicScriptRun",
	GroupChangeOptions:       "changeMatchingOptions",
}

func (t GroupType) String() string {
	if int(t) < len(groupTypeNames) {
		return groupTypeNames[t]
	}
	return fmt.Sprintf("GroupType(%d)", t)
}

// IsCapturing reports whether the group consumes a capture number.
func (t GroupType) IsCapturing() bool {
	return t == GroupCapture || t == GroupNamedCapture || t == GroupBalancedCapture
}

// IsLookaround reports whether the group is a zero-width assertion.
func (t GroupType) IsLookaround() bool {
	switch t {
	case GroupLookahead, GroupNegativeLookahead, GroupNonAtomicLookahead,
		GroupLookbehind, GroupNegativeLookbehind, GroupNonAtomicLookbehind:
		return true
	}
	return false
}

// IsLookbehind reports whether the group asserts on text before the position.
func (t GroupType) IsLookbehind() bool {
	return t == GroupLookbehind || t == GroupNegativeLookbehind || t == GroupNonAtomicLookbehind
}

// IsNegative reports whether the group is a negative lookaround.
func (t GroupType) IsNegative() bool {
	return t == GroupNegativeLookahead || t == GroupNegativeLookbehind
}

// GroupKind describes the opening of a group.
type GroupKind struct {
	Type GroupType
	// Name is the capture name for named and balanced captures.
	Name string
	// PriorName is the group popped by a balanced capture (?<name-prior>...).
	PriorName string
	// Options is set for GroupChangeOptions.
	Options *OptionSequence
}

// Group is a parenthesised sub-expression.
type Group struct {
	Kind GroupKind
	// KindLoc is the location of the opening delimiter, e.g. "(?:" or "(?<name>".
	KindLoc Loc
	Child   Node
	// Number is the capture group number for capturing groups, 0 otherwise.
	Number   int
	Location Loc
}

// ConditionKind identifies the test of a conditional.
type ConditionKind uint8

const (
	// CondGroupMatched tests whether a capture group has participated: (?(1)...).
	CondGroupMatched ConditionKind = iota
	// CondRecursionCheck tests whether the engine is inside any recursion: (?(R)...).
	CondRecursionCheck
	// CondGroupRecursionCheck tests recursion into a given group: (?(R1)...).
	CondGroupRecursionCheck
	// CondDefine declares subpatterns without matching them: (?(DEFINE)...).
	CondDefine
	// CondVersionCheck compares the engine version: (?(VERSION>=10.3)...).
	CondVersionCheck
	// CondGroup uses a lookaround as the test: (?(?=x)...).
	CondGroup
)

var conditionKindNames = [...]string{
	CondGroupMatched:        "groupMatched",
	CondRecursionCheck:      "recursionCheck",
	CondGroupRecursionCheck: "groupRecursionCheck",
	CondDefine:              "defineGroup",
	CondVersionCheck:        "versionCheck",
	CondGroup:               "group",
}

func (k ConditionKind) String() string {
	if int(k) < len(conditionKindNames) {
		return conditionKindNames[k]
	}
	return fmt.Sprintf("ConditionKind(%d)", k)
}

// Condition is the test clause of a conditional.
type Condition struct {
	Kind ConditionKind
	// Ref is the group tested by CondGroupMatched and CondGroupRecursionCheck.
	Ref *Reference
	// Group is the lookaround used by CondGroup.
	Group *Group
	// Version is the raw version comparison text for CondVersionCheck.
	Version string
	// Location covers the test text between "(?(" and ")" or, for CondGroup,
	// the whole lookaround group.
	Location Loc
}

// Conditional is (?(condition)true|false).
type Conditional struct {
	Condition   Condition
	TrueBranch  Node
	Pipe        *Loc
	FalseBranch Node
	Location    Loc
}

// AmountType identifies a quantifier's repetition bounds.
type AmountType uint8

const (
	ZeroOrMore AmountType = iota // *
	OneOrMore                    // +
	ZeroOrOne                    // ?
	Exactly                      // {n}
	NOrMore                      // {n,}
	UpToN                        // {,n}
	Range                        // {n,m}
)

// Number is an integer literal in the pattern together with its location.
type Number struct {
	Value    int
	Location Loc
}

// Amount is a quantifier's bound specifier.
type Amount struct {
	Type AmountType
	N    *Number
	M    *Number
}

// Bounds returns the minimum and maximum repetition counts; max is -1 when
// the repetition is unbounded.
func (a Amount) Bounds() (lo, hi int) {
	switch a.Type {
	case ZeroOrMore:
		return 0, -1
	case OneOrMore:
		return 1, -1
	case ZeroOrOne:
		return 0, 1
	case Exactly:
		return a.N.Value, a.N.Value
	case NOrMore:
		return a.N.Value, -1
	case UpToN:
		return 0, a.N.Value
	case Range:
		return a.N.Value, a.M.Value
	}
	return 0, -1
}

// QuantKind is the matching behavior of a quantifier.
type QuantKind uint8

const (
	Eager QuantKind = iota
	Reluctant
	Possessive
)

func (k QuantKind) String() string {
	switch k {
	case Eager:
		return "eager"
	case Reluctant:
		return "reluctant"
	case Possessive:
		return "possessive"
	}
	return fmt.Sprintf("QuantKind(%d)", k)
}

// Quantification repeats its child.
type Quantification struct {
	Amount    Amount
	AmountLoc Loc
	Kind      QuantKind
	// KindLoc is the location of the '?' or '+' modifier; zero-width for Eager.
	KindLoc  Loc
	Child    Node
	Location Loc
}

// Quote is a \Q...\E literal sequence.
type Quote struct {
	Literal  string
	Location Loc
}

// Trivia is a comment or, in extended mode, insignificant whitespace.
type Trivia struct {
	Contents string
	Location Loc
}

// Interpolation is a <{...}> placeholder for host-language interpolation.
type Interpolation struct {
	Contents string
	Location Loc
}

// AbsentKind identifies the form of an Oniguruma absent function.
type AbsentKind uint8

const (
	// AbsentRepeater is (?~absent).
	AbsentRepeater AbsentKind = iota
	// AbsentExpression is (?~|absent|expr).
	AbsentExpression
	// AbsentStopper is (?~|absent).
	AbsentStopper
	// AbsentClearer is (?~|).
	AbsentClearer
)

// AbsentFunction is an Oniguruma absent function.
type AbsentFunction struct {
	Kind AbsentKind
	// Start is the opening delimiter, "(?~" or "(?~|".
	Start    Loc
	Absentee Node
	Pipe     *Loc
	Expr     Node
	Location Loc
}

// Empty is an empty branch or pattern.
type Empty struct {
	Location Loc
}

func (n *Alternation) Loc() Loc          { return n.Location }
func (n *Concatenation) Loc() Loc        { return n.Location }
func (n *Group) Loc() Loc                { return n.Location }
func (n *Conditional) Loc() Loc          { return n.Location }
func (n *Quantification) Loc() Loc       { return n.Location }
func (n *Quote) Loc() Loc                { return n.Location }
func (n *Trivia) Loc() Loc               { return n.Location }
func (n *Interpolation) Loc() Loc        { return n.Location }
func (n *Atom) Loc() Loc                 { return n.Location }
func (n *CustomCharacterClass) Loc() Loc { return n.Location }
func (n *AbsentFunction) Loc() Loc       { return n.Location }
func (n *Empty) Loc() Loc                { return n.Location }

func (*Alternation) node()          {}
func (*Concatenation) node()        {}
func (*Group) node()                {}
func (*Conditional) node()          {}
func (*Quantification) node()       {}
func (*Quote) node()                {}
func (*Trivia) node()               {}
func (*Interpolation) node()        {}
func (*Atom) node()                 {}
func (*CustomCharacterClass) node() {}
func (*AbsentFunction) node()       {}
func (*Empty) node()                {}

// Children returns the direct sub-expressions of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Alternation:
		return n.Children
	case *Concatenation:
		return n.Children
	case *Group:
		return []Node{n.Child}
	case *Conditional:
		var out []Node
		if n.Condition.Group != nil {
			out = append(out, n.Condition.Group)
		}
		return append(out, n.TrueBranch, n.FalseBranch)
	case *Quantification:
		return []Node{n.Child}
	case *AbsentFunction:
		var out []Node
		if n.Absentee != nil {
			out = append(out, n.Absentee)
		}
		if n.Expr != nil {
			out = append(out, n.Expr)
		}
		return out
	}
	return nil
}

// Inspect traverses the tree rooted at n in pre-order, calling f for each
// node. If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
