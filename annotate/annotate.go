package annotate

import (
	"errors"
	"fmt"

	"github.com/coregx/regexlab/span"
	"github.com/coregx/regexlab/syntax"
)

// annotator walks a syntax tree and collects tokens.
type annotator struct {
	pattern string
	index   *span.Index
	opts    Options
	tokens  []Token

	// depth is the group nesting level used for group-<depth> classes.
	depth int
	// groupCount numbers capturing groups for display.
	groupCount int
}

// Annotate returns the tokens of a parsed pattern in source order. The
// pattern string must be the one tree was parsed from; its byte offsets are
// converted to UTF-16.
func Annotate(tree syntax.Node, pattern string, opts Options) []Token {
	a := &annotator{
		pattern: pattern,
		index:   span.NewIndex(pattern),
		opts:    opts,
	}
	a.emitNode(tree)
	return a.tokens
}

// Pattern parses pattern and annotates it. A pattern that fails to parse
// yields no tokens and one diagnostic located at the offending text.
func Pattern(pattern string, opts Options) Result {
	ast, err := syntax.Parse(pattern, syntax.ParseOptions{Initial: opts.Syntax})
	if err != nil {
		return Result{
			Tokens:      []Token{},
			Diagnostics: []Diagnostic{ParseDiagnostic(pattern, err)},
		}
	}
	return Result{Tokens: Annotate(ast.Root, pattern, opts)}
}

// ParseDiagnostic converts a parse error into a diagnostic with a UTF-16
// location.
func ParseDiagnostic(pattern string, err error) Diagnostic {
	var se *syntax.Error
	if errors.As(err, &se) {
		ix := span.NewIndex(pattern)
		return Diagnostic{
			Behavior: BehaviorError,
			Message:  se.Message,
			Location: ix.Span(se.Location.Start, se.Location.End),
		}
	}
	return Diagnostic{Behavior: BehaviorError, Message: err.Error()}
}

func (a *annotator) source(l syntax.Loc) string {
	if l.Start < 0 || l.End > len(a.pattern) || l.Start > l.End {
		return ""
	}
	return a.pattern[l.Start:l.End]
}

func (a *annotator) span(l syntax.Loc) span.Span {
	return a.index.Span(l.Start, l.End)
}

func (a *annotator) spanPtr(l syntax.Loc) *span.Span {
	s := a.span(l)
	return &s
}

func (a *annotator) related(l syntax.Loc) *Related {
	return &Related{Location: a.span(l)}
}

func (a *annotator) caseNote() string {
	if a.opts.CaseInsensitive {
		return "Case insensitive"
	}
	return "Case sensitive"
}

func tooltip(category, key string, sub map[string]string) *Tooltip {
	if sub == nil {
		sub = map[string]string{}
	}
	return &Tooltip{Category: category, Key: key, Substitution: sub}
}

func (a *annotator) groupClass() string {
	return fmt.Sprintf("group-%d", a.depth)
}

// emit appends a token whose selection is its own location.
func (a *annotator) emit(classes []string, loc syntax.Loc, tip *Tooltip) {
	a.tokens = append(a.tokens, Token{
		Classes:   classes,
		Location:  a.span(loc),
		Selection: a.spanPtr(loc),
		Tooltip:   tip,
	})
}

func (a *annotator) emitNode(n syntax.Node) {
	switch n := n.(type) {
	case *syntax.Alternation:
		a.emitAlternation(n)
	case *syntax.Concatenation:
		for _, child := range n.Children {
			a.emitNode(child)
		}
	case *syntax.Group:
		a.emitGroup(n)
	case *syntax.Conditional:
		a.emitConditional(n)
	case *syntax.Quantification:
		a.emitQuantification(n)
	case *syntax.Quote:
		a.emitQuote(n)
	case *syntax.Trivia:
		a.emit([]string{"comment"}, n.Location, tooltip("other", "comment", nil))
	case *syntax.Interpolation:
		a.emit([]string{"interpolation"}, n.Location, tooltip("other", "interpolation", nil))
	case *syntax.Atom:
		a.emitAtom(n)
	case *syntax.CustomCharacterClass:
		a.emitClass(n)
	case *syntax.AbsentFunction:
		a.emitAbsent(n)
	case *syntax.Empty:
		a.emit([]string{"empty"}, n.Location, tooltip("empty", "empty", nil))
	}
}

// emitAlternation emits each pipe after the branch it follows; every pipe
// relates to the whole alternation.
func (a *annotator) emitAlternation(n *syntax.Alternation) {
	for i, child := range n.Children {
		a.emitNode(child)
		if i < len(n.Pipes) {
			a.tokens = append(a.tokens, Token{
				Classes:   []string{"alt"},
				Location:  a.span(n.Pipes[i]),
				Selection: a.spanPtr(n.Pipes[i]),
				Related:   a.related(n.Location),
				Tooltip:   tooltip("quants", "alt", nil),
			})
		}
	}
}

func (a *annotator) emitGroup(g *syntax.Group) {
	entry, ok := groupTable[g.Kind.Type]
	if !ok {
		entry = groupEntry{category: "groups", key: "noncapgroup"}
	}
	var sub map[string]string
	if entry.capturing {
		a.groupCount++
		sub = map[string]string{"{{group.num}}": fmt.Sprint(a.groupCount)}
		if g.Kind.Name != "" {
			sub["{{group.name}}"] = g.Kind.Name
		}
	}
	tip := tooltip(entry.category, entry.key, sub)
	closeLoc := syntax.Loc{Start: g.Child.Loc().End, End: g.Location.End}
	a.emitDelimited(g.Location, g.KindLoc, closeLoc, tip, func() {
		a.emitNode(g.Child)
	})
}

// emitDelimited emits the content token of a group-like construct, its
// opening delimiter, the children one level deeper and the closing
// delimiter.
func (a *annotator) emitDelimited(whole, open, close syntax.Loc, tip *Tooltip, children func()) {
	class := a.groupClass()
	a.tokens = append(a.tokens,
		Token{
			Classes:  []string{class},
			Location: a.span(whole),
		},
		Token{
			Classes:   []string{"group", class},
			Location:  a.span(open),
			Selection: a.spanPtr(whole),
			Tooltip:   tip,
		},
	)

	a.depth++
	children()
	a.depth--

	a.tokens = append(a.tokens, Token{
		Classes:   []string{"group", class},
		Location:  a.span(close),
		Selection: a.spanPtr(whole),
		Tooltip:   tip,
	})
}

func (a *annotator) emitConditional(c *syntax.Conditional) {
	whole := a.spanPtr(c.Location)
	cond := c.Condition

	if cond.Kind == syntax.CondGroup && cond.Group != nil {
		g := cond.Group
		a.tokens = append(a.tokens, Token{
			Classes:   []string{"special"},
			Location:  a.span(syntax.Loc{Start: c.Location.Start, End: cond.Location.Start}),
			Selection: whole,
			Tooltip:   tooltip("other", "conditional", nil),
		})
		groupSel := a.spanPtr(g.Location)
		a.tokens = append(a.tokens, Token{
			Classes:   []string{"special"},
			Location:  a.span(g.KindLoc),
			Selection: groupSel,
			Tooltip:   tooltip("misc", "condition", nil),
		})
		a.depth++
		a.emitNode(g.Child)
		a.depth--
		a.tokens = append(a.tokens, Token{
			Classes:   []string{"special"},
			Location:  a.span(syntax.Loc{Start: g.Child.Loc().End, End: g.Location.End}),
			Selection: groupSel,
			Tooltip:   tooltip("misc", "condition", nil),
		})
	} else {
		var sub map[string]string
		if cond.Ref != nil {
			sub = map[string]string{"{{name}}": cond.Ref.String()}
		}
		if cond.Kind == syntax.CondVersionCheck {
			sub = map[string]string{"{{value}}": cond.Version}
		}
		// The test token covers "(?(" through the closing ")".
		end := min(cond.Location.End+1, c.Location.End)
		a.tokens = append(a.tokens, Token{
			Classes:   []string{"special"},
			Location:  a.span(syntax.Loc{Start: c.Location.Start, End: end}),
			Selection: whole,
			Tooltip:   tooltip("other", conditionTable[cond.Kind], sub),
		})
	}

	a.depth++
	a.emitNode(c.TrueBranch)
	if c.Pipe != nil {
		a.tokens = append(a.tokens, Token{
			Classes:   []string{"special"},
			Location:  a.span(*c.Pipe),
			Selection: a.spanPtr(*c.Pipe),
			Related:   a.related(c.Location),
			Tooltip:   tooltip("misc", "conditionalelse", nil),
		})
	}
	last := c.TrueBranch
	if c.Pipe != nil {
		a.emitNode(c.FalseBranch)
		last = c.FalseBranch
	}
	a.depth--

	a.tokens = append(a.tokens, Token{
		Classes:   []string{"special"},
		Location:  a.span(syntax.Loc{Start: last.Loc().End, End: c.Location.End}),
		Selection: whole,
		Tooltip:   tooltip("other", "conditional", nil),
	})
}

func (a *annotator) emitQuantification(q *syntax.Quantification) {
	a.emitNode(q.Child)

	a.tokens = append(a.tokens, Token{
		Classes:   []string{"quant"},
		Location:  a.span(q.AmountLoc),
		Selection: a.spanPtr(q.AmountLoc),
		Related:   a.related(q.Location),
		Tooltip:   tooltip("quants", "quant", map[string]string{"{{getQuant()}}": a.quantText(q.Amount)}),
	})

	var class string
	switch q.Kind {
	case syntax.Reluctant:
		class = "lazy"
	case syntax.Possessive:
		class = "possessive"
	default:
		return
	}
	a.tokens = append(a.tokens, Token{
		Classes:   []string{class},
		Location:  a.span(q.KindLoc),
		Selection: a.spanPtr(q.KindLoc),
		Related:   a.related(q.AmountLoc),
		Tooltip:   tooltip("quants", class, nil),
	})
}

func (a *annotator) emitQuote(q *syntax.Quote) {
	a.emit([]string{"esc"}, q.Location, tooltip("escchars", "escsequence", map[string]string{
		"{{value}}": q.Literal,
	}))
}

func (a *annotator) emitAtom(atom *syntax.Atom) {
	e := a.lookupAtom(atom)
	var sub map[string]string
	if e.subst != nil {
		sub = e.subst(a, atom)
	}
	a.emit([]string{e.class}, atom.Location, tooltip(e.category, e.key, sub))
}

func (a *annotator) emitClass(cc *syntax.CustomCharacterClass) {
	key := "set"
	if cc.Start == syntax.ClassInverted {
		key = "setnot"
	}
	whole := a.spanPtr(cc.Location)
	a.tokens = append(a.tokens,
		Token{
			Classes:   []string{"set"},
			Location:  a.span(cc.StartLoc),
			Selection: whole,
			Tooltip:   tooltip("charclasses", key, nil),
		},
		Token{
			Classes:   []string{"group-set"},
			Location:  a.span(cc.Location),
			Selection: whole,
			Tooltip:   tooltip("charclasses", key, nil),
		},
	)

	a.emitMembers(cc.Members)

	a.tokens = append(a.tokens, Token{
		Classes:   []string{"set"},
		Location:  a.span(syntax.Loc{Start: cc.Location.End - 1, End: cc.Location.End}),
		Selection: whole,
		Tooltip:   tooltip("charclasses", key, nil),
	})
}

func (a *annotator) emitMembers(members []syntax.ClassMember) {
	for _, m := range members {
		switch m := m.(type) {
		case *syntax.CustomCharacterClass:
			a.emitClass(m)
		case *syntax.ClassRange:
			a.emitRange(m)
		case *syntax.Atom:
			a.emitAtom(m)
		case *syntax.Quote:
			a.emitQuote(m)
		case *syntax.Trivia:
			a.emitNode(m)
		case *syntax.SetOperation:
			a.emitMembers(m.LHS)
			a.emit([]string{"set"}, m.OpLoc, tooltip("charclasses", "setoperation", map[string]string{
				"{{value}}": m.Op.String(),
			}))
			a.emitMembers(m.RHS)
		}
	}
}

// endpoint renders one bound of a range: the character itself when the atom
// is a literal, its source text otherwise.
func (a *annotator) endpoint(atom *syntax.Atom) (text, code string) {
	if runes := atomRunes(atom); len(runes) > 0 {
		return string(runes), codePoints(runes)
	}
	return a.source(atom.Location), ""
}

func (a *annotator) emitRange(r *syntax.ClassRange) {
	prev, prevCode := a.endpoint(r.LHS)
	next, nextCode := a.endpoint(r.RHS)
	sub := map[string]string{
		"{{getChar(prev)}}": quoted(prev),
		"{{getChar(next)}}": quoted(next),
		"{{code(prev)}}":    prevCode,
		"{{code(next)}}":    nextCode,
	}
	sel := a.spanPtr(syntax.Loc{Start: r.LHS.Location.Start, End: r.RHS.Location.End})
	tip := tooltip("charclasses", "range", sub)
	a.tokens = append(a.tokens,
		Token{Classes: []string{"char"}, Location: a.span(r.LHS.Location), Selection: sel, Tooltip: tip},
		Token{Classes: []string{"set"}, Location: a.span(r.DashLoc), Selection: sel, Tooltip: tip},
		Token{Classes: []string{"char"}, Location: a.span(r.RHS.Location), Selection: sel, Tooltip: tip},
	)
}

func (a *annotator) emitAbsent(n *syntax.AbsentFunction) {
	tip := tooltip("groups", "absentfunction", nil)
	closeLoc := syntax.Loc{Start: n.Location.End - 1, End: n.Location.End}
	a.emitDelimited(n.Location, n.Start, closeLoc, tip, func() {
		if n.Absentee != nil {
			a.emitNode(n.Absentee)
		}
		if n.Pipe != nil {
			a.tokens = append(a.tokens, Token{
				Classes:   []string{"alt"},
				Location:  a.span(*n.Pipe),
				Selection: a.spanPtr(*n.Pipe),
				Related:   a.related(n.Location),
				Tooltip:   tip,
			})
		}
		if n.Expr != nil {
			a.emitNode(n.Expr)
		}
	})
}
