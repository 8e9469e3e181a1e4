package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/coregx/regexlab/syntax"
)

// compiler lowers a syntax tree into a Program using a Builder.
type compiler struct {
	b       *Builder
	ast     *syntax.AST
	opts    syntax.OptionSet
	reverse bool

	maxRep   int
	maxInsts int
}

// Compile compiles a parsed pattern into a Program.
//
// Constructs that parse but have no execution model here (subroutine calls,
// callouts, absent functions, most backtracking verbs, script runs,
// non-atomic lookaround) produce a *CompileError wrapping ErrUnsupported.
func Compile(ast *syntax.AST, opts Options) (*Program, error) {
	if opts.MaxRepetition <= 0 {
		opts.MaxRepetition = DefaultMaxRepetition
	}
	if opts.MaxInstructions <= 0 {
		opts.MaxInstructions = DefaultMaxInstructions
	}
	c := &compiler{
		b:        NewBuilder(),
		ast:      ast,
		opts:     ast.Options | opts.Flags,
		maxRep:   opts.MaxRepetition,
		maxInsts: opts.MaxInstructions,
	}
	if err := c.compile(ast.Root); err != nil {
		return nil, err
	}
	c.b.AddSimple(OpAccept)

	names := ast.CaptureNames
	if len(names) == 0 {
		names = []string{""}
	}
	return c.b.Build(
		WithCaptureNames(names),
		WithMetrics(opts.EnableMetrics),
		WithSemantics(opts.Semantics),
		WithPattern(ast.Pattern),
	)
}

func (c *compiler) unsupported(n syntax.Node, what string) error {
	return &CompileError{
		Message:  what + " is not supported",
		Location: n.Loc(),
		Err:      ErrUnsupported,
	}
}

func (c *compiler) source(l syntax.Loc) string {
	if l.Start < 0 || l.End > len(c.ast.Pattern) || l.Start > l.End {
		return ""
	}
	return c.ast.Pattern[l.Start:l.End]
}

func (c *compiler) checkSize(n syntax.Node) error {
	if c.b.Len() > c.maxInsts {
		return &CompileError{
			Message:  fmt.Sprintf("program exceeds %d instructions", c.maxInsts),
			Location: n.Loc(),
			Err:      ErrTooComplex,
		}
	}
	return nil
}

func (c *compiler) patch(id InstID) {
	// Patch only fails on IDs the compiler did not emit.
	if err := c.b.Patch(id, c.b.Next()); err != nil {
		panic(err)
	}
}

func (c *compiler) patchTo(id, target InstID) {
	if err := c.b.Patch(id, target); err != nil {
		panic(err)
	}
}

func (c *compiler) compile(n syntax.Node) error {
	switch n := n.(type) {
	case nil, *syntax.Empty, *syntax.Trivia:
		return nil
	case *syntax.Concatenation:
		return c.compileConcat(n)
	case *syntax.Alternation:
		return c.compileAlternation(n)
	case *syntax.Group:
		return c.compileGroup(n)
	case *syntax.Conditional:
		return c.compileConditional(n)
	case *syntax.Quantification:
		return c.compileQuantification(n)
	case *syntax.Quote:
		c.emitLiteral(n.Literal)
		return nil
	case *syntax.Atom:
		return c.compileAtom(n)
	case *syntax.CustomCharacterClass:
		f, err := c.classPredicate(n)
		if err != nil {
			return err
		}
		c.b.AddSet(newSet(c.source(n.Location), f), c.reverse)
		return nil
	case *syntax.Interpolation:
		return c.unsupported(n, "interpolation")
	case *syntax.AbsentFunction:
		return c.unsupported(n, "absent function")
	}
	return fmt.Errorf("engine: unexpected node %T", n)
}

func (c *compiler) compileConcat(n *syntax.Concatenation) error {
	// Isolated options apply to the siblings after them in source order,
	// even when the sequence is emitted backwards inside a lookbehind.
	opts := make([]syntax.OptionSet, len(n.Children))
	cur := c.opts
	for i, child := range n.Children {
		opts[i] = cur
		if a, ok := child.(*syntax.Atom); ok && a.Kind == syntax.AtomChangeMatchingOptions {
			cur = a.Options.Apply(cur)
		}
	}
	final := cur

	for k := range n.Children {
		i := k
		if c.reverse {
			i = len(n.Children) - 1 - k
		}
		c.opts = opts[i]
		if err := c.compile(n.Children[i]); err != nil {
			return err
		}
	}
	c.opts = final
	return nil
}

// compileAlternation emits
//
//	save L2; a; branch END; L2: save L3; b; branch END; L3: c; END:
func (c *compiler) compileAlternation(n *syntax.Alternation) error {
	var ends []InstID
	last := len(n.Children) - 1
	for i, child := range n.Children {
		if i == last {
			if err := c.compile(child); err != nil {
				return err
			}
			break
		}
		save := c.b.AddSave(InvalidInst)
		if err := c.compile(child); err != nil {
			return err
		}
		ends = append(ends, c.b.AddBranch(InvalidInst))
		c.patch(save)
	}
	for _, id := range ends {
		c.patch(id)
	}
	return c.checkSize(n)
}

func (c *compiler) compileGroup(n *syntax.Group) error {
	saved := c.opts
	defer func() { c.opts = saved }()
	if n.Kind.Options != nil {
		c.opts = n.Kind.Options.Apply(c.opts)
	}

	switch n.Kind.Type {
	case syntax.GroupCapture, syntax.GroupNamedCapture:
		first, second := true, false
		if c.reverse {
			first, second = false, true
		}
		c.b.AddCapture(n.Number, first)
		if err := c.compile(n.Child); err != nil {
			return err
		}
		c.b.AddCapture(n.Number, second)
		return nil
	case syntax.GroupNonCapture, syntax.GroupBranchReset, syntax.GroupChangeOptions:
		return c.compile(n.Child)
	case syntax.GroupAtomic:
		c.b.AddFence()
		if err := c.compile(n.Child); err != nil {
			return err
		}
		c.b.AddCut(OpCut)
		return nil
	case syntax.GroupLookahead, syntax.GroupLookbehind:
		c.b.AddFence()
		if err := c.compileLookaroundBody(n); err != nil {
			return err
		}
		c.b.AddCut(OpCutRestore)
		return nil
	case syntax.GroupNegativeLookahead, syntax.GroupNegativeLookbehind:
		after := c.b.AddSaveFence(InvalidInst)
		if err := c.compileLookaroundBody(n); err != nil {
			return err
		}
		c.b.AddCut(OpCutFail)
		c.patch(after)
		return nil
	case syntax.GroupNonAtomicLookahead, syntax.GroupNonAtomicLookbehind:
		return c.unsupported(n, "non-atomic lookaround")
	case syntax.GroupBalancedCapture:
		return c.unsupported(n, "balanced capture")
	case syntax.GroupScriptRun, syntax.GroupAtomicScriptRun:
		return c.unsupported(n, "script run")
	}
	return c.unsupported(n, n.Kind.Type.String()+" group")
}

// compileLookaroundBody compiles the child of a lookaround. Lookbehind bodies
// are compiled backwards so that they consume the text before the position.
func (c *compiler) compileLookaroundBody(n *syntax.Group) error {
	saved := c.reverse
	c.reverse = n.Kind.Type.IsLookbehind()
	err := c.compile(n.Child)
	c.reverse = saved
	return err
}

func (c *compiler) compileConditional(n *syntax.Conditional) error {
	cond := n.Condition
	switch cond.Kind {
	case syntax.CondDefine:
		return nil
	case syntax.CondGroupMatched:
		idx, err := c.resolve(cond.Ref)
		if err != nil {
			return err
		}
		test := c.b.AddCondCapture(idx, InvalidInst)
		return c.compileBranches(n, n.TrueBranch, n.FalseBranch, test)
	case syntax.CondGroup:
		g := cond.Group
		if g == nil || !g.Kind.Type.IsLookaround() {
			return c.unsupported(n, "conditional on a non-lookaround group")
		}
		if g.Kind.Type == syntax.GroupNonAtomicLookahead || g.Kind.Type == syntax.GroupNonAtomicLookbehind {
			return c.unsupported(g, "non-atomic lookaround")
		}
		test := c.b.AddSaveFence(InvalidInst)
		if err := c.compileLookaroundBody(g); err != nil {
			return err
		}
		c.b.AddCut(OpCutRestore)
		yes, no := n.TrueBranch, n.FalseBranch
		if g.Kind.Type.IsNegative() {
			yes, no = no, yes
		}
		return c.compileBranches(n, yes, no, test)
	case syntax.CondRecursionCheck, syntax.CondGroupRecursionCheck:
		return c.unsupported(n, "recursion check")
	case syntax.CondVersionCheck:
		return c.unsupported(n, "version check")
	}
	return c.unsupported(n, "conditional")
}

// compileBranches emits "yes; branch END; ELSE: no; END:" with test jumping
// to ELSE.
func (c *compiler) compileBranches(n syntax.Node, yes, no syntax.Node, test InstID) error {
	if err := c.compile(yes); err != nil {
		return err
	}
	if no == nil {
		c.patch(test)
		return nil
	}
	end := c.b.AddBranch(InvalidInst)
	c.patch(test)
	if err := c.compile(no); err != nil {
		return err
	}
	c.patch(end)
	return c.checkSize(n)
}

func (c *compiler) compileQuantification(n *syntax.Quantification) error {
	lo, hi := n.Amount.Bounds()
	if lo > c.maxRep || hi > c.maxRep {
		return &CompileError{
			Message:  fmt.Sprintf("repetition bound exceeds %d", c.maxRep),
			Location: n.AmountLoc,
			Err:      ErrTooComplex,
		}
	}
	if hi >= 0 && hi < lo {
		return &CompileError{
			Message:  "repetition range is out of order",
			Location: n.AmountLoc,
			Err:      ErrTooComplex,
		}
	}

	kind := n.Kind
	if c.opts.Has(syntax.OptReluctantByDefault) {
		switch kind {
		case syntax.Eager:
			kind = syntax.Reluctant
		case syntax.Reluctant:
			kind = syntax.Eager
		}
	}

	if kind == syntax.Possessive {
		c.b.AddFence()
		if err := c.compileRepeat(n, lo, hi, false); err != nil {
			return err
		}
		c.b.AddCut(OpCut)
		return nil
	}
	return c.compileRepeat(n, lo, hi, kind == syntax.Reluctant)
}

func (c *compiler) compileRepeat(n *syntax.Quantification, lo, hi int, lazy bool) error {
	child := n.Child
	mayBeEmpty := canBeEmpty(child)

	required := lo
	if hi < 0 && lo > 0 {
		// The last required copy becomes the body of the + loop.
		required = lo - 1
	}
	for i := 0; i < required; i++ {
		if err := c.compile(child); err != nil {
			return err
		}
		if err := c.checkSize(n); err != nil {
			return err
		}
	}

	switch {
	case hi < 0 && lo == 0:
		return c.emitStar(child, lazy, mayBeEmpty)
	case hi < 0:
		return c.emitPlus(child, lazy, mayBeEmpty)
	}

	var exits []InstID
	for i := lo; i < hi; i++ {
		if lazy {
			save := c.b.AddSave(InvalidInst)
			exits = append(exits, c.b.AddBranch(InvalidInst))
			c.patch(save)
		} else {
			exits = append(exits, c.b.AddSave(InvalidInst))
		}
		if err := c.compile(child); err != nil {
			return err
		}
		if err := c.checkSize(n); err != nil {
			return err
		}
	}
	for _, id := range exits {
		c.patch(id)
	}
	return nil
}

// emitBody compiles a loop body. Bodies that can match empty are guarded so
// an iteration that makes no progress leaves the loop; the returned ID is the
// guard's exit jump, or InvalidInst.
func (c *compiler) emitBody(child syntax.Node, mayBeEmpty bool) (InstID, error) {
	if !mayBeEmpty {
		return InvalidInst, c.compile(child)
	}
	reg := c.b.NewRegister()
	c.b.AddSetRegister(reg)
	if err := c.compile(child); err != nil {
		return InvalidInst, err
	}
	return c.b.AddCheckProgress(reg, InvalidInst), nil
}

// emitStar emits
//
//	greedy: L0: save EXIT; x; branch L0; EXIT:
//	lazy:   L0: save L1; branch EXIT; L1: x; branch L0; EXIT:
func (c *compiler) emitStar(child syntax.Node, lazy, mayBeEmpty bool) error {
	top := c.b.Next()
	var exits []InstID
	if lazy {
		save := c.b.AddSave(InvalidInst)
		exits = append(exits, c.b.AddBranch(InvalidInst))
		c.patch(save)
	} else {
		exits = append(exits, c.b.AddSave(InvalidInst))
	}
	guard, err := c.emitBody(child, mayBeEmpty)
	if err != nil {
		return err
	}
	if guard != InvalidInst {
		exits = append(exits, guard)
	}
	c.b.AddBranch(top)
	for _, id := range exits {
		c.patch(id)
	}
	return nil
}

// emitPlus emits
//
//	greedy: L0: x; save EXIT; branch L0; EXIT:
//	lazy:   L0: x; save L0; EXIT:
func (c *compiler) emitPlus(child syntax.Node, lazy, mayBeEmpty bool) error {
	top := c.b.Next()
	guard, err := c.emitBody(child, mayBeEmpty)
	if err != nil {
		return err
	}
	if lazy {
		c.b.AddSave(top)
	} else {
		exit := c.b.AddSave(InvalidInst)
		c.b.AddBranch(top)
		c.patch(exit)
	}
	if guard != InvalidInst {
		c.patch(guard)
	}
	return nil
}

// canBeEmpty reports whether n can match without consuming input.
func canBeEmpty(n syntax.Node) bool {
	switch n := n.(type) {
	case nil, *syntax.Empty, *syntax.Trivia:
		return true
	case *syntax.Concatenation:
		for _, child := range n.Children {
			if !canBeEmpty(child) {
				return false
			}
		}
		return true
	case *syntax.Alternation:
		for _, child := range n.Children {
			if canBeEmpty(child) {
				return true
			}
		}
		return false
	case *syntax.Group:
		if n.Kind.Type.IsLookaround() {
			return true
		}
		return canBeEmpty(n.Child)
	case *syntax.Quantification:
		lo, _ := n.Amount.Bounds()
		return lo == 0 || canBeEmpty(n.Child)
	case *syntax.Quote:
		return n.Literal == ""
	case *syntax.CustomCharacterClass:
		return false
	case *syntax.Atom:
		switch n.Kind {
		case syntax.AtomStartOfLine, syntax.AtomEndOfLine, syntax.AtomBackreference,
			syntax.AtomChangeMatchingOptions, syntax.AtomBacktrackingDirective,
			syntax.AtomCallout, syntax.AtomSubpattern:
			return true
		case syntax.AtomEscaped:
			return n.Escaped.IsAssertion()
		case syntax.AtomScalarSequence:
			return len(n.Scalars) == 0
		}
		return false
	}
	return true
}

func (c *compiler) fold() bool {
	return c.opts.Has(syntax.OptCaseInsensitive)
}

func (c *compiler) emitChar(r rune) {
	fold := c.fold() && unicode.SimpleFold(r) != r
	c.b.AddChar(r, fold, c.reverse)
}

func (c *compiler) emitLiteral(s string) {
	runes := []rune(s)
	c.emitRunes(runes)
}

func (c *compiler) emitRunes(runes []rune) {
	for k := range runes {
		i := k
		if c.reverse {
			i = len(runes) - 1 - k
		}
		c.emitChar(runes[i])
	}
}

func (c *compiler) compileAtom(a *syntax.Atom) error {
	switch a.Kind {
	case syntax.AtomChar, syntax.AtomScalar, syntax.AtomNamedCharacter,
		syntax.AtomKeyboardControl, syntax.AtomKeyboardMeta, syntax.AtomKeyboardMetaControl:
		r, _ := a.Literal()
		c.emitChar(r)
	case syntax.AtomScalarSequence:
		c.emitRunes(a.Scalars)
	case syntax.AtomAny:
		if c.opts.Has(syntax.OptSingleLine) {
			c.b.AddConsume(OpAny, c.reverse)
		} else {
			c.b.AddConsume(OpAnyNotNewline, c.reverse)
		}
	case syntax.AtomStartOfLine:
		if c.opts.Has(syntax.OptMultiline) {
			c.b.AddAssert(AssertStartOfLine, false)
		} else {
			c.b.AddAssert(AssertStartOfSubject, false)
		}
	case syntax.AtomEndOfLine:
		if c.opts.Has(syntax.OptMultiline) {
			c.b.AddAssert(AssertEndOfLine, false)
		} else {
			c.b.AddAssert(AssertEndOfSubjectBeforeNewline, false)
		}
	case syntax.AtomEscaped:
		return c.compileEscape(a)
	case syntax.AtomProperty:
		f, ok := propertySet(a.Property, c.opts)
		if !ok {
			return c.unsupported(a, "property "+c.source(a.Location))
		}
		if c.fold() {
			f = foldSet(f)
		}
		c.b.AddSet(newSet(c.source(a.Location), f), c.reverse)
	case syntax.AtomBackreference:
		if a.Ref.RecursionLevel != nil {
			return c.unsupported(a, "backreference with recursion level")
		}
		idx, err := c.resolve(a.Ref)
		if err != nil {
			return err
		}
		c.b.AddBackref(idx, c.fold(), c.reverse)
	case syntax.AtomBacktrackingDirective:
		switch a.Directive {
		case syntax.DirAccept:
			c.b.AddSimple(OpAccept)
		case syntax.DirFail:
			c.b.AddSimple(OpFail)
		default:
			return c.unsupported(a, "(*"+a.Directive.String()+")")
		}
	case syntax.AtomChangeMatchingOptions:
		c.opts = a.Options.Apply(c.opts)
	case syntax.AtomSubpattern:
		return c.unsupported(a, "subpattern call")
	case syntax.AtomCallout:
		return c.unsupported(a, "callout")
	default:
		return c.unsupported(a, c.source(a.Location))
	}
	return nil
}

func (c *compiler) compileEscape(a *syntax.Atom) error {
	e := a.Escaped
	if r, ok := e.Scalar(); ok {
		c.emitChar(r)
		return nil
	}
	if f, ok := builtinSet(e, c.opts); ok {
		c.b.AddSet(newSet(e.String(), f), c.reverse)
		return nil
	}
	asciiWord := c.opts.Has(syntax.OptASCIIOnlyWord)
	switch e {
	case syntax.EscNewlineSequence:
		c.b.AddConsume(OpNewlineSequence, c.reverse)
	case syntax.EscGraphemeCluster:
		c.b.AddConsume(OpGrapheme, c.reverse)
	case syntax.EscTrueAnychar, syntax.EscSingleDataUnit:
		c.b.AddConsume(OpAnyScalar, c.reverse)
	case syntax.EscWordBoundary:
		c.b.AddAssert(AssertWordBoundary, asciiWord)
	case syntax.EscNotWordBoundary:
		c.b.AddAssert(AssertNotWordBoundary, asciiWord)
	case syntax.EscStartOfSubject:
		c.b.AddAssert(AssertStartOfSubject, false)
	case syntax.EscEndOfSubject:
		c.b.AddAssert(AssertEndOfSubject, false)
	case syntax.EscEndOfSubjectBeforeNewline:
		c.b.AddAssert(AssertEndOfSubjectBeforeNewline, false)
	case syntax.EscFirstMatchingPosition:
		c.b.AddAssert(AssertFirstMatchingPosition, false)
	case syntax.EscTextSegment:
		c.b.AddAssert(AssertTextSegment, false)
	case syntax.EscNotTextSegment:
		c.b.AddAssert(AssertNotTextSegment, false)
	case syntax.EscResetStartOfMatch:
		if c.reverse {
			return c.unsupported(a, `\K inside lookbehind`)
		}
		c.b.AddSimple(OpResetStart)
	default:
		return c.unsupported(a, e.String())
	}
	return nil
}

// resolve returns the absolute group number a reference names.
func (c *compiler) resolve(ref *syntax.Reference) (int, error) {
	idx := -1
	switch ref.Kind {
	case syntax.RefAbsolute:
		idx = ref.Number
	case syntax.RefRelative:
		idx = ref.Resolved
	case syntax.RefNamed:
		for i, name := range c.ast.CaptureNames {
			if i > 0 && name == ref.Name {
				idx = i
				break
			}
		}
	}
	if idx < 1 || idx > c.ast.CaptureCount {
		return 0, &CompileError{
			Message:  fmt.Sprintf("reference to non-existent group %s", ref),
			Location: ref.Location,
			Err:      ErrInvalidReference,
		}
	}
	return idx, nil
}

// classPredicate builds the membership test of a custom class. Case folding
// applies to the members before inversion, so [^a] excludes 'A' under (?i).
func (c *compiler) classPredicate(cc *syntax.CustomCharacterClass) (func(rune) bool, error) {
	f, err := c.membersPredicate(cc.Members)
	if err != nil {
		return nil, err
	}
	if c.fold() {
		f = foldSet(f)
	}
	if cc.Start == syntax.ClassInverted {
		f = not(f)
	}
	return f, nil
}

func (c *compiler) membersPredicate(members []syntax.ClassMember) (func(rune) bool, error) {
	var preds []func(rune) bool
	var runes []rune
	for _, m := range members {
		switch m := m.(type) {
		case *syntax.Trivia:
		case *syntax.Quote:
			runes = append(runes, []rune(m.Literal)...)
		case *syntax.ClassRange:
			lo, ok1 := m.LHS.Literal()
			hi, ok2 := m.RHS.Literal()
			if !ok1 || !ok2 {
				return nil, c.unsupported(m.LHS, "range bound "+c.source(m.Location))
			}
			preds = append(preds, func(r rune) bool { return r >= lo && r <= hi })
		case *syntax.CustomCharacterClass:
			f, err := c.classPredicate(m)
			if err != nil {
				return nil, err
			}
			preds = append(preds, f)
		case *syntax.SetOperation:
			f, err := c.setOperation(m)
			if err != nil {
				return nil, err
			}
			preds = append(preds, f)
		case *syntax.Atom:
			if r, ok := m.Literal(); ok {
				runes = append(runes, r)
				continue
			}
			switch m.Kind {
			case syntax.AtomScalarSequence:
				runes = append(runes, m.Scalars...)
			case syntax.AtomProperty:
				f, ok := propertySet(m.Property, c.opts)
				if !ok {
					return nil, c.unsupported(m, "property "+c.source(m.Location))
				}
				preds = append(preds, f)
			case syntax.AtomEscaped:
				f, ok := builtinSet(m.Escaped, c.opts)
				if !ok {
					return nil, c.unsupported(m, m.Escaped.String()+" in a character class")
				}
				preds = append(preds, f)
			default:
				return nil, c.unsupported(m, c.source(m.Location)+" in a character class")
			}
		}
	}
	if len(runes) > 0 {
		set := string(runes)
		preds = append(preds, func(r rune) bool { return strings.ContainsRune(set, r) })
	}
	return func(r rune) bool {
		for _, f := range preds {
			if f(r) {
				return true
			}
		}
		return false
	}, nil
}

func (c *compiler) setOperation(op *syntax.SetOperation) (func(rune) bool, error) {
	lhs, err := c.membersPredicate(op.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := c.membersPredicate(op.RHS)
	if err != nil {
		return nil, err
	}
	switch op.Op {
	case syntax.SetIntersection:
		return func(r rune) bool { return lhs(r) && rhs(r) }, nil
	case syntax.SetSubtraction:
		return func(r rune) bool { return lhs(r) && !rhs(r) }, nil
	default:
		return func(r rune) bool { return lhs(r) != rhs(r) }, nil
	}
}
