package syntax

import "strings"

func (p *parser) parseCustomClass() (*CustomCharacterClass, error) {
	open := p.pos
	p.pos++
	cc := &CustomCharacterClass{Start: ClassNormal}
	if p.peek() == '^' {
		cc.Start = ClassInverted
		p.pos++
	}
	cc.StartLoc = Loc{open, p.pos}
	if err := p.enter(cc.StartLoc); err != nil {
		return nil, err
	}
	defer p.leave()

	members, err := p.parseClassMembers(cc.StartLoc, true)
	if err != nil {
		return nil, err
	}
	for op, ok := p.setOperator(); ok; op, ok = p.setOperator() {
		opLoc := Loc{p.pos, p.pos + 2}
		p.pos += 2
		rhs, err := p.parseClassMembers(cc.StartLoc, false)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 || len(rhs) == 0 {
			return nil, p.errorf(ErrClass, opLoc, "set operation '%s' requires two operands", op)
		}
		members = []ClassMember{&SetOperation{
			LHS:      members,
			Op:       op,
			OpLoc:    opLoc,
			RHS:      rhs,
			Location: Loc{members[0].Loc().Start, rhs[len(rhs)-1].Loc().End},
		}}
	}
	// parseClassMembers only returns at ']' or a set operator.
	p.pos++
	cc.Members = members
	cc.Location = Loc{open, p.pos}
	return cc, nil
}

func (p *parser) setOperator() (SetOp, bool) {
	switch {
	case p.hasPrefix("&&"):
		return SetIntersection, true
	case p.hasPrefix("--"):
		return SetSubtraction, true
	case p.hasPrefix("~~"):
		return SetSymmetricDifference, true
	}
	return 0, false
}

// parseClassMembers parses members up to ']' or a set operator. A ']' that
// is the very first member of a class is a literal.
func (p *parser) parseClassMembers(startLoc Loc, first bool) ([]ClassMember, error) {
	var members []ClassMember
	for {
		if p.eof() {
			return nil, p.errorf(ErrUnbalanced, startLoc, "expected ']'")
		}
		if p.peek() == ']' && !(first && len(members) == 0) {
			return members, nil
		}
		if _, ok := p.setOperator(); ok {
			return members, nil
		}
		if p.opts.Has(OptExtraExtended) && isSpace(p.peek()) {
			start := p.pos
			for !p.eof() && isSpace(p.peek()) {
				p.pos++
			}
			members = append(members, &Trivia{Contents: p.src[start:p.pos], Location: Loc{start, p.pos}})
			continue
		}
		m, err := p.parseClassMember()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
}

func (p *parser) parseClassMember() (ClassMember, error) {
	start := p.pos
	var lhs *Atom
	switch {
	case p.hasPrefix("[:"):
		if a := p.tryPOSIXClass(); a != nil {
			return a, nil
		}
		return p.parseCustomClass()
	case p.peek() == '[':
		return p.parseCustomClass()
	case p.peek() == '\\':
		n, err := p.parseEscape(true)
		if err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case *Atom:
			lhs = n
		case *Quote:
			return n, nil
		case *Trivia:
			return n, nil
		}
	default:
		r, w := p.peekRune()
		p.pos += w
		lhs = &Atom{Kind: AtomChar, Char: r, Location: Loc{start, p.pos}}
	}

	if !p.atRangeDash() {
		return lhs, nil
	}
	lv, ok := lhs.Literal()
	if !ok {
		// \d-z: the dash is a literal member.
		return lhs, nil
	}
	dash := Loc{p.pos, p.pos + 1}
	p.pos++

	var rhs *Atom
	if p.peek() == '\\' {
		n, err := p.parseEscape(true)
		if err != nil {
			return nil, err
		}
		a, isAtom := n.(*Atom)
		if !isAtom {
			return nil, p.errorf(ErrClass, Loc{start, p.pos}, "invalid character class range")
		}
		rhs = a
	} else {
		if p.peek() == '[' {
			return nil, p.errorf(ErrClass, Loc{start, p.pos + 1}, "invalid character class range")
		}
		rstart := p.pos
		r, w := p.peekRune()
		p.pos += w
		rhs = &Atom{Kind: AtomChar, Char: r, Location: Loc{rstart, p.pos}}
	}
	rv, ok := rhs.Literal()
	if !ok {
		return nil, p.errorf(ErrClass, Loc{start, p.pos}, "invalid character class range")
	}
	if lv > rv {
		return nil, p.errorf(ErrClass, Loc{start, p.pos}, "character class range is out of order")
	}
	return &ClassRange{LHS: lhs, DashLoc: dash, RHS: rhs, Location: Loc{start, p.pos}}, nil
}

// atRangeDash reports whether the next '-' forms a range rather than being a
// literal dash before ']' or the start of a "--" operator.
func (p *parser) atRangeDash() bool {
	if p.peek() != '-' || p.pos+1 >= len(p.src) {
		return false
	}
	next := p.src[p.pos+1]
	return next != ']' && next != '-'
}

// tryPOSIXClass parses [:name:] or [:^name:] at the current position.
func (p *parser) tryPOSIXClass() *Atom {
	start := p.pos
	rest := p.src[start+2:]
	end := strings.Index(rest, ":]")
	if end < 0 || strings.ContainsAny(rest[:end], "[]") {
		return nil
	}
	name := rest[:end]
	inverted := false
	if strings.HasPrefix(name, "^") {
		inverted = true
		name = name[1:]
	}
	if name == "" {
		return nil
	}
	p.pos = start + 2 + end + 2
	return propertyAtom(classifyPOSIX(name, inverted), Loc{start, p.pos})
}
