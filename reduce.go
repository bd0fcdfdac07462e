package formula

// reduce collapses a flat token list into a single key. Each step applies
// the first rule that matches and must shorten the list:
//
//	1. a suffix operator after an operand applies to it;
//	2. a prefix operator applies to the operand after it, unless that operand
//	   is the left side of an exponentiation;
//	3. the left-most run of high tier operators folds left to right;
//	4. two adjacent operands get a multiplication between them;
//	5. the left-most run of low tier operators folds left to right.
//
// A list that no rule shortens is an error.
func (ps *parse) reduce(toks []token) (token, error) {
	if len(toks) == 0 {
		return token{}, &SyntaxError{Msg: "empty expression"}
	}
	for _, tok := range toks {
		if tok.text == ps.sep {
			return token{}, &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "argument separator outside function call"}
		}
	}
	toks = append(([]token)(nil), toks...)
	for len(toks) > 1 {
		n := len(toks)
		r, err := ps.step(append(([]token)(nil), toks...))
		if err != nil {
			return token{}, err
		}
		if r == nil || len(r) >= n {
			return token{}, ps.stuck(toks)
		}
		toks = r
	}
	return ps.leaf(toks[0])
}

// step applies one reduction. It returns nil if no rule applies.
func (ps *parse) step(toks []token) ([]token, error) {
	if r, err := ps.suffix(toks); r != nil || err != nil {
		return r, err
	}
	if r, err := ps.prefix(toks); r != nil || err != nil {
		return r, err
	}
	if r, err := ps.collapse(toks, TierHigh); r != nil || err != nil {
		return r, err
	}
	if r := ps.implicit(toks); r != nil {
		return ps.collapse(r, TierHigh)
	}
	return ps.collapse(toks, TierLow)
}

// suffix applies the first suffix operator that follows an operand. A suffix
// operator anywhere else is an error unless it can also be a prefix.
func (ps *parse) suffix(toks []token) ([]token, error) {
	for i, tok := range toks {
		sym, ok := symbols[tok.text]
		if !ok || sym.suffix == "" {
			continue
		}
		if i > 0 && ps.isoperand(toks[i-1]) {
			x, err := ps.leaf(toks[i-1])
			if err != nil {
				return nil, err
			}
			key, err := ps.call(token{text: sym.suffix, pos: tok.pos}, x)
			if err != nil {
				return nil, err
			}
			key.pos = x.pos
			return splice(toks, i-1, i+1, key), nil
		}
		if !sym.prefix {
			return nil, &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "misplaced suffix operator"}
		}
	}
	return nil, nil
}

// prefix applies the first prefix operator that is followed by an operand and
// is not in infix position. -2^2 is -(2^2), so the operand must not be the
// left side of an exponentiation.
func (ps *parse) prefix(toks []token) ([]token, error) {
	for i := 0; i+1 < len(toks); i++ {
		sym, ok := symbols[toks[i].text]
		if !ok || !sym.prefix || !ps.isoperand(toks[i+1]) {
			continue
		}
		if i > 0 && sym.tier != TierNone && ps.isoperand(toks[i-1]) {
			// Binary use, e.g. the - in 1 - 2.
			continue
		}
		if i+2 < len(toks) && ispow(toks[i+2]) {
			continue
		}
		x, err := ps.leaf(toks[i+1])
		if err != nil {
			return nil, err
		}
		key, err := ps.call(toks[i], x)
		if err != nil {
			return nil, err
		}
		return splice(toks, i, i+2, key), nil
	}
	return nil, nil
}

// implicit inserts a multiplication between the first pair of adjacent
// operands. 2(3) becomes 2 * #k once the group is resolved. It returns nil
// if there is no such pair.
func (ps *parse) implicit(toks []token) []token {
	for i := 0; i+1 < len(toks); i++ {
		if ps.isoperand(toks[i]) && ps.isoperand(toks[i+1]) {
			toks = append(toks, token{})
			copy(toks[i+2:], toks[i+1:])
			toks[i+1] = token{text: "*", pos: toks[i+2].pos}
			return toks
		}
	}
	return nil
}

// collapse folds the left-most run of infix operators of a tier into a single
// key, associating left to right. It returns nil if there is no such run.
func (ps *parse) collapse(toks []token, tier Tier) ([]token, error) {
	for i := 1; i+1 < len(toks); i++ {
		if !ps.infix(toks, i, tier) {
			continue
		}
		end := i + 2
		for end+1 < len(toks) && ps.infix(toks, end, tier) {
			end += 2
		}
		acc, err := ps.leaf(toks[i-1])
		if err != nil {
			return nil, err
		}
		for j := i; j < end; j += 2 {
			rhs, err := ps.leaf(toks[j+1])
			if err != nil {
				return nil, err
			}
			pos := acc.pos
			acc, err = ps.call(toks[j], acc, rhs)
			if err != nil {
				return nil, err
			}
			acc.pos = pos
		}
		return splice(toks, i-1, end, acc), nil
	}
	return nil, nil
}

// infix returns whether toks[i] is an infix operator of the given tier with
// operands on both sides, where the right operand is not claimed by a more
// binding operator.
func (ps *parse) infix(toks []token, i int, tier Tier) bool {
	if tierof(toks[i]) != tier || !ps.isoperand(toks[i-1]) || !ps.isoperand(toks[i+1]) {
		return false
	}
	return i+2 >= len(toks) || tierof(toks[i+2]) <= tier
}

// leaf resolves an operand token to a key. A token that is not already a key
// is a number, a registered constant, or a parameter.
func (ps *parse) leaf(tok token) (token, error) {
	switch {
	case iskey(tok.text):
		return tok, nil
	case !ps.isoperand(tok):
		return token{}, &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "misplaced operator"}
	case isnumber(tok.text):
		v, err := ps.format.parse(tok.text)
		if err != nil {
			return token{}, &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "invalid number"}
		}
		return token{text: ps.t.constant(v), pos: tok.pos}, nil
	}
	if v, ok := ps.reg.Const(tok.text); ok {
		return token{text: ps.t.constant(v), pos: tok.pos}, nil
	}
	return token{text: ps.t.param(tok.text), pos: tok.pos}, nil
}

// stuck diagnoses a token list that cannot be reduced further.
func (ps *parse) stuck(toks []token) error {
	last := toks[len(toks)-1]
	if !ps.isoperand(last) {
		return &SyntaxError{Col: last.pos, Token: last.text, Msg: "dangling operator"}
	}
	if len(toks) == 2 {
		// Only a prefix use is possible here.
		return &UnknownOperatorError{Col: toks[0].pos, Name: toks[0].text, Arity: 1}
	}
	for _, tok := range toks {
		if !ps.isoperand(tok) {
			return &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "misplaced operator"}
		}
	}
	return &SyntaxError{Col: toks[0].pos, Msg: "expression does not reduce"}
}

// isoperand returns whether a token is a number, name, or key, as opposed to
// an operator or punctuation.
func (ps *parse) isoperand(tok token) bool {
	if _, ok := symbols[tok.text]; ok {
		return false
	}
	switch tok.text {
	case "(", ")", ps.sep, "":
		return false
	}
	return true
}

// ispow returns whether a token is an exponentiation operator.
func ispow(tok token) bool {
	return tok.text == "^" || tok.text == "pow"
}

// tierof returns the infix tier of a token.
func tierof(tok token) Tier {
	return symbols[tok.text].tier
}
