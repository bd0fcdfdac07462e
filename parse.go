package formula

import (
	"strings"
)

// Expr = Low
// Low  = High { LowOp High }
// High = [ Prefix ] Atom [ Suffix ] { HighOp High }
// Atom = num | name | '(' Low ')' | name '(' [ Low { sep Low } ] ')'
//
// Adjacent atoms multiply. Parsing proceeds in stages: the input is lexed,
// innermost parentheses are resolved one group at a time, and each flat run
// of tokens is reduced by precedence tier until one operand remains.

// Parser parses formulas. A Parser is immutable and safe for concurrent use.
type Parser struct {
	reg    *Registry
	format NumeralFormat
}

// NewParser creates a parser. With no options, the parser uses the default
// providers and numeral format.
func NewParser(opts ...Option) *Parser {
	cfg := parsecfg{format: DefaultFormat}
	for _, opt := range opts {
		opt.parserOption(&cfg)
	}
	if cfg.providers == nil {
		cfg.providers = DefaultProviders()
	}
	return &Parser{
		reg:    NewRegistry(append(cfg.extra, cfg.providers...)...),
		format: cfg.format,
	}
}

// Registry returns the parser's registry.
func (p *Parser) Registry() *Registry {
	return p.reg
}

// Format returns the parser's numeral format.
func (p *Parser) Format() NumeralFormat {
	return p.format
}

// Expr is a parsed formula.
type Expr struct {
	// root is the root node of the formula.
	root *Node
	// names is the sorted list of parameter names used in the formula.
	names []string
	// format is the numeral format the formula was parsed with.
	format NumeralFormat
}

// Parse parses a formula. An empty formula is the constant 0. Errors are
// *SyntaxError or *UnknownOperatorError.
func (p *Parser) Parse(src string) (*Expr, error) {
	toks, err := lex(src, p.format)
	if err != nil {
		return nil, err
	}
	ps := parse{
		reg:    p.reg,
		format: p.format,
		sep:    string(p.format.Separator),
		t:      newTable(),
	}
	key, err := ps.expr(toks)
	if err != nil {
		return nil, err
	}
	ex := Expr{
		root:   ps.t.node(key.text),
		names:  ps.t.params(),
		format: p.format,
	}
	return &ex, nil
}

// Parse parses a formula with a parser using default options.
func Parse(src string) (*Expr, error) {
	return defaultParser.Parse(src)
}

var defaultParser = NewParser()

// Vars returns the parameter names used in the formula, sorted.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// Root returns the root node of the formula.
func (e *Expr) Root() *Node {
	return e.root
}

// Walk calls f once for every distinct node of the formula, parents before
// their operands.
func (e *Expr) Walk(f func(*Node)) {
	e.root.walk(make(map[*Node]bool), f)
}

// String renders the formula fully parenthesized. Parsing the result with the
// same options yields an equivalent formula.
func (e *Expr) String() string {
	var b strings.Builder
	e.root.fmt(&b, e.format)
	return b.String()
}

// parse holds the state of a single parse.
type parse struct {
	reg    *Registry
	format NumeralFormat
	sep    string
	t      *table
}

// expr reduces a whole token list to a single key.
func (ps *parse) expr(toks []token) (token, error) {
	toks, err := ps.parens(toks)
	if err != nil {
		return token{}, err
	}
	return ps.reduce(toks)
}

// parens resolves parenthesized groups and argument lists, innermost first,
// until none remain.
func (ps *parse) parens(toks []token) ([]token, error) {
	for {
		end := -1
		for i, tok := range toks {
			if tok.text == ")" {
				end = i
				break
			}
		}
		if end < 0 {
			for _, tok := range toks {
				if tok.text == "(" {
					return nil, &SyntaxError{Col: tok.pos, Token: tok.text, Msg: "mismatched left parenthesis"}
				}
			}
			return toks, nil
		}
		open := -1
		for i := end - 1; i >= 0; i-- {
			if toks[i].text == "(" {
				open = i
				break
			}
		}
		if open < 0 {
			return nil, &SyntaxError{Col: toks[end].pos, Token: toks[end].text, Msg: "mismatched right parenthesis"}
		}
		inner := toks[open+1 : end]
		if ps.iscall(toks, open, inner) {
			args, err := ps.args(inner, toks[end])
			if err != nil {
				return nil, err
			}
			key, err := ps.call(toks[open-1], args...)
			if err != nil {
				return nil, err
			}
			toks = splice(toks, open-1, end+1, key)
			continue
		}
		if len(inner) == 0 {
			return nil, &SyntaxError{Col: toks[open].pos, Token: "()", Msg: "empty parentheses"}
		}
		key, err := ps.reduce(inner)
		if err != nil {
			return nil, err
		}
		key.pos = toks[open].pos
		toks = splice(toks, open, end+1, key)
	}
}

// iscall returns whether the parenthesized list opening at toks[open] is the
// argument list of a function call. It is if it follows an identifier that
// is not being used as an infix operator, and either a function is registered
// under that name or the list has other than one argument. Otherwise, e.g. in
// "k(x+1)" where k is a parameter, the parentheses only group.
func (ps *parse) iscall(toks []token, open int, inner []token) bool {
	if open == 0 {
		return false
	}
	name := toks[open-1].text
	if !isident(name) {
		return false
	}
	if sym, ok := symbols[name]; ok && sym.tier != TierNone && open >= 2 && ps.isoperand(toks[open-2]) {
		return false
	}
	if ps.reg.Has(name) {
		return true
	}
	n := 0
	if len(inner) > 0 {
		n = 1
	}
	for _, tok := range inner {
		if tok.text == ps.sep {
			n++
		}
	}
	return n != 1
}

// args reduces each argument of an argument list.
func (ps *parse) args(inner []token, end token) ([]token, error) {
	if len(inner) == 0 {
		return nil, nil
	}
	var args []token
	start := 0
	for i := 0; i <= len(inner); i++ {
		if i < len(inner) && inner[i].text != ps.sep {
			continue
		}
		if i == start {
			at := end
			if i < len(inner) {
				at = inner[i]
			}
			return nil, &SyntaxError{Col: at.pos, Token: at.text, Msg: "empty argument before"}
		}
		key, err := ps.reduce(inner[start:i])
		if err != nil {
			return nil, err
		}
		args = append(args, key)
		start = i + 1
	}
	return args, nil
}

// call resolves a function or operator applied to operand keys and returns
// the key of the call.
func (ps *parse) call(name token, args ...token) (token, error) {
	canon, fn := ps.reg.lookup(name.text, len(args))
	if fn == nil {
		return token{}, &UnknownOperatorError{Col: name.pos, Name: name.text, Arity: len(args)}
	}
	keys := make([]string, len(args))
	for i, arg := range args {
		keys[i] = arg.text
	}
	return token{text: ps.t.call(canon, fn, keys), pos: name.pos}, nil
}

// splice replaces toks[start:end] with a single token.
func splice(toks []token, start, end int, tok token) []token {
	toks[start] = tok
	return append(toks[:start+1], toks[end:]...)
}
