package formula

import (
	"math"
)

// Tier is the binding strength of an infix operator. Higher tiers are reduced
// first.
type Tier int8

const (
	// TierNone marks operators that are not infix.
	TierNone Tier = iota
	// TierLow is addition, subtraction, and the bitwise operators.
	TierLow
	// TierHigh is exponentiation, multiplication, division, and modulo.
	TierHigh
)

// symbol describes how the reducer treats an operator token.
type symbol struct {
	// tier is the infix tier, or TierNone if the operator is not infix.
	tier Tier
	// prefix indicates the operator can be a unary prefix.
	prefix bool
	// suffix is the name of the function applied when the operator follows
	// an operand, or the empty string if it is not a suffix operator.
	suffix string
}

var symbols = map[string]symbol{
	"^":   {tier: TierHigh},
	"pow": {tier: TierHigh},
	"*":   {tier: TierHigh},
	"/":   {tier: TierHigh},
	"%":   {tier: TierHigh},
	"mod": {tier: TierHigh},
	"+":   {tier: TierLow, prefix: true},
	"-":   {tier: TierLow, prefix: true},
	"&":   {tier: TierLow},
	"|":   {tier: TierLow},
	"xor": {tier: TierLow},
	"<<":  {tier: TierLow},
	">>":  {tier: TierLow},
	"neg": {prefix: true},
	"!":   {prefix: true, suffix: "fact"},
	"°":   {suffix: "rad"},
}

// alias is an alternate spelling of an operator.
type alias struct {
	to string
	// arity restricts the alias to a number of operands, unless it is 0.
	arity int
}

var aliases = map[string]alias{
	"pow": {to: "^"},
	"mod": {to: "%"},
	"neg": {to: "-", arity: 1},
}

// canonical resolves an alias.
func canonical(name string, arity int) string {
	if a, ok := aliases[name]; ok && (a.arity == 0 || a.arity == arity) {
		return a.to
	}
	return name
}

// Registry is the table of operators, functions, and constants a parser
// resolves names against. It is immutable once created and safe for
// concurrent use.
type Registry struct {
	funcs  map[string][]Func
	consts map[string]float64
}

// NewRegistry creates a registry from the built-in operators and the given
// providers. Names resolve first to built-in operators, then to functions of
// float providers, then to functions of integer providers, each group in the
// order given. Constants resolve to the first provider defining them.
func NewRegistry(providers ...*Provider) *Registry {
	r := Registry{
		funcs:  structural(),
		consts: make(map[string]float64),
	}
	for _, kind := range []ProviderKind{FloatProvider, IntProvider} {
		for _, p := range providers {
			if p == nil || p.Kind != kind {
				continue
			}
			for name, fn := range p.Funcs {
				if fn != nil {
					r.funcs[name] = append(r.funcs[name], fn)
				}
			}
			for name, v := range p.Consts {
				if _, ok := r.consts[name]; !ok {
					r.consts[name] = v
				}
			}
		}
	}
	return &r
}

// Lookup finds the function or operator to call for a name with a given
// number of operands. The result is nil if there is none.
func (r *Registry) Lookup(name string, arity int) Func {
	_, fn := r.lookup(name, arity)
	return fn
}

// lookup is like Lookup but also returns the canonical name.
func (r *Registry) lookup(name string, arity int) (string, Func) {
	name = canonical(name, arity)
	for _, fn := range r.funcs[name] {
		if fn.CanCall(arity) {
			return name, fn
		}
	}
	return name, nil
}

// Has returns whether any function is registered under a name.
func (r *Registry) Has(name string) bool {
	if a, ok := aliases[name]; ok {
		name = a.to
	}
	return len(r.funcs[name]) != 0
}

// Const returns the value of a named constant.
func (r *Registry) Const(name string) (float64, bool) {
	v, ok := r.consts[name]
	return v, ok
}

// structural creates the built-in operator table.
func structural() map[string][]Func {
	return map[string][]Func{
		"^": {Dyadic(math.Pow)},
		"*": {Dyadic(func(a, b float64) float64 { return a * b })},
		"/": {checked{div}},
		"%": {Dyadic(math.Mod)},
		"+": {
			Monadic(func(a float64) float64 { return a }),
			Dyadic(func(a, b float64) float64 { return a + b }),
		},
		"-": {
			Monadic(func(a float64) float64 { return -a }),
			Dyadic(func(a, b float64) float64 { return a - b }),
		},
		"&":   {bitwise(func(a, b int64) int64 { return a & b })},
		"|":   {bitwise(func(a, b int64) int64 { return a | b })},
		"xor": {bitwise(func(a, b int64) int64 { return a ^ b })},
		"<<":  {checked{shl}},
		">>":  {checked{shr}},
		"!":   {Monadic(not)},
	}
}

func div(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDomain
	}
	return a / b, nil
}

func not(a float64) float64 {
	if a == 0 {
		return 1
	}
	return 0
}

// bitwise wraps an integer operator. Operands are truncated to int64.
func bitwise(f func(a, b int64) int64) Func {
	return checked{func(a, b float64) (float64, error) {
		x, err := coerce(a)
		if err != nil {
			return 0, err
		}
		y, err := coerce(b)
		if err != nil {
			return 0, err
		}
		return float64(f(x, y)), nil
	}}
}

func shift(a, b float64) (int64, uint, error) {
	x, err := coerce(a)
	if err != nil {
		return 0, 0, err
	}
	s, err := coerce(b)
	if err != nil {
		return 0, 0, err
	}
	if s < 0 || s > 63 {
		return 0, 0, ErrDomain
	}
	return x, uint(s), nil
}

func shl(a, b float64) (float64, error) {
	x, s, err := shift(a, b)
	if err != nil {
		return 0, err
	}
	r := x << s
	if r>>s != x {
		return 0, ErrOverflow
	}
	return float64(r), nil
}

func shr(a, b float64) (float64, error) {
	x, s, err := shift(a, b)
	if err != nil {
		return 0, err
	}
	return float64(x >> s), nil
}
