package formula

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function from reals to reals.
type Func interface {
	// Call evaluates the function. args has a length for which CanCall
	// returned true. Call may modify the elements of args. A function called
	// outside its domain should return an error wrapping ErrDomain, or NaN.
	Call(args []float64) (float64, error)

	// CanCall returns whether the function can be called with n arguments.
	// The parser resolves a call to the first Func registered under the name
	// for which CanCall returns true.
	CanCall(n int) bool
}

var (
	// ErrDomain indicates a function evaluated outside its domain.
	ErrDomain = errors.New("argument outside domain")
	// ErrOverflow indicates a result too large to represent.
	ErrOverflow = errors.New("result overflows")
)

type niladic struct {
	f func() float64
}

func (n niladic) Call(args []float64) (float64, error) {
	return n.f(), nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables into a Func. Unlike constants,
// niladic functions are called on every evaluation.
func Niladic(f func() float64) Func {
	return niladic{f}
}

type monadic struct {
	f func(float64) float64
}

func (m monadic) Call(args []float64) (float64, error) {
	return m.f(args[0]), nil
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func. f should return NaN
// for arguments outside its domain.
func Monadic(f func(float64) float64) Func {
	return monadic{f}
}

type dyadic struct {
	f func(a, b float64) float64
}

func (d dyadic) Call(args []float64) (float64, error) {
	return d.f(args[0], args[1]), nil
}

func (d dyadic) CanCall(n int) bool {
	return n == 2
}

// Dyadic wraps a function of two variables into a Func.
func Dyadic(f func(a, b float64) float64) Func {
	return dyadic{f}
}

// checked is a function of two variables that reports its own errors.
type checked struct {
	f func(a, b float64) (float64, error)
}

func (c checked) Call(args []float64) (float64, error) {
	return c.f(args[0], args[1])
}

func (c checked) CanCall(n int) bool {
	return n == 2
}

type variadic struct {
	min, max int
	f        func([]float64) float64
}

func (v variadic) Call(args []float64) (float64, error) {
	return v.f(args), nil
}

func (v variadic) CanCall(n int) bool {
	return n >= v.min && (v.max < 0 || n <= v.max)
}

// Variadic wraps a function of min to max variables into a Func. If max is
// negative, there is no upper bound.
func Variadic(min, max int, f func([]float64) float64) Func {
	return variadic{min, max, f}
}

type intmonadic struct {
	f func(int64) (int64, error)
}

func (m intmonadic) Call(args []float64) (float64, error) {
	n, err := toint(args[0])
	if err != nil {
		return 0, err
	}
	r, err := m.f(n)
	return float64(r), err
}

func (m intmonadic) CanCall(n int) bool {
	return n == 1
}

// IntMonadic wraps an integer function of one variable into a Func. The
// argument must be an integer representable as int64; otherwise the call
// fails with ErrDomain.
func IntMonadic(f func(int64) (int64, error)) Func {
	return intmonadic{f}
}

type intdyadic struct {
	f func(a, b int64) (int64, error)
}

func (d intdyadic) Call(args []float64) (float64, error) {
	a, err := toint(args[0])
	if err != nil {
		return 0, err
	}
	b, err := toint(args[1])
	if err != nil {
		return 0, err
	}
	r, err := d.f(a, b)
	return float64(r), err
}

func (d intdyadic) CanCall(n int) bool {
	return n == 2
}

// IntDyadic wraps an integer function of two variables into a Func, with the
// same argument conversion as IntMonadic.
func IntDyadic(f func(a, b int64) (int64, error)) Func {
	return intdyadic{f}
}

// toint converts an integral float to int64.
func toint(v float64) (int64, error) {
	if v != math.Trunc(v) {
		return 0, ErrDomain
	}
	return coerce(v)
}

// coerce truncates a float to int64.
func coerce(v float64) (int64, error) {
	v = math.Trunc(v)
	if math.IsNaN(v) || v < -(1<<63) || v >= 1<<63 {
		return 0, ErrDomain
	}
	return int64(v), nil
}

// ProviderKind decides where a provider's functions sit in resolution order.
type ProviderKind int8

const (
	// FloatProvider functions operate on float64 directly. They resolve
	// before any IntProvider function of the same name.
	FloatProvider ProviderKind = iota
	// IntProvider functions operate on integers. Their Funcs are normally
	// built with IntMonadic and IntDyadic.
	IntProvider
)

// Provider is a named collection of functions and constants contributed to a
// parser's registry.
type Provider struct {
	Name   string
	Kind   ProviderKind
	Funcs  map[string]Func
	Consts map[string]float64
}

// DefaultProviders returns the providers a Parser uses unless told otherwise.
func DefaultProviders() []*Provider {
	return []*Provider{Math, Integer}
}

// Math provides elementary functions and constants.
var Math = &Provider{
	Name: "math",
	Kind: FloatProvider,
	Funcs: map[string]Func{
		"sin":   Monadic(math.Sin),
		"cos":   Monadic(math.Cos),
		"tan":   Monadic(math.Tan),
		"asin":  Monadic(math.Asin),
		"acos":  Monadic(math.Acos),
		"atan":  Monadic(math.Atan),
		"atan2": Dyadic(math.Atan2),
		"sinh":  Monadic(math.Sinh),
		"cosh":  Monadic(math.Cosh),
		"tanh":  Monadic(math.Tanh),
		"asinh": Monadic(math.Asinh),
		"acosh": Monadic(math.Acosh),
		"atanh": Monadic(math.Atanh),
		"exp":   Monadic(math.Exp),
		"ln":    Monadic(positive(math.Log)),
		"log": Variadic(1, 2, func(v []float64) float64 {
			if len(v) == 1 {
				return positive(math.Log10)(v[0])
			}
			return positive(math.Log)(v[0]) / positive(math.Log)(v[1])
		}),
		"log2":  Monadic(positive(math.Log2)),
		"log10": Monadic(positive(math.Log10)),
		"sqrt":  Monadic(math.Sqrt),
		"cbrt":  Monadic(math.Cbrt),
		"abs":   Monadic(math.Abs),
		"floor": Monadic(math.Floor),
		"ceil":  Monadic(math.Ceil),
		"round": Monadic(math.Round),
		"trunc": Monadic(math.Trunc),
		"sign":  Monadic(sign),
		"hypot": Dyadic(math.Hypot),
		"rad":   Monadic(func(x float64) float64 { return x * (math.Pi / 180) }),
		"deg":   Monadic(func(x float64) float64 { return x * (180 / math.Pi) }),
		"min": Variadic(1, -1, func(v []float64) float64 {
			r := v[0]
			for _, x := range v[1:] {
				r = math.Min(r, x)
			}
			return r
		}),
		"max": Variadic(1, -1, func(v []float64) float64 {
			r := v[0]
			for _, x := range v[1:] {
				r = math.Max(r, x)
			}
			return r
		}),
	},
	Consts: mathconsts(),
}

// mathconsts computes the Math constants at a precision well beyond float64
// so that each rounds correctly.
func mathconsts() map[string]float64 {
	const prec = 128
	z := func(x int64) *big.Float {
		return new(big.Float).SetPrec(prec).SetInt64(x)
	}
	pi := bigfloat.Pi(z(0))
	e := bigfloat.Exp(z(0), z(1))
	ln2 := bigfloat.Log(z(0), z(2))
	ln10 := bigfloat.Log(z(0), z(10))
	sqrt2 := z(0).Sqrt(z(2))
	phi := z(0).Sqrt(z(5))
	phi.Add(phi, z(1)).Quo(phi, z(2))
	tau := z(0).Mul(pi, z(2))
	f := func(x *big.Float) float64 {
		r, _ := x.Float64()
		return r
	}
	return map[string]float64{
		"pi":    f(pi),
		"π":     f(pi),
		"tau":   f(tau),
		"e":     f(e),
		"phi":   f(phi),
		"ln2":   f(ln2),
		"ln10":  f(ln10),
		"sqrt2": f(sqrt2),
	}
}

// positive restricts a logarithm to positive arguments so that log(0) is a
// domain error rather than -Inf.
func positive(f func(float64) float64) func(float64) float64 {
	return func(x float64) float64 {
		if x <= 0 {
			return math.NaN()
		}
		return f(x)
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

// Integer provides integer functions.
var Integer = &Provider{
	Name: "integer",
	Kind: IntProvider,
	Funcs: map[string]Func{
		"fact":  IntMonadic(fact),
		"isqrt": IntMonadic(isqrt),
		"gcd":   IntDyadic(gcd),
		"lcm":   IntDyadic(lcm),
		"binom": IntDyadic(binom),
	},
}

func fact(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrDomain
	}
	r := int64(1)
	for i := int64(2); i <= n; i++ {
		if r > math.MaxInt64/i {
			return 0, ErrOverflow
		}
		r *= i
	}
	return r, nil
}

func isqrt(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrDomain
	}
	// maxroot is the integer square root of math.MaxInt64.
	const maxroot = 3037000499
	r := int64(math.Sqrt(float64(n)))
	if r > maxroot {
		r = maxroot
	}
	// Correct for rounding in the float conversion.
	for r*r > n {
		r--
	}
	for r < maxroot && (r+1)*(r+1) <= n {
		r++
	}
	return r, nil
}

func gcd(a, b int64) (int64, error) {
	if a == math.MinInt64 || b == math.MinInt64 {
		return 0, ErrOverflow
	}
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a, nil
}

func lcm(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	g, err := gcd(a, b)
	if err != nil {
		return 0, err
	}
	a /= g
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > math.MaxInt64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

func binom(n, k int64) (int64, error) {
	if n < 0 || k < 0 || k > n {
		return 0, ErrDomain
	}
	if k > n-k {
		k = n - k
	}
	r := int64(1)
	for i := int64(1); i <= k; i++ {
		// r*(n-k+i) is always divisible by i.
		g, _ := gcd(r, i)
		r /= g
		m := (n - k + i) / (i / g)
		if r > math.MaxInt64/m {
			return 0, ErrOverflow
		}
		r *= m
	}
	return r, nil
}
