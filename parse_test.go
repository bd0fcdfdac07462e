package formula

import (
	"math"
	"reflect"
	"regexp"
	"testing"
)

// near reports whether two results agree to within rounding.
func near(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}

// evalsrc parses and evaluates src with the given variable values.
func evalsrc(t *testing.T, p *Parser, src string, vars map[string]float64) (float64, error) {
	t.Helper()
	e, err := p.Parse(src)
	if err != nil {
		return 0, err
	}
	prog, err := e.Compile()
	if err != nil {
		return 0, err
	}
	args := make([]float64, 0, len(vars))
	for _, name := range prog.Params() {
		v, ok := vars[name]
		if !ok {
			t.Fatalf("%q: no value for %q", src, name)
		}
		args = append(args, v)
	}
	return prog.Eval(args...)
}

func TestParseValues(t *testing.T) {
	x3 := map[string]float64{"x": 3}
	cases := []struct {
		name string
		src  string
		vars map[string]float64
		want float64
	}{
		{"empty", "", nil, 0},
		{"num", "169", nil, 169},
		{"low-fold", "169 - 5 - 3 - 1", nil, 160},
		{"mul-first", "169 - 5 * 3 - 1", nil, 153},
		{"mul-left", "169 * 5 - 3 - 1", nil, 841},
		{"group", "169 - (5 - 3 - 1)", nil, 168},
		{"implicit-group", "169 (5 - 3 - 1)", nil, 169},
		{"add-mul", "2 + 3 * 4", nil, 14},
		{"parens", "(2 + 3) * 4", nil, 20},
		{"div", "10 / 4", nil, 2.5},
		{"mod", "10 % 4", nil, 2},
		{"mod-word", "7 mod 3", nil, 1},
		{"mod-call", "mod(7, 3)", nil, 1},
		{"mul-mod", "2 * 3 mod 4", nil, 2},
		{"pow", "2 ^ 10", nil, 1024},
		{"pow-star", "2 ** 3", nil, 8},
		{"pow-word", "2 pow 10", nil, 1024},
		{"pow-call", "pow(2, 10)", nil, 1024},
		{"pow-chain", "2^3^2", nil, 64},
		{"mul-pow", "2 * 3^2", nil, 36},
		{"div-pow", "8/2^2", nil, 16},
		{"implicit-pow", "2x^2", x3, 18},
		{"neg-mul-pow", "-2*3^2", nil, 36},
		{"neg-pow", "-2^2", nil, -4},
		{"pow-neg", "2^-3*4", nil, 0.5},
		{"sub-neg-pow", "1 - -2^2", nil, 5},
		{"double-neg", "--35", nil, 35},
		{"mixed-signs", "+-+35", nil, -35},
		{"sub-neg", "2--3", nil, 5},
		{"mul-neg", "2*-3", nil, -6},
		{"self-sub", "-35-(-35)", nil, 0},
		{"neg-word", "neg 3", nil, -3},
		{"neg-call", "neg(3)", nil, -3},
		{"implicit", "2 3", nil, 6},
		{"implicit-parens", "2(3)", nil, 6},
		{"explicit", "2*3", nil, 6},
		{"implicit-chain", "2(3)(4)", nil, 24},
		{"implicit-groups", "(1)(2)", nil, 2},
		{"implicit-const", "2pi", nil, 2 * math.Pi},
		{"implicit-e", "2e", nil, 2 * math.E},
		{"exponent", "2e3", nil, 2000},
		{"implicit-var", "x y", map[string]float64{"x": 2, "y": 3}, 6},
		{"poly", "x^2 + 2x + 1", x3, 16},
		{"grouping-var", "k(3)", map[string]float64{"k": 2}, 6},
		{"fact", "5!", nil, 120},
		{"fact-pow", "3!^2", nil, 36},
		{"neg-fact", "-x!", x3, -6},
		{"not-zero", "!0", nil, 1},
		{"not-nonzero", "!5", nil, 0},
		{"degrees", "180°", nil, math.Pi},
		{"sin-degrees", "sin(90°)", nil, 1},
		{"atan2", "atan2(1, 1)", nil, math.Pi / 4},
		{"atan2-large", "atan2(312,2)", nil, math.Atan2(312, 2)},
		{"pow-e", "e ** 2", nil, math.Pow(math.E, 2)},
		{"max", "max(1, 5, 3)", nil, 5},
		{"min", "min(4)", nil, 4},
		{"log", "log(1000)", nil, 3},
		{"log-base", "log(8, 2)", nil, 3},
		{"nested", "sqrt(abs(-16)) + floor(2.5)", nil, 6},
		{"shl", "1 << 10", nil, 1024},
		{"shr", "1024 >> 3", nil, 128},
		{"and", "6 & 3", nil, 2},
		{"or", "6 | 3", nil, 7},
		{"xor", "6 xor 3", nil, 5},
		{"low-mixed", "1 << 2 + 1", nil, 5},
		{"bitwise-trunc", "6.9 & 3.2", nil, 2},
		{"gcd", "gcd(12, 18)", nil, 6},
		{"lcm", "lcm(4, 6)", nil, 12},
		{"binom", "binom(5, 2)", nil, 10},
		{"isqrt", "isqrt(17)", nil, 4},
		{"case", "SIN(X)^2 + Cos(x)^2", x3, 1},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r, err := evalsrc(t, defaultParser, c.src, c.vars)
			if err != nil {
				t.Fatalf("%q: %v", c.src, err)
			}
			if !near(r, c.want) {
				t.Errorf("%q: want %v, got %v", c.src, c.want, r)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		// syn is true for SyntaxError and false for UnknownOperatorError.
		syn bool
		pos int
		msg string
	}{
		{"bad-char", "$", true, 1, `invalid character "\$"`},
		{"bad-num", "1..2", true, 1, "malformed number"},
		{"open", "(", true, 1, "mismatched left parenthesis"},
		{"open-expr", "(1 + 2", true, 1, "mismatched left parenthesis"},
		{"close", "1 + 2)", true, 6, "mismatched right parenthesis"},
		{"empty-parens", "()", true, 1, "empty parentheses"},
		{"empty-parens-mul", "2 * ()", true, 5, "empty parentheses"},
		{"empty-first-arg", "f(,1)", true, 3, "empty argument"},
		{"empty-last-arg", "f(1,)", true, 5, "empty argument"},
		{"separator", "1, 2", true, 2, "argument separator outside function call"},
		{"dangling", "1 +", true, 3, "dangling operator"},
		{"dangling-group", "1 + (2 * )", true, 8, "dangling operator"},
		{"misplaced", "1 * * 2", true, 3, "misplaced operator"},
		{"suffix", "°", true, 1, "misplaced"},
		{"suffix-first", "° 5", true, 1, "misplaced suffix operator"},
		{"suffix-after-op", "2 + °", true, 5, "misplaced suffix operator"},
		{"fact-after-op", "2 + !", true, 5, "dangling operator"},
		{"prefix-only", "* 2", false, 1, `"\*" with 1 operands`},
		{"arity", "atan2(1, 2, 3)", false, 1, `"atan2" with 3 operands`},
		{"no-args", "sin()", false, 1, `"sin" with 0 operands`},
		{"unknown", "foo(1, 2)", false, 1, `"foo" with 2 operands`},
		{"unknown-nested", "1 + bar(x, y)", false, 5, `"bar" with 2 operands`},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			e, err := Parse(c.src)
			if err == nil {
				t.Fatalf("%q: no error, got %v", c.src, e)
			}
			switch err.(type) {
			case *SyntaxError:
				if !c.syn {
					t.Errorf("%q: want UnknownOperatorError, got %T (%v)", c.src, err, err)
				}
			case *UnknownOperatorError:
				if c.syn {
					t.Errorf("%q: want SyntaxError, got %T (%v)", c.src, err, err)
				}
			default:
				t.Fatalf("%q: wrong error type %T (%v)", c.src, err, err)
			}
			if p := err.(InputError).Pos(); p != c.pos {
				t.Errorf("%q: want error at %d, got %d (%v)", c.src, c.pos, p, err)
			}
			if !regexp.MustCompile(c.msg).MatchString(err.Error()) {
				t.Errorf("%q: error %q does not match %q", c.src, err.Error(), c.msg)
			}
		})
	}
}

func TestParseVars(t *testing.T) {
	cases := []struct {
		src  string
		vars []string
	}{
		{"1 + 2", nil},
		{"x", []string{"x"}},
		{"X + x", []string{"x"}},
		{"x + y*x + a", []string{"a", "x", "y"}},
		{"2 pi x", []string{"x"}},
		{"k(z)", []string{"k", "z"}},
		{"sin(θ)", []string{"θ"}},
	}
	for _, c := range cases {
		e, err := Parse(c.src)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		if got := e.Vars(); !reflect.DeepEqual(got, c.vars) {
			t.Errorf("%q: want vars %q, got %q", c.src, c.vars, got)
		}
	}
}

func TestParseShared(t *testing.T) {
	cases := []struct {
		src    string
		shared bool
		nodes  int
	}{
		{"sin(x) + sin(x)", true, 3},
		{"-35-(-35)", true, 3},
		{"x*y - x*y", true, 4},
		{"x*y - y*x", false, 5},
		{"2 + 2.0", true, 2},
		{"(x+1)^2 / (x + 1)", false, 6},
	}
	for _, c := range cases {
		e, err := Parse(c.src)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		root := e.Root()
		if len(root.Args) != 2 {
			t.Errorf("%q: root %v is not binary", c.src, root)
			continue
		}
		if (root.Args[0] == root.Args[1]) != c.shared {
			t.Errorf("%q: want shared=%t for %v and %v", c.src, c.shared, root.Args[0], root.Args[1])
		}
		n := 0
		e.Walk(func(*Node) { n++ })
		if n != c.nodes {
			t.Errorf("%q: want %d distinct nodes, got %d", c.src, c.nodes, n)
		}
	}
}

func TestParseString(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"", "0"},
		{"1+2*3", "(1 + (2 * 3))"},
		{"-x", "(-x)"},
		{"neg x", "(-x)"},
		{"!x", "(!x)"},
		{"5!", "fact(5)"},
		{"2 mod 3", "(2 % 3)"},
		{"2**3", "(2 ^ 3)"},
		{"8/2^2", "((8 / 2) ^ 2)"},
		{"2x^2", "(2 * (x ^ 2))"},
		{"x xor y", "(x xor y)"},
		{"atan2(y,x)", "atan2(y, x)"},
		{"2pi", "(2 * 3.141592653589793)"},
		{"1e21 + .5", "(1e+21 + 0.5)"},
		{"90°", "rad(90)"},
		{"max(1, -2, x)", "max(1, (-2), x)"},
	}
	for _, c := range cases {
		e, err := Parse(c.src)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		s := e.String()
		if s != c.want {
			t.Errorf("%q: want %q, got %q", c.src, c.want, s)
		}
		if e.Root().String() != s {
			t.Errorf("%q: node renders as %q, expression as %q", c.src, e.Root(), s)
		}
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	srcs := []string{
		"x^2 + 2x + 1",
		"-2^2",
		"2^-3*4",
		"--x",
		"sin(x)cos(y) - log(x, 2)",
		"k(3)",
		"3!^2 + 90°",
		"1 << 2 + 1 & 7 | x xor y",
		"0.1 + 0.2 - 1e-300",
		"min(x, y, 4) mod 3",
	}
	for _, src := range srcs {
		e, err := Parse(src)
		if err != nil {
			t.Errorf("%q: %v", src, err)
			continue
		}
		s := e.String()
		f, err := Parse(s)
		if err != nil {
			t.Errorf("%q: reparsing %q: %v", src, s, err)
			continue
		}
		if r := f.String(); r != s {
			t.Errorf("%q: rendered %q, reparsed to %q", src, s, r)
		}
	}
}

func TestParseStringNegativeConst(t *testing.T) {
	m := &Provider{Name: "m", Consts: map[string]float64{"m": -1, "z": math.Copysign(0, -1)}}
	p := NewParser(WithProviders(m, Math))
	cases := []struct {
		src  string
		want string
		r    float64
	}{
		{"m ^ 2", "((-1) ^ 2)", 1},
		{"2 - m", "(2 - (-1))", 3},
		{"m m", "((-1) * (-1))", 1},
		{"1 / z", "(1 / (-0))", math.Inf(-1)},
	}
	for _, c := range cases {
		e, err := p.Parse(c.src)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		s := e.String()
		if s != c.want {
			t.Errorf("%q: want %q, got %q", c.src, c.want, s)
		}
		f, err := p.Parse(s)
		if err != nil {
			t.Errorf("%q: reparsing %q: %v", c.src, s, err)
			continue
		}
		if r := f.String(); r != s {
			t.Errorf("%q: rendered %q, reparsed to %q", c.src, s, r)
		}
		if math.IsInf(c.r, 0) {
			continue
		}
		for _, x := range []*Expr{e, f} {
			prog, err := x.Compile()
			if err != nil {
				t.Fatal(err)
			}
			if r, err := prog.Eval(); err != nil || r != c.r {
				t.Errorf("%q: want %v, got %v (%v)", x, c.r, r, err)
			}
		}
	}
}

func TestParseDecimalComma(t *testing.T) {
	p := NewParser(WithNumeralFormat(NumeralFormat{Decimal: ',', Separator: ';'}))
	e, err := p.Parse("max(1,5; x; ,25) * 2")
	if err != nil {
		t.Fatal(err)
	}
	if want := "(max(1,5; x; 0,25) * 2)"; e.String() != want {
		t.Errorf("want %q, got %q", want, e.String())
	}
	prog, err := e.Compile()
	if err != nil {
		t.Fatal(err)
	}
	r, err := prog.Eval(0)
	if err != nil || r != 3 {
		t.Errorf("want 3, got %v (%v)", r, err)
	}
	if _, err := p.Parse("1, 5"); err == nil {
		t.Error("lone decimal separator parsed")
	}
	if p.Format() != (NumeralFormat{Decimal: ',', Separator: ';'}) {
		t.Errorf("wrong format %+v", p.Format())
	}
}

func TestParseStrictShrink(t *testing.T) {
	// None of these reduce. Parsing must fail instead of looping.
	srcs := []string{
		"+",
		"- -",
		"x ^",
		"^ x",
		"! !",
		"2 ^ ^ 3",
		"1 2 *",
		"neg",
		"mod mod",
	}
	for _, src := range srcs {
		if e, err := Parse(src); err == nil {
			t.Errorf("%q: parsed as %v", src, e)
		}
	}
}
