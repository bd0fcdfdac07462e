package formula

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
)

// Program is a compiled formula. It is immutable and safe for concurrent use.
type Program struct {
	// params is the signature of the program.
	params []string
	// init holds the initial value of every slot: constants are set, and
	// all other slots are overwritten during evaluation.
	init []float64
	// pslots is the slot of each parameter, or -1 if the formula doesn't use
	// the parameter.
	pslots []int
	// code computes the call slots in dependency order.
	code []instr
	// result is the slot holding the value of the formula.
	result int
	// src is the canonical form of the formula.
	src string
}

// instr is a single call in a program.
type instr struct {
	out  int
	args []int
	name string
	fn   Func
}

// Compile compiles the formula into a program taking the given parameters in
// order. Parameters the formula doesn't use are accepted and ignored. If no
// parameters are given, the program takes the formula's own variables in
// sorted order. If the formula uses a variable not among the parameters, the
// error is a *NameError. Compile panics if a parameter is repeated.
func (e *Expr) Compile(params ...string) (*Program, error) {
	if len(params) == 0 {
		params = e.names
	}
	names := make([]string, len(params))
	index := make(map[string]int, len(params))
	for i, name := range params {
		name = strings.ToLower(name)
		if _, ok := index[name]; ok {
			panic("formula: duplicate parameter " + strconv.Quote(name))
		}
		names[i] = name
		index[name] = i
	}
	for _, name := range e.names {
		if _, ok := index[name]; !ok {
			return nil, &NameError{Name: name}
		}
	}
	c := compiler{
		slots: make(map[*Node]int),
		index: index,
		prog: Program{
			params: names,
			pslots: make([]int, len(params)),
			src:    e.String(),
		},
	}
	for i := range c.prog.pslots {
		c.prog.pslots[i] = -1
	}
	c.prog.result = c.emit(e.root)
	return &c.prog, nil
}

// Compile parses and compiles a formula.
func (p *Parser) Compile(src string, params ...string) (*Program, error) {
	e, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Compile(params...)
}

// CompileXY parses a formula and compiles it as a function of x and y, ready
// for sampling. The result never fails; it reports false where the formula
// has no value.
func (p *Parser) CompileXY(src string) (func(x, y float64) (float64, bool), error) {
	prog, err := p.Compile(src, "x", "y")
	if err != nil {
		return nil, err
	}
	return prog.Func2(), nil
}

type compiler struct {
	slots map[*Node]int
	index map[string]int
	prog  Program
}

// emit assigns a slot to n, after its operands, and returns it. Shared nodes
// get one slot and are computed once.
func (c *compiler) emit(n *Node) int {
	if s, ok := c.slots[n]; ok {
		return s
	}
	var args []int
	for _, arg := range n.Args {
		args = append(args, c.emit(arg))
	}
	s := len(c.prog.init)
	c.prog.init = append(c.prog.init, 0)
	c.slots[n] = s
	switch n.Kind {
	case NodeConst:
		c.prog.init[s] = n.Value
	case NodeParam:
		c.prog.pslots[c.index[n.Name]] = s
	case NodeCall:
		c.prog.code = append(c.prog.code, instr{out: s, args: args, name: n.Name, fn: n.fn})
	default:
		panic("formula: invalid node kind " + n.Kind.String())
	}
	return s
}

// Params returns the names of the program's parameters in order.
func (p *Program) Params() []string {
	return append(([]string)(nil), p.params...)
}

// String returns the canonical form of the compiled formula.
func (p *Program) String() string {
	return p.src
}

// Eval evaluates the program with arguments in the order of its parameters.
// If any operation fails or produces a non-finite result, the error is an
// *EvaluationError. Eval panics if the number of arguments is wrong.
func (p *Program) Eval(args ...float64) (float64, error) {
	if len(args) != len(p.params) {
		panic("formula: program takes " + strconv.Itoa(len(p.params)) + " arguments, not " + strconv.Itoa(len(args)))
	}
	var buf [32]float64
	var slots []float64
	if len(p.init) <= len(buf) {
		slots = buf[:len(p.init)]
	} else {
		slots = make([]float64, len(p.init))
	}
	copy(slots, p.init)
	for i, s := range p.pslots {
		if s >= 0 {
			slots[s] = args[i]
		}
	}
	for k := range p.code {
		in := &p.code[k]
		r, err := in.eval(slots)
		switch {
		case err != nil: // do nothing
		case math.IsNaN(r):
			err = ErrDomain
		case math.IsInf(r, 0):
			err = ErrOverflow
		}
		if err != nil {
			return 0, in.fail(slots, err)
		}
		slots[in.out] = r
	}
	return slots[p.result], nil
}

// Func2 returns the program as a function of two variables. The function
// never fails; where evaluation fails or the result is not finite, it returns
// false instead. Func2 panics if the program does not take two parameters.
func (p *Program) Func2() func(x, y float64) (float64, bool) {
	if len(p.params) != 2 {
		panic("formula: Func2 on program of " + strconv.Itoa(len(p.params)) + " parameters")
	}
	return func(x, y float64) (float64, bool) {
		r, err := p.Eval(x, y)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, false
		}
		return r, true
	}
}

// eval calls the instruction's function. A runtime panic in the function,
// such as an integer division by zero, is reported as ErrDomain.
func (in *instr) eval(slots []float64) (r float64, err error) {
	defer func() {
		if e := recover(); e != nil {
			re, ok := e.(runtime.Error)
			if !ok {
				panic(e)
			}
			r, err = 0, fmt.Errorf("%w: %v", ErrDomain, re)
		}
	}()
	switch f := in.fn.(type) {
	case monadic:
		return f.f(slots[in.args[0]]), nil
	case dyadic:
		return f.f(slots[in.args[0]], slots[in.args[1]]), nil
	case checked:
		return f.f(slots[in.args[0]], slots[in.args[1]])
	}
	args := make([]float64, len(in.args))
	for i, s := range in.args {
		args[i] = slots[s]
	}
	return in.fn.Call(args)
}

// fail wraps an error from the instruction.
func (in *instr) fail(slots []float64, err error) error {
	args := make([]float64, len(in.args))
	for i, s := range in.args {
		args[i] = slots[s]
	}
	return &EvaluationError{Func: in.name, Args: args, Err: err}
}

// EvaluationError is an error from an operation that failed during
// evaluation, e.g. division by zero or sqrt(-1). It unwraps to the error the
// operation reported, usually ErrDomain or ErrOverflow.
type EvaluationError struct {
	// Func is the canonical name of the operator or function.
	Func string
	// Args are the arguments it was called with.
	Args []float64
	// Err is the underlying error.
	Err error
}

func (err *EvaluationError) Error() string {
	var b strings.Builder
	b.WriteString(err.Func)
	b.WriteByte('(')
	for i, x := range err.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	b.WriteString("): ")
	b.WriteString(err.Err.Error())
	return b.String()
}

func (err *EvaluationError) Unwrap() error {
	return err.Err
}

// NameError is an error from compiling a formula that uses a variable which
// is not among the program's parameters.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
