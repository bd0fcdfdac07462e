// Package formula compiles textual math formulas into reusable float64
// functions of named variables.
//
// The syntax is what you'd type into a graphing calculator. "169 - 5*3 - 1"
// is 153, "2(3)" and "2 x" are implicit multiplications, "atan2(y, x)" is a
// function call, and "-2^2" is "-(2^2)". Identifiers are case-insensitive.
// Names that are neither functions nor constants become parameters, so
// "sin(x) + y" is a function of x and y.
//
// A Parser is built once from a list of providers and is safe for concurrent
// use. Parsing produces an Expr; compiling an Expr produces a Program, an
// immutable callable that may be evaluated from any number of goroutines.
//
// Parse errors implement InputError. Evaluation faults, such as sqrt(-1) or
// 1/0, are reported as *EvaluationError; Program.Func2 turns them into a
// "no value" result for consumers that sample a formula many times.
package formula
