package formula

import "strconv"

// SyntaxError is an error indicating malformed input: an invalid character,
// mismatched parentheses, a malformed argument list, or a misplaced or
// dangling operator. It implements InputError.
type SyntaxError struct {
	// Col is the position of the offending token.
	Col int
	// Token is the offending token, if there is one.
	Token string
	// Msg describes the problem.
	Msg string
}

func (err *SyntaxError) Error() string {
	if err.Token == "" {
		return errpos(err.Col, err.Msg)
	}
	return errpos(err.Col, err.Msg+" "+strconv.Quote(err.Token))
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// UnknownOperatorError is an error indicating an operator or function name
// that no provider defines for the number of operands it was given. It
// implements InputError.
type UnknownOperatorError struct {
	// Col is the position of the operator or function name.
	Col int
	// Name is the operator symbol or function name.
	Name string
	// Arity is the number of operands or arguments.
	Arity int
}

func (err *UnknownOperatorError) Error() string {
	return errpos(err.Col, "unknown operator or function "+strconv.Quote(err.Name)+" with "+strconv.Itoa(err.Arity)+" operands")
}

func (err *UnknownOperatorError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*UnknownOperatorError)(nil)
)
