package formula

import "errors"

var (
	// ErrSyntax is returned for expressions outside the accepted grammar.
	ErrSyntax = errors.New("formula: syntax error")
	// ErrDivideByZero is returned when a divisor evaluates to zero.
	ErrDivideByZero = errors.New("formula: division by zero")
)
