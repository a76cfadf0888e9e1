package apconst

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this module matches exactly one of them
// with errors.Is.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrUnknownConstant = errors.New("unknown constant")
	ErrPrecision       = errors.New("precision unattainable")
	ErrEvaluation      = errors.New("evaluation error")
)

// Error carries the kind, the operation and the name of the offending
// constant or formula.
type Error struct {
	Kind error
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := "apconst: " + e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func configErr(op, name, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Op: op, Name: name, Err: fmt.Errorf(format, args...)}
}

// EvalError wraps cause as an evaluation failure of the named formula.
// A nil cause is allowed.
func EvalError(name string, cause error) error {
	return &Error{Kind: ErrEvaluation, Op: "evaluate", Name: name, Err: cause}
}

// EvalErrorf is EvalError with a formatted cause.
func EvalErrorf(name, format string, args ...any) error {
	return EvalError(name, fmt.Errorf(format, args...))
}
