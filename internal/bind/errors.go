package bind

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by calls into bound code. Use errors.Is to match.
var (
	ErrNoMatchingOverload = errors.New("incompatible function arguments")
	ErrMissingArgument    = errors.New("missing required argument")
	ErrArgumentCount      = errors.New("wrong number of arguments")
	ErrUnexpectedKeyword  = errors.New("unexpected keyword argument")
	ErrNullArgument       = errors.New("null is not allowed for this argument")
	ErrNotAnObject        = errors.New("value is not a bound object")
	ErrNoSuchAttribute    = errors.New("no such attribute")
	ErrReadOnlyAttribute  = errors.New("attribute is read-only")
	ErrNoSuchMethod       = errors.New("no such method")
	ErrUnsupportedOperand = errors.New("unsupported operand types")
	ErrNotPickleable      = errors.New("class does not support pickling")
	ErrInvalidState       = errors.New("invalid pickle state")
	ErrPureVirtual        = errors.New("tried to call pure virtual function")
	ErrNotConstructible   = errors.New("no constructor defined")
	ErrNotSubclassable    = errors.New("class has no trampoline")
	ErrUnknownClass       = errors.New("unknown class")
	ErrConversion         = errors.New("cannot convert value")
)

// CallError carries a failure out of Go code that cannot return an error,
// such as a trampoline method implementing a fixed interface. The call
// boundary recovers it and reports Err.
type CallError struct {
	Func string
	Err  error
}

// Error implements the error interface for CallError.
func (e *CallError) Error() string {
	if e.Func == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Func, e.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *CallError) Unwrap() error { return e.Err }

// Raise aborts the current bound call with err. It must only be used
// from code that runs inside a call made through this package.
func Raise(funcName string, err error) {
	panic(&CallError{Func: funcName, Err: err})
}

// recoverCall turns a panic raised inside bound code into an error.
func recoverCall(name string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	var callErr *CallError
	if err, ok := r.(error); ok && errors.As(err, &callErr) {
		*errp = callErr
		return
	}
	*errp = fmt.Errorf("%s: panic in bound code: %v", name, r)
}
