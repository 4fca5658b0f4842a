package application

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	// KindDependency is a failure of an external collaborator such as the payment gateway.
	KindDependency
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error classifies a failure at the use case boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error  { return newError(KindValidation, op, err) }
func NotFound(op string, err error) error    { return newError(KindNotFound, op, err) }
func Conflict(op string, err error) error    { return newError(KindConflict, op, err) }
func Dependency(op string, err error) error  { return newError(KindDependency, op, err) }
func Persistence(op string, err error) error { return newError(KindPersistence, op, err) }

func Validationf(op, format string, args ...any) error {
	return Validation(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Message is the caller-facing text: the classified cause without the operation prefix.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
