package vm

import (
	"errors"
	"fmt"
)

// FailureKind separates the two failure classes the result contract exposes:
// user-level failures (the program under test tripped a runtime check it was
// built to test) and internal errors (the emitter or type checker broke a
// contract, which is a bug in the upstream pipeline, not in the program).
type FailureKind int

const (
	// FailInternal marks violations of invariants the upstream pipeline was
	// supposed to guarantee: wrong value shapes, mismatched widths,
	// out-of-range slots or jump targets, division by zero, malformed final
	// stack state.
	FailInternal FailureKind = iota

	// FailAssertion marks a failed assertion builtin, a normal outcome of
	// evaluating some inputs.
	FailAssertion

	// FailIndex marks a dynamic index that fell outside its container, also a
	// user-visible outcome since the index may originate from running data.
	FailIndex
)

func (k FailureKind) String() string {
	switch k {
	case FailAssertion:
		return "assertion failure"
	case FailIndex:
		return "index out of bounds"
	default:
		return "internal error"
	}
}

// Failure is the error type every interpreter failure is reported through.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func internalErrorf(format string, args ...interface{}) error {
	return &Failure{Kind: FailInternal, Message: fmt.Sprintf(format, args...)}
}

func assertionFailedf(format string, args ...interface{}) error {
	return &Failure{Kind: FailAssertion, Message: fmt.Sprintf(format, args...)}
}

func indexFailedf(format string, args ...interface{}) error {
	return &Failure{Kind: FailIndex, Message: fmt.Sprintf(format, args...)}
}

// ClassifyError returns the failure kind of an interpreter error. Errors that
// did not originate in the interpreter classify as internal.
func ClassifyError(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailInternal
}

// IsAssertionFailure reports whether err is a failed assertion.
func IsAssertionFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == FailAssertion
}

// IsIndexFailure reports whether err is a dynamic index-out-of-bounds failure.
func IsIndexFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == FailIndex
}

// IsInternalError reports whether err signals a broken upstream contract.
func IsInternalError(err error) bool {
	if err == nil {
		return false
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == FailInternal
	}
	return true
}
