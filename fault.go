package costack

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// faultError carries a panic raised inside a coworker's entry function out
// to the root context, together with the stack captured at the fault site.
// The faulting coworker's own frame is gone by the time the error is seen,
// so the captured stack is the only record of where it died.
type faultError struct {
	value any
	stack []byte
}

func newFaultError(v any) error {
	return &faultError{
		value: v,
		stack: debug.Stack(),
	}
}

func (f *faultError) Error() string {
	return fmt.Sprintf("costack: coworker fault: %v", f.value)
}

// ErrorWithStack renders the fault together with the stack captured when it
// occurred.
func (f *faultError) ErrorWithStack() string {
	return fmt.Sprintf("costack: coworker fault: %v\n\n%s", f.value, f.stack)
}

func (f *faultError) Unwrap() error {
	err, ok := f.value.(error)
	if !ok {
		return nil
	}
	return err
}

// DebugString renders the fault and every error reachable through
// unwrapping, including stacks of nested faults. Cycles in the error graph
// are broken by tracking what has been seen.
func (f *faultError) DebugString() string {
	var sb strings.Builder
	seen := make(map[error]bool)

	var walk func(error)
	walk = func(e error) {
		if e == nil || seen[e] {
			return
		}
		seen[e] = true

		if fe, ok := e.(*faultError); ok {
			sb.WriteString(fe.ErrorWithStack())
		} else {
			sb.WriteString(e.Error())
		}

		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, ue := range multi.Unwrap() {
				walk(ue)
			}
		} else if ue := errors.Unwrap(e); ue != nil {
			walk(ue)
		}
	}

	walk(f)
	return sb.String()
}
