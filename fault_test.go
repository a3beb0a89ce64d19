package costack

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// multiError unwraps to several errors at once.
type multiError struct {
	errs []error
}

func (m *multiError) Error() string { return "multiple errors" }

func (m *multiError) Unwrap() []error { return m.errs }

// loopError unwraps to itself, to exercise cycle detection.
type loopError struct {
	err error
	msg string
}

func (l *loopError) Error() string { return l.msg }

func (l *loopError) Unwrap() error { return l.err }

func TestFaultPropagatesToRoot(t *testing.T) {
	r := require.New(t)

	th := NewThread()
	w, err := th.New(Heap, 4096, func() {
		panic("boom")
	})
	r.NoError(err)

	func() {
		defer func() {
			p := recover()
			r.NotNil(p, "fault must surface from the root's switch")
			err, ok := p.(error)
			r.True(ok)
			r.Contains(err.Error(), "boom")

			withStack, ok := p.(interface{ ErrorWithStack() string })
			r.True(ok)
			r.Contains(withStack.ErrorWithStack(), "goroutine")
		}()
		th.Switch(w)
	}()

	// Faulted is terminal.
	r.PanicsWithValue("costack: switch to faulted coworker", func() {
		th.Switch(w)
	})
	r.Equal(th.Root(), th.Current())
}

func TestFaultPropagatesThroughChain(t *testing.T) {
	r := require.New(t)

	th := NewThread()
	var a, b *CoWorker
	a, err := th.New(Heap, 4096, func() {
		th.Switch(b)
		panic("A resumed after fault")
	})
	r.NoError(err)
	b, err = th.New(Heap, 4096, func() {
		panic("deep boom")
	})
	r.NoError(err)

	// Root switches to A, A to B, B faults: the error surfaces from the
	// root's pending switch even though the root targeted A.
	defer func() {
		p := recover()
		r.NotNil(p)
		err, ok := p.(error)
		r.True(ok)
		r.Contains(err.Error(), "deep boom")
		r.Equal(th.Root(), th.Current())
	}()
	th.Switch(a)
}

func TestFaultErrorUnwrap(t *testing.T) {
	r := require.New(t)

	sentinel := errors.New("sentinel failure")

	th := NewThread()
	w, err := th.New(Heap, 4096, func() {
		panic(fmt.Errorf("wrapped: %w", sentinel))
	})
	r.NoError(err)

	defer func() {
		p := recover()
		r.NotNil(p)
		err, ok := p.(error)
		r.True(ok)
		r.ErrorIs(err, sentinel)
	}()
	th.Switch(w)
}

func TestFaultErrorUnwrapNonError(t *testing.T) {
	r := require.New(t)

	fe := &faultError{
		value: "not an error",
		stack: []byte("mock stack"),
	}
	r.Nil(fe.Unwrap())
}

func TestDebugStringWithMultipleErrors(t *testing.T) {
	r := require.New(t)

	inner1 := errors.New("inner error 1")
	inner2 := errors.New("inner error 2")
	fe := &faultError{
		value: &multiError{errs: []error{inner1, inner2}},
		stack: []byte("mock stack"),
	}

	debugStr := fe.DebugString()
	r.Contains(debugStr, "multiple errors")
	r.Contains(debugStr, "inner error 1")
	r.Contains(debugStr, "inner error 2")
	r.Contains(debugStr, "mock stack")
}

func TestDebugStringWithCircularReference(t *testing.T) {
	r := require.New(t)

	self := &loopError{msg: "self error"}
	self.err = self

	fe := &faultError{
		value: self,
		stack: []byte("mock stack"),
	}

	debugStr := fe.DebugString()
	r.Contains(debugStr, "self error")
	r.Contains(debugStr, "mock stack")
	// Must terminate despite the cycle.
}

func TestFaultErrorMethods(t *testing.T) {
	r := require.New(t)

	cause := fmt.Errorf("test error")
	fe := &faultError{
		value: cause,
		stack: []byte("mock stack"),
	}

	r.Equal("costack: coworker fault: test error", fe.Error())
	r.Contains(fe.ErrorWithStack(), "test error")
	r.Contains(fe.ErrorWithStack(), "mock stack")
	r.Equal(cause, fe.Unwrap())
}
