package costack

import "errors"

// ErrStackOverflow is returned when a stack buffer is too small to hold the
// control frame. It is the only recoverable creation error; failures from an
// Allocator pass through unchanged.
var ErrStackOverflow = errors.New("costack: stack too small for control frame")

// Func is a coworker entry function. It is invoked exactly once, on the
// first switch into its coworker, and must never return: a coworker gives up
// control only by switching away.
type Func func()

// Allocator provides stack memory. The core never inspects an allocator
// beyond these two operations.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(buf []byte)
}

// Heap is an Allocator backed by the Go heap. Free is a no-op; the garbage
// collector reclaims buffers once nothing references them.
var Heap Allocator = heapAllocator{}

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) ([]byte, error) { return make([]byte, size), nil }
func (heapAllocator) Free([]byte)                       {}

type workerState uint8

const (
	stateCreated workerState = iota
	stateRunning
	stateSuspended
	stateFaulted   // entry function panicked; terminal
	stateDestroyed // handle torn down; turns later misuse into a panic
)

// A CoWorker is one stackful execution context: an entry function, the stack
// buffer backing it, and the control frame carved out of that buffer. A
// CoWorker is bound to the Thread that created it and must only ever be
// passed to that Thread's Switch.
type CoWorker struct {
	thread *Thread
	fn     Func
	frame  frame
	alloc  Allocator // nil when the stack is borrowed or synthetic
	stack  []byte    // nil for the root context
	park   chan struct{}
	done   chan struct{} // closed when the trampoline goroutine exits
	id     uint64
	state  workerState
	root   bool
}

// IsRoot reports whether w is a Thread's synthetic root context.
func (w *CoWorker) IsRoot() bool { return w.root }

// New requests size bytes of stack from alloc and lays a coworker out in it.
// The returned handle owns the stack: Destroy returns it to alloc. Fails
// with ErrStackOverflow, before any allocation, when size cannot hold the
// control frame; any allocator error is returned as is.
func (t *Thread) New(alloc Allocator, size int, fn Func) (*CoWorker, error) {
	t.init()
	if size <= frameBytes {
		return nil, ErrStackOverflow
	}
	buf, err := alloc.Allocate(size)
	if err != nil {
		return nil, err
	}
	w, err := t.newWorker(buf, fn)
	if err != nil {
		alloc.Free(buf)
		return nil, err
	}
	w.alloc = alloc
	return w, nil
}

// NewFromBuffer lays a coworker out in caller-supplied memory. The returned
// handle borrows the stack: the caller keeps buf alive for the coworker's
// lifetime and releases it after Destroy.
func (t *Thread) NewFromBuffer(buf []byte, fn Func) (*CoWorker, error) {
	t.init()
	return t.newWorker(buf, fn)
}

func (t *Thread) newWorker(buf []byte, fn Func) (*CoWorker, error) {
	f, err := layout(buf)
	if err != nil {
		return nil, err
	}
	t.nextID++
	w := &CoWorker{
		thread: t,
		fn:     fn,
		frame:  f,
		stack:  buf,
		park:   make(chan struct{}),
		done:   make(chan struct{}),
		id:     t.nextID,
	}
	f.setOwner(w.id)
	f.setRet(trampolinePC)
	t.workers[w.id] = w
	return w, nil
}

// Destroy releases the coworker's stack if the handle owns it; a borrowed
// stack is only unregistered. A coworker suspended mid-function is unwound
// first: its parked goroutine is woken into an exit path, running any
// deferred calls, and Destroy returns only once it is gone. The caller must
// guarantee w is not current and will never be switched to again. Destroying
// the root or the current context is a contract violation.
func (w *CoWorker) Destroy() {
	if w.root {
		panic("costack: destroy of root context")
	}
	t := w.thread
	if t.cur == w {
		panic("costack: destroy of current coworker")
	}
	if w.state == stateDestroyed {
		return
	}
	parked := w.state == stateSuspended
	w.state = stateDestroyed
	delete(t.workers, w.id)
	if parked {
		close(w.park)
		<-w.done
	}
	if w.alloc != nil {
		w.alloc.Free(w.stack)
	}
	w.stack = nil
	w.frame = frame{}
}
