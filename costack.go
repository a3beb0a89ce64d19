package costack

import "runtime"

// A Thread is one logical thread of control: the execution state under which
// a set of coworkers and a synthetic root context take turns running.
// Exactly one context executes under a Thread at any instant, and Switch is
// the only suspension point, so no locking guards the state. The zero value
// is ready to use; its current context lazily defaults to the root.
//
// A Thread and the coworkers created under it form a unit. Passing a
// coworker to a different Thread's Switch is a program-fatal contract
// violation, not a recoverable error.
type Thread struct {
	root    *CoWorker
	cur     *CoWorker
	workers map[uint64]*CoWorker
	nextID  uint64

	// pending holds a fault raised inside a coworker; it is re-raised
	// from the root context's suspended Switch.
	pending error

	exchanges uint64
}

// NewThread returns a Thread with its root context initialized. Equivalent
// to new(Thread); every operation initializes lazily.
func NewThread() *Thread {
	t := new(Thread)
	t.init()
	return t
}

func (t *Thread) init() {
	if t.root != nil {
		return
	}
	t.workers = make(map[uint64]*CoWorker)
	t.root = &CoWorker{
		thread: t,
		park:   make(chan struct{}),
		state:  stateRunning,
		root:   true,
	}
	t.cur = t.root
}

// Current returns the context presently executing under t.
func (t *Thread) Current() *CoWorker {
	t.init()
	return t.cur
}

// Root returns t's synthetic root context, representing the thread's
// original flow of control. The root has no stack of its own and is the
// target to switch to when a coworker is done with its turn.
func (t *Thread) Root() *CoWorker {
	t.init()
	return t.root
}

// InCoWorker reports whether a coworker, rather than the root context, is
// executing under t.
func (t *Thread) InCoWorker() bool {
	t.init()
	return t.cur != t.root
}

// Switch transfers control to co. Switching to the current context is a
// no-op. Otherwise the caller is suspended and Switch returns only when a
// later switch targets the caller again; there is no notion of a switch
// failing mid-flight.
func (t *Thread) Switch(co *CoWorker) {
	t.init()
	if co.thread != t {
		panic("costack: coworker bound to a different thread")
	}
	switch co.state {
	case stateFaulted:
		panic("costack: switch to faulted coworker")
	case stateDestroyed:
		panic("costack: switch to destroyed coworker")
	}
	from := t.cur
	if co == from {
		return
	}
	t.cur = co
	t.exchange(from, co)
	if err := t.pending; err != nil {
		t.pending = nil
		panic(err)
	}
}

// exchange suspends from and resumes to. It records from's resume frame
// (the return-address slot and the post-push stack pointer), then transfers
// the baton: a target save area still holding the trampoline's entry address
// has never run and is bootstrapped now; anything else is a genuine
// suspended resume site, woken where it parked. The routine knows nothing of
// ownership or lifecycle; Switch enforces those around it.
func (t *Thread) exchange(from, to *CoWorker) {
	t.exchanges++
	if !from.root {
		pc, _, _, ok := runtime.Caller(1)
		if !ok {
			// Leaving the trampoline PC in the slot would make the
			// frame bootable a second time.
			fatal("costack: suspend site unavailable")
		}
		from.frame.setRet(pc)
		from.frame.setSavedSP(from.frame.saveBase())
	}
	from.state = stateSuspended
	if to.frame.valid() && to.frame.ret() == trampolinePC {
		go t.trampoline(to.frame)
	} else {
		to.park <- struct{}{}
	}
	<-from.park
	if from.state == stateDestroyed {
		// Torn down while suspended: unwind this context instead of
		// resuming it.
		runtime.Goexit()
	}
	from.state = stateRunning
}
