// Package costack implements symmetric, stackful, cooperative execution
// contexts ("coworkers") on a single logical thread of control, with no
// built-in scheduler: callers transfer control between contexts explicitly.
//
// A Thread holds the per-thread execution state: which context is current,
// and a synthetic root context representing the thread's original flow of
// control. Coworkers are created under a Thread from a stack buffer, either
// requested from an Allocator or supplied by the caller, and run only when
// some other context switches to them. Any context may switch directly to
// any other context under the same Thread; switching is the only suspension
// point, and a suspended context resumes exactly at its switch call site.
//
// Each stack buffer carries a control frame near its top: a small record
// view and a save area sized for the register set the exchange persists. A
// freshly laid-out frame holds the trampoline's entry address in the save
// area's return-address slot, so the first switch into a coworker is
// indistinguishable, to the exchange, from resuming a context that had
// suspended on entry to the trampoline.
//
// A coworker function must never return: it gives up control only by
// switching away. A function that returns has no caller frame to return
// into, and the process terminates abnormally. A panic inside a coworker is
// recovered, wrapped with its captured stack, and re-raised out of the root
// context's pending switch.
//
// A context that is never switched to again is simply abandoned; its stack
// and parked goroutine are released only by explicit teardown of the owning
// handle, never implicitly.
package costack
