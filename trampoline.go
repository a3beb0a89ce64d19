package costack

import (
	"fmt"
	"os"
	"reflect"
	"runtime/debug"
)

// trampolinePC is the entry address written into a freshly laid-out frame's
// return-address slot. The exchange compares the slot against it to tell a
// first resume from a suspended one.
var trampolinePC = reflect.ValueOf((*Thread).trampoline).Pointer()

// trampoline runs on a coworker's first resume. It is handed only the
// control frame; the owning record is located through the fixed offset
// between the save area and the record view, via the back-reference word.
//
// If the entry function returns, there is no legitimate caller frame to
// return into (the initial frame was synthetic), so the process terminates
// rather than resume into undefined memory. A panic, by contrast, is
// recovered and carried to the root context, whose suspended Switch
// re-raises it.
func (t *Thread) trampoline(f frame) {
	w := t.workers[f.owner()]
	if w == nil {
		fatal("costack: control frame with no owning coworker")
	}
	defer close(w.done)
	defer func() {
		if p := recover(); p != nil {
			w.state = stateFaulted
			t.pending = newFaultError(p)
			t.cur = t.root
			t.root.park <- struct{}{}
		}
	}()
	w.state = stateRunning
	w.fn()
	fatal("costack: coworker function returned")
}

// fatal reports an unrecoverable contract violation and terminates the
// process abnormally.
func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "%s\n\n%s", msg, debug.Stack())
	os.Exit(2)
}
