//go:build amd64

package costack

// System V AMD64 calling convention. The exchange persists the callee-saved
// registers rbx, rbp and r12 through r15, plus the return address slot at
// the top of the saved frame. The stack pointer is 16-byte aligned at frame
// boundaries.
const (
	saveWords  = 7
	stackAlign = 16
)
