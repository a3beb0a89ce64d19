//go:build arm64

package costack

// AAPCS64 calling convention. The exchange persists x19 through x28, the
// frame pointer x29 and the link register x30; the saved x30 slot doubles as
// the return address slot. The stack pointer is 16-byte aligned at all
// times.
const (
	saveWords  = 12
	stackAlign = 16
)
