//go:build !amd64 && !arm64

package costack

// Conservative defaults for architectures without a dedicated port. Porting
// means re-deriving the callee-saved register set and stack alignment from
// the target's calling convention and adding a tagged file like the amd64
// and arm64 ones.
const (
	saveWords  = 8
	stackAlign = 16
)
