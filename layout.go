package costack

import (
	"encoding/binary"
	"unsafe"
)

const (
	wordSize = int(unsafe.Sizeof(uintptr(0)))

	// recordBytes is the in-buffer record view: the owner back-reference
	// word followed by the saved-stack-pointer word. The rest of the
	// control record lives on the heap, where the garbage collector can
	// see its pointers; only these two words overlap the stack memory.
	recordBytes = 2 * wordSize

	saveAreaBytes = saveWords * wordSize

	// retSlot is the save-area word the exchange treats as the saved
	// frame's return address: the highest word, adjacent to the record
	// view, the last one a pop sequence would consume.
	retSlot = saveWords - 1

	// frameBytes is the part of a stack buffer consumed by the control
	// frame. A usable buffer must be strictly larger.
	frameBytes = recordBytes + saveAreaBytes
)

// frame is a typed view of the control area carved out of a stack buffer.
type frame struct {
	buf     []byte
	recOff  int
	saveOff int
}

// layout carves the control frame out of buf. The record view is placed at
// the highest stack-aligned address that still leaves room for it, with the
// save area immediately below. Returns ErrStackOverflow if the buffer cannot
// hold both.
func layout(buf []byte) (frame, error) {
	if len(buf) <= frameBytes {
		return frame{}, ErrStackOverflow
	}
	base := uintptr(unsafe.Pointer(&buf[0]))
	top := base + uintptr(len(buf))
	rec := (top - uintptr(recordBytes)) &^ (stackAlign - 1)
	if rec < base || rec-base < uintptr(saveAreaBytes) {
		// Alignment padding consumed the slack the size check left.
		return frame{}, ErrStackOverflow
	}
	recOff := int(rec - base)
	return frame{
		buf:     buf,
		recOff:  recOff,
		saveOff: recOff - saveAreaBytes,
	}, nil
}

func (f frame) valid() bool { return f.buf != nil }

func (f frame) saveWord(i int) []byte {
	off := f.saveOff + i*wordSize
	return f.buf[off : off+wordSize]
}

// ret and setRet access the return-address slot. A fresh frame holds the
// trampoline's entry address there; suspension overwrites it with the
// resume-site address.
func (f frame) ret() uintptr      { return getWord(f.saveWord(retSlot)) }
func (f frame) setRet(pc uintptr) { putWord(f.saveWord(retSlot), pc) }

// owner and setOwner access the back-reference word that ties the frame to
// its control record.
func (f frame) owner() uint64      { return uint64(getWord(f.buf[f.recOff : f.recOff+wordSize])) }
func (f frame) setOwner(id uint64) { putWord(f.buf[f.recOff:f.recOff+wordSize], uintptr(id)) }

// savedSP is the stack pointer value to restore on resume; meaningful only
// while the owning context is suspended.
func (f frame) savedSP() uintptr { return getWord(f.buf[f.recOff+wordSize : f.recOff+2*wordSize]) }
func (f frame) setSavedSP(sp uintptr) {
	putWord(f.buf[f.recOff+wordSize:f.recOff+2*wordSize], sp)
}

// saveBase is the address the stack pointer holds once the frame's register
// set has been pushed.
func (f frame) saveBase() uintptr { return uintptr(unsafe.Pointer(&f.buf[f.saveOff])) }

func putWord(b []byte, v uintptr) {
	if wordSize == 8 {
		binary.NativeEndian.PutUint64(b, uint64(v))
	} else {
		binary.NativeEndian.PutUint32(b, uint32(v))
	}
}

func getWord(b []byte) uintptr {
	if wordSize == 8 {
		return uintptr(binary.NativeEndian.Uint64(b))
	}
	return uintptr(binary.NativeEndian.Uint32(b))
}
