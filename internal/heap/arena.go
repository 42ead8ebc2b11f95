// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements the byte arena and bump allocator described
// in §4.1: a single power-of-two-word arena logically split into two
// equally sized semi-spaces, one active (allocating) and one reserved.
// It knows nothing about reachability — that is internal/gc's job —
// only about laying objects out and handing back word-aligned bumps.
package heap

import (
	"fmt"
	"unsafe"

	"lisp/internal/value"
)

// Arena is the byte storage backing the heap. A zero Arena is not
// usable; construct one with New.
type Arena struct {
	buf       []byte // both semi-spaces back to back, len(buf) == 2*spaceSize
	base      uintptr
	spaceSize uintptr
	active    int    // 0 or 1: index of the currently allocating half
	bump      uintptr // next free absolute address in the active half
	limit     uintptr // one past the last usable address in the active half
}

// New allocates an arena with the given total size, split into two
// equal semi-spaces. size is rounded up to an even word multiple.
func New(size uintptr) *Arena {
	size = (size + 2*value.Width - 1) &^ (2*value.Width - 1)
	a := &Arena{
		buf:       make([]byte, size),
		spaceSize: size / 2,
	}
	a.base = uintptr(unsafe.Pointer(&a.buf[0]))
	a.active = 0
	a.bump = a.base
	a.limit = a.base + a.spaceSize
	return a
}

// SpaceSize returns the size in bytes of one semi-space.
func (a *Arena) SpaceSize() uintptr { return a.spaceSize }

// TotalSize returns the size in bytes of both semi-spaces combined.
func (a *Arena) TotalSize() uintptr { return 2 * a.spaceSize }

// Used returns the number of bytes allocated in the active half so
// far this cycle.
func (a *Arena) Used() uintptr { return a.bump - a.activeBase() }

func (a *Arena) activeBase() uintptr {
	if a.active == 0 {
		return a.base
	}
	return a.base + a.spaceSize
}

// ErrOOM describes a request the active semi-space cannot satisfy
// even after collection. Alloc itself only reports ok=false;
// internal/gc panics with an *ErrOOM on the fatal memory-exhaustion
// path of §4.2.
type ErrOOM struct {
	Requested uintptr
}

func (e *ErrOOM) Error() string {
	return fmt.Sprintf("heap: out of memory allocating %d bytes", e.Requested)
}

// Alloc bumps the active semi-space by size bytes (rounded up to word
// alignment) and returns the resulting address, or reports ok=false if
// the active half cannot satisfy the request — the caller (normally
// internal/gc) is expected to collect, growing if needed, and retry.
func (a *Arena) Alloc(size uintptr) (addr uintptr, ok bool) {
	size = (size + value.Width - 1) &^ (value.Width - 1)
	if size < value.Width+value.Width {
		size = value.Width + value.Width // one word of header + one of payload, minimum
	}
	if a.bump+size > a.limit {
		return 0, false
	}
	addr = a.bump
	a.bump += size
	return addr, true
}

// resetBump prepares the arena to bump-allocate the destination
// semi-space for a new collection cycle: it does not itself flip
// `active`; SwapActive flips it and then calls this to reset the bump
// pointer.
func (a *Arena) resetBump() {
	base := a.activeBase()
	a.bump = base
	a.limit = base + a.spaceSize
}

// SwapActive flips which semi-space is active (a plain collection,
// §4.2 "Normal" state) and resets the bump pointer to the start of the
// newly active half.
func (a *Arena) SwapActive() {
	a.active ^= 1
	a.resetBump()
}

// Grow replaces the arena with a fresh one of twice the current total
// size, with semi-space 0 as the new active half; the old buffer is
// simply dropped (Go's own GC reclaims it once no root still points
// into it, which holds true the instant evacuation into the new arena
// completes and the caller releases its reference to the old one).
func (a *Arena) Grow() *Arena {
	return New(a.TotalSize() * 2)
}

// --- raw word/byte access, used by object.go and alloc.go ---

func (a *Arena) loadWord(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func (a *Arena) storeWord(addr uintptr, w uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = w
}

func (a *Arena) loadByte(addr uintptr) byte {
	return *(*byte)(unsafe.Pointer(addr))
}

func (a *Arena) storeByte(addr uintptr, b byte) {
	*(*byte)(unsafe.Pointer(addr)) = b
}

// CopyBytes copies n bytes from src to dst within (or across) the
// arena's own backing storage — used by evacuation to move an
// object's bytes from the source semi-space into the destination.
func (a *Arena) CopyBytes(dst, src uintptr, n uintptr) {
	d := unsafe.Slice((*byte)(unsafe.Pointer(dst)), n)
	s := unsafe.Slice((*byte)(unsafe.Pointer(src)), n)
	copy(d, s)
}

// Bump returns the current allocation pointer of the active
// semi-space — the collector scans its destination until the scan
// pointer reaches it (bytes live come from Used).
func (a *Arena) Bump() uintptr { return a.bump }

// SetBump overwrites the active semi-space's bump pointer. The
// collector does not call it: evacuation advances the destination's
// bump pointer through Alloc.
func (a *Arena) SetBump(addr uintptr) { a.bump = addr }

// ActiveBase returns the first address of the active semi-space.
func (a *Arena) ActiveBase() uintptr { return a.activeBase() }

// Alive reports whether addr falls within the arena's current active
// semi-space — used by tests and assertions, not by the hot path.
func (a *Arena) Alive(addr uintptr) bool {
	base := a.activeBase()
	return addr >= base && addr < base+a.spaceSize
}
