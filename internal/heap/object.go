// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "lisp/internal/value"

// Per-type payload layouts, in words past the header. The header
// itself is always the first word of an object and plays a dual role:
// while the object is live in the current semi-space it holds the
// object's tag in its low three bits (zero elsewhere); after a copy it
// holds the forwarding address, OR-ed with the same tag bits. A heap
// address is always larger than any bare tag, so a header above
// maxBareTag is exactly how evacuate tells "moved to" from "not moved".
const (
	headerWords = 1

	consWords    = headerWords + 2 // car, cdr
	builtinWords = headerWords + 1 // native function index
	lambdaWords  = headerWords + 4 // params, body, capturedEnv, compiled (packed into one word)

	// Compiled states, packed into the low byte of a lambda/macro's
	// fourth payload word.
	NotCompiled     = 0
	SymbolsResolved = 1
	Compiled        = 2
)

// Symbol name length bound (§6): names longer than this are a parse
// error before they ever reach the heap.
const MaxSymbolNameLen = 1024

// header reads the forwarding-or-type slot at addr.
func (a *Arena) header(addr uintptr) uintptr { return a.loadWord(addr) }

func (a *Arena) setHeader(addr uintptr, w uintptr) { a.storeWord(addr, w) }

// maxBareTag bounds the handful of small values a live (not yet
// evacuated) header can hold: the tag alone, zero-extended. Any header
// word larger than this must be a forwarding address — in a live
// process a real heap address is always many bytes into the arena,
// far larger than a 3-bit tag.
const maxBareTag = 0b111

// Forwarded reports whether the object at addr has already been
// evacuated in the current collection cycle, and if so returns the
// tagged Value of its new location. An unmoved header holds only the
// object's tag with all higher bits zero ("zeros elsewhere" per §3);
// a forwarded header holds the new address OR-ed with the same tag
// bits, which is always a far larger word than a bare tag.
func (a *Arena) Forwarded(addr uintptr, tag value.Tag) (value.Value, bool) {
	h := a.header(addr)
	if h <= maxBareTag {
		return 0, false // still holds the bare tag: not moved
	}
	return value.Value(h), true
}

// SetForwarded overwrites addr's header with the forwarding pointer
// to the object's new location (already tagged — see value.Tagged).
func (a *Arena) SetForwarded(addr uintptr, newLocation value.Value) {
	a.setHeader(addr, uintptr(newLocation))
}

// ObjectSize returns the exact byte size of the object at addr whose
// tag is tag — derived from the header alone, as §4.1 requires: for
// every type but symbols the size is a function of the tag; for
// symbols it is the inline name's length, found by scanning for the
// NUL terminator.
func (a *Arena) ObjectSize(addr uintptr, tag value.Tag) uintptr {
	switch tag {
	case value.TagCons:
		return consWords * value.Width
	case value.TagBuiltin:
		return builtinWords * value.Width
	case value.TagLambda, value.TagMacro:
		return lambdaWords * value.Width
	case value.TagSymbol:
		return value.Width + symbolNameAllocSize(a.symbolNameBytes(addr))
	default:
		panic("heap: ObjectSize: not a heap tag")
	}
}

func symbolNameAllocSize(nameLen int) uintptr {
	raw := uintptr(nameLen + 1) // + NUL
	return (raw + value.Width - 1) &^ (value.Width - 1)
}

// --- Cons ---

// Car returns the car field of the cons cell at addr.
func (a *Arena) Car(addr uintptr) value.Value { return value.Value(a.loadWord(addr + value.Width)) }

// Cdr returns the cdr field of the cons cell at addr.
func (a *Arena) Cdr(addr uintptr) value.Value { return value.Value(a.loadWord(addr + 2*value.Width)) }

// SetCar overwrites the car field of the cons cell at addr.
func (a *Arena) SetCar(addr uintptr, v value.Value) { a.storeWord(addr+value.Width, uintptr(v)) }

// SetCdr overwrites the cdr field of the cons cell at addr.
func (a *Arena) SetCdr(addr uintptr, v value.Value) { a.storeWord(addr+2*value.Width, uintptr(v)) }

// --- Builtin ---

// BuiltinIndex returns the index into the primitives table that the
// builtin at addr was allocated for. Not a Value: the GC never scans
// it as a heap pointer.
func (a *Arena) BuiltinIndex(addr uintptr) int { return int(a.loadWord(addr + value.Width)) }

// --- Lambda / Macro ---

// Params returns the lambda/macro's formal parameter list.
func (a *Arena) Params(addr uintptr) value.Value { return value.Value(a.loadWord(addr + value.Width)) }

// Body returns the lambda/macro's body. When CompiledState is
// Compiled this slot instead holds a raw native-code pointer and must
// never be interpreted as a Value by the GC (invariant 3) — callers
// must check CompiledState first.
func (a *Arena) Body(addr uintptr) value.Value { return value.Value(a.loadWord(addr + 2*value.Width)) }

// SetBody overwrites the body slot, used both for ordinary mutation
// and to install a native code pointer when compilation succeeds.
func (a *Arena) SetBody(addr uintptr, v value.Value) { a.storeWord(addr+2*value.Width, uintptr(v)) }

// CapturedEnv returns the lexical environment a lambda/macro closed
// over, or value.Nil if none.
func (a *Arena) CapturedEnv(addr uintptr) value.Value {
	return value.Value(a.loadWord(addr + 3*value.Width))
}

// SetCapturedEnv overwrites the capturedEnv field, used by the
// collector to rewrite it to an evacuated location.
func (a *Arena) SetCapturedEnv(addr uintptr, v value.Value) {
	a.storeWord(addr+3*value.Width, uintptr(v))
}

// SetParams overwrites the params field, used by the collector to
// rewrite it to an evacuated location.
func (a *Arena) SetParams(addr uintptr, v value.Value) {
	a.storeWord(addr+value.Width, uintptr(v))
}

// HeaderTag returns the tag bits of a live (not forwarded) object's
// header — only meaningful for objects the scan pointer is currently
// visiting in the destination space, which by construction have not
// been forwarded yet.
func (a *Arena) HeaderTag(addr uintptr) value.Tag { return value.Tag(a.header(addr)) }

// CompiledState returns the lambda/macro's {NotCompiled,
// SymbolsResolved, Compiled} state.
func (a *Arena) CompiledState(addr uintptr) int {
	return int(a.loadWord(addr+4*value.Width)) & 0xff
}

// SetCompiledState overwrites the lambda/macro's compiled state.
func (a *Arena) SetCompiledState(addr uintptr, state int) {
	a.storeWord(addr+4*value.Width, uintptr(state&0xff))
}

// --- Symbol ---

// symbolNameBytes scans the NUL-terminated name inline at the end of
// the symbol allocation and returns its length.
func (a *Arena) symbolNameBytes(addr uintptr) int {
	start := addr + value.Width
	n := 0
	for a.loadByte(start+uintptr(n)) != 0 {
		n++
		if n > MaxSymbolNameLen {
			panic("heap: symbol name missing NUL terminator")
		}
	}
	return n
}

// SymbolName returns the symbol's name as a Go string.
func (a *Arena) SymbolName(addr uintptr) string {
	n := a.symbolNameBytes(addr)
	start := addr + value.Width
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = a.loadByte(start + uintptr(i))
	}
	return string(buf)
}
