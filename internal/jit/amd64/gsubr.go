// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import (
	"fmt"
	"unsafe"

	"lisp/internal/value"
)

// invokeNative is implemented in invoke_amd64.s. Emitted code reads its
// formal parameters through argsReg (rdi, galign.go), a calling
// convention this backend invented and owns end to end — it is not
// Go's. Go function values called from Go code go through ABIInternal,
// which assigns a single uintptr argument to AX, not DI; reinterpreting
// a raw code pointer as a Go func value and calling it directly (as
// this package once did) hands the emitted prologue whatever garbage
// happened to be sitting in rdi. invokeNative is a small ABI0 assembly
// stub that loads argsPtr into DI itself and CALLs entry directly,
// sidestepping the Go calling convention entirely for this one jump.
func invokeNative(entry, argsPtr uintptr) uintptr

// nativeFunc is the Go-callable shape writeCharThunk is reinterpreted
// through so its code address can be baked into emitted call
// instructions (ggen.go's compileWriteChar): unlike invokeNative's
// target, writeCharThunk is a real compiled Go function invoked via
// Go's own ABIInternal (its one argument already arrives in AX, which
// compileWriteChar sets up directly), so no custom trampoline is
// needed on that path — only address-of.
type nativeFunc func(args uintptr) uintptr

// Invoke implements Backend.Invoke: marshal args into a contiguous
// array the emitted prologue reads via ARGS+i*word, call through the
// rdi-loading trampoline, and decode the single Value the calling
// convention returns in R0/rax.
func Invoke(entry uintptr, args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Value(invokeNative(entry, 0))
	}
	buf := make([]uintptr, len(args))
	for i, a := range args {
		buf[i] = uintptr(a)
	}
	ret := invokeNative(entry, uintptr(unsafe.Pointer(&buf[0])))
	return value.Value(ret)
}

// writeCharSink receives the decoded rune from the write-char thunk.
// It defaults to stdout via fmt; SetWriteCharSink replaces it
// (cmd/lisp does not call it, so the REPL keeps the default).
var writeCharSink = func(r rune) { fmt.Print(string(r)) }

// SetWriteCharSink redirects native write-char output.
func SetWriteCharSink(sink func(rune)) { writeCharSink = sink }

// writeCharThunk is the one piece of compiled code that calls back
// into the Go runtime rather than operating purely on tagged machine
// words: it decodes the tagged character Value it's handed and prints
// it, then returns value.Nil. Its address is baked directly into every
// write-char bite at emission time (ggen.go's compileWriteChar).
//
//go:noinline
func writeCharThunk(arg uintptr) uintptr {
	v := value.Value(arg)
	writeCharSink(rune(v.Int()))
	return uintptr(value.Nil)
}

// writeCharThunkAddr returns writeCharThunk's own code address. A Go
// func value points at a closure record whose first word is the code
// pointer, so the address is two loads away from &fn.
func writeCharThunkAddr() uintptr {
	fn := nativeFunc(writeCharThunk)
	return **(**uintptr)(unsafe.Pointer(&fn))
}
