// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "lisp/internal/value"

// The constructors below assume the caller (internal/gc) has already
// reserved size bytes at addr via Arena.Alloc — possibly after running
// a collection — and only need their fields initialized. Separating
// "reserve space" from "lay out fields" keeps the grow-or-collect
// retry loop in one place (gc.Collector) instead of duplicated per
// type.

// InitCons writes a fresh cons cell's header, car and cdr at addr.
func (a *Arena) InitCons(addr uintptr, car, cdr value.Value) value.Value {
	a.setHeader(addr, uintptr(value.TagCons))
	a.SetCar(addr, car)
	a.SetCdr(addr, cdr)
	return value.Tagged(addr, value.TagCons)
}

// InitBuiltin writes a builtin's header and native-table index at
// addr.
func (a *Arena) InitBuiltin(addr uintptr, fnIndex int) value.Value {
	a.setHeader(addr, uintptr(value.TagBuiltin))
	a.storeWord(addr+value.Width, uintptr(fnIndex))
	return value.Tagged(addr, value.TagBuiltin)
}

// InitLambda writes a lambda's header, params/body/capturedEnv and
// initial NotCompiled state at addr.
func (a *Arena) InitLambda(addr uintptr, params, body, capturedEnv value.Value) value.Value {
	a.setHeader(addr, uintptr(value.TagLambda))
	a.storeWord(addr+value.Width, uintptr(params))
	a.storeWord(addr+2*value.Width, uintptr(body))
	a.storeWord(addr+3*value.Width, uintptr(capturedEnv))
	a.storeWord(addr+4*value.Width, NotCompiled)
	return value.Tagged(addr, value.TagLambda)
}

// InitMacro is InitLambda's twin for the macro tag.
func (a *Arena) InitMacro(addr uintptr, params, body, capturedEnv value.Value) value.Value {
	a.setHeader(addr, uintptr(value.TagMacro))
	a.storeWord(addr+value.Width, uintptr(params))
	a.storeWord(addr+2*value.Width, uintptr(body))
	a.storeWord(addr+3*value.Width, uintptr(capturedEnv))
	a.storeWord(addr+4*value.Width, NotCompiled)
	return value.Tagged(addr, value.TagMacro)
}

// InitSymbol writes a symbol's header and inline NUL-terminated name
// at addr. The caller must have sized the allocation with
// SymbolAllocSize(name).
func (a *Arena) InitSymbol(addr uintptr, name string) value.Value {
	a.setHeader(addr, uintptr(value.TagSymbol))
	start := addr + value.Width
	for i := 0; i < len(name); i++ {
		a.storeByte(start+uintptr(i), name[i])
	}
	a.storeByte(start+uintptr(len(name)), 0)
	return value.Tagged(addr, value.TagSymbol)
}

// SymbolAllocSize returns the total allocation size (header + inline
// name + NUL, word-rounded) a symbol named name needs.
func SymbolAllocSize(name string) uintptr {
	return value.Width + symbolNameAllocSize(len(name))
}

// ConsAllocSize, BuiltinAllocSize and LambdaAllocSize return the fixed
// allocation sizes for the other heap types, for callers that need to
// reserve space before knowing the object's final tag (all lambdas
// and macros share a layout, so one constant covers both).
const (
	ConsAllocSize    = consWords * value.Width
	BuiltinAllocSize = builtinWords * value.Width
	LambdaAllocSize  = lambdaWords * value.Width
)
