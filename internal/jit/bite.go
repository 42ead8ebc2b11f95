// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jit implements the compiler half of §4.4: symbol resolution,
// the validity check against the closed allow-list, lowering to the
// "bite" intermediate tree, constant folding, and a Sethi-Ullman style
// register-count pass. Code emission itself is architecture-specific
// and lives in internal/jit/amd64, wired in through the Backend struct
// of function pointers below — the same Init-populates-a-struct-of-
// funcs shape the teacher uses for its own per-architecture backends
// (cmd/compile/internal/gc.Arch), chosen so this package never imports
// its own backend.
package jit

import "lisp/internal/value"

// Op identifies a bite's operation. The set matches §4.4 step 3
// exactly: constant, parameter, add, sub, neg, less, eq,
// pointer-offset-load, if, branch, list-cons, recurse, call, progn,
// write-char.
type Op int

const (
	OpConst Op = iota
	OpParam
	OpAdd
	OpSub
	OpNeg
	OpLess
	OpEq
	OpLoad  // pointer-offset-load: read a word at Offset from Left's pointer result
	OpIf    // Left = condition, Right = a Branch bite
	OpBranch
	OpList // argument-list chaining: Left = this element, Right = rest (or nil)
	OpRecurse
	OpCall
	OpProgn
	OpWriteChar
)

func (op Op) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpParam:
		return "param"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpNeg:
		return "neg"
	case OpLess:
		return "less"
	case OpEq:
		return "eq"
	case OpLoad:
		return "load"
	case OpIf:
		return "if"
	case OpBranch:
		return "branch"
	case OpList:
		return "list"
	case OpRecurse:
		return "recurse"
	case OpCall:
		return "call"
	case OpProgn:
		return "progn"
	case OpWriteChar:
		return "write-char"
	default:
		return "?"
	}
}

// maxImmediate32 bounds the 32-bit signed immediate range a constant
// can be materialized from directly; larger magnitudes cost a register
// in the Sethi-Ullman pass (§4.4 step 5).
const maxImmediate32 = 1<<31 - 1
const minImmediate32 = -(1 << 31)

// Bite is one node of the DAG-free expression tree §4.4 step 3
// describes: an opcode, up to two children, a register field (left at
// -1: the amd64 backend passes destination registers as arguments
// during emission and never writes it), and a cached register-count
// estimate (filled in by the register-count pass).
type Bite struct {
	Op          Op
	Left, Right *Bite

	Const      value.Value // OpConst
	ParamIndex int         // OpParam
	Offset     uintptr     // OpLoad
	Target     *Function   // OpCall: the already-Compiled callee

	Reg    int // scratch register index; stays -1, the backend does not set it
	NRegs  int // Sethi-Ullman register need, -1 until the count pass runs
}

func leaf(op Op) *Bite { return &Bite{Op: op, Reg: -1, NRegs: -1} }

func constBite(v value.Value) *Bite {
	b := leaf(OpConst)
	b.Const = v
	return b
}

func paramBite(i int) *Bite {
	b := leaf(OpParam)
	b.ParamIndex = i
	return b
}

func unary(op Op, child *Bite) *Bite {
	b := leaf(op)
	b.Left = child
	return b
}

func binary(op Op, left, right *Bite) *Bite {
	b := leaf(op)
	b.Left, b.Right = left, right
	return b
}

// exceedsImmediate32 reports whether a number constant needs a
// register to materialize rather than fitting a 32-bit sign-extended
// immediate operand directly (§4.4 step 5).
func exceedsImmediate32(v value.Value) bool {
	if !v.IsNumber() {
		return false // Nil/True are single-bit immediates, always free
	}
	n := v.Int()
	return n > maxImmediate32 || n < minImmediate32
}

// Function is one compiled-or-compiling lambda: its parameter count,
// lowered body, and (once code emission has run) the native entry
// point and the page it lives on.
type Function struct {
	Name    string // the name it was compiled under, for diagnostics only
	NParams int
	Body    *Bite
	Self    value.Value // the lambda Value itself, for self-recursion bites

	Hash  [32]byte // blake2b of the serialized resolved body, §4.4.x
	Entry uintptr
	Code  []byte
	Free  func()
}
