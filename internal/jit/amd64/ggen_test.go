// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import (
	"bytes"
	"testing"

	"lisp/internal/jit"
	"lisp/internal/value"
)

func leafBite(op jit.Op) *jit.Bite { return &jit.Bite{Op: op, Reg: -1, NRegs: -1} }

func paramBite(i int) *jit.Bite {
	b := leafBite(jit.OpParam)
	b.ParamIndex = i
	b.NRegs = 0
	return b
}

func constBite(v value.Value, nregs int) *jit.Bite {
	b := leafBite(jit.OpConst)
	b.Const = v
	b.NRegs = nregs
	return b
}

// TestEmitIdentityFunctionHasNoPrologueOverflow checks the §4.4 step 6
// "if zero, the prologue [stack reservation] bytes are elided" rule: a
// single-parameter identity function needs no spill slots and takes no
// arguments to stage for self-recursion, so Emit must not emit a
// sub/add rsp pair.
func TestEmitIdentityFunctionHasNoPrologueOverflow(t *testing.T) {
	fn := &jit.Function{NParams: 1, Body: paramBite(0)}
	code, err := Emit(fn)
	if err != nil {
		t.Fatalf("Emit(identity) = %v", err)
	}
	if len(code) == 0 {
		t.Fatal("Emit(identity) produced no bytes")
	}
	if code[0] != 0x55 {
		t.Fatalf("Emit(identity) first byte = %#x, want 0x55 (push rbp)", code[0])
	}
	if code[len(code)-1] != 0xC3 {
		t.Fatalf("Emit(identity) last byte = %#x, want 0xC3 (ret)", code[len(code)-1])
	}
	// sub rsp, imm32 is REX.W 81 /5; its absence is the elision the
	// zero-overflow case requires.
	subRspPrefix := []byte{rexW, 0x81, modrm(0b11, 5, byte(rsp))}
	if bytes.Contains(code, subRspPrefix) {
		t.Errorf("Emit(identity) contains a sub-rsp prologue despite needing no spill slots")
	}
}

// TestEmitAddFunctionReservesNoSpillWithinFourRegisters checks a
// two-parameter add, whose Sethi-Ullman count (1) fits within the four
// scratch registers, also elides the stack-reservation prologue.
func TestEmitAddFunctionReservesNoSpillWithinFourRegisters(t *testing.T) {
	body := &jit.Bite{
		Op:    jit.OpAdd,
		Left:  paramBite(0),
		Right: paramBite(1),
		Reg:   -1,
		NRegs: 1,
	}
	fn := &jit.Function{NParams: 2, Body: body}
	code, err := Emit(fn)
	if err != nil {
		t.Fatalf("Emit(add) = %v", err)
	}
	if len(code) == 0 {
		t.Fatal("Emit(add) produced no bytes")
	}
	if code[len(code)-1] != 0xC3 {
		t.Fatalf("Emit(add) last byte = %#x, want 0xC3 (ret)", code[len(code)-1])
	}
	subRspPrefix := []byte{rexW, 0x81, modrm(0b11, 5, byte(rsp))}
	if bytes.Contains(code, subRspPrefix) {
		t.Errorf("Emit(add) contains a sub-rsp prologue despite needing no spill slots")
	}
}

// TestEmitLargeConstantReservesSpillSlot forces NRegs above len(scratch)
// to verify Emit actually reserves a prologue stack slot (sub rsp
// present) when the register-count pass says it must.
func TestEmitLargeConstantReservesSpillSlot(t *testing.T) {
	// A synthetic bite tree whose NRegs (5) exceeds the four-register
	// scratch set, forcing maxOverflow to report 1 spill slot needed.
	body := &jit.Bite{Op: jit.OpConst, Const: value.Number(1), Reg: -1, NRegs: 5}
	fn := &jit.Function{NParams: 0, Body: body}

	code, err := Emit(fn)
	if err != nil {
		t.Fatalf("Emit = %v", err)
	}
	subRspPrefix := []byte{rexW, 0x81, modrm(0b11, 5, byte(rsp))}
	if !bytes.Contains(code, subRspPrefix) {
		t.Error("Emit with NRegs=5 did not reserve a spill-slot prologue")
	}
}

func TestMaxOverflowFloorsAtZero(t *testing.T) {
	b := &jit.Bite{Op: jit.OpParam, NRegs: 0}
	if got := maxOverflow(b); got != 0 {
		t.Errorf("maxOverflow(NRegs=0) = %d, want 0", got)
	}
}

func TestMaxOverflowWalksBothChildren(t *testing.T) {
	left := &jit.Bite{Op: jit.OpConst, NRegs: 2}
	right := &jit.Bite{Op: jit.OpConst, NRegs: 6}
	b := &jit.Bite{Op: jit.OpAdd, Left: left, Right: right, NRegs: 6}
	if got := maxOverflow(b); got != 2 {
		t.Errorf("maxOverflow = %d, want 2 (6 - len(scratch)=4)", got)
	}
}

func TestSpillSlotOffsetsDescendFromFramePointer(t *testing.T) {
	g := &gen{}
	if got := g.spillSlot(0); got != -8 {
		t.Errorf("spillSlot(0) = %d, want -8", got)
	}
	if got := g.spillSlot(1); got != -16 {
		t.Errorf("spillSlot(1) = %d, want -16", got)
	}
}
