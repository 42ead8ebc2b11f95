// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"testing"

	"lisp/internal/value"
)

func TestCountRegistersLeaves(t *testing.T) {
	p := paramBite(0)
	if n := countRegisters(p, false); n != 0 {
		t.Errorf("countRegisters(param, isLeft=false) = %d, want 0", n)
	}
	p2 := paramBite(0)
	if n := countRegisters(p2, true); n != 1 {
		t.Errorf("countRegisters(param, isLeft=true) = %d, want 1", n)
	}
}

func TestCountRegistersDistinctChildren(t *testing.T) {
	// (+ p0 p1): left materializes (cost 1), right stays an operand
	// (cost 0) -> distinct counts -> node cost is the max, 1.
	b := binary(OpAdd, paramBite(0), paramBite(1))
	if n := countRegisters(b, false); n != 1 {
		t.Errorf("countRegisters(p0+p1) = %d, want 1", n)
	}
}

func TestCountRegistersEqualChildrenBumpsByOne(t *testing.T) {
	// (+ (+ p0 p1) (+ p2 p3)): both subtrees cost 1, so the classic
	// Sethi-Ullman rule bumps the parent to 2 (one side must be
	// evaluated and held while the other is computed).
	left := binary(OpAdd, paramBite(0), paramBite(1))
	right := binary(OpAdd, paramBite(2), paramBite(3))
	b := binary(OpAdd, left, right)
	if n := countRegisters(b, false); n != 2 {
		t.Errorf("countRegisters(equal-cost children) = %d, want 2", n)
	}
}

func TestCountRegistersLargeConstantCostsARegister(t *testing.T) {
	big := constBite(value.Number(1 << 40))
	if n := countRegisters(big, false); n != 1 {
		t.Errorf("countRegisters(large const) = %d, want 1 (exceeds imm32)", n)
	}
	small := constBite(value.Number(5))
	if n := countRegisters(small, false); n != 0 {
		t.Errorf("countRegisters(small const, isLeft=false) = %d, want 0", n)
	}
}

func TestCountRegistersCallCostsAtLeastOne(t *testing.T) {
	noArgs := unary(OpRecurse, nil)
	if n := countRegisters(noArgs, false); n != 1 {
		t.Errorf("countRegisters(recurse, no args) = %d, want 1", n)
	}
}

func TestExceedsImmediate32(t *testing.T) {
	if exceedsImmediate32(value.Number(1000)) {
		t.Error("1000 should fit a 32-bit immediate")
	}
	if !exceedsImmediate32(value.Number(1 << 40)) {
		t.Error("1<<40 should exceed a 32-bit immediate")
	}
	if exceedsImmediate32(value.Nil) || exceedsImmediate32(value.True) {
		t.Error("singleton constants should never cost a register")
	}
}
