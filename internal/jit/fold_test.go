// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"testing"

	"lisp/internal/value"
)

func TestFoldConstantChain(t *testing.T) {
	// (+ (+ 1 2) 3) -> 6, folded bottom-up in one pass.
	inner := binary(OpAdd, constBite(value.Number(1)), constBite(value.Number(2)))
	outer := binary(OpAdd, inner, constBite(value.Number(3)))

	got := fold(outer)
	if got.Op != OpConst {
		t.Fatalf("fold(...) op = %v, want OpConst", got.Op)
	}
	if got.Const.Int() != 6 {
		t.Fatalf("fold(...) = %d, want 6", got.Const.Int())
	}
}

func TestFoldNegAndSub(t *testing.T) {
	neg := unary(OpNeg, constBite(value.Number(5)))
	if got := fold(neg); got.Op != OpConst || got.Const.Int() != -5 {
		t.Fatalf("fold(neg 5) = %v/%d, want const -5", got.Op, got.Const.Int())
	}

	sub := binary(OpSub, constBite(value.Number(10)), constBite(value.Number(4)))
	if got := fold(sub); got.Op != OpConst || got.Const.Int() != 6 {
		t.Fatalf("fold(10-4) = %v/%d, want const 6", got.Op, got.Const.Int())
	}
}

func TestFoldLeavesNonConstantOperandsAlone(t *testing.T) {
	// (+ p0 1): one operand is a parameter, not a literal, so folding
	// must not touch it.
	add := binary(OpAdd, paramBite(0), constBite(value.Number(1)))
	got := fold(add)
	if got.Op != OpAdd {
		t.Fatalf("fold((+ p0 1)).Op = %v, want OpAdd (unfolded)", got.Op)
	}
	if got.Left.Op != OpParam || got.Right.Const.Int() != 1 {
		t.Fatalf("fold((+ p0 1)) mangled its operands: %+v", got)
	}
}
