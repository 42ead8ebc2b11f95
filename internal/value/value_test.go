// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "testing"

func TestNumberRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)}
	for _, n := range tests {
		v := Number(n)
		if !v.IsNumber() {
			t.Errorf("Number(%d).IsNumber() = false", n)
		}
		if got := v.Int(); got != n {
			t.Errorf("Number(%d).Int() = %d, want %d", n, got, n)
		}
	}
}

func TestSingletonsAreConst(t *testing.T) {
	for _, v := range []Value{Nil, True, Undefined, TailCall} {
		if !v.IsConst() {
			t.Errorf("%v.IsConst() = false", v)
		}
		if v.IsNumber() {
			t.Errorf("%v.IsNumber() = true, want false", v)
		}
		if v.IsHeap() {
			t.Errorf("%v.IsHeap() = true, want false", v)
		}
	}
	if Nil == True || Nil == Undefined || Nil == TailCall ||
		True == Undefined || True == TailCall || Undefined == TailCall {
		t.Error("singleton values collide")
	}
}

func TestTagged(t *testing.T) {
	const addr = 0x1000
	for _, tag := range []Tag{TagSymbol, TagBuiltin, TagCons, TagLambda, TagMacro} {
		v := Tagged(addr, tag)
		if v.Tag() != tag {
			t.Errorf("Tagged(%x, %v).Tag() = %v", addr, tag, v.Tag())
		}
		if !v.IsHeap() {
			t.Errorf("Tagged(%x, %v).IsHeap() = false", addr, tag)
		}
		if got := v.Addr(); got != addr {
			t.Errorf("Tagged(%x, %v).Addr() = %x", addr, tag, got)
		}
	}
}

func TestBoolTruthy(t *testing.T) {
	if Bool(true) != True || Bool(false) != Nil {
		t.Fatal("Bool does not round-trip through True/Nil")
	}
	if Nil.Truthy() {
		t.Error("Nil.Truthy() = true")
	}
	for _, v := range []Value{True, Number(0), Number(-1), Undefined} {
		if !v.Truthy() {
			t.Errorf("%v.Truthy() = false, want true", v)
		}
	}
}
