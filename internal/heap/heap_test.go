// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"testing"

	"lisp/internal/value"
)

func mustAlloc(t *testing.T, a *Arena, size uintptr) uintptr {
	t.Helper()
	addr, ok := a.Alloc(size)
	if !ok {
		t.Fatalf("Alloc(%d) failed against a freshly constructed arena", size)
	}
	return addr
}

func TestConsFieldRoundTrip(t *testing.T) {
	a := New(4096)
	addr := mustAlloc(t, a, ConsAllocSize)
	v := a.InitCons(addr, value.Number(1), value.Number(2))

	if v.Tag() != value.TagCons {
		t.Fatalf("InitCons tag = %v, want TagCons", v.Tag())
	}
	if got := a.Car(addr); !got.IsNumber() || got.Int() != 1 {
		t.Fatalf("Car = %v, want 1", got)
	}
	if got := a.Cdr(addr); !got.IsNumber() || got.Int() != 2 {
		t.Fatalf("Cdr = %v, want 2", got)
	}

	a.SetCar(addr, value.Number(9))
	a.SetCdr(addr, value.Nil)
	if got := a.Car(addr); got.Int() != 9 {
		t.Fatalf("Car after SetCar = %v, want 9", got)
	}
	if got := a.Cdr(addr); got != value.Nil {
		t.Fatalf("Cdr after SetCdr = %v, want Nil", got)
	}
}

func TestSymbolNameRoundTrip(t *testing.T) {
	a := New(4096)
	name := "frobnicate-widget"
	addr := mustAlloc(t, a, SymbolAllocSize(name))
	v := a.InitSymbol(addr, name)

	if v.Tag() != value.TagSymbol {
		t.Fatalf("InitSymbol tag = %v, want TagSymbol", v.Tag())
	}
	if got := a.SymbolName(addr); got != name {
		t.Fatalf("SymbolName = %q, want %q", got, name)
	}
}

func TestLambdaCompiledStateTransitions(t *testing.T) {
	a := New(4096)
	addr := mustAlloc(t, a, LambdaAllocSize)
	a.InitLambda(addr, value.Nil, value.Nil, value.Nil)

	if got := a.CompiledState(addr); got != NotCompiled {
		t.Fatalf("fresh lambda CompiledState = %d, want NotCompiled", got)
	}

	a.SetCompiledState(addr, SymbolsResolved)
	if got := a.CompiledState(addr); got != SymbolsResolved {
		t.Fatalf("CompiledState after SetCompiledState(SymbolsResolved) = %d, want SymbolsResolved", got)
	}

	a.SetCompiledState(addr, Compiled)
	if got := a.CompiledState(addr); got != Compiled {
		t.Fatalf("CompiledState after SetCompiledState(Compiled) = %d, want Compiled", got)
	}

	// A native code pointer installed in Body must not disturb the
	// adjacent CompiledState word.
	a.SetBody(addr, value.Value(0xdeadbeef))
	if got := a.CompiledState(addr); got != Compiled {
		t.Fatalf("CompiledState after SetBody = %d, want still Compiled", got)
	}
}

func TestForwardedDistinguishesLiveFromMoved(t *testing.T) {
	a := New(4096)
	addr := mustAlloc(t, a, ConsAllocSize)
	a.InitCons(addr, value.Number(1), value.Number(2))

	if _, moved := a.Forwarded(addr, value.TagCons); moved {
		t.Fatal("freshly initialized object reported as already forwarded")
	}

	newAddr := mustAlloc(t, a, ConsAllocSize)
	dest := value.Tagged(newAddr, value.TagCons)
	a.SetForwarded(addr, dest)

	got, moved := a.Forwarded(addr, value.TagCons)
	if !moved {
		t.Fatal("Forwarded did not report the object as moved after SetForwarded")
	}
	if got != dest {
		t.Fatalf("Forwarded location = %v, want %v", got, dest)
	}
}

func TestObjectSizeAgreesWithAllocSize(t *testing.T) {
	a := New(4096)

	consAddr := mustAlloc(t, a, ConsAllocSize)
	a.InitCons(consAddr, value.Nil, value.Nil)
	if got := a.ObjectSize(consAddr, value.TagCons); got != ConsAllocSize {
		t.Errorf("ObjectSize(cons) = %d, want %d", got, ConsAllocSize)
	}

	name := "x"
	symAddr := mustAlloc(t, a, SymbolAllocSize(name))
	a.InitSymbol(symAddr, name)
	if got := a.ObjectSize(symAddr, value.TagSymbol); got != SymbolAllocSize(name) {
		t.Errorf("ObjectSize(symbol) = %d, want %d", got, SymbolAllocSize(name))
	}
}
