// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import "lisp/internal/value"

// A scope is a cons chain of bindings-lists; each bindings-list is
// itself a cons chain of (symbol . value) cells (§3). The global
// environment is the outermost scope — a one-element chain wrapping
// the global bindings-list.

// lookup searches scope's bindings-lists, innermost first, for a cell
// whose car is (pointer-identical to, since symbols are interned) sym,
// returning its cdr.
func (ip *Interp) lookup(scope, sym value.Value) (value.Value, bool) {
	arena := ip.gc.Arena()
	for s := scope; s != value.Nil; s = arena.Cdr(s.Addr()) {
		bindings := arena.Car(s.Addr())
		for b := bindings; b != value.Nil; b = arena.Cdr(b.Addr()) {
			cell := arena.Car(b.Addr())
			if arena.Car(cell.Addr()) == sym {
				return arena.Cdr(cell.Addr()), true
			}
		}
	}
	return value.Nil, false
}

// Lookup exposes lookup to other packages (the JIT's symbol-resolution
// pass, which rewrites a compiled function's body against the same
// scope chain the tree walker would have consulted).
func (ip *Interp) Lookup(scope, sym value.Value) (value.Value, bool) { return ip.lookup(scope, sym) }

// newScope pushes a fresh, empty bindings-list onto parent — the
// "fresh scope" step of lambda/macro application (§4.3): "new bindings
// list over the lambda's captured environment if present, else over
// the caller's scope".
func (ip *Interp) newScope(parent value.Value) value.Value {
	return ip.gc.AllocCons(value.Nil, parent)
}

// bind conses (sym . val) onto the innermost bindings-list of scope,
// mutating scope's cons cell in place so every other holder of the
// same scope pointer observes the new binding — the behavior `define`
// and `defvar` rely on when binding into the (shared, mutable) global
// environment.
func (ip *Interp) bind(scope, sym, val value.Value) {
	arena := ip.gc.Arena()
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&sym)
	f.Track(&val)

	cell := ip.gc.AllocCons(sym, val)
	f.Track(&cell)
	bindings := arena.Car(scope.Addr())
	newBindings := ip.gc.AllocCons(cell, bindings)
	arena.SetCar(scope.Addr(), newBindings)
}

// bindParams binds each formal in params to the correspondingly
// positioned value in the actuals list (both proper lists of equal
// length, already checked by the caller) into scope's innermost
// bindings-list, one pair at a time. params and actuals are tracked,
// mutated-in-place cursors rather than a buffered Go slice: each
// ip.bind call below can allocate and collect, and a Go slice of
// heap Values isn't a root the collector fixes up, so an actual read
// ahead of where the cursor has reached would go stale the moment an
// earlier pair's binding triggers a cycle.
func (ip *Interp) bindParams(scope, params, actuals value.Value) {
	arena := ip.gc.Arena()
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&params)
	f.Track(&actuals)

	for params != value.Nil {
		formal := arena.Car(params.Addr())
		val := arena.Car(actuals.Addr())
		ip.bind(scope, formal, val)
		params = arena.Cdr(params.Addr())
		actuals = arena.Cdr(actuals.Addr())
	}
}

// listLen returns the length of a proper cons list, or -1 if v is not
// Nil and not a cons (an improper/dotted list, which this system never
// produces for parameter lists).
func (ip *Interp) listLen(v value.Value) int {
	arena := ip.gc.Arena()
	n := 0
	for v != value.Nil {
		if v.Tag() != value.TagCons {
			return -1
		}
		n++
		v = arena.Cdr(v.Addr())
	}
	return n
}

// listToSlice flattens a proper cons list into a Go slice of Values,
// for callers (argument evaluation, apply's actuals) that want random
// access.
func (ip *Interp) listToSlice(v value.Value) []value.Value {
	arena := ip.gc.Arena()
	var out []value.Value
	for v != value.Nil {
		out = append(out, arena.Car(v.Addr()))
		v = arena.Cdr(v.Addr())
	}
	return out
}
