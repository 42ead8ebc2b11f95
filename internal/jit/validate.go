// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"golang.org/x/xerrors"

	"lisp/internal/heap"
	"lisp/internal/value"
)

// allowedPrimitives is the closed allow-list of §4.4 step 2: a
// compiled body may call exactly these built-ins, nothing else.
var allowedPrimitives = map[string]bool{
	"+": true, "-": true, "<": true, "eq": true,
	"car": true, "cdr": true, "if": true, "progn": true,
	"write-char": true,
}

// validate implements §4.4 step 2 against an already symbol-resolved
// body: every sub-expression must be a number, Nil/True, a parameter
// reference, a self-call, a call to an already-Compiled function, or a
// call to one of allowedPrimitives. Anything else rejects with a
// diagnostic naming the offending shape. The body itself starts in
// tail position, matching compileRecurse's unconditional `jmp
// loopEntry`: ggen.go never emits a call-and-return for a self-call,
// only a jump back to the prologue, so a self-call anywhere but tail
// position would silently replace its caller's remaining work with
// another iteration of the loop instead of returning to it.
func (c *Compiler) validate(params, self, expr value.Value) error {
	return c.validateAt(params, self, expr, true)
}

func (c *Compiler) validateAt(params, self, expr value.Value, tail bool) error {
	arena := c.ip.Collector().Arena()

	switch {
	case expr.IsNumber(), expr == value.Nil, expr == value.True:
		return nil

	case expr.Tag() == value.TagSymbol:
		if isParam(arena, params, expr) {
			return nil
		}
		return xerrors.Errorf("jit: unresolved symbol %s escaped resolution", c.ip.SymbolName(expr))

	case expr.Tag() == value.TagCons:
		addr := expr.Addr()
		head := arena.Car(addr)
		args := arena.Cdr(addr)

		switch {
		case head == self:
			if !tail {
				return xerrors.Errorf("jit: self-call not in tail position")
			}
			return c.validateArgs(params, self, args)

		case head.Tag() == value.TagLambda && arena.CompiledState(head.Addr()) == heap.Compiled:
			return c.validateArgs(params, self, args)

		case head.Tag() == value.TagBuiltin:
			name, ok := c.ip.BuiltinName(arena.BuiltinIndex(head.Addr()))
			if !ok || !allowedPrimitives[name] {
				return xerrors.Errorf("jit: primitive not in the compiler's allow-list: %s", name)
			}
			switch name {
			case "if":
				return c.validateIfArgs(params, self, args, tail)
			case "progn":
				return c.validatePrognArgs(params, self, args, tail)
			default:
				return c.validateArgs(params, self, args)
			}

		default:
			return xerrors.Errorf("jit: call to a value that is neither self, a compiled function, nor an allowed primitive")
		}

	default:
		return xerrors.Errorf("jit: value of kind %v not permitted in a compiled body", expr.Tag())
	}
}

// validateArgs walks a proper argument list, validating each element
// in non-tail position (none of these is the value ggen.go leaves in
// dst without more work above it) and rejecting a dotted (improper)
// tail.
func (c *Compiler) validateArgs(params, self, args value.Value) error {
	arena := c.ip.Collector().Arena()
	for a := args; a != value.Nil; {
		if a.Tag() != value.TagCons {
			return xerrors.Errorf("jit: improper argument list")
		}
		addr := a.Addr()
		if err := c.validateAt(params, self, arena.Car(addr), false); err != nil {
			return err
		}
		a = arena.Cdr(addr)
	}
	return nil
}

// validateIfArgs validates if's (cond then else) argument list: the
// condition is never tail (compileIf always has more work — the
// branch compare/jump — above it), while then and else each inherit
// the if expression's own tail-ness, matching compileIf's emission of
// the chosen branch directly into dst with no further instructions
// after it in that branch's control path.
func (c *Compiler) validateIfArgs(params, self, args value.Value, tail bool) error {
	arena := c.ip.Collector().Arena()
	i := 0
	for a := args; a != value.Nil; {
		if a.Tag() != value.TagCons {
			return xerrors.Errorf("jit: improper argument list")
		}
		addr := a.Addr()
		elemTail := tail && i >= 1 // cond is index 0, then/else are 1 and 2
		if err := c.validateAt(params, self, arena.Car(addr), elemTail); err != nil {
			return err
		}
		a = arena.Cdr(addr)
		i++
	}
	return nil
}

// validatePrognArgs validates progn's argument list: every element but
// the last is evaluated purely for effect (never tail), while the
// last inherits progn's own tail-ness, matching compile's OpProgn
// chain, which leaves only the final bite's value in dst.
func (c *Compiler) validatePrognArgs(params, self, args value.Value, tail bool) error {
	arena := c.ip.Collector().Arena()
	for a := args; a != value.Nil; {
		if a.Tag() != value.TagCons {
			return xerrors.Errorf("jit: improper argument list")
		}
		addr := a.Addr()
		rest := arena.Cdr(addr)
		isLast := rest == value.Nil
		if err := c.validateAt(params, self, arena.Car(addr), tail && isLast); err != nil {
			return err
		}
		a = rest
	}
	return nil
}
