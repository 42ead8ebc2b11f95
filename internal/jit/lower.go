// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"golang.org/x/xerrors"

	"lisp/internal/heap"
	"lisp/internal/value"
)

// lower implements §4.4 step 3: turn an already-resolved,
// already-validated body into a bite tree. Calls (fixed arity in
// practice, checked against the shapes validate already accepted)
// lower their argument list through a chain of OpList bites so
// self-calls, cross-function calls, and the fixed-arity primitives all
// share one shape.
func (c *Compiler) lower(params, self, expr value.Value) (*Bite, error) {
	arena := c.ip.Collector().Arena()

	switch {
	case expr.IsNumber(), expr == value.Nil, expr == value.True:
		return constBite(expr), nil

	case expr.Tag() == value.TagSymbol:
		idx := paramIndex(arena, params, expr)
		if idx < 0 {
			return nil, xerrors.Errorf("jit: lower: %s is not a parameter", c.ip.SymbolName(expr))
		}
		return paramBite(idx), nil

	case expr.Tag() == value.TagCons:
		addr := expr.Addr()
		head := arena.Car(addr)
		args := arena.Cdr(addr)

		if head == self {
			list, err := c.lowerArgs(params, self, args)
			if err != nil {
				return nil, err
			}
			b := unary(OpRecurse, list)
			return b, nil
		}

		if head.Tag() == value.TagLambda && arena.CompiledState(head.Addr()) == heap.Compiled {
			list, err := c.lowerArgs(params, self, args)
			if err != nil {
				return nil, err
			}
			fn, ok := c.byAddr[head.Addr()]
			if !ok {
				return nil, xerrors.Errorf("jit: callee compiled out of band, no registered entry")
			}
			b := unary(OpCall, list)
			b.Target = fn
			return b, nil
		}

		name, _ := c.ip.BuiltinName(arena.BuiltinIndex(head.Addr()))
		return c.lowerPrimitive(name, params, self, args)

	default:
		return nil, xerrors.Errorf("jit: lower: unexpected value in validated body")
	}
}

func (c *Compiler) lowerArgs(params, self, args value.Value) (*Bite, error) {
	arena := c.ip.Collector().Arena()
	if args == value.Nil {
		return nil, nil
	}
	addr := args.Addr()
	head, err := c.lower(params, self, arena.Car(addr))
	if err != nil {
		return nil, err
	}
	rest, err := c.lowerArgs(params, self, arena.Cdr(addr))
	if err != nil {
		return nil, err
	}
	return binary(OpList, head, rest), nil
}

func (c *Compiler) lowerPrimitive(name string, params, self, args value.Value) (*Bite, error) {
	vs, err := c.lowerSlice(params, self, args)
	if err != nil {
		return nil, err
	}

	switch name {
	case "+":
		if len(vs) == 0 {
			return nil, xerrors.Errorf("jit: +: expects at least 1 argument")
		}
		acc := vs[0]
		for _, v := range vs[1:] {
			acc = binary(OpAdd, acc, v)
		}
		return acc, nil

	case "-":
		if len(vs) == 0 {
			return nil, xerrors.Errorf("jit: -: expects at least 1 argument")
		}
		if len(vs) == 1 {
			return unary(OpNeg, vs[0]), nil
		}
		acc := vs[0]
		for _, v := range vs[1:] {
			acc = binary(OpSub, acc, v)
		}
		return acc, nil

	case "<":
		if len(vs) != 2 {
			return nil, xerrors.Errorf("jit: <: expects exactly 2 arguments")
		}
		return binary(OpLess, vs[0], vs[1]), nil

	case "eq":
		if len(vs) != 2 {
			return nil, xerrors.Errorf("jit: eq: expects exactly 2 arguments")
		}
		return binary(OpEq, vs[0], vs[1]), nil

	case "car":
		if len(vs) != 1 {
			return nil, xerrors.Errorf("jit: car: expects exactly 1 argument")
		}
		b := unary(OpLoad, vs[0])
		b.Offset = value.Width // heap.Car's field offset past the header
		return b, nil

	case "cdr":
		if len(vs) != 1 {
			return nil, xerrors.Errorf("jit: cdr: expects exactly 1 argument")
		}
		b := unary(OpLoad, vs[0])
		b.Offset = 2 * value.Width
		return b, nil

	case "if":
		if len(vs) != 3 {
			return nil, xerrors.Errorf("jit: if: expects exactly 3 arguments")
		}
		branch := binary(OpBranch, vs[1], vs[2])
		return binary(OpIf, vs[0], branch), nil

	case "progn":
		if len(vs) == 0 {
			return constBite(value.Nil), nil
		}
		node := vs[len(vs)-1]
		for i := len(vs) - 2; i >= 0; i-- {
			node = binary(OpProgn, vs[i], node)
		}
		return node, nil

	case "write-char":
		if len(vs) != 1 {
			return nil, xerrors.Errorf("jit: write-char: expects exactly 1 argument")
		}
		return unary(OpWriteChar, vs[0]), nil

	default:
		return nil, xerrors.Errorf("jit: lower: primitive %s not in the allow-list", name)
	}
}

// lowerSlice lowers a proper argument list to a Go slice of bites, in
// call order, for the primitives above (which have fixed shapes and
// read more naturally as a slice than as an OpList chain).
func (c *Compiler) lowerSlice(params, self, args value.Value) ([]*Bite, error) {
	arena := c.ip.Collector().Arena()
	var out []*Bite
	for a := args; a != value.Nil; {
		addr := a.Addr()
		b, err := c.lower(params, self, arena.Car(addr))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		a = arena.Cdr(addr)
	}
	return out, nil
}

// paramIndex returns sym's position in the parameter list, or -1.
func paramIndex(arena *heap.Arena, params, sym value.Value) int {
	i := 0
	for p := params; p != value.Nil; p = arena.Cdr(p.Addr()) {
		if arena.Car(p.Addr()) == sym {
			return i
		}
		i++
	}
	return -1
}
