// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"lisp/internal/diag"
	"lisp/internal/heap"
	"lisp/internal/value"
)

// NativeInvoker is the dispatcher's hook into JIT'd code (§4.5): given
// the raw native-code address stored in a Compiled lambda's body slot
// and the evaluated argument values, it runs the compiled function and
// returns its result. Implemented by internal/jit; wired in via
// Interp.SetNativeInvoker so eval never imports jit.
type NativeInvoker interface {
	Invoke(code uintptr, args []value.Value) value.Value
}

// apply dispatches a callee to its arguments per §4.3's "Application
// rules by callee kind". args is the raw, unevaluated cons list of
// actual-parameter expressions; each branch decides for itself whether
// and when to evaluate them.
func (ip *Interp) apply(callerScope, callee, args value.Value) value.Value {
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&callerScope)
	f.Track(&callee)
	f.Track(&args)

	switch callee.Tag() {
	case value.TagMacro:
		return ip.applyMacro(callerScope, callee, args)
	case value.TagBuiltin:
		return ip.applyBuiltin(callerScope, callee, args)
	case value.TagLambda:
		return ip.applyLambda(callerScope, callee, args)
	default:
		ip.errorf(diag.KindType, "not a function: %v", callee)
		return value.Nil
	}
}

func (ip *Interp) applyBuiltin(scope, callee, args value.Value) value.Value {
	idx := ip.gc.Arena().BuiltinIndex(callee.Addr())
	if idx < 0 || idx >= len(ip.builtins) {
		ip.errorf(diag.KindType, "corrupt builtin index %d", idx)
		return value.Nil
	}
	return ip.builtins[idx](ip, scope, args)
}

// applyMacro never evaluates rawArgs — §4.3's "macro: bind unevaluated
// actuals" — so unlike applyLambda below, rawArgs is already the
// actuals list bindParams wants; no per-argument evaluation loop is
// needed here.
func (ip *Interp) applyMacro(callerScope, macro, rawArgs value.Value) value.Value {
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&callerScope)
	f.Track(&macro)
	f.Track(&rawArgs)

	arena := ip.gc.Arena()
	nParams := ip.listLen(arena.Params(macro.Addr()))
	nArgs := ip.listLen(rawArgs)
	if nParams != nArgs {
		ip.errorf(diag.KindArity, "macro expects %d args, got %d", nParams, nArgs)
		return value.Nil
	}

	captured := arena.CapturedEnv(macro.Addr())
	parent := captured
	if parent == value.Nil {
		parent = callerScope
	}

	expandScope := ip.newScope(parent)
	f.Track(&expandScope)
	ip.bindParams(expandScope, arena.Params(macro.Addr()), rawArgs)

	expansion := ip.Eval(expandScope, arena.Body(macro.Addr()))
	return ip.Eval(callerScope, expansion)
}

// applyLambda evaluates each actual and binds it before evaluating the
// next — §4.3's evaluation order — one pair at a time against tracked
// cursors over params and rawArgs, rather than buffering evaluated
// results into a Go slice first. A Go slice of heap Values is not a
// root the collector fixes up on a moving collection, so an earlier
// actual sitting in such a slice would go stale the instant a later
// actual's own evaluation allocates (§5.1's root-chain invariant).
func (ip *Interp) applyLambda(callerScope, lambda, rawArgs value.Value) value.Value {
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&callerScope)
	f.Track(&lambda)
	f.Track(&rawArgs)

	arena := ip.gc.Arena()
	nParams := ip.listLen(arena.Params(lambda.Addr()))
	nArgs := ip.listLen(rawArgs)
	if nParams != nArgs {
		ip.errorf(diag.KindArity, "function expects %d args, got %d", nParams, nArgs)
		return value.Nil
	}

	captured := arena.CapturedEnv(lambda.Addr())
	parent := captured
	if parent == value.Nil {
		parent = callerScope
	}

	fresh := ip.newScope(parent)
	f.Track(&fresh)

	p, a := arena.Params(lambda.Addr()), rawArgs
	f.Track(&p)
	f.Track(&a)
	for p != value.Nil {
		val := ip.Eval(callerScope, arena.Car(a.Addr()))
		formal := arena.Car(p.Addr())
		ip.bind(fresh, formal, val)
		p = arena.Cdr(p.Addr())
		a = arena.Cdr(a.Addr())
	}

	switch arena.CompiledState(lambda.Addr()) {
	case heap.Compiled:
		if ip.invoker == nil {
			ip.errorf(diag.KindCompile, "lambda marked Compiled but no native invoker is wired")
			return value.Nil
		}
		code := uintptr(arena.Body(lambda.Addr()))
		actuals := make([]value.Value, 0, nParams)
		for p := arena.Params(lambda.Addr()); p != value.Nil; p = arena.Cdr(p.Addr()) {
			v, _ := ip.lookup(fresh, arena.Car(p.Addr()))
			actuals = append(actuals, v)
		}
		return ip.invoker.Invoke(code, actuals)
	default:
		body := arena.Body(lambda.Addr())
		if body.Tag() == value.TagCons {
			return ip.park(body, fresh)
		}
		return ip.Eval(fresh, body)
	}
}
