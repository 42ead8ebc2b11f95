// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64_test

import (
	"strings"
	"testing"

	"lisp/internal/eval"
	"lisp/internal/gc"
	"lisp/internal/jit"
	"lisp/internal/jit/amd64"
	"lisp/internal/value"
)

func newCompiledInterp(t *testing.T) (*eval.Interp, *jit.Compiler) {
	t.Helper()
	gcc := gc.New(1 << 20)
	ip := eval.New(gcc)
	c := jit.NewCompiler(ip, amd64.Init())
	ip.SetCompiler(c)
	ip.SetNativeInvoker(c)
	return ip, c
}

// mustLoad evaluates every top-level form in src against ip's global
// environment and returns the last result, failing the test on any
// recorded error.
func mustLoad(t *testing.T, ip *eval.Interp, src string) value.Value {
	t.Helper()
	v := ip.LoadFile(ip.GlobalEnv(), strings.NewReader(src))
	if n := ip.Errors.Len(); n != 0 {
		for _, e := range ip.Errors.Drain() {
			t.Fatalf("unexpected error evaluating %q: %v", src, e)
		}
	}
	return v
}

// TestNativeInvocationExecutesCompiledCode runs spec scenario #3
// through the real amd64 backend end to end (Emit, Page, Invoke — no
// stub anywhere in the chain): compile add1, call it, and check the
// actual numeric result rather than just inspecting emitted bytes.
// Before invoke_amd64.s's trampoline, Invoke called through Go's
// ABIInternal convention, which does not deliver a one-argument call's
// argument via rdi (the register this backend's emitted prologue
// actually reads ARGS through); the call below would have read
// whatever garbage rdi happened to hold instead of 41.
func TestNativeInvocationExecutesCompiledCode(t *testing.T) {
	ip, c := newCompiledInterp(t)
	defer c.Free()

	mustLoad(t, ip, `(defun add1 (x) (+ x 1))`)
	mustLoad(t, ip, `(compile add1)`)

	got := mustLoad(t, ip, `(add1 41)`)
	if !got.IsNumber() || got.Int() != 42 {
		t.Fatalf("(add1 41) = %v, want 42", got)
	}
}

// TestNativeInvocationReadsArgumentsCorrectly widens the check to a
// two-argument call, where the bug was most visible: a native function
// taking more than zero arguments depends entirely on Invoke handing
// the emitted prologue a real ARGS pointer via rdi.
func TestNativeInvocationReadsArgumentsCorrectly(t *testing.T) {
	ip, c := newCompiledInterp(t)
	defer c.Free()

	mustLoad(t, ip, `(defun add (a b) (+ a b))`)
	mustLoad(t, ip, `(compile add)`)

	got := mustLoad(t, ip, `(add 19 23)`)
	if !got.IsNumber() || got.Int() != 42 {
		t.Fatalf("(add 19 23) = %v, want 42", got)
	}
}

// TestNativeSelfRecursionCompletesInBoundedStack is spec scenario #4:
// a tail-self-recursive native function run to a million iterations,
// checking both the result and that it actually returns (a miscompiled
// ARGS pointer reads garbage parameters and either loops on the wrong
// value forever or crashes rather than converging on 0).
func TestNativeSelfRecursionCompletesInBoundedStack(t *testing.T) {
	ip, c := newCompiledInterp(t)
	defer c.Free()

	mustLoad(t, ip, `(defun f (x) (if (eq x 0) 0 (f (- x 1))))`)
	mustLoad(t, ip, `(compile f)`)

	got := mustLoad(t, ip, `(f 1000000)`)
	if !got.IsNumber() || got.Int() != 0 {
		t.Fatalf("(f 1000000) = %v, want 0", got)
	}
}

// TestNativeAndInterpretedResultsAgree is the §8 compile-equivalence
// property: the same body evaluated through the tree walker and
// through compiled native code must produce identical results.
func TestNativeAndInterpretedResultsAgree(t *testing.T) {
	native, c := newCompiledInterp(t)
	defer c.Free()
	mustLoad(t, native, `(defun double (n) (+ n n))`)
	mustLoad(t, native, `(compile double)`)
	nativeResult := mustLoad(t, native, `(double 21)`)

	interpreted, _ := newCompiledInterp(t)
	mustLoad(t, interpreted, `(defun double (n) (+ n n))`)
	interpretedResult := mustLoad(t, interpreted, `(double 21)`)

	if nativeResult != interpretedResult {
		t.Fatalf("native double(21) = %v, interpreted = %v, want equal", nativeResult, interpretedResult)
	}
}
