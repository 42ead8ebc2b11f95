// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"strings"
	"testing"

	"lisp/internal/heap"
)

// TestValidateRejectsNonTailSelfCall guards compileRecurse's assumption
// (ggen.go: always `jmp loopEntry`, never a call-and-return): a
// self-call used as an argument to + is not in tail position, so
// jumping back to the loop entry instead of returning a value there
// would silently discard the `+ 1` still pending above it.
func TestValidateRejectsNonTailSelfCall(t *testing.T) {
	ip := newTestInterp(t)
	backend, _ := stubBackend(t)
	c := NewCompiler(ip, backend)
	ip.SetCompiler(c)

	load(t, ip, `(defun bad (n) (+ (bad n) 1))`)
	fn := lookupLambda(t, ip, "bad")
	name := ip.Intern("bad")

	err := c.Compile(name, fn)
	if err == nil {
		t.Fatal("Compile(bad) with a non-tail self-call succeeded, want rejection")
	}
	if !strings.Contains(err.Error(), "tail position") {
		t.Errorf("Compile(bad) error = %v, want it to mention tail position", err)
	}
	arena := ip.Collector().Arena()
	if got := arena.CompiledState(fn.Addr()); got != heap.NotCompiled {
		t.Fatalf("CompiledState after rejected compile = %d, want NotCompiled", got)
	}
}

// TestValidateRejectsSelfCallInIfCondition: the condition of an if is
// never tail (compileIf always has a compare-and-branch left to do
// above it), even when the whole if itself is in tail position.
func TestValidateRejectsSelfCallInIfCondition(t *testing.T) {
	ip := newTestInterp(t)
	backend, _ := stubBackend(t)
	c := NewCompiler(ip, backend)
	ip.SetCompiler(c)

	load(t, ip, `(defun bad (n) (if (bad n) 0 0))`)
	fn := lookupLambda(t, ip, "bad")
	name := ip.Intern("bad")

	if err := c.Compile(name, fn); err == nil {
		t.Fatal("Compile(bad) with a self-call in if's condition succeeded, want rejection")
	}
}

// TestValidateAcceptsSelfCallInIfBranches: the then/else branches of a
// tail-position if inherit that tail-ness, matching compileIf leaving
// whichever branch's value directly in dst.
func TestValidateAcceptsSelfCallInIfBranches(t *testing.T) {
	ip := newTestInterp(t)
	backend, _ := stubBackend(t)
	c := NewCompiler(ip, backend)
	ip.SetCompiler(c)

	load(t, ip, `(defun countdown (n) (if (eq n 0) 0 (countdown (- n 1))))`)
	fn := lookupLambda(t, ip, "countdown")
	name := ip.Intern("countdown")

	if err := c.Compile(name, fn); err != nil {
		t.Fatalf("Compile(countdown) = %v, want success", err)
	}
}

// TestValidateRejectsSelfCallInNonLastPrognPosition: only progn's last
// element is tail; gen.compile's OpProgn case discards everything but the
// last bite's value, so a self-call earlier in the chain would have
// its intended return value thrown away by the jump-back instead.
func TestValidateRejectsSelfCallInNonLastPrognPosition(t *testing.T) {
	ip := newTestInterp(t)
	backend, _ := stubBackend(t)
	c := NewCompiler(ip, backend)
	ip.SetCompiler(c)

	load(t, ip, `(defun bad (n) (progn (bad n) 0))`)
	fn := lookupLambda(t, ip, "bad")
	name := ip.Intern("bad")

	if err := c.Compile(name, fn); err == nil {
		t.Fatal("Compile(bad) with a self-call in a non-last progn position succeeded, want rejection")
	}
}

// TestValidateAcceptsSelfCallInLastPrognPosition mirrors the accepted
// if-branch case for progn's tail slot.
func TestValidateAcceptsSelfCallInLastPrognPosition(t *testing.T) {
	ip := newTestInterp(t)
	backend, _ := stubBackend(t)
	c := NewCompiler(ip, backend)
	ip.SetCompiler(c)

	load(t, ip, `(defun countdown (n) (progn (eq n n) (if (eq n 0) 0 (countdown (- n 1)))))`)
	fn := lookupLambda(t, ip, "countdown")
	name := ip.Intern("countdown")

	if err := c.Compile(name, fn); err != nil {
		t.Fatalf("Compile(countdown) = %v, want success", err)
	}
}
