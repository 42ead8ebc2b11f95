// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	"golang.org/x/xerrors"

	"lisp/internal/eval"
	"lisp/internal/heap"
	"lisp/internal/value"
)

// Backend is the architecture-specific half of the pipeline, a struct
// of function pointers in the same shape as the teacher's own
// cmd/compile/internal/gc.Arch: this package never imports its own
// backend package, the backend imports this package for the Bite/
// Function types and is wired in from outside (cmd/lisp/main.go) by
// passing the struct a constructor like internal/jit/amd64.Init
// returns.
type Backend struct {
	// Emit lowers fn's bite tree (already folded and register-counted)
	// to a contiguous machine-code byte buffer per §4.4 step 6.
	Emit func(fn *Function) ([]byte, error)

	// Page mmaps code RW, copies it in, flips it RX, and returns the
	// callable entry point plus a release func registered for
	// free-at-shutdown (§4.4 step 7, §5's executable-page ownership).
	Page func(code []byte) (entry uintptr, free func(), err error)

	// Invoke calls the native function at entry with args already
	// marshaled into a contiguous array, returning its result — the
	// dispatcher's native leg (§4.5).
	Invoke func(entry uintptr, args []value.Value) value.Value

	// Disassemble is non-nil only in debug builds; it returns one
	// line per decoded instruction in code, for the `-fulldebug` dump.
	Disassemble func(code []byte) []string
}

// Compiler implements eval.Compiler and eval.NativeInvoker: the
// dispatcher's hooks into compilation and into already-compiled native
// code. It owns the registry of compiled functions, keyed by the
// lambda's heap address at the moment compilation succeeded (stable
// for the lambda's lifetime since a Compiled lambda is pinned: the
// collector never evacuates a Compiled body, see gc.scanOne).
type Compiler struct {
	ip      *eval.Interp
	backend Backend

	byAddr map[uintptr]*Function // this lambda's heap addr -> its Function
	byHash map[[32]byte]*Function // content hash -> Function, the code cache
	debug  bool
}

// NewCompiler wires ip to backend. Called once from cmd/lisp/main.go,
// after which ip.SetCompiler/SetNativeInvoker pass this same value in
// both roles.
func NewCompiler(ip *eval.Interp, backend Backend) *Compiler {
	return &Compiler{
		ip:      ip,
		backend: backend,
		byAddr:  make(map[uintptr]*Function),
		byHash:  make(map[[32]byte]*Function),
	}
}

// SetFullDebug toggles the post-compile disassembly dump (the
// `-fulldebug` flag, debug builds only).
func (c *Compiler) SetFullDebug(v bool) { c.debug = v }

// Compile implements eval.Compiler's second hook: the full pipeline
// through code emission (§4.4 steps 1-7). Any failure rolls back
// CompiledState to its value on entry and leaves body untouched from
// that point on; see resolve.go's doc comment for the one exception
// (a partially symbol-rewritten, but behaviorally equivalent, body).
func (c *Compiler) Compile(name, lambda value.Value) error {
	if lambda.Tag() != value.TagLambda {
		return xerrors.Errorf("jit: not a lambda")
	}
	arena := c.ip.Collector().Arena()
	addr := lambda.Addr()
	priorState := arena.CompiledState(addr)

	if priorState == heap.Compiled {
		return nil // already compiled; compile is idempotent (§4.4.x)
	}

	resolvedBody, err := c.resolveOnly(name, lambda)
	if err != nil {
		arena.SetCompiledState(addr, priorState)
		return err
	}
	arena.SetCompiledState(addr, heap.SymbolsResolved)

	params := arena.Params(addr)
	if err := c.validate(params, lambda, resolvedBody); err != nil {
		arena.SetCompiledState(addr, priorState)
		return err
	}

	hash := c.hashBody(params, lambda, resolvedBody)
	if existing, ok := c.byHash[hash]; ok {
		// A function with byte-identical resolved content has already
		// been emitted — e.g. this name was redefined to an
		// otherwise-unchanged body. Reuse the page instead of
		// re-emitting (§4.4.x code-cache key, grounded on the
		// teacher's buildid content-hash idiom).
		arena.SetBody(addr, value.Value(existing.Entry))
		arena.SetCompiledState(addr, heap.Compiled)
		c.byAddr[addr] = existing
		return nil
	}

	body, err := c.lower(params, lambda, resolvedBody)
	if err != nil {
		arena.SetCompiledState(addr, priorState)
		return err
	}
	body = fold(body)
	countRegisters(body, false)

	fn := &Function{
		Name:    c.ip.SymbolName(name),
		NParams: paramCount(arena, params),
		Body:    body,
		Self:    lambda,
		Hash:    hash,
	}

	code, err := c.backend.Emit(fn)
	if err != nil {
		arena.SetCompiledState(addr, priorState)
		return err
	}
	entry, free, err := c.backend.Page(code)
	if err != nil {
		arena.SetCompiledState(addr, priorState)
		return err
	}
	fn.Code, fn.Entry, fn.Free = code, entry, free

	arena.SetBody(addr, value.Value(entry))
	arena.SetCompiledState(addr, heap.Compiled)
	c.byAddr[addr] = fn
	c.byHash[hash] = fn

	if c.debug && c.backend.Disassemble != nil {
		for _, line := range c.backend.Disassemble(code) {
			c.ip.Errors.Record(xerrors.Errorf("jit: %s: %s", fn.Name, line))
		}
	}
	return nil
}

// Invoke implements eval.NativeInvoker: code is the raw entry address
// stashed in the Compiled lambda's body slot by Compile above.
func (c *Compiler) Invoke(code uintptr, args []value.Value) value.Value {
	if c.backend.Invoke == nil {
		return value.Nil
	}
	return c.backend.Invoke(code, args)
}

// Free releases every page this compiler ever emitted — called once
// from cmd/lisp/main.go's shutdown defer chain (§5: "Executable pages:
// owned by the JIT registry; freed at shutdown").
func (c *Compiler) Free() {
	for _, fn := range c.byHash {
		if fn.Free != nil {
			fn.Free()
		}
	}
}

func paramCount(arena *heap.Arena, params value.Value) int {
	n := 0
	for p := params; p != value.Nil; p = arena.Cdr(p.Addr()) {
		n++
	}
	return n
}
