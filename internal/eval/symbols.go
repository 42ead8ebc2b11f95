// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import "lisp/internal/value"

// wellKnownSymbols records every primitive name, in the order
// installPrimitives binds the builtin table, so BuiltinName can map a
// table index back to its name. It holds names only, not interned
// Values: Intern walks the symbol chain on every call.
type wellKnownSymbols struct {
	names []string
}

// Intern returns the unique heap symbol for name, allocating and
// linking it into the AllSymbols chain on first use — "two symbols
// with the same name are always the same heap object" (invariant 4).
func (ip *Interp) Intern(name string) value.Value {
	arena := ip.gc.Arena()
	for s := ip.symbols; s != value.Nil; s = arena.Cdr(s.Addr()) {
		sym := arena.Car(s.Addr())
		if arena.SymbolName(sym.Addr()) == name {
			return sym
		}
	}
	sym := ip.gc.AllocSymbol(name)
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&sym)
	ip.symbols = ip.gc.AllocCons(sym, ip.symbols)
	return sym
}

// symbolName is a small convenience wrapper for error messages.
func (ip *Interp) symbolName(sym value.Value) string {
	return ip.gc.Arena().SymbolName(sym.Addr())
}

// SymbolName exposes symbolName to other packages (the JIT's
// diagnostics need the offending name, not just the Value).
func (ip *Interp) SymbolName(sym value.Value) string { return ip.symbolName(sym) }

// BuiltinName returns the primitive name bound to builtin table index
// idx, for callers (the JIT's validity check) that recognize specific
// primitives by name rather than by opaque index. ip.sym.names is
// populated in the same order installPrimitives binds the table, so
// the indices line up.
func (ip *Interp) BuiltinName(idx int) (string, bool) {
	if idx < 0 || idx >= len(ip.sym.names) {
		return "", false
	}
	return ip.sym.names[idx], true
}

func (ip *Interp) internWellKnown() {
	ip.sym.names = []string{
		"+", "-", "<", "eq", "cons", "car", "cdr", "list",
		"if", "progn", "quote", "lambda",
		"define", "defvar", "defun",
		"defmacro", "macroexpand",
		"apply", "eval",
		"print", "write-char", "rand", "sleep", "load", "exit",
		"freeze", "compile", "debug",
	}
	for _, n := range ip.sym.names {
		ip.Intern(n) // pre-intern so the global environment's builtin
		// bindings below resolve against the same symbol objects the
		// reader will later intern from source text.
	}
}
