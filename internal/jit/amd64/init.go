// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import "lisp/internal/jit"

// Init builds the amd64 Backend, mirroring the teacher's own per-arch
// Init(&thearch) entry points (cmd_local/compile/internal/riscv64.Init
// and siblings): a single constructor wiring this package's functions
// into the struct-of-funcs the jit package drives, with no import back
// the other way.
func Init() jit.Backend {
	return jit.Backend{
		Emit:        Emit,
		Page:        Page,
		Invoke:      Invoke,
		Disassemble: Disassemble,
	}
}
