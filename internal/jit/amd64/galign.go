// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amd64 is the JIT's only code-generation backend, laid out
// the way the teacher's own per-architecture compiler packages are
// (cmd_local/compile/internal/riscv64, .../ppc64, .../s390x): galign.go
// for the register set and calling-convention constants, enc.go for
// raw instruction-byte encoders, ggen.go for bite-tree code generation,
// gsubr.go for argument marshaling, page_linux.go for the executable
// page lifecycle, disasm.go for the debug-build disassembly dump.
package amd64

// reg is an x86-64 general-purpose register, encoded as the 3-bit
// ModRM/SIB field value (registers 8-15 and their REX.B-extended
// encodings are never used — the bite calling convention needs at
// most five registers live at once, all representable without REX.R/
// REX.B).
type reg byte

const (
	rax reg = 0
	rcx reg = 1
	rdx reg = 2
	rbx reg = 3
	rsp reg = 4
	rbp reg = 5
	rsi reg = 6
	rdi reg = 7
)

// scratch is the four free-register list of §4.4 step 6, {R0,R1,R2,R3}.
// R0 (rax) doubles as the return register, matching the calling
// convention's "return register holds the result value".
var scratch = [4]reg{rax, rcx, rdx, rbx}

// argsReg holds the ARGS pointer: the one fixed register the calling
// convention reads formal parameters through, offset i*word per
// parameter. rdi is free for this since the bite set never touches it
// as a scratch register.
const argsReg = rdi

// frameReg is the conventional frame pointer emitted functions
// maintain for their own spill slots — not one of the four bites
// scratch registers exposed to the Lisp calling convention, just this
// backend's own bookkeeping for "any stack slots below a frame
// pointer" (§4.4's calling-convention note).
const frameReg = rbp

// word is the machine word size in bytes.
const word = 8
