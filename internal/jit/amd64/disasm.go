// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build debug

package amd64

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble implements Backend.Disassemble, wired in only under the
// debug build tag (cmd/lisp's -fulldebug flag): decode code byte by
// byte and return one formatted line per instruction, matching the
// teacher's own objdump use of the same decoder package.
func Disassemble(code []byte) []string {
	var lines []string
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil || inst.Len == 0 {
			lines = append(lines, fmt.Sprintf("%04x: (bad) %02x", off, code[off]))
			off++
			continue
		}
		lines = append(lines, fmt.Sprintf("%04x: %s", off, x86asm.GNUSyntax(inst, uint64(off), nil)))
		off += inst.Len
	}
	return lines
}
