// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

// countRegisters implements §4.4 step 5, a Sethi-Ullman register-count
// pass: a binary node needs one more register than its children if
// both children need the same count, otherwise the larger of the two;
// leaves cost 0 or 1 depending on whether they sit in a left-child
// position (left children must materialize into a register; right
// children may stay as a memory or immediate operand); calls cost the
// max of their arguments' counts, or 1, whichever is larger.
//
// isLeft tells the current bite whether it occupies its parent's left
// child slot; the root call passes false (nothing above it requires
// materialization before the root itself does).
func countRegisters(b *Bite, isLeft bool) int {
	if b == nil {
		return 0
	}

	switch b.Op {
	case OpConst:
		if exceedsImmediate32(b.Const) {
			b.NRegs = 1
			return 1
		}
		n := 0
		if isLeft {
			n = 1
		}
		b.NRegs = n
		return n

	case OpParam:
		n := 0
		if isLeft {
			n = 1
		}
		b.NRegs = n
		return n

	case OpNeg, OpWriteChar:
		n := countRegisters(b.Left, true)
		if n < 1 {
			n = 1
		}
		b.NRegs = n
		return n

	case OpList:
		l := countRegisters(b.Left, true)
		r := countRegisters(b.Right, false)
		n := l
		if r > n {
			n = r
		}
		b.NRegs = n
		return n

	case OpRecurse, OpCall:
		n := countRegisters(b.Left /* the OpList argument chain */, false)
		if n < 1 {
			n = 1
		}
		b.NRegs = n
		return n

	case OpIf:
		cond := countRegisters(b.Left, true)
		branch := countRegisters(b.Right, false)
		n := cond
		if branch > n {
			n = branch
		}
		b.NRegs = n
		return n

	case OpBranch, OpProgn:
		// Mutually exclusive (branch) or sequential-and-discarded
		// (progn) — registers are never simultaneously live across the
		// two children, so the node's need is the larger child alone.
		l := countRegisters(b.Left, true)
		r := countRegisters(b.Right, false)
		n := l
		if r > n {
			n = r
		}
		b.NRegs = n
		return n

	default: // OpAdd, OpSub, OpLess, OpEq: genuine binary arithmetic/compare
		l := countRegisters(b.Left, true)
		r := countRegisters(b.Right, false)
		var n int
		if l == r {
			n = l + 1
		} else if l > r {
			n = l
		} else {
			n = r
		}
		b.NRegs = n
		return n
	}
}
