// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import (
	"golang.org/x/xerrors"

	"lisp/internal/jit"
	"lisp/internal/value"
)

// gen holds the state threaded through one function's code generation:
// the byte buffer under construction, the self-recursion jump target
// (patched once the loop entry is known), and the running count of
// spill slots actually used (bounded by maxOverflow, computed before
// emission starts).
type gen struct {
	a         asm
	loopEntry int // buffer offset right after the prologue
	spillUsed int
	spillCap  int
}

// Emit implements the Backend.Emit function pointer: compile fn's bite
// tree (already folded and register-counted by internal/jit) to a
// contiguous x86-64 byte buffer, per §4.4 step 6.
func Emit(fn *jit.Function) ([]byte, error) {
	g := &gen{spillCap: maxOverflow(fn.Body)}

	// Prologue: conventional frame pointer, stack-slot reservation for
	// any register pressure beyond the four scratch registers, plus,
	// only when the body contains a self-call, room for one
	// self-recursion argument-staging block sized to this function's
	// own arity. The reservation is sized here, before any bite is
	// emitted, and omitted entirely when it would be zero.
	g.a.push(frameReg)
	g.a.movRegReg(frameReg, reg(rsp))
	var recurses func(b *jit.Bite) bool
	recurses = func(b *jit.Bite) bool {
		return b != nil && (b.Op == jit.OpRecurse || recurses(b.Left) || recurses(b.Right))
	}
	selfBlock := int32(0)
	if recurses(fn.Body) {
		selfBlock = int32(fn.NParams * word)
	}
	frameSize := int32(g.spillCap*word) + selfBlock
	if frameSize > 0 {
		g.a.subRspImm32(frameSize)
	}
	g.loopEntry = g.a.pos()

	free := scratch[:]
	if err := g.compile(fn.Body, rax, free, fn, selfBlock); err != nil {
		return nil, err
	}

	if frameSize > 0 {
		g.a.addRspImm32(frameSize)
	}
	g.a.pop(frameReg)
	g.a.ret()
	return g.a.buf, nil
}

// maxOverflow returns the largest (NRegs - len(scratch)) found anywhere
// in the tree, floored at 0 — the number of stack spill slots the
// prologue must reserve. A tree that never exceeds four live registers
// needs none, matching §4.4 step 6's "if zero, the prologue bytes are
// elided".
func maxOverflow(b *jit.Bite) int {
	if b == nil {
		return 0
	}
	n := b.NRegs - len(scratch)
	if n < 0 {
		n = 0
	}
	if l := maxOverflow(b.Left); l > n {
		n = l
	}
	if r := maxOverflow(b.Right); r > n {
		n = r
	}
	return n
}

// spillSlot returns the disp8 offset (from frameReg) of overflow spill
// slot i, counted down from frameReg; the self-recursion argument
// block sits below the last spill slot.
func (g *gen) spillSlot(i int) int8 { return int8(-word * (i + 1)) }

// compile emits code that leaves b's value in dst, using free for any
// child that needs its own register and spilling to a stack slot (via
// g.spillUsed) when free is exhausted — §4.4 step 6's allocation rule.
func (g *gen) compile(b *jit.Bite, dst reg, free []reg, fn *jit.Function, selfBlock int32) error {
	switch b.Op {
	case jit.OpConst:
		g.a.movImm64(dst, int64(b.Const))
		return nil

	case jit.OpParam:
		g.a.loadMem(dst, argsReg, int8(b.ParamIndex*word))
		return nil

	case jit.OpNeg:
		if err := g.compile(b.Left, dst, free, fn, selfBlock); err != nil {
			return err
		}
		g.a.neg(dst)
		return nil

	case jit.OpLoad:
		if err := g.compile(b.Left, dst, free, fn, selfBlock); err != nil {
			return err
		}
		// b.Left leaves a TagCons-tagged pointer in dst (addr|3); the
		// field itself lives at addr+Offset, i.e. dst+(Offset-3) —
		// folding the tag subtraction into the displacement instead of
		// masking it out with a separate instruction.
		g.a.loadMem(dst, dst, int8(int(b.Offset)-int(value.TagCons)))
		return nil

	case jit.OpAdd, jit.OpSub, jit.OpLess, jit.OpEq:
		return g.compileBinary(b, dst, free, fn, selfBlock)

	case jit.OpIf:
		return g.compileIf(b, dst, free, fn, selfBlock)

	case jit.OpProgn:
		if err := g.compile(b.Left, dst, free, fn, selfBlock); err != nil {
			return err
		}
		return g.compile(b.Right, dst, free, fn, selfBlock)

	case jit.OpWriteChar:
		if err := g.compile(b.Left, dst, free, fn, selfBlock); err != nil {
			return err
		}
		return g.compileWriteChar(dst)

	case jit.OpRecurse:
		return g.compileRecurse(b, fn, selfBlock)

	case jit.OpCall:
		return g.compileCall(b, dst, fn, selfBlock)

	default:
		return xerrors.Errorf("jit/amd64: unexpected bite op %v in code position", b.Op)
	}
}

// compileBinary handles Add/Sub/Less/Eq. The operand needing more
// registers is computed first (into dst, the bite's own register),
// the other into a second register drawn from free; if none remains
// the second operand is spilled to a stack slot while dst is freed up
// to compute the first operand. dst always ends up holding op(Left,
// Right) regardless of which child was evaluated first.
func (g *gen) compileBinary(b *jit.Bite, dst reg, free []reg, fn *jit.Function, selfBlock int32) error {
	left, right := b.Left, b.Right
	swapped := right.NRegs > left.NRegs
	first, second := left, right
	if swapped {
		first, second = right, left
	}

	if err := g.compile(first, dst, free, fn, selfBlock); err != nil {
		return err
	}

	var secondReg reg
	rest := without(free, dst)
	if len(rest) > 0 {
		secondReg = rest[0]
		if err := g.compile(second, secondReg, rest[1:], fn, selfBlock); err != nil {
			return err
		}
	} else {
		// No register left for the second operand: spill dst's
		// first-operand result, compute the second operand into dst,
		// move it aside, then reload the first operand.
		slot := g.reserveSpill()
		g.a.storeMem(frameReg, slot, dst)
		if err := g.compile(second, dst, free, fn, selfBlock); err != nil {
			return err
		}
		secondReg = scratch[len(scratch)-1]
		g.a.movRegReg(secondReg, dst)
		g.a.loadMem(dst, frameReg, slot)
	}

	leftReg, rightReg := dst, secondReg
	if swapped {
		leftReg, rightReg = secondReg, dst
	}

	switch b.Op {
	case jit.OpAdd:
		g.a.add(leftReg, rightReg)
	case jit.OpSub:
		g.a.sub(leftReg, rightReg)
	case jit.OpLess:
		g.a.cmp(leftReg, rightReg)
		g.a.movImm64(leftReg, 0) // mov leaves the cmp flags intact
		g.a.setl(leftReg)
		g.a.shlImm8(leftReg, 3)
		g.a.orImm8(leftReg, byte(value.TagConst))
	case jit.OpEq:
		g.a.cmp(leftReg, rightReg)
		g.a.movImm64(leftReg, 0)
		g.a.sete(leftReg)
		g.a.shlImm8(leftReg, 3)
		g.a.orImm8(leftReg, byte(value.TagConst))
	}
	if leftReg != dst {
		g.a.movRegReg(dst, leftReg)
	}
	return nil
}

func (g *gen) reserveSpill() int8 {
	slot := g.spillUsed
	g.spillUsed++
	return g.spillSlot(slot)
}

func without(rs []reg, drop reg) []reg {
	out := make([]reg, 0, len(rs))
	for _, r := range rs {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}

// compileIf implements the if-bite flag shortcut: when the condition
// is itself a Less/Eq comparison, the comparison flags from cmp are
// consumed directly by a conditional jump, skipping materialization of
// True/Nil. Otherwise the condition is computed into a register and
// compared against Nil.
func (g *gen) compileIf(b *jit.Bite, dst reg, free []reg, fn *jit.Function, selfBlock int32) error {
	cond := b.Left
	branch := b.Right // OpBranch: Left=then, Right=else

	var elseAt int
	switch cond.Op {
	case jit.OpLess, jit.OpEq:
		left, right := cond.Left, cond.Right
		if err := g.compile(left, dst, free, fn, selfBlock); err != nil {
			return err
		}
		rest := without(free, dst)
		rhs := rest[0]
		if err := g.compile(right, rhs, rest[1:], fn, selfBlock); err != nil {
			return err
		}
		g.a.cmp(dst, rhs)
		want := ccNotEqual
		if cond.Op == jit.OpLess {
			want = ccGreaterEqual // branch to else when NOT (a < b)
		}
		elseAt = g.a.jccRel32(want)
	default:
		if err := g.compile(cond, dst, free, fn, selfBlock); err != nil {
			return err
		}
		g.a.movImm64(without(free, dst)[0], int64(value.Nil))
		g.a.cmp(dst, without(free, dst)[0])
		elseAt = g.a.jccRel32(ccEqual)
	}

	if err := g.compile(branch.Left, dst, free, fn, selfBlock); err != nil {
		return err
	}
	doneAt := g.a.jmpRel32()
	elseStart := g.a.pos()
	if err := g.compile(branch.Right, dst, free, fn, selfBlock); err != nil {
		return err
	}
	g.a.patchRel32(elseAt, elseStart)
	g.a.patchRel32(doneAt, g.a.pos())
	return nil
}

// compileWriteChar lowers to a call through the fixed write-char
// runtime thunk (writeCharThunkAddr, set once by gsubr.go's init) —
// the one primitive that has to reach back into the Go runtime rather
// than operate purely on tagged words.
func (g *gen) compileWriteChar(dst reg) error {
	// rax is the thunk's return register, never saved: whatever it
	// held before the call is dead the instant the call returns.
	save := without(without(scratch[:], dst), rax)
	for _, r := range save {
		g.a.push(r)
	}
	g.a.push(reg(argsReg))
	g.a.movRegReg(rax, dst) // argument to the thunk: the tagged char Value
	g.a.movImm64(rcx, int64(writeCharThunkAddr()))
	g.a.callReg(rcx)
	g.a.pop(reg(argsReg))
	for i := len(save) - 1; i >= 0; i-- {
		g.a.pop(save[i])
	}
	// The thunk always returns value.Nil in rax; copy it to dst now,
	// before anything else can touch rax.
	g.a.movRegReg(dst, rax)
	return nil
}

// compileRecurse stages the argument list into the self-recursion
// block reserved below the spill slots, repoints ARGS at it, and jumps
// back to the loop entry — §4.4 step 6's "direct jump back to the
// prologue end", giving tail self-calls the same non-growing-stack
// behavior the tree walker's trampoline gives interpreted tail calls.
func (g *gen) compileRecurse(b *jit.Bite, fn *jit.Function, selfBlock int32) error {
	args := flattenList(b.Left)
	if len(args) != fn.NParams {
		return xerrors.Errorf("jit/amd64: self-call arity mismatch: %d vs %d", len(args), fn.NParams)
	}
	blockBase := -int32(g.spillCap*word) - selfBlock
	// Every argument is computed and pushed before any is stored: from
	// the second iteration on ARGS points at the block itself, so an
	// early store would overwrite a parameter a later argument reads.
	for _, arg := range args {
		r := scratch[0]
		if err := g.compile(arg, r, scratch[1:], fn, selfBlock); err != nil {
			return err
		}
		g.a.push(r)
	}
	for i := len(args) - 1; i >= 0; i-- {
		g.a.pop(scratch[0])
		g.a.storeMem(frameReg, int8(blockBase+int32(i*word)), scratch[0])
	}
	g.a.leaDisp8(argsReg, frameReg, int8(blockBase))
	at := g.a.jmpRel32()
	g.a.patchRel32(at, g.loopEntry)
	return nil
}

// compileCall emits a cross-function call: marshal args into a scratch
// stack block, save this function's own scratch registers and ARGS
// pointer around the call, invoke the callee, and restore — §4.4's
// "When emitted code issues a cross-function call, it saves live
// scratch registers by push/pop around the call and reconstructs its
// own ARGS pointer".
func (g *gen) compileCall(b *jit.Bite, dst reg, fn *jit.Function, selfBlock int32) error {
	if b.Target == nil {
		return xerrors.Errorf("jit/amd64: call bite missing target")
	}
	args := flattenList(b.Left)

	// rax is the callee's return register: never saved, its pre-call
	// value is dead the instant the call returns.
	saved := without(scratch[:], rax)
	for _, r := range saved {
		g.a.push(r)
	}
	g.a.push(reg(argsReg))

	// Push arguments highest-index first so arg 0 ends up at the
	// lowest address — [rsp+0] — matching ARGS+i*word with ARGS
	// pointed at rsp below.
	for i := len(args) - 1; i >= 0; i-- {
		r := scratch[0]
		if err := g.compile(args[i], r, scratch[1:], fn, selfBlock); err != nil {
			return err
		}
		g.a.push(r)
	}
	g.a.movRegReg(argsReg, reg(rsp))
	g.a.movImm64(rax, int64(b.Target.Entry))
	g.a.callReg(rax)
	if len(args) > 0 {
		g.a.addRspImm32(int32(len(args) * word))
	}
	g.a.pop(reg(argsReg))
	for i := len(saved) - 1; i >= 0; i-- {
		g.a.pop(saved[i])
	}
	if dst != rax {
		g.a.movRegReg(dst, rax)
	}
	return nil
}

// flattenList walks an OpList argument chain into an ordered slice.
func flattenList(b *jit.Bite) []*jit.Bite {
	var out []*jit.Bite
	for b != nil {
		out = append(out, b.Left)
		b = b.Right
	}
	return out
}
