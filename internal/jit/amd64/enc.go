// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import "encoding/binary"

// asm accumulates emitted bytes for one function. Branch targets are
// backpatched directly in buf (patchRel32); the prologue's stack-slot
// reservation is sized by ggen.go before emission starts.
type asm struct {
	buf []byte
}

func (a *asm) byte(b byte)  { a.buf = append(a.buf, b) }
func (a *asm) bytes(bs ...byte) { a.buf = append(a.buf, bs...) }
func (a *asm) pos() int     { return len(a.buf) }

func (a *asm) imm32(n int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(n))
	a.buf = append(a.buf, tmp[:]...)
}

func (a *asm) imm64(n int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(n))
	a.buf = append(a.buf, tmp[:]...)
}

// rexW is the REX prefix with the W bit set, the one every 64-bit
// operation below needs; none of our registers exceed 3 bits so
// REX.R/X/B are never required.
const rexW = 0x48

func modrm(mod, regField, rm byte) byte { return mod<<6 | regField<<3 | rm }

// movImm64 emits `mov dst, imm64` (B8+r, REX.W).
func (a *asm) movImm64(dst reg, n int64) {
	a.byte(rexW)
	a.byte(0xB8 + byte(dst))
	a.imm64(n)
}

// movRegReg emits `mov dst, src` (89 /r, REX.W).
func (a *asm) movRegReg(dst, src reg) {
	a.byte(rexW)
	a.byte(0x89)
	a.byte(modrm(0b11, byte(src), byte(dst)))
}

// loadMem emits `mov dst, [base+disp8]` (8B /r, REX.W), disp8 only —
// every offset this backend uses (parameter slots, car/cdr fields,
// spill slots) fits a signed byte.
func (a *asm) loadMem(dst, base reg, disp int8) {
	a.byte(rexW)
	a.byte(0x8B)
	a.byte(modrm(0b01, byte(dst), byte(base)))
	a.byte(byte(disp))
}

// storeMem emits `mov [base+disp8], src` (89 /r, REX.W).
func (a *asm) storeMem(base reg, disp int8, src reg) {
	a.byte(rexW)
	a.byte(0x89)
	a.byte(modrm(0b01, byte(src), byte(base)))
	a.byte(byte(disp))
}

// add emits `add dst, src` (01 /r, REX.W) — dst += src, operating
// directly on tagged words: adding two numbers already shifted left
// by 2 produces the correctly-shifted sum (§3's Number encoding
// commutes with addition).
func (a *asm) add(dst, src reg) {
	a.byte(rexW)
	a.byte(0x01)
	a.byte(modrm(0b11, byte(src), byte(dst)))
}

// sub emits `sub dst, src` (29 /r, REX.W) — same commuting argument
// as add, for subtraction.
func (a *asm) sub(dst, src reg) {
	a.byte(rexW)
	a.byte(0x29)
	a.byte(modrm(0b11, byte(src), byte(dst)))
}

// neg emits `neg r` (F7 /3, REX.W) — negating a tagged number word
// directly negates its decoded value, same shift-commutes argument.
func (a *asm) neg(r reg) {
	a.byte(rexW)
	a.byte(0xF7)
	a.byte(modrm(0b11, 3, byte(r)))
}

// cmp emits `cmp a, b` (39 /r, REX.W), setting flags from a-b.
// Comparing tagged number words directly preserves order (and, for
// eq, preserves equality/pointer-identity for every other heap tag
// too), so less/eq never need to untag their operands.
func (a *asm) cmp(regA, regB reg) {
	a.byte(rexW)
	a.byte(0x39)
	a.byte(modrm(0b11, byte(regB), byte(regA)))
}

// setl/sete emit `setl al` / `sete al` (0F 9C/94, no REX needed since
// al is register 0 either way) into the low byte of r; callers zero r
// first, after the cmp, with movImm64, which leaves the flags intact.
func (a *asm) setl(r reg) {
	a.bytes(0x0F, 0x9C, modrm(0b11, 0, byte(r)))
}

func (a *asm) sete(r reg) {
	a.bytes(0x0F, 0x94, modrm(0b11, 0, byte(r)))
}

// xorSelf emits `xor r, r` (31 /r) — the conventional zero-register
// idiom. It clobbers the flags, so it cannot sit between a cmp and the
// setl/sete that reads them.
func (a *asm) xorSelf(r reg) {
	a.byte(rexW)
	a.byte(0x31)
	a.byte(modrm(0b11, byte(r), byte(r)))
}

// shlImm8 emits `shl r, imm8` (C1 /4 ib, REX.W).
func (a *asm) shlImm8(r reg, n uint8) {
	a.byte(rexW)
	a.byte(0xC1)
	a.byte(modrm(0b11, 4, byte(r)))
	a.byte(n)
}

// orImm8 emits `or r, imm8` (83 /1 ib, REX.W), sign-extended — only
// ever used here to OR in the 3-bit TagConst pattern.
func (a *asm) orImm8(r reg, n uint8) {
	a.byte(rexW)
	a.byte(0x83)
	a.byte(modrm(0b11, 1, byte(r)))
	a.byte(n)
}

// subRspImm32 / addRspImm32 emit `sub rsp, imm32` / `add rsp, imm32`
// (81 /5 id, /0 id) — the prologue/epilogue's stack-slot reservation,
// emitted with the frame size ggen.go's Emit computes before it
// generates the body.
func (a *asm) subRspImm32(n int32) {
	a.byte(rexW)
	a.byte(0x81)
	a.byte(modrm(0b11, 5, byte(rsp)))
	a.imm32(n)
}

func (a *asm) addRspImm32(n int32) {
	a.byte(rexW)
	a.byte(0x81)
	a.byte(modrm(0b11, 0, byte(rsp)))
	a.imm32(n)
}

// leaDisp8 emits `lea dst, [base+disp8]` (8D /r, REX.W) — used to
// repoint the ARGS register at a stack-relative argument-staging block
// without disturbing flags or clobbering base.
func (a *asm) leaDisp8(dst, base reg, disp int8) {
	a.byte(rexW)
	a.byte(0x8D)
	a.byte(modrm(0b01, byte(dst), byte(base)))
	a.byte(byte(disp))
}

func (a *asm) push(r reg) { a.byte(0x50 + byte(r)) }
func (a *asm) pop(r reg)  { a.byte(0x58 + byte(r)) }
func (a *asm) ret()       { a.byte(0xC3) }

// callReg emits `call r` (FF /2), an indirect call through the
// register holding a materialized callee entry pointer — the
// cross-function-call leg of §4.4 step 6.
func (a *asm) callReg(r reg) {
	a.byte(0xFF)
	a.byte(modrm(0b11, 2, byte(r)))
}

// jmpRel32 emits a near unconditional jump with a 4-byte relative
// displacement, written as a placeholder and patched once the target
// offset is known.
func (a *asm) jmpRel32() int {
	a.byte(0xE9)
	p := a.pos()
	a.imm32(0)
	return p
}

// condition codes for jccRel32, matching the 0F 8x encodings used.
type cc byte

const (
	ccEqual        cc = 0x84
	ccNotEqual     cc = 0x85
	ccGreaterEqual cc = 0x8D // jge: branch when the `a < b` cmp did NOT hold
)

// jccRel32 emits a near conditional jump with a 4-byte relative
// displacement placeholder, returning the offset to patch.
func (a *asm) jccRel32(c cc) int {
	a.byte(0x0F)
	a.byte(byte(c))
	p := a.pos()
	a.imm32(0)
	return p
}

// patchRel32 backpatches the 4-byte displacement at patchAt (the
// position immediately after the placeholder, i.e. what jmpRel32/
// jccRel32 returned) so the jump lands at target — both byte offsets
// into the same buffer.
func (a *asm) patchRel32(patchAt, target int) {
	rel := int32(target - (patchAt + 4))
	binary.LittleEndian.PutUint32(a.buf[patchAt:patchAt+4], uint32(rel))
}
