// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import "lisp/internal/value"

// fold implements §4.4 step 4: repeatedly fold adjacent +/- chains
// whose operands are both literal number bites at compile time.
// Recurses post-order so a deeply nested chain like (+ (+ 1 2) 3)
// collapses fully in one pass.
func fold(b *Bite) *Bite {
	if b == nil {
		return nil
	}
	b.Left = fold(b.Left)
	b.Right = fold(b.Right)

	switch b.Op {
	case OpAdd:
		if l, lok := asConstNumber(b.Left); lok {
			if r, rok := asConstNumber(b.Right); rok {
				return constBite(value.Number(l + r))
			}
		}
	case OpSub:
		if l, lok := asConstNumber(b.Left); lok {
			if r, rok := asConstNumber(b.Right); rok {
				return constBite(value.Number(l - r))
			}
		}
	case OpNeg:
		if l, lok := asConstNumber(b.Left); lok {
			return constBite(value.Number(-l))
		}
	}
	return b
}

func asConstNumber(b *Bite) (int64, bool) {
	if b == nil || b.Op != OpConst || !b.Const.IsNumber() {
		return 0, false
	}
	return b.Const.Int(), true
}
