// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jit

import (
	encbinary "encoding/binary"

	"golang.org/x/crypto/blake2b"

	"lisp/internal/value"
)

// hashBody computes the §4.4.x code-cache key: a content hash of the
// resolved-and-validated body, canonical enough that two lambdas with
// identical compiled semantics (e.g. the same function redefined
// verbatim) hash equal even though their heap addresses differ. self
// marks the lambda being compiled so its own self-reference occurrences
// hash to a fixed marker rather than an address.
func (c *Compiler) hashBody(params, self, body value.Value) [32]byte {
	buf := c.appendHashed(nil, params, self, body)
	return blake2b.Sum256(buf)
}

func (c *Compiler) appendHashed(buf []byte, params, self, v value.Value) []byte {
	arena := c.ip.Collector().Arena()

	switch {
	case v.IsNumber():
		var tmp [9]byte
		tmp[0] = 'N'
		encbinary.LittleEndian.PutUint64(tmp[1:], uint64(v.Int()))
		return append(buf, tmp[:]...)

	case v == value.Nil:
		return append(buf, 'n')

	case v == value.True:
		return append(buf, 't')

	case v.Tag() == value.TagSymbol:
		if isParam(arena, params, v) {
			return append(buf, 'P', byte(paramIndex(arena, params, v)))
		}
		buf = append(buf, 'S')
		buf = append(buf, c.ip.SymbolName(v)...)
		return append(buf, 0)

	case v.Tag() == value.TagBuiltin:
		name, _ := c.ip.BuiltinName(arena.BuiltinIndex(v.Addr()))
		buf = append(buf, 'B')
		buf = append(buf, name...)
		return append(buf, 0)

	case v.Tag() == value.TagLambda:
		if v == self {
			return append(buf, 'R') // recurse: stable regardless of address
		}
		buf = append(buf, 'F')
		if fn, ok := c.byAddr[v.Addr()]; ok {
			buf = append(buf, fn.Name...)
		}
		return append(buf, 0)

	case v.Tag() == value.TagCons:
		buf = append(buf, '(')
		buf = c.appendHashed(buf, params, self, arena.Car(v.Addr()))
		buf = c.appendHashed(buf, params, self, arena.Cdr(v.Addr()))
		return append(buf, ')')

	default:
		return append(buf, '?')
	}
}
