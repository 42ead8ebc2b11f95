// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"strconv"
	"strings"

	"lisp/internal/value"
)

// printValue renders v for the `print` primitive and the REPL's
// value banner. The printer proper is an external collaborator per
// §1; this is the minimal rendering the core's own `print` primitive
// needs and makes no claim to match any particular reader-printer
// round-trip format beyond what §6's surface syntax already implies.
// Print exposes printValue to callers outside the package (the REPL
// driver's value banner and -echo dump).
func (ip *Interp) Print(v value.Value) string { return ip.printValue(v) }

func (ip *Interp) printValue(v value.Value) string {
	var b strings.Builder
	ip.writeValue(&b, v)
	return b.String()
}

func (ip *Interp) writeValue(b *strings.Builder, v value.Value) {
	switch {
	case v.IsNumber():
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case v == value.Nil:
		b.WriteString("nil")
	case v == value.True:
		b.WriteString("t")
	case v == value.Undefined:
		b.WriteString("#undefined")
	case v == value.TailCall:
		b.WriteString("#tail-call")
	case v.Tag() == value.TagSymbol:
		b.WriteString(ip.symbolName(v))
	case v.Tag() == value.TagBuiltin:
		b.WriteString("#builtin")
	case v.Tag() == value.TagLambda:
		b.WriteString("#lambda")
	case v.Tag() == value.TagMacro:
		b.WriteString("#macro")
	case v.Tag() == value.TagCons:
		ip.writeList(b, v)
	default:
		b.WriteString("#?")
	}
}

func (ip *Interp) writeList(b *strings.Builder, v value.Value) {
	arena := ip.gc.Arena()
	b.WriteByte('(')
	first := true
	for v.Tag() == value.TagCons {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		ip.writeValue(b, arena.Car(v.Addr()))
		v = arena.Cdr(v.Addr())
	}
	if v != value.Nil {
		b.WriteString(" . ")
		ip.writeValue(b, v)
	}
	b.WriteByte(')')
}
