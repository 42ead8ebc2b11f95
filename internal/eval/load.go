// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"io"

	"lisp/internal/diag"
	"lisp/internal/reader"
	"lisp/internal/value"
)

// LoadFile reads and evaluates every top-level form in r against
// scope, in order, returning the last value produced — the shared
// implementation behind the `load` primitive and, via cmd/lisp, the
// files named as the driver's command-line arguments. scope and last
// are tracked as roots: each Read allocates, and a collection there
// would otherwise leave them pointing into the old semi-space.
func (ip *Interp) LoadFile(scope value.Value, r io.Reader) value.Value {
	rd := reader.New(r, ip)
	last := value.Nil
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&last)
	for {
		expr, err := rd.Read()
		if err == io.EOF {
			return last
		}
		if err != nil {
			ip.errorf(diag.KindParse, "%v", err)
			return last
		}
		last = ip.Eval(scope, expr)
	}
}
