// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !debug

package amd64

// Disassemble is nil in non-debug builds: Backend.Disassemble is only
// ever consulted when SetFullDebug(true) has also been set, which
// cmd/lisp only does when built with the debug tag.
var Disassemble func([]byte) []string
