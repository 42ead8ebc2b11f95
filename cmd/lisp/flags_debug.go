// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build debug

package main

import "flag"

var (
	flagDebugStack = flag.Bool("debugstack", false, "print a Go stack trace on a recovered internal panic")
	flagFullDebug  = flag.Bool("fulldebug", false, "dump disassembly after every successful compile")
)
