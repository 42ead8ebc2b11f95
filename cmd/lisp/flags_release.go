// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !debug

package main

// flagDebugStack/flagFullDebug exist only as registered flags in debug
// builds; a release build holds their permanent off values instead so
// the rest of main.go never has to branch on the build tag itself.
var (
	flagDebugStack = new(bool)
	flagFullDebug  = new(bool)
)
