// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"lisp/internal/gc"
)

// TestProgramsFromTxtarArchive runs each named Lisp program in
// testdata/programs.txtar and checks its final top-level value against
// the matching ".want" file — one archive holding many small,
// independently labeled fixtures instead of one _test.go table per
// program, the same shape cmd/go's own script-test fixtures take.
func TestProgramsFromTxtarArchive(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/programs.txtar")
	if err != nil {
		t.Fatalf("txtar.ParseFile: %v", err)
	}

	programs := make(map[string]string)
	wants := make(map[string]string)
	for _, f := range ar.Files {
		name := strings.TrimSuffix(f.Name, ".lisp")
		if strings.HasSuffix(f.Name, ".want") {
			wants[strings.TrimSuffix(f.Name, ".want")] = strings.TrimSpace(string(f.Data))
			continue
		}
		programs[name] = string(f.Data)
	}

	for name, src := range programs {
		want, ok := wants[name]
		if !ok {
			t.Errorf("%s: no matching .want fixture", name)
			continue
		}
		t.Run(name, func(t *testing.T) {
			ip := New(gc.New(1 << 20))
			got := ip.LoadFile(ip.GlobalEnv(), strings.NewReader(src))
			for _, e := range ip.Errors.Drain() {
				t.Errorf("unexpected error: %v", e)
			}
			if !got.IsNumber() {
				t.Fatalf("result = %v, want a number", got)
			}
			wantN, err := strconv.ParseInt(want, 10, 64)
			if err != nil {
				t.Fatalf("fixture .want %q is not an integer: %v", want, err)
			}
			if got.Int() != wantN {
				t.Errorf("%s = %d, want %d", name, got.Int(), wantN)
			}
		})
	}
}
