// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"errors"
	"strconv"
	"testing"
)

func TestDrainReturnsInsertionOrderAndResets(t *testing.T) {
	var r Ring
	r.Record(New(KindParse, "first"))
	r.Record(New(KindType, "second"))
	r.Record(New(KindArity, "third"))

	if n := r.Len(); n != 3 {
		t.Fatalf("Len() = %d, want 3", n)
	}

	got := r.Drain()
	if len(got) != 3 {
		t.Fatalf("Drain() returned %d errors, want 3", len(got))
	}
	wantKinds := []Kind{KindParse, KindType, KindArity}
	for i, want := range wantKinds {
		var e *Error
		if !errors.As(got[i], &e) {
			t.Fatalf("Drain()[%d] is not a *Error: %v", i, got[i])
		}
		if e.Kind != want {
			t.Errorf("Drain()[%d].Kind = %v, want %v", i, e.Kind, want)
		}
	}

	if n := r.Len(); n != 0 {
		t.Fatalf("Len() after Drain() = %d, want 0", n)
	}
	if got := r.Drain(); len(got) != 0 {
		t.Fatalf("second Drain() returned %d errors, want 0", len(got))
	}
}

// TestRecordOverwritesOldestBeyondCapacity exercises §7's "beyond 16
// errors per form, the oldest are overwritten" rule.
func TestRecordOverwritesOldestBeyondCapacity(t *testing.T) {
	var r Ring
	for i := 0; i < Capacity+5; i++ {
		r.Record(New(KindIO, "error %d", i))
	}
	if n := r.Len(); n != Capacity {
		t.Fatalf("Len() after overflow = %d, want %d", n, Capacity)
	}

	got := r.Drain()
	if len(got) != Capacity {
		t.Fatalf("Drain() returned %d errors, want %d", len(got), Capacity)
	}
	// The surviving entries are the most recent Capacity writes: error 5
	// through error 20, in order.
	for i, err := range got {
		want := "io: error " + strconv.Itoa(i+5)
		if err.Error() != want {
			t.Errorf("Drain()[%d] = %q, want %q", i, err.Error(), want)
		}
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	e := New(KindUndefinedSymbol, "symbol %s unbound", "foo")
	if errors.Unwrap(e) == nil {
		t.Fatal("Unwrap() = nil, want the wrapped cause")
	}
}
