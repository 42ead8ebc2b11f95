// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndLen(t *testing.T) {
	r := NewReporter()
	if n := r.Len(); n != 0 {
		t.Fatalf("Len() on a fresh Reporter = %d, want 0", n)
	}
	r.Record(Cycle{N: 1, BytesLive: 100, BytesFreed: 50, Occupancy: 60, Duration: time.Millisecond})
	r.Record(Cycle{N: 2, BytesLive: 120, BytesFreed: 30, Occupancy: 70, Grew: true})
	if n := r.Len(); n != 2 {
		t.Fatalf("Len() after two Records = %d, want 2", n)
	}
}

func TestBuildProducesOneSamplePerCycle(t *testing.T) {
	r := NewReporter()
	r.Record(Cycle{BytesLive: 10, BytesFreed: 5, Occupancy: 50})
	r.Record(Cycle{BytesLive: 20, BytesFreed: 8, Occupancy: 80, Grew: true})

	p := r.Build()
	if len(p.Sample) != 2 {
		t.Fatalf("Build().Sample has %d entries, want 2", len(p.Sample))
	}
	if len(p.SampleType) != 3 {
		t.Fatalf("Build().SampleType has %d entries, want 3", len(p.SampleType))
	}
	first := p.Sample[0]
	if first.Value[0] != 10 || first.Value[1] != 5 {
		t.Errorf("first sample values = %v, want [10 5 ...]", first.Value)
	}
	second := p.Sample[1]
	if len(second.Location) != 1 || second.Location[0].Line[0].Function.Name != "gc.Collect[grow]" {
		t.Errorf("grown-cycle sample did not attribute to the grow location")
	}
}

func TestWriteFileProducesNonEmptyOutput(t *testing.T) {
	r := NewReporter()
	r.Record(Cycle{BytesLive: 1, BytesFreed: 1, Occupancy: 1})

	path := filepath.Join(t.TempDir(), "gc.pprof")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile(%q) = %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %q: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatal("WriteFile produced an empty file")
	}
}
