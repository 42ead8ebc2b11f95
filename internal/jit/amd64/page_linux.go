// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amd64

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Page implements Backend.Page: mmap an anonymous RW page, copy code
// in, flip it to RX, and return the callable entry point plus a
// release func that munmaps it. §4.4 step 7 / §5's "Executable pages:
// allocated per compiled function via mmap, RW while being written,
// mprotected to RX before first use, freed at shutdown."
func Page(code []byte) (uintptr, func(), error) {
	if len(code) == 0 {
		return 0, nil, xerrors.Errorf("jit/amd64: empty code buffer")
	}
	size := pageRound(len(code))

	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, nil, xerrors.Errorf("jit/amd64: mmap: %w", err)
	}

	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return 0, nil, xerrors.Errorf("jit/amd64: mprotect RX: %w", err)
	}

	entry := uintptr(unsafe.Pointer(&mem[0]))
	free := func() {
		// Reclaiming RX memory requires no protection change first;
		// munmap works on any mapping regardless of its current
		// protection bits.
		_ = unix.Munmap(mem)
	}
	return entry, free, nil
}

// pageRound rounds n up to the host page size, the granularity mmap
// and mprotect both require.
func pageRound(n int) int {
	pageSize := unix.Getpagesize()
	return (n + pageSize - 1) &^ (pageSize - 1)
}
