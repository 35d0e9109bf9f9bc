package interceptors

import (
	"runtime"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/report"
)

// accessAddress probes a single byte against the poison oracle. On a
// poisoned hit it reports the violation and terminates; access size is
// fixed at 1 because only the boundary byte was proven bad.
//
// Kept tiny so the compiler inlines it and violation stacks start at the
// wrapper, not inside validation plumbing.
//
//go:nosplit
func accessAddress(address uintptr, isWrite bool) {
	if Oracle().IsPoisoned(address) {
		report.Violation(callerPC(), 0, 0, address, isWrite, 1)
	}
}

// accessRange validates an address range with the boundary probe: the
// first and the last byte only. A more complex implementation is possible;
// checking the two boundary bytes catches the common overrun case without
// the cost of scanning every byte. A zero-size range performs no access
// and is always legal.
func accessRange(p unsafe.Pointer, size uintptr, isWrite bool) {
	if size > 0 {
		ptr := uintptr(p)
		accessAddress(ptr, isWrite)
		accessAddress(ptr+size-1, isWrite)
	}
}

func readRange(p unsafe.Pointer, size uintptr)  { accessRange(p, size, false) }
func writeRange(p unsafe.Pointer, size uintptr) { accessRange(p, size, true) }

// rangesOverlap reports whether [offset1, offset1+length1) and
// [offset2, offset2+length2) share at least one byte.
func rangesOverlap(offset1, length1, offset2, length2 uintptr) bool {
	return !(offset1+length1 <= offset2 || offset2+length2 <= offset1)
}

// checkRangesOverlap enforces the non-overlap constraint of copy-class
// routines. Behavior of memcpy, strcpy or strcat is undefined when their
// memory intervals overlap, so a detected overlap is always fatal: it
// emits the routine name, both ranges and the current stack, then
// terminates.
func checkRangesOverlap(name string, p1 unsafe.Pointer, length1 uintptr, p2 unsafe.Pointer, length2 uintptr) {
	if rangesOverlap(uintptr(p1), length1, uintptr(p2), length2) {
		report.Overlap(name, uintptr(p1), length1, uintptr(p2), length2)
	}
}

// callerPC returns the program counter of the frame that entered the
// validation path, for the violation report's location field.
func callerPC() uintptr {
	// Skip callerPC, accessAddress, accessRange and the readRange or
	// writeRange shim; frame 4 is the interceptor that took the access.
	pc, _, _, _ := runtime.Caller(4)
	return pc
}

func charCmp(c1, c2 byte) int {
	switch {
	case c1 == c2:
		return 0
	case c1 < c2:
		return -1
	default:
		return 1
	}
}

// toLower folds ASCII letters only. The case-insensitive compares are
// specified with a locale-independent fold.
func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func charCaseCmp(c1, c2 byte) int {
	return int(toLower(c1)) - int(toLower(c2))
}

func minSize(a, b uintptr) uintptr {
	if a < b {
		return a
	}
	return b
}
