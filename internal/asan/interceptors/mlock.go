package interceptors

import (
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/report"
)

// Memory-lock interceptors.
//
// The sanitizer maps an address space far larger than physical memory can
// back, so honoring mlock requests is meaningless and liable to fail or
// hang. The whole family is replaced with an always-succeeds no-op; the
// first call logs an informational notice so nobody wonders where their
// locking went.

var mlockNoticePrinted atomic.Bool

func mlockIsUnsupported() {
	if mlockNoticePrinted.Swap(true) {
		return
	}
	report.Infof("INFO: AddressSanitizer ignores mlock/mlockall/munlock/munlockall")
}

// Mlock intercepts mlock(2). Always succeeds without locking anything.
func Mlock(addr unsafe.Pointer, length uintptr) int {
	_ = addr
	_ = length
	mlockIsUnsupported()
	return 0
}

// Munlock intercepts munlock(2).
func Munlock(addr unsafe.Pointer, length uintptr) int {
	_ = addr
	_ = length
	mlockIsUnsupported()
	return 0
}

// Mlockall intercepts mlockall(2).
func Mlockall(flags int) int {
	_ = flags
	mlockIsUnsupported()
	return 0
}

// Munlockall intercepts munlockall(2).
func Munlockall() int {
	mlockIsUnsupported()
	return 0
}
