package interceptors

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/stackdepot"
)

// Allocation-operator interceptors.
//
// Heap bookkeeping lives in the allocator collaborator; these wrappers
// only capture the requesting call site and forward. The scalar and array
// forms are distinct symbols with identical bodies; hosts that diagnose
// new/delete mismatches need them kept apart.

// AllocBlock services the scalar allocation operator.
func AllocBlock(size uintptr) unsafe.Pointer {
	ensureInited()
	return alloc().Allocate(size, stackdepot.CaptureStack())
}

// AllocArray services the array allocation operator.
func AllocArray(size uintptr) unsafe.Pointer {
	ensureInited()
	return alloc().Allocate(size, stackdepot.CaptureStack())
}

// FreeBlock services the scalar release operator.
func FreeBlock(p unsafe.Pointer) {
	ensureInited()
	alloc().Release(p, stackdepot.CaptureStack())
}

// FreeArray services the array release operator.
func FreeArray(p unsafe.Pointer) {
	ensureInited()
	alloc().Release(p, stackdepot.CaptureStack())
}
