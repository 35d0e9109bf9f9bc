// Package allocator defines the block allocator consumed by the intercepted
// allocation operators, plus a Go-heap reference implementation.
//
// The interception layer does no heap bookkeeping of its own: the operator
// wrappers capture a stack trace and forward here. Hosts that own a real
// allocator (with redzones laid out in actual shadow memory) plug it in at
// Init time; the reference HeapAllocator exists so the module is complete
// and testable on its own.
package allocator

import (
	"sync"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/shadow"
)

// Allocator services block creation and release requests from the
// intercepted allocation operators.
type Allocator interface {
	// Allocate returns a pointer to size addressable bytes. trace is the
	// depot hash of the requesting call site.
	Allocate(size uintptr, trace uint64) unsafe.Pointer

	// Release returns a previously allocated block. Releasing a pointer
	// the allocator does not own is ignored (the host allocator is the
	// one that diagnoses invalid frees).
	Release(p unsafe.Pointer, trace uint64)
}

// HeapAllocator is the reference Allocator: blocks come from the Go heap
// and are pinned in a live map until released.
//
// When constructed with a Poisoner it maintains redzones: RedzoneSize
// poisoned bytes on each side of every block, and the block body itself is
// poisoned again on release. That is what turns an off-by-one past a block
// boundary, or a use after release, into a boundary violation.
type HeapAllocator struct {
	mu      sync.Mutex
	live    map[uintptr]allocation
	poison  shadow.Poisoner
	redzone uintptr

	// quarantine pins released buffers. Without it the Go heap could hand
	// a still-poisoned address range to an unrelated allocation.
	quarantine []allocation
}

type allocation struct {
	buf   []byte
	size  uintptr
	trace uint64
}

// RedzoneSize is the default padding placed on both sides of a block.
const RedzoneSize = 16

// NewHeapAllocator returns a HeapAllocator. poison may be nil, in which
// case no redzone state is maintained.
func NewHeapAllocator(poison shadow.Poisoner) *HeapAllocator {
	return &HeapAllocator{
		live:    make(map[uintptr]allocation),
		poison:  poison,
		redzone: RedzoneSize,
	}
}

// Allocate implements Allocator.
func (h *HeapAllocator) Allocate(size uintptr, trace uint64) unsafe.Pointer {
	// Zero-size requests still need a unique pointer, same as malloc(0).
	n := size
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n+2*h.redzone)
	base := uintptr(unsafe.Pointer(&buf[0]))
	user := base + h.redzone

	if h.poison != nil {
		h.poison.Poison(base, h.redzone)
		h.poison.Unpoison(user, n)
		h.poison.Poison(user+n, h.redzone)
	}

	h.mu.Lock()
	h.live[user] = allocation{buf: buf, size: n, trace: trace}
	h.mu.Unlock()

	//nolint:gosec // the buffer is pinned by the live map for the block's lifetime
	return unsafe.Pointer(user)
}

// Release implements Allocator.
func (h *HeapAllocator) Release(p unsafe.Pointer, trace uint64) {
	if p == nil {
		return
	}
	user := uintptr(p)

	h.mu.Lock()
	a, ok := h.live[user]
	if ok {
		delete(h.live, user)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	if h.poison != nil {
		// Poison the body so a use-after-release probes as invalid.
		h.poison.Poison(user, a.size)
	}

	a.trace = trace
	h.mu.Lock()
	h.quarantine = append(h.quarantine, a)
	h.mu.Unlock()
}

// LiveBlocks returns the number of outstanding allocations. Tests only.
func (h *HeapAllocator) LiveBlocks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
