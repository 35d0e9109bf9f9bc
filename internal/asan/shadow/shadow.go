package shadow

import "sync"

// Oracle answers byte-granular poison queries.
//
// Implementations must be safe for concurrent use: the interception layer
// calls IsPoisoned inline on every validated access, from arbitrarily many
// goroutines at once.
type Oracle interface {
	// IsPoisoned reports whether the byte at addr is marked invalid.
	IsPoisoned(addr uintptr) bool
}

// Poisoner is an Oracle whose poison state can be updated. Allocators use
// it to mark redzones and freed blocks, tests use it to stage scenarios.
type Poisoner interface {
	Oracle

	// Poison marks size bytes starting at addr as invalid to access.
	Poison(addr, size uintptr)

	// Unpoison marks size bytes starting at addr as valid to access.
	Unpoison(addr, size uintptr)
}

// Unwinder invalidates stack-region validity state before a non-local
// transfer abandons the frames that own it. See the longjmp and throw
// interceptors for the call sites.
type Unwinder interface {
	HandleNoReturn()
}

// NopUnwinder is an Unwinder that does nothing. It is the default until a
// host installs one that knows the real stack layout.
type NopUnwinder struct{}

// HandleNoReturn implements Unwinder.
func (NopUnwinder) HandleNoReturn() {}

const (
	// pageShift selects the bitmap page size (4 KiB, one bool per byte).
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

// RegionMap is the reference Poisoner: a lazily-populated page bitmap.
//
// Pages are allocated on first poison of any byte they cover and are never
// reclaimed. Addresses never poisoned are addressable by definition, which
// matches the semantics the wrappers expect from a freshly-started process.
type RegionMap struct {
	mu    sync.RWMutex
	pages map[uintptr]*[pageSize]bool
}

// NewRegionMap returns an empty RegionMap with no poisoned bytes.
func NewRegionMap() *RegionMap {
	return &RegionMap{pages: make(map[uintptr]*[pageSize]bool)}
}

// IsPoisoned reports whether the byte at addr has been poisoned.
func (m *RegionMap) IsPoisoned(addr uintptr) bool {
	m.mu.RLock()
	page := m.pages[addr>>pageShift]
	m.mu.RUnlock()
	if page == nil {
		return false
	}
	return page[addr&pageMask]
}

// Poison marks size bytes starting at addr as invalid.
func (m *RegionMap) Poison(addr, size uintptr) {
	m.set(addr, size, true)
}

// Unpoison marks size bytes starting at addr as valid.
func (m *RegionMap) Unpoison(addr, size uintptr) {
	m.set(addr, size, false)
}

func (m *RegionMap) set(addr, size uintptr, poisoned bool) {
	if size == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := uintptr(0); i < size; i++ {
		a := addr + i
		page := m.pages[a>>pageShift]
		if page == nil {
			if !poisoned {
				// Skip to the next page boundary: an absent page is
				// already fully unpoisoned.
				i += pageSize - 1 - (a & pageMask)
				continue
			}
			page = new([pageSize]bool)
			m.pages[a>>pageShift] = page
		}
		page[a&pageMask] = poisoned
	}
}

// Reset drops all poison state. Test helper.
func (m *RegionMap) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = make(map[uintptr]*[pageSize]bool)
}
