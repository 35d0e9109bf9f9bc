package allocator

import (
	"testing"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/shadow"
)

// TestAllocateReturnsAddressableBlock tests that the user region is
// writable and unpoisoned while the redzones on both sides are poisoned.
func TestAllocateReturnsAddressableBlock(t *testing.T) {
	m := shadow.NewRegionMap()
	h := NewHeapAllocator(m)

	const size = 32
	p := h.Allocate(size, 0x1)
	if p == nil {
		t.Fatal("Allocate returned nil")
	}
	user := uintptr(p)

	for i := uintptr(0); i < size; i++ {
		if m.IsPoisoned(user + i) {
			t.Fatalf("user byte %d is poisoned", i)
		}
	}
	for i := uintptr(1); i <= RedzoneSize; i++ {
		if !m.IsPoisoned(user - i) {
			t.Errorf("left redzone byte -%d is not poisoned", i)
		}
	}
	for i := uintptr(0); i < RedzoneSize; i++ {
		if !m.IsPoisoned(user + size + i) {
			t.Errorf("right redzone byte +%d is not poisoned", size+i)
		}
	}

	// The block is real memory.
	*(*byte)(p) = 0xaa
	if *(*byte)(p) != 0xaa {
		t.Error("block is not writable")
	}

	if h.LiveBlocks() != 1 {
		t.Errorf("LiveBlocks = %d, want 1", h.LiveBlocks())
	}
}

// TestZeroSizeAllocation tests the malloc(0) convention: distinct, valid
// pointers.
func TestZeroSizeAllocation(t *testing.T) {
	h := NewHeapAllocator(shadow.NewRegionMap())

	p1 := h.Allocate(0, 0)
	p2 := h.Allocate(0, 0)
	if p1 == nil || p2 == nil {
		t.Fatal("zero-size Allocate returned nil")
	}
	if p1 == p2 {
		t.Error("zero-size allocations share an address")
	}
}

// TestReleasePoisonsBody tests that a released block probes as invalid.
func TestReleasePoisonsBody(t *testing.T) {
	m := shadow.NewRegionMap()
	h := NewHeapAllocator(m)

	const size = 16
	p := h.Allocate(size, 0)
	user := uintptr(p)

	h.Release(p, 0x2)

	for i := uintptr(0); i < size; i++ {
		if !m.IsPoisoned(user + i) {
			t.Errorf("released byte %d is not poisoned", i)
		}
	}
	if h.LiveBlocks() != 0 {
		t.Errorf("LiveBlocks = %d after Release, want 0", h.LiveBlocks())
	}
}

// TestReleaseForeignPointer tests that unknown and nil pointers are
// ignored.
func TestReleaseForeignPointer(t *testing.T) {
	m := shadow.NewRegionMap()
	h := NewHeapAllocator(m)

	h.Release(nil, 0)

	var local byte
	h.Release(unsafe.Pointer(&local), 0)
	if m.IsPoisoned(uintptr(unsafe.Pointer(&local))) {
		t.Error("Release poisoned memory it does not own")
	}
}

// TestDoubleRelease tests that releasing twice is a no-op the second time.
func TestDoubleRelease(t *testing.T) {
	m := shadow.NewRegionMap()
	h := NewHeapAllocator(m)

	p := h.Allocate(8, 0)
	h.Release(p, 0)
	h.Release(p, 0) // must not panic or corrupt state

	if h.LiveBlocks() != 0 {
		t.Errorf("LiveBlocks = %d, want 0", h.LiveBlocks())
	}
}

// TestNilPoisoner tests the allocator without redzone tracking.
func TestNilPoisoner(t *testing.T) {
	h := NewHeapAllocator(nil)

	p := h.Allocate(8, 0)
	if p == nil {
		t.Fatal("Allocate returned nil")
	}
	h.Release(p, 0)
}

// TestManyAllocationsStayDisjoint tests that live user regions never
// overlap each other or each other's redzones.
func TestManyAllocationsStayDisjoint(t *testing.T) {
	m := shadow.NewRegionMap()
	h := NewHeapAllocator(m)

	type region struct{ lo, hi uintptr }
	var regions []region
	for i := 0; i < 50; i++ {
		p := h.Allocate(24, 0)
		lo := uintptr(p) - RedzoneSize
		hi := uintptr(p) + 24 + RedzoneSize
		for _, r := range regions {
			if lo < r.hi && r.lo < hi {
				t.Fatalf("allocation [%#x,%#x) overlaps [%#x,%#x)", lo, hi, r.lo, r.hi)
			}
		}
		regions = append(regions, region{lo, hi})
	}

	if h.LiveBlocks() != 50 {
		t.Errorf("LiveBlocks = %d, want 50", h.LiveBlocks())
	}
}
