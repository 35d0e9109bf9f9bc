package asan_test

import (
	"sync"
	"testing"
	"unsafe"

	"go.uber.org/zap"

	"github.com/kolkov/addrsanitizer/asan"
	"github.com/kolkov/addrsanitizer/internal/asan/interceptors"
	"github.com/kolkov/addrsanitizer/internal/asan/report"
)

// setup brings the layer up from a clean slate and silences report output.
func setup(t *testing.T) {
	t.Helper()
	t.Setenv("GOASAN_OPTIONS", "")
	interceptors.ResetForTesting()
	report.SetLogger(zap.NewNop())
	t.Cleanup(func() {
		interceptors.ResetForTesting()
		report.SetLogger(nil)
	})
	asan.Init()
}

// expectViolation asserts fn dies with a violation report.
func expectViolation(t *testing.T, fn func()) {
	t.Helper()
	prev := report.SetExitFunc(func(int) {})
	defer report.SetExitFunc(prev)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a violation, function returned normally")
		} else if _, ok := r.(report.Terminated); !ok {
			panic(r)
		}
	}()
	fn()
}

// TestRoundTrip tests a benign sequence through the public surface.
func TestRoundTrip(t *testing.T) {
	setup(t)

	src := []byte("sanitize\x00")
	dst := make([]byte, 9)

	asan.Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), 9)
	if asan.Strcmp(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0])) != 0 {
		t.Error("copied string does not compare equal")
	}
	if got := asan.Strlen(unsafe.Pointer(&dst[0])); got != 8 {
		t.Errorf("Strlen = %d, want 8", got)
	}
	if asan.Strchr(unsafe.Pointer(&dst[0]), 'q') != nil {
		t.Error("Strchr found a byte that is not there")
	}
	if got := asan.Index(unsafe.Pointer(&dst[0]), 'n'); got != unsafe.Pointer(&dst[2]) {
		t.Errorf("Index = %p, want %p", got, unsafe.Pointer(&dst[2]))
	}
}

// TestTransferSurface tests the non-local jump exports, _longjmp included.
func TestTransferSurface(t *testing.T) {
	setup(t)

	jump := func(fn func(unsafe.Pointer, int)) (recovered any) {
		defer func() { recovered = recover() }()
		var env int
		fn(unsafe.Pointer(&env), 1)
		return nil
	}

	if jump(asan.Longjmp) == nil {
		t.Error("Longjmp did not transfer control")
	}
	if jump(asan.BareLongjmp) == nil {
		t.Error("BareLongjmp did not transfer control")
	}
}

// TestPoisonUnpoison tests the poison controls end to end.
func TestPoisonUnpoison(t *testing.T) {
	setup(t)

	buf := make([]byte, 16)
	p := unsafe.Pointer(&buf[0])

	asan.Poison(uintptr(p)+8, 8)
	expectViolation(t, func() { asan.Memset(p, 0, 16) })

	asan.Unpoison(uintptr(p)+8, 8)
	asan.Memset(p, 0x2f, 16)
	if buf[15] != 0x2f {
		t.Error("Memset skipped the unpoisoned tail")
	}
}

// TestAllocatorSurface tests heap blocks obtained through the facade.
func TestAllocatorSurface(t *testing.T) {
	setup(t)

	p := asan.AllocBlock(32)
	if p == nil {
		t.Fatal("AllocBlock returned nil")
	}
	asan.Memset(p, 0xab, 32)
	asan.FreeBlock(p)

	expectViolation(t, func() { asan.Memset(p, 0, 1) })
}

// TestSpawnThread tests thread interception through the facade.
func TestSpawnThread(t *testing.T) {
	setup(t)

	var wg sync.WaitGroup
	wg.Add(1)
	rc := asan.SpawnThread(func(arg unsafe.Pointer) unsafe.Pointer {
		defer wg.Done()
		return nil
	}, nil)
	wg.Wait()

	if rc != 0 {
		t.Errorf("SpawnThread = %d, want 0", rc)
	}
}

// TestMlockSurface tests the no-op lock family.
func TestMlockSurface(t *testing.T) {
	setup(t)

	var page [8]byte
	if asan.Mlock(unsafe.Pointer(&page[0]), 8) != 0 ||
		asan.Munlock(unsafe.Pointer(&page[0]), 8) != 0 ||
		asan.Mlockall(0) != 0 ||
		asan.Munlockall() != 0 {
		t.Error("lock family did not report success")
	}
}

// TestGetInfo tests runtime info reporting.
func TestGetInfo(t *testing.T) {
	setup(t)

	info := asan.GetInfo()
	if info.Version != asan.Version {
		t.Errorf("Version = %q, want %q", info.Version, asan.Version)
	}
	if info.Strategy == "" {
		t.Error("Strategy is empty")
	}
	if !info.Enabled {
		t.Error("Enabled = false after Init")
	}
}
