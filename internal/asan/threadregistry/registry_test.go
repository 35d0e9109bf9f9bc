package threadregistry

import (
	"sync"
	"testing"
	"unsafe"
)

// TestCreateAllocatesSequentialTIDs tests thread id allocation.
func TestCreateAllocatesSequentialTIDs(t *testing.T) {
	Reset()

	t0 := Create(NoTID, nil, nil, 0)
	t1 := Create(t0.TID, nil, nil, 0)
	t2 := Create(t0.TID, nil, nil, 0)

	if t0.TID != 0 || t1.TID != 1 || t2.TID != 2 {
		t.Errorf("TIDs = %d, %d, %d, want 0, 1, 2", t0.TID, t1.TID, t2.TID)
	}
	if t1.ParentTID != 0 || t2.ParentTID != 0 {
		t.Errorf("ParentTIDs = %d, %d, want 0, 0", t1.ParentTID, t2.ParentTID)
	}
	if t0.ParentTID != NoTID {
		t.Errorf("main ParentTID = %d, want NoTID", t0.ParentTID)
	}
}

// TestRegisterGet tests descriptor visibility.
func TestRegisterGet(t *testing.T) {
	Reset()

	td := Create(NoTID, nil, nil, 0xabc)

	// Not visible until registered.
	if got := Get(td.TID); got != nil {
		t.Errorf("Get before Register = %v, want nil", got)
	}

	Register(td)

	got := Get(td.TID)
	if got != td {
		t.Fatalf("Get(%d) = %v, want the registered descriptor", td.TID, got)
	}
	if got.CreationTrace != 0xabc {
		t.Errorf("CreationTrace = %#x, want 0xabc", got.CreationTrace)
	}

	if Get(999) != nil {
		t.Error("Get(999) returned a descriptor for an unknown TID")
	}
}

// TestCurrentPerGoroutine tests that SetCurrent binds to the calling
// goroutine only.
func TestCurrentPerGoroutine(t *testing.T) {
	Reset()

	td := Create(NoTID, nil, nil, 0)
	Register(td)
	SetCurrent(td)

	if Current() != td {
		t.Fatal("Current() lost the descriptor set on this goroutine")
	}
	if got := CurrentTIDOrSentinel(); got != td.TID {
		t.Errorf("CurrentTIDOrSentinel = %d, want %d", got, td.TID)
	}

	// A different goroutine has no current descriptor.
	var wg sync.WaitGroup
	wg.Add(1)
	var otherTID uint32
	go func() {
		defer wg.Done()
		otherTID = CurrentTIDOrSentinel()
	}()
	wg.Wait()

	if otherTID != NoTID {
		t.Errorf("other goroutine CurrentTIDOrSentinel = %d, want NoTID", otherTID)
	}
}

// TestRunInvokesStartRoutine tests argument passthrough and return value.
func TestRunInvokesStartRoutine(t *testing.T) {
	Reset()

	arg := new(int)
	*arg = 42
	var gotArg unsafe.Pointer
	start := func(a unsafe.Pointer) unsafe.Pointer {
		gotArg = a
		return a
	}

	td := Create(NoTID, start, unsafe.Pointer(arg), 0)
	ret := td.Run()

	if gotArg != unsafe.Pointer(arg) {
		t.Error("start routine received a different argument")
	}
	if ret != unsafe.Pointer(arg) {
		t.Error("Run did not propagate the start routine's return value")
	}
}

// TestCount tests descriptor counting.
func TestCount(t *testing.T) {
	Reset()

	if Count() != 0 {
		t.Fatalf("Count = %d on fresh registry, want 0", Count())
	}

	for i := 0; i < 3; i++ {
		Register(Create(NoTID, nil, nil, 0))
	}
	if Count() != 3 {
		t.Errorf("Count = %d, want 3", Count())
	}
}

// TestReset tests that Reset restarts id allocation and drops state.
func TestReset(t *testing.T) {
	td := Create(NoTID, nil, nil, 0)
	Register(td)
	SetCurrent(td)

	Reset()

	if Count() != 0 {
		t.Errorf("Count = %d after Reset, want 0", Count())
	}
	if Current() != nil {
		t.Error("Current survived Reset")
	}
	if fresh := Create(NoTID, nil, nil, 0); fresh.TID != 0 {
		t.Errorf("first TID after Reset = %d, want 0", fresh.TID)
	}
}

// TestGoroutineIDStable tests that the id parser is stable within a
// goroutine and distinguishes goroutines.
func TestGoroutineIDStable(t *testing.T) {
	id1 := goroutineID()
	id2 := goroutineID()
	if id1 != id2 {
		t.Errorf("goroutineID unstable: %d != %d", id1, id2)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var other int64
	go func() {
		defer wg.Done()
		other = goroutineID()
	}()
	wg.Wait()

	if other == id1 {
		t.Error("two goroutines parsed the same id")
	}
	if other == 0 || id1 == 0 {
		t.Error("goroutineID returned zero")
	}
}

// TestParseGID tests the stack-header parser on canned input.
func TestParseGID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"typical header", "goroutine 123 [running]:\nmain.main()", 123},
		{"single digit", "goroutine 7 [running]:", 7},
		{"large id", "goroutine 18446744073 [running]:", 18446744073},
		{"missing prefix", "gor 12 [running]:", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseGID([]byte(tt.in)); got != tt.want {
				t.Errorf("parseGID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
