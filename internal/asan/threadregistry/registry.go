package threadregistry

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// NoTID is the sentinel returned by CurrentTIDOrSentinel when the calling
// thread was never registered (the main thread before Init, or a goroutine
// spawned behind the sanitizer's back).
const NoTID = ^uint32(0)

// StartRoutine is the user-supplied thread entry point.
type StartRoutine func(arg unsafe.Pointer) unsafe.Pointer

// Thread describes one sanitizer-visible thread.
//
// Descriptors are created by the thread-creation interceptor and owned by
// the registry; the interceptor only mediates creation-time registration.
type Thread struct {
	// TID is the sanitizer thread id, allocated sequentially.
	TID uint32

	// ParentTID identifies the creating thread, or NoTID if unknown.
	ParentTID uint32

	// CreationTrace is the stackdepot hash of the spawn call site.
	CreationTrace uint64

	start StartRoutine
	arg   unsafe.Pointer
}

// Run invokes the user start routine with its original argument.
// Called exactly once, from the spawn trampoline, after SetCurrent.
func (t *Thread) Run() unsafe.Pointer {
	return t.start(t.arg)
}

var (
	// nextTID allocates thread ids. The main thread takes 0 when it is
	// registered during bootstrap.
	nextTID atomic.Uint32

	// threads maps TID → *Thread for every registered descriptor.
	threads sync.Map

	// current maps goroutine id → *Thread. Written by SetCurrent on the
	// thread itself, read by CurrentTIDOrSentinel on the same thread, so
	// entries are effectively goroutine-local.
	current sync.Map
)

// Create builds a descriptor for a thread about to be spawned.
//
// The descriptor is not yet visible to lookups; call Register before the
// spawn primitive so the thread exists in the registry before any of its
// user code can run.
func Create(parentTID uint32, start StartRoutine, arg unsafe.Pointer, trace uint64) *Thread {
	return &Thread{
		TID:           nextTID.Add(1) - 1,
		ParentTID:     parentTID,
		CreationTrace: trace,
		start:         start,
		arg:           arg,
	}
}

// Register makes the descriptor visible to TID lookups.
func Register(t *Thread) {
	threads.Store(t.TID, t)
}

// Get returns the descriptor registered under tid, or nil.
func Get(tid uint32) *Thread {
	v, ok := threads.Load(tid)
	if !ok {
		return nil
	}
	return v.(*Thread)
}

// SetCurrent installs t as the calling goroutine's thread descriptor.
// The spawn trampoline calls this before the user start routine.
func SetCurrent(t *Thread) {
	current.Store(goroutineID(), t)
}

// Current returns the calling goroutine's descriptor, or nil if it was
// never set.
func Current() *Thread {
	v, ok := current.Load(goroutineID())
	if !ok {
		return nil
	}
	return v.(*Thread)
}

// CurrentTIDOrSentinel returns the calling thread's id, or NoTID when the
// thread is unknown to the registry.
func CurrentTIDOrSentinel() uint32 {
	t := Current()
	if t == nil {
		return NoTID
	}
	return t.TID
}

// Count returns the number of registered descriptors. O(N); tests only.
func Count() int {
	n := 0
	threads.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset clears all registry state and restarts id allocation.
// Test helper, not safe for concurrent use.
func Reset() {
	threads = sync.Map{}
	current = sync.Map{}
	nextTID.Store(0)
}
