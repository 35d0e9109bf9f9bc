package interceptors

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/stackdepot"
	"github.com/kolkov/addrsanitizer/internal/asan/threadregistry"
)

// SpawnThread intercepts thread creation.
//
// A descriptor for the new thread is built and registered before the spawn
// primitive runs, and the original start routine is replaced with a
// trampoline that installs the descriptor as the current thread before any
// user code executes. This is what guarantees that every validated access
// on the new thread is attributable from its very first instruction.
func SpawnThread(start threadregistry.StartRoutine, arg unsafe.Pointer) int {
	ensureInited()
	trace := stackdepot.CaptureStack()
	parent := threadregistry.CurrentTIDOrSentinel()
	t := threadregistry.Create(parent, start, arg, trace)
	threadregistry.Register(t)
	return real.spawnThread(threadStart, unsafe.Pointer(t))
}

// threadStart is the trampoline substituted for the user start routine.
func threadStart(arg unsafe.Pointer) unsafe.Pointer {
	t := (*threadregistry.Thread)(arg)
	threadregistry.SetCurrent(t)
	return t.Run()
}
