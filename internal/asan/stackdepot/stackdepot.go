// Package stackdepot implements stack trace storage and deduplication for
// sanitizer reports.
//
// The depot is global storage for call stacks captured at allocation sites,
// thread creation sites and violation sites. Identical stacks are stored
// once and referenced by a 64-bit hash, so a thread descriptor or a heap
// block only carries 8 bytes of trace state.
//
// Design (sanitizer runtime approach):
//   - Fixed-size traces (16 frames)
//   - Hash-based deduplication (FNV-1a over program counters)
//   - Global sync.Map storage (lock-free reads)
//
// Usage:
//
//	// At the interesting site (malloc, pthread_create, ...):
//	hash := stackdepot.CaptureStack()
//
//	// Later, while building a diagnostic:
//	if st := stackdepot.GetStack(hash); st != nil {
//	    fmt.Print(st.FormatStack())
//	}
package stackdepot

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// MaxFrames is the maximum number of stack frames captured per trace.
// Allocation and violation stacks tend to be interesting well past the
// top of the stack, so this is deeper than a race-report trace needs.
const MaxFrames = 16

// StackTrace is a captured call stack with a fixed frame budget.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// stackDepot maps uint64 hash → *StackTrace.
//
// sync.Map gives lock-free reads; writes only happen for stacks never seen
// before, which is rare once the program reaches steady state.
var stackDepot sync.Map

// CaptureStack captures the caller's stack and returns its depot hash.
//
// If the identical stack was captured before, only the hash computation is
// paid and the existing entry is reused. A return of 0 means no stack was
// available, and GetStack(0) returns nil.
//
// Thread Safety: safe for concurrent calls.
func CaptureStack() uint64 {
	// Skip runtime.Callers itself and CaptureStack, so the trace starts
	// at the interceptor that asked for it.
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, exists := stackDepot.Load(hash); exists {
		return hash
	}

	trace := &StackTrace{PC: pcs}
	stackDepot.Store(hash, trace)
	return hash
}

// GetStack retrieves a stored stack trace by hash, or nil if unknown.
func GetStack(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	v, ok := stackDepot.Load(hash)
	if !ok {
		return nil
	}
	return v.(*StackTrace)
}

// hashStack computes the FNV-1a hash of a slice of program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // reading the PC value as bytes for hashing only
		pcBytes := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(pcBytes)
	}
	return h.Sum64()
}

// FormatStack renders the trace in the sanitizer report style:
//
//	  #0 main.overflow()
//	      /path/to/file.go:45
//	  #1 main.main()
//	      /path/to/file.go:30
//
// Runtime-internal frames are filtered out.
func (st *StackTrace) FormatStack() string {
	if st == nil {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(st.PC[:])

	var buf strings.Builder
	i := 0
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&buf, "  #%d %s()\n", i, frame.Function)
		fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		i++
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}

// Reset clears the depot. Test helper, not safe for concurrent use.
func Reset() {
	stackDepot = sync.Map{}
}

// Stats returns the number of unique stacks and their approximate memory
// footprint. O(N); not for hot paths.
func Stats() (uniqueStacks int, totalMemory int64) {
	stackDepot.Range(func(_, _ interface{}) bool {
		uniqueStacks++
		return true
	})
	// 128 bytes of PCs plus sync.Map entry overhead.
	const bytesPerStack = 128 + 32
	return uniqueStacks, int64(uniqueStacks) * bytesPerStack
}
