package asan

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/allocator"
	"github.com/kolkov/addrsanitizer/internal/asan/interception"
	"github.com/kolkov/addrsanitizer/internal/asan/interceptors"
	"github.com/kolkov/addrsanitizer/internal/asan/shadow"
	"github.com/kolkov/addrsanitizer/internal/asan/threadregistry"
)

// StartRoutine is the user-supplied entry point for SpawnThread.
type StartRoutine = threadregistry.StartRoutine

// Init runs the sanitizer's one-time bootstrap: loads options from
// GOASAN_OPTIONS, installs default collaborators where none were provided,
// and activates every interceptor. Safe to call multiple times; subsequent
// calls are no-ops.
//
// Call it at program startup, before the first intercepted routine runs
// with validation expectations. Intercepted routines called earlier
// trigger bootstrap themselves.
func Init() {
	interceptors.Bootstrap()
}

// SetOracle installs the poison oracle consulted by every validation.
// Must be called before Init to take effect for the whole run.
func SetOracle(o shadow.Oracle) {
	interceptors.SetOracle(o)
}

// SetUnwinder installs the stack-unwind hook called by the non-local
// transfer interceptors.
func SetUnwinder(u shadow.Unwinder) {
	interceptors.SetUnwinder(u)
}

// SetAllocator installs the block allocator behind AllocBlock and friends.
func SetAllocator(a allocator.Allocator) {
	interceptors.SetAllocator(a)
}

// SetInterposer installs the function-replacement mechanism. Hosts that
// can rebind real symbols provide one; the default is an in-memory table
// with pure-Go originals.
func SetInterposer(ip interception.Interposer) {
	interceptors.SetInterposer(ip)
}

// Poison marks size bytes starting at addr as invalid to access. No-op
// when the installed oracle is not a Poisoner.
func Poison(addr, size uintptr) {
	if p, ok := interceptors.Oracle().(shadow.Poisoner); ok {
		p.Poison(addr, size)
	}
}

// Unpoison marks size bytes starting at addr as valid to access. No-op
// when the installed oracle is not a Poisoner.
func Unpoison(addr, size uintptr) {
	if p, ok := interceptors.Oracle().(shadow.Poisoner); ok {
		p.Unpoison(addr, size)
	}
}

// Intercepted entry points. Each validates and forwards; see the package
// documentation for the validation contract.

// Memcmp compares size bytes at a1 and a2.
func Memcmp(a1, a2 unsafe.Pointer, size uintptr) int {
	return interceptors.Memcmp(a1, a2, size)
}

// Memcpy copies size bytes from from to to. Overlapping distinct ranges
// are a fatal aliasing violation; to == from is a legal no-op.
func Memcpy(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	return interceptors.Memcpy(to, from, size)
}

// Memmove copies size bytes from from to to; overlap is permitted.
func Memmove(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	return interceptors.Memmove(to, from, size)
}

// Memset fills size bytes at block with c.
func Memset(block unsafe.Pointer, c byte, size uintptr) unsafe.Pointer {
	return interceptors.Memset(block, c, size)
}

// Strchr returns a pointer to the first occurrence of c in the string at
// str, or nil.
func Strchr(str unsafe.Pointer, c byte) unsafe.Pointer {
	return interceptors.Strchr(str, c)
}

// Index is the historical BSD name for Strchr. Depending on configuration
// it is either a pure alias or a separately bound interception.
func Index(str unsafe.Pointer, c byte) unsafe.Pointer {
	return interceptors.Index(str, c)
}

// Strcasecmp compares two strings ignoring ASCII case.
func Strcasecmp(s1, s2 unsafe.Pointer) int {
	return interceptors.Strcasecmp(s1, s2)
}

// Strcat appends the string at from to the string at to.
func Strcat(to, from unsafe.Pointer) unsafe.Pointer {
	return interceptors.Strcat(to, from)
}

// Strcmp compares two NUL-terminated strings.
func Strcmp(s1, s2 unsafe.Pointer) int {
	return interceptors.Strcmp(s1, s2)
}

// Strcpy copies the string at from, terminator included, to to.
func Strcpy(to, from unsafe.Pointer) unsafe.Pointer {
	return interceptors.Strcpy(to, from)
}

// Strdup returns a newly allocated copy of the string at s.
func Strdup(s unsafe.Pointer) unsafe.Pointer {
	return interceptors.Strdup(s)
}

// Strlen returns the length of the string at s.
func Strlen(s unsafe.Pointer) uintptr {
	return interceptors.Strlen(s)
}

// Strncasecmp compares at most n bytes of two strings ignoring ASCII case.
func Strncasecmp(s1, s2 unsafe.Pointer, n uintptr) int {
	return interceptors.Strncasecmp(s1, s2, n)
}

// Strncmp compares at most size bytes of two strings.
func Strncmp(s1, s2 unsafe.Pointer, size uintptr) int {
	return interceptors.Strncmp(s1, s2, size)
}

// Strncpy copies exactly size bytes from the string at from to to,
// NUL-padding short sources.
func Strncpy(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	return interceptors.Strncpy(to, from, size)
}

// Strnlen returns the length of the string at s, scanning at most maxlen
// bytes.
func Strnlen(s unsafe.Pointer, maxlen uintptr) uintptr {
	return interceptors.Strnlen(s, maxlen)
}

// SpawnThread intercepts thread creation: the new thread is registered
// with the thread registry before any of its user code runs.
func SpawnThread(start StartRoutine, arg unsafe.Pointer) int {
	return interceptors.SpawnThread(start, arg)
}

// Longjmp performs a non-local jump after invalidating the stack validity
// state of the frames being abandoned.
func Longjmp(env unsafe.Pointer, val int) {
	interceptors.Longjmp(env, val)
}

// BareLongjmp is the _longjmp variant that leaves the signal mask alone.
func BareLongjmp(env unsafe.Pointer, val int) {
	interceptors.BareLongjmp(env, val)
}

// Siglongjmp is the signal-mask-restoring variant of Longjmp.
func Siglongjmp(env unsafe.Pointer, val int) {
	interceptors.Siglongjmp(env, val)
}

// Throw raises obj as an exception after invalidating abandoned stack
// state.
func Throw(obj any) {
	interceptors.Throw(obj)
}

// Signal registers a signal handler unless the signal is reserved for the
// sanitizer's own crash reporting.
func Signal(signum int, handler uintptr) uintptr {
	return interceptors.Signal(signum, handler)
}

// Sigaction registers a signal disposition unless the signal is reserved.
func Sigaction(signum int, act, oldact unsafe.Pointer) int {
	return interceptors.Sigaction(signum, act, oldact)
}

// Mlock and family always succeed without locking; see package docs.
func Mlock(addr unsafe.Pointer, length uintptr) int {
	return interceptors.Mlock(addr, length)
}

// Munlock always succeeds without unlocking anything.
func Munlock(addr unsafe.Pointer, length uintptr) int {
	return interceptors.Munlock(addr, length)
}

// Mlockall always succeeds without locking.
func Mlockall(flags int) int {
	return interceptors.Mlockall(flags)
}

// Munlockall always succeeds.
func Munlockall() int {
	return interceptors.Munlockall()
}

// AllocBlock allocates a block through the allocator collaborator.
func AllocBlock(size uintptr) unsafe.Pointer {
	return interceptors.AllocBlock(size)
}

// AllocArray allocates an array block through the allocator collaborator.
func AllocArray(size uintptr) unsafe.Pointer {
	return interceptors.AllocArray(size)
}

// FreeBlock releases a block obtained from AllocBlock.
func FreeBlock(p unsafe.Pointer) {
	interceptors.FreeBlock(p)
}

// FreeArray releases a block obtained from AllocArray.
func FreeArray(p unsafe.Pointer) {
	interceptors.FreeArray(p)
}
