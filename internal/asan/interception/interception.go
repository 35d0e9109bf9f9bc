// Package interception models the function-replacement mechanism.
//
// The real mechanism (PLT rewriting, preloading, linker tricks) is a host
// concern. This package only captures the contract the interceptors need:
// activating a wrapper for a named symbol yields a callable original, and
// the saved originals form a table that is written once at registrar time
// and read concurrently, without locking, forever after.
//
// A Table pre-populated with pure-Go originals (see builtin.go) is the
// default Interposer, which makes the module self-contained: the wrappers
// validate and then forward to faithful Go reimplementations of the libc
// routines they shadow.
package interception

import (
	"sync"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/threadregistry"
)

// Typed entry points for every intercepted symbol. The registrar asserts
// originals against these types once, at bind time; after that the saved
// originals are called without further assertions.
type (
	// MemcmpFunc compares n bytes at two addresses.
	MemcmpFunc func(a1, a2 unsafe.Pointer, n uintptr) int
	// MemcpyFunc copies n bytes and returns the destination.
	MemcpyFunc func(to, from unsafe.Pointer, n uintptr) unsafe.Pointer
	// MemsetFunc fills n bytes with c and returns the destination.
	MemsetFunc func(block unsafe.Pointer, c byte, n uintptr) unsafe.Pointer
	// StrchrFunc finds the first c in the string at s.
	StrchrFunc func(s unsafe.Pointer, c byte) unsafe.Pointer
	// StrcmpFunc compares two NUL-terminated strings.
	StrcmpFunc func(s1, s2 unsafe.Pointer) int
	// StrncmpFunc compares at most n bytes of two strings.
	StrncmpFunc func(s1, s2 unsafe.Pointer, n uintptr) int
	// StrlenFunc returns the length of the string at s.
	StrlenFunc func(s unsafe.Pointer) uintptr
	// StrnlenFunc returns the length of the string at s, capped at n.
	StrnlenFunc func(s unsafe.Pointer, n uintptr) uintptr
	// StrcatFunc appends the string at from to the string at to.
	StrcatFunc func(to, from unsafe.Pointer) unsafe.Pointer
	// StrcpyFunc copies the string at from, terminator included, to to.
	StrcpyFunc func(to, from unsafe.Pointer) unsafe.Pointer
	// StrncpyFunc copies exactly n bytes, NUL-padding short sources.
	StrncpyFunc func(to, from unsafe.Pointer, n uintptr) unsafe.Pointer
	// StrdupFunc returns a newly allocated copy of the string at s.
	StrdupFunc func(s unsafe.Pointer) unsafe.Pointer
	// SpawnFunc starts a new thread running start(arg). Returns 0 on
	// success, matching the pthread_create convention.
	SpawnFunc func(start threadregistry.StartRoutine, arg unsafe.Pointer) int
	// LongjmpFunc performs a non-local transfer to env. Never returns.
	LongjmpFunc func(env unsafe.Pointer, val int)
	// ThrowFunc raises obj as an in-flight exception. Never returns.
	ThrowFunc func(obj any)
	// SignalFunc installs handler for signum, returning the previous
	// handler address.
	SignalFunc func(signum int, handler uintptr) uintptr
	// SigactionFunc installs act for signum, optionally storing the old
	// disposition. Returns 0 on success.
	SigactionFunc func(signum int, act, oldact unsafe.Pointer) int
)

// Intercepted symbol names. Wrappers are activated under these names and
// hosts provide originals under them.
const (
	SymMemcmp       = "memcmp"
	SymMemcpy       = "memcpy"
	SymMemmove      = "memmove"
	SymMemset       = "memset"
	SymStrchr       = "strchr"
	SymIndex        = "index"
	SymStrcasecmp   = "strcasecmp"
	SymStrcat       = "strcat"
	SymStrcmp       = "strcmp"
	SymStrcpy       = "strcpy"
	SymStrdup       = "strdup"
	SymStrlen       = "strlen"
	SymStrncasecmp  = "strncasecmp"
	SymStrncmp      = "strncmp"
	SymStrncpy      = "strncpy"
	SymStrnlen      = "strnlen"
	SymSignal       = "signal"
	SymSigaction    = "sigaction"
	SymLongjmp      = "longjmp"
	SymUnderLongjmp = "_longjmp"
	SymSiglongjmp   = "siglongjmp"
	SymCxaThrow     = "__cxa_throw"
	SymThreadCreate = "pthread_create"
	SymMlock        = "mlock"
	SymMunlock      = "munlock"
	SymMlockall     = "mlockall"
	SymMunlockall   = "munlockall"
	SymAllocBlock   = "operator new"
	SymAllocArray   = "operator new[]"
	SymFreeBlock    = "operator delete"
	SymFreeArray    = "operator delete[]"
	SymWorkqueue    = "pthread_workqueue_additem_np"
)

// Interposer is the capability the host's function-replacement mechanism
// provides to the registrar.
type Interposer interface {
	// Intercept activates wrapper for the named symbol and returns the
	// original entry point. ok is false when the symbol cannot be bound,
	// in which case wrapper is not activated.
	Intercept(name string, wrapper any) (original any, ok bool)

	// Override activates wrapper for the named symbol without requiring
	// an original (used for pure no-op replacements and aliases).
	Override(name string, wrapper any) bool
}

// Table is an Interposer backed by an in-memory symbol map.
//
// Provide and Intercept are serialized by a mutex, but both happen during
// the single-threaded startup phase; Original and Wrapper reads afterward
// take the same lock only to keep the race detector quiet on tests that
// re-bind.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	original any
	wrapper  any
}

// NewTable returns an empty Table with no originals.
func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Provide registers the original entry point for a symbol.
func (t *Table) Provide(name string, original any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[name]
	if e == nil {
		e = &entry{}
		t.entries[name] = e
	}
	e.original = original
}

// Intercept implements Interposer.
func (t *Table) Intercept(name string, wrapper any) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[name]
	if e == nil || e.original == nil {
		return nil, false
	}
	e.wrapper = wrapper
	return e.original, true
}

// Override implements Interposer.
func (t *Table) Override(name string, wrapper any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[name]
	if e == nil {
		e = &entry{}
		t.entries[name] = e
	}
	e.wrapper = wrapper
	return true
}

// Wrapper returns the wrapper activated for a symbol, or nil.
func (t *Table) Wrapper(name string) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.entries[name]; e != nil {
		return e.wrapper
	}
	return nil
}

// Original returns the original registered for a symbol, or nil.
func (t *Table) Original(name string) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.entries[name]; e != nil {
		return e.original
	}
	return nil
}
