package interceptors

import (
	"fmt"

	"github.com/kolkov/addrsanitizer/internal/asan/interception"
	"github.com/kolkov/addrsanitizer/internal/asan/internals"
	"unsafe"
)

// realRoutines is the saved original-symbol table. It is written exactly
// once, by installInterceptors during the single-threaded bootstrap phase,
// and read concurrently without locking by every wrapper afterwards.
//
// Only routines whose wrapper forwards have a slot. The compare wrappers
// compute their results by scanning directly, so they save nothing.
type realRoutines struct {
	memcpy      interception.MemcpyFunc
	memmove     interception.MemcpyFunc
	memset      interception.MemsetFunc
	strchr      interception.StrchrFunc
	index       interception.StrchrFunc
	strcat      interception.StrcatFunc
	strcpy      interception.StrcpyFunc
	strdup      interception.StrdupFunc
	strlen      interception.StrlenFunc
	strncmp     interception.StrncmpFunc
	strncpy     interception.StrncpyFunc
	strnlen     interception.StrnlenFunc
	signal      interception.SignalFunc
	sigaction   interception.SigactionFunc
	longjmp     interception.LongjmpFunc
	barelongjmp interception.LongjmpFunc
	siglongjmp  interception.LongjmpFunc
	throw       interception.ThrowFunc
	spawnThread interception.SpawnFunc
}

var real realRoutines

// bind activates wrapper for the named symbol and stores the typed
// original into dst. Failure to bind, or an original of the wrong type,
// is a registrar error.
func bind[T any](ip interception.Interposer, name string, wrapper any, dst *T) error {
	orig, ok := ip.Intercept(name, wrapper)
	if !ok {
		return fmt.Errorf("interceptors: cannot intercept %q", name)
	}
	fn, ok := orig.(T)
	if !ok {
		return fmt.Errorf("interceptors: original for %q has type %T, want %T", name, orig, *dst)
	}
	*dst = fn
	return nil
}

// internalStrnlen is the strnlen used inside other wrappers. It prefers
// the saved original when one was bound and falls back to the byte
// scanner, mirroring the original runtime's internal_strnlen.
func internalStrnlen(s unsafe.Pointer, maxlen uintptr) uintptr {
	if f := real.strnlen; f != nil {
		return f(s, maxlen)
	}
	return internals.Strnlen(s, maxlen)
}
