package interceptors

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/config"
)

// Signal-registration interceptors.
//
// The sanitizer owns the crash signals it uses for fatal-error reporting.
// User code trying to install its own handler for one of those would
// silently lose the diagnostic output of the next wild access, so the
// registration is discarded: the caller gets a normal success return (no
// previous handler) and the sanitizer's handler stays installed. Anything
// else forwards unchanged.

// interceptsSignal reports whether signum is reserved by the sanitizer.
func interceptsSignal(signum int) bool {
	f := config.Current()
	if f.HandleSegv && signum == sigSegv {
		return true
	}
	if f.HandleSigbus && signum == sigBus {
		return true
	}
	return false
}

// Signal intercepts signal(3). Returns the previous handler, or 0 when the
// registration was swallowed.
func Signal(signum int, handler uintptr) uintptr {
	ensureInited()
	if !interceptsSignal(signum) {
		return real.signal(signum, handler)
	}
	return 0
}

// Sigaction intercepts sigaction(2). Returns 0 in both the forwarded and
// the swallowed case, as the caller expects.
func Sigaction(signum int, act, oldact unsafe.Pointer) int {
	ensureInited()
	if !interceptsSignal(signum) {
		return real.sigaction(signum, act, oldact)
	}
	return 0
}
