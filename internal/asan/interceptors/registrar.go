package interceptors

import (
	"fmt"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/config"
	"github.com/kolkov/addrsanitizer/internal/asan/interception"
	"github.com/kolkov/addrsanitizer/internal/asan/report"
)

// installInterceptors activates every wrapper against the interposer, in a
// fixed order, and fills the saved-original table. Platform differences
// are configuration-selected variants of this activation list, never
// conditionals buried in shared wrapper logic.
//
// Runs exactly once, inside Bootstrap, on a single thread.
func installInterceptors(ip interception.Interposer, flags config.Flags) error {
	// index is either a pure alias of the strchr wrapper or an
	// interception with its own saved original.
	if flags.AliasIndex {
		if err := override(ip, interception.SymIndex, interception.StrchrFunc(Index)); err != nil {
			return err
		}
	} else {
		if err := bind(ip, interception.SymIndex, interception.StrchrFunc(Index), &real.index); err != nil {
			return err
		}
	}

	// The compare wrappers produce their results by scanning directly and
	// never forward, so they are pure overrides.
	if err := override(ip, interception.SymMemcmp, interception.MemcmpFunc(Memcmp)); err != nil {
		return err
	}
	if err := bind(ip, interception.SymMemmove, interception.MemcpyFunc(Memmove), &real.memmove); err != nil {
		return err
	}
	if err := bind(ip, interception.SymMemcpy, interception.MemcpyFunc(Memcpy), &real.memcpy); err != nil {
		return err
	}
	if err := bind(ip, interception.SymMemset, interception.MemsetFunc(Memset), &real.memset); err != nil {
		return err
	}
	if err := override(ip, interception.SymStrcasecmp, interception.StrcmpFunc(Strcasecmp)); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrcat, interception.StrcatFunc(Strcat), &real.strcat); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrchr, interception.StrchrFunc(Strchr), &real.strchr); err != nil {
		return err
	}
	if err := override(ip, interception.SymStrcmp, interception.StrcmpFunc(Strcmp)); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrcpy, interception.StrcpyFunc(Strcpy), &real.strcpy); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrdup, interception.StrdupFunc(Strdup), &real.strdup); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrlen, interception.StrlenFunc(Strlen), &real.strlen); err != nil {
		return err
	}
	if err := override(ip, interception.SymStrncasecmp, interception.StrncmpFunc(Strncasecmp)); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrncmp, interception.StrncmpFunc(Strncmp), &real.strncmp); err != nil {
		return err
	}
	if err := bind(ip, interception.SymStrncpy, interception.StrncpyFunc(Strncpy), &real.strncpy); err != nil {
		return err
	}

	if err := bind(ip, interception.SymSigaction, interception.SigactionFunc(Sigaction), &real.sigaction); err != nil {
		return err
	}
	if err := bind(ip, interception.SymSignal, interception.SignalFunc(Signal), &real.signal); err != nil {
		return err
	}

	if err := bind(ip, interception.SymLongjmp, interception.LongjmpFunc(Longjmp), &real.longjmp); err != nil {
		return err
	}
	if err := bind(ip, interception.SymUnderLongjmp, interception.LongjmpFunc(BareLongjmp), &real.barelongjmp); err != nil {
		return err
	}
	// The throw primitive is optional: not every host links an exception
	// runtime. Throw itself asserts on use without an original.
	if orig, ok := ip.Intercept(interception.SymCxaThrow, interception.ThrowFunc(Throw)); ok {
		fn, typeOK := orig.(interception.ThrowFunc)
		if !typeOK {
			return fmt.Errorf("interceptors: original for %q has type %T", interception.SymCxaThrow, orig)
		}
		real.throw = fn
	}
	if err := bind(ip, interception.SymThreadCreate, interception.SpawnFunc(SpawnThread), &real.spawnThread); err != nil {
		return err
	}

	if flags.InterceptSiglongjmp {
		if err := bind(ip, interception.SymSiglongjmp, interception.LongjmpFunc(Siglongjmp), &real.siglongjmp); err != nil {
			return err
		}
	}
	if flags.InterceptStrnlen {
		if err := bind(ip, interception.SymStrnlen, interception.StrnlenFunc(Strnlen), &real.strnlen); err != nil {
			return err
		}
	}

	// Debug-only slot: not needed for correctness, but worth having bound
	// when someone is chasing queue-dispatch behavior at high verbosity.
	if flags.Verbosity >= 2 {
		if err := override(ip, interception.SymWorkqueue, workqueueNotice); err != nil {
			return err
		}
	}

	// The lock family is replaced outright; there is nothing to forward to.
	if err := override(ip, interception.SymMlock, Mlock); err != nil {
		return err
	}
	if err := override(ip, interception.SymMunlock, Munlock); err != nil {
		return err
	}
	if err := override(ip, interception.SymMlockall, Mlockall); err != nil {
		return err
	}
	if err := override(ip, interception.SymMunlockall, Munlockall); err != nil {
		return err
	}

	// Allocation operators forward to the allocator collaborator, not to
	// a saved symbol.
	if err := override(ip, interception.SymAllocBlock, AllocBlock); err != nil {
		return err
	}
	if err := override(ip, interception.SymAllocArray, AllocArray); err != nil {
		return err
	}
	if err := override(ip, interception.SymFreeBlock, FreeBlock); err != nil {
		return err
	}
	if err := override(ip, interception.SymFreeArray, FreeArray); err != nil {
		return err
	}

	return nil
}

func override(ip interception.Interposer, name string, wrapper any) error {
	if !ip.Override(name, wrapper) {
		return fmt.Errorf("interceptors: cannot override %q", name)
	}
	return nil
}

// workqueueNotice is the verbose-mode stand-in for the queue-dispatch
// symbol: it only announces that the unsupported path was reached.
func workqueueNotice(queue, item unsafe.Pointer) int {
	report.Infof("AddressSanitizer: queue-dispatch call observed (queue=0x%x item=0x%x)",
		uintptr(queue), uintptr(item))
	return 0
}
