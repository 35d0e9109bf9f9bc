package interceptors

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/addrsanitizer/internal/asan/allocator"
	"github.com/kolkov/addrsanitizer/internal/asan/config"
	"github.com/kolkov/addrsanitizer/internal/asan/interception"
	"github.com/kolkov/addrsanitizer/internal/asan/report"
	"github.com/kolkov/addrsanitizer/internal/asan/shadow"
	"github.com/kolkov/addrsanitizer/internal/asan/threadregistry"
)

// Initialization gate.
//
// initRunning is true only inside the one-time bootstrap sequence;
// initDone becomes permanently true once bootstrap completes. The two are
// never both true. Wrappers that the bootstrap sequence itself calls
// (memcpy, memset, strcpy, strlen, strncmp) test initRunning and forward
// straight to the original during that window: validation needs the
// oracle, and building the oracle needs those very routines.
var (
	initRunning atomic.Bool
	initDone    atomic.Bool

	// bootMu serializes Bootstrap. The flags above are only observed as
	// consistent because every bootstrap path runs under this lock.
	bootMu sync.Mutex
)

// External collaborators, installed before or during Bootstrap.
var (
	collabMu   sync.RWMutex
	oracleImpl shadow.Oracle
	unwindImpl shadow.Unwinder = shadow.NopUnwinder{}
	allocImpl  allocator.Allocator
	interposer interception.Interposer
)

// SetOracle installs the poison oracle. Passing nil restores the default
// (a fresh RegionMap is built at next Bootstrap).
func SetOracle(o shadow.Oracle) {
	collabMu.Lock()
	defer collabMu.Unlock()
	oracleImpl = o
}

// Oracle returns the installed poison oracle.
func Oracle() shadow.Oracle {
	collabMu.RLock()
	defer collabMu.RUnlock()
	return oracleImpl
}

// SetUnwinder installs the stack-unwind hook used by the non-local
// transfer interceptors. nil restores the no-op default.
func SetUnwinder(u shadow.Unwinder) {
	collabMu.Lock()
	defer collabMu.Unlock()
	if u == nil {
		u = shadow.NopUnwinder{}
	}
	unwindImpl = u
}

func unwinder() shadow.Unwinder {
	collabMu.RLock()
	defer collabMu.RUnlock()
	return unwindImpl
}

// SetAllocator installs the block allocator behind the allocation
// operators.
func SetAllocator(a allocator.Allocator) {
	collabMu.Lock()
	defer collabMu.Unlock()
	allocImpl = a
}

func alloc() allocator.Allocator {
	collabMu.RLock()
	defer collabMu.RUnlock()
	return allocImpl
}

// SetInterposer installs the function-replacement mechanism the registrar
// binds wrappers through. nil selects the builtin table at Bootstrap.
func SetInterposer(ip interception.Interposer) {
	collabMu.Lock()
	defer collabMu.Unlock()
	interposer = ip
}

// ensureInited guarantees bootstrap has completed before validation runs.
//
// Being called while bootstrap is in progress is a logic defect in the
// sanitizer itself (a bootstrap-window wrapper forgot its bypass), never a
// user error, so it fails the assertion rather than recursing.
func ensureInited() {
	report.Check(!initRunning.Load(), "validation entered while bootstrap is running")
	if !initDone.Load() {
		Bootstrap()
	}
}

// Bootstrap runs the one-time initialization sequence: load configuration,
// install default collaborators where none were provided, bind every
// wrapper through the interposer, and register the calling thread as the
// main thread. Safe to call multiple times; later calls are no-ops.
func Bootstrap() {
	bootMu.Lock()
	defer bootMu.Unlock()
	if initDone.Load() {
		return
	}

	initRunning.Store(true)

	flags, err := config.FromEnv()
	report.Check(err == nil, "bad %s: %v", config.EnvVar, err)
	config.Set(flags)

	collabMu.Lock()
	if oracleImpl == nil {
		oracleImpl = shadow.NewRegionMap()
	}
	if allocImpl == nil {
		if p, ok := oracleImpl.(shadow.Poisoner); ok {
			allocImpl = allocator.NewHeapAllocator(p)
		} else {
			allocImpl = allocator.NewHeapAllocator(nil)
		}
	}
	if interposer == nil {
		interposer = interception.NewDefaultTable()
	}
	ip := interposer
	collabMu.Unlock()

	err = installInterceptors(ip, flags)
	report.Check(err == nil, "interceptor installation failed: %v", err)

	// The bootstrapping thread becomes thread 0 so accesses made before
	// any spawn are attributable.
	main := threadregistry.Create(threadregistry.NoTID, nil, nil, 0)
	threadregistry.Register(main)
	threadregistry.SetCurrent(main)

	initDone.Store(true)
	initRunning.Store(false)

	if flags.Verbosity > 0 {
		report.Infof("AddressSanitizer: libc interceptors initialized")
	}
}

// InitState reports the gate flags. Exposed for tests and the CLI's
// self-check; wrappers read the flags directly.
func InitState() (running, done bool) {
	return initRunning.Load(), initDone.Load()
}

// ResetForTesting tears the whole layer back down to its pre-Bootstrap
// state: gate flags, collaborators, saved originals, configuration, thread
// registry and the one-time mlock notice. Not safe for concurrent use;
// test setup/teardown only.
func ResetForTesting() {
	bootMu.Lock()
	defer bootMu.Unlock()

	initRunning.Store(false)
	initDone.Store(false)

	collabMu.Lock()
	oracleImpl = nil
	unwindImpl = shadow.NopUnwinder{}
	allocImpl = nil
	interposer = nil
	collabMu.Unlock()

	real = realRoutines{}
	mlockNoticePrinted.Store(false)
	config.Reset()
	threadregistry.Reset()
	interception.ResetBuiltinState()
}

// beginBootstrapWindowForTest flips the gate into the "bootstrap running"
// state so tests can exercise the bypass paths. The returned func restores
// the previous state.
func beginBootstrapWindowForTest() (restore func()) {
	prevRunning := initRunning.Load()
	prevDone := initDone.Load()
	initRunning.Store(true)
	initDone.Store(false)
	return func() {
		initRunning.Store(prevRunning)
		initDone.Store(prevDone)
	}
}
