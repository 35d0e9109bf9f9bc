package interceptors

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/report"
)

// Non-local transfer interceptors.
//
// A longjmp or a thrown exception abandons every frame between the jump
// and its target without running normal scope exits. Stack memory inside
// those frames keeps whatever validity markings it had, which would be
// stale the moment deeper calls reuse the region. The unwind hook
// invalidates that state before the transfer happens; forwarding first
// would lose the only chance to do it.

func handleNoReturn() {
	unwinder().HandleNoReturn()
}

// Longjmp intercepts longjmp(3).
func Longjmp(env unsafe.Pointer, val int) {
	ensureInited()
	handleNoReturn()
	real.longjmp(env, val)
}

// BareLongjmp intercepts _longjmp, the variant that leaves the signal
// mask alone.
func BareLongjmp(env unsafe.Pointer, val int) {
	ensureInited()
	handleNoReturn()
	real.barelongjmp(env, val)
}

// Siglongjmp intercepts siglongjmp(3). Not bound on platforms where
// siglongjmp tailcalls longjmp; see the registrar.
func Siglongjmp(env unsafe.Pointer, val int) {
	ensureInited()
	handleNoReturn()
	real.siglongjmp(env, val)
}

// Throw intercepts the exception-throw primitive.
func Throw(obj any) {
	ensureInited()
	report.Check(real.throw != nil, "throw intercepted without a saved original")
	handleNoReturn()
	real.throw(obj)
}
