package interceptors

import (
	"testing"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/interception"
)

// countingUnwinder records HandleNoReturn invocations.
type countingUnwinder struct {
	calls int
}

func (u *countingUnwinder) HandleNoReturn() { u.calls++ }

// TestLongjmp tests that the unwind hook runs before the transfer.
func TestLongjmp(t *testing.T) {
	newTestEnv(t, "")
	u := &countingUnwinder{}
	SetUnwinder(u)

	var env int

	defer func() {
		r := recover()
		jt, ok := r.(*interception.JumpTarget)
		if !ok {
			t.Fatalf("recovered %T, want *interception.JumpTarget", r)
		}
		if jt.Env != unsafe.Pointer(&env) || jt.Val != 5 {
			t.Errorf("JumpTarget = {%v, %d}, want {&env, 5}", jt.Env, jt.Val)
		}
		// The hook must have fired before control left the wrapper.
		if u.calls != 1 {
			t.Errorf("unwind hook ran %d times before the jump, want 1", u.calls)
		}
	}()

	Longjmp(unsafe.Pointer(&env), 5)
	t.Fatal("Longjmp returned")
}

// TestBareLongjmp tests the mask-preserving variant.
func TestBareLongjmp(t *testing.T) {
	newTestEnv(t, "")
	u := &countingUnwinder{}
	SetUnwinder(u)

	var env int

	defer func() {
		if _, ok := recover().(*interception.JumpTarget); !ok {
			t.Fatal("expected a jump transfer")
		}
		if u.calls != 1 {
			t.Errorf("unwind hook ran %d times, want 1", u.calls)
		}
	}()

	BareLongjmp(unsafe.Pointer(&env), 1)
	t.Fatal("BareLongjmp returned")
}

// TestSiglongjmp tests the signal-mask-restoring variant where bound.
func TestSiglongjmp(t *testing.T) {
	newTestEnv(t, "intercept_siglongjmp=1")
	u := &countingUnwinder{}
	SetUnwinder(u)

	var env int

	defer func() {
		if _, ok := recover().(*interception.JumpTarget); !ok {
			t.Fatal("expected a jump transfer")
		}
		if u.calls != 1 {
			t.Errorf("unwind hook ran %d times, want 1", u.calls)
		}
	}()

	Siglongjmp(unsafe.Pointer(&env), 2)
	t.Fatal("Siglongjmp returned")
}

// TestThrow tests the exception-raise path.
func TestThrow(t *testing.T) {
	newTestEnv(t, "")
	u := &countingUnwinder{}
	SetUnwinder(u)

	payload := "boom"

	defer func() {
		r := recover()
		if r != payload {
			t.Fatalf("recovered %v, want the thrown payload", r)
		}
		if u.calls != 1 {
			t.Errorf("unwind hook ran %d times, want 1", u.calls)
		}
	}()

	Throw(payload)
	t.Fatal("Throw returned")
}

// TestSetUnwinderNil tests that nil restores the no-op default.
func TestSetUnwinderNil(t *testing.T) {
	newTestEnv(t, "")
	SetUnwinder(nil)

	var env int
	defer func() {
		if _, ok := recover().(*interception.JumpTarget); !ok {
			t.Fatal("expected a jump transfer")
		}
	}()

	Longjmp(unsafe.Pointer(&env), 1) // must not nil-panic in the hook
	t.Fatal("Longjmp returned")
}
