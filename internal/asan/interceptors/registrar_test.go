package interceptors

import (
	"testing"

	"github.com/kolkov/addrsanitizer/internal/asan/interception"
)

// defaultTable returns the interposer installed by newTestEnv.
func defaultTable(t *testing.T) *interception.Table {
	t.Helper()
	collabMu.RLock()
	defer collabMu.RUnlock()
	tbl, ok := interposer.(*interception.Table)
	if !ok {
		t.Fatalf("interposer has type %T, want *interception.Table", interposer)
	}
	return tbl
}

// TestRegistrarActivatesWrappers tests that the activation list covers the
// full intercepted surface.
func TestRegistrarActivatesWrappers(t *testing.T) {
	newTestEnv(t, "")
	tbl := defaultTable(t)

	activated := []string{
		interception.SymMemcmp, interception.SymMemcpy, interception.SymMemmove,
		interception.SymMemset, interception.SymStrchr, interception.SymIndex,
		interception.SymStrcasecmp, interception.SymStrcat, interception.SymStrcmp,
		interception.SymStrcpy, interception.SymStrdup, interception.SymStrlen,
		interception.SymStrncasecmp, interception.SymStrncmp, interception.SymStrncpy,
		interception.SymSignal, interception.SymSigaction,
		interception.SymLongjmp, interception.SymUnderLongjmp,
		interception.SymCxaThrow, interception.SymThreadCreate,
		interception.SymMlock, interception.SymMunlock,
		interception.SymMlockall, interception.SymMunlockall,
		interception.SymAllocBlock, interception.SymAllocArray,
		interception.SymFreeBlock, interception.SymFreeArray,
	}
	for _, name := range activated {
		if tbl.Wrapper(name) == nil {
			t.Errorf("no wrapper activated for %q", name)
		}
	}
}

// TestRegistrarConditionalSlots tests the configuration-selected variants
// of the activation list.
func TestRegistrarConditionalSlots(t *testing.T) {
	t.Run("strnlen intercepted on demand", func(t *testing.T) {
		newTestEnv(t, "intercept_strnlen=1")
		if defaultTable(t).Wrapper(interception.SymStrnlen) == nil {
			t.Error("strnlen wrapper not activated")
		}
		if real.strnlen == nil {
			t.Error("strnlen original not saved")
		}
	})

	t.Run("strnlen skipped when disabled", func(t *testing.T) {
		newTestEnv(t, "intercept_strnlen=0")
		if defaultTable(t).Wrapper(interception.SymStrnlen) != nil {
			t.Error("strnlen wrapper activated despite intercept_strnlen=0")
		}
		if real.strnlen != nil {
			t.Error("strnlen original saved despite intercept_strnlen=0")
		}
	})

	t.Run("siglongjmp follows its flag", func(t *testing.T) {
		newTestEnv(t, "intercept_siglongjmp=0")
		if real.siglongjmp != nil {
			t.Error("siglongjmp bound despite intercept_siglongjmp=0")
		}
	})

	t.Run("index alias leaves no saved original", func(t *testing.T) {
		newTestEnv(t, "alias_index=1")
		if real.index != nil {
			t.Error("aliased index saved an original")
		}
	})

	t.Run("index interception saves an original", func(t *testing.T) {
		newTestEnv(t, "alias_index=0")
		if real.index == nil {
			t.Error("intercepted index has no saved original")
		}
	})

	t.Run("queue-dispatch slot bound at high verbosity only", func(t *testing.T) {
		newTestEnv(t, "verbosity=2")
		if defaultTable(t).Wrapper(interception.SymWorkqueue) == nil {
			t.Error("queue-dispatch wrapper not bound at verbosity 2")
		}

		newTestEnv(t, "verbosity=0")
		if defaultTable(t).Wrapper(interception.SymWorkqueue) != nil {
			t.Error("queue-dispatch wrapper bound at verbosity 0")
		}
	})
}
