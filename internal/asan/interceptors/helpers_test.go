package interceptors

import (
	"testing"
	"unsafe"

	"go.uber.org/zap"

	"github.com/kolkov/addrsanitizer/internal/asan/config"
	"github.com/kolkov/addrsanitizer/internal/asan/report"
	"github.com/kolkov/addrsanitizer/internal/asan/shadow"
)

// newTestEnv bootstraps the layer from a clean slate with a fresh oracle
// and a silent logger, and tears everything down when the test ends. opts
// is applied through the environment, exactly like a real run.
func newTestEnv(t *testing.T, opts string) *shadow.RegionMap {
	t.Helper()
	t.Setenv(config.EnvVar, opts)
	ResetForTesting()
	report.SetLogger(zap.NewNop())
	t.Cleanup(func() {
		ResetForTesting()
		report.SetLogger(nil)
	})

	m := shadow.NewRegionMap()
	SetOracle(m)
	Bootstrap()
	return m
}

// expectTermination asserts that fn triggers a fatal report with wantCode.
// The recording exit hook keeps the process alive; the Terminated panic is
// what preserves the never-returns contract under test.
func expectTermination(t *testing.T, wantCode int, fn func()) {
	t.Helper()
	var gotCode = -1
	prev := report.SetExitFunc(func(code int) { gotCode = code })
	defer report.SetExitFunc(prev)

	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected a fatal report, function returned normally")
		}
		term, ok := r.(report.Terminated)
		if !ok {
			panic(r)
		}
		if term.Code != wantCode {
			t.Errorf("terminated with code %d, want %d", term.Code, wantCode)
		}
		if gotCode != wantCode {
			t.Errorf("exit hook received %d, want %d", gotCode, wantCode)
		}
	}()
	fn()
}

// mustNotTerminate runs fn with an exit hook that fails the test if any
// fatal report fires.
func mustNotTerminate(t *testing.T, fn func()) {
	t.Helper()
	prev := report.SetExitFunc(func(code int) {
		t.Errorf("unexpected fatal report with code %d", code)
	})
	defer report.SetExitFunc(prev)

	defer func() {
		t.Helper()
		if r := recover(); r != nil {
			if _, ok := r.(report.Terminated); ok {
				t.Fatal("unexpected termination")
			}
			panic(r)
		}
	}()
	fn()
}

// cstring returns a NUL-terminated copy of s and a pointer to its first
// byte. The slice keeps the storage alive.
func cstring(s string) ([]byte, unsafe.Pointer) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, unsafe.Pointer(&buf[0])
}
