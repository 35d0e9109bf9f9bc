// Package report produces sanitizer diagnostics and terminates the process.
//
// Every fatal path of the interception layer funnels through this package:
// boundary violations, parameter-overlap violations and internal assertion
// failures. A report is written through the package logger, the offending
// call stack is attached, and the process exits. None of the fatal entry
// points return normally.
//
// Tests substitute the exit hook with SetExitFunc and recover the Terminated
// panic value to observe that termination was requested without actually
// dying.
package report

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kolkov/addrsanitizer/internal/asan/stackdepot"
)

// Terminated is the panic payload raised after the exit hook returns.
//
// The default exit hook calls os.Exit and never comes back. When tests
// install a recording hook instead, the subsequent panic preserves the
// fatal contract: control never reaches the instruction after a detected
// violation.
type Terminated struct {
	Code int
}

func (t Terminated) Error() string {
	return fmt.Sprintf("addrsanitizer: terminated with exit code %d", t.Code)
}

var (
	mu     sync.Mutex
	exitFn = defaultExit
	logger = defaultLogger()
)

// SetExitFunc replaces the process-exit hook and returns the previous one.
// Test helper; production code never calls this.
func SetExitFunc(f func(code int)) (prev func(code int)) {
	mu.Lock()
	defer mu.Unlock()
	prev = exitFn
	exitFn = f
	return prev
}

// SetLogger replaces the package logger. A nil logger installs zap.NewNop.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Die flushes the logger and terminates the process with the given code.
// It never returns normally.
func Die(code int) {
	mu.Lock()
	exit := exitFn
	l := logger
	mu.Unlock()

	_ = l.Sync()
	exit(code)
	panic(Terminated{Code: code})
}

// Violation reports an invalid memory access and terminates the process.
//
// pc, fp and sp locate the faulting access; fp and sp may be zero when the
// caller cannot recover them (pure Go has no portable frame-pointer read).
// accessSize is 1 for boundary-probe hits.
//
// Never returns.
func Violation(pc, fp, sp, addr uintptr, isWrite bool, accessSize uintptr) {
	direction := "READ"
	if isWrite {
		direction = "WRITE"
	}
	trace := stackdepot.GetStack(stackdepot.CaptureStack())

	l := Logger()
	l.Error("AddressSanitizer: invalid memory access",
		zap.String("access", direction),
		zap.Uintptr("address", addr),
		zap.Uintptr("size", accessSize),
		zap.Uintptr("pc", pc),
		zap.Uintptr("fp", fp),
		zap.Uintptr("sp", sp),
	)
	l.Sugar().Errorf("ERROR: AddressSanitizer: %s of size %d at 0x%x\n%s",
		direction, accessSize, addr, trace.FormatStack())

	Die(1)
}

// Overlap reports a parameter-overlap violation in the named routine and
// terminates the process.
//
// The two ranges are printed as half-open intervals, matching the layout of
// the original runtime's %s-param-overlap diagnostic.
//
// Never returns.
func Overlap(name string, addr1, len1, addr2, len2 uintptr) {
	trace := stackdepot.GetStack(stackdepot.CaptureStack())

	Logger().Sugar().Errorf(
		"ERROR: AddressSanitizer: %s-param-overlap: memory ranges [0x%x,0x%x) and [0x%x,0x%x) overlap\n%s",
		name, addr1, addr1+len1, addr2, addr2+len2, trace.FormatStack())

	Die(1)
}

// Check asserts an internal invariant. On failure it reports an internal
// sanitizer defect and terminates; this is never a recoverable condition.
func Check(cond bool, format string, args ...any) {
	if cond {
		return
	}
	trace := stackdepot.GetStack(stackdepot.CaptureStack())
	Logger().Sugar().Errorf("AddressSanitizer CHECK failed: "+format+"\n%s",
		append(args, trace.FormatStack())...)
	Die(2)
}

// Infof emits an informational notice through the package logger.
func Infof(format string, args ...any) {
	Logger().Sugar().Infof(format, args...)
}
