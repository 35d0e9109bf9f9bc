package report

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultExit terminates the process. Split out so tests can diff against
// the value returned by SetExitFunc.
func defaultExit(code int) {
	os.Exit(code)
}

// defaultLogger builds the stderr console logger used until a host installs
// its own. Diagnostics are human-facing crash output, so the development
// encoder is the right default.
func defaultLogger() *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "" // crash output, timestamps are noise
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}
