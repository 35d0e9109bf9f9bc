//go:build unix

package interceptors

import "golang.org/x/sys/unix"

// Reserved crash-signal numbers, from the platform's own tables.
const (
	sigSegv = int(unix.SIGSEGV)
	sigBus  = int(unix.SIGBUS)
)
