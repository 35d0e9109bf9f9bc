//go:build !unix

package interceptors

// Conventional POSIX numbers for platforms without a native table. The
// values only matter for the reservation check, not for delivery.
const (
	sigSegv = 11
	sigBus  = 7
)
