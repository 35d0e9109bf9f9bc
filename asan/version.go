package asan

import "github.com/kolkov/addrsanitizer/internal/asan/interceptors"

// Version information for the Pure-Go Address Sanitizer.
const (
	// Version is the current version of the sanitizer runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the sanitizer.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Strategy names the validation approach.
	Strategy string

	// Enabled indicates whether interception is active.
	Enabled bool
}

// GetInfo returns information about the sanitizer runtime.
//
// Example:
//
//	info := asan.GetInfo()
//	fmt.Printf("AddressSanitizer %s (%s)\n", info.Version, info.Strategy)
func GetInfo() Info {
	_, done := interceptors.InitState()
	return Info{
		Version:  Version,
		Strategy: "boundary-probe shadow validation",
		Enabled:  done,
	}
}
