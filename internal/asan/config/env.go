package config

import "os"

// FromEnv returns the defaults with GOASAN_OPTIONS applied on top.
// A malformed options string is returned as an error together with the
// untouched defaults so bootstrap can decide to proceed or die.
func FromEnv() (Flags, error) {
	return Parse(Defaults(), os.Getenv(EnvVar))
}
