// Package config holds the sanitizer's runtime flags.
//
// Flags come from three places, lowest to highest precedence: built-in
// platform defaults, a TOML options file (CLI runs), and the
// GOASAN_OPTIONS environment variable using the classic sanitizer
// "key=value:key=value" syntax:
//
//	GOASAN_OPTIONS="replace_str=0:verbosity=2" ./app
//
// The effective flags live in a process-global behind accessors so the
// interceptors can read them without plumbing, and so tests can substitute
// and restore them.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// EnvVar is the environment variable consulted by FromEnv.
const EnvVar = "GOASAN_OPTIONS"

// Flags is the full set of sanitizer options.
type Flags struct {
	// ReplaceIntrin enables validation inside the block intrinsics
	// (memcpy, memmove, memset).
	ReplaceIntrin bool `toml:"replace_intrin"`

	// ReplaceStr enables validation inside the string routines.
	ReplaceStr bool `toml:"replace_str"`

	// Verbosity controls informational output. 0 silences everything but
	// errors; 1 logs registrar milestones; 2 additionally activates the
	// verbose-only interception slots.
	Verbosity int `toml:"verbosity"`

	// HandleSegv reserves the segmentation-fault signal for the
	// sanitizer's own crash handler.
	HandleSegv bool `toml:"handle_segv"`

	// HandleSigbus additionally reserves the bus-error signal. Default on
	// Darwin, where wild accesses surface as SIGBUS.
	HandleSigbus bool `toml:"handle_sigbus"`

	// AliasIndex binds the index symbol to the strchr wrapper instead of
	// intercepting it separately. Default on Linux.
	AliasIndex bool `toml:"alias_index"`

	// InterceptSiglongjmp controls whether siglongjmp gets its own
	// wrapper. Off on Darwin, where siglongjmp tailcalls longjmp.
	InterceptSiglongjmp bool `toml:"intercept_siglongjmp"`

	// InterceptStrnlen controls whether strnlen is intercepted. Off on
	// platforms whose libc does not export it.
	InterceptStrnlen bool `toml:"intercept_strnlen"`
}

// Defaults returns the platform-conditioned default flags.
func Defaults() Flags {
	darwin := runtime.GOOS == "darwin"
	return Flags{
		ReplaceIntrin:       true,
		ReplaceStr:          true,
		Verbosity:           0,
		HandleSegv:          true,
		HandleSigbus:        darwin,
		AliasIndex:          !darwin,
		InterceptSiglongjmp: !darwin,
		InterceptStrnlen:    !darwin,
	}
}

var (
	mu      sync.RWMutex
	current = Defaults()
)

// Current returns the effective flags.
func Current() Flags {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set installs f as the effective flags.
func Set(f Flags) {
	mu.Lock()
	defer mu.Unlock()
	current = f
}

// Reset restores the platform defaults. Test helper.
func Reset() {
	Set(Defaults())
}

// Parse applies a sanitizer options string ("k=v:k=v") on top of base.
// Unknown keys are an error; sanitizer options are too easy to typo
// silently otherwise.
func Parse(base Flags, opts string) (Flags, error) {
	f := base
	if opts == "" {
		return f, nil
	}
	for _, kv := range strings.Split(opts, ":") {
		if kv == "" {
			continue
		}
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return base, fmt.Errorf("config: malformed option %q (want key=value)", kv)
		}
		if err := apply(&f, key, val); err != nil {
			return base, err
		}
	}
	return f, nil
}

func apply(f *Flags, key, val string) error {
	switch key {
	case "replace_intrin":
		return parseBool(&f.ReplaceIntrin, key, val)
	case "replace_str":
		return parseBool(&f.ReplaceStr, key, val)
	case "verbosity":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("config: %s: %q is not an integer", key, val)
		}
		f.Verbosity = n
		return nil
	case "handle_segv":
		return parseBool(&f.HandleSegv, key, val)
	case "handle_sigbus":
		return parseBool(&f.HandleSigbus, key, val)
	case "alias_index":
		return parseBool(&f.AliasIndex, key, val)
	case "intercept_siglongjmp":
		return parseBool(&f.InterceptSiglongjmp, key, val)
	case "intercept_strnlen":
		return parseBool(&f.InterceptStrnlen, key, val)
	default:
		return fmt.Errorf("config: unknown option %q", key)
	}
}

func parseBool(dst *bool, key, val string) error {
	switch val {
	case "1", "true":
		*dst = true
	case "0", "false":
		*dst = false
	default:
		return fmt.Errorf("config: %s: %q is not a boolean (want 0/1)", key, val)
	}
	return nil
}

// LoadFile reads a TOML options file on top of base. Keys absent from the
// file keep their base values.
func LoadFile(base Flags, path string) (Flags, error) {
	f := base
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return base, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}
