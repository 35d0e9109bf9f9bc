// Package asan provides a Pure-Go AddressSanitizer interception layer
// without CGO dependency.
//
// This package is the public surface of a runtime memory-safety checker:
// a set of drop-in replacements for the standard memory-block and string
// routines that validate every access against a byte-granular poison
// oracle before delegating to the real implementation. It is the Go
// counterpart of the interception layer in compiler-rt's AddressSanitizer
// runtime.
//
// # Quick Start
//
//	package main
//
//	import (
//		"unsafe"
//
//		"github.com/kolkov/addrsanitizer/asan"
//	)
//
//	func main() {
//		asan.Init()
//
//		buf := make([]byte, 16)
//		p := unsafe.Pointer(&buf[0])
//
//		// Mark the last 8 bytes off limits, then overrun into them:
//		asan.Poison(uintptr(p)+8, 8)
//		asan.Memset(p, 0xff, 16) // reports and aborts here
//	}
//
// # How It Works
//
// A call to an intercepted entry point validates the address ranges the
// routine is about to touch: the first and the last byte of each range are
// probed against the poison oracle (compare routines validate the exact
// prefix they scanned instead). Routines whose contract forbids
// overlapping operands (memcpy, strcpy, strncpy, strcat) additionally
// reject aliasing arguments. A violation produces a diagnostic with the
// offending addresses and a stack trace, then terminates the process;
// there is no recoverable path past a detected memory-safety violation.
//
// Legal calls forward to the saved original routine and return its result
// unmodified, so interception is transparent to correct programs.
//
// # Options
//
// Runtime behavior is controlled by the GOASAN_OPTIONS environment
// variable, using the usual sanitizer syntax:
//
//	GOASAN_OPTIONS="replace_str=0:verbosity=1" ./app
//
// # Collaborators
//
// The poison oracle, allocator, unwind hook and function-replacement
// mechanism are pluggable. By default the layer is self-contained: a
// region-bitmap oracle, a Go-heap allocator with redzones, and pure-Go
// originals for every intercepted routine.
package asan
