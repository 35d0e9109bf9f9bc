// Package interceptors implements the sanitizer's libc interception layer.
//
// Every wrapper in this package follows one template: skip validation while
// the bootstrap sequence is running, otherwise make sure bootstrap has
// happened, validate the address ranges the routine is about to touch
// against the poison oracle, check the non-overlap constraint where the
// routine's contract forbids aliasing, and forward to the saved original.
// Wrappers observe; they never change an observable return value.
//
// Range validation is a boundary probe: the first and the last byte of a
// range are checked, which catches overruns past either end without paying
// for a full scan on hot paths. The compare routines are the exception:
// they must scan byte-by-byte anyway to produce the correct result, so they
// validate exactly the prefix they read.
//
// A detected violation is fatal. There is no error channel out of this
// package: continuing past a memory-safety violation is unsafe by
// definition, so every detection path ends in the report package, which
// terminates the process.
package interceptors
