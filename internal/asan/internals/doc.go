// Package internals provides minimal byte-level reimplementations of the
// libc primitives the sanitizer itself depends on.
//
// The interception layer replaces memcpy, strlen, strcmp and friends with
// validating wrappers. The validation machinery, the reporting path and the
// bootstrap sequence all need those same primitives, so calling the wrapped
// versions from inside the sanitizer would recurse. Every routine in this
// package is a plain, dependency-free scan over raw memory that is safe to
// call at any point of the process lifetime, including before the sanitizer
// has finished initializing.
//
// None of these functions validate their arguments against shadow memory.
// They are deliberately naive: correctness and re-entrancy safety matter
// here, performance does not (they are never on an application hot path).
package internals
