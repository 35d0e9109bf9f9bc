// Package threadregistry records live thread metadata for the sanitizer.
//
// Every thread spawned through the intercepted creation routine gets a
// Thread descriptor before any of its user code runs. The descriptor
// carries the creator's id, the user start routine and argument, and the
// depot hash of the creation stack, so a later violation on that thread can
// be attributed to where the thread came from.
//
// The registry identifies "the current thread" by goroutine id. The spawn
// trampoline calls SetCurrent on the new goroutine before invoking user
// code, which is what guarantees per-thread attribution of every validated
// access that follows.
package threadregistry
