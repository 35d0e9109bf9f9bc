// Package shadow defines the poison oracle consumed by the interception
// layer, plus a reference in-memory implementation.
//
// The interception layer never decides how shadow memory is laid out. It
// only asks one question per probed byte: is this address poisoned? The
// Oracle interface captures exactly that contract, and Poisoner extends it
// with the writes performed by allocators and instrumentation.
//
// RegionMap is the reference implementation: a page-granular bitmap kept in
// ordinary Go maps. It is byte-exact and thread-safe but makes no attempt
// at the compact 1:8 shadow encoding the original runtime uses. Hosts with
// a real shadow mapping plug their own Oracle in at Init time.
package shadow
