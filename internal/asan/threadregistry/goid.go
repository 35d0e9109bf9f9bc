// Copyright 2025 The addrsanitizer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Goroutine ID extraction.
//
// The registry keys "current thread" by goroutine id. Registration and
// lookup happen on thread creation and on violation reporting, neither of
// which is a hot path, so the universal runtime.Stack parsing approach is
// fast enough and works on every Go version and architecture.

package threadregistry

import "runtime"

// goroutineID returns the calling goroutine's id, or 0 if the stack header
// cannot be parsed (which does not happen with the current runtime).
func goroutineID() int64 {
	// Only the first line is needed: "goroutine 123 [running]:\n..."
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the numeric id from a runtime.Stack header.
//
// Direct byte parsing, no allocation beyond the caller's buffer.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
