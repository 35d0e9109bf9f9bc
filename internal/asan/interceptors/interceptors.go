package interceptors

import (
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/config"
	"github.com/kolkov/addrsanitizer/internal/asan/internals"
)

// Memcmp compares size bytes at a1 and a2.
//
// The comparison scans byte-by-byte regardless of validation settings: the
// scan is what produces the result. Validation covers exactly the prefix
// that was read: up to and including the first differing byte, or the
// whole range when the operands are equal.
func Memcmp(a1, a2 unsafe.Pointer, size uintptr) int {
	ensureInited()
	var c1, c2 byte
	var i uintptr
	for i = 0; i < size; i++ {
		c1 = internals.ByteAt(a1, i)
		c2 = internals.ByteAt(a2, i)
		if c1 != c2 {
			break
		}
	}
	readRange(a1, minSize(i+1, size))
	readRange(a2, minSize(i+1, size))
	return charCmp(c1, c2)
}

// Memcpy copies size bytes from from to to.
//
// memcpy runs during bootstrap from the internals of formatted output, so
// the wrapper forwards without validation while that window is open.
// to == from is explicitly not treated as an overlap bug: identical
// pointers are a legal no-op. The exemption does not extend to partial
// overlaps.
func Memcpy(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	if initRunning.Load() {
		return real.memcpy(to, from, size)
	}
	ensureInited()
	if config.Current().ReplaceIntrin {
		if to != from {
			checkRangesOverlap("memcpy", to, size, from, size)
		}
		writeRange(to, size)
		readRange(from, size)
	}
	return real.memcpy(to, from, size)
}

// Memmove copies size bytes from from to to. Overlap is permitted by
// memmove's contract, so only the ranges themselves are validated.
func Memmove(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	ensureInited()
	if config.Current().ReplaceIntrin {
		writeRange(to, size)
		readRange(from, size)
	}
	return real.memmove(to, from, size)
}

// Memset fills size bytes at block with c.
//
// memset is called inside interceptor activation on some platforms, hence
// the bootstrap bypass.
func Memset(block unsafe.Pointer, c byte, size uintptr) unsafe.Pointer {
	if initRunning.Load() {
		return real.memset(block, c, size)
	}
	ensureInited()
	if config.Current().ReplaceIntrin {
		writeRange(block, size)
	}
	return real.memset(block, c, size)
}

// Strchr returns a pointer to the first occurrence of c in the string at
// str. Validation covers the bytes the search actually examined: up to and
// including the match, or the whole string plus terminator when absent.
func Strchr(str unsafe.Pointer, c byte) unsafe.Pointer {
	return strchrCommon(real.strchr, str, c)
}

// Index is the index(3) entry point. Depending on registrar configuration
// it is either a pure alias of the strchr wrapper or an interception of
// its own original.
func Index(str unsafe.Pointer, c byte) unsafe.Pointer {
	forward := real.index
	if forward == nil {
		forward = real.strchr
	}
	return strchrCommon(forward, str, c)
}

func strchrCommon(forward func(unsafe.Pointer, byte) unsafe.Pointer, str unsafe.Pointer, c byte) unsafe.Pointer {
	ensureInited()
	result := forward(str, c)
	if config.Current().ReplaceStr {
		var bytesRead uintptr
		if result != nil {
			bytesRead = uintptr(result) - uintptr(str) + 1
		} else {
			bytesRead = real.strlen(str) + 1
		}
		readRange(str, bytesRead)
	}
	return result
}

// Strcasecmp compares two strings ignoring ASCII case.
func Strcasecmp(s1, s2 unsafe.Pointer) int {
	ensureInited()
	var c1, c2 byte
	var i uintptr
	for i = 0; ; i++ {
		c1 = internals.ByteAt(s1, i)
		c2 = internals.ByteAt(s2, i)
		if charCaseCmp(c1, c2) != 0 || c1 == 0 {
			break
		}
	}
	readRange(s1, i+1)
	readRange(s2, i+1)
	return charCaseCmp(c1, c2)
}

// Strcat appends the string at from to the string at to.
//
// With an empty source nothing is read or written beyond the source
// terminator, so validation of the destination is skipped entirely;
// flagging it would be a false positive.
func Strcat(to, from unsafe.Pointer) unsafe.Pointer {
	ensureInited()
	if config.Current().ReplaceStr {
		fromLength := real.strlen(from)
		readRange(from, fromLength+1)
		if fromLength > 0 {
			toLength := real.strlen(to)
			readRange(to, toLength)
			writeRange(unsafe.Add(to, toLength), fromLength+1)
			checkRangesOverlap("strcat", to, toLength+1, from, fromLength+1)
		}
	}
	return real.strcat(to, from)
}

// Strcmp compares two NUL-terminated strings. Before bootstrap has ever
// run it falls back to the internal scanner: the wrapper can be reached
// that early and must not trigger initialization from here.
func Strcmp(s1, s2 unsafe.Pointer) int {
	if !initDone.Load() {
		return internals.Strcmp(s1, s2)
	}
	var c1, c2 byte
	var i uintptr
	for i = 0; ; i++ {
		c1 = internals.ByteAt(s1, i)
		c2 = internals.ByteAt(s2, i)
		if c1 != c2 || c1 == 0 {
			break
		}
	}
	readRange(s1, i+1)
	readRange(s2, i+1)
	return charCmp(c1, c2)
}

// Strcpy copies the string at from, terminator included, to to.
//
// strcpy is called during bootstrap on some platforms while the system
// allocator is being replaced, hence the bypass.
func Strcpy(to, from unsafe.Pointer) unsafe.Pointer {
	if initRunning.Load() {
		return real.strcpy(to, from)
	}
	ensureInited()
	if config.Current().ReplaceStr {
		fromSize := real.strlen(from) + 1
		checkRangesOverlap("strcpy", to, fromSize, from, fromSize)
		readRange(from, fromSize)
		writeRange(to, fromSize)
	}
	return real.strcpy(to, from)
}

// Strdup returns a newly allocated copy of the string at s. The
// duplication itself is the original's job; the wrapper only validates the
// source read.
func Strdup(s unsafe.Pointer) unsafe.Pointer {
	ensureInited()
	if config.Current().ReplaceStr {
		length := real.strlen(s)
		readRange(s, length+1)
	}
	return real.strdup(s)
}

// Strlen returns the length of the string at s. The validated range
// includes the terminator: a string whose terminator byte is poisoned is
// an overrun waiting to happen and is reported as one.
func Strlen(s unsafe.Pointer) uintptr {
	if initRunning.Load() {
		return real.strlen(s)
	}
	ensureInited()
	length := real.strlen(s)
	if config.Current().ReplaceStr {
		readRange(s, length+1)
	}
	return length
}

// Strncasecmp compares at most n bytes of two strings ignoring ASCII case.
func Strncasecmp(s1, s2 unsafe.Pointer, n uintptr) int {
	ensureInited()
	var c1, c2 byte
	var i uintptr
	for i = 0; i < n; i++ {
		c1 = internals.ByteAt(s1, i)
		c2 = internals.ByteAt(s2, i)
		if charCaseCmp(c1, c2) != 0 || c1 == 0 {
			break
		}
	}
	readRange(s1, minSize(i+1, n))
	readRange(s2, minSize(i+1, n))
	return charCaseCmp(c1, c2)
}

// Strncmp compares at most size bytes of two strings. Forwards unvalidated
// during the bootstrap window (the system allocator replacement path calls
// it on some platforms).
func Strncmp(s1, s2 unsafe.Pointer, size uintptr) int {
	if initRunning.Load() {
		return real.strncmp(s1, s2, size)
	}
	ensureInited()
	var c1, c2 byte
	var i uintptr
	for i = 0; i < size; i++ {
		c1 = internals.ByteAt(s1, i)
		c2 = internals.ByteAt(s2, i)
		if c1 != c2 || c1 == 0 {
			break
		}
	}
	readRange(s1, minSize(i+1, size))
	readRange(s2, minSize(i+1, size))
	return charCmp(c1, c2)
}

// Strncpy copies exactly size bytes from the string at from to to,
// NUL-padding short sources. Only the portion actually copied from the
// source is validated as a read (the shorter of the bound and the
// source's length plus terminator), while the full destination window is
// validated as a write.
func Strncpy(to, from unsafe.Pointer, size uintptr) unsafe.Pointer {
	ensureInited()
	if config.Current().ReplaceStr {
		fromSize := minSize(size, internalStrnlen(from, size)+1)
		checkRangesOverlap("strncpy", to, fromSize, from, fromSize)
		readRange(from, fromSize)
		writeRange(to, size)
	}
	return real.strncpy(to, from, size)
}

// Strnlen returns the length of the string at s, scanning at most maxlen
// bytes. The validated read never extends past the bound.
func Strnlen(s unsafe.Pointer, maxlen uintptr) uintptr {
	ensureInited()
	length := internalStrnlen(s, maxlen)
	if config.Current().ReplaceStr {
		readRange(s, minSize(length+1, maxlen))
	}
	return length
}
