package internals

import "unsafe"

// ByteAt returns the byte stored at offset i from p.
//
// This is the single point where the package dereferences raw memory.
// Callers are responsible for ensuring the address is mapped; shadow
// validity is intentionally not consulted here.
//
//go:nosplit
func ByteAt(p unsafe.Pointer, i uintptr) byte {
	return *(*byte)(unsafe.Add(p, i))
}

// SetByteAt stores b at offset i from p.
//
//go:nosplit
func SetByteAt(p unsafe.Pointer, i uintptr, b byte) {
	*(*byte)(unsafe.Add(p, i)) = b
}

// Strlen returns the number of bytes before the NUL terminator at s.
func Strlen(s unsafe.Pointer) uintptr {
	var i uintptr
	for ByteAt(s, i) != 0 {
		i++
	}
	return i
}

// Strnlen returns the number of bytes before the NUL terminator at s,
// scanning at most maxlen bytes.
func Strnlen(s unsafe.Pointer, maxlen uintptr) uintptr {
	var i uintptr
	for i < maxlen && ByteAt(s, i) != 0 {
		i++
	}
	return i
}

// Memchr returns a pointer to the first occurrence of c in the first n
// bytes at s, or nil if c does not occur.
func Memchr(s unsafe.Pointer, c byte, n uintptr) unsafe.Pointer {
	for i := uintptr(0); i < n; i++ {
		if ByteAt(s, i) == c {
			return unsafe.Add(s, i)
		}
	}
	return nil
}

// Memcmp compares the first n bytes at s1 and s2.
// Returns -1, 0 or 1, byte values compared as unsigned.
func Memcmp(s1, s2 unsafe.Pointer, n uintptr) int {
	for i := uintptr(0); i < n; i++ {
		c1 := ByteAt(s1, i)
		c2 := ByteAt(s2, i)
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Strcmp compares the NUL-terminated strings at s1 and s2.
func Strcmp(s1, s2 unsafe.Pointer) int {
	var i uintptr
	for {
		c1 := ByteAt(s1, i)
		c2 := ByteAt(s2, i)
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
		if c1 == 0 {
			return 0
		}
		i++
	}
}

// Strstr returns a pointer to the first occurrence of the string at needle
// within the string at haystack, or nil if it does not occur.
//
// This is O(N^2), but it is not used in hot places.
func Strstr(haystack, needle unsafe.Pointer) unsafe.Pointer {
	len1 := Strlen(haystack)
	len2 := Strlen(needle)
	if len1 < len2 {
		return nil
	}
	for pos := uintptr(0); pos <= len1-len2; pos++ {
		if Memcmp(unsafe.Add(haystack, pos), needle, len2) == 0 {
			return unsafe.Add(haystack, pos)
		}
	}
	return nil
}

// Strncat appends at most n bytes of the string at src to the string at
// dst, then NUL-terminates the result. Returns dst.
func Strncat(dst, src unsafe.Pointer, n uintptr) unsafe.Pointer {
	length := Strlen(dst)
	var i uintptr
	for i = 0; i < n && ByteAt(src, i) != 0; i++ {
		SetByteAt(dst, length+i, ByteAt(src, i))
	}
	SetByteAt(dst, length+i, 0)
	return dst
}
