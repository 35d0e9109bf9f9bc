package interception

import (
	"sync"
	"unsafe"

	"github.com/kolkov/addrsanitizer/internal/asan/internals"
	"github.com/kolkov/addrsanitizer/internal/asan/threadregistry"
)

// JumpTarget is the panic payload raised by the builtin longjmp family.
//
// Go has no true longjmp; the builtin original models the transfer as a
// panic carrying the jump environment, which a host-side recover at the
// setjmp point turns back into control flow. Hosts with a real unwinder
// provide their own original and never see this type.
type JumpTarget struct {
	Env unsafe.Pointer
	Val int
}

func (j *JumpTarget) Error() string { return "addrsanitizer: non-local jump" }

// builtinSignals records handler addresses installed through the builtin
// signal/sigaction originals.
var builtinSignals struct {
	mu       sync.Mutex
	handlers map[int]uintptr
}

// strdupPins keeps builtin strdup results reachable so the Go collector
// does not recycle them while raw pointers are outstanding.
var strdupPins struct {
	mu   sync.Mutex
	bufs [][]byte
}

// NewDefaultTable returns a Table providing pure-Go originals for every
// intercepted symbol that has one. The mlock family and the allocation
// operators have no originals here: the former are replaced by no-ops, the
// latter forward to the allocator collaborator instead of a saved symbol.
func NewDefaultTable() *Table {
	t := NewTable()

	t.Provide(SymMemcmp, MemcmpFunc(internals.Memcmp))
	t.Provide(SymMemcpy, MemcpyFunc(builtinMemcpy))
	t.Provide(SymMemmove, MemcpyFunc(builtinMemmove))
	t.Provide(SymMemset, MemsetFunc(builtinMemset))
	t.Provide(SymStrchr, StrchrFunc(builtinStrchr))
	t.Provide(SymIndex, StrchrFunc(builtinStrchr))
	t.Provide(SymStrcat, StrcatFunc(builtinStrcat))
	t.Provide(SymStrcmp, StrcmpFunc(internals.Strcmp))
	t.Provide(SymStrcpy, StrcpyFunc(builtinStrcpy))
	t.Provide(SymStrdup, StrdupFunc(builtinStrdup))
	t.Provide(SymStrlen, StrlenFunc(internals.Strlen))
	t.Provide(SymStrncmp, StrncmpFunc(builtinStrncmp))
	t.Provide(SymStrncpy, StrncpyFunc(builtinStrncpy))
	t.Provide(SymStrnlen, StrnlenFunc(internals.Strnlen))
	t.Provide(SymSignal, SignalFunc(builtinSignal))
	t.Provide(SymSigaction, SigactionFunc(builtinSigaction))
	t.Provide(SymLongjmp, LongjmpFunc(builtinLongjmp))
	t.Provide(SymUnderLongjmp, LongjmpFunc(builtinLongjmp))
	t.Provide(SymSiglongjmp, LongjmpFunc(builtinLongjmp))
	t.Provide(SymCxaThrow, ThrowFunc(builtinThrow))
	t.Provide(SymThreadCreate, SpawnFunc(builtinSpawn))

	return t
}

func builtinMemcpy(to, from unsafe.Pointer, n uintptr) unsafe.Pointer {
	// Forward copy. Overlap handling is memmove's job; the sanitizer has
	// already rejected overlapping arguments by the time this runs.
	for i := uintptr(0); i < n; i++ {
		internals.SetByteAt(to, i, internals.ByteAt(from, i))
	}
	return to
}

func builtinMemmove(to, from unsafe.Pointer, n uintptr) unsafe.Pointer {
	if n == 0 || to == from {
		return to
	}
	if uintptr(to) < uintptr(from) {
		for i := uintptr(0); i < n; i++ {
			internals.SetByteAt(to, i, internals.ByteAt(from, i))
		}
		return to
	}
	for i := n; i > 0; i-- {
		internals.SetByteAt(to, i-1, internals.ByteAt(from, i-1))
	}
	return to
}

func builtinMemset(block unsafe.Pointer, c byte, n uintptr) unsafe.Pointer {
	for i := uintptr(0); i < n; i++ {
		internals.SetByteAt(block, i, c)
	}
	return block
}

func builtinStrchr(s unsafe.Pointer, c byte) unsafe.Pointer {
	var i uintptr
	for {
		b := internals.ByteAt(s, i)
		if b == c {
			return unsafe.Add(s, i)
		}
		if b == 0 {
			return nil
		}
		i++
	}
}

func builtinStrcat(to, from unsafe.Pointer) unsafe.Pointer {
	dst := unsafe.Add(to, internals.Strlen(to))
	builtinStrcpy(dst, from)
	return to
}

func builtinStrcpy(to, from unsafe.Pointer) unsafe.Pointer {
	var i uintptr
	for {
		b := internals.ByteAt(from, i)
		internals.SetByteAt(to, i, b)
		if b == 0 {
			return to
		}
		i++
	}
}

func builtinStrncmp(s1, s2 unsafe.Pointer, n uintptr) int {
	for i := uintptr(0); i < n; i++ {
		c1 := internals.ByteAt(s1, i)
		c2 := internals.ByteAt(s2, i)
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
		if c1 == 0 {
			return 0
		}
	}
	return 0
}

func builtinStrncpy(to, from unsafe.Pointer, n uintptr) unsafe.Pointer {
	var i uintptr
	for ; i < n; i++ {
		b := internals.ByteAt(from, i)
		internals.SetByteAt(to, i, b)
		if b == 0 {
			i++
			break
		}
	}
	// strncpy NUL-pads the destination to exactly n bytes.
	for ; i < n; i++ {
		internals.SetByteAt(to, i, 0)
	}
	return to
}

func builtinStrdup(s unsafe.Pointer) unsafe.Pointer {
	n := internals.Strlen(s)
	buf := make([]byte, n+1)
	p := unsafe.Pointer(&buf[0])
	builtinMemcpy(p, s, n+1)

	strdupPins.mu.Lock()
	strdupPins.bufs = append(strdupPins.bufs, buf)
	strdupPins.mu.Unlock()
	return p
}

func builtinSignal(signum int, handler uintptr) uintptr {
	builtinSignals.mu.Lock()
	defer builtinSignals.mu.Unlock()
	if builtinSignals.handlers == nil {
		builtinSignals.handlers = make(map[int]uintptr)
	}
	prev := builtinSignals.handlers[signum]
	builtinSignals.handlers[signum] = handler
	return prev
}

func builtinSigaction(signum int, act, oldact unsafe.Pointer) int {
	// The builtin keeps only the handler address; disposition structs are
	// host territory.
	builtinSignals.mu.Lock()
	defer builtinSignals.mu.Unlock()
	if builtinSignals.handlers == nil {
		builtinSignals.handlers = make(map[int]uintptr)
	}
	if act != nil {
		builtinSignals.handlers[signum] = uintptr(act)
	}
	_ = oldact
	return 0
}

// InstalledHandler reports the handler address the builtin originals have
// recorded for signum. Tests use it to observe which registrations were
// forwarded versus swallowed.
func InstalledHandler(signum int) (uintptr, bool) {
	builtinSignals.mu.Lock()
	defer builtinSignals.mu.Unlock()
	h, ok := builtinSignals.handlers[signum]
	return h, ok
}

// ResetBuiltinState clears handler records and strdup pins. Test helper.
func ResetBuiltinState() {
	builtinSignals.mu.Lock()
	builtinSignals.handlers = nil
	builtinSignals.mu.Unlock()

	strdupPins.mu.Lock()
	strdupPins.bufs = nil
	strdupPins.mu.Unlock()
}

func builtinLongjmp(env unsafe.Pointer, val int) {
	panic(&JumpTarget{Env: env, Val: val})
}

func builtinThrow(obj any) {
	panic(obj)
}

func builtinSpawn(start threadregistry.StartRoutine, arg unsafe.Pointer) int {
	go start(arg)
	return 0
}
