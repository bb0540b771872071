//go:build go1.20

package xunsafe

import (
	"fmt"
	"unsafe"

	"github.com/c3bt/c3bt/pkg/xunsafe/layout"
)

// Addr is an untyped address into memory that remembers the element type it
// points to, so that arithmetic on it can be expressed in units of T rather
// than bytes.
//
// Addr is deliberately not a pointer: it can be stored inside arena-allocated
// memory (such as [arena.Arena]'s own bookkeeping) without the GC treating it
// as a root, and it survives being compared, hashed, or logged.
type Addr[T any] uintptr

// AddrOf returns the address of p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// EndOf returns the address one past the last element of s.
func EndOf[T any](s []T) Addr[T] {
	return AddrOf(unsafe.SliceData(s)).Add(len(s))
}

// AssertValid converts this address back into a pointer.
//
// The caller is responsible for ensuring that the address is actually valid;
// this function performs no checking whatsoever.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add returns a + n, in units of T.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](uintptr(n)*uintptr(layout.Size[T]()))
}

// ByteAdd returns a + n, in units of bytes.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns the number of T's between a and b, such that b.Add(a.Sub(b)) == a.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(uintptr(a)-uintptr(b)) / layout.Size[T]()
}

// Padding returns the number of bytes that must be added to a to reach the
// next multiple of align.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds a up to the next multiple of align.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(int(a), align))
}

// signBit is the mask for the high bit of a uintptr on the host platform.
const signBit = uintptr(1) << (unsafe.Sizeof(uintptr(0))*8 - 1)

// SignBit returns whether the high bit of this address is set.
func (a Addr[T]) SignBit() bool {
	return uintptr(a)&signBit != 0
}

// SignBitMask returns all-ones if SignBit is set, and all-zeros otherwise.
func (a Addr[T]) SignBitMask() Addr[T] {
	if a.SignBit() {
		return Addr[T](^uintptr(0))
	}

	return 0
}

// ClearSignBit returns a with its high bit cleared.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ Addr[T](signBit)
}

// String implements [fmt.Stringer].
func (a Addr[T]) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// Format implements [fmt.Formatter], forwarding %v and %s to String and everything
// else to the underlying uintptr.
func (a Addr[T]) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		_, _ = fmt.Fprint(s, a.String())
	default:
		fmt.Fprintf(s, fmt.FormatString(s, verb), uintptr(a))
	}
}
