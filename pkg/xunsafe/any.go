//go:build go1.23

package xunsafe

import (
	"reflect"
	"unsafe"
)

// anyHeader mirrors the runtime layout of a non-empty-free `any` value: a
// pointer to its type descriptor and a pointer to its data word (which, for
// types too large or too irregular to fit in a single word, points at a
// heap-allocated box rather than holding the value itself).
type anyHeader struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// AnyData returns the data pointer carried by an interface value: the
// address of the boxed value for indirect types, or the value itself
// reinterpreted as a pointer for direct types (see [IsDirectAny]).
func AnyData(v any) *byte {
	return (*byte)((*anyHeader)(unsafe.Pointer(&v)).data)
}

// AnyType returns the address of v's runtime type descriptor, suitable only
// for equality comparison and for round-tripping through [MakeAny].
func AnyType(v any) uintptr {
	return uintptr((*anyHeader)(unsafe.Pointer(&v)).typ)
}

// AnyBytes returns the raw bytes of v's value, sized according to v's
// dynamic type: the data word itself for direct types, or the boxed value
// otherwise. Returns nil for a nil interface or a nil data pointer.
func AnyBytes(v any) []byte {
	if v == nil {
		return nil
	}

	data := AnyData(v)
	if data == nil {
		return nil
	}

	if IsDirectAny(v) {
		h := (*anyHeader)(unsafe.Pointer(&v))
		return unsafe.Slice((*byte)(unsafe.Pointer(&h.data)), reflect.TypeOf(v).Size())
	}

	return unsafe.Slice(data, reflect.TypeOf(v).Size())
}

// MakeAny reassembles an interface value from a type descriptor address
// (as returned by [AnyType]) and a data pointer (as returned by [AnyData]).
func MakeAny(typ uintptr, data *byte) any {
	var v any

	h := (*anyHeader)(unsafe.Pointer(&v))
	h.typ = unsafe.Pointer(typ) //nolint:govet // reconstructing a type word deliberately
	h.data = unsafe.Pointer(data)

	return v
}

// isDirectKind reports whether a value of this type is stored directly in
// the data word of an interface (no boxing): pointers, maps, channels,
// funcs, unsafe.Pointer, interfaces themselves, and single-field
// structs/arrays whose sole element is itself direct.
func isDirectKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Interface:
		return true
	case reflect.Struct:
		return t.NumField() == 1 && isDirectKind(t.Field(0).Type)
	case reflect.Array:
		return t.Len() == 1 && isDirectKind(t.Elem())
	default:
		return false
	}
}

// IsDirect reports whether T is stored directly in an interface's data
// word rather than behind a pointer to a heap-allocated box.
func IsDirect[T any]() bool {
	return isDirectKind(reflect.TypeFor[T]())
}

// IsDirectAny is like [IsDirect], but operates on the dynamic type of v.
// Returns false for a nil interface.
func IsDirectAny(v any) bool {
	if v == nil {
		return false
	}

	return isDirectKind(reflect.TypeOf(v))
}

// AssertInlinedAny fails t unless T is direct per [IsDirect]. Intended for
// tests that rely on a type never being boxed when placed in an interface.
func AssertInlinedAny[T any](t testing) {
	t.Helper()

	if !IsDirect[T]() {
		var z T
		t.Fatalf("%T is not stored directly in an interface", z)
	}
}

// testing is the subset of testing.TB that AssertInlinedAny needs, so this
// file does not have to import the testing package into non-test builds.
type testing interface {
	Helper()
	Fatalf(format string, args ...any)
}
