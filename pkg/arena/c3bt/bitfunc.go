package c3bt

import (
	"math/bits"
	"unsafe"

	"github.com/c3bt/c3bt/pkg/zc"
)

// BitFunc abstracts both halves of the bit-extraction interface a Tree
// needs to index a key type: fetching a single bit of a key, and finding
// the first bit at which two keys differ.
//
// Both methods receive a pointer to the key's bytes within the caller's
// record (the record's address plus the tree's configured key_offset),
// never the whole record.
type BitFunc interface {
	// Bit returns bit i (0-indexed, MSB-first) of the key at key. i is
	// always in [0, key_nbits). Implementations for variable-length keys
	// (such as strings) must return 0 for bit positions past the key's
	// logical end, so that a shorter key sorts before any of its
	// extensions.
	Bit(i int, key unsafe.Pointer) int

	// Diff returns the index of the first bit, scanning at most nbits
	// bits MSB-first, at which the keys at k1 and k2 differ, or -1 if
	// they agree on all nbits bits.
	Diff(nbits int, k1, k2 unsafe.Pointer) int
}

func readByte(p unsafe.Pointer, i int) byte {
	return *(*byte)(unsafe.Add(p, i))
}

// U32 indexes a key stored as a native uint32.
func U32() BitFunc { return u32Func{} }

type u32Func struct{}

func (u32Func) Bit(i int, key unsafe.Pointer) int {
	v := *(*uint32)(key)
	return int((v >> uint(31-i)) & 1)
}

func (u32Func) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	x := *(*uint32)(k1) ^ *(*uint32)(k2)
	if x == 0 {
		return -1
	}
	if bit := bits.LeadingZeros32(x); bit < nbits {
		return bit
	}
	return -1
}

// S32 indexes a key stored as a native int32, flipping the sign bit so
// that bit order matches numeric order (two's-complement negative values
// would otherwise sort after positive ones under a naive bit compare).
func S32() BitFunc { return s32Func{} }

type s32Func struct{}

func (s32Func) Bit(i int, key unsafe.Pointer) int {
	v := uint32(*(*int32)(key)) ^ 0x8000_0000
	return int((v >> uint(31-i)) & 1)
}

func (s32Func) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	v1 := uint32(*(*int32)(k1)) ^ 0x8000_0000
	v2 := uint32(*(*int32)(k2)) ^ 0x8000_0000
	x := v1 ^ v2
	if x == 0 {
		return -1
	}
	if bit := bits.LeadingZeros32(x); bit < nbits {
		return bit
	}
	return -1
}

// U64 indexes a key stored as a native uint64.
func U64() BitFunc { return u64Func{} }

type u64Func struct{}

func (u64Func) Bit(i int, key unsafe.Pointer) int {
	v := *(*uint64)(key)
	return int((v >> uint(63-i)) & 1)
}

func (u64Func) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	x := *(*uint64)(k1) ^ *(*uint64)(k2)
	if x == 0 {
		return -1
	}
	if bit := bits.LeadingZeros64(x); bit < nbits {
		return bit
	}
	return -1
}

// S64 indexes a key stored as a native int64, with the same sign-bit flip
// as [S32].
func S64() BitFunc { return s64Func{} }

type s64Func struct{}

func (s64Func) Bit(i int, key unsafe.Pointer) int {
	v := uint64(*(*int64)(key)) ^ 0x8000_0000_0000_0000
	return int((v >> uint(63-i)) & 1)
}

func (s64Func) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	v1 := uint64(*(*int64)(k1)) ^ 0x8000_0000_0000_0000
	v2 := uint64(*(*int64)(k2)) ^ 0x8000_0000_0000_0000
	x := v1 ^ v2
	if x == 0 {
		return -1
	}
	if bit := bits.LeadingZeros64(x); bit < nbits {
		return bit
	}
	return -1
}

// FixedBits indexes a key stored as a fixed-length raw bit-string, tail
// zero-padded to a whole number of bytes.
func FixedBits() BitFunc { return bitsFunc{} }

type bitsFunc struct{}

func (bitsFunc) Bit(i int, key unsafe.Pointer) int {
	b := readByte(key, i/8)
	return int((b >> uint(7-i%8)) & 1)
}

func (bitsFunc) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	nbytes := (nbits + 7) / 8
	for j := 0; j < nbytes; j++ {
		x := readByte(k1, j) ^ readByte(k2, j)
		if x == 0 {
			continue
		}
		if bit := j*8 + bits.LeadingZeros8(x); bit < nbits {
			return bit
		}
		return -1
	}
	return -1
}

// CString indexes a key stored as a NUL-terminated byte string, scanning
// at most key_nbits bits. Bit positions past the terminator read as 0, so
// a string sorts before any of its own extensions.
func CString() BitFunc { return cstringFunc{} }

type cstringFunc struct{}

func (cstringFunc) Bit(i int, key unsafe.Pointer) int {
	byteIdx := i / 8
	for j := 0; j <= byteIdx; j++ {
		b := readByte(key, j)
		if b == 0 {
			return 0
		}
		if j == byteIdx {
			return int((b >> uint(7-i%8)) & 1)
		}
	}
	return 0
}

func (cstringFunc) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	nbytes := (nbits + 7) / 8
	for j := 0; j < nbytes; j++ {
		b1 := readByte(k1, j)
		b2 := readByte(k2, j)
		if b1 == b2 {
			if b1 == 0 {
				return -1
			}
			continue
		}
		if bit := j*8 + bits.LeadingZeros8(b1^b2); bit < nbits {
			return bit
		}
		return -1
	}
	return -1
}

// CStringView indexes a key stored not inline but as a [zc.View] (a packed
// offset+length) into a separate backing buffer src, the way the teacher's
// zero-copy packages avoid duplicating string data the caller already owns.
// Unlike [CString], a view key's length is explicit, so no NUL terminator is
// required; bit positions past the view's end still read as 0.
func CStringView(src *byte) BitFunc { return cstringViewFunc{src: src} }

type cstringViewFunc struct{ src *byte }

func (f cstringViewFunc) bytes(key unsafe.Pointer) []byte {
	view := *(*zc.View)(key)
	return view.Bytes(f.src)
}

func (f cstringViewFunc) Bit(i int, key unsafe.Pointer) int {
	b := f.bytes(key)
	byteIdx := i / 8
	if byteIdx >= len(b) {
		return 0
	}
	return int((b[byteIdx] >> uint(7-i%8)) & 1)
}

func (f cstringViewFunc) Diff(nbits int, k1, k2 unsafe.Pointer) int {
	b1 := f.bytes(k1)
	b2 := f.bytes(k2)
	nbytes := (nbits + 7) / 8
	for j := 0; j < nbytes; j++ {
		var x1, x2 byte
		if j < len(b1) {
			x1 = b1[j]
		}
		if j < len(b2) {
			x2 = b2[j]
		}
		if x1 == x2 {
			continue
		}
		if bit := j*8 + bits.LeadingZeros8(x1^x2); bit < nbits {
			return bit
		}
		return -1
	}
	return -1
}
