package c3bt

import (
	"unsafe"

	"github.com/c3bt/c3bt/pkg/opt"
)

// lookup performs the key-guided descent of spec.md §4.3: starting at the
// root cell, follow the child indicated by each node's configured bit
// until a user reference is reached. Returns the candidate record (which
// the caller must still verify, unless the tree is a singleton) and a
// cursor recording the last step taken.
//
// An empty tree returns ok == false. A singleton tree returns its sole
// record unconditionally, per spec.md §4.3.
func (t *Tree[T]) lookup(key unsafe.Pointer) (rec *T, cur Cursor[T], ok bool) {
	if t.root == nil {
		return nil, Cursor[T]{}, false
	}

	if t.n == 1 {
		return recordAt[T](t.root.ptrs[0]), Cursor[T]{cell: t.root, nid: 0, cid: 0}, true
	}

	cell := t.root
	nid := 0

	for {
		n := &cell.nodes[nid]
		cid := t.bitFunc.Bit(int(n.cbit), key)
		child := n.child[cid]

		switch {
		case child.IsNode():
			nid = child.NodeIndex()

		case child.IsUser():
			rec = recordAt[T](cell.ptrs[child.PtrIndex()])
			cur = Cursor[T]{cell: cell, nid: nid, cid: cid}
			return rec, cur, true

		default: // sub-cell
			cell = cellAt[T](cell.ptrs[child.PtrIndex()])
			nid = 0
		}
	}
}

// findScalar performs lookup followed by the exact-match equality check
// spec.md §4.3 requires of any caller wanting definitive-hit semantics:
// diff(-(N+1), key, candidate.key) must return -1.
func (t *Tree[T]) findScalar(key unsafe.Pointer) (*T, Cursor[T], bool) {
	rec, cur, found := t.lookup(key)
	if !found {
		return nil, Cursor[T]{}, false
	}

	if t.bitFunc.Diff(t.keyNBits, key, t.keyPtr(rec)) != -1 {
		return nil, Cursor[T]{}, false
	}

	return rec, cur, true
}

// locate is the shared implementation behind the public Locate and
// Remove: find the record with the same key as record, verified by
// equality, returning its cursor for callers that need to mutate at that
// position.
func (t *Tree[T]) locate(record *T) (*T, Cursor[T], bool) {
	return t.findScalar(t.keyPtr(record))
}

// Locate performs a key-equality lookup against record's key, returning
// the indexed record with that key, if any.
func (t *Tree[T]) Locate(record *T) (*T, bool) {
	rec, _, ok := t.locate(record)
	return rec, ok
}

// LocateOpt is Locate expressed as an [opt.Option], for callers that are
// already threading Options through a call chain rather than checking a
// boolean at each step.
func (t *Tree[T]) LocateOpt(record *T) opt.Option[T] {
	rec, ok := t.Locate(record)
	if !ok {
		return opt.None[T]()
	}
	return opt.Wrap(rec)
}

// FindU32 looks up a record by a uint32 key value.
func (t *Tree[T]) FindU32(key uint32) (*T, bool) {
	rec, _, ok := t.findScalar(unsafe.Pointer(&key))
	return rec, ok
}

// FindS32 looks up a record by an int32 key value.
func (t *Tree[T]) FindS32(key int32) (*T, bool) {
	rec, _, ok := t.findScalar(unsafe.Pointer(&key))
	return rec, ok
}

// FindU64 looks up a record by a uint64 key value.
func (t *Tree[T]) FindU64(key uint64) (*T, bool) {
	rec, _, ok := t.findScalar(unsafe.Pointer(&key))
	return rec, ok
}

// FindS64 looks up a record by an int64 key value.
func (t *Tree[T]) FindS64(key int64) (*T, bool) {
	rec, _, ok := t.findScalar(unsafe.Pointer(&key))
	return rec, ok
}

// FindBits looks up a record by a raw bit-string key. key is used as-is;
// the caller must zero-pad it to the tree's configured key_nbits.
func (t *Tree[T]) FindBits(key []byte) (*T, bool) {
	if len(key) == 0 {
		return nil, false
	}
	rec, _, ok := t.findScalar(unsafe.Pointer(unsafe.SliceData(key)))
	return rec, ok
}

// FindString looks up a record by a string key, using C-string
// (NUL-terminated) comparison semantics.
func (t *Tree[T]) FindString(key string) (*T, bool) {
	buf := make([]byte, len(key)+1)
	copy(buf, key)
	rec, _, ok := t.findScalar(unsafe.Pointer(unsafe.SliceData(buf)))
	return rec, ok
}
