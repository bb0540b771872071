package c3bt

import (
	"unsafe"

	"github.com/c3bt/c3bt/internal/debug"
	"github.com/c3bt/c3bt/pkg/arena"
	"github.com/c3bt/c3bt/pkg/untrust"
	"github.com/c3bt/c3bt/pkg/xunsafe"
)

// Key is the raw byte representation of a record's key, as surfaced by
// [Tree.All] and [Tree.Range].
type Key = untrust.Input

// Tree is a composite C3BT index over records of type T: a root cell
// pointer plus the configuration needed to locate and compare keys.
//
// The zero Tree is empty and ready to use once configured with [Tree.Init]
// or [Tree.InitWithBitCallback]. A Tree has no internal synchronization;
// all methods mutate and must be serialized by the caller.
type Tree[T any] struct {
	alloc arena.Recycled

	root      *Cell[T]
	bitFunc   BitFunc
	keyOffset uintptr
	keyNBits  int

	n int // indexed record count

	stats *Stats
}

// Cursor locates the position an ordered traversal or lookup last visited:
// a cell, the node slot within it, and which of that node's two children
// was followed to get there. A Cursor is only meaningful relative to the
// Tree that produced it.
type Cursor[T any] struct {
	cell *Cell[T]
	nid  int
	cid  int
}

// Init configures t to index records of type T using one of the built-in
// key types ([U32], [S32], [U64], [S64], [FixedBits], [CString]), reading
// each record's key at byte offset keyOffset. keyNBits is capped at 256.
func (t *Tree[T]) Init(bitFunc BitFunc, keyOffset uintptr, keyNBits int) {
	if keyNBits > 256 {
		keyNBits = 256
	}
	t.bitFunc = bitFunc
	t.keyOffset = keyOffset
	t.keyNBits = keyNBits
}

// InitWithBitCallback configures t with a custom bit-extraction callback.
// The key offset is implicitly 0: the callback receives the record's own
// address and is responsible for locating the key within it.
func (t *Tree[T]) InitWithBitCallback(bitFunc BitFunc, keyNBits int) {
	t.Init(bitFunc, 0, keyNBits)
}

// Destroy frees every cell owned by t, leaving it empty and configured as
// before. Indexed user records are untouched; the tree never owned them.
func (t *Tree[T]) Destroy() {
	t.root = nil
	t.n = 0
	t.alloc.Reset()
}

// Count returns the number of indexed records.
func (t *Tree[T]) Count() int { return t.n }

// keyPtr returns a pointer to r's key bytes. The caller must already know
// the key_offset/key_nbits configuration fits within r; Add and Remove
// establish that once per record via [Tree.keyBytes] before ever calling
// keyPtr.
func (t *Tree[T]) keyPtr(r *T) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(r), t.keyOffset)
}

// keyBytes reads r's key through a bounds-checked untrust.Reader, so that
// a key_offset/key_nbits configuration reaching past r's own storage is
// reported as ErrInvalidArgument rather than read out of bounds.
func (t *Tree[T]) keyBytes(r *T) (Key, error) {
	all := untrust.Input(xunsafe.Bytes(r))

	reader := untrust.NewReader(all)
	if err := reader.Skip(int(t.keyOffset)); err != nil {
		return nil, &keyBoundsError{offset: t.keyOffset, nbits: t.keyNBits, cause: err}
	}
	key, err := reader.ReadBytes((t.keyNBits + 7) / 8)
	if err != nil {
		return nil, &keyBoundsError{offset: t.keyOffset, nbits: t.keyNBits, cause: err}
	}
	return key, nil
}

func (t *Tree[T]) newCell() *Cell[T] { return newCell[T](&t.alloc) }

func (t *Tree[T]) freeCell(c *Cell[T]) { freeCell[T](&t.alloc, c) }

// assertInvariants walks the whole tree checking spec.md §3's I1-I5,
// the way the teacher's art/tree package sprinkles debug.Assert at
// points where a structural invariant could have been broken. It is a
// no-op whenever the debug build tag is absent, since debug.Assert
// compiles down to nothing in that case; callers need not guard calls
// to it on debug.Enabled themselves.
func (t *Tree[T]) assertInvariants() {
	if !debug.Enabled || t.root == nil {
		return
	}
	t.assertCell(t.root, nil, 0)
}

// assertCell checks I1-I3 on cell itself (population bookkeeping, the
// sub-cell parent back-reference, and the non-root node-count band), then
// walks its nodes to check I4 (strictly increasing cbit on every root-to-
// leaf path) and I5 (every user record reachable on child-side s reads
// bit s at that node's cbit), recursing into sub-cells as it goes.
func (t *Tree[T]) assertCell(cell *Cell[T], parent *Cell[T], minCbit uint8) {
	debug.Assert(cell.Parent() == parent, "I2: sub-cell parent back-reference must match its owning cell")

	occupied := 0
	referenced := map[int]bool{}
	for i := 0; i < maxNodes; i++ {
		if cell.isNodeVacant(i) {
			continue
		}
		occupied++
		for cid := 0; cid < 2; cid++ {
			if child := cell.nodes[i].child[cid]; child.IsUser() || child.IsSubCell() {
				referenced[child.PtrIndex()] = true
			}
		}
	}
	debug.Assert(cell.Population() == occupied, "I1: population must equal the count of non-vacant node slots")
	for i := 0; i < maxPtrs; i++ {
		debug.Assert((cell.ptrs[i] != 0) == referenced[i], "I1: a pointer slot is in use iff some child references it")
	}

	if parent != nil {
		debug.Assert(occupied >= 1 && occupied <= maxNodes, "I3: a non-root cell must contain 1..8 nodes")
		if occupied == 1 {
			n := &cell.nodes[0]
			debug.Assert(!n.child[0].IsUser() && !n.child[1].IsUser(),
				"I3: a singleton leaf cell is permitted only as the tree root")
		}
	}

	if occupied > 0 {
		t.walkNode(cell, 0, minCbit)
	}
}

// walkNode checks I4/I5 at node nid of cell and recurses into its
// children, where minCbit is the strict lower bound every cbit on this
// root-to-leaf path must already exceed.
func (t *Tree[T]) walkNode(cell *Cell[T], nid int, minCbit uint8) {
	n := &cell.nodes[nid]
	debug.Assert(n.cbit >= minCbit, "I4: cbit must strictly increase along every root-to-leaf path")

	for cid := 0; cid < 2; cid++ {
		switch child := n.child[cid]; {
		case child.IsVacant():
			// no sibling on this side yet (only possible for the root's lone node)
		case child.IsNode():
			t.walkNode(cell, child.NodeIndex(), n.cbit+1)
		case child.IsSubCell():
			t.assertCell(cellAt[T](cell.ptrs[child.PtrIndex()]), cell, n.cbit+1)
		case child.IsUser():
			rec := recordAt[T](cell.ptrs[child.PtrIndex()])
			bit := t.bitFunc.Bit(int(n.cbit), t.keyPtr(rec))
			debug.Assert(bit == cid, "I5: a user record reachable on child-side s must read bit s at cbit")
		}
	}
}
