package c3bt

import (
	"github.com/c3bt/c3bt/internal/debug"
	"github.com/c3bt/c3bt/pkg/arena"
	"github.com/c3bt/c3bt/pkg/xunsafe"
)

// node is a crit-bit decision point: the bit index to test, and a tagged
// reference for each of its two children.
type node struct {
	cbit  uint8
	child [2]Child
}

// Cell is the fixed-capacity storage unit of a C3BT: up to 8 internal
// nodes of one contiguous crit-bit subtree, plus up to 9 external pointers
// (each a user record or a sub-cell) referenced by those nodes' tagged
// Child bytes.
//
// Node slot 0 is, by convention, the cell root: the entry point of the
// subtree this cell owns. A cell with k nodes owns exactly k+1 external
// children.
//
// Cell does not pack its population into its parent pointer's spare bits
// the way the original C implementation does; that was a micro-
// optimization, not a correctness requirement. Population
// is tracked in an explicit field instead.
type Cell[T any] struct {
	_ xunsafe.NoCopy

	// parent is a non-owning, navigational-only reference to the cell that
	// owns the pointer slot referencing this cell, or the zero address if
	// this is the tree's root cell. It is an address rather than a live
	// pointer so that no cell holds an owning reference to its parent;
	// ownership flows strictly downward through ptrs.
	parent xunsafe.Addr[Cell[T]]

	pop uint8 // population: occupied node slots, 1..8

	nodes [maxNodes]node

	// ptrs holds, for each slot referenced by some node's Child tag, the
	// address of either a user record or a sub-cell. These are addresses
	// rather than live pointers: a Cell is arena-allocated into a
	// deliberately pointer-free byte region (see pkg/arena's doc comment),
	// so a live *T or *Cell[T] stored here would not be traced by the
	// garbage collector and could be invisibly collected out from under
	// the tree. Sub-cells stay alive because the owning Arena keeps every
	// chunk it has allocated reachable via its own block list regardless
	// of what individual cells point at; user records stay alive because
	// the caller is expected to keep its own live reference to every
	// record for as long as it remains indexed (the tree borrows, never
	// owns, user records — see the package doc comment).
	ptrs [maxPtrs]xunsafe.Addr[byte]
}

// newCell allocates a zeroed, all-vacant cell from a.
func newCell[T any](a arena.Allocator) *Cell[T] {
	c := arena.New(a, Cell[T]{})
	for i := range c.nodes {
		c.nodes[i].child[0] = Vacant
	}
	debug.Log(nil, "cell alloc", "%p", c)
	return c
}

// freeCell returns c's storage to a.
func freeCell[T any](a arena.Allocator, c *Cell[T]) {
	debug.Log(nil, "cell free", "%p", c)
	arena.Free(a, c)
}

func addrOfCell[T any](c *Cell[T]) xunsafe.Addr[byte] {
	return xunsafe.Addr[byte](xunsafe.AddrOf(c))
}

func cellAt[T any](a xunsafe.Addr[byte]) *Cell[T] {
	return xunsafe.Addr[Cell[T]](a).AssertValid()
}

func addrOfRecord[T any](r *T) xunsafe.Addr[byte] {
	return xunsafe.Addr[byte](xunsafe.AddrOf(r))
}

func recordAt[T any](a xunsafe.Addr[byte]) *T {
	return xunsafe.Addr[T](a).AssertValid()
}

// Population returns the number of occupied node slots, 1..8.
func (c *Cell[T]) Population() int { return int(c.pop) }

func (c *Cell[T]) incPop(n int) { c.pop += uint8(n) }
func (c *Cell[T]) decPop(n int) { c.pop -= uint8(n) }

// Parent returns the cell that owns the pointer slot referencing c, or nil
// if c is the tree's root cell.
func (c *Cell[T]) Parent() *Cell[T] {
	if c.parent == 0 {
		return nil
	}
	return c.parent.AssertValid()
}

func (c *Cell[T]) setParent(p *Cell[T]) {
	if p == nil {
		c.parent = 0
	} else {
		c.parent = xunsafe.AddrOf(p)
	}
}

// isNodeVacant reports whether node slot nid is unoccupied.
func (c *Cell[T]) isNodeVacant(nid int) bool {
	return c.nodes[nid].child[0] == Vacant
}

// allocNode scans for a vacant node slot, marking it occupied but leaving
// its contents otherwise uninitialized. Returns (-1, false) if the cell is
// already at its 8-node capacity.
func (c *Cell[T]) allocNode() (int, bool) {
	for i := 0; i < maxNodes; i++ {
		if c.isNodeVacant(i) {
			c.nodes[i].child[0] = 0 // leave the vacant sentinel
			return i, true
		}
	}
	return -1, false
}

// freeNode marks node slot nid unoccupied.
func (c *Cell[T]) freeNode(nid int) {
	c.nodes[nid] = node{child: [2]Child{Vacant, Vacant}}
}

// allocPtr scans for a null pointer slot. Returns (-1, false) if the
// cell's 9 pointer slots are all in use.
func (c *Cell[T]) allocPtr() (int, bool) {
	for i := 0; i < maxPtrs; i++ {
		if c.ptrs[i] == 0 {
			return i, true
		}
	}
	return -1, false
}

// freePtr marks pointer slot pid null.
func (c *Cell[T]) freePtr(pid int) { c.ptrs[pid] = 0 }

// nodeParent returns the (slot, side) of the unique node in c whose child
// reference is the in-cell index of nid. Panics if nid is node 0 (the
// cell root has no in-cell parent) or if no such node is found, which
// would mean I1 has been violated.
func (c *Cell[T]) nodeParent(nid int) (pid, cid int) {
	want := NodeChild(nid)
	for pid = 0; pid < maxNodes; pid++ {
		if c.isNodeVacant(pid) {
			continue
		}
		for cid = 0; cid < 2; cid++ {
			if c.nodes[pid].child[cid] == want {
				return pid, cid
			}
		}
	}
	panic("c3bt: node has no parent in its cell")
}

// findAnchor returns the (slot, side) in c whose child reference is the
// sub-cell reference to sub. Panics if sub is not a direct child of c,
// which would mean I2 has been violated.
func (c *Cell[T]) findAnchor(sub *Cell[T]) (nid, cid int) {
	target := addrOfCell(sub)

	pid := -1
	for i := 0; i < maxPtrs; i++ {
		if c.ptrs[i] == target {
			pid = i
			break
		}
	}
	debug.Assert(pid >= 0, "sub-cell is not owned by its claimed parent")

	want := SubCellChild(pid)
	for nid = 0; nid < maxNodes; nid++ {
		if c.isNodeVacant(nid) {
			continue
		}
		for cid = 0; cid < 2; cid++ {
			if c.nodes[nid].child[cid] == want {
				return nid, cid
			}
		}
	}
	panic("c3bt: sub-cell has no anchor in its parent")
}
