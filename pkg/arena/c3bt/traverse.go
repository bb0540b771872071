package c3bt

import (
	"bytes"
	"iter"
	"unsafe"

	"github.com/c3bt/c3bt/pkg/xiter"
)

// rushDown implements spec.md §4.4's rush_down(cursor, dir): starting at
// node nid of cell, repeatedly follow child[dir] through in-cell nodes
// and sub-cell jumps until a user reference is reached.
func (t *Tree[T]) rushDown(cell *Cell[T], nid, dir int) (*T, Cursor[T]) {
	for {
		child := cell.nodes[nid].child[dir]

		switch {
		case child.IsNode():
			nid = child.NodeIndex()

		case child.IsUser():
			rec := recordAt[T](cell.ptrs[child.PtrIndex()])
			return rec, Cursor[T]{cell: cell, nid: nid, cid: dir}

		default: // sub-cell
			cell = cellAt[T](cell.ptrs[child.PtrIndex()])
			nid = 0
		}
	}
}

// stepFrom takes one step in direction dir away from node nid of cell,
// then rushes down to the 1-dir extreme of whatever that step led to.
// This is the common tail of both the "easy" sibling case and the "hard"
// climb case of next/prev: step toward dir once, then find the nearest
// element of the resulting subtree.
func (t *Tree[T]) stepFrom(cell *Cell[T], nid, dir int) (*T, Cursor[T]) {
	child := cell.nodes[nid].child[dir]

	switch {
	case child.IsNode():
		return t.rushDown(cell, child.NodeIndex(), 1-dir)

	case child.IsUser():
		rec := recordAt[T](cell.ptrs[child.PtrIndex()])
		return rec, Cursor[T]{cell: cell, nid: nid, cid: dir}

	default: // sub-cell
		sub := cellAt[T](cell.ptrs[child.PtrIndex()])
		return t.rushDown(sub, 0, 1-dir)
	}
}

// descendGuided re-walks cell from its root node, guided by key, looking
// for the deepest node whose cbit is strictly less than curCbit (i.e. a
// true ancestor of the node at curCbit) and whose bit(key) departs away
// from dir — meaning that node's dir-side child has not yet been visited
// on the path to key, and is the next candidate subtree in dir order.
// The walk crosses sub-cell boundaries as it goes, and stops as soon as
// it reaches a node whose cbit is no longer less than curCbit.
func (t *Tree[T]) descendGuided(cell *Cell[T], key unsafe.Pointer, curCbit uint8, dir int) (upperCell *Cell[T], upperNid int, found bool) {
	nid := 0

	for {
		n := &cell.nodes[nid]
		if n.cbit >= curCbit {
			return upperCell, upperNid, found
		}

		bit := t.bitFunc.Bit(int(n.cbit), key)
		if bit != dir {
			upperCell, upperNid, found = cell, nid, true
		}

		child := n.child[bit]
		switch {
		case child.IsNode():
			nid = child.NodeIndex()
		case child.IsSubCell():
			cell = cellAt[T](cell.ptrs[child.PtrIndex()])
			nid = 0
		default: // a user reference before reaching curCbit should not happen
			return upperCell, upperNid, found
		}
	}
}

// step implements next (dir=1) and prev (dir=0) from spec.md §4.4.
func (t *Tree[T]) step(rec *T, cur Cursor[T], dir int) (*T, Cursor[T], bool) {
	if t.n <= 1 {
		return nil, Cursor[T]{}, false
	}

	if cur.cid != dir {
		nr, ncur := t.stepFrom(cur.cell, cur.nid, dir)
		return nr, ncur, true
	}

	curCbit := cur.cell.nodes[cur.nid].cbit
	key := t.keyPtr(rec)

	for cell := cur.cell; ; {
		upperCell, upperNid, found := t.descendGuided(cell, key, curCbit, dir)
		if found {
			nr, ncur := t.stepFrom(upperCell, upperNid, dir)
			return nr, ncur, true
		}

		parent := cell.Parent()
		if parent == nil {
			return nil, Cursor[T]{}, false
		}
		cell = parent
	}
}

// First returns the record with the smallest key, and a cursor to it.
func (t *Tree[T]) First() (*T, Cursor[T], bool) {
	return t.extreme(0)
}

// Last returns the record with the largest key, and a cursor to it.
func (t *Tree[T]) Last() (*T, Cursor[T], bool) {
	return t.extreme(1)
}

func (t *Tree[T]) extreme(dir int) (*T, Cursor[T], bool) {
	if t.root == nil {
		return nil, Cursor[T]{}, false
	}
	if t.n == 1 {
		return recordAt[T](t.root.ptrs[0]), Cursor[T]{cell: t.root, nid: 0, cid: 0}, true
	}
	rec, cur := t.rushDown(t.root, 0, dir)
	return rec, cur, true
}

// Next returns the record with the smallest key strictly greater than
// rec's, given the cursor last produced for rec, or ok == false if rec is
// the last record.
func (t *Tree[T]) Next(rec *T, cur Cursor[T]) (*T, Cursor[T], bool) {
	return t.step(rec, cur, 1)
}

// Prev returns the record with the largest key strictly less than rec's,
// given the cursor last produced for rec, or ok == false if rec is the
// first record.
func (t *Tree[T]) Prev(rec *T, cur Cursor[T]) (*T, Cursor[T], bool) {
	return t.step(rec, cur, 0)
}

// All returns an iterator over every indexed record in ascending key
// order, built directly on First/Next the way the teacher's
// pkg/arena/art/iter.go builds its iterators on Minimum and recursive
// descent.
func (t *Tree[T]) All() iter.Seq2[Key, *T] {
	return func(yield func(Key, *T) bool) {
		rec, cur, ok := t.First()
		for ok {
			key, _ := t.keyBytes(rec)
			if !yield(key, rec) {
				return
			}
			rec, cur, ok = t.Next(rec, cur)
		}
	}
}

// Range returns an iterator over every indexed record whose key is within
// [lo, hi) in ascending key order, comparing raw key bytes
// lexicographically (matching the MSB-first bit order every built-in key
// type is read in).
func (t *Tree[T]) Range(lo, hi Key) iter.Seq2[Key, *T] {
	return func(yield func(Key, *T) bool) {
		for key, rec := range t.All() {
			if bytes.Compare(key, lo) < 0 {
				continue
			}
			if hi != nil && bytes.Compare(key, hi) >= 0 {
				return
			}
			if !yield(key, rec) {
				return
			}
		}
	}
}

// Filtered returns an iterator over every indexed record for which keep
// returns true, built with xiter.Filter2 over [Tree.All].
func (t *Tree[T]) Filtered(keep func(Key, *T) bool) iter.Seq2[Key, *T] {
	return xiter.Filter2(t.All(), keep)
}

// CountMatching reports how many indexed records satisfy keep, without
// allocating a slice of matches.
func (t *Tree[T]) CountMatching(keep func(Key, *T) bool) int {
	return xiter.Count2(t.Filtered(keep))
}
