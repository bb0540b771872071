package c3bt

import "github.com/c3bt/c3bt/internal/debug"

// Remove deletes the record with the same key as record, if one is
// indexed. It reports ErrNotFound without modifying the tree if no such
// record exists.
func (t *Tree[T]) Remove(record *T) Outcome {
	t.assertInvariants()
	defer t.assertInvariants()

	if record == nil {
		return outcomeErr(ErrInvalidArgument)
	}
	if _, err := t.keyBytes(record); err != nil {
		return outcomeErr(classifyKeyErr(err))
	}

	_, cur, found := t.locate(record)
	if !found {
		return outcomeErr(ErrNotFound)
	}

	if t.n == 1 {
		t.freeCell(cur.cell)
		t.root = nil
		t.n = 0
		return ok()
	}

	cell := cur.cell
	parent := cell.Parent()
	cell.freePtr(cell.nodes[cur.nid].child[cur.cid].PtrIndex())

	if cur.nid == 0 {
		return t.removeFromCellRoot(cell, parent, cur.cid)
	}

	pNid, pCid := cell.nodeParent(cur.nid)
	cell.nodes[pNid].child[pCid] = cell.nodes[cur.nid].child[1-cur.cid]
	cell.freeNode(cur.nid)
	cell.decPop(1)
	t.n--

	t.tryMergeUp(cell, parent)
	return ok()
}

// removeFromCellRoot implements spec.md §4.8 step 3: the record removed
// hung directly off node 0 (the cell root), on side cid. sibling is
// whatever occupies the other side, 1-cid.
func (t *Tree[T]) removeFromCellRoot(cell, parent *Cell[T], cid int) Outcome {
	sibling := cell.nodes[0].child[1-cid]

	switch {
	case sibling.IsNode():
		donor := sibling.NodeIndex()
		cell.nodes[0] = cell.nodes[donor]
		cell.freeNode(donor)
		cell.decPop(1)
		t.n--
		t.tryMergeUp(cell, parent)
		return ok()

	case sibling.IsUser() && parent == nil:
		survivor := cell.ptrs[sibling.PtrIndex()]
		cell.freePtr(sibling.PtrIndex())
		cell.ptrs[0] = survivor
		cell.nodes[0] = node{child: [2]Child{UserChild(0), Vacant}}
		t.n--
		return ok()

	default:
		t.pushUp(cell, parent, sibling)
		t.n--
		return ok()
	}
}

// tryMergeUp applies spec.md §4.8 step 5: merge cell up into its parent
// (§4.9) when cell has a parent and their combined population fits in
// one cell.
func (t *Tree[T]) tryMergeUp(cell, parent *Cell[T]) {
	if parent != nil && cell.Population()+parent.Population() <= maxNodes {
		t.mergeUp(cell, parent)
	}
}

// pushUp implements spec.md §4.8 step 3's push-up case: cell is left with
// a single surviving external child, which replaces cell itself at its
// anchor in parent (or becomes the new tree root, if cell was the root
// cell). cell is freed.
func (t *Tree[T]) pushUp(cell, parent *Cell[T], sibling Child) {
	if parent == nil {
		newRoot := cellAt[T](cell.ptrs[sibling.PtrIndex()])
		newRoot.setParent(nil)
		t.root = newRoot
		debug.Log([]any{"%p", cell}, "push-up", "cell %p becomes new tree root", newRoot)
		t.freeCell(cell)
		if t.stats != nil {
			t.stats.PushUps++
		}
		return
	}

	anchorNid, anchorCid := parent.findAnchor(cell)
	pid := parent.nodes[anchorNid].child[anchorCid].PtrIndex()

	parent.ptrs[pid] = cell.ptrs[sibling.PtrIndex()]
	if sibling.IsSubCell() {
		cellAt[T](parent.ptrs[pid]).setParent(parent)
	}
	parent.nodes[anchorNid].child[anchorCid] = sibling.retag(pid)

	debug.Log([]any{"%p", cell}, "push-up", "replaces cell %p at parent %p anchor node %d", cell, parent, anchorNid)

	t.freeCell(cell)

	if t.stats != nil {
		t.stats.PushUps++
	}
}
