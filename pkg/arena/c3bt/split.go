package c3bt

import "github.com/c3bt/c3bt/internal/debug"

// findSplit implements spec.md §4.7's split-point search: among non-root,
// non-leaf-in-cell nodes, choose the one whose in-cell subtree (counted by
// pre-order traversal) yields the most balanced partition — 4+4 nodes if
// one exists, else the closest 3+5 fallback. Returns the chosen subtree
// root and a bitmap with one bit set per node slot (MSB = slot 0) that
// belongs to that subtree.
func (t *Tree[T]) findSplit(cell *Cell[T]) (root int, bitmap uint8, ok bool) {
	altRoot := -1
	var altBitmap uint8

	for i := 1; i < maxNodes; i++ {
		n := &cell.nodes[i]
		if !n.child[0].IsNode() && !n.child[1].IsNode() {
			continue
		}

		count := 0
		var bm uint8
		stack := [maxNodes]int{i}
		top := 0

		for top >= 0 {
			nid := stack[top]
			top--
			bm |= 0x80 >> uint(nid)

			for cid := 1; cid >= 0; cid-- {
				child := cell.nodes[nid].child[cid]
				if child.IsNode() {
					top++
					stack[top] = child.NodeIndex()
					count++
				}
			}
		}

		if count == 3 {
			return i, bm, true
		}
		if count == 2 || count == 4 {
			altRoot, altBitmap = i, bm
		}
	}

	if altRoot == -1 {
		return -1, 0, false
	}
	return altRoot, altBitmap, true
}

// split implements spec.md §4.7 in full: partition a full cell's subtree
// into the existing cell and a freshly allocated one, linked as a
// sub-cell of the original at the chosen split node's former position.
// Returns the new cell and false if a split point could not be found or
// allocation failed, in which case cell is left unmodified.
func (t *Tree[T]) split(cell *Cell[T]) (*Cell[T], bool) {
	root, bitmap, ok := t.findSplit(cell)
	if !ok {
		return nil, false
	}

	newCell := t.newCell()

	count := 0
	for i := 0; i < maxNodes; i++ {
		if bitmap&(0x80>>uint(i)) == 0 {
			continue
		}

		newCell.nodes[i] = cell.nodes[i]
		for cid := 0; cid < 2; cid++ {
			child := cell.nodes[i].child[cid]
			if child.IsNode() {
				continue
			}

			pid := child.PtrIndex()
			if child.IsSubCell() {
				cellAt[T](cell.ptrs[pid]).setParent(newCell)
			}
			newCell.ptrs[pid] = cell.ptrs[pid]
			cell.freePtr(pid)
		}

		count++
		cell.freeNode(i)
	}

	anchorPtr, okPtr := cell.allocPtr()
	if !okPtr {
		return nil, false
	}
	cell.ptrs[anchorPtr] = addrOfCell(newCell)

	pNid, pCid := cell.nodeParent(root)
	cell.nodes[pNid].child[pCid] = SubCellChild(anchorPtr)
	cell.decPop(count)

	newCell.nodes[0] = newCell.nodes[root]
	if root != 0 {
		newCell.freeNode(root)
	}
	newCell.pop = uint8(count)
	newCell.setParent(cell)

	debug.Log([]any{"%p", cell}, "split", "root node %d, %d nodes -> new cell %p", root, count, newCell)

	if t.stats != nil {
		t.stats.Splits++
	}

	return newCell, true
}
