package c3bt

import "github.com/c3bt/c3bt/internal/debug"

// pushDown implements spec.md §4.6: relieve a full cell by moving one edge
// node's worth of structure into the sub-cell hanging off one of its
// children, when that sub-cell has room to receive it. Returns false if no
// eligible (edge node, roomy sub-cell) pair exists, in which case the
// caller must fall back to split.
func (t *Tree[T]) pushDown(cell *Cell[T]) bool {
	for nid := 1; nid < maxNodes; nid++ {
		if cell.isNodeVacant(nid) {
			continue
		}

		n := &cell.nodes[nid]
		for c := 0; c < 2; c++ {
			if !n.child[c].IsSubCell() || n.child[1-c].IsNode() {
				continue
			}

			sub := cellAt[T](cell.ptrs[n.child[c].PtrIndex()])
			if sub.Population() >= maxNodes-1 {
				continue
			}

			t.doPushDown(cell, nid, c, sub)
			return true
		}
	}
	return false
}

// doPushDown performs the relocation once an eligible (edge node nid, side
// c, sub) triple has been found.
func (t *Tree[T]) doPushDown(cell *Cell[T], nid, c int, sub *Cell[T]) {
	n := cell.nodes[nid]
	sibling := n.child[1-c]

	oldRoot, _ := sub.allocNode()
	newPtr, _ := sub.allocPtr()
	sub.incPop(1)

	pNid, pCid := cell.nodeParent(nid)
	cell.nodes[pNid].child[pCid] = n.child[c]

	sub.nodes[oldRoot] = sub.nodes[0]
	sub.ptrs[newPtr] = cell.ptrs[sibling.PtrIndex()]

	var children [2]Child
	children[c] = NodeChild(oldRoot)
	children[1-c] = sibling.retag(newPtr)
	sub.nodes[0] = node{cbit: n.cbit, child: children}

	if sibling.IsSubCell() {
		cellAt[T](sub.ptrs[newPtr]).setParent(sub)
	}

	cell.freeNode(nid)
	cell.freePtr(sibling.PtrIndex())
	cell.decPop(1)

	debug.Log([]any{"%p", cell}, "push-down", "node %d, side %d -> sub-cell %p", nid, c, sub)

	if t.stats != nil {
		t.stats.PushDowns++
	}
}
