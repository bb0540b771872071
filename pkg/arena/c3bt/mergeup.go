package c3bt

import "github.com/c3bt/c3bt/internal/debug"

// copyPtr copies the external reference child (relative to src) into a
// freshly allocated pointer slot of dest, retargeting the referent's
// parent back-reference if it is a sub-cell. Returns the Child reference
// to use in dest, with the same tag as child but dest's new slot index.
func (t *Tree[T]) copyPtr(src, dest *Cell[T], child Child) Child {
	newPtr, _ := dest.allocPtr()
	pid := child.PtrIndex()
	dest.ptrs[newPtr] = src.ptrs[pid]
	if child.IsSubCell() {
		cellAt[T](src.ptrs[pid]).setParent(dest)
	}
	return child.retag(newPtr)
}

// copyNode recursively copies node nid of src, and everything beneath it,
// into freshly allocated slots of dest. Returns dest's new node index.
func (t *Tree[T]) copyNode(src, dest *Cell[T], nid int) int {
	newNode, _ := dest.allocNode()
	dest.incPop(1)

	srcNode := src.nodes[nid]
	var children [2]Child
	for cid := 0; cid < 2; cid++ {
		child := srcNode.child[cid]
		if child.IsNode() {
			children[cid] = NodeChild(t.copyNode(src, dest, child.NodeIndex()))
		} else {
			children[cid] = t.copyPtr(src, dest, child)
		}
	}
	dest.nodes[newNode] = node{cbit: srcNode.cbit, child: children}
	return newNode
}

// mergeUp implements spec.md §4.9: fold cell's entire subtree into parent
// at cell's anchor, then free cell. The caller must have already verified
// cell.Population()+parent.Population() <= 8.
func (t *Tree[T]) mergeUp(cell, parent *Cell[T]) {
	anchorNid, anchorCid := parent.findAnchor(cell)
	parent.freePtr(parent.nodes[anchorNid].child[anchorCid].PtrIndex())

	newNode, _ := parent.allocNode()
	parent.incPop(1)
	parent.nodes[anchorNid].child[anchorCid] = NodeChild(newNode)

	root := cell.nodes[0]
	var children [2]Child
	for cid := 0; cid < 2; cid++ {
		child := root.child[cid]
		if child.IsNode() {
			children[cid] = NodeChild(t.copyNode(cell, parent, child.NodeIndex()))
		} else {
			children[cid] = t.copyPtr(cell, parent, child)
		}
	}
	parent.nodes[newNode] = node{cbit: root.cbit, child: children}

	debug.Log([]any{"%p", parent}, "merge-up", "folded cell %p at anchor node %d", cell, anchorNid)

	t.freeCell(cell)

	if t.stats != nil {
		t.stats.MergeUps++
	}
}
