package c3bt

import "unsafe"

// Add inserts record into t, keyed by the bytes at t's configured key
// offset (or returned by its bit callback). Duplicate keys are rejected
// without modifying the tree.
func (t *Tree[T]) Add(record *T) Outcome {
	t.assertInvariants()
	defer t.assertInvariants()

	if record == nil {
		return outcomeErr(ErrInvalidArgument)
	}
	if _, err := t.keyBytes(record); err != nil {
		return outcomeErr(classifyKeyErr(err))
	}

	key := t.keyPtr(record)

	if t.root == nil {
		t.bootstrap(record)
		return ok()
	}

	if t.n == 1 {
		return t.insertIntoSingleton(record, key)
	}

	return t.insertGeneral(record, key)
}

// bootstrap handles spec.md §4.5 step 1: the empty-tree case.
func (t *Tree[T]) bootstrap(record *T) {
	cell := t.newCell()
	cell.ptrs[0] = addrOfRecord(record)
	cell.nodes[0] = node{cbit: 0, child: [2]Child{UserChild(0), Vacant}}
	cell.pop = 1
	t.root = cell
	t.n = 1
}

// insertIntoSingleton handles spec.md §4.5 step 2.
func (t *Tree[T]) insertIntoSingleton(record *T, key unsafe.Pointer) Outcome {
	existing := recordAt[T](t.root.ptrs[0])
	existingKey := t.keyPtr(existing)

	cbit := t.bitFunc.Diff(t.keyNBits, key, existingKey)
	if cbit == -1 {
		return outcomeErr(ErrDuplicateKey)
	}

	bit := t.bitFunc.Bit(cbit, key)

	pid, okAlloc := t.root.allocPtr()
	if !okAlloc {
		return outcomeErr(ErrOutOfMemory)
	}
	t.root.ptrs[pid] = addrOfRecord(record)

	var children [2]Child
	children[bit] = UserChild(pid)
	children[1-bit] = UserChild(0)
	t.root.nodes[0] = node{cbit: uint8(cbit), child: children}
	// node 0 was already the sole occupied node slot; filling in its vacant
	// side with a second leaf doesn't occupy a new one, so pop (I1's node-
	// slot count) stays at the 1 bootstrap already set.
	t.n = 2

	return ok()
}

// ancestor records the deepest node seen so far during the restart-from-
// root descent of spec.md §4.5 step 3d whose cbit is less than the new
// node's cbit.
type ancestor[T any] struct {
	cell *Cell[T]
	nid  int
}

// insertGeneral implements spec.md §4.5 step 3 in full, including the
// make-room retry loop of step (e).
func (t *Tree[T]) insertGeneral(record *T, key unsafe.Pointer) Outcome {
	ref, cur, found := t.lookup(key)
	if !found {
		return outcomeErr(ErrInvalidArgument)
	}
	refKey := t.keyPtr(ref)

	cbit := t.bitFunc.Diff(t.keyNBits, key, refKey)
	if cbit == -1 {
		return outcomeErr(ErrDuplicateKey)
	}
	bit := t.bitFunc.Bit(cbit, key)

	for {
		cell, upperNid, dir, lower, hasUpper := t.findInsertionPoint(cur, cbit, key)

		if cell.Population() >= maxNodes {
			if t.pushDown(cell) {
				cur, _, found = t.lookup(key)
				if !found {
					return outcomeErr(ErrInvalidArgument)
				}
				continue
			}

			if _, splitOK := t.split(cell); !splitOK {
				return outcomeErr(ErrOutOfMemory)
			}
			cur, _, found = t.lookup(key)
			if !found {
				return outcomeErr(ErrInvalidArgument)
			}
			continue
		}

		nid, okNode := cell.allocNode()
		if !okNode {
			return outcomeErr(ErrOutOfMemory)
		}
		pid, okPtr := cell.allocPtr()
		if !okPtr {
			cell.freeNode(nid)
			return outcomeErr(ErrOutOfMemory)
		}
		cell.ptrs[pid] = addrOfRecord(record)

		if !hasUpper {
			oldRoot := cell.nodes[0]
			cell.nodes[nid] = oldRoot

			var children [2]Child
			children[bit] = UserChild(pid)
			children[1-bit] = NodeChild(nid)
			cell.nodes[0] = node{cbit: uint8(cbit), child: children}
		} else {
			var children [2]Child
			children[bit] = UserChild(pid)
			children[1-bit] = lower
			cell.nodes[nid] = node{cbit: uint8(cbit), child: children}
			cell.nodes[upperNid].child[dir] = NodeChild(nid)
		}

		cell.incPop(1)
		t.n++
		return ok()
	}
}

// findInsertionPoint implements spec.md §4.5 step 3d: the shortcut path
// when the lookup cursor already bottomed out below the new cbit, else the
// restart-from-root path. Returns the target cell, the upper ancestor's
// node index and the child side (dir) of upper that is being replaced, and
// lower — the reference that will become child[1-bit] of the freshly
// allocated node. upper and cell are always the same cell: a node and its
// parent node never straddle a cell boundary.
func (t *Tree[T]) findInsertionPoint(cur Cursor[T], cbit int, key unsafe.Pointer) (cell *Cell[T], upperNid, dir int, lower Child, hasUpper bool) {
	cursorCbit := int(cur.cell.nodes[cur.nid].cbit)

	if cbit > cursorCbit {
		return cur.cell, cur.nid, cur.cid, cur.cell.nodes[cur.nid].child[cur.cid], true
	}

	cell = t.root
	nid := 0
	var up *ancestor[T]
	var upDir int

	for {
		n := &cell.nodes[nid]
		if int(n.cbit) > cbit {
			if up == nil {
				return cell, 0, 0, NodeChild(nid), false
			}
			return up.cell, up.nid, upDir, NodeChild(nid), true
		}

		childBit := t.bitFunc.Bit(int(n.cbit), key)
		up = &ancestor[T]{cell: cell, nid: nid}
		upDir = childBit

		child := n.child[childBit]
		switch {
		case child.IsNode():
			nid = child.NodeIndex()
		case child.IsUser():
			return cell, up.nid, upDir, child, true
		default: // sub-cell
			cell = cellAt[T](cell.ptrs[child.PtrIndex()])
			nid = 0
			up = nil
		}
	}
}
