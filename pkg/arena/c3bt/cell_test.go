package c3bt

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/c3bt/c3bt/pkg/arena"
)

// TestCell_NodeAllocation covers allocNode/freeNode/isNodeVacant, the
// free-slot bookkeeping that insert.go and split.go rely on to place and
// relocate nodes within a cell's fixed 8-slot capacity.
func TestCell_NodeAllocation(t *testing.T) {
	Convey("Given a freshly allocated cell", t, func() {
		a := &arena.Arena{}
		c := newCell[int](a)

		Convey("Every node slot starts vacant", func() {
			for i := 0; i < maxNodes; i++ {
				So(c.isNodeVacant(i), ShouldBeTrue)
			}
		})

		Convey("allocNode claims slots in order and reports exhaustion at capacity", func() {
			seen := map[int]bool{}
			for i := 0; i < maxNodes; i++ {
				nid, ok := c.allocNode()
				So(ok, ShouldBeTrue)
				So(seen[nid], ShouldBeFalse)
				seen[nid] = true
				c.nodes[nid].cbit = uint8(i) // give it real contents so isNodeVacant reads false
				c.nodes[nid].child[0] = UserChild(0)
			}

			_, ok := c.allocNode()
			So(ok, ShouldBeFalse)

			Convey("freeNode returns a slot to the vacant pool", func() {
				c.freeNode(3)
				So(c.isNodeVacant(3), ShouldBeTrue)

				nid, ok := c.allocNode()
				So(ok, ShouldBeTrue)
				So(nid, ShouldEqual, 3)
			})
		})
	})
}

// TestCell_PtrAllocation covers allocPtr/freePtr, the external-reference
// slot bookkeeping used for both user records and sub-cell pointers.
func TestCell_PtrAllocation(t *testing.T) {
	Convey("Given a freshly allocated cell", t, func() {
		a := &arena.Arena{}
		c := newCell[int](a)

		Convey("allocPtr claims all 9 slots and then reports exhaustion", func() {
			for i := 0; i < maxPtrs; i++ {
				pid, ok := c.allocPtr()
				So(ok, ShouldBeTrue)
				c.ptrs[pid] = 1 // any non-zero address marks the slot occupied
			}

			_, ok := c.allocPtr()
			So(ok, ShouldBeFalse)
		})

		Convey("freePtr returns a slot to the null pool", func() {
			pid, _ := c.allocPtr()
			c.ptrs[pid] = 1

			c.freePtr(pid)
			So(c.ptrs[pid], ShouldEqual, 0)
		})
	})
}

// TestCell_Population covers the explicit population counter that
// replaces the original C implementation's packed-pointer bit trick.
func TestCell_Population(t *testing.T) {
	Convey("Given a freshly allocated cell", t, func() {
		a := &arena.Arena{}
		c := newCell[int](a)
		So(c.Population(), ShouldEqual, 0)

		c.incPop(1)
		c.incPop(2)
		So(c.Population(), ShouldEqual, 3)

		c.decPop(1)
		So(c.Population(), ShouldEqual, 2)
	})
}

// TestCell_Parent covers the non-owning navigational parent reference
// used by next/prev to climb back out of a sub-cell.
func TestCell_Parent(t *testing.T) {
	Convey("Given two cells", t, func() {
		a := &arena.Arena{}
		root := newCell[int](a)
		child := newCell[int](a)

		Convey("A cell with no parent set reports nil", func() {
			So(root.Parent(), ShouldBeNil)
		})

		Convey("setParent makes Parent return the same cell", func() {
			child.setParent(root)
			So(child.Parent(), ShouldEqual, root)
		})

		Convey("setParent(nil) clears it back to nil", func() {
			child.setParent(root)
			child.setParent(nil)
			So(child.Parent(), ShouldBeNil)
		})
	})
}

// TestCell_NodeParent covers nodeParent's scan for the unique in-cell
// node whose child reference points at a given node slot.
func TestCell_NodeParent(t *testing.T) {
	Convey("Given a cell with node 0 pointing at node 1 on its right", t, func() {
		a := &arena.Arena{}
		c := newCell[int](a)

		nid0, _ := c.allocNode()
		nid1, _ := c.allocNode()
		c.nodes[nid0].child[0] = UserChild(0)
		c.nodes[nid0].child[1] = NodeChild(nid1)
		c.nodes[nid1].child[0] = UserChild(1)
		c.nodes[nid1].child[1] = UserChild(2)

		Convey("nodeParent finds node 0 on side 1 as the parent of node 1", func() {
			pid, cid := c.nodeParent(nid1)
			So(pid, ShouldEqual, nid0)
			So(cid, ShouldEqual, 1)
		})
	})
}

// TestCell_FindAnchor covers findAnchor's scan for the node in a parent
// cell whose child reference is the sub-cell pointer to a given cell,
// used by merge-up and next/prev when crossing a sub-cell boundary.
func TestCell_FindAnchor(t *testing.T) {
	Convey("Given a parent cell anchoring a sub-cell on node 0 side 1", t, func() {
		a := &arena.Arena{}
		parent := newCell[int](a)
		sub := newCell[int](a)
		sub.setParent(parent)

		nid, _ := parent.allocNode()
		pid, _ := parent.allocPtr()
		parent.ptrs[pid] = addrOfCell(sub)
		parent.nodes[nid].child[0] = UserChild(0)
		parent.nodes[nid].child[1] = SubCellChild(pid)

		Convey("findAnchor returns that node and side", func() {
			anchorNid, anchorCid := parent.findAnchor(sub)
			So(anchorNid, ShouldEqual, nid)
			So(anchorCid, ShouldEqual, 1)
		})
	})
}
