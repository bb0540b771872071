// Package c3bt implements the Compact Clustered Crit-Bit Tree: an ordered,
// in-memory associative index keyed by arbitrary bit-strings.
//
// # Overview
//
// A c3bt index is an ordinary crit-bit (binary trie keyed on the first
// differing bit between two keys) flattened into fixed-size [Cell]s of up
// to 8 internal nodes each, so that a cluster of nodes belonging to one
// contiguous subtree shares a single fixed-size allocation (112 bytes on a
// 64-bit platform, since the nine pointer slots hold full machine
// addresses; a cell does not fit one 64-byte cache line). A child of a node
// is a one-byte [Child] tagged reference: another node in the same cell,
// a user record reached through the cell's pointer array, or a sub-cell
// reached through the same array.
//
// Three maintenance protocols keep every non-root cell's population
// between 1 and 8 nodes as records are added and removed: push-down moves
// one node out of a full cell into an adjoining sub-cell that has room;
// split partitions a full cell's subtree into two cells; merge-up folds an
// under-populated cell back into its parent when they jointly fit one
// cell. These three operations, and the tagged-reference encoding that
// makes the compact layout possible, are this package's reason to exist.
//
// # Usage
//
//	var t c3bt.Tree[Record]
//	t.Init(c3bt.U32(), unsafe.Offsetof(Record{}.Key), 32)
//
//	t.Add(&Record{Key: 7})
//	if r, ok := t.FindU32(7); ok {
//		_ = r
//	}
//
//	for k, r := range t.All() {
//		_ = k
//		_ = r
//	}
//
// # Memory management
//
// Cells are allocated from an [arena.Recycled] and returned to it on
// push-up, merge-up, and [Tree.Destroy]; a [Tree] never allocates or frees
// the user records it indexes.
//
// # Concurrency
//
// A [Tree] has no internal synchronization. All public operations mutate
// and must be serialized by the caller.
package c3bt
