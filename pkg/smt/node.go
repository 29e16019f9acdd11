// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package smt defines the value types shared between a sparse Merkle tree
// implementation and its stores: 256-bit hashes, merge values, and branch
// nodes. The tree algorithm itself lives elsewhere; this package carries
// only what must cross the storage boundary.
package smt

// A BranchKey locates one internal node of the tree: the node's key at a
// given height. Height is an int rather than a byte so that stores can
// reject out-of-range heights instead of silently aliasing rows; the valid
// domain is [0, 255].
type BranchKey struct {
	Height  int
	NodeKey H256
}

// A BranchNode is the pair of children of an internal node. Both children
// are always present; a node whose children are both zero is semantically
// absent and should not be persisted.
type BranchNode struct {
	Left  MergeValue
	Right MergeValue
}
