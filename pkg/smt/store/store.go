// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package store defines the persistence port a sparse Merkle tree calls,
// and the error taxonomy shared by its backends.
//
// Absence is not an error: sparse trees are mostly absent, so reads return
// a nil result for keys that have no row. Writes are upserts keyed by
// primary identity, and removes are idempotent so retry-after-timeout
// logic never surfaces a spurious failure.
package store

import (
	"github.com/treestone/smtstore/pkg/smt"
)

// A Store persists the branch and leaf nodes of a sparse Merkle tree. The
// tree algorithm owns all lifecycle decisions; a store is purely reactive.
//
// Implementations wrap a single session and are not required to be safe
// for concurrent use. A store shared across goroutines must be guarded by
// the caller. Within one store, a write followed by a read observes the
// write; no guarantee is made across stores sharing a backend.
type Store interface {
	// GetBranch returns the branch stored at key, or nil if there is
	// none. Both children of the returned node are in the plain-hash
	// form regardless of the form that was inserted.
	GetBranch(key smt.BranchKey) (*smt.BranchNode, error)

	// GetLeaf returns the value stored at the leaf key, or nil if there
	// is none.
	GetLeaf(key smt.H256) (*smt.H256, error)

	// InsertBranch writes the branch at key, replacing any existing row.
	// Both children are reduced to their 32-byte digests before the
	// write; the composite merge-value form is never persisted.
	InsertBranch(key smt.BranchKey, node smt.BranchNode) error

	// InsertLeaf writes the value at the leaf key, replacing any
	// existing row.
	InsertLeaf(key, value smt.H256) error

	// RemoveBranch deletes the branch at key if present. Removing an
	// absent key is not an error.
	RemoveBranch(key smt.BranchKey) error

	// RemoveLeaf deletes the leaf at key if present. Removing an absent
	// key is not an error.
	RemoveLeaf(key smt.H256) error
}

// MaxHeight is the deepest branch height a store accepts.
const MaxHeight = 255

// ValidateBranchKey rejects keys whose height falls outside [0,
// MaxHeight]. Backends call this before any operation reaches the medium:
// an out-of-range height that was truncated instead would silently alias
// another row, which has no natural detection point downstream.
func ValidateBranchKey(key smt.BranchKey) error {
	if key.Height < 0 || key.Height > MaxHeight {
		return CodeInvalidKey.WithFormat("branch height %d outside [0, %d]", key.Height, MaxHeight)
	}
	return nil
}
