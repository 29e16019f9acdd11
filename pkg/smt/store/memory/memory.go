// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package memory provides a map-backed store. It is the reference
// implementation of the store contract and the default backend for tests.
package memory

import (
	"sync"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
)

// branch holds the persisted form of a branch node: the child digests.
type branch struct {
	left  smt.H256
	right smt.H256
}

// Store is a map-backed smt store. Unlike the disk backends it is safe for
// concurrent use, since the maps would otherwise be a hazard even in tests.
type Store struct {
	mu        sync.RWMutex
	newHasher smt.NewHasher
	branches  map[smt.BranchKey]branch
	leaves    map[smt.H256]smt.H256
}

var _ store.Store = (*Store)(nil)

// New returns an empty store that reduces merge values with newHasher.
func New(newHasher smt.NewHasher) *Store {
	return &Store{
		newHasher: newHasher,
		branches:  map[smt.BranchKey]branch{},
		leaves:    map[smt.H256]smt.H256{},
	}
}

// GetBranch returns the branch stored at key, or nil if there is none.
func (s *Store) GetBranch(key smt.BranchKey) (*smt.BranchNode, error) {
	if err := store.ValidateBranchKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[key]
	if !ok {
		return nil, nil
	}
	return &smt.BranchNode{
		Left:  smt.MergeValueFromH256(b.left),
		Right: smt.MergeValueFromH256(b.right),
	}, nil
}

// GetLeaf returns the value stored at the leaf key, or nil if there is
// none.
func (s *Store) GetLeaf(key smt.H256) (*smt.H256, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.leaves[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// InsertBranch writes the branch at key, replacing any existing entry.
func (s *Store) InsertBranch(key smt.BranchKey, node smt.BranchNode) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[key] = branch{
		left:  node.Left.Hash(s.newHasher),
		right: node.Right.Hash(s.newHasher),
	}
	return nil
}

// InsertLeaf writes the value at the leaf key, replacing any existing
// entry.
func (s *Store) InsertLeaf(key, value smt.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[key] = value
	return nil
}

// RemoveBranch deletes the branch at key if present.
func (s *Store) RemoveBranch(key smt.BranchKey) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.branches, key)
	return nil
}

// RemoveLeaf deletes the leaf at key if present.
func (s *Store) RemoveLeaf(key smt.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leaves, key)
	return nil
}

// Len returns the number of stored branches and leaves.
func (s *Store) Len() (branches, leaves int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.branches), len(s.leaves)
}
