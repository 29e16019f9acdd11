// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package badger persists tree nodes in a Badger key-value database.
//
// Rows are flat byte strings: a branch row key is 'b' plus the height byte
// plus the node key, and its value is the two child digests concatenated.
// A leaf row key is 'l' plus the leaf key, and its value is the 32-byte
// leaf value.
package badger

import (
	"errors"
	"os"

	"github.com/dgraph-io/badger"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
)

const (
	branchPrefix = 'b'
	leafPrefix   = 'l'
)

// Store is a Badger-backed smt store.
type Store struct {
	badger    *badger.DB
	newHasher smt.NewHasher
}

var _ store.Store = (*Store)(nil)

// Open opens or creates a database in the given directory.
func Open(dir string, newHasher smt.NewHasher) (*Store, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, store.CodeBackend.WithFormat("open badger: create %q: %w", dir, err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(slogger{}))
	if err != nil {
		return nil, store.CodeBackend.WithFormat("open badger: %w", err)
	}

	mDbOpen.Inc()
	return &Store{badger: db, newHasher: newHasher}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	err := s.badger.Close()
	if err != nil {
		return store.CodeBackend.Wrap(err)
	}
	mDbOpen.Dec()
	return nil
}

func branchRowKey(key smt.BranchKey) []byte {
	b := make([]byte, 2+32)
	b[0] = branchPrefix
	b[1] = byte(key.Height)
	copy(b[2:], key.NodeKey[:])
	return b
}

func leafRowKey(key smt.H256) []byte {
	b := make([]byte, 1+32)
	b[0] = leafPrefix
	copy(b[1:], key[:])
	return b
}

func (s *Store) get(rowKey []byte) ([]byte, error) {
	var value []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, nil
	default:
		return nil, store.CodeBackend.WithFormat("get: %w", err)
	}
}

// GetBranch returns the branch stored at key, or nil if there is none.
func (s *Store) GetBranch(key smt.BranchKey) (*smt.BranchNode, error) {
	if err := store.ValidateBranchKey(key); err != nil {
		return nil, err
	}

	value, err := s.get(branchRowKey(key))
	if err != nil || value == nil {
		return nil, err
	}
	if len(value) != 64 {
		return nil, store.CodeCorruption.WithFormat("branch (%d, %v): row is %d bytes, want 64", key.Height, key.NodeKey, len(value))
	}

	left, _ := smt.H256FromSlice(value[:32])
	right, _ := smt.H256FromSlice(value[32:])
	return &smt.BranchNode{
		Left:  smt.MergeValueFromH256(left),
		Right: smt.MergeValueFromH256(right),
	}, nil
}

// GetLeaf returns the value stored at the leaf key, or nil if there is
// none.
func (s *Store) GetLeaf(key smt.H256) (*smt.H256, error) {
	raw, err := s.get(leafRowKey(key))
	if err != nil || raw == nil {
		return nil, err
	}

	value, ok := smt.H256FromSlice(raw)
	if !ok {
		return nil, store.CodeCorruption.WithFormat("leaf %v: value is %d bytes, want 32", key, len(raw))
	}
	return &value, nil
}

// InsertBranch writes the branch at key, replacing any existing row.
func (s *Store) InsertBranch(key smt.BranchKey, node smt.BranchNode) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}

	value := make([]byte, 0, 64)
	left := node.Left.Hash(s.newHasher)
	right := node.Right.Hash(s.newHasher)
	value = append(value, left[:]...)
	value = append(value, right[:]...)

	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set(branchRowKey(key), value)
	})
	if err != nil {
		return store.CodeBackend.WithFormat("insert branch: %w", err)
	}
	return nil
}

// InsertLeaf writes the value at the leaf key, replacing any existing row.
func (s *Store) InsertLeaf(key, value smt.H256) error {
	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set(leafRowKey(key), value.Bytes())
	})
	if err != nil {
		return store.CodeBackend.WithFormat("insert leaf: %w", err)
	}
	return nil
}

// RemoveBranch deletes the branch at key if present.
func (s *Store) RemoveBranch(key smt.BranchKey) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}

	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete(branchRowKey(key))
	})
	if err != nil {
		return store.CodeBackend.WithFormat("remove branch: %w", err)
	}
	return nil
}

// RemoveLeaf deletes the leaf at key if present.
func (s *Store) RemoveLeaf(key smt.H256) error {
	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete(leafRowKey(key))
	})
	if err != nil {
		return store.CodeBackend.WithFormat("remove leaf: %w", err)
	}
	return nil
}
