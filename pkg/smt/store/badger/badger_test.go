// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/stretchr/testify/require"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
	"github.com/treestone/smtstore/pkg/smt/store/storetest"
)

func open(t testing.TB) storetest.Opener {
	// One directory per opener; reopening the same directory must see the
	// same data
	dir := t.TempDir()
	return func() (store.Store, error) {
		return Open(dir, smt.SHA256Hasher)
	}
}

func openT(t testing.TB) *Store {
	s, err := Open(t.TempDir(), smt.SHA256Hasher)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func randH256(t testing.TB) smt.H256 {
	t.Helper()
	var v smt.H256
	_, err := io.ReadFull(rand.Reader, v[:])
	require.NoError(t, err)
	return v
}

func TestSuite(t *testing.T) {
	storetest.TestStore(t, smt.SHA256Hasher, open(t))
}

func TestCorruptBranch(t *testing.T) {
	s := openT(t)

	key := smt.BranchKey{Height: 5, NodeKey: randH256(t)}
	node := smt.BranchNode{
		Left:  smt.MergeValueFromH256(randH256(t)),
		Right: smt.MergeValueFromH256(randH256(t)),
	}
	require.NoError(t, s.InsertBranch(key, node))

	// Truncate the row behind the store's back
	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set(branchRowKey(key), []byte{0xde, 0xad})
	})
	require.NoError(t, err)

	_, err = s.GetBranch(key)
	require.ErrorIs(t, err, store.CodeCorruption)
}

func TestCorruptLeaf(t *testing.T) {
	s := openT(t)

	key := randH256(t)
	require.NoError(t, s.InsertLeaf(key, randH256(t)))

	err := s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set(leafRowKey(key), []byte{0xbe, 0xef})
	})
	require.NoError(t, err)

	_, err = s.GetLeaf(key)
	require.ErrorIs(t, err, store.CodeCorruption)
}

func TestRowKeysDisjoint(t *testing.T) {
	// A branch and a leaf sharing the same 32 bytes must not collide
	s := openT(t)

	shared := randH256(t)
	require.NoError(t, s.InsertLeaf(shared, randH256(t)))

	node, err := s.GetBranch(smt.BranchKey{Height: 0, NodeKey: shared})
	require.NoError(t, err)
	require.Nil(t, node)
}

func BenchmarkInsertLeaf(b *testing.B) {
	storetest.BenchmarkInsertLeaf(b, open(b))
}

func BenchmarkGetLeaf(b *testing.B) {
	storetest.BenchmarkGetLeaf(b, open(b))
}

func BenchmarkInsertBranch(b *testing.B) {
	storetest.BenchmarkInsertBranch(b, open(b))
}
