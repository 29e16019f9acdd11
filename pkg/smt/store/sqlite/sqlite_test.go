// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package sqlite

import (
	"crypto/rand"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
	"github.com/treestone/smtstore/pkg/smt/store/storetest"
)

func open(t testing.TB) storetest.Opener {
	dir := t.TempDir()
	return func() (store.Store, error) {
		return Open(filepath.Join(dir, "smt.db"), smt.SHA256Hasher)
	}
}

func openT(t testing.TB) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "smt.db"), smt.SHA256Hasher)
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

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smt.db")

	s, err := Open(path, smt.SHA256Hasher)
	require.NoError(t, err)
	key, value := randH256(t), randH256(t)
	require.NoError(t, s.InsertLeaf(key, value))
	require.NoError(t, s.Close())

	// Values survive a close and reopen
	s, err = Open(path, smt.SHA256Hasher)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	got, err := s.GetLeaf(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, value, *got)
}

func TestUpsertKeepsOneRow(t *testing.T) {
	s := openT(t)

	key := smt.BranchKey{Height: 7, NodeKey: randH256(t)}
	for i := 0; i < 3; i++ {
		node := smt.BranchNode{
			Left:  smt.MergeValueFromH256(randH256(t)),
			Right: smt.MergeValueFromH256(randH256(t)),
		}
		require.NoError(t, s.InsertBranch(key, node))
	}

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM branches_map WHERE height = ? AND node_key = ?`,
		key.Height, key.NodeKey[:]).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	leafKey := randH256(t)
	require.NoError(t, s.InsertLeaf(leafKey, randH256(t)))
	require.NoError(t, s.InsertLeaf(leafKey, randH256(t)))

	err = s.db.QueryRow(`SELECT COUNT(*) FROM leaves_map WHERE key = ?`, leafKey[:]).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCorruptBranch(t *testing.T) {
	s := openT(t)

	key := smt.BranchKey{Height: 1, NodeKey: randH256(t)}
	node := smt.BranchNode{
		Left:  smt.MergeValueFromH256(randH256(t)),
		Right: smt.MergeValueFromH256(randH256(t)),
	}
	require.NoError(t, s.InsertBranch(key, node))

	// Truncate the stored digest behind the store's back
	_, err := s.db.Exec(`UPDATE branches_map SET left_node = ? WHERE height = ? AND node_key = ?`,
		[]byte{0xde, 0xad}, key.Height, key.NodeKey[:])
	require.NoError(t, err)

	_, err = s.GetBranch(key)
	require.ErrorIs(t, err, store.CodeCorruption)
}

func TestCorruptLeaf(t *testing.T) {
	s := openT(t)

	key := randH256(t)
	require.NoError(t, s.InsertLeaf(key, randH256(t)))

	_, err := s.db.Exec(`UPDATE leaves_map SET value = ? WHERE key = ?`, []byte{0xbe, 0xef}, key[:])
	require.NoError(t, err)

	_, err = s.GetLeaf(key)
	require.ErrorIs(t, err, store.CodeCorruption)
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
