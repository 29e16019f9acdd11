// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package storetest is a conformance suite for store backends. Every
// backend runs the same suite; behavior that needs direct backend
// manipulation, such as corruption injection, lives in the backend's own
// tests.
package storetest

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
)

// An Opener opens a fresh store. The store must be configured with the
// same NewHasher passed to the suite.
type Opener = func() (store.Store, error)

type closableStore struct {
	store.Store
	t      testing.TB
	closed bool
}

func (c *closableStore) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if s, ok := c.Store.(io.Closer); ok {
		require.NoError(c.t, s.Close())
	}
}

func openStore(t testing.TB, open Opener) *closableStore {
	s, err := open()
	require.NoError(t, err)
	c := &closableStore{s, t, false}
	t.Cleanup(c.Close)
	return c
}

func randH256(t testing.TB) smt.H256 {
	t.Helper()
	var v smt.H256
	_, err := io.ReadFull(rand.Reader, v[:])
	require.NoError(t, err)
	return v
}

func randBranch(t testing.TB) smt.BranchNode {
	t.Helper()
	return smt.BranchNode{
		Left:  smt.MergeValueFromH256(randH256(t)),
		Right: smt.MergeValueFromH256(randH256(t)),
	}
}

// TestStore runs the conformance suite against a backend.
func TestStore(t *testing.T, newHasher smt.NewHasher, open Opener) {
	t.Run("BranchRoundTrip", func(t *testing.T) { testBranchRoundTrip(t, newHasher, open) })
	t.Run("LeafRoundTrip", func(t *testing.T) { testLeafRoundTrip(t, open) })
	t.Run("Absence", func(t *testing.T) { testAbsence(t, open) })
	t.Run("IdempotentRemove", func(t *testing.T) { testIdempotentRemove(t, open) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, newHasher, open) })
	t.Run("HeightBounds", func(t *testing.T) { testHeightBounds(t, open) })
}

// testBranchRoundTrip verifies that a branch written with one child in the
// composite merge-value form reads back as the pair of digests. The
// structured form is not recoverable; only digest equality is promised.
func testBranchRoundTrip(t *testing.T, newHasher smt.NewHasher, open Opener) {
	s := openStore(t, open)

	key := smt.BranchKey{Height: 10, NodeKey: randH256(t)}
	node := smt.BranchNode{
		Left:  smt.MergeValueFromH256(randH256(t)),
		Right: smt.MergeWithZero(randH256(t), randH256(t), 7),
	}
	require.NoError(t, s.InsertBranch(key, node))

	got, err := s.GetBranch(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, node.Left.Hash(newHasher), got.Left.Hash(newHasher))
	require.Equal(t, node.Right.Hash(newHasher), got.Right.Hash(newHasher))

	// The read-back form is the plain hash, so hashing it again must be a
	// fixed point
	require.Equal(t, got.Right.Hash(newHasher), smt.MergeValueFromH256(got.Right.Hash(newHasher)).Hash(newHasher))
}

func testLeafRoundTrip(t *testing.T, open Opener) {
	s := openStore(t, open)

	key, value := randH256(t), randH256(t)
	require.NoError(t, s.InsertLeaf(key, value))

	got, err := s.GetLeaf(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, value, *got)
}

func testAbsence(t *testing.T, open Opener) {
	s := openStore(t, open)

	node, err := s.GetBranch(smt.BranchKey{Height: 3, NodeKey: randH256(t)})
	require.NoError(t, err)
	require.Nil(t, node)

	value, err := s.GetLeaf(randH256(t))
	require.NoError(t, err)
	require.Nil(t, value)
}

func testIdempotentRemove(t *testing.T, open Opener) {
	s := openStore(t, open)

	// Removing keys that never existed is not an error
	key := smt.BranchKey{Height: 42, NodeKey: randH256(t)}
	require.NoError(t, s.RemoveBranch(key))
	require.NoError(t, s.RemoveBranch(key))

	leafKey := randH256(t)
	require.NoError(t, s.RemoveLeaf(leafKey))
	require.NoError(t, s.RemoveLeaf(leafKey))

	// Insert, remove, verify absent, remove again
	require.NoError(t, s.InsertBranch(key, randBranch(t)))
	require.NoError(t, s.RemoveBranch(key))
	node, err := s.GetBranch(key)
	require.NoError(t, err)
	require.Nil(t, node)
	require.NoError(t, s.RemoveBranch(key))

	require.NoError(t, s.InsertLeaf(leafKey, randH256(t)))
	require.NoError(t, s.RemoveLeaf(leafKey))
	value, err := s.GetLeaf(leafKey)
	require.NoError(t, err)
	require.Nil(t, value)
	require.NoError(t, s.RemoveLeaf(leafKey))
}

func testUpsert(t *testing.T, newHasher smt.NewHasher, open Opener) {
	s := openStore(t, open)

	key := smt.BranchKey{Height: 200, NodeKey: randH256(t)}
	n1, n2 := randBranch(t), randBranch(t)
	require.NoError(t, s.InsertBranch(key, n1))
	require.NoError(t, s.InsertBranch(key, n2))

	got, err := s.GetBranch(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, n2.Left.Hash(newHasher), got.Left.Hash(newHasher))
	require.Equal(t, n2.Right.Hash(newHasher), got.Right.Hash(newHasher))

	leafKey := randH256(t)
	v1, v2 := randH256(t), randH256(t)
	require.NoError(t, s.InsertLeaf(leafKey, v1))
	require.NoError(t, s.InsertLeaf(leafKey, v2))

	value, err := s.GetLeaf(leafKey)
	require.NoError(t, err)
	require.NotNil(t, value)
	require.Equal(t, v2, *value)
}

func testHeightBounds(t *testing.T, open Opener) {
	s := openStore(t, open)

	// Both ends of the valid domain round trip
	for _, height := range []int{0, store.MaxHeight} {
		key := smt.BranchKey{Height: height, NodeKey: randH256(t)}
		require.NoError(t, s.InsertBranch(key, randBranch(t)))
		node, err := s.GetBranch(key)
		require.NoError(t, err)
		require.NotNil(t, node)
	}

	// Out-of-range heights are rejected by every branch operation
	for _, height := range []int{-1, store.MaxHeight + 1} {
		key := smt.BranchKey{Height: height, NodeKey: randH256(t)}

		err := s.InsertBranch(key, randBranch(t))
		require.ErrorIs(t, err, store.CodeInvalidKey)

		_, err = s.GetBranch(key)
		require.ErrorIs(t, err, store.CodeInvalidKey)

		err = s.RemoveBranch(key)
		require.ErrorIs(t, err, store.CodeInvalidKey)
	}
}
