// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treestone/smtstore/pkg/smt"
)

func BenchmarkInsertLeaf(b *testing.B, open Opener) {
	s := openStore(b, open)

	keys := make([]smt.H256, b.N)
	values := make([]smt.H256, b.N)
	for i := range keys {
		keys[i] = randH256(b)
		values[i] = randH256(b)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := s.InsertLeaf(keys[i], values[i])
		require.NoError(b, err, "InsertLeaf")
	}
}

func BenchmarkGetLeaf(b *testing.B, open Opener) {
	const N = 1000

	// Populate
	s := openStore(b, open)

	keys := make([]smt.H256, N)
	for i := range keys {
		keys[i] = randH256(b)
		err := s.InsertLeaf(keys[i], randH256(b))
		require.NoError(b, err, "InsertLeaf")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := s.GetLeaf(keys[i%N])
		require.NoError(b, err, "GetLeaf")
	}
}

func BenchmarkInsertBranch(b *testing.B, open Opener) {
	s := openStore(b, open)

	keys := make([]smt.BranchKey, b.N)
	nodes := make([]smt.BranchNode, b.N)
	for i := range keys {
		keys[i] = smt.BranchKey{Height: i % 256, NodeKey: randH256(b)}
		nodes[i] = randBranch(b)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := s.InsertBranch(keys[i], nodes[i])
		require.NoError(b, err, "InsertBranch")
	}
}
