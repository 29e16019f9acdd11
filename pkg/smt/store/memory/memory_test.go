// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
	"github.com/treestone/smtstore/pkg/smt/store/storetest"
)

func open(testing.TB) storetest.Opener {
	// Reuse the same store each time; keys are random so suites don't
	// interfere
	s := New(smt.SHA256Hasher)
	return func() (store.Store, error) { return s, nil }
}

func TestSuite(t *testing.T) {
	storetest.TestStore(t, smt.SHA256Hasher, open(t))
}

func TestLen(t *testing.T) {
	s := New(smt.SHA256Hasher)

	key := smt.H256{0: 1}
	require.NoError(t, s.InsertLeaf(key, smt.H256{0: 2}))
	require.NoError(t, s.InsertLeaf(key, smt.H256{0: 3}))

	branches, leaves := s.Len()
	require.Zero(t, branches)
	require.Equal(t, 1, leaves)
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
