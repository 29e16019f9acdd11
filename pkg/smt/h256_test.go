// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package smt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestH256FromSlice(t *testing.T) {
	v := randH256(t)
	got, ok := H256FromSlice(v.Bytes())
	require.True(t, ok)
	require.Equal(t, v, got)

	// Anything but exactly 32 bytes is rejected
	for _, n := range []int{0, 31, 33} {
		_, ok := H256FromSlice(make([]byte, n))
		require.False(t, ok, "length %d", n)
	}
}

func TestH256Compare(t *testing.T) {
	a := H256{0: 1}
	b := H256{0: 2}
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a))
}

func TestH256Zero(t *testing.T) {
	require.True(t, ZeroH256.IsZero())
	require.False(t, randH256(t).IsZero())
}
