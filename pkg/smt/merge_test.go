// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package smt

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func randH256(t testing.TB) H256 {
	t.Helper()
	var v H256
	_, err := io.ReadFull(rand.Reader, v[:])
	require.NoError(t, err)
	return v
}

func TestMergeValueHashPlain(t *testing.T) {
	// The plain form is its own digest, no hashing involved
	v := randH256(t)
	require.Equal(t, v, MergeValueFromH256(v).Hash(SHA256Hasher))
	require.Equal(t, v, MergeValueFromH256(v).Hash(Blake2b256Hasher))
}

func TestMergeValueHashComposite(t *testing.T) {
	base, bits := randH256(t), randH256(t)
	const count = byte(17)

	h := sha256.New()
	h.Write([]byte{2}) // merge-with-zero tag
	h.Write(base[:])
	h.Write(bits[:])
	h.Write([]byte{count})
	want, ok := H256FromSlice(h.Sum(nil))
	require.True(t, ok)

	got := MergeWithZero(base, bits, count).Hash(SHA256Hasher)
	require.Equal(t, want, got)
}

func TestMergeValueIsZero(t *testing.T) {
	require.True(t, MergeValueFromH256(ZeroH256).IsZero())
	require.False(t, MergeValueFromH256(randH256(t)).IsZero())

	// The composite form is never zero, even with zero fields
	require.False(t, MergeWithZero(ZeroH256, ZeroH256, 0).IsZero())
}

func TestHasherFreshState(t *testing.T) {
	// Each NewHasher call must start from a clean state
	v := MergeWithZero(randH256(t), randH256(t), 3)
	require.Equal(t, v.Hash(SHA256Hasher), v.Hash(SHA256Hasher))
	require.Equal(t, v.Hash(Blake2b256Hasher), v.Hash(Blake2b256Hasher))
	require.NotEqual(t, v.Hash(SHA256Hasher), v.Hash(Blake2b256Hasher))
}
