// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package smt

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// A Hasher accumulates bytes and produces a 32-byte digest. A fresh Hasher
// is used for each value hashed.
type Hasher interface {
	// Update absorbs p into the hash state.
	Update(p []byte)

	// SumH256 returns the digest of everything absorbed so far.
	SumH256() H256
}

// NewHasher constructs a fresh Hasher. Stores invoke it on every branch
// write to reduce merge values to digests, so all stores sharing a backend
// must be configured with the same NewHasher.
type NewHasher func() Hasher

// SHA256Hasher returns a SHA-256 Hasher.
func SHA256Hasher() Hasher { return hashAdapter{sha256.New()} }

// Blake2b256Hasher returns an unkeyed BLAKE2b-256 Hasher.
func Blake2b256Hasher() Hasher {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for oversized keys
		panic(err)
	}
	return hashAdapter{h}
}

type hashAdapter struct{ h hash.Hash }

func (a hashAdapter) Update(p []byte) { _, _ = a.h.Write(p) }

func (a hashAdapter) SumH256() H256 {
	var v H256
	a.h.Sum(v[:0])
	return v
}
