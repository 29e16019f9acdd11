// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package smt

import (
	"bytes"
	"encoding/hex"
)

// H256 is a 256-bit value, the key and digest width used throughout the
// tree. It is a plain value type: equality is byte equality and the zero
// value is the tree's canonical zero.
type H256 [32]byte

// ZeroH256 is the canonical zero value. Absent keys of a sparse tree map
// to it.
var ZeroH256 = H256{}

// H256FromSlice converts a byte slice to an H256. It returns false if the
// slice is not exactly 32 bytes.
func H256FromSlice(b []byte) (H256, bool) {
	var v H256
	if len(b) != 32 {
		return v, false
	}
	copy(v[:], b)
	return v, true
}

// Bytes returns a copy of the value as a slice.
func (v H256) Bytes() []byte { return bytes.Clone(v[:]) }

// IsZero reports whether the value is the canonical zero.
func (v H256) IsZero() bool { return v == ZeroH256 }

// Compare orders values lexicographically by byte content.
func (v H256) Compare(u H256) int { return bytes.Compare(v[:], u[:]) }

func (v H256) String() string { return hex.EncodeToString(v[:]) }
