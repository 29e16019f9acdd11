// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package smt

// Domain tags prefixed to merge hashes, matching the tree's merge encoding.
const (
	mergeNormal byte = 1
	mergeZeros  byte = 2
)

// A MergeValue is one child reference of a branch node: either a plain
// 256-bit hash, or a merge-with-zero composite that compacts a run of zero
// siblings below the child.
//
// Stores persist only the 32-byte digest of a MergeValue. Reading a branch
// back therefore always yields the plain-hash form, even if the composite
// form was written — the store is a digest cache, not a structural
// serializer.
type MergeValue struct {
	value     H256
	baseNode  H256
	zeroBits  H256
	zeroCount byte
	zeros     bool
}

// MergeValueFromH256 returns the plain-hash form of v.
func MergeValueFromH256(v H256) MergeValue {
	return MergeValue{value: v}
}

// MergeWithZero returns the composite form: a base node merged with
// zeroCount zero siblings along the path bits in zeroBits.
func MergeWithZero(baseNode, zeroBits H256, zeroCount byte) MergeValue {
	return MergeValue{baseNode: baseNode, zeroBits: zeroBits, zeroCount: zeroCount, zeros: true}
}

// IsZero reports whether the value is the canonical zero. The composite
// form is never zero.
func (v MergeValue) IsZero() bool {
	return !v.zeros && v.value == ZeroH256
}

// Hash reduces the value to its 32-byte digest. The plain form is its own
// digest. The composite form hashes its fields behind the merge-with-zero
// domain tag.
func (v MergeValue) Hash(newHasher NewHasher) H256 {
	if !v.zeros {
		return v.value
	}
	h := newHasher()
	h.Update([]byte{mergeZeros})
	h.Update(v.baseNode[:])
	h.Update(v.zeroBits[:])
	h.Update([]byte{v.zeroCount})
	return h.SumH256()
}
