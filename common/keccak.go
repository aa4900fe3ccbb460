// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

// keccakHasher is the subset of the sha3 state used for computing digests.
type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

// Keccak256 computes the legacy Keccak-256 digest of the given data as used
// by Ethereum. It is safe for concurrent use.
func Keccak256(data []byte) Hash {
	return Keccak256Of(data)
}

// Keccak256Of computes the Keccak-256 digest of the concatenation of the
// given fragments without materializing the concatenation.
func Keccak256Of(fragments ...[]byte) Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	for _, fragment := range fragments {
		hasher.Write(fragment)
	}
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// EmptyKeccak256Hash is the Keccak-256 digest of the empty byte string.
var EmptyKeccak256Hash = Keccak256(nil)
