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

import "fmt"

// HashSize is the number of bytes of a Keccak-256 digest.
const HashSize = 32

// Hash is a 32-byte digest authenticating the content of a trie node.
type Hash [HashSize]byte

// String renders the hash as a 0x-prefixed hex string.
func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// IsZero reports whether all bytes of the hash are zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromBytes copies the given slice into a Hash. It fails if the slice
// does not have exactly HashSize bytes.
func HashFromBytes(data []byte) (Hash, error) {
	var res Hash
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length %d, expected %d", len(data), HashSize)
	}
	copy(res[:], data)
	return res, nil
}
