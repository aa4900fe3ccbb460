// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
)

// NumChildren is the number of child slots of a branch node, one for each
// possible value of the next nibble.
const NumChildren = 16

// ChildBitmapSize is the number of bytes of a packed ChildBitmap.
const ChildBitmapSize = 2

// ChildBitmap is the packed presence mask of the children of a branch node.
// Bit i, counting from the least significant bit of the big-endian encoded
// 16-bit value, is set iff child slot i is occupied.
type ChildBitmap [ChildBitmapSize]byte

// ChildBitmapFromUint16 creates a bitmap from its integer representation.
func ChildBitmapFromUint16(mask uint16) ChildBitmap {
	var res ChildBitmap
	binary.BigEndian.PutUint16(res[:], mask)
	return res
}

// BitmapFromChildIndices creates a bitmap with exactly the given child slots
// set. Duplicated indices are accepted, indices outside of [0,16) are
// rejected with ErrInvalidChildIndex.
func BitmapFromChildIndices(indices []int) (ChildBitmap, error) {
	mask := uint16(0)
	for _, index := range indices {
		if index < 0 || index >= NumChildren {
			return ChildBitmap{}, fmt.Errorf("%w: %d", ErrInvalidChildIndex, index)
		}
		mask |= 1 << index
	}
	return ChildBitmapFromUint16(mask), nil
}

// Uint16 returns the integer representation of this bitmap.
func (b ChildBitmap) Uint16() uint16 {
	return binary.BigEndian.Uint16(b[:])
}

// Has reports whether the given child slot is occupied. Positions outside of
// the valid range are never occupied.
func (b ChildBitmap) Has(index int) bool {
	if index < 0 || index >= NumChildren {
		return false
	}
	return b.Uint16()&(1<<index) != 0
}

// Count returns the number of occupied child slots.
func (b ChildBitmap) Count() int {
	return bits.OnesCount16(b.Uint16())
}

// Indices lists the occupied child slots in ascending order. It is the
// inverse of BitmapFromChildIndices.
func (b ChildBitmap) Indices() []int {
	mask := b.Uint16()
	res := make([]int, 0, bits.OnesCount16(mask))
	for mask != 0 {
		index := bits.TrailingZeros16(mask)
		res = append(res, index)
		mask &^= 1 << index
	}
	return res
}

func (b ChildBitmap) String() string {
	builder := strings.Builder{}
	builder.WriteRune('{')
	for i, index := range b.Indices() {
		if i > 0 {
			builder.WriteRune(',')
		}
		builder.WriteRune(Nibble(index).Rune())
	}
	builder.WriteRune('}')
	return builder.String()
}
