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
	"fmt"
	"strings"
)

// Nibble is a 4-bit unsigned integer in the range 0-F. It is a single letter
// used to navigate in the MPT structure.
type Nibble byte

// Rune converts a Nibble in a hexa-decimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	} else if n < 16 {
		return rune('a' + n - 10)
	} else {
		return '?'
	}
}

// String converts a Nibble in a hexa-decimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}

// BytesToNibbles expands each byte of the input into two nibbles, the high
// nibble first. The result is twice as long as the input.
func BytesToNibbles(src []byte) []Nibble {
	res := make([]Nibble, len(src)*2)
	parseNibbles(res, src)
	return res
}

func parseNibbles(dst []Nibble, src []byte) {
	for i := 0; i < len(src); i++ {
		dst[2*i] = Nibble(src[i] >> 4)
		dst[2*i+1] = Nibble(src[i] & 0xF)
	}
}

// NibblesToBytes packs pairs of nibbles into bytes, the first nibble of each
// pair forming the high half. It is the inverse of BytesToNibbles. Odd-length
// inputs are rejected with ErrOddLength; use EncodeCompactPath to serialize
// paths of arbitrary length.
func NibblesToBytes(nibbles []Nibble) ([]byte, error) {
	if len(nibbles)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d nibbles", ErrOddLength, len(nibbles))
	}
	if err := checkNibbles(nibbles); err != nil {
		return nil, err
	}
	res := make([]byte, len(nibbles)/2)
	for i := range res {
		res[i] = byte(nibbles[2*i])<<4 | byte(nibbles[2*i+1])
	}
	return res, nil
}

// checkNibbles verifies that all elements are in the range [0,15].
func checkNibbles(nibbles []Nibble) error {
	for i, n := range nibbles {
		if n > 0xF {
			return fmt.Errorf("%w: %d at position %d", ErrInvalidNibble, byte(n), i)
		}
	}
	return nil
}

// formatNibbles renders a nibble sequence as a hex string.
func formatNibbles(nibbles []Nibble) string {
	if len(nibbles) == 0 {
		return "-empty-"
	}
	builder := strings.Builder{}
	for _, n := range nibbles {
		builder.WriteRune(n.Rune())
	}
	builder.WriteString(fmt.Sprintf(" : %d", len(nibbles)))
	return builder.String()
}

// ----------------------------------------------------------------------------
//                          Compact Path Encoding
// ----------------------------------------------------------------------------

// The compact (hex-prefix) encoding defined in Appendix C of Ethereum's
// yellow paper packs a nibble path of arbitrary length into bytes. The high
// nibble of the first byte holds two flags: bit 1 marks paths terminating in
// a value (leaf paths), bit 0 marks an odd number of nibbles. For odd paths
// the low nibble of the first byte holds the first nibble of the path,
// otherwise it is zero. The remaining nibbles are packed pairwise.

const (
	compactTerminatorFlag = 0b10
	compactOddFlag        = 0b01
)

// EncodeCompactPath packs the given path using the hex-prefix encoding. The
// terminating flag should be set for leaf paths. Paths containing values
// outside [0,15] are rejected with ErrInvalidNibble.
func EncodeCompactPath(path []Nibble, terminating bool) ([]byte, error) {
	if err := checkNibbles(path); err != nil {
		return nil, err
	}
	return encodeCompactPath(path, terminating), nil
}

// encodeCompactPath is EncodeCompactPath for paths known to be valid, such as
// the paths of constructed nodes.
func encodeCompactPath(path []Nibble, terminating bool) []byte {
	res := make([]byte, getEncodedCompactPathSize(len(path)))
	flags := byte(0)
	if terminating {
		flags |= compactTerminatorFlag
	}
	if len(path)%2 == 1 {
		flags |= compactOddFlag
		res[0] = byte(path[0])
		path = path[1:]
	}
	res[0] |= flags << 4
	for i := 0; i < len(path); i += 2 {
		res[1+i/2] = byte(path[i])<<4 | byte(path[i+1])
	}
	return res
}

// DecodeCompactPath is the inverse of EncodeCompactPath.
func DecodeCompactPath(encoded []byte) ([]Nibble, bool, error) {
	if len(encoded) == 0 {
		return nil, false, fmt.Errorf("%w: empty compact path", ErrInvalidEncoding)
	}
	flags := encoded[0] >> 4
	if flags > compactTerminatorFlag|compactOddFlag {
		return nil, false, fmt.Errorf("%w: invalid compact path flags %d", ErrInvalidEncoding, flags)
	}
	odd := flags&compactOddFlag != 0
	if !odd && encoded[0]&0xF != 0 {
		return nil, false, fmt.Errorf("%w: non-zero padding in even compact path", ErrInvalidEncoding)
	}
	res := make([]Nibble, 0, len(encoded)*2)
	if odd {
		res = append(res, Nibble(encoded[0]&0xF))
	}
	res = append(res, BytesToNibbles(encoded[1:])...)
	return res, flags&compactTerminatorFlag != 0, nil
}

func getEncodedCompactPathSize(numNibbles int) int {
	return numNibbles/2 + 1
}

// ----------------------------------------------------------------------------
//                               Utilities
// ----------------------------------------------------------------------------

// GetCommonPrefixLength computes the length of the common prefix of the given
// Nibble-slices.
func GetCommonPrefixLength(a, b []Nibble) int {
	lengthA := len(a)
	if lengthA > len(b) {
		return GetCommonPrefixLength(b, a)
	}
	for i := 0; i < lengthA; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return lengthA
}

// IsPrefixOf tests whether one Nibble slice is the prefix of another.
func IsPrefixOf(a, b []Nibble) bool {
	return len(a) <= len(b) && GetCommonPrefixLength(a, b) == len(a)
}
