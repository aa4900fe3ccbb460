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

import "fmt"

// NodeType enumerates the kinds of nodes in the trie.
type NodeType byte

const (
	Leaf NodeType = iota
	Extension
	Branch
)

// numNodeTypes is the number of valid node types. The tag value following
// the last valid type is reserved.
const numNodeTypes = 3

func (t NodeType) String() string {
	switch t {
	case Leaf:
		return "Leaf"
	case Extension:
		return "Extension"
	case Branch:
		return "Branch"
	default:
		return fmt.Sprintf("NodeType(%d)", byte(t))
	}
}

// IsValid reports whether t is one of Leaf, Extension, or Branch.
func (t NodeType) IsValid() bool {
	return t < numNodeTypes
}

// Header is the single-byte prefix of a node combining its type tag and its
// dirty flag. The bit layout is
//
//	bit 0    ... reserved, always written as 0 and ignored on read
//	bits 1-2 ... the node type (0 = Leaf, 1 = Extension, 2 = Branch, 3 = reserved)
//	bit 3    ... the dirty flag
//	bits 4-7 ... unused, always written as 0 and ignored on read
type Header byte

const (
	headerDirtyFlag = 0b0000_1000
	headerTypeMask  = 0b0000_0110
	headerTypeShift = 1
)

// PackHeader combines the given type and dirty flag into a header byte.
func PackHeader(t NodeType, dirty bool) (Header, error) {
	if !t.IsValid() {
		return 0, fmt.Errorf("%w: unknown node type %d", ErrInvalidEncoding, byte(t))
	}
	res := Header(byte(t) << headerTypeShift)
	if dirty {
		res |= headerDirtyFlag
	}
	return res, nil
}

// mustPackHeader is PackHeader for types known to be valid.
func mustPackHeader(t NodeType, dirty bool) Header {
	res, err := PackHeader(t, dirty)
	if err != nil {
		panic(err)
	}
	return res
}

// Unpack splits the header into its type and dirty flag. It fails with
// ErrInvalidEncoding if the header carries the reserved type tag.
func (h Header) Unpack() (NodeType, bool, error) {
	t := NodeType((h & headerTypeMask) >> headerTypeShift)
	if !t.IsValid() {
		return 0, false, fmt.Errorf("%w: reserved type tag in header 0x%02x", ErrInvalidEncoding, byte(h))
	}
	return t, h.IsDirty(), nil
}

// IsDirty returns the dirty flag of the header.
func (h Header) IsDirty() bool {
	return h&headerDirtyFlag != 0
}

// Clean returns a copy of this header with the dirty flag cleared.
func (h Header) Clean() Header {
	return h &^ headerDirtyFlag
}

func (h Header) String() string {
	t, dirty, err := h.Unpack()
	if err != nil {
		return fmt.Sprintf("Header(0x%02x, invalid)", byte(h))
	}
	if dirty {
		return fmt.Sprintf("%v(dirty)", t)
	}
	return fmt.Sprintf("%v(clean)", t)
}
