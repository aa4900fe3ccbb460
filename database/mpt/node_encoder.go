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

	"github.com/Fantom-foundation/mptnode/common"
)

// NodeEncoder serializes clean nodes into the persistent node layout:
//
//	byte 0          ... the packed header, dirty flag cleared
//	bytes 1..32     ... the cached hash, for leaf and branch nodes only
//	next byte       ... the payload length
//	remaining bytes ... the payload
//
// Dirty nodes are never persisted. Decoded nodes are clean.
type NodeEncoder struct{}

const (
	headerSize        = 1
	payloadLengthSize = 1
)

// hasHashField determines whether the persistent layout of the given node
// type includes a hash.
func hasHashField(t NodeType) bool {
	return t == Leaf || t == Branch
}

// GetEncodedSize returns the number of bytes required for encoding the node.
func (NodeEncoder) GetEncodedSize(node Node) int {
	size := headerSize + payloadLengthSize + node.PayloadLength()
	if hasHashField(node.Type()) {
		size += common.HashSize
	}
	return size
}

// Store encodes the given node into dst and returns the number of bytes
// written. The node must be clean and dst must be large enough to hold
// GetEncodedSize(node) bytes.
func (e NodeEncoder) Store(dst []byte, node Node) (int, error) {
	if node.IsDirty() {
		return 0, fmt.Errorf("%w: %v", ErrDirtyNode, node)
	}
	size := e.GetEncodedSize(node)
	if len(dst) < size {
		return 0, fmt.Errorf("%w: buffer of %d bytes, need %d", ErrTruncated, len(dst), size)
	}
	dst[0] = byte(node.Header().Clean())
	pos := headerSize
	if hashed, ok := node.(HashedNode); ok {
		hash, err := hashed.GetCachedHash()
		if err != nil {
			return 0, err
		}
		copy(dst[pos:], hash[:])
		pos += common.HashSize
	}
	payload := node.Payload()
	dst[pos] = byte(len(payload))
	pos += payloadLengthSize
	pos += copy(dst[pos:], payload)
	return pos, nil
}

// Encode is a convenience wrapper of Store allocating the target buffer.
func (e NodeEncoder) Encode(node Node) ([]byte, error) {
	res := make([]byte, e.GetEncodedSize(node))
	if _, err := e.Store(res, node); err != nil {
		return nil, err
	}
	return res, nil
}

// Decode restores a node from its encoding. The input must contain exactly
// one encoded node. The resulting node is owned by the caller and does not
// alias src.
func (NodeEncoder) Decode(src []byte) (Node, error) {
	if len(src) < headerSize {
		return nil, fmt.Errorf("%w: missing header", ErrTruncated)
	}
	header := Header(src[0])
	t, dirty, err := header.Unpack()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, fmt.Errorf("%w: persisted node marked dirty", ErrInvalidEncoding)
	}
	pos := headerSize

	var hash common.Hash
	if hasHashField(t) {
		if len(src) < pos+common.HashSize {
			return nil, fmt.Errorf("%w: missing hash of %v node", ErrTruncated, t)
		}
		copy(hash[:], src[pos:])
		pos += common.HashSize
	}

	if len(src) < pos+payloadLengthSize {
		return nil, fmt.Errorf("%w: missing payload length", ErrTruncated)
	}
	length := int(src[pos])
	pos += payloadLengthSize
	if len(src) < pos+length {
		return nil, fmt.Errorf("%w: payload of %d bytes, got %d", ErrTruncated, length, len(src)-pos)
	}
	if len(src) > pos+length {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEncoding, len(src)-pos-length)
	}

	node, err := NewNode(t, src[pos:pos+length])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	switch n := node.(type) {
	case HashedNode:
		if err := n.MarkClean(hash); err != nil {
			return nil, err
		}
	case *ExtensionNode:
		n.MarkClean()
	}
	return node, nil
}
