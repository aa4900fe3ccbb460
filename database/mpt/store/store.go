// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

//go:generate mockgen -source store.go -destination store_mocks.go -package store

import (
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/mptnode/common"
	"github.com/Fantom-foundation/mptnode/database/mpt"
)

// NodeId identifies a node persisted in a NodeStore. Ids are assigned by the
// trie algorithm using the store.
type NodeId uint64

// NodeIdSize is the number of bytes of an encoded NodeId.
const NodeIdSize = 8

// Key returns the big-endian encoding of the id used as a database key.
// Keys of consecutive ids are ordered consecutively.
func (id NodeId) Key() []byte {
	res := make([]byte, NodeIdSize)
	binary.BigEndian.PutUint64(res, uint64(id))
	return res
}

func (id NodeId) String() string {
	return fmt.Sprintf("N-%d", uint64(id))
}

// NodeIdFromKey is the inverse of NodeId.Key.
func NodeIdFromKey(key []byte) (NodeId, error) {
	if len(key) != NodeIdSize {
		return 0, fmt.Errorf("invalid node key length %d, expected %d", len(key), NodeIdSize)
	}
	return NodeId(binary.BigEndian.Uint64(key)), nil
}

const (
	// ErrNotFound is reported when reading a node that is not present.
	ErrNotFound = common.ConstError("node not found")

	// ErrClosed is reported when accessing a store after it was closed.
	ErrClosed = common.ConstError("node store closed")
)

// NodeStore is a persistent collection of clean nodes. Nodes are stored in
// their persistent encoding, so dirty nodes are rejected with
// mpt.ErrDirtyNode and nodes obtained from a store are independent copies.
// Implementations are safe for concurrent use.
type NodeStore interface {
	// Get loads the node with the given id. It fails with ErrNotFound if no
	// such node is present.
	Get(id NodeId) (mpt.Node, error)

	// Set stores the given clean node under the given id, replacing any
	// previously stored node.
	Set(id NodeId, node mpt.Node) error

	// Delete removes the node with the given id. Deleting missing nodes is
	// not an error.
	Delete(id NodeId) error

	// Flush makes all modifications durable.
	Flush() error

	// Close flushes and releases the store. It may be called multiple times.
	Close() error
}

func encodeNode(id NodeId, node mpt.Node) ([]byte, error) {
	data, err := mpt.NodeEncoder{}.Encode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node %v: %w", id, err)
	}
	return data, nil
}

func decodeNode(id NodeId, data []byte) (mpt.Node, error) {
	node, err := mpt.NodeEncoder{}.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode node %v: %w", id, err)
	}
	return node, nil
}
