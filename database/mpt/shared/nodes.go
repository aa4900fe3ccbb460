// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package shared

import (
	"fmt"

	"github.com/Fantom-foundation/mptnode/common"
	"github.com/Fantom-foundation/mptnode/database/mpt"
)

// ShareNode wraps the given node for concurrent access. The caller must not
// retain other references to the node.
func ShareNode(node mpt.Node) *Shared[mpt.Node] {
	return MakeShared(node)
}

// UpdateHash refreshes the hash of a shared node. It requires hash access,
// so concurrent readers of the node's content are not blocked.
func UpdateHash(node *Shared[mpt.Node], hasher mpt.Hasher, input mpt.HashInput) (common.Hash, error) {
	handle := node.GetHashHandle()
	defer handle.Release()
	return mpt.UpdateHash(handle.Get(), hasher, input)
}

// GetCachedHash reads the cached hash of a shared leaf or branch node.
func GetCachedHash(node *Shared[mpt.Node]) (common.Hash, error) {
	handle := node.GetViewHandle()
	defer handle.Release()
	hashed, ok := handle.Get().(mpt.HashedNode)
	if !ok {
		return common.Hash{}, fmt.Errorf("%v nodes do not cache hashes", handle.Get().Type())
	}
	return hashed.GetCachedHash()
}

// IsDirty reads the dirty flag of a shared node.
func IsDirty(node *Shared[mpt.Node]) bool {
	handle := node.GetViewHandle()
	defer handle.Release()
	return handle.Get().IsDirty()
}

// Encode produces the persistent encoding of a shared node.
func Encode(node *Shared[mpt.Node]) ([]byte, error) {
	handle := node.GetViewHandle()
	defer handle.Release()
	return mpt.NodeEncoder{}.Encode(handle.Get())
}

// SetPayload replaces the payload of a shared node. It requires exclusive
// access.
func SetPayload(node *Shared[mpt.Node], payload []byte) error {
	handle := node.GetWriteHandle()
	defer handle.Release()
	return handle.Get().SetPayload(payload)
}
