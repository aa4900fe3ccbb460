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

//go:generate mockgen -source hasher.go -destination hasher_mocks.go -package mpt

import (
	"fmt"

	"github.com/Fantom-foundation/mptnode/common"
	"github.com/Fantom-foundation/mptnode/database/mpt/rlp"
)

// ----------------------------------------------------------------------------
//                             Public Interfaces
// ----------------------------------------------------------------------------

// hashAlgorithm is the type of a configuration token selecting the algorithm
// to be used for hashing nodes. Its main application is to serve as a
// configuration parameter in the MptConfig.
type hashAlgorithm struct {
	Name         string
	createHasher func() Hasher
}

// NewHasher creates a hasher implementing this algorithm.
func (a hashAlgorithm) NewHasher() Hasher {
	return a.createHasher()
}

func (a hashAlgorithm) String() string {
	return a.Name
}

// DirectHashing is a simple, fast hashing algorithm which is taking a simple
// serialization of node content and the hashes of referenced nodes to compute
// the hash of individual nodes.
var DirectHashing = hashAlgorithm{
	Name:         "DirectHashing",
	createHasher: makeDirectHasher,
}

// EthereumLikeHashing computes State and Storage Trie hashes as defined in
// Ethereum's yellow paper.
// Child nodes are always referenced by their hash.
var EthereumLikeHashing = hashAlgorithm{
	Name:         "EthereumLikeHashing",
	createHasher: makeEthereumLikeHasher,
}

// Hasher computes node digests from node content and the digests of
// referenced child nodes. Implementations are stateless and safe for
// concurrent use. Paths must consist of valid nibbles, as the paths of
// constructed nodes do.
type Hasher interface {
	// HashLeaf computes the hash of a leaf with the given path and value.
	HashLeaf(path []Nibble, value []byte) common.Hash

	// HashExtension computes the hash of an extension with the given path
	// and the hash of its single child.
	HashExtension(path []Nibble, child common.Hash) common.Hash

	// HashBranch computes the hash of a branch. Only entries of children
	// listed in the bitmap are considered. A nil hashes array is treated
	// as holding zero hashes only.
	HashBranch(children ChildBitmap, hashes *[NumChildren]common.Hash) common.Hash
}

// HashInput carries the data a node's hash depends on beyond its own payload.
// Only the field matching the hashed node's type is consulted.
type HashInput struct {
	// Value is the value referenced by a leaf node.
	Value []byte
	// Child is the hash of the node referenced by an extension node.
	Child common.Hash
	// Children are the hashes of the children of a branch node. Entries of
	// absent children must be zero, entries of present children non-zero.
	Children *[NumChildren]common.Hash
}

// UpdateHash obtains the hash of the given node. Leaf and branch nodes
// holding a clean hash return it without consulting the hasher. Otherwise
// the hash is computed from the node's content and the given input and the
// node is marked clean. Extension nodes never cache their hash; it is
// recomputed on every call.
func UpdateHash(node Node, hasher Hasher, input HashInput) (common.Hash, error) {
	switch n := node.(type) {
	case *LeafNode:
		if hash, err := n.GetCachedHash(); err == nil {
			return hash, nil
		}
		hash := hasher.HashLeaf(n.path, input.Value)
		return hash, n.MarkClean(hash)

	case *ExtensionNode:
		hash := hasher.HashExtension(n.path, input.Child)
		n.MarkClean()
		return hash, nil

	case *BranchNode:
		if hash, err := n.GetCachedHash(); err == nil {
			return hash, nil
		}
		if err := checkChildHashes(n.children, input.Children); err != nil {
			return common.Hash{}, err
		}
		hash := hasher.HashBranch(n.children, input.Children)
		return hash, n.MarkClean(hash)

	default:
		return common.Hash{}, fmt.Errorf("unsupported node type %T", node)
	}
}

func checkChildHashes(children ChildBitmap, hashes *[NumChildren]common.Hash) error {
	if hashes == nil {
		return fmt.Errorf("%w: no child hashes for branch %v", ErrHashMismatch, children)
	}
	for i, hash := range hashes {
		if children.Has(i) == hash.IsZero() {
			if hash.IsZero() {
				return fmt.Errorf("%w: missing hash of child %d", ErrHashMismatch, i)
			}
			return fmt.Errorf("%w: hash for absent child %d", ErrHashMismatch, i)
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
//                             Direct Hasher
// ----------------------------------------------------------------------------

// makeDirectHasher creates a hasher using a simple, direct node-value hashing
// algorithm that combines the content of individual nodes with the hashes of
// referenced child nodes into a hash for individual nodes.
func makeDirectHasher() Hasher {
	return directHasher{}
}

// directHasher hashes the node type tag, the length-prefixed payload, and
// the referenced data using Keccak-256.
type directHasher struct{}

func (directHasher) HashLeaf(path []Nibble, value []byte) common.Hash {
	return common.Keccak256Of(
		[]byte{byte(Leaf), byte(len(path))},
		pathToPayload(path),
		value,
	)
}

func (directHasher) HashExtension(path []Nibble, child common.Hash) common.Hash {
	return common.Keccak256Of(
		[]byte{byte(Extension), byte(len(path))},
		pathToPayload(path),
		child[:],
	)
}

func (directHasher) HashBranch(children ChildBitmap, hashes *[NumChildren]common.Hash) common.Hash {
	if hashes == nil {
		hashes = &[NumChildren]common.Hash{}
	}
	data := make([]byte, 0, 1+ChildBitmapSize+children.Count()*common.HashSize)
	data = append(data, byte(Branch))
	data = append(data, children[:]...)
	for _, i := range children.Indices() {
		data = append(data, hashes[i][:]...)
	}
	return common.Keccak256(data)
}

// ----------------------------------------------------------------------------
//                          Ethereum Like Hasher
// ----------------------------------------------------------------------------

func makeEthereumLikeHasher() Hasher {
	return ethHasher{}
}

// ethHasher hashes the RLP encoding of nodes as defined by Ethereum. The
// encoding of non-empty children is always replaced by their hash.
type ethHasher struct{}

func (ethHasher) HashLeaf(path []Nibble, value []byte) common.Hash {
	return common.Keccak256(rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.String{Str: encodeCompactPath(path, true)},
		rlp.String{Str: value},
	}}))
}

func (ethHasher) HashExtension(path []Nibble, child common.Hash) common.Hash {
	return common.Keccak256(rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.String{Str: encodeCompactPath(path, false)},
		rlp.Hash{Hash: &child},
	}}))
}

func (ethHasher) HashBranch(children ChildBitmap, hashes *[NumChildren]common.Hash) common.Hash {
	if hashes == nil {
		hashes = &[NumChildren]common.Hash{}
	}
	items := make([]rlp.Item, NumChildren+1)
	for i := 0; i < NumChildren; i++ {
		if children.Has(i) {
			items[i] = rlp.Hash{Hash: &hashes[i]}
		} else {
			items[i] = rlp.String{}
		}
	}
	// Branch nodes of this trie never carry a value.
	items[NumChildren] = rlp.String{}
	return common.Keccak256(rlp.Encode(rlp.List{Items: items}))
}
