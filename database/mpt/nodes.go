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
	"golang.org/x/exp/slices"
)

// This file defines the interface and implementation of all node types in a
// Merkle Patricia Trie (MPT). There are three different types of nodes:
//
//  - leaf nodes      ... terminal nodes holding the remaining path to a value
//  - extension nodes ... shortcuts for long-sequences of 1-child branches
//  - branch nodes    ... inner trie nodes splitting navigation paths
//
// All nodes are created dirty. Leaf and branch nodes cache their own hash
// once the hashing collaborator computed it; the cache is dropped whenever
// the node is modified or invalidated. Extension nodes do not cache a hash,
// their hash is derived from their path and the hash of their child each
// time it is needed. Nodes are exclusively owned by their parent; payload
// buffers passed in or handed out are always copied.
//
// Nodes perform no internal synchronization. Read-only accessors may be used
// concurrently, modifications require exclusive access by the caller.

// MaxPayloadLength is the maximum number of payload bytes of a node, limited
// by the single-byte length field of the node layout.
const MaxPayloadLength = 255

// Node defines an interface for all nodes in the MPT. The set of
// implementations is closed: *LeafNode, *ExtensionNode, and *BranchNode.
type Node interface {
	// Type returns the kind of this node. It never changes.
	Type() NodeType

	// IsDirty returns whether this node's hash needs to be recomputed before
	// it can be trusted or persisted. All nodes are created dirty.
	IsDirty() bool

	// Header returns the packed type and dirty flag of this node.
	Header() Header

	// Payload returns a copy of the variable-length content of this node:
	// the path nibbles for leaf and extension nodes, one nibble per byte,
	// and the packed child bitmap for branch nodes.
	Payload() []byte

	// PayloadLength returns the number of bytes of the payload.
	PayloadLength() int

	// SetPayload replaces the payload of this node, subject to the same
	// constraints as the node's constructor. The node becomes dirty. On
	// failure the node remains unmodified.
	SetPayload([]byte) error

	// Invalidate marks this node dirty, for instance because the hash of a
	// referenced child node has changed.
	Invalidate()

	// Copy creates an independent deep copy of this node, including its
	// current hash status.
	Copy() Node

	// String produces a short, human-readable summary of the node.
	String() string

	// sealed restricts implementations to this package.
	sealed()
}

// HashedNode is implemented by node types caching their own hash, which are
// leaf and branch nodes.
type HashedNode interface {
	Node

	// GetCachedHash returns the cached hash of this node. It fails with
	// ErrStaleHash if the node is dirty.
	GetCachedHash() (common.Hash, error)

	// MarkClean stores the given hash and marks the node clean. It must only
	// be called with a hash freshly computed from the node's current content.
	// If the node is already clean, the call is a no-op for the same hash and
	// fails with ErrHashMismatch otherwise.
	MarkClean(common.Hash) error
}

// NewNode creates a dirty node of the given type from a payload as returned
// by Node.Payload.
func NewNode(t NodeType, payload []byte) (Node, error) {
	switch t {
	case Leaf, Extension:
		path, err := payloadToPath(payload)
		if err != nil {
			return nil, err
		}
		if t == Leaf {
			leaf, err := NewLeaf(path)
			if err != nil {
				return nil, err
			}
			return leaf, nil
		}
		extension, err := NewExtension(path)
		if err != nil {
			return nil, err
		}
		return extension, nil
	case Branch:
		bitmap, err := payloadToBitmap(payload)
		if err != nil {
			return nil, err
		}
		branch, err := NewBranch(bitmap)
		if err != nil {
			return nil, err
		}
		return branch, nil
	default:
		return nil, fmt.Errorf("%w: unknown node type %d", ErrInvalidEncoding, byte(t))
	}
}

// ----------------------------------------------------------------------------
//                               Hash Cache
// ----------------------------------------------------------------------------

// hashCache is the common base of nodes caching their own hash. The node is
// clean iff a hash is present.
type hashCache struct {
	hash *common.Hash // nil while the node is dirty
}

func (c *hashCache) IsDirty() bool {
	return c.hash == nil
}

func (c *hashCache) GetCachedHash() (common.Hash, error) {
	if c.hash == nil {
		return common.Hash{}, ErrStaleHash
	}
	return *c.hash, nil
}

func (c *hashCache) MarkClean(hash common.Hash) error {
	if c.hash != nil {
		if *c.hash == hash {
			return nil
		}
		return fmt.Errorf("%w: node already clean with hash %v, got %v", ErrHashMismatch, *c.hash, hash)
	}
	c.hash = &hash
	return nil
}

func (c *hashCache) Invalidate() {
	c.hash = nil
}

func (c *hashCache) copy() hashCache {
	if c.hash == nil {
		return hashCache{}
	}
	hash := *c.hash
	return hashCache{hash: &hash}
}

func (c *hashCache) status() string {
	if c.hash == nil {
		return "dirty"
	}
	return fmt.Sprintf("clean, hash: %v", *c.hash)
}

// ----------------------------------------------------------------------------
//                               Leaf Node
// ----------------------------------------------------------------------------

// LeafNode is a terminal node holding the remaining path from its position
// in the trie to a value. The value itself is maintained outside of the node.
type LeafNode struct {
	hashCache
	path []Nibble
}

// NewLeaf creates a dirty leaf node covering the given path. The path may be
// empty but must not exceed MaxPayloadLength nibbles.
func NewLeaf(path []Nibble) (*LeafNode, error) {
	if err := checkPath(path); err != nil {
		return nil, fmt.Errorf("invalid leaf path: %w", err)
	}
	return &LeafNode{path: slices.Clone(path)}, nil
}

// NewLeafFromKey creates a leaf node for the nibble expansion of the given
// key bytes.
func NewLeafFromKey(key []byte) (*LeafNode, error) {
	return NewLeaf(BytesToNibbles(key))
}

func (n *LeafNode) Type() NodeType {
	return Leaf
}

func (n *LeafNode) Header() Header {
	return mustPackHeader(Leaf, n.IsDirty())
}

// Path returns a copy of the path covered by this leaf.
func (n *LeafNode) Path() []Nibble {
	return slices.Clone(n.path)
}

// SetPath replaces the path of this leaf node and marks it dirty.
func (n *LeafNode) SetPath(path []Nibble) error {
	if err := checkPath(path); err != nil {
		return fmt.Errorf("invalid leaf path: %w", err)
	}
	n.path = slices.Clone(path)
	n.Invalidate()
	return nil
}

func (n *LeafNode) Payload() []byte {
	return pathToPayload(n.path)
}

func (n *LeafNode) PayloadLength() int {
	return len(n.path)
}

func (n *LeafNode) SetPayload(payload []byte) error {
	path, err := payloadToPath(payload)
	if err != nil {
		return err
	}
	return n.SetPath(path)
}

func (n *LeafNode) Copy() Node {
	return &LeafNode{hashCache: n.hashCache.copy(), path: slices.Clone(n.path)}
}

func (n *LeafNode) String() string {
	return fmt.Sprintf("Leaf{path: %s, %s}", formatNibbles(n.path), n.status())
}

func (n *LeafNode) sealed() {}

// ----------------------------------------------------------------------------
//                              Extension Node
// ----------------------------------------------------------------------------

// ExtensionNode covers one or more Nibbles along the path from a root node
// to a leaf node in a trie. Extension nodes do not cache their hash; it is
// derived from the path and the hash of the single child whenever needed.
// Thus, a clean extension node only certifies that this derivation has been
// performed using the node's current content.
type ExtensionNode struct {
	path  []Nibble
	clean bool
}

// NewExtension creates a dirty extension node covering the given path. The
// path must not be empty and must not exceed MaxPayloadLength nibbles.
func NewExtension(path []Nibble) (*ExtensionNode, error) {
	if err := checkExtensionPath(path); err != nil {
		return nil, err
	}
	return &ExtensionNode{path: slices.Clone(path)}, nil
}

func (n *ExtensionNode) Type() NodeType {
	return Extension
}

func (n *ExtensionNode) IsDirty() bool {
	return !n.clean
}

func (n *ExtensionNode) Header() Header {
	return mustPackHeader(Extension, n.IsDirty())
}

// MarkClean marks this node clean. The hashing collaborator calls it after
// deriving the node's hash from its current path and child hash.
func (n *ExtensionNode) MarkClean() {
	n.clean = true
}

func (n *ExtensionNode) Invalidate() {
	n.clean = false
}

// Path returns a copy of the path covered by this extension.
func (n *ExtensionNode) Path() []Nibble {
	return slices.Clone(n.path)
}

// SetPath replaces the path of this extension node and marks it dirty.
func (n *ExtensionNode) SetPath(path []Nibble) error {
	if err := checkExtensionPath(path); err != nil {
		return err
	}
	n.path = slices.Clone(path)
	n.Invalidate()
	return nil
}

func (n *ExtensionNode) Payload() []byte {
	return pathToPayload(n.path)
}

func (n *ExtensionNode) PayloadLength() int {
	return len(n.path)
}

func (n *ExtensionNode) SetPayload(payload []byte) error {
	path, err := payloadToPath(payload)
	if err != nil {
		return err
	}
	return n.SetPath(path)
}

func (n *ExtensionNode) Copy() Node {
	return &ExtensionNode{path: slices.Clone(n.path), clean: n.clean}
}

func (n *ExtensionNode) String() string {
	status := "dirty"
	if n.clean {
		status = "clean"
	}
	return fmt.Sprintf("Extension{path: %s, %s}", formatNibbles(n.path), status)
}

func (n *ExtensionNode) sealed() {}

// ----------------------------------------------------------------------------
//                               Branch Node
// ----------------------------------------------------------------------------

// BranchNode implements a node consuming one Nibble along the path from the
// root to a leaf node in a trie. The Nibble is used to select one out of 16
// potential child nodes. Each BranchNode has at least 2 non-empty children.
// The children themselves are referenced by the trie, the node only retains
// the bitmap of present children.
type BranchNode struct {
	hashCache
	children ChildBitmap
}

// NewBranch creates a dirty branch node with the given children present.
func NewBranch(children ChildBitmap) (*BranchNode, error) {
	if err := checkBitmap(children); err != nil {
		return nil, err
	}
	return &BranchNode{children: children}, nil
}

// NewBranchFromChildren creates a dirty branch node for the given set of
// occupied child positions.
func NewBranchFromChildren(indices ...int) (*BranchNode, error) {
	bitmap, err := BitmapFromChildIndices(indices)
	if err != nil {
		return nil, err
	}
	return NewBranch(bitmap)
}

func (n *BranchNode) Type() NodeType {
	return Branch
}

func (n *BranchNode) Header() Header {
	return mustPackHeader(Branch, n.IsDirty())
}

// Bitmap returns the bitmap of present children.
func (n *BranchNode) Bitmap() ChildBitmap {
	return n.children
}

// SetBitmap replaces the set of present children and marks the node dirty.
func (n *BranchNode) SetBitmap(children ChildBitmap) error {
	if err := checkBitmap(children); err != nil {
		return err
	}
	n.children = children
	n.Invalidate()
	return nil
}

func (n *BranchNode) Payload() []byte {
	return []byte{n.children[0], n.children[1]}
}

func (n *BranchNode) PayloadLength() int {
	return ChildBitmapSize
}

func (n *BranchNode) SetPayload(payload []byte) error {
	bitmap, err := payloadToBitmap(payload)
	if err != nil {
		return err
	}
	return n.SetBitmap(bitmap)
}

func (n *BranchNode) Copy() Node {
	return &BranchNode{hashCache: n.hashCache.copy(), children: n.children}
}

func (n *BranchNode) String() string {
	return fmt.Sprintf("Branch{children: %v, %s}", n.children, n.status())
}

func (n *BranchNode) sealed() {}

// ----------------------------------------------------------------------------
//                            Payload Validation
// ----------------------------------------------------------------------------

func checkPath(path []Nibble) error {
	if len(path) > MaxPayloadLength {
		return fmt.Errorf("%w: %d nibbles, limit %d", ErrPayloadTooLarge, len(path), MaxPayloadLength)
	}
	return checkNibbles(path)
}

func checkExtensionPath(path []Nibble) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if err := checkPath(path); err != nil {
		return fmt.Errorf("invalid extension path: %w", err)
	}
	return nil
}

func checkBitmap(children ChildBitmap) error {
	if count := children.Count(); count < 2 {
		return fmt.Errorf("%w: %d children in %v", ErrEmptyBranch, count, children)
	}
	return nil
}

func pathToPayload(path []Nibble) []byte {
	res := make([]byte, len(path))
	for i, n := range path {
		res[i] = byte(n)
	}
	return res
}

func payloadToPath(payload []byte) ([]Nibble, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), MaxPayloadLength)
	}
	res := make([]Nibble, len(payload))
	for i, b := range payload {
		res[i] = Nibble(b)
	}
	return res, nil
}

func payloadToBitmap(payload []byte) (ChildBitmap, error) {
	if len(payload) > MaxPayloadLength {
		return ChildBitmap{}, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), MaxPayloadLength)
	}
	if len(payload) != ChildBitmapSize {
		return ChildBitmap{}, fmt.Errorf("%w: branch payload of %d bytes, expected %d", ErrInvalidEncoding, len(payload), ChildBitmapSize)
	}
	return ChildBitmap{payload[0], payload[1]}, nil
}
