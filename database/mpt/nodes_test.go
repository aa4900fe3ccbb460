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
	"bytes"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/Fantom-foundation/mptnode/common"
)

// newTestNodes creates one dirty node of each type.
func newTestNodes(t *testing.T) []Node {
	t.Helper()
	leaf, err := NewLeaf(toNibbles(1, 2, 3))
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	extension, err := NewExtension(toNibbles(4, 5))
	if err != nil {
		t.Fatalf("failed to create extension: %v", err)
	}
	branch, err := NewBranchFromChildren(1, 5, 9)
	if err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	return []Node{leaf, extension, branch}
}

// markClean marks the given node clean using the given hash.
func markClean(t *testing.T, node Node, hash common.Hash) {
	t.Helper()
	switch n := node.(type) {
	case HashedNode:
		if err := n.MarkClean(hash); err != nil {
			t.Fatalf("failed to mark node clean: %v", err)
		}
	case *ExtensionNode:
		n.MarkClean()
	}
}

// ----------------------------------------------------------------------------
//                               General
// ----------------------------------------------------------------------------

func TestNodes_NewNodesAreDirty(t *testing.T) {
	for _, node := range newTestNodes(t) {
		if !node.IsDirty() {
			t.Errorf("new node %v should be dirty", node)
		}
		if !node.Header().IsDirty() {
			t.Errorf("header of new node %v should be dirty", node)
		}
	}
}

func TestNodes_TypesMatchConstructors(t *testing.T) {
	nodes := newTestNodes(t)
	want := []NodeType{Leaf, Extension, Branch}
	for i, node := range nodes {
		if got := node.Type(); got != want[i] {
			t.Errorf("unexpected type, wanted %v, got %v", want[i], got)
		}
		nodeType, _, err := node.Header().Unpack()
		if err != nil || nodeType != want[i] {
			t.Errorf("unexpected header type, wanted %v, got %v, err %v", want[i], nodeType, err)
		}
	}
}

func TestNodes_PayloadLengthMatchesPayload(t *testing.T) {
	for _, node := range newTestNodes(t) {
		if got, want := node.PayloadLength(), len(node.Payload()); got != want {
			t.Errorf("unexpected payload length of %v, wanted %d, got %d", node, want, got)
		}
	}
}

func TestNodes_SetPayloadMakesNodesDirty(t *testing.T) {
	payloads := map[NodeType][]byte{
		Leaf:      {7, 8},
		Extension: {9},
		Branch:    {0x80, 0x01},
	}
	for _, node := range newTestNodes(t) {
		markClean(t, node, common.Hash{1})
		if node.IsDirty() {
			t.Fatalf("node %v should be clean", node)
		}
		if err := node.SetPayload(payloads[node.Type()]); err != nil {
			t.Fatalf("failed to set payload: %v", err)
		}
		if !node.IsDirty() {
			t.Errorf("node %v should be dirty after payload update", node)
		}
		if got, want := node.Payload(), payloads[node.Type()]; !bytes.Equal(got, want) {
			t.Errorf("unexpected payload, wanted %v, got %v", want, got)
		}
		if hashed, ok := node.(HashedNode); ok {
			if _, err := hashed.GetCachedHash(); !errors.Is(err, ErrStaleHash) {
				t.Errorf("expected stale hash after payload update, got %v", err)
			}
		}
	}
}

func TestNodes_FailedSetPayloadKeepsNodeUnmodified(t *testing.T) {
	payloads := map[NodeType][]byte{
		Leaf:      make([]byte, MaxPayloadLength+1),
		Extension: {},
		Branch:    {0x00, 0x01},
	}
	for _, node := range newTestNodes(t) {
		markClean(t, node, common.Hash{1})
		before := node.Payload()
		if err := node.SetPayload(payloads[node.Type()]); err == nil {
			t.Errorf("invalid payload for %v should be rejected", node)
		}
		if node.IsDirty() {
			t.Errorf("failed update should not invalidate %v", node)
		}
		if got := node.Payload(); !bytes.Equal(got, before) {
			t.Errorf("failed update should not modify payload, wanted %v, got %v", before, got)
		}
	}
}

func TestNodes_InvalidateMakesNodesDirty(t *testing.T) {
	for _, node := range newTestNodes(t) {
		markClean(t, node, common.Hash{1})
		node.Invalidate()
		if !node.IsDirty() {
			t.Errorf("node %v should be dirty after invalidation", node)
		}
	}
}

func TestNodes_PayloadIsACopy(t *testing.T) {
	for _, node := range newTestNodes(t) {
		payload := node.Payload()
		payload[0] = 0x0F
		payload[len(payload)-1] = 0x0F
		if got := node.Payload(); bytes.Equal(got, payload) {
			t.Errorf("modifying the payload copy should not affect node %v", node)
		}
	}
}

func TestNodes_CopyIsIndependentAndKeepsHashStatus(t *testing.T) {
	for _, node := range newTestNodes(t) {
		markClean(t, node, common.Hash{1})
		clone := node.Copy()
		if clone.Type() != node.Type() || clone.IsDirty() != node.IsDirty() {
			t.Errorf("copy %v does not match original %v", clone, node)
		}
		if !bytes.Equal(clone.Payload(), node.Payload()) {
			t.Errorf("copy payload %v does not match original %v", clone.Payload(), node.Payload())
		}
		clone.Invalidate()
		if node.IsDirty() {
			t.Errorf("invalidating a copy should not affect the original %v", node)
		}
	}
}

func TestNodes_NewNodeCreatesNodesFromPayloads(t *testing.T) {
	for _, node := range newTestNodes(t) {
		restored, err := NewNode(node.Type(), node.Payload())
		if err != nil {
			t.Fatalf("failed to create node from payload: %v", err)
		}
		if restored.Type() != node.Type() || !restored.IsDirty() {
			t.Errorf("unexpected restored node %v", restored)
		}
		if !bytes.Equal(restored.Payload(), node.Payload()) {
			t.Errorf("unexpected restored payload, wanted %v, got %v", node.Payload(), restored.Payload())
		}
	}
}

func TestNodes_NewNodeRejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		payload  []byte
		err      error
	}{
		{NodeType(3), nil, ErrInvalidEncoding},
		{Leaf, make([]byte, MaxPayloadLength+1), ErrPayloadTooLarge},
		{Leaf, []byte{0x10}, ErrInvalidNibble},
		{Extension, nil, ErrEmptyPath},
		{Branch, []byte{0x01}, ErrInvalidEncoding},
		{Branch, []byte{0x00, 0x01}, ErrEmptyBranch},
	}
	for _, test := range tests {
		node, err := NewNode(test.nodeType, test.payload)
		if !errors.Is(err, test.err) {
			t.Errorf("expected %v for %v payload %v, got %v", test.err, test.nodeType, test.payload, err)
		}
		if node != nil {
			t.Errorf("failed creation should not produce a node, got %v", node)
		}
	}
}

func TestNodes_ConcurrentReadsAreSafe(t *testing.T) {
	nodes := newTestNodes(t)
	for _, node := range nodes {
		markClean(t, node, common.Hash{1})
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, node := range nodes {
				_ = node.IsDirty()
				_ = node.Type()
				_ = node.Payload()
				if hashed, ok := node.(HashedNode); ok {
					_, _ = hashed.GetCachedHash()
				}
			}
		}()
	}
	wg.Wait()
}

// ----------------------------------------------------------------------------
//                               Hash Cache
// ----------------------------------------------------------------------------

func TestHashedNodes_HashIsStaleUntilMarkedClean(t *testing.T) {
	for _, node := range newTestNodes(t) {
		hashed, ok := node.(HashedNode)
		if !ok {
			continue
		}
		if _, err := hashed.GetCachedHash(); !errors.Is(err, ErrStaleHash) {
			t.Errorf("expected ErrStaleHash for new node, got %v", err)
		}
		hash := common.Hash{1, 2, 3}
		if err := hashed.MarkClean(hash); err != nil {
			t.Fatalf("failed to mark node clean: %v", err)
		}
		if hashed.IsDirty() {
			t.Errorf("node should be clean")
		}
		got, err := hashed.GetCachedHash()
		if err != nil || got != hash {
			t.Errorf("unexpected cached hash, wanted %v, got %v, err %v", hash, got, err)
		}
	}
}

func TestHashedNodes_MarkCleanTwice(t *testing.T) {
	for _, node := range newTestNodes(t) {
		hashed, ok := node.(HashedNode)
		if !ok {
			continue
		}
		hash := common.Hash{1}
		if err := hashed.MarkClean(hash); err != nil {
			t.Fatalf("failed to mark node clean: %v", err)
		}
		if err := hashed.MarkClean(hash); err != nil {
			t.Errorf("marking clean with the same hash should be a no-op, got %v", err)
		}
		if err := hashed.MarkClean(common.Hash{2}); !errors.Is(err, ErrHashMismatch) {
			t.Errorf("expected ErrHashMismatch, got %v", err)
		}
		if got, _ := hashed.GetCachedHash(); got != hash {
			t.Errorf("failed mark-clean should not change the hash, got %v", got)
		}
	}
}

func TestHashedNodes_MarkCleanAfterInvalidationAcceptsNewHash(t *testing.T) {
	leaf, err := NewLeaf(toNibbles(1))
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	if err := leaf.MarkClean(common.Hash{1}); err != nil {
		t.Fatalf("failed to mark clean: %v", err)
	}
	leaf.Invalidate()
	if err := leaf.MarkClean(common.Hash{2}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got, _ := leaf.GetCachedHash(); got != (common.Hash{2}) {
		t.Errorf("unexpected hash %v", got)
	}
}

// ----------------------------------------------------------------------------
//                               Leaf Node
// ----------------------------------------------------------------------------

func TestLeafNode_PathLengthBoundary(t *testing.T) {
	if _, err := NewLeaf(make([]Nibble, MaxPayloadLength)); err != nil {
		t.Errorf("leaf with %d nibbles should be accepted, got %v", MaxPayloadLength, err)
	}
	if _, err := NewLeaf(make([]Nibble, MaxPayloadLength+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestLeafNode_EmptyPathIsAccepted(t *testing.T) {
	leaf, err := NewLeaf(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := leaf.PayloadLength(); got != 0 {
		t.Errorf("unexpected payload length %d", got)
	}
}

func TestLeafNode_InvalidNibblesAreRejected(t *testing.T) {
	if _, err := NewLeaf(toNibbles(1, 16)); !errors.Is(err, ErrInvalidNibble) {
		t.Errorf("expected ErrInvalidNibble, got %v", err)
	}
}

func TestLeafNode_NewLeafFromKeyUsesNibbleExpansion(t *testing.T) {
	leaf, err := NewLeafFromKey([]byte{0x24, 0x68})
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	if got, want := leaf.Path(), toNibbles(2, 4, 6, 8); !slices.Equal(got, want) {
		t.Errorf("unexpected path, wanted %v, got %v", want, got)
	}
	if got, want := leaf.Payload(), []byte{2, 4, 6, 8}; !bytes.Equal(got, want) {
		t.Errorf("unexpected payload, wanted %v, got %v", want, got)
	}
}

func TestLeafNode_PathIsNotAliased(t *testing.T) {
	path := toNibbles(1, 2, 3)
	leaf, err := NewLeaf(path)
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	path[0] = 9
	leaf.Path()[1] = 9
	if got, want := leaf.Path(), toNibbles(1, 2, 3); !slices.Equal(got, want) {
		t.Errorf("leaf path was modified through alias, wanted %v, got %v", want, got)
	}
}

func TestLeafNode_SetPathMakesNodeDirty(t *testing.T) {
	leaf, err := NewLeaf(toNibbles(1))
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	if err := leaf.MarkClean(common.Hash{1}); err != nil {
		t.Fatalf("failed to mark clean: %v", err)
	}
	if err := leaf.SetPath(toNibbles(1, 2)); err != nil {
		t.Fatalf("failed to update path: %v", err)
	}
	if !leaf.IsDirty() {
		t.Errorf("leaf should be dirty after path update")
	}
}

func TestLeafNode_String(t *testing.T) {
	leaf, err := NewLeaf(toNibbles(1, 0xa))
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	if got, want := leaf.String(), "Leaf{path: 1a : 2, dirty}"; got != want {
		t.Errorf("unexpected string, wanted %s, got %s", want, got)
	}
}

// ----------------------------------------------------------------------------
//                              Extension Node
// ----------------------------------------------------------------------------

func TestExtensionNode_EmptyPathIsRejected(t *testing.T) {
	for _, path := range [][]Nibble{nil, {}} {
		if _, err := NewExtension(path); !errors.Is(err, ErrEmptyPath) {
			t.Errorf("expected ErrEmptyPath, got %v", err)
		}
	}
}

func TestExtensionNode_PathLengthBoundary(t *testing.T) {
	if _, err := NewExtension(make([]Nibble, MaxPayloadLength)); err != nil {
		t.Errorf("extension with %d nibbles should be accepted, got %v", MaxPayloadLength, err)
	}
	if _, err := NewExtension(make([]Nibble, MaxPayloadLength+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestExtensionNode_IsNotAHashedNode(t *testing.T) {
	extension, err := NewExtension(toNibbles(1))
	if err != nil {
		t.Fatalf("failed to create extension: %v", err)
	}
	if _, ok := Node(extension).(HashedNode); ok {
		t.Errorf("extension nodes should not cache hashes")
	}
}

func TestExtensionNode_MarkCleanAndInvalidate(t *testing.T) {
	extension, err := NewExtension(toNibbles(1, 2))
	if err != nil {
		t.Fatalf("failed to create extension: %v", err)
	}
	extension.MarkClean()
	if extension.IsDirty() {
		t.Errorf("extension should be clean")
	}
	if err := extension.SetPath(toNibbles(3)); err != nil {
		t.Fatalf("failed to update path: %v", err)
	}
	if !extension.IsDirty() {
		t.Errorf("extension should be dirty after path update")
	}
	if !strings.Contains(extension.String(), "dirty") {
		t.Errorf("unexpected string %s", extension.String())
	}
}

// ----------------------------------------------------------------------------
//                               Branch Node
// ----------------------------------------------------------------------------

func TestBranchNode_KnownChildrenScenario(t *testing.T) {
	branch, err := NewBranchFromChildren(1, 5, 9)
	if err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	hash := common.Keccak256([]byte("branch"))
	if err := branch.MarkClean(hash); err != nil {
		t.Fatalf("failed to mark clean: %v", err)
	}
	if got := branch.Type(); got != Branch {
		t.Errorf("unexpected type %v", got)
	}
	if got, err := branch.GetCachedHash(); err != nil || got != hash {
		t.Errorf("unexpected hash, wanted %v, got %v, err %v", hash, got, err)
	}
	if got, want := branch.Bitmap().Indices(), []int{1, 5, 9}; !slices.Equal(got, want) {
		t.Errorf("unexpected children, wanted %v, got %v", want, got)
	}
	if got, want := branch.String(), "Branch{children: {1,5,9}, clean, hash: "+hash.String()+"}"; got != want {
		t.Errorf("unexpected string, wanted %s, got %s", want, got)
	}
}

func TestBranchNode_LessThanTwoChildrenAreRejected(t *testing.T) {
	for _, children := range [][]int{{}, {3}, {3, 3}} {
		if _, err := NewBranchFromChildren(children...); !errors.Is(err, ErrEmptyBranch) {
			t.Errorf("expected ErrEmptyBranch for %v, got %v", children, err)
		}
	}
	if _, err := NewBranchFromChildren(0, 16); !errors.Is(err, ErrInvalidChildIndex) {
		t.Errorf("expected ErrInvalidChildIndex, got %v", err)
	}
}

func TestBranchNode_PayloadIsTwoByteBitmap(t *testing.T) {
	branch, err := NewBranchFromChildren(0, 15)
	if err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	if got, want := branch.Payload(), []byte{0x80, 0x01}; !bytes.Equal(got, want) {
		t.Errorf("unexpected payload, wanted %x, got %x", want, got)
	}
	if got := branch.PayloadLength(); got != ChildBitmapSize {
		t.Errorf("unexpected payload length %d", got)
	}
}

func TestBranchNode_SetBitmapMakesNodeDirty(t *testing.T) {
	branch, err := NewBranchFromChildren(0, 1)
	if err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}
	if err := branch.MarkClean(common.Hash{1}); err != nil {
		t.Fatalf("failed to mark clean: %v", err)
	}
	if err := branch.SetBitmap(ChildBitmapFromUint16(0b111)); err != nil {
		t.Fatalf("failed to update bitmap: %v", err)
	}
	if !branch.IsDirty() {
		t.Errorf("branch should be dirty after bitmap update")
	}
	if err := branch.SetPayload([]byte{0, 1, 2}); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding for three byte payload, got %v", err)
	}
}
