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
	"errors"
	"testing"
)

func TestNodeType_String(t *testing.T) {
	tests := map[NodeType]string{
		Leaf:         "Leaf",
		Extension:    "Extension",
		Branch:       "Branch",
		NodeType(3):  "NodeType(3)",
		NodeType(17): "NodeType(17)",
	}
	for nodeType, want := range tests {
		if got := nodeType.String(); got != want {
			t.Errorf("unexpected string, wanted %s, got %s", want, got)
		}
	}
}

func TestHeader_PackAndUnpackAreInverse(t *testing.T) {
	for _, nodeType := range []NodeType{Leaf, Extension, Branch} {
		for _, dirty := range []bool{true, false} {
			header, err := PackHeader(nodeType, dirty)
			if err != nil {
				t.Fatalf("failed to pack header: %v", err)
			}
			gotType, gotDirty, err := header.Unpack()
			if err != nil {
				t.Fatalf("failed to unpack header %v: %v", header, err)
			}
			if gotType != nodeType || gotDirty != dirty {
				t.Errorf("unexpected unpacked header, wanted (%v,%t), got (%v,%t)", nodeType, dirty, gotType, gotDirty)
			}
			if got := header.IsDirty(); got != dirty {
				t.Errorf("unexpected dirty flag, wanted %t, got %t", dirty, got)
			}
		}
	}
}

func TestHeader_BitLayout(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		dirty    bool
		header   byte
	}{
		{Leaf, false, 0b0000},
		{Leaf, true, 0b1000},
		{Extension, false, 0b0010},
		{Extension, true, 0b1010},
		{Branch, false, 0b0100},
		{Branch, true, 0b1100},
	}
	for _, test := range tests {
		header, err := PackHeader(test.nodeType, test.dirty)
		if err != nil {
			t.Fatalf("failed to pack header: %v", err)
		}
		if got, want := byte(header), test.header; got != want {
			t.Errorf("unexpected header for (%v,%t), wanted %04b, got %04b", test.nodeType, test.dirty, want, got)
		}
	}
}

func TestHeader_ReservedTypeTagIsRejected(t *testing.T) {
	for _, header := range []Header{0b0110, 0b1110, 0b0111} {
		if _, _, err := header.Unpack(); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("expected ErrInvalidEncoding for header %04b, got %v", byte(header), err)
		}
	}
	if _, err := PackHeader(NodeType(3), false); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding when packing reserved type, got %v", err)
	}
}

func TestHeader_ReservedBitsAreIgnoredOnRead(t *testing.T) {
	header := Header(0b1111_0101) // Branch, not dirty, reserved bits set
	nodeType, dirty, err := header.Unpack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodeType != Branch || dirty {
		t.Errorf("unexpected result, got (%v,%t)", nodeType, dirty)
	}
}

func TestHeader_CleanClearsOnlyTheDirtyFlag(t *testing.T) {
	for _, nodeType := range []NodeType{Leaf, Extension, Branch} {
		dirty := mustPackHeader(nodeType, true)
		clean := mustPackHeader(nodeType, false)
		if got := dirty.Clean(); got != clean {
			t.Errorf("unexpected clean header, wanted %v, got %v", clean, got)
		}
		if got := clean.Clean(); got != clean {
			t.Errorf("cleaning a clean header should be a no-op, got %v", got)
		}
	}
}

func TestHeader_String(t *testing.T) {
	tests := map[Header]string{
		mustPackHeader(Leaf, true):       "Leaf(dirty)",
		mustPackHeader(Branch, false):    "Branch(clean)",
		mustPackHeader(Extension, false): "Extension(clean)",
		Header(0b0110):                   "Header(0x06, invalid)",
	}
	for header, want := range tests {
		if got := header.String(); got != want {
			t.Errorf("unexpected string, wanted %s, got %s", want, got)
		}
	}
}
