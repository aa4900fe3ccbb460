// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package mpt provides the node layer of a Merkle Patricia Trie: the leaf,
// extension, and branch node types, their packed headers, the nibble and
// bitmap codecs they are built from, a persistent node encoding, and the
// hashing algorithms computing node digests.
//
// Trie algorithms (insertion, deletion, lookup, proofs) are built on top of
// this package and are not part of it. Nodes are not synchronized; callers
// sharing nodes among goroutines may use the shared package.
package mpt
