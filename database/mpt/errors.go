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

import "github.com/Fantom-foundation/mptnode/common"

// Errors reported by the node layer. All of them signal a misuse of the
// node contract by the calling trie algorithm and are returned, possibly
// wrapped with additional context, instead of being coerced into a value.
const (
	// ErrInvalidEncoding is reported for headers carrying the reserved type
	// tag and for malformed binary node encodings.
	ErrInvalidEncoding = common.ConstError("invalid node encoding")

	// ErrPayloadTooLarge is reported if a payload exceeds the single-byte
	// length field of the node layout.
	ErrPayloadTooLarge = common.ConstError("payload too large")

	// ErrEmptyPath is reported when creating an extension without a path.
	ErrEmptyPath = common.ConstError("empty extension path")

	// ErrEmptyBranch is reported when creating a branch with less than two
	// children.
	ErrEmptyBranch = common.ConstError("branch with less than two children")

	// ErrOddLength is reported when packing an odd number of nibbles into
	// bytes.
	ErrOddLength = common.ConstError("odd number of nibbles")

	// ErrInvalidNibble is reported for nibble values outside of [0,15].
	ErrInvalidNibble = common.ConstError("invalid nibble value")

	// ErrInvalidChildIndex is reported for child positions outside of [0,16).
	ErrInvalidChildIndex = common.ConstError("invalid child index")

	// ErrStaleHash is reported when reading the cached hash of a dirty node.
	ErrStaleHash = common.ConstError("cached hash is stale")

	// ErrHashMismatch is reported when a clean node is marked clean again
	// using a different hash, or when hash inputs do not match a node.
	ErrHashMismatch = common.ConstError("hash mismatch")

	// ErrDirtyNode is reported when encoding a dirty node for persistence.
	ErrDirtyNode = common.ConstError("dirty nodes can not be persisted")

	// ErrTruncated is reported when decoding a node from an incomplete buffer.
	ErrTruncated = common.ConstError("truncated node encoding")
)
