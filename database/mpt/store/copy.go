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

import (
	"context"
	"errors"
	"fmt"
)

// Copy transfers the nodes with the given ids from one store to another and
// flushes the target. Missing nodes are skipped if skipMissing is set and
// reported as errors otherwise. The operation stops early when the context
// is cancelled.
func Copy(ctx context.Context, dst, src NodeStore, ids []NodeId, skipMissing bool) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		node, err := src.Get(id)
		if errors.Is(err, ErrNotFound) && skipMissing {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read node %v: %w", id, err)
		}
		if err := dst.Set(id, node); err != nil {
			return fmt.Errorf("failed to write node %v: %w", id, err)
		}
	}
	return dst.Flush()
}
