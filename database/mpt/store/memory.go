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
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Fantom-foundation/mptnode/database/mpt"
)

// MemoryStore is an in-memory NodeStore. It retains nodes in their encoded
// form, so stored nodes never alias nodes of the caller.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[NodeId][]byte
	closed bool
	log    *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	return &MemoryStore{
		nodes: map[NodeId][]byte{},
		log:   o.logger,
	}
}

func (s *MemoryStore) Get(id NodeId) (mpt.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	data, found := s.nodes[id]
	if !found {
		return nil, ErrNotFound
	}
	return decodeNode(id, data)
}

func (s *MemoryStore) Set(id NodeId, node mpt.Node) error {
	data, err := encodeNode(id, node)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.nodes[id] = data
	return nil
}

func (s *MemoryStore) Delete(id NodeId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.nodes, id)
	return nil
}

// Ids lists the ids of all stored nodes in ascending order.
func (s *MemoryStore) Ids() []NodeId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := maps.Keys(s.nodes)
	slices.Sort(res)
	return res
}

// Len returns the number of stored nodes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *MemoryStore) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.log.Debug("closing in-memory node store", zap.Int("nodes", len(s.nodes)))
	}
	s.closed = true
	s.nodes = nil
	return nil
}
