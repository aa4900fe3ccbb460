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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"

	"github.com/Fantom-foundation/mptnode/database/mpt"
)

// LevelDBStore is a NodeStore backed by a LevelDB instance, keyed by the
// big-endian encoding of node ids.
type LevelDBStore struct {
	db        *leveldb.DB
	path      string
	write     *opt.WriteOptions
	log       *zap.Logger
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// NewLevelDBStore opens or creates the LevelDB instance in the configured
// directory.
func NewLevelDBStore(cfg LevelDBOptions, opts ...Option) (*LevelDBStore, error) {
	o := newOptions(opts)
	dbOpts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	if cfg.ReadOnly {
		dbOpts.ReadOnly = true
		dbOpts.ErrorIfMissing = true
	}
	db, err := leveldb.OpenFile(cfg.DataDirectoryPath, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB in %s: %w", cfg.DataDirectoryPath, err)
	}
	o.logger.Info("opened LevelDB node store",
		zap.String("path", cfg.DataDirectoryPath),
		zap.Bool("readOnly", cfg.ReadOnly),
	)
	return &LevelDBStore{
		db:    db,
		path:  cfg.DataDirectoryPath,
		write: &opt.WriteOptions{Sync: cfg.SyncWrites},
		log:   o.logger,
	}, nil
}

func (s *LevelDBStore) Get(id NodeId) (mpt.Node, error) {
	data, err := s.db.Get(id.Key(), nil)
	if err != nil {
		return nil, s.wrapError(id, err)
	}
	return decodeNode(id, data)
}

func (s *LevelDBStore) Set(id NodeId, node mpt.Node) error {
	data, err := encodeNode(id, node)
	if err != nil {
		return err
	}
	return s.wrapError(id, s.db.Put(id.Key(), data, s.write))
}

func (s *LevelDBStore) Delete(id NodeId) error {
	return s.wrapError(id, s.db.Delete(id.Key(), s.write))
}

// Flush is a no-op for LevelDB, which applies writes to its journal
// immediately; durability of individual writes is governed by SyncWrites.
func (s *LevelDBStore) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *LevelDBStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.db.Close()
		s.log.Debug("closed LevelDB node store", zap.String("path", s.path), zap.Error(s.closeErr))
	})
	return s.closeErr
}

func (s *LevelDBStore) wrapError(id NodeId, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return ErrClosed
	default:
		return fmt.Errorf("LevelDB access to node %v failed: %w", id, err)
	}
}
