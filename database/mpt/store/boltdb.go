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
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Fantom-foundation/mptnode/database/mpt"
)

// nodeBucket is the BoltDB bucket holding all nodes.
var nodeBucket = []byte("nodes")

// BoltDBStore is a NodeStore backed by a single BoltDB file.
type BoltDBStore struct {
	db        *bbolt.DB
	log       *zap.Logger
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// NewBoltDBStore opens or creates the BoltDB file at the configured path.
func NewBoltDBStore(cfg BoltDBOptions, opts ...Option) (*BoltDBStore, error) {
	o := newOptions(opts)
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o700); err != nil {
			return nil, fmt.Errorf("could not create dir for BoltDB: %w", err)
		}
	}
	db, err := bbolt.Open(cfg.FilePath, 0o600, &bbolt.Options{ReadOnly: cfg.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB %s: %w", cfg.FilePath, err)
	}
	if !cfg.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(nodeBucket)
			return err
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("could not create node bucket: %w", err), db.Close())
		}
	}
	o.logger.Info("opened BoltDB node store",
		zap.String("path", cfg.FilePath),
		zap.Bool("readOnly", cfg.ReadOnly),
	)
	return &BoltDBStore{db: db, log: o.logger}, nil
}

func (s *BoltDBStore) Get(id NodeId) (mpt.Node, error) {
	var node mpt.Node
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(nodeBucket)
		if bucket == nil {
			return ErrNotFound
		}
		// Values are only valid during the transaction; decoding copies them.
		data := bucket.Get(id.Key())
		if data == nil {
			return ErrNotFound
		}
		var err error
		node, err = decodeNode(id, data)
		return err
	})
	if err != nil {
		return nil, s.wrapError(id, err)
	}
	return node, nil
}

func (s *BoltDBStore) Set(id NodeId, node mpt.Node) error {
	data, err := encodeNode(id, node)
	if err != nil {
		return err
	}
	return s.wrapError(id, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(nodeBucket).Put(id.Key(), data)
	}))
}

func (s *BoltDBStore) Delete(id NodeId) error {
	return s.wrapError(id, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(nodeBucket).Delete(id.Key())
	}))
}

// Flush syncs the database file to disk.
func (s *BoltDBStore) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("failed to sync BoltDB: %w", err)
	}
	return nil
}

func (s *BoltDBStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.db.Close()
		s.log.Debug("closed BoltDB node store", zap.String("path", s.db.Path()), zap.Error(s.closeErr))
	})
	return s.closeErr
}

func (s *BoltDBStore) wrapError(id NodeId, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return ErrClosed
	case errors.Is(err, mpt.ErrInvalidEncoding), errors.Is(err, mpt.ErrTruncated):
		return err
	default:
		return fmt.Errorf("BoltDB access to node %v failed: %w", id, err)
	}
}
