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
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Supported values of Config.Type.
const (
	InMemoryType = "inmemory"
	LevelDBType  = "leveldb"
	BoltDBType   = "boltdb"
)

type (
	// Config selects and parameterizes a NodeStore backend.
	Config struct {
		Type           string         `yaml:"Type"`
		LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
		BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
	}
	// LevelDBOptions configures a LevelDB backed store.
	LevelDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
		// SyncWrites forces every write to be synced to disk.
		SyncWrites bool `yaml:"SyncWrites"`
	}
	// BoltDBOptions configures a BoltDB backed store.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
)

// ParseConfig reads a YAML encoded store configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid store configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML encoded store configuration from the given file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read store configuration: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks that the configuration names a known backend and provides
// the options this backend requires.
func (c Config) Validate() error {
	switch c.Type {
	case InMemoryType:
		return nil
	case LevelDBType:
		if c.LevelDBOptions.DataDirectoryPath == "" {
			return fmt.Errorf("missing LevelDB data directory path")
		}
		return nil
	case BoltDBType:
		if c.BoltDBOptions.FilePath == "" {
			return fmt.Errorf("missing BoltDB file path")
		}
		return nil
	default:
		return fmt.Errorf("unknown node store type: %q", c.Type)
	}
}

// Option customizes stores created by Open and the backend constructors.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used by the store. By default nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	res := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

// Open creates the store described by the given configuration. The store
// is closed when the context is done, unless closed explicitly before.
func Open(ctx context.Context, cfg Config, opts ...Option) (NodeStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		store NodeStore
		err   error
	)
	switch cfg.Type {
	case InMemoryType:
		store = NewMemoryStore(opts...)
	case LevelDBType:
		store, err = NewLevelDBStore(cfg.LevelDBOptions, opts...)
	case BoltDBType:
		store, err = NewBoltDBStore(cfg.BoltDBOptions, opts...)
	}
	if err != nil {
		return nil, err
	}
	log := newOptions(opts).logger
	context.AfterFunc(ctx, func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close node store", zap.String("type", cfg.Type), zap.Error(err))
		}
	})
	return store, nil
}
