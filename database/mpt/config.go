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

import "fmt"

// MptConfig defines a set of configuration options for customizing the node
// layer. It is mainly intended to facilitate the accurate modeling of
// Ethereum's node hashing but may also be used for experimenting with design
// options.
type MptConfig struct {
	// A descriptive name for this configuration. It has no effect except for
	// logging and debugging purposes.
	Name string

	// The hashing algorithm to be used for computing node hashes.
	Hashing hashAlgorithm

	// The maximum payload length accepted for nodes. It must not exceed
	// MaxPayloadLength, the limit of the persistent node layout.
	MaxPayloadLength int
}

var DirectConfig = MptConfig{
	Name:             "Direct",
	Hashing:          DirectHashing,
	MaxPayloadLength: MaxPayloadLength,
}

var EthereumConfig = MptConfig{
	Name:             "Ethereum",
	Hashing:          EthereumLikeHashing,
	MaxPayloadLength: MaxPayloadLength,
}

var allMptConfigs = []MptConfig{
	DirectConfig, EthereumConfig,
}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (MptConfig, bool) {
	for _, config := range allMptConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return MptConfig{}, false
}

// CheckPayload verifies that the given node's payload fits the limits of
// this configuration.
func (c MptConfig) CheckPayload(node Node) error {
	if length := node.PayloadLength(); length > c.MaxPayloadLength || length > MaxPayloadLength {
		return fmt.Errorf("%w: %d bytes exceed limit of %s configuration", ErrPayloadTooLarge, length, c.Name)
	}
	return nil
}
