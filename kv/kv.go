// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the byte key-value store that committed pool state lives in.
package kv

type Getter interface {
	// Get fails for an absent key with an error recognized by IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool
}

type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch buffers puts and deletes until Write applies them together.
type Batch interface {
	Putter
	Len() int
	Write() error
}

// Store is the persistent backend of the ledger state.
type Store interface {
	Getter
	Putter
	NewBatch() Batch
	Close() error
}
