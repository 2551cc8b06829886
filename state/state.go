// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides the checkpointed key-value storage that pool
// contracts keep their slots in. Writes are staged on a stacked map and can
// be reverted to any checkpoint until they are committed to the backing store.
package state

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/qianbin/directcache"

	"github.com/vechain/nodepool/kv"
	"github.com/vechain/nodepool/stackedmap"
	"github.com/vechain/nodepool/thor"
)

const storageKeyPrefix = 's'

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) dbKey() []byte {
	buf := make([]byte, 0, 1+len(k.addr)+len(k.key))
	buf = append(buf, storageKeyPrefix)
	buf = append(buf, k.addr[:]...)
	return append(buf, k.key[:]...)
}

// State manages contract storage slots.
type State struct {
	db    kv.Store
	cache *directcache.Cache // caches committed slot values, empty value means absent
	sm    *stackedmap.StackedMap
}

// New create state object backed by db. cacheSize is in bytes, 0 disables the cache.
func New(db kv.Store, cacheSize int) *State {
	s := &State{db: db}
	if cacheSize > 0 {
		s.cache = directcache.New(cacheSize)
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.cacheGetter)
	s.sm.Push()
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	k, ok := key.(storageKey)
	if !ok {
		panic(fmt.Errorf("unexpected key type %T", key))
	}
	dbKey := k.dbKey()

	if s.cache != nil {
		var cached rlp.RawValue
		if s.cache.AdvGet(dbKey, func(val []byte) {
			cached = slices.Clone(val)
		}, false) {
			return cached, true, nil
		}
	}

	data, err := s.db.Get(dbKey)
	if err != nil {
		if !s.db.IsNotFound(err) {
			return nil, false, err
		}
		data = nil
	}
	if s.cache != nil {
		_ = s.cache.Set(dbKey, data)
	}
	return rlp.RawValue(data), true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	// the base level is never popped
	s.sm.PopTo(max(revision, 1))
}

// Stage collects all pending changes, later ones override earlier ones.
func (s *State) Stage() map[thor.Address]map[thor.Bytes32]rlp.RawValue {
	changes := make(map[thor.Address]map[thor.Bytes32]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		key := k.(storageKey)
		slots, ok := changes[key.addr]
		if !ok {
			slots = make(map[thor.Bytes32]rlp.RawValue)
			changes[key.addr] = slots
		}
		slots[key.key] = v.(rlp.RawValue)
		return true
	})
	return changes
}

// Commit writes all pending changes into the backing store and clears the journal.
// It returns the number of slots written.
func (s *State) Commit() (int, error) {
	batch := s.db.NewBatch()
	written := make(map[storageKey]rlp.RawValue)
	for addr, slots := range s.Stage() {
		for key, raw := range slots {
			k := storageKey{addr, key}
			if len(raw) == 0 {
				if err := batch.Delete(k.dbKey()); err != nil {
					return 0, &Error{err}
				}
			} else if err := batch.Put(k.dbKey(), raw); err != nil {
				return 0, &Error{err}
			}
			written[k] = raw
		}
	}
	if err := batch.Write(); err != nil {
		return 0, &Error{err}
	}
	if s.cache != nil {
		for k, raw := range written {
			_ = s.cache.Set(k.dbKey(), raw)
		}
	}
	s.reset()
	return len(written), nil
}
