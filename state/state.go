// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides a journaled, checkpoint/revert view over the
// ledger's key/value store. Records are RLP encoded. It is the atomicity
// primitive relied upon by epoch advancement: every mutation between a
// checkpoint and a revert is undone in memory and never reaches the store.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridian-network/meridian/kv"
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause of the state error.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr meridian.Address
	key  meridian.Bytes32
}

// State manages the staking engine's persisted records.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create a state object backed by the given store.
func New(store kv.Store) *State {
	state := &State{store: store}
	state.sm = stackedmap.New(func(k storageKey) (rlp.RawValue, bool, error) {
		raw, err := store.Get(append(k.addr.Bytes(), k.key.Bytes()...))
		if err != nil {
			if store.IsNotFound(err) {
				return nil, true, nil
			}
			return nil, false, &Error{err}
		}
		return raw, true, nil
	})
	// the base layer never gets popped
	state.sm.Push()
	return state
}

// GetRawStorage returns the RLP encoded storage value for the given key.
func (s *State) GetRawStorage(addr meridian.Address, key meridian.Bytes32) (rlp.RawValue, error) {
	raw, _, err := s.sm.Get(storageKey{addr, key})
	return raw, err
}

// SetRawStorage sets the RLP encoded storage value for the given key.
// An empty value deletes the record.
func (s *State) SetRawStorage(addr meridian.Address, key meridian.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given key.
func (s *State) GetStorage(addr meridian.Address, key meridian.Bytes32) (meridian.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if len(raw) == 0 {
		return meridian.Bytes32{}, nil
	}
	var content []byte
	if err := rlp.DecodeBytes(raw, &content); err != nil {
		return meridian.Bytes32{}, &Error{err}
	}
	return meridian.BytesToBytes32(content), nil
}

// SetStorage sets storage value for the given key.
func (s *State) SetStorage(addr meridian.Address, key, value meridian.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	trimmed := value.Bytes()
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	raw, _ := rlp.EncodeToBytes(trimmed)
	s.SetRawStorage(addr, key, raw)
}

// EncodeStorage sets storage value encoded by given enc method.
// An empty encoded value deletes the record.
func (s *State) EncodeStorage(addr meridian.Address, key meridian.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// The dec method is called with nil raw when the record does not exist.
func (s *State) DecodeStorage(addr meridian.Address, key meridian.Bytes32, dec func([]byte) error) error {
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
// It returns the checkpoint that can be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit writes all journaled mutations to the backing store atomically.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	var err error
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		key := append(k.addr.Bytes(), k.key.Bytes()...)
		if len(v) == 0 {
			err = batch.Delete(key)
		} else {
			err = batch.Put(key, v)
		}
		return err == nil
	})
	if err != nil {
		return &Error{err}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
