// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridian-network/meridian/meridian"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value record store, similar to a mapping in contract
// storage. Values are RLP encoded; the slot of an entry is derived from the
// base position and the key.
type Mapping[K Key, V any] struct {
	context *Context
	basePos meridian.Bytes32
}

// NewMapping creates a mapping rooted at pos.
func NewMapping[K Key, V any](context *Context, pos meridian.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) slot(key K) meridian.Bytes32 {
	return meridian.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get decodes the entry for the key. Pointer-typed values decode into a
// freshly allocated zero value when the entry is missing.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.slot(key), func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set encodes and stores the entry for the key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.slot(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete removes the entry for the key.
func (m *Mapping[K, V]) Delete(key K) error {
	return m.context.state.EncodeStorage(m.context.address, m.slot(key), func() ([]byte, error) {
		return nil, nil
	})
}

// Has returns whether an entry exists for the key.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	var exists bool
	err := m.context.state.DecodeStorage(m.context.address, m.slot(key), func(raw []byte) error {
		exists = len(raw) > 0
		return nil
	})
	return exists, err
}
