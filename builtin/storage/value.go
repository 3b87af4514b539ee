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

// Value is a single RLP-encoded record at a fixed slot.
type Value[T any] struct {
	context *Context
	pos     meridian.Bytes32
}

// NewValue binds a slot to a typed record accessor.
func NewValue[T any](context *Context, pos meridian.Bytes32) *Value[T] {
	return &Value[T]{context: context, pos: pos}
}

// Get decodes the record, returning the zero value when unset. Pointer-typed
// records decode into a freshly allocated zero value when missing.
func (v *Value[T]) Get() (value T, err error) {
	err = v.context.state.DecodeStorage(v.context.address, v.pos, func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(T)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set encodes and stores the record.
func (v *Value[T]) Set(value T) error {
	return v.context.state.EncodeStorage(v.context.address, v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
