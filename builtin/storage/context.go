// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed record storage for the builtin engine
// components, in the manner of contract storage: each component owns a
// storage address, and records live in slots derived by hashing.
package storage

import (
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

// Context binds a storage address to a state instance.
type Context struct {
	address meridian.Address
	state   *state.State
}

// NewContext creates a storage context.
func NewContext(address meridian.Address, st *state.State) *Context {
	return &Context{address: address, state: st}
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// Address returns the storage address.
func (c *Context) Address() meridian.Address {
	return c.address
}

// NameToSlot derives a storage slot from a readable name.
func NameToSlot(name string) meridian.Bytes32 {
	return meridian.BytesToBytes32([]byte(name))
}
