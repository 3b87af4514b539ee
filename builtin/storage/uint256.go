// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/meridian-network/meridian/meridian"
)

// Uint256 is a wrapper for storage and retrieval of one unsigned integer,
// similar to a contract storage slot. Values never go negative: Sub fails
// on underflow instead of wrapping.
type Uint256 struct {
	context *Context
	pos     meridian.Bytes32
}

// NewUint256 binds a slot to an integer accessor.
func NewUint256(context *Context, slot meridian.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

// Get returns the stored value, zero if unset.
func (u *Uint256) Get() (*big.Int, error) {
	stored, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(stored.Bytes()), nil
}

// Set stores the value.
func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errors.New("negative value")
	}
	if value.BitLen() > 256 {
		return errors.New("value exceeds 256 bits")
	}
	u.context.state.SetStorage(u.context.address, u.pos, meridian.BytesToBytes32(value.Bytes()))
	return nil
}

// Add increases the stored value by delta.
func (u *Uint256) Add(delta *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(stored.Add(stored, delta))
}

// Sub decreases the stored value by delta, failing on underflow.
func (u *Uint256) Sub(delta *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	if stored.Cmp(delta) < 0 {
		return errors.New("uint256 underflow")
	}
	return u.Set(stored.Sub(stored, delta))
}
