// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin bundles the engine components with their canonical
// storage addresses.
package builtin

import (
	"github.com/meridian-network/meridian/builtin/params"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

// Canonical storage addresses of the engine components.
var (
	ParamsAddress = meridian.BytesToAddress([]byte("meridian-params"))
	StakerAddress = meridian.BytesToAddress([]byte("meridian-staker"))
)

// Params binds the governance parameters at the canonical address.
func Params(st *state.State) *params.Params {
	return params.New(ParamsAddress, st)
}

// Staker binds the validator set at the canonical address.
func Staker(st *state.State) *staker.Staker {
	return staker.New(StakerAddress, st, Params(st))
}
