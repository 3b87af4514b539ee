// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package params binds the governance-supplied protocol parameters.
// Values written by governance live in state; unset keys fall back to the
// compiled defaults so the engine works against a fresh state.
package params

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

// Params binder of governance parameter storage.
type Params struct {
	addr  meridian.Address
	state *state.State
}

var defaults = map[meridian.Bytes32]*big.Int{
	meridian.KeyMaxCommitteeSize:      meridian.InitialMaxCommitteeSize,
	meridian.KeyMinJoiningStake:       meridian.InitialMinJoiningStake,
	meridian.KeyLowStakeThreshold:     meridian.InitialLowStakeThreshold,
	meridian.KeyVeryLowStakeThreshold: meridian.InitialVeryLowStakeThreshold,
	meridian.KeyLowStakeGracePeriod:   meridian.InitialLowStakeGracePeriod,
	meridian.KeyRewardSlashingRate:    meridian.InitialRewardSlashingRate,
	meridian.KeyReportingThreshold:    meridian.InitialReportingThreshold,
	meridian.KeyMaxCommissionRate:     meridian.InitialMaxCommissionRate,
}

// New creates a params binder.
func New(addr meridian.Address, st *state.State) *Params {
	return &Params{addr, st}
}

// Get returns the value for the key, or its compiled default when unset.
// A stored zero is a real value, not an absence: only keys governance never
// wrote fall back to the default.
func (p *Params) Get(key meridian.Bytes32) (*big.Int, error) {
	value := new(big.Int)
	found := false
	if err := p.state.DecodeStorage(p.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		found = true
		return rlp.DecodeBytes(raw, value)
	}); err != nil {
		return nil, err
	}
	if !found {
		if def, ok := defaults[key]; ok {
			return new(big.Int).Set(def), nil
		}
	}
	return value, nil
}

// Set stores the value for the key.
func (p *Params) Set(key meridian.Bytes32, value *big.Int) error {
	return p.state.EncodeStorage(p.addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
