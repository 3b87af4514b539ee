// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"math/big"

	"github.com/meridian-network/meridian/meridian"
)

// ExchangeRate is one epoch-indexed snapshot of the pool's share supply and
// value. The ratio Value/ShareSupply only moves when rewards or slashes are
// applied, never on deposits or withdrawals.
type ExchangeRate struct {
	ShareSupply *big.Int
	Value       *big.Int
}

// Rate returns the snapshot's value per share scaled by scale.
func (r *ExchangeRate) Rate(scale *big.Int) *big.Int {
	if r.ShareSupply.Sign() == 0 {
		return new(big.Int).Set(scale)
	}
	scaled := new(big.Int).Mul(r.Value, scale)
	return scaled.Div(scaled, r.ShareSupply)
}

// Pool holds the share-based stake accounting for one validator.
//
// ShareSupply and Value cover activated stake only. Deposits and withdrawals
// requested during an epoch accumulate in the pending fields and fold into
// the live figures at the next Advance.
type Pool struct {
	Owner             meridian.Address
	ActivationEpoch   *uint64 `rlp:"nil"`
	DeactivationEpoch *uint64 `rlp:"nil"`

	ShareSupply *big.Int
	Value       *big.Int

	PendingStake          *big.Int
	PendingShares         *big.Int
	PendingWithdrawValue  *big.Int
	PendingWithdrawShares *big.Int

	// LastRateEpoch is the epoch of the newest exchange-rate snapshot.
	LastRateEpoch uint64
	// HasRate is false until the first snapshot is written.
	HasRate bool
}

// IsEmpty returns whether the pool record is unset.
func (p *Pool) IsEmpty() bool {
	return p.Owner.IsZero()
}

// IsPreActive returns whether the pool belongs to a candidate that has not
// been activated yet.
func (p *Pool) IsPreActive() bool {
	return p.ActivationEpoch == nil
}

// IsDeactivated returns whether the pool stopped accepting deposits.
func (p *Pool) IsDeactivated() bool {
	return p.DeactivationEpoch != nil
}

// Position is a staker-held receipt for shares in one pool. Positions are
// independent keyed records referencing their pool by id.
type Position struct {
	PoolID          meridian.Bytes32
	Owner           meridian.Address
	Shares          *big.Int
	ActivationEpoch uint64
}

// IsEmpty returns whether the position record is unset.
func (p *Position) IsEmpty() bool {
	return p.PoolID.IsZero()
}

// PoolID derives the pool id owned by the given validator address.
func PoolID(owner meridian.Address) meridian.Bytes32 {
	return meridian.Blake2b(owner.Bytes(), []byte("stake-pool"))
}
