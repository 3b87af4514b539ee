// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/meridian-network/meridian/builtin/stakepool"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/meridian"
)

// Validator is the API view of one validator record.
type Validator struct {
	Address           meridian.Address `json:"address"`
	OperationCap      meridian.Address `json:"operationCap"`
	PoolID            meridian.Bytes32 `json:"poolId"`
	Status            string           `json:"status"`
	CommissionRateBps uint16           `json:"commissionRateBps"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	NetworkAddress    string           `json:"networkAddress"`
	ActivationEpoch   uint64           `json:"activationEpoch"`
	Stake             string           `json:"stake"`
}

func convertValidator(v *staker.Validator, pool *stakepool.Pool) *Validator {
	stake := new(big.Int)
	if pool != nil {
		stake.Add(pool.Value, pool.PendingStake)
		stake.Sub(stake, pool.PendingWithdrawValue)
	}
	return &Validator{
		Address:           v.Address,
		OperationCap:      v.OperationCap,
		PoolID:            v.PoolID,
		Status:            v.Status.String(),
		CommissionRateBps: v.CommissionRateBps,
		Name:              v.Metadata.Name,
		Description:       v.Metadata.Description,
		NetworkAddress:    v.Metadata.NetworkAddress,
		ActivationEpoch:   v.ActivationEpoch,
		Stake:             stake.String(),
	}
}

// CommitteeMember is one committee seat with its capped voting power.
type CommitteeMember struct {
	Address        meridian.Address `json:"address"`
	Stake          string           `json:"stake"`
	VotingPowerBps uint64           `json:"votingPowerBps"`
}

// RateSnapshot is one epoch's exchange-rate entry of a pool.
type RateSnapshot struct {
	Epoch       uint64 `json:"epoch"`
	ShareSupply string `json:"shareSupply"`
	Value       string `json:"value"`
}

// Totals reports the tracked aggregate figures.
type Totals struct {
	Epoch                   uint64 `json:"epoch"`
	TotalSupply             string `json:"totalSupply"`
	TotalActiveStake        string `json:"totalActiveStake"`
	TotalBurned             string `json:"totalBurned"`
	TotalRewardsDistributed string `json:"totalRewardsDistributed"`
}
