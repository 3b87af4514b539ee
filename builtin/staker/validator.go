// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/meridian-network/meridian/meridian"
)

// Status is the lifecycle state of a validator record. The state set is
// closed; transitions happen through the explicit operations and at epoch
// boundaries only.
type Status uint8

const (
	// StatusCandidate is a registered validator not yet staking toward a
	// committee seat.
	StatusCandidate Status = iota + 1
	// StatusPendingActive is a candidate that met the joining stake and
	// activates at the next epoch boundary.
	StatusPendingActive
	// StatusActive validators are counted in stake totals and are eligible
	// for the committee.
	StatusActive
	// StatusPendingRemoval validators keep earning and risking rewards
	// until the next epoch boundary.
	StatusPendingRemoval
	// StatusInactive validators have a frozen pool; only withdrawals remain.
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusCandidate:
		return "candidate"
	case StatusPendingActive:
		return "pending-active"
	case StatusActive:
		return "active"
	case StatusPendingRemoval:
		return "pending-removal"
	case StatusInactive:
		return "inactive"
	}
	return "unknown"
}

// Metadata is the operator-supplied description of a validator. Opaque to
// the engine beyond basic shape checks.
type Metadata struct {
	Name           string
	Description    string
	NetworkAddress string
}

func (m *Metadata) validate() error {
	if m.Name == "" {
		return ErrInvalidMetadata
	}
	if len(m.Name) > 128 || len(m.Description) > 1024 || len(m.NetworkAddress) > 256 {
		return ErrInvalidMetadata
	}
	return nil
}

// Validator is one validator record. The address is the immutable identity;
// the operation cap authorizes day-to-day operations and can be rotated.
// Staged next-epoch fields apply at the epoch boundary.
type Validator struct {
	Address      meridian.Address
	OperationCap meridian.Address
	PoolID       meridian.Bytes32
	Status       Status

	CommissionRateBps uint16
	Metadata          Metadata

	NextCommissionRateBps *uint16   `rlp:"nil"`
	NextMetadata          *Metadata `rlp:"nil"`

	// ActivationEpoch is the first epoch the validator was active, zero for
	// records that never activated.
	ActivationEpoch uint64

	// LowStakeCounter counts down the remaining grace epochs while the pool
	// sits below the low-stake threshold. Nil while above the threshold.
	LowStakeCounter *uint64 `rlp:"nil"`
}

// IsEmpty returns whether the record is unset.
func (v *Validator) IsEmpty() bool {
	return v.Address.IsZero()
}

// InCommitteePath returns whether the validator counts toward active stake
// and committee eligibility.
func (v *Validator) InCommitteePath() bool {
	return v.Status == StatusActive || v.Status == StatusPendingRemoval
}

// applyStaged folds the staged next-epoch fields into the live ones.
func (v *Validator) applyStaged() {
	if v.NextCommissionRateBps != nil {
		v.CommissionRateBps = *v.NextCommissionRateBps
		v.NextCommissionRateBps = nil
	}
	if v.NextMetadata != nil {
		v.Metadata = *v.NextMetadata
		v.NextMetadata = nil
	}
}
