// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the validator set: lifecycle transitions,
// misbehavior reports, committee selection, reward distribution and atomic
// epoch advancement. Stake accounting is delegated to the stakepool package;
// tunable thresholds come from the params package.
package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/meridian-network/meridian/builtin/params"
	"github.com/meridian-network/meridian/builtin/stakepool"
	"github.com/meridian-network/meridian/builtin/storage"
	"github.com/meridian-network/meridian/log"
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

var logger = log.WithContext("pkg", "staker")

// Staker is the facade over the validator set. All operations take effect
// against the bound state; epochs only move through AdvanceEpoch.
type Staker struct {
	state  *state.State
	sto    *schema
	params *params.Params
	pools  *stakepool.Service
}

// New creates a staker bound to the storage address and state.
func New(addr meridian.Address, st *state.State, params *params.Params) *Staker {
	sctx := storage.NewContext(addr, st)
	return &Staker{
		state:  st,
		sto:    newSchema(sctx),
		params: params,
		pools:  stakepool.New(sctx),
	}
}

// Pools returns the underlying stake pool service.
func (s *Staker) Pools() *stakepool.Service {
	return s.pools
}

// State returns the state the staker is bound to.
func (s *Staker) State() *state.State {
	return s.state
}

// CurrentEpoch returns the epoch the validator set currently operates in.
func (s *Staker) CurrentEpoch() (uint64, error) {
	epoch, err := s.sto.epoch.Get()
	if err != nil {
		return 0, err
	}
	return epoch.Uint64(), nil
}

// TotalSupply returns the tracked circulating supply.
func (s *Staker) TotalSupply() (*big.Int, error) { return s.sto.totalSupply.Get() }

// TotalActiveStake returns the sum of all active pools' value.
func (s *Staker) TotalActiveStake() (*big.Int, error) { return s.sto.totalActiveStake.Get() }

// TotalBurned returns the cumulative burned amount.
func (s *Staker) TotalBurned() (*big.Int, error) { return s.sto.totalBurned.Get() }

// TotalRewardsDistributed returns the cumulative distributed rewards.
func (s *Staker) TotalRewardsDistributed() (*big.Int, error) { return s.sto.totalRewards.Get() }

// MintSupply adds to the tracked supply. Used by genesis seeding; epoch
// advancement adjusts supply on its own.
func (s *Staker) MintSupply(amount *big.Int) error {
	return s.sto.totalSupply.Add(amount)
}

// Validator returns the record for the identity.
func (s *Staker) Validator(identity meridian.Address) (*Validator, error) {
	return s.sto.getValidator(identity)
}

// ValidatorByPool resolves a pool id to its validator, covering inactive
// validators whose pool mapping is retained permanently.
func (s *Staker) ValidatorByPool(poolID meridian.Bytes32) (*Validator, error) {
	pool, err := s.pools.Get(poolID)
	if err == nil {
		return s.sto.getValidator(pool.Owner)
	}
	if !errors.Is(err, stakepool.ErrPoolNotFound) {
		return nil, err
	}
	identity, err2 := s.sto.inactivePools.Get(poolID)
	if err2 != nil {
		return nil, err2
	}
	if identity.IsZero() {
		return nil, err
	}
	return s.sto.getValidator(identity)
}

// ActiveValidators returns the identities currently counted as active,
// including those pending removal.
func (s *Staker) ActiveValidators() ([]meridian.Address, error) {
	return s.sto.active.Get()
}

// Candidates returns the registered candidate identities, including those
// pending activation.
func (s *Staker) Candidates() ([]meridian.Address, error) {
	return s.sto.candidates.Get()
}

// AddValidatorCandidate registers a new validator identity with its
// operation cap, commission rate and metadata, and creates its pool. The
// record starts as a candidate and earns nothing until activated.
func (s *Staker) AddValidatorCandidate(identity, cap meridian.Address, commissionBps uint16, md Metadata) error {
	if err := md.validate(); err != nil {
		return err
	}
	maxRate, err := s.params.Get(meridian.KeyMaxCommissionRate)
	if err != nil {
		return err
	}
	if uint64(commissionBps) > maxRate.Uint64() {
		return ErrCommissionRateTooHigh
	}
	if taken, err := s.identityTaken(identity); err != nil {
		return err
	} else if taken {
		return ErrDuplicateIdentity
	}
	if taken, err := s.identityTaken(cap); err != nil {
		return err
	} else if taken {
		return ErrDuplicateIdentity
	}

	poolID, err := s.pools.CreatePool(identity)
	if err != nil {
		return err
	}
	v := &Validator{
		Address:           identity,
		OperationCap:      cap,
		PoolID:            poolID,
		Status:            StatusCandidate,
		CommissionRateBps: commissionBps,
		Metadata:          md,
	}
	if err := s.sto.validators.Set(identity, v); err != nil {
		return err
	}
	if err := s.sto.capIndex.Set(cap, identity); err != nil {
		return err
	}
	if err := addToSet(s.sto.candidates, identity); err != nil {
		return err
	}
	logger.Info("validator candidate registered", "identity", identity, "pool", v.PoolID)
	metricCandidates().Add(1)
	return nil
}

// RequestAddValidator promotes a candidate to pending-active for the next
// epoch. The candidate's pool, including stake delegated while a candidate,
// must hold at least the minimum joining stake.
func (s *Staker) RequestAddValidator(identity meridian.Address) error {
	v, err := s.sto.getValidator(identity)
	if err != nil {
		return err
	}
	if v.Status != StatusCandidate {
		return ErrNotCandidate
	}
	minStake, err := s.params.Get(meridian.KeyMinJoiningStake)
	if err != nil {
		return err
	}
	stake, err := s.poolStake(v.PoolID)
	if err != nil {
		return err
	}
	if stake.Cmp(minStake) < 0 {
		return ErrMinJoiningStakeNotReached
	}
	v.Status = StatusPendingActive
	return s.sto.validators.Set(identity, v)
}

// RequestRemoveValidator marks an active validator for removal at the next
// epoch boundary. Until then it keeps earning and risking rewards.
func (s *Staker) RequestRemoveValidator(identity meridian.Address) error {
	v, err := s.sto.getValidator(identity)
	if err != nil {
		return err
	}
	if v.Status != StatusActive {
		return ErrNotActive
	}
	v.Status = StatusPendingRemoval
	return s.sto.validators.Set(identity, v)
}

// RequestRemoveValidatorCandidate withdraws a candidate registration. The
// record goes straight to inactive and its pool only pays out withdrawals.
func (s *Staker) RequestRemoveValidatorCandidate(identity meridian.Address) error {
	v, err := s.sto.getValidator(identity)
	if err != nil {
		return err
	}
	if v.Status != StatusCandidate && v.Status != StatusPendingActive {
		return ErrNotCandidate
	}
	epoch, err := s.CurrentEpoch()
	if err != nil {
		return err
	}
	return s.deactivateValidator(v, epoch)
}

// StakeWithValidator deposits amount into the validator's pool on behalf of
// the staker, returning the id of the minted position.
func (s *Staker) StakeWithValidator(staker, validator meridian.Address, amount *big.Int) (meridian.Bytes32, error) {
	v, err := s.sto.getValidator(validator)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	epoch, err := s.CurrentEpoch()
	if err != nil {
		return meridian.Bytes32{}, err
	}
	id, _, err := s.pools.AddStake(v.PoolID, staker, amount, epoch)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	metricStaked().Add(amount.Int64())
	return id, nil
}

// RequestWithdrawStake burns the position and returns the payout owed.
func (s *Staker) RequestWithdrawStake(positionID meridian.Bytes32) (*big.Int, error) {
	epoch, err := s.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	return s.pools.RequestWithdrawStake(positionID, epoch)
}

// SplitStake splits shares off a position into a new one, returning its id.
func (s *Staker) SplitStake(positionID meridian.Bytes32, shares *big.Int) (meridian.Bytes32, error) {
	return s.pools.SplitPosition(positionID, shares)
}

// SetCommissionRate stages a commission change for the next epoch.
func (s *Staker) SetCommissionRate(cap meridian.Address, rateBps uint16) error {
	maxRate, err := s.params.Get(meridian.KeyMaxCommissionRate)
	if err != nil {
		return err
	}
	if uint64(rateBps) > maxRate.Uint64() {
		return ErrCommissionRateTooHigh
	}
	v, err := s.validatorByCap(cap)
	if err != nil {
		return err
	}
	v.NextCommissionRateBps = &rateBps
	return s.sto.validators.Set(v.Address, v)
}

// UpdateMetadata replaces the validator's metadata. Candidates see the
// change immediately; active validators from the next epoch.
func (s *Staker) UpdateMetadata(cap meridian.Address, md Metadata) error {
	if err := md.validate(); err != nil {
		return err
	}
	v, err := s.validatorByCap(cap)
	if err != nil {
		return err
	}
	if v.Status == StatusCandidate || v.Status == StatusPendingActive {
		v.Metadata = md
	} else {
		v.NextMetadata = &md
	}
	return s.sto.validators.Set(v.Address, v)
}

// RotateOperationCap replaces the validator's operation cap, invalidating
// the old one immediately.
func (s *Staker) RotateOperationCap(oldCap, newCap meridian.Address) error {
	v, err := s.validatorByCap(oldCap)
	if err != nil {
		return err
	}
	if taken, err := s.identityTaken(newCap); err != nil {
		return err
	} else if taken {
		return ErrInvalidCap
	}
	if err := s.sto.capIndex.Delete(oldCap); err != nil {
		return err
	}
	if err := s.sto.capIndex.Set(newCap, v.Address); err != nil {
		return err
	}
	v.OperationCap = newCap
	if err := s.sto.validators.Set(v.Address, v); err != nil {
		return err
	}
	logger.Info("operation cap rotated", "identity", v.Address)
	return nil
}

// validatorByCap resolves an operation cap to the record it currently
// authorizes.
func (s *Staker) validatorByCap(cap meridian.Address) (*Validator, error) {
	identity, err := s.sto.capIndex.Get(cap)
	if err != nil {
		return nil, err
	}
	if identity.IsZero() {
		return nil, ErrInvalidCap
	}
	v, err := s.sto.getValidator(identity)
	if err != nil {
		return nil, err
	}
	if v.OperationCap != cap {
		return nil, ErrInvalidCap
	}
	return v, nil
}

// identityTaken reports whether the address is already used as a validator
// identity or an operation cap, across all lifecycle partitions.
func (s *Staker) identityTaken(addr meridian.Address) (bool, error) {
	v, err := s.sto.validators.Get(addr)
	if err != nil {
		return false, err
	}
	if !v.IsEmpty() {
		return true, nil
	}
	owner, err := s.sto.capIndex.Get(addr)
	if err != nil {
		return false, err
	}
	return !owner.IsZero(), nil
}

// poolStake is the pool's value including queued deposits and net of queued
// withdrawals, i.e. the stake that survives the next boundary.
func (s *Staker) poolStake(poolID meridian.Bytes32) (*big.Int, error) {
	pool, err := s.pools.Get(poolID)
	if err != nil {
		return nil, err
	}
	stake := new(big.Int).Add(pool.Value, pool.PendingStake)
	return stake.Sub(stake, pool.PendingWithdrawValue), nil
}

// deactivateValidator moves the record to inactive, freezes its pool and
// retains the pool-id mapping for historical lookups.
func (s *Staker) deactivateValidator(v *Validator, epoch uint64) error {
	if err := removeFromSet(s.sto.candidates, v.Address); err != nil {
		return err
	}
	if err := removeFromSet(s.sto.active, v.Address); err != nil {
		return err
	}
	v.Status = StatusInactive
	v.LowStakeCounter = nil
	if err := s.sto.validators.Set(v.Address, v); err != nil {
		return err
	}
	if err := s.sto.inactivePools.Set(v.PoolID, v.Address); err != nil {
		return err
	}
	if err := s.sto.reports.Delete(v.Address); err != nil {
		return err
	}
	if err := s.pools.Deactivate(v.PoolID, epoch); err != nil {
		return err
	}
	logger.Info("validator deactivated", "identity", v.Address, "epoch", epoch)
	return nil
}
