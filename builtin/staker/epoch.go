// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/meridian-network/meridian/meridian"
)

// EpochResult reports what one epoch advancement did.
type EpochResult struct {
	Epoch            uint64
	Committee        []meridian.Address
	TotalReward      *big.Int
	TotalDistributed *big.Int
	TotalSlashed     *big.Int
	// SupplyDelta is the signed net mint (positive) or burn (negative).
	SupplyDelta *big.Int
}

// AdvanceEpoch performs the atomic epoch transition: pool rollover with
// rewards, slashing and commission, supply adjustment, low-stake eviction,
// staged lifecycle transitions and committee re-selection. A failure at any
// step reverts the whole transition; the boundary must then be retried with
// corrected inputs.
func (s *Staker) AdvanceEpoch(input *RewardInput) (*EpochResult, error) {
	started := time.Now()
	checkpoint := s.state.NewCheckpoint()
	result, err := s.advanceEpoch(input.normalized())
	if err != nil {
		s.state.RevertTo(checkpoint)
		s.pools.ResetCache()
		metricEpochFailures().Add(1)
		logger.Error("epoch advancement aborted", "err", err)
		return nil, err
	}
	metricEpochs().Add(1)
	metricEpochDuration().Observe(time.Since(started).Milliseconds())
	logger.Info("epoch advanced",
		"epoch", result.Epoch,
		"committee", len(result.Committee),
		"reward", result.TotalReward,
		"slashed", result.TotalSlashed,
		"supplyDelta", result.SupplyDelta,
	)
	return result, nil
}

func (s *Staker) advanceEpoch(in *RewardInput) (*EpochResult, error) {
	epoch, err := s.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	newEpoch := epoch + 1

	if in.ComputationChargeBurned.Cmp(in.ComputationCharge) > 0 {
		return nil, errors.WithMessage(ErrInvariantViolation, "burned charge exceeds computation charge")
	}
	tips := new(big.Int).Sub(in.ComputationCharge, in.ComputationChargeBurned)
	totalReward := new(big.Int).Add(in.ValidatorSubsidy, tips)
	if totalReward.BitLen() > 128 {
		return nil, errors.WithMessage(ErrSupplyOverflow, "reward envelope out of range")
	}

	committee, err := s.sto.committee.Get()
	if err != nil {
		return nil, err
	}
	members := make([]*CommitteeMember, 0, len(committee))
	for _, addr := range committee {
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return nil, err
		}
		pool, err := s.pools.Get(v.PoolID)
		if err != nil {
			return nil, err
		}
		members = append(members, &CommitteeMember{Address: addr, Stake: pool.Value})
	}

	outcomes, err := s.computeRewards(members, totalReward)
	if err != nil {
		return nil, err
	}

	totalSlashed := new(big.Int)
	totalDistributed := new(big.Int)
	inCommittee := make(map[meridian.Address]bool, len(committee))
	for _, out := range outcomes {
		inCommittee[out.member.Address] = true
		totalSlashed.Add(totalSlashed, out.slashed)
		totalDistributed.Add(totalDistributed, out.reward)

		poolReward := new(big.Int).Sub(out.reward, out.commission)
		if _, err := s.pools.Advance(out.validator.PoolID, newEpoch, poolReward, 0); err != nil {
			return nil, err
		}
		if out.commission.Sign() > 0 {
			// Commission buys the validator's own shares at the
			// post-reward rate.
			if _, _, err := s.pools.AddStake(out.validator.PoolID, out.validator.Address, out.commission, newEpoch); err != nil {
				return nil, err
			}
		}
	}

	active, err := s.sto.active.Get()
	if err != nil {
		return nil, err
	}
	for _, addr := range active {
		if inCommittee[addr] {
			continue
		}
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return nil, err
		}
		if _, err := s.pools.Advance(v.PoolID, newEpoch, nil, 0); err != nil {
			return nil, err
		}
	}

	supplyDelta, err := s.adjustSupply(in, totalSlashed, totalDistributed)
	if err != nil {
		return nil, err
	}

	if err := s.evictLowStake(newEpoch); err != nil {
		return nil, err
	}
	if err := s.applyTransitions(newEpoch); err != nil {
		return nil, err
	}

	activeStake, err := s.recomputeActiveStake()
	if err != nil {
		return nil, err
	}

	newCommittee, err := s.selectCommittee()
	if err != nil {
		return nil, err
	}
	if err := s.sto.committee.Set(newCommittee); err != nil {
		return nil, err
	}
	if err := s.pruneReports(committee, newCommittee); err != nil {
		return nil, err
	}
	if err := s.sto.epoch.Set(new(big.Int).SetUint64(newEpoch)); err != nil {
		return nil, err
	}

	newActive, err := s.sto.active.Get()
	if err != nil {
		return nil, err
	}
	metricActiveCount().Set(int64(len(newActive)))
	metricCommitteeSize().Set(int64(len(newCommittee)))
	metricActiveStake().Set(activeStake.Int64())

	return &EpochResult{
		Epoch:            newEpoch,
		Committee:        newCommittee,
		TotalReward:      totalReward,
		TotalDistributed: totalDistributed,
		TotalSlashed:     totalSlashed,
		SupplyDelta:      supplyDelta,
	}, nil
}

// adjustSupply applies the epoch's net mint or burn to the tracked supply
// and rolls the cumulative counters forward.
func (s *Staker) adjustSupply(in *RewardInput, totalSlashed, totalDistributed *big.Int) (*big.Int, error) {
	delta := new(big.Int).Sub(in.ValidatorSubsidy, in.ComputationChargeBurned)
	delta.Sub(delta, totalSlashed)

	supply, err := s.sto.totalSupply.Get()
	if err != nil {
		return nil, err
	}
	switch delta.Sign() {
	case 1:
		supply = new(big.Int).Add(supply, delta)
		if supply.BitLen() > 256 {
			return nil, ErrSupplyOverflow
		}
		if err := s.sto.totalSupply.Set(supply); err != nil {
			return nil, err
		}
	case -1:
		burn := new(big.Int).Neg(delta)
		if supply.Cmp(burn) < 0 {
			return nil, ErrSupplyUnderflow
		}
		if err := s.sto.totalSupply.Set(new(big.Int).Sub(supply, burn)); err != nil {
			return nil, err
		}
	}

	burned := new(big.Int).Add(in.ComputationChargeBurned, totalSlashed)
	if burned.Sign() > 0 {
		if err := s.sto.totalBurned.Add(burned); err != nil {
			return nil, err
		}
		metricBurned().Add(burned.Int64())
	}
	if totalDistributed.Sign() > 0 {
		if err := s.sto.totalRewards.Add(totalDistributed); err != nil {
			return nil, err
		}
	}
	return delta, nil
}

// evictLowStake applies the low-stake policy to every active validator
// after reward application. Very low stake evicts immediately; low stake
// burns down the grace counter.
func (s *Staker) evictLowStake(newEpoch uint64) error {
	lowThreshold, err := s.params.Get(meridian.KeyLowStakeThreshold)
	if err != nil {
		return err
	}
	veryLowThreshold, err := s.params.Get(meridian.KeyVeryLowStakeThreshold)
	if err != nil {
		return err
	}
	gracePeriod, err := s.params.Get(meridian.KeyLowStakeGracePeriod)
	if err != nil {
		return err
	}

	active, err := s.sto.active.Get()
	if err != nil {
		return err
	}
	for _, addr := range active {
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return err
		}
		if !v.InCommitteePath() {
			continue
		}
		pool, err := s.pools.Get(v.PoolID)
		if err != nil {
			return err
		}
		switch {
		case pool.Value.Cmp(veryLowThreshold) < 0:
			logger.Warn("validator evicted on very low stake", "identity", addr, "stake", pool.Value)
			if err := s.deactivateValidator(v, newEpoch); err != nil {
				return err
			}
		case pool.Value.Cmp(lowThreshold) < 0:
			var counter uint64
			if v.LowStakeCounter == nil {
				counter = gracePeriod.Uint64()
			} else {
				counter = *v.LowStakeCounter - 1
			}
			if counter == 0 {
				logger.Warn("validator evicted after low-stake grace", "identity", addr, "stake", pool.Value)
				if err := s.deactivateValidator(v, newEpoch); err != nil {
					return err
				}
				continue
			}
			v.LowStakeCounter = &counter
			if err := s.sto.validators.Set(addr, v); err != nil {
				return err
			}
		case v.LowStakeCounter != nil:
			v.LowStakeCounter = nil
			if err := s.sto.validators.Set(addr, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyTransitions finalizes the staged lifecycle moves: pending-active
// candidates join the active set, pending removals leave it, and staged
// commission and metadata updates take effect.
func (s *Staker) applyTransitions(newEpoch uint64) error {
	candidates, err := s.sto.candidates.Get()
	if err != nil {
		return err
	}
	for _, addr := range candidates {
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return err
		}
		if v.Status != StatusPendingActive {
			continue
		}
		if err := s.pools.Activate(v.PoolID, newEpoch); err != nil {
			return err
		}
		// Fold the stake gathered while a candidate.
		if _, err := s.pools.Advance(v.PoolID, newEpoch, nil, 0); err != nil {
			return err
		}
		v.Status = StatusActive
		v.ActivationEpoch = newEpoch
		v.applyStaged()
		if err := s.sto.validators.Set(addr, v); err != nil {
			return err
		}
		if err := removeFromSet(s.sto.candidates, addr); err != nil {
			return err
		}
		if err := addToSet(s.sto.active, addr); err != nil {
			return err
		}
		logger.Info("validator activated", "identity", addr, "epoch", newEpoch)
	}

	active, err := s.sto.active.Get()
	if err != nil {
		return err
	}
	for _, addr := range active {
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return err
		}
		if v.Status == StatusPendingRemoval {
			if err := s.deactivateValidator(v, newEpoch); err != nil {
				return err
			}
			continue
		}
		if v.NextCommissionRateBps != nil || v.NextMetadata != nil {
			v.applyStaged()
			if err := s.sto.validators.Set(addr, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// recomputeActiveStake sets the tracked total to the sum of all active
// pools' value.
func (s *Staker) recomputeActiveStake() (*big.Int, error) {
	active, err := s.sto.active.Get()
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, addr := range active {
		v, err := s.sto.getValidator(addr)
		if err != nil {
			return nil, err
		}
		pool, err := s.pools.Get(v.PoolID)
		if err != nil {
			return nil, err
		}
		total.Add(total, pool.Value)
	}
	if err := s.sto.totalActiveStake.Set(total); err != nil {
		return nil, err
	}
	return total, nil
}
