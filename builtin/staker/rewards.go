// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/meridian-network/meridian/meridian"
)

// RewardInput is the settled per-epoch figures consumed from the storage
// fund collaborator. Tips, the non-burned part of the computation charge,
// are distributed on top of the subsidy.
type RewardInput struct {
	ValidatorSubsidy        *big.Int
	ComputationCharge       *big.Int
	ComputationChargeBurned *big.Int
}

func (in *RewardInput) normalized() *RewardInput {
	out := &RewardInput{
		ValidatorSubsidy:        new(big.Int),
		ComputationCharge:       new(big.Int),
		ComputationChargeBurned: new(big.Int),
	}
	if in != nil {
		if in.ValidatorSubsidy != nil {
			out.ValidatorSubsidy.Set(in.ValidatorSubsidy)
		}
		if in.ComputationCharge != nil {
			out.ComputationCharge.Set(in.ComputationCharge)
		}
		if in.ComputationChargeBurned != nil {
			out.ComputationChargeBurned.Set(in.ComputationChargeBurned)
		}
	}
	return out
}

// memberOutcome is the per-seat result of one reward round.
type memberOutcome struct {
	member     *CommitteeMember
	validator  *Validator
	reward     *big.Int // post-slash, including commission
	slashed    *big.Int
	commission *big.Int
}

// computeRewards runs the distribution round: capped voting powers, floor
// division of the reward envelope, report-based slashing and commission
// splits. It mutates nothing; the orchestrator applies the outcomes.
func (s *Staker) computeRewards(members []*CommitteeMember, totalReward *big.Int) ([]*memberOutcome, error) {
	slashRate, err := s.params.Get(meridian.KeyRewardSlashingRate)
	if err != nil {
		return nil, err
	}
	threshold, err := s.params.Get(meridian.KeyReportingThreshold)
	if err != nil {
		return nil, err
	}

	assignVotingPowers(members)
	totalPower := totalVotingPower(members)
	bps := new(big.Int).SetUint64(meridian.BpsDenominator)

	outcomes := make([]*memberOutcome, 0, len(members))
	for _, m := range members {
		v, err := s.sto.getValidator(m.Address)
		if err != nil {
			return nil, err
		}
		out := &memberOutcome{
			member:     m,
			validator:  v,
			reward:     new(big.Int),
			slashed:    new(big.Int),
			commission: new(big.Int),
		}
		outcomes = append(outcomes, out)
		if totalPower == 0 || totalReward.Sign() == 0 {
			continue
		}

		reward := new(big.Int).Mul(totalReward, new(big.Int).SetUint64(m.VotingPowerBps))
		reward.Div(reward, new(big.Int).SetUint64(totalPower))

		tallied, err := s.tallied(m.Address, members, totalPower, threshold.Uint64())
		if err != nil {
			return nil, err
		}
		if tallied {
			slashed := new(big.Int).Mul(reward, slashRate)
			slashed.Div(slashed, bps)
			reward.Sub(reward, slashed)
			out.slashed = slashed
		}

		commission := new(big.Int).Mul(reward, big.NewInt(int64(v.CommissionRateBps)))
		commission.Div(commission, bps)
		out.reward = reward
		out.commission = commission
	}
	return outcomes, nil
}

// tallied reports whether the capped voting power of the target's reporters
// currently in the committee reaches the threshold fraction of the total.
func (s *Staker) tallied(target meridian.Address, members []*CommitteeMember, totalPower uint64, thresholdBps uint64) (bool, error) {
	reporters, err := s.sto.reports.Get(target)
	if err != nil {
		return false, err
	}
	if len(reporters) == 0 {
		return false, nil
	}
	reported := make(map[meridian.Address]bool, len(reporters))
	for _, r := range reporters {
		reported[r] = true
	}
	var sum uint64
	for _, m := range members {
		if reported[m.Address] {
			sum += m.VotingPowerBps
		}
	}
	// sum/totalPower >= threshold/10000, in integers.
	return sum*meridian.BpsDenominator >= thresholdBps*totalPower, nil
}
