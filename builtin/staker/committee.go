// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/meridian-network/meridian/meridian"
)

// CommitteeMember is one committee seat with its stake and capped voting
// power in basis points.
type CommitteeMember struct {
	Address        meridian.Address
	Stake          *big.Int
	VotingPowerBps uint64
}

// Committee returns the current committee identities in canonical order:
// stake descending at selection time, address ascending on ties.
func (s *Staker) Committee() ([]meridian.Address, error) {
	return s.sto.committee.Get()
}

// CommitteeMembers returns the current committee with stakes and capped
// voting powers, recomputed from the pools.
func (s *Staker) CommitteeMembers() ([]*CommitteeMember, error) {
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
	assignVotingPowers(members)
	return members, nil
}

// selectCommittee computes the committee from the active set: all of it when
// it fits, otherwise the top K by stake. The canonical order is emitted even
// when membership is the whole set.
func (s *Staker) selectCommittee() ([]meridian.Address, error) {
	active, err := s.sto.active.Get()
	if err != nil {
		return nil, err
	}
	members := make([]*CommitteeMember, 0, len(active))
	for _, addr := range active {
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
	sortMembers(members)

	maxSize, err := s.params.Get(meridian.KeyMaxCommitteeSize)
	if err != nil {
		return nil, err
	}
	if k := int(maxSize.Int64()); len(members) > k {
		members = members[:k]
	}
	committee := make([]meridian.Address, len(members))
	for i, m := range members {
		committee[i] = m.Address
	}
	return committee, nil
}

// sortMembers orders by stake descending, then address bytewise ascending.
// The order must be a fixed total order: every node recomputes the identical
// committee from the same stakes.
func sortMembers(members []*CommitteeMember) {
	sort.Slice(members, func(i, j int) bool {
		switch members[i].Stake.Cmp(members[j].Stake) {
		case 1:
			return true
		case -1:
			return false
		}
		return bytes.Compare(members[i].Address.Bytes(), members[j].Address.Bytes()) < 0
	})
}

// assignVotingPowers fills in each member's voting power: its stake share of
// the committee total in basis points, floor-rounded, capped at the maximum.
// Excess power above the cap is unused, not redistributed, so the sum of
// powers can fall short of the full denominator.
func assignVotingPowers(members []*CommitteeMember) {
	total := new(big.Int)
	for _, m := range members {
		total.Add(total, m.Stake)
	}
	if total.Sign() == 0 {
		for _, m := range members {
			m.VotingPowerBps = 0
		}
		return
	}
	denom := new(big.Int).SetUint64(meridian.BpsDenominator)
	for _, m := range members {
		raw := new(big.Int).Mul(m.Stake, denom)
		raw.Div(raw, total)
		power := raw.Uint64()
		if power > meridian.MaxVotingPowerBps {
			power = meridian.MaxVotingPowerBps
		}
		m.VotingPowerBps = power
	}
}

// totalVotingPower sums the capped powers.
func totalVotingPower(members []*CommitteeMember) uint64 {
	var total uint64
	for _, m := range members {
		total += m.VotingPowerBps
	}
	return total
}
