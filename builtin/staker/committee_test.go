// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-network/meridian/meridian"
)

func TestCommitteeCanonicalOrder(t *testing.T) {
	env := newTestEnv(t)
	ids := fourValidators(t, env)

	committee, err := env.staker.Committee()
	require.NoError(t, err)
	// Stake descending: 400, 300, 200, 100.
	assert.Equal(t, []meridian.Address{ids[3], ids[2], ids[1], ids[0]}, committee)
}

func TestCommitteeDeterministicUnderPermutation(t *testing.T) {
	stakes := map[byte]int64{1: 300, 2: 300, 3: 100, 4: 200}

	build := func(order []byte) []meridian.Address {
		env := newTestEnv(t)
		for _, b := range order {
			env.addValidator(meridian.BytesToAddress([]byte{b}), 0, stakes[b])
		}
		env.advance(0, 0, 0)
		committee, err := env.staker.Committee()
		require.NoError(t, err)
		return committee
	}

	first := build([]byte{1, 2, 3, 4})
	second := build([]byte{4, 3, 2, 1})
	third := build([]byte{2, 4, 1, 3})
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	// Equal stakes tie-break by address bytewise ascending.
	assert.Equal(t, meridian.BytesToAddress([]byte{1}), first[0])
	assert.Equal(t, meridian.BytesToAddress([]byte{2}), first[1])
	assert.Equal(t, meridian.BytesToAddress([]byte{4}), first[2])
	assert.Equal(t, meridian.BytesToAddress([]byte{3}), first[3])
}

func TestCommitteeTopK(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.gov.Set(meridian.KeyMaxCommitteeSize, big.NewInt(2)))
	ids := fourValidators(t, env)

	committee, err := env.staker.Committee()
	require.NoError(t, err)
	assert.Equal(t, []meridian.Address{ids[3], ids[2]}, committee)

	// Non-committee validators stay active but earn nothing.
	result := env.advance(0, 700, 0)
	assert.Len(t, result.Committee, 2)
	assert.Equal(t, big.NewInt(100), env.poolValue(ids[0]))
	assert.Equal(t, big.NewInt(200), env.poolValue(ids[1]))

	active, err := env.staker.ActiveValidators()
	require.NoError(t, err)
	assert.Len(t, active, 4)
}

func TestVotingPowerCap(t *testing.T) {
	env := newTestEnv(t)
	fourValidators(t, env)

	members, err := env.staker.CommitteeMembers()
	require.NoError(t, err)
	require.Len(t, members, 4)
	for _, m := range members {
		assert.LessOrEqual(t, m.VotingPowerBps, meridian.MaxVotingPowerBps)
	}
}

func TestVotingPowerProportionalWhenUncapped(t *testing.T) {
	// Many small validators so nobody hits the cap.
	env := newTestEnv(t)
	ids := make([]meridian.Address, 20)
	for i := range ids {
		ids[i] = meridian.BytesToAddress([]byte{byte(i + 1)})
		env.addValidator(ids[i], 0, 100)
	}
	env.advance(0, 0, 0)

	members, err := env.staker.CommitteeMembers()
	require.NoError(t, err)
	require.Len(t, members, 20)
	for _, m := range members {
		assert.Equal(t, uint64(500), m.VotingPowerBps)
	}
}

func TestSortMembersTotalOrder(t *testing.T) {
	a := meridian.BytesToAddress([]byte{0xaa})
	b := meridian.BytesToAddress([]byte{0xbb})
	c := meridian.BytesToAddress([]byte{0xcc})
	members := []*CommitteeMember{
		{Address: c, Stake: big.NewInt(50)},
		{Address: b, Stake: big.NewInt(70)},
		{Address: a, Stake: big.NewInt(50)},
	}
	sortMembers(members)
	assert.Equal(t, b, members[0].Address)
	assert.Equal(t, a, members[1].Address)
	assert.Equal(t, c, members[2].Address)
}
