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
	"github.com/meridian-network/meridian/test/datagen"
)

// fourValidators bootstraps validators with stakes 100/200/300/400 and
// advances once so they are all active committee members.
func fourValidators(t *testing.T, env *testEnv) []meridian.Address {
	identities := make([]meridian.Address, 4)
	for i := range identities {
		identities[i] = meridian.BytesToAddress([]byte{byte(i + 1)})
		env.addValidator(identities[i], 0, int64((i+1)*100))
	}
	env.advance(0, 0, 0)
	return identities
}

func TestTipsDistributedEqually(t *testing.T) {
	env := newTestEnv(t)
	ids := fourValidators(t, env)

	// Stakes 100..400 all exceed 10% of the total, so every seat is capped
	// to equal voting power and the 120 in tips splits evenly.
	result := env.advance(0, 120, 0)
	assert.Equal(t, big.NewInt(120), result.TotalReward)
	assert.Equal(t, big.NewInt(120), result.TotalDistributed)
	assert.Zero(t, result.TotalSlashed.Sign())

	assert.Equal(t, big.NewInt(130), env.poolValue(ids[0]))
	assert.Equal(t, big.NewInt(230), env.poolValue(ids[1]))
	assert.Equal(t, big.NewInt(330), env.poolValue(ids[2]))
	assert.Equal(t, big.NewInt(430), env.poolValue(ids[3]))
}

func TestSubsidyWithFullyBurnedCharge(t *testing.T) {
	env := newTestEnv(t)
	ids := fourValidators(t, env)
	supplyBefore, err := env.staker.TotalSupply()
	require.NoError(t, err)

	// Fees fully burned: only the subsidy is distributed.
	result := env.advance(800, 400, 400)
	assert.Equal(t, big.NewInt(800), result.TotalReward)
	assert.Equal(t, big.NewInt(800), result.TotalDistributed)
	assert.Equal(t, big.NewInt(400), result.SupplyDelta)

	for i, id := range ids {
		expected := big.NewInt(int64((i+1)*100 + 200))
		assert.Equal(t, expected, env.poolValue(id))
	}

	supplyAfter, err := env.staker.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(supplyBefore, big.NewInt(400)), supplyAfter)

	burned, err := env.staker.TotalBurned()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), burned)
}

func TestSlashedRewardIsBurned(t *testing.T) {
	env := newTestEnv(t)
	ids := make([]meridian.Address, 4)
	caps := make([]meridian.Address, 4)
	for i := range ids {
		ids[i] = meridian.BytesToAddress([]byte{byte(i + 1)})
		caps[i] = env.addValidator(ids[i], 0, 250)
	}
	env.advance(0, 0, 0)

	// 75% of committee voting power reports ids[0].
	for i := 1; i < 4; i++ {
		require.NoError(t, env.staker.ReportValidator(caps[i], ids[0]))
	}
	supplyBefore, err := env.staker.TotalSupply()
	require.NoError(t, err)

	result := env.advance(400, 0, 0)
	// Each seat earns 100; the reported one loses 10% of it, burned.
	assert.Equal(t, big.NewInt(10), result.TotalSlashed)
	assert.Equal(t, big.NewInt(390), result.TotalDistributed)
	assert.Equal(t, big.NewInt(340), env.poolValue(ids[0]))
	assert.Equal(t, big.NewInt(350), env.poolValue(ids[1]))

	supplyAfter, err := env.staker.TotalSupply()
	require.NoError(t, err)
	expected := new(big.Int).Add(supplyBefore, big.NewInt(400))
	expected.Sub(expected, big.NewInt(10))
	assert.Equal(t, expected, supplyAfter)
}

func TestReportsBelowThresholdDoNotSlash(t *testing.T) {
	env := newTestEnv(t)
	ids := make([]meridian.Address, 4)
	caps := make([]meridian.Address, 4)
	for i := range ids {
		ids[i] = meridian.BytesToAddress([]byte{byte(i + 1)})
		caps[i] = env.addValidator(ids[i], 0, 250)
	}
	env.advance(0, 0, 0)

	// A single reporter holds 25% of voting power, under the 50% threshold.
	require.NoError(t, env.staker.ReportValidator(caps[1], ids[0]))

	result := env.advance(400, 0, 0)
	assert.Zero(t, result.TotalSlashed.Sign())
	assert.Equal(t, big.NewInt(350), env.poolValue(ids[0]))
}

func TestCommissionMintedAsValidatorPosition(t *testing.T) {
	env := newTestEnv(t)
	identity := datagen.RandAddress()
	env.addValidator(identity, 1000, 400) // 10% commission
	env.advance(0, 0, 0)

	env.advance(100, 0, 0)

	v, err := env.staker.Validator(identity)
	require.NoError(t, err)
	pool, err := env.staker.Pools().Get(v.PoolID)
	require.NoError(t, err)
	// 90 of the 100 reward folds into the shared pool; 10 buys the
	// validator's own shares at the post-reward rate.
	assert.Equal(t, big.NewInt(490), pool.Value)
	assert.Equal(t, big.NewInt(10), pool.PendingStake)

	env.advance(0, 0, 0)
	assert.Equal(t, big.NewInt(500), env.poolValue(identity))
}

func TestVeryLowStakeEvictsImmediately(t *testing.T) {
	env := newTestEnv(t)
	v1 := datagen.RandAddress()
	v2 := datagen.RandAddress()
	env.addValidator(v1, 0, 200)
	env.addValidator(v2, 0, 100)
	env.advance(0, 0, 0)

	// The self-staker pulls out nearly everything; the remaining value
	// drops under the very-low threshold of 20 at the next boundary.
	record, err := env.staker.Validator(v2)
	require.NoError(t, err)
	pool, err := env.staker.Pools().Get(record.PoolID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), pool.Value)

	withdrawMost(t, env, v2, 90)
	env.advance(0, 0, 0)

	active, err := env.staker.ActiveValidators()
	require.NoError(t, err)
	assert.Equal(t, []meridian.Address{v1}, active)

	record, err = env.staker.Validator(v2)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, record.Status)
	assert.Nil(t, record.LowStakeCounter)
}

func TestLowStakeGracePeriod(t *testing.T) {
	env := newTestEnv(t)
	v1 := datagen.RandAddress()
	v2 := datagen.RandAddress()
	env.addValidator(v1, 0, 200)
	env.addValidator(v2, 0, 100)
	env.advance(0, 0, 0)

	// Down to 30: below the low threshold 50, above the very-low 20.
	withdrawMost(t, env, v2, 70)

	// Grace period is 2: first breach initializes the counter, the next
	// boundary burns it down to zero and evicts.
	env.advance(0, 0, 0)
	record, err := env.staker.Validator(v2)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, record.Status)
	require.NotNil(t, record.LowStakeCounter)
	assert.Equal(t, uint64(2), *record.LowStakeCounter)

	env.advance(0, 0, 0)
	record, err = env.staker.Validator(v2)
	require.NoError(t, err)
	require.NotNil(t, record.LowStakeCounter)
	assert.Equal(t, uint64(1), *record.LowStakeCounter)

	env.advance(0, 0, 0)
	record, err = env.staker.Validator(v2)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, record.Status)
}

func TestLowStakeCounterResetsOnRecovery(t *testing.T) {
	env := newTestEnv(t)
	v1 := datagen.RandAddress()
	v2 := datagen.RandAddress()
	env.addValidator(v1, 0, 200)
	env.addValidator(v2, 0, 100)
	env.advance(0, 0, 0)

	withdrawMost(t, env, v2, 70)
	env.advance(0, 0, 0)
	record, err := env.staker.Validator(v2)
	require.NoError(t, err)
	require.NotNil(t, record.LowStakeCounter)

	// Fresh stake brings the pool back over the threshold.
	_, err = env.staker.StakeWithValidator(datagen.RandAddress(), v2, big.NewInt(70))
	require.NoError(t, err)
	env.advance(0, 0, 0)

	record, err = env.staker.Validator(v2)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, record.Status)
	assert.Nil(t, record.LowStakeCounter)
}

func TestFailedAdvanceLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	ids := fourValidators(t, env)
	epochBefore, err := env.staker.CurrentEpoch()
	require.NoError(t, err)
	stakeBefore := env.poolValue(ids[0])

	// Burning more than the tracked supply must abort the whole boundary.
	_, err = env.staker.AdvanceEpoch(&RewardInput{
		ValidatorSubsidy:        big.NewInt(0),
		ComputationCharge:       big.NewInt(2_000_000),
		ComputationChargeBurned: big.NewInt(2_000_000),
	})
	assert.ErrorIs(t, err, ErrSupplyUnderflow)

	epochAfter, err := env.staker.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, epochBefore, epochAfter)
	assert.Equal(t, stakeBefore, env.poolValue(ids[0]))

	// A corrected retry succeeds.
	env.advance(0, 120, 0)
	assert.Equal(t, big.NewInt(130), env.poolValue(ids[0]))
}

func TestAdvanceRejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	fourValidators(t, env)

	_, err := env.staker.AdvanceEpoch(&RewardInput{
		ComputationCharge:       big.NewInt(100),
		ComputationChargeBurned: big.NewInt(200),
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	overflow := new(big.Int).Lsh(big.NewInt(1), 129)
	_, err = env.staker.AdvanceEpoch(&RewardInput{ValidatorSubsidy: overflow})
	assert.ErrorIs(t, err, ErrSupplyOverflow)
}

func TestTotalActiveStakeTracksPools(t *testing.T) {
	env := newTestEnv(t)
	fourValidators(t, env)

	total, err := env.staker.TotalActiveStake()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)

	env.advance(0, 120, 0)
	total, err = env.staker.TotalActiveStake()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1120), total)
}

// withdrawMost withdraws the given amount from the validator's own position
// by splitting it first.
func withdrawMost(t *testing.T, env *testEnv, identity meridian.Address, amount int64) {
	t.Helper()
	posID, ok := env.selfStake[identity]
	require.True(t, ok)
	position, err := env.staker.Pools().GetPosition(posID)
	require.NoError(t, err)
	require.Equal(t, identity, position.Owner)

	splitID, err := env.staker.SplitStake(posID, big.NewInt(amount))
	require.NoError(t, err)
	payout, err := env.staker.RequestWithdrawStake(splitID)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(amount), payout)
}
