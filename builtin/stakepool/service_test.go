// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-network/meridian/builtin/storage"
	"github.com/meridian-network/meridian/kv"
	"github.com/meridian-network/meridian/meridian"
	"github.com/meridian-network/meridian/state"
)

var (
	storageAddr = meridian.BytesToAddress([]byte("stakepool-test"))
	validator   = meridian.BytesToAddress([]byte("validator-1"))
	alice       = meridian.BytesToAddress([]byte("alice"))
	bob         = meridian.BytesToAddress([]byte("bob"))
)

func newTestService() *Service {
	st := state.New(kv.NewMem())
	return New(storage.NewContext(storageAddr, st))
}

func newActivePool(t *testing.T, s *Service, epoch uint64) meridian.Bytes32 {
	id, err := s.CreatePool(validator)
	require.NoError(t, err)
	require.NoError(t, s.Activate(id, epoch))
	return id
}

func TestCreatePool(t *testing.T) {
	s := newTestService()

	id, err := s.CreatePool(validator)
	require.NoError(t, err)
	assert.Equal(t, PoolID(validator), id)

	pool, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, pool.IsPreActive())
	assert.False(t, pool.IsDeactivated())
	assert.Zero(t, pool.Value.Sign())

	_, err = s.CreatePool(validator)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = s.Get(PoolID(alice))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestAddStakeMintsOneToOneWhenEmpty(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	posID, position, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), position.Shares)
	assert.Equal(t, uint64(2), position.ActivationEpoch)

	got, err := s.GetPosition(posID)
	require.NoError(t, err)
	assert.Equal(t, position, got)

	pool, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), pool.PendingStake)
	assert.Equal(t, big.NewInt(1000), pool.PendingShares)
	assert.Zero(t, pool.Value.Sign())
}

func TestAddStakeRejectsZeroAndDeactivated(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(0), 1)
	assert.ErrorIs(t, err, ErrZeroAmount)

	require.NoError(t, s.Deactivate(id, 1))
	_, _, err = s.AddStake(id, alice, big.NewInt(100), 1)
	assert.ErrorIs(t, err, ErrPoolDeactivated)
}

func TestAdvanceFoldsPendingDeposits(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)

	rate, err := s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), rate.ShareSupply)
	assert.Equal(t, big.NewInt(1000), rate.Value)

	pool, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), pool.Value)
	assert.Equal(t, big.NewInt(1000), pool.ShareSupply)
	assert.Zero(t, pool.PendingStake.Sign())
	assert.Zero(t, pool.PendingShares.Sign())
}

func TestRewardMovesRateNotShares(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)

	rate, err := s.Advance(id, 3, big.NewInt(500), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), rate.ShareSupply)
	assert.Equal(t, big.NewInt(1500), rate.Value)

	// A later deposit of 300 buys 300*1000/1500 = 200 shares.
	_, position, err := s.AddStake(id, bob, big.NewInt(300), 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), position.Shares)
}

func TestWithdrawActivatedPosition(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	posID, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	_, err = s.Advance(id, 3, big.NewInt(500), 0)
	require.NoError(t, err)

	payout, err := s.RequestWithdrawStake(posID, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), payout)

	_, err = s.GetPosition(posID)
	assert.ErrorIs(t, err, ErrPositionNotFound)

	rate, err := s.Advance(id, 4, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, rate.ShareSupply.Sign())
	assert.Zero(t, rate.Value.Sign())
}

func TestCancelPendingDeposit(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	posID, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)

	// Same epoch, before activation: the queued deposit is cancelled.
	payout, err := s.RequestWithdrawStake(posID, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), payout)

	pool, err := s.Get(id)
	require.NoError(t, err)
	assert.Zero(t, pool.PendingStake.Sign())
	assert.Zero(t, pool.PendingShares.Sign())
}

func TestSplitPosition(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	posID, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)

	_, err = s.SplitPosition(posID, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrInsufficientShares)
	_, err = s.SplitPosition(posID, big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroAmount)

	splitID, err := s.SplitPosition(posID, big.NewInt(400))
	require.NoError(t, err)

	original, err := s.GetPosition(posID)
	require.NoError(t, err)
	split, err := s.GetPosition(splitID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), original.Shares)
	assert.Equal(t, big.NewInt(400), split.Shares)
	assert.Equal(t, original.ActivationEpoch, split.ActivationEpoch)
	assert.Equal(t, original.PoolID, split.PoolID)

	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	p1, err := s.RequestWithdrawStake(posID, 2)
	require.NoError(t, err)
	p2, err := s.RequestWithdrawStake(splitID, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), new(big.Int).Add(p1, p2))
}

func TestSlashReducesValue(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(10000), 1)
	require.NoError(t, err)
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)

	// 1000 bps = 10%.
	rate, err := s.Advance(id, 3, nil, 1000)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10000), rate.ShareSupply)
	assert.Equal(t, big.NewInt(9000), rate.Value)
}

func TestAdvanceRejections(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(100), 1)
	require.NoError(t, err)

	_, err = s.Advance(id, 1, nil, 0)
	assert.ErrorIs(t, err, ErrStaleEpoch)

	_, err = s.Advance(id, 2, big.NewInt(10), 500)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = s.Advance(id, 2, big.NewInt(-1), 0)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestRateHistoryIsAppendOnly(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	_, err = s.Advance(id, 3, big.NewInt(100), 0)
	require.NoError(t, err)

	r1, err := s.RateAt(id, 1)
	require.NoError(t, err)
	assert.Zero(t, r1.ShareSupply.Sign())
	r2, err := s.RateAt(id, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), r2.Value)
	r3, err := s.RateAt(id, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1100), r3.Value)

	_, err = s.RateAt(id, 9)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestPositionValue(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	posID, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)

	// Pending position values at its deposit rate.
	v, err := s.PositionValue(posID, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), v)

	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	_, err = s.Advance(id, 3, big.NewInt(250), 0)
	require.NoError(t, err)

	v, err = s.PositionValue(posID, 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1250), v)

	// Idle epochs reuse the newest snapshot.
	v, err = s.PositionValue(posID, 7)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1250), v)
}

func TestFloorRoundingFavorsPool(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	_, err = s.Advance(id, 3, big.NewInt(7), 0)
	require.NoError(t, err)

	// 100*1000/1007 = 99.30 -> 99 shares, worth 99*1007/1000 = 99.69 -> 99.
	posID, position, err := s.AddStake(id, bob, big.NewInt(100), 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), position.Shares)

	payout, err := s.RequestWithdrawStake(posID, 3)
	require.NoError(t, err)
	assert.True(t, payout.Cmp(big.NewInt(100)) <= 0)
	assert.Equal(t, big.NewInt(99), payout)
}

func TestConservationAcrossManyStakers(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	var posIDs []meridian.Bytes32
	deposited := new(big.Int)
	for i := int64(1); i <= 10; i++ {
		amount := big.NewInt(i * 977)
		posID, _, err := s.AddStake(id, alice, amount, 1)
		require.NoError(t, err)
		posIDs = append(posIDs, posID)
		deposited.Add(deposited, amount)
	}
	_, err := s.Advance(id, 2, nil, 0)
	require.NoError(t, err)
	reward := big.NewInt(12345)
	_, err = s.Advance(id, 3, reward, 0)
	require.NoError(t, err)

	total := new(big.Int).Add(deposited, reward)
	withdrawn := new(big.Int)
	for _, posID := range posIDs {
		payout, err := s.RequestWithdrawStake(posID, 3)
		require.NoError(t, err)
		withdrawn.Add(withdrawn, payout)
	}
	// Payouts never exceed the pool's value; only floor dust stays behind.
	assert.True(t, withdrawn.Cmp(total) <= 0)
	dust := new(big.Int).Sub(total, withdrawn)
	assert.True(t, dust.Cmp(big.NewInt(10)) <= 0)

	rate, err := s.Advance(id, 4, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, rate.ShareSupply.Sign())
	assert.Equal(t, dust, rate.Value)
}

func TestResetCacheRereadsState(t *testing.T) {
	s := newTestService()
	id := newActivePool(t, s, 1)

	_, _, err := s.AddStake(id, alice, big.NewInt(1000), 1)
	require.NoError(t, err)
	cp := s.sctx.State().NewCheckpoint()
	_, err = s.Advance(id, 2, nil, 0)
	require.NoError(t, err)

	s.sctx.State().RevertTo(cp)
	s.ResetCache()

	_, err = s.RateAt(id, 2)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
