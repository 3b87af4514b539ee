// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakepool implements share-based stake accounting. Each validator
// owns one pool; stakers hold positions denominated in shares. The value of
// a share follows the pool's epoch-indexed exchange-rate ledger: rewards and
// slashes move the rate, deposits and withdrawals do not.
package stakepool

import (
	"encoding/binary"
	"math/big"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/meridian-network/meridian/builtin/storage"
	"github.com/meridian-network/meridian/meridian"
)

const rateCacheSize = 4096

type epochKey uint64

func (k epochKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

type rateCacheKey struct {
	pool  meridian.Bytes32
	epoch uint64
}

// Service exposes pool, position and exchange-rate operations over a storage
// context. Epochs are always supplied by the caller; the service keeps no
// clock of its own.
type Service struct {
	sctx      *storage.Context
	pools     *storage.Mapping[meridian.Bytes32, *Pool]
	positions *storage.Mapping[meridian.Bytes32, *Position]
	counter   *storage.Uint256
	rateSlot  meridian.Bytes32
	rateCache *lru.Cache
}

// New creates a pool service bound to the storage context.
func New(sctx *storage.Context) *Service {
	cache, _ := lru.New(rateCacheSize)
	return &Service{
		sctx:      sctx,
		pools:     storage.NewMapping[meridian.Bytes32, *Pool](sctx, storage.NameToSlot("pools")),
		positions: storage.NewMapping[meridian.Bytes32, *Position](sctx, storage.NameToSlot("positions")),
		counter:   storage.NewUint256(sctx, storage.NameToSlot("position-counter")),
		rateSlot:  storage.NameToSlot("rates"),
		rateCache: cache,
	}
}

func (s *Service) rates(poolID meridian.Bytes32) *storage.Mapping[epochKey, *ExchangeRate] {
	return storage.NewMapping[epochKey, *ExchangeRate](s.sctx, meridian.Blake2b(poolID.Bytes(), s.rateSlot.Bytes()))
}

// ResetCache drops all cached snapshots. Must be called after a state revert
// that may have discarded freshly written snapshots.
func (s *Service) ResetCache() {
	s.rateCache.Purge()
}

// CreatePool creates the pool owned by the validator address. The pool
// starts pre-active: it mints shares one to one until activation.
func (s *Service) CreatePool(owner meridian.Address) (meridian.Bytes32, error) {
	id := PoolID(owner)
	existing, err := s.pools.Get(id)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if !existing.IsEmpty() {
		return meridian.Bytes32{}, errors.WithMessage(ErrInvariantViolation, "pool already exists")
	}
	pool := &Pool{
		Owner:                 owner,
		ShareSupply:           new(big.Int),
		Value:                 new(big.Int),
		PendingStake:          new(big.Int),
		PendingShares:         new(big.Int),
		PendingWithdrawValue:  new(big.Int),
		PendingWithdrawShares: new(big.Int),
	}
	if err := s.pools.Set(id, pool); err != nil {
		return meridian.Bytes32{}, err
	}
	return id, nil
}

// Get returns the pool record for the id.
func (s *Service) Get(id meridian.Bytes32) (*Pool, error) {
	pool, err := s.pools.Get(id)
	if err != nil {
		return nil, err
	}
	if pool.IsEmpty() {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// GetPosition returns the position record for the id.
func (s *Service) GetPosition(id meridian.Bytes32) (*Position, error) {
	pos, err := s.positions.Get(id)
	if err != nil {
		return nil, err
	}
	if pos.IsEmpty() {
		return nil, ErrPositionNotFound
	}
	return pos, nil
}

// Activate stamps the epoch from which the pool earns rewards.
func (s *Service) Activate(poolID meridian.Bytes32, epoch uint64) error {
	pool, err := s.Get(poolID)
	if err != nil {
		return err
	}
	if !pool.IsPreActive() {
		return errors.WithMessage(ErrInvariantViolation, "pool already active")
	}
	pool.ActivationEpoch = &epoch
	return s.pools.Set(poolID, pool)
}

// Deactivate stamps the epoch after which the pool accepts no deposits.
// Withdrawals keep working at the final exchange rate.
func (s *Service) Deactivate(poolID meridian.Bytes32, epoch uint64) error {
	pool, err := s.Get(poolID)
	if err != nil {
		return err
	}
	if pool.IsDeactivated() {
		return errors.WithMessage(ErrInvariantViolation, "pool already deactivated")
	}
	pool.DeactivationEpoch = &epoch
	return s.pools.Set(poolID, pool)
}

// AddStake deposits value into the pool during the given epoch. Shares are
// minted at the current epoch's exchange rate and activate at epoch+1. It
// returns the id of the new position.
func (s *Service) AddStake(poolID meridian.Bytes32, staker meridian.Address, amount *big.Int, epoch uint64) (meridian.Bytes32, *Position, error) {
	if amount == nil || amount.Sign() <= 0 {
		return meridian.Bytes32{}, nil, ErrZeroAmount
	}
	pool, err := s.Get(poolID)
	if err != nil {
		return meridian.Bytes32{}, nil, err
	}
	if pool.IsDeactivated() {
		return meridian.Bytes32{}, nil, ErrPoolDeactivated
	}
	rate, err := s.ensureRate(poolID, pool, epoch)
	if err != nil {
		return meridian.Bytes32{}, nil, err
	}
	shares := sharesForValue(amount, rate)

	pool.PendingStake.Add(pool.PendingStake, amount)
	pool.PendingShares.Add(pool.PendingShares, shares)

	position := &Position{
		PoolID:          poolID,
		Owner:           staker,
		Shares:          shares,
		ActivationEpoch: epoch + 1,
	}
	id, err := s.nextPositionID(poolID, staker)
	if err != nil {
		return meridian.Bytes32{}, nil, err
	}
	if err := s.positions.Set(id, position); err != nil {
		return meridian.Bytes32{}, nil, err
	}
	if err := s.pools.Set(poolID, pool); err != nil {
		return meridian.Bytes32{}, nil, err
	}
	return id, position, nil
}

// RequestWithdrawStake burns the position and returns the payout owed to its
// owner. An activated position pays out at the current epoch's rate; a
// position that has not activated yet is cancelled at its deposit rate. The
// pool's live figures shrink at the next Advance.
func (s *Service) RequestWithdrawStake(positionID meridian.Bytes32, epoch uint64) (*big.Int, error) {
	position, err := s.GetPosition(positionID)
	if err != nil {
		return nil, err
	}
	pool, err := s.pools.Get(position.PoolID)
	if err != nil {
		return nil, err
	}
	if pool.IsEmpty() {
		return nil, errors.WithMessage(ErrInvariantViolation, "position references missing pool")
	}

	var payout *big.Int
	if position.ActivationEpoch > epoch {
		// Not yet activated: cancel the queued deposit at its own rate.
		rate, err := s.rateAt(position.PoolID, position.ActivationEpoch-1)
		if err != nil {
			return nil, err
		}
		payout = valueForShares(position.Shares, rate)
		pool.PendingStake.Sub(pool.PendingStake, payout)
		pool.PendingShares.Sub(pool.PendingShares, position.Shares)
		if pool.PendingStake.Sign() < 0 || pool.PendingShares.Sign() < 0 {
			return nil, errors.WithMessage(ErrInvariantViolation, "pending stake underflow")
		}
	} else {
		rate, err := s.ensureRate(position.PoolID, pool, epoch)
		if err != nil {
			return nil, err
		}
		payout = valueForShares(position.Shares, rate)
		pool.PendingWithdrawValue.Add(pool.PendingWithdrawValue, payout)
		pool.PendingWithdrawShares.Add(pool.PendingWithdrawShares, position.Shares)
	}

	if err := s.positions.Delete(positionID); err != nil {
		return nil, err
	}
	if err := s.pools.Set(position.PoolID, pool); err != nil {
		return nil, err
	}
	return payout, nil
}

// SplitPosition carves shares off the position into a new one with the same
// owner, pool and activation epoch. It returns the id of the new position.
func (s *Service) SplitPosition(positionID meridian.Bytes32, shares *big.Int) (meridian.Bytes32, error) {
	if shares == nil || shares.Sign() <= 0 {
		return meridian.Bytes32{}, ErrZeroAmount
	}
	position, err := s.GetPosition(positionID)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if position.Shares.Cmp(shares) <= 0 {
		return meridian.Bytes32{}, ErrInsufficientShares
	}
	position.Shares.Sub(position.Shares, shares)

	split := &Position{
		PoolID:          position.PoolID,
		Owner:           position.Owner,
		Shares:          new(big.Int).Set(shares),
		ActivationEpoch: position.ActivationEpoch,
	}
	id, err := s.nextPositionID(position.PoolID, position.Owner)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if err := s.positions.Set(id, split); err != nil {
		return meridian.Bytes32{}, err
	}
	if err := s.positions.Set(positionID, position); err != nil {
		return meridian.Bytes32{}, err
	}
	return id, nil
}

// PositionValue returns what the position would pay out at the given epoch,
// without mutating anything.
func (s *Service) PositionValue(positionID meridian.Bytes32, epoch uint64) (*big.Int, error) {
	position, err := s.GetPosition(positionID)
	if err != nil {
		return nil, err
	}
	pool, err := s.Get(position.PoolID)
	if err != nil {
		return nil, err
	}
	rateEpoch := epoch
	if pool.HasRate && rateEpoch > pool.LastRateEpoch {
		rateEpoch = pool.LastRateEpoch
	}
	if position.ActivationEpoch > epoch {
		rateEpoch = position.ActivationEpoch - 1
	}
	rate, err := s.rateAt(position.PoolID, rateEpoch)
	if err != nil {
		return nil, err
	}
	return valueForShares(position.Shares, rate), nil
}

// Advance folds the pool's pending queues, applies the epoch's reward or
// slash, and appends the exchange-rate snapshot for the new epoch. Reward
// and slash are mutually exclusive. It returns the new snapshot.
func (s *Service) Advance(poolID meridian.Bytes32, newEpoch uint64, reward *big.Int, slashBps uint16) (*ExchangeRate, error) {
	pool, err := s.Get(poolID)
	if err != nil {
		return nil, err
	}
	if pool.HasRate && newEpoch <= pool.LastRateEpoch {
		return nil, ErrStaleEpoch
	}
	if reward == nil {
		reward = new(big.Int)
	}
	if reward.Sign() > 0 && slashBps > 0 {
		return nil, errors.WithMessage(ErrInvariantViolation, "reward and slash in the same epoch")
	}
	if reward.Sign() < 0 {
		return nil, errors.WithMessage(ErrInvariantViolation, "negative reward")
	}

	value := new(big.Int).Add(pool.Value, reward)
	if slashBps > 0 {
		penalty := new(big.Int).Mul(value, big.NewInt(int64(slashBps)))
		penalty.Div(penalty, new(big.Int).SetUint64(meridian.BpsDenominator))
		value.Sub(value, penalty)
	}
	value.Add(value, pool.PendingStake)
	value.Sub(value, pool.PendingWithdrawValue)

	supply := new(big.Int).Add(pool.ShareSupply, pool.PendingShares)
	supply.Sub(supply, pool.PendingWithdrawShares)

	if value.Sign() < 0 || supply.Sign() < 0 {
		return nil, errors.WithMessage(ErrInvariantViolation, "pool balance underflow")
	}

	pool.Value = value
	pool.ShareSupply = supply
	pool.PendingStake = new(big.Int)
	pool.PendingShares = new(big.Int)
	pool.PendingWithdrawValue = new(big.Int)
	pool.PendingWithdrawShares = new(big.Int)
	pool.LastRateEpoch = newEpoch
	pool.HasRate = true

	rate := &ExchangeRate{
		ShareSupply: new(big.Int).Set(supply),
		Value:       new(big.Int).Set(value),
	}
	if err := s.rates(poolID).Set(epochKey(newEpoch), rate); err != nil {
		return nil, err
	}
	s.rateCache.Add(rateCacheKey{poolID, newEpoch}, rate)
	if err := s.pools.Set(poolID, pool); err != nil {
		return nil, err
	}
	return rate, nil
}

// RateAt returns the exchange-rate snapshot of the pool at the epoch.
func (s *Service) RateAt(poolID meridian.Bytes32, epoch uint64) (*ExchangeRate, error) {
	return s.rateAt(poolID, epoch)
}

func (s *Service) rateAt(poolID meridian.Bytes32, epoch uint64) (*ExchangeRate, error) {
	if cached, ok := s.rateCache.Get(rateCacheKey{poolID, epoch}); ok {
		return cached.(*ExchangeRate), nil
	}
	rates := s.rates(poolID)
	ok, err := rates.Has(epochKey(epoch))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithMessagef(ErrInvariantViolation, "missing rate snapshot at epoch %d", epoch)
	}
	rate, err := rates.Get(epochKey(epoch))
	if err != nil {
		return nil, err
	}
	s.rateCache.Add(rateCacheKey{poolID, epoch}, rate)
	return rate, nil
}

// ensureRate returns the snapshot for the epoch, extending the ledger with a
// copy of the newest snapshot when the pool saw no activity since. The pool
// record is mutated but not saved; callers save it.
func (s *Service) ensureRate(poolID meridian.Bytes32, pool *Pool, epoch uint64) (*ExchangeRate, error) {
	if pool.HasRate && epoch < pool.LastRateEpoch {
		return s.rateAt(poolID, epoch)
	}
	if pool.HasRate && epoch == pool.LastRateEpoch {
		return s.rateAt(poolID, epoch)
	}
	// No snapshot yet at this epoch: the rate is unchanged since the last
	// one, so carry it forward.
	rate := &ExchangeRate{ShareSupply: new(big.Int), Value: new(big.Int)}
	if pool.HasRate {
		last, err := s.rateAt(poolID, pool.LastRateEpoch)
		if err != nil {
			return nil, err
		}
		rate.ShareSupply.Set(last.ShareSupply)
		rate.Value.Set(last.Value)
	}
	if err := s.rates(poolID).Set(epochKey(epoch), rate); err != nil {
		return nil, err
	}
	s.rateCache.Add(rateCacheKey{poolID, epoch}, rate)
	pool.LastRateEpoch = epoch
	pool.HasRate = true
	return rate, nil
}

func (s *Service) nextPositionID(poolID meridian.Bytes32, owner meridian.Address) (meridian.Bytes32, error) {
	n, err := s.counter.Get()
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if err := s.counter.Set(new(big.Int).Add(n, big.NewInt(1))); err != nil {
		return meridian.Bytes32{}, err
	}
	return meridian.Blake2b(poolID.Bytes(), owner.Bytes(), n.Bytes()), nil
}

// sharesForValue converts a deposit into shares at the snapshot rate,
// rounding down. A pool with no shares or no value mints one to one.
func sharesForValue(value *big.Int, rate *ExchangeRate) *big.Int {
	if rate.ShareSupply.Sign() == 0 || rate.Value.Sign() == 0 {
		return new(big.Int).Set(value)
	}
	shares := new(big.Int).Mul(value, rate.ShareSupply)
	return shares.Div(shares, rate.Value)
}

// valueForShares converts shares back into value at the snapshot rate,
// rounding down so dust stays with the pool.
func valueForShares(shares *big.Int, rate *ExchangeRate) *big.Int {
	if rate.ShareSupply.Sign() == 0 {
		return new(big.Int).Set(shares)
	}
	value := new(big.Int).Mul(shares, rate.Value)
	return value.Div(value, rate.ShareSupply)
}
