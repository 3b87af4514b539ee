// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import "github.com/pkg/errors"

var (
	// ErrInvariantViolation marks states the accounting must never reach,
	// such as a position pointing at a foreign pool or a rate snapshot
	// that should exist but does not.
	ErrInvariantViolation = errors.New("stake pool invariant violation")

	// ErrPoolNotFound is returned when no pool record exists for the id.
	ErrPoolNotFound = errors.New("stake pool not found")

	// ErrPositionNotFound is returned when no position record exists for the id.
	ErrPositionNotFound = errors.New("staked position not found")

	// ErrPoolDeactivated rejects deposits into a pool past its deactivation epoch.
	ErrPoolDeactivated = errors.New("stake pool deactivated")

	// ErrInsufficientShares rejects splits larger than the position holds.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrZeroAmount rejects zero-valued deposits and splits.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrStaleEpoch rejects advancing a pool to an epoch at or below its
	// newest snapshot.
	ErrStaleEpoch = errors.New("epoch not beyond latest snapshot")
)
