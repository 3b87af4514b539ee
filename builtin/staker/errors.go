// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/pkg/errors"

// Caller errors leave state untouched and surface to the submitting
// transaction. Invariant and supply errors are fatal for the attempt.
var (
	// ErrValidatorNotFound is returned when no record exists for the address.
	ErrValidatorNotFound = errors.New("validator not found")

	// ErrDuplicateIdentity rejects a registration whose address or operation
	// cap already appears in any lifecycle partition.
	ErrDuplicateIdentity = errors.New("duplicate validator identity")

	// ErrInvalidMetadata rejects metadata that fails validation.
	ErrInvalidMetadata = errors.New("invalid validator metadata")

	// ErrMinJoiningStakeNotReached rejects promotion of a candidate whose
	// pool has not reached the minimum joining stake.
	ErrMinJoiningStakeNotReached = errors.New("min joining stake not reached")

	// ErrNotCandidate rejects candidate-only operations on other states.
	ErrNotCandidate = errors.New("validator is not a candidate")

	// ErrNotActive rejects active-only operations on other states.
	ErrNotActive = errors.New("validator is not active")

	// ErrCannotReportOneself rejects self-reports.
	ErrCannotReportOneself = errors.New("cannot report oneself")

	// ErrInvalidCap rejects an operation capability that does not currently
	// authorize any validator, or a rotation onto an address in use.
	ErrInvalidCap = errors.New("invalid operation capability")

	// ErrNotInCommittee rejects reports by or against validators outside the
	// current committee.
	ErrNotInCommittee = errors.New("validator not in current committee")

	// ErrReportRecordNotFound is returned on undo of a non-existent report.
	ErrReportRecordNotFound = errors.New("report record not found")

	// ErrCommissionRateTooHigh rejects commission rates above the cap.
	ErrCommissionRateTooHigh = errors.New("commission rate too high")

	// ErrInvariantViolation marks states the validator set must never reach.
	ErrInvariantViolation = errors.New("validator set invariant violation")

	// ErrSupplyOverflow is returned when minting would exceed the
	// representable supply range.
	ErrSupplyOverflow = errors.New("supply overflow")

	// ErrSupplyUnderflow is returned when burning more than currently exists.
	ErrSupplyUnderflow = errors.New("supply underflow")
)
