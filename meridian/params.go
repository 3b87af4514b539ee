// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package meridian

import "math/big"

// Constants of the staking protocol.
const (
	// BpsDenominator basis-point denominator used by commission and slashing rates.
	BpsDenominator uint64 = 10_000

	// MaxVotingPowerBps caps a committee member's voting power at 10% of
	// total committee stake for reward-distribution purposes.
	MaxVotingPowerBps uint64 = 1_000

	// MaxCommissionRateBps upper bound for validator commission (20%).
	MaxCommissionRateBps uint16 = 2_000
)

// Keys of governance params.
var (
	KeyMaxCommitteeSize      = BytesToBytes32([]byte("max-committee-size"))
	KeyMinJoiningStake       = BytesToBytes32([]byte("min-joining-stake"))
	KeyLowStakeThreshold     = BytesToBytes32([]byte("low-stake-threshold"))
	KeyVeryLowStakeThreshold = BytesToBytes32([]byte("very-low-stake-threshold"))
	KeyLowStakeGracePeriod   = BytesToBytes32([]byte("low-stake-grace-period"))
	KeyRewardSlashingRate    = BytesToBytes32([]byte("reward-slashing-rate"))
	KeyReportingThreshold    = BytesToBytes32([]byte("reporting-threshold"))
	KeyMaxCommissionRate     = BytesToBytes32([]byte("max-commission-rate"))

	InitialMaxCommitteeSize      = big.NewInt(101)
	InitialMinJoiningStake       = big.NewInt(0).Mul(big.NewInt(2e6), big.NewInt(1e9))
	InitialLowStakeThreshold     = big.NewInt(0).Mul(big.NewInt(15e5), big.NewInt(1e9))
	InitialVeryLowStakeThreshold = big.NewInt(0).Mul(big.NewInt(1e6), big.NewInt(1e9))
	InitialLowStakeGracePeriod   = big.NewInt(7)
	InitialRewardSlashingRate    = big.NewInt(1_000) // 10% in bps
	InitialReportingThreshold    = big.NewInt(5_000) // 50% in bps
	InitialMaxCommissionRate     = big.NewInt(int64(MaxCommissionRateBps))
)
