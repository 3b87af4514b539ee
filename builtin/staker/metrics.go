// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/meridian-network/meridian/metrics"

var (
	metricCandidates    = metrics.LazyLoadCounter("staker_candidates_registered_total")
	metricStaked        = metrics.LazyLoadCounter("staker_stake_deposited_total")
	metricEpochs        = metrics.LazyLoadCounter("staker_epochs_advanced_total")
	metricEpochFailures = metrics.LazyLoadCounter("staker_epoch_failures_total")
	metricActiveCount   = metrics.LazyLoadGauge("staker_active_validators")
	metricCommitteeSize = metrics.LazyLoadGauge("staker_committee_size")
	metricActiveStake   = metrics.LazyLoadGauge("staker_total_active_stake")
	metricBurned        = metrics.LazyLoadCounter("staker_burned_total")
	metricEpochDuration = metrics.LazyLoadHistogram("staker_epoch_advance_ms", []int64{1, 5, 10, 50, 100, 500, 1000})
)
