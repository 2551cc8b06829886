// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/vechain/nodepool/metrics"
)

var (
	metricOpsCount      = metrics.LazyLoadCounterVec("ops_count", []string{"op", "result"})
	metricOpDuration    = metrics.LazyLoadHistogramVec("op_duration_ms", []string{"op"}, metrics.BucketOps)
	metricTotalStaked   = metrics.LazyLoadGauge("total_staked")
	metricHarvested     = metrics.LazyLoadCounterVec("harvest_count", []string{"denomination"})
	metricEventsDropped = metrics.LazyLoadCounterVec("events_dropped_count", []string{"kind"})
)
