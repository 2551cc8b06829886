// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/holiman/uint256"
)

// Constants of the reward ledger.
const (
	PrecisionDecimals = 18 // fixed-point decimals of the per-share accumulator

	MaxUnitsPerCall = 256 // upper bound of unit ids handled by a single lifecycle call

	AuthorizationDomain = "nodepool.authorization.v1" // domain separator of signed payloads

	BlockInterval uint64 = 10 // time interval between two consecutive blocks.
)

// Precision is the fixed-point scale of acc_per_share, 1e18.
var Precision = uint256.NewInt(1e18)
