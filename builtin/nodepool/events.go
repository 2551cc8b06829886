// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/thor"
)

// EventKind names what an Event records.
type EventKind string

const (
	EventInitialized          EventKind = "initialized"
	EventDeposit              EventKind = "deposit"
	EventUnstake              EventKind = "unstake"
	EventJail                 EventKind = "jail"
	EventUnjail               EventKind = "unjail"
	EventHarvest              EventKind = "harvest"
	EventDenominationAdded    EventKind = "denominationAdded"
	EventRatesChanged         EventKind = "ratesChanged"
	EventDenominationToggled  EventKind = "denominationToggled"
	EventStartBlockChanged    EventKind = "startBlockChanged"
	EventAuthorizerChanged    EventKind = "authorizerChanged"
	EventOperatorChanged      EventKind = "operatorChanged"
	EventOwnershipTransferred EventKind = "ownershipTransferred"
	EventUnstakeToggled       EventKind = "unstakeToggled"
	EventPaused               EventKind = "paused"
	EventUnpaused             EventKind = "unpaused"
	EventEmergencyWithdraw    EventKind = "emergencyWithdraw"
)

// Event is published after a mutation took effect. Fields not meaningful
// for the kind are left empty.
type Event struct {
	Kind         EventKind      `json:"kind"`
	Block        uint32         `json:"block"`
	User         *thor.Address  `json:"user,omitempty"`
	UnitIDs      []*uint256.Int `json:"unitIds,omitempty"`
	Denomination *uint64        `json:"denomination,omitempty"`
	Token        *thor.Address  `json:"token,omitempty"`
	Amount       *uint256.Int   `json:"amount,omitempty"`
	Rates        []*uint256.Int `json:"rates,omitempty"`
	Enabled      *bool          `json:"enabled,omitempty"`
	StartBlock   *uint32        `json:"startBlock,omitempty"`
	Address      *thor.Address  `json:"address,omitempty"` // new identity, or the withdraw recipient
}

func addrPtr(a thor.Address) *thor.Address { return &a }
func uint64Ptr(v uint64) *uint64           { return &v }
func boolPtr(v bool) *bool                 { return &v }
func uint32Ptr(v uint32) *uint32           { return &v }
