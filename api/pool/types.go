// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/builtin/nodepool/denomination"
	"github.com/vechain/nodepool/builtin/nodepool/ledger"
	"github.com/vechain/nodepool/thor"
)

type Summary struct {
	Initialized       bool            `json:"initialized"`
	Owner             thor.Address    `json:"owner"`
	Operator          thor.Address    `json:"operator"`
	Authorizer        thor.Address    `json:"authorizer"`
	Context           thor.Bytes32    `json:"context"`
	StartBlock        uint32          `json:"startBlock"`
	LastAdvancedBlock uint32          `json:"lastAdvancedBlock"`
	Paused            bool            `json:"paused"`
	UnstakeEnabled    bool            `json:"unstakeEnabled"`
	TotalStaked       uint64          `json:"totalStaked"`
	Denominations     []*Denomination `json:"denominations"`
}

type Denomination struct {
	Index       uint64       `json:"index"`
	Token       thor.Address `json:"token"`
	Rate        *uint256.Int `json:"rate"`
	Enabled     bool         `json:"enabled"`
	AccPerShare *uint256.Int `json:"accPerShare"`
}

type Balance struct {
	Denomination uint64       `json:"denomination"`
	Debt         *uint256.Int `json:"debt"`
	Unpaid       *uint256.Int `json:"unpaid"`
	Paid         *uint256.Int `json:"paid"`
}

type User struct {
	Address     thor.Address `json:"address"`
	StakedUnits uint64       `json:"stakedUnits"`
	Balances    []*Balance   `json:"balances"`
}

type Pending struct {
	Block   uint32         `json:"block"`
	Amounts []*uint256.Int `json:"amounts"`
}

func convertDenomination(index uint64, d *denomination.Denomination, acc *uint256.Int) *Denomination {
	return &Denomination{
		Index:       index,
		Token:       d.Token,
		Rate:        d.Rate,
		Enabled:     d.Enabled,
		AccPerShare: acc,
	}
}

func convertSummary(s *nodepool.Summary) *Summary {
	denoms := make([]*Denomination, 0, len(s.Denominations))
	for i, d := range s.Denominations {
		denoms = append(denoms, convertDenomination(uint64(i), d, s.AccPerShare[i]))
	}
	return &Summary{
		Initialized:       s.Initialized,
		Owner:             s.Owner,
		Operator:          s.Operator,
		Authorizer:        s.Authorizer,
		Context:           s.Context,
		StartBlock:        s.StartBlock,
		LastAdvancedBlock: s.LastAdvancedBlock,
		Paused:            s.Paused,
		UnstakeEnabled:    s.UnstakeEnabled,
		TotalStaked:       s.TotalStaked,
		Denominations:     denoms,
	}
}

func convertUser(addr thor.Address, info *ledger.UserInfo) *User {
	balances := make([]*Balance, 0, len(info.Balances))
	for i, b := range info.Balances {
		balances = append(balances, &Balance{
			Denomination: uint64(i),
			Debt:         b.Debt,
			Unpaid:       b.Unpaid,
			Paid:         b.Paid,
		})
	}
	return &User{
		Address:     addr,
		StakedUnits: info.StakedUnits,
		Balances:    balances,
	}
}
