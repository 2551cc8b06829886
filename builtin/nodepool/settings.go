// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotInitialized    = thor.BytesToBytes32([]byte("initialized"))
	slotOwner          = thor.BytesToBytes32([]byte("owner"))
	slotOperator       = thor.BytesToBytes32([]byte("operator"))
	slotAuthorizer     = thor.BytesToBytes32([]byte("authorizer"))
	slotContext        = thor.BytesToBytes32([]byte("context"))
	slotStartBlock     = thor.BytesToBytes32([]byte("start-block"))
	slotPaused         = thor.BytesToBytes32([]byte("paused"))
	slotUnstakeEnabled = thor.BytesToBytes32([]byte("unstake-enabled"))
)

// settings are the admin controlled switches and identities of the pool.
type settings struct {
	initialized    *solidity.Bool
	owner          *solidity.Address
	operator       *solidity.Address
	authorizer     *solidity.Address
	context        *solidity.Bytes32
	startBlock     *solidity.Uint64
	paused         *solidity.Bool
	unstakeEnabled *solidity.Bool
}

func newSettings(sctx *solidity.Context) *settings {
	return &settings{
		initialized:    solidity.NewBool(sctx, slotInitialized),
		owner:          solidity.NewAddress(sctx, slotOwner),
		operator:       solidity.NewAddress(sctx, slotOperator),
		authorizer:     solidity.NewAddress(sctx, slotAuthorizer),
		context:        solidity.NewBytes32(sctx, slotContext),
		startBlock:     solidity.NewUint64(sctx, slotStartBlock),
		paused:         solidity.NewBool(sctx, slotPaused),
		unstakeEnabled: solidity.NewBool(sctx, slotUnstakeEnabled),
	}
}

func (s *settings) getStartBlock() (uint32, error) {
	n, err := s.startBlock.Get()
	return uint32(n), err
}
