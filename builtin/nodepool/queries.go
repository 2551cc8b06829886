// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/builtin/nodepool/denomination"
	"github.com/vechain/nodepool/builtin/nodepool/ledger"
	"github.com/vechain/nodepool/thor"
)

// Summary is a snapshot of the pool wide state.
type Summary struct {
	Initialized       bool
	Owner             thor.Address
	Operator          thor.Address
	Authorizer        thor.Address
	Context           thor.Bytes32
	StartBlock        uint32
	LastAdvancedBlock uint32
	Paused            bool
	UnstakeEnabled    bool
	TotalStaked       uint64
	Denominations     []*denomination.Denomination
	AccPerShare       []*uint256.Int
}

// Summary reads the pool wide state.
func (p *Pool) Summary() (*Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Initialized, err = p.settings.initialized.Get(); err != nil {
		return nil, err
	}
	if s.Owner, err = p.settings.owner.Get(); err != nil {
		return nil, err
	}
	if s.Operator, err = p.settings.operator.Get(); err != nil {
		return nil, err
	}
	if s.Authorizer, err = p.settings.authorizer.Get(); err != nil {
		return nil, err
	}
	if s.Context, err = p.settings.context.Get(); err != nil {
		return nil, err
	}
	if s.StartBlock, err = p.settings.getStartBlock(); err != nil {
		return nil, err
	}
	if s.LastAdvancedBlock, err = p.accumulator.LastAdvancedBlock(); err != nil {
		return nil, err
	}
	if s.Paused, err = p.settings.paused.Get(); err != nil {
		return nil, err
	}
	if s.UnstakeEnabled, err = p.settings.unstakeEnabled.Get(); err != nil {
		return nil, err
	}
	if s.TotalStaked, err = p.ledger.TotalStaked(); err != nil {
		return nil, err
	}
	if s.Denominations, err = p.denominations.All(); err != nil {
		return nil, err
	}
	if s.AccPerShare, err = p.accumulator.Snapshot(uint64(len(s.Denominations))); err != nil {
		return nil, err
	}
	return &s, nil
}

// PendingRewards returns what user could harvest at block, per denomination,
// without changing any state.
func (p *Pool) PendingRewards(block uint32, user thor.Address) ([]*uint256.Int, error) {
	denoms, err := p.denominations.All()
	if err != nil {
		return nil, err
	}
	total, err := p.ledger.TotalStaked()
	if err != nil {
		return nil, err
	}
	accs, err := p.accumulator.Preview(block, total, denoms)
	if err != nil {
		return nil, err
	}
	return p.ledger.Pending(user, accs)
}

// UserInfo returns the stake and balances of user.
func (p *Pool) UserInfo(user thor.Address) (*ledger.UserInfo, error) {
	n, err := p.denominations.Count()
	if err != nil {
		return nil, err
	}
	return p.ledger.UserInfo(user, n)
}

func (p *Pool) TotalStaked() (uint64, error) {
	return p.ledger.TotalStaked()
}

func (p *Pool) Denomination(index uint64) (*denomination.Denomination, error) {
	return p.denominations.Get(index)
}

func (p *Pool) Denominations() ([]*denomination.Denomination, error) {
	return p.denominations.All()
}

func (p *Pool) AccPerShare(index uint64) (*uint256.Int, error) {
	if _, err := p.denominations.Get(index); err != nil {
		return nil, err
	}
	return p.accumulator.AccPerShare(index)
}

func (p *Pool) LastAdvancedBlock() (uint32, error) {
	return p.accumulator.LastAdvancedBlock()
}

func (p *Pool) StartBlock() (uint32, error) {
	return p.settings.getStartBlock()
}

func (p *Pool) IsPaused() (bool, error) {
	return p.settings.paused.Get()
}

func (p *Pool) Authorizer() (thor.Address, error) {
	return p.settings.authorizer.Get()
}

func (p *Pool) Operator() (thor.Address, error) {
	return p.settings.operator.Get()
}

func (p *Pool) Owner() (thor.Address, error) {
	return p.settings.owner.Get()
}

func (p *Pool) UnstakeEnabled() (bool, error) {
	return p.settings.unstakeEnabled.Get()
}

func (p *Pool) DenominationCount() (uint64, error) {
	return p.denominations.Count()
}
