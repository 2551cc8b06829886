// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/thor"
)

// Params are the identities and schedule a pool is initialized with.
type Params struct {
	Owner      thor.Address
	Operator   thor.Address
	Authorizer thor.Address
	Context    thor.Bytes32 // bound into every authorization
	StartBlock uint32
}

// Initialize sets up the pool once. Rewards start accruing at p.StartBlock.
func (p *Pool) Initialize(env Env, params Params) error {
	logger.Debug("initializing pool", "owner", params.Owner, "startBlock", params.StartBlock)

	err := p.execute("initialize", func() ([]*Event, error) {
		initialized, err := p.settings.initialized.Get()
		if err != nil {
			return nil, err
		}
		if initialized {
			return nil, reverts.ErrAlreadyInitialized
		}
		if params.Owner.IsZero() || params.Operator.IsZero() || params.Authorizer.IsZero() {
			return nil, reverts.ErrZeroAddress
		}
		p.settings.initialized.Set(true)
		p.settings.owner.Set(&params.Owner)
		p.settings.operator.Set(&params.Operator)
		p.settings.authorizer.Set(&params.Authorizer)
		p.settings.context.Set(&params.Context)
		p.settings.startBlock.Set(uint64(params.StartBlock))
		p.accumulator.SetLastAdvancedBlock(params.StartBlock)
		return []*Event{{Kind: EventInitialized, Block: env.Number, Address: addrPtr(params.Owner)}}, nil
	})
	if err != nil {
		logger.Info("initialize failed", "error", err)
		return err
	}

	logger.Info("initialized pool", "owner", params.Owner, "startBlock", params.StartBlock)
	return nil
}

// AddDenomination registers a new reward token emitting rate per block.
// Existing denominations are advanced first. It returns the new index.
func (p *Pool) AddDenomination(env Env, token thor.Address, rate *uint256.Int) (uint64, error) {
	var index uint64
	err := p.execute("addDenomination", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		if _, err := p.advance(env.Number); err != nil {
			return nil, err
		}
		i, err := p.denominations.Add(token, rate)
		if err != nil {
			return nil, err
		}
		index = i
		return []*Event{{
			Kind:         EventDenominationAdded,
			Block:        env.Number,
			Denomination: uint64Ptr(i),
			Token:        addrPtr(token),
			Rates:        []*uint256.Int{rate.Clone()},
		}}, nil
	})
	if err != nil {
		logger.Info("add denomination failed", "token", token, "error", err)
		return 0, err
	}

	logger.Info("added denomination", "index", index, "token", token, "rate", rate)
	return index, nil
}

// SetRatePerBlock replaces the rates of all denominations, rates[i] applying to
// denomination i from the current block on.
func (p *Pool) SetRatePerBlock(env Env, rates []*uint256.Int) error {
	err := p.execute("setRatePerBlock", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		if _, err := p.advance(env.Number); err != nil {
			return nil, err
		}
		if err := p.denominations.SetRates(rates); err != nil {
			return nil, err
		}
		cloned := make([]*uint256.Int, len(rates))
		for i, r := range rates {
			cloned[i] = r.Clone()
		}
		return []*Event{{Kind: EventRatesChanged, Block: env.Number, Rates: cloned}}, nil
	})
	if err != nil {
		logger.Info("set rates failed", "error", err)
		return err
	}

	logger.Info("set rates", "count", len(rates))
	return nil
}

// SetDenominationEnabled toggles whether denomination index accrues.
func (p *Pool) SetDenominationEnabled(env Env, index uint64, enabled bool) error {
	err := p.execute("setDenominationEnabled", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		if _, err := p.denominations.Get(index); err != nil {
			return nil, err
		}
		if _, err := p.advance(env.Number); err != nil {
			return nil, err
		}
		if err := p.denominations.SetEnabled(index, enabled); err != nil {
			return nil, err
		}
		return []*Event{{Kind: EventDenominationToggled, Block: env.Number, Denomination: uint64Ptr(index), Enabled: boolPtr(enabled)}}, nil
	})
	if err != nil {
		logger.Info("toggle denomination failed", "index", index, "error", err)
		return err
	}

	logger.Info("toggled denomination", "index", index, "enabled", enabled)
	return nil
}

// SetStartBlock moves the start block. Only allowed before the pool has started,
// and never into the past.
func (p *Pool) SetStartBlock(env Env, start uint32) error {
	err := p.execute("setStartBlock", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		if err := p.requireStarted(env.Number); err == nil {
			return nil, reverts.ErrAlreadyStarted
		} else if !errors.Is(err, reverts.ErrNotStarted) {
			return nil, err
		}
		if start < env.Number {
			return nil, reverts.ErrInvalidStartBlock
		}
		p.settings.startBlock.Set(uint64(start))
		p.accumulator.SetLastAdvancedBlock(start)
		return []*Event{{Kind: EventStartBlockChanged, Block: env.Number, StartBlock: uint32Ptr(start)}}, nil
	})
	if err != nil {
		logger.Info("set start block failed", "start", start, "error", err)
		return err
	}

	logger.Info("set start block", "start", start)
	return nil
}

// SetAuthorizer replaces the identity whose signatures authorize deposits and unjails.
func (p *Pool) SetAuthorizer(env Env, authorizer thor.Address) error {
	return p.setIdentity(env, "setAuthorizer", EventAuthorizerChanged, authorizer, func() { p.settings.authorizer.Set(&authorizer) })
}

// SetOperator replaces the identity allowed to jail units.
func (p *Pool) SetOperator(env Env, operator thor.Address) error {
	return p.setIdentity(env, "setOperator", EventOperatorChanged, operator, func() { p.settings.operator.Set(&operator) })
}

// TransferOwnership hands the admin surface over to owner.
func (p *Pool) TransferOwnership(env Env, owner thor.Address) error {
	return p.setIdentity(env, "transferOwnership", EventOwnershipTransferred, owner, func() { p.settings.owner.Set(&owner) })
}

func (p *Pool) setIdentity(env Env, op string, kind EventKind, addr thor.Address, set func()) error {
	err := p.execute(op, func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		if addr.IsZero() {
			return nil, reverts.ErrZeroAddress
		}
		set()
		return []*Event{{Kind: kind, Block: env.Number, Address: addrPtr(addr)}}, nil
	})
	if err != nil {
		logger.Info("identity change failed", "op", op, "error", err)
		return err
	}

	logger.Info("identity changed", "op", op, "address", addr)
	return nil
}

// SetUnstakeEnabled opens or closes voluntary unstaking.
func (p *Pool) SetUnstakeEnabled(env Env, enabled bool) error {
	err := p.execute("setUnstakeEnabled", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		p.settings.unstakeEnabled.Set(enabled)
		return []*Event{{Kind: EventUnstakeToggled, Block: env.Number, Enabled: boolPtr(enabled)}}, nil
	})
	if err != nil {
		logger.Info("toggle unstake failed", "error", err)
		return err
	}

	logger.Info("toggled unstake", "enabled", enabled)
	return nil
}

// Pause halts deposit, unstake, unjail and harvest.
func (p *Pool) Pause(env Env) error {
	return p.setPaused(env, true)
}

// Unpause lifts a pause.
func (p *Pool) Unpause(env Env) error {
	return p.setPaused(env, false)
}

func (p *Pool) setPaused(env Env, paused bool) error {
	op, kind := "pause", EventPaused
	if !paused {
		op, kind = "unpause", EventUnpaused
	}
	err := p.execute(op, func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		current, err := p.settings.paused.Get()
		if err != nil {
			return nil, err
		}
		if current == paused {
			if paused {
				return nil, reverts.ErrPaused
			}
			return nil, reverts.ErrNotPaused
		}
		p.settings.paused.Set(paused)
		return []*Event{{Kind: kind, Block: env.Number}}, nil
	})
	if err != nil {
		logger.Info("pause switch failed", "op", op, "error", err)
		return err
	}

	logger.Info("pause switched", "paused", paused)
	return nil
}

// EmergencyWithdraw moves the pool's whole balance of every reward token to
// to. Only allowed while paused. User ledgers are left as they are.
func (p *Pool) EmergencyWithdraw(env Env, to thor.Address) error {
	logger.Debug("emergency withdrawing", "to", to, "block", env.Number)

	err := p.execute("emergencyWithdraw", func() ([]*Event, error) {
		if err := p.requireOwner(env.Caller); err != nil {
			return nil, err
		}
		paused, err := p.settings.paused.Get()
		if err != nil {
			return nil, err
		}
		if !paused {
			return nil, reverts.ErrNotPaused
		}
		if to.IsZero() {
			return nil, reverts.ErrZeroAddress
		}
		denoms, err := p.denominations.All()
		if err != nil {
			return nil, err
		}

		var (
			events []*Event
			done   = make(map[thor.Address]struct{}, len(denoms))
		)
		for i, d := range denoms {
			if _, ok := done[d.Token]; ok {
				continue
			}
			done[d.Token] = struct{}{}

			balance, err := p.bank.BalanceOf(d.Token, p.addr)
			if err != nil {
				return nil, err
			}
			if balance.IsZero() {
				continue
			}
			if err := p.bank.Transfer(d.Token, p.addr, to, balance); err != nil {
				return nil, errors.WithMessagef(err, "withdraw denomination %d", i)
			}
			events = append(events, &Event{
				Kind:         EventEmergencyWithdraw,
				Block:        env.Number,
				Denomination: uint64Ptr(uint64(i)),
				Token:        addrPtr(d.Token),
				Amount:       balance,
				Address:      addrPtr(to),
			})
		}
		return events, nil
	})
	if err != nil {
		logger.Info("emergency withdraw failed", "to", to, "error", err)
		return err
	}

	logger.Info("emergency withdrew", "to", to)
	return nil
}
