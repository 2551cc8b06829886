// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/thor"
)

// JailGroup is a set of units of one owner jailed together.
type JailGroup struct {
	Owner   thor.Address
	UnitIDs []*uint256.Int
}

// Deposit stakes ids on behalf of staker, who must own them all. The deposit
// must be authorized by the authorizer's signature over the ids, staker and expiry.
func (p *Pool) Deposit(env Env, ids []*uint256.Int, staker thor.Address, expiry uint64, sig []byte) error {
	logger.Debug("depositing units", "staker", staker, "units", len(ids), "block", env.Number)

	err := p.execute("deposit", func() ([]*Event, error) {
		if err := p.requireNotPaused(); err != nil {
			return nil, err
		}
		if err := checkUnits(ids, make(map[uint256.Int]struct{}, len(ids))); err != nil {
			return nil, err
		}
		if env.Time >= expiry {
			return nil, reverts.ErrExpiredAuthorization
		}
		for _, id := range ids {
			owner, err := p.registry.OwnerOf(id)
			if err != nil {
				return nil, err
			}
			if owner != staker {
				return nil, errors.WithMessagef(reverts.ErrUnitNotOwned, "unit %s", id.Dec())
			}
			jailed, err := p.registry.IsJailed(id)
			if err != nil {
				return nil, err
			}
			if jailed {
				return nil, errors.WithMessagef(reverts.ErrUnitAlreadyJailed, "unit %s", id.Dec())
			}
			staked, err := p.registry.IsStaked(id)
			if err != nil {
				return nil, err
			}
			if staked {
				return nil, errors.WithMessagef(reverts.ErrUnitAlreadyStaked, "unit %s", id.Dec())
			}
		}
		if err := p.verifyAuthorization(authz.ActionDeposit, ids, staker, expiry, sig); err != nil {
			return nil, err
		}

		if err := p.registry.Stake(ids); err != nil {
			return nil, err
		}
		if err := p.restake(env.Number, staker, uint64(len(ids)), true); err != nil {
			return nil, err
		}
		return []*Event{{Kind: EventDeposit, Block: env.Number, User: addrPtr(staker), UnitIDs: ids}}, nil
	})
	if err != nil {
		logger.Info("deposit failed", "staker", staker, "error", err)
		return err
	}

	logger.Info("deposited units", "staker", staker, "units", len(ids))
	return nil
}

// Unstake returns the caller's staked and unjailed ids to free custody.
func (p *Pool) Unstake(env Env, ids []*uint256.Int) error {
	logger.Debug("unstaking units", "user", env.Caller, "units", len(ids), "block", env.Number)

	err := p.execute("unstake", func() ([]*Event, error) {
		if err := p.requireNotPaused(); err != nil {
			return nil, err
		}
		enabled, err := p.settings.unstakeEnabled.Get()
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, reverts.ErrUnstakeDisabled
		}
		if err := p.requireStarted(env.Number); err != nil {
			return nil, err
		}
		if err := checkUnits(ids, make(map[uint256.Int]struct{}, len(ids))); err != nil {
			return nil, err
		}
		if err := p.checkStaked(ids, env.Caller); err != nil {
			return nil, err
		}

		if err := p.restake(env.Number, env.Caller, uint64(len(ids)), false); err != nil {
			return nil, err
		}
		if err := p.registry.Unstake(ids); err != nil {
			return nil, err
		}
		return []*Event{{Kind: EventUnstake, Block: env.Number, User: addrPtr(env.Caller), UnitIDs: ids}}, nil
	})
	if err != nil {
		logger.Info("unstake failed", "user", env.Caller, "error", err)
		return err
	}

	logger.Info("unstaked units", "user", env.Caller, "units", len(ids))
	return nil
}

// JailBatch jails staked units, grouped per owner. Jailed units stop earning
// but what their owner accrued before stays claimable. Only the operator may jail.
func (p *Pool) JailBatch(env Env, groups []JailGroup) error {
	logger.Debug("jailing units", "groups", len(groups), "block", env.Number)

	err := p.execute("jail", func() ([]*Event, error) {
		if err := p.requireOperator(env.Caller); err != nil {
			return nil, err
		}
		seen := make(map[uint256.Int]struct{})
		for _, g := range groups {
			if len(g.UnitIDs) == 0 {
				continue
			}
			if err := checkUnits(g.UnitIDs, seen); err != nil {
				return nil, err
			}
			if err := p.checkStaked(g.UnitIDs, g.Owner); err != nil {
				return nil, err
			}
		}

		accs, err := p.advance(env.Number)
		if err != nil {
			return nil, err
		}
		var events []*Event
		for _, g := range groups {
			if len(g.UnitIDs) == 0 {
				continue
			}
			if err := p.ledger.SettlePending(g.Owner, accs); err != nil {
				return nil, err
			}
			if err := p.ledger.SubStake(g.Owner, uint64(len(g.UnitIDs))); err != nil {
				return nil, err
			}
			if err := p.ledger.ResetDebt(g.Owner, accs); err != nil {
				return nil, err
			}
			if err := p.registry.Jail(g.UnitIDs); err != nil {
				return nil, err
			}
			events = append(events, &Event{Kind: EventJail, Block: env.Number, User: addrPtr(g.Owner), UnitIDs: g.UnitIDs})
		}
		return events, nil
	})
	if err != nil {
		logger.Info("jail failed", "groups", len(groups), "error", err)
		return err
	}

	logger.Info("jailed units", "groups", len(groups))
	return nil
}

// UnjailBatch releases jailed ids of owner back into staking. It must be
// authorized by the authorizer's signature over the ids, owner and expiry.
func (p *Pool) UnjailBatch(env Env, ids []*uint256.Int, owner thor.Address, expiry uint64, sig []byte) error {
	logger.Debug("unjailing units", "owner", owner, "units", len(ids), "block", env.Number)

	err := p.execute("unjail", func() ([]*Event, error) {
		if err := p.requireNotPaused(); err != nil {
			return nil, err
		}
		if err := checkUnits(ids, make(map[uint256.Int]struct{}, len(ids))); err != nil {
			return nil, err
		}
		if env.Time >= expiry {
			return nil, reverts.ErrExpiredAuthorization
		}
		for _, id := range ids {
			o, err := p.registry.OwnerOf(id)
			if err != nil {
				return nil, err
			}
			if o != owner {
				return nil, errors.WithMessagef(reverts.ErrUnitNotOwned, "unit %s", id.Dec())
			}
			jailed, err := p.registry.IsJailed(id)
			if err != nil {
				return nil, err
			}
			if !jailed {
				return nil, errors.WithMessagef(reverts.ErrUnitNotJailed, "unit %s", id.Dec())
			}
		}
		if err := p.verifyAuthorization(authz.ActionUnjail, ids, owner, expiry, sig); err != nil {
			return nil, err
		}

		if err := p.restake(env.Number, owner, uint64(len(ids)), true); err != nil {
			return nil, err
		}
		if err := p.registry.Unjail(ids); err != nil {
			return nil, err
		}
		return []*Event{{Kind: EventUnjail, Block: env.Number, User: addrPtr(owner), UnitIDs: ids}}, nil
	})
	if err != nil {
		logger.Info("unjail failed", "owner", owner, "error", err)
		return err
	}

	logger.Info("unjailed units", "owner", owner, "units", len(ids))
	return nil
}

// Harvest pays the caller everything accrued and unpaid in every denomination.
// It returns the amounts paid, indexed by denomination.
func (p *Pool) Harvest(env Env) ([]*uint256.Int, error) {
	logger.Debug("harvesting", "user", env.Caller, "block", env.Number)

	var paid []*uint256.Int
	err := p.execute("harvest", func() ([]*Event, error) {
		if err := p.requireNotPaused(); err != nil {
			return nil, err
		}
		if err := p.requireStarted(env.Number); err != nil {
			return nil, err
		}
		accs, err := p.advance(env.Number)
		if err != nil {
			return nil, err
		}
		amounts, err := p.ledger.PayOut(env.Caller, accs)
		if err != nil {
			return nil, err
		}
		if err := p.ledger.ResetDebt(env.Caller, accs); err != nil {
			return nil, err
		}

		denoms, err := p.denominations.All()
		if err != nil {
			return nil, err
		}
		var events []*Event
		for i, amount := range amounts {
			if amount.IsZero() {
				continue
			}
			if err := p.bank.Transfer(denoms[i].Token, p.addr, env.Caller, amount); err != nil {
				return nil, errors.WithMessagef(err, "pay denomination %d", i)
			}
			events = append(events, &Event{
				Kind:         EventHarvest,
				Block:        env.Number,
				User:         addrPtr(env.Caller),
				Denomination: uint64Ptr(uint64(i)),
				Token:        addrPtr(denoms[i].Token),
				Amount:       amount,
			})
		}
		paid = amounts
		return events, nil
	})
	if err != nil {
		logger.Info("harvest failed", "user", env.Caller, "error", err)
		return nil, err
	}

	logger.Info("harvested", "user", env.Caller, "payouts", len(paid))
	return paid, nil
}

// checkStaked requires every id to be owned by owner, staked and not jailed.
func (p *Pool) checkStaked(ids []*uint256.Int, owner thor.Address) error {
	for _, id := range ids {
		o, err := p.registry.OwnerOf(id)
		if err != nil {
			return err
		}
		if o != owner {
			return errors.WithMessagef(reverts.ErrUnitNotOwned, "unit %s", id.Dec())
		}
		staked, err := p.registry.IsStaked(id)
		if err != nil {
			return err
		}
		if !staked {
			return errors.WithMessagef(reverts.ErrUnitNotStaked, "unit %s", id.Dec())
		}
		jailed, err := p.registry.IsJailed(id)
		if err != nil {
			return err
		}
		if jailed {
			return errors.WithMessagef(reverts.ErrUnitAlreadyJailed, "unit %s", id.Dec())
		}
	}
	return nil
}

// restake settles user's pending rewards at block, changes the stake by n
// units and resets the debt against the new stake.
func (p *Pool) restake(number uint32, user thor.Address, n uint64, add bool) error {
	accs, err := p.advance(number)
	if err != nil {
		return err
	}
	if err := p.ledger.SettlePending(user, accs); err != nil {
		return err
	}
	if add {
		err = p.ledger.AddStake(user, n)
	} else {
		err = p.ledger.SubStake(user, n)
	}
	if err != nil {
		return err
	}
	return p.ledger.ResetDebt(user, accs)
}
