// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger keeps per-user stake sizes and reward balances.
//
// Balances are keyed by user and denomination index and read as zero until first
// written, so denominations added later need no migration of existing users.
// Callers settle with SettlePending before changing a stake size and call
// ResetDebt right after, both against accumulators already advanced to the
// current block.
package ledger

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotTotalStaked = thor.BytesToBytes32([]byte("total-staked"))
	slotStaked      = thor.BytesToBytes32([]byte("staked-units"))
	slotBalances    = thor.BytesToBytes32([]byte("balances"))
)

// UserInfo is a read-only view of one user.
type UserInfo struct {
	StakedUnits uint64
	Balances    []*Balance // indexed by denomination
}

type Service struct {
	totalStaked *solidity.Uint64
	staked      *solidity.Mapping[thor.Address, uint64]
	balances    *solidity.Mapping[balanceKey, *Balance]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		totalStaked: solidity.NewUint64(sctx, slotTotalStaked),
		staked:      solidity.NewMapping[thor.Address, uint64](sctx, slotStaked),
		balances:    solidity.NewMapping[balanceKey, *Balance](sctx, slotBalances),
	}
}

func (s *Service) TotalStaked() (uint64, error) {
	return s.totalStaked.Get()
}

func (s *Service) StakedUnits(user thor.Address) (uint64, error) {
	n, err := s.staked.Get(user)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get staked units")
	}
	return n, nil
}

// Balance returns the balance of user in denomination index, zero if never touched.
func (s *Service) Balance(user thor.Address, index uint64) (*Balance, error) {
	b, err := s.balances.Get(balanceKey{user, index})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get balance %d", index)
	}
	return b.normalize(), nil
}

func (s *Service) setBalance(user thor.Address, index uint64, b *Balance) error {
	if err := s.balances.Set(balanceKey{user, index}, b); err != nil {
		return errors.Wrapf(err, "failed to set balance %d", index)
	}
	return nil
}

// update applies fn to each balance of user and writes back the changed ones.
func (s *Service) update(user thor.Address, n int, fn func(i int, b *Balance) error) error {
	for i := range n {
		b, err := s.Balance(user, uint64(i))
		if err != nil {
			return err
		}
		orig := b.clone()
		if err := fn(i, b); err != nil {
			return err
		}
		if b.equal(orig) {
			continue
		}
		if err := s.setBalance(user, uint64(i), b); err != nil {
			return err
		}
	}
	return nil
}

// SettlePending moves reward accrued since the last settlement into unpaid.
func (s *Service) SettlePending(user thor.Address, accs []*uint256.Int) error {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return err
	}
	return s.update(user, len(accs), func(i int, b *Balance) error {
		pending, err := pendingOf(staked, accs[i], b.Debt)
		if err != nil {
			return err
		}
		if pending.IsZero() {
			return nil
		}
		if _, overflow := b.Unpaid.AddOverflow(b.Unpaid, pending); overflow {
			return reverts.ErrArithmeticOverflow
		}
		return nil
	})
}

// ResetDebt sets debt to the current accumulator contribution of the user's stake.
func (s *Service) ResetDebt(user thor.Address, accs []*uint256.Int) error {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return err
	}
	return s.update(user, len(accs), func(i int, b *Balance) error {
		debt, err := accrued(staked, accs[i])
		if err != nil {
			return err
		}
		b.Debt = debt
		return nil
	})
}

// AddStake increases the stake of user and the total by n units.
func (s *Service) AddStake(user thor.Address, n uint64) error {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return err
	}
	total, err := s.totalStaked.Get()
	if err != nil {
		return err
	}
	if staked+n < staked || total+n < total {
		return reverts.ErrArithmeticOverflow
	}
	if err := s.staked.Set(user, staked+n); err != nil {
		return errors.Wrap(err, "failed to set staked units")
	}
	s.totalStaked.Set(total + n)
	return nil
}

// SubStake decreases the stake of user and the total by n units.
func (s *Service) SubStake(user thor.Address, n uint64) error {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return err
	}
	total, err := s.totalStaked.Get()
	if err != nil {
		return err
	}
	if n > staked || n > total {
		return reverts.ErrInsufficientStake
	}
	if err := s.staked.Set(user, staked-n); err != nil {
		return errors.Wrap(err, "failed to set staked units")
	}
	s.totalStaked.Set(total - n)
	return nil
}

// Pending returns, per denomination, what a harvest against accs would pay.
func (s *Service) Pending(user thor.Address, accs []*uint256.Int) ([]*uint256.Int, error) {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return nil, err
	}
	out := make([]*uint256.Int, len(accs))
	for i := range accs {
		b, err := s.Balance(user, uint64(i))
		if err != nil {
			return nil, err
		}
		pending, err := pendingOf(staked, accs[i], b.Debt)
		if err != nil {
			return nil, err
		}
		if _, overflow := pending.AddOverflow(pending, b.Unpaid); overflow {
			return nil, reverts.ErrArithmeticOverflow
		}
		out[i] = pending
	}
	return out, nil
}

// PayOut zeroes unpaid, adds pending plus unpaid to paid and returns the
// amounts due per denomination. Transferring them is up to the caller.
func (s *Service) PayOut(user thor.Address, accs []*uint256.Int) ([]*uint256.Int, error) {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return nil, err
	}
	amounts := make([]*uint256.Int, len(accs))
	err = s.update(user, len(accs), func(i int, b *Balance) error {
		toPay, err := pendingOf(staked, accs[i], b.Debt)
		if err != nil {
			return err
		}
		if _, overflow := toPay.AddOverflow(toPay, b.Unpaid); overflow {
			return reverts.ErrArithmeticOverflow
		}
		amounts[i] = toPay
		if toPay.IsZero() {
			return nil
		}
		b.Unpaid = new(uint256.Int)
		if _, overflow := b.Paid.AddOverflow(b.Paid, toPay); overflow {
			return reverts.ErrArithmeticOverflow
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

// UserInfo returns stake and balances of user across n denominations.
func (s *Service) UserInfo(user thor.Address, n uint64) (*UserInfo, error) {
	staked, err := s.StakedUnits(user)
	if err != nil {
		return nil, err
	}
	info := &UserInfo{StakedUnits: staked, Balances: make([]*Balance, 0, n)}
	for i := range n {
		b, err := s.Balance(user, i)
		if err != nil {
			return nil, err
		}
		info.Balances = append(info.Balances, b)
	}
	return info, nil
}

// accrued returns staked * acc / Precision.
func accrued(staked uint64, acc *uint256.Int) (*uint256.Int, error) {
	v, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(staked), acc)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	return v.Div(v, thor.Precision), nil
}

// pendingOf returns accrued minus debt, floored at zero.
func pendingOf(staked uint64, acc, debt *uint256.Int) (*uint256.Int, error) {
	v, err := accrued(staked, acc)
	if err != nil {
		return nil, err
	}
	if v.Cmp(debt) <= 0 {
		return new(uint256.Int), nil
	}
	return v.Sub(v, debt), nil
}
