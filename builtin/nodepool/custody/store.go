// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotUnits = thor.BytesToBytes32([]byte("units"))
	slotCount = thor.BytesToBytes32([]byte("unit-count"))
)

type unit struct {
	Owner  thor.Address
	Staked bool
	Jailed bool
}

func (u *unit) exists() bool {
	return !u.Owner.IsZero()
}

// Store is a Registry kept in contract storage. Mint and Transfer stand in for
// the purchase flow that produces units.
type Store struct {
	units *solidity.Mapping[*uint256.Int, *unit]
	count *solidity.Uint64
}

var _ Registry = (*Store)(nil)

func NewStore(sctx *solidity.Context) *Store {
	return &Store{
		units: solidity.NewMapping[*uint256.Int, *unit](sctx, slotUnits),
		count: solidity.NewUint64(sctx, slotCount),
	}
}

func (s *Store) get(id *uint256.Int) (*unit, error) {
	u, err := s.units.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get unit %s", id.Dec())
	}
	return u, nil
}

func (s *Store) set(id *uint256.Int, u *unit) error {
	if err := s.units.Set(id, u); err != nil {
		return errors.Wrapf(err, "failed to set unit %s", id.Dec())
	}
	return nil
}

// Count returns the number of units minted.
func (s *Store) Count() (uint64, error) {
	return s.count.Get()
}

// Mint creates unit id owned by owner.
func (s *Store) Mint(id *uint256.Int, owner thor.Address) error {
	if owner.IsZero() {
		return reverts.ErrZeroAddress
	}
	u, err := s.get(id)
	if err != nil {
		return err
	}
	if u.exists() {
		return reverts.New("unit already minted")
	}
	count, err := s.count.Get()
	if err != nil {
		return err
	}
	s.count.Set(count + 1)
	return s.set(id, &unit{Owner: owner})
}

// Transfer moves a free unit to a new owner.
func (s *Store) Transfer(from, to thor.Address, id *uint256.Int) error {
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	u, err := s.get(id)
	if err != nil {
		return err
	}
	if !u.exists() || u.Owner != from {
		return reverts.ErrUnitNotOwned
	}
	if u.Staked {
		return reverts.ErrUnitAlreadyStaked
	}
	u.Owner = to
	return s.set(id, u)
}

func (s *Store) OwnerOf(id *uint256.Int) (thor.Address, error) {
	u, err := s.get(id)
	if err != nil {
		return thor.Address{}, err
	}
	return u.Owner, nil
}

func (s *Store) IsStaked(id *uint256.Int) (bool, error) {
	u, err := s.get(id)
	if err != nil {
		return false, err
	}
	return u.Staked, nil
}

func (s *Store) IsJailed(id *uint256.Int) (bool, error) {
	u, err := s.get(id)
	if err != nil {
		return false, err
	}
	return u.Jailed, nil
}

// transit applies fn to every unit in ids, failing on the first rejected one.
func (s *Store) transit(ids []*uint256.Int, fn func(u *unit) error) error {
	for _, id := range ids {
		u, err := s.get(id)
		if err != nil {
			return err
		}
		if !u.exists() {
			return reverts.ErrUnitNotOwned
		}
		if err := fn(u); err != nil {
			return errors.WithMessagef(err, "unit %s", id.Dec())
		}
		if err := s.set(id, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Stake(ids []*uint256.Int) error {
	return s.transit(ids, func(u *unit) error {
		if u.Staked {
			return reverts.ErrUnitAlreadyStaked
		}
		u.Staked = true
		return nil
	})
}

func (s *Store) Unstake(ids []*uint256.Int) error {
	return s.transit(ids, func(u *unit) error {
		if !u.Staked {
			return reverts.ErrUnitNotStaked
		}
		if u.Jailed {
			return reverts.ErrUnitAlreadyJailed
		}
		u.Staked = false
		return nil
	})
}

func (s *Store) Jail(ids []*uint256.Int) error {
	return s.transit(ids, func(u *unit) error {
		if !u.Staked {
			return reverts.ErrUnitNotStaked
		}
		if u.Jailed {
			return reverts.ErrUnitAlreadyJailed
		}
		u.Jailed = true
		return nil
	})
}

func (s *Store) Unjail(ids []*uint256.Int) error {
	return s.transit(ids, func(u *unit) error {
		if !u.Jailed {
			return reverts.ErrUnitNotJailed
		}
		u.Jailed = false
		return nil
	})
}
