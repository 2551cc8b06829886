// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package denomination

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotCount         = thor.BytesToBytes32([]byte("denomination-count"))
	slotDenominations = thor.BytesToBytes32([]byte("denominations"))
)

// Service is the append-only registry of reward denominations.
// Entries are never removed, only disabled.
type Service struct {
	count         *solidity.Uint64
	denominations *solidity.Mapping[Index, *Denomination]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		count:         solidity.NewUint64(sctx, slotCount),
		denominations: solidity.NewMapping[Index, *Denomination](sctx, slotDenominations),
	}
}

// Count returns the number of denominations ever added.
func (s *Service) Count() (uint64, error) {
	return s.count.Get()
}

// Get returns the denomination at index.
func (s *Service) Get(index uint64) (*Denomination, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, reverts.ErrDenominationNotFound
	}
	d, err := s.denominations.Get(Index(index))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get denomination %d", index)
	}
	return d, nil
}

// All returns every denomination ordered by index.
func (s *Service) All() ([]*Denomination, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	all := make([]*Denomination, 0, count)
	for i := range count {
		d, err := s.denominations.Get(Index(i))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get denomination %d", i)
		}
		all = append(all, d)
	}
	return all, nil
}

// Add appends an enabled denomination and returns its index.
func (s *Service) Add(token thor.Address, rate *uint256.Int) (uint64, error) {
	if token.IsZero() {
		return 0, reverts.ErrZeroAddress
	}
	if rate == nil || rate.IsZero() {
		return 0, reverts.ErrZeroRate
	}
	count, err := s.count.Get()
	if err != nil {
		return 0, err
	}
	d := &Denomination{Token: token, Rate: rate.Clone(), Enabled: true}
	if err := s.denominations.Set(Index(count), d); err != nil {
		return 0, errors.Wrap(err, "failed to set denomination")
	}
	s.count.Set(count + 1)
	return count, nil
}

// SetRates replaces the rate of every denomination. A zero rate is allowed and
// stops emission for that denomination.
func (s *Service) SetRates(rates []*uint256.Int) error {
	all, err := s.All()
	if err != nil {
		return err
	}
	if len(rates) != len(all) {
		return reverts.ErrDenominationLengthMismatch
	}
	for _, rate := range rates {
		if rate == nil {
			return reverts.ErrZeroRate
		}
	}
	for i, d := range all {
		d.Rate = rates[i].Clone()
		if err := s.denominations.Set(Index(i), d); err != nil {
			return errors.Wrapf(err, "failed to set denomination %d", i)
		}
	}
	return nil
}

// SetEnabled toggles the denomination at index.
func (s *Service) SetEnabled(index uint64, enabled bool) error {
	d, err := s.Get(index)
	if err != nil {
		return err
	}
	d.Enabled = enabled
	if err := s.denominations.Set(Index(index), d); err != nil {
		return errors.Wrapf(err, "failed to set denomination %d", index)
	}
	return nil
}
