// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accumulator keeps the per-denomination reward-per-share values of the pool.
package accumulator

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/nodepool/denomination"
	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotLastAdvanced = thor.BytesToBytes32([]byte("last-advanced-block"))
	slotAccPerShare  = thor.BytesToBytes32([]byte("acc-per-share"))
)

// Delta returns elapsed*rate*Precision/total, truncated.
// Zero total yields zero, the elapsed blocks are not banked.
func Delta(elapsed uint64, rate *uint256.Int, total uint64) (*uint256.Int, error) {
	if total == 0 || elapsed == 0 || rate == nil || rate.IsZero() {
		return new(uint256.Int), nil
	}
	v, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(elapsed), rate)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	if _, overflow = v.MulOverflow(v, thor.Precision); overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	return v.Div(v, uint256.NewInt(total)), nil
}

// Service maintains acc_per_share of every denomination and the block they
// were last advanced to.
type Service struct {
	lastAdvanced *solidity.Uint64
	accPerShare  *solidity.Mapping[denomination.Index, *uint256.Int]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		lastAdvanced: solidity.NewUint64(sctx, slotLastAdvanced),
		accPerShare:  solidity.NewMapping[denomination.Index, *uint256.Int](sctx, slotAccPerShare),
	}
}

func (s *Service) LastAdvancedBlock() (uint32, error) {
	n, err := s.lastAdvanced.Get()
	return uint32(n), err
}

// SetLastAdvancedBlock moves the accrual origin without accruing.
// Only valid while nothing has accrued yet, i.e. before the start block.
func (s *Service) SetLastAdvancedBlock(block uint32) {
	s.lastAdvanced.Set(uint64(block))
}

// AccPerShare returns the accumulator of denomination index, zero if never advanced.
func (s *Service) AccPerShare(index uint64) (*uint256.Int, error) {
	acc, err := s.accPerShare.Get(denomination.Index(index))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get acc per share %d", index)
	}
	return acc, nil
}

// Snapshot returns the accumulators of the first n denominations.
func (s *Service) Snapshot(n uint64) ([]*uint256.Int, error) {
	accs := make([]*uint256.Int, 0, n)
	for i := range n {
		acc, err := s.AccPerShare(i)
		if err != nil {
			return nil, err
		}
		accs = append(accs, acc)
	}
	return accs, nil
}

// Advance brings every enabled accumulator up to block under the given total stake.
// It's a no-op when block is not past the last advanced block.
// It returns the accumulators after advancing.
func (s *Service) Advance(block uint32, total uint64, denoms []*denomination.Denomination) ([]*uint256.Int, error) {
	last, err := s.LastAdvancedBlock()
	if err != nil {
		return nil, err
	}
	accs, err := s.Snapshot(uint64(len(denoms)))
	if err != nil {
		return nil, err
	}
	if block <= last {
		return accs, nil
	}
	if total > 0 {
		updated, err := project(accs, uint64(block-last), total, denoms)
		if err != nil {
			return nil, err
		}
		for i, acc := range updated {
			if acc.Eq(accs[i]) {
				continue
			}
			if err := s.accPerShare.Set(denomination.Index(i), acc); err != nil {
				return nil, errors.Wrapf(err, "failed to set acc per share %d", i)
			}
		}
		accs = updated
	}
	s.lastAdvanced.Set(uint64(block))
	return accs, nil
}

// Preview returns the accumulators as Advance would leave them, without writing.
func (s *Service) Preview(block uint32, total uint64, denoms []*denomination.Denomination) ([]*uint256.Int, error) {
	last, err := s.LastAdvancedBlock()
	if err != nil {
		return nil, err
	}
	accs, err := s.Snapshot(uint64(len(denoms)))
	if err != nil {
		return nil, err
	}
	if block <= last || total == 0 {
		return accs, nil
	}
	return project(accs, uint64(block-last), total, denoms)
}

func project(accs []*uint256.Int, elapsed, total uint64, denoms []*denomination.Denomination) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(accs))
	for i, acc := range accs {
		out[i] = acc.Clone()
		if !denoms[i].Enabled {
			continue
		}
		delta, err := Delta(elapsed, denoms[i].Rate, total)
		if err != nil {
			return nil, err
		}
		if _, overflow := out[i].AddOverflow(out[i], delta); overflow {
			return nil, reverts.ErrArithmeticOverflow
		}
	}
	return out, nil
}
