// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/thor"
)

// Balance is the bookkeeping of one user in one denomination.
type Balance struct {
	Debt   *uint256.Int // staked * acc_per_share / Precision at the last settlement
	Unpaid *uint256.Int // settled but not yet harvested
	Paid   *uint256.Int // cumulative harvested
}

func newBalance() *Balance {
	return &Balance{
		Debt:   new(uint256.Int),
		Unpaid: new(uint256.Int),
		Paid:   new(uint256.Int),
	}
}

// normalize fills fields left nil by a zero-valued slot.
func (b *Balance) normalize() *Balance {
	if b.Debt == nil {
		b.Debt = new(uint256.Int)
	}
	if b.Unpaid == nil {
		b.Unpaid = new(uint256.Int)
	}
	if b.Paid == nil {
		b.Paid = new(uint256.Int)
	}
	return b
}

func (b *Balance) equal(o *Balance) bool {
	return b.Debt.Eq(o.Debt) && b.Unpaid.Eq(o.Unpaid) && b.Paid.Eq(o.Paid)
}

func (b *Balance) clone() *Balance {
	return &Balance{
		Debt:   b.Debt.Clone(),
		Unpaid: b.Unpaid.Clone(),
		Paid:   b.Paid.Clone(),
	}
}

// balanceKey addresses the balance of user in denomination index.
type balanceKey struct {
	user  thor.Address
	index uint64
}

func (k balanceKey) Bytes() []byte {
	b := make([]byte, 0, len(k.user)+8)
	b = append(b, k.user[:]...)
	return binary.BigEndian.AppendUint64(b, k.index)
}
