// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps balances of reward tokens in contract storage.
package token

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/thor"
)

var (
	slotBalances = thor.BytesToBytes32([]byte("token-balances"))
	slotSupply   = thor.BytesToBytes32([]byte("token-supply"))
)

type holdingKey struct {
	token  thor.Address
	holder thor.Address
}

func (k holdingKey) Bytes() []byte {
	return append(k.token.Bytes(), k.holder.Bytes()...)
}

// Bank is a multi-token ledger.
type Bank struct {
	balances *solidity.Mapping[holdingKey, *uint256.Int]
	supply   *solidity.Mapping[thor.Address, *uint256.Int]
}

func New(sctx *solidity.Context) *Bank {
	return &Bank{
		balances: solidity.NewMapping[holdingKey, *uint256.Int](sctx, slotBalances),
		supply:   solidity.NewMapping[thor.Address, *uint256.Int](sctx, slotSupply),
	}
}

// BalanceOf returns the balance of holder in token.
func (b *Bank) BalanceOf(token, holder thor.Address) (*uint256.Int, error) {
	bal, err := b.balances.Get(holdingKey{token, holder})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

// TotalSupply returns the minted amount of token.
func (b *Bank) TotalSupply(token thor.Address) (*uint256.Int, error) {
	supply, err := b.supply.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get supply")
	}
	return supply, nil
}

func (b *Bank) setBalance(token, holder thor.Address, amount *uint256.Int) error {
	if err := b.balances.Set(holdingKey{token, holder}, amount); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

// Mint creates amount of token held by to.
func (b *Bank) Mint(token, to thor.Address, amount *uint256.Int) error {
	if token.IsZero() || to.IsZero() {
		return reverts.ErrZeroAddress
	}
	supply, err := b.TotalSupply(token)
	if err != nil {
		return err
	}
	if _, overflow := supply.AddOverflow(supply, amount); overflow {
		return reverts.ErrArithmeticOverflow
	}
	bal, err := b.BalanceOf(token, to)
	if err != nil {
		return err
	}
	// balance never exceeds supply
	bal.Add(bal, amount)
	if err := b.supply.Set(token, supply); err != nil {
		return errors.Wrap(err, "failed to set supply")
	}
	return b.setBalance(token, to, bal)
}

// Transfer moves amount of token from one holder to another.
func (b *Bank) Transfer(token, from, to thor.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	fromBal, err := b.BalanceOf(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return reverts.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBal, err := b.BalanceOf(token, to)
	if err != nil {
		return err
	}
	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	if err := b.setBalance(token, from, fromBal); err != nil {
		return err
	}
	return b.setBalance(token, to, toBal)
}
