// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testpool sets up an initialized pool over in-memory storage for tests.
package testpool

import (
	"crypto/ecdsa"

	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/nodepool/custody"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/builtin/token"
	"github.com/vechain/nodepool/cry"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/test/datagen"
	"github.com/vechain/nodepool/thor"
)

const (
	StartBlock = 10
	Rate       = 1000
	Funding    = 1_000_000_000
)

var (
	Address      = thor.BytesToAddress([]byte("pool"))
	Owner        = thor.BytesToAddress([]byte("owner"))
	Operator     = thor.BytesToAddress([]byte("operator"))
	RewardToken  = thor.BytesToAddress([]byte("reward"))
	unitsAddress = thor.BytesToAddress([]byte("units"))
	bankAddress  = thor.BytesToAddress([]byte("bank"))
)

// TestPool is a pool with one funded denomination paying Rate per block from StartBlock.
type TestPool struct {
	*nodepool.Pool
	DB      *lvldb.LevelDB
	State   *state.State
	Units   *custody.Store
	Bank    *token.Bank
	Key     *ecdsa.PrivateKey
	Context thor.Bytes32
}

// New creates the pool and commits its setup. Call Close when done.
func New() (*TestPool, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(db, 0)
	key, err := cry.GenerateKey()
	if err != nil {
		return nil, err
	}

	units := custody.NewStore(solidity.NewContext(unitsAddress, st))
	bank := token.New(solidity.NewContext(bankAddress, st))
	tp := &TestPool{
		Pool:    nodepool.New(Address, st, units, bank, authz.NewSignatureVerifier()),
		DB:      db,
		State:   st,
		Units:   units,
		Bank:    bank,
		Key:     key,
		Context: datagen.RandomHash(),
	}

	env := nodepool.Env{Caller: Owner, Number: 1}
	if err := tp.Initialize(env, nodepool.Params{
		Owner:      Owner,
		Operator:   Operator,
		Authorizer: cry.AddressOf(key),
		Context:    tp.Context,
		StartBlock: StartBlock,
	}); err != nil {
		return nil, err
	}
	if err := tp.SetUnstakeEnabled(env, true); err != nil {
		return nil, err
	}
	if _, err := tp.AddDenomination(env, RewardToken, uint256.NewInt(Rate)); err != nil {
		return nil, err
	}
	if err := bank.Mint(RewardToken, Address, uint256.NewInt(Funding)); err != nil {
		return nil, err
	}
	if _, err := st.Commit(); err != nil {
		return nil, err
	}
	return tp, nil
}

// Close releases the pool's storage.
func (tp *TestPool) Close() {
	tp.Pool.Close()
	tp.DB.Close()
}

// Env returns the environment of a call by caller at block number.
func Env(caller thor.Address, number uint32) nodepool.Env {
	return nodepool.Env{Caller: caller, Number: number, Time: 1_000_000 + uint64(number)*10}
}

// Sign authorizes action on ids for subject until expiry.
func (tp *TestPool) Sign(action string, ids []*uint256.Int, subject thor.Address, expiry uint64) ([]byte, error) {
	return authz.Sign(&authz.Payload{
		Context: tp.Context,
		UnitIDs: ids,
		Subject: subject,
		Expiry:  expiry,
		Action:  action,
	}, tp.Key)
}

// Stake mints ids to owner and deposits them at block number.
func (tp *TestPool) Stake(owner thor.Address, number uint32, ids ...*uint256.Int) error {
	for _, id := range ids {
		if err := tp.Units.Mint(id, owner); err != nil {
			return err
		}
	}
	const expiry = uint64(1) << 40
	sig, err := tp.Sign(authz.ActionDeposit, ids, owner, expiry)
	if err != nil {
		return err
	}
	return tp.Deposit(Env(owner, number), ids, owner, expiry, sig)
}
