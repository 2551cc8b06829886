// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"crypto/ecdsa"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/nodepool/custody"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/builtin/token"
	"github.com/vechain/nodepool/cry"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

var (
	poolAddr    = thor.BytesToAddress([]byte("pool"))
	ownerAddr   = thor.BytesToAddress([]byte("owner"))
	operator    = thor.BytesToAddress([]byte("operator"))
	alice       = thor.BytesToAddress([]byte("alice"))
	bob         = thor.BytesToAddress([]byte("bob"))
	rewardToken = thor.BytesToAddress([]byte("reward"))
	bonusToken  = thor.BytesToAddress([]byte("bonus"))
	contextID   = thor.BytesToBytes32([]byte("test-context"))
)

const (
	startBlock = 10
	farFuture  = uint64(1) << 40
	funding    = 1_000_000_000_000
)

func M(a ...any) []any {
	return a
}

func ids(v ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, 0, len(v))
	for _, i := range v {
		out = append(out, uint256.NewInt(i))
	}
	return out
}

func amounts(v ...uint64) []*uint256.Int {
	return ids(v...)
}

// PoolTest drives a pool through a sequence of operations at increasing blocks.
type PoolTest struct {
	*Pool
	t     *testing.T
	st    *state.State
	units *custody.Store
	bank  *token.Bank
	key   *ecdsa.PrivateKey
	block uint32
}

// newTest returns an initialized pool paying rate per block of a single reward
// denomination, starting at startBlock, with unstaking enabled.
func newTest(t *testing.T, rate uint64) *PoolTest {
	return newTestWith(t, rate, nil, nil)
}

// newTestWith is newTest with the registry wrapped by wrap and a custom verifier,
// either may be nil.
func newTestWith(t *testing.T, rate uint64, wrap func(*custody.Store) custody.Registry, verifier authz.Verifier) *PoolTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, 0)

	units := custody.NewStore(solidity.NewContext(thor.BytesToAddress([]byte("units")), st))
	bank := token.New(solidity.NewContext(thor.BytesToAddress([]byte("bank")), st))
	key, err := cry.GenerateKey()
	require.NoError(t, err)

	var registry custody.Registry = units
	if wrap != nil {
		registry = wrap(units)
	}
	if verifier == nil {
		verifier = authz.NewSignatureVerifier()
	}

	ts := &PoolTest{
		Pool:  New(poolAddr, st, registry, bank, verifier),
		t:     t,
		st:    st,
		units: units,
		bank:  bank,
		key:   key,
		block: 1,
	}
	t.Cleanup(ts.Pool.Close)
	require.NoError(t, ts.Initialize(ts.env(ownerAddr), Params{
		Owner:      ownerAddr,
		Operator:   operator,
		Authorizer: cry.AddressOf(key),
		Context:    contextID,
		StartBlock: startBlock,
	}))
	require.NoError(t, ts.SetUnstakeEnabled(ts.env(ownerAddr), true))
	_, err = ts.AddDenomination(ts.env(ownerAddr), rewardToken, uint256.NewInt(rate))
	require.NoError(t, err)
	require.NoError(t, bank.Mint(rewardToken, poolAddr, uint256.NewInt(funding)))
	return ts
}

func (ts *PoolTest) env(caller thor.Address) Env {
	return Env{Caller: caller, Number: ts.block, Time: 1_000_000 + uint64(ts.block)*10}
}

func (ts *PoolTest) sign(action string, units []*uint256.Int, subject thor.Address, expiry uint64) []byte {
	sig, err := authz.Sign(&authz.Payload{
		Context: contextID,
		UnitIDs: units,
		Subject: subject,
		Expiry:  expiry,
		Action:  action,
	}, ts.key)
	require.NoError(ts.t, err)
	return sig
}

// AtBlock moves the chain to block n.
func (ts *PoolTest) AtBlock(n uint32) *PoolTest {
	ts.block = n
	return ts
}

// Mint creates units owned by owner.
func (ts *PoolTest) Mint(owner thor.Address, v ...uint64) *PoolTest {
	for _, id := range v {
		require.NoError(ts.t, ts.units.Mint(uint256.NewInt(id), owner))
	}
	return ts
}

func (ts *PoolTest) Deposit(staker thor.Address, v ...uint64) *PoolTest {
	units := ids(v...)
	err := ts.Pool.Deposit(ts.env(staker), units, staker, farFuture, ts.sign(authz.ActionDeposit, units, staker, farFuture))
	assert.NoError(ts.t, err, "failed to deposit %v for %s", v, staker)
	return ts
}

func (ts *PoolTest) DepositErrors(staker thor.Address, expected error, v ...uint64) *PoolTest {
	units := ids(v...)
	err := ts.Pool.Deposit(ts.env(staker), units, staker, farFuture, ts.sign(authz.ActionDeposit, units, staker, farFuture))
	assert.ErrorIs(ts.t, err, expected, "expected deposit of %v for %s to fail", v, staker)
	return ts
}

func (ts *PoolTest) Unstake(user thor.Address, v ...uint64) *PoolTest {
	assert.NoError(ts.t, ts.Pool.Unstake(ts.env(user), ids(v...)), "failed to unstake %v for %s", v, user)
	return ts
}

func (ts *PoolTest) UnstakeErrors(user thor.Address, expected error, v ...uint64) *PoolTest {
	assert.ErrorIs(ts.t, ts.Pool.Unstake(ts.env(user), ids(v...)), expected, "expected unstake of %v for %s to fail", v, user)
	return ts
}

func (ts *PoolTest) Jail(owner thor.Address, v ...uint64) *PoolTest {
	err := ts.JailBatch(ts.env(operator), []JailGroup{{Owner: owner, UnitIDs: ids(v...)}})
	assert.NoError(ts.t, err, "failed to jail %v of %s", v, owner)
	return ts
}

func (ts *PoolTest) JailErrors(owner thor.Address, expected error, v ...uint64) *PoolTest {
	err := ts.JailBatch(ts.env(operator), []JailGroup{{Owner: owner, UnitIDs: ids(v...)}})
	assert.ErrorIs(ts.t, err, expected, "expected jail of %v of %s to fail", v, owner)
	return ts
}

func (ts *PoolTest) Unjail(owner thor.Address, v ...uint64) *PoolTest {
	units := ids(v...)
	err := ts.UnjailBatch(ts.env(operator), units, owner, farFuture, ts.sign(authz.ActionUnjail, units, owner, farFuture))
	assert.NoError(ts.t, err, "failed to unjail %v of %s", v, owner)
	return ts
}

func (ts *PoolTest) UnjailErrors(owner thor.Address, expected error, v ...uint64) *PoolTest {
	units := ids(v...)
	err := ts.UnjailBatch(ts.env(operator), units, owner, farFuture, ts.sign(authz.ActionUnjail, units, owner, farFuture))
	assert.ErrorIs(ts.t, err, expected, "expected unjail of %v of %s to fail", v, owner)
	return ts
}

// Harvest harvests for user and checks the amounts paid per denomination.
func (ts *PoolTest) Harvest(user thor.Address, expected ...uint64) *PoolTest {
	paid, err := ts.Pool.Harvest(ts.env(user))
	assert.NoError(ts.t, err, "failed to harvest for %s", user)
	assert.Equal(ts.t, amounts(expected...), paid, "unexpected harvest for %s", user)
	return ts
}

func (ts *PoolTest) HarvestErrors(user thor.Address, expected error) *PoolTest {
	_, err := ts.Pool.Harvest(ts.env(user))
	assert.ErrorIs(ts.t, err, expected, "expected harvest for %s to fail", user)
	return ts
}

func (ts *PoolTest) AssertPending(user thor.Address, expected ...uint64) *PoolTest {
	pending, err := ts.PendingRewards(ts.block, user)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, amounts(expected...), pending, "unexpected pending rewards of %s", user)
	return ts
}

func (ts *PoolTest) AssertStaked(user thor.Address, expected uint64) *PoolTest {
	info, err := ts.UserInfo(user)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, info.StakedUnits, "unexpected staked units of %s", user)
	return ts
}

func (ts *PoolTest) AssertTotalStaked(expected uint64) *PoolTest {
	total, err := ts.TotalStaked()
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, total)
	return ts
}

func (ts *PoolTest) AssertUnpaid(user thor.Address, expected ...uint64) *PoolTest {
	info, err := ts.UserInfo(user)
	assert.NoError(ts.t, err)
	got := make([]*uint256.Int, len(info.Balances))
	for i, b := range info.Balances {
		got[i] = b.Unpaid
	}
	assert.Equal(ts.t, amounts(expected...), got, "unexpected unpaid of %s", user)
	return ts
}

func (ts *PoolTest) AssertBalance(tok, holder thor.Address, expected uint64) *PoolTest {
	bal, err := ts.bank.BalanceOf(tok, holder)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, uint256.NewInt(expected), bal, "unexpected balance of %s", holder)
	return ts
}

func (ts *PoolTest) AssertStatus(id uint64, expected custody.Status) *PoolTest {
	status, err := custody.StatusOf(ts.units, uint256.NewInt(id))
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, status, "unexpected status of unit %d", id)
	return ts
}

// AssertDebtSettled checks that debt of user cancels the accumulators exactly.
func (ts *PoolTest) AssertDebtSettled(user thor.Address) *PoolTest {
	info, err := ts.UserInfo(user)
	require.NoError(ts.t, err)
	for i, b := range info.Balances {
		acc, err := ts.AccPerShare(uint64(i))
		require.NoError(ts.t, err)
		want := new(uint256.Int).Mul(uint256.NewInt(info.StakedUnits), acc)
		want.Div(want, thor.Precision)
		assert.Equal(ts.t, want, b.Debt, "debt of %s in denomination %d", user, i)
	}
	return ts
}
