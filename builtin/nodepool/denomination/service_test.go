// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package denomination

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

func newSvc(t *testing.T) (*Service, thor.Address, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, 0)
	addr := thor.BytesToAddress([]byte("dn"))
	return New(solidity.NewContext(addr, st)), addr, st
}

var (
	tokenA = thor.BytesToAddress([]byte("token-a"))
	tokenB = thor.BytesToAddress([]byte("token-b"))
)

func TestService_Empty(t *testing.T) {
	svc, _, _ := newSvc(t)

	count, err := svc.Count()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	all, err := svc.All()
	assert.NoError(t, err)
	assert.Empty(t, all)

	_, err = svc.Get(0)
	assert.ErrorIs(t, err, reverts.ErrDenominationNotFound)
	assert.ErrorIs(t, svc.SetEnabled(0, false), reverts.ErrDenominationNotFound)
}

func TestService_Add(t *testing.T) {
	svc, _, _ := newSvc(t)

	idx, err := svc.Add(tokenA, uint256.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	idx, err = svc.Add(tokenB, uint256.NewInt(7))
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	d, err := svc.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, &Denomination{Token: tokenB, Rate: uint256.NewInt(7), Enabled: true}, d)

	_, err = svc.Add(tokenA, uint256.NewInt(0))
	assert.ErrorIs(t, err, reverts.ErrZeroRate)
	_, err = svc.Add(tokenA, nil)
	assert.ErrorIs(t, err, reverts.ErrZeroRate)
	_, err = svc.Add(thor.Address{}, uint256.NewInt(1))
	assert.ErrorIs(t, err, reverts.ErrZeroAddress)

	count, _ := svc.Count()
	assert.Equal(t, uint64(2), count, "rejected adds leave the registry untouched")
}

func TestService_AddCopiesRate(t *testing.T) {
	svc, _, _ := newSvc(t)

	rate := uint256.NewInt(5)
	_, err := svc.Add(tokenA, rate)
	assert.NoError(t, err)
	rate.SetUint64(6)

	d, _ := svc.Get(0)
	assert.Equal(t, uint256.NewInt(5), d.Rate)
}

func TestService_SetRates(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, _ = svc.Add(tokenA, uint256.NewInt(100))
	_, _ = svc.Add(tokenB, uint256.NewInt(200))

	err := svc.SetRates([]*uint256.Int{uint256.NewInt(1)})
	assert.ErrorIs(t, err, reverts.ErrDenominationLengthMismatch)

	err = svc.SetRates([]*uint256.Int{uint256.NewInt(1), nil})
	assert.ErrorIs(t, err, reverts.ErrZeroRate)

	err = svc.SetRates([]*uint256.Int{uint256.NewInt(0), uint256.NewInt(300)})
	assert.NoError(t, err)

	all, err := svc.All()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(0), all[0].Rate)
	assert.Equal(t, uint256.NewInt(300), all[1].Rate)
	assert.True(t, all[0].Enabled)
}

func TestService_SetEnabled(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, _ = svc.Add(tokenA, uint256.NewInt(100))

	assert.NoError(t, svc.SetEnabled(0, false))
	d, _ := svc.Get(0)
	assert.False(t, d.Enabled)
	assert.Equal(t, uint256.NewInt(100), d.Rate)

	assert.NoError(t, svc.SetEnabled(0, true))
	d, _ = svc.Get(0)
	assert.True(t, d.Enabled)
}

func TestService_CorruptedStorage(t *testing.T) {
	svc, addr, st := newSvc(t)
	_, _ = svc.Add(tokenA, uint256.NewInt(100))

	st.SetRawStorage(addr, thor.Blake2b(Index(0).Bytes(), slotDenominations.Bytes()), rlp.RawValue{0xFF})
	_, err := svc.Get(0)
	assert.Error(t, err)
	assert.False(t, reverts.IsRevertErr(err))

	_, err = svc.All()
	assert.Error(t, err)
}

func TestIndexBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, Index(1).Bytes())
}

func TestDenominationClone(t *testing.T) {
	d := &Denomination{Token: tokenA, Rate: uint256.NewInt(3), Enabled: true}
	c := d.Clone()
	c.Rate.SetUint64(4)
	assert.Equal(t, uint256.NewInt(3), d.Rate)
}
