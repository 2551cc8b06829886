// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

// newTestContext returns a fresh Context over an in-memory store.
func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(thor.Address{1}, state.New(db, 0))
}

type TestStruct struct {
	Field1 uint64
	Field2 uint64
	Addr1  thor.Address
	Amount *uint256.Int
}

func TestContext(t *testing.T) {
	ctx := newTestContext(t)
	assert.Equal(t, thor.Address{1}, ctx.Address())
	assert.NotNil(t, ctx.State())
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	address := NewAddress(ctx, thor.Bytes32{1})

	value := thor.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	address.Set(&value)

	retrieved, err := address.Get()
	assert.NoError(t, err)
	assert.Equal(t, value, retrieved)

	address.Set(nil)
	retrieved, err = address.Get()
	assert.NoError(t, err)
	assert.Equal(t, thor.Address{}, retrieved)
}

func TestAddress_NegativeCases(t *testing.T) {
	ctx := newTestContext(t)
	slot := thor.BytesToBytes32([]byte("slot"))

	// invalid rlp makes GetStorage fail
	ctx.State().SetRawStorage(ctx.Address(), slot, rlp.RawValue{0xFF})

	addr, err := NewAddress(ctx, slot).Get()
	assert.Equal(t, thor.Address{}, addr)
	assert.Error(t, err)

	_, err = NewUint256(ctx, slot).Get()
	assert.Error(t, err)
	_, err = NewUint64(ctx, slot).Get()
	assert.Error(t, err)
	_, err = NewBool(ctx, slot).Get()
	assert.Error(t, err)
}

func TestBytes32(t *testing.T) {
	ctx := newTestContext(t)
	b := NewBytes32(ctx, thor.Bytes32{2})

	value := thor.Blake2b([]byte("context"))
	b.Set(&value)
	got, err := b.Get()
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	b.Set(nil)
	got, err = b.Get()
	assert.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.Bytes32{3})

	v, err := u.Get()
	assert.NoError(t, err)
	assert.True(t, v.IsZero())

	u.Set(uint256.NewInt(100))
	assert.NoError(t, u.Add(uint256.NewInt(50)))
	assert.NoError(t, u.Sub(uint256.NewInt(30)))
	v, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(120), v)

	assert.ErrorIs(t, u.Sub(uint256.NewInt(121)), reverts.ErrArithmeticOverflow)
	v, _ = u.Get()
	assert.Equal(t, uint256.NewInt(120), v, "failed sub leaves the slot untouched")

	maxVal := new(uint256.Int).SetAllOne()
	u.Set(maxVal)
	assert.ErrorIs(t, u.Add(uint256.NewInt(1)), reverts.ErrArithmeticOverflow)
	v, _ = u.Get()
	assert.Equal(t, maxVal, v)

	u.Set(nil)
	v, _ = u.Get()
	assert.True(t, v.IsZero())
}

func TestUint64(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint64(ctx, thor.Bytes32{4})

	v, err := u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	u.Set(^uint64(0))
	v, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, ^uint64(0), v)
}

func TestBool(t *testing.T) {
	ctx := newTestContext(t)
	b := NewBool(ctx, thor.Bytes32{5})

	v, err := b.Get()
	assert.NoError(t, err)
	assert.False(t, v)

	b.Set(true)
	v, _ = b.Get()
	assert.True(t, v)

	b.Set(false)
	v, _ = b.Get()
	assert.False(t, v)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Bytes32, *TestStruct](ctx, thor.Bytes32{6})

	key := thor.Bytes32{1}

	// absent keys read as an allocated zero value
	got, err := m.Get(key)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, uint64(0), got.Field1)

	value := &TestStruct{Field1: 1, Field2: 2, Addr1: thor.Address{7}, Amount: uint256.NewInt(1000)}
	assert.NoError(t, m.Set(key, value))

	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	// other key stays empty
	got, err = m.Get(thor.Bytes32{2})
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field1)

	m.Delete(key)
	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field2)
}

func TestMappingScalar(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{7})

	user := thor.Address{9}
	v, err := m.Get(user)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	assert.NoError(t, m.Set(user, 42))
	v, err = m.Get(user)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	// distinct base positions never collide
	other := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{8})
	v, err = other.Get(user)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestMappingRevert(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{7})
	user := thor.Address{9}

	assert.NoError(t, m.Set(user, 1))
	rev := ctx.State().NewCheckpoint()
	assert.NoError(t, m.Set(user, 2))
	ctx.State().RevertTo(rev)

	v, err := m.Get(user)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}
