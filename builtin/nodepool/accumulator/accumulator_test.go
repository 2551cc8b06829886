// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accumulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/nodepool/builtin/nodepool/denomination"
	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

func newSvc(t *testing.T) (*Service, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, 0)
	return New(solidity.NewContext(thor.BytesToAddress([]byte("acc")), st)), st
}

func scaled(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), thor.Precision)
}

func denoms(rates ...uint64) []*denomination.Denomination {
	out := make([]*denomination.Denomination, 0, len(rates))
	for _, r := range rates {
		out = append(out, &denomination.Denomination{
			Token:   thor.BytesToAddress([]byte("token")),
			Rate:    uint256.NewInt(r),
			Enabled: true,
		})
	}
	return out
}

func TestDelta(t *testing.T) {
	tests := []struct {
		elapsed uint64
		rate    uint64
		total   uint64
		want    *uint256.Int
	}{
		{5, 100, 10, scaled(50)},
		{4, 100, 40, scaled(10)},
		{1, 1, 3, uint256.NewInt(333333333333333333)},
		{0, 100, 10, uint256.NewInt(0)},
		{5, 0, 10, uint256.NewInt(0)},
		{5, 100, 0, uint256.NewInt(0)},
	}
	for _, tt := range tests {
		got, err := Delta(tt.elapsed, uint256.NewInt(tt.rate), tt.total)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "elapsed=%d rate=%d total=%d", tt.elapsed, tt.rate, tt.total)
	}

	_, err := Delta(2, new(uint256.Int).SetAllOne(), 1)
	assert.ErrorIs(t, err, reverts.ErrArithmeticOverflow)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	_, err = Delta(1, huge, 1)
	assert.ErrorIs(t, err, reverts.ErrArithmeticOverflow)
}

func TestAdvance(t *testing.T) {
	svc, _ := newSvc(t)
	svc.SetLastAdvancedBlock(10)
	ds := denoms(100, 50)

	accs, err := svc.Advance(15, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, []*uint256.Int{scaled(50), scaled(25)}, accs)

	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(15), last)

	acc, err := svc.AccPerShare(0)
	assert.NoError(t, err)
	assert.Equal(t, scaled(50), acc)
}

func TestAdvanceIdempotent(t *testing.T) {
	svc, _ := newSvc(t)
	ds := denoms(100)

	first, err := svc.Advance(20, 4, ds)
	assert.NoError(t, err)
	second, err := svc.Advance(20, 4, ds)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	// earlier block is a no-op as well
	third, err := svc.Advance(19, 1, ds)
	assert.NoError(t, err)
	assert.Equal(t, first, third)

	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(20), last)
}

func TestAdvanceZeroTotal(t *testing.T) {
	svc, _ := newSvc(t)
	ds := denoms(100)

	accs, err := svc.Advance(50, 0, ds)
	assert.NoError(t, err)
	assert.True(t, accs[0].IsZero())
	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(50), last, "blocks without stake are consumed")

	accs, err = svc.Advance(51, 1, ds)
	assert.NoError(t, err)
	assert.Equal(t, scaled(100), accs[0], "only the single staked block accrues")
}

func TestAdvanceNoDenominations(t *testing.T) {
	svc, _ := newSvc(t)
	accs, err := svc.Advance(7, 10, nil)
	assert.NoError(t, err)
	assert.Empty(t, accs)
	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(7), last)
}

func TestAdvanceDisabledNoRetroactiveCredit(t *testing.T) {
	svc, _ := newSvc(t)
	ds := denoms(100, 100)

	_, err := svc.Advance(10, 10, ds)
	assert.NoError(t, err)
	before, _ := svc.AccPerShare(0)

	ds[0].Enabled = false
	accs, err := svc.Advance(20, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, before, accs[0], "disabled denomination does not accrue")
	assert.Equal(t, scaled(200), accs[1])

	ds[0].Enabled = true
	accs, err = svc.Advance(21, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Add(before, scaled(10)), accs[0], "re-enabling accrues from now on only")
}

func TestAdvanceNewDenominationStartsAtZero(t *testing.T) {
	svc, _ := newSvc(t)
	ds := denoms(100)

	_, err := svc.Advance(10, 10, ds)
	assert.NoError(t, err)

	ds = append(ds, denoms(100)...)
	accs, err := svc.Advance(12, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, scaled(20), accs[1])
	assert.Equal(t, scaled(120), accs[0])
}

func TestAdvanceOverflowLeavesState(t *testing.T) {
	svc, st := newSvc(t)
	ds := denoms(1)
	ds[0].Rate = new(uint256.Int).SetAllOne()

	rev := st.NewCheckpoint()
	_, err := svc.Advance(10, 1, ds)
	assert.ErrorIs(t, err, reverts.ErrArithmeticOverflow)
	st.RevertTo(rev)

	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(0), last)
}

func TestPreview(t *testing.T) {
	svc, _ := newSvc(t)
	ds := denoms(100)
	_, err := svc.Advance(10, 10, ds)
	assert.NoError(t, err)

	accs, err := svc.Preview(15, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, scaled(150), accs[0])

	// nothing written
	acc, _ := svc.AccPerShare(0)
	assert.Equal(t, scaled(100), acc)
	last, _ := svc.LastAdvancedBlock()
	assert.Equal(t, uint32(10), last)

	accs, err = svc.Preview(15, 0, ds)
	assert.NoError(t, err)
	assert.Equal(t, scaled(100), accs[0])

	accs, err = svc.Preview(5, 10, ds)
	assert.NoError(t, err)
	assert.Equal(t, scaled(100), accs[0])
}
