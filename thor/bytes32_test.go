// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes32(t *testing.T) {
	b := BytesToBytes32([]byte("total-staked"))
	assert.Equal(t, "total-staked", string(b[32-len("total-staked"):]))
	assert.False(t, b.IsZero())

	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
	assert.Equal(t, b, MustParseBytes32(b.String()[2:]))

	_, err = ParseBytes32("0x1234")
	assert.EqualError(t, err, "invalid length")
	_, err = ParseBytes32("1x" + b.String()[2:])
	assert.EqualError(t, err, "invalid prefix")

	long := make([]byte, 40)
	long[39] = 1
	assert.Equal(t, byte(1), BytesToBytes32(long)[31])
	assert.Panics(t, func() { MustParseBytes32("xx") })
}

func TestBytes32JSON(t *testing.T) {
	b := Blake2b([]byte("context"))
	data, err := json.Marshal(&b)
	require.NoError(t, err)

	var decoded Bytes32
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)
}
