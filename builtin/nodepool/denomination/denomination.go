// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package denomination

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/thor"
)

// Denomination is one reward asset distributed by the pool.
// Its index in the registry is its permanent identity.
type Denomination struct {
	Token   thor.Address
	Rate    *uint256.Int // reward emitted per block, shared by all stake
	Enabled bool
}

// Clone returns a deep copy.
func (d *Denomination) Clone() *Denomination {
	c := *d
	if d.Rate != nil {
		c.Rate = d.Rate.Clone()
	}
	return &c
}

// Index is the position of a denomination in the registry.
type Index uint64

// Bytes implements solidity.Key.
func (i Index) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}
