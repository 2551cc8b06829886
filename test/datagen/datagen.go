// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random values for tests.
package datagen

import (
	"crypto/rand"
	mathrand "math/rand/v2"

	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/thor"
)

func RandomHash() thor.Bytes32 {
	var b32 thor.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() thor.Address {
	var addr thor.Address

	rand.Read(addr[:])
	return addr
}

// RandUnitIDs returns n distinct unit ids.
func RandUnitIDs(n int) []*uint256.Int {
	seen := make(map[uint64]struct{}, n)
	ids := make([]*uint256.Int, 0, n)
	for len(ids) < n {
		v := mathrand.Uint64() //#nosec G404
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		ids = append(ids, uint256.NewInt(v))
	}
	return ids
}
