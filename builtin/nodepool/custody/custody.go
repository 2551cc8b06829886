// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody defines the asset registry the pool commands, and a
// registry kept in contract storage.
package custody

import (
	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/thor"
)

// Registry owns unit ownership and the staked/jailed flags of every unit.
// Each call either completes or fails the whole enclosing operation.
type Registry interface {
	OwnerOf(id *uint256.Int) (thor.Address, error)
	IsStaked(id *uint256.Int) (bool, error)
	IsJailed(id *uint256.Int) (bool, error)

	Stake(ids []*uint256.Int) error
	Unstake(ids []*uint256.Int) error
	Jail(ids []*uint256.Int) error
	Unjail(ids []*uint256.Int) error
}

// Status is the custody state of a unit.
type Status uint8

const (
	StatusFree Status = iota
	StatusStaked
	StatusStakedAndJailed
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusStaked:
		return "staked"
	case StatusStakedAndJailed:
		return "staked-and-jailed"
	default:
		return "unknown"
	}
}

// StatusOf reads the status of id from r.
func StatusOf(r Registry, id *uint256.Int) (Status, error) {
	staked, err := r.IsStaked(id)
	if err != nil {
		return 0, err
	}
	if !staked {
		return StatusFree, nil
	}
	jailed, err := r.IsJailed(id)
	if err != nil {
		return 0, err
	}
	if jailed {
		return StatusStakedAndJailed, nil
	}
	return StatusStaked, nil
}
