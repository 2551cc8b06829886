// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispatch

import (
	"math"
	"time"

	"github.com/vechain/nodepool/thor"
)

// Head is the block an operation runs in.
type Head struct {
	Number uint32 `json:"number"`
	Time   uint64 `json:"time"`
}

// Clock derives the head block from wall time, one block every
// thor.BlockInterval seconds since launch.
type Clock struct {
	launch uint64
	now    func() time.Time
}

// NewClock creates a clock for a pool launched at the given unix time.
// A nil now defaults to time.Now.
func NewClock(launch uint64, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{launch: launch, now: now}
}

// Launch returns the unix time of block 0.
func (c *Clock) Launch() uint64 {
	return c.launch
}

// Head returns the current head block.
func (c *Clock) Head() Head {
	t := c.now().Unix()
	if t < 0 {
		t = 0
	}
	head := Head{Time: uint64(t)}
	if head.Time <= c.launch {
		return head
	}
	n := (head.Time - c.launch) / thor.BlockInterval
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	head.Number = uint32(n)
	return head
}
