// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package nodepool implements the staking pool that pays every staked unit an
// equal share of each reward denomination's per-block emission.
//
// Every mutating operation runs as one atomic step: it either takes full
// effect or leaves state untouched. Operations are not reentrant.
package nodepool

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"

	"github.com/vechain/nodepool/builtin/nodepool/accumulator"
	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/nodepool/custody"
	"github.com/vechain/nodepool/builtin/nodepool/denomination"
	"github.com/vechain/nodepool/builtin/nodepool/ledger"
	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/log"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

var logger = log.WithContext("pkg", "nodepool")

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// Bank moves reward tokens. The pool pays out of the balance it holds under its own address.
type Bank interface {
	BalanceOf(token, holder thor.Address) (*uint256.Int, error)
	Transfer(token, from, to thor.Address, amount *uint256.Int) error
}

// Env is the environment an operation executes in.
type Env struct {
	Caller thor.Address
	Number uint32 // current block number
	Time   uint64 // current block timestamp, unix seconds
}

// Pool is the staking pool.
type Pool struct {
	addr          thor.Address
	state         *state.State
	settings      *settings
	denominations *denomination.Service
	accumulator   *accumulator.Service
	ledger        *ledger.Service
	registry      custody.Registry
	bank          Bank
	verifier      authz.Verifier

	entered atomic.Bool
	events  *eventFeed
}

// New creates a pool that keeps its storage under addr.
func New(addr thor.Address, state *state.State, registry custody.Registry, bank Bank, verifier authz.Verifier) *Pool {
	sctx := solidity.NewContext(addr, state)

	return &Pool{
		addr:          addr,
		state:         state,
		settings:      newSettings(sctx),
		denominations: denomination.New(sctx),
		accumulator:   accumulator.New(sctx),
		ledger:        ledger.New(sctx),
		registry:      registry,
		bank:          bank,
		verifier:      verifier,
		events:        newEventFeed(),
	}
}

// Address returns the address the pool holds its storage and funds under.
func (p *Pool) Address() thor.Address {
	return p.addr
}

// SubscribeEvents delivers events of successful operations to ch, in the
// order the operations ran. Delivery is asynchronous: operations never wait
// for subscribers, but a subscriber that stops receiving holds up delivery
// to the others until it unsubscribes.
func (p *Pool) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return p.events.subscribe(ch)
}

// Close ends all event subscriptions.
func (p *Pool) Close() {
	p.events.close()
}

// execute runs fn as one atomic operation. State written by fn is reverted
// when it fails, events it returns are published only when it succeeds.
func (p *Pool) execute(op string, fn func() ([]*Event, error)) error {
	if !p.entered.CompareAndSwap(false, true) {
		return reverts.ErrReentrantCall
	}

	start := time.Now()
	events, err := func() ([]*Event, error) {
		defer p.entered.Store(false)

		checkpoint := p.state.NewCheckpoint()
		events, err := fn()
		if err != nil {
			p.state.RevertTo(checkpoint)
			return nil, err
		}
		return events, nil
	}()
	metricOpDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})

	if err != nil {
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "reverted"
		}
		metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "result": result})
		return err
	}
	metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "result": "success"})
	if total, err := p.ledger.TotalStaked(); err == nil {
		metricTotalStaked().Set(int64(total))
	}

	for _, ev := range events {
		if ev.Kind == EventHarvest {
			metricHarvested().AddWithLabel(1, map[string]string{"denomination": strconv.FormatUint(*ev.Denomination, 10)})
		}
	}
	p.events.publish(events)
	return nil
}

// advance brings the accumulators up to the given block under the current total stake.
func (p *Pool) advance(number uint32) ([]*uint256.Int, error) {
	denoms, err := p.denominations.All()
	if err != nil {
		return nil, err
	}
	total, err := p.ledger.TotalStaked()
	if err != nil {
		return nil, err
	}
	return p.accumulator.Advance(number, total, denoms)
}

func (p *Pool) requireInitialized() error {
	initialized, err := p.settings.initialized.Get()
	if err != nil {
		return err
	}
	if !initialized {
		return reverts.ErrNotInitialized
	}
	return nil
}

func (p *Pool) requireNotPaused() error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	paused, err := p.settings.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrPaused
	}
	return nil
}

func (p *Pool) requireStarted(number uint32) error {
	start, err := p.settings.getStartBlock()
	if err != nil {
		return err
	}
	if number < start {
		return reverts.ErrNotStarted
	}
	return nil
}

func (p *Pool) requireOwner(caller thor.Address) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	owner, err := p.settings.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.ErrUnauthorized
	}
	return nil
}

func (p *Pool) requireOperator(caller thor.Address) error {
	if err := p.requireInitialized(); err != nil {
		return err
	}
	operator, err := p.settings.operator.Get()
	if err != nil {
		return err
	}
	if caller != operator {
		return reverts.ErrUnauthorized
	}
	return nil
}

// checkUnits validates the size of a unit id list and rejects duplicates.
// seen may be shared across lists of one call.
func checkUnits(ids []*uint256.Int, seen map[uint256.Int]struct{}) error {
	if len(ids) == 0 {
		return reverts.ErrEmptyUnits
	}
	if len(ids) > thor.MaxUnitsPerCall {
		return reverts.ErrTooManyUnits
	}
	for _, id := range ids {
		if id == nil {
			return reverts.New("nil unit id")
		}
		if _, ok := seen[*id]; ok {
			return reverts.ErrDuplicateUnit
		}
		seen[*id] = struct{}{}
	}
	return nil
}

// verifyAuthorization checks that sig is the authorizer's signature of the
// given action over ids, subject and expiry.
func (p *Pool) verifyAuthorization(action string, ids []*uint256.Int, subject thor.Address, expiry uint64, sig []byte) error {
	authorizer, err := p.settings.authorizer.Get()
	if err != nil {
		return err
	}
	context, err := p.settings.context.Get()
	if err != nil {
		return err
	}
	signer, err := p.verifier.Verify(&authz.Payload{
		Context: context,
		UnitIDs: ids,
		Subject: subject,
		Expiry:  expiry,
		Action:  action,
	}, sig)
	if err != nil {
		logger.Debug("authorization rejected", "action", action, "subject", subject, "error", err)
		return reverts.ErrInvalidSignature
	}
	if signer != authorizer {
		return reverts.ErrInvalidSignature
	}
	return nil
}
