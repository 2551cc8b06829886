// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/api/utils"
	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/builtin/nodepool/dispatch"
	"github.com/vechain/nodepool/builtin/reverts"
	"github.com/vechain/nodepool/log"
)

var logger = log.WithContext("pkg", "api-pool")

// Pool serves the pool's query surface and, when enabled, its operations.
type Pool struct {
	pool        *nodepool.Pool
	mu          *sync.RWMutex
	commit      func() error
	head        func() dispatch.Head
	allowsCalls bool
}

// New creates the handler set. Reads hold mu for reading, calls hold it for
// writing, run in the block returned by head and run commit after every
// successful operation. Calls are disabled unless both commit and head are set.
func New(pool *nodepool.Pool, mu *sync.RWMutex, commit func() error, head func() dispatch.Head) *Pool {
	return &Pool{
		pool:        pool,
		mu:          mu,
		commit:      commit,
		head:        head,
		allowsCalls: commit != nil && head != nil,
	}
}

func (p *Pool) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, err := p.pool.Summary()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(s))
}

func (p *Pool) handleGetDenominations(w http.ResponseWriter, _ *http.Request) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, err := p.pool.Summary()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(s).Denominations)
}

func (p *Pool) handleGetDenomination(w http.ResponseWriter, req *http.Request) error {
	index, err := utils.ParseUint("index", mux.Vars(req)["index"], 64, 0)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	d, err := p.pool.Denomination(index)
	if err != nil {
		if errors.Is(err, reverts.ErrDenominationNotFound) {
			return utils.NotFound(err)
		}
		return err
	}
	acc, err := p.pool.AccPerShare(index)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDenomination(index, d, acc))
}

func (p *Pool) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	info, err := p.pool.UserInfo(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertUser(addr, info))
}

func (p *Pool) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	block, err := utils.ParseUint("block", req.URL.Query().Get("block"), 32, math.MaxUint64)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	// defaults to the last block the pool was brought up to
	number := uint32(block)
	if block == math.MaxUint64 {
		if number, err = p.pool.LastAdvancedBlock(); err != nil {
			return err
		}
	}
	amounts, err := p.pool.PendingRewards(number, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Pending{Block: number, Amounts: amounts})
}

func (p *Pool) handleCall(w http.ResponseWriter, req *http.Request) error {
	if !p.allowsCalls {
		return utils.Forbidden(errors.New("calls are disabled"))
	}
	var call dispatch.Call
	if err := utils.ParseJSON(req.Body, &call); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	head := p.head()
	res, err := dispatch.Dispatch(p.pool, &call, head)
	if err != nil {
		if dispatch.IsRequestError(err) || reverts.IsRevertErr(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	if err := p.commit(); err != nil {
		logger.Error("failed to commit call", "method", call.Method, "block", head.Number, "error", err)
		return err
	}
	return utils.WriteJSON(w, res)
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("pool_get_summary").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSummary))
	sub.Path("/denominations").
		Methods(http.MethodGet).
		Name("pool_get_denominations").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetDenominations))
	sub.Path("/denominations/{index}").
		Methods(http.MethodGet).
		Name("pool_get_denomination").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetDenomination))
	sub.Path("/users/{address}").
		Methods(http.MethodGet).
		Name("pool_get_user").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
	sub.Path("/users/{address}/pending").
		Methods(http.MethodGet).
		Name("pool_get_pending").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPending))
	sub.Path("/calls").
		Methods(http.MethodPost).
		Name("pool_post_call").
		HandlerFunc(utils.WrapHandlerFunc(p.handleCall))
}
