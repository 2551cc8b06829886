// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dispatch maps named calls with JSON arguments onto pool operations.
package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/thor"
)

var (
	ErrUnknownMethod = errors.New("dispatch: unknown method")
	ErrBadArgs       = errors.New("dispatch: bad args")
)

// IsRequestError reports whether err was caused by a malformed call rather than by the pool.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnknownMethod) || errors.Is(err, ErrBadArgs)
}

// Call is a request to run one pool operation. The block it runs in is
// chosen by the node, see Head.
type Call struct {
	Method string          `json:"method"`
	Caller thor.Address    `json:"caller"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Result carries what an operation returns, if anything.
type Result struct {
	Amounts []*uint256.Int `json:"amounts,omitempty"`
	Index   *uint64        `json:"index,omitempty"`
}

type unitsArgs struct {
	UnitIDs []*uint256.Int `json:"unitIds"`
}

type signedArgs struct {
	UnitIDs   []*uint256.Int `json:"unitIds"`
	Subject   thor.Address   `json:"subject"`
	Expiry    uint64         `json:"expiry"`
	Signature hexutil.Bytes  `json:"signature"`
}

type jailArgs struct {
	Groups []struct {
		Owner   thor.Address   `json:"owner"`
		UnitIDs []*uint256.Int `json:"unitIds"`
	} `json:"groups"`
}

type addressArgs struct {
	Address thor.Address `json:"address"`
}

type handler func(p *nodepool.Pool, env nodepool.Env, args json.RawMessage) (*Result, error)

var handlers = make(map[string]handler)

func init() {
	defines := []struct {
		name string
		run  handler
	}{
		{"deposit", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args signedArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.Deposit(env, args.UnitIDs, args.Subject, args.Expiry, args.Signature)
		}},
		{"unstake", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args unitsArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.Unstake(env, args.UnitIDs)
		}},
		{"jailBatch", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args jailArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			groups := make([]nodepool.JailGroup, 0, len(args.Groups))
			for _, g := range args.Groups {
				groups = append(groups, nodepool.JailGroup{Owner: g.Owner, UnitIDs: g.UnitIDs})
			}
			return nil, p.JailBatch(env, groups)
		}},
		{"unjailBatch", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args signedArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.UnjailBatch(env, args.UnitIDs, args.Subject, args.Expiry, args.Signature)
		}},
		{"harvest", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			if err := parseArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			amounts, err := p.Harvest(env)
			if err != nil {
				return nil, err
			}
			return &Result{Amounts: amounts}, nil
		}},
		{"addDenomination", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				Token thor.Address `json:"token"`
				Rate  *uint256.Int `json:"rate"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			index, err := p.AddDenomination(env, args.Token, args.Rate)
			if err != nil {
				return nil, err
			}
			return &Result{Index: &index}, nil
		}},
		{"setRatePerBlock", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				Rates []*uint256.Int `json:"rates"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetRatePerBlock(env, args.Rates)
		}},
		{"setDenominationEnabled", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				Index   uint64 `json:"index"`
				Enabled bool   `json:"enabled"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetDenominationEnabled(env, args.Index, args.Enabled)
		}},
		{"setStartBlock", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				StartBlock uint32 `json:"startBlock"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetStartBlock(env, args.StartBlock)
		}},
		{"setAuthorizer", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args addressArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetAuthorizer(env, args.Address)
		}},
		{"setOperator", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args addressArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetOperator(env, args.Address)
		}},
		{"transferOwnership", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args addressArgs
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.TransferOwnership(env, args.Address)
		}},
		{"setUnstakeEnabled", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				Enabled bool `json:"enabled"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.SetUnstakeEnabled(env, args.Enabled)
		}},
		{"pause", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			if err := parseArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return nil, p.Pause(env)
		}},
		{"unpause", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			if err := parseArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return nil, p.Unpause(env)
		}},
		{"emergencyWithdraw", func(p *nodepool.Pool, env nodepool.Env, raw json.RawMessage) (*Result, error) {
			var args struct {
				To thor.Address `json:"to"`
			}
			if err := parseArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, p.EmergencyWithdraw(env, args.To)
		}},
	}
	for _, def := range defines {
		if _, dup := handlers[def.name]; dup {
			panic(fmt.Sprintf("dispatch: method %s defined twice", def.name))
		}
		handlers[def.name] = def.run
	}
}

// parseArgs decodes raw into v, rejecting unknown fields. Absent args decode as empty.
func parseArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WithMessage(ErrBadArgs, err.Error())
	}
	return nil
}

// Methods returns the names of all callable methods, sorted.
func Methods() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs c against p in block head.
func Dispatch(p *nodepool.Pool, c *Call, head Head) (*Result, error) {
	h, ok := handlers[c.Method]
	if !ok {
		return nil, errors.WithMessage(ErrUnknownMethod, c.Method)
	}
	res, err := h(p, nodepool.Env{Caller: c.Caller, Number: head.Number, Time: head.Time}, c.Args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	return res, nil
}
