// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/thor"
)

// Config describes how a fresh pool is set up.
type Config struct {
	Owner          string `yaml:"owner"`
	Operator       string `yaml:"operator"`
	Authorizer     string `yaml:"authorizer"`
	Context        string `yaml:"context"`
	StartBlock     uint32 `yaml:"startBlock"`
	// LaunchTime is the unix time of block 0, now if zero.
	LaunchTime     uint64 `yaml:"launchTime"`
	UnstakeEnabled bool   `yaml:"unstakeEnabled"`
	Denominations  []struct {
		Token string `yaml:"token"`
		Rate  string `yaml:"rate"`
	} `yaml:"denominations"`
	// Funding mints tokens to the pool, or to Holder when set.
	Funding []struct {
		Token  string `yaml:"token"`
		Holder string `yaml:"holder"`
		Amount string `yaml:"amount"`
	} `yaml:"funding"`
	// Units mints node units to their owners.
	Units []struct {
		Owner string   `yaml:"owner"`
		IDs   []string `yaml:"ids"`
	} `yaml:"units"`
}

// loadConfig reads a config file, rejecting unknown fields.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	return &cfg, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "amount %q", s)
	}
	return v, nil
}

// apply initializes n's pool at block 0, records the launch time and mints
// the configured tokens and units.
func (c *Config) apply(n *node) error {
	var (
		params nodepool.Params
		err    error
	)
	if params.Owner, err = thor.ParseAddress(c.Owner); err != nil {
		return errors.Wrap(err, "owner")
	}
	if params.Operator, err = thor.ParseAddress(c.Operator); err != nil {
		return errors.Wrap(err, "operator")
	}
	if params.Authorizer, err = thor.ParseAddress(c.Authorizer); err != nil {
		return errors.Wrap(err, "authorizer")
	}
	if params.Context, err = thor.ParseBytes32(c.Context); err != nil {
		return errors.Wrap(err, "context")
	}
	params.StartBlock = c.StartBlock

	launch := c.LaunchTime
	if launch == 0 {
		launch = uint64(now().Unix())
	}
	env := nodepool.Env{Caller: params.Owner, Time: launch}
	if err := n.pool.Initialize(env, params); err != nil {
		return err
	}
	n.launch.Set(launch)
	if err := n.pool.SetUnstakeEnabled(env, c.UnstakeEnabled); err != nil {
		return err
	}
	for i, d := range c.Denominations {
		token, err := thor.ParseAddress(d.Token)
		if err != nil {
			return errors.Wrapf(err, "denomination %d token", i)
		}
		rate, err := parseAmount(d.Rate)
		if err != nil {
			return errors.Wrapf(err, "denomination %d rate", i)
		}
		if _, err := n.pool.AddDenomination(env, token, rate); err != nil {
			return errors.WithMessagef(err, "denomination %d", i)
		}
	}
	for i, f := range c.Funding {
		token, err := thor.ParseAddress(f.Token)
		if err != nil {
			return errors.Wrapf(err, "funding %d token", i)
		}
		holder := n.pool.Address()
		if f.Holder != "" {
			if holder, err = thor.ParseAddress(f.Holder); err != nil {
				return errors.Wrapf(err, "funding %d holder", i)
			}
		}
		amount, err := parseAmount(f.Amount)
		if err != nil {
			return errors.Wrapf(err, "funding %d", i)
		}
		if err := n.bank.Mint(token, holder, amount); err != nil {
			return errors.WithMessagef(err, "funding %d", i)
		}
	}
	for i, u := range c.Units {
		owner, err := thor.ParseAddress(u.Owner)
		if err != nil {
			return errors.Wrapf(err, "units %d owner", i)
		}
		for _, s := range u.IDs {
			id, err := parseAmount(s)
			if err != nil {
				return errors.Wrapf(err, "units %d", i)
			}
			if err := n.units.Mint(id, owner); err != nil {
				return errors.WithMessagef(err, "units %d", i)
			}
		}
	}
	return nil
}
