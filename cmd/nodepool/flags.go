// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the pool database",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML file to set up an uninitialized pool from",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 64,
		Usage: "megabytes of ram allocated to the storage caches",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8679",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEnableCallsFlag = cli.BoolFlag{
		Name:  "api-enable-calls",
		Usage: "serve POST /pool/calls, which runs pool operations on behalf of any caller, owner and operator included (trusted networks only)",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "all queries with duration(ms) above threshold will be logged",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log all requests answered with 5xx",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	// command flags
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key of the authorizer",
	}
	actionFlag = cli.StringFlag{
		Name:  "action",
		Value: "deposit",
		Usage: "authorized action (deposit|unjail)",
	}
	unitsFlag = cli.StringFlag{
		Name:  "units",
		Usage: "comma separated unit ids, in call order",
	}
	subjectFlag = cli.StringFlag{
		Name:  "subject",
		Usage: "address of the staker or owner the authorization is for",
	}
	expiryFlag = cli.Uint64Flag{
		Name:  "expiry",
		Usage: "unix time the authorization expires at",
	}
	contextFlag = cli.StringFlag{
		Name:  "context",
		Usage: "execution context id, read from the pool in data-dir if absent",
	}
	methodFlag = cli.StringFlag{
		Name:  "method",
		Usage: "pool operation to run",
	}
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "address the operation is run on behalf of",
	}
	argsFlag = cli.StringFlag{
		Name:  "args",
		Usage: "JSON encoded operation arguments",
	}
	userFlag = cli.StringFlag{
		Name:  "user",
		Usage: "dump the ledger entry of this address instead of the summary",
	}
)
