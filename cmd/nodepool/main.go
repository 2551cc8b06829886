// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/nodepool/api"
	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/nodepool/dispatch"
	"github.com/vechain/nodepool/cry"
	"github.com/vechain/nodepool/log"
	"github.com/vechain/nodepool/thor"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "nodepool"
	app.Usage = "Reward pool for staked node units"
	app.Copyright = "2025 VeChain Foundation <https://vechain.org/>"
	app.Flags = []cli.Flag{
		dataDirFlag,
		configFlag,
		cacheFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiEnableCallsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		enableAPILogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		verbosityFlag,
		jsonLogsFlag,
	}
	app.Action = serveAction
	app.Commands = []cli.Command{
		{
			Name:   "init",
			Usage:  "set up the pool in data-dir from --config",
			Action: initAction,
		},
		{
			Name:   "dump",
			Usage:  "print the pool state",
			Flags:  []cli.Flag{userFlag},
			Action: dumpAction,
		},
		{
			Name:   "keygen",
			Usage:  "generate an authorizer key",
			Action: keygenAction,
		},
		{
			Name:  "sign",
			Usage: "authorize a deposit or an unjail",
			Flags: []cli.Flag{
				keyFlag,
				actionFlag,
				unitsFlag,
				subjectFlag,
				expiryFlag,
				contextFlag,
			},
			Action: signAction,
		},
		{
			Name:  "call",
			Usage: "run one pool operation (" + strings.Join(dispatch.Methods(), "|") + ")",
			Flags: []cli.Flag{
				methodFlag,
				callerFlag,
				argsFlag,
			},
			Action: callAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(srv *http.Server, listener net.Listener) error {
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serveAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing pool database..."); n.Close() }()

	if err := n.seed(ctx.GlobalString(configFlag.Name)); err != nil {
		return err
	}
	var clock *dispatch.Clock
	if ctx.GlobalBool(apiEnableCallsFlag.Name) {
		if clock, err = n.clock(); err != nil {
			return err
		}
	}

	group, groupCtx := errgroup.WithContext(handleExitSignal())
	var servers []*http.Server

	if ctx.GlobalBool(enableMetricsFlag.Name) {
		srv, listener, err := startMetricsServer(ctx.GlobalString(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		servers = append(servers, srv)
		group.Go(func() error { return serve(srv, listener) })
		log.Info("metrics server started", "url", "http://"+listener.Addr().String()+"/metrics")
	}

	reqLogger := &atomic.Bool{}
	reqLogger.Store(ctx.GlobalBool(enableAPILogsFlag.Name))
	opts := api.Options{
		AllowedOrigins:       ctx.GlobalString(apiCorsFlag.Name),
		EnableMetrics:        ctx.GlobalBool(enableMetricsFlag.Name),
		EnableReqLogger:      reqLogger,
		SlowQueriesThreshold: time.Duration(ctx.GlobalUint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.GlobalBool(apiLog5xxErrorsFlag.Name),
	}
	if clock != nil {
		opts.Commit = n.commit
		opts.Head = clock.Head
		log.Warn("pool calls enabled, any client can act as any caller", "head", clock.Head().Number)
	}
	handler, closeSubs := api.New(n.pool, &sync.RWMutex{}, opts)

	srv, listener, err := newServer(ctx.GlobalString(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	servers = append(servers, srv)
	group.Go(func() error { return serve(srv, listener) })
	log.Info("API server started", "url", "http://"+listener.Addr().String()+"/", "calls", opts.Commit != nil)

	group.Go(func() error {
		<-groupCtx.Done()
		closeSubs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shut down server", "err", err)
			}
		}
		return nil
	})
	return group.Wait()
}

func initAction(ctx *cli.Context) error {
	initLogger(ctx)

	path := ctx.GlobalString(configFlag.Name)
	if path == "" {
		return errors.New("--config is required")
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	summary, err := n.pool.Summary()
	if err != nil {
		return err
	}
	if summary.Initialized {
		return errors.New("pool already initialized")
	}
	return n.seed(path)
}

func dumpAction(ctx *cli.Context) error {
	initLogger(ctx)

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	if s := ctx.String(userFlag.Name); s != "" {
		user, err := thor.ParseAddress(s)
		if err != nil {
			return errors.Wrap(err, "user")
		}
		info, err := n.pool.UserInfo(user)
		if err != nil {
			return err
		}
		spew.Fdump(ctx.App.Writer, info)
		return nil
	}

	summary, err := n.pool.Summary()
	if err != nil {
		return err
	}
	spew.Fdump(ctx.App.Writer, summary)
	return nil
}

func keygenAction(ctx *cli.Context) error {
	key, err := cry.GenerateKey()
	if err != nil {
		return err
	}
	writeLine(ctx.App.Writer, "key:     "+cry.EncodePrivateKey(key))
	writeLine(ctx.App.Writer, "address: "+cry.AddressOf(key).String())
	return nil
}

func parseUnitIDs(s string) ([]*uint256.Int, error) {
	var ids []*uint256.Int
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id, err := uint256.FromDecimal(part)
		if err != nil {
			return nil, errors.Wrapf(err, "unit id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("no unit ids")
	}
	return ids, nil
}

func signAction(ctx *cli.Context) error {
	key, err := cry.ParsePrivateKey(ctx.String(keyFlag.Name))
	if err != nil {
		return err
	}
	action := ctx.String(actionFlag.Name)
	if action != authz.ActionDeposit && action != authz.ActionUnjail {
		return errors.Errorf("unknown action %q", action)
	}
	ids, err := parseUnitIDs(ctx.String(unitsFlag.Name))
	if err != nil {
		return err
	}
	subject, err := thor.ParseAddress(ctx.String(subjectFlag.Name))
	if err != nil {
		return errors.Wrap(err, "subject")
	}

	var ctxID thor.Bytes32
	if s := ctx.String(contextFlag.Name); s != "" {
		if ctxID, err = thor.ParseBytes32(s); err != nil {
			return errors.Wrap(err, "context")
		}
	} else {
		initLogger(ctx)
		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		summary, err := n.pool.Summary()
		n.Close()
		if err != nil {
			return err
		}
		if !summary.Initialized {
			return errors.New("pool not initialized, pass --context")
		}
		ctxID = summary.Context
	}

	sig, err := authz.Sign(&authz.Payload{
		Context: ctxID,
		UnitIDs: ids,
		Subject: subject,
		Expiry:  ctx.Uint64(expiryFlag.Name),
		Action:  action,
	}, key)
	if err != nil {
		return err
	}
	writeLine(ctx.App.Writer, hexutil.Encode(sig))
	return nil
}

func callAction(ctx *cli.Context) error {
	initLogger(ctx)

	caller, err := thor.ParseAddress(ctx.String(callerFlag.Name))
	if err != nil {
		return errors.Wrap(err, "caller")
	}
	call := &dispatch.Call{
		Method: ctx.String(methodFlag.Name),
		Caller: caller,
	}
	if args := ctx.String(argsFlag.Name); args != "" {
		call.Args = json.RawMessage(args)
	}

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	clock, err := n.clock()
	if err != nil {
		return err
	}
	head := clock.Head()
	log.Debug("running call", "method", call.Method, "block", head.Number, "time", head.Time)

	res, err := dispatch.Dispatch(n.pool, call, head)
	if err != nil {
		return err
	}
	if err := n.commit(); err != nil {
		return err
	}
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
