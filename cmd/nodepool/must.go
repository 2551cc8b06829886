// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/nodepool/builtin/nodepool"
	"github.com/vechain/nodepool/builtin/nodepool/authz"
	"github.com/vechain/nodepool/builtin/nodepool/custody"
	"github.com/vechain/nodepool/builtin/nodepool/dispatch"
	"github.com/vechain/nodepool/builtin/solidity"
	"github.com/vechain/nodepool/builtin/token"
	"github.com/vechain/nodepool/log"
	"github.com/vechain/nodepool/lvldb"
	"github.com/vechain/nodepool/metrics"
	"github.com/vechain/nodepool/state"
	"github.com/vechain/nodepool/thor"
)

var (
	poolAddress  = thor.BytesToAddress([]byte("nodepool"))
	unitsAddress = thor.BytesToAddress([]byte("nodepool-units"))
	bankAddress  = thor.BytesToAddress([]byte("nodepool-bank"))
	nodeAddress  = thor.BytesToAddress([]byte("nodepool-node"))

	slotLaunchTime = thor.BytesToBytes32([]byte("launch-time"))

	now = time.Now
)

func initLogger(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name))

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(handler)
	nodepool.SetLogger(log.WithContext("pkg", "nodepool"))
}

// node bundles the storage and the contracts the commands operate on.
type node struct {
	db     *lvldb.LevelDB
	state  *state.State
	units  *custody.Store
	bank   *token.Bank
	pool   *nodepool.Pool
	// unix time of block 0, zero until the pool is initialized
	launch *solidity.Uint64
}

func newNode(db *lvldb.LevelDB, cacheMB int) *node {
	st := state.New(db, cacheMB*1024*1024/2)
	n := &node{
		db:    db,
		state: st,
		units: custody.NewStore(solidity.NewContext(unitsAddress, st)),
		bank:  token.New(solidity.NewContext(bankAddress, st)),

		launch: solidity.NewUint64(solidity.NewContext(nodeAddress, st), slotLaunchTime),
	}
	n.pool = nodepool.New(poolAddress, st, n.units, n.bank, authz.NewSignatureVerifier())
	return n
}

func openNode(ctx *cli.Context) (*node, error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}

	cacheMB := max(ctx.GlobalInt(cacheFlag.Name), 16)
	dir := filepath.Join(dataDir, "pool.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: 64,
		SyncWrites:             true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open pool database [%v]", dir)
	}
	log.Debug("pool database opened", "dir", dir, "cache", cacheMB)
	return newNode(db, cacheMB), nil
}

// commit writes pending state to the database.
func (n *node) commit() error {
	written, err := n.state.Commit()
	if err != nil {
		return err
	}
	log.Debug("state committed", "slots", written)
	return nil
}

// clock returns the clock operations are stamped with. The head block
// advances every thor.BlockInterval seconds from the launch time.
func (n *node) clock() (*dispatch.Clock, error) {
	launch, err := n.launch.Get()
	if err != nil {
		return nil, err
	}
	if launch == 0 {
		return nil, errors.New("launch time unknown, initialize the pool with --config")
	}
	return dispatch.NewClock(launch, now), nil
}

func (n *node) Close() {
	n.pool.Close()
	if err := n.db.Close(); err != nil {
		log.Warn("failed to close pool database", "err", err)
	}
}

// seed sets up an uninitialized pool from the config file, if one is given.
func (n *node) seed(configPath string) error {
	summary, err := n.pool.Summary()
	if err != nil {
		return err
	}
	if summary.Initialized {
		if configPath != "" {
			log.Info("pool already initialized, config ignored", "config", configPath)
		}
		return nil
	}
	if configPath == "" {
		log.Warn("pool not initialized, all operations will revert until it is")
		return nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.apply(n); err != nil {
		return errors.WithMessage(err, "apply config")
	}
	if err := n.commit(); err != nil {
		return err
	}
	log.Info("pool initialized", "config", configPath)
	return nil
}

func newServer(addr string, handler http.Handler) (*http.Server, net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen [%v]", addr)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
	}
	return srv, listener, nil
}

func startMetricsServer(addr string) (*http.Server, net.Listener, error) {
	metrics.InitializePrometheusMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	return newServer(addr, mux)
}

// handleExitSignal returns a context cancelled on SIGINT or SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".nodepool")
	}
	return "./nodepool-data"
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func writeLine(w io.Writer, s string) {
	_, _ = io.WriteString(w, s+"\n")
}
