// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/meridian-network/meridian/api"
	"github.com/meridian-network/meridian/builtin"
	"github.com/meridian-network/meridian/builtin/staker"
	"github.com/meridian-network/meridian/kv"
	"github.com/meridian-network/meridian/log"
	"github.com/meridian-network/meridian/metrics"
	"github.com/meridian-network/meridian/state"
)

var (
	version   string
	gitCommit string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Meridian",
		Usage:   "validator-set and epoch-reward engine",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "advance-epoch",
				Usage: "perform one epoch advancement with the settled reward figures",
				Flags: []cli.Flag{
					dataDirFlag,
					genesisFlag,
					verbosityFlag,
					subsidyFlag,
					computationChargeFlag,
					computationBurnedFlag,
				},
				Action: advanceEpochAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()
	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	store, stk, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing state database..."); store.Close() }()

	handler := api.New(stk, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		MetricsOn:      ctx.Bool(enableMetricsFlag.Name),
	})
	srv, url, err := startAPIServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("stopping API server...")
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(c) //nolint:errcheck
	}()

	epoch, err := stk.CurrentEpoch()
	if err != nil {
		return err
	}
	logger.Info("meridian started", "version", fullVersion(), "epoch", epoch, "api", url)

	<-handleExitSignal()
	return nil
}

func advanceEpochAction(ctx *cli.Context) error {
	initLogger(ctx)

	store, stk, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	input := &staker.RewardInput{}
	if input.ValidatorSubsidy, err = parseAmount(ctx.String(subsidyFlag.Name)); err != nil {
		return errors.WithMessage(err, "subsidy")
	}
	if input.ComputationCharge, err = parseAmount(ctx.String(computationChargeFlag.Name)); err != nil {
		return errors.WithMessage(err, "computation-charge")
	}
	if input.ComputationChargeBurned, err = parseAmount(ctx.String(computationBurnedFlag.Name)); err != nil {
		return errors.WithMessage(err, "computation-burned")
	}

	result, err := stk.AdvanceEpoch(input)
	if err != nil {
		return err
	}
	if err := stk.State().Commit(); err != nil {
		return err
	}
	fmt.Printf("epoch %d: committee %d, distributed %v, slashed %v, supply delta %v\n",
		result.Epoch, len(result.Committee), result.TotalDistributed, result.TotalSlashed, result.SupplyDelta)
	return nil
}

// openEngine opens the backing store and binds the engine, applying the
// genesis config on a fresh database.
func openEngine(ctx *cli.Context) (kv.Store, *staker.Staker, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, errors.WithMessage(err, "create data dir")
	}
	store, err := kv.OpenLevelDB(filepath.Join(dataDir, "state.db"), 128)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "open state database")
	}

	st := state.New(store)
	stk := builtin.Staker(st)
	if err := applyGenesis(ctx.String(genesisFlag.Name), store, st, stk); err != nil {
		store.Close() //nolint:errcheck
		return nil, nil, err
	}
	return store, stk, nil
}

func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func initLogger(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetVerbosity(level)
}

func startAPIServer(addr string, handler http.Handler) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.WithMessagef(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server stopped", "err", err)
		}
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}

func handleExitSignal() <-chan os.Signal {
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	return exit
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".meridian"
	}
	return filepath.Join(home, ".meridian")
}
