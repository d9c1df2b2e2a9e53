// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/erigontech/accountkit/accountquery"
	"github.com/erigontech/accountkit/allowance"
	"github.com/erigontech/accountkit/kitcfg"
	"github.com/erigontech/accountkit/monitor"
	"github.com/erigontech/accountkit/predict"
	"github.com/erigontech/accountkit/rpccaller"
	"github.com/erigontech/accountkit/types"
)

var errNoAccounts = errors.New("no accounts: pass --account or list them in the config")

func registerPredictCmd(app *cli.App) {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "predict",
		Usage: "print the Delay and Roles module addresses of an account",
		Flags: []cli.Flag{&AccountFlag},
		Action: func(cliCtx *cli.Context) error {
			config, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}
			return predictModules(cliCtx.App.Writer, config.AccountAddresses())
		},
	})
}

func registerQueryCmd(app *cli.App) {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "query",
		Usage: "print the batched integrity query of an account without sending it",
		Flags: []cli.Flag{&AccountFlag},
		Action: func(cliCtx *cli.Context) error {
			config, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}
			return printQueries(cliCtx.App.Writer, config)
		},
	})
}

func registerCheckCmd(app *cli.App) {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "check",
		Usage: "verify accounts once over JSON-RPC",
		Flags: []cli.Flag{&AccountFlag},
		Action: func(cliCtx *cli.Context) error {
			logger, err := setupLogger(cliCtx)
			if err != nil {
				return err
			}
			config, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}
			return check(cliCtx.Context, cliCtx.App.Writer, config, logger)
		},
	})
}

func registerMonitorCmd(app *cli.App) {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "monitor",
		Usage: "verify accounts continuously and serve prometheus metrics",
		Flags: []cli.Flag{
			&AccountFlag,
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "listen address of the /metrics endpoint, overrides the config",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			logger, err := setupLogger(cliCtx)
			if err != nil {
				return err
			}
			config, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}
			if addr := cliCtx.String("metrics-addr"); addr != "" {
				config.MetricsAddr = addr
			}
			return runMonitor(cliCtx.Context, config, logger)
		},
	})
}

func registerSetAllowanceCmd(app *cli.App) {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "set-allowance",
		Usage: "print the Roles setAllowance call of an account and its Delay dispatch",
		Flags: []cli.Flag{
			&AccountFlag,
			&cli.StringFlag{
				Name:     "refill",
				Usage:    "amount restored every period, in token base units",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "period",
				Usage:    "refill period in seconds",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "balance",
				Usage: "initial balance, in token base units",
				Value: "0",
			},
			&cli.Uint64Flag{
				Name:  "timestamp",
				Usage: "unix time the current period started at",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			config, err := loadConfig(cliCtx)
			if err != nil {
				return err
			}
			refill, err := uint256.FromDecimal(cliCtx.String("refill"))
			if err != nil {
				return fmt.Errorf("refill: %w", err)
			}
			balance, err := uint256.FromDecimal(cliCtx.String("balance"))
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			return printSetAllowance(cliCtx.App.Writer, config.AccountAddresses(), allowance.Config{
				Balance:   balance,
				Refill:    refill,
				Period:    cliCtx.Uint64("period"),
				Timestamp: cliCtx.Uint64("timestamp"),
			})
		},
	})
}

type predictedModules struct {
	Account common.Address `json:"account"`
	Delay   common.Address `json:"delay"`
	Roles   common.Address `json:"roles"`
}

func predictModules(w io.Writer, accounts []common.Address) error {
	if len(accounts) == 0 {
		return errNoAccounts
	}

	out := make([]predictedModules, 0, len(accounts))
	for _, account := range accounts {
		delay, err := predict.PredictDelayAddress(account)
		if err != nil {
			return err
		}
		roles, err := predict.PredictRolesAddress(account)
		if err != nil {
			return err
		}
		out = append(out, predictedModules{Account: account, Delay: delay, Roles: roles})
	}
	return writeJSON(w, out)
}

func printQueries(w io.Writer, config kitcfg.Config) error {
	accounts := config.AccountAddresses()
	if len(accounts) == 0 {
		return errNoAccounts
	}

	params := config.QueryParams()
	out := make([]types.TransactionData, 0, len(accounts))
	for _, account := range accounts {
		req, err := accountquery.PopulateAccountQuery(account, accountquery.QueryParams{Spender: params.Spender, Token: params.Token})
		if err != nil {
			return err
		}
		out = append(out, req)
	}
	return writeJSON(w, out)
}

type checkResult struct {
	Account common.Address `json:"account"`
	Status  string         `json:"status"`
	Unspent string         `json:"unspent,omitempty"`
	Nonce   string         `json:"nonce,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func dialCaller(ctx context.Context, config kitcfg.Config, logger log.Logger) (*rpccaller.Caller, error) {
	if config.RpcUrl == "" {
		return nil, errors.New("no rpc url: pass --rpc-url or set rpc_url in the config")
	}
	return rpccaller.Dial(ctx, config.RpcUrl, rpccaller.Config{
		Retries:      config.CallRetries,
		Timeout:      config.CallTimeout(),
		RetryBackOff: rpccaller.DefaultConfig.RetryBackOff,
	}, logger)
}

func check(ctx context.Context, w io.Writer, config kitcfg.Config, logger log.Logger) error {
	accounts := config.AccountAddresses()
	if len(accounts) == 0 {
		return errNoAccounts
	}

	caller, err := dialCaller(ctx, config, logger)
	if err != nil {
		return err
	}
	defer caller.Close()

	params := config.QueryParams()
	params.Logger = logger

	out := make([]checkResult, 0, len(accounts))
	for _, account := range accounts {
		v, err := accountquery.Verify(ctx, caller, account, params)
		res := checkResult{Account: account, Status: v.Status.String()}
		if err != nil {
			res.Error = err.Error()
		}
		if v.Detail != nil {
			res.Unspent = v.Detail.Unspent.String()
			res.Nonce = v.Detail.Nonce.Dec()
		}
		out = append(out, res)
	}
	return writeJSON(w, out)
}

func runMonitor(ctx context.Context, config kitcfg.Config, logger log.Logger) error {
	accounts := config.AccountAddresses()
	if len(accounts) == 0 {
		return errNoAccounts
	}

	caller, err := dialCaller(ctx, config, logger)
	if err != nil {
		return err
	}
	defer caller.Close()

	registry := prometheus.NewRegistry()
	hm, err := monitor.NewHealthMonitor(caller, monitor.Config{
		Accounts:    accounts,
		Params:      config.QueryParams(),
		Interval:    config.MonitorInterval(),
		Concurrency: config.MonitorConcurrency,
	}, registry, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("[metrics] serving", "addr", config.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		return hm.Run(ctx)
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type setAllowanceCalls struct {
	Account      common.Address        `json:"account"`
	SetAllowance types.TransactionData `json:"setAllowance"`
	Dispatch     types.TransactionData `json:"dispatch"`
}

func printSetAllowance(w io.Writer, accounts []common.Address, cfg allowance.Config) error {
	if len(accounts) == 0 {
		return errNoAccounts
	}

	out := make([]setAllowanceCalls, 0, len(accounts))
	for _, account := range accounts {
		tx, err := allowance.PopulateSetAllowance(account, cfg)
		if err != nil {
			return err
		}
		dispatch, err := allowance.PopulateLimitDispatch(account, cfg)
		if err != nil {
			return err
		}
		out = append(out, setAllowanceCalls{Account: account, SetAllowance: tx, Dispatch: dispatch})
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
