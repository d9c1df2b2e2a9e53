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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/accountkit/kitcfg"
)

var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a .toml or .yaml config file",
	}
	ChainFlag = cli.StringFlag{
		Name:  "chain",
		Usage: "chain name: gnosis, chiado, mainnet (ignored when --config is set)",
		Value: kitcfg.Gnosis,
	}
	RpcUrlFlag = cli.StringFlag{
		Name:  "rpc-url",
		Usage: "execution layer JSON-RPC url, overrides the config",
	}
	VerbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: trace, debug, info, warn, error, crit",
		Value: "info",
	}
	AccountFlag = cli.StringSliceFlag{
		Name:  "account",
		Usage: "account (Safe) address, repeatable; overrides the configured accounts",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "accountkit"
	app.Usage = "predict, verify and configure Safe spending accounts"
	app.UsageText = app.Name + ` [global flags] [command] [flags]`

	app.Flags = []cli.Flag{
		&ConfigFlag,
		&ChainFlag,
		&RpcUrlFlag,
		&VerbosityFlag,
	}

	registerPredictCmd(app)
	registerQueryCmd(app)
	registerCheckCmd(app)
	registerMonitorCmd(app)
	registerSetAllowanceCmd(app)
	return app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(cliCtx *cli.Context) (log.Logger, error) {
	lvl, err := log.LvlFromString(cliCtx.String(VerbosityFlag.Name))
	if err != nil {
		return nil, err
	}

	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))
	return logger, nil
}

func loadConfig(cliCtx *cli.Context) (kitcfg.Config, error) {
	var (
		config kitcfg.Config
		err    error
	)
	if path := cliCtx.String(ConfigFlag.Name); path != "" {
		config, err = kitcfg.LoadFile(path)
	} else {
		config, err = kitcfg.ConfigByChainName(cliCtx.String(ChainFlag.Name))
	}
	if err != nil {
		return kitcfg.Config{}, err
	}

	if rpcUrl := cliCtx.String(RpcUrlFlag.Name); rpcUrl != "" {
		config.RpcUrl = rpcUrl
	}
	if accounts := cliCtx.StringSlice(AccountFlag.Name); len(accounts) > 0 {
		config.Accounts = accounts
	}
	return config, config.Validate()
}
