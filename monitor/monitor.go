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

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/erigontech/accountkit/accountquery"
	"github.com/erigontech/accountkit/types"
)

type Config struct {
	Accounts    []common.Address
	Params      accountquery.Params
	Interval    time.Duration
	Concurrency int
}

// HealthMonitor periodically verifies a fixed set of accounts.
type HealthMonitor struct {
	caller  types.Caller
	config  Config
	metrics *metrics
	logger  log.Logger
}

func NewHealthMonitor(caller types.Caller, config Config, registerer prometheus.Registerer, logger log.Logger) (*HealthMonitor, error) {
	if config.Interval <= 0 {
		return nil, errors.New("monitor interval must be positive")
	}
	if config.Params.Logger == nil {
		config.Params.Logger = logger
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}

	return &HealthMonitor{
		caller:  caller,
		config:  config,
		metrics: m,
		logger:  logger,
	}, nil
}

// Run checks all accounts immediately and then once per interval until ctx is done.
func (hm *HealthMonitor) Run(ctx context.Context) error {
	hm.logger.Info("[monitor] starting", "accounts", len(hm.config.Accounts), "interval", hm.config.Interval)

	checkEvery := time.NewTicker(hm.config.Interval)
	defer checkEvery.Stop()

	for {
		if _, err := hm.Check(ctx); err != nil {
			hm.logger.Warn("[monitor] check round had failures", "err", err)
		}

		select {
		case <-checkEvery.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Check runs one round over every account. The verdict map is always complete;
// accounts whose call failed map to UnexpectedError and their errors are joined.
func (hm *HealthMonitor) Check(ctx context.Context) (map[common.Address]accountquery.Verdict, error) {
	defer hm.metrics.observeRound(time.Now())

	var (
		mu       sync.Mutex
		verdicts = make(map[common.Address]accountquery.Verdict, len(hm.config.Accounts))
		errs     []error
	)

	var g errgroup.Group
	g.SetLimit(hm.config.Concurrency)

	for _, account := range hm.config.Accounts {
		account := account
		g.Go(func() error {
			v, err := accountquery.Verify(ctx, hm.caller, account, hm.config.Params)
			hm.report(account, v, err)

			mu.Lock()
			defer mu.Unlock()
			verdicts[account] = v
			if err != nil {
				errs = append(errs, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return verdicts, errors.Join(errs...)
}

func (hm *HealthMonitor) report(account common.Address, v accountquery.Verdict, err error) {
	hm.metrics.observe(account, v)

	switch {
	case err != nil:
		hm.logger.Warn("[monitor] account check failed", "account", account, "err", err)
	case v.Status != accountquery.Ok:
		hm.logger.Warn("[monitor] account unhealthy", "account", account, "status", v.Status)
	default:
		hm.logger.Debug("[monitor] account healthy", "account", account,
			"unspent", v.Detail.Unspent, "nonce", v.Detail.Nonce)
	}
}
