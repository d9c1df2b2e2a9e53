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

package rpccaller

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/accountkit/types"
)

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Config struct {
	Retries      uint64
	Timeout      time.Duration
	RetryBackOff time.Duration
}

var DefaultConfig = Config{
	Retries:      3,
	Timeout:      10 * time.Second,
	RetryBackOff: 500 * time.Millisecond,
}

// Caller runs eth_call against the latest block. Transport failures are
// retried with exponential backoff; JSON-RPC errors (reverts included) are not.
type Caller struct {
	client contractCaller
	close  func()
	config Config
	logger log.Logger
}

var _ types.Caller = (*Caller)(nil)

func Dial(ctx context.Context, url string, config Config, logger log.Logger) (*Caller, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := New(client, config, logger)
	c.close = client.Close
	return c, nil
}

func New(client contractCaller, config Config, logger log.Logger) *Caller {
	return &Caller{
		client: client,
		close:  func() {},
		config: config,
		logger: logger,
	}
}

func (c *Caller) Call(ctx context.Context, tx types.TransactionData) ([]byte, error) {
	to := tx.To
	msg := ethereum.CallMsg{To: &to, Data: tx.Data}

	var attempt int
	call := func() ([]byte, error) {
		attempt++

		callCtx := ctx
		if c.config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()
		}

		data, err := c.client.CallContract(callCtx, msg, nil)
		if err == nil {
			return data, nil
		}

		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}

		c.logger.Debug("[rpccaller] eth_call failed", "to", to, "attempt", attempt, "err", err)
		return nil, err
	}

	data, err := backoff.RetryWithData(call, backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.config.Retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("eth_call to %s: %w", to, err)
	}

	return data, nil
}

func (c *Caller) Close() {
	c.close()
}

func (c *Caller) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.config.RetryBackOff > 0 {
		b.InitialInterval = c.config.RetryBackOff
	}
	b.MaxElapsedTime = 0
	return b
}
