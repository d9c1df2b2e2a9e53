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

package types

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TransactionData is a call the kit populates but never sends.
type TransactionData struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Caller executes a read-only call (eth_call) and returns the raw return data.
// Retries and timeouts are the implementation's business.
//
//go:generate mockgen -destination=./caller_mock.go -package=types . Caller
type Caller interface {
	Call(ctx context.Context, tx TransactionData) ([]byte, error)
}

// Signer produces a hex encoded 65 byte signature over an EIP-712 payload.
type Signer func(ctx context.Context, typedData apitypes.TypedData) (string, error)
