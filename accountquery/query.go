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

// Package accountquery checks, in one multicall, that an account still has the
// module wiring, allowance and delay queue it was set up with.
package accountquery

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
	"github.com/erigontech/accountkit/types"
)

// Positions inside the aggregate3 batch. Decoding is positional.
const (
	modulesIdx = iota
	allowanceIdx
	txCooldownIdx
	txNonceIdx
	queueNonceIdx
	batchSize
)

// delayGetters are the argumentless Delay reads, in batch order.
var delayGetters = []struct {
	idx    int
	method string
}{
	{txCooldownIdx, "txCooldown"},
	{txNonceIdx, "txNonce"},
	{queueNonceIdx, "queueNonce"},
}

// modulesPageSize is larger than the expected module count so extra modules are visible.
const modulesPageSize = 10

type QueryParams struct {
	Spender common.Address
	Token   common.Address
}

// call3 is Multicall3.Call3.
type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// PopulateAccountQuery builds the aggregate3 call whose return data is fed to
// EvaluateAccountQuery. Every sub-call may fail on its own.
func PopulateAccountQuery(account common.Address, params QueryParams) (types.TransactionData, error) {
	delay, err := predict.PredictDelayAddress(account)
	if err != nil {
		return types.TransactionData{}, err
	}

	safeABI := deployments.SafeMastercopy.ABI
	delayABI := deployments.DelayMastercopy.ABI

	modules, err := safeABI.Pack("getModulesPaginated", deployments.AddressOne, big.NewInt(modulesPageSize))
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("getModulesPaginated: %w", err)
	}
	allowance, err := deployments.AllowanceSingleton.ABI.Pack("getTokenAllowance", account, params.Spender, params.Token)
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("getTokenAllowance: %w", err)
	}

	calls := make([]call3, batchSize)
	calls[modulesIdx] = call3{Target: account, AllowFailure: true, CallData: modules}
	calls[allowanceIdx] = call3{Target: deployments.AllowanceSingleton.Address, AllowFailure: true, CallData: allowance}
	for _, getter := range delayGetters {
		callData, err := delayABI.Pack(getter.method)
		if err != nil {
			return types.TransactionData{}, fmt.Errorf("%s: %w", getter.method, err)
		}
		calls[getter.idx] = call3{Target: delay, AllowFailure: true, CallData: callData}
	}

	data, err := deployments.Multicall.ABI.Pack("aggregate3", calls)
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("aggregate3: %w", err)
	}
	return types.TransactionData{To: deployments.Multicall.Address, Data: data}, nil
}
