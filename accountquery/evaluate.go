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

package accountquery

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"runtime/debug"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
)

var (
	errBatchArity  = errors.New("unexpected aggregate3 result count")
	errABIMismatch = errors.New("abi mismatch")
)

type EvaluateParams struct {
	// Cooldown is the minimum txCooldown, in seconds, the Delay module must enforce.
	Cooldown uint64
	// Logger receives rejected and panicking evaluations. Defaults to the root logger.
	Logger log.Logger
}

func (p EvaluateParams) logger() log.Logger {
	if p.Logger == nil {
		return log.Root()
	}
	return p.Logger
}

// callResult is Multicall3.Result. ReturnData is revert data when Success is false.
type callResult struct {
	Success    bool
	ReturnData []byte
}

type allowanceState struct {
	Amount       *big.Int
	Spent        *big.Int
	ResetTimeMin *big.Int
	LastResetMin *big.Int
	Nonce        *big.Int
}

// active means an allowance was ever set for the spender.
func (a allowanceState) active() bool {
	return a.Amount.Sign() > 0 && a.Nonce.Sign() > 0
}

// EvaluateAccountQuery interprets the aggregate3 return data produced by the
// request from PopulateAccountQuery. Checks run in a fixed order and the first
// failing one decides the status. It never panics: anything that cannot be
// decoded is reported as UnexpectedError.
func EvaluateAccountQuery(account common.Address, params EvaluateParams, result []byte) (v Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			params.logger().Error("[accountkit] account query evaluation panicked", "account", account, "err", rec, "stack", string(debug.Stack()))
			v = verdict(UnexpectedError)
		}
	}()

	res, err := evaluate(account, params, result)
	if err != nil {
		params.logger().Debug("[accountkit] account query result rejected", "account", account, "err", err)
		return verdict(UnexpectedError)
	}
	return res
}

func evaluate(account common.Address, params EvaluateParams, result []byte) (Verdict, error) {
	batch, err := decodeAggregate3(result)
	if err != nil {
		return Verdict{}, err
	}
	if len(batch) != batchSize {
		return Verdict{}, fmt.Errorf("%w: got %d, want %d", errBatchArity, len(batch), batchSize)
	}

	modules := batch[modulesIdx]
	if !modules.Success {
		return verdict(SafeNotDeployed), nil
	}
	wired, err := modulesWired(account, modules.ReturnData)
	if err != nil {
		return Verdict{}, err
	}
	if !wired {
		return verdict(SafeMisconfigured), nil
	}

	if !batch[allowanceIdx].Success {
		return verdict(AllowanceMisconfigured), nil
	}
	allowance, err := decodeTokenAllowance(batch[allowanceIdx].ReturnData)
	if err != nil {
		return Verdict{}, err
	}
	if !allowance.active() {
		return verdict(AllowanceMisconfigured), nil
	}

	cooldown, txNonce, queueNonce := batch[txCooldownIdx], batch[txNonceIdx], batch[queueNonceIdx]
	if !cooldown.Success || !txNonce.Success || !queueNonce.Success {
		return verdict(DelayNotDeployed), nil
	}

	txCooldown, err := decodeUint256("txCooldown", cooldown.ReturnData)
	if err != nil {
		return Verdict{}, err
	}
	if txCooldown.Cmp(new(big.Int).SetUint64(params.Cooldown)) < 0 {
		return verdict(DelayMisconfigured), nil
	}

	// Both nonces are a single uint256 word; comparing the raw words is enough.
	if !bytes.Equal(txNonce.ReturnData, queueNonce.ReturnData) {
		return verdict(DelayQueueNotEmpty), nil
	}

	detail, err := allowance.detail()
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Status: Ok, Detail: detail}, nil
}

// modulesWired requires the enabled modules to be exactly the account's Delay
// module and the allowance singleton, in any order.
func modulesWired(account common.Address, data []byte) (bool, error) {
	enabled, _, err := decodeModulesPaginated(data)
	if err != nil {
		return false, err
	}
	if len(enabled) != 2 {
		return false, nil
	}

	delay, err := predict.PredictDelayAddress(account)
	if err != nil {
		return false, err
	}
	return slices.Contains(enabled, delay) && slices.Contains(enabled, deployments.AllowanceSingleton.Address), nil
}

func (a allowanceState) detail() (*AllowanceDetail, error) {
	n, overflow := uint256.FromBig(a.Nonce)
	if overflow {
		return nil, fmt.Errorf("%w: allowance nonce overflows uint256", errABIMismatch)
	}
	return &AllowanceDetail{Unspent: new(big.Int).Sub(a.Amount, a.Spent), Nonce: n}, nil
}

func decodeAggregate3(data []byte) ([]callResult, error) {
	var results []callResult
	if err := deployments.Multicall.ABI.UnpackIntoInterface(&results, "aggregate3", data); err != nil {
		return nil, fmt.Errorf("aggregate3: %w", err)
	}
	return results, nil
}

func decodeModulesPaginated(data []byte) ([]common.Address, common.Address, error) {
	out, err := deployments.SafeMastercopy.ABI.Unpack("getModulesPaginated", data)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("getModulesPaginated: %w", err)
	}
	modules, ok := out[0].([]common.Address)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("%w: getModulesPaginated array is %T", errABIMismatch, out[0])
	}
	next, ok := out[1].(common.Address)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("%w: getModulesPaginated next is %T", errABIMismatch, out[1])
	}
	return modules, next, nil
}

func decodeTokenAllowance(data []byte) (allowanceState, error) {
	out, err := deployments.AllowanceSingleton.ABI.Unpack("getTokenAllowance", data)
	if err != nil {
		return allowanceState{}, fmt.Errorf("getTokenAllowance: %w", err)
	}
	words, ok := out[0].([5]*big.Int)
	if !ok {
		return allowanceState{}, fmt.Errorf("%w: getTokenAllowance is %T", errABIMismatch, out[0])
	}
	return allowanceState{
		Amount:       words[0],
		Spent:        words[1],
		ResetTimeMin: words[2],
		LastResetMin: words[3],
		Nonce:        words[4],
	}, nil
}

// decodeUint256 decodes the single uint256 return value of a Delay getter.
func decodeUint256(method string, data []byte) (*big.Int, error) {
	out, err := deployments.DelayMastercopy.ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", errABIMismatch, method, out[0])
	}
	return n, nil
}
