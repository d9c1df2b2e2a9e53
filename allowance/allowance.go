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

package allowance

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/erigontech/accountkit/delaytx"
	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
	"github.com/erigontech/accountkit/types"
)

var (
	// SpendingRoleKey is the role allowed to spend the allowance.
	SpendingRoleKey = crypto.Keccak256Hash([]byte("SPENDING_ROLE"))
	// AllowanceKey is the allowance consumed by the spending role.
	AllowanceKey = crypto.Keccak256Hash([]byte("ALLOWANCE"))
)

var (
	ErrMissingRefill = errors.New("allowance refill is required")
	ErrValueTooLarge = errors.New("allowance value exceeds uint128")
)

// Config is the spending policy. Balance and Timestamp default to zero.
type Config struct {
	Balance   *uint256.Int
	Refill    *uint256.Int
	Period    uint64
	Timestamp uint64
}

// PopulateSetAllowance encodes Roles.setAllowance for the account's Roles
// module. The refill is also used as the max refill.
func PopulateSetAllowance(account common.Address, cfg Config) (types.TransactionData, error) {
	roles, err := predict.PredictRolesAddress(account)
	if err != nil {
		return types.TransactionData{}, err
	}
	if cfg.Refill == nil {
		return types.TransactionData{}, ErrMissingRefill
	}

	balance, err := toUint128("balance", cfg.Balance)
	if err != nil {
		return types.TransactionData{}, err
	}
	refill, err := toUint128("refill", cfg.Refill)
	if err != nil {
		return types.TransactionData{}, err
	}

	data, err := deployments.RolesMastercopy.ABI.Pack("setAllowance",
		[32]byte(AllowanceKey),
		balance,
		refill, // maxRefill
		refill,
		cfg.Period,
		cfg.Timestamp,
	)
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("setAllowance: %w", err)
	}
	return types.TransactionData{To: roles, Data: data}, nil
}

// PopulateLimitEnqueue queues a setAllowance behind the Delay cooldown.
func PopulateLimitEnqueue(ctx context.Context, params delaytx.EnqueueParams, cfg Config, sign types.Signer) (types.TransactionData, error) {
	tx, err := PopulateSetAllowance(params.Account, cfg)
	if err != nil {
		return types.TransactionData{}, err
	}
	return delaytx.PopulateExecEnqueue(ctx, params, tx, sign)
}

// PopulateLimitDispatch executes a previously enqueued setAllowance with the same cfg.
func PopulateLimitDispatch(account common.Address, cfg Config) (types.TransactionData, error) {
	tx, err := PopulateSetAllowance(account, cfg)
	if err != nil {
		return types.TransactionData{}, err
	}
	return delaytx.PopulateExecDispatch(account, tx)
}

func toUint128(name string, v *uint256.Int) (*big.Int, error) {
	if v == nil {
		return new(big.Int), nil
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %s=%s", ErrValueTooLarge, name, v.Dec())
	}
	return v.ToBig(), nil
}
