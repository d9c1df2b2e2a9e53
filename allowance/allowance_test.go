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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/accountkit/delaytx"
	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
)

var testAccount = common.HexToAddress("0x7F2A8D2D06aAAd1A6a5f3C3f1b1cB1C2aA5a7b11")

func decodeSetAllowance(t *testing.T, data []byte) []interface{} {
	m := deployments.RolesMastercopy.ABI.Methods["setAllowance"]
	require.Equal(t, m.ID, data[:4])
	args, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return args
}

func TestAllowanceKeys(t *testing.T) {
	require.Equal(t, common.HexToHash("0x3a289c61653ad39bcc02fc718bcd8cf414a97d9269457b6e48ff906f0af04804"), AllowanceKey)
	require.Equal(t, common.HexToHash("0x349476e3982666749979c85ce800cd2947a4b8dc9fe20a01a00a1b526072a8a3"), SpendingRoleKey)
}

func TestPopulateSetAllowance(t *testing.T) {
	tx, err := PopulateSetAllowance(testAccount, Config{
		Balance:   uint256.NewInt(50),
		Refill:    uint256.NewInt(1000),
		Period:    86400,
		Timestamp: 1700000000,
	})
	require.NoError(t, err)

	roles, err := predict.PredictRolesAddress(testAccount)
	require.NoError(t, err)
	require.Equal(t, roles, tx.To)

	args := decodeSetAllowance(t, tx.Data)
	require.Equal(t, [32]byte(AllowanceKey), args[0])
	require.Equal(t, big.NewInt(50), args[1])
	require.Equal(t, big.NewInt(1000), args[2])
	require.Equal(t, big.NewInt(1000), args[3])
	require.Equal(t, uint64(86400), args[4])
	require.Equal(t, uint64(1700000000), args[5])
}

func TestPopulateSetAllowanceDefaults(t *testing.T) {
	tx, err := PopulateSetAllowance(testAccount, Config{Refill: uint256.NewInt(7), Period: 60})
	require.NoError(t, err)

	args := decodeSetAllowance(t, tx.Data)
	require.Zero(t, args[1].(*big.Int).Sign())
	require.Equal(t, uint64(0), args[5])
}

func TestPopulateSetAllowanceRejects(t *testing.T) {
	_, err := PopulateSetAllowance(testAccount, Config{Period: 60})
	require.ErrorIs(t, err, ErrMissingRefill)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	_, err = PopulateSetAllowance(testAccount, Config{Refill: huge, Period: 60})
	require.ErrorIs(t, err, ErrValueTooLarge)

	_, err = PopulateSetAllowance(testAccount, Config{Balance: huge, Refill: uint256.NewInt(1), Period: 60})
	require.ErrorIs(t, err, ErrValueTooLarge)

	maxUint128 := new(uint256.Int).Sub(huge, uint256.NewInt(1))
	_, err = PopulateSetAllowance(testAccount, Config{Refill: maxUint128, Period: 60})
	require.NoError(t, err)
}

func TestPopulateLimitDispatch(t *testing.T) {
	cfg := Config{Refill: uint256.NewInt(1000), Period: 86400}
	dispatch, err := PopulateLimitDispatch(testAccount, cfg)
	require.NoError(t, err)

	setAllowance, err := PopulateSetAllowance(testAccount, cfg)
	require.NoError(t, err)
	expected, err := delaytx.PopulateExecDispatch(testAccount, setAllowance)
	require.NoError(t, err)
	require.Equal(t, expected, dispatch)
}

func TestPopulateLimitEnqueue(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	var signed apitypes.TypedData
	sign := func(_ context.Context, typedData apitypes.TypedData) (string, error) {
		signed = typedData
		hash, _, err := apitypes.TypedDataAndHash(typedData)
		if err != nil {
			return "", err
		}
		sig, err := crypto.Sign(hash, key)
		return hexutil.Encode(sig), err
	}

	params := delaytx.EnqueueParams{Account: testAccount, Owner: owner, ChainID: 100, Nonce: 1}
	tx, err := PopulateLimitEnqueue(context.Background(), params, Config{Refill: uint256.NewInt(1000), Period: 86400}, sign)
	require.NoError(t, err)
	require.Equal(t, testAccount, tx.To)
	require.Equal(t, "SafeTx", signed.PrimaryType)
	require.Equal(t, testAccount.Hex(), signed.Domain.VerifyingContract)
	require.Equal(t, "1", signed.Message["nonce"])
}
