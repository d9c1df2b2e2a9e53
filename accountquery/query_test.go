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
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
	"github.com/erigontech/accountkit/types"
)

var (
	testSpender = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken   = common.HexToAddress("0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb")
)

func decodeQuery(t *testing.T, data []byte) []call3 {
	method := deployments.Multicall.ABI.Methods["aggregate3"]
	require.Equal(t, method.ID, data[:4])

	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	var calls []call3
	require.NoError(t, method.Inputs.Copy(&calls, values))
	return calls
}

func TestPopulateAccountQuery(t *testing.T) {
	tx, err := PopulateAccountQuery(testAccount, QueryParams{Spender: testSpender, Token: testToken})
	require.NoError(t, err)
	require.Equal(t, deployments.Multicall.Address, tx.To)

	delay, err := predict.PredictDelayAddress(testAccount)
	require.NoError(t, err)

	calls := decodeQuery(t, tx.Data)
	require.Len(t, calls, batchSize)
	for i, c := range calls {
		require.True(t, c.AllowFailure, "call %d", i)
	}

	require.Equal(t, testAccount, calls[modulesIdx].Target)
	modules, err := deployments.SafeMastercopy.ABI.Pack("getModulesPaginated", deployments.AddressOne, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, modules, calls[modulesIdx].CallData)

	require.Equal(t, deployments.AllowanceSingleton.Address, calls[allowanceIdx].Target)
	allowance, err := deployments.AllowanceSingleton.ABI.Pack("getTokenAllowance", testAccount, testSpender, testToken)
	require.NoError(t, err)
	require.Equal(t, allowance, calls[allowanceIdx].CallData)

	for idx, method := range []string{"txCooldown", "txNonce", "queueNonce"} {
		c := calls[txCooldownIdx+idx]
		require.Equal(t, delay, c.Target, method)
		require.Equal(t, deployments.DelayMastercopy.ABI.Methods[method].ID, c.CallData, method)
	}
}

func TestPopulateAccountQueryIsDeterministic(t *testing.T) {
	first, err := PopulateAccountQuery(testAccount, QueryParams{Spender: testSpender, Token: testToken})
	require.NoError(t, err)
	second, err := PopulateAccountQuery(testAccount, QueryParams{Spender: testSpender, Token: testToken})
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := PopulateAccountQuery(testAccount, QueryParams{Spender: testToken, Token: testSpender})
	require.NoError(t, err)
	require.NotEqual(t, first.Data, other.Data)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	caller := types.NewMockCaller(ctrl)

	expected, err := PopulateAccountQuery(testAccount, QueryParams{Spender: testSpender, Token: testToken})
	require.NoError(t, err)

	caller.EXPECT().
		Call(gomock.Any(), expected).
		Return(healthyFixture(t).encode(t), nil)

	v, err := Verify(ctx, caller, testAccount, Params{Spender: testSpender, Token: testToken, Cooldown: 120})
	require.NoError(t, err)
	require.Equal(t, Ok, v.Status)
	require.Equal(t, uint64(123), v.Detail.Unspent.Uint64())
}

func TestVerifyPropagatesCallerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := types.NewMockCaller(ctrl)

	boom := errors.New("connection refused")
	caller.EXPECT().
		Call(gomock.Any(), gomock.Any()).
		Return(nil, boom)

	v, err := Verify(context.Background(), caller, testAccount, Params{Spender: testSpender, Token: testToken, Cooldown: 120})
	require.ErrorIs(t, err, boom)
	require.Equal(t, UnexpectedError, v.Status)
}

func TestVerifyGarbageIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	caller := types.NewMockCaller(ctrl)

	caller.EXPECT().
		Call(gomock.Any(), gomock.Any()).
		Return([]byte("0xnope"), nil)

	var rejected int
	logger := log.New()
	logger.SetHandler(log.FuncHandler(func(r *log.Record) error {
		rejected++
		return nil
	}))

	v, err := Verify(context.Background(), caller, testAccount, Params{Cooldown: 120, Logger: logger})
	require.NoError(t, err)
	require.Equal(t, UnexpectedError, v.Status)
	require.Equal(t, 1, rejected)
}
