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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/accountkit/types"
)

type Params struct {
	Spender  common.Address
	Token    common.Address
	Cooldown uint64
	Logger   log.Logger
}

// Verify builds the account query, runs it through caller and evaluates the
// result. The returned error is only ever the caller's.
func Verify(ctx context.Context, caller types.Caller, account common.Address, params Params) (Verdict, error) {
	req, err := PopulateAccountQuery(account, QueryParams{Spender: params.Spender, Token: params.Token})
	if err != nil {
		return verdict(UnexpectedError), err
	}

	result, err := caller.Call(ctx, req)
	if err != nil {
		return verdict(UnexpectedError), fmt.Errorf("account query for %s: %w", account, err)
	}

	return EvaluateAccountQuery(account, EvaluateParams{Cooldown: params.Cooldown, Logger: params.Logger}, result), nil
}
