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

package delaytx

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SafeTx is the Safe v1.3.0 EIP-712 transaction, without gas refunds.
type SafeTx struct {
	To        common.Address
	Data      []byte
	Operation Operation
	Nonce     uint64
}

var safeTxTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"SafeTx": {
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "operation", Type: "uint8"},
		{Name: "safeTxGas", Type: "uint256"},
		{Name: "baseGas", Type: "uint256"},
		{Name: "gasPrice", Type: "uint256"},
		{Name: "gasToken", Type: "address"},
		{Name: "refundReceiver", Type: "address"},
		{Name: "nonce", Type: "uint256"},
	},
}

func (tx SafeTx) TypedData(chainID uint64, account common.Address) apitypes.TypedData {
	zeroAddress := common.Address{}.Hex()
	return apitypes.TypedData{
		Types:       safeTxTypes,
		PrimaryType: "SafeTx",
		Domain: apitypes.TypedDataDomain{
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: account.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":             tx.To.Hex(),
			"value":          "0",
			"data":           hexutil.Bytes(tx.Data),
			"operation":      strconv.FormatUint(uint64(tx.Operation), 10),
			"safeTxGas":      "0",
			"baseGas":        "0",
			"gasPrice":       "0",
			"gasToken":       zeroAddress,
			"refundReceiver": zeroAddress,
			"nonce":          strconv.FormatUint(tx.Nonce, 10),
		},
	}
}

// Hash is the EIP-712 digest the owner signs.
func (tx SafeTx) Hash(chainID uint64, account common.Address) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(tx.TypedData(chainID, account))
	if err != nil {
		return nil, fmt.Errorf("safe tx hash: %w", err)
	}
	return hash, nil
}
