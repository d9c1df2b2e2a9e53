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

// Package delaytx routes account transactions through the Delay module queue:
// an owner signed enqueue, and a permissionless dispatch once the cooldown passed.
package delaytx

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/erigontech/accountkit/deployments"
	"github.com/erigontech/accountkit/predict"
	"github.com/erigontech/accountkit/types"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignerMismatch   = errors.New("signature not produced by owner")
)

type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

type EnqueueParams struct {
	Account common.Address
	Owner   common.Address
	ChainID uint64
	// Nonce is the account's current Safe nonce.
	Nonce uint64
}

// PopulateExecDispatch executes the next queued transaction, which must be tx.
// Anyone can send it once the cooldown elapsed.
func PopulateExecDispatch(account common.Address, tx types.TransactionData) (types.TransactionData, error) {
	delay, err := predict.PredictDelayAddress(account)
	if err != nil {
		return types.TransactionData{}, err
	}
	data, err := deployments.DelayMastercopy.ABI.Pack("executeNextTx", tx.To, new(big.Int), []byte(tx.Data), uint8(Call))
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("executeNextTx: %w", err)
	}
	return types.TransactionData{To: delay, Data: data}, nil
}

// PopulateExecEnqueue puts tx in the Delay queue. The owner signs a SafeTx on
// the account calling Delay.execTransactionFromModule, so a relayer can submit it.
func PopulateExecEnqueue(ctx context.Context, params EnqueueParams, tx types.TransactionData, sign types.Signer) (types.TransactionData, error) {
	delay, err := predict.PredictDelayAddress(params.Account)
	if err != nil {
		return types.TransactionData{}, err
	}
	enqueue, err := deployments.DelayMastercopy.ABI.Pack("execTransactionFromModule", tx.To, new(big.Int), []byte(tx.Data), uint8(Call))
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("execTransactionFromModule: %w", err)
	}

	safeTx := SafeTx{To: delay, Data: enqueue, Operation: Call, Nonce: params.Nonce}
	typedData := safeTx.TypedData(params.ChainID, params.Account)

	hexSig, err := sign(ctx, typedData)
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("sign enqueue: %w", err)
	}
	signature, err := normalizeSignature(hexSig)
	if err != nil {
		return types.TransactionData{}, err
	}
	hash, err := safeTx.Hash(params.ChainID, params.Account)
	if err != nil {
		return types.TransactionData{}, err
	}
	signer, err := recoverSigner(hash, signature)
	if err != nil {
		return types.TransactionData{}, err
	}
	if signer != params.Owner {
		return types.TransactionData{}, fmt.Errorf("%w: recovered %s, want %s", ErrSignerMismatch, signer, params.Owner)
	}

	zero := new(big.Int)
	data, err := deployments.SafeMastercopy.ABI.Pack("execTransaction",
		safeTx.To, zero, safeTx.Data, uint8(safeTx.Operation),
		zero, zero, zero, common.Address{}, common.Address{},
		signature,
	)
	if err != nil {
		return types.TransactionData{}, fmt.Errorf("execTransaction: %w", err)
	}
	return types.TransactionData{To: params.Account, Data: data}, nil
}

// normalizeSignature accepts r||s||v with v in {0,1,27,28} and returns it with v in {27,28}.
func normalizeSignature(hexSig string) ([]byte, error) {
	sig := common.FromHex(hexSig)
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	switch v := sig[crypto.RecoveryIDOffset]; v {
	case 0, 1:
		sig[crypto.RecoveryIDOffset] = v + 27
	case 27, 28:
	default:
		return nil, fmt.Errorf("%w: v=%d", ErrInvalidSignature, v)
	}
	return sig, nil
}

func recoverSigner(hash []byte, signature []byte) (common.Address, error) {
	sig := make([]byte, len(signature))
	copy(sig, signature)
	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
