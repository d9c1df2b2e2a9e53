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

// Package predict derives the addresses of module clones deployed through the
// ModuleProxyFactory without touching the chain.
package predict

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/erigontech/accountkit/deployments"
)

// EIP-1167 minimal proxy creation code, split around the mastercopy address.
var (
	proxyPrefix = common.FromHex("0x602d8060093d393df3363d3d373d3d3d363d73")
	proxySuffix = common.FromHex("0x5af43d82803e903d91602b57fd5bf3")
)

// saltNonce is the factory saltNonce every account module is deployed with.
var saltNonce common.Hash

var (
	addressT, _ = abi.NewType("address", "", nil)
	uint256T, _ = abi.NewType("uint256", "", nil)

	delayInitParams = abi.Arguments{{Type: addressT}, {Type: addressT}, {Type: addressT}, {Type: uint256T}, {Type: uint256T}}
	rolesInitParams = abi.Arguments{{Type: addressT}, {Type: addressT}, {Type: addressT}}
)

// ModuleDescriptor is everything the factory hashes to place a module clone.
type ModuleDescriptor struct {
	Mastercopy common.Address
	Factory    common.Address
	SetUpData  []byte
}

func (d ModuleDescriptor) Address() common.Address {
	return PredictModuleAddress(d.Mastercopy, d.Factory, d.SetUpData)
}

// ProxyBytecode returns the creation code of a minimal proxy delegating to mastercopy.
func ProxyBytecode(mastercopy common.Address) []byte {
	code := make([]byte, 0, len(proxyPrefix)+common.AddressLength+len(proxySuffix))
	code = append(code, proxyPrefix...)
	code = append(code, mastercopy.Bytes()...)
	return append(code, proxySuffix...)
}

// PredictModuleAddress mirrors ModuleProxyFactory.deployModule:
// salt = keccak256(keccak256(initializer) ++ saltNonce), then CREATE2 from the factory.
func PredictModuleAddress(mastercopy, factory common.Address, setUpData []byte) common.Address {
	salt := crypto.Keccak256Hash(crypto.Keccak256(setUpData), saltNonce.Bytes())
	return crypto.CreateAddress2(factory, salt, crypto.Keccak256(ProxyBytecode(mastercopy)))
}

// EncodeDelaySetUp encodes setUp(owner, avatar, target, cooldown, expiration)
// with the account in all three roles and zeroed timings.
func EncodeDelaySetUp(safe common.Address) ([]byte, error) {
	initializer, err := delayInitParams.Pack(safe, safe, safe, new(big.Int), new(big.Int))
	if err != nil {
		return nil, fmt.Errorf("delay initializer: %w", err)
	}
	return deployments.DelayMastercopy.ABI.Pack("setUp", initializer)
}

// EncodeRolesSetUp encodes setUp(owner, avatar, target) with the account in all three roles.
func EncodeRolesSetUp(safe common.Address) ([]byte, error) {
	initializer, err := rolesInitParams.Pack(safe, safe, safe)
	if err != nil {
		return nil, fmt.Errorf("roles initializer: %w", err)
	}
	return deployments.RolesMastercopy.ABI.Pack("setUp", initializer)
}

func DelayDescriptor(safe common.Address) (ModuleDescriptor, error) {
	setUp, err := EncodeDelaySetUp(safe)
	if err != nil {
		return ModuleDescriptor{}, err
	}
	return ModuleDescriptor{
		Mastercopy: deployments.DelayMastercopy.Address,
		Factory:    deployments.ModuleProxyFactory.Address,
		SetUpData:  setUp,
	}, nil
}

func RolesDescriptor(safe common.Address) (ModuleDescriptor, error) {
	setUp, err := EncodeRolesSetUp(safe)
	if err != nil {
		return ModuleDescriptor{}, err
	}
	return ModuleDescriptor{
		Mastercopy: deployments.RolesMastercopy.Address,
		Factory:    deployments.ModuleProxyFactory.Address,
		SetUpData:  setUp,
	}, nil
}

func PredictDelayAddress(safe common.Address) (common.Address, error) {
	d, err := DelayDescriptor(safe)
	if err != nil {
		return common.Address{}, err
	}
	return d.Address(), nil
}

func PredictRolesAddress(safe common.Address) (common.Address, error) {
	d, err := RolesDescriptor(safe)
	if err != nil {
		return common.Address{}, err
	}
	return d.Address(), nil
}
