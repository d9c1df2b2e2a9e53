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

// Package deployments pins the singleton contracts an account is wired into.
// Addresses are identical on every supported chain.
package deployments

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed safe.abi
var safeABIJSON string

//go:embed delay.abi
var delayABIJSON string

//go:embed roles.abi
var rolesABIJSON string

//go:embed allowance.abi
var allowanceABIJSON string

//go:embed multicall.abi
var multicallABIJSON string

// AddressOne is the sentinel head of the Safe module linked list.
var AddressOne = common.HexToAddress("0x0000000000000000000000000000000000000001")

type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

var (
	// SafeMastercopy is GnosisSafeL2 v1.3.0.
	SafeMastercopy = Contract{
		Address: common.HexToAddress("0x3E5c63644E683549055b9Be8653de26E0B4CD36E"),
		ABI:     mustParse("safe", safeABIJSON),
	}
	// ModuleProxyFactory is the Zodiac factory every module clone is deployed through.
	ModuleProxyFactory = Contract{
		Address: common.HexToAddress("0x000000000000aDdB49795b0f9bA5BC298cDda236"),
	}
	DelayMastercopy = Contract{
		Address: common.HexToAddress("0x4A97E65188A950Dd4b0f21F9b5434dAeE0BbF9f5"),
		ABI:     mustParse("delay", delayABIJSON),
	}
	RolesMastercopy = Contract{
		Address: common.HexToAddress("0x9646fDAD06d3e24444381f44362a3B0eB343D337"),
		ABI:     mustParse("roles", rolesABIJSON),
	}
	AllowanceSingleton = Contract{
		Address: common.HexToAddress("0xCFbFaC74C26F8647cBDb8c5caf80BB5b32E43134"),
		ABI:     mustParse("allowance", allowanceABIJSON),
	}
	Multicall = Contract{
		Address: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		ABI:     mustParse("multicall", multicallABIJSON),
	}
)

func mustParse(name, abiJSON string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic("deployments: invalid " + name + " abi: " + err.Error())
	}
	return parsed
}
