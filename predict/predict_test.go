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

package predict

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/erigontech/accountkit/deployments"
)

func keccak(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func TestPredictKnownAddresses(t *testing.T) {
	for _, tc := range []struct {
		safe  string
		delay string
		roles string
	}{
		{
			safe:  "0x7F2A8D2D06aAAd1A6a5f3C3f1b1cB1C2aA5a7b11",
			delay: "0x92a59924155373d1477f5529d085050d81cada54",
			roles: "0xa63c5359d63e7f5f7db9742e2bb89673dbf19aff",
		},
		{
			safe:  "0x0000000000000000000000000000000000000abc",
			delay: "0xb01a1a96cf516300b94fdcc13101ff53e0ff39ed",
			roles: "0xe669f2d466ea223a97bf958a1092506a90331cab",
		},
	} {
		delay, err := PredictDelayAddress(common.HexToAddress(tc.safe))
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress(tc.delay), delay)

		roles, err := PredictRolesAddress(common.HexToAddress(tc.safe))
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress(tc.roles), roles)
	}
}

func TestPredictMatchesRawCreate2(t *testing.T) {
	safe := common.HexToAddress("0x7F2A8D2D06aAAd1A6a5f3C3f1b1cB1C2aA5a7b11")
	setUp, err := EncodeDelaySetUp(safe)
	require.NoError(t, err)

	code := common.FromHex("0x602d8060093d393df3363d3d373d3d3d363d73" +
		strings.ToLower(deployments.DelayMastercopy.Address.Hex()[2:]) +
		"5af43d82803e903d91602b57fd5bf3")
	require.Equal(t, code, ProxyBytecode(deployments.DelayMastercopy.Address))

	salt := keccak(keccak(setUp), make([]byte, 32))
	raw := keccak([]byte{0xff}, deployments.ModuleProxyFactory.Address.Bytes(), salt, keccak(code))

	got := PredictModuleAddress(deployments.DelayMastercopy.Address, deployments.ModuleProxyFactory.Address, setUp)
	require.Equal(t, common.BytesToAddress(raw[12:]), got)
}

func TestPredictIsDeterministic(t *testing.T) {
	safe := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	d, err := DelayDescriptor(safe)
	require.NoError(t, err)

	first := d.Address()
	for i := 0; i < 3; i++ {
		require.Equal(t, first, d.Address())
	}

	again, err := PredictDelayAddress(safe)
	require.NoError(t, err)
	require.Equal(t, first, again)
}

func TestPredictIsCollisionSensitive(t *testing.T) {
	safe := common.HexToAddress("0x7F2A8D2D06aAAd1A6a5f3C3f1b1cB1C2aA5a7b11")
	d, err := DelayDescriptor(safe)
	require.NoError(t, err)
	base := d.Address()

	for i := range d.SetUpData {
		mutated := bytes.Clone(d.SetUpData)
		mutated[i] ^= 0x01
		require.NotEqual(t, base, PredictModuleAddress(d.Mastercopy, d.Factory, mutated), "byte %d", i)
	}

	other := d
	other.Mastercopy = deployments.RolesMastercopy.Address
	require.NotEqual(t, base, other.Address())

	other = d
	other.Factory = deployments.Multicall.Address
	require.NotEqual(t, base, other.Address())
}

func TestPredictIgnoresAddressCase(t *testing.T) {
	lower, err := PredictDelayAddress(common.HexToAddress("0x7f2a8d2d06aaad1a6a5f3c3f1b1cb1c2aa5a7b11"))
	require.NoError(t, err)
	upper, err := PredictDelayAddress(common.HexToAddress("0x7F2A8D2D06AAAD1A6A5F3C3F1B1CB1C2AA5A7B11"))
	require.NoError(t, err)
	require.Equal(t, lower, upper)
}

func TestEncodeSetUpLayout(t *testing.T) {
	safe := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	delay, err := EncodeDelaySetUp(safe)
	require.NoError(t, err)
	// selector, offset, length, 5 words
	require.Len(t, delay, 4+32+32+5*32)
	require.Equal(t, common.FromHex("0xa4f9edbf"), delay[:4])
	require.Equal(t, byte(5*32), delay[4+32+31])
	for i := 0; i < 3; i++ {
		word := delay[4+64+i*32 : 4+64+(i+1)*32]
		require.Equal(t, common.LeftPadBytes(safe.Bytes(), 32), word)
	}
	require.Equal(t, make([]byte, 64), delay[4+64+3*32:])

	roles, err := EncodeRolesSetUp(safe)
	require.NoError(t, err)
	require.Len(t, roles, 4+32+32+3*32)
	require.Equal(t, byte(3*32), roles[4+32+31])
}
