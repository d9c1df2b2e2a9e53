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
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

type IntegrityStatus int

// UnexpectedError is the zero value so an unset Verdict never reads as Ok.
const (
	UnexpectedError IntegrityStatus = iota
	Ok
	SafeNotDeployed
	SafeMisconfigured
	AllowanceMisconfigured
	DelayNotDeployed
	DelayMisconfigured
	DelayQueueNotEmpty
)

var statusNames = map[IntegrityStatus]string{
	UnexpectedError:        "UnexpectedError",
	Ok:                     "Ok",
	SafeNotDeployed:        "SafeNotDeployed",
	SafeMisconfigured:      "SafeMisconfigured",
	AllowanceMisconfigured: "AllowanceMisconfigured",
	DelayNotDeployed:       "DelayNotDeployed",
	DelayMisconfigured:     "DelayMisconfigured",
	DelayQueueNotEmpty:     "DelayQueueNotEmpty",
}

func (s IntegrityStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("IntegrityStatus(%d)", int(s))
}

// AllStatuses lists every status in evaluation order, UnexpectedError last.
func AllStatuses() []IntegrityStatus {
	return []IntegrityStatus{
		Ok,
		SafeNotDeployed,
		SafeMisconfigured,
		AllowanceMisconfigured,
		DelayNotDeployed,
		DelayMisconfigured,
		DelayQueueNotEmpty,
		UnexpectedError,
	}
}

// AllowanceDetail is only present on an Ok verdict.
type AllowanceDetail struct {
	// Unspent is amount minus spent; negative once the owner lowered the
	// amount below what was already spent.
	Unspent *big.Int
	Nonce   *uint256.Int
}

type Verdict struct {
	Status IntegrityStatus
	Detail *AllowanceDetail
}

func verdict(status IntegrityStatus) Verdict {
	return Verdict{Status: status}
}
