// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a precondition failure of a ledger operation. The whole
// operation is rolled back when one is returned.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInvalidSignature           = New("invalid signature")
	ErrExpiredAuthorization       = New("authorization expired")
	ErrUnitNotOwned               = New("unit not owned")
	ErrUnitAlreadyStaked          = New("unit already staked")
	ErrUnitAlreadyJailed          = New("unit already jailed")
	ErrUnitNotStaked              = New("unit not staked")
	ErrUnitNotJailed              = New("unit not jailed")
	ErrInsufficientStake          = New("insufficient stake")
	ErrDenominationLengthMismatch = New("denomination length mismatch")
	ErrZeroRate                   = New("zero rate")
	ErrNotStarted                 = New("not started")
	ErrAlreadyStarted             = New("already started")
	ErrPaused                     = New("paused")
	ErrNotPaused                  = New("not paused")
	ErrUnauthorized               = New("unauthorized")

	ErrAlreadyInitialized   = New("already initialized")
	ErrNotInitialized       = New("not initialized")
	ErrUnstakeDisabled      = New("unstake disabled")
	ErrReentrantCall        = New("reentrant call")
	ErrInvalidStartBlock    = New("invalid start block")
	ErrDenominationNotFound = New("denomination not found")
	ErrArithmeticOverflow   = New("arithmetic overflow")
	ErrInsufficientBalance  = New("insufficient balance")
	ErrEmptyUnits           = New("empty units")
	ErrDuplicateUnit        = New("duplicate unit")
	ErrTooManyUnits         = New("too many units")
	ErrZeroAddress          = New("zero address")
)
