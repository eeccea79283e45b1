// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lido tracks the Lido subset of the validator registry across report
// periods and aggregates the report figures for it.
package lido

import (
	"fmt"

	"github.com/clproof/lidoreport/consensus"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "lido")

// Status is the lifecycle stage of a validator relative to some epoch.
type Status uint8

const (
	// FutureDeposit is a validator not yet eligible for activation.
	FutureDeposit Status = iota

	// Deposited is a validator eligible for activation that has not exited.
	Deposited

	// Exited is a validator at or past its exit epoch.
	Exited
)

func (s Status) String() string {
	switch s {
	case FutureDeposit:
		return "future_deposit"
	case Deposited:
		return "deposited"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// StatusOf classifies a validator at the given epoch.
func StatusOf(v *consensus.Validator, epoch consensus.Epoch) Status {
	switch {
	case epoch < v.ActivationEligibilityEpoch:
		return FutureDeposit
	case epoch < v.ExitEpoch:
		return Deposited
	default:
		return Exited
	}
}

// IsLido reports whether the validator withdraws to the given credentials.
func IsLido(v *consensus.Validator, credentials common.Hash) bool {
	return v.WithdrawalCredentials == credentials
}

// Mode selects how strictly validator transitions are checked.
type Mode uint8

const (
	// Strict rejects every backward status transition. Production always
	// runs strict.
	Strict Mode = iota

	// Relaxed ignores illegal transitions and unsorted deltas, leaving their
	// detection to the Merkle proofs. Only test harnesses use it.
	Relaxed
)

func (m Mode) String() string {
	if m == Relaxed {
		return "relaxed"
	}
	return "strict"
}

// Transition is the effect a status change has on the tracked state.
type Transition uint8

const (
	// NoTransition leaves the tracked state untouched.
	NoTransition Transition = iota

	// Activate moves a validator from pending to deposited.
	Activate

	// ActivateAndExit moves a validator from pending to deposited and marks it
	// exited.
	ActivateAndExit

	// Exit marks a deposited validator exited.
	Exit
)

// CheckTransition maps a status change onto its effect. Backward moves fail
// with ErrInvalidValidatorTransition, unless running relaxed, in which case
// they are treated as no-ops.
func CheckTransition(from, to Status, mode Mode) (Transition, error) {
	switch {
	case from == to:
		return NoTransition, nil
	case from == FutureDeposit && to == Deposited:
		return Activate, nil
	case from == FutureDeposit && to == Exited:
		return ActivateAndExit, nil
	case from == Deposited && to == Exited:
		return Exit, nil
	}
	if mode == Relaxed {
		log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("Ignoring illegal transition")
		return NoTransition, nil
	}
	return NoTransition, fmt.Errorf("%w: %v -> %v", ErrInvalidValidatorTransition, from, to)
}
