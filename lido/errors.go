// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import "github.com/clproof/lidoreport/errs"

var (
	// ErrInvalidValidatorTransition is returned when a validator status moves
	// backwards between two snapshots.
	ErrInvalidValidatorTransition = errs.New(errs.IllegalTransition, "lido: invalid validator transition")

	// ErrMalformedAllAddedList is returned when the appended validators of a
	// delta do not continue the tracked registry contiguously.
	ErrMalformedAllAddedList = errs.New(errs.IntegrityViolation, "lido: malformed all added list")

	// ErrNonLidoValidatorInDelta is returned when a changed validator does not
	// carry the Lido withdrawal credentials.
	ErrNonLidoValidatorInDelta = errs.New(errs.IntegrityViolation, "lido: non-lido validator in delta")

	// ErrDisallowedIndexInLidoChanged is returned when a changed validator lies
	// beyond the previously tracked registry.
	ErrDisallowedIndexInLidoChanged = errs.New(errs.IntegrityViolation, "lido: disallowed index in lido changed")

	// ErrValidatorPubkeyMismatch is returned when the validator at some index
	// has a different public key in the two snapshots.
	ErrValidatorPubkeyMismatch = errs.New(errs.IntegrityViolation, "lido: validator pubkey mismatch")

	// ErrRegistryShrunk is returned when a snapshot holds fewer validators than
	// the tracked state already knows about.
	ErrRegistryShrunk = errs.New(errs.IntegrityViolation, "lido: validator registry shorter than tracked state")

	// ErrEmptyRegistry is returned when a tracked state is requested for a
	// snapshot without any validators.
	ErrEmptyRegistry = errs.New(errs.IntegrityViolation, "lido: empty validator registry")

	// ErrBalanceCountMismatch is returned when the balances do not pair up
	// with the validators one to one.
	ErrBalanceCountMismatch = errs.New(errs.IntegrityViolation, "lido: balance count mismatch")

	// ErrBalanceIndexOutOfRange is returned when a tracked index has no balance.
	ErrBalanceIndexOutOfRange = errs.New(errs.Conversion, "lido: balance index out of range")

	// ErrBalanceOverflow is returned when the aggregate balance does not fit
	// into 64 bits.
	ErrBalanceOverflow = errs.New(errs.Conversion, "lido: balance sum overflow")
)
