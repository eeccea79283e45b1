// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"github.com/clproof/lidoreport/errs"
	"github.com/clproof/lidoreport/execution"
)

var (
	// ErrIncompleteInput is returned when a program input lacks a component.
	ErrIncompleteInput = errs.New(errs.IntegrityViolation, "incomplete program input")

	// ErrBeaconBlockHashMismatch is returned when the block header does not
	// hash to the claimed block hash.
	ErrBeaconBlockHashMismatch = errs.New(errs.StructuralMismatch, "beacon block hash mismatch")

	// ErrBeaconStateHashMismatch is returned when the beacon state fields do
	// not hash to the state root of the block header.
	ErrBeaconStateHashMismatch = errs.New(errs.StructuralMismatch, "beacon state hash mismatch")

	// ErrBeaconSlotMismatch is returned when the claimed beacon chain slot is
	// not the slot of the header and state.
	ErrBeaconSlotMismatch = errs.New(errs.IntegrityViolation, "beacon chain slot mismatch")

	// ErrSlotAfterReference is returned when the beacon chain slot is past the
	// reference slot it reports for.
	ErrSlotAfterReference = errs.New(errs.IntegrityViolation, "beacon chain slot after reference slot")

	// ErrOldStateEpochMismatch is returned when the old tracked state's epoch
	// does not belong to its slot.
	ErrOldStateEpochMismatch = errs.New(errs.IntegrityViolation, "old state epoch mismatch")

	// ErrDepositedNotSorted is returned when the old deposited indices are not
	// strictly ascending.
	ErrDepositedNotSorted = errs.New(errs.IntegrityViolation, "old deposited indices not sorted")

	// ErrPendingNotSorted is returned when the old pending indices are not
	// strictly ascending.
	ErrPendingNotSorted = errs.New(errs.IntegrityViolation, "old pending indices not sorted")

	// ErrExitedNotSorted is returned when the old exited indices are not
	// strictly ascending.
	ErrExitedNotSorted = errs.New(errs.IntegrityViolation, "old exited indices not sorted")

	// ErrOldStateIndexOutOfRange is returned when the old state tracks an index
	// beyond its own registry size.
	ErrOldStateIndexOutOfRange = errs.New(errs.IntegrityViolation, "old state index out of range")

	// ErrNotAllNewValidatorsPassed is returned when the added validators do not
	// cover every index between the old and new registry sizes.
	ErrNotAllNewValidatorsPassed = errs.New(errs.CompletenessViolation, "not all new validators passed")

	// ErrRequiredValidatorsMissing is returned when a pending validator of the
	// old state is missing from the changed validators.
	ErrRequiredValidatorsMissing = errs.New(errs.CompletenessViolation, "required validators missing")

	// ErrBalancesCountMismatch is returned when the balances list does not have
	// one entry per validator.
	ErrBalancesCountMismatch = errs.New(errs.IntegrityViolation, "balances count mismatch")

	// ErrMerkleProofError is returned when a validator or beacon state field
	// multiproof fails to verify.
	ErrMerkleProofError = errs.New(errs.StructuralMismatch, "merkle proof error")

	// ErrBalancesHashMismatch is returned when the supplied balances do not
	// hash to the beacon state balances field.
	ErrBalancesHashMismatch = errs.New(errs.StructuralMismatch, "balances hash mismatch")

	// ErrAllAddedNotSorted is returned when the added validator indices are
	// not strictly ascending.
	ErrAllAddedNotSorted = errs.New(errs.IntegrityViolation, "all added validators not sorted")

	// ErrValidatorCountMismatchWhenAllAddedEmpty is returned when no validators
	// were added, yet the registry size changed.
	ErrValidatorCountMismatchWhenAllAddedEmpty = errs.New(errs.CompletenessViolation, "validator count mismatch with no added validators")

	// ErrLidoChangedNotSorted is returned when the changed validator indices
	// are not strictly ascending.
	ErrLidoChangedNotSorted = errs.New(errs.IntegrityViolation, "lido changed validators not sorted")

	// ErrPendingDepositsNotEmpty is returned when no validators changed, yet the
	// old state has pending validators that must be re-checked.
	ErrPendingDepositsNotEmpty = errs.New(errs.CompletenessViolation, "pending deposits not empty")

	// ErrExecutionHeaderProofError is returned when the execution state root is
	// not proven part of the latest execution payload header.
	ErrExecutionHeaderProofError = errs.New(errs.StructuralMismatch, "execution header proof error")

	// ErrWithdrawalVaultNotFound is returned when the execution state proves
	// that no account exists at the withdrawal vault address.
	ErrWithdrawalVaultNotFound = execution.ErrAccountNotFound

	// ErrWithdrawalVaultBalanceMismatch is returned when the proven withdrawal
	// vault balance differs from the claimed one.
	ErrWithdrawalVaultBalanceMismatch = execution.ErrWithdrawalVaultBalanceMismatch

	// ErrNewStateHashMismatch is returned when merging the delta does not
	// reproduce the claimed new state hash.
	ErrNewStateHashMismatch = errs.New(errs.StructuralMismatch, "new lido validator state hash mismatch")

	// ErrHeaderStateMismatch is returned when building an input from a header
	// that does not commit to the supplied beacon state.
	ErrHeaderStateMismatch = errs.New(errs.StructuralMismatch, "header does not commit to beacon state")
)
