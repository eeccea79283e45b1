// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"encoding/binary"
	"fmt"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/execution"
	"github.com/clproof/lidoreport/lido"
	"github.com/clproof/lidoreport/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "lidoreport")

// executionPayloadHeaderLeaves is the padded leaf count of the execution
// payload header container.
const executionPayloadHeaderLeaves = 32

// Option configures an InputVerifier.
type Option func(*InputVerifier)

// WithMode sets the verification mode. Production code always runs strict.
func WithMode(mode lido.Mode) Option {
	return func(v *InputVerifier) { v.mode = mode }
}

// InputVerifier checks a program input in one ordered pass, failing on the
// first violated check.
type InputVerifier struct {
	mode lido.Mode
}

// NewInputVerifier creates a strict verifier, unless overridden by options.
func NewInputVerifier(opts ...Option) *InputVerifier {
	v := &InputVerifier{mode: lido.Strict}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mode returns the verification mode of the verifier.
func (v *InputVerifier) Mode() lido.Mode {
	return v.mode
}

// Verify authenticates every component of the input against the claimed
// beacon block hash.
func (v *InputVerifier) Verify(in *ProgramInput) error {
	if err := in.complete(); err != nil {
		return err
	}
	var (
		header = in.BeaconBlockHeader
		fields = in.BeaconState
		old    = in.OldLidoValidatorState
		vb     = in.ValidatorsAndBalances
		delta  = vb.ValidatorsDelta
	)
	logger := log.WithFields(logrus.Fields{"slot": in.BcSlot, "refslot": in.ReferenceSlot, "mode": v.mode})

	// Trust the header, then the state it commits to
	if root := header.HashTreeRoot(); root != in.BeaconBlockHash {
		return fmt.Errorf("%w: have %x, want %x", ErrBeaconBlockHashMismatch, root, in.BeaconBlockHash)
	}
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBeaconStateHashMismatch, err)
	}
	if root := fields.HashTreeRoot(); root != header.StateRoot {
		return fmt.Errorf("%w: have %x, want %x", ErrBeaconStateHashMismatch, root, header.StateRoot)
	}
	if header.Slot != in.BcSlot {
		return fmt.Errorf("%w: header slot %d, claimed %d", ErrBeaconSlotMismatch, header.Slot, in.BcSlot)
	}
	if leaf := slotLeaf(in.BcSlot); fields.Slot() != leaf {
		return fmt.Errorf("%w: state slot leaf %x, want %x", ErrBeaconSlotMismatch, fields.Slot(), leaf)
	}
	if in.BcSlot > in.ReferenceSlot {
		return fmt.Errorf("%w: slot %d, reference %d", ErrSlotAfterReference, in.BcSlot, in.ReferenceSlot)
	}
	logger.WithField("fork", fields.Fork).Debug("Beacon block and state authenticated")

	// Sanity check the caller supplied old state
	if old.Epoch != old.Slot.Epoch() {
		return fmt.Errorf("%w: epoch %d, slot %d", ErrOldStateEpochMismatch, old.Epoch, old.Slot)
	}
	if !lido.StrictlySorted(old.DepositedLidoValidatorIndices) {
		return ErrDepositedNotSorted
	}
	if !lido.StrictlySorted(old.PendingDepositLidoValidatorIndices) {
		return ErrPendingNotSorted
	}
	if !lido.StrictlySorted(old.ExitedLidoValidatorIndices) {
		return ErrExitedNotSorted
	}
	if index, ok := old.IndexOutOfRange(); ok {
		return fmt.Errorf("%w: index %d, max %d", ErrOldStateIndexOutOfRange, index, old.MaxValidatorIndex)
	}
	logger.WithFields(logrus.Fields{
		"oldslot":   old.Slot,
		"deposited": len(old.DepositedLidoValidatorIndices),
		"pending":   len(old.PendingDepositLidoValidatorIndices),
		"exited":    len(old.ExitedLidoValidatorIndices),
	}).Debug("Old lido validator state consistent")

	// The delta must cover every new validator and every pending one
	if have := old.TotalValidators() + uint64(len(delta.AllAdded)); have != vb.TotalValidators {
		return fmt.Errorf("%w: old %d + added %d, total %d", ErrNotAllNewValidatorsPassed, old.TotalValidators(), len(delta.AllAdded), vb.TotalValidators)
	}
	changed := make(map[consensus.ValidatorIndex]struct{}, len(delta.LidoChanged))
	for _, index := range delta.LidoChangedIndices() {
		changed[index] = struct{}{}
	}
	for _, index := range old.PendingDepositLidoValidatorIndices {
		if _, ok := changed[index]; !ok {
			return fmt.Errorf("%w: pending validator %d", ErrRequiredValidatorsMissing, index)
		}
	}
	logger.WithFields(logrus.Fields{
		"added":   len(delta.AllAdded),
		"changed": len(delta.LidoChanged),
		"total":   vb.TotalValidators,
	}).Debug("Validator delta complete")

	// Prove the validators and balances fields, then the balances themselves
	var (
		fieldLeaves  = merkle.NextPowerOfTwo(uint64(len(fields.Roots)))
		fieldIndices = []uint64{consensus.BeaconStateValidatorsIndex, consensus.BeaconStateBalancesIndex}
		fieldHashes  = []common.Hash{fields.Validators(), fields.Balances()}
	)
	if err := merkle.VerifyMultiproof(header.StateRoot, vb.ValidatorsAndBalancesProof, fieldLeaves, fieldIndices, fieldHashes); err != nil {
		return fmt.Errorf("%w: validators and balances fields: %v", ErrMerkleProofError, err)
	}
	if root := consensus.HashBalances(vb.Balances); root != fields.Balances() {
		return fmt.Errorf("%w: have %x, want %x", ErrBalancesHashMismatch, root, fields.Balances())
	}
	logger.Debug("Validators and balances fields proven")

	// Prove the delta validators part of the validator registry
	if len(delta.AllAdded) > 0 {
		if err := v.verifyValidators(fields.Validators(), vb.TotalValidators, delta.AllAdded, vb.AddedValidatorsInclusionProof, ErrAllAddedNotSorted); err != nil {
			return err
		}
	} else if old.TotalValidators() != uint64(len(vb.Balances)) {
		return fmt.Errorf("%w: old %d, balances %d", ErrValidatorCountMismatchWhenAllAddedEmpty, old.TotalValidators(), len(vb.Balances))
	}
	if len(delta.LidoChanged) > 0 {
		if err := v.verifyValidators(fields.Validators(), vb.TotalValidators, delta.LidoChanged, vb.ChangedValidatorsInclusionProof, ErrLidoChangedNotSorted); err != nil {
			return err
		}
	} else if len(old.PendingDepositLidoValidatorIndices) > 0 {
		// Backstop, the pending subset check above already rejects this in both modes
		return fmt.Errorf("%w: %d pending", ErrPendingDepositsNotEmpty, len(old.PendingDepositLidoValidatorIndices))
	}
	if uint64(len(vb.Balances)) != vb.TotalValidators {
		return fmt.Errorf("%w: have %d, want %d", ErrBalancesCountMismatch, len(vb.Balances), vb.TotalValidators)
	}
	logger.Debug("Delta validators proven")

	// Prove the execution state root and the vault balance against it
	var (
		ehd      = in.LatestExecutionHeaderData
		ehIndex  = []uint64{consensus.ExecutionPayloadHeaderStateRootIndex}
		ehLeaves = []common.Hash{ehd.StateRoot}
	)
	if err := merkle.VerifyMultiproof(fields.LatestExecutionPayloadHeader(), ehd.Proof, executionPayloadHeaderLeaves, ehIndex, ehLeaves); err != nil {
		return fmt.Errorf("%w: %v", ErrExecutionHeaderProofError, err)
	}
	if err := execution.VerifyAccountBalance(ehd.StateRoot, in.WithdrawalVaultData); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"vault":   in.WithdrawalVaultData.VaultAddress,
		"balance": in.WithdrawalVaultData.Balance,
	}).Debug("Withdrawal vault balance proven")
	return nil
}

// verifyValidators proves a set of indexed validators part of the validators
// list with the given root and length.
func (v *InputVerifier) verifyValidators(root common.Hash, total uint64, validators []*lido.IndexedValidator, proof *merkle.Proof, unsorted error) error {
	indices := make([]consensus.ValidatorIndex, len(validators))
	for i, iv := range validators {
		indices[i] = iv.Index
	}
	if v.mode == lido.Strict && !lido.StrictlySorted(indices) {
		return unsorted
	}
	var (
		positions = make([]uint64, len(validators))
		leaves    = make([]common.Hash, len(validators))
	)
	for i, iv := range validators {
		if iv.Validator == nil {
			return fmt.Errorf("%w: validator %d missing", ErrMerkleProofError, iv.Index)
		}
		positions[i] = uint64(iv.Index)
		leaves[i] = iv.Validator.HashTreeRoot()
	}
	err := merkle.VerifyMultiproof(root, proof, merkle.NextPowerOfTwo(total), positions, leaves,
		merkle.WithDepthExpansion(consensus.ValidatorsListDepth), merkle.WithLengthMixIn(total))
	if err != nil {
		return fmt.Errorf("%w: validators: %v", ErrMerkleProofError, err)
	}
	return nil
}

// slotLeaf returns the Merkle leaf of a slot field.
func slotLeaf(slot consensus.Slot) common.Hash {
	var leaf common.Hash
	binary.LittleEndian.PutUint64(leaf[:8], uint64(slot))
	return leaf
}
