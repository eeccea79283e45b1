// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"fmt"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/execution"
	"github.com/clproof/lidoreport/lido"
	"github.com/clproof/lidoreport/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// BuildParams are the snapshots a program input is assembled from.
type BuildParams struct {
	ReferenceSlot consensus.Slot
	Credentials   common.Hash

	Header   *consensus.BeaconBlockHeader // header of the block at the report slot
	State    consensus.BeaconState        // state at the report slot
	OldState consensus.BeaconState        // state at the previous report slot

	// OldLidoState is the tracked state of the previous report. If nil, it is
	// derived from OldState.
	OldLidoState *lido.ValidatorState

	VaultData *execution.WithdrawalVaultData
	Mode      lido.Mode
}

// BuildProgramInput assembles a program input with every proof the verifier
// needs, from full beacon state snapshots.
func BuildProgramInput(params *BuildParams) (*ProgramInput, error) {
	fields := params.State.FieldRoots()
	if root := fields.HashTreeRoot(); root != params.Header.StateRoot {
		return nil, fmt.Errorf("%w: state %x, header %x", ErrHeaderStateMismatch, root, params.Header.StateRoot)
	}
	oldLido := params.OldLidoState
	if oldLido == nil {
		var err error
		if oldLido, err = lido.ComputeState(params.OldState, params.Credentials); err != nil {
			return nil, err
		}
	}
	delta, err := lido.ComputeDelta(params.OldState, oldLido, params.State, params.Mode)
	if err != nil {
		return nil, err
	}
	slot := params.State.CurrentSlot()
	newLido, err := oldLido.MergeDelta(slot, delta, params.Credentials, params.Mode)
	if err != nil {
		return nil, err
	}
	// Prove the fields first, then the validators within the registry
	fieldsProof, err := merkle.Build(fields.Roots, []uint64{consensus.BeaconStateValidatorsIndex, consensus.BeaconStateBalancesIndex})
	if err != nil {
		return nil, err
	}
	var (
		validators = params.State.ValidatorRegistry()
		tree       = merkle.NewTree(consensus.HashValidators(validators))
	)
	addedProof, err := proveValidators(tree, delta.AllAdded)
	if err != nil {
		return nil, err
	}
	changedProof, err := proveValidators(tree, delta.LidoChanged)
	if err != nil {
		return nil, err
	}
	payload := params.State.ExecutionPayloadHeader()
	if payload == nil {
		payload = new(consensus.ExecutionPayloadHeader)
	}
	payloadProof, err := merkle.Build(payload.FieldRoots(), []uint64{consensus.ExecutionPayloadHeaderStateRootIndex})
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"refslot": params.ReferenceSlot,
		"slot":    slot,
		"oldslot": oldLido.Slot,
		"added":   len(delta.AllAdded),
		"changed": len(delta.LidoChanged),
	}).Info("Assembled program input")

	return &ProgramInput{
		ReferenceSlot:     params.ReferenceSlot,
		BcSlot:            slot,
		BeaconBlockHash:   params.Header.HashTreeRoot(),
		BeaconBlockHeader: params.Header,
		BeaconState:       fields,
		LatestExecutionHeaderData: &ExecutionHeaderData{
			StateRoot: payload.StateRoot,
			Proof:     payloadProof,
		},
		ValidatorsAndBalances: &ValsAndBals{
			ValidatorsAndBalancesProof:      fieldsProof,
			LidoWithdrawalCredentials:       params.Credentials,
			TotalValidators:                 uint64(len(validators)),
			ValidatorsDelta:                 delta,
			AddedValidatorsInclusionProof:   addedProof,
			ChangedValidatorsInclusionProof: changedProof,
			Balances:                        params.State.ValidatorBalances(),
		},
		OldLidoValidatorState:     oldLido,
		NewLidoValidatorStateHash: newLido.HashTreeRoot(),
		WithdrawalVaultData:       params.VaultData,
	}, nil
}

// proveValidators creates the multiproof of the given validators within the
// registry tree. An empty set gets an empty proof.
func proveValidators(tree *merkle.Tree, validators []*lido.IndexedValidator) (*merkle.Proof, error) {
	if len(validators) == 0 {
		return new(merkle.Proof), nil
	}
	indices := make([]uint64, len(validators))
	for i, v := range validators {
		indices[i] = uint64(v.Index)
	}
	return tree.Prove(indices)
}
