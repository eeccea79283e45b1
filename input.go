// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lidoreport proves the Lido consensus-layer report: it verifies that
// the claimed validator counts and balances follow from an authenticated
// beacon state, and produces the public values committed on chain.
package lidoreport

import (
	"fmt"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/execution"
	"github.com/clproof/lidoreport/lido"
	"github.com/clproof/lidoreport/merkle"
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// ExecutionHeaderData proves the execution state root as a field of the latest
// execution payload header.
type ExecutionHeaderData struct {
	StateRoot common.Hash
	Proof     *merkle.Proof
}

func (d *ExecutionHeaderData) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(32 + 4)
	if fixed {
		return size
	}
	return size + ssz.SizeDynamicObject(siz, d.Proof)
}

func (d *ExecutionHeaderData) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &d.StateRoot)
	ssz.DefineDynamicObjectOffset(codec, &d.Proof)
	ssz.DefineDynamicObjectContent(codec, &d.Proof)
}

// ValsAndBals carries the validator and balance data of the new beacon state,
// reduced to what the delta needs, with the proofs tying it to the state.
type ValsAndBals struct {
	ValidatorsAndBalancesProof      *merkle.Proof // validators and balances fields in the beacon state
	LidoWithdrawalCredentials       common.Hash
	TotalValidators                 uint64
	ValidatorsDelta                 *lido.ValidatorDelta
	AddedValidatorsInclusionProof   *merkle.Proof // all added validators in the validators list
	ChangedValidatorsInclusionProof *merkle.Proof // lido changed validators in the validators list
	Balances                        []consensus.Gwei
}

func (vb *ValsAndBals) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(4 + 32 + 8 + 4 + 4 + 4 + 4)
	if fixed {
		return size
	}
	size += ssz.SizeDynamicObject(siz, vb.ValidatorsAndBalancesProof)
	size += ssz.SizeDynamicObject(siz, vb.ValidatorsDelta)
	size += ssz.SizeDynamicObject(siz, vb.AddedValidatorsInclusionProof)
	size += ssz.SizeDynamicObject(siz, vb.ChangedValidatorsInclusionProof)
	size += ssz.SizeSliceOfUint64s(siz, vb.Balances)
	return size
}

func (vb *ValsAndBals) DefineSSZ(codec *ssz.Codec) {
	// Define the static data (fields and dynamic offsets)
	ssz.DefineDynamicObjectOffset(codec, &vb.ValidatorsAndBalancesProof)
	ssz.DefineStaticBytes(codec, &vb.LidoWithdrawalCredentials)
	ssz.DefineUint64(codec, &vb.TotalValidators)
	ssz.DefineDynamicObjectOffset(codec, &vb.ValidatorsDelta)
	ssz.DefineDynamicObjectOffset(codec, &vb.AddedValidatorsInclusionProof)
	ssz.DefineDynamicObjectOffset(codec, &vb.ChangedValidatorsInclusionProof)
	ssz.DefineSliceOfUint64sOffset(codec, &vb.Balances, consensus.ValidatorRegistryLimit)

	// Define the dynamic data (fields)
	ssz.DefineDynamicObjectContent(codec, &vb.ValidatorsAndBalancesProof)
	ssz.DefineDynamicObjectContent(codec, &vb.ValidatorsDelta)
	ssz.DefineDynamicObjectContent(codec, &vb.AddedValidatorsInclusionProof)
	ssz.DefineDynamicObjectContent(codec, &vb.ChangedValidatorsInclusionProof)
	ssz.DefineSliceOfUint64sContent(codec, &vb.Balances, consensus.ValidatorRegistryLimit)
}

// ProgramInput is everything the report program consumes, in one payload.
type ProgramInput struct {
	ReferenceSlot             consensus.Slot
	BcSlot                    consensus.Slot
	BeaconBlockHash           common.Hash
	BeaconBlockHeader         *consensus.BeaconBlockHeader
	BeaconState               *consensus.BeaconStateFields
	LatestExecutionHeaderData *ExecutionHeaderData
	ValidatorsAndBalances     *ValsAndBals
	OldLidoValidatorState     *lido.ValidatorState
	NewLidoValidatorStateHash common.Hash
	WithdrawalVaultData       *execution.WithdrawalVaultData
}

func (in *ProgramInput) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(8 + 8 + 32 + 112 + 4 + 4 + 4 + 4 + 32 + 4)
	if fixed {
		return size
	}
	size += ssz.SizeDynamicObject(siz, in.BeaconState)
	size += ssz.SizeDynamicObject(siz, in.LatestExecutionHeaderData)
	size += ssz.SizeDynamicObject(siz, in.ValidatorsAndBalances)
	size += ssz.SizeDynamicObject(siz, in.OldLidoValidatorState)
	size += ssz.SizeDynamicObject(siz, in.WithdrawalVaultData)
	return size
}

func (in *ProgramInput) DefineSSZ(codec *ssz.Codec) {
	// Define the static data (fields and dynamic offsets)
	ssz.DefineUint64(codec, &in.ReferenceSlot)
	ssz.DefineUint64(codec, &in.BcSlot)
	ssz.DefineStaticBytes(codec, &in.BeaconBlockHash)
	ssz.DefineStaticObject(codec, &in.BeaconBlockHeader)
	ssz.DefineDynamicObjectOffset(codec, &in.BeaconState)
	ssz.DefineDynamicObjectOffset(codec, &in.LatestExecutionHeaderData)
	ssz.DefineDynamicObjectOffset(codec, &in.ValidatorsAndBalances)
	ssz.DefineDynamicObjectOffset(codec, &in.OldLidoValidatorState)
	ssz.DefineStaticBytes(codec, &in.NewLidoValidatorStateHash)
	ssz.DefineDynamicObjectOffset(codec, &in.WithdrawalVaultData)

	// Define the dynamic data (fields)
	ssz.DefineDynamicObjectContent(codec, &in.BeaconState)
	ssz.DefineDynamicObjectContent(codec, &in.LatestExecutionHeaderData)
	ssz.DefineDynamicObjectContent(codec, &in.ValidatorsAndBalances)
	ssz.DefineDynamicObjectContent(codec, &in.OldLidoValidatorState)
	ssz.DefineDynamicObjectContent(codec, &in.WithdrawalVaultData)
}

// complete checks that every component of the input is present.
func (in *ProgramInput) complete() error {
	switch {
	case in.BeaconBlockHeader == nil:
		return fmt.Errorf("%w: missing beacon block header", ErrIncompleteInput)
	case in.BeaconState == nil:
		return fmt.Errorf("%w: missing beacon state", ErrIncompleteInput)
	case in.LatestExecutionHeaderData == nil || in.LatestExecutionHeaderData.Proof == nil:
		return fmt.Errorf("%w: missing execution header data", ErrIncompleteInput)
	case in.ValidatorsAndBalances == nil:
		return fmt.Errorf("%w: missing validators and balances", ErrIncompleteInput)
	case in.OldLidoValidatorState == nil:
		return fmt.Errorf("%w: missing old lido validator state", ErrIncompleteInput)
	case in.WithdrawalVaultData == nil:
		return fmt.Errorf("%w: missing withdrawal vault data", ErrIncompleteInput)
	}
	vb := in.ValidatorsAndBalances
	switch {
	case vb.ValidatorsAndBalancesProof == nil:
		return fmt.Errorf("%w: missing validators and balances proof", ErrIncompleteInput)
	case vb.ValidatorsDelta == nil:
		return fmt.Errorf("%w: missing validators delta", ErrIncompleteInput)
	case vb.AddedValidatorsInclusionProof == nil || vb.ChangedValidatorsInclusionProof == nil:
		return fmt.Errorf("%w: missing validator inclusion proofs", ErrIncompleteInput)
	}
	return nil
}

// EncodeProgramInput serializes the input into its SSZ wire format.
func EncodeProgramInput(in *ProgramInput) ([]byte, error) {
	return ssz.Encode(in)
}

// DecodeProgramInput parses an SSZ encoded program input.
func DecodeProgramInput(blob []byte) (*ProgramInput, error) {
	in := new(ProgramInput)
	if err := ssz.DecodeFromBytes(blob, in); err != nil {
		return nil, err
	}
	return in, nil
}
