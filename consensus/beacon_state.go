// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"errors"
	"fmt"

	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// Field positions of the beacon state container shared by every supported fork.
const (
	BeaconStateGenesisTimeIndex = iota
	BeaconStateGenesisValidatorsRootIndex
	BeaconStateSlotIndex
	BeaconStateForkIndex
	BeaconStateLatestBlockHeaderIndex
	BeaconStateBlockRootsIndex
	BeaconStateStateRootsIndex
	BeaconStateHistoricalRootsIndex
	BeaconStateEth1DataIndex
	BeaconStateEth1DataVotesIndex
	BeaconStateEth1DepositIndexIndex
	BeaconStateValidatorsIndex
	BeaconStateBalancesIndex
	BeaconStateRandaoMixesIndex
	BeaconStateSlashingsIndex
	BeaconStatePreviousEpochParticipationIndex
	BeaconStateCurrentEpochParticipationIndex
	BeaconStateJustificationBitsIndex
	BeaconStatePreviousJustifiedCheckpointIndex
	BeaconStateCurrentJustifiedCheckpointIndex
	BeaconStateFinalizedCheckpointIndex
	BeaconStateInactivityScoresIndex
	BeaconStateCurrentSyncCommitteeIndex
	BeaconStateNextSyncCommitteeIndex
	BeaconStateLatestExecutionPayloadHeaderIndex
	BeaconStateNextWithdrawalIndexIndex
	BeaconStateNextWithdrawalValidatorIndexIndex
	BeaconStateHistoricalSummariesIndex
)

// maxBeaconStateFields caps the field-hash projection when decoding it.
const maxBeaconStateFields = 64

// ErrFieldCountMismatch is returned when a field-hash projection does not have
// the number of fields its fork demands.
var ErrFieldCountMismatch = errors.New("consensus: beacon state field count mismatch")

// BeaconStateFieldCount returns the number of top level fields of the beacon
// state in the given fork, or zero for unsupported forks.
func BeaconStateFieldCount(fork Fork) int {
	switch fork {
	case ForkDeneb:
		return 28
	case ForkElectra:
		return 37
	default:
		return 0
	}
}

// BeaconState is the closed set of beacon state schemas the prover reads. Every
// variant can project itself onto its field roots, which is all the verifier
// needs to authenticate individual fields.
type BeaconState interface {
	ssz.DynamicObject

	// Variant returns the fork whose schema the state follows.
	Variant() Fork

	// CurrentSlot returns the slot of the state.
	CurrentSlot() Slot

	// ValidatorRegistry returns the full validator list.
	ValidatorRegistry() []*Validator

	// ValidatorBalances returns the balance of every validator.
	ValidatorBalances() []Gwei

	// ExecutionPayloadHeader returns the header of the latest execution payload.
	ExecutionPayloadHeader() *ExecutionPayloadHeader

	// HashTreeRoot returns the SSZ Merkle root of the state.
	HashTreeRoot() common.Hash

	// FieldRoots returns the field-hash projection of the state.
	FieldRoots() *BeaconStateFields

	isBeaconState()
}

// NewBeaconState creates an empty beacon state of the given fork, ready to be
// decoded into.
func NewBeaconState(fork Fork) (BeaconState, error) {
	switch fork {
	case ForkDeneb:
		return new(BeaconStateDeneb), nil
	case ForkElectra:
		return new(BeaconStateElectra), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFork, fork)
	}
}

// DecodeBeaconState parses an SSZ encoded beacon state of the given fork.
func DecodeBeaconState(fork Fork, blob []byte) (BeaconState, error) {
	state, err := NewBeaconState(fork)
	if err != nil {
		return nil, err
	}
	if err := ssz.DecodeFromBytes(blob, state); err != nil {
		return nil, err
	}
	return state, nil
}

// BeaconStateFields is the field-hash projection of a beacon state: one root
// per top level field. Its Merkle root equals the root of the full state.
type BeaconStateFields struct {
	Fork  Fork
	Roots []common.Hash
}

func (f *BeaconStateFields) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(8 + 4)
	if fixed {
		return size
	}
	return size + ssz.SizeSliceOfStaticBytes(siz, f.Roots)
}

func (f *BeaconStateFields) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &f.Fork)
	ssz.DefineSliceOfStaticBytesOffset(codec, &f.Roots, maxBeaconStateFields)
	ssz.DefineSliceOfStaticBytesContent(codec, &f.Roots, maxBeaconStateFields)
}

// Validate checks that the projection has exactly the fields of its fork.
func (f *BeaconStateFields) Validate() error {
	want := BeaconStateFieldCount(f.Fork)
	if want == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFork, f.Fork)
	}
	if len(f.Roots) != want {
		return fmt.Errorf("%w: have %d, want %d", ErrFieldCountMismatch, len(f.Roots), want)
	}
	return nil
}

// HashTreeRoot merkleizes the field roots, which yields the beacon state root.
func (f *BeaconStateFields) HashTreeRoot() common.Hash {
	return ssz.MerkleizeRoots(f.Roots)
}

// Slot returns the root of the slot field.
func (f *BeaconStateFields) Slot() common.Hash {
	return f.Roots[BeaconStateSlotIndex]
}

// Validators returns the root of the validator registry field.
func (f *BeaconStateFields) Validators() common.Hash {
	return f.Roots[BeaconStateValidatorsIndex]
}

// Balances returns the root of the balances field.
func (f *BeaconStateFields) Balances() common.Hash {
	return f.Roots[BeaconStateBalancesIndex]
}

// LatestExecutionPayloadHeader returns the root of the latest execution
// payload header field.
func (f *BeaconStateFields) LatestExecutionPayloadHeader() common.Hash {
	return f.Roots[BeaconStateLatestExecutionPayloadHeaderIndex]
}

// HashBalances computes the SSZ root of a balances list as stored in the beacon
// state.
func HashBalances(balances []Gwei) common.Hash {
	return ssz.HashSequential(&balanceList{balances})
}

// HashValidatorList computes the SSZ root of a validator registry as stored in
// the beacon state.
func HashValidatorList(validators []*Validator) common.Hash {
	return ssz.HashSequential(&validatorList{validators})
}

// balanceList wraps a balance slice so it can be hashed on its own, outside of
// a beacon state container.
type balanceList struct {
	balances []Gwei
}

func (l *balanceList) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	if fixed {
		return 4
	}
	return 4 + ssz.SizeSliceOfUint64s(siz, l.balances)
}

func (l *balanceList) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineSliceOfUint64sOffset(codec, &l.balances, ValidatorRegistryLimit)
	ssz.DefineSliceOfUint64sContent(codec, &l.balances, ValidatorRegistryLimit)
}

// validatorList wraps a validator slice so it can be hashed on its own, outside
// of a beacon state container.
type validatorList struct {
	validators []*Validator
}

func (l *validatorList) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	if fixed {
		return 4
	}
	return 4 + ssz.SizeSliceOfStaticObjects(siz, l.validators)
}

func (l *validatorList) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineSliceOfStaticObjectsOffset(codec, &l.validators, ValidatorRegistryLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &l.validators, ValidatorRegistryLimit)
}
