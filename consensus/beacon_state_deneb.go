// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/go-bitfield"
)

// BeaconStateDeneb is the beacon state schema introduced by the Deneb fork.
type BeaconStateDeneb struct {
	GenesisTime                  uint64
	GenesisValidatorsRoot        Root
	Slot                         Slot
	Fork                         *ForkData
	LatestBlockHeader            *BeaconBlockHeader
	BlockRoots                   [SlotsPerHistoricalRoot]Root
	StateRoots                   [SlotsPerHistoricalRoot]Root
	HistoricalRoots              []Root
	Eth1Data                     *Eth1Data
	Eth1DataVotes                []*Eth1Data
	Eth1DepositIndex             uint64
	Validators                   []*Validator
	Balances                     []Gwei
	RandaoMixes                  [EpochsPerHistoricalVector]common.Hash
	Slashings                    [EpochsPerSlashingsVector]Gwei
	PreviousEpochParticipation   []byte
	CurrentEpochParticipation    []byte
	JustificationBits            bitfield.Bitvector4
	PreviousJustifiedCheckpoint  *Checkpoint
	CurrentJustifiedCheckpoint   *Checkpoint
	FinalizedCheckpoint          *Checkpoint
	InactivityScores             []uint64
	CurrentSyncCommittee         *SyncCommittee
	NextSyncCommittee            *SyncCommittee
	LatestExecutionPayloadHeader *ExecutionPayloadHeader
	NextWithdrawalIndex          uint64
	NextWithdrawalValidatorIndex ValidatorIndex
	HistoricalSummaries          []*HistoricalSummary
}

// denebStaticSize is the size of the fixed part of a Deneb beacon state.
const denebStaticSize = 8 + 32 + 8 + 16 + 112 + SlotsPerHistoricalRoot*32*2 + 4 + 72 + 4 + 8 + 4 + 4 +
	EpochsPerHistoricalVector*32 + EpochsPerSlashingsVector*8 + 4 + 4 + 1 + 40*3 + 4 +
	(SyncCommitteeSize*48+48)*2 + 4 + 8 + 8 + 4

func (s *BeaconStateDeneb) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	if fixed {
		return denebStaticSize
	}
	return denebStaticSize + s.dynamicSize(siz)
}

// dynamicSize returns the size of the dynamic fields of the Deneb schema.
func (s *BeaconStateDeneb) dynamicSize(siz *ssz.Sizer) uint32 {
	size := ssz.SizeSliceOfStaticBytes(siz, s.HistoricalRoots)
	size += ssz.SizeSliceOfStaticObjects(siz, s.Eth1DataVotes)
	size += ssz.SizeSliceOfStaticObjects(siz, s.Validators)
	size += ssz.SizeSliceOfUint64s(siz, s.Balances)
	size += ssz.SizeDynamicBytes(siz, s.PreviousEpochParticipation)
	size += ssz.SizeDynamicBytes(siz, s.CurrentEpochParticipation)
	size += ssz.SizeSliceOfUint64s(siz, s.InactivityScores)
	size += ssz.SizeDynamicObject(siz, s.LatestExecutionPayloadHeader)
	size += ssz.SizeSliceOfStaticObjects(siz, s.HistoricalSummaries)
	return size
}

func (s *BeaconStateDeneb) DefineSSZ(codec *ssz.Codec) {
	s.defineStatic(codec)
	s.defineDynamic(codec)
}

// defineStatic defines the fields and dynamic offsets of the Deneb schema.
func (s *BeaconStateDeneb) defineStatic(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &s.GenesisTime)
	ssz.DefineStaticBytes(codec, &s.GenesisValidatorsRoot)
	ssz.DefineUint64(codec, &s.Slot)
	ssz.DefineStaticObject(codec, &s.Fork)
	ssz.DefineStaticObject(codec, &s.LatestBlockHeader)
	ssz.DefineUnsafeArrayOfStaticBytes(codec, s.BlockRoots[:])
	ssz.DefineUnsafeArrayOfStaticBytes(codec, s.StateRoots[:])
	ssz.DefineSliceOfStaticBytesOffset(codec, &s.HistoricalRoots, HistoricalRootsLimit)
	ssz.DefineStaticObject(codec, &s.Eth1Data)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.Eth1DataVotes, Eth1DataVotesLimit)
	ssz.DefineUint64(codec, &s.Eth1DepositIndex)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.Validators, ValidatorRegistryLimit)
	ssz.DefineSliceOfUint64sOffset(codec, &s.Balances, ValidatorRegistryLimit)
	ssz.DefineUnsafeArrayOfStaticBytes(codec, s.RandaoMixes[:])
	ssz.DefineUnsafeArrayOfUint64s(codec, s.Slashings[:])
	ssz.DefineDynamicBytesOffset(codec, &s.PreviousEpochParticipation, ValidatorRegistryLimit)
	ssz.DefineDynamicBytesOffset(codec, &s.CurrentEpochParticipation, ValidatorRegistryLimit)
	ssz.DefineCheckedStaticBytes(codec, (*[]byte)(&s.JustificationBits), 1)
	ssz.DefineStaticObject(codec, &s.PreviousJustifiedCheckpoint)
	ssz.DefineStaticObject(codec, &s.CurrentJustifiedCheckpoint)
	ssz.DefineStaticObject(codec, &s.FinalizedCheckpoint)
	ssz.DefineSliceOfUint64sOffset(codec, &s.InactivityScores, ValidatorRegistryLimit)
	ssz.DefineStaticObject(codec, &s.CurrentSyncCommittee)
	ssz.DefineStaticObject(codec, &s.NextSyncCommittee)
	ssz.DefineDynamicObjectOffset(codec, &s.LatestExecutionPayloadHeader)
	ssz.DefineUint64(codec, &s.NextWithdrawalIndex)
	ssz.DefineUint64(codec, &s.NextWithdrawalValidatorIndex)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.HistoricalSummaries, HistoricalRootsLimit)
}

// defineDynamic defines the dynamic content of the Deneb schema.
func (s *BeaconStateDeneb) defineDynamic(codec *ssz.Codec) {
	ssz.DefineSliceOfStaticBytesContent(codec, &s.HistoricalRoots, HistoricalRootsLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.Eth1DataVotes, Eth1DataVotesLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.Validators, ValidatorRegistryLimit)
	ssz.DefineSliceOfUint64sContent(codec, &s.Balances, ValidatorRegistryLimit)
	ssz.DefineDynamicBytesContent(codec, &s.PreviousEpochParticipation, ValidatorRegistryLimit)
	ssz.DefineDynamicBytesContent(codec, &s.CurrentEpochParticipation, ValidatorRegistryLimit)
	ssz.DefineSliceOfUint64sContent(codec, &s.InactivityScores, ValidatorRegistryLimit)
	ssz.DefineDynamicObjectContent(codec, &s.LatestExecutionPayloadHeader)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.HistoricalSummaries, HistoricalRootsLimit)
}

func (s *BeaconStateDeneb) isBeaconState() {}

// Variant returns the fork whose schema the state follows.
func (s *BeaconStateDeneb) Variant() Fork { return ForkDeneb }

// CurrentSlot returns the slot of the state.
func (s *BeaconStateDeneb) CurrentSlot() Slot { return s.Slot }

// ValidatorRegistry returns the full validator list.
func (s *BeaconStateDeneb) ValidatorRegistry() []*Validator { return s.Validators }

// ValidatorBalances returns the balance of every validator.
func (s *BeaconStateDeneb) ValidatorBalances() []Gwei { return s.Balances }

// ExecutionPayloadHeader returns the header of the latest execution payload.
func (s *BeaconStateDeneb) ExecutionPayloadHeader() *ExecutionPayloadHeader {
	return s.LatestExecutionPayloadHeader
}

// HashTreeRoot returns the SSZ Merkle root of the state.
func (s *BeaconStateDeneb) HashTreeRoot() common.Hash { return ssz.HashSequential(s) }

// FieldRoots returns the field-hash projection of the state.
func (s *BeaconStateDeneb) FieldRoots() *BeaconStateFields {
	return &BeaconStateFields{Fork: ForkDeneb, Roots: ssz.HashFields(s)}
}
