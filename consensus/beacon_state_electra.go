// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// BeaconStateElectra is the beacon state schema introduced by the Electra fork.
// It appends the deposit, exit and consolidation queues to the Deneb fields.
type BeaconStateElectra struct {
	BeaconStateDeneb

	DepositRequestsStartIndex     uint64
	DepositBalanceToConsume       Gwei
	ExitBalanceToConsume          Gwei
	EarliestExitEpoch             Epoch
	ConsolidationBalanceToConsume Gwei
	EarliestConsolidationEpoch    Epoch
	PendingDeposits               []*PendingDeposit
	PendingPartialWithdrawals     []*PendingPartialWithdrawal
	PendingConsolidations         []*PendingConsolidation
}

const electraStaticSize = denebStaticSize + 6*8 + 3*4

func (s *BeaconStateElectra) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	if fixed {
		return electraStaticSize
	}
	size := uint32(electraStaticSize) + s.BeaconStateDeneb.dynamicSize(siz)
	size += ssz.SizeSliceOfStaticObjects(siz, s.PendingDeposits)
	size += ssz.SizeSliceOfStaticObjects(siz, s.PendingPartialWithdrawals)
	size += ssz.SizeSliceOfStaticObjects(siz, s.PendingConsolidations)
	return size
}

func (s *BeaconStateElectra) DefineSSZ(codec *ssz.Codec) {
	// Define the static data (fields and dynamic offsets)
	s.BeaconStateDeneb.defineStatic(codec)
	ssz.DefineUint64(codec, &s.DepositRequestsStartIndex)
	ssz.DefineUint64(codec, &s.DepositBalanceToConsume)
	ssz.DefineUint64(codec, &s.ExitBalanceToConsume)
	ssz.DefineUint64(codec, &s.EarliestExitEpoch)
	ssz.DefineUint64(codec, &s.ConsolidationBalanceToConsume)
	ssz.DefineUint64(codec, &s.EarliestConsolidationEpoch)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.PendingDeposits, PendingDepositsLimit)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.PendingPartialWithdrawals, PendingPartialWithdrawals)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &s.PendingConsolidations, PendingConsolidationsLimit)

	// Define the dynamic data (fields)
	s.BeaconStateDeneb.defineDynamic(codec)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.PendingDeposits, PendingDepositsLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.PendingPartialWithdrawals, PendingPartialWithdrawals)
	ssz.DefineSliceOfStaticObjectsContent(codec, &s.PendingConsolidations, PendingConsolidationsLimit)
}

// Variant returns the fork whose schema the state follows.
func (s *BeaconStateElectra) Variant() Fork { return ForkElectra }

// HashTreeRoot returns the SSZ Merkle root of the state.
func (s *BeaconStateElectra) HashTreeRoot() common.Hash { return ssz.HashSequential(s) }

// FieldRoots returns the field-hash projection of the state.
func (s *BeaconStateElectra) FieldRoots() *BeaconStateFields {
	return &BeaconStateFields{Fork: ForkElectra, Roots: ssz.HashFields(s)}
}
