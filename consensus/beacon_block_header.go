// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// Field positions of the beacon block header container.
const (
	BeaconBlockHeaderSlotIndex = iota
	BeaconBlockHeaderProposerIndex
	BeaconBlockHeaderParentRootIndex
	BeaconBlockHeaderStateRootIndex
	BeaconBlockHeaderBodyRootIndex
)

// BeaconBlockHeader is the summary of a beacon block, committing to the post
// state root of the block.
type BeaconBlockHeader struct {
	Slot          Slot
	ProposerIndex ValidatorIndex
	ParentRoot    Root
	StateRoot     Root
	BodyRoot      Root
}

func (h *BeaconBlockHeader) SizeSSZ(siz *ssz.Sizer) uint32 { return 112 }
func (h *BeaconBlockHeader) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &h.Slot)
	ssz.DefineUint64(codec, &h.ProposerIndex)
	ssz.DefineStaticBytes(codec, &h.ParentRoot)
	ssz.DefineStaticBytes(codec, &h.StateRoot)
	ssz.DefineStaticBytes(codec, &h.BodyRoot)
}

// HashTreeRoot returns the SSZ Merkle root of the header, which is the block
// root of the block it summarizes.
func (h *BeaconBlockHeader) HashTreeRoot() common.Hash {
	return ssz.HashSequential(h)
}
