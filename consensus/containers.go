// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// ForkData is the fork versioning information embedded in the beacon state.
type ForkData struct {
	PreviousVersion Version
	CurrentVersion  Version
	Epoch           Epoch
}

func (f *ForkData) SizeSSZ(siz *ssz.Sizer) uint32 { return 16 }
func (f *ForkData) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &f.PreviousVersion)
	ssz.DefineStaticBytes(codec, &f.CurrentVersion)
	ssz.DefineUint64(codec, &f.Epoch)
}

type Checkpoint struct {
	Epoch Epoch
	Root  Root
}

func (c *Checkpoint) SizeSSZ(siz *ssz.Sizer) uint32 { return 40 }
func (c *Checkpoint) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &c.Epoch)
	ssz.DefineStaticBytes(codec, &c.Root)
}

type Eth1Data struct {
	DepositRoot  Root
	DepositCount uint64
	BlockHash    common.Hash
}

func (d *Eth1Data) SizeSSZ(siz *ssz.Sizer) uint32 { return 72 }
func (d *Eth1Data) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &d.DepositRoot)
	ssz.DefineUint64(codec, &d.DepositCount)
	ssz.DefineStaticBytes(codec, &d.BlockHash)
}

type SyncCommittee struct {
	Pubkeys         [SyncCommitteeSize]BLSPubkey
	AggregatePubkey BLSPubkey
}

func (s *SyncCommittee) SizeSSZ(siz *ssz.Sizer) uint32 { return SyncCommitteeSize*48 + 48 }
func (s *SyncCommittee) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUnsafeArrayOfStaticBytes(codec, s.Pubkeys[:])
	ssz.DefineStaticBytes(codec, &s.AggregatePubkey)
}

type HistoricalSummary struct {
	BlockSummaryRoot Root
	StateSummaryRoot Root
}

func (h *HistoricalSummary) SizeSSZ(siz *ssz.Sizer) uint32 { return 64 }
func (h *HistoricalSummary) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &h.BlockSummaryRoot)
	ssz.DefineStaticBytes(codec, &h.StateSummaryRoot)
}

type PendingDeposit struct {
	Pubkey                BLSPubkey
	WithdrawalCredentials common.Hash
	Amount                Gwei
	Signature             BLSSignature
	Slot                  Slot
}

func (d *PendingDeposit) SizeSSZ(siz *ssz.Sizer) uint32 { return 48 + 32 + 8 + 96 + 8 }
func (d *PendingDeposit) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &d.Pubkey)
	ssz.DefineStaticBytes(codec, &d.WithdrawalCredentials)
	ssz.DefineUint64(codec, &d.Amount)
	ssz.DefineStaticBytes(codec, &d.Signature)
	ssz.DefineUint64(codec, &d.Slot)
}

type PendingPartialWithdrawal struct {
	ValidatorIndex    ValidatorIndex
	Amount            Gwei
	WithdrawableEpoch Epoch
}

func (w *PendingPartialWithdrawal) SizeSSZ(siz *ssz.Sizer) uint32 { return 24 }
func (w *PendingPartialWithdrawal) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &w.ValidatorIndex)
	ssz.DefineUint64(codec, &w.Amount)
	ssz.DefineUint64(codec, &w.WithdrawableEpoch)
}

type PendingConsolidation struct {
	SourceIndex ValidatorIndex
	TargetIndex ValidatorIndex
}

func (c *PendingConsolidation) SizeSSZ(siz *ssz.Sizer) uint32 { return 16 }
func (c *PendingConsolidation) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &c.SourceIndex)
	ssz.DefineUint64(codec, &c.TargetIndex)
}
