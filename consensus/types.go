// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package consensus contains the beacon chain containers the report prover
// reads, with their SSZ schemas and Merkle field layouts.
package consensus

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// Mainnet preset values used by the container schemas.
const (
	SlotsPerEpoch              = 32
	SlotsPerHistoricalRoot     = 8192
	EpochsPerHistoricalVector  = 65536
	EpochsPerSlashingsVector   = 8192
	HistoricalRootsLimit       = 1 << 24
	Eth1DataVotesLimit         = 64 * SlotsPerEpoch
	ValidatorRegistryLimit     = 1 << 40
	SyncCommitteeSize          = 512
	MaxExtraDataBytes          = 32
	PendingDepositsLimit       = 1 << 27
	PendingPartialWithdrawals  = 1 << 27
	PendingConsolidationsLimit = 1 << 18
)

// ValidatorsListDepth is the depth of the validator registry tree before the
// length is mixed in.
const ValidatorsListDepth = 40

// FarFutureEpoch is the epoch assigned to validator lifecycle events that have
// not been scheduled yet.
const FarFutureEpoch = Epoch(1<<64 - 1)

// ErrUnsupportedFork is returned when a beacon state of an unknown fork is
// requested or parsed.
var ErrUnsupportedFork = errors.New("consensus: unsupported fork")

// Slot is a beacon chain slot number.
type Slot uint64

// Epoch returns the epoch the slot belongs to.
func (s Slot) Epoch() Epoch {
	return Epoch(s / SlotsPerEpoch)
}

// Epoch is a beacon chain epoch number.
type Epoch uint64

// StartSlot returns the first slot of the epoch.
func (e Epoch) StartSlot() Slot {
	return Slot(e * SlotsPerEpoch)
}

// ValidatorIndex is a position in the validator registry. Indices are append
// only and never reordered.
type ValidatorIndex uint64

// Gwei is an amount of ether denominated in gwei.
type Gwei uint64

// Root is a 32 byte Merkle root.
type Root = common.Hash

// BLSPubkey is a compressed BLS12-381 public key.
type BLSPubkey [48]byte

// BLSSignature is a compressed BLS12-381 signature.
type BLSSignature [96]byte

// Version is a fork version identifier.
type Version [4]byte
