// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Field positions of the execution payload header container.
const (
	ExecutionPayloadHeaderParentHashIndex = iota
	ExecutionPayloadHeaderFeeRecipientIndex
	ExecutionPayloadHeaderStateRootIndex
	ExecutionPayloadHeaderReceiptsRootIndex
	ExecutionPayloadHeaderLogsBloomIndex
	ExecutionPayloadHeaderPrevRandaoIndex
	ExecutionPayloadHeaderBlockNumberIndex
	ExecutionPayloadHeaderGasLimitIndex
	ExecutionPayloadHeaderGasUsedIndex
	ExecutionPayloadHeaderTimestampIndex
	ExecutionPayloadHeaderExtraDataIndex
	ExecutionPayloadHeaderBaseFeePerGasIndex
	ExecutionPayloadHeaderBlockHashIndex
	ExecutionPayloadHeaderTransactionsRootIndex
	ExecutionPayloadHeaderWithdrawalsRootIndex
	ExecutionPayloadHeaderBlobGasUsedIndex
	ExecutionPayloadHeaderExcessBlobGasIndex

	ExecutionPayloadHeaderFieldCount
)

// ExecutionPayloadHeader is the execution block summary kept in the beacon
// state since Deneb. The schema is unchanged in Electra.
type ExecutionPayloadHeader struct {
	ParentHash       common.Hash
	FeeRecipient     common.Address
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        [256]byte
	PrevRandao       common.Hash
	BlockNumber      uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	BaseFeePerGas    *uint256.Int
	BlockHash        common.Hash
	TransactionsRoot common.Hash
	WithdrawalsRoot  common.Hash
	BlobGasUsed      uint64
	ExcessBlobGas    uint64
}

func (h *ExecutionPayloadHeader) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(32 + 20 + 32 + 32 + 256 + 32 + 8 + 8 + 8 + 8 + 4 + 32 + 32 + 32 + 32 + 8 + 8)
	if fixed {
		return size
	}
	return size + ssz.SizeDynamicBytes(siz, h.ExtraData)
}

func (h *ExecutionPayloadHeader) DefineSSZ(codec *ssz.Codec) {
	// Define the static data (fields and dynamic offsets)
	ssz.DefineStaticBytes(codec, &h.ParentHash)
	ssz.DefineStaticBytes(codec, &h.FeeRecipient)
	ssz.DefineStaticBytes(codec, &h.StateRoot)
	ssz.DefineStaticBytes(codec, &h.ReceiptsRoot)
	ssz.DefineStaticBytes(codec, &h.LogsBloom)
	ssz.DefineStaticBytes(codec, &h.PrevRandao)
	ssz.DefineUint64(codec, &h.BlockNumber)
	ssz.DefineUint64(codec, &h.GasLimit)
	ssz.DefineUint64(codec, &h.GasUsed)
	ssz.DefineUint64(codec, &h.Timestamp)
	ssz.DefineDynamicBytesOffset(codec, &h.ExtraData, MaxExtraDataBytes)
	ssz.DefineUint256(codec, &h.BaseFeePerGas)
	ssz.DefineStaticBytes(codec, &h.BlockHash)
	ssz.DefineStaticBytes(codec, &h.TransactionsRoot)
	ssz.DefineStaticBytes(codec, &h.WithdrawalsRoot)
	ssz.DefineUint64(codec, &h.BlobGasUsed)
	ssz.DefineUint64(codec, &h.ExcessBlobGas)

	// Define the dynamic data (fields)
	ssz.DefineDynamicBytesContent(codec, &h.ExtraData, MaxExtraDataBytes)
}

// HashTreeRoot returns the SSZ Merkle root of the header.
func (h *ExecutionPayloadHeader) HashTreeRoot() common.Hash {
	return ssz.HashSequential(h)
}

// FieldRoots returns the Merkle root of every header field, in schema order.
func (h *ExecutionPayloadHeader) FieldRoots() []common.Hash {
	return ssz.HashFields(h)
}
