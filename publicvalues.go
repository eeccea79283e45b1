// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Report is the consensus-layer report the oracle contract accepts.
type Report struct {
	ReferenceSlot              uint64
	DepositedLidoValidators    uint64
	ExitedLidoValidators       uint64
	LidoClBalance              uint64 // gwei
	LidoWithdrawalVaultBalance *big.Int
}

// ValidatorStateCommitment is the on-chain commitment to a tracked Lido
// validator state.
type ValidatorStateCommitment struct {
	Slot       uint64
	MerkleRoot [32]byte
}

// WithdrawalVault is the proven balance of the withdrawal vault.
type WithdrawalVault struct {
	VaultAddress common.Address
	Balance      *big.Int
}

// ReportMetadata is the context the report was proven in, which the contract
// checks against its own records.
type ReportMetadata struct {
	BcSlot                    uint64
	Epoch                     uint64
	LidoWithdrawalCredentials [32]byte
	BeaconBlockHash           [32]byte
	StateForPreviousReport    ValidatorStateCommitment
	NewState                  ValidatorStateCommitment
	WithdrawalVaultData       WithdrawalVault
}

// PublicValues is the output committed by the program.
type PublicValues struct {
	Report   Report
	Metadata ReportMetadata
}

var publicValuesArgs = abi.Arguments{
	{Name: "report", Type: mustTupleType("struct Report", []abi.ArgumentMarshaling{
		{Name: "reference_slot", Type: "uint64"},
		{Name: "deposited_lido_validators", Type: "uint64"},
		{Name: "exited_lido_validators", Type: "uint64"},
		{Name: "lido_cl_balance", Type: "uint64"},
		{Name: "lido_withdrawal_vault_balance", Type: "uint256"},
	})},
	{Name: "metadata", Type: mustTupleType("struct ReportMetadata", []abi.ArgumentMarshaling{
		{Name: "bc_slot", Type: "uint64"},
		{Name: "epoch", Type: "uint64"},
		{Name: "lido_withdrawal_credentials", Type: "bytes32"},
		{Name: "beacon_block_hash", Type: "bytes32"},
		{Name: "state_for_previous_report", Type: "tuple", InternalType: "struct LidoValidatorState", Components: stateCommitmentComponents},
		{Name: "new_state", Type: "tuple", InternalType: "struct LidoValidatorState", Components: stateCommitmentComponents},
		{Name: "withdrawal_vault_data", Type: "tuple", InternalType: "struct WithdrawalVaultData", Components: []abi.ArgumentMarshaling{
			{Name: "vault_address", Type: "address"},
			{Name: "balance", Type: "uint256"},
		}},
	})},
}

var stateCommitmentComponents = []abi.ArgumentMarshaling{
	{Name: "slot", Type: "uint64"},
	{Name: "merkle_root", Type: "bytes32"},
}

func mustTupleType(internal string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType("tuple", internal, components)
	if err != nil {
		panic(err)
	}
	return typ
}

// Pack ABI encodes the public values as the (report, metadata) tuple pair.
func (pv *PublicValues) Pack() ([]byte, error) {
	report, meta := pv.Report, pv.Metadata
	if report.LidoWithdrawalVaultBalance == nil {
		report.LidoWithdrawalVaultBalance = new(big.Int)
	}
	if meta.WithdrawalVaultData.Balance == nil {
		meta.WithdrawalVaultData.Balance = new(big.Int)
	}
	return publicValuesArgs.Pack(report, meta)
}

// UnpackPublicValues decodes ABI encoded public values.
func UnpackPublicValues(data []byte) (*PublicValues, error) {
	values, err := publicValuesArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack public values: %w", err)
	}
	pv := new(PublicValues)
	if err := publicValuesArgs.Copy(pv, values); err != nil {
		return nil, fmt.Errorf("failed to copy public values: %w", err)
	}
	return pv, nil
}
