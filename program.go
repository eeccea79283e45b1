// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"fmt"
	"math/big"

	"github.com/clproof/lidoreport/lido"
	"github.com/sirupsen/logrus"
)

// Execute runs the report program over an input: it verifies the input,
// advances the tracked Lido validator state and derives the report from it.
func Execute(in *ProgramInput, mode lido.Mode) (*PublicValues, error) {
	if err := NewInputVerifier(WithMode(mode)).Verify(in); err != nil {
		return nil, err
	}
	var (
		vb  = in.ValidatorsAndBalances
		old = in.OldLidoValidatorState
	)
	state, err := old.MergeDelta(in.BcSlot, vb.ValidatorsDelta, vb.LidoWithdrawalCredentials, mode)
	if err != nil {
		return nil, err
	}
	if hash := state.HashTreeRoot(); hash != in.NewLidoValidatorStateHash {
		return nil, fmt.Errorf("%w: have %x, want %x", ErrNewStateHashMismatch, hash, in.NewLidoValidatorStateHash)
	}
	report, err := lido.ComputeReportFromState(state, vb.Balances, vb.LidoWithdrawalCredentials)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"refslot":   in.ReferenceSlot,
		"slot":      report.Slot,
		"deposited": report.DepositedLidoValidators,
		"exited":    report.ExitedLidoValidators,
		"balance":   report.LidoClBalance,
	}).Info("Computed Lido report")

	vault := new(big.Int)
	if balance := in.WithdrawalVaultData.Balance; balance != nil {
		vault = balance.ToBig()
	}
	return &PublicValues{
		Report: Report{
			ReferenceSlot:              uint64(in.ReferenceSlot),
			DepositedLidoValidators:    report.DepositedLidoValidators,
			ExitedLidoValidators:       report.ExitedLidoValidators,
			LidoClBalance:              uint64(report.LidoClBalance),
			LidoWithdrawalVaultBalance: vault,
		},
		Metadata: ReportMetadata{
			BcSlot:                    uint64(in.BcSlot),
			Epoch:                     uint64(report.Epoch),
			LidoWithdrawalCredentials: vb.LidoWithdrawalCredentials,
			BeaconBlockHash:           in.BeaconBlockHash,
			StateForPreviousReport: ValidatorStateCommitment{
				Slot:       uint64(old.Slot),
				MerkleRoot: old.HashTreeRoot(),
			},
			NewState: ValidatorStateCommitment{
				Slot:       uint64(state.Slot),
				MerkleRoot: state.HashTreeRoot(),
			},
			WithdrawalVaultData: WithdrawalVault{
				VaultAddress: in.WithdrawalVaultData.VaultAddress,
				Balance:      vault,
			},
		},
	}, nil
}
