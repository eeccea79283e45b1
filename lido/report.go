// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"fmt"
	"math/bits"

	"github.com/clproof/lidoreport/consensus"
	"github.com/ethereum/go-ethereum/common"
)

// ReportData is the Lido consensus-layer summary as of some slot.
type ReportData struct {
	Slot                      consensus.Slot
	Epoch                     consensus.Epoch
	LidoWithdrawalCredentials common.Hash
	DepositedLidoValidators   uint64
	ExitedLidoValidators      uint64
	LidoClBalance             consensus.Gwei
}

// ComputeReport aggregates the report by scanning the full registry. Exited
// validators count as deposited too, and their balance is included.
func ComputeReport(slot consensus.Slot, validators []*consensus.Validator, balances []consensus.Gwei, credentials common.Hash) (*ReportData, error) {
	if len(validators) != len(balances) {
		return nil, fmt.Errorf("%w: %d validators, %d balances", ErrBalanceCountMismatch, len(validators), len(balances))
	}
	var (
		epoch = slot.Epoch()
		sum   uint64
		carry uint64
		res   = &ReportData{
			Slot:                      slot,
			Epoch:                     epoch,
			LidoWithdrawalCredentials: credentials,
		}
	)
	for i, v := range validators {
		if !IsLido(v, credentials) {
			continue
		}
		status := StatusOf(v, epoch)
		if status == FutureDeposit {
			continue
		}
		res.DepositedLidoValidators++
		if status == Exited {
			res.ExitedLidoValidators++
		}
		if sum, carry = bits.Add64(sum, uint64(balances[i]), 0); carry != 0 {
			return nil, fmt.Errorf("%w: at validator %d", ErrBalanceOverflow, i)
		}
	}
	res.LidoClBalance = consensus.Gwei(sum)
	return res, nil
}

// ComputeReportFromState aggregates the report from the tracked state's index
// lists, without touching the validators themselves.
func ComputeReportFromState(state *ValidatorState, balances []consensus.Gwei, credentials common.Hash) (*ReportData, error) {
	var (
		sum   uint64
		carry uint64
	)
	for _, index := range state.DepositedLidoValidatorIndices {
		if uint64(index) >= uint64(len(balances)) {
			return nil, fmt.Errorf("%w: index %d, balances %d", ErrBalanceIndexOutOfRange, index, len(balances))
		}
		if sum, carry = bits.Add64(sum, uint64(balances[index]), 0); carry != 0 {
			return nil, fmt.Errorf("%w: at validator %d", ErrBalanceOverflow, index)
		}
	}
	return &ReportData{
		Slot:                      state.Slot,
		Epoch:                     state.Epoch,
		LidoWithdrawalCredentials: credentials,
		DepositedLidoValidators:   uint64(len(state.DepositedLidoValidatorIndices)),
		ExitedLidoValidators:      uint64(len(state.ExitedLidoValidatorIndices)),
		LidoClBalance:             consensus.Gwei(sum),
	}, nil
}
