// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"errors"
	"testing"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/lido"
)

func TestExecute(t *testing.T) {
	oldState, newState, vault := newTestSnapshots(t)
	in, err := BuildProgramInput(newTestParams(oldState, newState, vault))
	if err != nil {
		t.Fatalf("failed to build program input: %v", err)
	}
	pv, err := Execute(in, lido.Strict)
	if err != nil {
		t.Fatalf("failed to execute program: %v", err)
	}
	// Cross check the figures against a full registry scan
	want, err := lido.ComputeReport(newState.Slot, newState.Validators, newState.Balances, testCredentials)
	if err != nil {
		t.Fatalf("failed to compute reference report: %v", err)
	}
	if have := pv.Report.DepositedLidoValidators; have != want.DepositedLidoValidators || have != 4 {
		t.Errorf("deposited count mismatch: have %d, want %d", have, want.DepositedLidoValidators)
	}
	if have := pv.Report.ExitedLidoValidators; have != want.ExitedLidoValidators || have != 1 {
		t.Errorf("exited count mismatch: have %d, want %d", have, want.ExitedLidoValidators)
	}
	if have := pv.Report.LidoClBalance; have != uint64(want.LidoClBalance) {
		t.Errorf("balance mismatch: have %d, want %d", have, want.LidoClBalance)
	}
	if have, want := pv.Report.ReferenceSlot, uint64(testRefSlot); have != want {
		t.Errorf("reference slot mismatch: have %d, want %d", have, want)
	}
	if have, want := pv.Report.LidoWithdrawalVaultBalance, testVaultBalance.ToBig(); have.Cmp(want) != 0 {
		t.Errorf("vault balance mismatch: have %v, want %v", have, want)
	}
	// Check the state commitments
	meta := pv.Metadata
	if have, want := meta.Epoch, uint64(testNewSlot.Epoch()); have != want {
		t.Errorf("epoch mismatch: have %d, want %d", have, want)
	}
	if have, want := meta.StateForPreviousReport.Slot, uint64(testOldSlot); have != want {
		t.Errorf("previous state slot mismatch: have %d, want %d", have, want)
	}
	if have, want := meta.NewState.MerkleRoot, in.NewLidoValidatorStateHash; have != want {
		t.Errorf("new state root mismatch: have %x, want %x", have, want)
	}
	tracked, err := lido.ComputeState(newState, testCredentials)
	if err != nil {
		t.Fatalf("failed to compute tracked state: %v", err)
	}
	if have, want := meta.NewState.MerkleRoot, tracked.HashTreeRoot(); have != want {
		t.Errorf("merged state differs from scanned state: have %x, want %x", have, want)
	}
	if meta.BeaconBlockHash != in.BeaconBlockHash {
		t.Errorf("block hash mismatch: have %x, want %x", meta.BeaconBlockHash, in.BeaconBlockHash)
	}
	if meta.WithdrawalVaultData.VaultAddress != testVault {
		t.Errorf("vault address mismatch: have %v, want %v", meta.WithdrawalVaultData.VaultAddress, testVault)
	}
}

// Tests that a report can be chained onto the state of a previous report.
func TestExecuteChained(t *testing.T) {
	oldState, newState, vault := newTestSnapshots(t)

	params := newTestParams(oldState, newState, vault)
	first, err := Execute(mustBuild(t, params), lido.Strict)
	if err != nil {
		t.Fatalf("failed to execute first report: %v", err)
	}
	// Advance the chain by 20 epochs, with validator 0 exiting in between
	next := &consensus.BeaconStateDeneb{
		Slot:                         newState.Slot + 20*consensus.SlotsPerEpoch,
		Validators:                   make([]*consensus.Validator, len(newState.Validators)),
		Balances:                     append([]consensus.Gwei(nil), newState.Balances...),
		LatestExecutionPayloadHeader: newState.LatestExecutionPayloadHeader,
	}
	for i, v := range newState.Validators {
		c := *v
		next.Validators[i] = &c
	}
	next.Validators[0].ExitEpoch = newState.Slot.Epoch() + 5

	tracked, err := lido.ComputeState(newState, testCredentials)
	if err != nil {
		t.Fatalf("failed to compute tracked state: %v", err)
	}
	params = newTestParams(newState, next, vault)
	params.ReferenceSlot = next.Slot
	params.OldLidoState = tracked

	in := mustBuild(t, params)
	second, err := Execute(in, lido.Strict)
	if err != nil {
		t.Fatalf("failed to execute second report: %v", err)
	}
	if second.Metadata.StateForPreviousReport != first.Metadata.NewState {
		t.Errorf("report chain broken: have %+v, want %+v", second.Metadata.StateForPreviousReport, first.Metadata.NewState)
	}
	if have, want := second.Report.ExitedLidoValidators, uint64(2); have != want {
		t.Errorf("exited count mismatch: have %d, want %d", have, want)
	}
	if have, want := second.Report.DepositedLidoValidators, uint64(4); have != want {
		t.Errorf("deposited count mismatch: have %d, want %d", have, want)
	}
	if have, want := len(in.ValidatorsAndBalances.ValidatorsDelta.AllAdded), 0; have != want {
		t.Errorf("added count mismatch: have %d, want %d", have, want)
	}
}

func TestExecuteNewStateHashMismatch(t *testing.T) {
	in := newTestInput(t)
	in.NewLidoValidatorStateHash[0] ^= 0x01

	if _, err := Execute(in, lido.Strict); !errors.Is(err, ErrNewStateHashMismatch) {
		t.Fatalf("error mismatch: have %v, want %v", err, ErrNewStateHashMismatch)
	}
}

func TestBuildHeaderStateMismatch(t *testing.T) {
	oldState, newState, vault := newTestSnapshots(t)

	params := newTestParams(oldState, newState, vault)
	params.Header.StateRoot[0] ^= 0x01
	if _, err := BuildProgramInput(params); !errors.Is(err, ErrHeaderStateMismatch) {
		t.Fatalf("error mismatch: have %v, want %v", err, ErrHeaderStateMismatch)
	}
}

func mustBuild(t *testing.T, params *BuildParams) *ProgramInput {
	t.Helper()

	in, err := BuildProgramInput(params)
	if err != nil {
		t.Fatalf("failed to build program input: %v", err)
	}
	return in
}
