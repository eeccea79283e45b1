// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"math/big"
	"testing"

	"github.com/clproof/lidoreport/lido"
	"github.com/ethereum/go-ethereum/common"
)

func TestPublicValuesRoundTrip(t *testing.T) {
	balance, _ := new(big.Int).SetString("4200000000000000000000", 10)

	pv := &PublicValues{
		Report: Report{
			ReferenceSlot:              9_000_005,
			DepositedLidoValidators:    312_456,
			ExitedLidoValidators:       4_321,
			LidoClBalance:              9_876_543_210_000_000,
			LidoWithdrawalVaultBalance: balance,
		},
		Metadata: ReportMetadata{
			BcSlot:                    9_000_000,
			Epoch:                     281_250,
			LidoWithdrawalCredentials: testCredentials,
			BeaconBlockHash:           common.HexToHash("0x1234"),
			StateForPreviousReport: ValidatorStateCommitment{
				Slot:       8_992_800,
				MerkleRoot: common.HexToHash("0xaaaa"),
			},
			NewState: ValidatorStateCommitment{
				Slot:       9_000_000,
				MerkleRoot: common.HexToHash("0xbbbb"),
			},
			WithdrawalVaultData: WithdrawalVault{
				VaultAddress: testVault,
				Balance:      balance,
			},
		},
	}
	blob, err := pv.Pack()
	if err != nil {
		t.Fatalf("failed to pack public values: %v", err)
	}
	// Two static tuples of 5 and 10 words
	if have, want := len(blob), 15*32; have != want {
		t.Errorf("encoded length mismatch: have %d, want %d", have, want)
	}
	dec, err := UnpackPublicValues(blob)
	if err != nil {
		t.Fatalf("failed to unpack public values: %v", err)
	}
	checkPublicValues(t, dec, pv)
}

func TestPublicValuesFromExecution(t *testing.T) {
	pv, err := Execute(newTestInput(t), lido.Strict)
	if err != nil {
		t.Fatalf("failed to execute program: %v", err)
	}
	blob, err := pv.Pack()
	if err != nil {
		t.Fatalf("failed to pack public values: %v", err)
	}
	dec, err := UnpackPublicValues(blob)
	if err != nil {
		t.Fatalf("failed to unpack public values: %v", err)
	}
	checkPublicValues(t, dec, pv)
}

func TestPublicValuesNilBalances(t *testing.T) {
	blob, err := new(PublicValues).Pack()
	if err != nil {
		t.Fatalf("failed to pack empty public values: %v", err)
	}
	dec, err := UnpackPublicValues(blob)
	if err != nil {
		t.Fatalf("failed to unpack empty public values: %v", err)
	}
	if dec.Report.LidoWithdrawalVaultBalance.Sign() != 0 {
		t.Errorf("vault balance mismatch: have %v, want 0", dec.Report.LidoWithdrawalVaultBalance)
	}
	if _, err := UnpackPublicValues(blob[:len(blob)-1]); err == nil {
		t.Errorf("truncated public values unpacked")
	}
}

func checkPublicValues(t *testing.T, have, want *PublicValues) {
	t.Helper()

	hr, wr := have.Report, want.Report
	if hr.ReferenceSlot != wr.ReferenceSlot || hr.DepositedLidoValidators != wr.DepositedLidoValidators ||
		hr.ExitedLidoValidators != wr.ExitedLidoValidators || hr.LidoClBalance != wr.LidoClBalance {
		t.Errorf("report mismatch: have %+v, want %+v", hr, wr)
	}
	if hr.LidoWithdrawalVaultBalance.Cmp(wr.LidoWithdrawalVaultBalance) != 0 {
		t.Errorf("report vault balance mismatch: have %v, want %v", hr.LidoWithdrawalVaultBalance, wr.LidoWithdrawalVaultBalance)
	}
	hm, wm := have.Metadata, want.Metadata
	if hm.BcSlot != wm.BcSlot || hm.Epoch != wm.Epoch {
		t.Errorf("slot mismatch: have %d/%d, want %d/%d", hm.BcSlot, hm.Epoch, wm.BcSlot, wm.Epoch)
	}
	if hm.LidoWithdrawalCredentials != wm.LidoWithdrawalCredentials || hm.BeaconBlockHash != wm.BeaconBlockHash {
		t.Errorf("hash mismatch: have %x/%x, want %x/%x", hm.LidoWithdrawalCredentials, hm.BeaconBlockHash, wm.LidoWithdrawalCredentials, wm.BeaconBlockHash)
	}
	if hm.StateForPreviousReport != wm.StateForPreviousReport || hm.NewState != wm.NewState {
		t.Errorf("state commitment mismatch: have %+v/%+v, want %+v/%+v", hm.StateForPreviousReport, hm.NewState, wm.StateForPreviousReport, wm.NewState)
	}
	if hm.WithdrawalVaultData.VaultAddress != wm.WithdrawalVaultData.VaultAddress {
		t.Errorf("vault address mismatch: have %v, want %v", hm.WithdrawalVaultData.VaultAddress, wm.WithdrawalVaultData.VaultAddress)
	}
	if hm.WithdrawalVaultData.Balance.Cmp(wm.WithdrawalVaultData.Balance) != 0 {
		t.Errorf("vault balance mismatch: have %v, want %v", hm.WithdrawalVaultData.Balance, wm.WithdrawalVaultData.Balance)
	}
}
