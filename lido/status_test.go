// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"errors"
	"testing"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/errs"
)

// Tests that every validator maps to exactly one status at every epoch, and
// that the status never moves backwards as epochs advance.
func TestStatusTotalAndMonotonic(t *testing.T) {
	validators := []*consensus.Validator{
		newValidator(0, lidoCredentials, 0, consensus.FarFutureEpoch),
		newValidator(1, lidoCredentials, 10, 20),
		newValidator(2, lidoCredentials, 10, 10),
		newValidator(3, lidoCredentials, 15, 5), // exit scheduled before eligibility
		newValidator(4, lidoCredentials, consensus.FarFutureEpoch, consensus.FarFutureEpoch),
	}
	epochs := []consensus.Epoch{0, 1, 4, 5, 9, 10, 11, 15, 19, 20, 21, 1 << 40, consensus.FarFutureEpoch}

	for i, v := range validators {
		prev := FutureDeposit
		for _, epoch := range epochs {
			status := StatusOf(v, epoch)
			if status != FutureDeposit && status != Deposited && status != Exited {
				t.Fatalf("validator %d epoch %d: unknown status %v", i, epoch, status)
			}
			if status < prev {
				t.Errorf("validator %d epoch %d: status went backwards: have %v, previous %v", i, epoch, status, prev)
			}
			prev = status
		}
	}
	// Spot check the boundaries
	v := validators[1]
	for epoch, want := range map[consensus.Epoch]Status{9: FutureDeposit, 10: Deposited, 19: Deposited, 20: Exited} {
		if have := StatusOf(v, epoch); have != want {
			t.Errorf("epoch %d: status mismatch: have %v, want %v", epoch, have, want)
		}
	}
}

// Tests the Lido membership check.
func TestIsLido(t *testing.T) {
	if !IsLido(newValidator(0, lidoCredentials, 0, 0), lidoCredentials) {
		t.Errorf("lido validator not recognized")
	}
	if IsLido(newValidator(0, otherCredentials, 0, 0), lidoCredentials) {
		t.Errorf("non-lido validator recognized")
	}
}

// Tests the transition table in both verification modes.
func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     Transition
		legal    bool
	}{
		{FutureDeposit, FutureDeposit, NoTransition, true},
		{Deposited, Deposited, NoTransition, true},
		{Exited, Exited, NoTransition, true},
		{FutureDeposit, Deposited, Activate, true},
		{FutureDeposit, Exited, ActivateAndExit, true},
		{Deposited, Exited, Exit, true},
		{Exited, Deposited, NoTransition, false},
		{Exited, FutureDeposit, NoTransition, false},
		{Deposited, FutureDeposit, NoTransition, false},
	}
	for _, tt := range tests {
		have, err := CheckTransition(tt.from, tt.to, Strict)
		switch {
		case tt.legal && err != nil:
			t.Errorf("%v -> %v: unexpected error: %v", tt.from, tt.to, err)
		case !tt.legal && !errors.Is(err, ErrInvalidValidatorTransition):
			t.Errorf("%v -> %v: error mismatch: have %v, want %v", tt.from, tt.to, err, ErrInvalidValidatorTransition)
		case !tt.legal && !errors.Is(err, errs.IllegalTransition):
			t.Errorf("%v -> %v: error not classified as illegal transition", tt.from, tt.to)
		case have != tt.want:
			t.Errorf("%v -> %v: transition mismatch: have %v, want %v", tt.from, tt.to, have, tt.want)
		}
		relaxed, err := CheckTransition(tt.from, tt.to, Relaxed)
		if err != nil {
			t.Errorf("%v -> %v: relaxed mode error: %v", tt.from, tt.to, err)
		}
		if relaxed != tt.want {
			t.Errorf("%v -> %v: relaxed transition mismatch: have %v, want %v", tt.from, tt.to, relaxed, tt.want)
		}
	}
}
