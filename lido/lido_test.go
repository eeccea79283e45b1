// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"math/rand"

	"github.com/clproof/lidoreport/consensus"
	"github.com/ethereum/go-ethereum/common"
)

var (
	lidoCredentials  = common.HexToHash("0x010000000000000000000000b9d7934878b5fb9610b3fe8a5e441e8fad7e293f")
	otherCredentials = common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000001")
)

// newValidator creates a validator with a unique pubkey derived from seed,
// eligible from the given epoch and exiting at the given epoch.
func newValidator(seed byte, credentials common.Hash, eligible, exit consensus.Epoch) *consensus.Validator {
	v := &consensus.Validator{
		WithdrawalCredentials:      credentials,
		EffectiveBalance:           32_000_000_000,
		ActivationEligibilityEpoch: eligible,
		ActivationEpoch:            eligible + 1,
		ExitEpoch:                  exit,
		WithdrawableEpoch:          consensus.FarFutureEpoch,
	}
	v.Pubkey[0] = seed
	v.Pubkey[47] = 0xaa
	return v
}

// copyValidator returns a deep copy of a validator.
func copyValidator(v *consensus.Validator) *consensus.Validator {
	c := *v
	return &c
}

// newBeaconState creates a minimal beacon state carrying only what the tracked
// state computations read.
func newBeaconState(slot consensus.Slot, validators []*consensus.Validator) *consensus.BeaconStateDeneb {
	balances := make([]consensus.Gwei, len(validators))
	for i := range balances {
		balances[i] = 32_000_000_000 + consensus.Gwei(i)
	}
	return &consensus.BeaconStateDeneb{
		Slot:       slot,
		Validators: validators,
		Balances:   balances,
	}
}

// randomRegistry creates a registry mixing every status with Lido and other
// credentials, in random order.
func randomRegistry(rng *rand.Rand, n int, epoch consensus.Epoch) ([]*consensus.Validator, []consensus.Gwei) {
	var (
		validators = make([]*consensus.Validator, n)
		balances   = make([]consensus.Gwei, n)
	)
	for i := range validators {
		creds := otherCredentials
		if rng.Intn(3) != 0 {
			creds = lidoCredentials
		}
		var eligible, exit consensus.Epoch
		switch rng.Intn(3) {
		case 0: // future deposit
			eligible, exit = epoch+1+consensus.Epoch(rng.Intn(10)), consensus.FarFutureEpoch
		case 1: // deposited
			eligible, exit = consensus.Epoch(rng.Intn(int(epoch)+1)), epoch+1+consensus.Epoch(rng.Intn(10))
		case 2: // exited
			eligible = consensus.Epoch(rng.Intn(int(epoch) + 1))
			exit = eligible + consensus.Epoch(rng.Intn(int(epoch-eligible)+1))
		}
		validators[i] = newValidator(byte(i), creds, eligible, exit)
		balances[i] = consensus.Gwei(rng.Int63n(64_000_000_000))
	}
	return validators, balances
}
