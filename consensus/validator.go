// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

// Validator is a single entry of the beacon chain validator registry.
type Validator struct {
	Pubkey                     BLSPubkey
	WithdrawalCredentials      common.Hash
	EffectiveBalance           Gwei
	Slashed                    bool
	ActivationEligibilityEpoch Epoch
	ActivationEpoch            Epoch
	ExitEpoch                  Epoch
	WithdrawableEpoch          Epoch
}

func (v *Validator) SizeSSZ(siz *ssz.Sizer) uint32 { return 121 }
func (v *Validator) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &v.Pubkey)
	ssz.DefineStaticBytes(codec, &v.WithdrawalCredentials)
	ssz.DefineUint64(codec, &v.EffectiveBalance)
	ssz.DefineBool(codec, &v.Slashed)
	ssz.DefineUint64(codec, &v.ActivationEligibilityEpoch)
	ssz.DefineUint64(codec, &v.ActivationEpoch)
	ssz.DefineUint64(codec, &v.ExitEpoch)
	ssz.DefineUint64(codec, &v.WithdrawableEpoch)
}

// HashTreeRoot returns the SSZ Merkle root of the validator.
func (v *Validator) HashTreeRoot() common.Hash {
	return ssz.HashSequential(v)
}

// HashValidators returns the SSZ Merkle root of every validator, in order.
func HashValidators(validators []*Validator) []common.Hash {
	roots := make([]common.Hash, len(validators))
	for i, v := range validators {
		roots[i] = v.HashTreeRoot()
	}
	return roots
}
