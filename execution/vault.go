// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package execution proves facts about the execution layer state, namely the
// balance of the Lido withdrawal vault, against an execution state root.
package execution

import (
	"fmt"

	"github.com/clproof/lidoreport/errs"
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"
)

const (
	// maxProofNodes caps the number of trie nodes in an account proof.
	maxProofNodes = 64

	// maxProofNodeSize caps the size of a single RLP encoded trie node.
	maxProofNodeSize = 1 << 16
)

var (
	// ErrAccountProofInvalid is returned when the account proof does not
	// resolve against the state root.
	ErrAccountProofInvalid = errs.New(errs.ExternalProofFailure, "execution: invalid account proof")

	// ErrAccountNotFound is returned when the proof shows that no account
	// exists at the vault address.
	ErrAccountNotFound = errs.New(errs.ExternalProofFailure, "execution: account not found")

	// ErrAccountUndecodable is returned when the proven account is not a valid
	// RLP encoded state account.
	ErrAccountUndecodable = errs.New(errs.ExternalProofFailure, "execution: undecodable account")

	// ErrWithdrawalVaultBalanceMismatch is returned when the proven vault
	// balance differs from the claimed one.
	ErrWithdrawalVaultBalanceMismatch = errs.New(errs.ExternalProofFailure, "execution: withdrawal vault balance mismatch")
)

// WithdrawalVaultData is the claimed balance of the withdrawal vault together
// with the Merkle-Patricia proof of its account.
type WithdrawalVaultData struct {
	VaultAddress common.Address
	Balance      *uint256.Int
	AccountProof [][]byte
}

func (d *WithdrawalVaultData) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(20 + 32 + 4)
	if fixed {
		return size
	}
	return size + ssz.SizeSliceOfDynamicBytes(siz, d.AccountProof)
}

func (d *WithdrawalVaultData) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &d.VaultAddress)
	ssz.DefineUint256(codec, &d.Balance)
	ssz.DefineSliceOfDynamicBytesOffset(codec, &d.AccountProof, maxProofNodes, maxProofNodeSize)
	ssz.DefineSliceOfDynamicBytesContent(codec, &d.AccountProof, maxProofNodes, maxProofNodeSize)
}

// ProveAccount resolves the account at address from its proof against the
// given state root. A valid proof of absence is an error, not an empty account.
func ProveAccount(stateRoot common.Hash, address common.Address, proof [][]byte) (*types.StateAccount, error) {
	db := memorydb.New()
	for _, node := range proof {
		if err := db.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	blob, err := trie.VerifyProof(stateRoot, crypto.Keccak256(address[:]), db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountProofInvalid, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountNotFound, address)
	}
	account := new(types.StateAccount)
	if err := rlp.DecodeBytes(blob, account); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountUndecodable, err)
	}
	return account, nil
}

// VerifyAccountBalance checks the claimed vault balance against the account
// proven from the execution state root.
func VerifyAccountBalance(stateRoot common.Hash, data *WithdrawalVaultData) error {
	account, err := ProveAccount(stateRoot, data.VaultAddress, data.AccountProof)
	if err != nil {
		return err
	}
	claimed := data.Balance
	if claimed == nil {
		claimed = new(uint256.Int)
	}
	if account.Balance.Cmp(claimed) != 0 {
		return fmt.Errorf("%w: have %v, want %v", ErrWithdrawalVaultBalanceMismatch, claimed, account.Balance)
	}
	return nil
}
