// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lidoreport

import (
	"testing"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/execution"
	"github.com/clproof/lidoreport/lido"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
)

var (
	testCredentials  = common.HexToHash("0x010000000000000000000000b9d7934878b5fb9610b3fe8a5e441e8fad7e293f")
	otherCredentials = common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000001")
	testVault        = common.HexToAddress("0xB9D7934878B5FB9610B3fE8A5e441e8fad7E293f")
	testVaultBalance = uint256.MustFromDecimal("4200000000000000000000")
)

const (
	testOldSlot = consensus.Slot(1200 * consensus.SlotsPerEpoch)
	testNewSlot = consensus.Slot(1210 * consensus.SlotsPerEpoch)
	testRefSlot = testNewSlot + 5
)

// makeValidator creates a validator with a unique pubkey derived from seed.
func makeValidator(seed byte, credentials common.Hash, eligible, exit consensus.Epoch) *consensus.Validator {
	v := &consensus.Validator{
		WithdrawalCredentials:      credentials,
		EffectiveBalance:           32_000_000_000,
		ActivationEligibilityEpoch: eligible,
		ActivationEpoch:            eligible + 1,
		ExitEpoch:                  exit,
		WithdrawableEpoch:          consensus.FarFutureEpoch,
	}
	v.Pubkey[0] = seed
	v.Pubkey[1] = 0x5e
	return v
}

// testRegistry returns the validators of the new snapshot. The old snapshot
// holds the first four of them.
//
//	0: lido, deposited          1: other, deposited
//	2: lido, pending, deposits  3: lido, deposited, exits
//	4: lido, appended deposited 5: other, appended
//	6: lido, appended pending
func testRegistry() []*consensus.Validator {
	return []*consensus.Validator{
		makeValidator(0, testCredentials, 100, consensus.FarFutureEpoch),
		makeValidator(1, otherCredentials, 100, consensus.FarFutureEpoch),
		makeValidator(2, testCredentials, 1205, consensus.FarFutureEpoch),
		makeValidator(3, testCredentials, 100, 1205),
		makeValidator(4, testCredentials, 1208, consensus.FarFutureEpoch),
		makeValidator(5, otherCredentials, 1209, consensus.FarFutureEpoch),
		makeValidator(6, testCredentials, 1300, consensus.FarFutureEpoch),
	}
}

// newVaultTrie builds an execution state trie with the vault account and
// returns its root and the vault's account proof.
func newVaultTrie(t *testing.T, balance *uint256.Int) (common.Hash, [][]byte) {
	t.Helper()
	return proveVaultTrie(t, balance, testVault)
}

// proveVaultTrie builds the same trie as newVaultTrie and returns the account
// proof of an arbitrary address in it.
func proveVaultTrie(t *testing.T, balance *uint256.Int, address common.Address) (common.Hash, [][]byte) {
	t.Helper()

	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	for addr, bal := range map[common.Address]*uint256.Int{
		testVault:                   balance,
		common.HexToAddress("0xaa"): uint256.NewInt(7),
		common.HexToAddress("0xbb"): uint256.NewInt(9),
	} {
		blob, err := rlp.EncodeToBytes(&types.StateAccount{
			Balance:  bal,
			Root:     types.EmptyRootHash,
			CodeHash: types.EmptyCodeHash.Bytes(),
		})
		if err != nil {
			t.Fatalf("failed to encode account: %v", err)
		}
		if err := tr.Update(crypto.Keccak256(addr[:]), blob); err != nil {
			t.Fatalf("failed to insert account: %v", err)
		}
	}
	root := tr.Hash()

	db := memorydb.New()
	if err := tr.Prove(crypto.Keccak256(address[:]), db); err != nil {
		t.Fatalf("failed to prove account: %v", err)
	}
	var proof [][]byte
	it := db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		proof = append(proof, common.CopyBytes(it.Value()))
	}
	return root, proof
}

// newTestSnapshots creates the old and new Deneb beacon states, plus the vault
// data proven against the new state's execution payload header.
func newTestSnapshots(t *testing.T) (*consensus.BeaconStateDeneb, *consensus.BeaconStateDeneb, *execution.WithdrawalVaultData) {
	t.Helper()

	validators := testRegistry()
	balances := make([]consensus.Gwei, len(validators))
	for i := range balances {
		balances[i] = 32_000_000_000 + consensus.Gwei(i)*1_000
	}
	oldValidators := make([]*consensus.Validator, 4)
	for i := range oldValidators {
		c := *validators[i]
		oldValidators[i] = &c
	}
	oldState := &consensus.BeaconStateDeneb{
		Slot:       testOldSlot,
		Validators: oldValidators,
		Balances:   append([]consensus.Gwei(nil), balances[:4]...),
	}
	root, proof := newVaultTrie(t, testVaultBalance)
	newState := &consensus.BeaconStateDeneb{
		Slot:       testNewSlot,
		Validators: validators,
		Balances:   balances,
		LatestExecutionPayloadHeader: &consensus.ExecutionPayloadHeader{
			BlockNumber: 123456,
			StateRoot:   root,
		},
	}
	vault := &execution.WithdrawalVaultData{
		VaultAddress: testVault,
		Balance:      testVaultBalance.Clone(),
		AccountProof: proof,
	}
	return oldState, newState, vault
}

// newTestParams assembles build parameters over the given states.
func newTestParams(oldState, newState consensus.BeaconState, vault *execution.WithdrawalVaultData) *BuildParams {
	header := &consensus.BeaconBlockHeader{
		Slot:          newState.CurrentSlot(),
		ProposerIndex: 3,
		StateRoot:     newState.FieldRoots().HashTreeRoot(),
	}
	header.ParentRoot[0] = 0x11
	header.BodyRoot[0] = 0x22

	return &BuildParams{
		ReferenceSlot: testRefSlot,
		Credentials:   testCredentials,
		Header:        header,
		State:         newState,
		OldState:      oldState,
		VaultData:     vault,
		Mode:          lido.Strict,
	}
}

// newTestInput builds a valid program input over the Deneb snapshots.
func newTestInput(t *testing.T) *ProgramInput {
	t.Helper()

	oldState, newState, vault := newTestSnapshots(t)
	in, err := BuildProgramInput(newTestParams(oldState, newState, vault))
	if err != nil {
		t.Fatalf("failed to build program input: %v", err)
	}
	return in
}

// cloneInput deep copies an input through its wire encoding.
func cloneInput(t *testing.T, in *ProgramInput) *ProgramInput {
	t.Helper()

	blob, err := EncodeProgramInput(in)
	if err != nil {
		t.Fatalf("failed to encode program input: %v", err)
	}
	out, err := DecodeProgramInput(blob)
	if err != nil {
		t.Fatalf("failed to decode program input: %v", err)
	}
	return out
}
