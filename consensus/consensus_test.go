// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package consensus

import (
	"errors"
	"testing"

	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/go-bitfield"
)

func newTestDeneb() *BeaconStateDeneb {
	state := &BeaconStateDeneb{
		GenesisTime:       1606824023,
		Slot:              1234567,
		Fork:              &ForkData{CurrentVersion: Version{4, 0, 0, 0}, Epoch: 269568},
		LatestBlockHeader: &BeaconBlockHeader{Slot: 1234566, ProposerIndex: 7},
		Eth1Data:          &Eth1Data{DepositCount: 3},
		JustificationBits: bitfield.NewBitvector4(),
		LatestExecutionPayloadHeader: &ExecutionPayloadHeader{
			StateRoot:     common.Hash{0xaa},
			BlockNumber:   19000000,
			ExtraData:     []byte("lido"),
			BaseFeePerGas: uint256.NewInt(7),
		},
	}
	for i := 0; i < 5; i++ {
		state.Validators = append(state.Validators, &Validator{
			Pubkey:                     BLSPubkey{byte(i)},
			WithdrawalCredentials:      common.Hash{0x01, byte(i)},
			EffectiveBalance:           32_000_000_000,
			ActivationEligibilityEpoch: Epoch(i),
			ActivationEpoch:            Epoch(i + 1),
			ExitEpoch:                  FarFutureEpoch,
			WithdrawableEpoch:          FarFutureEpoch,
		})
		state.Balances = append(state.Balances, Gwei(32_000_000_000+i))
	}
	state.BlockRoots[3] = common.Hash{0x03}
	state.RandaoMixes[9] = common.Hash{0x09}
	return state
}

func newTestElectra() *BeaconStateElectra {
	return &BeaconStateElectra{
		BeaconStateDeneb:        *newTestDeneb(),
		DepositBalanceToConsume: 64,
		EarliestExitEpoch:       300000,
		PendingDeposits:         []*PendingDeposit{{Amount: 1_000_000_000, Slot: 1234500}},
	}
}

func TestStateFieldRoots(t *testing.T) {
	for _, state := range []BeaconState{newTestDeneb(), newTestElectra()} {
		fields := state.FieldRoots()
		if have, want := len(fields.Roots), BeaconStateFieldCount(state.Variant()); have != want {
			t.Fatalf("%v: field count mismatch: have %d, want %d", state.Variant(), have, want)
		}
		if err := fields.Validate(); err != nil {
			t.Fatalf("%v: failed to validate fields: %v", state.Variant(), err)
		}
		if have, want := fields.HashTreeRoot(), state.HashTreeRoot(); have != want {
			t.Errorf("%v: state root mismatch: have %x, want %x", state.Variant(), have, want)
		}
		if have, want := fields.Validators(), HashValidatorList(state.ValidatorRegistry()); have != want {
			t.Errorf("%v: validators root mismatch: have %x, want %x", state.Variant(), have, want)
		}
		if have, want := fields.Balances(), HashBalances(state.ValidatorBalances()); have != want {
			t.Errorf("%v: balances root mismatch: have %x, want %x", state.Variant(), have, want)
		}
		if have, want := fields.LatestExecutionPayloadHeader(), state.ExecutionPayloadHeader().HashTreeRoot(); have != want {
			t.Errorf("%v: payload header root mismatch: have %x, want %x", state.Variant(), have, want)
		}
	}
}

func TestStateFieldValidation(t *testing.T) {
	fields := newTestDeneb().FieldRoots()

	short := &BeaconStateFields{Fork: ForkDeneb, Roots: fields.Roots[:27]}
	if err := short.Validate(); !errors.Is(err, ErrFieldCountMismatch) {
		t.Errorf("short projection: have %v, want %v", err, ErrFieldCountMismatch)
	}
	relabeled := &BeaconStateFields{Fork: ForkElectra, Roots: fields.Roots}
	if err := relabeled.Validate(); !errors.Is(err, ErrFieldCountMismatch) {
		t.Errorf("relabeled projection: have %v, want %v", err, ErrFieldCountMismatch)
	}
	unknown := &BeaconStateFields{Fork: ForkFuture, Roots: fields.Roots}
	if err := unknown.Validate(); !errors.Is(err, ErrUnsupportedFork) {
		t.Errorf("unknown fork: have %v, want %v", err, ErrUnsupportedFork)
	}
}

func TestStateEncoding(t *testing.T) {
	for _, state := range []BeaconState{newTestDeneb(), newTestElectra()} {
		blob, err := ssz.Encode(state)
		if err != nil {
			t.Fatalf("%v: failed to encode state: %v", state.Variant(), err)
		}
		if have, want := uint32(len(blob)), ssz.Size(state); have != want {
			t.Fatalf("%v: encoded size mismatch: have %d, want %d", state.Variant(), have, want)
		}
		decoded, err := DecodeBeaconState(state.Variant(), blob)
		if err != nil {
			t.Fatalf("%v: failed to decode state: %v", state.Variant(), err)
		}
		if have, want := decoded.HashTreeRoot(), state.HashTreeRoot(); have != want {
			t.Errorf("%v: decoded root mismatch: have %x, want %x", state.Variant(), have, want)
		}
		if have, want := len(decoded.ValidatorRegistry()), 5; have != want {
			t.Errorf("%v: decoded validator count mismatch: have %d, want %d", state.Variant(), have, want)
		}
	}
	if _, err := DecodeBeaconState(ForkUnknown, nil); !errors.Is(err, ErrUnsupportedFork) {
		t.Errorf("unknown fork decode: have %v, want %v", err, ErrUnsupportedFork)
	}
}

// Tests that a state built without justification bits encodes like one with
// all bits cleared.
func TestStateZeroJustificationBits(t *testing.T) {
	state := newTestDeneb()
	state.JustificationBits = nil

	blob, err := ssz.Encode(state)
	if err != nil {
		t.Fatalf("failed to encode state: %v", err)
	}
	decoded, err := DecodeBeaconState(ForkDeneb, blob)
	if err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if have, want := decoded.HashTreeRoot(), newTestDeneb().HashTreeRoot(); have != want {
		t.Errorf("state root mismatch: have %x, want %x", have, want)
	}
	if have, want := state.HashTreeRoot(), decoded.HashTreeRoot(); have != want {
		t.Errorf("hashed and encoded roots disagree: have %x, want %x", have, want)
	}
}

func TestExecutionPayloadHeaderFields(t *testing.T) {
	header := newTestDeneb().LatestExecutionPayloadHeader

	roots := header.FieldRoots()
	if have, want := len(roots), ExecutionPayloadHeaderFieldCount; have != want {
		t.Fatalf("field count mismatch: have %d, want %d", have, want)
	}
	if have, want := roots[ExecutionPayloadHeaderStateRootIndex], header.StateRoot; have != want {
		t.Errorf("state root leaf mismatch: have %x, want %x", have, want)
	}
	if have, want := ssz.MerkleizeRoots(roots), header.HashTreeRoot(); have != want {
		t.Errorf("header root mismatch: have %x, want %x", have, want)
	}
}

func TestForks(t *testing.T) {
	for name, want := range map[string]Fork{"deneb": ForkDeneb, "electra": ForkElectra} {
		have, err := ParseFork(name)
		if err != nil {
			t.Fatalf("failed to parse fork %q: %v", name, err)
		}
		if have != want {
			t.Errorf("fork mismatch: have %v, want %v", have, want)
		}
		if have.String() != name {
			t.Errorf("fork name mismatch: have %s, want %s", have, name)
		}
	}
	if _, err := ParseFork("capella"); !errors.Is(err, ErrUnsupportedFork) {
		t.Errorf("unsupported fork: have %v, want %v", err, ErrUnsupportedFork)
	}
}

func TestSlotEpoch(t *testing.T) {
	if have, want := Slot(64).Epoch(), Epoch(2); have != want {
		t.Errorf("epoch mismatch: have %d, want %d", have, want)
	}
	if have, want := Slot(95).Epoch(), Epoch(2); have != want {
		t.Errorf("epoch mismatch: have %d, want %d", have, want)
	}
	if have, want := Epoch(3).StartSlot(), Slot(96); have != want {
		t.Errorf("start slot mismatch: have %d, want %d", have, want)
	}
}
