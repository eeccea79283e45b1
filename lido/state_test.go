// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
)

const (
	baseSlot = consensus.Slot(1200)
	nextSlot = baseSlot + 10*consensus.SlotsPerEpoch
)

// baseRegistry is one deposited Lido validator followed by two deposited
// validators of someone else.
func baseRegistry() []*consensus.Validator {
	return []*consensus.Validator{
		newValidator(0, lidoCredentials, 0, consensus.FarFutureEpoch),
		newValidator(1, otherCredentials, 0, consensus.FarFutureEpoch),
		newValidator(2, otherCredentials, 0, consensus.FarFutureEpoch),
	}
}

// Tests that a Lido validator appended already exited shows up only in the
// added list.
func TestComputeDeltaAppendedExited(t *testing.T) {
	var (
		oldBS    = newBeaconState(baseSlot, baseRegistry())
		appended = newValidator(3, lidoCredentials, 30, nextSlot.Epoch()-2)
		newBS    = newBeaconState(nextSlot, append(baseRegistry(), appended))
	)
	tracked, err := ComputeState(oldBS, lidoCredentials)
	if err != nil {
		t.Fatalf("failed to compute old state: %v", err)
	}
	delta, err := ComputeDelta(oldBS, tracked, newBS, Strict)
	if err != nil {
		t.Fatalf("failed to compute delta: %v", err)
	}
	want := &ValidatorDelta{AllAdded: []*IndexedValidator{{Index: 3, Validator: appended}}}
	if !reflect.DeepEqual(delta, want) {
		t.Errorf("delta mismatch: have %+v, want %+v", delta, want)
	}
	merged, err := tracked.MergeDelta(nextSlot, delta, lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge delta: %v", err)
	}
	direct, err := ComputeState(newBS, lidoCredentials)
	if err != nil {
		t.Fatalf("failed to compute new state: %v", err)
	}
	if !reflect.DeepEqual(merged, direct) {
		t.Errorf("merged state mismatch: have %+v, want %+v", merged, direct)
	}
	if want := []consensus.ValidatorIndex{3}; !reflect.DeepEqual(merged.ExitedLidoValidatorIndices, want) {
		t.Errorf("exited indices mismatch: have %v, want %v", merged.ExitedLidoValidatorIndices, want)
	}
}

// Tests that a tracked Lido validator exiting between reports shows up only in
// the changed list.
func TestComputeDeltaTrackedExit(t *testing.T) {
	var (
		oldBS   = newBeaconState(baseSlot, baseRegistry())
		updated = baseRegistry()
	)
	updated[0] = copyValidator(updated[0])
	updated[0].ExitEpoch = nextSlot.Epoch() - 1
	newBS := newBeaconState(nextSlot, updated)

	tracked, err := ComputeState(oldBS, lidoCredentials)
	if err != nil {
		t.Fatalf("failed to compute old state: %v", err)
	}
	delta, err := ComputeDelta(oldBS, tracked, newBS, Strict)
	if err != nil {
		t.Fatalf("failed to compute delta: %v", err)
	}
	want := &ValidatorDelta{LidoChanged: []*IndexedValidator{{Index: 0, Validator: updated[0]}}}
	if !reflect.DeepEqual(delta, want) {
		t.Errorf("delta mismatch: have %+v, want %+v", delta, want)
	}
	merged, err := tracked.MergeDelta(nextSlot, delta, lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge delta: %v", err)
	}
	if want := []consensus.ValidatorIndex{0}; !reflect.DeepEqual(merged.ExitedLidoValidatorIndices, want) {
		t.Errorf("exited indices mismatch: have %v, want %v", merged.ExitedLidoValidatorIndices, want)
	}
	if want := []consensus.ValidatorIndex{0}; !reflect.DeepEqual(merged.DepositedLidoValidatorIndices, want) {
		t.Errorf("deposited indices mismatch: have %v, want %v", merged.DepositedLidoValidatorIndices, want)
	}
}

// Tests that pending validators are always reported and get promoted once
// they become eligible.
func TestComputeDeltaPendingActivation(t *testing.T) {
	var (
		oldRegistry = append(baseRegistry(),
			newValidator(3, lidoCredentials, baseSlot.Epoch()+3, consensus.FarFutureEpoch),
			newValidator(4, lidoCredentials, nextSlot.Epoch()+3, consensus.FarFutureEpoch),
		)
		oldBS = newBeaconState(baseSlot, oldRegistry)
		newBS = newBeaconState(nextSlot, oldRegistry)
	)
	tracked, err := ComputeState(oldBS, lidoCredentials)
	if err != nil {
		t.Fatalf("failed to compute old state: %v", err)
	}
	if want := []consensus.ValidatorIndex{3, 4}; !reflect.DeepEqual(tracked.PendingDepositLidoValidatorIndices, want) {
		t.Fatalf("pending indices mismatch: have %v, want %v", tracked.PendingDepositLidoValidatorIndices, want)
	}
	delta, err := ComputeDelta(oldBS, tracked, newBS, Strict)
	if err != nil {
		t.Fatalf("failed to compute delta: %v", err)
	}
	if have, want := delta.LidoChangedIndices(), []consensus.ValidatorIndex{3, 4}; !reflect.DeepEqual(have, want) {
		t.Errorf("changed indices mismatch: have %v, want %v", have, want)
	}
	merged, err := tracked.MergeDelta(nextSlot, delta, lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge delta: %v", err)
	}
	if want := []consensus.ValidatorIndex{0, 3}; !reflect.DeepEqual(merged.DepositedLidoValidatorIndices, want) {
		t.Errorf("deposited indices mismatch: have %v, want %v", merged.DepositedLidoValidatorIndices, want)
	}
	if want := []consensus.ValidatorIndex{4}; !reflect.DeepEqual(merged.PendingDepositLidoValidatorIndices, want) {
		t.Errorf("pending indices mismatch: have %v, want %v", merged.PendingDepositLidoValidatorIndices, want)
	}
}

// Tests that a validator moving backwards is rejected unless relaxed.
func TestComputeDeltaIllegalTransition(t *testing.T) {
	var (
		oldBS   = newBeaconState(baseSlot, baseRegistry())
		updated = baseRegistry()
	)
	updated[0] = copyValidator(updated[0])
	updated[0].ActivationEligibilityEpoch = nextSlot.Epoch() + 1
	newBS := newBeaconState(nextSlot, updated)

	tracked, _ := ComputeState(oldBS, lidoCredentials)
	if _, err := ComputeDelta(oldBS, tracked, newBS, Strict); !errors.Is(err, ErrInvalidValidatorTransition) {
		t.Errorf("strict error mismatch: have %v, want %v", err, ErrInvalidValidatorTransition)
	}
	delta, err := ComputeDelta(oldBS, tracked, newBS, Relaxed)
	if err != nil {
		t.Fatalf("relaxed mode failed: %v", err)
	}
	if len(delta.LidoChanged) != 0 {
		t.Errorf("relaxed delta reported illegal change: %v", delta.LidoChangedIndices())
	}
}

// Tests that a replaced validator is detected by its public key.
func TestComputeDeltaPubkeyMismatch(t *testing.T) {
	var (
		oldBS   = newBeaconState(baseSlot, baseRegistry())
		updated = baseRegistry()
	)
	updated[0] = copyValidator(updated[0])
	updated[0].Pubkey[1] = 0xff
	newBS := newBeaconState(nextSlot, updated)

	tracked, _ := ComputeState(oldBS, lidoCredentials)
	if _, err := ComputeDelta(oldBS, tracked, newBS, Strict); !errors.Is(err, ErrValidatorPubkeyMismatch) {
		t.Errorf("error mismatch: have %v, want %v", err, ErrValidatorPubkeyMismatch)
	}
	if _, err := ComputeDelta(oldBS, tracked, newBeaconState(nextSlot, updated[:2]), Strict); !errors.Is(err, ErrRegistryShrunk) {
		t.Errorf("error mismatch: have %v, want %v", err, ErrRegistryShrunk)
	}
}

// Tests that merging checks its preconditions.
func TestMergeDeltaPreconditions(t *testing.T) {
	tracked, _ := ComputeState(newBeaconState(baseSlot, baseRegistry()), lidoCredentials)

	tests := []struct {
		name  string
		delta *ValidatorDelta
		err   error
	}{
		{
			name:  "added gap",
			delta: &ValidatorDelta{AllAdded: []*IndexedValidator{{Index: 4, Validator: newValidator(4, lidoCredentials, 0, consensus.FarFutureEpoch)}}},
			err:   ErrMalformedAllAddedList,
		},
		{
			name: "added not contiguous",
			delta: &ValidatorDelta{AllAdded: []*IndexedValidator{
				{Index: 3, Validator: newValidator(3, lidoCredentials, 0, consensus.FarFutureEpoch)},
				{Index: 5, Validator: newValidator(5, lidoCredentials, 0, consensus.FarFutureEpoch)},
			}},
			err: ErrMalformedAllAddedList,
		},
		{
			name:  "non-lido changed",
			delta: &ValidatorDelta{LidoChanged: []*IndexedValidator{{Index: 1, Validator: baseRegistry()[1]}}},
			err:   ErrNonLidoValidatorInDelta,
		},
		{
			name:  "changed beyond tracked",
			delta: &ValidatorDelta{LidoChanged: []*IndexedValidator{{Index: 3, Validator: newValidator(3, lidoCredentials, 0, 0)}}},
			err:   ErrDisallowedIndexInLidoChanged,
		},
		{
			name:  "backwards",
			delta: &ValidatorDelta{LidoChanged: []*IndexedValidator{{Index: 0, Validator: newValidator(0, lidoCredentials, consensus.FarFutureEpoch, consensus.FarFutureEpoch)}}},
			err:   ErrInvalidValidatorTransition,
		},
	}
	for _, tt := range tests {
		if _, err := tracked.MergeDelta(nextSlot, tt.delta, lidoCredentials, Strict); !errors.Is(err, tt.err) {
			t.Errorf("%s: error mismatch: have %v, want %v", tt.name, err, tt.err)
		}
	}
}

// Tests that merging an empty delta leaves the state hash untouched, and that
// the order of changed validators does not matter.
func TestMergeDeltaIdempotentAndOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	epoch := consensus.Epoch(50)
	validators, _ := randomRegistry(rng, 64, epoch)
	bs := newBeaconState(epoch.StartSlot()+7, validators)

	tracked, err := ComputeState(bs, lidoCredentials)
	if err != nil {
		t.Fatalf("failed to compute state: %v", err)
	}
	merged, err := tracked.MergeDelta(tracked.Slot, new(ValidatorDelta), lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge empty delta: %v", err)
	}
	if have, want := merged.HashTreeRoot(), tracked.HashTreeRoot(); have != want {
		t.Errorf("empty merge changed hash: have %x, want %x", have, want)
	}
	// Advance the registry and shuffle the changed list
	later := bs.Slot + 20*consensus.SlotsPerEpoch
	next := make([]*consensus.Validator, len(validators))
	for i, v := range validators {
		next[i] = copyValidator(v)
		if StatusOf(v, epoch) == Deposited && rng.Intn(2) == 0 {
			next[i].ExitEpoch = later.Epoch()
		}
	}
	nextBS := newBeaconState(later, next)
	delta, err := ComputeDelta(bs, tracked, nextBS, Strict)
	if err != nil {
		t.Fatalf("failed to compute delta: %v", err)
	}
	ordered, err := tracked.MergeDelta(later, delta, lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge delta: %v", err)
	}
	rng.Shuffle(len(delta.LidoChanged), func(i, j int) {
		delta.LidoChanged[i], delta.LidoChanged[j] = delta.LidoChanged[j], delta.LidoChanged[i]
	})
	shuffled, err := tracked.MergeDelta(later, delta, lidoCredentials, Strict)
	if err != nil {
		t.Fatalf("failed to merge shuffled delta: %v", err)
	}
	if !reflect.DeepEqual(ordered, shuffled) {
		t.Errorf("merge depends on delta order: have %+v, want %+v", shuffled, ordered)
	}
	direct, _ := ComputeState(nextBS, lidoCredentials)
	if !reflect.DeepEqual(ordered, direct) {
		t.Errorf("merged state mismatch: have %+v, want %+v", ordered, direct)
	}
}

// Tests that the state hash commits to every field except the exited list,
// and matches an independent merkleization of its fields.
func TestValidatorStateHash(t *testing.T) {
	state := &ValidatorState{
		Slot:                               1234,
		Epoch:                              consensus.Slot(1234).Epoch(),
		MaxValidatorIndex:                  99,
		DepositedLidoValidatorIndices:      []consensus.ValidatorIndex{1, 5, 9, 42},
		PendingDepositLidoValidatorIndices: []consensus.ValidatorIndex{77},
		ExitedLidoValidatorIndices:         []consensus.ValidatorIndex{5},
	}
	uintRoot := func(n uint64) common.Hash {
		var root common.Hash
		binary.LittleEndian.PutUint64(root[:8], n)
		return root
	}
	listRoot := func(indices []consensus.ValidatorIndex) common.Hash {
		values := make([]consensus.Gwei, len(indices))
		for i, index := range indices {
			values[i] = consensus.Gwei(index)
		}
		return consensus.HashBalances(values)
	}
	want := ssz.MerkleizeRoots([]common.Hash{
		uintRoot(1234), uintRoot(uint64(state.Epoch)), uintRoot(99),
		listRoot(state.DepositedLidoValidatorIndices),
		listRoot(state.PendingDepositLidoValidatorIndices),
	})
	if have := state.HashTreeRoot(); have != want {
		t.Errorf("state hash mismatch: have %x, want %x", have, want)
	}
	state.ExitedLidoValidatorIndices = append(state.ExitedLidoValidatorIndices, 9)
	if have := state.HashTreeRoot(); have != want {
		t.Errorf("exited list changed the hash: have %x, want %x", have, want)
	}
	state.PendingDepositLidoValidatorIndices = nil
	if have := state.HashTreeRoot(); have == want {
		t.Errorf("pending list did not change the hash")
	}
	// The exited list must still survive serialization
	blob, err := ssz.Encode(state)
	if err != nil {
		t.Fatalf("failed to encode state: %v", err)
	}
	decoded := new(ValidatorState)
	if err := ssz.DecodeFromBytes(blob, decoded); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if !reflect.DeepEqual(decoded.ExitedLidoValidatorIndices, state.ExitedLidoValidatorIndices) {
		t.Errorf("exited list mismatch: have %v, want %v", decoded.ExitedLidoValidatorIndices, state.ExitedLidoValidatorIndices)
	}
	if decoded.HashTreeRoot() != state.HashTreeRoot() {
		t.Errorf("decoded hash mismatch")
	}
}

// Tests the tracked index bounds check.
func TestValidatorStateIndexBounds(t *testing.T) {
	state := &ValidatorState{MaxValidatorIndex: 10, DepositedLidoValidatorIndices: []consensus.ValidatorIndex{3, 10}}
	if _, ok := state.IndexOutOfRange(); ok {
		t.Errorf("in range state reported out of range")
	}
	state.ExitedLidoValidatorIndices = []consensus.ValidatorIndex{11}
	if index, ok := state.IndexOutOfRange(); !ok || index != 11 {
		t.Errorf("out of range index mismatch: have %d/%v, want 11/true", index, ok)
	}
	if StrictlySorted([]consensus.ValidatorIndex{1, 1}) || !StrictlySorted(nil) || !StrictlySorted([]consensus.ValidatorIndex{1, 2}) {
		t.Errorf("sortedness check mismatch")
	}
	if _, err := ComputeState(newBeaconState(1, nil), lidoCredentials); !errors.Is(err, ErrEmptyRegistry) {
		t.Errorf("error mismatch: have %v, want %v", err, ErrEmptyRegistry)
	}
}
