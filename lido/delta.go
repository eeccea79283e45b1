// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"fmt"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/ssz"
	"github.com/sirupsen/logrus"
)

// IndexedValidator is a validator together with its registry position.
type IndexedValidator struct {
	Index     consensus.ValidatorIndex
	Validator *consensus.Validator
}

func (v *IndexedValidator) SizeSSZ(siz *ssz.Sizer) uint32 { return 8 + 121 }
func (v *IndexedValidator) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &v.Index)
	ssz.DefineStaticObject(codec, &v.Validator)
}

// ValidatorDelta is the change of the registry between two report periods, as
// far as the tracked Lido state is concerned.
type ValidatorDelta struct {
	AllAdded    []*IndexedValidator // Every validator appended since the old state
	LidoChanged []*IndexedValidator // Previously known Lido validators whose status changed
}

func (d *ValidatorDelta) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(4 + 4)
	if fixed {
		return size
	}
	size += ssz.SizeSliceOfStaticObjects(siz, d.AllAdded)
	size += ssz.SizeSliceOfStaticObjects(siz, d.LidoChanged)
	return size
}

func (d *ValidatorDelta) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineSliceOfStaticObjectsOffset(codec, &d.AllAdded, consensus.ValidatorRegistryLimit)
	ssz.DefineSliceOfStaticObjectsOffset(codec, &d.LidoChanged, consensus.ValidatorRegistryLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &d.AllAdded, consensus.ValidatorRegistryLimit)
	ssz.DefineSliceOfStaticObjectsContent(codec, &d.LidoChanged, consensus.ValidatorRegistryLimit)
}

// AllAddedIndices returns the registry positions of the appended validators.
func (d *ValidatorDelta) AllAddedIndices() []consensus.ValidatorIndex {
	return indicesOf(d.AllAdded)
}

// LidoChangedIndices returns the registry positions of the changed validators.
func (d *ValidatorDelta) LidoChangedIndices() []consensus.ValidatorIndex {
	return indicesOf(d.LidoChanged)
}

func indicesOf(validators []*IndexedValidator) []consensus.ValidatorIndex {
	res := make([]consensus.ValidatorIndex, len(validators))
	for i, v := range validators {
		res[i] = v.Index
	}
	return res
}

// ComputeDelta diffs two beacon state snapshots relative to the tracked state
// derived from the older one. Pending validators are always reported, even
// when unchanged, so the verifier can check their status in the new snapshot.
func ComputeDelta(oldState consensus.BeaconState, tracked *ValidatorState, newState consensus.BeaconState, mode Mode) (*ValidatorDelta, error) {
	var (
		oldValidators = oldState.ValidatorRegistry()
		newValidators = newState.ValidatorRegistry()
		total         = tracked.TotalValidators()
	)
	if uint64(len(newValidators)) < total {
		return nil, fmt.Errorf("%w: new snapshot has %d, tracked %d", ErrRegistryShrunk, len(newValidators), total)
	}
	if uint64(len(oldValidators)) < total {
		return nil, fmt.Errorf("%w: old snapshot has %d, tracked %d", ErrRegistryShrunk, len(oldValidators), total)
	}
	delta := new(ValidatorDelta)
	for i := total; i < uint64(len(newValidators)); i++ {
		delta.AllAdded = append(delta.AllAdded, &IndexedValidator{
			Index:     consensus.ValidatorIndex(i),
			Validator: newValidators[i],
		})
	}
	var (
		oldEpoch = oldState.CurrentSlot().Epoch()
		newEpoch = newState.CurrentSlot().Epoch()
		changed  = make(indexSet)
	)
	for _, index := range tracked.PendingDepositLidoValidatorIndices {
		if err := checkPubkey(index, oldValidators, newValidators); err != nil {
			return nil, err
		}
		changed.add(index)
	}
	for _, index := range tracked.DepositedLidoValidatorIndices {
		if err := checkPubkey(index, oldValidators, newValidators); err != nil {
			return nil, err
		}
		var (
			from = StatusOf(oldValidators[index], oldEpoch)
			to   = StatusOf(newValidators[index], newEpoch)
		)
		transition, err := CheckTransition(from, to, mode)
		if err != nil {
			return nil, fmt.Errorf("validator %d: %w", index, err)
		}
		if transition != NoTransition {
			changed.add(index)
		}
	}
	for _, index := range changed.sorted() {
		delta.LidoChanged = append(delta.LidoChanged, &IndexedValidator{
			Index:     index,
			Validator: newValidators[index],
		})
	}
	log.WithFields(logrus.Fields{
		"oldslot": oldState.CurrentSlot(),
		"newslot": newState.CurrentSlot(),
		"added":   len(delta.AllAdded),
		"changed": len(delta.LidoChanged),
	}).Debug("Computed validator delta")
	return delta, nil
}

// checkPubkey ensures the validator at index is the same in both snapshots.
func checkPubkey(index consensus.ValidatorIndex, oldValidators, newValidators []*consensus.Validator) error {
	if uint64(index) >= uint64(len(oldValidators)) || uint64(index) >= uint64(len(newValidators)) {
		return fmt.Errorf("%w: tracked index %d beyond registry", ErrRegistryShrunk, index)
	}
	if oldValidators[index].Pubkey != newValidators[index].Pubkey {
		return fmt.Errorf("%w: index %d", ErrValidatorPubkeyMismatch, index)
	}
	return nil
}
