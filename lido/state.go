// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package lido

import (
	"fmt"
	"sort"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// maxTrackedIndices caps the index lists of the tracked state.
const maxTrackedIndices = consensus.ValidatorRegistryLimit

// ValidatorState is the Lido subset of the validator registry as of some slot.
// Only its hash is committed on chain; the exited list is carried along for
// report figures but is not part of that hash.
type ValidatorState struct {
	Slot              consensus.Slot
	Epoch             consensus.Epoch
	MaxValidatorIndex consensus.ValidatorIndex

	DepositedLidoValidatorIndices      []consensus.ValidatorIndex
	PendingDepositLidoValidatorIndices []consensus.ValidatorIndex
	ExitedLidoValidatorIndices         []consensus.ValidatorIndex
}

func (s *ValidatorState) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	size := uint32(8 + 8 + 8 + 4 + 4 + 4)
	if fixed {
		return size
	}
	size += ssz.SizeSliceOfUint64s(siz, s.DepositedLidoValidatorIndices)
	size += ssz.SizeSliceOfUint64s(siz, s.PendingDepositLidoValidatorIndices)
	size += ssz.SizeSliceOfUint64s(siz, s.ExitedLidoValidatorIndices)
	return size
}

func (s *ValidatorState) DefineSSZ(codec *ssz.Codec) {
	// Define the static data (fields and dynamic offsets)
	ssz.DefineUint64(codec, &s.Slot)
	ssz.DefineUint64(codec, &s.Epoch)
	ssz.DefineUint64(codec, &s.MaxValidatorIndex)
	ssz.DefineSliceOfUint64sOffset(codec, &s.DepositedLidoValidatorIndices, maxTrackedIndices)
	ssz.DefineSliceOfUint64sOffset(codec, &s.PendingDepositLidoValidatorIndices, maxTrackedIndices)
	codec.DefineUnhashed(func(codec *ssz.Codec) {
		ssz.DefineSliceOfUint64sOffset(codec, &s.ExitedLidoValidatorIndices, maxTrackedIndices)
	})
	// Define the dynamic data (fields)
	ssz.DefineSliceOfUint64sContent(codec, &s.DepositedLidoValidatorIndices, maxTrackedIndices)
	ssz.DefineSliceOfUint64sContent(codec, &s.PendingDepositLidoValidatorIndices, maxTrackedIndices)
	codec.DefineUnhashed(func(codec *ssz.Codec) {
		ssz.DefineSliceOfUint64sContent(codec, &s.ExitedLidoValidatorIndices, maxTrackedIndices)
	})
}

// HashTreeRoot returns the SSZ Merkle root of the state, leaving out the
// exited validator list.
func (s *ValidatorState) HashTreeRoot() common.Hash {
	return ssz.HashSequential(s)
}

// TotalValidators returns the size of the registry the state tracks.
func (s *ValidatorState) TotalValidators() uint64 {
	return uint64(s.MaxValidatorIndex) + 1
}

// IndexOutOfRange returns the first tracked index beyond MaxValidatorIndex,
// if any.
func (s *ValidatorState) IndexOutOfRange() (consensus.ValidatorIndex, bool) {
	for _, list := range [][]consensus.ValidatorIndex{
		s.DepositedLidoValidatorIndices,
		s.PendingDepositLidoValidatorIndices,
		s.ExitedLidoValidatorIndices,
	} {
		for _, index := range list {
			if index > s.MaxValidatorIndex {
				return index, true
			}
		}
	}
	return 0, false
}

// ComputeState derives the tracked state from a full beacon state snapshot.
func ComputeState(state consensus.BeaconState, credentials common.Hash) (*ValidatorState, error) {
	validators := state.ValidatorRegistry()
	if len(validators) == 0 {
		return nil, ErrEmptyRegistry
	}
	var (
		slot  = state.CurrentSlot()
		epoch = slot.Epoch()
		res   = &ValidatorState{
			Slot:              slot,
			Epoch:             epoch,
			MaxValidatorIndex: consensus.ValidatorIndex(len(validators) - 1),
		}
	)
	for i, v := range validators {
		if !IsLido(v, credentials) {
			continue
		}
		index := consensus.ValidatorIndex(i)
		switch StatusOf(v, epoch) {
		case FutureDeposit:
			res.PendingDepositLidoValidatorIndices = append(res.PendingDepositLidoValidatorIndices, index)
		case Deposited:
			res.DepositedLidoValidatorIndices = append(res.DepositedLidoValidatorIndices, index)
		case Exited:
			res.DepositedLidoValidatorIndices = append(res.DepositedLidoValidatorIndices, index)
			res.ExitedLidoValidatorIndices = append(res.ExitedLidoValidatorIndices, index)
		}
	}
	return res, nil
}

// MergeDelta folds a delta into the state, producing the state as of the given
// slot. The receiver is not modified.
func (s *ValidatorState) MergeDelta(slot consensus.Slot, delta *ValidatorDelta, credentials common.Hash, mode Mode) (*ValidatorState, error) {
	for i, added := range delta.AllAdded {
		if want := s.MaxValidatorIndex + 1 + consensus.ValidatorIndex(i); added.Index != want {
			return nil, fmt.Errorf("%w: position %d has index %d, want %d", ErrMalformedAllAddedList, i, added.Index, want)
		}
	}
	var (
		epoch     = slot.Epoch()
		deposited = newIndexSet(s.DepositedLidoValidatorIndices)
		pending   = newIndexSet(s.PendingDepositLidoValidatorIndices)
		exited    = newIndexSet(s.ExitedLidoValidatorIndices)
	)
	for _, added := range delta.AllAdded {
		if !IsLido(added.Validator, credentials) {
			continue
		}
		switch StatusOf(added.Validator, epoch) {
		case FutureDeposit:
			pending.add(added.Index)
		case Deposited:
			deposited.add(added.Index)
		case Exited:
			deposited.add(added.Index)
			exited.add(added.Index)
		}
	}
	for _, changed := range delta.LidoChanged {
		if !IsLido(changed.Validator, credentials) {
			return nil, fmt.Errorf("%w: index %d", ErrNonLidoValidatorInDelta, changed.Index)
		}
		if changed.Index > s.MaxValidatorIndex {
			return nil, fmt.Errorf("%w: index %d, max %d", ErrDisallowedIndexInLidoChanged, changed.Index, s.MaxValidatorIndex)
		}
		var (
			next = StatusOf(changed.Validator, epoch)
			prev Status
		)
		switch {
		case exited.has(changed.Index):
			prev = Exited
		case deposited.has(changed.Index):
			prev = Deposited
		case pending.has(changed.Index):
			prev = FutureDeposit
		default:
			// Not tracked before, take the current status as is
			prev = FutureDeposit
			if next == FutureDeposit {
				pending.add(changed.Index)
			}
		}
		transition, err := CheckTransition(prev, next, mode)
		if err != nil {
			return nil, fmt.Errorf("validator %d: %w", changed.Index, err)
		}
		switch transition {
		case Activate:
			pending.remove(changed.Index)
			deposited.add(changed.Index)
		case ActivateAndExit:
			pending.remove(changed.Index)
			deposited.add(changed.Index)
			exited.add(changed.Index)
		case Exit:
			exited.add(changed.Index)
		}
	}
	res := &ValidatorState{
		Slot:                               slot,
		Epoch:                              epoch,
		MaxValidatorIndex:                  s.MaxValidatorIndex + consensus.ValidatorIndex(len(delta.AllAdded)),
		DepositedLidoValidatorIndices:      deposited.sorted(),
		PendingDepositLidoValidatorIndices: pending.sorted(),
		ExitedLidoValidatorIndices:         exited.sorted(),
	}
	log.WithFields(logrus.Fields{
		"slot":      slot,
		"added":     len(delta.AllAdded),
		"changed":   len(delta.LidoChanged),
		"deposited": len(res.DepositedLidoValidatorIndices),
		"pending":   len(res.PendingDepositLidoValidatorIndices),
		"exited":    len(res.ExitedLidoValidatorIndices),
	}).Debug("Merged validator delta")
	return res, nil
}

// StrictlySorted reports whether the indices are ascending without repeats.
func StrictlySorted(indices []consensus.ValidatorIndex) bool {
	for i := 1; i < len(indices); i++ {
		if indices[i-1] >= indices[i] {
			return false
		}
	}
	return true
}

// indexSet is a set of validator indices that can be flattened into a sorted
// list.
type indexSet map[consensus.ValidatorIndex]struct{}

func newIndexSet(indices []consensus.ValidatorIndex) indexSet {
	set := make(indexSet, len(indices))
	for _, index := range indices {
		set[index] = struct{}{}
	}
	return set
}

func (set indexSet) add(index consensus.ValidatorIndex)    { set[index] = struct{}{} }
func (set indexSet) remove(index consensus.ValidatorIndex) { delete(set, index) }

func (set indexSet) has(index consensus.ValidatorIndex) bool {
	_, ok := set[index]
	return ok
}

func (set indexSet) sorted() []consensus.ValidatorIndex {
	if len(set) == 0 {
		return nil
	}
	res := make([]consensus.ValidatorIndex, 0, len(set))
	for index := range set {
		res = append(res, index)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
