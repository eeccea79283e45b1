// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package beaconapi

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/ssz"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileCache stores beacon states on disk, snappy compressed. Each file holds
// the fork tag as 8 little endian bytes followed by the SSZ encoded state.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create state cache %s", dir)
	}
	return &FileCache{dir: dir}, nil
}

// Path returns the file a state of the given slot is cached in.
func (fc *FileCache) Path(slot consensus.Slot) string {
	return filepath.Join(fc.dir, fmt.Sprintf("bs_%d.ssz_snappy", slot))
}

// Read loads a cached state. A missing file reports os.ErrNotExist.
func (fc *FileCache) Read(slot consensus.Slot) (consensus.BeaconState, error) {
	compressed, err := os.ReadFile(fc.Path(slot))
	if err != nil {
		return nil, err
	}
	blob, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decompress cached state %d", slot)
	}
	if len(blob) < 8 {
		return nil, errors.Errorf("cached state %d truncated", slot)
	}
	state, err := consensus.DecodeBeaconState(consensus.Fork(binary.LittleEndian.Uint64(blob)), blob[8:])
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode cached state %d", slot)
	}
	return state, nil
}

// Write stores a state, replacing any previous version atomically.
func (fc *FileCache) Write(state consensus.BeaconState) error {
	blob := make([]byte, 8+ssz.Size(state))
	binary.LittleEndian.PutUint64(blob, uint64(state.Variant()))
	if err := ssz.EncodeToBytes(blob[8:], state); err != nil {
		return errors.Wrap(err, "could not encode state")
	}
	path := fc.Path(state.CurrentSlot())

	tmp, err := os.CreateTemp(fc.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "could not create state file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(snappy.Encode(nil, blob)); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not write state file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not close state file")
	}
	return os.Rename(tmp.Name(), path)
}

// CachedSource serves beacon states from a file cache, falling back to a
// remote source and filling the cache for states requested by slot.
type CachedSource struct {
	remote Source
	cache  *FileCache
}

// NewCachedSource layers a file cache over a remote source.
func NewCachedSource(remote Source, cache *FileCache) *CachedSource {
	return &CachedSource{remote: remote, cache: cache}
}

// BeaconState implements Source.
func (cs *CachedSource) BeaconState(ctx context.Context, stateID string) (consensus.BeaconState, error) {
	slot, err := strconv.ParseUint(stateID, 10, 64)
	if err != nil {
		// Named states move, never cache them
		return cs.remote.BeaconState(ctx, stateID)
	}
	state, err := cs.cache.Read(consensus.Slot(slot))
	switch {
	case err == nil:
		log.WithField("slot", slot).Debug("Loaded beacon state from cache")
		return state, nil
	case !errors.Is(err, os.ErrNotExist):
		log.WithFields(logrus.Fields{"slot": slot, "err": err}).Warn("Ignoring corrupt cached state")
	}
	if state, err = cs.remote.BeaconState(ctx, stateID); err != nil {
		return nil, err
	}
	if err := cs.cache.Write(state); err != nil {
		log.WithFields(logrus.Fields{"slot": slot, "err": err}).Warn("Failed to cache beacon state")
	}
	return state, nil
}

// BeaconBlockHeader implements Source.
func (cs *CachedSource) BeaconBlockHeader(ctx context.Context, stateID string) (*consensus.BeaconBlockHeader, error) {
	return cs.remote.BeaconBlockHeader(ctx, stateID)
}
