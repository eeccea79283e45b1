// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package merkle implements sparse Merkle multiproofs over SSZ style binary
// trees: containers with one leaf per field, and lists padded to a power of two
// then expanded to their static depth and mixed with their length.
package merkle

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/clproof/lidoreport/errs"
	"github.com/clproof/lidoreport/ssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/minio/sha256-simd"
)

var (
	// ErrRootMismatch is returned when a reconstructed root differs from the
	// one it should reproduce.
	ErrRootMismatch = errs.New(errs.StructuralMismatch, "merkle: root mismatch")

	// ErrIndexOutOfRange is returned when a proven index does not fit in the tree.
	ErrIndexOutOfRange = errs.New(errs.IntegrityViolation, "merkle: leaf index out of range")

	// ErrDuplicateIndex is returned when the same leaf is requested twice.
	ErrDuplicateIndex = errs.New(errs.IntegrityViolation, "merkle: duplicate leaf index")

	// ErrLeafCountMismatch is returned when the indices and leaf hashes passed
	// for reconstruction are of different lengths.
	ErrLeafCountMismatch = errs.New(errs.IntegrityViolation, "merkle: leaf and index count mismatch")

	// ErrNoLeaves is returned when a proof is requested or checked for nothing.
	ErrNoLeaves = errs.New(errs.IntegrityViolation, "merkle: no leaves")

	// ErrBadTreeSize is returned when the total leaf count of a tree is not a
	// power of two.
	ErrBadTreeSize = errs.New(errs.IntegrityViolation, "merkle: tree size not a power of two")

	// ErrProofLength is returned when a proof carries a different number of
	// hashes than the proven leaves require.
	ErrProofLength = errs.New(errs.StructuralMismatch, "merkle: wrong proof length")

	// ErrBadExpansion is returned when depth expansion would shrink the tree.
	ErrBadExpansion = errs.New(errs.IntegrityViolation, "merkle: expansion depth below tree depth")
)

// maxProofHashes caps the number of helper hashes when decoding a proof.
const maxProofHashes = 1 << 24

// Proof is a Merkle multiproof: the helper hashes needed to recompute a root
// from a set of leaves, ordered by descending generalized index.
type Proof struct {
	Hashes []common.Hash
}

func (p *Proof) SizeSSZ(siz *ssz.Sizer, fixed bool) uint32 {
	if fixed {
		return 4
	}
	return 4 + ssz.SizeSliceOfStaticBytes(siz, p.Hashes)
}

func (p *Proof) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineSliceOfStaticBytesOffset(codec, &p.Hashes, maxProofHashes)
	ssz.DefineSliceOfStaticBytesContent(codec, &p.Hashes, maxProofHashes)
}

// Tree is a fully materialized binary Merkle tree, stored by generalized index.
type Tree struct {
	depth int
	nodes []common.Hash
}

// NewTree builds a tree over the leaves, zero padded to the next power of two.
func NewTree(leaves []common.Hash) *Tree {
	var (
		depth = Depth(uint64(len(leaves)))
		width = uint64(1) << depth
		nodes = make([]common.Hash, 2*width)
	)
	copy(nodes[width:], leaves)
	for g := width - 1; g >= 1; g-- {
		nodes[g] = hashPair(nodes[2*g], nodes[2*g+1])
	}
	return &Tree{depth: depth, nodes: nodes}
}

// Root returns the root of the tree.
func (t *Tree) Root() common.Hash {
	return t.nodes[1]
}

// Depth returns the number of levels below the root.
func (t *Tree) Depth() int {
	return t.depth
}

// Prove creates a multiproof for the leaves at the given positions. The order
// of indices is irrelevant.
func (t *Tree) Prove(indices []uint64) (*Proof, error) {
	gindices, err := t.gindices(indices)
	if err != nil {
		return nil, err
	}
	helpers := HelperIndices(gindices)

	proof := &Proof{Hashes: make([]common.Hash, len(helpers))}
	for i, g := range helpers {
		proof.Hashes[i] = t.nodes[g]
	}
	return proof, nil
}

// gindices converts leaf positions into generalized indices, rejecting
// duplicates and positions beyond the tree width.
func (t *Tree) gindices(indices []uint64) ([]uint64, error) {
	if len(indices) == 0 {
		return nil, ErrNoLeaves
	}
	return toGeneralized(t.depth, indices)
}

// Build creates a multiproof for the leaves at the given positions of a tree
// built over all leaves.
func Build(leaves []common.Hash, indices []uint64) (*Proof, error) {
	for _, index := range indices {
		if index >= uint64(len(leaves)) {
			return nil, fmt.Errorf("%w: index %d, leaves %d", ErrIndexOutOfRange, index, len(leaves))
		}
	}
	return NewTree(leaves).Prove(indices)
}

// Option tweaks how a root is reconstructed from a proof.
type Option func(*options)

type options struct {
	expandTo *int
	mixIn    *uint64
}

// WithDepthExpansion hashes the reconstructed subtree root with zero subtrees
// until the tree reaches the given depth, as SSZ lists do up to their static
// capacity.
func WithDepthExpansion(depth int) Option {
	return func(o *options) { o.expandTo = &depth }
}

// WithLengthMixIn mixes the given list length into the (expanded) root.
func WithLengthMixIn(length uint64) Option {
	return func(o *options) { o.mixIn = &length }
}

// Reconstruct recomputes the root of a tree with totalLeaves leaves from the
// proven leaves and the proof. The pairing of indices and leaves is positional,
// their order is irrelevant.
func Reconstruct(proof *Proof, totalLeaves uint64, indices []uint64, leaves []common.Hash, opts ...Option) (common.Hash, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(indices) != len(leaves) {
		return common.Hash{}, fmt.Errorf("%w: %d indices, %d leaves", ErrLeafCountMismatch, len(indices), len(leaves))
	}
	if len(indices) == 0 {
		return common.Hash{}, ErrNoLeaves
	}
	if totalLeaves == 0 || totalLeaves&(totalLeaves-1) != 0 {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrBadTreeSize, totalLeaves)
	}
	depth := Depth(totalLeaves)

	gindices, err := toGeneralized(depth, indices)
	if err != nil {
		return common.Hash{}, err
	}
	helpers := HelperIndices(gindices)
	if proof == nil || len(proof.Hashes) != len(helpers) {
		have := 0
		if proof != nil {
			have = len(proof.Hashes)
		}
		return common.Hash{}, fmt.Errorf("%w: have %d, want %d", ErrProofLength, have, len(helpers))
	}
	// Collect every known node, then walk upwards merging siblings
	nodes := make(map[uint64]common.Hash, len(gindices)+len(helpers))
	for i, g := range gindices {
		nodes[g] = leaves[i]
	}
	for i, g := range helpers {
		nodes[g] = proof.Hashes[i]
	}
	keys := make([]uint64, 0, len(nodes))
	for g := range nodes {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	for pos := 0; pos < len(keys); pos++ {
		g := keys[pos]
		if g == 1 {
			continue
		}
		if _, ok := nodes[parent(g)]; ok {
			continue
		}
		sib, ok := nodes[sibling(g)]
		if !ok {
			continue
		}
		if g&1 == 0 {
			nodes[parent(g)] = hashPair(nodes[g], sib)
		} else {
			nodes[parent(g)] = hashPair(sib, nodes[g])
		}
		keys = append(keys, parent(g))
	}
	root, ok := nodes[1]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: root not reachable", ErrProofLength)
	}
	if o.expandTo != nil {
		if *o.expandTo < depth {
			return common.Hash{}, fmt.Errorf("%w: tree depth %d, expansion %d", ErrBadExpansion, depth, *o.expandTo)
		}
		for level := depth; level < *o.expandTo; level++ {
			root = hashPair(root, ssz.ZeroHash(level))
		}
	}
	if o.mixIn != nil {
		root = MixInLength(root, *o.mixIn)
	}
	return root, nil
}

// Verify checks that a reconstructed root matches the expected one.
func Verify(expected, reconstructed common.Hash) error {
	if expected != reconstructed {
		return fmt.Errorf("%w: have %x, want %x", ErrRootMismatch, reconstructed, expected)
	}
	return nil
}

// VerifyMultiproof reconstructs a root from the proof and checks it against
// the expected one.
func VerifyMultiproof(expected common.Hash, proof *Proof, totalLeaves uint64, indices []uint64, leaves []common.Hash, opts ...Option) error {
	root, err := Reconstruct(proof, totalLeaves, indices, leaves, opts...)
	if err != nil {
		return err
	}
	return Verify(expected, root)
}

// MixInLength hashes a root together with a list length, as SSZ does for the
// roots of variable length lists.
func MixInLength(root common.Hash, length uint64) common.Hash {
	var chunk common.Hash
	binary.LittleEndian.PutUint64(chunk[:8], length)
	return hashPair(root, chunk)
}

// toGeneralized converts leaf positions into generalized indices in a tree of
// the given depth.
func toGeneralized(depth int, indices []uint64) ([]uint64, error) {
	var (
		width    = uint64(1) << depth
		gindices = make([]uint64, len(indices))
		seen     = make(map[uint64]struct{}, len(indices))
	)
	for i, index := range indices {
		if index >= width {
			return nil, fmt.Errorf("%w: index %d, tree width %d", ErrIndexOutOfRange, index, width)
		}
		if _, ok := seen[index]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, index)
		}
		seen[index] = struct{}{}
		gindices[i] = GeneralizedIndex(depth, index)
	}
	return gindices, nil
}

// hashPair computes the parent of two sibling nodes.
func hashPair(left, right common.Hash) common.Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return sha256.Sum256(buf[:])
}
