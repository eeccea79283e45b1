// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package merkle

import (
	"math/bits"
	"sort"
)

// NextPowerOfTwo returns the smallest power of two not below n. Zero and one
// both map to one.
func NextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

// Depth returns the depth of the smallest binary tree with at least count
// leaves.
func Depth(count uint64) int {
	return bits.Len64(NextPowerOfTwo(count)) - 1
}

// GeneralizedIndex returns the generalized index of the leaf at position index
// in a tree of the given depth. The root has generalized index 1.
func GeneralizedIndex(depth int, index uint64) uint64 {
	return 1<<depth + index
}

// sibling returns the generalized index of the node sharing a parent.
func sibling(gindex uint64) uint64 {
	return gindex ^ 1
}

// parent returns the generalized index of the node one level up.
func parent(gindex uint64) uint64 {
	return gindex >> 1
}

// HelperIndices returns the generalized indices of the nodes needed to prove
// the given leaves, in descending order. These are the siblings along every
// path that are not themselves on any path.
func HelperIndices(gindices []uint64) []uint64 {
	var (
		helpers = make(map[uint64]struct{})
		paths   = make(map[uint64]struct{})
	)
	for _, g := range gindices {
		for node := g; node > 1; node = parent(node) {
			helpers[sibling(node)] = struct{}{}
			paths[node] = struct{}{}
		}
	}
	res := make([]uint64, 0, len(helpers))
	for g := range helpers {
		if _, ok := paths[g]; !ok {
			res = append(res, g)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] > res[j] })
	return res
}
