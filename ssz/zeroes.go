// ssz: Go Simple Serialize (SSZ) codec library
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/minio/sha256-simd"
)

// MaxDepth is the deepest Merkle tree the hasher can pad to.
const MaxDepth = 64

// zeroHashes contains the roots of all-zero subtrees, indexed by depth.
var zeroHashes [MaxDepth + 1][32]byte

func init() {
	var tmp [64]byte
	for i := 0; i < MaxDepth; i++ {
		copy(tmp[:32], zeroHashes[i][:])
		copy(tmp[32:], zeroHashes[i][:])
		zeroHashes[i+1] = sha256.Sum256(tmp[:])
	}
}

// ZeroHash returns the root of an all-zero subtree of the given depth.
func ZeroHash(depth int) common.Hash {
	return zeroHashes[depth]
}
