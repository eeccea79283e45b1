// ssz: Go Simple Serialize (SSZ) codec library
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/gohashtree"
)

// Some helpers to avoid occasional allocations
var (
	hasherBoolFalse = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	hasherBoolTrue  = []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	hasherUint64Pad = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	hasherZeroChunk = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	uint256Zero = hasherZeroChunk
)

// Hasher is an SSZ Merkle Hash Root computer.
type Hasher struct {
	scratch []byte // Scratch space for not-yet-hashed writes

	codec *Codec   // Self-referencing to pass DefineSSZ calls through (API trick)
	buf   [32]byte // Integer conversion buffer
}

// HashBool hashes a boolean.
func HashBool[T ~bool](h *Hasher, v T) {
	if !v {
		h.scratch = append(h.scratch, hasherBoolFalse...)
	} else {
		h.scratch = append(h.scratch, hasherBoolTrue...)
	}
}

// HashUint64 hashes a uint64.
func HashUint64[T ~uint64](h *Hasher, n T) {
	binary.LittleEndian.PutUint64(h.buf[:8], (uint64)(n))
	h.scratch = append(h.scratch, h.buf[:8]...)
	h.scratch = append(h.scratch, hasherUint64Pad...)
}

// HashUint256 hashes a uint256.
//
// Note, a nil pointer is hashed as zero.
func HashUint256(h *Hasher, n *uint256.Int) {
	if n != nil {
		n.MarshalSSZInto(h.buf[:32])
		h.scratch = append(h.scratch, h.buf[:32]...)
	} else {
		h.scratch = append(h.scratch, uint256Zero...)
	}
}

// HashStaticBytes hashes a static binary blob.
//
// The blob is passed by pointer to avoid high stack copy costs and a potential
// escape to the heap.
func HashStaticBytes[T commonBytesLengths](h *Hasher, blob *T) {
	// The code below should have used `blob[:]`, alas Go's generics compiler
	// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
	h.hashBytes(unsafe.Slice(&(*blob)[0], len(*blob)))
}

// HashCheckedStaticBytes hashes a static binary blob held in a slice.
//
// Note, a nil slice is hashed as size zero bytes, the same way it is encoded.
// Other mis-sized blobs are hashed as they are; the encoder rejects them.
func HashCheckedStaticBytes(h *Hasher, blob []byte, size uint64) {
	if blob == nil {
		blob = make([]byte, size)
	}
	h.hashBytes(blob)
}

// HashDynamicBytes hashes a dynamic binary blob.
func HashDynamicBytes(h *Hasher, blob []byte, maxSize uint64) {
	pos := len(h.scratch)
	h.appendBytesChunks(blob)
	h.merkleizeWithMixin(pos, uint64(len(blob)), (maxSize+31)/32)
}

// HashStaticObject hashes a static ssz object.
func HashStaticObject[T newableStaticObject[U], U any](h *Hasher, obj T) {
	if obj == nil {
		obj = T(new(U))
	}
	pos := len(h.scratch)
	obj.DefineSSZ(h.codec)
	h.merkleize(pos, 0)
}

// HashDynamicObject hashes a dynamic ssz object.
func HashDynamicObject[T newableDynamicObject[U], U any](h *Hasher, obj T) {
	if obj == nil {
		obj = T(new(U))
	}
	pos := len(h.scratch)
	obj.DefineSSZ(h.codec)
	h.merkleize(pos, 0)
}

// HashUnsafeArrayOfUint64s hashes a static array of uint64s, passed as a
// slice over the array's backing memory.
func HashUnsafeArrayOfUint64s[T ~uint64](h *Hasher, ns []T) {
	pos := len(h.scratch)
	for _, n := range ns {
		binary.LittleEndian.PutUint64(h.buf[:8], (uint64)(n))
		h.scratch = append(h.scratch, h.buf[:8]...)
	}
	h.fillUpTo32()
	h.merkleize(pos, 0)
}

// HashSliceOfUint64s hashes a dynamic slice of uint64s.
func HashSliceOfUint64s[T ~uint64](h *Hasher, ns []T, maxItems uint64) {
	pos := len(h.scratch)
	for _, n := range ns {
		binary.LittleEndian.PutUint64(h.buf[:8], (uint64)(n))
		h.scratch = append(h.scratch, h.buf[:8]...)
	}
	h.merkleizeWithMixin(pos, uint64(len(ns)), (maxItems*8+31)/32)
}

// HashUnsafeArrayOfStaticBytes hashes a static array of static binary blobs,
// passed as a slice over the array's backing memory.
func HashUnsafeArrayOfStaticBytes[T commonBytesLengths](h *Hasher, blobs []T) {
	pos := len(h.scratch)
	for i := range blobs {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		h.hashBytes(unsafe.Slice(&blobs[i][0], len(blobs[i])))
	}
	h.merkleize(pos, 0)
}

// HashSliceOfStaticBytes hashes a dynamic slice of static binary blobs.
func HashSliceOfStaticBytes[T commonBytesLengths](h *Hasher, blobs []T, maxItems uint64) {
	pos := len(h.scratch)
	for i := range blobs {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		h.hashBytes(unsafe.Slice(&blobs[i][0], len(blobs[i])))
	}
	h.merkleizeWithMixin(pos, uint64(len(blobs)), maxItems)
}

// HashSliceOfDynamicBytes hashes a dynamic slice of dynamic binary blobs.
func HashSliceOfDynamicBytes(h *Hasher, blobs [][]byte, maxItems uint64, maxSize uint64) {
	pos := len(h.scratch)
	for _, blob := range blobs {
		HashDynamicBytes(h, blob, maxSize)
	}
	h.merkleizeWithMixin(pos, uint64(len(blobs)), maxItems)
}

// HashSliceOfStaticObjects hashes a dynamic slice of static ssz objects.
func HashSliceOfStaticObjects[T newableStaticObject[U], U any](h *Hasher, objects []T, maxItems uint64) {
	pos := len(h.scratch)
	for _, obj := range objects {
		HashStaticObject(h, obj)
	}
	h.merkleizeWithMixin(pos, uint64(len(objects)), maxItems)
}

// hashBytes either appends the blob to the hasher's scratch space if it's small
// enough to fit into a single chunk, or chunks it up and merkleizes it first.
func (h *Hasher) hashBytes(b []byte) {
	if len(b) <= 32 {
		h.appendBytesChunks(b)
		return
	}
	pos := len(h.scratch)
	h.appendBytesChunks(b)
	h.merkleize(pos, 0)
}

// appendBytesChunks appends the blob padded to the 32 byte chunk size.
func (h *Hasher) appendBytesChunks(blob []byte) {
	h.scratch = append(h.scratch, blob...)
	if rest := len(blob) & 0x1f; rest != 0 {
		h.scratch = append(h.scratch, hasherZeroChunk[:32-rest]...)
	}
}

// hash retrieves the computed hash from the hasher.
func (h *Hasher) hash() common.Hash {
	var hash common.Hash
	copy(hash[:], h.scratch)
	return hash
}

// Reset resets the Hasher obj
func (h *Hasher) Reset() {
	h.scratch = h.scratch[:0]
}

// fillUpTo32 right pads the scratch space with zeroes to a chunk boundary.
func (h *Hasher) fillUpTo32() {
	if rest := len(h.scratch) % 32; rest != 0 {
		h.scratch = append(h.scratch, hasherZeroChunk[:32-rest]...)
	}
}

// merkleize hashes everything in the scratch space from the starting position,
// padding the leaves up to limit chunks (or the next power of two if zero).
func (h *Hasher) merkleize(pos int, limit uint64) {
	// merkleizeImpl will expand the `input` by 32 bytes if some hashing depth
	// hits an odd chunk length. But if we're at the end of `h.scratch` already,
	// appending to `input` will allocate a new buffer, *not* expand `h.scratch`,
	// so the next invocation will realloc, over and over and over. We can pre-
	// emptively cater for that by ensuring that an extra 32 bytes is always
	// available.
	if len(h.scratch) == cap(h.scratch) {
		h.scratch = append(h.scratch, hasherZeroChunk...)
		h.scratch = h.scratch[:len(h.scratch)-len(hasherZeroChunk)]
	}
	input := h.scratch[pos:]

	// merkleize the input
	input = merkleizeImpl(input[:0], input, limit)
	h.scratch = append(h.scratch[:pos], input...)
}

// merkleizeWithMixin hashes everything in the scratch space from the starting
// position, also mixing in the size of the dynamic slice of data.
func (h *Hasher) merkleizeWithMixin(pos int, num, limit uint64) {
	h.fillUpTo32()
	h.merkleize(pos, limit)

	binary.LittleEndian.PutUint64(h.buf[:8], num)
	h.scratch = append(h.scratch, h.buf[:8]...)
	h.scratch = append(h.scratch, hasherUint64Pad...)

	// scratch[pos:] is now of the form [<root><size>] of 64 bytes
	gohashtree.HashByteSlice(h.scratch[pos:], h.scratch[pos:])
	h.scratch = h.scratch[:pos+32]
}

// depthOf returns the depth of the smallest binary tree with at least limit
// leaves.
func depthOf(limit uint64) int {
	if limit <= 1 {
		return 0
	}
	return bits.Len64(limit - 1)
}

// merkleizeImpl computes the root over the input chunks in place, padding them
// with zero subtrees up to limit leaves, and appends the root to dst.
func merkleizeImpl(dst []byte, input []byte, limit uint64) []byte {
	// count is the number of 32 byte chunks from the input, after right-padding
	// with zeroes to the next multiple of 32 bytes when the input is not aligned
	// to a multiple of 32 bytes.
	count := uint64((len(input) + 31) / 32)
	if limit == 0 {
		limit = count
	} else if count > limit {
		panic(fmt.Sprintf("BUG: count '%d' higher than limit '%d'", count, limit))
	}
	if limit == 0 {
		return append(dst, hasherZeroChunk...)
	}
	if limit == 1 {
		if count == 1 {
			return append(dst, input[:32]...)
		}
		return append(dst, hasherZeroChunk...)
	}
	depth := depthOf(limit)
	if len(input) == 0 {
		return append(dst, zeroHashes[depth][:]...)
	}
	for i := 0; i < depth; i++ {
		layerLen := len(input) / 32
		if layerLen%2 == 1 {
			input = append(input, zeroHashes[i][:]...)
			layerLen++
		}
		gohashtree.HashByteSlice(input, input)
		input = input[:(layerLen/2)*32]
	}
	return append(dst, input...)
}
