// ssz: Go Simple Serialize (SSZ) codec library
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ssz is a simplified SSZ encoder/decoder and Merkle hasher for the
// beacon chain containers the report prover works with.
package ssz

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Object defines the methods a type needs to implement to be used as a ssz
// encodable and decodable object.
type Object interface {
	// DefineSSZ defines how an object would be encoded/decoded/hashed.
	DefineSSZ(codec *Codec)
}

// StaticObject defines the methods a type needs to implement to be used as a
// ssz encodable and decodable static object.
type StaticObject interface {
	Object

	// SizeSSZ returns the total size of the ssz object.
	//
	// Note, StaticObject.SizeSSZ and DynamicObject.SizeSSZ deliberately clash
	// to allow the compiler to detect placing one or the other in reversed data
	// slots on an SSZ containers.
	SizeSSZ(siz *Sizer) uint32
}

// DynamicObject defines the methods a type needs to implement to be used as a
// ssz encodable and decodable dynamic object.
type DynamicObject interface {
	Object

	// SizeSSZ returns either the static size of the object if fixed == true, or
	// the total size otherwise.
	//
	// Note, StaticObject.SizeSSZ and DynamicObject.SizeSSZ deliberately clash
	// to allow the compiler to detect placing one or the other in reversed data
	// slots on an SSZ containers.
	SizeSSZ(siz *Sizer, fixed bool) uint32
}

// encoderPool is a pool of SSZ encoders to reuse some tiny internal helpers
// without hitting Go's GC constantly.
var encoderPool = sync.Pool{
	New: func() any {
		codec := &Codec{enc: new(Encoder)}
		codec.enc.codec = codec
		codec.enc.sizer = &Sizer{codec: codec}
		return codec
	},
}

// decoderPool is a pool of SSZ decoders to reuse some tiny internal helpers
// without hitting Go's GC constantly.
var decoderPool = sync.Pool{
	New: func() any {
		codec := &Codec{dec: new(Decoder)}
		codec.dec.codec = codec
		codec.dec.sizer = &Sizer{codec: codec}
		return codec
	},
}

// hasherPool is a pool of SSZ hashers to reuse some tiny internal helpers
// without hitting Go's GC constantly.
var hasherPool = sync.Pool{
	New: func() any {
		codec := &Codec{has: new(Hasher)}
		codec.has.codec = codec
		return codec
	},
}

// sizerPool is a pool of SSZ sizers to reuse some tiny internal helpers
// without hitting Go's GC constantly.
var sizerPool = sync.Pool{
	New: func() any {
		return &Sizer{codec: new(Codec)}
	},
}

// EncodeToBytes serializes the object into a byte buffer. The buffer must be
// at least Size(obj) bytes long.
func EncodeToBytes(buf []byte, obj Object) error {
	// Sanity check that we have enough space to serialize into
	if size := Size(obj); int(size) > len(buf) {
		return fmt.Errorf("%w: buffer %d bytes, object %d bytes", ErrBufferTooSmall, len(buf), size)
	}
	codec := encoderPool.Get().(*Codec)
	defer encoderPool.Put(codec)

	codec.enc.outBuffer = buf
	switch v := obj.(type) {
	case StaticObject:
		v.DefineSSZ(codec)
	case DynamicObject:
		codec.enc.startDynamics(v.SizeSSZ(codec.enc.sizer, true))
		v.DefineSSZ(codec)
		codec.enc.flushDynamics()
	default:
		panic(fmt.Sprintf("unsupported type: %T", obj))
	}
	// Retrieve any errors, zero out the sink and return
	err := codec.enc.err

	codec.enc.outBuffer = nil
	codec.enc.err = nil

	return err
}

// Encode allocates a buffer of the right size and serializes the object into it.
func Encode(obj Object) ([]byte, error) {
	buf := make([]byte, Size(obj))
	if err := EncodeToBytes(buf, obj); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeFromBytes parses an object with the given SSZ encoded blob. The object
// must be a pointer to a struct, its fields are overwritten in place.
func DecodeFromBytes(blob []byte, obj Object) error {
	// Reject decoding from an empty slice
	if len(blob) == 0 {
		return ErrShortInput
	}
	codec := decoderPool.Get().(*Codec)
	defer decoderPool.Put(codec)

	codec.dec.inBuffer = blob
	codec.dec.descendIntoSlot(uint32(len(blob)))

	switch v := obj.(type) {
	case StaticObject:
		v.DefineSSZ(codec)
	case DynamicObject:
		codec.dec.startDynamics(v.SizeSSZ(codec.dec.sizer, true))
		v.DefineSSZ(codec)
		codec.dec.flushDynamics()
	default:
		panic(fmt.Sprintf("unsupported type: %T", obj))
	}
	codec.dec.ascendFromSlot()

	// Retrieve any errors, zero out the source and return
	err := codec.dec.err

	codec.dec.inBuffer = nil
	codec.dec.err = nil

	return err
}

// HashSequential computes the ssz merkle root of the object on a single thread.
func HashSequential(obj Object) common.Hash {
	codec := hasherPool.Get().(*Codec)
	defer hasherPool.Put(codec)
	defer codec.has.Reset()

	obj.DefineSSZ(codec)
	codec.has.merkleize(0, 0)
	return codec.has.hash()
}

// HashFields computes the ssz merkle roots of each top level field of the object,
// in declaration order. Merkleizing the returned roots (padded to the next power
// of two) yields the same root as HashSequential.
func HashFields(obj Object) []common.Hash {
	codec := hasherPool.Get().(*Codec)
	defer hasherPool.Put(codec)
	defer codec.has.Reset()

	obj.DefineSSZ(codec)

	roots := make([]common.Hash, len(codec.has.scratch)/32)
	for i := range roots {
		copy(roots[i][:], codec.has.scratch[i*32:])
	}
	return roots
}

// MerkleizeRoots computes the root of a binary Merkle tree over the given leaves,
// padded with zero leaves up to the next power of two.
func MerkleizeRoots(roots []common.Hash) common.Hash {
	codec := hasherPool.Get().(*Codec)
	defer hasherPool.Put(codec)
	defer codec.has.Reset()

	for i := range roots {
		codec.has.scratch = append(codec.has.scratch, roots[i][:]...)
	}
	codec.has.merkleize(0, 0)
	return codec.has.hash()
}

// Size retrieves the size of a ssz object, independent if it's a static or a
// dynamic one.
func Size(obj Object) uint32 {
	sizer := sizerPool.Get().(*Sizer)
	defer sizerPool.Put(sizer)

	var size uint32
	switch v := obj.(type) {
	case StaticObject:
		size = v.SizeSSZ(sizer)
	case DynamicObject:
		size = v.SizeSSZ(sizer, false)
	default:
		panic(fmt.Sprintf("unsupported type: %T", obj))
	}
	return size
}
