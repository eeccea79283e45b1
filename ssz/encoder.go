// ssz: Go Simple Serialize (SSZ) codec library
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/holiman/uint256"
)

// Encoder is a wrapper around a pre-sized []byte buffer to implement dense SSZ
// encoding. It has the following behaviors:
//
//  1. The encoder does not return errors from individual encoding methods.
//     Since there is no expectation (in general) for failure, user code can be
//     denser if error checking is done at the end. Internally, of course, an
//     error will halt all future output operations.
//
//  2. The offsets for dynamic fields are tracked internally by the encoder, so
//     the caller only needs to provide the field, the offset of which should be
//     included at the alloted slot. The writes themselves should be done later.
//
//  3. The encoder does not enforce defined size limits on the dynamic fields.
//     If the caller provided bad data to encode, it is a programming error and
//     a runtime error will not fix anything.
type Encoder struct {
	outBuffer []byte // Underlying output buffer to write into
	err       error  // Any encoding error to halt future encoding calls

	codec *Codec   // Self-referencing to pass DefineSSZ calls through (API trick)
	sizer *Sizer   // Self-referencing to pass SizeSSZ call through (API trick)
	buf   [32]byte // Integer conversion buffer

	offset  uint32   // Offset tracker for dynamic fields
	offsets []uint32 // Stack of offsets from outer calls
}

// EncodeBool serializes a boolean.
func EncodeBool[T ~bool](enc *Encoder, v T) {
	if enc.err != nil {
		return
	}
	if v {
		enc.outBuffer[0] = 1
	} else {
		enc.outBuffer[0] = 0
	}
	enc.outBuffer = enc.outBuffer[1:]
}

// EncodeUint64 serializes a uint64 as little-endian.
func EncodeUint64[T ~uint64](enc *Encoder, n T) {
	if enc.err != nil {
		return
	}
	binary.LittleEndian.PutUint64(enc.outBuffer, (uint64)(n))
	enc.outBuffer = enc.outBuffer[8:]
}

// EncodeUint256 serializes a uint256 as little-endian.
//
// Note, a nil pointer is serialized as zero.
func EncodeUint256(enc *Encoder, n *uint256.Int) {
	if enc.err != nil {
		return
	}
	if n != nil {
		n.MarshalSSZInto(enc.outBuffer)
	} else {
		copy(enc.outBuffer, uint256Zero)
	}
	enc.outBuffer = enc.outBuffer[32:]
}

// EncodeStaticBytes serializes a static binary blob.
//
// The blob is passed by pointer to avoid high stack copy costs and a potential
// escape to the heap.
func EncodeStaticBytes[T commonBytesLengths](enc *Encoder, blob *T) {
	if enc.err != nil {
		return
	}
	// The code below should have used `*blob[:]`, alas Go's generics compiler
	// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
	enc.write(unsafe.Slice(&(*blob)[0], len(*blob)))
}

// EncodeCheckedStaticBytes serializes a static binary blob held in a slice,
// erroring if the slice does not match the schema size.
//
// Note, a nil slice is serialized as size zero bytes.
func EncodeCheckedStaticBytes(enc *Encoder, blob []byte, size uint64) {
	if enc.err != nil {
		return
	}
	if blob == nil {
		enc.write(make([]byte, size))
		return
	}
	if uint64(len(blob)) != size {
		enc.err = fmt.Errorf("%w: have %d bytes, want %d", ErrBadStaticSize, len(blob), size)
		return
	}
	enc.write(blob)
}

// EncodeDynamicBytesOffset serializes a dynamic binary blob's offset.
func EncodeDynamicBytesOffset(enc *Encoder, blob []byte) {
	enc.encodeOffset(uint32(len(blob)))
}

// EncodeDynamicBytesContent is the lazy data writer for EncodeDynamicBytesOffset.
func EncodeDynamicBytesContent(enc *Encoder, blob []byte) {
	if enc.err != nil {
		return
	}
	enc.write(blob)
}

// EncodeStaticObject serializes a static ssz object.
//
// Note, nil objects are encoded as their zero value.
func EncodeStaticObject[T newableStaticObject[U], U any](enc *Encoder, obj T) {
	if enc.err != nil {
		return
	}
	if obj == nil {
		obj = T(new(U))
	}
	obj.DefineSSZ(enc.codec)
}

// EncodeDynamicObjectOffset serializes a dynamic ssz object's offset.
func EncodeDynamicObjectOffset[T newableDynamicObject[U], U any](enc *Encoder, obj T) {
	if obj == nil {
		obj = T(new(U))
	}
	enc.encodeOffset(obj.SizeSSZ(enc.sizer, false))
}

// EncodeDynamicObjectContent is the lazy data writer for EncodeDynamicObjectOffset.
func EncodeDynamicObjectContent[T newableDynamicObject[U], U any](enc *Encoder, obj T) {
	if enc.err != nil {
		return
	}
	if obj == nil {
		obj = T(new(U))
	}
	enc.startDynamics(obj.SizeSSZ(enc.sizer, true))
	obj.DefineSSZ(enc.codec)
	enc.flushDynamics()
}

// EncodeUnsafeArrayOfUint64s serializes a static array of uint64s, passed as
// a slice over the array's backing memory.
func EncodeUnsafeArrayOfUint64s[T ~uint64](enc *Encoder, ns []T) {
	if enc.err != nil {
		return
	}
	for _, n := range ns {
		binary.LittleEndian.PutUint64(enc.outBuffer, (uint64)(n))
		enc.outBuffer = enc.outBuffer[8:]
	}
}

// EncodeSliceOfUint64sOffset serializes a dynamic slice of uint64s' offset.
func EncodeSliceOfUint64sOffset[T ~uint64](enc *Encoder, ns []T) {
	enc.encodeOffset(uint32(len(ns)) * 8)
}

// EncodeSliceOfUint64sContent is the lazy data writer for EncodeSliceOfUint64sOffset.
func EncodeSliceOfUint64sContent[T ~uint64](enc *Encoder, ns []T) {
	if enc.err != nil {
		return
	}
	for _, n := range ns {
		binary.LittleEndian.PutUint64(enc.outBuffer, (uint64)(n))
		enc.outBuffer = enc.outBuffer[8:]
	}
}

// EncodeUnsafeArrayOfStaticBytes serializes a static array of static binary
// blobs, passed as a slice over the array's backing memory.
func EncodeUnsafeArrayOfStaticBytes[T commonBytesLengths](enc *Encoder, blobs []T) {
	if enc.err != nil {
		return
	}
	for i := range blobs {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		enc.write(unsafe.Slice(&blobs[i][0], len(blobs[i])))
	}
}

// EncodeSliceOfStaticBytesOffset serializes a dynamic slice of static binary
// blobs' offset.
func EncodeSliceOfStaticBytesOffset[T commonBytesLengths](enc *Encoder, blobs []T) {
	enc.encodeOffset(SizeSliceOfStaticBytes(enc.sizer, blobs))
}

// EncodeSliceOfStaticBytesContent is the lazy data writer for
// EncodeSliceOfStaticBytesOffset.
func EncodeSliceOfStaticBytesContent[T commonBytesLengths](enc *Encoder, blobs []T) {
	if enc.err != nil {
		return
	}
	for i := range blobs {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		enc.write(unsafe.Slice(&blobs[i][0], len(blobs[i])))
	}
}

// EncodeSliceOfDynamicBytesOffset serializes a dynamic slice of dynamic binary
// blobs' offset.
func EncodeSliceOfDynamicBytesOffset(enc *Encoder, blobs [][]byte) {
	enc.encodeOffset(SizeSliceOfDynamicBytes(enc.sizer, blobs))
}

// EncodeSliceOfDynamicBytesContent is the lazy data writer for
// EncodeSliceOfDynamicBytesOffset.
func EncodeSliceOfDynamicBytesContent(enc *Encoder, blobs [][]byte) {
	enc.startDynamics(uint32(4 * len(blobs)))
	for _, blob := range blobs {
		EncodeDynamicBytesOffset(enc, blob)
	}
	for _, blob := range blobs {
		EncodeDynamicBytesContent(enc, blob)
	}
	enc.flushDynamics()
}

// EncodeSliceOfStaticObjectsOffset serializes a dynamic slice of static ssz
// objects' offset.
func EncodeSliceOfStaticObjectsOffset[T newableStaticObject[U], U any](enc *Encoder, objects []T) {
	enc.encodeOffset(SizeSliceOfStaticObjects(enc.sizer, objects))
}

// EncodeSliceOfStaticObjectsContent is the lazy data writer for
// EncodeSliceOfStaticObjectsOffset.
func EncodeSliceOfStaticObjectsContent[T newableStaticObject[U], U any](enc *Encoder, objects []T) {
	for _, obj := range objects {
		EncodeStaticObject(enc, obj)
	}
}

// encodeOffset serializes the current dynamic offset and moves the tracker
// past the content of the given size.
func (enc *Encoder) encodeOffset(size uint32) {
	if enc.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(enc.outBuffer, enc.offset)
	enc.outBuffer = enc.outBuffer[4:]
	enc.offset += size
}

// write copies a blob into the output buffer and advances past it.
func (enc *Encoder) write(blob []byte) {
	copy(enc.outBuffer, blob)
	enc.outBuffer = enc.outBuffer[len(blob):]
}

// startDynamics marks the item being encoded as a dynamic type, setting the
// starting offset for the dynamic fields.
func (enc *Encoder) startDynamics(offset uint32) {
	enc.offsets = append(enc.offsets, enc.offset)
	enc.offset = offset
}

// flushDynamics marks the end of the dynamic fields, restoring the offset of
// the outer container.
func (enc *Encoder) flushDynamics() {
	enc.offset = enc.offsets[len(enc.offsets)-1]
	enc.offsets = enc.offsets[:len(enc.offsets)-1]
}
