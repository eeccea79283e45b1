// ssz: Go Simple Serialize (SSZ) codec library
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"

	"github.com/holiman/uint256"
)

// Decoder is a wrapper around a []byte buffer to implement SSZ decoding. It has
// the following behaviors:
//
//  1. The decoder does not return errors that were hit during reading from the
//     underlying input buffer from individual decoding methods. Since there
//     is no expectation (in general) for failure, user code can be denser if
//     error checking is done at the end. Internally, of course, an error will
//     halt all future input operations.
//
//  2. Every object is decoded within a "slot" of known length. The decoder keeps
//     a stack of slots, verifying on exit that each object consumed exactly the
//     data assigned to it.
type Decoder struct {
	inBuffer  []byte // Underlying input buffer to read from
	inBufLen  int    // Remaining input length when the current slot started
	inBufLens []int  // Stack of remaining input lengths from outer calls

	err error // Any decoding error to halt future decoding calls

	codec *Codec   // Self-referencing to pass DefineSSZ calls through (API trick)
	sizer *Sizer   // Self-referencing to pass SizeSSZ call through (API trick)
	buf   [32]byte // Integer conversion buffer

	length  uint32   // Message length being decoded
	lengths []uint32 // Stack of lengths from outer calls

	offset  uint32   // Starting offset we expect, or last offset seen after
	offsets []uint32 // Queue of offsets for dynamic size calculations

	sizes  []uint32   // Computed sizes for the dynamic objects
	sizess [][]uint32 // Stack of computed sizes from outer calls
}

// DecodeBool parses a boolean.
func DecodeBool[T ~bool](dec *Decoder, v *T) {
	if dec.err != nil {
		return
	}
	if len(dec.inBuffer) < 1 {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	switch dec.inBuffer[0] {
	case 0:
		*v = false
	case 1:
		*v = true
	default:
		dec.err = fmt.Errorf("%w: found %#x", ErrInvalidBoolean, dec.inBuffer[0])
	}
	dec.inBuffer = dec.inBuffer[1:]
}

// DecodeUint64 parses a uint64.
func DecodeUint64[T ~uint64](dec *Decoder, n *T) {
	if dec.err != nil {
		return
	}
	if len(dec.inBuffer) < 8 {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	*n = T(binary.LittleEndian.Uint64(dec.inBuffer))
	dec.inBuffer = dec.inBuffer[8:]
}

// DecodeUint256 parses a uint256.
func DecodeUint256(dec *Decoder, n **uint256.Int) {
	if dec.err != nil {
		return
	}
	if len(dec.inBuffer) < 32 {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	if *n == nil {
		*n = new(uint256.Int)
	}
	(*n).UnmarshalSSZ(dec.inBuffer[:32])
	dec.inBuffer = dec.inBuffer[32:]
}

// DecodeStaticBytes parses a static binary blob.
func DecodeStaticBytes[T commonBytesLengths](dec *Decoder, blob *T) {
	if dec.err != nil {
		return
	}
	// The code below should have used `blob[:]`, alas Go's generics compiler
	// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
	dec.read(unsafe.Slice(&(*blob)[0], len(*blob)))
}

// DecodeCheckedStaticBytes parses a static binary blob into a slice of the
// given size.
func DecodeCheckedStaticBytes(dec *Decoder, blob *[]byte, size uint64) {
	if dec.err != nil {
		return
	}
	if uint64(cap(*blob)) < size {
		*blob = make([]byte, size)
	} else {
		*blob = (*blob)[:size]
	}
	dec.read(*blob)
}

// DecodeDynamicBytesOffset parses a dynamic binary blob's offset.
func DecodeDynamicBytesOffset(dec *Decoder, blob *[]byte) {
	dec.decodeOffset(false)
}

// DecodeDynamicBytesContent is the lazy data reader of DecodeDynamicBytesOffset.
func DecodeDynamicBytesContent(dec *Decoder, blob *[]byte, maxSize uint64) {
	if dec.err != nil {
		return
	}
	// Compute the length of the blob based on the seen offsets
	size := dec.retrieveSize()
	if uint64(size) > maxSize {
		dec.err = fmt.Errorf("%w: decoded %d, max %d", ErrMaxLengthExceeded, size, maxSize)
		return
	}
	if uint32(cap(*blob)) < size {
		*blob = make([]byte, size)
	} else {
		*blob = (*blob)[:size]
	}
	dec.read(*blob)
}

// DecodeStaticObject parses a static ssz object.
func DecodeStaticObject[T newableStaticObject[U], U any](dec *Decoder, obj *T) {
	if dec.err != nil {
		return
	}
	if *obj == nil {
		*obj = T(new(U))
	}
	(*obj).DefineSSZ(dec.codec)
}

// DecodeDynamicObjectOffset parses a dynamic ssz object's offset.
func DecodeDynamicObjectOffset[T newableDynamicObject[U], U any](dec *Decoder, obj *T) {
	dec.decodeOffset(false)
}

// DecodeDynamicObjectContent is the lazy data reader of DecodeDynamicObjectOffset.
func DecodeDynamicObjectContent[T newableDynamicObject[U], U any](dec *Decoder, obj *T) {
	if dec.err != nil {
		return
	}
	// Compute the length of the object based on the seen offsets
	size := dec.retrieveSize()

	// Descend into a new data slot to track/verify a new sub-length
	dec.descendIntoSlot(size)
	defer dec.ascendFromSlot()

	if *obj == nil {
		*obj = T(new(U))
	}
	dec.startDynamics((*obj).SizeSSZ(dec.sizer, true))
	(*obj).DefineSSZ(dec.codec)
	dec.flushDynamics()
}

// DecodeUnsafeArrayOfUint64s parses a static array of uint64s into a slice
// over the array's backing memory.
func DecodeUnsafeArrayOfUint64s[T ~uint64](dec *Decoder, ns []T) {
	if dec.err != nil {
		return
	}
	if len(dec.inBuffer) < 8*len(ns) {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	for i := range ns {
		ns[i] = T(binary.LittleEndian.Uint64(dec.inBuffer))
		dec.inBuffer = dec.inBuffer[8:]
	}
}

// DecodeSliceOfUint64sOffset parses a dynamic slice of uint64s' offset.
func DecodeSliceOfUint64sOffset[T ~uint64](dec *Decoder, ns *[]T) {
	dec.decodeOffset(false)
}

// DecodeSliceOfUint64sContent is the lazy data reader of DecodeSliceOfUint64sOffset.
func DecodeSliceOfUint64sContent[T ~uint64](dec *Decoder, ns *[]T, maxItems uint64) {
	if dec.err != nil {
		return
	}
	// Compute the length of the encoded binary and derive the number of items
	size := dec.retrieveSize()
	if size&7 != 0 {
		dec.err = fmt.Errorf("%w: length %d, item size %d", ErrDynamicStaticsIndivisible, size, 8)
		return
	}
	itemCount := size >> 3
	if uint64(itemCount) > maxItems {
		dec.err = fmt.Errorf("%w: decoded %d, max %d", ErrMaxItemsExceeded, itemCount, maxItems)
		return
	}
	if len(dec.inBuffer) < int(size) {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	// Expand the uint64 slice if needed and decode the list
	if uint32(cap(*ns)) < itemCount {
		*ns = make([]T, itemCount)
	} else {
		*ns = (*ns)[:itemCount]
	}
	for i := uint32(0); i < itemCount; i++ {
		(*ns)[i] = T(binary.LittleEndian.Uint64(dec.inBuffer))
		dec.inBuffer = dec.inBuffer[8:]
	}
}

// DecodeUnsafeArrayOfStaticBytes parses a static array of static binary blobs
// into a slice over the array's backing memory.
func DecodeUnsafeArrayOfStaticBytes[T commonBytesLengths](dec *Decoder, blobs []T) {
	if dec.err != nil {
		return
	}
	for i := range blobs {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		dec.read(unsafe.Slice(&blobs[i][0], len(blobs[i])))
	}
}

// DecodeSliceOfStaticBytesOffset parses a dynamic slice of static binary blobs'
// offset.
func DecodeSliceOfStaticBytesOffset[T commonBytesLengths](dec *Decoder, blobs *[]T) {
	dec.decodeOffset(false)
}

// DecodeSliceOfStaticBytesContent is the lazy data reader of
// DecodeSliceOfStaticBytesOffset.
func DecodeSliceOfStaticBytesContent[T commonBytesLengths](dec *Decoder, blobs *[]T, maxItems uint64) {
	if dec.err != nil {
		return
	}
	// Compute the length of the encoded binaries and derive the number of items
	var zero T
	itemSize := uint32(len(zero))

	size := dec.retrieveSize()
	if size%itemSize != 0 {
		dec.err = fmt.Errorf("%w: length %d, item size %d", ErrDynamicStaticsIndivisible, size, itemSize)
		return
	}
	itemCount := size / itemSize
	if uint64(itemCount) > maxItems {
		dec.err = fmt.Errorf("%w: decoded %d, max %d", ErrMaxItemsExceeded, itemCount, maxItems)
		return
	}
	// Expand the blob slice if needed and decode the list
	if uint32(cap(*blobs)) < itemCount {
		*blobs = make([]T, itemCount)
	} else {
		*blobs = (*blobs)[:itemCount]
	}
	for i := uint32(0); i < itemCount; i++ {
		// The code below should have used `blobs[i][:]`, alas Go's generics compiler
		// is missing that (i.e. a bug): https://github.com/golang/go/issues/51740
		dec.read(unsafe.Slice(&(*blobs)[i][0], len((*blobs)[i])))
	}
}

// DecodeSliceOfDynamicBytesOffset parses a dynamic slice of dynamic binary blobs'
// offset.
func DecodeSliceOfDynamicBytesOffset(dec *Decoder, blobs *[][]byte) {
	dec.decodeOffset(false)
}

// DecodeSliceOfDynamicBytesContent is the lazy data reader of
// DecodeSliceOfDynamicBytesOffset.
func DecodeSliceOfDynamicBytesContent(dec *Decoder, blobs *[][]byte, maxItems uint64, maxSize uint64) {
	if dec.err != nil {
		return
	}
	// Compute the length of the blob slice based on the seen offsets and sanity
	// check for empty slice or possibly bad data (too short to encode anything)
	size := dec.retrieveSize()
	if size == 0 {
		// Empty slice, remove anything extra
		*blobs = (*blobs)[:0]
		return
	}
	if size < 4 {
		dec.err = fmt.Errorf("%w: %d bytes available", ErrShortCounterOffset, size)
		return
	}
	// Descend into a new data slot to track/verify a new sub-length
	dec.descendIntoSlot(size)
	defer dec.ascendFromSlot()

	// Since we're decoding a dynamic slice of dynamic objects (blobs here), the
	// first offset will also act as a counter at to how many items there are in
	// the list (x4 bytes for offsets being uint32).
	dec.decodeOffset(true)
	if dec.err != nil {
		return
	}
	if dec.offset == 0 {
		dec.err = ErrZeroCounterOffset
		return
	}
	if dec.offset&3 != 0 {
		dec.err = fmt.Errorf("%w: %d bytes", ErrBadCounterOffset, dec.offset)
		return
	}
	items := dec.offset >> 2
	if uint64(items) > maxItems {
		dec.err = fmt.Errorf("%w: decoded %d, max %d", ErrMaxItemsExceeded, items, maxItems)
		return
	}
	// Expand the blob slice if needed
	if uint32(cap(*blobs)) < items {
		*blobs = make([][]byte, items)
	} else {
		*blobs = (*blobs)[:items]
	}
	for i := uint32(1); i < items; i++ {
		DecodeDynamicBytesOffset(dec, &(*blobs)[i])
	}
	for i := uint32(0); i < items; i++ {
		DecodeDynamicBytesContent(dec, &(*blobs)[i], maxSize)
	}
}

// DecodeSliceOfStaticObjectsOffset parses a dynamic slice of static ssz objects'
// offset.
func DecodeSliceOfStaticObjectsOffset[T newableStaticObject[U], U any](dec *Decoder, objects *[]T) {
	dec.decodeOffset(false)
}

// DecodeSliceOfStaticObjectsContent is the lazy data reader of
// DecodeSliceOfStaticObjectsOffset.
func DecodeSliceOfStaticObjectsContent[T newableStaticObject[U], U any](dec *Decoder, objects *[]T, maxItems uint64) {
	if dec.err != nil {
		return
	}
	// Compute the length of the encoded objects and derive the number of items
	itemSize := T(new(U)).SizeSSZ(dec.sizer)

	size := dec.retrieveSize()
	if size%itemSize != 0 {
		dec.err = fmt.Errorf("%w: length %d, item size %d", ErrDynamicStaticsIndivisible, size, itemSize)
		return
	}
	itemCount := size / itemSize
	if uint64(itemCount) > maxItems {
		dec.err = fmt.Errorf("%w: decoded %d, max %d", ErrMaxItemsExceeded, itemCount, maxItems)
		return
	}
	// Expand the slice if needed and decode the objects
	if uint32(cap(*objects)) < itemCount {
		*objects = make([]T, itemCount)
	} else {
		*objects = (*objects)[:itemCount]
	}
	for i := uint32(0); i < itemCount; i++ {
		if (*objects)[i] == nil {
			(*objects)[i] = T(new(U))
		}
		(*objects)[i].DefineSSZ(dec.codec)
	}
}

// read fills the blob from the input buffer and advances past it.
func (dec *Decoder) read(blob []byte) {
	if len(dec.inBuffer) < len(blob) {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	copy(blob, dec.inBuffer)
	dec.inBuffer = dec.inBuffer[len(blob):]
}

// decodeOffset decodes the next uint32 as an offset and validates it.
func (dec *Decoder) decodeOffset(list bool) {
	if dec.err != nil {
		return
	}
	if len(dec.inBuffer) < 4 {
		dec.err = io.ErrUnexpectedEOF
		return
	}
	offset := binary.LittleEndian.Uint32(dec.inBuffer)
	dec.inBuffer = dec.inBuffer[4:]

	if offset > dec.length {
		dec.err = fmt.Errorf("%w: decoded %d, message length %d", ErrOffsetBeyondCapacity, offset, dec.length)
		return
	}
	if len(dec.offsets) == 0 && !list && dec.offset != offset {
		dec.err = fmt.Errorf("%w: decoded %d, type expects %d", ErrFirstOffsetMismatch, offset, dec.offset)
		return
	}
	if len(dec.offsets) != 0 && dec.offset > offset {
		dec.err = fmt.Errorf("%w: decoded %d, previous was %d", ErrBadOffsetProgression, offset, dec.offset)
		return
	}
	dec.offset = offset
	dec.offsets = append(dec.offsets, offset)
}

// retrieveSize retrieves the length of the nest dynamic item based on the seen
// and cached offsets.
func (dec *Decoder) retrieveSize() uint32 {
	// If sizes aren't yet available, pre-compute them all. The reason we use a
	// reverse order is to permit popping them off without thrashing the slice.
	if len(dec.sizes) == 0 {
		// Expand the sizes slice to required capacity
		items := len(dec.offsets)
		if cap(dec.sizes) < items {
			dec.sizes = make([]uint32, items)
		} else {
			dec.sizes = dec.sizes[:items]
		}
		// Compute all the sizes we'll need in reverse order (so we can pop them
		// off like a stack without ruining the buffer pointer)
		for i := 0; i < items; i++ {
			if i < items-1 {
				dec.sizes[items-1-i] = dec.offsets[i+1] - dec.offsets[i]
			} else {
				dec.sizes[0] = dec.length - dec.offsets[i]
			}
		}
		// Nuke out the offsets to avoid leaving junk in the state
		dec.offsets = dec.offsets[:0]
	}
	// Retrieve the next item's size and pop it off the size stack
	size := dec.sizes[len(dec.sizes)-1]
	dec.sizes = dec.sizes[:len(dec.sizes)-1]
	return size
}

// descendIntoSlot marks the start of a new sub-object being decoded with the
// given length.
func (dec *Decoder) descendIntoSlot(length uint32) {
	dec.lengths = append(dec.lengths, dec.length)
	dec.length = length

	dec.inBufLens = append(dec.inBufLens, dec.inBufLen)
	dec.inBufLen = len(dec.inBuffer)

	dec.startDynamics(0) // random offset, will be ignored
}

// ascendFromSlot marks the end of a sub-object, verifying that it consumed all
// the data it was assigned.
func (dec *Decoder) ascendFromSlot() {
	dec.flushDynamics()

	if read := uint32(dec.inBufLen - len(dec.inBuffer)); read != dec.length {
		if dec.err == nil {
			dec.err = fmt.Errorf("%w: data size %d, object consumed %d", ErrObjectSlotSizeMismatch, dec.length, read)
		}
	}
	dec.inBufLen = dec.inBufLens[len(dec.inBufLens)-1]
	dec.inBufLens = dec.inBufLens[:len(dec.inBufLens)-1]

	dec.length = dec.lengths[len(dec.lengths)-1]
	dec.lengths = dec.lengths[:len(dec.lengths)-1]
}

// startDynamics marks the item being decoded as a dynamic type, setting the
// starting offset for the dynamic fields.
func (dec *Decoder) startDynamics(offset uint32) {
	dec.offset = offset

	dec.sizess = append(dec.sizess, dec.sizes)
	dec.sizes = nil
}

// flushDynamics marks the end of the dynamic fields, restoring the sizes of the
// outer container.
func (dec *Decoder) flushDynamics() {
	// Clear out any leftovers from partial dynamic decodes
	dec.offsets = dec.offsets[:0]

	last := len(dec.sizess) - 1
	dec.sizes = dec.sizess[last]
	dec.sizess = dec.sizess[:last]
}
