// Package vector implements the persistent 32-way vector trie: a
// random-access sequence built from the same arena, refcounting, and
// path-copying discipline as the hamt package, but over a dense,
// always-full-width node shape instead of a sparse bitmap-indexed one
// (spec.md §4.5).
package vector

import (
	"encoding/binary"

	"github.com/natanelia/hamt-sab/arena"
)

const (
	// childSlots is the trie's fan-out: every internal node has exactly
	// this many child words, and every leaf exactly this many value
	// slots, whether or not all of them are in use yet.
	childSlots = 32

	headerOff   = 0
	childrenOff = 4
	childWord   = 4
	valuesOff   = 4
	valueWord   = 8

	internalNodeSize = childrenOff + childSlots*childWord // 132
	leafNodeSize     = valuesOff + childSlots*valueWord   // 260
)

// Null is the null offset.
const Null = uint32(0)

func header(buf []byte, off uint32) uint32 { return binary.LittleEndian.Uint32(buf[off+headerOff:]) }
func setHeader(buf []byte, off, h uint32)  { binary.LittleEndian.PutUint32(buf[off+headerOff:], h) }

func refcount(buf []byte, off uint32) uint32 { return header(buf, off) }
func setRefcount(buf []byte, off, rc uint32) { setHeader(buf, off, rc) }

func childOffset(buf []byte, off uint32, slot uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off+childrenOff+slot*childWord:])
}

func setChildOffset(buf []byte, off uint32, slot, child uint32) {
	binary.LittleEndian.PutUint32(buf[off+childrenOff+slot*childWord:], child)
}

func valueBits(buf []byte, off uint32, slot uint32) uint64 {
	return binary.LittleEndian.Uint64(buf[off+valuesOff+slot*valueWord:])
}

func setValueBits(buf []byte, off uint32, slot uint32, bits uint64) {
	binary.LittleEndian.PutUint64(buf[off+valuesOff+slot*valueWord:], bits)
}

// allocInternal allocates a fresh internal node with every child slot
// explicitly set to Null: Arena.Alloc does not zero memory, and push
// relies on an un-populated slot reading back as Null.
func allocInternal(a *arena.Arena) (uint32, error) {
	off, err := a.Alloc(internalNodeSize)
	if err != nil {
		return 0, err
	}
	buf := a.Bytes()
	setHeader(buf, off, 1)
	for i := uint32(0); i < childSlots; i++ {
		setChildOffset(buf, off, i, Null)
	}
	return off, nil
}

// copyInternal allocates a fresh internal node carrying every child of
// src verbatim, at refcount 1. The caller incref's every child it keeps
// unchanged; the one slot it overwrites needs no incref if the new value
// is a fresh allocation.
func copyInternal(a *arena.Arena, src uint32) (uint32, error) {
	off, err := a.Alloc(internalNodeSize)
	if err != nil {
		return 0, err
	}
	buf := a.Bytes()
	copy(buf[off+childrenOff:off+internalNodeSize], buf[src+childrenOff:src+internalNodeSize])
	setHeader(buf, off, 1)
	return off, nil
}

// allocLeaf allocates a fresh, entirely unwritten leaf. Unused value
// slots are never read (callers only read indices below the vector's
// logical size, and every such index was written by some earlier push),
// so leaving them as whatever Alloc returned is safe.
func allocLeaf(a *arena.Arena) (uint32, error) {
	off, err := a.Alloc(leafNodeSize)
	if err != nil {
		return 0, err
	}
	setHeader(a.Bytes(), off, 1)
	return off, nil
}

// copyLeaf allocates a fresh leaf carrying every value of src verbatim.
func copyLeaf(a *arena.Arena, src uint32) (uint32, error) {
	off, err := a.Alloc(leafNodeSize)
	if err != nil {
		return 0, err
	}
	buf := a.Bytes()
	copy(buf[off+valuesOff:off+leafNodeSize], buf[src+valuesOff:src+leafNodeSize])
	setHeader(buf, off, 1)
	return off, nil
}

// A leaf value slot holds either an IEEE-754 float64 directly (the
// common case, see Get/Set/Push) or a packed blob descriptor: a 32-bit
// word combining a 20-bit arena offset with a 12-bit length, `ptr |
// (len << 20)` (spec.md §3.2/§3.3's "packed ptr|(len<<20) blob offset"
// slot variant, required for binary-format compatibility with callers
// that store an already-encoded blob rather than a scalar). Both live
// in the same 8-byte slot; which interpretation applies is a property
// of how the caller wrote the slot, not something the node records.
const (
	blobOffsetBits = 20
	blobLenBits    = 12

	blobOffsetMask = uint32(1)<<blobOffsetBits - 1
	blobLenMask    = uint32(1)<<blobLenBits - 1

	// MaxBlobOffset and MaxBlobLen are the largest arena offset and
	// byte length a packed blob descriptor can address.
	MaxBlobOffset = blobOffsetMask
	MaxBlobLen    = blobLenMask
)

// packBlob combines an arena offset and a byte length into the packed
// word a leaf slot stores for a non-f64 value. Callers must already
// have checked ptr and length each fit their field width; packBlob
// itself does not re-validate (see allocBlob in blob.go, the sole
// producer of the (ptr, length) pairs it's given).
func packBlob(ptr, length uint32) uint32 {
	return (ptr & blobOffsetMask) | (length&blobLenMask)<<blobOffsetBits
}

// unpackBlob splits a packed word back into its arena offset and byte
// length.
func unpackBlob(word uint32) (ptr, length uint32) {
	return word & blobOffsetMask, (word >> blobOffsetBits) & blobLenMask
}

func isLeafLevel(remaining uint32) bool { return remaining == 0 }

func slotAt(idx uint32, remaining uint32) uint32 {
	return (idx >> (5 * remaining)) & 0x1F
}

// capacity returns 32^(depth+1), the number of elements a tree of the
// given depth (internal levels above the leaf) can hold.
func capacity(depth uint32) uint32 {
	n := uint32(childSlots)
	for i := uint32(0); i < depth; i++ {
		n *= childSlots
	}
	return n
}
