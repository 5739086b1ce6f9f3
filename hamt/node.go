// Package hamt implements the persistent hash array mapped trie engine:
// node layout, path-copying insert/remove, lookup, iteration, and the
// batch/transient mutation modes, all living in a github.com/natanelia/hamt-sab/arena.Arena.
package hamt

import (
	"encoding/binary"

	"github.com/natanelia/hamt-sab/arena"
)

// Bit-layout constants for a node (spec.md §3.1).
const (
	headerOff = 0 // refcount (low 24 bits) | owner tag (high 8 bits)
	bitmapOff = 4 // 0 => leaf, non-zero => internal

	leafKeyHashOff = 8
	leafKeyLenOff  = 12
	leafValLenOff  = 16
	leafDataOff    = 20

	internalChildrenOff = 8
	childWordSize       = 4

	refcountMask = uint32(0x00FFFFFF)
	ownerShift   = 24
)

// Null is the null offset: zero is never a valid node offset because it
// falls inside the arena's fixed prelude.
const Null = uint32(0)

// NotFound is the sentinel tryRemove (and other absence-reporting raw
// ops) return in place of a new root when the key was never present.
const NotFound = uint32(0xFFFFFFFF)

func header(buf []byte, off uint32) uint32 { return binary.LittleEndian.Uint32(buf[off+headerOff:]) }
func setHeader(buf []byte, off, h uint32)  { binary.LittleEndian.PutUint32(buf[off+headerOff:], h) }

func refcount(buf []byte, off uint32) uint32 { return header(buf, off) & refcountMask }
func ownerTag(buf []byte, off uint32) byte   { return byte(header(buf, off) >> ownerShift) }

func setRefcount(buf []byte, off, rc uint32) {
	h := header(buf, off)
	setHeader(buf, off, (h&^refcountMask)|(rc&refcountMask))
}

func setOwnerTag(buf []byte, off uint32, tag byte) {
	h := header(buf, off)
	setHeader(buf, off, (h&refcountMask)|(uint32(tag)<<ownerShift))
}

func bitmap(buf []byte, off uint32) uint32 { return binary.LittleEndian.Uint32(buf[off+bitmapOff:]) }
func setBitmap(buf []byte, off, bm uint32) {
	binary.LittleEndian.PutUint32(buf[off+bitmapOff:], bm)
}

func isLeaf(buf []byte, off uint32) bool { return bitmap(buf, off) == 0 }

func leafKeyHash(buf []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off+leafKeyHashOff:])
}

func leafKeyLen(buf []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off+leafKeyLenOff:])
}

func leafValLen(buf []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off+leafValLenOff:])
}

func leafKeyBytes(buf []byte, off uint32) []byte {
	kl := leafKeyLen(buf, off)
	return buf[off+leafDataOff : off+leafDataOff+kl]
}

func leafValueBytes(buf []byte, off uint32) []byte {
	kl := leafKeyLen(buf, off)
	vl := leafValLen(buf, off)
	start := off + leafDataOff + kl
	return buf[start : start+vl]
}

func leafSize(keyLen, valLen uint32) uint32 {
	return leafDataOff + keyLen + valLen
}

func internalSize(popcount uint32) uint32 {
	return internalChildrenOff + popcount*childWordSize
}

func childOffset(buf []byte, nodeOff uint32, pos uint32) uint32 {
	at := nodeOff + internalChildrenOff + pos*childWordSize
	return binary.LittleEndian.Uint32(buf[at:])
}

func setChildOffset(buf []byte, nodeOff uint32, pos, child uint32) {
	at := nodeOff + internalChildrenOff + pos*childWordSize
	binary.LittleEndian.PutUint32(buf[at:], child)
}

// allocLeaf writes a fresh leaf node (refcount 1, no owner tag) holding
// keyHash/key/value inline and returns its offset.
func allocLeaf(a *arena.Arena, keyHash uint32, key, value []byte) (uint32, error) {
	size := leafSize(uint32(len(key)), uint32(len(value)))

	off, err := a.Alloc(size)
	if err != nil {
		return 0, err
	}

	buf := a.Bytes()
	setHeader(buf, off, 1)
	setBitmap(buf, off, 0)
	binary.LittleEndian.PutUint32(buf[off+leafKeyHashOff:], keyHash)
	binary.LittleEndian.PutUint32(buf[off+leafKeyLenOff:], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[off+leafValLenOff:], uint32(len(value)))
	copy(buf[off+leafDataOff:], key)
	copy(buf[off+leafDataOff+uint32(len(key)):], value)

	return off, nil
}

// allocInternal writes a fresh internal node (refcount 1, no owner tag)
// with the given bitmap and children in ascending slot order.
func allocInternal(a *arena.Arena, bm uint32, children []uint32) (uint32, error) {
	off, err := a.Alloc(internalSize(uint32(len(children))))
	if err != nil {
		return 0, err
	}

	buf := a.Bytes()
	setHeader(buf, off, 1)
	setBitmap(buf, off, bm)
	for i, c := range children {
		setChildOffset(buf, off, uint32(i), c)
	}

	return off, nil
}
