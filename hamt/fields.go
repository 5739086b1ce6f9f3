package hamt

import (
	"encoding/binary"
	"math"
)

// The GetField* accessors read one fixed-offset field out of a leaf's
// value without reconstructing the whole value as a language-level
// object first (spec.md §4.3/§6.2's field-at-offset accessors): root
// and keyLen identify the entry exactly as every other keyed Engine
// operation does (the key staged in KEY_BUF), and offset is a byte
// offset into that entry's value, for callers storing a composite
// record (several fields packed into one leaf value) who only need one
// field of it. They report ok = false when the key is absent or the
// field would run past the value's end, rather than panicking.

// fieldValue looks up the key staged in KEY_BUF (length keyLen) against
// root and returns its raw value bytes, or nil if absent.
func (e *Engine) fieldValue(root, keyLen uint32) []byte {
	leafPtr := e.Get(root, keyLen)
	if leafPtr == Null {
		return nil
	}
	return leafValueBytes(e.A.Bytes(), leafPtr)
}

// GetFieldI32 reads a little-endian int32 at offset within the value
// bound to the key staged in KEY_BUF.
func (e *Engine) GetFieldI32(root, keyLen, offset uint32) (int32, bool) {
	value := e.fieldValue(root, keyLen)
	end := offset + 4
	if value == nil || end < offset || end > uint32(len(value)) {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(value[offset:end])), true
}

// GetFieldF64 reads a little-endian float64 at offset within the value
// bound to the key staged in KEY_BUF.
func (e *Engine) GetFieldF64(root, keyLen, offset uint32) (float64, bool) {
	value := e.fieldValue(root, keyLen)
	end := offset + 8
	if value == nil || end < offset || end > uint32(len(value)) {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(value[offset:end])), true
}

// GetFieldStr reads a 4-byte length prefix at offset, then copies that
// many following bytes to outPtr, returning the copied length. outPtr
// must name a region with at least that much room (e.g. BATCH_BUF).
func (e *Engine) GetFieldStr(root, keyLen, offset, outPtr uint32) (uint32, bool) {
	value := e.fieldValue(root, keyLen)
	prefixEnd := offset + 4
	if value == nil || prefixEnd < offset || prefixEnd > uint32(len(value)) {
		return 0, false
	}

	strLen := binary.LittleEndian.Uint32(value[offset:prefixEnd])
	start := prefixEnd
	end := start + strLen
	if end < start || end > uint32(len(value)) {
		return 0, false
	}

	copy(e.A.Bytes()[outPtr:outPtr+strLen], value[start:end])
	return strLen, true
}
