package hamt

import "encoding/binary"

// Numeric-keyed operations key on a 4-byte little-endian encoding of a
// uint32 index, hashed with hashIndex's avalanche mix rather than
// hashBytes's FNV-1a (spec.md §3.2): two engines built from the same
// sequence of InsertNum/RemoveNum calls must land every entry in the
// same slot regardless of implementation language, so the mix has to be
// exactly this one, not "any well-distributed hash".
func numKey(idx uint32) []byte {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, idx)
	return key
}

// InsertNum inserts or updates a numeric-keyed entry.
func (e *Engine) InsertNum(root, idx uint32, value []byte) (newRoot uint32, existed bool, valPtr uint32, err error) {
	key := numKey(idx)
	hash := hashIndex(idx)

	newRoot, existed, err = insert(e.A, root, hash, 0, key, value)
	if err != nil {
		return 0, false, 0, err
	}

	leafPtr := lookup(e.A, newRoot, hash, 0, key)
	valPtr = leafValuePtr(e.A.Bytes(), leafPtr)
	e.writeInsertResult(newRoot, existed, valPtr)

	return newRoot, existed, valPtr, nil
}

// GetNum returns the leaf offset for idx, or Null.
func (e *Engine) GetNum(root, idx uint32) uint32 {
	return lookup(e.A, root, hashIndex(idx), 0, numKey(idx))
}

// HasNum reports whether idx is present.
func (e *Engine) HasNum(root, idx uint32) bool {
	return e.GetNum(root, idx) != Null
}

// RemoveNum removes a numeric-keyed entry, returning the new root or
// NotFound if idx was absent.
func (e *Engine) RemoveNum(root, idx uint32) (uint32, error) {
	newRoot, found, err := remove(e.A, root, hashIndex(idx), 0, numKey(idx))
	if err != nil {
		return 0, err
	}
	if !found {
		return NotFound, nil
	}
	return newRoot, nil
}

// GetNumInfo is GetInfo for a numeric key, except that its fourth result
// points at the value bytes rather than the key bytes.
func (e *Engine) GetNumInfo(root, idx uint32) (leafPtr, keyLen, valLen, valPtrOut uint32) {
	leafPtr = e.GetNum(root, idx)
	if leafPtr == Null {
		return Null, 0, 0, 0
	}
	buf := e.A.Bytes()
	return leafPtr, leafKeyLen(buf, leafPtr), leafValLen(buf, leafPtr), leafValuePtr(buf, leafPtr)
}
