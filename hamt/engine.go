package hamt

import (
	"encoding/binary"

	"github.com/natanelia/hamt-sab/arena"
)

// Engine is the low-level, byte-contract surface of the HAMT (spec.md
// §6.2): every operation takes offsets/lengths and reads the current
// key from KEY_BUF, the same convention an attached reader in another
// language would have to honor. Map (in map.go) is the ergonomic Go API
// built on top of it.
type Engine struct {
	A *arena.Arena

	activeOwner byte // 0 == no transient session active
	lastOwner   byte // last-issued owner tag, cycles 1..255
}

// New wraps an arena as a HAMT engine.
func New(a *arena.Arena) *Engine { return &Engine{A: a} }

// Reset clears the arena (spec.md §6.2 reset).
func (e *Engine) Reset() { e.A.Reset() }

// HeapEnd / SetHeapEnd / FreeList / SetFreeList expose the allocator
// state an attached reader re-seeds on snapshot attach.
func (e *Engine) HeapEnd() uint32      { return e.A.HeapEnd() }
func (e *Engine) SetHeapEnd(v uint32)  { e.A.SetHeapEnd(v) }
func (e *Engine) FreeList() uint32     { return e.A.FreeList() }
func (e *Engine) SetFreeList(v uint32) { e.A.SetFreeList(v) }

// KeyBuf / BatchBuf expose the fixed scratch regions directly, for a
// caller that wants to stage a key or read a batch record itself.
func (e *Engine) KeyBuf() []byte   { return e.A.KeyBuf() }
func (e *Engine) BatchBuf() []byte { return e.A.BatchBuf() }

// CopyKey stages key into KEY_BUF and returns the keyLen every other
// keyed operation expects.
func (e *Engine) CopyKey(key []byte) (uint32, error) {
	if uint32(len(key)) > arena.KeyBufSize {
		return 0, ErrKeyTooLarge
	}
	copy(e.A.KeyBuf(), key)
	return uint32(len(key)), nil
}

func (e *Engine) keyFromBuf(keyLen uint32) []byte {
	return e.A.KeyBuf()[:keyLen]
}

func leafValuePtr(buf []byte, leafOff uint32) uint32 {
	if leafOff == Null {
		return Null
	}
	return leafOff + leafDataOff + leafKeyLen(buf, leafOff)
}

// batch-result record layout within BATCH_BUF: [newRoot, existed, valPtr].
const (
	resultNewRootOff = 0
	resultExistedOff = 4
	resultValPtrOff  = 8
)

func (e *Engine) writeInsertResult(newRoot uint32, existed bool, valPtr uint32) {
	buf := e.A.BatchBuf()
	binary.LittleEndian.PutUint32(buf[resultNewRootOff:], newRoot)
	existedWord := uint32(0)
	if existed {
		existedWord = 1
	}
	binary.LittleEndian.PutUint32(buf[resultExistedOff:], existedWord)
	binary.LittleEndian.PutUint32(buf[resultValPtrOff:], valPtr)
}

// InsertKey inserts or updates the key currently staged in KEY_BUF
// (length keyLen) with value, returning (newRoot, existed, valPtr) and
// also writing the same triple into BATCH_BUF (spec.md §6.2).
func (e *Engine) InsertKey(root, keyLen uint32, value []byte) (newRoot uint32, existed bool, valPtr uint32, err error) {
	key := append([]byte(nil), e.keyFromBuf(keyLen)...)
	hash := hashBytes(key)

	newRoot, existed, err = insert(e.A, root, hash, 0, key, value)
	if err != nil {
		return 0, false, 0, err
	}

	leafPtr := lookup(e.A, newRoot, hash, 0, key)
	valPtr = leafValuePtr(e.A.Bytes(), leafPtr)
	e.writeInsertResult(newRoot, existed, valPtr)

	return newRoot, existed, valPtr, nil
}

// TryRemove removes the key staged in KEY_BUF, returning the new root,
// or NotFound if the key was absent (spec.md §6.2 tryRemove).
func (e *Engine) TryRemove(root, keyLen uint32) (uint32, error) {
	key := e.keyFromBuf(keyLen)
	hash := hashBytes(key)

	newRoot, found, err := remove(e.A, root, hash, 0, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return NotFound, nil
	}

	return newRoot, nil
}

// Get returns the leaf offset for the key staged in KEY_BUF, or Null.
func (e *Engine) Get(root, keyLen uint32) uint32 {
	key := e.keyFromBuf(keyLen)
	return lookup(e.A, root, hashBytes(key), 0, key)
}

// Has reports whether the key staged in KEY_BUF is present.
func (e *Engine) Has(root, keyLen uint32) bool {
	return e.Get(root, keyLen) != Null
}

// GetInfo returns the leaf offset plus its key length, value length, and
// a pointer to the inline key bytes, or all zero if absent.
func (e *Engine) GetInfo(root, keyLen uint32) (leafPtr, outKeyLen, valLen, keyPtr uint32) {
	leafPtr = e.Get(root, keyLen)
	if leafPtr == Null {
		return Null, 0, 0, 0
	}

	buf := e.A.Bytes()
	return leafPtr, leafKeyLen(buf, leafPtr), leafValLen(buf, leafPtr), leafPtr + leafDataOff
}

// Value copies out the value bytes for leafPtr (as returned by Get).
func (e *Engine) Value(leafPtr uint32) []byte {
	if leafPtr == Null {
		return nil
	}
	buf := e.A.Bytes()
	return append([]byte(nil), leafValueBytes(buf, leafPtr)...)
}

// Key copies out the key bytes for leafPtr.
func (e *Engine) Key(leafPtr uint32) []byte {
	if leafPtr == Null {
		return nil
	}
	buf := e.A.Bytes()
	return append([]byte(nil), leafKeyBytes(buf, leafPtr)...)
}

// Incref / Decref expose the refcount manager directly, for callers
// (Map, hamtset.Set) that manage handle lifetimes over raw roots.
func (e *Engine) Incref(off uint32) error { return incref(e.A, off) }
func (e *Engine) Decref(off uint32) error { return decref(e.A, off) }

// validRoot reports whether off could still be a live node: Reset
// rewinds the arena's heap end back to HeapStart, so any root handle
// taken out before a Reset reads back as being beyond the current heap
// end afterward (spec.md §7: a caller holding a handle across a Reset
// is a caller bug, but one this package can detect cheaply rather than
// leaving undefined). A zero-cost check, not a full validity proof: a
// root freed and then reused by a later allocation within the same
// heap extent still passes.
func (e *Engine) validRoot(off uint32) bool {
	return off == Null || off < e.A.HeapEnd()
}
