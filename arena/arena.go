// Package arena implements the single contiguous byte-buffer allocator
// that every persistent structure in this module is built on.
//
// An Arena owns one []byte, a bump pointer (heapEnd) for fresh
// allocations, and a singly-linked, address-ordered free list of
// reclaimed blocks that coalesces with its neighbours on free. A small
// fixed prelude (KEY_BUF, BATCH_BUF, ITER_STACK, ROOTS_TABLE) sits below
// the heap at offsets known to both writers and attached readers; see
// regions.go.
package arena

import (
	"encoding/binary"
	"errors"
)

// ErrExhausted is returned when the arena cannot grow to satisfy an
// allocation.
var ErrExhausted = errors.New("arena: exhausted")

// ErrReadOnly is returned when a mutation API is called on an arena
// attached read-only (a snapshot reader).
var ErrReadOnly = errors.New("arena: read-only attachment")

const (
	// blockHeaderSize is the 8-byte [size:4][nextFree:4] prefix before
	// every allocation's usable bytes (§3.4).
	blockHeaderSize = 8
	// minBlockSize is the smallest block the allocator will hand out or
	// split off, header included.
	minBlockSize = 16
	// growPage is the unit the backing store grows by on exhaustion.
	growPage = 64 * 1024
	// maxGrow bounds a heap-backed arena's total size; it stands in for
	// spec.md's "~1 MiB of leaf key/value offsets" addressable window
	// plus headroom for internal nodes.
	maxGrow = 16 * 1024 * 1024
)

// Arena is a single contiguous byte buffer managed by a bump pointer and
// a coalescing free list. It is not safe for concurrent writers; see
// spec.md §5.
type Arena struct {
	buf       []byte
	heapEnd   uint32
	freeList  uint32
	readOnly  bool
	fixedSize bool // true for a shared (mmap) arena that cannot grow
	shared    *sharedMapping
}

// New creates a heap-backed arena of the given initial size (rounded up
// to at least the fixed prelude plus one page). It grows on demand up to
// maxGrow.
func New(initialSize uint32) *Arena {
	if initialSize < HeapStart+growPage {
		initialSize = HeapStart + growPage
	}

	a := &Arena{
		buf:     make([]byte, initialSize),
		heapEnd: HeapStart,
	}

	return a
}

// Reset clears all allocations: heapEnd rewinds to the start of the heap
// and the free list is emptied. Previously returned offsets become
// invalid; using them after Reset is a caller bug (spec.md §7).
func (a *Arena) Reset() {
	a.heapEnd = HeapStart
	a.freeList = 0
}

// Bytes exposes the raw backing buffer. Readers attaching to a snapshot
// use this (or their own copy of it) alongside HeapEnd/FreeList/root to
// reconstruct a read-only view; see Attach.
func (a *Arena) Bytes() []byte { return a.buf }

// HeapEnd returns the current bump pointer, for snapshot handoff.
func (a *Arena) HeapEnd() uint32 { return a.heapEnd }

// SetHeapEnd re-seeds the bump pointer; used when resuming an externally
// snapshotted state.
func (a *Arena) SetHeapEnd(v uint32) { a.heapEnd = v }

// FreeList returns the current free-list head, for snapshot handoff.
func (a *Arena) FreeList() uint32 { return a.freeList }

// SetFreeList re-seeds the free-list head.
func (a *Arena) SetFreeList(v uint32) { a.freeList = v }

// Attach wraps an existing byte buffer as a read-only arena: its Alloc
// and Free will refuse to run. A reader reconstructs its handles from
// the four-tuple (bufferBytes, heapEnd, freeListHead, root) handed to it
// out-of-band (spec.md §6.3).
func Attach(buf []byte, heapEnd, freeList uint32) *Arena {
	return &Arena{
		buf:       buf,
		heapEnd:   heapEnd,
		freeList:  freeList,
		readOnly:  true,
		fixedSize: true,
	}
}

// ReadOnly reports whether this arena refuses mutation (an attached
// reader).
func (a *Arena) ReadOnly() bool { return a.readOnly }

func align8(n uint32) uint32 {
	return (n + 7) &^ 7
}

func blockTotalSize(n uint32) uint32 {
	total := align8(n) + blockHeaderSize
	if total < minBlockSize {
		total = minBlockSize
	}
	return align8(total)
}

// blockAddr is the address of a block's 8-byte header given the data
// offset Alloc returned for it.
func blockAddr(dataOffset uint32) uint32 { return dataOffset - blockHeaderSize }

func (a *Arena) readSize(blockAddr uint32) uint32 {
	return binary.LittleEndian.Uint32(a.buf[blockAddr : blockAddr+4])
}

func (a *Arena) writeSize(blockAddr, size uint32) {
	binary.LittleEndian.PutUint32(a.buf[blockAddr:blockAddr+4], size)
}

func (a *Arena) readNextFree(blockAddr uint32) uint32 {
	return binary.LittleEndian.Uint32(a.buf[blockAddr+4 : blockAddr+8])
}

func (a *Arena) writeNextFree(blockAddr, next uint32) {
	binary.LittleEndian.PutUint32(a.buf[blockAddr+4:blockAddr+8], next)
}

// Alloc returns an 8-byte-aligned block of at least n usable bytes.
// Freshly allocated bytes are not zeroed; callers must write every field
// of the node/leaf header explicitly (spec.md §4.1).
func (a *Arena) Alloc(n uint32) (uint32, error) {
	if a.readOnly {
		return 0, ErrReadOnly
	}

	needed := blockTotalSize(n)

	if off, ok := a.allocFromFreeList(needed); ok {
		return off, nil
	}

	return a.bump(needed)
}

// allocFromFreeList performs a first-fit scan of the free list, splitting
// the found block if the remainder is at least one minimum block.
func (a *Arena) allocFromFreeList(needed uint32) (uint32, bool) {
	var prevAddr uint32 // 0 == "head"
	cur := a.freeList

	for cur != 0 {
		curSize := a.readSize(cur)

		if curSize >= needed {
			remainder := curSize - needed
			next := a.readNextFree(cur)

			if remainder >= minBlockSize {
				a.writeSize(cur, needed)
				splitAddr := cur + needed
				a.writeSize(splitAddr, remainder)
				a.linkFreeAt(prevAddr, splitAddr)
				a.writeNextFree(splitAddr, next)
			} else {
				a.linkFreeAt(prevAddr, next)
			}

			return cur + blockHeaderSize, true
		}

		prevAddr = cur
		cur = a.readNextFree(cur)
	}

	return 0, false
}

// linkFreeAt rewrites the free-list pointer at prevAddr (or the list
// head, if prevAddr is 0) to point at next.
func (a *Arena) linkFreeAt(prevAddr, next uint32) {
	if prevAddr == 0 {
		a.freeList = next
	} else {
		a.writeNextFree(prevAddr, next)
	}
}

func (a *Arena) bump(needed uint32) (uint32, error) {
	newEnd := a.heapEnd + needed
	if newEnd < a.heapEnd {
		return 0, ErrExhausted
	}

	if newEnd > uint32(len(a.buf)) {
		if growErr := a.grow(newEnd); growErr != nil {
			return 0, growErr
		}
	}

	addr := a.heapEnd
	a.writeSize(addr, needed)
	a.writeNextFree(addr, 0)
	a.heapEnd = newEnd

	return addr + blockHeaderSize, nil
}

// grow extends the backing store in whole 64 KiB pages until it can hold
// at least size bytes. A fixed-size (shared/mmap) arena never grows.
func (a *Arena) grow(size uint32) error {
	if a.fixedSize {
		return ErrExhausted
	}

	if size > maxGrow {
		return ErrExhausted
	}

	newLen := uint32(len(a.buf))
	for newLen < size {
		newLen += growPage
	}
	if newLen > maxGrow {
		newLen = maxGrow
	}

	grown := make([]byte, newLen)
	copy(grown, a.buf)
	a.buf = grown

	return nil
}

// Free returns the block at dataOffset to the free list, coalescing with
// an immediately adjacent previous or next free block so the free list
// stays bounded across long write sessions (spec.md §4.1).
func (a *Arena) Free(dataOffset uint32) error {
	if a.readOnly {
		return ErrReadOnly
	}
	if dataOffset == 0 {
		return nil
	}

	addr := blockAddr(dataOffset)
	size := a.readSize(addr)

	var prevAddr uint32
	hasPrev := false
	cur := a.freeList

	for cur != 0 && cur < addr {
		prevAddr = cur
		hasPrev = true
		cur = a.readNextFree(cur)
	}
	next := cur

	// Try to merge into the previous free neighbour first.
	if hasPrev {
		prevSize := a.readSize(prevAddr)
		if prevAddr+prevSize == addr {
			prevSize += size
			a.writeSize(prevAddr, prevSize)
			addr = prevAddr
			size = prevSize
			// addr now aliases the previous block; next is unchanged,
			// fall through to try merging with next below without
			// re-linking prev (it is already linked to next).
			if addr+size == next && next != 0 {
				nextSize := a.readSize(next)
				a.writeSize(addr, size+nextSize)
				a.writeNextFree(addr, a.readNextFree(next))
			}
			return nil
		}
	}

	// Try to merge into the next free neighbour.
	if next != 0 && addr+size == next {
		nextSize := a.readSize(next)
		a.writeSize(addr, size+nextSize)
		a.writeNextFree(addr, a.readNextFree(next))
		a.linkFreeAt(prevIfAny(hasPrev, prevAddr), addr)
		return nil
	}

	a.writeNextFree(addr, next)
	a.linkFreeAt(prevIfAny(hasPrev, prevAddr), addr)
	return nil
}

func prevIfAny(hasPrev bool, prevAddr uint32) uint32 {
	if !hasPrev {
		return 0
	}
	return prevAddr
}
