package arena

// Fixed regions (§3.5): a small prelude at low addresses reserved ahead
// of the heap proper, at offsets known to both writers and attached
// readers. These offsets are part of the binary compatibility surface
// (spec.md §6.1) and must never change without a format bump.
const (
	// KeyBufOffset / KeyBufSize: scratch for encoding the current
	// lookup/insert key. 4096 bytes: the 4095-byte largest string a
	// packed blob offset (§3.3) can address, plus one byte. Keys of up
	// to the full 4096 bytes are accepted.
	KeyBufOffset = uint32(0)
	KeyBufSize   = uint32(4096)

	// BatchBufOffset / BatchBufSize: scratch for batch input and
	// multi-word return values (newRoot/existed/valPtr, or iteration
	// records [ptr, keyLen, valLen]).
	BatchBufOffset = KeyBufOffset + KeyBufSize
	BatchBufSize   = uint32(8192)

	// IterStackOffset / IterStackSize: depth-first iteration frames, one
	// 4-byte child offset per frame. 1024 frames is comfortably more
	// than ceil(32/5)=7 levels times a 32-wide fan-out ever needs.
	IterStackOffset = BatchBufOffset + BatchBufSize
	IterStackSize   = uint32(4096)
	IterFrameSize   = uint32(4)
	IterMaxFrames   = IterStackSize / IterFrameSize

	// RootsTableOffset / RootsTableSize: an optional 1024-slot table of
	// live root offsets, for GC anchoring by an external owner that
	// wants to keep a set of snapshots alive without tracking them
	// itself.
	RootsTableOffset = IterStackOffset + IterStackSize
	RootsTableSlots  = uint32(1024)
	RootsTableSize   = RootsTableSlots * 4

	// HeapStart is the first byte available to Alloc.
	HeapStart = RootsTableOffset + RootsTableSize
)

// RegisterRoot records offset in slot i of ROOTS_TABLE (0 <= i <
// RootsTableSlots), anchoring it against a GC-style sweep that only
// walks registered roots. A zero offset clears the slot.
func (a *Arena) RegisterRoot(i, offset uint32) {
	at := RootsTableOffset + i*4
	writeU32(a.buf, at, offset)
}

// Root reads back the offset registered in ROOTS_TABLE slot i.
func (a *Arena) Root(i uint32) uint32 {
	at := RootsTableOffset + i*4
	return readU32(a.buf, at)
}
