package vector

import (
	"errors"

	"github.com/natanelia/hamt-sab/arena"
)

var (
	// ErrBlobTooLarge is returned when a blob's byte length would not
	// fit in the packed descriptor's 12-bit length field.
	ErrBlobTooLarge = errors.New("vector: blob exceeds packed slot length field")

	// ErrBlobOffsetOutOfRange is returned when the arena offset a blob
	// was allocated at would not fit in the packed descriptor's 20-bit
	// offset field (spec.md §3.3). A heap-backed arena can grow to
	// 16 MiB, past the 2^20-byte window, so this fires once a blob is
	// allocated beyond that window.
	ErrBlobOffsetOutOfRange = errors.New("vector: blob offset exceeds packed slot offset field")
)

// allocBlob copies data into a fresh arena allocation and returns the
// packed (ptr, length) descriptor a leaf slot stores for it. It is the
// sole producer of the pairs packBlob is given, so it is where the
// 20-bit/12-bit field limits are enforced.
func allocBlob(a *arena.Arena, data []byte) (ptr, length uint32, err error) {
	if uint64(len(data)) > uint64(MaxBlobLen) {
		return 0, 0, ErrBlobTooLarge
	}
	off, err := a.Alloc(uint32(len(data)))
	if err != nil {
		return 0, 0, err
	}
	if off > MaxBlobOffset {
		return 0, 0, ErrBlobOffsetOutOfRange
	}
	copy(a.Bytes()[off:], data)
	return off, uint32(len(data)), nil
}
