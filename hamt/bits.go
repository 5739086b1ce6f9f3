package hamt

import "math/bits"

// BITS/MASK: each trie level consumes 5 bits of the hash, 32-way
// branching (spec.md §4.3).
const (
	indexBits = 5
	indexMask = 0x1F
)

// indexAt returns the 5-bit slice of hash consumed at level. Go defines
// a shift by >= the operand's width as zero, which is exactly the
// "shift >= 32 falls through" behaviour spec.md §4.3 asks for.
func indexAt(hash uint32, level uint32) uint32 {
	shift := level * indexBits
	return (hash >> shift) & indexMask
}

func bitFor(index uint32) uint32 { return 1 << index }

func isBitSet(bm uint32, index uint32) bool { return bm&bitFor(index) != 0 }

func setBit(bm uint32, index uint32) uint32 { return bm | bitFor(index) }

func clearBit(bm uint32, index uint32) uint32 { return bm &^ bitFor(index) }

// position maps a hash slice to a compact child-array index by counting
// the set bits below the target bit (bitmap + popcount indexing).
func position(bm uint32, index uint32) uint32 {
	return uint32(bits.OnesCount32(bm & (bitFor(index) - 1)))
}

func popcount(bm uint32) uint32 { return uint32(bits.OnesCount32(bm)) }
