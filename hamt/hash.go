package hamt

// Hashing is part of the on-buffer contract (spec.md §4.3/§6.1): any
// attached reader must reproduce these exactly to walk the same bytes.

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// hashBytes is FNV-1a over the given bytes, the string-keyed variant.
func hashBytes(b []byte) uint32 {
	h := uint32(fnvOffset32)
	for _, c := range b {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	return h
}

// hashIndex is the 32-bit integer avalanche mix for numeric-keyed
// variants (Murmur3's finalizer), applied to a trie index/key instead of
// hashing its 4-byte representation through FNV.
func hashIndex(i uint32) uint32 {
	h := i
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
