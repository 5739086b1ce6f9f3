package hamt

import (
	"bytes"

	"github.com/natanelia/hamt-sab/arena"
)

// lookup walks from nodeOff without touching refcounts, returning the
// matching leaf's offset or Null (spec.md §4.3 Lookup).
func lookup(a *arena.Arena, nodeOff uint32, hash uint32, level uint32, key []byte) uint32 {
	buf := a.Bytes()

	for nodeOff != Null {
		if isLeaf(buf, nodeOff) {
			if leafKeyHash(buf, nodeOff) == hash &&
				leafKeyLen(buf, nodeOff) == uint32(len(key)) &&
				bytes.Equal(leafKeyBytes(buf, nodeOff), key) {
				return nodeOff
			}
			return Null
		}

		bm := bitmap(buf, nodeOff)
		idx := indexAt(hash, level)
		if !isBitSet(bm, idx) {
			return Null
		}

		nodeOff = childOffset(buf, nodeOff, position(bm, idx))
		level++
	}

	return Null
}
