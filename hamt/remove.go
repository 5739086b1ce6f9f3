package hamt

import (
	"bytes"

	"github.com/natanelia/hamt-sab/arena"
)

// remove mirrors insert: it path-copies the root-to-leaf route down to
// key, returning the rebuilt subtree, Null if the subtree became empty,
// or the unchanged nodeOff with found=false if key was never present
// (spec.md §4.3 Remove). An unchanged subtree is returned verbatim with
// no new incref, since no new reference to it is being created — the
// caller short-circuits the same way, all the way to the root.
func remove(a *arena.Arena, nodeOff uint32, hash uint32, level uint32, key []byte) (uint32, bool, error) {
	if nodeOff == Null {
		return Null, false, nil
	}

	buf := a.Bytes()

	if isLeaf(buf, nodeOff) {
		if leafKeyHash(buf, nodeOff) == hash &&
			leafKeyLen(buf, nodeOff) == uint32(len(key)) &&
			bytes.Equal(leafKeyBytes(buf, nodeOff), key) {
			return Null, true, nil
		}
		return nodeOff, false, nil
	}

	bm := bitmap(buf, nodeOff)
	idx := indexAt(hash, level)
	if !isBitSet(bm, idx) {
		return nodeOff, false, nil
	}

	pos := position(bm, idx)
	child := childOffset(buf, nodeOff, pos)

	newChild, found, err := remove(a, child, hash, level+1, key)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return nodeOff, false, nil
	}

	n := popcount(bm)
	buf = a.Bytes()

	if newChild != Null {
		children := make([]uint32, n)
		for i := uint32(0); i < n; i++ {
			if i == pos {
				children[i] = newChild
				continue
			}
			c := childOffset(buf, nodeOff, i)
			if err := incref(a, c); err != nil {
				return 0, false, err
			}
			children[i] = c
		}
		newNode, err := allocInternal(a, bm, children)
		return newNode, true, err
	}

	// The child leaf was removed outright.
	if n == 1 {
		return Null, true, nil // this node collapses too
	}

	if n == 2 {
		siblingPos := uint32(0)
		if pos == 0 {
			siblingPos = 1
		}
		sibling := childOffset(buf, nodeOff, siblingPos)

		if isLeaf(buf, sibling) {
			if err := incref(a, sibling); err != nil {
				return 0, false, err
			}
			return sibling, true, nil // pull the lone leaf sibling up
		}
	}

	newBitmap := clearBit(bm, idx)
	children := make([]uint32, n-1)
	j := uint32(0)
	for i := uint32(0); i < n; i++ {
		if i == pos {
			continue
		}
		c := childOffset(buf, nodeOff, i)
		if err := incref(a, c); err != nil {
			return 0, false, err
		}
		children[j] = c
		j++
	}

	newNode, err := allocInternal(a, newBitmap, children)
	return newNode, true, err
}
