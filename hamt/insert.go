package hamt

import (
	"bytes"

	"github.com/natanelia/hamt-sab/arena"
)

// insert path-copies key/value into the subtree rooted at nodeOff,
// returning the freshly built subtree and whether key already existed
// (spec.md §4.3 Insert). Every node on the new path is a fresh
// allocation at refcount 1; every sibling subtree folded unchanged into
// a copied internal node is increfed once, since the new node is an
// additional owner of it.
func insert(a *arena.Arena, nodeOff uint32, hash uint32, level uint32, key, value []byte) (uint32, bool, error) {
	if nodeOff == Null {
		leaf, err := allocLeaf(a, hash, key, value)
		return leaf, false, err
	}

	buf := a.Bytes()

	if isLeaf(buf, nodeOff) {
		exHash := leafKeyHash(buf, nodeOff)
		exKeyLen := leafKeyLen(buf, nodeOff)
		exKey := append([]byte(nil), leafKeyBytes(buf, nodeOff)...)

		match := exHash == hash && exKeyLen == uint32(len(key)) && bytes.Equal(exKey, key)

		newLeaf, err := allocLeaf(a, hash, key, value)
		if err != nil {
			return 0, false, err
		}
		if match {
			return newLeaf, true, nil
		}

		merged, err := mergeLeaves(a, nodeOff, exHash, newLeaf, hash, level)
		return merged, false, err
	}

	bm := bitmap(buf, nodeOff)
	idx := indexAt(hash, level)

	if isBitSet(bm, idx) {
		pos := position(bm, idx)
		child := childOffset(buf, nodeOff, pos)

		newChild, existed, err := insert(a, child, hash, level+1, key, value)
		if err != nil {
			return 0, false, err
		}

		n := popcount(bm)
		children := make([]uint32, n)
		buf = a.Bytes()
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
		return newNode, existed, err
	}

	newLeaf, err := allocLeaf(a, hash, key, value)
	if err != nil {
		return 0, false, err
	}

	n := popcount(bm)
	pos := position(bm, idx)
	children := make([]uint32, n+1)
	buf = a.Bytes()
	for i := uint32(0); i < n; i++ {
		c := childOffset(buf, nodeOff, i)
		if err := incref(a, c); err != nil {
			return 0, false, err
		}
		if i < pos {
			children[i] = c
		} else {
			children[i+1] = c
		}
	}
	children[pos] = newLeaf

	newNode, err := allocInternal(a, setBit(bm, idx), children)
	return newNode, false, err
}

// mergeLeaves splits two leaves that land in the same subtree into one
// or more internal nodes, by their next-differing 5-bit slot. If the
// hashes agree through all 32 bits, a single two-slot internal node
// holds both leaves side by side unconditionally (spec.md §4.3).
// existingOff is an already-live leaf and is increfed exactly once,
// wherever it is finally placed; newOff is a fresh leaf owned outright.
func mergeLeaves(a *arena.Arena, existingOff, existingHash, newOff, newHash uint32, level uint32) (uint32, error) {
	shift := level * indexBits

	if shift >= 32 {
		buf := a.Bytes()
		order := bytes.Compare(leafKeyBytes(buf, existingOff), leafKeyBytes(buf, newOff))

		if err := incref(a, existingOff); err != nil {
			return 0, err
		}

		children := []uint32{existingOff, newOff}
		if order > 0 {
			children = []uint32{newOff, existingOff}
		}

		return allocInternal(a, bitFor(0)|bitFor(1), children)
	}

	idx1 := indexAt(existingHash, level)
	idx2 := indexAt(newHash, level)

	if idx1 == idx2 {
		child, err := mergeLeaves(a, existingOff, existingHash, newOff, newHash, level+1)
		if err != nil {
			return 0, err
		}
		return allocInternal(a, bitFor(idx1), []uint32{child})
	}

	if err := incref(a, existingOff); err != nil {
		return 0, err
	}

	children := []uint32{existingOff, newOff}
	if idx2 < idx1 {
		children = []uint32{newOff, existingOff}
	}

	return allocInternal(a, bitFor(idx1)|bitFor(idx2), children)
}
