package vector

import (
	"math"

	"github.com/natanelia/hamt-sab/arena"
)

// getBits reads the raw 64-bit slot word at idx from the tree rooted at
// nodeOff, remaining levels of internal descent below it (spec.md
// §4.5: top-down radix, most-significant 5-bit slice first). A slot's
// 64 bits hold either an IEEE-754 float64 (Get/Set/Push) or, in the
// low 32 bits, a packed blob descriptor (GetBlob/SetBlob/PushBlob,
// blob.go) — getBits itself is agnostic to which.
func getBits(a *arena.Arena, nodeOff uint32, remaining uint32, idx uint32) uint64 {
	buf := a.Bytes()
	slot := slotAt(idx, remaining)

	if isLeafLevel(remaining) {
		return valueBits(buf, nodeOff, slot)
	}
	return getBits(a, childOffset(buf, nodeOff, slot), remaining-1, idx)
}

// setBits path-copies the route to idx, writing the raw 64-bit word
// bits there (spec.md §4.5 set). The path must already exist: set is
// only ever called for idx < size, and every such index was created by
// an earlier push.
func setBits(a *arena.Arena, nodeOff uint32, remaining uint32, idx uint32, bits uint64) (uint32, error) {
	slot := slotAt(idx, remaining)

	if isLeafLevel(remaining) {
		newLeaf, err := copyLeaf(a, nodeOff)
		if err != nil {
			return 0, err
		}
		setValueBits(a.Bytes(), newLeaf, slot, bits)
		return newLeaf, nil
	}

	buf := a.Bytes()
	child := childOffset(buf, nodeOff, slot)

	newChild, err := setBits(a, child, remaining-1, idx, bits)
	if err != nil {
		return 0, err
	}

	newNode, err := copyInternal(a, nodeOff)
	if err != nil {
		return 0, err
	}
	buf = a.Bytes()
	for i := uint32(0); i < childSlots; i++ {
		if i == slot {
			continue
		}
		if err := incref(a, childOffset(buf, newNode, i)); err != nil {
			return 0, err
		}
	}
	setChildOffset(buf, newNode, slot, newChild)
	return newNode, nil
}

// pushBits path-copies idx's route into nodeOff (or creates it fresh if
// nodeOff is Null), writing the raw 64-bit word bits at the newly
// created slot. idx is always exactly the tree's current size: push
// only ever extends the rightmost frontier.
func pushBits(a *arena.Arena, nodeOff uint32, remaining uint32, idx uint32, bits uint64) (uint32, error) {
	slot := slotAt(idx, remaining)

	if isLeafLevel(remaining) {
		var (
			newLeaf uint32
			err     error
		)
		if nodeOff == Null {
			newLeaf, err = allocLeaf(a)
		} else {
			newLeaf, err = copyLeaf(a, nodeOff)
		}
		if err != nil {
			return 0, err
		}
		setValueBits(a.Bytes(), newLeaf, slot, bits)
		return newLeaf, nil
	}

	var child uint32
	if nodeOff != Null {
		child = childOffset(a.Bytes(), nodeOff, slot)
	}

	newChild, err := pushBits(a, child, remaining-1, idx, bits)
	if err != nil {
		return 0, err
	}

	var newNode uint32
	if nodeOff == Null {
		newNode, err = allocInternal(a)
	} else {
		newNode, err = copyInternal(a, nodeOff)
	}
	if err != nil {
		return 0, err
	}

	buf := a.Bytes()
	for i := uint32(0); i < childSlots; i++ {
		if i == slot {
			continue
		}
		if err := incref(a, childOffset(buf, newNode, i)); err != nil {
			return 0, err
		}
	}
	setChildOffset(buf, newNode, slot, newChild)
	return newNode, nil
}

// PushBits is Push over a raw 64-bit slot word instead of a float64,
// the entry point GetBlob/SetBlob/PushBlob (blob.go) build on for the
// packed non-f64 slot variant.
func PushBits(a *arena.Arena, root, depth, size uint32, bits uint64) (newRoot, newDepth, newSize uint32, err error) {
	if size >= capacity(depth) {
		// Growing a level: build the fresh path to the new element under
		// a brand new top node (every other slot, including 0, starts
		// Null), then splice the old root in at slot 0. grownRoot is
		// solely owned at this point, so writing its slot 0 directly
		// needs no copy; the old root gains one more owner (this slot),
		// so it needs exactly one incref.
		grownRoot, err := pushBits(a, Null, depth+1, size, bits)
		if err != nil {
			return 0, 0, 0, err
		}
		if root != Null {
			if err := incref(a, root); err != nil {
				return 0, 0, 0, err
			}
		}
		setChildOffset(a.Bytes(), grownRoot, 0, root)
		return grownRoot, depth + 1, size + 1, nil
	}

	newRoot, err = pushBits(a, root, depth, size, bits)
	if err != nil {
		return 0, 0, 0, err
	}
	return newRoot, depth, size + 1, nil
}

// Push appends value to a vector of the given (root, depth, size),
// growing a new level above the current root when it is already at
// capacity (spec.md §4.5 push).
func Push(a *arena.Arena, root, depth, size uint32, value float64) (newRoot, newDepth, newSize uint32, err error) {
	return PushBits(a, root, depth, size, math.Float64bits(value))
}

// Pop shrinks size by one, collapsing the top level when the surviving
// size no longer needs it (spec.md §4.5 pop). Popping an empty vector is
// a no-op. Whenever the returned root is the same node the caller's own
// handle still owns (the no-op case, and the common non-collapsing
// case), it is increfed once: the result is a second, independent owner
// of that root. In the collapsing case the surviving child 0 becomes the
// result's root and is increfed once for it; the receiver keeps its own
// reference to the old root.
func Pop(a *arena.Arena, root, depth, size uint32) (newRoot, newDepth, newSize uint32, err error) {
	if size == 0 {
		if err := incref(a, root); err != nil {
			return 0, 0, 0, err
		}
		return root, depth, 0, nil
	}

	newSize = size - 1
	newRoot, newDepth = root, depth

	if depth > 0 && newSize <= capacity(depth-1) {
		buf := a.Bytes()
		child0 := childOffset(buf, root, 0)
		if err := incref(a, child0); err != nil {
			return 0, 0, 0, err
		}
		newRoot, newDepth = child0, depth-1
	} else {
		if err := incref(a, root); err != nil {
			return 0, 0, 0, err
		}
	}

	return newRoot, newDepth, newSize, nil
}

// GetBits reads the raw 64-bit slot word at idx (idx < size required).
func GetBits(a *arena.Arena, root, depth, idx uint32) uint64 {
	return getBits(a, root, depth, idx)
}

// SetBits path-copies idx to the raw 64-bit word bits, returning the
// new root.
func SetBits(a *arena.Arena, root, depth, idx uint32, bits uint64) (uint32, error) {
	return setBits(a, root, depth, idx, bits)
}

// Get reads the value at idx (idx < size required).
func Get(a *arena.Arena, root, depth, idx uint32) float64 {
	return math.Float64frombits(GetBits(a, root, depth, idx))
}

// Set path-copies idx to value, returning the new root.
func Set(a *arena.Arena, root, depth, idx uint32, value float64) (uint32, error) {
	return SetBits(a, root, depth, idx, math.Float64bits(value))
}
