package hamt

import (
	"bytes"

	"github.com/natanelia/hamt-sab/arena"
)

// Transient is a batched mutation session: every node it allocates is
// stamped with a single owner tag, and a later write in the same session
// that revisits an owner-tagged node of unchanged shape mutates it in
// place instead of path-copying it (spec.md §4.5, the Open Question on
// transient nesting resolved in errors.go). Sessions never nest.
type Transient struct {
	e     *Engine
	owner byte
}

// BeginTransient starts a batched session on e. Owner tags cycle through
// 1..255 (0 is reserved to mean "no owner" on ordinary persistent
// nodes). After 255 sessions the tags wrap around, so nodes stamped by
// an earlier session that drew the same tag become eligible for in-place
// mutation again; this package does not detect that case.
func (e *Engine) BeginTransient() (*Transient, error) {
	if e.activeOwner != 0 {
		return nil, ErrTransientNesting
	}

	next := e.lastOwner + 1
	if next == 0 {
		next = 1
	}
	e.lastOwner = next
	e.activeOwner = next

	return &Transient{e: e, owner: next}, nil
}

// End closes the session. Nodes it allocated keep their owner tag
// forever; they simply stop being eligible for in-place mutation once no
// session holds that tag.
func (t *Transient) End() {
	t.e.activeOwner = 0
}

// Insert is the transient counterpart of Engine.InsertKey: it may mutate
// owner-tagged nodes of unchanged shape in place rather than copying
// them. The returned root must be passed to the next call in the same
// session; a root from one transient root chain must never be read
// through a handle that outlived the session without an explicit
// Incref, since in-place mutation breaks path-copying's isolation
// guarantee for the duration of the batch (spec.md §4.5).
func (t *Transient) Insert(root, keyLen uint32, value []byte) (newRoot uint32, existed bool, err error) {
	if t.e.activeOwner != t.owner {
		return 0, false, ErrNoTransient
	}
	key := append([]byte(nil), t.e.keyFromBuf(keyLen)...)
	return transientInsert(t.e.A, t.owner, root, hashBytes(key), 0, key, value)
}

// Remove is the transient counterpart of Engine.TryRemove.
func (t *Transient) Remove(root, keyLen uint32) (newRoot uint32, found bool, err error) {
	if t.e.activeOwner != t.owner {
		return 0, false, ErrNoTransient
	}
	key := append([]byte(nil), t.e.keyFromBuf(keyLen)...)
	return transientRemove(t.e.A, t.owner, root, hashBytes(key), 0, key)
}

func allocLeafOwned(a *arena.Arena, owner byte, keyHash uint32, key, value []byte) (uint32, error) {
	off, err := allocLeaf(a, keyHash, key, value)
	if err != nil {
		return 0, err
	}
	setOwnerTag(a.Bytes(), off, owner)
	return off, nil
}

func allocInternalOwned(a *arena.Arena, owner byte, bm uint32, children []uint32) (uint32, error) {
	off, err := allocInternal(a, bm, children)
	if err != nil {
		return 0, err
	}
	setOwnerTag(a.Bytes(), off, owner)
	return off, nil
}

// transientInsert mirrors insert, with one addition: a node already
// tagged with owner and whose shape does not change (same popcount, same
// value length) is mutated in place and its own offset is returned
// unchanged, so its ancestors can detect "nothing changed here" and
// avoid copying themselves too. Whenever a slot of an in-place node is
// overwritten with a different value, the old value is decrefed right
// there, since nothing else will ever decref it: the in-place node never
// becomes unreachable the way a superseded copy would.
func transientInsert(a *arena.Arena, owner byte, nodeOff, hash, level uint32, key, value []byte) (uint32, bool, error) {
	if nodeOff == Null {
		leaf, err := allocLeafOwned(a, owner, hash, key, value)
		return leaf, false, err
	}

	buf := a.Bytes()

	if isLeaf(buf, nodeOff) {
		exHash := leafKeyHash(buf, nodeOff)
		exKeyLen := leafKeyLen(buf, nodeOff)
		exKey := append([]byte(nil), leafKeyBytes(buf, nodeOff)...)
		match := exHash == hash && exKeyLen == uint32(len(key)) && bytes.Equal(exKey, key)

		if match {
			if ownerTag(buf, nodeOff) == owner && leafValLen(buf, nodeOff) == uint32(len(value)) {
				copy(leafValueBytes(buf, nodeOff), value)
				return nodeOff, true, nil
			}
			leaf, err := allocLeafOwned(a, owner, hash, key, value)
			return leaf, true, err
		}

		newLeaf, err := allocLeafOwned(a, owner, hash, key, value)
		if err != nil {
			return 0, false, err
		}
		merged, err := mergeLeavesOwned(a, owner, nodeOff, exHash, newLeaf, hash, level)
		return merged, false, err
	}

	bm := bitmap(buf, nodeOff)
	idx := indexAt(hash, level)

	if isBitSet(bm, idx) {
		pos := position(bm, idx)
		child := childOffset(buf, nodeOff, pos)

		newChild, existed, err := transientInsert(a, owner, child, hash, level+1, key, value)
		if err != nil {
			return 0, false, err
		}
		if newChild == child {
			return nodeOff, existed, nil
		}

		buf = a.Bytes()
		if ownerTag(buf, nodeOff) == owner {
			if err := decref(a, child); err != nil {
				return 0, false, err
			}
			setChildOffset(buf, nodeOff, pos, newChild)
			return nodeOff, existed, nil
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

		newNode, err := allocInternalOwned(a, owner, bm, children)
		return newNode, existed, err
	}

	newLeaf, err := allocLeafOwned(a, owner, hash, key, value)
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

	newNode, err := allocInternalOwned(a, owner, setBit(bm, idx), children)
	return newNode, false, err
}

func mergeLeavesOwned(a *arena.Arena, owner byte, existingOff, existingHash, newOff, newHash, level uint32) (uint32, error) {
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

		return allocInternalOwned(a, owner, bitFor(0)|bitFor(1), children)
	}

	idx1 := indexAt(existingHash, level)
	idx2 := indexAt(newHash, level)

	if idx1 == idx2 {
		child, err := mergeLeavesOwned(a, owner, existingOff, existingHash, newOff, newHash, level+1)
		if err != nil {
			return 0, err
		}
		return allocInternalOwned(a, owner, bitFor(idx1), []uint32{child})
	}

	if err := incref(a, existingOff); err != nil {
		return 0, err
	}

	children := []uint32{existingOff, newOff}
	if idx2 < idx1 {
		children = []uint32{newOff, existingOff}
	}

	return allocInternalOwned(a, owner, bitFor(idx1)|bitFor(idx2), children)
}

// transientRemove mirrors remove with the same in-place mutation rule as
// transientInsert.
func transientRemove(a *arena.Arena, owner byte, nodeOff, hash, level uint32, key []byte) (uint32, bool, error) {
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

	newChild, found, err := transientRemove(a, owner, child, hash, level+1, key)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return nodeOff, false, nil
	}

	n := popcount(bm)
	buf = a.Bytes()

	if newChild != Null {
		if newChild == child {
			return nodeOff, true, nil
		}

		if ownerTag(buf, nodeOff) == owner {
			if err := decref(a, child); err != nil {
				return 0, false, err
			}
			setChildOffset(buf, nodeOff, pos, newChild)
			return nodeOff, true, nil
		}

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
		newNode, err := allocInternalOwned(a, owner, bm, children)
		return newNode, true, err
	}

	if n == 1 {
		return Null, true, nil
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
			return sibling, true, nil
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

	newNode, err := allocInternalOwned(a, owner, newBitmap, children)
	return newNode, true, err
}
