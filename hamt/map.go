package hamt

import (
	"fmt"
	"strings"

	"github.com/natanelia/hamt-sab/arena"
)

// Map is the ergonomic persistent handle over the low-level engine: a
// (*Engine, root, size) triple. Every mutating method returns a new
// *Map and leaves the receiver untouched and still valid, exactly as a
// caller holding two Map values from before and after a Set expects
// (spec.md §4.3's persistence guarantee). Unlike Engine's methods, Map's
// Set/Get/Delete hash the key directly rather than staging it through
// KEY_BUF first: the hash functions are pure, so the result is identical
// either way, and the ergonomic path has no byte-contract obligation to
// honor.
type Map struct {
	e    *Engine
	root uint32
	size uint32
}

// NewMap creates an empty map backed by a.
func NewMap(a *arena.Arena) *Map {
	return &Map{e: New(a)}
}

// Attach reconstructs a read-only Map over a snapshot handed off by
// another worker: the raw buffer plus the (heapEnd, freeList, root)
// triple it captured at snapshot time (spec.md §4.7/§6.3). The attached
// arena refuses Alloc and Free, so Set, and any Delete/Release that would
// allocate or free a block, fails with arena.ErrReadOnly. Refcount
// updates are not guarded: Clone, Release, and a Delete that allocates
// nothing succeed and write into the attached buffer. Only
// Get/Has/Keys/Values/Pairs/Debug leave the buffer untouched.
func Attach(buf []byte, heapEnd, freeList, root uint32) *Map {
	return &Map{e: New(arena.Attach(buf, heapEnd, freeList)), root: root}
}

// Root returns the map's current root offset, e.g. to register it in
// ROOTS_TABLE or hand it to another worker attaching read-only.
func (m *Map) Root() uint32 { return m.root }

// Arena exposes the backing arena, for callers layering another
// structure (e.g. hamtset.Set) on top of the same buffer.
func (m *Map) Arena() *arena.Arena { return m.e.A }

// Size returns the number of entries.
func (m *Map) Size() uint32 { return m.size }

// Set returns a new Map with key bound to value.
func (m *Map) Set(key, value []byte) (*Map, error) {
	if !m.e.validRoot(m.root) {
		return nil, ErrInvalidHandle
	}

	newRoot, existed, err := insert(m.e.A, m.root, hashBytes(key), 0, key, value)
	if err != nil {
		return nil, err
	}

	size := m.size
	if !existed {
		size++
	}

	return &Map{e: m.e, root: newRoot, size: size}, nil
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key []byte) ([]byte, bool) {
	off := lookup(m.e.A, m.root, hashBytes(key), 0, key)
	if off == Null {
		return nil, false
	}
	return m.e.Value(off), true
}

// Has reports whether key is present.
func (m *Map) Has(key []byte) bool {
	return lookup(m.e.A, m.root, hashBytes(key), 0, key) != Null
}

// Delete returns a new Map with key removed. If key was absent, the
// returned Map shares the receiver's root exactly, and that shared root
// is increfed once: the two Map values are now independent owners of the
// same unchanged subtree, a bookkeeping step remove's internal
// short-circuit (see remove.go) leaves for the caller to do.
func (m *Map) Delete(key []byte) (*Map, error) {
	if !m.e.validRoot(m.root) {
		return nil, ErrInvalidHandle
	}

	newRoot, found, err := remove(m.e.A, m.root, hashBytes(key), 0, key)
	if err != nil {
		return nil, err
	}

	if !found {
		if newRoot != Null {
			if err := m.e.Incref(newRoot); err != nil {
				return nil, err
			}
		}
		return &Map{e: m.e, root: newRoot, size: m.size}, nil
	}

	return &Map{e: m.e, root: newRoot, size: m.size - 1}, nil
}

// Clone returns an independent handle to the same contents: an
// additional owner of the current root.
func (m *Map) Clone() (*Map, error) {
	if !m.e.validRoot(m.root) {
		return nil, ErrInvalidHandle
	}
	if m.root != Null {
		if err := m.e.Incref(m.root); err != nil {
			return nil, err
		}
	}
	return &Map{e: m.e, root: m.root, size: m.size}, nil
}

// Release drops this handle's ownership of its root. A Map must not be
// used again after Release.
func (m *Map) Release() error {
	if m.root == Null {
		return nil
	}
	if !m.e.validRoot(m.root) {
		return ErrInvalidHandle
	}
	return m.e.Decref(m.root)
}

// Merge returns a new Map holding every pair of m overlaid with every
// pair of other; where both have a key, other's value wins. Every
// intermediate Map this loop builds and then replaces is released
// before being overwritten, since nothing else ever sees it; only the
// receiver m, still owned by its caller, is left untouched.
func (m *Map) Merge(other *Map) (*Map, error) {
	cur := m
	owned := false
	for _, p := range other.e.Pairs(other.root) {
		next, err := cur.Set(p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		if owned {
			if err := cur.Release(); err != nil {
				return nil, err
			}
		}
		cur = next
		owned = true
	}
	if !owned {
		return cur.Clone()
	}
	return cur, nil
}

// Keys, Values and Pairs expose the full contents in iteration order.
func (m *Map) Keys() [][]byte    { return m.e.Keys(m.root) }
func (m *Map) Values() [][]byte  { return m.e.Values(m.root) }
func (m *Map) Pairs() []Pair     { return m.e.Pairs(m.root) }

// Debug renders the trie shape rooted at m, for tests and troubleshooting.
func (m *Map) Debug() string {
	var b strings.Builder
	debugNode(&b, m.e.A.Bytes(), m.root, 0)
	return b.String()
}

func debugNode(b *strings.Builder, buf []byte, off uint32, depth int) {
	indent := strings.Repeat("  ", depth)
	if off == Null {
		fmt.Fprintf(b, "%s<empty>\n", indent)
		return
	}

	if isLeaf(buf, off) {
		fmt.Fprintf(b, "%sleaf@%d rc=%d key=%q val=%q\n", indent, off, refcount(buf, off),
			leafKeyBytes(buf, off), leafValueBytes(buf, off))
		return
	}

	bm := bitmap(buf, off)
	n := popcount(bm)
	fmt.Fprintf(b, "%snode@%d rc=%d bitmap=%#x children=%d\n", indent, off, refcount(buf, off), bm, n)
	for i := uint32(0); i < n; i++ {
		debugNode(b, buf, childOffset(buf, off, i), depth+1)
	}
}
