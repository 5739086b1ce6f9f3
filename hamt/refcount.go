package hamt

import (
	"errors"

	"github.com/natanelia/hamt-sab/arena"
)

// ErrRefcountOverflow is returned (in debug-assert style, per spec.md
// §4.2/§9's open question) if a refcount would exceed the 24-bit field.
// Structural sharing keeps real workloads far below this in practice.
var ErrRefcountOverflow = errors.New("hamt: refcount overflow")

const maxRefcount = refcountMask

// incref adds one reference to node.
func incref(a *arena.Arena, off uint32) error {
	if off == Null {
		return nil
	}

	buf := a.Bytes()
	rc := refcount(buf, off)
	if rc >= maxRefcount {
		return ErrRefcountOverflow
	}

	setRefcount(buf, off, rc+1)
	return nil
}

// decref removes one reference from node. If the count reaches zero, a
// leaf returns its block to the arena; an internal node first decrefs
// every child present in its bitmap, then returns its own block
// (spec.md §4.2).
func decref(a *arena.Arena, off uint32) error {
	if off == Null {
		return nil
	}

	buf := a.Bytes()
	rc := refcount(buf, off)
	if rc == 0 {
		return nil
	}
	rc--
	setRefcount(buf, off, rc)

	if rc != 0 {
		return nil
	}

	if isLeaf(buf, off) {
		return a.Free(off)
	}

	bm := bitmap(buf, off)
	n := popcount(bm)
	for i := uint32(0); i < n; i++ {
		child := childOffset(buf, off, i)
		if err := decref(a, child); err != nil {
			return err
		}
	}

	return a.Free(off)
}
