package vector

import "github.com/natanelia/hamt-sab/arena"

// incref/decref mirror the hamt package's refcount manager (spec.md
// §4.2), minus the owner-tag bits: vector nodes carry no transient mode,
// so the full 32-bit header is refcount.
func incref(a *arena.Arena, off uint32) error {
	if off == Null {
		return nil
	}
	buf := a.Bytes()
	setRefcount(buf, off, refcount(buf, off)+1)
	return nil
}

func decref(a *arena.Arena, off uint32, depth uint32) error {
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

	if isLeafLevel(depth) {
		return a.Free(off)
	}

	for i := uint32(0); i < childSlots; i++ {
		child := childOffset(buf, off, i)
		if child == Null {
			continue
		}
		if err := decref(a, child, depth-1); err != nil {
			return err
		}
	}
	return a.Free(off)
}
