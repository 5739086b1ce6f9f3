package hamt

import (
	"github.com/natanelia/hamt-sab/arena"
)

// Iterator walks a subtree depth-first in ascending slot order, using
// ITER_STACK (spec.md §3.5) as its explicit frame stack instead of the
// Go call stack: each frame is a single pending child offset, pushed in
// descending slot order so the lowest slot pops first. This is a pure
// read: no refcounts are touched, and the same root can be iterated any
// number of times. Every Iterator over a given buffer uses the same
// ITER_STACK region, so only one of them can be in progress at a time;
// interleaving NextLeaf calls on two live iterators corrupts both.
type Iterator struct {
	a   *arena.Arena
	top uint32 // number of frames currently on the stack
}

// InitIter starts a new iteration over root.
func (e *Engine) InitIter(root uint32) *Iterator {
	it := &Iterator{a: e.A}
	if root != Null {
		it.push(root)
	}
	return it
}

func (it *Iterator) push(off uint32) {
	at := arena.IterStackOffset + it.top*arena.IterFrameSize
	buf := it.a.Bytes()
	buf[at] = byte(off)
	buf[at+1] = byte(off >> 8)
	buf[at+2] = byte(off >> 16)
	buf[at+3] = byte(off >> 24)
	it.top++
}

func (it *Iterator) pop() uint32 {
	it.top--
	at := arena.IterStackOffset + it.top*arena.IterFrameSize
	buf := it.a.Bytes()
	return uint32(buf[at]) | uint32(buf[at+1])<<8 | uint32(buf[at+2])<<16 | uint32(buf[at+3])<<24
}

// NextLeaf advances the iterator and returns the next leaf's offset, or
// (Null, false) once exhausted.
func (it *Iterator) NextLeaf() (uint32, bool) {
	buf := it.a.Bytes()

	for it.top > 0 {
		off := it.pop()

		if isLeaf(buf, off) {
			return off, true
		}

		bm := bitmap(buf, off)
		n := popcount(bm)
		for i := n; i > 0; i-- {
			it.push(childOffset(buf, off, i-1))
		}
	}

	return Null, false
}

// NextLeaves collects up to n more leaves, returning fewer than n once
// the iteration is exhausted.
func (it *Iterator) NextLeaves(n int) []uint32 {
	out := make([]uint32, 0, n)
	for len(out) < n {
		off, ok := it.NextLeaf()
		if !ok {
			break
		}
		out = append(out, off)
	}
	return out
}

// Keys returns every key in root, in iteration order.
func (e *Engine) Keys(root uint32) [][]byte {
	it := e.InitIter(root)
	var out [][]byte
	for {
		off, ok := it.NextLeaf()
		if !ok {
			return out
		}
		out = append(out, e.Key(off))
	}
}

// Values returns every value in root, in iteration order.
func (e *Engine) Values(root uint32) [][]byte {
	it := e.InitIter(root)
	var out [][]byte
	for {
		off, ok := it.NextLeaf()
		if !ok {
			return out
		}
		out = append(out, e.Value(off))
	}
}

// Pair is a key/value pair returned by Pairs.
type Pair struct {
	Key   []byte
	Value []byte
}

// Pairs returns every key/value pair in root, in iteration order.
func (e *Engine) Pairs(root uint32) []Pair {
	it := e.InitIter(root)
	var out []Pair
	for {
		off, ok := it.NextLeaf()
		if !ok {
			return out
		}
		out = append(out, Pair{Key: e.Key(off), Value: e.Value(off)})
	}
}
