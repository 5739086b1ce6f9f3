// Package queue is a FIFO projection over a persistent vector: enqueue
// appends at the tail, dequeue advances a logical head index rather than
// reclaiming the consumed prefix, and peek reads at head (spec.md §4.5).
// The package introduces no node type of its own.
package queue

import (
	"errors"

	"github.com/natanelia/hamt-sab/arena"
	"github.com/natanelia/hamt-sab/vector"
)

// ErrEmpty is returned by Peek and Dequeue on an empty queue.
var ErrEmpty = errors.New("queue: empty")

// Queue is a (vector, head) handle; size is vec.Size() - head.
type Queue struct {
	v    *vector.Vector
	head uint32
}

// New creates an empty queue backed by a.
func New(a *arena.Arena) *Queue {
	return &Queue{v: vector.New(a)}
}

// Size returns the number of elements currently queued.
func (q *Queue) Size() uint32 {
	_, _, total := q.v.Root()
	return total - q.head
}

// Enqueue returns a new Queue with value appended at the tail.
func (q *Queue) Enqueue(value float64) (*Queue, error) {
	nv, err := q.v.Push(value)
	if err != nil {
		return nil, err
	}
	return &Queue{v: nv, head: q.head}, nil
}

// Peek returns the front element without removing it. Computed on
// demand rather than cached (spec.md §9's lazy-vs-cached Open Question):
// one extra vector lookup per call, in exchange for not having to keep a
// redundant copy of the front value in sync with head.
func (q *Queue) Peek() (float64, error) {
	if q.Size() == 0 {
		return 0, ErrEmpty
	}
	return q.v.Get(q.head), nil
}

// Dequeue returns a new Queue with the front element logically removed
// (head advances by one; the vector's prefix is not reclaimed), and the
// element that was removed. The result clones the backing vector handle
// rather than reusing q.v directly, since q and the result must be
// independently releasable.
func (q *Queue) Dequeue() (*Queue, float64, error) {
	front, err := q.Peek()
	if err != nil {
		return nil, 0, err
	}
	nv, err := q.v.Clone()
	if err != nil {
		return nil, 0, err
	}
	return &Queue{v: nv, head: q.head + 1}, front, nil
}

// Release drops this handle's ownership of its backing vector.
func (q *Queue) Release() error { return q.v.Release() }

// Clone returns an independent handle to the same contents.
func (q *Queue) Clone() (*Queue, error) {
	nv, err := q.v.Clone()
	if err != nil {
		return nil, err
	}
	return &Queue{v: nv, head: q.head}, nil
}
