// Package stack is a LIFO projection over a persistent vector: push,
// peek and pop all operate at the tail, and the package introduces no
// node type of its own (spec.md §4.5).
package stack

import (
	"errors"

	"github.com/natanelia/hamt-sab/arena"
	"github.com/natanelia/hamt-sab/vector"
)

// ErrEmpty is returned by Peek on an empty stack.
var ErrEmpty = errors.New("stack: empty")

// Stack is a handle over a vector, top at the highest index.
type Stack struct {
	v *vector.Vector
}

// New creates an empty stack backed by a.
func New(a *arena.Arena) *Stack {
	return &Stack{v: vector.New(a)}
}

// Size returns the number of elements.
func (s *Stack) Size() uint32 { return s.v.Size() }

// Push returns a new Stack with value on top.
func (s *Stack) Push(value float64) (*Stack, error) {
	nv, err := s.v.Push(value)
	if err != nil {
		return nil, err
	}
	return &Stack{v: nv}, nil
}

// Peek returns the top element without removing it.
func (s *Stack) Peek() (float64, error) {
	if s.v.Size() == 0 {
		return 0, ErrEmpty
	}
	return s.v.Get(s.v.Size() - 1), nil
}

// Pop returns a new Stack with the top element removed, and the element
// that was removed. Popping an empty stack is an error.
func (s *Stack) Pop() (*Stack, float64, error) {
	top, err := s.Peek()
	if err != nil {
		return nil, 0, err
	}
	nv, err := s.v.Pop()
	if err != nil {
		return nil, 0, err
	}
	return &Stack{v: nv}, top, nil
}

// Release drops this handle's ownership of its backing vector.
func (s *Stack) Release() error { return s.v.Release() }

// Clone returns an independent handle to the same contents.
func (s *Stack) Clone() (*Stack, error) {
	nv, err := s.v.Clone()
	if err != nil {
		return nil, err
	}
	return &Stack{v: nv}, nil
}
