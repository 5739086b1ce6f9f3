package stack

import (
	"testing"

	"github.com/natanelia/hamt-sab/arena"
)

func TestPushPopIsLIFO(t *testing.T) {
	s := New(arena.New(0))

	for _, v := range []float64{1, 2, 3, 4, 5} {
		var err error
		s, err = s.Push(v)
		if err != nil {
			t.Fatalf("Push(%v): %v", v, err)
		}
	}

	want := []float64{5, 4, 3, 2, 1}
	for _, exp := range want {
		top, err := s.Peek()
		if err != nil {
			t.Fatal(err)
		}
		if top != exp {
			t.Fatalf("Peek() = %v; want %v", top, exp)
		}

		var popped float64
		s, popped, err = s.Pop()
		if err != nil {
			t.Fatal(err)
		}
		if popped != exp {
			t.Fatalf("Pop() = %v; want %v", popped, exp)
		}
	}

	if s.Size() != 0 {
		t.Fatalf("Size() = %d; want 0", s.Size())
	}
	if _, err := s.Peek(); err != ErrEmpty {
		t.Fatalf("Peek() on empty stack = %v; want ErrEmpty", err)
	}
}

func TestPopDoesNotMutateReceiver(t *testing.T) {
	s := New(arena.New(0))
	s, _ = s.Push(1)
	s, _ = s.Push(2)

	popped, _, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 2 {
		t.Fatalf("receiver Size() = %d; want 2 (Pop must not mutate it)", s.Size())
	}
	if popped.Size() != 1 {
		t.Fatalf("result Size() = %d; want 1", popped.Size())
	}
}
