package queue

import (
	"testing"

	"github.com/natanelia/hamt-sab/arena"
)

func TestEnqueueDequeueIsFIFO(t *testing.T) {
	q := New(arena.New(0))

	for _, v := range []float64{1, 2, 3, 4, 5} {
		var err error
		q, err = q.Enqueue(v)
		if err != nil {
			t.Fatalf("Enqueue(%v): %v", v, err)
		}
	}

	for _, want := range []float64{1, 2, 3, 4, 5} {
		front, err := q.Peek()
		if err != nil {
			t.Fatal(err)
		}
		if front != want {
			t.Fatalf("Peek() = %v; want %v", front, want)
		}

		var got float64
		q, got, err = q.Dequeue()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Dequeue() = %v; want %v", got, want)
		}
	}

	if q.Size() != 0 {
		t.Fatalf("Size() = %d; want 0", q.Size())
	}
	if _, err := q.Peek(); err != ErrEmpty {
		t.Fatalf("Peek() on empty queue = %v; want ErrEmpty", err)
	}
}

func TestDequeueDoesNotMutateReceiver(t *testing.T) {
	q := New(arena.New(0))
	q, _ = q.Enqueue(10)
	q, _ = q.Enqueue(20)

	after, _, err := q.Dequeue()
	if err != nil {
		t.Fatal(err)
	}
	if q.Size() != 2 {
		t.Fatalf("receiver Size() = %d; want 2 (Dequeue must not mutate it)", q.Size())
	}
	if after.Size() != 1 {
		t.Fatalf("result Size() = %d; want 1", after.Size())
	}
}
