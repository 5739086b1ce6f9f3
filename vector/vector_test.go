package vector

import (
	"testing"

	"github.com/natanelia/hamt-sab/arena"
)

func TestPushGetRoundTrip(t *testing.T) {
	v := New(arena.New(0))

	for i := 0; i < 100; i++ {
		next, err := v.Push(float64(i))
		if err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
		v = next
	}

	if v.Size() != 100 {
		t.Fatalf("Size() = %d; want 100", v.Size())
	}
	for i := 0; i < 100; i++ {
		if got := v.Get(uint32(i)); got != float64(i) {
			t.Fatalf("Get(%d) = %v; want %v", i, got, i)
		}
	}
}

func TestPushAcrossDepthTransitions(t *testing.T) {
	v := New(arena.New(0))

	const n = 1100
	for i := 0; i < n; i++ {
		next, err := v.Push(float64(i))
		if err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
		v = next
	}

	for _, idx := range []int{0, 31, 32, 1023, 1024, 1099} {
		if got := v.Get(uint32(idx)); got != float64(idx) {
			t.Fatalf("Get(%d) = %v; want %v", idx, got, idx)
		}
	}
}

func TestSetDoesNotMutateReceiver(t *testing.T) {
	v := New(arena.New(0))
	for i := 0; i < 40; i++ {
		v, _ = v.Push(float64(i))
	}

	v2, err := v.Set(5, 999)
	if err != nil {
		t.Fatal(err)
	}

	if v.Get(5) != 5 {
		t.Fatalf("Set mutated the receiver: Get(5) = %v", v.Get(5))
	}
	if v2.Get(5) != 999 {
		t.Fatalf("Set() result Get(5) = %v; want 999", v2.Get(5))
	}
	if v2.Get(6) != 6 {
		t.Fatalf("Set must leave other indices unchanged: Get(6) = %v", v2.Get(6))
	}
}

func TestPopIsInverseOfPush(t *testing.T) {
	v := New(arena.New(0))
	for i := 0; i < 40; i++ {
		v, _ = v.Push(float64(i))
	}

	popped, err := v.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if popped.Size() != 39 {
		t.Fatalf("Size() = %d; want 39", popped.Size())
	}
	for i := 0; i < 39; i++ {
		if popped.Get(uint32(i)) != float64(i) {
			t.Fatalf("element %d changed after Pop", i)
		}
	}
}

func TestPopCollapsesLevel(t *testing.T) {
	v := New(arena.New(0))
	for i := 0; i < 40; i++ {
		v, _ = v.Push(float64(i))
	}
	_, depth, _ := v.Root()
	if depth != 1 {
		t.Fatalf("expected depth 1 after 40 pushes, got %d", depth)
	}

	for v.Size() > 32 {
		var err error
		v, err = v.Pop()
		if err != nil {
			t.Fatal(err)
		}
	}
	_, depth, _ = v.Root()
	if depth != 0 {
		t.Fatalf("expected depth to collapse to 0 at size 32, got %d", depth)
	}
	for i := 0; i < 32; i++ {
		if v.Get(uint32(i)) != float64(i) {
			t.Fatalf("element %d changed across collapse", i)
		}
	}
}

func TestBranchIsolation(t *testing.T) {
	base := New(arena.New(0))
	for i := 0; i < 10; i++ {
		base, _ = base.Push(float64(i))
	}

	left, _ := base.Push(100)
	right, _ := base.Push(200)

	if left.Get(10) != 100 {
		t.Fatalf("left.Get(10) = %v; want 100", left.Get(10))
	}
	if right.Get(10) != 200 {
		t.Fatalf("right.Get(10) = %v; want 200", right.Get(10))
	}
}

func TestPushBlobGetBlobRoundTrip(t *testing.T) {
	v := New(arena.New(0))

	v, err := v.Push(1)
	if err != nil {
		t.Fatal(err)
	}
	v, err = v.PushBlob([]byte("hello blob"))
	if err != nil {
		t.Fatalf("PushBlob: %v", err)
	}
	v, err = v.Push(2)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(v.GetBlob(1)); got != "hello blob" {
		t.Fatalf("GetBlob(1) = %q; want %q", got, "hello blob")
	}
	if v.Get(0) != 1 || v.Get(2) != 2 {
		t.Fatalf("blob slot must not disturb neighboring f64 slots")
	}

	v2, err := v.SetBlob(1, []byte("replaced"))
	if err != nil {
		t.Fatalf("SetBlob: %v", err)
	}
	if got := string(v2.GetBlob(1)); got != "replaced" {
		t.Fatalf("after SetBlob GetBlob(1) = %q; want %q", got, "replaced")
	}
	if got := string(v.GetBlob(1)); got != "hello blob" {
		t.Fatalf("SetBlob must not mutate the receiver, got %q", got)
	}
}

func TestPushBlobRejectsOversizedBlob(t *testing.T) {
	v := New(arena.New(0))
	big := make([]byte, MaxBlobLen+1)
	if _, err := v.PushBlob(big); err != ErrBlobTooLarge {
		t.Fatalf("PushBlob(oversized) error = %v; want ErrBlobTooLarge", err)
	}
}

func TestSliceAndForEach(t *testing.T) {
	v := New(arena.New(0))
	for i := 0; i < 10; i++ {
		v, _ = v.Push(float64(i))
	}

	got := v.Slice()
	if len(got) != 10 {
		t.Fatalf("Slice() len = %d; want 10", len(got))
	}
	for i, x := range got {
		if x != float64(i) {
			t.Fatalf("Slice()[%d] = %v; want %v", i, x, i)
		}
	}

	seen := 0
	v.ForEach(func(idx uint32, value float64) {
		if value != float64(idx) {
			t.Fatalf("ForEach idx=%d value=%v", idx, value)
		}
		seen++
	})
	if seen != 10 {
		t.Fatalf("ForEach visited %d elements; want 10", seen)
	}
}
