package hamt

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/natanelia/hamt-sab/arena"
)

func newTestMap() *Map {
	return NewMap(arena.New(0))
}

func TestSetGetRoundTrip(t *testing.T) {
	m := newTestMap()

	m1, err := m.Set([]byte("alpha"), []byte("1"))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok := m1.Get([]byte("alpha"))
	if !ok || string(v) != "1" {
		t.Fatalf("Get() = %q, %v; want 1, true", v, ok)
	}

	if m.Has([]byte("alpha")) {
		t.Fatalf("original map must not see a key inserted into its derivative")
	}
}

func TestSetIsIdempotentOnSize(t *testing.T) {
	m := newTestMap()

	m1, err := m.Set([]byte("k"), []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}
	m2, err := m1.Set([]byte("k"), []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}

	if m2.Size() != 1 {
		t.Fatalf("Size() = %d; want 1", m2.Size())
	}
	v, _ := m2.Get([]byte("k"))
	if string(v) != "v2" {
		t.Fatalf("Get() = %q; want v2", v)
	}
}

func TestDeleteIsInverseOfSet(t *testing.T) {
	m := newTestMap()

	m1, _ := m.Set([]byte("x"), []byte("1"))
	m2, err := m1.Delete([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}

	if m2.Has([]byte("x")) {
		t.Fatalf("key survived Delete")
	}
	if m2.Size() != 0 {
		t.Fatalf("Size() = %d; want 0", m2.Size())
	}
	if !m1.Has([]byte("x")) {
		t.Fatalf("Delete must not mutate its receiver")
	}
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	m := newTestMap()
	m1, _ := m.Set([]byte("a"), []byte("1"))

	m2, err := m1.Delete([]byte("does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if m2.Size() != m1.Size() {
		t.Fatalf("Size() changed on a no-op delete: %d vs %d", m2.Size(), m1.Size())
	}
	if !m2.Has([]byte("a")) {
		t.Fatalf("existing key lost after no-op delete")
	}

	// Both handles must independently survive release.
	if err := m1.Release(); err != nil {
		t.Fatalf("m1.Release: %v", err)
	}
	if !m2.Has([]byte("a")) {
		t.Fatalf("releasing m1 must not affect m2's view")
	}
	if err := m2.Release(); err != nil {
		t.Fatalf("m2.Release: %v", err)
	}
}

func TestManyKeysSurviveHashCollisionsInSameBucket(t *testing.T) {
	m := newTestMap()

	const n = 2000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		next, err := m.Set(key, []byte(fmt.Sprintf("%d", i)))
		if err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
		m = next
	}

	if m.Size() != n {
		t.Fatalf("Size() = %d; want %d", m.Size(), n)
	}

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		v, ok := m.Get(key)
		if !ok || string(v) != fmt.Sprintf("%d", i) {
			t.Fatalf("Get(%q) = %q, %v; want %d, true", key, v, ok, i)
		}
	}
}

func TestBranchIsolation(t *testing.T) {
	base := newTestMap()
	base, _ = base.Set([]byte("shared"), []byte("base"))

	left, err := base.Set([]byte("left-only"), []byte("L"))
	if err != nil {
		t.Fatal(err)
	}
	right, err := base.Set([]byte("right-only"), []byte("R"))
	if err != nil {
		t.Fatal(err)
	}

	if left.Has([]byte("right-only")) || right.Has([]byte("left-only")) {
		t.Fatalf("branches leaked into each other")
	}
	if !left.Has([]byte("shared")) || !right.Has([]byte("shared")) {
		t.Fatalf("both branches must still see the shared key")
	}
}

func TestIterationVisitsEveryPair(t *testing.T) {
	m := newTestMap()
	want := map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"}
	for k, v := range want {
		var err error
		m, err = m.Set([]byte(k), []byte(v))
		if err != nil {
			t.Fatal(err)
		}
	}

	got := map[string]string{}
	for _, p := range m.Pairs() {
		got[string(p.Key)] = string(p.Value)
	}

	if len(got) != len(want) {
		t.Fatalf("Pairs() returned %d entries; want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Pairs()[%q] = %q; want %q", k, got[k], v)
		}
	}
}

func TestMerge(t *testing.T) {
	a, _ := newTestMap().Set([]byte("a"), []byte("1"))
	a, _ = a.Set([]byte("shared"), []byte("from-a"))

	b, _ := newTestMap().Set([]byte("b"), []byte("2"))
	b, _ = b.Set([]byte("shared"), []byte("from-b"))

	merged, err := a.Merge(b)
	if err != nil {
		t.Fatal(err)
	}

	if merged.Size() != 3 {
		t.Fatalf("Size() = %d; want 3", merged.Size())
	}
	if v, _ := merged.Get([]byte("shared")); string(v) != "from-b" {
		t.Fatalf("Merge must prefer the argument's value on conflict, got %q", v)
	}
}

func TestCloneSharesStructureUntilMutated(t *testing.T) {
	m, _ := newTestMap().Set([]byte("k"), []byte("v"))

	clone, err := m.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if clone.Root() != m.Root() {
		t.Fatalf("Clone() must share the root offset")
	}

	_, err = clone.Set([]byte("k2"), []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Has([]byte("k2")) {
		t.Fatalf("mutating the clone must not affect the original")
	}
}

func TestAttachedReaderSeesConsistentSnapshot(t *testing.T) {
	m := newTestMap()
	m, _ = m.Set([]byte("k"), []byte("before"))

	buf := append([]byte(nil), m.e.A.Bytes()...)
	heapEnd, freeList, root := m.e.A.HeapEnd(), m.e.A.FreeList(), m.Root()

	// The writer keeps going after the snapshot was captured.
	m, _ = m.Set([]byte("k"), []byte("after"))
	if v, _ := m.Get([]byte("k")); string(v) != "after" {
		t.Fatalf("writer should see its own update")
	}

	reader := Attach(buf, heapEnd, freeList, root)
	v, ok := reader.Get([]byte("k"))
	if !ok || string(v) != "before" {
		t.Fatalf("attached reader = %q, %v; want before, true", v, ok)
	}
}

func TestTransientBatchMutatesInPlace(t *testing.T) {
	e := New(arena.New(0))

	txn, err := e.BeginTransient()
	if err != nil {
		t.Fatal(err)
	}

	var root uint32
	for i := 0; i < 50; i++ {
		keyLen, _ := e.CopyKey([]byte(fmt.Sprintf("n%d", i)))
		newRoot, _, err := txn.Insert(root, keyLen, []byte{byte(i)})
		if err != nil {
			t.Fatalf("transient Insert(%d): %v", i, err)
		}
		root = newRoot
	}
	txn.End()

	for i := 0; i < 50; i++ {
		keyLen, _ := e.CopyKey([]byte(fmt.Sprintf("n%d", i)))
		if !e.Has(root, keyLen) {
			t.Fatalf("key n%d missing after transient batch", i)
		}
	}

	txn2, err := e.BeginTransient()
	if err != nil {
		t.Fatal(err)
	}
	defer txn2.End()
	if _, err := e.BeginTransient(); err != ErrTransientNesting {
		t.Fatalf("nested BeginTransient error = %v; want ErrTransientNesting", err)
	}
}

func TestTransientRejectsWritesAfterEnd(t *testing.T) {
	e := New(arena.New(0))

	txn, err := e.BeginTransient()
	if err != nil {
		t.Fatal(err)
	}
	keyLen, _ := e.CopyKey([]byte("k"))
	root, _, err := txn.Insert(Null, keyLen, []byte("v"))
	if err != nil {
		t.Fatal(err)
	}
	txn.End()

	keyLen, _ = e.CopyKey([]byte("k2"))
	if _, _, err := txn.Insert(root, keyLen, []byte("v2")); err != ErrNoTransient {
		t.Fatalf("Insert after End error = %v; want ErrNoTransient", err)
	}
	if _, _, err := txn.Remove(root, keyLen); err != ErrNoTransient {
		t.Fatalf("Remove after End error = %v; want ErrNoTransient", err)
	}
}

func TestTransientRejectsWritesFromSupersededSession(t *testing.T) {
	e := New(arena.New(0))

	first, err := e.BeginTransient()
	if err != nil {
		t.Fatal(err)
	}
	first.End()

	second, err := e.BeginTransient()
	if err != nil {
		t.Fatal(err)
	}
	defer second.End()

	keyLen, _ := e.CopyKey([]byte("k"))
	if _, _, err := first.Insert(Null, keyLen, []byte("v")); err != ErrNoTransient {
		t.Fatalf("Insert from a superseded session error = %v; want ErrNoTransient", err)
	}
}

func TestMapOperationsRejectResetHandle(t *testing.T) {
	m := newTestMap()
	m1, err := m.Set([]byte("k"), []byte("v"))
	if err != nil {
		t.Fatal(err)
	}

	m1.e.Reset()

	if _, err := m1.Set([]byte("k2"), []byte("v2")); err != ErrInvalidHandle {
		t.Fatalf("Set on a reset arena error = %v; want ErrInvalidHandle", err)
	}
	if _, err := m1.Delete([]byte("k")); err != ErrInvalidHandle {
		t.Fatalf("Delete on a reset arena error = %v; want ErrInvalidHandle", err)
	}
	if _, err := m1.Clone(); err != ErrInvalidHandle {
		t.Fatalf("Clone on a reset arena error = %v; want ErrInvalidHandle", err)
	}
	if err := m1.Release(); err != ErrInvalidHandle {
		t.Fatalf("Release on a reset arena error = %v; want ErrInvalidHandle", err)
	}
}

// TestFieldAccessors builds one composite value out of an int32, a
// float64 and a length-prefixed string, and reads each back by its own
// offset without ever materializing the whole record.
func TestFieldAccessors(t *testing.T) {
	e := New(arena.New(0))

	const (
		i32Off = 0
		f64Off = 4
		strOff = 12
	)

	value := make([]byte, strOff+4+len("hello"))
	i32Val := int32(-7)
	binary.LittleEndian.PutUint32(value[i32Off:], uint32(i32Val))
	binary.LittleEndian.PutUint64(value[f64Off:], math.Float64bits(2.5))
	binary.LittleEndian.PutUint32(value[strOff:], uint32(len("hello")))
	copy(value[strOff+4:], "hello")

	keyLen, _ := e.CopyKey([]byte("record"))
	root, _, _, err := e.InsertKey(Null, keyLen, value)
	if err != nil {
		t.Fatal(err)
	}
	keyLen, _ = e.CopyKey([]byte("record"))

	i, ok := e.GetFieldI32(root, keyLen, i32Off)
	if !ok || i != -7 {
		t.Fatalf("GetFieldI32() = %d, %v; want -7, true", i, ok)
	}

	f, ok := e.GetFieldF64(root, keyLen, f64Off)
	if !ok || f != 2.5 {
		t.Fatalf("GetFieldF64() = %v, %v; want 2.5, true", f, ok)
	}

	outPtr := uint32(arena.BatchBufOffset)
	n, ok := e.GetFieldStr(root, keyLen, strOff, outPtr)
	if !ok || n != uint32(len("hello")) {
		t.Fatalf("GetFieldStr() = %d, %v; want %d, true", n, ok, len("hello"))
	}
	if got := string(e.A.Bytes()[outPtr : outPtr+n]); got != "hello" {
		t.Fatalf("GetFieldStr copied %q; want hello", got)
	}

	keyLen, _ = e.CopyKey([]byte("missing"))
	if _, ok := e.GetFieldI32(root, keyLen, i32Off); ok {
		t.Fatalf("GetFieldI32 on an absent key must report ok=false")
	}

	keyLen, _ = e.CopyKey([]byte("record"))
	if _, ok := e.GetFieldF64(root, keyLen, uint32(len(value))); ok {
		t.Fatalf("GetFieldF64 past the value's end must report ok=false")
	}
}

func TestBatchInsertGetDelete(t *testing.T) {
	e := New(arena.New(0))

	items := []KV{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
	}

	root, err := e.BatchInsert(Null, items)
	if err != nil {
		t.Fatal(err)
	}

	results, err := e.BatchGet(root, [][]byte{[]byte("a"), []byte("missing"), []byte("c")})
	if err != nil {
		t.Fatal(err)
	}
	if results[0] == Null || results[1] != Null || results[2] == Null {
		t.Fatalf("BatchGet results = %v", results)
	}

	root, err = e.BatchDelete(root, [][]byte{[]byte("a"), []byte("nope")})
	if err != nil {
		t.Fatal(err)
	}
	if e.Has(root, mustKeyLen(e, []byte("a"))) {
		t.Fatalf("key a must be gone after BatchDelete")
	}
	if !e.Has(root, mustKeyLen(e, []byte("c"))) {
		t.Fatalf("key c must survive BatchDelete")
	}
}

func mustKeyLen(e *Engine, key []byte) uint32 {
	kl, err := e.CopyKey(key)
	if err != nil {
		panic(err)
	}
	return kl
}
