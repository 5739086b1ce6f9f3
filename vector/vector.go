package vector

import "github.com/natanelia/hamt-sab/arena"

// Vector is the ergonomic persistent handle: (root, depth, size) plus
// the arena it lives in (spec.md §3.2/§9 "handle caches root, size...").
// As with hamt.Map, every mutating method returns a new *Vector and
// leaves the receiver valid.
type Vector struct {
	a     *arena.Arena
	root  uint32
	depth uint32
	size  uint32
}

// New creates an empty vector backed by a.
func New(a *arena.Arena) *Vector {
	return &Vector{a: a}
}

// Attach reconstructs a read-only Vector over a snapshotted (root, depth,
// size) triple (spec.md §6.3).
func Attach(buf []byte, heapEnd, freeList, root, depth, size uint32) *Vector {
	return &Vector{a: arena.Attach(buf, heapEnd, freeList), root: root, depth: depth, size: size}
}

// Size returns the number of elements.
func (v *Vector) Size() uint32 { return v.size }

// Root exposes the handle's (root, depth, size) triple, e.g. for
// snapshot handoff or for building a Stack/Queue over it.
func (v *Vector) Root() (root, depth, size uint32) { return v.root, v.depth, v.size }

// Get returns the element at idx. idx must be < Size().
func (v *Vector) Get(idx uint32) float64 {
	return Get(v.a, v.root, v.depth, idx)
}

// Set returns a new Vector with idx rebound to value.
func (v *Vector) Set(idx uint32, value float64) (*Vector, error) {
	newRoot, err := Set(v.a, v.root, v.depth, idx, value)
	if err != nil {
		return nil, err
	}
	return &Vector{a: v.a, root: newRoot, depth: v.depth, size: v.size}, nil
}

// Push returns a new Vector with value appended.
func (v *Vector) Push(value float64) (*Vector, error) {
	newRoot, newDepth, newSize, err := Push(v.a, v.root, v.depth, v.size, value)
	if err != nil {
		return nil, err
	}
	return &Vector{a: v.a, root: newRoot, depth: newDepth, size: newSize}, nil
}

// Pop returns a new Vector with the last element removed. Popping an
// empty vector returns the receiver's own (root, depth, 0) unchanged.
func (v *Vector) Pop() (*Vector, error) {
	newRoot, newDepth, newSize, err := Pop(v.a, v.root, v.depth, v.size)
	if err != nil {
		return nil, err
	}
	return &Vector{a: v.a, root: newRoot, depth: newDepth, size: newSize}, nil
}

// PushBlob copies data into the arena and appends a packed blob
// descriptor pointing at it (spec.md §3.2/§3.3's non-f64 slot variant),
// rather than an f64 scalar. The copy means the caller's data slice can
// be reused or discarded immediately after the call returns.
func (v *Vector) PushBlob(data []byte) (*Vector, error) {
	ptr, length, err := allocBlob(v.a, data)
	if err != nil {
		return nil, err
	}
	bits := uint64(packBlob(ptr, length))
	newRoot, newDepth, newSize, err := PushBits(v.a, v.root, v.depth, v.size, bits)
	if err != nil {
		return nil, err
	}
	return &Vector{a: v.a, root: newRoot, depth: newDepth, size: newSize}, nil
}

// GetBlob reads back the bytes a packed blob descriptor at idx points
// to. idx must be < Size() and must have been written by PushBlob or
// SetBlob; reading an f64 slot as a blob yields nonsense ptr/length
// values (the two interpretations share a slot but are not
// interchangeable).
func (v *Vector) GetBlob(idx uint32) []byte {
	bits := GetBits(v.a, v.root, v.depth, idx)
	ptr, length := unpackBlob(uint32(bits))
	return v.a.Bytes()[ptr : ptr+length]
}

// SetBlob returns a new Vector with idx rebound to a freshly copied
// blob, replacing whatever that slot held before.
func (v *Vector) SetBlob(idx uint32, data []byte) (*Vector, error) {
	ptr, length, err := allocBlob(v.a, data)
	if err != nil {
		return nil, err
	}
	bits := uint64(packBlob(ptr, length))
	newRoot, err := SetBits(v.a, v.root, v.depth, idx, bits)
	if err != nil {
		return nil, err
	}
	return &Vector{a: v.a, root: newRoot, depth: v.depth, size: v.size}, nil
}

// Release drops this handle's ownership of its root.
func (v *Vector) Release() error {
	if v.root == Null {
		return nil
	}
	return decref(v.a, v.root, v.depth)
}

// Clone returns an independent handle to the same contents.
func (v *Vector) Clone() (*Vector, error) {
	if v.root != Null {
		if err := incref(v.a, v.root); err != nil {
			return nil, err
		}
	}
	return &Vector{a: v.a, root: v.root, depth: v.depth, size: v.size}, nil
}

// Slice copies out every element as a plain Go slice.
func (v *Vector) Slice() []float64 {
	out := make([]float64, v.size)
	for i := uint32(0); i < v.size; i++ {
		out[i] = v.Get(i)
	}
	return out
}

// ForEach calls fn with every element in index order.
func (v *Vector) ForEach(fn func(idx uint32, value float64)) {
	for i := uint32(0); i < v.size; i++ {
		fn(i, v.Get(i))
	}
}
