//go:build unix

package arena

import "golang.org/x/sys/unix"

// sharedMapping owns an anonymous MAP_SHARED mapping backing an Arena.
// It exists so NewSharedArena can hand the exact same physical pages to
// another OS thread or a forked process with zero copying, the literal
// "hand the buffer to other workers" mechanism spec.md §1/§5 describes.
type sharedMapping struct {
	region []byte
}

// NewSharedArena creates an arena backed by an anonymous shared memory
// mapping instead of plain heap memory. The mapping is fixed-size: a
// shared arena is sized once, up front, at the given size (raised to
// HeapStart if smaller), and never remapped — remapping would hand every
// other attached worker a stale pointer.
//
// The returned Arena must be released with Close once every worker has
// detached.
func NewSharedArena(size uint32) (*Arena, error) {
	if size < HeapStart {
		size = HeapStart
	}

	region, mmapErr := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if mmapErr != nil {
		return nil, mmapErr
	}

	a := &Arena{
		buf:       region,
		heapEnd:   HeapStart,
		fixedSize: true,
		shared:    &sharedMapping{region: region},
	}

	return a, nil
}

// Close unmaps a shared arena's backing pages. It is a no-op for a
// heap-backed arena.
func (a *Arena) Close() error {
	if a.shared == nil {
		return nil
	}

	region := a.shared.region
	a.shared = nil
	a.buf = nil

	return unix.Munmap(region)
}
