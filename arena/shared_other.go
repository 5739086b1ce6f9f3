//go:build !unix

package arena

import "errors"

type sharedMapping struct{}

// NewSharedArena is only available on unix targets; anonymous shared
// mappings are a POSIX mmap facility.
func NewSharedArena(size uint32) (*Arena, error) {
	return nil, errors.New("arena: shared arenas require a unix target")
}

// Close is a no-op outside of a shared arena.
func (a *Arena) Close() error { return nil }
