// Package hamtset implements a persistent set as a hamt.Map whose values
// are always empty (spec.md §2: "a set (layered on the map)"). Every
// operation reduces to the corresponding Map operation; the package adds
// no node shape, hashing, or refcounting logic of its own.
package hamtset

import (
	"github.com/natanelia/hamt-sab/arena"
	"github.com/natanelia/hamt-sab/hamt"
)

var empty = []byte{}

// Set is a persistent set of byte-string members.
type Set struct {
	m *hamt.Map
}

// New creates an empty set backed by a.
func New(a *arena.Arena) *Set {
	return &Set{m: hamt.NewMap(a)}
}

// Len returns the number of members.
func (s *Set) Len() uint32 { return s.m.Size() }

// Contains reports whether member is in the set.
func (s *Set) Contains(member []byte) bool {
	return s.m.Has(member)
}

// Add returns a new Set with member added. Adding an existing member
// returns an equivalent set (same members, same Len).
func (s *Set) Add(member []byte) (*Set, error) {
	nm, err := s.m.Set(member, empty)
	if err != nil {
		return nil, err
	}
	return &Set{m: nm}, nil
}

// Remove returns a new Set with member removed. Removing an absent
// member returns an equivalent set.
func (s *Set) Remove(member []byte) (*Set, error) {
	nm, err := s.m.Delete(member)
	if err != nil {
		return nil, err
	}
	return &Set{m: nm}, nil
}

// Items returns every member, in iteration order.
func (s *Set) Items() [][]byte {
	return s.m.Keys()
}

// Release drops this handle's ownership of its backing map.
func (s *Set) Release() error { return s.m.Release() }

// Clone returns an independent handle to the same contents.
func (s *Set) Clone() (*Set, error) {
	nm, err := s.m.Clone()
	if err != nil {
		return nil, err
	}
	return &Set{m: nm}, nil
}

// Union returns a new Set holding every member of s or other. Every
// intermediate Set this loop builds and then replaces is released
// before being overwritten; only the receiver s, still owned by its
// caller, is left untouched.
func (s *Set) Union(other *Set) (*Set, error) {
	cur := s
	owned := false
	for _, member := range other.Items() {
		next, err := cur.Add(member)
		if err != nil {
			return nil, err
		}
		if owned {
			if err := cur.Release(); err != nil {
				return nil, err
			}
		}
		cur = next
		owned = true
	}
	if !owned {
		return cur.Clone()
	}
	return cur, nil
}

// Intersect returns a new Set holding only members present in both s and
// other. result starts out empty and solely owned by this loop, so
// every version it passes through (including the first) is released
// before being replaced.
func (s *Set) Intersect(other *Set) (*Set, error) {
	result := New(arenaOf(s))
	for _, member := range s.Items() {
		if other.Contains(member) {
			next, err := result.Add(member)
			if err != nil {
				return nil, err
			}
			if err := result.Release(); err != nil {
				return nil, err
			}
			result = next
		}
	}
	return result, nil
}

// Difference returns a new Set holding members of s that are not in
// other. Same release-before-replace discipline as Intersect.
func (s *Set) Difference(other *Set) (*Set, error) {
	result := New(arenaOf(s))
	for _, member := range s.Items() {
		if !other.Contains(member) {
			next, err := result.Add(member)
			if err != nil {
				return nil, err
			}
			if err := result.Release(); err != nil {
				return nil, err
			}
			result = next
		}
	}
	return result, nil
}

func arenaOf(s *Set) *arena.Arena {
	return s.m.Arena()
}
