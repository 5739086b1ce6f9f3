package hamt

import "errors"

var (
	// ErrInvalidHandle is returned when a Map's root offset no longer
	// refers to a live node, e.g. because the arena was Reset (spec.md
	// §7: caller bug, but this package surfaces it instead of leaving it
	// undefined where it can detect the case cheaply).
	ErrInvalidHandle = errors.New("hamt: invalid handle")

	// ErrTransientNesting is returned by BeginTransient when a transient
	// session is already active. Nested transients are forbidden (the
	// Open Question in spec.md §9 is resolved this way); the owner tag
	// space (1..255) has no well-defined meaning for nested sessions.
	ErrTransientNesting = errors.New("hamt: transient sessions do not nest")

	// ErrNoTransient is returned by Transient.Insert/Remove when the
	// session that produced the *Transient has since ended (End was
	// called) or been superseded by a newer BeginTransient, so a stale
	// handle can no longer mutate nodes under its old owner tag.
	ErrNoTransient = errors.New("hamt: no active transient session")

	// ErrKeyTooLarge is returned when a key would not fit in KEY_BUF.
	ErrKeyTooLarge = errors.New("hamt: key exceeds KEY_BUF capacity")
)
