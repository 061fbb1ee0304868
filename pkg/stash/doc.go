// Package stash implements the append-only item arena (spec.md §4.1, C1).
// The relations and members databases each own a Stash for their own item
// type; a way cited by many relations is stored exactly once, in the
// members database's Stash.
//
// Handles are opaque, pointer-stable, and carry a generation counter so a
// stale handle into a reused slot is detected rather than silently
// returning the wrong item (a contract violation per spec.md §7's
// StashCorruption kind, not a recoverable error).
package stash
