package stash

import "fmt"

// Handle is a stable, opaque reference into a Stash. It remains valid
// until the item is explicitly removed. A Handle from one Stash must never
// be passed to another.
type Handle struct {
	index uint32
	gen   uint32
}

// ErrUnknownHandle is returned when a Handle is stale (already removed) or
// was never issued by this Stash. Per spec.md §7 this is a StashCorruption
// contract violation, not a recoverable per-object error.
type ErrUnknownHandle struct {
	Handle Handle
}

func (e ErrUnknownHandle) Error() string {
	return fmt.Sprintf("stash: unknown or stale handle %+v", e.Handle)
}

type slot[T any] struct {
	gen  uint32
	live bool
	size uint64
	item T
}

// Stash is an append-only arena of variable-size items of a single type,
// handing out pointer-stable Handles. Removed slots are added to a free
// list and reused, with the generation counter bumped so old handles into
// the reused slot are rejected rather than aliased.
type Stash[T any] struct {
	slots []slot[T]
	free  []uint32
	used  uint64
}

// New creates an empty Stash.
func New[T any]() *Stash[T] {
	return &Stash[T]{}
}

// Add copies item into the arena and returns a stable handle. sizeBytes is
// the caller's estimate of the item's footprint, used by UsedMemory.
func (s *Stash[T]) Add(item T, sizeBytes uint64) Handle {
	if len(s.free) > 0 {
		idx := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		sl := &s.slots[idx]
		sl.live = true
		sl.size = sizeBytes
		sl.item = item
		s.used += sizeBytes
		return Handle{index: idx, gen: sl.gen}
	}

	s.slots = append(s.slots, slot[T]{gen: 0, live: true, size: sizeBytes, item: item})
	s.used += sizeBytes
	return Handle{index: uint32(len(s.slots) - 1), gen: 0}
}

// Get returns a borrowed pointer to the stored item. The pointer is valid
// only until the next Add or Remove on this Stash: Remove clears the slot,
// and an Add that grows the arena moves every item, leaving the pointer on
// a stale copy. The Handle itself stays valid across Adds.
func (s *Stash[T]) Get(h Handle) (*T, bool) {
	if int(h.index) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[h.index]
	if !sl.live || sl.gen != h.gen {
		return nil, false
	}
	return &sl.item, true
}

// Remove marks the slot free and deducts its estimated size from
// UsedMemory. Physical reclamation (slot reuse) is deferred to the next
// Add. Using h with Get after Remove returns (nil, false); per spec this
// is undefined behavior for a conforming caller, so the zero value is a
// courtesy, not a guarantee.
func (s *Stash[T]) Remove(h Handle) error {
	if int(h.index) >= len(s.slots) {
		return ErrUnknownHandle{Handle: h}
	}
	sl := &s.slots[h.index]
	if !sl.live || sl.gen != h.gen {
		return ErrUnknownHandle{Handle: h}
	}

	var zero T
	sl.live = false
	sl.item = zero
	s.used -= sl.size
	sl.size = 0
	sl.gen++
	s.free = append(s.free, h.index)
	return nil
}

// UsedMemory reports the current allocation footprint in bytes, summed
// from the sizeBytes given to each live Add.
func (s *Stash[T]) UsedMemory() uint64 {
	return s.used
}

// Each calls fn for every currently live item, in slot order. fn must not
// call Add or Remove on the same Stash.
func (s *Stash[T]) Each(fn func(h Handle, item *T)) {
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.live {
			fn(Handle{index: uint32(i), gen: sl.gen}, &sl.item)
		}
	}
}

// Len reports the number of currently live items.
func (s *Stash[T]) Len() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].live {
			n++
		}
	}
	return n
}
