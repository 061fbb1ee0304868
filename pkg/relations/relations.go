package relations

import (
	"fmt"

	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/osmcode/mpoly/pkg/stash"
)

// Handle is an opaque cursor identifying one kept relation (spec.md §3).
// It is only valid against the Database that issued it.
type Handle = stash.Handle

// WayHandle locates a way's payload in the members database's own arena.
// Relations never own way payloads directly (I5): they hold a WayHandle
// once MembersDatabase.Add resolves the member, kept alive as long as the
// relation references it.
type WayHandle = stash.Handle

type entry struct {
	relation    osm.Relation
	outstanding int
	resolved    []WayHandle
	hasWay      []bool
}

// Database holds the set of kept relations, implementing C3 from spec.md
// §4.3. Each stored relation carries an outstanding-member counter that
// MembersDatabase increments on track and decrements on satisfaction, plus
// per-slot way handles filled in as members resolve.
type Database struct {
	arena *stash.Stash[entry]
}

// New creates an empty Database.
func New() *Database {
	return &Database{arena: stash.New[entry]()}
}

// relationSize is a rough per-relation footprint estimate for UsedMemory:
// the fixed entry overhead plus one slot (type+id+role+resolution) per
// member.
func relationSize(r *osm.Relation) uint64 {
	const baseOverhead = 64
	const perMember = 32
	return baseOverhead + uint64(len(r.Members))*perMember
}

// Add copies rel into the database and returns a handle with an
// outstanding-count of 0 (the caller, typically MultipolygonManager pass 1,
// drives it up via IncrementOutstanding as it registers member interests).
func (d *Database) Add(rel *osm.Relation) Handle {
	e := entry{
		relation: *rel,
		resolved: make([]WayHandle, len(rel.Members)),
		hasWay:   make([]bool, len(rel.Members)),
	}
	return d.arena.Add(e, relationSize(rel))
}

// Get returns a borrowed pointer to the stored relation.
func (d *Database) Get(h Handle) (*osm.Relation, bool) {
	e, ok := d.arena.Get(h)
	if !ok {
		return nil, false
	}
	return &e.relation, true
}

// Outstanding returns the relation's current outstanding-member count.
func (d *Database) Outstanding(h Handle) (int, bool) {
	e, ok := d.arena.Get(h)
	if !ok {
		return 0, false
	}
	return e.outstanding, true
}

// IncrementOutstanding bumps the outstanding-member count by one, called
// when MembersDatabase.Track registers a new interest against h.
func (d *Database) IncrementOutstanding(h Handle) error {
	e, ok := d.arena.Get(h)
	if !ok {
		return fmt.Errorf("relations: %w", stash.ErrUnknownHandle{Handle: h})
	}
	e.outstanding++
	return nil
}

// DecrementOutstanding bumps the outstanding-member count down by one and
// returns the new value, called when a member way arrives and satisfies
// one interest. The caller (MembersDatabase.Add) is responsible for firing
// the completion callback when the result reaches zero.
func (d *Database) DecrementOutstanding(h Handle) (int, error) {
	e, ok := d.arena.Get(h)
	if !ok {
		return 0, fmt.Errorf("relations: %w", stash.ErrUnknownHandle{Handle: h})
	}
	if e.outstanding > 0 {
		e.outstanding--
	}
	return e.outstanding, nil
}

// ResolveMember records that the member at slot has resolved to the way
// stored at wh in the members database's arena.
func (d *Database) ResolveMember(h Handle, slot int, wh WayHandle) error {
	e, ok := d.arena.Get(h)
	if !ok {
		return fmt.Errorf("relations: %w", stash.ErrUnknownHandle{Handle: h})
	}
	if slot < 0 || slot >= len(e.relation.Members) {
		return fmt.Errorf("relations: slot %d out of range for relation %d", slot, e.relation.ID)
	}
	e.resolved[slot] = wh
	e.hasWay[slot] = true
	return nil
}

// ResolvedWayHandles returns, in member order, the way handles resolved so
// far via ResolveMember (used to gather member payloads on completion).
func (d *Database) ResolvedWayHandles(h Handle) ([]WayHandle, []bool, error) {
	e, ok := d.arena.Get(h)
	if !ok {
		return nil, nil, fmt.Errorf("relations: %w", stash.ErrUnknownHandle{Handle: h})
	}
	return e.resolved, e.hasWay, nil
}

// Remove releases the relation from the arena. Callers must have already
// ensured no live MemberInterest references h (invariants I1/I4).
func (d *Database) Remove(h Handle) error {
	if err := d.arena.Remove(h); err != nil {
		return fmt.Errorf("relations: %w", err)
	}
	return nil
}

// Live returns the handles of all relations still present in the
// database, for the end-of-pass "incomplete relations" diagnostic
// (spec.md §4.6).
func (d *Database) Live() []Handle {
	var out []Handle
	d.arena.Each(func(h Handle, _ *entry) {
		out = append(out, h)
	})
	return out
}

// UsedMemory reports the database's current allocation footprint in
// bytes.
func (d *Database) UsedMemory() uint64 {
	return d.arena.UsedMemory()
}
