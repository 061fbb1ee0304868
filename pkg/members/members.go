package members

import (
	"errors"
	"fmt"
	"sort"

	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/osmcode/mpoly/pkg/relations"
	"github.com/osmcode/mpoly/pkg/stash"
)

// Phase tracks the collecting → prepared state machine from spec.md §4.2.
type Phase int

const (
	PhaseCollecting Phase = iota
	PhasePrepared
)

// ErrWrongPhase is returned when an operation is attempted in a phase that
// doesn't allow it (Track after Prepare, or Add before Prepare).
var ErrWrongPhase = errors.New("members: operation not valid in current phase")

// interest is one recorded (way-id, relation, slot) triple. consumed marks
// an interest that's already been matched or explicitly removed; it stays
// in the slice (logical erase) to keep the sorted order stable for the
// remaining binary searches.
type interest struct {
	wayID    int64
	relation relations.Handle
	slot     int
	consumed bool
}

// Database implements MembersDatabase (spec.md §4.2, C2): it tracks every
// way a kept relation is waiting on, then — once sorted — matches each
// incoming way against the relations citing it.
type Database struct {
	rdb *relations.Database

	phase     Phase
	interests []interest

	ways        *stash.Stash[osm.Way]
	wayIndex    map[int64]stash.Handle
	wayRefCount map[int64]int
}

// New creates an empty Database bound to rdb, the relations database whose
// outstanding-counts and member slots it mutates as ways resolve.
func New(rdb *relations.Database) *Database {
	return &Database{
		rdb:         rdb,
		ways:        stash.New[osm.Way](),
		wayIndex:    make(map[int64]stash.Handle),
		wayRefCount: make(map[int64]int),
	}
}

// Track appends a MemberInterest and increments the relation's
// outstanding-count. Requires the collecting phase (I2).
func (d *Database) Track(rel relations.Handle, wayID int64, slot int) error {
	if d.phase != PhaseCollecting {
		return fmt.Errorf("members: track: %w", ErrWrongPhase)
	}
	d.interests = append(d.interests, interest{wayID: wayID, relation: rel, slot: slot})
	if err := d.rdb.IncrementOutstanding(rel); err != nil {
		return fmt.Errorf("members: track: %w", err)
	}
	return nil
}

// Prepare transitions collecting → prepared, sorting interests ascending
// by way id with a stable tie-break on registration order (property P2).
// After Prepare the set of interests is fixed in shape.
func (d *Database) Prepare() error {
	if d.phase != PhaseCollecting {
		return fmt.Errorf("members: prepare: %w", ErrWrongPhase)
	}
	sort.SliceStable(d.interests, func(i, j int) bool {
		return d.interests[i].wayID < d.interests[j].wayID
	})
	d.phase = PhasePrepared
	return nil
}

// waySize is a rough per-way footprint estimate for UsedMemory.
func waySize(w *osm.Way) uint64 {
	const baseOverhead = 48
	const perNodeRef = 24
	tagBytes := 0
	for _, t := range w.Tags {
		tagBytes += len(t.Key) + len(t.Value)
	}
	return uint64(baseOverhead+tagBytes) + uint64(len(w.Refs))*perNodeRef
}

// Add offers way to the database. If no interest references way.ID it is
// discarded and Add reports matched=false. Otherwise the way is stashed
// exactly once, every matching interest is resolved against the relations
// database, and onComplete fires synchronously — in registration order —
// for each relation whose outstanding-count reaches zero (spec.md §4.2).
func (d *Database) Add(way *osm.Way, onComplete func(relations.Handle)) (matched bool, err error) {
	if d.phase != PhasePrepared {
		return false, fmt.Errorf("members: add: %w", ErrWrongPhase)
	}

	lo := sort.Search(len(d.interests), func(i int) bool { return d.interests[i].wayID >= way.ID })
	hi := lo
	for hi < len(d.interests) && d.interests[hi].wayID == way.ID {
		hi++
	}
	if lo == hi {
		return false, nil
	}

	live := 0
	for i := lo; i < hi; i++ {
		if !d.interests[i].consumed {
			live++
		}
	}
	if live == 0 {
		return false, nil
	}

	wh := d.ways.Add(*way, waySize(way))
	d.wayIndex[way.ID] = wh
	d.wayRefCount[way.ID] = live

	for i := lo; i < hi; i++ {
		it := &d.interests[i]
		if it.consumed {
			continue
		}
		it.consumed = true

		if err := d.rdb.ResolveMember(it.relation, it.slot, wh); err != nil {
			return true, fmt.Errorf("members: add: %w", err)
		}
		newCount, err := d.rdb.DecrementOutstanding(it.relation)
		if err != nil {
			return true, fmt.Errorf("members: add: %w", err)
		}
		if newCount == 0 && onComplete != nil {
			onComplete(it.relation)
		}
	}

	return true, nil
}

// Remove erases interests matching both wayID and rel, used when a
// relation is explicitly dropped before its members fully resolve.
func (d *Database) Remove(wayID int64, rel relations.Handle) int {
	n := 0
	for i := range d.interests {
		it := &d.interests[i]
		if it.consumed || it.wayID != wayID || it.relation != rel {
			continue
		}
		it.consumed = true
		n++
	}
	return n
}

// RemoveAllForRelation erases every remaining interest registered against
// rel, regardless of way id. The manager calls this defensively after a
// relation completes (spec.md §4.6 step (c)); normally zero remain since
// Add already consumed them as the relation's outstanding-count reached
// zero.
func (d *Database) RemoveAllForRelation(rel relations.Handle) int {
	n := 0
	for i := range d.interests {
		it := &d.interests[i]
		if it.consumed || it.relation != rel {
			continue
		}
		it.consumed = true
		n++
	}
	return n
}

// Get returns the stored payload for wayID, if it has been stashed.
func (d *Database) Get(wayID int64) (*osm.Way, bool) {
	h, ok := d.wayIndex[wayID]
	if !ok {
		return nil, false
	}
	return d.ways.Get(h)
}

// WayByHandle resolves a way handle previously recorded against a
// relation's member slot (relations.Database.ResolveMember).
func (d *Database) WayByHandle(h stash.Handle) (*osm.Way, bool) {
	return d.ways.Get(h)
}

// ReleaseWay decrements wayID's reference count and, once no relation
// references it any longer, removes its payload from the arena
// (invariant I5). The manager calls this once per resolved way member as
// it releases a completed relation.
func (d *Database) ReleaseWay(wayID int64) error {
	h, ok := d.wayIndex[wayID]
	if !ok {
		return nil
	}
	d.wayRefCount[wayID]--
	if d.wayRefCount[wayID] > 0 {
		return nil
	}
	delete(d.wayIndex, wayID)
	delete(d.wayRefCount, wayID)
	if err := d.ways.Remove(h); err != nil {
		return fmt.Errorf("members: release way %d: %w", wayID, err)
	}
	return nil
}

// WayArenaMemory reports the footprint of the stashed way payloads alone
// — the component spec.md §6's used_memory() calls "stash", since ways
// are the items shared and reference-counted across relations.
func (d *Database) WayArenaMemory() uint64 {
	return d.ways.UsedMemory()
}

// InterestIndexMemory reports the footprint of the interest bookkeeping
// alone (the sorted MemberInterest slice), distinct from the way
// payloads it indexes.
func (d *Database) InterestIndexMemory() uint64 {
	const perInterest = 40
	return uint64(len(d.interests)) * perInterest
}

// UsedMemory reports the database's total allocation footprint: the way
// arena plus the interest index.
func (d *Database) UsedMemory() uint64 {
	return d.WayArenaMemory() + d.InterestIndexMemory()
}
