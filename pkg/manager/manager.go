package manager

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/osmcode/mpoly/internal/log"
	"github.com/osmcode/mpoly/pkg/assembler"
	"github.com/osmcode/mpoly/pkg/buffer"
	"github.com/osmcode/mpoly/pkg/config"
	"github.com/osmcode/mpoly/pkg/filter"
	"github.com/osmcode/mpoly/pkg/members"
	"github.com/osmcode/mpoly/pkg/metrics"
	"github.com/osmcode/mpoly/pkg/orderguard"
	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/osmcode/mpoly/pkg/relations"
	"github.com/osmcode/mpoly/pkg/stash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type phase int

const (
	phaseCollecting phase = iota
	phasePrepared
)

// ErrWrongPhase is returned when Relation is called after Prepare, or Way
// is called before it.
var ErrWrongPhase = errors.New("manager: operation not valid in current phase")

// Manager implements MultipolygonManager (spec.md §4.6, C6): the two-pass
// orchestrator wiring RelationsDatabase, MembersDatabase, the area
// Filter, a pluggable Assembler, and a CallbackBuffer together.
type Manager struct {
	id string

	rdb    *relations.Database
	mdb    *members.Database
	filter filter.AreaFilter
	asm    assembler.Assembler
	buf    *buffer.Buffer
	guard  *orderguard.Guard
	log    zerolog.Logger

	phase    phase
	fatalErr error

	areasBuilt       uint64
	ringsBuilt       uint64
	failuresByKind   map[string]uint64
	assemblyDuration *prometheus.HistogramVec
}

// New builds a Manager around asm, keeping only relations and ways that
// pass areaFilter, and flushing its CallbackBuffer once flushThreshold
// estimated bytes accumulate (0 selects buffer.DefaultThreshold).
func New(asm assembler.Assembler, areaFilter filter.AreaFilter, flushThreshold uint64) *Manager {
	rdb := relations.New()
	id := uuid.NewString()
	return &Manager{
		id:             id,
		rdb:            rdb,
		mdb:            members.New(rdb),
		filter:         areaFilter,
		asm:            asm,
		buf:            buffer.New(flushThreshold),
		guard:          orderguard.New(),
		log:            log.WithRunID("manager", id),
		failuresByKind: make(map[string]uint64),
		assemblyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "mpoly_assembly_duration_seconds",
			Help:        "Time spent in a single Assembler call, by call kind.",
			ConstLabels: prometheus.Labels{"run_id": id},
			Buckets:     prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// NewFromConfig builds a Manager from a loaded Config, wiring its flush
// threshold and tag filter (spec.md §6).
func NewFromConfig(cfg *config.Config, asm assembler.Assembler) (*Manager, error) {
	tagMatcher, err := cfg.BuildFilter()
	if err != nil {
		return nil, fmt.Errorf("manager: new from config: %w", err)
	}
	return New(asm, filter.NewAreaFilter(tagMatcher), cfg.Threshold()), nil
}

// ID returns the manager's run id, used to correlate its log lines and
// metrics with other managers in the same process.
func (m *Manager) ID() string { return m.id }

// SetOutputCallback installs the push-mode sink for assembled Area
// batches (spec.md §4.7). A nil callback reverts to pull mode; see Read.
func (m *Manager) SetOutputCallback(cb buffer.Callback) {
	m.buf.SetCallback(cb)
}

// Read drains the batches accumulated in pull mode (no callback
// installed).
func (m *Manager) Read() []*osm.Area {
	return m.buf.Read()
}

// Relation offers rel to pass 1 (spec.md §4.6 step 1): if it passes the
// area filter it is kept in RelationsDatabase and its way members are
// registered as interests in MembersDatabase for pass 2.
func (m *Manager) Relation(rel *osm.Relation) error {
	if m.fatalErr != nil {
		return m.fatalErr
	}
	if m.phase != phaseCollecting {
		return fmt.Errorf("manager: relation %d: %w", rel.ID, ErrWrongPhase)
	}
	if err := m.guard.Check(osm.TypeRelation, rel.ID); err != nil {
		return err
	}
	if !m.filter.MatchRelation(rel) {
		return nil
	}

	h := m.rdb.Add(rel)
	stored, _ := m.rdb.Get(h)
	// The stored copy gets its own member list, so zeroing non-way members
	// below leaves the caller's relation untouched.
	stored.Members = append([]osm.Member(nil), stored.Members...)
	for slot, mem := range stored.Members {
		if mem.Type != osm.MemberWay {
			stored.DropMember(slot)
			continue
		}
		if mem.ID == 0 {
			continue
		}
		if err := m.mdb.Track(h, mem.ID, slot); err != nil {
			return fmt.Errorf("manager: relation %d: %w", rel.ID, err)
		}
	}
	return nil
}

// Prepare closes pass 1 and opens pass 2 (spec.md §4.6 step 2): it sorts
// the registered member interests and resets the order guard for the
// independent ways stream that follows.
func (m *Manager) Prepare() error {
	if m.phase != phaseCollecting {
		return fmt.Errorf("manager: prepare: %w", ErrWrongPhase)
	}
	if err := m.mdb.Prepare(); err != nil {
		return fmt.Errorf("manager: prepare: %w", err)
	}
	m.guard.Reset()
	m.phase = phasePrepared
	return nil
}

// Way offers way to pass 2 (spec.md §4.6 step 3): first to
// MembersDatabase, which may synchronously complete one or more
// relations, then independently to standalone closed-way assembly. A
// relation-area completed by way is therefore emitted before way's own
// area, matching spec.md §8's documented ordering.
func (m *Manager) Way(way *osm.Way) error {
	if m.fatalErr != nil {
		return m.fatalErr
	}
	if m.phase != phasePrepared {
		return fmt.Errorf("manager: way %d: %w", way.ID, ErrWrongPhase)
	}
	if err := m.guard.Check(osm.TypeWay, way.ID); err != nil {
		return err
	}

	if _, err := m.mdb.Add(way, m.completeRelation); err != nil {
		return fmt.Errorf("manager: way %d: %w", way.ID, err)
	}
	if m.fatalErr != nil {
		return m.fatalErr
	}

	if !way.AreaNo() && way.Closed() && m.filter.MatchWay(way) {
		timer := metrics.NewTimer()
		emitted, asmErr := m.asm.AssembleWay(way, m)
		timer.ObserveDurationVec(m.assemblyDuration, "way")
		if asmErr != nil {
			if !m.recordAssemblerError(asmErr) {
				return fmt.Errorf("manager: way %d: %w", way.ID, asmErr)
			}
		} else if emitted {
			m.log.Debug().Int64("way_id", way.ID).Msg("standalone area assembled")
		}
	}

	m.buf.PossiblyFlush()
	return nil
}

// completeRelation is the MembersDatabase completion callback
// (spec.md §4.6 step (c)): it gathers rel's resolved members in slot
// order, hands them to the Assembler, then releases the relation's
// storage and every way it referenced.
func (m *Manager) completeRelation(h relations.Handle) {
	rel, ok := m.rdb.Get(h)
	if !ok {
		m.fail(fmt.Errorf("manager: complete relation: %w", stash.ErrUnknownHandle{Handle: h}))
		return
	}
	relID := rel.ID

	handles, hasWay, err := m.rdb.ResolvedWayHandles(h)
	if err != nil {
		m.fail(fmt.Errorf("manager: complete relation %d: %w", relID, err))
		return
	}

	resolved := make([]assembler.ResolvedMember, len(rel.Members))
	var wayIDs []int64
	for slot, mem := range rel.Members {
		resolved[slot].Role = mem.Role
		if !hasWay[slot] {
			continue
		}
		way, ok := m.mdb.WayByHandle(handles[slot])
		if !ok {
			continue
		}
		resolved[slot].Way = way
		wayIDs = append(wayIDs, way.ID)
	}

	timer := metrics.NewTimer()
	emitted, asmErr := m.asm.AssembleRelation(rel, resolved, m)
	timer.ObserveDurationVec(m.assemblyDuration, "relation")
	if asmErr != nil {
		if !m.recordAssemblerError(asmErr) {
			m.fail(fmt.Errorf("manager: relation %d: %w", relID, asmErr))
		}
	} else if emitted {
		m.log.Debug().Int64("relation_id", relID).Msg("relation area assembled")
	}

	m.mdb.RemoveAllForRelation(h)
	for _, wayID := range wayIDs {
		if err := m.mdb.ReleaseWay(wayID); err != nil {
			m.fail(fmt.Errorf("manager: release way %d for relation %d: %w", wayID, relID, err))
		}
	}
	if err := m.rdb.Remove(h); err != nil {
		m.fail(fmt.Errorf("manager: remove relation %d: %w", relID, err))
	}
}

// fail records the first structural (non-swallowable) error encountered,
// which every subsequent Relation/Way call then returns immediately.
func (m *Manager) fail(err error) {
	if m.fatalErr == nil {
		m.fatalErr = err
		m.log.Error().Err(err).Msg("fatal manager error")
	}
}

// recordAssemblerError records a swallowed assembler failure in stats
// and reports whether err was an *assembler.Error at all. A false result
// is the caller's cue to treat err as structural and propagate it.
func (m *Manager) recordAssemblerError(err error) bool {
	var asmErr *assembler.Error
	if !errors.As(err, &asmErr) {
		return false
	}
	m.failuresByKind[asmErr.Kind.String()]++
	m.log.Debug().Str("kind", asmErr.Kind.String()).Str("reason", asmErr.Reason).Msg("assembly failure recorded")
	return true
}

// Emit implements assembler.Sink: it counts the area and its rings before
// forwarding it to the CallbackBuffer.
func (m *Manager) Emit(area *osm.Area) {
	m.areasBuilt++
	m.ringsBuilt += uint64(countRings(area))
	m.buf.Emit(area)
}

func countRings(a *osm.Area) int {
	n := 0
	for _, outer := range a.Outers() {
		n += 1 + len(outer.Inners)
	}
	return n
}

// FlushOutput unconditionally flushes the CallbackBuffer, typically
// called once pass 2 ends.
func (m *Manager) FlushOutput() {
	m.buf.Flush()
}

// IncompleteRelationIDs returns the ids of relations still awaiting one
// or more way members (spec.md §4.6's end-of-pass diagnostic). This is
// not an error; their storage is released only when the Manager itself
// is discarded.
func (m *Manager) IncompleteRelationIDs() []int64 {
	handles := m.rdb.Live()
	ids := make([]int64, 0, len(handles))
	for _, h := range handles {
		if rel, ok := m.rdb.Get(h); ok {
			ids = append(ids, rel.ID)
		}
	}
	return ids
}

// Stats is a point-in-time snapshot of manager counters (spec.md §6).
type Stats struct {
	AreasBuilt          uint64
	RingsBuilt          uint64
	Failures            map[string]uint64
	IncompleteRelations int
}

// Stats returns a snapshot copy of the manager's counters.
func (m *Manager) Stats() Stats {
	failures := make(map[string]uint64, len(m.failuresByKind))
	for k, v := range m.failuresByKind {
		failures[k] = v
	}
	return Stats{
		AreasBuilt:          m.areasBuilt,
		RingsBuilt:          m.ringsBuilt,
		Failures:            failures,
		IncompleteRelations: len(m.rdb.Live()),
	}
}

// MemoryUsage is the three-way memory split spec.md §6's used_memory()
// calls for: relations, members (the interest index), and stash (the
// shared, reference-counted way arena).
type MemoryUsage struct {
	Relations uint64
	Members   uint64
	Stash     uint64
}

// UsedMemory reports the manager's current allocation footprint.
func (m *Manager) UsedMemory() MemoryUsage {
	return MemoryUsage{
		Relations: m.rdb.UsedMemory(),
		Members:   m.mdb.InterestIndexMemory(),
		Stash:     m.mdb.WayArenaMemory(),
	}
}

// AreasBuilt, RingsBuilt, FailuresByKind, IncompleteRelations, and
// UsedMemoryBytes satisfy metrics.StatsSource, letting an embedder wrap a
// Manager directly in a metrics.Collector.
func (m *Manager) AreasBuilt() uint64 { return m.areasBuilt }

func (m *Manager) RingsBuilt() uint64 { return m.ringsBuilt }

func (m *Manager) FailuresByKind() map[string]uint64 {
	out := make(map[string]uint64, len(m.failuresByKind))
	for k, v := range m.failuresByKind {
		out[k] = v
	}
	return out
}

func (m *Manager) IncompleteRelations() int {
	return len(m.rdb.Live())
}

func (m *Manager) UsedMemoryBytes() (rel, mem, stsh uint64) {
	u := m.UsedMemory()
	return u.Relations, u.Members, u.Stash
}

// AssemblyDurationCollector exposes the per-call Assembler timing histogram
// (labeled "way" or "relation") as its own prometheus.Collector, to be
// registered alongside a metrics.Collector wrapping the same Manager.
func (m *Manager) AssemblyDurationCollector() prometheus.Collector {
	return m.assemblyDuration
}
