package ring

import (
	"fmt"

	"github.com/osmcode/mpoly/internal/log"
	"github.com/osmcode/mpoly/pkg/assembler"
	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/rs/zerolog"
)

// Assembler is the reference Assembler implementation (SPEC_FULL.md §12).
type Assembler struct {
	log zerolog.Logger
	cfg map[string]any
}

// New builds an Assembler. cfg is the opaque assembler_config map
// forwarded verbatim from the manager's configuration (spec.md §6); this
// reference implementation doesn't read any keys from it but accepts it
// to satisfy the same construction shape a real assembler would need.
func New(cfg map[string]any) *Assembler {
	return &Assembler{log: log.WithComponent("assembler.ring"), cfg: cfg}
}

// AssembleWay implements assembler.Assembler.
func (a *Assembler) AssembleWay(way *osm.Way, out assembler.Sink) (bool, error) {
	refs, err := validatedRefs(way.Refs)
	if err != nil {
		a.log.Debug().Int64("way_id", way.ID).Msg("closed-way assembly skipped: invalid location")
		return false, err
	}

	b := osm.NewBuilder(way.ID, true, way.Tags)
	b.AddOuter(osm.Outer{Ring: osm.Ring{Nodes: refs}})
	out.Emit(b.Build())
	return true, nil
}

// AssembleRelation implements assembler.Assembler.
func (a *Assembler) AssembleRelation(rel *osm.Relation, members []assembler.ResolvedMember, out assembler.Sink) (bool, error) {
	var outerSegs, innerSegs [][]osm.NodeRef
	for _, m := range members {
		if m.Way == nil {
			continue
		}
		refs, err := validatedRefs(m.Way.Refs)
		if err != nil {
			a.log.Debug().Int64("relation_id", rel.ID).Int64("way_id", m.Way.ID).Msg("relation assembly skipped: invalid location")
			return false, err
		}
		if m.Role == "inner" {
			innerSegs = append(innerSegs, refs)
		} else {
			outerSegs = append(outerSegs, refs)
		}
	}

	outers, err := joinIntoRings(outerSegs)
	if err != nil {
		return false, err
	}
	if len(outers) == 0 {
		return false, assembler.Failure("relation produced no outer rings", nil)
	}
	inners, err := joinIntoRings(innerSegs)
	if err != nil {
		return false, err
	}

	b := osm.NewBuilder(rel.ID, false, rel.Tags)
	built := make([]osm.Outer, len(outers))
	for i, o := range outers {
		built[i] = osm.Outer{Ring: osm.Ring{Nodes: o}}
	}
	for _, inner := range inners {
		idx := smallestEnclosing(outers, inner)
		if idx < 0 {
			idx = 0
			a.log.Warn().Int64("relation_id", rel.ID).Msg("inner ring has no enclosing outer; attached to first outer")
		}
		built[idx].Inners = append(built[idx].Inners, osm.Ring{Nodes: inner})
	}
	for _, o := range built {
		b.AddOuter(o)
	}
	out.Emit(b.Build())
	return true, nil
}

func validatedRefs(refs []osm.NodeRef) ([]osm.NodeRef, error) {
	for _, r := range refs {
		if !r.Location.Valid {
			return nil, assembler.InvalidLocation(fmt.Sprintf("node %d has no resolved location", r.ID))
		}
	}
	return refs, nil
}

// joinIntoRings greedily joins way segments that share an endpoint into
// closed rings. Each input segment is itself a way's node-ref sequence,
// which may already be closed (a single ring) or open (joins with
// others). Leaves topology repair and self-intersection detection
// unhandled, per spec.md §1's Non-goal.
func joinIntoRings(segs [][]osm.NodeRef) ([][]osm.NodeRef, error) {
	if len(segs) == 0 {
		return nil, nil
	}

	remaining := make([][]osm.NodeRef, len(segs))
	for i, s := range segs {
		remaining[i] = append([]osm.NodeRef(nil), s...)
	}

	var rings [][]osm.NodeRef
	for len(remaining) > 0 {
		cur := remaining[0]
		remaining = remaining[1:]

		for !ringClosed(cur) {
			lastID := cur[len(cur)-1].ID
			idx, reverse := findJoin(remaining, lastID)
			if idx < 0 {
				return nil, assembler.Failure(fmt.Sprintf("dangling segment ending at node %d", lastID), nil)
			}
			seg := remaining[idx]
			remaining = append(remaining[:idx], remaining[idx+1:]...)
			if reverse {
				seg = reversed(seg)
			}
			cur = append(cur, seg[1:]...)
		}
		rings = append(rings, cur)
	}
	return rings, nil
}

func findJoin(segs [][]osm.NodeRef, nodeID int64) (idx int, reverse bool) {
	for i, seg := range segs {
		if seg[0].ID == nodeID {
			return i, false
		}
		if seg[len(seg)-1].ID == nodeID {
			return i, true
		}
	}
	return -1, false
}

func ringClosed(refs []osm.NodeRef) bool {
	return len(refs) > 0 && refs[0].ID == refs[len(refs)-1].ID
}

func reversed(refs []osm.NodeRef) []osm.NodeRef {
	out := make([]osm.NodeRef, len(refs))
	for i, r := range refs {
		out[len(refs)-1-i] = r
	}
	return out
}

// smallestEnclosing returns the index of the smallest-area outer ring
// (by a shoelace-formula estimate) that contains inner's first node,
// using a ray-casting point-in-polygon test. Returns -1 if none contain
// it.
func smallestEnclosing(outers [][]osm.NodeRef, inner []osm.NodeRef) int {
	if len(inner) == 0 {
		return -1
	}
	pt := inner[0]
	best, bestArea := -1, 0.0
	for i, outer := range outers {
		if !pointInRing(outer, pt.Location.Lon, pt.Location.Lat) {
			continue
		}
		a := ringArea(outer)
		if best == -1 || a < bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

func pointInRing(ring []osm.NodeRef, lon, lat float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Location.Lon, ring[i].Location.Lat
		xj, yj := ring[j].Location.Lon, ring[j].Location.Lat
		if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func ringArea(ring []osm.NodeRef) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].Location.Lon*ring[j].Location.Lat - ring[j].Location.Lon*ring[i].Location.Lat
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
