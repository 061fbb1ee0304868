// Package e2e runs one larger, mixed manager session — closed ways, a
// completing multipolygon, an area=no suppression, and an incomplete
// relation all in a single pass-1/pass-2 run — asserting the manager's
// aggregate Stats() and UsedMemory() at the end, per SPEC_FULL.md §10.4.
package e2e

import (
	"testing"

	"github.com/osmcode/mpoly/pkg/assembler/ring"
	"github.com/osmcode/mpoly/pkg/filter"
	"github.com/osmcode/mpoly/pkg/manager"
	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(lon, lat float64) osm.Location { return osm.Location{Lon: lon, Lat: lat, Valid: true} }

func closedSquare(baseNodeID int64, x0, y0, x1, y1 float64) []osm.NodeRef {
	return []osm.NodeRef{
		{ID: baseNodeID, Location: loc(x0, y0)},
		{ID: baseNodeID + 1, Location: loc(x1, y0)},
		{ID: baseNodeID + 2, Location: loc(x1, y1)},
		{ID: baseNodeID + 3, Location: loc(x0, y1)},
		{ID: baseNodeID, Location: loc(x0, y0)},
	}
}

// TestSyntheticCity mixes a completing multipolygon, a standalone closed
// building, an area=no suppression, and an incomplete relation in one
// manager run under a building-only tag filter. The relation member ways
// carry no tags, so they never qualify for standalone assembly.
func TestSyntheticCity(t *testing.T) {
	buildingFilter := filter.Keyed(filter.Exact("building"), filter.AnyString(), false)
	m := manager.New(ring.New(nil), filter.NewAreaFilter(buildingFilter), 0)

	multipolygon := &osm.Relation{
		Meta: osm.Meta{ID: 7, Tags: osm.TagList{
			{Key: "type", Value: "multipolygon"},
			{Key: "building", Value: "yes"},
		}},
		Members: []osm.Member{
			{Type: osm.MemberWay, ID: 10, Role: "outer"},
			{Type: osm.MemberWay, ID: 11, Role: "inner"},
		},
	}
	incomplete := &osm.Relation{
		Meta: osm.Meta{ID: 50, Tags: osm.TagList{
			{Key: "type", Value: "multipolygon"},
			{Key: "building", Value: "yes"},
		}},
		Members: []osm.Member{
			{Type: osm.MemberWay, ID: 999, Role: "outer"},
		},
	}
	require.NoError(t, m.Relation(multipolygon))
	require.NoError(t, m.Relation(incomplete))
	require.NoError(t, m.Prepare())

	outerWay := &osm.Way{Meta: osm.Meta{ID: 10}, Refs: closedSquare(100, 0, 0, 10, 10)}
	innerWay := &osm.Way{Meta: osm.Meta{ID: 11}, Refs: closedSquare(200, 2, 2, 3, 3)}
	standaloneBuilding := &osm.Way{
		Meta: osm.Meta{ID: 42, Tags: osm.TagList{{Key: "building", Value: "yes"}}},
		Refs: closedSquare(1, 20, 20, 21, 21),
	}
	suppressedByAreaNo := &osm.Way{
		Meta: osm.Meta{ID: 100, Tags: osm.TagList{
			{Key: "building", Value: "yes"},
			{Key: "area", Value: "no"},
		}},
		Refs: closedSquare(300, 30, 30, 31, 31),
	}

	require.NoError(t, m.Way(outerWay))
	require.NoError(t, m.Way(innerWay))
	require.NoError(t, m.Way(standaloneBuilding))
	require.NoError(t, m.Way(suppressedByAreaNo))
	m.FlushOutput()

	areas := m.Read()
	require.Len(t, areas, 2)
	assert.Equal(t, int64(15), areas[0].ID()) // relation 7 completes first, at way 11
	assert.Equal(t, int64(84), areas[1].ID()) // standalone building way 42

	stats := m.Stats()
	assert.EqualValues(t, 2, stats.AreasBuilt)
	assert.Equal(t, 1, stats.IncompleteRelations)
	assert.Equal(t, []int64{50}, m.IncompleteRelationIDs())

	usage := m.UsedMemory()
	assert.Greater(t, usage.Relations, uint64(0), "incomplete relation 50 still holds storage")
	assert.EqualValues(t, 0, usage.Stash, "both of relation 7's ways were released on completion")
}
