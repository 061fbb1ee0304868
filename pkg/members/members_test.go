package members

import (
	"testing"

	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/osmcode/mpoly/pkg/relations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRelation(wayIDs ...int64) *osm.Relation {
	members := make([]osm.Member, len(wayIDs))
	for i, id := range wayIDs {
		members[i] = osm.Member{Type: osm.MemberWay, ID: id, Role: "outer"}
	}
	return &osm.Relation{
		Meta:    osm.Meta{ID: 100, Tags: osm.TagList{{Key: "type", Value: "multipolygon"}}},
		Members: members,
	}
}

func way(id int64) *osm.Way {
	return &osm.Way{
		Meta: osm.Meta{ID: id},
		Refs: []osm.NodeRef{
			{ID: 1, Location: osm.Location{Lon: 0, Lat: 0}},
			{ID: 2, Location: osm.Location{Lon: 1, Lat: 0}},
			{ID: 3, Location: osm.Location{Lon: 1, Lat: 1}},
			{ID: 1, Location: osm.Location{Lon: 0, Lat: 0}},
		},
	}
}

func TestTrackRequiresCollectingPhase(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h := rdb.Add(sampleRelation(10))
	require.NoError(t, mdb.Track(h, 10, 0))
	require.NoError(t, mdb.Prepare())

	err := mdb.Track(h, 10, 0)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestAddBeforePrepareFails(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	_, err := mdb.Add(way(10), nil)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestAddUnmatchedWayReportsFalse(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	require.NoError(t, mdb.Prepare())

	matched, err := mdb.Add(way(99), nil)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestAddMatchedWayResolvesAndCompletes(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h := rdb.Add(sampleRelation(10))
	require.NoError(t, mdb.Track(h, 10, 0))
	require.NoError(t, mdb.Prepare())

	var completed []relations.Handle
	matched, err := mdb.Add(way(10), func(r relations.Handle) { completed = append(completed, r) })
	require.NoError(t, err)
	assert.True(t, matched)
	require.Len(t, completed, 1)
	assert.Equal(t, h, completed[0])

	count, ok := rdb.Outstanding(h)
	require.True(t, ok)
	assert.Zero(t, count)

	resolved, has, err := rdb.ResolvedWayHandles(h)
	require.NoError(t, err)
	assert.True(t, has[0])

	w, ok := mdb.WayByHandle(resolved[0])
	require.True(t, ok)
	assert.Equal(t, int64(10), w.ID)
}

func TestPrepareSortsAscendingStable(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h1 := rdb.Add(sampleRelation(30))
	h2 := rdb.Add(sampleRelation(10))
	h3 := rdb.Add(sampleRelation(20))
	require.NoError(t, mdb.Track(h1, 30, 0))
	require.NoError(t, mdb.Track(h2, 10, 0))
	require.NoError(t, mdb.Track(h3, 20, 0))
	require.NoError(t, mdb.Prepare())

	ids := make([]int64, len(mdb.interests))
	for i, it := range mdb.interests {
		ids[i] = it.wayID
	}
	assert.Equal(t, []int64{10, 20, 30}, ids)
}

func TestSharedWayCompletesRelationsInRegistrationOrder(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	hFirst := rdb.Add(sampleRelation(5))
	hSecond := rdb.Add(sampleRelation(5))
	require.NoError(t, mdb.Track(hFirst, 5, 0))
	require.NoError(t, mdb.Track(hSecond, 5, 0))
	require.NoError(t, mdb.Prepare())

	var order []relations.Handle
	_, err := mdb.Add(way(5), func(r relations.Handle) { order = append(order, r) })
	require.NoError(t, err)
	assert.Equal(t, []relations.Handle{hFirst, hSecond}, order)
}

func TestGetReturnsStashedWay(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h := rdb.Add(sampleRelation(10))
	require.NoError(t, mdb.Track(h, 10, 0))
	require.NoError(t, mdb.Prepare())
	_, err := mdb.Add(way(10), nil)
	require.NoError(t, err)

	w, ok := mdb.Get(10)
	require.True(t, ok)
	assert.Equal(t, int64(10), w.ID)

	_, ok = mdb.Get(999)
	assert.False(t, ok)
}

func TestRemoveAllForRelationStopsFutureMatch(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h := rdb.Add(sampleRelation(10))
	require.NoError(t, mdb.Track(h, 10, 0))
	require.NoError(t, mdb.Prepare())

	n := mdb.RemoveAllForRelation(h)
	assert.Equal(t, 1, n)

	matched, err := mdb.Add(way(10), nil)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestReleaseWaySharedBetweenTwoRelationsKeepsPayloadUntilBothRelease(t *testing.T) {
	rdb := relations.New()
	mdb := New(rdb)
	h1 := rdb.Add(sampleRelation(5))
	h2 := rdb.Add(sampleRelation(5))
	require.NoError(t, mdb.Track(h1, 5, 0))
	require.NoError(t, mdb.Track(h2, 5, 0))
	require.NoError(t, mdb.Prepare())
	_, err := mdb.Add(way(5), nil)
	require.NoError(t, err)

	before := mdb.UsedMemory()
	require.NoError(t, mdb.ReleaseWay(5))
	_, ok := mdb.Get(5)
	assert.True(t, ok, "still referenced by second relation")

	require.NoError(t, mdb.ReleaseWay(5))
	_, ok = mdb.Get(5)
	assert.False(t, ok, "released after last reference dropped")
	assert.Less(t, mdb.UsedMemory(), before)
}
