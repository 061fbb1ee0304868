package relations

import (
	"testing"

	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRelation() *osm.Relation {
	return &osm.Relation{
		Meta: osm.Meta{ID: 7, Tags: osm.TagList{{Key: "type", Value: "multipolygon"}}},
		Members: []osm.Member{
			{Type: osm.MemberWay, ID: 10, Role: "outer"},
			{Type: osm.MemberWay, ID: 11, Role: "inner"},
		},
	}
}

func TestAddGetOutstanding(t *testing.T) {
	db := New()
	h := db.Add(sampleRelation())

	rel, ok := db.Get(h)
	require.True(t, ok)
	assert.Equal(t, int64(7), rel.ID)

	count, ok := db.Outstanding(h)
	require.True(t, ok)
	assert.Zero(t, count)

	require.NoError(t, db.IncrementOutstanding(h))
	require.NoError(t, db.IncrementOutstanding(h))
	count, _ = db.Outstanding(h)
	assert.Equal(t, 2, count)

	newCount, err := db.DecrementOutstanding(h)
	require.NoError(t, err)
	assert.Equal(t, 1, newCount)
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db := New()
	h := db.Add(sampleRelation())
	newCount, err := db.DecrementOutstanding(h)
	require.NoError(t, err)
	assert.Zero(t, newCount)
}

func TestResolveMemberAndFetch(t *testing.T) {
	db := New()
	h := db.Add(sampleRelation())

	wh := WayHandle{}
	require.NoError(t, db.ResolveMember(h, 0, wh))

	resolved, has, err := db.ResolvedWayHandles(h)
	require.NoError(t, err)
	assert.True(t, has[0])
	assert.False(t, has[1])
	assert.Len(t, resolved, 2)
}

func TestRemoveThenGetFails(t *testing.T) {
	db := New()
	h := db.Add(sampleRelation())
	require.NoError(t, db.Remove(h))

	_, ok := db.Get(h)
	assert.False(t, ok)
}

func TestLiveHandles(t *testing.T) {
	db := New()
	h1 := db.Add(sampleRelation())
	h2 := db.Add(sampleRelation())

	live := db.Live()
	assert.ElementsMatch(t, []Handle{h1, h2}, live)

	require.NoError(t, db.Remove(h1))
	live = db.Live()
	assert.Equal(t, []Handle{h2}, live)
}
