package osm

import "time"

// Type identifies the kind of OSM object.
type Type uint8

const (
	TypeNode Type = iota
	TypeWay
	TypeRelation
)

func (t Type) String() string {
	switch t {
	case TypeNode:
		return "node"
	case TypeWay:
		return "way"
	case TypeRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Tag is a single key/value pair. Keys are conventionally unique within a
// TagList but this is not enforced.
type Tag struct {
	Key   string
	Value string
}

// TagList is the ordered tag sequence carried by every OSM object.
type TagList []Tag

// Value returns the value of the first tag with the given key.
func (tl TagList) Value(key string) (string, bool) {
	for _, t := range tl {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// Has reports whether key=value is present.
func (tl TagList) Has(key, value string) bool {
	v, ok := tl.Value(key)
	return ok && v == value
}

// Location is a node's lat/lon coordinate. A zero Valid means the location
// was never resolved (e.g. a node that never arrived in pass 1 of the
// embedding decoder).
type Location struct {
	Lon, Lat float64
	Valid    bool
}

// Equal reports bit-exact equality, matching spec's closed-way test.
func (l Location) Equal(o Location) bool {
	return l.Valid && o.Valid && l.Lon == o.Lon && l.Lat == o.Lat
}

// Meta carries the object metadata common to nodes, ways and relations.
type Meta struct {
	ID        int64
	Version   int32
	Timestamp time.Time
	UID       int64
	User      string
	Tags      TagList
}

// NodeRef is one entry in a way's node list: the referenced node id and,
// once resolved by the embedding decoder, its location.
type NodeRef struct {
	ID       int64
	Location Location
}

// Way is an ordered sequence of node references.
type Way struct {
	Meta
	Refs []NodeRef
}

// Closed reports whether the way forms a ring candidate: at least 4 node
// refs and identical, resolved front/back locations.
func (w *Way) Closed() bool {
	if len(w.Refs) < 4 {
		return false
	}
	first, last := w.Refs[0], w.Refs[len(w.Refs)-1]
	return first.Location.Equal(last.Location)
}

// AreaNo reports whether the way carries area=no, which suppresses
// closed-way assembly regardless of ring closure or filter match.
func (w *Way) AreaNo() bool {
	return w.Tags.Has("area", "no")
}

// MemberType restricts Relation members to the subset the area core cares
// about; non-way members are retained for slot position but never stored.
type MemberType uint8

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

// Member is one entry in a relation's ordered member list.
type Member struct {
	Type MemberType
	ID   int64 // zeroed by DropMember once judged uninteresting
	Role string
}

// Relation is an ordered sequence of typed, roled members.
type Relation struct {
	Meta
	Members []Member
}

// DropMember zeros the ID of the member at slot, marking it as not of
// interest while preserving its position (and role) in the member list.
func (r *Relation) DropMember(slot int) {
	r.Members[slot].ID = 0
}

// IsArea reports whether the relation is tagged as a polygon-producing
// relation per the area filter's type check (spec.md §4.4).
func (r *Relation) IsArea() bool {
	t, ok := r.Tags.Value("type")
	return ok && (t == "multipolygon" || t == "boundary")
}
