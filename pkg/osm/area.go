package osm

// Ring is one closed boundary of an Area, an ordered sequence of node refs
// whose first and last entries coincide.
type Ring struct {
	Nodes []NodeRef
}

// Outer is one outer ring together with the inner rings nested inside it.
// Inner-ring enumeration for an outer is contiguous, matching spec.md §6.
type Outer struct {
	Ring   Ring
	Inners []Ring
}

// Area is the object this core exists to produce: a reconstructed
// polygonal area with the source way/relation's tags and one or more
// outer rings.
type Area struct {
	id     int64
	fromID int64
	fromWy bool
	tags   TagList
	outers []Outer
}

// ID returns the area id, computed by ToAreaID from the source object.
func (a *Area) ID() int64 { return a.id }

// Tags returns the tag set copied from the source way or relation.
func (a *Area) Tags() TagList { return a.tags }

// Outers returns the outer rings (with their nested inners) in build order.
func (a *Area) Outers() []Outer { return a.outers }

// Multipolygon reports whether the area has more than one outer ring.
func (a *Area) Multipolygon() bool { return len(a.outers) > 1 }

// SourceID and FromWay recover the originating object, inverse to ToAreaID.
func (a *Area) SourceID() int64 { return a.fromID }
func (a *Area) FromWay() bool   { return a.fromWy }

// Builder is the only way to construct an Area outside this package — the
// module-private fields keep embedders from fabricating one by hand while
// still letting the pluggable Assembler build real values.
type Builder struct {
	area Area
}

// NewBuilder starts building the Area derived from the given source object
// id and type, per the bijection in ToAreaID.
func NewBuilder(sourceID int64, fromWay bool, tags TagList) *Builder {
	b := &Builder{}
	b.area.fromID = sourceID
	b.area.fromWy = fromWay
	b.area.id = ToAreaID(sourceID, fromWay)
	b.area.tags = tags
	return b
}

// AddOuter appends an outer ring (with its nested inners) to the area being
// built.
func (b *Builder) AddOuter(outer Outer) *Builder {
	b.area.outers = append(b.area.outers, outer)
	return b
}

// Build finalizes and returns the Area. The builder must not be reused
// afterward.
func (b *Builder) Build() *Area {
	return &b.area
}

// ToAreaID computes the area id bijection from spec.md §6:
//
//	area_id = (|object_id| * 2 + (type == relation ? 1 : 0)) * sign(object_id)
func ToAreaID(objectID int64, fromWay bool) int64 {
	sign := int64(1)
	abs := objectID
	if objectID < 0 {
		sign = -1
		abs = -objectID
	}
	bit := int64(0)
	if !fromWay {
		bit = 1
	}
	return (abs*2 + bit) * sign
}

// FromAreaID inverts ToAreaID: object_id = area_id / 2 (integer division,
// truncating toward zero as Go's / does), from_way = (|area_id| & 1) == 0.
func FromAreaID(areaID int64) (objectID int64, fromWay bool) {
	abs := areaID
	if abs < 0 {
		abs = -abs
	}
	fromWay = abs&1 == 0
	return areaID / 2, fromWay
}
