// Package osm defines the read-only OSM object model the assembly core
// operates on: nodes, ways, relations, and the derived Area it produces.
//
// Objects arriving from the decoder are treated as immutable; the only
// mutation the core performs is zeroing a Relation member's ID to mark it
// uninteresting (see Relation.DropMember).
package osm
