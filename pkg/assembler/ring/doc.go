// Package ring is the reference Assembler implementation supplemented by
// SPEC_FULL.md §12: C5 is pluggable, but the end-to-end scenarios need a
// concrete ring builder to assert output against.
//
// For a closed way, the outer ring is just the way's own node-ref
// sequence. For a relation, members are bucketed by role (inner vs
// everything else), way segments within a bucket are greedily joined on
// shared endpoints into closed rings, and each inner ring is nested under
// the smallest enclosing outer ring using a ray-casting point-in-polygon
// test over the ring's first node. Topology repair, self-intersection
// detection, and multi-outer nesting ambiguity are left unhandled,
// consistent with the core not validating topology beyond what ring
// assembly requires.
package ring
