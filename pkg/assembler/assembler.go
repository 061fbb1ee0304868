package assembler

import "github.com/osmcode/mpoly/pkg/osm"

// Sink is where an Assembler deposits the Area it produces. CallbackBuffer
// (pkg/buffer) is the concrete sink MultipolygonManager wires in; tests may
// use a bare slice-backed sink.
type Sink interface {
	Emit(area *osm.Area)
}

// ResolvedMember pairs a relation member's role with its resolved way
// payload, in member-slot order. Way is nil for slots that were never way
// members (or, defensively, never resolved) — an Assembler must skip
// those rather than treat a nil Way as an error.
type ResolvedMember struct {
	Role string
	Way  *osm.Way
}

// Assembler is the pluggable ring-assembly collaborator contract from
// spec.md §4.5 (C5). The manager only relies on this interface; it never
// inspects ring-building internals.
type Assembler interface {
	// AssembleWay closes way's own node-ref sequence into a single outer
	// ring and emits one Area via out. The manager has already checked
	// way.Closed(), the filter, and !way.AreaNo() before calling this.
	AssembleWay(way *osm.Way, out Sink) (emitted bool, err error)

	// AssembleRelation assembles outer/inner rings from rel's resolved
	// members and emits one Area via out. The manager has already run the
	// relation through the area filter before calling this.
	AssembleRelation(rel *osm.Relation, members []ResolvedMember, out Sink) (emitted bool, err error)
}

// Kind classifies an assembly failure per spec.md §7's error table.
type Kind int

const (
	// KindInvalidLocation: a node reference had no resolved, valid
	// location. Swallowed by the manager; the object is skipped.
	KindInvalidLocation Kind = iota
	// KindAssemblerFailure: topology, self-intersection, or any other
	// ring-assembly defect. Recorded in stats; the manager continues.
	KindAssemblerFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidLocation:
		return "invalid_location"
	case KindAssemblerFailure:
		return "assembler_failure"
	default:
		return "unknown"
	}
}

// Error is the result-value replacement for the source's location
// exceptions (spec.md §9): the manager inspects Kind with errors.As
// instead of catching a typed exception.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "assembler: " + e.Kind.String() + ": " + e.Reason + ": " + e.Err.Error()
	}
	return "assembler: " + e.Kind.String() + ": " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidLocation builds a KindInvalidLocation error.
func InvalidLocation(reason string) *Error {
	return &Error{Kind: KindInvalidLocation, Reason: reason}
}

// Failure builds a KindAssemblerFailure error, optionally wrapping a more
// specific cause.
func Failure(reason string, err error) *Error {
	return &Error{Kind: KindAssemblerFailure, Reason: reason, Err: err}
}
