/*
Package manager implements MultipolygonManager (spec.md §4.6, C6): the
two-pass orchestrator that turns a canonically-ordered OSM object stream
into a sequence of assembled Area objects.

# Two passes

Pass 1 sees relations only. Each relation is checked against the area
filter (type=multipolygon/boundary plus the embedder's tag matcher); kept
relations are copied into RelationsDatabase and their way members are
registered as interests in MembersDatabase. Prepare closes pass 1,
sorting those interests for pass 2's binary search.

Pass 2 sees ways. Each way is offered to MembersDatabase first — this can
synchronously complete zero or more relations, each gathering its
resolved members in slot order and handing them to the Assembler — and
then independently checked for standalone closed-way assembly. Both
paths write through the same CallbackBuffer, flushed opportunistically
after each step and unconditionally once pass 2 ends.

# Failure handling

An *assembler.Error, of either kind, is swallowed: the object is skipped
and the failure recorded in Stats().Failures by kind string. Any other
error — an order violation from the embedded order-check guard, or a
stash/relations contract violation — is fatal and returned to the caller,
per spec.md §7's local/structural distinction.

# Diagnostics

Relations that never complete are not an error: IncompleteRelationIDs
exposes their identities, and their storage is released only when the
embedder drops the Manager.
*/
package manager
