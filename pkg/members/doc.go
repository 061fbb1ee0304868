// Package members implements MembersDatabase (spec.md §4.2, C2): the
// collecting → prepared interest index that matches incoming way payloads
// against the relations waiting on them.
//
// Track calls append interests in arbitrary order during pass 1. Prepare
// sorts them once, ascending by way id with a stable tie-break on
// insertion order, so a single way that completes several relations fires
// their completion callbacks in registration order (spec.md §4.2's
// ordering guarantee, property P6). After Prepare the set of interests is
// fixed in shape (invariant I2); only Add, Remove and RemoveAllForRelation
// logically erase entries.
package members
