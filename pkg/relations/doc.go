// Package relations implements RelationsDatabase (spec.md §4.3, C3): the
// set of kept relations, each with an outstanding-member counter that
// drives when its completion callback fires.
package relations
