// Package filter implements the tag-matcher predicates from spec.md §4.4
// (C4): the configurable decision of whether a way or relation's tags
// qualify it for area assembly.
package filter
