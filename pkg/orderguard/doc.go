// Package orderguard implements the order-check handler from spec.md §4.8
// (C8): an assertion that a stream of OSM items arrives in canonical
// order (nodes ≤ ways ≤ relations by type, strictly ascending id within
// each type). A violation is fatal and surfaced to the caller.
package orderguard
