// Package assembler defines the pluggable ring-assembly collaborator
// contract (spec.md §4.5, C5). MultipolygonManager depends only on the
// Assembler interface; pkg/assembler/ring supplies one concrete
// implementation.
package assembler
