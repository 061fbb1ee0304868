// Package config loads the YAML-configurable parts of a
// MultipolygonManager (spec.md §6): the CallbackBuffer flush threshold,
// the keyed tag-matcher rules that build the embedder-supplied Filter,
// and an opaque AssemblerConfig forwarded verbatim to the Assembler. A
// zero-value Config falls back to spec.md's stated defaults: always-true
// filter, a 1 MiB threshold, pull-mode output.
package config
