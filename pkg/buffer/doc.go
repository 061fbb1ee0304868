// Package buffer implements CallbackBuffer (spec.md §4.7, C7): the output
// hand-off between the assembler and the embedder. Areas accumulate until
// a size threshold is crossed, at which point the full batch is handed to
// a registered callback — or left for an explicit Read pull if no
// callback is installed. An Area is never split across two flushes.
package buffer
