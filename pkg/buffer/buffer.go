package buffer

import "github.com/osmcode/mpoly/pkg/osm"

// DefaultThreshold is the high-water mark a Buffer flushes at when none is
// configured: a page-multiple chosen so typical OSM way/area payloads
// don't force a flush mid-batch (spec.md §4.7).
const DefaultThreshold = 1 << 20 // 1 MiB

// Callback receives full batches of Areas as the buffer flushes. It is
// invoked synchronously on the manager's thread (spec.md §5): a slow sink
// stalls the manager by design.
type Callback func(areas []*osm.Area)

// Buffer implements CallbackBuffer (spec.md §4.7, C7): an accumulating
// batch of assembled Areas with a size-triggered hand-off to either a
// registered Callback (push mode) or an explicit Read (pull mode).
type Buffer struct {
	threshold uint64
	areas     []*osm.Area
	size      uint64
	callback  Callback
	pending   []*osm.Area
}

// New creates a Buffer that flushes once its estimated size reaches
// threshold. A threshold of 0 uses DefaultThreshold.
func New(threshold uint64) *Buffer {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Buffer{threshold: threshold}
}

// SetCallback installs the push-mode sink. A nil callback reverts the
// buffer to pull mode: flushed batches accumulate for Read.
func (b *Buffer) SetCallback(cb Callback) {
	b.callback = cb
}

// Emit appends area to the buffer, implementing assembler.Sink. Areas are
// appended whole — never split across a flush.
func (b *Buffer) Emit(area *osm.Area) {
	b.areas = append(b.areas, area)
	b.size += areaSize(area)
}

// PossiblyFlush hands the buffer off if its estimated size has reached
// the threshold, replacing it with a fresh empty one. Reports whether a
// flush happened.
func (b *Buffer) PossiblyFlush() bool {
	if b.size < b.threshold {
		return false
	}
	b.Flush()
	return true
}

// Flush hands the buffer off unconditionally, regardless of size — used
// for the manager's terminal flush after pass 2 completes.
func (b *Buffer) Flush() {
	if len(b.areas) == 0 {
		return
	}
	full := b.areas
	b.areas = nil
	b.size = 0
	if b.callback != nil {
		b.callback(full)
		return
	}
	b.pending = append(b.pending, full...)
}

// Read pulls and clears the batches accumulated by Flush/PossiblyFlush
// while no callback was registered. Once a callback is installed, flushed
// batches go straight to it; Read then returns only batches flushed before
// that and not yet read, or nil if there are none.
func (b *Buffer) Read() []*osm.Area {
	out := b.pending
	b.pending = nil
	return out
}

func areaSize(a *osm.Area) uint64 {
	const baseOverhead = 48
	const perNodeRef = 24
	size := uint64(baseOverhead)
	for _, t := range a.Tags() {
		size += uint64(len(t.Key) + len(t.Value))
	}
	for _, outer := range a.Outers() {
		size += uint64(len(outer.Ring.Nodes)) * perNodeRef
		for _, inner := range outer.Inners {
			size += uint64(len(inner.Nodes)) * perNodeRef
		}
	}
	return size
}
