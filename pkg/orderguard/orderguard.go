package orderguard

import (
	"errors"
	"fmt"

	"github.com/osmcode/mpoly/pkg/osm"
)

// ErrOutOfOrder is the sentinel wrapped into every order violation; callers
// can test for it with errors.Is regardless of the offending item.
var ErrOutOfOrder = errors.New("orderguard: item out of canonical order")

// Guard tracks the last item type and id seen and rejects anything that
// breaks canonical OSM order: item-type sequence non-decreasing in
// node ≤ way ≤ relation, and strictly ascending id within each type.
type Guard struct {
	haveLast bool
	lastType osm.Type
	lastID   int64
}

// New creates a Guard with no prior observed item.
func New() *Guard {
	return &Guard{}
}

// Check validates that (t, id) may legally follow everything seen so far,
// and if so records it as the new high-water mark. A violation returns an
// error wrapping ErrOutOfOrder; the caller must treat this as fatal
// (spec.md §7).
func (g *Guard) Check(t osm.Type, id int64) error {
	if g.haveLast {
		if t < g.lastType {
			return fmt.Errorf("%w: %s %d after %s %d", ErrOutOfOrder, t, id, g.lastType, g.lastID)
		}
		if t == g.lastType && id <= g.lastID {
			return fmt.Errorf("%w: %s %d after %s %d", ErrOutOfOrder, t, id, g.lastType, g.lastID)
		}
	}
	g.haveLast = true
	g.lastType = t
	g.lastID = id
	return nil
}

// Reset clears the guard's high-water mark, for reuse across an
// independent pass over the same stream.
func (g *Guard) Reset() {
	g.haveLast = false
	g.lastType = 0
	g.lastID = 0
}
