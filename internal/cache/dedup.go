package cache

import (
	"context"
	"sync"
)

// DefaultDedupCapacity matches the reference window of recent event ids.
const DefaultDedupCapacity = 1000

// Deduplicator rejects replayed inbound-event identifiers over a bounded
// recent window. Best effort: ids older than the window are forgotten.
type Deduplicator interface {
	// Seen reports whether the id was already recorded, recording it if not.
	Seen(ctx context.Context, eventID int64) bool
}

type boundedDedup struct {
	mu       sync.Mutex
	capacity int
	ids      map[int64]struct{}
	order    []int64
}

// NewDeduplicator returns an in-memory bounded deduplicator.
func NewDeduplicator(capacity int) Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &boundedDedup{
		capacity: capacity,
		ids:      make(map[int64]struct{}, capacity),
	}
}

func (d *boundedDedup) Seen(_ context.Context, eventID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ids[eventID]; ok {
		return true
	}

	// At capacity, drop the oldest half in one batch rather than tracking
	// strict LRU order per admission.
	if len(d.order) >= d.capacity {
		half := d.capacity / 2
		for _, old := range d.order[:half] {
			delete(d.ids, old)
		}
		d.order = append(d.order[:0], d.order[half:]...)
	}

	d.ids[eventID] = struct{}{}
	d.order = append(d.order, eventID)
	return false
}
