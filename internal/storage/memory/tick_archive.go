package memory

import (
	"context"
	"sync"

	"github.com/benhexie/sol-sniper/internal/storage"
)

// TickArchive is an in-memory implementation of storage.TickArchive.
type TickArchive struct {
	mu     sync.RWMutex
	points []storage.TickPoint
}

// NewTickArchive creates an empty in-memory tick archive.
func NewTickArchive() *TickArchive {
	return &TickArchive{}
}

// InsertBatch appends a batch of tick points.
func (a *TickArchive) InsertBatch(_ context.Context, points []storage.TickPoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, points...)
	return nil
}

// Points returns a copy of everything stored so far.
func (a *TickArchive) Points() []storage.TickPoint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]storage.TickPoint, len(a.points))
	copy(out, a.points)
	return out
}

// Verify interface compliance at compile time.
var _ storage.TickArchive = (*TickArchive)(nil)
