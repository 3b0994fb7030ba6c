// Package memory provides in-memory archive implementations, the default
// when no DSN is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/storage"
)

// HistoryArchive is an in-memory implementation of storage.HistoryArchive.
type HistoryArchive struct {
	mu   sync.RWMutex
	data map[string]*domain.ClosedTrade // keyed by mint
}

// NewHistoryArchive creates an empty in-memory history archive.
func NewHistoryArchive() *HistoryArchive {
	return &HistoryArchive{
		data: make(map[string]*domain.ClosedTrade),
	}
}

// Insert appends a closed trade. Returns ErrDuplicateKey if the mint was
// already recorded.
func (a *HistoryArchive) Insert(_ context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.data[t.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	rec := *t
	a.data[t.Mint] = &rec
	return nil
}

// List returns all recorded trades ordered by close time ASC.
func (a *HistoryArchive) List(_ context.Context) ([]*domain.ClosedTrade, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*domain.ClosedTrade, 0, len(a.data))
	for _, t := range a.data {
		rec := *t
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClosedAt.Before(out[j].ClosedAt)
	})
	return out, nil
}

// Verify interface compliance at compile time.
var _ storage.HistoryArchive = (*HistoryArchive)(nil)
