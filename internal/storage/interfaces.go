// Package storage defines the archive interfaces the bot persists through.
// Archival is best-effort bookkeeping: the trading loop stays correct with
// the in-memory implementations alone.
package storage

import (
	"context"
	"time"

	"github.com/benhexie/sol-sniper/internal/domain"
)

// HistoryArchive records closed trades. Mint is the primary key.
type HistoryArchive interface {
	// Insert appends a closed trade. Returns ErrDuplicateKey if the mint
	// was already recorded.
	Insert(ctx context.Context, t *domain.ClosedTrade) error

	// List returns all recorded trades ordered by close time ASC.
	List(ctx context.Context) ([]*domain.ClosedTrade, error)
}

// TickPoint is one observed price tick for the tick archive.
type TickPoint struct {
	Mint        string
	TimestampMs int64
	PriceSol    float64
	MarketCap   float64
	Liquidity   float64
}

// NewTickPoint builds a tick point from an observed trade.
func NewTickPoint(mint string, price, marketCap, liquidity float64, ts time.Time) TickPoint {
	return TickPoint{
		Mint:        mint,
		TimestampMs: ts.UnixMilli(),
		PriceSol:    price,
		MarketCap:   marketCap,
		Liquidity:   liquidity,
	}
}

// TickArchive stores observed price ticks for offline analysis.
type TickArchive interface {
	// InsertBatch appends a batch of tick points.
	InsertBatch(ctx context.Context, points []TickPoint) error
}
