package clickhouse

import (
	"context"
	"fmt"

	"github.com/benhexie/sol-sniper/internal/storage"
)

// TickArchive implements storage.TickArchive using ClickHouse.
type TickArchive struct {
	conn *Conn
}

// NewTickArchive creates a new TickArchive.
func NewTickArchive(conn *Conn) *TickArchive {
	return &TickArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.TickArchive = (*TickArchive)(nil)

// InsertBatch appends a batch of tick points.
func (a *TickArchive) InsertBatch(ctx context.Context, points []storage.TickPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO price_ticks (
			mint, timestamp_ms, price_sol, market_cap_sol, v_sol_in_bonding_curve
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.Mint, uint64(p.TimestampMs), p.PriceSol, p.MarketCap, p.Liquidity,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
