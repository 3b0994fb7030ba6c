package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/storage"
)

// HistoryArchive implements storage.HistoryArchive using PostgreSQL.
type HistoryArchive struct {
	pool *Pool
}

// NewHistoryArchive creates a new HistoryArchive.
func NewHistoryArchive(pool *Pool) *HistoryArchive {
	return &HistoryArchive{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoryArchive = (*HistoryArchive)(nil)

// Insert appends a closed trade. Returns ErrDuplicateKey if the mint exists.
func (a *HistoryArchive) Insert(ctx context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_history (
			mint, name, scout_price, buy_price, sell_price, max_price,
			outcome, rugged, time_to_first_milestone_ms, opened_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)
	`

	_, err := a.pool.Exec(ctx, query,
		t.Mint, t.Name, t.ScoutPrice, t.BuyPrice, t.SellPrice, t.MaxPrice,
		t.Outcome, t.Rugged, t.TimeToFirstMilestone.Milliseconds(),
		t.OpenedAt, t.ClosedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert closed trade: %w", err)
	}

	return nil
}

// List returns all recorded trades ordered by close time ASC.
func (a *HistoryArchive) List(ctx context.Context) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT mint, name, scout_price, buy_price, sell_price, max_price,
		       outcome, rugged, time_to_first_milestone_ms, opened_at, closed_at
		FROM trade_history
		ORDER BY closed_at ASC
	`

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trade history: %w", err)
	}
	defer rows.Close()

	var out []*domain.ClosedTrade
	for rows.Next() {
		var t domain.ClosedTrade
		var milestoneMs int64
		err := rows.Scan(
			&t.Mint, &t.Name, &t.ScoutPrice, &t.BuyPrice, &t.SellPrice, &t.MaxPrice,
			&t.Outcome, &t.Rugged, &milestoneMs, &t.OpenedAt, &t.ClosedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		t.TimeToFirstMilestone = time.Duration(milestoneMs) * time.Millisecond
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade history: %w", err)
	}

	return out, nil
}
