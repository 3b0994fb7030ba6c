package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/storage"
)

func sampleTrade(mint string, closedAt time.Time) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		Mint:                 mint,
		Name:                 "TOK-" + mint,
		ScoutPrice:           0.001,
		BuyPrice:             0.0012,
		SellPrice:            0.0048,
		MaxPrice:             0.005,
		Outcome:              domain.OutcomeTarget,
		Rugged:               false,
		TimeToFirstMilestone: 1500 * time.Millisecond,
		OpenedAt:             closedAt.Add(-time.Minute),
		ClosedAt:             closedAt,
	}
}

func TestHistoryArchive_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	arch := NewHistoryArchive(pool)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	// Insert out of close order; List must sort by close time.
	require.NoError(t, arch.Insert(ctx, sampleTrade("mint2", base.Add(time.Minute))))
	require.NoError(t, arch.Insert(ctx, sampleTrade("mint1", base)))

	trades, err := arch.List(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "mint1", trades[0].Mint)
	assert.Equal(t, "mint2", trades[1].Mint)

	got := trades[0]
	assert.Equal(t, "TOK-mint1", got.Name)
	assert.Equal(t, 0.0012, got.BuyPrice)
	assert.Equal(t, domain.OutcomeTarget, got.Outcome)
	assert.Equal(t, 1500*time.Millisecond, got.TimeToFirstMilestone)
}

func TestHistoryArchive_DuplicateMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	arch := NewHistoryArchive(pool)
	ctx := context.Background()

	trade := sampleTrade("mint1", time.Now().UTC())
	require.NoError(t, arch.Insert(ctx, trade))

	err := arch.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	trades, err := arch.List(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestHistoryArchive_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	arch := NewHistoryArchive(pool)
	ctx := context.Background()

	assert.ErrorIs(t, arch.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, arch.Insert(ctx, &domain.ClosedTrade{}), storage.ErrInvalidInput)
}
