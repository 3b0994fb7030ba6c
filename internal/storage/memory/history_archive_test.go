package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/storage"
)

func TestHistoryArchive_InsertDuplicate(t *testing.T) {
	arch := NewHistoryArchive()
	ctx := context.Background()

	trade := &domain.ClosedTrade{Mint: "mint1", Outcome: domain.OutcomeTarget, ClosedAt: time.Now()}
	require.NoError(t, arch.Insert(ctx, trade))
	assert.ErrorIs(t, arch.Insert(ctx, trade), storage.ErrDuplicateKey)

	trades, err := arch.List(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestHistoryArchive_ListOrdered(t *testing.T) {
	arch := NewHistoryArchive()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, arch.Insert(ctx, &domain.ClosedTrade{Mint: "late", ClosedAt: base.Add(time.Minute)}))
	require.NoError(t, arch.Insert(ctx, &domain.ClosedTrade{Mint: "early", ClosedAt: base}))

	trades, err := arch.List(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "early", trades[0].Mint)
	assert.Equal(t, "late", trades[1].Mint)
}

func TestHistoryArchive_CopiesOnStoreAndRead(t *testing.T) {
	arch := NewHistoryArchive()
	ctx := context.Background()

	trade := &domain.ClosedTrade{Mint: "mint1", SellPrice: 1, ClosedAt: time.Now()}
	require.NoError(t, arch.Insert(ctx, trade))

	// Mutating the caller's record after insert must not leak in.
	trade.SellPrice = 99

	trades, err := arch.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, trades[0].SellPrice)

	// Mutating a listed record must not change the stored one.
	trades[0].SellPrice = 42
	again, err := arch.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0].SellPrice)
}

func TestHistoryArchive_InvalidInput(t *testing.T) {
	arch := NewHistoryArchive()
	ctx := context.Background()

	assert.ErrorIs(t, arch.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, arch.Insert(ctx, &domain.ClosedTrade{}), storage.ErrInvalidInput)
}
