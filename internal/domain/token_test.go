package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservePrice_MaxPriceMonotonic(t *testing.T) {
	tok := &Token{Mint: "mint1"}
	now := time.Now()

	prices := []float64{1.0, 2.5, 1.8, 2.5, 0.4}
	peaks := []float64{1.0, 2.5, 2.5, 2.5, 2.5}

	for i, p := range prices {
		tok.ObservePrice(p, now.Add(time.Duration(i)*time.Second))
		assert.Equal(t, p, tok.CurrentPrice)
		assert.Equal(t, peaks[i], tok.MaxPrice)
	}
	assert.Equal(t, now.Add(4*time.Second), tok.LastUpdate)
}

func TestFirstMilestoneTime(t *testing.T) {
	tok := &Token{Mint: "mint1"}
	assert.Zero(t, tok.FirstMilestoneTime())

	// A token that skipped straight to the top tier reports that time.
	tok.Hit400 = true
	tok.TimeTo400 = 7 * time.Second
	assert.Equal(t, 7*time.Second, tok.FirstMilestoneTime())

	// The lowest tier wins once set.
	tok.Hit120 = true
	tok.TimeTo120 = 2 * time.Second
	assert.Equal(t, 2*time.Second, tok.FirstMilestoneTime())
}

func TestClosedTrade_Return(t *testing.T) {
	trade := &ClosedTrade{BuyPrice: 2, SellPrice: 5}
	assert.InDelta(t, 1.5, trade.Return(), 1e-12)

	// An unsold or unbought trade returns zero instead of blowing up.
	assert.Zero(t, (&ClosedTrade{SellPrice: 5}).Return())
}

func TestPriceSOL_ZeroTokenAmount(t *testing.T) {
	ev := &Event{TxType: TxTypeBuy, Mint: "mint1", SolAmount: 1}
	assert.Zero(t, ev.PriceSOL())

	ev.TokenAmount = 4
	assert.Equal(t, 0.25, ev.PriceSOL())
}
