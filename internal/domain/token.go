// Package domain holds the core types shared by the feed, the decision
// engine, and the ledger.
package domain

import "time"

// Close outcome codes recorded on a token when it leaves the active set.
const (
	OutcomeTarget     = "TARGET"     // top milestone reached, sold at target
	OutcomeRug        = "RUG"        // rug heuristics fired, position dumped
	OutcomeStagnant   = "STAGNANT"   // no ticks past the stagnation window
	OutcomeWriteOff   = "WRITE_OFF"  // proceeds would not clear the fee, abandoned
	OutcomeLiquidated = "LIQUIDATED" // closed in bookkeeping during shutdown
)

// Token is the per-mint lifecycle record. A zero price field means "not yet
// observed": ScoutPrice, BuyPrice and SellPrice are write-once and stay zero
// until the corresponding action happens.
type Token struct {
	Mint string
	Name string

	ScoutPrice   float64 // first trade price after discovery, write-once
	CurrentPrice float64 // last observed price
	MaxPrice     float64 // running peak, never decreases
	BuyPrice     float64 // write-once on promotion
	SellPrice    float64 // write-once on close

	MarketCapSol       float64
	VSolInBondingCurve float64

	CreatedAt  time.Time // discovery time
	LastUpdate time.Time // last tick time, drives stagnation detection

	// Milestone flags are monotonic: set once, never cleared. At most one
	// flag is set per tick, highest tier first.
	Hit120 bool
	Hit200 bool
	Hit240 bool
	Hit300 bool
	Hit400 bool

	TimeTo120 time.Duration
	TimeTo200 time.Duration
	TimeTo240 time.Duration
	TimeTo300 time.Duration
	TimeTo400 time.Duration

	Rugged    bool
	TimeToRug time.Duration

	CloseOutcome string // one of the Outcome* codes, set on close
}

// HitAnyMilestone reports whether at least the first tier fired.
func (t *Token) HitAnyMilestone() bool {
	return t.Hit120 || t.Hit200 || t.Hit240 || t.Hit300 || t.Hit400
}

// ObservePrice records a tick price, keeping MaxPrice monotonic. Must run
// before any milestone or exit check that reads MaxPrice.
func (t *Token) ObservePrice(price float64, now time.Time) {
	t.CurrentPrice = price
	if price > t.MaxPrice {
		t.MaxPrice = price
	}
	t.LastUpdate = now
}

// FirstMilestoneTime returns the elapsed time to the lowest milestone that
// fired, or zero when none did.
func (t *Token) FirstMilestoneTime() time.Duration {
	switch {
	case t.Hit120:
		return t.TimeTo120
	case t.Hit200:
		return t.TimeTo200
	case t.Hit240:
		return t.TimeTo240
	case t.Hit300:
		return t.TimeTo300
	case t.Hit400:
		return t.TimeTo400
	}
	return 0
}

// ClosedTrade is the flattened, immutable record appended to the history
// archive when a token leaves the active set.
type ClosedTrade struct {
	Mint       string
	Name       string
	ScoutPrice float64
	BuyPrice   float64
	SellPrice  float64
	MaxPrice   float64
	Outcome    string
	Rugged     bool

	TimeToFirstMilestone time.Duration
	OpenedAt             time.Time
	ClosedAt             time.Time
}

// Return is the uncapped fractional return of the trade. A zero buy price
// yields zero rather than a division blow-up.
func (c *ClosedTrade) Return() float64 {
	if c.BuyPrice <= 0 {
		return 0
	}
	return (c.SellPrice - c.BuyPrice) / c.BuyPrice
}

// NewClosedTrade snapshots a token into its history record.
func NewClosedTrade(t *Token, closedAt time.Time) *ClosedTrade {
	return &ClosedTrade{
		Mint:                 t.Mint,
		Name:                 t.Name,
		ScoutPrice:           t.ScoutPrice,
		BuyPrice:             t.BuyPrice,
		SellPrice:            t.SellPrice,
		MaxPrice:             t.MaxPrice,
		Outcome:              t.CloseOutcome,
		Rugged:               t.Rugged,
		TimeToFirstMilestone: t.FirstMilestoneTime(),
		OpenedAt:             t.CreatedAt,
		ClosedAt:             closedAt,
	}
}
