// Package ledger books trade debits and credits and keeps the session
// profit statistics.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/registry"
	"github.com/benhexie/sol-sniper/internal/storage"
)

// maxProfitMultiplier caps the booked return on a single trade. Bonding
// curve prices on fresh mints produce absurd multiples that would be
// unrealizable against real liquidity.
const maxProfitMultiplier = 10.0

// minBuyPrice floors the buy price used in profit math so a zero or
// dust-level fill cannot divide the multiplier to infinity.
const minBuyPrice = 1e-9

// BalanceSink receives local balance adjustments after fills.
type BalanceSink interface {
	UpdateBalance(delta float64)
}

// Ledger applies the session accounting rules on top of the registry.
type Ledger struct {
	reg       *registry.Registry
	archive   storage.HistoryArchive
	sink      BalanceSink
	buyAmount float64
	feeAmount float64
	log       zerolog.Logger
}

// New builds a ledger. archive and sink may be nil.
func New(reg *registry.Registry, archive storage.HistoryArchive, sink BalanceSink, buyAmount, feeAmount float64, log zerolog.Logger) *Ledger {
	return &Ledger{
		reg:       reg,
		archive:   archive,
		sink:      sink,
		buyAmount: buyAmount,
		feeAmount: feeAmount,
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// RecordBuy books the entry fill: the buy price is written once and the
// wallet is debited the position size plus the network fee.
func (l *Ledger) RecordBuy(tok *domain.Token, price float64) {
	if tok.BuyPrice == 0 {
		tok.BuyPrice = price
	}
	if l.sink != nil {
		l.sink.UpdateBalance(-(l.buyAmount + l.feeAmount))
	}
}

// RecordSell books the exit fill and closes the trade. The credit is the
// position size plus the capped profit, minus the network fee. Returns
// the closed trade record, nil if the mint was already in history.
func (l *Ledger) RecordSell(ctx context.Context, tok *domain.Token, price float64, outcome string, now time.Time) *domain.ClosedTrade {
	if tok.SellPrice == 0 {
		tok.SellPrice = price
	}

	buy := tok.BuyPrice
	if buy < minBuyPrice {
		buy = minBuyPrice
	}
	mult := (tok.SellPrice - buy) / buy
	if mult > maxProfitMultiplier {
		mult = maxProfitMultiplier
	}
	if l.sink != nil {
		l.sink.UpdateBalance(l.buyAmount + mult*l.buyAmount - l.feeAmount)
	}

	return l.close(ctx, tok, outcome, now)
}

// WriteOff closes a position without a sell: the debit stands and no
// credit is booked. Used when the value left is below the exit fee.
func (l *Ledger) WriteOff(ctx context.Context, tok *domain.Token, now time.Time) *domain.ClosedTrade {
	return l.close(ctx, tok, domain.OutcomeWriteOff, now)
}

func (l *Ledger) close(ctx context.Context, tok *domain.Token, outcome string, now time.Time) *domain.ClosedTrade {
	trade := l.reg.Close(tok, outcome, now)
	if trade == nil {
		return nil
	}
	if l.archive != nil {
		if err := l.archive.Insert(ctx, trade); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			l.log.Warn().Err(err).Str("mint", trade.Mint).Msg("history archive insert failed")
		}
	}
	return trade
}

// NetProfit returns the realized SOL profit of a closed trade under the
// session accounting rules. Trades that never bought book zero; trades
// that bought and never sold book the full debit as a loss.
func (l *Ledger) NetProfit(trade *domain.ClosedTrade) float64 {
	if trade.BuyPrice == 0 {
		return 0
	}
	if trade.SellPrice == 0 {
		return -(l.buyAmount + l.feeAmount)
	}
	buy := trade.BuyPrice
	if buy < minBuyPrice {
		buy = minBuyPrice
	}
	mult := (trade.SellPrice - buy) / buy
	if mult > maxProfitMultiplier {
		mult = maxProfitMultiplier
	}
	return mult*l.buyAmount - 2*l.feeAmount
}
