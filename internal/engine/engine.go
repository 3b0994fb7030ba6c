// Package engine is the per-tick decision core: it consumes feed events,
// drives tokens through the unverified and active sets, and triggers
// buys, sells and write-offs.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benhexie/sol-sniper/internal/config"
	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/ledger"
	"github.com/benhexie/sol-sniper/internal/observability"
	"github.com/benhexie/sol-sniper/internal/registry"
	"github.com/benhexie/sol-sniper/internal/safety"
	"github.com/benhexie/sol-sniper/internal/storage"
)

// topMilestoneMultiple closes the position outright when reached.
const topMilestoneMultiple = 4.0

// Rug heuristics. Drawdown is measured from the running peak; the
// steeper 30% band only applies once the 200% tier fired.
const (
	rugDrawdownAfter200  = 0.30
	rapidDeclineRatio    = 0.60
	rapidDeclineWindow   = 300 * time.Second
	liquidityDecayFactor = 0.8
	valuationTakeProfit  = 80000 // USD
)

// Trader executes buys and sells against the execution gateway.
type Trader interface {
	Buy(ctx context.Context, mint string, amountSol float64) (string, error)
	Sell(ctx context.Context, mint string) (string, error)
}

// TradeSubscriber attaches the trade stream for newly discovered mints.
type TradeSubscriber interface {
	SubscribeTokenTrade(mints ...string) error
}

// BalanceSource reports the wallet SOL balance.
type BalanceSource interface {
	Balance(ctx context.Context) (float64, error)
}

// TickSink receives price points for archival. Add must never block.
type TickSink interface {
	Add(p storage.TickPoint)
}

// Deps are the engine's collaborators. Subscriber, SolUSD and Ticks may
// be nil.
type Deps struct {
	Registry   *registry.Registry
	Ledger     *ledger.Ledger
	Trader     Trader
	Subscriber TradeSubscriber
	Balance    BalanceSource
	SolUSD     func() float64
	Ticks      TickSink
	Metrics    *observability.Metrics
	Log        zerolog.Logger
}

// Engine serializes all token mutations behind one mutex: the event
// loop, the stagnation sweep and shutdown all take it, so token fields
// have a single writer at a time. The registry's per-mint close claim
// additionally guarantees each position closes at most once.
type Engine struct {
	cfg    *config.Config
	limits safety.Limits

	// mu guards every token read and write across the event loop, the
	// sweep goroutine and shutdown.
	mu sync.Mutex

	reg     *registry.Registry
	ledger  *ledger.Ledger
	trader  Trader
	subs    TradeSubscriber
	balance BalanceSource
	solUSD  func() float64
	ticks   TickSink
	metrics *observability.Metrics
	log     zerolog.Logger

	// lastBalance backs safety checks when the balance source errors.
	lastBalance float64

	shutdownOnce sync.Once
}

// New builds an engine.
func New(cfg *config.Config, deps Deps) *Engine {
	return &Engine{
		cfg: cfg,
		limits: safety.Limits{
			BuyAmountSol:    cfg.BuyAmountSol,
			FeeAmountSol:    cfg.FeeAmountSol,
			MinMarketCapSol: cfg.MinMarketCapSol,
			MaxMarketCapSol: cfg.MaxMarketCapSol,
			MinLiquiditySol: cfg.MinLiquiditySol,
		},
		reg:     deps.Registry,
		ledger:  deps.Ledger,
		trader:  deps.Trader,
		subs:    deps.Subscriber,
		balance: deps.Balance,
		solUSD:  deps.SolUSD,
		ticks:   deps.Ticks,
		metrics: deps.Metrics,
		log:     deps.Log.With().Str("component", "engine").Logger(),
	}
}

// Run consumes feed events until the channel closes or the context is
// cancelled.
func (e *Engine) Run(ctx context.Context, events <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.HandleEvent(ctx, &ev, time.Now())
		}
	}
}

// HandleEvent dispatches one feed event. now is injected for tests.
func (e *Engine) HandleEvent(ctx context.Context, ev *domain.Event, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.EventsProcessed.Inc()

	switch {
	case ev.IsCreate():
		e.handleCreate(ev, now)
	case ev.IsTrade():
		e.handleTrade(ctx, ev, now)
	}
}

func (e *Engine) handleCreate(ev *domain.Event, now time.Time) {
	if e.reg.InHistory(ev.Mint) {
		return
	}

	tok := &domain.Token{
		Mint:               ev.Mint,
		Name:               ev.Name,
		MarketCapSol:       ev.MarketCapSol,
		VSolInBondingCurve: ev.VSolInBondingCurve,
		CreatedAt:          now,
	}
	if err := e.reg.Discover(tok); err != nil {
		e.log.Debug().Err(err).Str("mint", ev.Mint).Msg("candidate rejected")
		return
	}

	e.metrics.TokensDiscovered.Inc()
	e.metrics.UnverifiedTokens.Set(float64(e.reg.UnverifiedLen()))
	e.log.Info().Str("mint", ev.Mint).Str("name", ev.Name).Msg("new token discovered")

	if e.subs != nil {
		if err := e.subs.SubscribeTokenTrade(ev.Mint); err != nil {
			e.log.Warn().Err(err).Str("mint", ev.Mint).Msg("trade subscription failed")
		}
	}
}

func (e *Engine) handleTrade(ctx context.Context, ev *domain.Event, now time.Time) {
	price := ev.PriceSOL()
	if price <= 0 {
		return
	}

	if tok := e.reg.Active(ev.Mint); tok != nil {
		e.activeTick(ctx, tok, ev, price, now)
		return
	}
	if tok := e.reg.Unverified(ev.Mint); tok != nil {
		e.unverifiedTick(ctx, tok, ev, price, now)
	}
	// Ticks for untracked mints are ignored.
}

// activeTick updates an open position and fires milestone or exit logic.
func (e *Engine) activeTick(ctx context.Context, tok *domain.Token, ev *domain.Event, price float64, now time.Time) {
	tok.MarketCapSol = ev.MarketCapSol
	tok.VSolInBondingCurve = ev.VSolInBondingCurve
	tok.ObservePrice(price, now)

	if e.ticks != nil {
		e.ticks.Add(storage.NewTickPoint(tok.Mint, price, ev.MarketCapSol, ev.VSolInBondingCurve, now))
	}

	if tok.SellPrice != 0 {
		return
	}

	e.applyMilestones(tok, price, now)
	if tok.Hit400 {
		e.closePosition(ctx, tok, domain.OutcomeTarget, now)
		return
	}

	if tok.Rugged {
		return
	}
	reason, rugged := e.rugSignal(tok, price)
	if !rugged {
		return
	}

	tok.Rugged = true
	tok.TimeToRug = now.Sub(tok.CreatedAt)
	e.log.Warn().Str("mint", tok.Mint).Str("reason", reason).
		Dur("time_to_rug", tok.TimeToRug).Msg("rug signal")

	// Loss floor: when the remaining position value would not clear the
	// exit fee, abandon without paying for a sell.
	if e.positionValue(tok, price) <= e.cfg.FeeAmountSol {
		e.writeOff(ctx, tok, now)
		return
	}
	e.closePosition(ctx, tok, domain.OutcomeRug, now)
}

// applyMilestones walks the ladder top-down and sets at most one flag.
// Reaching 4x directly does not also flag the lower tiers on that tick.
func (e *Engine) applyMilestones(tok *domain.Token, price float64, now time.Time) {
	if tok.ScoutPrice <= 0 {
		return
	}
	ratio := price / tok.ScoutPrice
	age := now.Sub(tok.CreatedAt)

	switch {
	case !tok.Hit400 && ratio >= topMilestoneMultiple:
		tok.Hit400, tok.TimeTo400 = true, age
	case !tok.Hit300 && ratio >= e.cfg.ProfitTarget4:
		tok.Hit300, tok.TimeTo300 = true, age
	case !tok.Hit240 && ratio >= e.cfg.ProfitTarget3:
		tok.Hit240, tok.TimeTo240 = true, age
	case !tok.Hit200 && ratio >= e.cfg.ProfitTarget2:
		tok.Hit200, tok.TimeTo200 = true, age
	}
}

// rugSignal evaluates the exit heuristics. Any one of them is enough.
func (e *Engine) rugSignal(tok *domain.Token, price float64) (string, bool) {
	if e.solUSD != nil {
		if usd := e.solUSD(); usd > 0 && tok.MarketCapSol*usd >= valuationTakeProfit {
			return "valuation take-profit", true
		}
	}

	if tok.MaxPrice > 0 {
		drawdown := (tok.MaxPrice - price) / tok.MaxPrice
		if tok.Hit200 && drawdown >= rugDrawdownAfter200 {
			return "drawdown from peak after 200%", true
		}
		if tok.HitAnyMilestone() && drawdown >= e.cfg.TrailingStop {
			return "drawdown from peak", true
		}
		if price <= tok.MaxPrice*rapidDeclineRatio && tok.LastUpdate.Sub(tok.CreatedAt) <= rapidDeclineWindow {
			return "rapid decline", true
		}
	}

	if tok.VSolInBondingCurve < e.cfg.MinLiquiditySol*liquidityDecayFactor {
		return "liquidity decay", true
	}
	return "", false
}

// positionValue is the SOL the position would realize at the given price.
func (e *Engine) positionValue(tok *domain.Token, price float64) float64 {
	if tok.BuyPrice <= 0 {
		return 0
	}
	return e.cfg.BuyAmountSol * (price / tok.BuyPrice)
}

// unverifiedTick re-evaluates a candidate and fires the buy trigger.
func (e *Engine) unverifiedTick(ctx context.Context, tok *domain.Token, ev *domain.Event, price float64, now time.Time) {
	if tok.ScoutPrice == 0 {
		tok.ScoutPrice = price
	}
	tok.MarketCapSol = ev.MarketCapSol
	tok.VSolInBondingCurve = ev.VSolInBondingCurve
	tok.ObservePrice(price, now)

	if res := safety.Evaluate(tok, e.walletBalance(ctx), e.limits); !res.Safe {
		e.evict(tok, "safety", res.Reason)
		return
	}
	if now.Sub(tok.CreatedAt) > e.cfg.MaxTokenAge {
		e.evict(tok, "age", "candidate aged out")
		return
	}

	if price >= tok.ScoutPrice*e.cfg.ProfitTarget1 {
		e.buy(ctx, tok, price, now)
	}
}

func (e *Engine) evict(tok *domain.Token, kind, reason string) {
	e.reg.EvictUnverified(tok.Mint)
	e.metrics.TokensEvicted.WithLabelValues(kind).Inc()
	e.metrics.UnverifiedTokens.Set(float64(e.reg.UnverifiedLen()))
	e.log.Debug().Str("mint", tok.Mint).Str("reason", reason).Msg("candidate evicted")
}

// buy promotes a candidate and executes the entry. The promotion is
// speculative: a gateway failure rolls the position back out of the
// active set so the balance is never debited for a trade that did not
// happen.
func (e *Engine) buy(ctx context.Context, tok *domain.Token, price float64, now time.Time) {
	if !e.reg.Promote(tok.Mint) {
		return
	}

	if _, err := e.trader.Buy(ctx, tok.Mint, e.cfg.BuyAmountSol); err != nil {
		e.reg.Rollback(tok.Mint)
		e.log.Error().Err(err).Str("mint", tok.Mint).Msg("buy failed, position rolled back")
		return
	}

	e.ledger.RecordBuy(tok, price)
	tok.Hit120 = true
	tok.TimeTo120 = now.Sub(tok.CreatedAt)

	e.metrics.BuysExecuted.Inc()
	e.metrics.ActiveTokens.Set(float64(e.reg.ActiveLen()))
	e.metrics.UnverifiedTokens.Set(float64(e.reg.UnverifiedLen()))
	e.log.Info().Str("mint", tok.Mint).Float64("price", price).
		Float64("scout_price", tok.ScoutPrice).Msg("position opened")
}

// closePosition sells and closes exactly once per mint. A sell failure
// is reported but the trade is still recorded at the captured price;
// the close is an accounting action distinct from on-chain settlement.
func (e *Engine) closePosition(ctx context.Context, tok *domain.Token, outcome string, now time.Time) {
	if !e.reg.BeginClose(tok.Mint) {
		return
	}

	if _, err := e.trader.Sell(ctx, tok.Mint); err != nil {
		e.log.Error().Err(err).Str("mint", tok.Mint).Msg("sell failed, recording close anyway")
	} else {
		e.metrics.SellsExecuted.Inc()
	}

	trade := e.ledger.RecordSell(ctx, tok, tok.CurrentPrice, outcome, now)
	e.finishClose(tok, trade, outcome)
}

// writeOff closes without a sell.
func (e *Engine) writeOff(ctx context.Context, tok *domain.Token, now time.Time) {
	if !e.reg.BeginClose(tok.Mint) {
		return
	}
	trade := e.ledger.WriteOff(ctx, tok, now)
	e.finishClose(tok, trade, domain.OutcomeWriteOff)
}

func (e *Engine) finishClose(tok *domain.Token, trade *domain.ClosedTrade, outcome string) {
	e.metrics.ActiveTokens.Set(float64(e.reg.ActiveLen()))
	if trade == nil {
		return
	}
	e.metrics.TradesClosed.WithLabelValues(outcome).Inc()
	e.log.Info().Str("mint", tok.Mint).Str("outcome", outcome).
		Float64("buy_price", trade.BuyPrice).Float64("sell_price", trade.SellPrice).
		Float64("profit_sol", e.ledger.NetProfit(trade)).Msg("position closed")
}

// RunSweep force-closes stagnant positions on a fixed interval.
func (e *Engine) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.SweepOnce(ctx, time.Now())
		}
	}
}

// SweepOnce closes every active position with no tick inside the
// stagnation window.
func (e *Engine) SweepOnce(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := now.Add(-e.cfg.StagnationTimeout)
	for _, tok := range e.reg.StaleActive(cutoff) {
		e.log.Warn().Str("mint", tok.Mint).Time("last_update", tok.LastUpdate).Msg("stagnant position")
		e.closePosition(ctx, tok, domain.OutcomeStagnant, now)
	}
}

// Shutdown closes the remaining active positions in the ledger without
// selling against the market: the one-shot liquidation is a bookkeeping
// action so the final report accounts for every open position.
func (e *Engine) Shutdown(ctx context.Context, now time.Time) {
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for _, tok := range e.reg.ActiveTokens() {
			if !e.reg.BeginClose(tok.Mint) {
				continue
			}
			trade := e.ledger.RecordSell(ctx, tok, tok.CurrentPrice, domain.OutcomeLiquidated, now)
			e.finishClose(tok, trade, domain.OutcomeLiquidated)
		}
	})
}

// walletBalance returns the current balance, falling back to the last
// known value when the source errors.
func (e *Engine) walletBalance(ctx context.Context) float64 {
	if e.balance == nil {
		return e.lastBalance
	}
	bal, err := e.balance.Balance(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("balance check failed, using last known value")
		return e.lastBalance
	}
	e.lastBalance = bal
	e.metrics.WalletBalanceSol.Set(bal)
	return bal
}
