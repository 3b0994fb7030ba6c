package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultPriceURL = "https://api.coingecko.com/api/v3/simple/price"

type priceResponse struct {
	Solana struct {
		USD float64 `json:"usd"`
	} `json:"solana"`
}

// PricePoller keeps a last-known SOL/USD quote refreshed on an interval.
// A failed refresh keeps the previous value.
type PricePoller struct {
	client   *resty.Client
	interval time.Duration
	log      zerolog.Logger

	mu    sync.RWMutex
	price float64
}

// NewPricePoller builds a poller against the CoinGecko simple price API.
func NewPricePoller(interval time.Duration, log zerolog.Logger) *PricePoller {
	return &PricePoller{
		client:   resty.New().SetBaseURL(defaultPriceURL),
		interval: interval,
		log:      log.With().Str("component", "price_poller").Logger(),
	}
}

// Price returns the last successfully fetched SOL/USD quote, zero before
// the first successful fetch.
func (p *PricePoller) Price() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.price
}

// Run polls until the context is cancelled. The first fetch happens
// immediately.
func (p *PricePoller) Run(ctx context.Context) {
	if err := p.refresh(ctx); err != nil {
		p.log.Warn().Err(err).Msg("initial SOL/USD fetch failed")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				p.log.Warn().Err(err).Msg("SOL/USD refresh failed, keeping last value")
			}
		}
	}
}

func (p *PricePoller) refresh(ctx context.Context) error {
	var out priceResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("ids", "solana").
		SetQueryParam("vs_currencies", "usd").
		SetResult(&out).
		Get("")
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch price: status %s", resp.Status())
	}
	if out.Solana.USD <= 0 {
		return fmt.Errorf("fetch price: empty quote")
	}

	p.mu.Lock()
	p.price = out.Solana.USD
	p.mu.Unlock()
	return nil
}
