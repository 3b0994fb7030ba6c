// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	// Feed metrics
	EventsProcessed prometheus.Counter
	FeedReconnects  prometheus.Counter

	// Lifecycle metrics
	TokensDiscovered prometheus.Counter
	TokensEvicted    *prometheus.CounterVec
	BuysExecuted     prometheus.Counter
	SellsExecuted    prometheus.Counter
	TradesClosed     *prometheus.CounterVec

	// Set sizes
	UnverifiedTokens prometheus.Gauge
	ActiveTokens     prometheus.Gauge

	// Wallet metrics
	WalletBalanceSol prometheus.Gauge
	SolPriceUSD      prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sol_sniper"
	}

	return &Metrics{
		EventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_processed_total",
			Help:      "Total number of feed events processed",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnects",
		}),

		TokensDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tokens_discovered_total",
			Help:      "Total number of candidates that entered the unverified set",
		}),
		TokensEvicted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tokens_evicted_total",
			Help:      "Total number of unverified candidates evicted by reason",
		}, []string{"reason"}),
		BuysExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "buys_executed_total",
			Help:      "Total number of buys executed",
		}),
		SellsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "sells_executed_total",
			Help:      "Total number of sells executed",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed by outcome",
		}, []string{"outcome"}),

		UnverifiedTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "unverified_tokens",
			Help:      "Current size of the unverified candidate set",
		}),
		ActiveTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "active_tokens",
			Help:      "Current number of active positions",
		}),

		WalletBalanceSol: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_sol",
			Help:      "Cached wallet balance in SOL",
		}),
		SolPriceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "sol_price_usd",
			Help:      "Last fetched SOL/USD quote",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
