package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/benhexie/sol-sniper/internal/archive"
	"github.com/benhexie/sol-sniper/internal/config"
	"github.com/benhexie/sol-sniper/internal/engine"
	"github.com/benhexie/sol-sniper/internal/feed"
	"github.com/benhexie/sol-sniper/internal/ledger"
	"github.com/benhexie/sol-sniper/internal/observability"
	"github.com/benhexie/sol-sniper/internal/registry"
	"github.com/benhexie/sol-sniper/internal/report"
	"github.com/benhexie/sol-sniper/internal/storage"
	chstore "github.com/benhexie/sol-sniper/internal/storage/clickhouse"
	memstore "github.com/benhexie/sol-sniper/internal/storage/memory"
	pgstore "github.com/benhexie/sol-sniper/internal/storage/postgres"
	"github.com/benhexie/sol-sniper/internal/trader"
	"github.com/benhexie/sol-sniper/internal/wallet"
)

const (
	priceInterval     = 60 * time.Second
	sweepInterval     = 1 * time.Second
	statusInterval    = 15 * time.Second
	devInitialBalance = 10 // SOL
)

// balanceSource is what both the real oracle and the dev-mode virtual
// wallet provide.
type balanceSource interface {
	engine.BalanceSource
	ledger.BalanceSink
	Invalidate()
}

func main() {
	boot := fallbackLogger()

	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("invalid config")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).With().Timestamp().Logger()

	metrics := observability.NewMetrics("")
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wallet and execution.
	var balance balanceSource
	var exec *trader.Trader
	if cfg.DevMode {
		balance = wallet.NewVirtualBalance(devInitialBalance)
		exec = trader.New(cfg.TradeURL, cfg.RPCURL, nil, int(cfg.Slippage), cfg.PriorityFeeSol, true, log)
		log.Info().Msg("dev mode: trades are simulated")
	} else {
		keypair, err := wallet.NewKeypair(cfg.PrivateKey)
		if err != nil {
			log.Fatal().Err(err).Msg("load keypair")
		}
		log.Info().Str("pubkey", keypair.PublicKey()).Msg("wallet loaded")
		balance = wallet.NewBalanceOracle(cfg.RPCURL, keypair.PublicKey())
		exec = trader.New(cfg.TradeURL, cfg.RPCURL, keypair, int(cfg.Slippage), cfg.PriorityFeeSol, false, log)
	}

	initialBalance, err := balance.Balance(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initial balance check")
	}
	metrics.WalletBalanceSol.Set(initialBalance)
	log.Info().Float64("balance_sol", initialBalance).Msg("starting session")

	prices := wallet.NewPricePoller(priceInterval, log)
	go prices.Run(ctx)

	reg := registry.New(cfg.MaxUnverifiedTrades, cfg.MaxActiveTrades)

	// History archive: Postgres when configured, in-memory otherwise.
	var history storage.HistoryArchive
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		history = pgstore.NewHistoryArchive(pool)
		log.Info().Msg("postgres history archive enabled")
	} else {
		history = memstore.NewHistoryArchive()
	}

	var ticks engine.TickSink
	if cfg.ClickHouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		batcher := archive.NewBatcher(chstore.NewTickArchive(conn), log)
		go batcher.Run(ctx)
		ticks = batcher
		log.Info().Msg("clickhouse tick archive enabled")
	}

	led := ledger.New(reg, history, balance, cfg.BuyAmountSol, cfg.FeeAmountSol, log)

	feedCfg := feed.DefaultConfig()
	feedCfg.OnReconnect = metrics.FeedReconnects.Inc
	stream, err := feed.NewClient(ctx, cfg.FeedURL, reg.AllMints, &feedCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to feed")
	}

	eng := engine.New(cfg, engine.Deps{
		Registry:   reg,
		Ledger:     led,
		Trader:     exec,
		Subscriber: stream,
		Balance:    balance,
		SolUSD:     prices.Price,
		Ticks:      ticks,
		Metrics:    metrics,
		Log:        log,
	})

	go eng.RunSweep(ctx, sweepInterval)

	reporter := report.NewReporter(os.Stdout, reg, led)
	go runStatusLoop(ctx, reporter, balance, prices, metrics)

	// Shutdown handling: the first signal starts a graceful stop, a
	// second one or a timeout forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		select {
		case sig := <-sigCh:
			log.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	eng.Run(ctx, stream.Events())

	stream.Close()
	eng.Shutdown(context.Background(), time.Now())

	finalBalance, err := balance.Balance(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("final balance check failed")
		finalBalance = initialBalance
	}
	reporter.PrintSessionReport(initialBalance, finalBalance)

	close(done)
	log.Info().Msg("shutdown complete")
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server error")
	}
}

func runStatusLoop(ctx context.Context, reporter *report.Reporter, balance balanceSource, prices *wallet.PricePoller, metrics *observability.Metrics) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if price := prices.Price(); price > 0 {
				metrics.SolPriceUSD.Set(price)
			}

			// Resync from chain so optimistic bookkeeping drift does not
			// accumulate in the status line.
			balance.Invalidate()
			bal, err := balance.Balance(ctx)
			if err != nil {
				continue
			}
			reporter.PrintStatus(bal, prices.Price())
		}
	}
}

func fallbackLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
