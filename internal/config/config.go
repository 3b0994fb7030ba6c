// Package config loads the bot configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config collects every tunable the bot reads at startup.
type Config struct {
	// Endpoints
	FeedURL    string // PumpPortal websocket endpoint
	TradeURL   string // trade-local transaction builder endpoint
	RPCURL     string // Solana JSON-RPC endpoint
	PrivateKey string // base58-encoded ed25519 secret key

	// Position sizing
	BuyAmountSol float64
	FeeAmountSol float64

	// Milestone multipliers relative to the scout price. Target1 is the
	// buy trigger; the 4x tier always closes the position.
	ProfitTarget1 float64
	ProfitTarget2 float64
	ProfitTarget3 float64
	ProfitTarget4 float64

	// Exit tuning
	TrailingStop      float64       // drawdown-from-peak fraction after the first tier
	StagnationTimeout time.Duration // no-tick window that force-closes actives
	MaxTokenAge       time.Duration // unverified candidates older than this are dropped

	// Safety bounds
	MinMarketCapSol float64
	MaxMarketCapSol float64
	MinLiquiditySol float64

	// Capacity
	MaxActiveTrades     int
	MaxUnverifiedTrades int

	// Execution
	Slippage       float64
	PriorityFeeSol float64
	DevMode        bool // skip real transaction submission

	// Optional infrastructure
	MetricsAddr   string
	PostgresDSN   string
	ClickHouseDSN string
	LogLevel      string
}

// Defaults applied when the corresponding variable is unset.
const (
	defaultFeedURL           = "wss://pumpportal.fun/api/data"
	defaultTradeURL          = "https://pumpportal.fun/api/trade-local"
	defaultStagnationTimeout = 10 * time.Second
	defaultMaxTokenAge       = 2 * time.Minute
	defaultMetricsAddr       = ":9090"
	defaultLogLevel          = "info"
)

// FromEnv reads the configuration from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		FeedURL:       envString("PUMPPORTAL_WS_URL", defaultFeedURL),
		TradeURL:      envString("PUMPPORTAL_TRADE_URL", defaultTradeURL),
		RPCURL:        os.Getenv("SOLANA_RPC_URL"),
		PrivateKey:    os.Getenv("PRIVATE_KEY"),
		MetricsAddr:   envString("METRICS_ADDR", defaultMetricsAddr),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickHouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		LogLevel:      envString("LOG_LEVEL", defaultLogLevel),
		DevMode:       os.Getenv("DEV_MODE") == "true",
	}

	var err error
	if cfg.BuyAmountSol, err = envFloat("BUY_AMOUNT_SOL", 0.01); err != nil {
		return nil, err
	}
	if cfg.FeeAmountSol, err = envFloat("FEE_AMOUNT_SOL", 0.0005); err != nil {
		return nil, err
	}
	if cfg.ProfitTarget1, err = envFloat("PROFIT_TARGET_1", 1.2); err != nil {
		return nil, err
	}
	if cfg.ProfitTarget2, err = envFloat("PROFIT_TARGET_2", 2.0); err != nil {
		return nil, err
	}
	if cfg.ProfitTarget3, err = envFloat("PROFIT_TARGET_3", 2.4); err != nil {
		return nil, err
	}
	if cfg.ProfitTarget4, err = envFloat("PROFIT_TARGET_4", 3.0); err != nil {
		return nil, err
	}
	if cfg.TrailingStop, err = envFloat("TRAILING_STOP", 0.2); err != nil {
		return nil, err
	}
	if cfg.MinMarketCapSol, err = envFloat("MIN_MARKET_CAP_SOL", 5); err != nil {
		return nil, err
	}
	if cfg.MaxMarketCapSol, err = envFloat("MAX_MARKET_CAP_SOL", 100); err != nil {
		return nil, err
	}
	if cfg.MinLiquiditySol, err = envFloat("MIN_LIQUIDITY_SOL", 3); err != nil {
		return nil, err
	}
	if cfg.Slippage, err = envFloat("SLIPPAGE", 10); err != nil {
		return nil, err
	}
	if cfg.PriorityFeeSol, err = envFloat("PRIORITY_FEE_SOL", 0.0005); err != nil {
		return nil, err
	}
	if cfg.MaxActiveTrades, err = envInt("MAX_ACTIVE_TRADES", 4); err != nil {
		return nil, err
	}
	if cfg.MaxUnverifiedTrades, err = envInt("MAX_UNVERIFIED_TRADES", 100); err != nil {
		return nil, err
	}
	if cfg.StagnationTimeout, err = envDuration("STAGNATION_TIMEOUT", defaultStagnationTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxTokenAge, err = envDuration("MAX_TOKEN_AGE", defaultMaxTokenAge); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return fmt.Errorf("PUMPPORTAL_WS_URL is required")
	}
	if c.BuyAmountSol <= 0 {
		return fmt.Errorf("BUY_AMOUNT_SOL must be positive, got %v", c.BuyAmountSol)
	}
	if c.FeeAmountSol < 0 {
		return fmt.Errorf("FEE_AMOUNT_SOL must not be negative, got %v", c.FeeAmountSol)
	}
	if c.ProfitTarget1 <= 1 {
		return fmt.Errorf("PROFIT_TARGET_1 must exceed 1, got %v", c.ProfitTarget1)
	}
	if c.MaxActiveTrades <= 0 || c.MaxUnverifiedTrades <= 0 {
		return fmt.Errorf("trade capacity limits must be positive")
	}
	if c.MinMarketCapSol > c.MaxMarketCapSol {
		return fmt.Errorf("MIN_MARKET_CAP_SOL %v exceeds MAX_MARKET_CAP_SOL %v",
			c.MinMarketCapSol, c.MaxMarketCapSol)
	}
	if c.StagnationTimeout <= 0 {
		return fmt.Errorf("STAGNATION_TIMEOUT must be positive")
	}
	if !c.DevMode {
		if c.PrivateKey == "" {
			return fmt.Errorf("PRIVATE_KEY is required outside dev mode")
		}
		if c.RPCURL == "" {
			return fmt.Errorf("SOLANA_RPC_URL is required outside dev mode")
		}
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
