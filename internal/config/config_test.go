package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, defaultFeedURL, cfg.FeedURL)
	assert.Equal(t, defaultTradeURL, cfg.TradeURL)
	assert.Equal(t, 0.01, cfg.BuyAmountSol)
	assert.Equal(t, 1.2, cfg.ProfitTarget1)
	assert.Equal(t, 10*time.Second, cfg.StagnationTimeout)
	assert.Equal(t, 2*time.Minute, cfg.MaxTokenAge)
	assert.Equal(t, 4, cfg.MaxActiveTrades)
	assert.Equal(t, 100, cfg.MaxUnverifiedTrades)
	assert.False(t, cfg.DevMode)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BUY_AMOUNT_SOL", "0.05")
	t.Setenv("STAGNATION_TIMEOUT", "30s")
	t.Setenv("MAX_ACTIVE_TRADES", "8")
	t.Setenv("DEV_MODE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.BuyAmountSol)
	assert.Equal(t, 30*time.Second, cfg.StagnationTimeout)
	assert.Equal(t, 8, cfg.MaxActiveTrades)
	assert.True(t, cfg.DevMode)
}

func TestFromEnv_ParseErrors(t *testing.T) {
	t.Setenv("BUY_AMOUNT_SOL", "lots")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "BUY_AMOUNT_SOL")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := FromEnv()
		require.NoError(t, err)
		cfg.DevMode = true
		return cfg
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.BuyAmountSol = 0
	assert.ErrorContains(t, cfg.Validate(), "BUY_AMOUNT_SOL")

	cfg = base()
	cfg.ProfitTarget1 = 1
	assert.ErrorContains(t, cfg.Validate(), "PROFIT_TARGET_1")

	cfg = base()
	cfg.MinMarketCapSol = 200
	assert.ErrorContains(t, cfg.Validate(), "MIN_MARKET_CAP_SOL")

	// Live mode needs key material and an RPC endpoint.
	cfg = base()
	cfg.DevMode = false
	assert.ErrorContains(t, cfg.Validate(), "PRIVATE_KEY")

	cfg = base()
	cfg.DevMode = false
	cfg.PrivateKey = "somekey"
	assert.ErrorContains(t, cfg.Validate(), "SOLANA_RPC_URL")
}
