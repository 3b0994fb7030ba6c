package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
)

const lamportsPerSol = 1_000_000_000

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type balanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// BalanceOracle caches the wallet SOL balance between RPC refreshes.
// Buys and sells adjust the cached value locally so safety checks do
// not hit the RPC node on every tick.
type BalanceOracle struct {
	client *resty.Client
	pubkey string

	mu      sync.Mutex
	balance float64
	pending float64 // deltas received while the cache is invalid
	loaded  bool
}

// NewBalanceOracle builds an oracle against a Solana JSON-RPC endpoint.
func NewBalanceOracle(rpcURL, pubkey string) *BalanceOracle {
	return &BalanceOracle{
		client: resty.New().SetBaseURL(rpcURL),
		pubkey: pubkey,
	}
}

// Balance returns the cached balance, refreshing from RPC on first use
// or after Invalidate.
func (o *BalanceOracle) Balance(ctx context.Context) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.loaded {
		return o.balance, nil
	}

	var out balanceResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "getBalance",
			Params:  []any{o.pubkey},
		}).
		SetResult(&out).
		Post("")
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("getBalance: rpc status %s", resp.Status())
	}
	if out.Error != nil {
		return 0, fmt.Errorf("getBalance: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}

	o.balance = float64(out.Result.Value)/lamportsPerSol + o.pending
	o.pending = 0
	o.loaded = true
	return o.balance, nil
}

// UpdateBalance applies a local delta to the cached value, e.g. after a
// fill that the RPC node has not reflected yet. A delta arriving while
// the cache is invalid is held and applied after the next refresh, so
// fills landing mid-refresh are not lost.
func (o *BalanceOracle) UpdateBalance(delta float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded {
		o.balance += delta
		return
	}
	o.pending += delta
}

// Invalidate drops the cache so the next Balance call refreshes from RPC.
func (o *BalanceOracle) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loaded = false
}
