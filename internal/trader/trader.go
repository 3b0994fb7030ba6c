// Package trader executes buys and sells through the pump.fun trade
// gateway: the gateway builds the transaction, we sign it locally and
// submit it to a Solana RPC node.
package trader

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	actionBuy  = "buy"
	actionSell = "sell"
	poolPump   = "pump"
)

// Signer produces a transaction signature for the wallet key.
type Signer interface {
	PublicKey() string
	Sign(message []byte) []byte
}

type tradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Amount           any     `json:"amount"`
	Slippage         int     `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

type sendTxResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Trader signs and submits gateway-built transactions. In dev mode no
// HTTP call is made and trades succeed immediately.
type Trader struct {
	gateway     *resty.Client
	rpc         *resty.Client
	signer      Signer
	slippage    int
	priorityFee float64
	devMode     bool
	log         zerolog.Logger
}

// New builds a trader against the trade gateway and RPC endpoints.
func New(tradeURL, rpcURL string, signer Signer, slippage int, priorityFee float64, devMode bool, log zerolog.Logger) *Trader {
	return &Trader{
		gateway:     resty.New().SetBaseURL(tradeURL),
		rpc:         resty.New().SetBaseURL(rpcURL),
		signer:      signer,
		slippage:    slippage,
		priorityFee: priorityFee,
		devMode:     devMode,
		log:         log.With().Str("component", "trader").Logger(),
	}
}

// Buy spends amountSol on the given mint. Returns the transaction
// signature, or an empty string in dev mode.
func (t *Trader) Buy(ctx context.Context, mint string, amountSol float64) (string, error) {
	return t.execute(ctx, actionBuy, mint, amountSol)
}

// Sell liquidates the full position in the given mint.
func (t *Trader) Sell(ctx context.Context, mint string) (string, error) {
	return t.execute(ctx, actionSell, mint, "100%")
}

func (t *Trader) execute(ctx context.Context, action, mint string, amount any) (string, error) {
	if t.devMode {
		t.log.Info().Str("action", action).Str("mint", mint).Msg("dev mode, trade not sent")
		return "", nil
	}

	// Buys spend a SOL amount; sells liquidate a percentage of the token
	// position, which the gateway treats as token-denominated.
	denominatedInSol := "true"
	if action == actionSell {
		denominatedInSol = "false"
	}

	resp, err := t.gateway.R().
		SetContext(ctx).
		SetBody(tradeRequest{
			PublicKey:        t.signer.PublicKey(),
			Action:           action,
			Mint:             mint,
			DenominatedInSol: denominatedInSol,
			Amount:           amount,
			Slippage:         t.slippage,
			PriorityFee:      t.priorityFee,
			Pool:             poolPump,
		}).
		Post("")
	if err != nil {
		return "", fmt.Errorf("%s %s: gateway: %w", action, mint, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s %s: gateway status %s: %s", action, mint, resp.Status(), resp.String())
	}

	signed, err := signTransaction(resp.Body(), t.signer)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", action, mint, err)
	}

	sig, err := t.sendTransaction(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", action, mint, err)
	}

	t.log.Info().Str("action", action).Str("mint", mint).Str("signature", sig).Msg("trade submitted")
	return sig, nil
}

// signTransaction replaces the fee payer signature in a serialized
// transaction. Layout is a compact signature count, the signatures, then
// the message; the signature covers the message bytes only.
func signTransaction(raw []byte, signer Signer) ([]byte, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("sign transaction: empty payload")
	}
	sigCount := int(raw[0])
	if sigCount < 1 {
		return nil, fmt.Errorf("sign transaction: no signature slots")
	}
	msgOffset := 1 + sigCount*64
	if len(raw) < msgOffset {
		return nil, fmt.Errorf("sign transaction: truncated payload")
	}

	signed := make([]byte, len(raw))
	copy(signed, raw)
	copy(signed[1:65], signer.Sign(raw[msgOffset:]))
	return signed, nil
}

func (t *Trader) sendTransaction(ctx context.Context, signed []byte) (string, error) {
	var out sendTxResponse
	resp, err := t.rpc.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  "sendTransaction",
			"params": []any{
				base64.StdEncoding.EncodeToString(signed),
				map[string]any{"encoding": "base64", "skipPreflight": true},
			},
		}).
		SetResult(&out).
		Post("")
	if err != nil {
		return "", fmt.Errorf("sendTransaction: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("sendTransaction: rpc status %s", resp.Status())
	}
	if out.Error != nil {
		return "", fmt.Errorf("sendTransaction: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	return out.Result, nil
}
