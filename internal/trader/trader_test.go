package trader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct{}

func (fakeSigner) PublicKey() string { return "FakePubkey111" }

func (fakeSigner) Sign(message []byte) []byte {
	sig := make([]byte, 64)
	copy(sig, message) // deterministic and checkable
	return sig
}

// serializedTx builds a single-signer transaction payload: signature
// count, an empty signature slot, then the message.
func serializedTx(message []byte) []byte {
	out := make([]byte, 1+64+len(message))
	out[0] = 1
	copy(out[65:], message)
	return out
}

func TestSignTransaction(t *testing.T) {
	message := []byte("serialized message bytes")
	signed, err := signTransaction(serializedTx(message), fakeSigner{})
	require.NoError(t, err)

	assert.Equal(t, byte(1), signed[0])
	assert.True(t, bytes.Equal(signed[1:1+len(message)], message), "signature slot must hold the signature over the message")
	assert.True(t, bytes.Equal(signed[65:], message), "message bytes must be untouched")
}

func TestSignTransaction_Malformed(t *testing.T) {
	_, err := signTransaction(nil, fakeSigner{})
	assert.Error(t, err)

	_, err = signTransaction([]byte{0}, fakeSigner{})
	assert.ErrorContains(t, err, "no signature slots")

	_, err = signTransaction([]byte{2, 1, 2, 3}, fakeSigner{})
	assert.ErrorContains(t, err, "truncated")
}

func TestBuy_SubmitsSignedTransaction(t *testing.T) {
	var gatewayReq tradeRequest

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gatewayReq))
		w.Write(serializedTx([]byte("tx message")))
	}))
	defer gateway.Close()

	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sendTransaction", req.Method)

		// The submitted transaction is the signed payload, base64-encoded.
		raw, err := base64.StdEncoding.DecodeString(req.Params[0].(string))
		require.NoError(t, err)
		assert.Equal(t, byte(1), raw[0])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"tx-signature-123"}`))
	}))
	defer rpc.Close()

	tr := New(gateway.URL, rpc.URL, fakeSigner{}, 10, 0.0005, false, zerolog.Nop())
	sig, err := tr.Buy(context.Background(), "mint1", 0.01)
	require.NoError(t, err)
	assert.Equal(t, "tx-signature-123", sig)

	assert.Equal(t, "FakePubkey111", gatewayReq.PublicKey)
	assert.Equal(t, actionBuy, gatewayReq.Action)
	assert.Equal(t, "mint1", gatewayReq.Mint)
	assert.Equal(t, "true", gatewayReq.DenominatedInSol)
	assert.Equal(t, 0.01, gatewayReq.Amount)
	assert.Equal(t, 10, gatewayReq.Slippage)
	assert.Equal(t, poolPump, gatewayReq.Pool)
}

func TestSell_FullPosition(t *testing.T) {
	var gatewayReq tradeRequest

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gatewayReq))
		w.Write(serializedTx([]byte("tx message")))
	}))
	defer gateway.Close()

	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"sig"}`))
	}))
	defer rpc.Close()

	tr := New(gateway.URL, rpc.URL, fakeSigner{}, 10, 0.0005, false, zerolog.Nop())
	_, err := tr.Sell(context.Background(), "mint1")
	require.NoError(t, err)

	assert.Equal(t, actionSell, gatewayReq.Action)
	assert.Equal(t, "100%", gatewayReq.Amount)
	// A percentage of the token position is token-denominated.
	assert.Equal(t, "false", gatewayReq.DenominatedInSol)
}

func TestExecute_GatewayErrorIsHard(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	}))
	defer gateway.Close()

	tr := New(gateway.URL, "http://127.0.0.1:0", fakeSigner{}, 10, 0.0005, false, zerolog.Nop())
	_, err := tr.Buy(context.Background(), "mint1", 0.01)
	require.Error(t, err)
	assert.ErrorContains(t, err, "gateway status")
}

func TestExecute_RPCError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(serializedTx([]byte("tx message")))
	}))
	defer gateway.Close()

	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"blockhash not found"}}`))
	}))
	defer rpc.Close()

	tr := New(gateway.URL, rpc.URL, fakeSigner{}, 10, 0.0005, false, zerolog.Nop())
	_, err := tr.Buy(context.Background(), "mint1", 0.01)
	require.Error(t, err)
	assert.ErrorContains(t, err, "blockhash not found")
}

func TestDevMode_NoHTTP(t *testing.T) {
	// Unroutable endpoints: any HTTP call would fail loudly.
	tr := New("http://127.0.0.1:0", "http://127.0.0.1:0", nil, 10, 0.0005, true, zerolog.Nop())

	sig, err := tr.Buy(context.Background(), "mint1", 0.01)
	require.NoError(t, err)
	assert.Empty(t, sig)

	_, err = tr.Sell(context.Background(), "mint1")
	require.NoError(t, err)
}
