package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceOracle_PendingDeltaSurvivesRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":2000000000}}`))
	}))
	defer server.Close()

	o := NewBalanceOracle(server.URL, "pubkey")
	ctx := context.Background()

	// A fill lands before the first refresh.
	o.UpdateBalance(-0.5)

	bal, err := o.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, bal, 1e-9)

	// Once loaded, deltas apply to the cached value directly.
	o.UpdateBalance(0.25)
	bal, err = o.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, bal, 1e-9)

	// A fill between Invalidate and the next refresh is not lost.
	o.Invalidate()
	o.UpdateBalance(-0.25)
	bal, err = o.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, bal, 1e-9)
}

func TestBalanceOracle_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"bad request"}}`))
	}))
	defer server.Close()

	o := NewBalanceOracle(server.URL, "pubkey")
	_, err := o.Balance(context.Background())
	assert.ErrorContains(t, err, "bad request")
}
