package wallet

import (
	"context"
	"sync"
)

// VirtualBalance is an in-memory balance used in dev mode, where no RPC
// node is consulted. It satisfies the same surface as BalanceOracle.
type VirtualBalance struct {
	mu      sync.Mutex
	balance float64
}

// NewVirtualBalance seeds a virtual wallet.
func NewVirtualBalance(initial float64) *VirtualBalance {
	return &VirtualBalance{balance: initial}
}

// Balance returns the current virtual balance. The error is always nil.
func (v *VirtualBalance) Balance(context.Context) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance, nil
}

// UpdateBalance applies a delta.
func (v *VirtualBalance) UpdateBalance(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance += delta
}

// Invalidate is a no-op; there is no backing source to refresh from.
func (v *VirtualBalance) Invalidate() {}
