// Package safety implements the buy gate evaluated on every tick for an
// unverified candidate. The predicate is pure: same inputs, same verdict.
package safety

import (
	"fmt"

	"github.com/benhexie/sol-sniper/internal/domain"
)

// Limits are the configured safety bounds.
type Limits struct {
	BuyAmountSol    float64
	FeeAmountSol    float64
	MinMarketCapSol float64
	MaxMarketCapSol float64
	MinLiquiditySol float64
}

// Result is the verdict for one evaluation. Reason is set only on failure.
type Result struct {
	Safe   bool
	Reason string
}

// Evaluate runs the ordered checks, short-circuiting on the first failure.
// Unobserved market cap and liquidity enter the bounds as zero. Liquidity
// and cap are moving values, so callers re-run this on every tick rather
// than treating a pass as permanent.
func Evaluate(tok *domain.Token, walletBalance float64, limits Limits) Result {
	if walletBalance < limits.BuyAmountSol+limits.FeeAmountSol {
		return Result{Reason: fmt.Sprintf(
			"insufficient balance: %.4f SOL, need %.4f SOL",
			walletBalance, limits.BuyAmountSol+limits.FeeAmountSol)}
	}

	if tok.MarketCapSol < limits.MinMarketCapSol || tok.MarketCapSol > limits.MaxMarketCapSol {
		return Result{Reason: fmt.Sprintf(
			"market cap %.2f SOL out of range (min %.2f, max %.2f)",
			tok.MarketCapSol, limits.MinMarketCapSol, limits.MaxMarketCapSol)}
	}

	if tok.VSolInBondingCurve < limits.MinLiquiditySol {
		return Result{Reason: fmt.Sprintf(
			"liquidity too low: %.2f SOL (min %.2f)",
			tok.VSolInBondingCurve, limits.MinLiquiditySol)}
	}

	// When the liquidity floor is the stricter bound, a curve holding more
	// SOL than its own implied valuation is a mispriced pool.
	if limits.MinLiquiditySol > limits.MinMarketCapSol && tok.VSolInBondingCurve > tok.MarketCapSol {
		return Result{Reason: fmt.Sprintf(
			"liquidity %.2f SOL exceeds market cap %.2f SOL",
			tok.VSolInBondingCurve, tok.MarketCapSol)}
	}

	return Result{Safe: true}
}
