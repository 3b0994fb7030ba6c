// Package report renders the live status snapshot and the end-of-session
// summary to the console.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/benhexie/sol-sniper/internal/domain"
	"github.com/benhexie/sol-sniper/internal/ledger"
	"github.com/benhexie/sol-sniper/internal/registry"
)

// Reporter writes human-readable snapshots and the session summary.
type Reporter struct {
	out io.Writer
	reg *registry.Registry
	led *ledger.Ledger
}

// NewReporter builds a reporter writing to out.
func NewReporter(out io.Writer, reg *registry.Registry, led *ledger.Ledger) *Reporter {
	return &Reporter{out: out, reg: reg, led: led}
}

// PrintStatus renders a one-line summary and the active position table.
func (r *Reporter) PrintStatus(walletBalance, solUSD float64) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(r.out, "[%s] %d active | %d watching | %d closed | bal %.4f SOL",
		now, r.reg.ActiveLen(), r.reg.UnverifiedLen(), len(r.reg.History()), walletBalance)
	if solUSD > 0 {
		fmt.Fprintf(r.out, " ($%.2f)", walletBalance*solUSD)
	}
	fmt.Fprintln(r.out)

	active := r.reg.ActiveTokens()
	if len(active) == 0 {
		return
	}

	tbl := tablewriter.NewWriter(r.out)
	tbl.Header("Mint", "Name", "Buy", "Now", "Peak", "Growth", "Tier", "Age")
	for _, tok := range active {
		tbl.Append(
			shortMint(tok.Mint),
			tok.Name,
			formatPrice(tok.BuyPrice),
			formatPrice(tok.CurrentPrice),
			formatPrice(tok.MaxPrice),
			formatGrowth(tok),
			milestoneTier(tok),
			time.Since(tok.CreatedAt).Truncate(time.Second).String(),
		)
	}
	tbl.Render()
}

// PrintSessionReport renders the closed-trade table and aggregate stats.
func (r *Reporter) PrintSessionReport(initialBalance, finalBalance float64) {
	stats := r.led.Stats()

	fmt.Fprintf(r.out, "\n")
	fmt.Fprintf(r.out, "========================================================\n")
	fmt.Fprintf(r.out, "  SESSION REPORT\n")
	fmt.Fprintf(r.out, "========================================================\n\n")

	history := r.reg.History()
	if len(history) > 0 {
		tbl := tablewriter.NewWriter(r.out)
		tbl.Header("Mint", "Name", "Scout", "Buy", "Sell", "Peak", "Outcome", "Return", "Profit", "1st Tier")
		for _, trade := range history {
			tbl.Append(
				shortMint(trade.Mint),
				trade.Name,
				formatPrice(trade.ScoutPrice),
				formatPrice(trade.BuyPrice),
				formatPrice(trade.SellPrice),
				formatPrice(trade.MaxPrice),
				trade.Outcome,
				formatReturn(trade),
				fmt.Sprintf("%+.4f", r.led.NetProfit(trade)),
				formatDuration(trade.TimeToFirstMilestone),
			)
		}
		tbl.Render()
	}

	fmt.Fprintf(r.out, "\n  --- BALANCE ---\n")
	fmt.Fprintf(r.out, "  Initial balance:       %.4f SOL\n", initialBalance)
	fmt.Fprintf(r.out, "  Final balance:         %.4f SOL\n", finalBalance)
	if initialBalance > 0 {
		fmt.Fprintf(r.out, "  Session change:        %+.2f%%\n",
			(finalBalance/initialBalance-1)*100)
	}

	fmt.Fprintf(r.out, "\n  --- TRADES ---\n")
	fmt.Fprintf(r.out, "  Trades closed:         %d (%d bought)\n", stats.Closed, stats.Bought)
	fmt.Fprintf(r.out, "  Wins / losses:         %d / %d\n", stats.Wins, stats.Losses)
	fmt.Fprintf(r.out, "  Win rate:              %.1f%%\n", stats.WinRate()*100)
	fmt.Fprintf(r.out, "  Rugs:                  %d\n", stats.Rugs)
	fmt.Fprintf(r.out, "  Write-offs:            %d\n", stats.WriteOffs)
	fmt.Fprintf(r.out, "  Realized profit:       %+.4f SOL (%+.2f%%)\n",
		stats.TotalProfit, stats.ProfitPercent)
	if stats.BestMint != "" {
		fmt.Fprintf(r.out, "  Best trade:            %s %+.4f SOL\n", shortMint(stats.BestMint), stats.BestProfit)
		fmt.Fprintf(r.out, "  Worst trade:           %s %+.4f SOL\n", shortMint(stats.WorstMint), stats.WorstProfit)
	}
	if stats.AvgTimeToMilestone > 0 {
		fmt.Fprintf(r.out, "  Avg time to milestone: %s\n", formatDuration(stats.AvgTimeToMilestone))
	}
	fmt.Fprintln(r.out)
}

func shortMint(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:6] + ".." + mint[len(mint)-4:]
}

func formatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.9f", p)
}

func formatGrowth(tok *domain.Token) string {
	if tok.ScoutPrice == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.0f%%", (tok.CurrentPrice/tok.ScoutPrice-1)*100)
}

func formatReturn(trade *domain.ClosedTrade) string {
	if trade.BuyPrice == 0 || trade.SellPrice == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.0f%%", trade.Return()*100)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Truncate(time.Millisecond).String()
}

func milestoneTier(tok *domain.Token) string {
	switch {
	case tok.Hit400:
		return "400%"
	case tok.Hit300:
		return "300%"
	case tok.Hit240:
		return "240%"
	case tok.Hit200:
		return "200%"
	case tok.Hit120:
		return "120%"
	}
	return "-"
}
