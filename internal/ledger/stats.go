package ledger

import (
	"time"

	"github.com/benhexie/sol-sniper/internal/domain"
)

// SessionStats summarizes the realized results of a session.
type SessionStats struct {
	Closed        int
	Bought        int
	Wins          int
	Losses        int
	Rugs          int
	WriteOffs     int
	TotalProfit   float64
	ProfitPercent float64
	BestMint      string
	BestProfit    float64
	WorstMint     string
	WorstProfit   float64

	// AvgTimeToMilestone averages the time from discovery to the first
	// milestone over trades that hit one.
	AvgTimeToMilestone time.Duration
}

// WinRate is the share of bought trades that closed profitable.
func (s SessionStats) WinRate() float64 {
	if s.Bought == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Bought)
}

// Stats computes session statistics over the closed-trade history.
func (l *Ledger) Stats() SessionStats {
	var stats SessionStats
	var milestoneTotal time.Duration
	var milestoneCount int

	for _, trade := range l.reg.History() {
		stats.Closed++
		if trade.Rugged {
			stats.Rugs++
		}
		if trade.Outcome == domain.OutcomeWriteOff {
			stats.WriteOffs++
		}
		if trade.BuyPrice == 0 {
			continue
		}
		stats.Bought++

		profit := l.NetProfit(trade)
		stats.TotalProfit += profit
		if profit > 0 {
			stats.Wins++
		} else {
			stats.Losses++
		}
		if stats.BestMint == "" || profit > stats.BestProfit {
			stats.BestMint, stats.BestProfit = trade.Mint, profit
		}
		if stats.WorstMint == "" || profit < stats.WorstProfit {
			stats.WorstMint, stats.WorstProfit = trade.Mint, profit
		}
		if trade.TimeToFirstMilestone > 0 {
			milestoneTotal += trade.TimeToFirstMilestone
			milestoneCount++
		}
	}

	if invested := float64(stats.Bought) * (l.buyAmount + l.feeAmount); invested > 0 {
		stats.ProfitPercent = stats.TotalProfit / invested * 100
	}
	if milestoneCount > 0 {
		stats.AvgTimeToMilestone = milestoneTotal / time.Duration(milestoneCount)
	}
	return stats
}
