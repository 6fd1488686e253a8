package models

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// SponsorRecord is the aggregate track record of one IPO sponsor
type SponsorRecord struct {
	Name             string     `json:"name"`
	IPOCount         int        `json:"ipo_count"`
	UpCount          int        `json:"up_count"`
	DownCount        int        `json:"down_count"`
	WinRatePct       float64    `json:"win_rate_pct"`
	AvgFirstDayPct   null.Float `json:"avg_first_day_pct"`
	AvgCumulativePct null.Float `json:"avg_cumulative_pct"`
	BestStock        string     `json:"best_stock"`
	BestReturn       null.Float `json:"best_return"`
	WorstStock       string     `json:"worst_stock"`
	WorstReturn      null.Float `json:"worst_return"`
}

// ComputeWinRate returns up/ipo as a percentage rounded to one decimal, or 0 with no offerings
func ComputeWinRate(upCount, ipoCount int) float64 {
	if ipoCount <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(upCount)).
		Div(decimal.NewFromInt(int64(ipoCount))).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	return rate.InexactFloat64()
}

// RefreshWinRate recomputes WinRatePct from the counters
func (r *SponsorRecord) RefreshWinRate() {
	r.WinRatePct = ComputeWinRate(r.UpCount, r.IPOCount)
}

// SponsorDirectoryEntry maps a sponsor name to its id in the sponsor filter
type SponsorDirectoryEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}
