package contracts

// ROITier is the qualitative bucket a channel's ROI falls in
type ROITier string

const (
	TierStrong       ROITier = "strong"       // roi > 1.5
	TierProfitable   ROITier = "profitable"   // roi > 1
	TierMarginal     ROITier = "marginal"     // roi > 0.8
	TierUnprofitable ROITier = "unprofitable" // everything else
)

// RankedChannel is a channel with its 1-based position in the ROI ranking
type RankedChannel struct {
	Rank     int     `json:"rank"`
	Channel  Channel `json:"channel"`
	BarWidth float64 `json:"bar_width"` // roi / maxRoi * 100
	Tier     ROITier `json:"tier"`
}

// PieSlice is one channel's arc in the spend proportion chart, in percent of the circle
type PieSlice struct {
	Name           string  `json:"name"`
	StartOffsetPct float64 `json:"start_offset_pct"`
	SweepPct       float64 `json:"sweep_pct"`
}

// EndPct returns where the slice ends
func (p PieSlice) EndPct() float64 {
	return p.StartOffsetPct + p.SweepPct
}

// Insights are the summary statements shown under the charts
type Insights struct {
	TopChannel      Channel  `json:"top_channel"`
	ProfitableCount int      `json:"profitable_count"`
	TotalCount      int      `json:"total_count"`
	Statements      []string `json:"statements"`
}

// DerivedSummary extends Summary with computed totals
type DerivedSummary struct {
	Summary
	NetProfit float64 `json:"net_profit"`
}

// DerivedView is everything the presentation layer needs, computed from one dataset.
// It is never persisted.
type DerivedView struct {
	Summary        DerivedSummary     `json:"summary"`
	RankedChannels []RankedChannel    `json:"ranked_channels"`
	MaxROI         float64            `json:"max_roi"`
	SpendShare     map[string]float64 `json:"spend_share"`
	PieSlices      []PieSlice         `json:"pie_slices"`
	Insights       Insights           `json:"insights"`
}
