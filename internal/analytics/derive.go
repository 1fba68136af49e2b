// Package analytics derives chart geometry and insights from an MMM dataset.
//
// Every function is pure: inputs are never mutated and the same dataset always
// yields the same view. Divisions by a zero total or zero maximum produce zeros,
// never NaN or Inf.
package analytics

import (
	"fmt"
	"sort"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// Tier thresholds
const (
	strongROI     = 1.5
	profitableROI = 1.0
	marginalROI   = 0.8
)

// Rank returns the channels sorted by ROI descending, ties kept in input order
func Rank(channels []contracts.Channel) []contracts.Channel {
	ranked := make([]contracts.Channel, len(channels))
	copy(ranked, channels)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ROI > ranked[j].ROI
	})
	return ranked
}

// MaxROI returns the largest ROI, or 0 for an empty list
func MaxROI(channels []contracts.Channel) float64 {
	highest := 0.0
	for _, ch := range channels {
		if ch.ROI > highest {
			highest = ch.ROI
		}
	}
	return highest
}

// Normalize maps each channel to its bar width, roi/maxRoi*100.
// When every ROI is zero all widths are zero.
func Normalize(channels []contracts.Channel) map[string]float64 {
	widths := make(map[string]float64, len(channels))
	maxROI := MaxROI(channels)

	for _, ch := range channels {
		widths[ch.Name] = barWidth(ch.ROI, maxROI)
	}
	return widths
}

func barWidth(roi, maxROI float64) float64 {
	if maxROI <= 0 {
		return 0
	}
	return roi / maxROI * 100
}

// ShareOfTotal maps each channel to its percentage of totalSpend.
// A zero total yields zero shares.
func ShareOfTotal(channels []contracts.Channel, totalSpend float64) map[string]float64 {
	shares := make(map[string]float64, len(channels))
	for _, ch := range channels {
		shares[ch.Name] = percentOf(ch.Spend, totalSpend)
	}
	return shares
}

func percentOf(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// PieSlices lays channels around the circle in their original order.
// Offsets are a running prefix sum of spend, so the assignment does not depend on the ROI ranking.
func PieSlices(channels []contracts.Channel, totalSpend float64) []contracts.PieSlice {
	slices := make([]contracts.PieSlice, 0, len(channels))

	cumulative := 0.0
	for _, ch := range channels {
		slices = append(slices, contracts.PieSlice{
			Name:           ch.Name,
			StartOffsetPct: percentOf(cumulative, totalSpend),
			SweepPct:       percentOf(ch.Spend, totalSpend),
		})
		cumulative += ch.Spend
	}
	return slices
}

// Tier buckets an ROI value
func Tier(roi float64) contracts.ROITier {
	switch {
	case roi > strongROI:
		return contracts.TierStrong
	case roi > profitableROI:
		return contracts.TierProfitable
	case roi > marginalROI:
		return contracts.TierMarginal
	default:
		return contracts.TierUnprofitable
	}
}

// Insights summarizes ranked channels. rankedChannels must be ROI-ranked and non-empty.
func Insights(rankedChannels []contracts.Channel, summary contracts.Summary) (contracts.Insights, error) {
	if len(rankedChannels) == 0 {
		return contracts.Insights{}, contracts.ErrNoChannels
	}

	top := rankedChannels[0]
	profitable := 0
	for _, ch := range rankedChannels {
		if ch.Profitable() {
			profitable++
		}
	}

	total := summary.NumChannels
	if total == 0 {
		total = len(rankedChannels)
	}

	statements := []string{
		fmt.Sprintf("%s delivers the highest ROI at %.2fx", top.Name, top.ROI),
		fmt.Sprintf("%d out of %d channels are profitable", profitable, total),
	}
	if profitable < len(rankedChannels) {
		statements = append(statements, "Consider reallocating budget from underperforming channels to maximize ROI")
	}

	return contracts.Insights{
		TopChannel:      top,
		ProfitableCount: profitable,
		TotalCount:      total,
		Statements:      statements,
	}, nil
}

// Derive computes the full view for a dataset.
// It fails with contracts.ErrNoChannels when the dataset has no channels.
func Derive(dataset *contracts.Dataset) (*contracts.DerivedView, error) {
	if dataset == nil || len(dataset.Channels) == 0 {
		return nil, contracts.ErrNoChannels
	}

	ranked := Rank(dataset.Channels)
	maxROI := MaxROI(ranked)

	rankedView := make([]contracts.RankedChannel, len(ranked))
	for i, ch := range ranked {
		rankedView[i] = contracts.RankedChannel{
			Rank:     i + 1,
			Channel:  ch,
			BarWidth: barWidth(ch.ROI, maxROI),
			Tier:     Tier(ch.ROI),
		}
	}

	insights, err := Insights(ranked, dataset.Summary)
	if err != nil {
		return nil, err
	}

	return &contracts.DerivedView{
		Summary: contracts.DerivedSummary{
			Summary:   dataset.Summary,
			NetProfit: dataset.Summary.NetProfit(),
		},
		RankedChannels: rankedView,
		MaxROI:         maxROI,
		SpendShare:     ShareOfTotal(dataset.Channels, dataset.Summary.TotalSpend),
		PieSlices:      PieSlices(dataset.Channels, dataset.Summary.TotalSpend),
		Insights:       insights,
	}, nil
}
