package contracts

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Contribution is one channel's row from GET /api/mmm/contributions
type Contribution struct {
	Channel      string  `json:"channel" validate:"required"`
	Spend        float64 `json:"spend" validate:"gte=0"`
	ROI          float64 `json:"roi"`
	Contribution float64 `json:"contribution"`
}

// ContributionSummary is the aggregate block of the contributions endpoint
type ContributionSummary struct {
	TotalSpend     float64 `json:"total_spend"`
	TotalRevenue   float64 `json:"total_revenue"`
	OverallROI     float64 `json:"overall_roi"`
	NumChannels    int     `json:"num_channels"`
	NumGeos        int     `json:"num_geos"`
	NumTimePeriods int     `json:"num_time_periods"`
}

// Contributions is the body of GET /api/mmm/contributions
type Contributions struct {
	Data    []Contribution      `json:"data" validate:"dive"`
	Summary ContributionSummary `json:"summary"`
}

// CurvePoint is one sample of a channel's response curve
type CurvePoint struct {
	Spend            float64 `json:"spend"`
	Response         float64 `json:"response"`
	MarginalResponse float64 `json:"marginal_response"`
}

// ResponseCurves is the body of GET /api/mmm/response-curves, keyed by channel
type ResponseCurves struct {
	Data map[string][]CurvePoint `json:"data"`
}

// Channels returns the curve names in sorted order
func (r ResponseCurves) Channels() []string {
	names := make([]string, 0, len(r.Data))
	for name := range r.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Saturation returns the first spend past the marginal-response peak where the
// marginal response drops below threshold*peak. ok is false when the curve never
// saturates within the sampled range.
func Saturation(points []CurvePoint, threshold float64) (spend float64, ok bool) {
	peakIdx := -1
	peak := 0.0
	for i, p := range points {
		if p.MarginalResponse > peak {
			peak = p.MarginalResponse
			peakIdx = i
		}
	}
	if peakIdx < 0 {
		return 0, false
	}

	for _, p := range points[peakIdx+1:] {
		if p.MarginalResponse < peak*threshold {
			return p.Spend, true
		}
	}
	return 0, false
}

// TimeSeriesPoint is one month of per-channel contribution
type TimeSeriesPoint struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// UnmarshalJSON accepts the wire form {"date": "...", "<channel>": n, ...}
func (p *TimeSeriesPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	dateRaw, ok := raw["date"]
	if !ok {
		return fmt.Errorf("time series point missing date")
	}
	if err := json.Unmarshal(dateRaw, &p.Date); err != nil {
		return fmt.Errorf("time series date: %w", err)
	}

	p.Values = make(map[string]float64, len(raw)-1)
	for key, val := range raw {
		if key == "date" {
			continue
		}
		var v float64
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("time series %s: %w", key, err)
		}
		p.Values[key] = v
	}
	return nil
}

// TimeSeries is the body of GET /api/mmm/time-series
type TimeSeries struct {
	Data []TimeSeriesPoint `json:"data"`
}
