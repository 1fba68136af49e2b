package contracts

// Dataset is the MMM summary returned by GET /api/mmm-data.
// It is immutable once fetched.
type Dataset struct {
	Success  bool      `json:"success"`
	User     string    `json:"user"`
	Summary  Summary   `json:"summary"`
	Channels []Channel `json:"channels" validate:"unique=Name,dive"`
}

// Summary holds the aggregate totals of a dataset
type Summary struct {
	TotalSpend     float64 `json:"total_spend" validate:"gte=0"`
	TotalRevenue   float64 `json:"total_revenue" validate:"gte=0"`
	OverallROI     float64 `json:"overall_roi" validate:"gte=0"`
	TotalKPI       float64 `json:"total_kpi" validate:"gte=0"`
	NumChannels    int     `json:"num_channels" validate:"gte=0"`
	NumGeos        int     `json:"num_geos" validate:"gte=0"`
	NumTimePeriods int     `json:"num_time_periods" validate:"gte=0"`
}

// NetProfit is total revenue minus total spend
func (s Summary) NetProfit() float64 {
	return s.TotalRevenue - s.TotalSpend
}

// Channel is one marketing medium
type Channel struct {
	Name          string  `json:"name" validate:"required"`
	ROI           float64 `json:"roi" validate:"gte=0"`
	Spend         float64 `json:"spend" validate:"gte=0"`
	Revenue       float64 `json:"revenue" validate:"gte=0"`
	Effectiveness float64 `json:"effectiveness" validate:"gte=0"`
}

// Profitable reports whether the channel returns more than it costs
func (c Channel) Profitable() bool {
	return c.ROI > 1
}

// ChannelSpendTotal sums channel spend; it may drift slightly from Summary.TotalSpend
func (d *Dataset) ChannelSpendTotal() float64 {
	total := 0.0
	for _, ch := range d.Channels {
		total += ch.Spend
	}
	return total
}

// Channel returns the channel with the given name
func (d *Dataset) Channel(name string) (Channel, bool) {
	for _, ch := range d.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}
