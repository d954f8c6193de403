package forecast

import "math"

// ZScore returns the z-score for a service level. Levels without a table
// entry use DefaultServiceLevel.
func ZScore(serviceLevel float64) float64 {
	for level, z := range ZScores {
		if math.Abs(level-serviceLevel) < 1e-9 {
			return z
		}
	}
	return ZScores[DefaultServiceLevel]
}

// SafetyStockInput holds the inputs of SafetyStock
type SafetyStockInput struct {
	AvgDailyUse  float64
	LeadTimeDays float64
	ServiceLevel float64
	// DemandStdDev is the daily demand standard deviation; nil falls back to
	// FallbackVariability * AvgDailyUse.
	DemandStdDev *float64
}

// SafetyStock returns ceil(z * sigma * sqrt(leadTime)), or 0 when there is
// no lead time or no variability.
func SafetyStock(in SafetyStockInput) int64 {
	if in.LeadTimeDays <= 0 {
		return 0
	}

	sigma := FallbackVariability * in.AvgDailyUse
	if in.DemandStdDev != nil {
		sigma = *in.DemandStdDev
	}
	if sigma <= 0 || math.IsNaN(sigma) {
		return 0
	}

	raw := ZScore(in.ServiceLevel) * sigma * math.Sqrt(in.LeadTimeDays)
	// absorb float noise such as 7.000000000001 before rounding up
	return int64(math.Ceil(raw - 1e-9))
}
