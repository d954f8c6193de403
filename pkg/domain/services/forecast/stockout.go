package forecast

import (
	"math"
	"time"
)

// Confidence levels of a stockout prediction
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// StockoutInput holds the inputs of PredictStockout
type StockoutInput struct {
	CurrentStock float64
	AvgDailyUse  float64
	// RecentUsage is a short window of daily usage, oldest first, used for
	// the trend adjustment
	RecentUsage []float64
	// HistoryCount is the number of transactions behind AvgDailyUse
	HistoryCount int
	Today        time.Time
}

// StockoutPrediction is the projected stockout date. Date and DaysUntil are
// nil when usage is zero.
type StockoutPrediction struct {
	Date             *time.Time
	DaysUntil        *float64
	AdjustedDailyUse float64
	Confidence       string
}

// PredictStockout projects when stock runs out at the trend-adjusted usage rate
func PredictStockout(in StockoutInput) StockoutPrediction {
	if in.CurrentStock <= 0 {
		today := in.Today
		zero := 0.0
		return StockoutPrediction{Date: &today, DaysUntil: &zero, AdjustedDailyUse: in.AvgDailyUse, Confidence: ConfidenceHigh}
	}
	if in.AvgDailyUse <= 0 {
		return StockoutPrediction{Confidence: ConfidenceLow}
	}

	adjusted := in.AvgDailyUse + LinearRegression(in.RecentUsage).Slope
	if adjusted <= 0 {
		adjusted = in.AvgDailyUse
	}

	days := round2(in.CurrentStock / adjusted)
	date := in.Today.AddDate(0, 0, int(math.Floor(days)))
	return StockoutPrediction{
		Date:             &date,
		DaysUntil:        &days,
		AdjustedDailyUse: round2(adjusted),
		Confidence:       historyConfidence(in.HistoryCount),
	}
}

func historyConfidence(n int) string {
	switch {
	case n > HighConfidenceHistory:
		return ConfidenceHigh
	case n > MediumConfidenceHistory:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
