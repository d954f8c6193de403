package forecast

import "time"

// Tunable constants used by the forecasting functions
const (
	// DefaultAlpha is the EWMA smoothing factor
	DefaultAlpha = 0.3

	// IQRMultiplier sets the outlier fences at Q1-k*IQR and Q3+k*IQR
	IQRMultiplier = 1.5
	// MinOutlierPoints is the smallest series outlier removal will touch
	MinOutlierPoints = 4

	// DefaultServiceLevel is used when a service level has no z-score entry
	DefaultServiceLevel = 0.95
	// FallbackVariability estimates demand standard deviation as a share of
	// average daily use when no history is available
	FallbackVariability = 0.15
	// DefaultLeadTimeDays is the replenishment lead time assumed for safety
	// stock when none is configured
	DefaultLeadTimeDays = 3.0
	// DefaultHorizonDays is the default forecast length
	DefaultHorizonDays = 14

	// TrendMinRSquared is the fit quality required before a trend is applied
	TrendMinRSquared = 0.3
	// TrendSensitivity scales the regression slope into a trend factor
	TrendSensitivity = 0.1
	TrendFactorMin   = 0.7
	TrendFactorMax   = 1.3

	// ConfidenceZ is the z-score of the 90% two-sided prediction interval
	ConfidenceZ = 1.645
	// MinIntervalSpread is the minimum interval half-width as a share of the
	// prediction
	MinIntervalSpread = 0.15

	// WeeklySeasonalityThreshold and MonthlySeasonalityThreshold are the
	// coefficient-of-variation scores above which a pattern is reported
	WeeklySeasonalityThreshold  = 0.6
	MonthlySeasonalityThreshold = 0.5

	// Transaction history counts required for high and medium confidence
	HighConfidenceHistory   = 10
	MediumConfidenceHistory = 5
)

// ZScores maps service levels to one-sided normal z-scores
var ZScores = map[float64]float64{
	0.90: 1.28,
	0.95: 1.65,
	0.98: 2.05,
	0.99: 2.33,
}

// DayOfWeekFactors scales baseline demand by weekday
var DayOfWeekFactors = map[time.Weekday]float64{
	time.Monday:    1.15,
	time.Tuesday:   1.10,
	time.Wednesday: 1.05,
	time.Thursday:  1.00,
	time.Friday:    0.95,
	time.Saturday:  0.80,
	time.Sunday:    0.75,
}
