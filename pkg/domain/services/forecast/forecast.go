package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Stock status of a forecast horizon
const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
	StatusAdequate = "adequate"
)

// ForecastInput holds the inputs of GenerateForecast
type ForecastInput struct {
	// History is daily usage, oldest first
	History      []float64
	CurrentStock float64
	HorizonDays  int
	// StartDate is the first forecast day
	StartDate time.Time
	// Alpha is the EWMA factor; zero means DefaultAlpha
	Alpha float64
}

// DayForecast is the prediction for one day of the horizon
type DayForecast struct {
	Date           time.Time
	Weekday        time.Weekday
	Predicted      float64
	Lower          float64
	Upper          float64
	RemainingStock float64
}

// ForecastResult is a demand forecast over a horizon
type ForecastResult struct {
	Days        []DayForecast
	Baseline    float64
	TrendFactor float64
	StdDev      float64
	Outliers    []float64
	TotalDemand float64
	// StockoutDay is the index of the first day remaining stock hits zero,
	// -1 when it never does within the horizon.
	StockoutDay int
	Status      string
}

// GenerateForecast projects daily demand over the horizon from usage
// history: outliers are removed, the EWMA tail gives the baseline, a
// weekday factor and an optional trend factor scale it.
func GenerateForecast(in ForecastInput) ForecastResult {
	cleaned := RemoveOutliers(in.History)
	smoothed := EWMA(cleaned.Cleaned, in.Alpha)

	res := ForecastResult{
		Days:        []DayForecast{},
		TrendFactor: 1,
		Outliers:    cleaned.Outliers,
		StdDev:      StdDev(cleaned.Cleaned),
		StockoutDay: -1,
	}
	if len(smoothed) > 0 {
		res.Baseline = smoothed[len(smoothed)-1]
	}
	if reg := LinearRegression(cleaned.Cleaned); reg.RSquared > TrendMinRSquared {
		res.TrendFactor = clamp(1+reg.Slope*TrendSensitivity, TrendFactorMin, TrendFactorMax)
	}

	horizon := in.HorizonDays
	if horizon < 0 {
		horizon = 0
	}

	remaining := math.Max(in.CurrentStock, 0)
	var total float64
	for i := 0; i < horizon; i++ {
		date := in.StartDate.AddDate(0, 0, i)
		predicted := round2(res.Baseline * DayOfWeekFactors[date.Weekday()] * res.TrendFactor)
		spread := math.Max(MinIntervalSpread*predicted, ConfidenceZ*res.StdDev*math.Sqrt(float64(i+1)))

		total += predicted
		remaining = math.Max(remaining-predicted, 0)
		if remaining == 0 && res.StockoutDay < 0 && predicted > 0 {
			res.StockoutDay = i
		}

		res.Days = append(res.Days, DayForecast{
			Date:           date,
			Weekday:        date.Weekday(),
			Predicted:      predicted,
			Lower:          round2(math.Max(predicted-spread, 0)),
			Upper:          round2(predicted + spread),
			RemainingStock: round2(remaining),
		})
	}
	res.TotalDemand = round2(total)

	buffer := ConfidenceZ * res.StdDev * math.Sqrt(float64(horizon))
	switch {
	case res.TotalDemand > in.CurrentStock:
		res.Status = StatusCritical
	case in.CurrentStock-res.TotalDemand < buffer:
		res.Status = StatusWarning
	default:
		res.Status = StatusAdequate
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
