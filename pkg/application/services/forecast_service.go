package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
	"github.com/vsinha/rxstock/pkg/domain/services/forecast"
	"github.com/vsinha/rxstock/pkg/domain/services/stock"
)

// ForecastConfig holds the defaults applied to forecast requests
type ForecastConfig struct {
	Alpha        float64
	ServiceLevel float64
	LeadTimeDays float64
	HorizonDays  int
	// HistoryDays is the usage window fed to the engine
	HistoryDays int
	// RecentDays is the tail of the history used for the stockout trend
	RecentDays int
}

// DefaultForecastConfig returns the standard forecast settings
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Alpha:        forecast.DefaultAlpha,
		ServiceLevel: forecast.DefaultServiceLevel,
		LeadTimeDays: forecast.DefaultLeadTimeDays,
		HorizonDays:  forecast.DefaultHorizonDays,
		HistoryDays:  30,
		RecentDays:   7,
	}
}

// ForecastRequest asks for a forecast of one drug. UserID must hold the
// forecast permission. Zero fields take the service defaults.
type ForecastRequest struct {
	UserID       string
	DrugName     string
	HorizonDays  int
	LeadTimeDays float64
	ServiceLevel float64
}

// DrugForecast is the full forecast report for one drug across locations
type DrugForecast struct {
	DrugName     string
	DrugIDs      []string
	CurrentStock int64
	// AvgDailyUse comes from the transaction history when there is any,
	// otherwise from the inventory rows.
	AvgDailyUse  float64
	Usage        *entities.UsageStats
	Demand       forecast.ForecastResult
	Seasonality  forecast.Seasonality
	Stockout     forecast.StockoutPrediction
	SafetyStock  int64
	ReorderPoint int64
	LeadTimeDays float64
	ServiceLevel float64
	GeneratedAt  time.Time
}

// ForecastService builds forecast reports from stored inventory and usage
type ForecastService struct {
	store  repositories.PharmacyStore
	config ForecastConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewForecastService creates a forecast service
func NewForecastService(store repositories.PharmacyStore, config ForecastConfig, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastService{store: store, config: config, logger: logger, now: time.Now}
}

// Forecast runs the demand forecast, seasonality detection, stockout
// prediction and safety stock calculation for every drug matching the name
func (s *ForecastService) Forecast(ctx context.Context, req ForecastRequest) (*DrugForecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := authorize(s.store, req.UserID, entities.PermForecast); err != nil {
		return nil, err
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.config.HorizonDays
	}
	leadTime := req.LeadTimeDays
	if leadTime <= 0 {
		leadTime = s.config.LeadTimeDays
	}
	serviceLevel := req.ServiceLevel
	if serviceLevel <= 0 {
		serviceLevel = s.config.ServiceLevel
	}

	rows, err := s.store.SearchByName(req.DrugName)
	if err != nil {
		return nil, fmt.Errorf("search inventory: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, req.DrugName)
	}

	usage, err := s.store.UsageStats(req.DrugName, s.config.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}

	var onHand int64
	var rowUse float64
	for i := range rows {
		if rows[i].Status == entities.StatusExpired {
			continue
		}
		onHand += rows[i].Quantity
		rowUse += rows[i].AvgDailyUse
	}

	avg := usage.AverageDailyUse
	if usage.TransactionCount == 0 || usage.TotalUsed == 0 {
		avg = rowUse
	}

	now := s.now()
	today := stock.StartOfDay(now)
	history := usage.DailyUsage

	demand := forecast.GenerateForecast(forecast.ForecastInput{
		History:      history,
		CurrentStock: float64(onHand),
		HorizonDays:  horizon,
		StartDate:    today.AddDate(0, 0, 1),
		Alpha:        s.config.Alpha,
	})

	observations := make([]forecast.Observation, len(history))
	for i, q := range history {
		observations[i] = forecast.Observation{
			Date:     today.AddDate(0, 0, i-len(history)+1),
			Quantity: q,
		}
	}

	recent := history
	if n := s.config.RecentDays; n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	var sigma *float64
	if len(history) >= 2 && usage.TotalUsed > 0 {
		sd := demand.StdDev
		sigma = &sd
	}
	safety := forecast.SafetyStock(forecast.SafetyStockInput{
		AvgDailyUse:  avg,
		LeadTimeDays: leadTime,
		ServiceLevel: serviceLevel,
		DemandStdDev: sigma,
	})

	leadDemand := decimal.NewFromFloat(avg).Mul(decimal.NewFromFloat(leadTime)).Ceil().IntPart()

	report := &DrugForecast{
		DrugName:     req.DrugName,
		DrugIDs:      usage.DrugIDs,
		CurrentStock: onHand,
		AvgDailyUse:  decimal.NewFromFloat(avg).Round(2).InexactFloat64(),
		Usage:        usage,
		Demand:       demand,
		Seasonality:  forecast.DetectSeasonality(observations),
		Stockout: forecast.PredictStockout(forecast.StockoutInput{
			CurrentStock: float64(onHand),
			AvgDailyUse:  avg,
			RecentUsage:  recent,
			HistoryCount: usage.TransactionCount,
			Today:        today,
		}),
		SafetyStock:  safety,
		ReorderPoint: leadDemand + safety,
		LeadTimeDays: leadTime,
		ServiceLevel: serviceLevel,
		GeneratedAt:  now,
	}

	s.logger.Debug("forecast generated",
		"drug", req.DrugName, "stock", onHand, "status", demand.Status,
		"safety_stock", safety, "confidence", report.Stockout.Confidence)
	return report, nil
}
