package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictStockout(t *testing.T) {
	today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	t.Run("already_out_of_stock", func(t *testing.T) {
		res := PredictStockout(StockoutInput{CurrentStock: 0, AvgDailyUse: 5, Today: today})
		require.NotNil(t, res.Date)
		assert.Equal(t, today, *res.Date)
		assert.Equal(t, 0.0, *res.DaysUntil)
		assert.Equal(t, ConfidenceHigh, res.Confidence)
	})

	t.Run("no_usage", func(t *testing.T) {
		res := PredictStockout(StockoutInput{CurrentStock: 40, AvgDailyUse: 0, HistoryCount: 20, Today: today})
		assert.Nil(t, res.Date)
		assert.Nil(t, res.DaysUntil)
		assert.Equal(t, ConfidenceLow, res.Confidence)
	})

	tests := []struct {
		name       string
		in         StockoutInput
		wantDays   float64
		wantDate   time.Time
		confidence string
	}{
		{
			name:       "flat_usage",
			in:         StockoutInput{CurrentStock: 100, AvgDailyUse: 10, RecentUsage: []float64{10, 10, 10}, HistoryCount: 11},
			wantDays:   10,
			wantDate:   today.AddDate(0, 0, 10),
			confidence: ConfidenceHigh,
		},
		{
			name:       "rising_usage",
			in:         StockoutInput{CurrentStock: 100, AvgDailyUse: 10, RecentUsage: []float64{8, 10, 12}, HistoryCount: 6},
			wantDays:   8.33,
			wantDate:   today.AddDate(0, 0, 8),
			confidence: ConfidenceMedium,
		},
		{
			name:       "collapsing_trend_falls_back_to_average",
			in:         StockoutInput{CurrentStock: 100, AvgDailyUse: 5, RecentUsage: []float64{30, 20, 10}, HistoryCount: 5},
			wantDays:   20,
			wantDate:   today.AddDate(0, 0, 20),
			confidence: ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Today = today
			res := PredictStockout(tt.in)
			require.NotNil(t, res.Date)
			require.NotNil(t, res.DaysUntil)
			assert.InDelta(t, tt.wantDays, *res.DaysUntil, 1e-9)
			assert.Equal(t, tt.wantDate, *res.Date)
			assert.Equal(t, tt.confidence, res.Confidence)
		})
	}
}
