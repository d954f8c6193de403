package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZScore(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0.90, 1.28},
		{0.95, 1.65},
		{0.98, 2.05},
		{0.99, 2.33},
		{0.5, 1.65},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZScore(tt.level), "level %v", tt.level)
	}
}

func TestSafetyStock(t *testing.T) {
	sd := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   SafetyStockInput
		want int64
	}{
		{
			name: "explicit_std_dev",
			in:   SafetyStockInput{AvgDailyUse: 10, LeadTimeDays: 9, ServiceLevel: 0.95, DemandStdDev: sd(1.5)},
			want: 8, // ceil(1.65 * 1.5 * 3)
		},
		{
			name: "fallback_variability",
			in:   SafetyStockInput{AvgDailyUse: 10, LeadTimeDays: 4, ServiceLevel: 0.99},
			want: 7, // ceil(2.33 * 1.5 * 2)
		},
		{
			name: "zero_average_use",
			in:   SafetyStockInput{AvgDailyUse: 0, LeadTimeDays: 7, ServiceLevel: 0.95},
			want: 0,
		},
		{
			name: "zero_lead_time",
			in:   SafetyStockInput{AvgDailyUse: 10, LeadTimeDays: 0, ServiceLevel: 0.95},
			want: 0,
		},
		{
			name: "unknown_service_level_uses_default",
			in:   SafetyStockInput{AvgDailyUse: 10, LeadTimeDays: 9, ServiceLevel: 0.93, DemandStdDev: sd(1.5)},
			want: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafetyStock(tt.in))
		})
	}
}
