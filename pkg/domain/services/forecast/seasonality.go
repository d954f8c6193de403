package forecast

import (
	"sort"
	"time"
)

// Seasonal patterns reported by DetectSeasonality
const (
	PatternNone    = "none"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
)

// Observation is a quantity used on a date
type Observation struct {
	Date     time.Time
	Quantity float64
}

// Seasonality describes the strongest calendar pattern in usage history
type Seasonality struct {
	Pattern string
	Score   float64
	// WeekdayAverages is indexed by time.Weekday; weekdays without data are 0.
	WeekdayAverages [7]float64
	// PeriodAverages holds early (days 1-10), mid (11-20) and late month
	// averages.
	PeriodAverages [3]float64
	// PeakWeekday is the busiest weekday when Pattern is weekly.
	PeakWeekday time.Weekday
}

// DetectSeasonality scores weekday and month-third variation. A weekly
// pattern wins when its score exceeds WeeklySeasonalityThreshold; otherwise
// a monthly pattern is reported above MonthlySeasonalityThreshold.
func DetectSeasonality(obs []Observation) Seasonality {
	res := Seasonality{Pattern: PatternNone}
	if len(obs) == 0 {
		return res
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Quantity
	}
	overall := Mean(values)
	if overall == 0 {
		return res
	}

	var weekdaySum, weekdayCount [7]float64
	var periodSum, periodCount [3]float64
	for _, o := range obs {
		wd := o.Date.Weekday()
		weekdaySum[wd] += o.Quantity
		weekdayCount[wd]++

		p := monthThird(o.Date.Day())
		periodSum[p] += o.Quantity
		periodCount[p]++
	}

	weekdayAvgs := averages(weekdaySum[:], weekdayCount[:], res.WeekdayAverages[:])
	periodAvgs := averages(periodSum[:], periodCount[:], res.PeriodAverages[:])

	weekly := StdDev(weekdayAvgs) / overall
	if weekly > WeeklySeasonalityThreshold {
		res.Pattern = PatternWeekly
		res.Score = weekly
		res.PeakWeekday = peakWeekday(res.WeekdayAverages)
		return res
	}

	monthly := StdDev(periodAvgs) / overall
	if monthly > MonthlySeasonalityThreshold {
		res.Pattern = PatternMonthly
		res.Score = monthly
		return res
	}

	res.Score = weekly
	return res
}

// averages fills dst with sum/count per bucket and returns the averages of
// the buckets that had data
func averages(sum, count, dst []float64) []float64 {
	var present []float64
	for i := range sum {
		if count[i] == 0 {
			continue
		}
		dst[i] = sum[i] / count[i]
		present = append(present, dst[i])
	}
	return present
}

func monthThird(day int) int {
	switch {
	case day <= 10:
		return 0
	case day <= 20:
		return 1
	default:
		return 2
	}
}

func peakWeekday(avgs [7]float64) time.Weekday {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	sort.SliceStable(days, func(i, j int) bool { return avgs[days[i]] > avgs[days[j]] })
	return days[0]
}

// DailySeries buckets observations into a dense per-day series of length
// days starting at start's date. Observations outside the range are ignored.
func DailySeries(obs []Observation, start time.Time, days int) []float64 {
	if days <= 0 {
		return []float64{}
	}
	out := make([]float64, days)
	first := dateOf(start)
	for _, o := range obs {
		idx := daysBetween(first, dateOf(o.Date.In(start.Location())))
		if idx >= 0 && idx < days {
			out[idx] += o.Quantity
		}
	}
	return out
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	// calendar arithmetic in UTC avoids DST-length days
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
