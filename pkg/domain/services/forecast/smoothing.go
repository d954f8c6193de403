package forecast

import (
	"math"
	"sort"
)

// EWMA returns the exponentially weighted moving average of series.
// An alpha outside (0, 1] falls back to DefaultAlpha.
func EWMA(series []float64, alpha float64) []float64 {
	if len(series) == 0 {
		return []float64{}
	}
	if alpha <= 0 || alpha > 1 || math.IsNaN(alpha) {
		alpha = DefaultAlpha
	}

	out := make([]float64, len(series))
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Regression is a least-squares line fitted over the series index
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// Predict evaluates the fitted line at x
func (r Regression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// LinearRegression fits y = intercept + slope*x with x = 0..n-1.
// R² is 0 when the series is flat; fewer than two points give a flat line.
func LinearRegression(series []float64) Regression {
	n := len(series)
	switch n {
	case 0:
		return Regression{}
	case 1:
		return Regression{Intercept: series[0]}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	nf := float64(n)
	denom := nf*sumX2 - sumX*sumX
	if denom == 0 {
		return Regression{Intercept: sumY / nf}
	}

	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf

	mean := sumY / nf
	var ssTot, ssRes float64
	for i, y := range series {
		pred := intercept + slope*float64(i)
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - mean) * (y - mean)
	}
	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Regression{Slope: slope, Intercept: intercept, RSquared: r2}
}

// OutlierResult splits a series into kept and removed values
type OutlierResult struct {
	Cleaned  []float64
	Outliers []float64
}

// RemoveOutliers drops values outside the IQR fences. Series shorter than
// MinOutlierPoints are returned unchanged. Kept values keep their order.
func RemoveOutliers(series []float64) OutlierResult {
	if len(series) < MinOutlierPoints {
		cleaned := make([]float64, len(series))
		copy(cleaned, series)
		return OutlierResult{Cleaned: cleaned, Outliers: []float64{}}
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[int(math.Floor(float64(n)*0.25))]
	q3 := sorted[int(math.Floor(float64(n)*0.75))]
	iqr := q3 - q1
	lower := q1 - IQRMultiplier*iqr
	upper := q3 + IQRMultiplier*iqr

	res := OutlierResult{
		Cleaned:  make([]float64, 0, n),
		Outliers: []float64{},
	}
	for _, v := range series {
		if v < lower || v > upper {
			res.Outliers = append(res.Outliers, v)
		} else {
			res.Cleaned = append(res.Cleaned, v)
		}
	}
	return res
}

// Mean returns the arithmetic mean, 0 for an empty series
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// StdDev returns the population standard deviation, 0 for an empty series
func StdDev(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	mean := Mean(series)
	var ss float64
	for _, v := range series {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(series)))
}
