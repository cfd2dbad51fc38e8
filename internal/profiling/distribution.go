package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
)

// NumericSummary holds the descriptive statistics of a numeric column
type NumericSummary struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes summary statistics, skewness and the IQR outlier count
func (da *DistributionAnalyzer) Summarize(data []float64) (*NumericSummary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}

	// Quartiles for IQR-based outlier detection. Quartile splits around the
	// median and needs two values; a single value is its own quartiles.
	q25, q75 := median, median
	if len(data) > 1 {
		quartiles, err := stats.Quartile(data)
		if err != nil {
			return nil, err
		}
		q25, q75 = quartiles.Q1, quartiles.Q3
	}

	return &NumericSummary{
		Mean:     mean,
		StdDev:   stdDev,
		Min:      min,
		Max:      max,
		Median:   median,
		Q25:      q25,
		Q75:      q75,
		Skewness: calculateSkewness(data, mean, stdDev),
		Outliers: detectOutliers(data, q25, q75),
	}, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	// Bias correction for sample skewness
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
