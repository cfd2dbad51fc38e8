package app

import (
	"fmt"

	"ga4dash/domain/core"

	mstats "github.com/montanaflynn/stats"
)

// RateSummary describes the spread of conversion rates across segments
type RateSummary struct {
	Segments         int     `json:"segments"`
	TotalSessions    int     `json:"total_sessions"`
	TotalConversions int     `json:"total_conversions"`
	PooledRatePct    float64 `json:"pooled_rate_pct"`
	MeanRatePct      float64 `json:"mean_rate_pct"`
	MedianRatePct    float64 `json:"median_rate_pct"`
	StdDevRatePct    float64 `json:"stddev_rate_pct"`
	MinRatePct       float64 `json:"min_rate_pct"`
	MaxRatePct       float64 `json:"max_rate_pct"`
	Best             string  `json:"best"`
	Worst            string  `json:"worst"`
}

// Summarize computes descriptive statistics over the reported segment rates
// and the pooled rate over all sessions
func Summarize(segments []Segment) (RateSummary, error) {
	summary := RateSummary{Segments: len(segments)}
	if len(segments) == 0 {
		return summary, nil
	}

	rates := make([]float64, len(segments))
	best, worst := segments[0], segments[0]
	for i, s := range segments {
		rates[i] = s.ReportedRatePct
		summary.TotalSessions += s.Outcome.Total
		summary.TotalConversions += s.Outcome.Successes
		if s.ReportedRatePct > best.ReportedRatePct {
			best = s
		}
		if s.ReportedRatePct < worst.ReportedRatePct {
			worst = s
		}
	}

	var err error
	if summary.MeanRatePct, err = mstats.Mean(rates); err != nil {
		return summary, summaryError(err)
	}
	if summary.MedianRatePct, err = mstats.Median(rates); err != nil {
		return summary, summaryError(err)
	}
	if summary.StdDevRatePct, err = mstats.StandardDeviation(rates); err != nil {
		return summary, summaryError(err)
	}
	if summary.MinRatePct, err = mstats.Min(rates); err != nil {
		return summary, summaryError(err)
	}
	if summary.MaxRatePct, err = mstats.Max(rates); err != nil {
		return summary, summaryError(err)
	}
	if summary.TotalSessions > 0 {
		summary.PooledRatePct = float64(summary.TotalConversions) / float64(summary.TotalSessions) * 100
	}
	summary.Best = best.Label
	summary.Worst = worst.Label
	return summary, nil
}

func summaryError(err error) error {
	return fmt.Errorf("%w: summarizing rates: %v", core.ErrInvalidValue, err)
}
