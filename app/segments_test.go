package app

import (
	"testing"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browsingTable() *mart.Table {
	return &mart.Table{
		Name:    mart.BrowsingStyle,
		Source:  "memory",
		Columns: []string{"browsing_style", "session_count", "conversion_rate"},
		Records: []mart.Record{
			{"browsing_style": "Variety Seeker", "session_count": "1000", "conversion_rate": "13.0"},
			{"browsing_style": "Deep Specialist", "session_count": "1000", "conversion_rate": "2.5"},
			{"browsing_style": "Casual Browser", "session_count": "500", "conversion_rate": "1.2"},
		},
	}
}

func TestOutcomeFromRate(t *testing.T) {
	tests := []struct {
		name      string
		sessions  int
		rate      float64
		successes int
	}{
		{"exact", 1000, 13.0, 130},
		{"truncates", 1000, 0.29, 2},
		{"absorbs representation error", 100000, 0.57, 570},
		{"truncates just below an integer", 1000, 56.999, 569},
		{"zero rate", 500, 0, 0},
		{"full rate", 40, 100, 40},
		{"zero sessions", 0, 12.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := OutcomeFromRate("seg", tt.sessions, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.successes, o.Successes)
			assert.Equal(t, tt.sessions, o.Total)
			assert.Equal(t, "seg", o.Label)
		})
	}
}

func TestOutcomeFromRate_Invalid(t *testing.T) {
	for _, rate := range []float64{-1, 100.5} {
		_, err := OutcomeFromRate("seg", 100, rate)
		assert.ErrorIs(t, err, core.ErrInvalidCount)
	}
	_, err := OutcomeFromRate("seg", -5, 10)
	assert.ErrorIs(t, err, core.ErrInvalidCount)
}

func TestExtractSegments(t *testing.T) {
	segments, err := ExtractSegments(browsingTable(), mart.Schemas[mart.BrowsingStyle], 0.95)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	variety := segments[0]
	assert.Equal(t, "Variety Seeker", variety.Label)
	assert.Equal(t, 130, variety.Outcome.Successes)
	assert.Equal(t, 1000, variety.Outcome.Total)
	assert.Equal(t, 13.0, variety.ReportedRatePct)
	assert.InDelta(t, 11.0563775, variety.Interval.LowerPct, 1e-6)
	assert.InDelta(t, 15.2268027, variety.Interval.UpperPct, 1e-6)

	assert.Equal(t, 6, segments[2].Outcome.Successes)
}

func TestExtractSegments_SuccessColumn(t *testing.T) {
	table := &mart.Table{
		Name:    mart.FunnelDropoff,
		Columns: []string{"step", "from_count", "to_count"},
		Records: []mart.Record{
			{"step": "view_to_cart", "from_count": "1,000", "to_count": "300"},
		},
	}
	segments, err := ExtractSegments(table, mart.Schemas[mart.FunnelDropoff], 0.95)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 300, segments[0].Outcome.Successes)
	assert.InDelta(t, 30.0, segments[0].ReportedRatePct, 1e-12)
}

func TestExtractSegments_Errors(t *testing.T) {
	_, err := ExtractSegments(browsingTable(), mart.SegmentSchema{LabelColumn: "browsing_style"}, 0.95)
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	schema := mart.Schemas[mart.BrowsingStyle]
	schema.RateColumn = "cvr"
	_, err = ExtractSegments(browsingTable(), schema, 0.95)
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	bad := browsingTable()
	bad.Records[1]["session_count"] = "lots"
	_, err = ExtractSegments(bad, mart.Schemas[mart.BrowsingStyle], 0.95)
	assert.ErrorIs(t, err, core.ErrInvalidValue)
	assert.Contains(t, err.Error(), "browsing_style")
}

func TestFindSegment(t *testing.T) {
	segments, err := ExtractSegments(browsingTable(), mart.Schemas[mart.BrowsingStyle], 0.95)
	require.NoError(t, err)

	s, err := FindSegment(segments, "deep specialist")
	require.NoError(t, err)
	assert.Equal(t, "Deep Specialist", s.Label)

	s, err = FindSegment(segments, "Variety")
	require.NoError(t, err)
	assert.Equal(t, "Variety Seeker", s.Label)

	_, err = FindSegment(segments, "Window Shopper")
	assert.ErrorIs(t, err, core.ErrSegmentNotFound)
	assert.True(t, core.IsNotFoundError(err))

	_, err = FindSegment(segments, "  ")
	assert.ErrorIs(t, err, core.ErrSegmentNotFound)
}

func TestSummarize(t *testing.T) {
	segments, err := ExtractSegments(browsingTable(), mart.Schemas[mart.BrowsingStyle], 0.95)
	require.NoError(t, err)

	summary, err := Summarize(segments)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Segments)
	assert.Equal(t, 2500, summary.TotalSessions)
	assert.Equal(t, 161, summary.TotalConversions)
	assert.InDelta(t, 6.44, summary.PooledRatePct, 1e-9)
	assert.InDelta(t, 5.5666667, summary.MeanRatePct, 1e-6)
	assert.InDelta(t, 2.5, summary.MedianRatePct, 1e-9)
	assert.InDelta(t, 5.2828864, summary.StdDevRatePct, 1e-6)
	assert.Equal(t, 1.2, summary.MinRatePct)
	assert.Equal(t, 13.0, summary.MaxRatePct)
	assert.Equal(t, "Variety Seeker", summary.Best)
	assert.Equal(t, "Casual Browser", summary.Worst)

	empty, err := Summarize(nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Segments)
}

func TestOutcomes(t *testing.T) {
	segments, err := ExtractSegments(browsingTable(), mart.Schemas[mart.BrowsingStyle], 0.95)
	require.NoError(t, err)
	outcomes := Outcomes(segments)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "Deep Specialist", outcomes[1].Label)
	assert.Equal(t, 25, outcomes[1].Successes)
}
