package app

import (
	"context"
	"testing"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
	"ga4dash/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSegmentService(tables ...*mart.Table) *SegmentService {
	return NewSegmentService(dataset.NewStaticStore("memory", tables...), 0.95, 0.05, nil)
}

func TestResolveSchema(t *testing.T) {
	schema, err := ResolveSchema(mart.FunnelDevice, nil)
	require.NoError(t, err)
	assert.Equal(t, "device_category", schema.LabelColumn)

	override := &mart.SegmentSchema{LabelColumn: "a", TotalColumn: "b", RateColumn: "c"}
	schema, err = ResolveSchema(mart.FunnelDevice, override)
	require.NoError(t, err)
	assert.Equal(t, *override, schema)

	schema, err = ResolveSchema(mart.FunnelDevice, &mart.SegmentSchema{})
	require.NoError(t, err)
	assert.Equal(t, "device_category", schema.LabelColumn)

	_, err = ResolveSchema(mart.CartAbandon, nil)
	assert.ErrorIs(t, err, core.ErrInvalidValue)
}

func TestSegmentService_Segments(t *testing.T) {
	svc := newTestSegmentService(browsingTable())

	report, err := svc.Segments(context.Background(), mart.BrowsingStyle, nil)
	require.NoError(t, err)
	assert.Equal(t, mart.BrowsingStyle, report.Mart)
	assert.Len(t, report.Segments, 3)
	assert.Equal(t, "Variety Seeker", report.Summary.Best)

	_, err = svc.Segments(context.Background(), mart.DeepSpecialists, nil)
	assert.ErrorIs(t, err, core.ErrMartNotFound)
}

func TestSegmentService_Compare(t *testing.T) {
	svc := newTestSegmentService(browsingTable())

	cmp, err := svc.Compare(context.Background(), mart.BrowsingStyle, "Variety Seeker", "Deep Specialist", nil)
	require.NoError(t, err)

	assert.Equal(t, "Variety Seeker", cmp.A.Label)
	assert.Equal(t, "Deep Specialist", cmp.B.Label)
	assert.InDelta(t, 77.1046420, cmp.Test.Statistic, 1e-6)
	assert.Equal(t, 1, cmp.Test.DegreesOfFreedom)
	assert.Less(t, cmp.Test.PValue, 0.001)
	assert.True(t, cmp.Significant)
	assert.InDelta(t, 0.4201655, cmp.CohensH, 1e-6)
	assert.Equal(t, stats.EffectMedium, cmp.Effect)
	assert.InDelta(t, 10.5, cmp.DifferencePts, 1e-9)
	assert.InDelta(t, 420.0, cmp.LiftPct, 1e-9)
	assert.False(t, cmp.IntervalsOverlap)
	assert.Equal(t, 0.05, cmp.Alpha)
}

func TestSegmentService_CompareIsSymmetricInTestAndEffect(t *testing.T) {
	svc := newTestSegmentService(browsingTable())
	ctx := context.Background()

	ab, err := svc.Compare(ctx, mart.BrowsingStyle, "Variety", "Deep", nil)
	require.NoError(t, err)
	ba, err := svc.Compare(ctx, mart.BrowsingStyle, "Deep", "Variety", nil)
	require.NoError(t, err)

	assert.InDelta(t, ab.Test.Statistic, ba.Test.Statistic, 1e-9)
	assert.InDelta(t, ab.Test.PValue, ba.Test.PValue, 1e-12)
	assert.InDelta(t, ab.CohensH, ba.CohensH, 1e-12)
	assert.InDelta(t, ab.DifferencePts, -ba.DifferencePts, 1e-9)
}

func TestSegmentService_CompareUnknownSegment(t *testing.T) {
	svc := newTestSegmentService(browsingTable())

	_, err := svc.Compare(context.Background(), mart.BrowsingStyle, "Variety", "Bargain Hunter", nil)
	assert.ErrorIs(t, err, core.ErrSegmentNotFound)
}

func TestSegmentService_CompareCounts(t *testing.T) {
	svc := newTestSegmentService()

	cmp, err := svc.CompareCounts(
		stats.SegmentOutcome{Label: "control", Successes: 10, Total: 100},
		stats.SegmentOutcome{Label: "variant", Successes: 20, Total: 100},
	)
	require.NoError(t, err)
	assert.InDelta(t, 3.9215686, cmp.Test.Statistic, 1e-6)
	assert.InDelta(t, 0.0476704, cmp.Test.PValue, 1e-6)
	assert.True(t, cmp.Significant)
	assert.InDelta(t, -50.0, cmp.LiftPct, 1e-9)

	_, err = svc.CompareCounts(
		stats.SegmentOutcome{Label: "a", Successes: 0, Total: 100},
		stats.SegmentOutcome{Label: "b", Successes: 0, Total: 50},
	)
	assert.True(t, core.IsDegenerateError(err))

	_, err = svc.CompareCounts(
		stats.SegmentOutcome{Label: "a", Successes: 120, Total: 100},
		stats.SegmentOutcome{Label: "b", Successes: 1, Total: 50},
	)
	assert.True(t, core.IsInputError(err))
}

func TestSegmentService_Independence(t *testing.T) {
	svc := newTestSegmentService(browsingTable())

	report, err := svc.Independence(context.Background(), mart.BrowsingStyle, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Test.DegreesOfFreedom)
	assert.InDelta(t, 119.9715066, report.Test.Statistic, 1e-6)
	assert.True(t, report.Significant)
	assert.Len(t, report.Segments, 3)
}

func TestSegmentService_IndependenceSingleSegment(t *testing.T) {
	table := browsingTable()
	table.Records = table.Records[:1]
	svc := newTestSegmentService(table)

	_, err := svc.Independence(context.Background(), mart.BrowsingStyle, nil)
	assert.True(t, core.IsDegenerateError(err))
}
