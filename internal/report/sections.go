package report

import (
	"context"
	"fmt"

	"ga4dash/app"
	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
	"ga4dash/internal/profiling"
)

// cartAbandonTop is how many lost-revenue items the executive view lists
const cartAbandonTop = 5

func headlineSection(ctx context.Context, g *generation, w *writer) error {
	funnel, err := g.funnelReport(ctx)
	if err != nil {
		return err
	}
	if ov := funnel.Overview; ov != nil {
		w.line("- **Sessions:** %d", ov.TotalSessions)
		w.line("- **Purchases:** %d", ov.Purchases)
		w.line("- **Overall conversion:** %.2f%% (%s)", ov.PurchasePct, intervalText(w, ov.Interval))
	} else {
		w.line("- Overall totals unavailable: mart `%s` is not loaded.", mart.FunnelOverall)
	}
	if len(funnel.Bottlenecks) > 0 {
		top := funnel.Bottlenecks[0]
		w.line("- **Largest drop-off:** %s, %.1f%% of %d sessions lost", cell(top.Step), top.DropRatePct, top.From)
	}
	return nil
}

func segmentContrastSection(key core.MartKey) func(context.Context, *generation, *writer) error {
	return func(ctx context.Context, g *generation, w *writer) error {
		svc := g.svc.segments
		report, err := svc.Segments(ctx, key, nil)
		if err != nil {
			return err
		}
		best, err := app.FindSegment(report.Segments, report.Summary.Best)
		if err != nil {
			return err
		}
		worst, err := app.FindSegment(report.Segments, report.Summary.Worst)
		if err != nil {
			return err
		}
		cmp, err := svc.CompareSegments(best, worst)
		if err != nil {
			return err
		}
		w.line("Highest against lowest converting segment in `%s`:", key)
		w.blank()
		writeComparison(w, cmp)
		return nil
	}
}

func cartAbandonSection(ctx context.Context, g *generation, w *writer) error {
	rows, err := app.TopRows(ctx, g.svc.source, mart.CartAbandon, "total_lost_revenue", cartAbandonTop)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return core.NewDegenerateTableError("cart_abandon has no revenue rows")
	}
	total := 0.0
	table := make([][]string, len(rows))
	for i, r := range rows {
		total += r.Value
		name := r.Record["item_name"]
		if name == "" {
			name = fmt.Sprintf("row %d", i+1)
		}
		table[i] = []string{name, w.sprintf("$%.0f", r.Value)}
	}
	w.line("Top %d items by revenue lost in abandoned carts, $%.0f combined:", len(rows), total)
	w.blank()
	w.table([]string{"Item", "Lost revenue"}, table)
	return nil
}

func segmentValidationSection(key core.MartKey) func(context.Context, *generation, *writer) error {
	return func(ctx context.Context, g *generation, w *writer) error {
		svc := g.svc.segments
		report, err := svc.Segments(ctx, key, nil)
		if err != nil {
			return err
		}
		writeSegmentTable(w, report.Segments, svc.Confidence())

		sum := report.Summary
		w.line("Pooled conversion %.2f%% over %d sessions; segment rates range %.2f%% to %.2f%% (median %.2f%%).",
			sum.PooledRatePct, sum.TotalSessions, sum.MinRatePct, sum.MaxRatePct, sum.MedianRatePct)
		w.blank()

		ind, err := svc.Independence(ctx, key, nil)
		if err != nil {
			return err
		}
		verdict := "no evidence that conversion depends on segment"
		if ind.Significant {
			verdict = "conversion depends on segment"
		}
		w.line("Independence test across %d segments: χ² = %.2f, dof %d, p-value %s, %s at α = %.2f.",
			len(ind.Segments), ind.Test.Statistic, ind.Test.DegreesOfFreedom, formatP(ind.Test.PValue), verdict, ind.Alpha)
		return nil
	}
}

func overallFunnelSection(ctx context.Context, g *generation, w *writer) error {
	funnel, err := g.funnelReport(ctx)
	if err != nil {
		return err
	}
	ov := funnel.Overview
	if ov == nil {
		return fmt.Errorf("%w: %s", core.ErrMartNotFound, mart.FunnelOverall)
	}
	w.line("%d sessions, %d purchases, %.2f%% overall conversion (%s).",
		ov.TotalSessions, ov.Purchases, ov.PurchasePct, intervalText(w, ov.Interval))
	w.blank()
	writeStepTable(w, ov.Stages)
	return nil
}

func dropoffSection(ctx context.Context, g *generation, w *writer) error {
	funnel, err := g.funnelReport(ctx)
	if err != nil {
		return err
	}
	writeStepTable(w, funnel.Steps)
	return nil
}

func bottleneckSection(ctx context.Context, g *generation, w *writer) error {
	funnel, err := g.funnelReport(ctx)
	if err != nil {
		return err
	}
	if len(funnel.Bottlenecks) == 0 {
		return core.NewDegenerateTableError("funnel has no steps")
	}
	for i, b := range funnel.Bottlenecks {
		w.line("%d. **%s**: %.1f%% drop (%d of %d sessions lost)", i+1, cell(b.Step), b.DropRatePct, b.Dropped, b.From)
	}
	return nil
}

func methodologySection(_ context.Context, g *generation, w *writer) error {
	conf := g.svc.segments.Confidence()
	w.line("**Chi-square test of independence.** Each segment contributes a row [conversions, non-conversions]. " +
		"The Pearson statistic Σ(O−E)²/E is compared with a chi-square distribution with r−1 degrees of freedom. " +
		"No continuity correction is applied.")
	w.blank()
	w.line("**Wilson score interval.** For p = x/n and z the two-sided normal quantile at %.0f%% confidence: "+
		"centre = (p + z²/2n)/(1 + z²/n), margin = z·√(p(1−p)/n + z²/4n²)/(1 + z²/n). "+
		"Bounds are clamped to [0, 100%%]; an empty segment reports (0, 0, 0).", conf*100)
	w.blank()
	w.line("**Cohen's h.** h = |2·asin√p₁ − 2·asin√p₂|, the effect size for a difference between two proportions.")
	w.blank()
	w.line("Conversion counts are derived from reported rates as ⌊sessions × rate / 100⌋.")
	return nil
}

func thresholdSection(_ context.Context, g *generation, w *writer) error {
	w.line("- Significance level α = %.2f", g.svc.segments.Alpha())
	w.line("- Confidence level %.0f%%", g.svc.segments.Confidence()*100)
	w.blank()
	small := stats.SmallEffect / 2
	medium := (stats.SmallEffect + stats.MediumEffect) / 2
	large := (stats.MediumEffect + stats.LargeEffect) / 2
	w.table([]string{"Cohen's h", "Effect"}, [][]string{
		{w.sprintf("below %.2f", small), string(stats.EffectNegligible)},
		{w.sprintf("%.2f to %.2f (benchmark %.1f)", small, medium, stats.SmallEffect), string(stats.EffectSmall)},
		{w.sprintf("%.2f to %.2f (benchmark %.1f)", medium, large, stats.MediumEffect), string(stats.EffectMedium)},
		{w.sprintf("%.2f and above (benchmark %.1f)", large, stats.LargeEffect), string(stats.EffectLarge)},
	})
	return nil
}

func coverageSection(ctx context.Context, g *generation, w *writer) error {
	available, err := g.svc.source.Available(ctx)
	if err != nil {
		return err
	}
	loaded := make(map[core.MartKey]bool, len(available))
	for _, k := range available {
		loaded[k] = true
	}
	rows := make([][]string, 0, len(mart.Files))
	for _, k := range mart.Keys() {
		status := "missing"
		if loaded[k] {
			status = "loaded"
		}
		rows = append(rows, []string{k.String(), mart.Files[k], status})
	}
	w.line("%d of %d marts loaded.", len(available), len(mart.Files))
	w.blank()
	w.table([]string{"Mart", "File", "Status"}, rows)
	return nil
}

func dataQualitySection(ctx context.Context, g *generation, w *writer) error {
	available, err := g.svc.source.Available(ctx)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return core.ErrMartNotFound
	}
	loaded := make(map[core.MartKey]bool, len(available))
	for _, k := range available {
		loaded[k] = true
	}

	profiler := profiling.NewDataProfiler()
	rows := make([][]string, 0, len(available))
	for _, k := range mart.Keys() {
		if !loaded[k] {
			continue
		}
		table, err := g.svc.source.Table(ctx, k)
		if err != nil {
			return err
		}
		var schema *mart.SegmentSchema
		if s, ok := mart.SchemaFor(k); ok {
			schema = &s
		}
		p := profiler.ProfileTable(table, schema)

		passed, issues := 0, "none"
		for _, c := range p.Checks {
			if c.Passed {
				passed++
			} else if issues == "none" {
				issues = c.Detail
			} else {
				issues += "; " + c.Detail
			}
		}
		rows = append(rows, []string{
			k.String(),
			w.sprintf("%d", p.Rows),
			fmt.Sprintf("%d/%d", passed, len(p.Checks)),
			issues,
		})
	}
	w.line("Missing values, type consistency, duplicates, IQR outliers and segment sizes (n ≥ %d) per loaded mart.", profiling.MinSegmentSessions)
	w.blank()
	w.table([]string{"Mart", "Rows", "Checks", "Issues"}, rows)
	return nil
}

func writeSegmentTable(w *writer, segments []app.Segment, confidence float64) {
	rows := make([][]string, len(segments))
	for i, s := range segments {
		rows[i] = []string{
			s.Label,
			w.sprintf("%d", s.Outcome.Total),
			w.sprintf("%d", s.Outcome.Successes),
			w.sprintf("%.2f%%", s.ReportedRatePct),
			w.sprintf("%.2f%% to %.2f%%", s.Interval.LowerPct, s.Interval.UpperPct),
		}
	}
	w.table([]string{"Segment", "Sessions", "Conversions", "Rate", w.sprintf("%.0f%% CI", confidence*100)}, rows)
}

func writeStepTable(w *writer, steps []app.FunnelStep) {
	rows := make([][]string, len(steps))
	for i, s := range steps {
		rows[i] = []string{
			s.Step,
			w.sprintf("%d", s.From),
			w.sprintf("%d", s.To),
			w.sprintf("%.1f%%", s.ConversionPct),
			w.sprintf("%.1f%%", s.DropRatePct),
			string(s.Severity),
			w.sprintf("%.1f%% to %.1f%%", s.Interval.LowerPct, s.Interval.UpperPct),
		}
	}
	w.table([]string{"Step", "From", "To", "Conversion", "Drop", "Severity", "Interval"}, rows)
}

func writeComparison(w *writer, c *app.Comparison) {
	verdict := "not statistically significant"
	if c.Significant {
		verdict = "statistically significant"
	}
	overlap := "no"
	if c.IntervalsOverlap {
		overlap = "yes"
	}
	w.line("**%s vs %s**", cell(c.A.Label), cell(c.B.Label))
	w.blank()
	w.line("- Conversion: %.2f%% vs %.2f%% (%+.2f pts, lift %+.1f%%)", c.A.ReportedRatePct, c.B.ReportedRatePct, c.DifferencePts, c.LiftPct)
	w.line("- χ² = %.2f, p-value %s: %s at α = %.2f", c.Test.Statistic, formatP(c.Test.PValue), verdict, c.Alpha)
	w.line("- Cohen's h = %.3f (%s effect)", c.CohensH, c.Effect)
	w.line("- Intervals overlap: %s", overlap)
}

func intervalText(w *writer, i stats.Interval) string {
	return w.sprintf("%.0f%% CI %.2f%% to %.2f%%", i.Confidence*100, i.LowerPct, i.UpperPct)
}
