package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
	"ga4dash/internal/config"
	"ga4dash/internal/container"
	"ga4dash/internal/profiling"
	"ga4dash/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ga4dash-cli",
		Short:         "Conversion statistics and dashboard reports for the GA4 marts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newChiSquareCmd(),
		newWilsonCmd(),
		newCohensHCmd(),
		newCompareCmd(),
		newIndependenceCmd(),
		newProfileCmd(),
		newReportCmd(),
	)
	return rootCmd
}

func newChiSquareCmd() *cobra.Command {
	var yates bool
	var alpha float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chisq [successes-a] [total-a] [successes-b] [total-b]",
		Short: "Chi-square test of independence for two conversion counts",
		Long: `Run a Pearson chi-square test on the 2×2 table of two groups.

Example: ga4dash-cli chisq 130 1000 25 1000`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseInts(args)
			if err != nil {
				return err
			}
			outcomes := []stats.SegmentOutcome{
				{Label: "A", Successes: counts[0], Total: counts[1]},
				{Label: "B", Successes: counts[2], Total: counts[3]},
			}
			var opts []stats.TestOption
			if yates {
				opts = append(opts, stats.WithContinuityCorrection())
			}
			result, err := stats.IndependenceTest(outcomes, opts...)
			if err != nil {
				return err
			}
			h, err := stats.CohensHForOutcomes(outcomes[0], outcomes[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]interface{}{
					"test":        result,
					"alpha":       alpha,
					"significant": result.Significant(alpha),
					"cohens_h":    h,
					"effect":      stats.ClassifyEffect(h),
				})
			}
			fmt.Fprintf(out, "A: %d/%d (%.2f%%)  B: %d/%d (%.2f%%)\n",
				counts[0], counts[1], outcomes[0].RatePct(), counts[2], counts[3], outcomes[1].RatePct())
			fmt.Fprintf(out, "chi2 = %.4f  dof = %d  p = %.6g\n", result.Statistic, result.DegreesOfFreedom, result.PValue)
			fmt.Fprintf(out, "significant at alpha=%.2f: %t\n", alpha, result.Significant(alpha))
			fmt.Fprintf(out, "Cohen's h = %.4f (%s)\n", h, stats.ClassifyEffect(h))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yates, "yates", false, "Apply Yates' continuity correction")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newWilsonCmd() *cobra.Command {
	var confidence float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "wilson [successes] [total]",
		Short: "Wilson score interval for a conversion rate",
		Long: `Compute the Wilson score interval, in percent.

Example: ga4dash-cli wilson 130 1000 --confidence 0.99`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseInts(args)
			if err != nil {
				return err
			}
			interval, err := stats.WilsonInterval(counts[0], counts[1], confidence)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, interval)
			}
			fmt.Fprintf(out, "rate = %.4f%%  %.0f%% CI [%.4f%%, %.4f%%]\n",
				interval.EstimatePct, confidence*100, interval.LowerPct, interval.UpperPct)
			return nil
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", stats.DefaultConfidence, "Confidence level in (0, 1)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newCohensHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cohensh [p1] [p2]",
		Short: "Cohen's h effect size for two proportions in [0, 1]",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := make([]float64, 2)
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("%w: %q is not a number", core.ErrInvalidProportion, a)
				}
				p[i] = v
			}
			h, err := stats.CohensH(p[0], p[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "h = %.4f (%s)\n", h, stats.ClassifyEffect(h))
			return nil
		},
	}
	return cmd
}

func newCompareCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare [mart] [segment-a] [segment-b]",
		Short: "Compare two segments of a mart",
		Long: `Compare two segments of a mart with the chi-square test, Cohen's h and
Wilson intervals. Marts are located with MART_PATHS or MART_WORKBOOK.

Example: ga4dash-cli compare browsing_style Variety Deep`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ParseMartKey(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer()
			if err != nil {
				return err
			}
			cmp, err := c.Segments.Compare(cmd.Context(), key, args[1], args[2], nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, cmp)
			}
			fmt.Fprintf(out, "%s: %d/%d, %.2f%% [%.2f%%, %.2f%%]\n", cmp.A.Label,
				cmp.A.Outcome.Successes, cmp.A.Outcome.Total, cmp.A.ReportedRatePct, cmp.A.Interval.LowerPct, cmp.A.Interval.UpperPct)
			fmt.Fprintf(out, "%s: %d/%d, %.2f%% [%.2f%%, %.2f%%]\n", cmp.B.Label,
				cmp.B.Outcome.Successes, cmp.B.Outcome.Total, cmp.B.ReportedRatePct, cmp.B.Interval.LowerPct, cmp.B.Interval.UpperPct)
			fmt.Fprintf(out, "chi2 = %.4f  p = %.6g  significant: %t\n", cmp.Test.Statistic, cmp.Test.PValue, cmp.Significant)
			fmt.Fprintf(out, "Cohen's h = %.4f (%s)  lift = %+.1f%%\n", cmp.CohensH, cmp.Effect, cmp.LiftPct)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newIndependenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "independence [mart]",
		Short: "Test whether conversion is independent of segment across a mart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ParseMartKey(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer()
			if err != nil {
				return err
			}
			rep, err := c.Segments.Independence(cmd.Context(), key, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range rep.Segments {
				fmt.Fprintf(out, "%-24s %8d %7d %7.2f%%\n", s.Label, s.Outcome.Total, s.Outcome.Successes, s.ReportedRatePct)
			}
			fmt.Fprintf(out, "chi2 = %.4f  dof = %d  p = %.6g  significant: %t\n",
				rep.Test.Statistic, rep.Test.DegreesOfFreedom, rep.Test.PValue, rep.Significant)
			return nil
		},
	}
	return cmd
}

func newProfileCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile [mart]",
		Short: "Run the data quality checks on a mart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ParseMartKey(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer()
			if err != nil {
				return err
			}
			table, err := c.Store.Table(cmd.Context(), key)
			if err != nil {
				return err
			}
			var schema *mart.SegmentSchema
			if s, ok := mart.SchemaFor(key); ok {
				schema = &s
			}
			p := profiling.NewDataProfiler().ProfileTable(table, schema)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, p)
			}
			fmt.Fprintf(out, "%s: %d rows, %d duplicates\n", p.Mart, p.Rows, p.DuplicateRows)
			for _, col := range p.Columns {
				fmt.Fprintf(out, "  %-24s %-8s missing %5.1f%%  distinct %d\n", col.Name, col.Kind, col.MissingRate*100, col.Distinct)
			}
			for _, check := range p.Checks {
				mark := "ok  "
				if !check.Passed {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", mark, check.Name, check.Detail)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newReportCmd() *cobra.Command {
	var html bool
	var output string

	cmd := &cobra.Command{
		Use:   "report [variant]",
		Short: "Render a dashboard report (executive, segments, funnel, methodology)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := report.ParseVariant(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer()
			if err != nil {
				return err
			}
			rep, err := c.Reports.Generate(cmd.Context(), variant)
			if err != nil {
				return err
			}

			body := []byte(rep.Markdown())
			if html {
				body = rep.HTML()
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s report %s to %s\n", variant, rep.ID, output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of Markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func loadContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", core.ErrInvalidCount, a)
		}
		out[i] = n
	}
	return out, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
