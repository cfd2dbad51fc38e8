package stats

import (
	"fmt"
	"math"

	"ga4dash/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a chi-square test of independence
type TestResult struct {
	Statistic        float64 `json:"statistic"`
	PValue           float64 `json:"p_value"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	Corrected        bool    `json:"continuity_corrected,omitempty"`
}

// Significant reports whether the p-value is below alpha
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// TestOption tunes IndependenceTest
type TestOption func(*testOptions)

type testOptions struct {
	continuityCorrection bool
}

// WithContinuityCorrection applies the Yates correction when the table has
// one degree of freedom. Tables with more rows are never corrected.
func WithContinuityCorrection() TestOption {
	return func(o *testOptions) {
		o.continuityCorrection = true
	}
}

// ContingencyTable is an r×2 table with one row per segment and the columns
// [successes, failures].
type ContingencyTable [][2]int

// NewContingencyTable builds the table from outcome counts, one row each
func NewContingencyTable(outcomes ...SegmentOutcome) (ContingencyTable, error) {
	table := make(ContingencyTable, 0, len(outcomes))
	for _, o := range outcomes {
		if err := o.validate(false); err != nil {
			return nil, err
		}
		table = append(table, [2]int{o.Successes, o.Failures()})
	}
	return table, nil
}

// DegreesOfFreedom returns (rows-1)*(cols-1)
func (t ContingencyTable) DegreesOfFreedom() int {
	return (len(t) - 1) * (2 - 1)
}

// ChiSquareTest compares the conversion rates of two groups with a Pearson
// chi-square test on the 2×2 table
//
//	[ successesA, totalA-successesA ]
//	[ successesB, totalB-successesB ]
//
// No continuity correction is applied.
func ChiSquareTest(successesA, totalA, successesB, totalB int) (TestResult, error) {
	return IndependenceTest([]SegmentOutcome{
		{Successes: successesA, Total: totalA},
		{Successes: successesB, Total: totalB},
	})
}

// IndependenceTest runs the Pearson chi-square test of independence over any
// number (>= 2) of segments. Degrees of freedom are len(outcomes)-1.
func IndependenceTest(outcomes []SegmentOutcome, opts ...TestOption) (TestResult, error) {
	table, err := NewContingencyTable(outcomes...)
	if err != nil {
		return TestResult{}, err
	}
	return table.ChiSquare(opts...)
}

// ChiSquare computes the Pearson statistic and its upper-tail p-value.
// A zero row or column total leaves an expected frequency of zero, which is
// reported as core.ErrDegenerateTable.
func (t ContingencyTable) ChiSquare(opts ...TestOption) (TestResult, error) {
	var o testOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(t) < 2 {
		return TestResult{}, core.NewDegenerateTableError(fmt.Sprintf("need at least 2 rows, got %d", len(t)))
	}

	rowTotals := make([]float64, len(t))
	var colTotals [2]float64
	grandTotal := 0.0
	for i, row := range t {
		for j, cell := range row {
			if cell < 0 {
				return TestResult{}, core.NewDegenerateTableError(fmt.Sprintf("negative cell at row %d", i))
			}
			rowTotals[i] += float64(cell)
			colTotals[j] += float64(cell)
		}
		if rowTotals[i] == 0 {
			return TestResult{}, core.NewDegenerateTableError(fmt.Sprintf("row %d has zero total", i))
		}
		grandTotal += rowTotals[i]
	}
	for j, name := range [2]string{"successes", "failures"} {
		if colTotals[j] == 0 {
			return TestResult{}, core.NewDegenerateTableError(fmt.Sprintf("column %s has zero total", name))
		}
	}

	dof := t.DegreesOfFreedom()
	correct := o.continuityCorrection && dof == 1

	statistic := 0.0
	for i, row := range t {
		for j, cell := range row {
			expected := rowTotals[i] * colTotals[j] / grandTotal
			diff := math.Abs(float64(cell) - expected)
			if correct {
				diff = math.Max(0, diff-0.5)
			}
			statistic += diff * diff / expected
		}
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	return TestResult{
		Statistic:        statistic,
		PValue:           chi.Survival(statistic),
		DegreesOfFreedom: dof,
		Corrected:        correct,
	}, nil
}
