package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeMarts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csv := "browsing_style,session_count,conversion_rate\nVariety Seeker,1000,13.0\nDeep Specialist,1000,2.5\nCasual Browser,500,1.2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, mart.ProbeFile), []byte(csv), 0o644))
	t.Setenv("MART_PATHS", dir)
	t.Setenv("MART_WORKBOOK", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	return dir
}

func TestChiSquareCommand(t *testing.T) {
	out, err := runCLI(t, "chisq", "130", "1000", "25", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "chi2 = 77.1046")
	assert.Contains(t, out, "dof = 1")
	assert.Contains(t, out, "significant at alpha=0.05: true")
	assert.Contains(t, out, "(medium)")
}

func TestChiSquareCommand_JSONAndYates(t *testing.T) {
	out, err := runCLI(t, "chisq", "10", "100", "20", "100", "--yates", "--json")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	test := body["test"].(map[string]interface{})
	assert.InDelta(t, 3.1764706, test["statistic"], 1e-6)
	assert.InDelta(t, 0.0747059, test["p_value"], 1e-6)
	assert.Equal(t, false, body["significant"])
}

func TestChiSquareCommand_Errors(t *testing.T) {
	_, err := runCLI(t, "chisq", "0", "100", "0", "50")
	assert.True(t, core.IsDegenerateError(err))

	_, err = runCLI(t, "chisq", "ten", "100", "0", "50")
	assert.ErrorIs(t, err, core.ErrInvalidCount)

	_, err = runCLI(t, "chisq", "1", "2")
	assert.Error(t, err)
}

func TestWilsonCommand(t *testing.T) {
	out, err := runCLI(t, "wilson", "130", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "rate = 13.0000%")
	assert.Contains(t, out, "95% CI [11.0564%, 15.2268%]")

	out, err = runCLI(t, "wilson", "0", "0", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"upper_pct": 0`)

	_, err = runCLI(t, "wilson", "5", "10", "--confidence", "1")
	assert.ErrorIs(t, err, core.ErrInvalidConfidence)
}

func TestCohensHCommand(t *testing.T) {
	out, err := runCLI(t, "cohensh", "0.13", "0.025")
	require.NoError(t, err)
	assert.Contains(t, out, "h = 0.4202 (medium)")

	_, err = runCLI(t, "cohensh", "1.3", "0.2")
	assert.ErrorIs(t, err, core.ErrInvalidProportion)
}

func TestCompareCommand(t *testing.T) {
	writeMarts(t)

	out, err := runCLI(t, "compare", "browsing_style", "Variety", "Deep")
	require.NoError(t, err)
	assert.Contains(t, out, "Variety Seeker: 130/1000, 13.00%")
	assert.Contains(t, out, "Deep Specialist: 25/1000, 2.50%")
	assert.Contains(t, out, "significant: true")

	_, err = runCLI(t, "compare", "browsing_style", "Variety", "Bargain")
	assert.ErrorIs(t, err, core.ErrSegmentNotFound)
}

func TestIndependenceCommand(t *testing.T) {
	writeMarts(t)

	out, err := runCLI(t, "independence", "browsing_style")
	require.NoError(t, err)
	assert.Contains(t, out, "dof = 2")
}

func TestReportCommand(t *testing.T) {
	writeMarts(t)

	out, err := runCLI(t, "report", "segments")
	require.NoError(t, err)
	assert.Contains(t, out, "# Segment Validation")
	assert.Contains(t, out, "Data unavailable")

	path := filepath.Join(t.TempDir(), "methodology.html")
	_, err = runCLI(t, "report", "methodology", "--html", "-o", path)
	require.NoError(t, err)
	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")

	_, err = runCLI(t, "report", "quarterly")
	assert.True(t, core.IsNotFoundError(err))
}

func TestProfileCommand(t *testing.T) {
	writeMarts(t)

	out, err := runCLI(t, "profile", "browsing_style")
	require.NoError(t, err)
	assert.Contains(t, out, "browsing_style: 3 rows, 0 duplicates")
	assert.Contains(t, out, "[ok  ] Segment sample size")

	out, err = runCLI(t, "profile", "browsing_style", "--json")
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body["checks"], 5)

	_, err = runCLI(t, "profile", "promo_quality")
	assert.True(t, core.IsNotFoundError(err))
}
