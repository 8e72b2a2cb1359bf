package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwell-group/nfcs-cli/internal/config"
)

const rawFixture = `NFCSID,STATEQ,CENSUSREG,CENSUSDIV,A3,A3a,A5_2012,M6,M7,M8,M9,M10,UNUSED
1001,1,1,1,1,70,5,1,1,2,1,2,
1002,5,4,9,2,23,2,1,98,2,1,2,
1003,12,3,5,1,45,99,2,1,1,2,1,
1004,44,4,8,2,999,4,1,1,2,1,2,
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	rawPath := filepath.Join(dir, "raw.csv")
	require.NoError(t, os.WriteFile(rawPath, []byte(rawFixture), 0o644))

	return &config.Config{
		Data: config.DataConfig{
			RawPath:     rawPath,
			CleanedPath: filepath.Join(dir, "cleaned", "cleaned_NFCS_2012.csv"),
		},
		Report: config.ReportConfig{ChartDir: filepath.Join(dir, "charts")},
		Store: config.StoreConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "runs.db"),
		},
		Log: config.LogConfig{Level: "info", Format: "console"},
	}
}

func TestRunCleanWritesLabeledDataset(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, runClean(cfg))

	data, err := os.ReadFile(cfg.Data.CleanedPath)
	require.NoError(t, err)
	out := string(data)

	// Friendly headers and mapped labels.
	assert.Contains(t, out, "Gender")
	assert.Contains(t, out, "Education")
	assert.Contains(t, out, "Q_Interest")
	assert.Contains(t, out, "Male")
	assert.Contains(t, out, "Female")
	assert.Contains(t, out, "More than $102")
	assert.Contains(t, out, "Prefer not to say")
	// The all-empty column is pruned.
	assert.NotContains(t, out, "UNUSED")
}

func TestRunCleanMissingInputIsFatal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Data.RawPath = filepath.Join(t.TempDir(), "absent.csv")
	assert.Error(t, runClean(cfg))
}

func TestRunReportRendersChartsAndPersists(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, runClean(cfg))
	require.NoError(t, runReport(context.Background(), cfg))

	for _, name := range []string{
		"literacy_by_age.png",
		"literacy_by_gender.png",
		"literacy_by_age_gender.png",
		"literacy_by_region.png",
		"literacy_by_division.png",
		"literacy_boxplot_region.png",
		"literacy_boxplot_division.png",
	} {
		info, err := os.Stat(filepath.Join(cfg.Report.ChartDir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}

	_, err := os.Stat(cfg.Store.Path)
	assert.NoError(t, err)
}

func TestRunReportSkipsMissingGroupings(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Store.Enabled = false

	// Cleaned dataset with no geographic or age columns at all.
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Data.CleanedPath), 0o755))
	cleaned := strings.Join([]string{
		"Gender,Q_Interest,Q_Inflation,Q_Bonds,Q_Risk,Q_Mortgage",
		"Male,More than $102,More than today,Fall,True,False",
		"Female,Don't know,More than today,Fall,True,False",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(cfg.Data.CleanedPath, []byte(cleaned), 0o644))

	require.NoError(t, runReport(context.Background(), cfg))

	// Only the gender chart can be produced.
	_, err := os.Stat(filepath.Join(cfg.Report.ChartDir, "literacy_by_gender.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Report.ChartDir, "literacy_by_region.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(cfg.Report.ChartDir, "literacy_by_age.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunReportMissingCleanedDatasetIsFatal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	assert.Error(t, runReport(context.Background(), cfg))
}
