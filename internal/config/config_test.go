package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup. Stand-in for testing.T.Chdir,
// which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	// Chdir into an empty dir so no config.yaml is picked up.
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NFCS 2012 State Data 130503.csv", cfg.Data.RawPath)
	assert.Equal(t, "cleaned_data_2012/cleaned_NFCS_2012.csv", cfg.Data.CleanedPath)
	assert.Empty(t, cfg.Codebook.Path)
	assert.Equal(t, ".", cfg.Report.ChartDir)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "nfcs_reports.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	doc := `
data:
  raw_path: raw/export.xlsx
report:
  chart_dir: charts
store:
  enabled: false
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(doc), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "raw/export.xlsx", cfg.Data.RawPath)
	assert.Equal(t, "charts", cfg.Report.ChartDir)
	assert.False(t, cfg.Store.Enabled)
	// Untouched keys keep their defaults.
	assert.Equal(t, "cleaned_data_2012/cleaned_NFCS_2012.csv", cfg.Data.CleanedPath)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NFCS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
