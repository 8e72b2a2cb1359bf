package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwell-group/nfcs-cli/internal/summary"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.CreateRun(ctx, "cleaned_NFCS_2012.csv")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, s.FinishRun(ctx, runID, RunStatusComplete))

	err = s.FinishRun(ctx, "no-such-run", RunStatusFailed)
	assert.Error(t, err)
}

func TestSaveTable(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.CreateRun(ctx, "cleaned_NFCS_2012.csv")
	require.NoError(t, err)

	tbl := &summary.Table{
		Title:    "Literacy by Age Group",
		KeyNames: []string{"Age_group"},
		Rows: []summary.Row{
			{Keys: []string{"18-24"}, N: 120, Mean: 1.9, Std: 1.2, SE: 0.11},
			{Keys: []string{"65+"}, N: 210, Mean: 3.1, Std: 1.1, SE: 0.08},
		},
	}
	require.NoError(t, s.SaveTable(ctx, runID, tbl))

	multi := &summary.Table{
		Title:    "Literacy by Age and Gender",
		KeyNames: []string{"Age_group", "Gender"},
		Rows: []summary.Row{
			{Keys: []string{"18-24", "Male"}, N: 60, Mean: 2.1, Std: 1.2, SE: 0.15},
		},
	}
	require.NoError(t, s.SaveTable(ctx, runID, multi))

	n, err := s.CountRows(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
