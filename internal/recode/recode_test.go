package recode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwell-group/nfcs-cli/internal/codebook"
	"github.com/finwell-group/nfcs-cli/internal/frame"
)

func defaultRecoder(t *testing.T) *Recoder {
	t.Helper()
	reg, err := codebook.Default()
	require.NoError(t, err)
	return New(reg)
}

func TestCleanDemographics(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"A3", "A5", "A8"},
		[][]string{
			{"1", "99", "8"},
			{"2", "5", "98"},
		},
	)

	defaultRecoder(t).Clean(f)

	assert.Equal(t, "Male", f.Value(0, "Gender"))
	assert.Equal(t, "Female", f.Value(1, "Gender"))
	assert.Equal(t, "Prefer not to say", f.Value(0, "Education"))
	assert.Equal(t, "College graduate", f.Value(1, "Education"))
	assert.Equal(t, "$150k+", f.Value(0, "Household_Income"))
	assert.Equal(t, "Don't know", f.Value(1, "Household_Income"))
}

func TestCleanHeaderNormalizationAndAliases(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{" A5_2012 ", "A 3", "E4A"},
		[][]string{{"2", "1", "14"}},
	)

	defaultRecoder(t).Clean(f)

	assert.Equal(t, "High school diploma", f.Value(0, "Education"))
	assert.Equal(t, "Male", f.Value(0, "Gender"))
	assert.Equal(t, "2012", f.Value(0, "E4a"))
}

func TestCleanPrefixMaps(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"B20_1", "B20_12", "B22_3", "G25_1"},
		[][]string{{"1", "2", "3", "5"}},
	)

	defaultRecoder(t).Clean(f)

	assert.Equal(t, "Yes", f.Value(0, "B20_1"))
	assert.Equal(t, "No", f.Value(0, "B20_12"))
	assert.Equal(t, "Never", f.Value(0, "B22_3"))
	assert.Equal(t, "4+ times", f.Value(0, "G25_1"))
}

func TestCleanSentinels(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"M6", "M7", "F1"},
		[][]string{{"98", "99", "98"}},
	)

	defaultRecoder(t).Clean(f)

	assert.Equal(t, "Don't know", f.Value(0, "Q_Interest"))
	assert.Equal(t, "Prefer not to say", f.Value(0, "Q_Inflation"))
	assert.Equal(t, "Don't know", f.Value(0, "F1"))
}

func TestCleanSpecialColumns(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"E5", "A3a"},
		[][]string{
			{"-98", "999"},
			{"45", "70"},
			{"-99", "23"},
		},
	)

	defaultRecoder(t).Clean(f)

	// Only the sentinel codes become text; measurements survive.
	assert.Equal(t, "Don't know", f.Value(0, "E5"))
	assert.Equal(t, "45", f.Value(1, "E5"))
	assert.Equal(t, "Prefer not to say", f.Value(2, "E5"))
	assert.Equal(t, "Prefer not to say", f.Value(0, "Age"))
	assert.Equal(t, "70", f.Value(1, "Age"))
}

func TestCleanUnmappedCodesPassThrough(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"A3", "XYZ9"},
		[][]string{{"7", "42"}},
	)

	defaultRecoder(t).Clean(f)

	// 7 has no gender mapping; ungoverned columns are untouched.
	assert.Equal(t, "7", f.Value(0, "Gender"))
	assert.Equal(t, "42", f.Value(0, "XYZ9"))
}

func TestCleanBlankCellsBecomeMissing(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"A3", "GONE"},
		[][]string{
			{"   ", " "},
			{"2", "\t"},
		},
	)

	report := defaultRecoder(t).Clean(f)

	assert.Equal(t, "", f.Value(0, "Gender"))
	assert.Equal(t, "Female", f.Value(1, "Gender"))
	// GONE was blank in every row, so it is pruned.
	assert.False(t, f.HasColumn("GONE"))
	assert.Equal(t, []string{"GONE"}, report.DroppedColumns)
}

func TestCleanIdempotentOnOwnOutput(t *testing.T) {
	t.Parallel()

	f := frame.New(
		[]string{"A3", "A5", "M6"},
		[][]string{
			{"1", "99", "1"},
			{"2", "4", "98"},
		},
	)

	r := defaultRecoder(t)
	r.Clean(f)

	first := snapshot(f)
	r.Clean(f)
	assert.Equal(t, first, snapshot(f))
}

func snapshot(f *frame.Frame) map[string][]string {
	out := make(map[string][]string)
	for _, col := range f.Columns() {
		vals, _ := f.Column(col)
		out[col] = vals
	}
	return out
}

func TestCleanMissingColumnsSkipped(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{"UNRELATED"}, [][]string{{"1"}})

	report := defaultRecoder(t).Clean(f)

	assert.Empty(t, report.MappedColumns)
	assert.Equal(t, []string{"UNRELATED"}, f.Columns())
}

func TestSamples(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{"A"}, [][]string{
		{"x"}, {""}, {"y"}, {"x"}, {"z"},
	})

	assert.Equal(t, []string{"x", "y"}, Samples(f, "A", 2))
	assert.Equal(t, []string{"x", "y", "z"}, Samples(f, "A", 10))
	assert.Nil(t, Samples(f, "missing", 3))
}
