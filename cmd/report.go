package main

import (
	"context"
	"image/color"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finwell-group/nfcs-cli/internal/chart"
	"github.com/finwell-group/nfcs-cli/internal/config"
	"github.com/finwell-group/nfcs-cli/internal/frame"
	"github.com/finwell-group/nfcs-cli/internal/literacy"
	"github.com/finwell-group/nfcs-cli/internal/store"
	"github.com/finwell-group/nfcs-cli/internal/summary"
)

const scoreAxisLabel = "Average Literacy Score (0-5)"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize financial literacy across demographic and geographic groups",
	Long: `Loads the cleaned dataset, derives the 0-5 literacy score and age
groups, prints unweighted n/mean/std/se tables for age, gender,
age x gender, Census region, and Census division, and renders one chart
per grouping.

Groupings whose column is missing from the cleaned dataset are skipped
with a diagnostic; the rest of the report still runs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runReport(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(ctx context.Context, cfg *config.Config) (retErr error) {
	log := zap.L().With(zap.String("command", "report"))

	f, err := frame.ReadCSV(cfg.Data.CleanedPath)
	if err != nil {
		return eris.Wrapf(err, "report: load cleaned dataset %s", cfg.Data.CleanedPath)
	}
	log.Info("loaded cleaned dataset",
		zap.String("path", cfg.Data.CleanedPath),
		zap.Int("rows", f.NumRows()),
		zap.Int("columns", f.NumCols()),
	)

	scores := literacy.Scores(f)

	st, runID := openReportStore(ctx, cfg, log)
	if st != nil {
		defer func() {
			status := store.RunStatusComplete
			if retErr != nil {
				status = store.RunStatusFailed
			}
			if err := st.FinishRun(ctx, runID, status); err != nil {
				log.Warn("finish report run", zap.Error(err))
			}
			_ = st.Close()
		}()
	}

	persist := func(t *summary.Table) {
		if st == nil {
			return
		}
		if err := st.SaveTable(ctx, runID, t); err != nil {
			log.Warn("persist summary table", zap.String("table", t.Title), zap.Error(err))
		}
	}

	chartPath := func(name string) string {
		return filepath.Join(cfg.Report.ChartDir, name)
	}

	ageKey, hasAge := ageGroupKey(f)
	genderKey, hasGender := columnKey(f, "Gender")
	regionKey, hasRegion := columnKey(f, "Census_Region")
	divisionKey, hasDivision := columnKey(f, "Census_Division")

	// Age
	if hasAge {
		tbl, err := summary.Group("Literacy by Age Group", scores, ageKey)
		if err != nil {
			return eris.Wrap(err, "report: age grouping")
		}
		tbl.Print(os.Stdout, nil)
		persist(tbl)

		cats, means, ses := tableSeries(tbl, nil)
		if err := chart.LineWithErrorBars(
			"Financial Literacy by Age Group (NFCS 2012)",
			"Age Group", scoreAxisLabel,
			cats, means, ses, chartPath("literacy_by_age.png"),
		); err != nil {
			return eris.Wrap(err, "report: age chart")
		}
	} else {
		log.Warn("no Age or Age_Category_Code column, skipping age table and chart")
	}

	// Gender
	if hasGender {
		tbl, err := summary.Group("Literacy by Gender", scores, genderKey)
		if err != nil {
			return eris.Wrap(err, "report: gender grouping")
		}
		tbl.Print(os.Stdout, nil)
		persist(tbl)

		cats, means, ses := tableSeries(tbl, nil)
		if err := chart.Bar(
			"Financial Literacy by Gender (NFCS 2012)",
			"Gender", scoreAxisLabel,
			cats, means, ses, genderColors(cats), false,
			chartPath("literacy_by_gender.png"),
		); err != nil {
			return eris.Wrap(err, "report: gender chart")
		}
	} else {
		log.Warn("no Gender column, skipping gender table and chart")
	}

	// Age x Gender
	if hasAge && hasGender {
		tbl, err := summary.Group("Literacy by Age x Gender", scores, ageKey, genderKey)
		if err != nil {
			return eris.Wrap(err, "report: age x gender grouping")
		}
		tbl.Print(os.Stdout, nil)
		persist(tbl)

		cats, series := genderSeries(tbl)
		if err := chart.MultiLine(
			"Financial Literacy by Age and Gender (NFCS 2012)",
			"Age Group", scoreAxisLabel,
			cats, series, chartPath("literacy_by_age_gender.png"),
		); err != nil {
			return eris.Wrap(err, "report: age x gender chart")
		}
	}

	// Region
	if hasRegion {
		if err := geoSection(scores, regionKey, geoParams{
			tableTitle: "Literacy by Region",
			barTitle:   "Financial Literacy by Region (NFCS 2012)",
			boxTitle:   "Financial Literacy Distribution by Region (NFCS 2012)",
			axis:       "Region",
			labels:     summary.RegionLabels,
			barColor:   chart.SeaGreen,
			barPath:    chartPath("literacy_by_region.png"),
			boxPath:    chartPath("literacy_boxplot_region.png"),
		}, persist); err != nil {
			return err
		}
	} else {
		log.Warn("no Census_Region column, skipping region tables and charts")
	}

	// Division
	if hasDivision {
		if err := geoSection(scores, divisionKey, geoParams{
			tableTitle: "Literacy by Division",
			barTitle:   "Financial Literacy by Census Division (NFCS 2012)",
			boxTitle:   "Financial Literacy Distribution by Census Division (NFCS 2012)",
			axis:       "Division",
			labels:     summary.DivisionLabels,
			barColor:   chart.Teal,
			barPath:    chartPath("literacy_by_division.png"),
			boxPath:    chartPath("literacy_boxplot_division.png"),
		}, persist); err != nil {
			return err
		}
	} else {
		log.Warn("no Census_Division column, skipping division tables and charts")
	}

	log.Info("report complete", zap.Int("respondents", len(scores)))
	return nil
}

// geoParams bundles the per-geography table and chart settings.
type geoParams struct {
	tableTitle string
	barTitle   string
	boxTitle   string
	axis       string
	labels     map[string]string
	barColor   color.Color
	barPath    string
	boxPath    string
}

// geoSection prints one geographic summary table, renders its annotated
// bar chart, and renders the score-distribution boxplot.
func geoSection(scores []int, key summary.Key, p geoParams, persist func(*summary.Table)) error {
	tbl, err := summary.Group(p.tableTitle, scores, key)
	if err != nil {
		return eris.Wrapf(err, "report: %s grouping", p.axis)
	}
	tbl.Print(os.Stdout, p.labels)
	persist(tbl)

	cats, means, ses := tableSeries(tbl, p.labels)
	if err := chart.Bar(
		p.barTitle, p.axis, scoreAxisLabel,
		cats, means, ses, []color.Color{p.barColor}, true, p.barPath,
	); err != nil {
		return eris.Wrapf(err, "report: %s bar chart", p.axis)
	}

	boxCats, groups := distributionGroups(scores, key, p.labels)
	if err := chart.Box(
		p.boxTitle, p.axis, "Financial Literacy Score (0-5)",
		boxCats, groups, p.boxPath,
	); err != nil {
		return eris.Wrapf(err, "report: %s boxplot", p.axis)
	}

	return nil
}

// openReportStore opens the run store when enabled. Persistence is a
// convenience on top of the printed report, so failures degrade to a
// warning instead of aborting the run.
func openReportStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Store, string) {
	if !cfg.Store.Enabled {
		return nil, ""
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Warn("open report store", zap.Error(err))
		return nil, ""
	}
	if err := st.Migrate(ctx); err != nil {
		log.Warn("migrate report store", zap.Error(err))
		_ = st.Close()
		return nil, ""
	}
	runID, err := st.CreateRun(ctx, cfg.Data.CleanedPath)
	if err != nil {
		log.Warn("create report run", zap.Error(err))
		_ = st.Close()
		return nil, ""
	}

	log.Info("report run started", zap.String("run_id", runID))
	return st, runID
}

// columnKey wraps a frame column as a grouping key.
func columnKey(f *frame.Frame, name string) (summary.Key, bool) {
	values, ok := f.Column(name)
	if !ok {
		return summary.Key{}, false
	}
	return summary.Key{Name: name, Values: values}, true
}

// ageGroupKey derives the ordered age grouping from the cleaned frame.
func ageGroupKey(f *frame.Frame) (summary.Key, bool) {
	groups := literacy.AgeGroupColumn(f)
	if groups == nil {
		return summary.Key{}, false
	}
	return summary.Key{Name: "Age_group", Values: groups, Order: literacy.AgeGroups}, true
}

// tableSeries flattens a single-key table into parallel category, mean,
// and standard-error slices for charting, resolving display labels.
func tableSeries(t *summary.Table, labels map[string]string) ([]string, []float64, []float64) {
	cats := make([]string, len(t.Rows))
	means := make([]float64, len(t.Rows))
	ses := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		cats[i] = summary.Label(labels, r.Keys[0])
		means[i] = r.Mean
		ses[i] = r.SE
	}
	return cats, means, ses
}

// genderColors maps gender categories onto the conventional palette.
func genderColors(cats []string) []color.Color {
	colors := make([]color.Color, len(cats))
	for i, c := range cats {
		switch c {
		case "Female":
			colors[i] = chart.Pink
		case "Male":
			colors[i] = chart.SkyBlue
		default:
			colors[i] = chart.Gray
		}
	}
	return colors
}

// genderSeries splits an age x gender table into one series per gender
// over the shared, ordered age categories. Missing combinations become
// NaN so the chart skips them.
func genderSeries(t *summary.Table) ([]string, []chart.Series) {
	var cats []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Keys[0]] {
			seen[r.Keys[0]] = true
			cats = append(cats, r.Keys[0])
		}
	}

	byGender := make(map[string]map[string]float64)
	var genders []string
	for _, r := range t.Rows {
		g := r.Keys[1]
		if byGender[g] == nil {
			byGender[g] = make(map[string]float64)
			genders = append(genders, g)
		}
		byGender[g][r.Keys[0]] = r.Mean
	}
	sort.Strings(genders)

	series := make([]chart.Series, 0, len(genders))
	for _, g := range genders {
		means := make([]float64, len(cats))
		for i, c := range cats {
			if m, ok := byGender[g][c]; ok {
				means[i] = m
			} else {
				means[i] = math.NaN()
			}
		}
		var c color.Color = chart.Gray
		switch g {
		case "Female":
			c = chart.Pink
		case "Male":
			c = chart.SkyBlue
		}
		series = append(series, chart.Series{Name: g, Means: means, Color: c})
	}
	return cats, series
}

// distributionGroups collects the per-respondent scores for each group
// value, ordered by numeric code with unknown codes last, for boxplots.
func distributionGroups(scores []int, key summary.Key, labels map[string]string) ([]string, [][]float64) {
	byCode := make(map[string][]float64)
	for i, v := range key.Values {
		if v == "" {
			continue
		}
		byCode[v] = append(byCode[v], float64(scores[i]))
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(a, b int) bool {
		na, errA := strconv.ParseFloat(codes[a], 64)
		nb, errB := strconv.ParseFloat(codes[b], 64)
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return codes[a] < codes[b]
		}
	})

	cats := make([]string, len(codes))
	groups := make([][]float64, len(codes))
	for i, code := range codes {
		cats[i] = summary.Label(labels, code)
		groups[i] = byCode[code]
	}
	return cats, groups
}
