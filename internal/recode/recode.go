// Package recode turns raw integer-coded survey responses into labeled
// categorical values using a codebook registry. Every step is total:
// missing columns are skipped, unmapped codes pass through unchanged.
package recode

import (
	"strings"

	"go.uber.org/zap"

	"github.com/finwell-group/nfcs-cli/internal/codebook"
	"github.com/finwell-group/nfcs-cli/internal/frame"
)

// probeColumns are sampled after mapping as a confidence check that the
// codebook actually matched the data.
var probeColumns = []string{
	"A3", "A5", "A6", "A7", "A8", "E4a", "F1",
	"M6", "M7", "M8", "M9", "M10", "G23",
}

const probeSampleSize = 6

// Report summarizes what a cleaning pass did.
type Report struct {
	Aliased        int
	MappedColumns  []string
	DroppedColumns []string
	Renamed        int
}

// Recoder applies a codebook registry to a frame.
type Recoder struct {
	reg *codebook.Registry
}

// New builds a recoder around an immutable registry.
func New(reg *codebook.Registry) *Recoder {
	return &Recoder{reg: reg}
}

// Clean runs the full recode sequence on f in place: header
// normalization, blank normalization, exact-column maps, prefix maps,
// sentinel specials, empty-column pruning, and friendly renames.
func (r *Recoder) Clean(f *frame.Frame) *Report {
	log := zap.L().With(zap.String("component", "recoder"))
	report := &Report{}

	report.Aliased = r.normalizeHeaders(f)
	normalizeBlanks(f)

	mapped := make(map[string]bool)

	for _, rule := range r.reg.Columns {
		if !f.HasColumn(rule.Column) {
			continue
		}
		applyLookup(f, rule.Column, rule.Lookup)
		mapped[rule.Column] = true
	}

	for _, rule := range r.reg.Prefixes {
		for _, col := range f.Columns() {
			if !strings.HasPrefix(col, rule.Prefix) {
				continue
			}
			applyLookup(f, col, rule.Lookup)
			mapped[col] = true
		}
	}

	for _, rule := range r.reg.Specials {
		if !f.HasColumn(rule.Column) {
			continue
		}
		applyLookup(f, rule.Column, rule.Lookup)
		mapped[rule.Column] = true
	}

	for _, col := range f.Columns() {
		if mapped[col] {
			report.MappedColumns = append(report.MappedColumns, col)
		}
	}

	r.logProbes(f, log)

	// A zero-row frame would prune every column.
	if f.NumRows() > 0 {
		report.DroppedColumns = f.EmptyColumns()
		f.DropColumns(report.DroppedColumns)
	}

	for _, col := range f.Columns() {
		if _, ok := r.reg.Renames[col]; ok {
			report.Renamed++
		}
	}
	f.Rename(r.reg.Renames)

	log.Info("clean pass complete",
		zap.Int("aliased", report.Aliased),
		zap.Int("mapped_columns", len(report.MappedColumns)),
		zap.Int("dropped_columns", len(report.DroppedColumns)),
		zap.Int("renamed", report.Renamed),
	)

	return report
}

// normalizeHeaders trims and strips internal whitespace from column
// names, then applies the alias table for names that exist.
func (r *Recoder) normalizeHeaders(f *frame.Frame) int {
	cols := f.Columns()
	for i, c := range cols {
		cols[i] = strings.Join(strings.Fields(c), "")
	}
	// Width is unchanged, so SetColumns cannot fail here.
	_ = f.SetColumns(cols)

	aliased := 0
	for _, c := range f.Columns() {
		if _, ok := r.reg.Aliases[c]; ok {
			aliased++
		}
	}
	f.Rename(r.reg.Aliases)
	return aliased
}

// normalizeBlanks turns whitespace-only cells into missing values so a
// blank never matches a mapping key.
func normalizeBlanks(f *frame.Frame) {
	f.MapCells(func(v string) string {
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return v
	})
}

// applyLookup recodes one column, leaving missing and unmapped values
// untouched.
func applyLookup(f *frame.Frame, col string, l codebook.Lookup) {
	f.MapColumn(col, func(v string) string {
		if v == "" {
			return ""
		}
		out, _ := l.Apply(v)
		return out
	})
}

// logProbes logs a few distinct values from well-known columns so a
// mis-keyed codebook shows up immediately in the run output.
func (r *Recoder) logProbes(f *frame.Frame, log *zap.Logger) {
	for _, col := range probeColumns {
		samples := Samples(f, col, probeSampleSize)
		if samples == nil {
			continue
		}
		log.Info("probe", zap.String("column", col), zap.Strings("sample", samples))
	}
}

// Samples returns up to max distinct non-missing values of a column in
// first-seen order, or nil when the column is absent.
func Samples(f *frame.Frame, col string, max int) []string {
	values, ok := f.Column(col)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}
