// Package summary computes grouped descriptive statistics of the
// literacy score and formats them as report tables. Aggregation is
// unweighted: the survey's design-weight columns are deliberately
// ignored.
package summary

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// keySep joins multi-key group values; it cannot appear in survey labels.
const keySep = "\x1f"

// Key is one grouping dimension: a name plus the per-row group value.
// An empty value marks a row as missing from this grouping. Order, when
// set, fixes the display order of the listed values; anything else
// sorts after them.
type Key struct {
	Name   string
	Values []string
	Order  []string
}

// Row is one group's aggregate.
type Row struct {
	Keys []string
	N    int
	Mean float64
	Std  float64
	SE   float64
}

// Table holds the aggregates for one grouping.
type Table struct {
	Title    string
	KeyNames []string
	Rows     []Row
}

// Group aggregates scores over one or more grouping keys. Rows with a
// missing value in any key are excluded. Output rows are ordered
// deterministically: by each key's fixed Order when given, otherwise
// numerically where both values parse as numbers (unknowns last), and
// lexically as a final tiebreak.
func Group(title string, scores []int, keys ...Key) (*Table, error) {
	if len(keys) == 0 {
		return nil, eris.New("summary: no grouping keys")
	}
	for _, k := range keys {
		if len(k.Values) != len(scores) {
			return nil, eris.Errorf("summary: key %s has %d values for %d scores", k.Name, len(k.Values), len(scores))
		}
	}

	groups := make(map[string][]int)
	for i := range scores {
		parts := make([]string, len(keys))
		missing := false
		for j, k := range keys {
			v := k.Values[i]
			if v == "" {
				missing = true
				break
			}
			parts[j] = v
		}
		if missing {
			continue
		}
		composite := strings.Join(parts, keySep)
		groups[composite] = append(groups[composite], scores[i])
	}

	t := &Table{Title: title}
	for _, k := range keys {
		t.KeyNames = append(t.KeyNames, k.Name)
	}

	for composite, members := range groups {
		row := Row{Keys: strings.Split(composite, keySep), N: len(members)}
		row.Mean, row.Std = meanStd(members)
		row.SE = row.Std / math.Sqrt(math.Max(float64(row.N), 1))
		t.Rows = append(t.Rows, row)
	}

	sort.Slice(t.Rows, func(a, b int) bool {
		ra, rb := t.Rows[a], t.Rows[b]
		for level := range keys {
			if c := compareKey(keys[level], ra.Keys[level], rb.Keys[level]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	return t, nil
}

// meanStd computes the mean and sample standard deviation (divisor n-1).
// Groups too small for a sample deviation report zero spread.
func meanStd(values []int) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / n

	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := float64(v) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// compareKey orders two values within one grouping dimension.
func compareKey(k Key, a, b string) int {
	if len(k.Order) > 0 {
		ia, ib := orderIndex(k.Order, a), orderIndex(k.Order, b)
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(a, b)
	}

	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
		return 0
	case errA == nil:
		return -1 // numeric codes sort before unknowns
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func orderIndex(order []string, v string) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return len(order)
}

// TotalN sums the per-group counts.
func (t *Table) TotalN() int {
	total := 0
	for _, r := range t.Rows {
		total += r.N
	}
	return total
}

// RegionLabels names the Census region codes.
var RegionLabels = map[string]string{
	"1": "Northeast",
	"2": "Midwest",
	"3": "South",
	"4": "West",
}

// DivisionLabels names the Census division codes.
var DivisionLabels = map[string]string{
	"1": "New England",
	"2": "Middle Atlantic",
	"3": "East North Central",
	"4": "West North Central",
	"5": "South Atlantic",
	"6": "East South Central",
	"7": "West South Central",
	"8": "Mountain",
	"9": "Pacific",
}

// Label resolves a group value through a label table, falling back to
// the raw value for unmapped codes.
func Label(labels map[string]string, v string) string {
	if labels == nil {
		return v
	}
	if l, ok := labels[v]; ok {
		return l
	}
	return v
}

// Print writes the table in fixed-width form. The label map (may be
// nil) relabels the final key column, which covers the geographic
// tables where codes become region and division names.
func (t *Table) Print(w io.Writer, labels map[string]string) {
	p := message.NewPrinter(language.AmericanEnglish)

	fmt.Fprintf(w, "\n=== %s ===\n", t.Title)

	for _, name := range t.KeyNames {
		fmt.Fprintf(w, "%-22s", name)
	}
	fmt.Fprintf(w, "%10s %8s %8s %8s\n", "n", "mean", "std", "se")

	for _, r := range t.Rows {
		for i, kv := range r.Keys {
			if i == len(r.Keys)-1 {
				kv = Label(labels, kv)
			}
			fmt.Fprintf(w, "%-22s", kv)
		}
		p.Fprintf(w, "%10d ", r.N)
		fmt.Fprintf(w, "%8.3f %8.3f %8.3f\n", r.Mean, r.Std, r.SE)
	}
}
