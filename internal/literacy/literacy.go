// Package literacy derives the 0-5 financial literacy score and the age
// grouping used by the report tables. Both are pure functions of the
// cleaned dataset.
package literacy

import (
	"strconv"

	"github.com/finwell-group/nfcs-cli/internal/frame"
)

// Question pairs a cleaned quiz column with its correct answer.
type Question struct {
	Column string
	Answer string
}

// Questions is the five-item quiz answer key. A response counts as
// correct only on exact label equality; "Don't know" and missing both
// score zero.
var Questions = []Question{
	{Column: "Q_Interest", Answer: "More than $102"},
	{Column: "Q_Inflation", Answer: "More than today"},
	{Column: "Q_Bonds", Answer: "Fall"},
	{Column: "Q_Risk", Answer: "True"},
	{Column: "Q_Mortgage", Answer: "False"},
}

// MaxScore is the highest attainable literacy score.
const MaxScore = 5

// Score counts correct answers in a single respondent's cleaned values.
func Score(answers map[string]string) int {
	score := 0
	for _, q := range Questions {
		if answers[q.Column] == q.Answer {
			score++
		}
	}
	return score
}

// Scores computes the literacy score for every row of the cleaned frame.
// Quiz columns absent from the frame score zero for everyone.
func Scores(f *frame.Frame) []int {
	scores := make([]int, f.NumRows())
	for _, q := range Questions {
		col, ok := f.Column(q.Column)
		if !ok {
			continue
		}
		for i, v := range col {
			if v == q.Answer {
				scores[i]++
			}
		}
	}
	return scores
}

// AgeGroups are the report's ordered age buckets.
var AgeGroups = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

// ageBounds are the buckets' upper bounds; each bucket is half-open on
// the lower side and inclusive on the upper: (17,24] (24,34] ... (64,120].
var ageBounds = []float64{24, 34, 44, 54, 64, 120}

// categoryLabels maps the NFCS ordinal age-category codes 1-6 onto the
// same buckets.
var categoryLabels = map[string]string{
	"1": "18-24", "2": "25-34", "3": "35-44",
	"4": "45-54", "5": "55-64", "6": "65+",
}

// BucketAge places a numeric age into its group. Ages outside [18,120]
// and non-numeric values return the empty (missing) group.
func BucketAge(raw string) string {
	age, err := strconv.ParseFloat(raw, 64)
	if err != nil || age < 18 || age > 120 {
		return ""
	}
	for i, bound := range ageBounds {
		if age <= bound {
			return AgeGroups[i]
		}
	}
	return ""
}

// BucketCategory maps an ordinal age-category code to its group label,
// or missing when the code is unknown.
func BucketCategory(code string) string {
	return categoryLabels[code]
}

// AgeGroupColumn derives the per-row age group from the cleaned frame.
// A numeric Age column takes precedence; otherwise the pre-binned
// Age_Category_Code is used. Returns nil when neither column exists.
func AgeGroupColumn(f *frame.Frame) []string {
	if col, ok := f.Column("Age"); ok {
		groups := make([]string, len(col))
		for i, v := range col {
			groups[i] = BucketAge(v)
		}
		return groups
	}
	if col, ok := f.Column("Age_Category_Code"); ok {
		groups := make([]string, len(col))
		for i, v := range col {
			groups[i] = BucketCategory(v)
		}
		return groups
	}
	return nil
}
