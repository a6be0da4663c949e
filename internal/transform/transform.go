// Chart-side reshaping of raw backend payloads. Everything in this package
// is a pure function of its inputs so the UI can recompute views on any
// state change without touching the network.
package transform

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/anomdash/anomdash/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DateLabel renders a parseable date label as YYYY-MM-DD and passes
// anything else through unchanged.
func DateLabel(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

var fileDateRe = regexp.MustCompile(`\d{8}`)

// FileDateLabel pulls the first 8-digit run out of a filename-like label
// and renders it as YYYY-MM-DD. Labels with no such run, or a run that is
// not a real date, come back unchanged.
func FileDateLabel(s string) string {
	m := fileDateRe.FindString(s)
	if m == "" {
		return s
	}
	t, err := time.Parse("20060102", m)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// DownsampleIndices picks a bounded set of representative indices for a
// series of length l. For l <= limit every index is kept; otherwise every
// ceil(l/limit)-th index is kept and the last one is forced in so the
// series never loses its endpoint.
func DownsampleIndices(l, limit int) []int {
	if l <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultDownsampleCap
	}
	if l <= limit {
		idx := make([]int, l)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	step := (l + limit - 1) / limit
	var idx []int
	for i := 0; i < l; i += step {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != l-1 {
		idx = append(idx, l-1)
	}
	return idx
}

// DefaultDownsampleCap bounds how many points a dense series keeps.
const DefaultDownsampleCap = 300

// DownsampleTimeline applies one index set to the labels and every series,
// keeping them aligned.
func DownsampleTimeline(t domain.Timeline, limit int) domain.Timeline {
	idx := DownsampleIndices(len(t.Labels), limit)
	if len(idx) == len(t.Labels) {
		return t
	}
	out := domain.Timeline{
		Labels: make([]string, len(idx)),
		Series: make([]domain.TimelineSeries, len(t.Series)),
	}
	for j, i := range idx {
		out.Labels[j] = t.Labels[i]
	}
	for si, s := range t.Series {
		data := make([]*float64, len(idx))
		for j, i := range idx {
			data[j] = s.Data[i]
		}
		out.Series[si] = domain.TimelineSeries{Name: s.Name, Data: data}
	}
	return out
}

// HighBands classifies each trend point against the current threshold:
// true means at-or-above (rendered red), false below (blue).
func HighBands(data []float64, threshold float64) []bool {
	bands := make([]bool, len(data))
	for i, v := range data {
		bands[i] = v >= threshold
	}
	return bands
}

// RatePercent turns a [0,1] fraction into a percentage with 2 decimals.
func RatePercent(rate float64) float64 {
	return math.Round(rate*100*100) / 100
}

// PieRatios converts raw slice values to percentages of their sum, one
// decimal each. The denominator is floored at 1 so an all-zero input
// yields all-zero ratios instead of dividing by zero.
func PieRatios(data []float64) []float64 {
	var sum float64
	for _, v := range data {
		sum += v
	}
	if sum < 1 {
		sum = 1
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = math.Round(v/sum*100*10) / 10
	}
	return out
}

// HistogramLabels formats each adjacent pair of bin edges as "start–end"
// with one decimal. Pairs with a missing (NaN) edge are skipped.
func HistogramLabels(bins []float64) []string {
	var out []string
	for i := 1; i < len(bins); i++ {
		lo, hi := bins[i-1], bins[i]
		if math.IsNaN(lo) || math.IsNaN(hi) {
			continue
		}
		out = append(out, fmt.Sprintf("%.1f–%.1f", lo, hi))
	}
	return out
}

// RankedRow is a sample row plus its relative bar width in percent.
type RankedRow struct {
	Row      domain.SampleRow
	WidthPct float64
}

// TopRanking keeps the first n rows in backend order and sizes each bar
// relative to the largest score among them. Missing scores count as 0;
// the max is floored at 0.001 so an all-zero set still divides cleanly.
func TopRanking(rows []domain.SampleRow, n int) []RankedRow {
	if len(rows) > n {
		rows = rows[:n]
	}
	maxScore := 0.001
	for _, r := range rows {
		if r.Score != nil && *r.Score > maxScore {
			maxScore = *r.Score
		}
	}
	out := make([]RankedRow, len(rows))
	for i, r := range rows {
		score := 0.0
		if r.Score != nil {
			score = *r.Score
		}
		out[i] = RankedRow{Row: r, WidthPct: score / maxScore * 100}
	}
	return out
}
