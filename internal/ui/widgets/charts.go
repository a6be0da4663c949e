package widgets

import (
	"math"
	"strings"
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// Spark renders a series as a one-row sparkline, sampling evenly to width.
// Values are normalized against the series max; nil points render as gaps.
func Spark(vals []*float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	max := 0.0
	for _, v := range vals {
		if v != nil && *v > max {
			max = *v
		}
	}
	if max == 0 {
		max = 1
	}
	step := float64(len(vals)) / float64(width)
	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := int(math.Min(float64(len(vals)-1), math.Floor(float64(i)*step)))
		v := vals[idx]
		if v == nil {
			b.WriteRune(' ')
			continue
		}
		level := int(math.Round(clamp01(*v/max) * float64(len(blocks)-1)))
		if level < 0 {
			level = 0
		}
		if level > len(blocks)-1 {
			level = len(blocks) - 1
		}
		b.WriteRune(blocks[level])
	}
	return b.String()
}

// SparkRunes renders one rune per value, normalized against the max, so the
// caller can style individual points (threshold banding).
func SparkRunes(vals []float64) []rune {
	if len(vals) == 0 {
		return nil
	}
	max := 0.0
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}
	out := make([]rune, len(vals))
	for i, v := range vals {
		level := int(math.Round(clamp01(v/max) * float64(len(blocks)-1)))
		if level < 0 {
			level = 0
		}
		if level > len(blocks)-1 {
			level = len(blocks) - 1
		}
		out[i] = blocks[level]
	}
	return out
}

// Bar renders a horizontal gauge for v in [0,1].
func Bar(v float64, width int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	fill := int(math.Round(v * float64(width)))

	if v > 0 && fill == 0 {
		fill = 1
	}

	if fill < 0 {
		fill = 0
	}
	if fill > width {
		fill = width
	}

	return strings.Repeat("█", fill) + strings.Repeat(" ", width-fill)
}

// Columns renders a vertical bar chart, one column rune per value, as
// height rows from top to bottom. Values are normalized against the max.
func Columns(vals []float64, height int) []string {
	if len(vals) == 0 || height <= 0 {
		return nil
	}
	max := 0.0
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}
	rows := make([]string, height)
	for r := 0; r < height; r++ {
		var b strings.Builder
		for _, v := range vals {
			cells := clamp01(v/max) * float64(height)
			// cells of this column covered from the bottom; row r counts from the top
			covered := cells - float64(height-1-r)
			switch {
			case covered >= 1:
				b.WriteRune('█')
			case covered > 0:
				b.WriteRune(blocks[int(covered*float64(len(blocks)-1))])
			default:
				b.WriteRune(' ')
			}
		}
		rows[r] = b.String()
	}
	return rows
}

// SegmentWidths splits width cells proportionally across parts, largest
// remainders first so the total always sums to width. All-zero parts get
// nothing.
func SegmentWidths(parts []float64, width int) []int {
	out := make([]int, len(parts))
	var sum float64
	for _, p := range parts {
		if p > 0 {
			sum += p
		}
	}
	if sum == 0 || width <= 0 {
		return out
	}
	used := 0
	type rem struct {
		idx  int
		frac float64
	}
	var rems []rem
	for i, p := range parts {
		if p <= 0 {
			continue
		}
		exact := p / sum * float64(width)
		out[i] = int(exact)
		used += out[i]
		rems = append(rems, rem{i, exact - float64(out[i])})
	}
	for used < width && len(rems) > 0 {
		best := 0
		for j := range rems {
			if rems[j].frac > rems[best].frac {
				best = j
			}
		}
		out[rems[best].idx]++
		rems[best].frac = -1
		used++
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
