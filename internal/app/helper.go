package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/anomdash/anomdash/internal/config"
	"github.com/anomdash/anomdash/internal/transform"
	"github.com/anomdash/anomdash/internal/ui/styles"
	"github.com/anomdash/anomdash/internal/ui/widgets"
)

// clamp clamps v into [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// chartWidth is the usable inner width for chart rows.
func (m Model) chartWidth() int {
	return clamp(m.width-8, 24, 120)
}

func (m Model) renderCharts() string {
	sections := []string{
		m.renderCards(),
		m.renderTimeline(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderSeverity(), " ", m.renderHistogram()),
		m.renderTrendSlot(),
		m.renderTopOffenders(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCards() string {
	c := m.snap.Cards
	if c.Total == 0 && m.snap.FetchedAt.IsZero() {
		return styles.Box.Render(m.placeholder("no data"))
	}
	tile := func(title, value string) string {
		return styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.Faint.Render(title),
			styles.Title.Render(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		tile("samples", humanize.Comma(c.Total)),
		tile("anomalies", humanize.Comma(c.Anomalies)),
		tile("anomaly rate", fmt.Sprintf("%.2f%%", transform.RatePercent(c.AnomalyRate))),
		tile("threshold", fmt.Sprintf("%.2f", c.Threshold)),
	)
}

func (m Model) renderTimeline() string {
	tl := transform.DownsampleTimeline(m.snap.Timeline, m.cfg.DownsampleCap)
	if len(tl.Labels) == 0 {
		return styles.Box.Width(m.chartWidth() + 4).Render(
			styles.Faint.Render("traffic by time") + "\n" + m.placeholder("no data"))
	}
	w := m.chartWidth()
	lines := []string{styles.Faint.Render("traffic by time")}
	nameW := 0
	for _, s := range tl.Series {
		if len(s.Name) > nameW {
			nameW = len(s.Name)
		}
	}
	for _, s := range tl.Series {
		lines = append(lines, fmt.Sprintf("%-*s %s", nameW, s.Name,
			styles.Good.Render(widgets.Spark(s.Data, w-nameW-1))))
	}
	lines = append(lines, styles.Faint.Render(fmt.Sprintf("%-*s %s … %s", nameW, "",
		transform.DateLabel(tl.Labels[0]), transform.DateLabel(tl.Labels[len(tl.Labels)-1]))))
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderSeverity() string {
	sev := m.snap.Severity
	w := m.chartWidth()/2 - 4
	if len(sev.Labels) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("severity share") + "\n" + m.placeholder("no data"))
	}
	ratios := transform.PieRatios(sev.Data)
	segs := widgets.SegmentWidths(sev.Data, w)

	var bar strings.Builder
	for i, sw := range segs {
		bar.WriteString(styles.Severity[i%len(styles.Severity)].Render(strings.Repeat("█", sw)))
	}
	lines := []string{styles.Faint.Render("severity share"), bar.String()}
	for i, label := range sev.Labels {
		st := styles.Severity[i%len(styles.Severity)]
		lines = append(lines, fmt.Sprintf("%s %-8s %5.1f%%  %s",
			st.Render("■"), label, ratios[i], styles.Faint.Render(humanize.Comma(int64(sev.Data[i])))))
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistogram() string {
	d := m.snap.Distribution
	w := m.chartWidth()/2 - 4
	if len(d.Counts) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("score distribution (log)") + "\n" + m.placeholder("no data"))
	}
	// log10 squashes the pile-up near zero without dropping rare tail bins
	logs := make([]float64, len(d.Counts))
	for i, c := range d.Counts {
		logs[i] = math.Log10(float64(c) + 1)
	}
	lines := []string{styles.Faint.Render("score distribution (log)")}
	lines = append(lines, widgets.Columns(logs, 5)...)

	labels := transform.HistogramLabels(d.Bins)
	if len(labels) > 0 {
		lines = append(lines, styles.Faint.Render(labels[0]+" … "+labels[len(labels)-1]))
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

// renderTrendSlot renders whichever second-slot variant the backend serves:
// threshold-banded date trend plus top destinations, or the per-file timeline.
func (m Model) renderTrendSlot() string {
	if m.cfg.TrendVariant == config.VariantFileTimeline {
		return m.renderFileTimeline()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderTrend(), " ", m.renderTopDst())
}

func (m Model) renderTrend() string {
	tr := m.snap.Trend
	w := m.chartWidth()/2 - 4
	if len(tr.Labels) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("anomaly trend") + "\n" + m.placeholder("no data"))
	}
	bands := transform.HighBands(tr.Data, m.snap.Cards.Threshold)
	runes := widgets.SparkRunes(tr.Data)
	var bar strings.Builder
	for i, r := range runes {
		if bands[i] {
			bar.WriteString(styles.High.Render(string(r)))
		} else {
			bar.WriteString(styles.Low.Render(string(r)))
		}
	}
	lines := []string{
		styles.Faint.Render("anomaly trend (red at/above threshold)"),
		bar.String(),
		styles.Faint.Render(transform.DateLabel(tr.Labels[0]) + " … " + transform.DateLabel(tr.Labels[len(tr.Labels)-1])),
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFileTimeline() string {
	tl := transform.DownsampleTimeline(m.snap.FileTimeline, m.cfg.DownsampleCap)
	w := m.chartWidth()
	if len(tl.Labels) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("per-file timeline") + "\n" + m.placeholder("no data"))
	}
	lines := []string{styles.Faint.Render("per-file timeline")}
	nameW := 0
	names := make([]string, len(tl.Series))
	for i, s := range tl.Series {
		names[i] = transform.FileDateLabel(s.Name)
		if len(names[i]) > nameW {
			nameW = len(names[i])
		}
	}
	for i, s := range tl.Series {
		lines = append(lines, fmt.Sprintf("%-*s %s", nameW, names[i],
			styles.Good.Render(widgets.Spark(s.Data, w-nameW-1))))
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderTopDst() string {
	top := m.snap.TopDst
	w := m.chartWidth()/2 - 4
	if len(top.Labels) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("top destinations") + "\n" + m.placeholder("no data"))
	}
	max := 0.0
	for _, v := range top.Data {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}
	barW := clamp(w-24, 6, 40)
	lines := []string{styles.Faint.Render("top destinations")}
	for i, label := range top.Labels {
		lines = append(lines, fmt.Sprintf("%-15s %s %s",
			label,
			styles.Warn.Render(widgets.Bar(top.Data[i]/max, barW)),
			styles.Faint.Render(humanize.Comma(int64(top.Data[i])))))
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderTopOffenders() string {
	w := m.chartWidth()
	if len(m.samples) == 0 {
		return styles.Box.Width(w + 4).Render(
			styles.Faint.Render("top offenders") + "\n" + m.placeholder("no data"))
	}
	ranked := transform.TopRanking(m.samples, 5)
	barW := clamp(w-50, 6, 30)
	lines := []string{styles.Faint.Render("top offenders")}
	for _, r := range ranked {
		score := "-"
		if r.Row.Score != nil {
			score = fmt.Sprintf("%.3f", *r.Row.Score)
		}
		lines = append(lines, fmt.Sprintf("%-15s → %-15s %-5s %s %s",
			strOr(r.Row.SrcIP), strOr(r.Row.DstIP), strOr(r.Row.Protocol),
			styles.Danger.Render(widgets.Bar(r.WidthPct/100, barW)),
			score))
	}
	return styles.Box.Width(w + 4).Render(strings.Join(lines, "\n"))
}

func (m *Model) rebuildTable() {
	total := m.table.Width()
	wTime, wSrc, wDst, wProto, wScore, wFile := m.sampleColWidths(total)

	cols := []table.Column{
		{Title: "TIME", Width: wTime},
		{Title: "SRC", Width: wSrc},
		{Title: "DST", Width: wDst},
		{Title: "PROTO", Width: wProto},
		{Title: "SCORE", Width: wScore},
		{Title: "FILE", Width: wFile},
	}

	rows := make([]table.Row, 0, len(m.samples))
	for _, s := range m.samples {
		score := "-"
		if s.Score != nil {
			score = fmt.Sprintf("%.3f", *s.Score)
		}
		rows = append(rows, table.Row{
			strOr(s.Timestamp),
			endpoint(s.SrcIP, s.SrcPort),
			endpoint(s.DstIP, s.DstPort),
			strOr(s.Protocol),
			score,
			strOr(s.SourceFile),
		})
	}
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if len(rows) > 0 && (m.table.Cursor() < 0 || m.table.Cursor() >= len(rows)) {
		m.table.SetCursor(0)
	}
	m.table.Focus()
}

func (m *Model) sampleColWidths(total int) (wTime, wSrc, wDst, wProto, wScore, wFile int) {
	minTime, minSrc, minDst, minProto, minScore, minFile := 20, 18, 18, 6, 7, 16

	base := minTime + minSrc + minDst + minProto + minScore + minFile
	remain := total - base
	if remain < 0 {
		remain = 0
	}

	// spare width goes to the origin-file column, it truncates worst
	wTime = minTime
	wSrc = minSrc
	wDst = minDst
	wProto = minProto
	wScore = minScore
	wFile = clamp(minFile+remain, minFile, 60)
	return
}

func (m Model) renderSampleInfo() string {
	if len(m.samples) == 0 {
		return "No samples"
	}
	i := m.table.Cursor()
	if i < 0 {
		i = 0
	}
	s := m.samples[i%len(m.samples)]

	score := "-"
	flag := ""
	if s.Score != nil {
		score = fmt.Sprintf("%.4f", *s.Score)
		if *s.Score >= m.snap.Cards.Threshold {
			flag = "  " + styles.Danger.Render("above threshold")
		}
	}
	return fmt.Sprintf(
		"Flow: %s → %s  proto: %s\nTime: %s\nScore: %s%s\nSource file: %s",
		endpoint(s.SrcIP, s.SrcPort), endpoint(s.DstIP, s.DstPort), strOr(s.Protocol),
		strOr(s.Timestamp), score, flag, strOr(s.SourceFile))
}

func strOr(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}

// endpoint joins an optional address and port as "ip:port".
func endpoint(ip *string, port *int) string {
	if ip == nil && port == nil {
		return "-"
	}
	s := strOr(ip)
	if port != nil {
		s += ":" + strconv.Itoa(*port)
	}
	return s
}
