package domain

import (
	"fmt"
	"math"
	"time"
)

// OverviewCards backs the four KPI tiles.
type OverviewCards struct {
	Total       int64   `json:"total"`
	Anomalies   int64   `json:"anomalies"`
	AnomalyRate float64 `json:"anomaly_rate"` // fraction in [0,1]
	Threshold   float64 `json:"threshold"`
}

func (c OverviewCards) Validate() error {
	if c.Anomalies > c.Total {
		return fmt.Errorf("overview: anomalies %d > total %d", c.Anomalies, c.Total)
	}
	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return fmt.Errorf("overview: anomaly_rate %v outside [0,1]", c.AnomalyRate)
	}
	return nil
}

// TimelineSeries is one named line; nil points are gaps the backend left.
type TimelineSeries struct {
	Name string     `json:"name"`
	Data []*float64 `json:"data"`
}

type Timeline struct {
	Labels []string         `json:"labels"`
	Series []TimelineSeries `json:"series"`
}

func (t Timeline) Validate() error {
	for _, s := range t.Series {
		if len(s.Data) != len(t.Labels) {
			return fmt.Errorf("timeline: series %q has %d points for %d labels", s.Name, len(s.Data), len(t.Labels))
		}
	}
	return nil
}

// CategorySeries is the shared labels+values shape used by the severity,
// trend and top-destination endpoints.
type CategorySeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func (s CategorySeries) Validate() error {
	if len(s.Labels) != len(s.Data) {
		return fmt.Errorf("series: %d labels vs %d values", len(s.Labels), len(s.Data))
	}
	return nil
}

// Distribution holds histogram bin edges and per-bin counts. A missing
// (JSON null) edge is carried as NaN.
type Distribution struct {
	Bins   []float64 `json:"bins"`
	Counts []int64   `json:"counts"`
}

func (d Distribution) Validate() error {
	if len(d.Bins) == 0 && len(d.Counts) == 0 {
		return nil
	}
	if len(d.Counts) != len(d.Bins)-1 {
		return fmt.Errorf("distribution: %d counts for %d bin edges", len(d.Counts), len(d.Bins))
	}
	for i := 1; i < len(d.Bins); i++ {
		if math.IsNaN(d.Bins[i-1]) || math.IsNaN(d.Bins[i]) {
			continue // only ordering of known edges is checked
		}
		if d.Bins[i] < d.Bins[i-1] {
			return fmt.Errorf("distribution: bin edges not ascending at %d", i)
		}
	}
	return nil
}

// SampleRow is a sparse packet-flow record; any field may be absent.
type SampleRow struct {
	SrcIP      *string  `json:"src_ip,omitempty"`
	SrcPort    *int     `json:"src_port,omitempty"`
	DstIP      *string  `json:"dst_ip,omitempty"`
	DstPort    *int     `json:"dst_port,omitempty"`
	Protocol   *string  `json:"protocol,omitempty"`
	Timestamp  *string  `json:"timestamp,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	SourceFile *string  `json:"source_file,omitempty"`
}

// Snapshot is one fetch cycle's worth of dashboard state. It is built as a
// whole and swapped in as a whole; partial snapshots never reach the UI.
type Snapshot struct {
	Cards        OverviewCards
	Timeline     Timeline
	Severity     CategorySeries
	Distribution Distribution
	Trend        CategorySeries // flat variant, empty when keyed variant is active
	FileTimeline Timeline       // keyed variant, empty otherwise
	TopDst       CategorySeries
	Samples      []SampleRow
	FetchedAt    time.Time
}
