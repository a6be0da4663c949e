// Demo data source behind the same port as the real backend, for running
// the dashboard without an analytics service.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/anomdash/anomdash/internal/domain"
)

type Repo struct {
	rnd       *rand.Rand
	threshold float64
}

func New() *Repo {
	src := rand.NewSource(time.Now().UnixNano())
	return &Repo{rnd: rand.New(src), threshold: 0.7}
}

func (r *Repo) Ping(ctx context.Context) (string, error) {
	return "ok", nil
}

func (r *Repo) Overview(ctx context.Context) (domain.OverviewCards, error) {
	total := int64(120_000 + r.rnd.Intn(30_000))
	anomalies := int64(float64(total) * (0.01 + 0.02*r.rnd.Float64()))
	return domain.OverviewCards{
		Total:       total,
		Anomalies:   anomalies,
		AnomalyRate: float64(anomalies) / float64(total),
		Threshold:   r.threshold,
	}, nil
}

func (r *Repo) Timeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	const hours = 24
	labels := make([]string, hours)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range labels {
		labels[i] = day.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
	}
	mk := func(base, amp float64) []*float64 {
		out := make([]*float64, hours)
		v := base
		for i := range out {
			v += (r.rnd.Float64() - 0.5) * amp
			if v < 0 {
				v = 0
			}
			p := v
			out[i] = &p
		}
		// a dropout hole to exercise null handling
		out[hours/2] = nil
		return out
	}
	return domain.Timeline{
		Labels: labels,
		Series: []domain.TimelineSeries{
			{Name: "total", Data: mk(5200, 900)},
			{Name: "anomalous", Data: mk(90, 40)},
		},
	}, nil
}

func (r *Repo) Severity(ctx context.Context) (domain.CategorySeries, error) {
	return domain.CategorySeries{
		Labels: []string{"low", "medium", "high", "critical"},
		Data: []float64{
			float64(800 + r.rnd.Intn(400)),
			float64(300 + r.rnd.Intn(200)),
			float64(60 + r.rnd.Intn(60)),
			float64(r.rnd.Intn(12)),
		},
	}, nil
}

func (r *Repo) Distribution(ctx context.Context) (domain.Distribution, error) {
	bins := make([]float64, 11)
	counts := make([]int64, 10)
	for i := range bins {
		bins[i] = float64(i) / 10
	}
	// scores pile up near zero, log-scale territory
	n := int64(60_000)
	for i := range counts {
		counts[i] = n + int64(r.rnd.Intn(500))
		n /= 4
	}
	return domain.Distribution{Bins: bins, Counts: counts}, nil
}

func (r *Repo) Trend(ctx context.Context, bucket, tz string) (domain.CategorySeries, error) {
	const days = 14
	labels := make([]string, days)
	data := make([]float64, days)
	day := time.Now().UTC().AddDate(0, 0, -days)
	v := 0.4
	for i := range labels {
		labels[i] = day.AddDate(0, 0, i).Format("2006-01-02")
		v += (r.rnd.Float64() - 0.45) * 0.15
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		data[i] = v
	}
	return domain.CategorySeries{Labels: labels, Data: data}, nil
}

func (r *Repo) FileTimeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	tl, _ := r.Timeline(ctx, bucket, tz)
	day := time.Now().UTC().Format("20060102")
	for i := range tl.Series {
		tl.Series[i].Name = fmt.Sprintf("processed_packets_%s_%02d0000.csv", day, i)
	}
	return tl, nil
}

func (r *Repo) TopDestinations(ctx context.Context, n int) (domain.CategorySeries, error) {
	out := domain.CategorySeries{}
	for i := 0; i < n; i++ {
		out.Labels = append(out.Labels, fmt.Sprintf("10.0.%d.%d", r.rnd.Intn(4), 2+r.rnd.Intn(250)))
		out.Data = append(out.Data, float64((n-i)*120+r.rnd.Intn(100)))
	}
	return out, nil
}

func (r *Repo) Samples(ctx context.Context, n int) ([]domain.SampleRow, error) {
	protos := []string{"TCP", "UDP", "ICMP"}
	file := fmt.Sprintf("processed_packets_%s_111134.csv", time.Now().UTC().Format("20060102"))
	out := make([]domain.SampleRow, 0, n)
	for i := 0; i < n; i++ {
		src := fmt.Sprintf("192.168.1.%d", 2+r.rnd.Intn(250))
		dst := fmt.Sprintf("10.0.0.%d", 2+r.rnd.Intn(250))
		sp := 1024 + r.rnd.Intn(60000)
		dp := []int{22, 53, 80, 443, 8080}[r.rnd.Intn(5)]
		proto := protos[r.rnd.Intn(len(protos))]
		ts := time.Now().UTC().Add(-time.Duration(r.rnd.Intn(3600)) * time.Second).Format(time.RFC3339)
		score := r.threshold + (r.rnd.Float64()-0.3)*0.4
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		row := domain.SampleRow{
			SrcIP:      &src,
			SrcPort:    &sp,
			DstIP:      &dst,
			DstPort:    &dp,
			Protocol:   &proto,
			Timestamp:  &ts,
			Score:      &score,
			SourceFile: &file,
		}
		if i%7 == 3 {
			row.Score = nil // sparse rows happen in real exports
		}
		out = append(out, row)
	}
	return out, nil
}
