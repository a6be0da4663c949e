package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/anomdash/anomdash/internal/config"
	"github.com/anomdash/anomdash/internal/domain"
)

// fakeRepo counts calls and lets tests inject failures per endpoint.
type fakeRepo struct {
	pingStatus string
	pingErr    error
	failOn     string // endpoint name whose call should fail
	calls      int32
	dataCalls  int32
}

func (f *fakeRepo) bump(name string) error {
	atomic.AddInt32(&f.calls, 1)
	if name != "ping" {
		atomic.AddInt32(&f.dataCalls, 1)
	}
	if f.failOn == name {
		return errors.New(name + " exploded")
	}
	return nil
}

func (f *fakeRepo) Ping(ctx context.Context) (string, error) {
	if err := f.bump("ping"); err != nil {
		return "", err
	}
	if f.pingErr != nil {
		return "", f.pingErr
	}
	return f.pingStatus, nil
}

func (f *fakeRepo) Overview(ctx context.Context) (domain.OverviewCards, error) {
	return domain.OverviewCards{Total: 100, Anomalies: 4, AnomalyRate: 0.04, Threshold: 0.7}, f.bump("overview")
}

func (f *fakeRepo) Timeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	v := 1.0
	return domain.Timeline{
		Labels: []string{"2025-11-11T00:00:00Z"},
		Series: []domain.TimelineSeries{{Name: "total", Data: []*float64{&v}}},
	}, f.bump("timeline")
}

func (f *fakeRepo) Severity(ctx context.Context) (domain.CategorySeries, error) {
	return domain.CategorySeries{Labels: []string{"low"}, Data: []float64{5}}, f.bump("severity")
}

func (f *fakeRepo) Distribution(ctx context.Context) (domain.Distribution, error) {
	return domain.Distribution{Bins: []float64{0, 0.5, 1}, Counts: []int64{9, 1}}, f.bump("distribution")
}

func (f *fakeRepo) Trend(ctx context.Context, bucket, tz string) (domain.CategorySeries, error) {
	return domain.CategorySeries{Labels: []string{"2025-11-11"}, Data: []float64{0.8}}, f.bump("trend")
}

func (f *fakeRepo) FileTimeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	v := 2.0
	return domain.Timeline{
		Labels: []string{"00:00"},
		Series: []domain.TimelineSeries{{Name: "processed_packets_20251111_111134.csv", Data: []*float64{&v}}},
	}, f.bump("file_timeline")
}

func (f *fakeRepo) TopDestinations(ctx context.Context, n int) (domain.CategorySeries, error) {
	return domain.CategorySeries{Labels: []string{"10.0.0.1"}, Data: []float64{42}}, f.bump("top_dst")
}

func (f *fakeRepo) Samples(ctx context.Context, n int) ([]domain.SampleRow, error) {
	ip := "10.0.0.1"
	score := 0.9
	return []domain.SampleRow{{SrcIP: &ip, Score: &score}}, f.bump("samples")
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:       "http://backend/api",
		Bucket:        "hour",
		TZ:            "UTC",
		TopN:          10,
		SampleN:       50,
		DownsampleCap: 300,
		TrendVariant:  config.VariantTrend,
	}
}

func TestFetchAllHealthy(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok"}
	snap, err := FetchAll(context.Background(), repo, testConfig())
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if snap.Cards.Total != 100 {
		t.Fatalf("cards not populated: %+v", snap.Cards)
	}
	if len(snap.Timeline.Series) != 1 || len(snap.Samples) != 1 {
		t.Fatalf("snapshot incomplete: %+v", snap)
	}
	if snap.FetchedAt.IsZero() {
		t.Fatalf("fetch timestamp not recorded")
	}
}

func TestFetchAllAcceptsAlive(t *testing.T) {
	repo := &fakeRepo{pingStatus: "alive"}
	if _, err := FetchAll(context.Background(), repo, testConfig()); err != nil {
		t.Fatalf("alive status should be healthy: %v", err)
	}
}

func TestFetchAllPingDownSkipsBatch(t *testing.T) {
	repo := &fakeRepo{pingStatus: "down"}
	if _, err := FetchAll(context.Background(), repo, testConfig()); err == nil {
		t.Fatalf("expected error for down status")
	}
	if n := atomic.LoadInt32(&repo.dataCalls); n != 0 {
		t.Fatalf("expected no data calls after failed probe, got %d", n)
	}
}

func TestFetchAllPingTransportFailure(t *testing.T) {
	repo := &fakeRepo{pingErr: errors.New("connection refused")}
	if _, err := FetchAll(context.Background(), repo, testConfig()); err == nil {
		t.Fatalf("expected transport error to fail the fetch")
	}
	if n := atomic.LoadInt32(&repo.dataCalls); n != 0 {
		t.Fatalf("expected no data calls, got %d", n)
	}
}

func TestFetchAllPartialFailureFailsWhole(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok", failOn: "severity"}
	if _, err := FetchAll(context.Background(), repo, testConfig()); err == nil {
		t.Fatalf("expected one failing endpoint to fail the batch")
	}
}

func TestFetchAllVariantSelection(t *testing.T) {
	cfg := testConfig()
	cfg.TrendVariant = config.VariantFileTimeline
	repo := &fakeRepo{pingStatus: "ok", failOn: "trend"} // must never be called
	snap, err := FetchAll(context.Background(), repo, cfg)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(snap.FileTimeline.Series) != 1 {
		t.Fatalf("file timeline not populated")
	}
	if len(snap.Trend.Labels) != 0 || len(snap.TopDst.Labels) != 0 {
		t.Fatalf("flat-variant endpoints fetched in keyed variant")
	}
}

func TestUpdateAppliesSnapshot(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok"}
	m := New(testConfig(), repo, zap.NewNop())

	snap, err := FetchAll(context.Background(), repo, testConfig())
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	next, _ := m.Update(fetchedMsg{seq: 1, snap: snap})
	got := next.(Model)

	if !got.healthy {
		t.Fatalf("expected healthy after snapshot")
	}
	if got.loading {
		t.Fatalf("loading flag should clear")
	}
	if len(got.samples) != 1 {
		t.Fatalf("samples not populated")
	}
	if got.snap.Cards.Total != 100 {
		t.Fatalf("chart state not populated")
	}
}

func TestUpdateFailureClearsTableKeepsCharts(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok"}
	m := New(testConfig(), repo, zap.NewNop())

	snap, _ := FetchAll(context.Background(), repo, testConfig())
	next, _ := m.Update(fetchedMsg{seq: 1, snap: snap})
	m = next.(Model)

	// second batch fails
	m2, _ := m.refresh()
	next, _ = m2.Update(fetchFailedMsg{seq: 2, err: errors.New("backend gone")})
	got := next.(Model)

	if got.healthy {
		t.Fatalf("expected unhealthy after failure")
	}
	if got.loading {
		t.Fatalf("loading flag should clear on failure")
	}
	if len(got.samples) != 0 {
		t.Fatalf("table should clear on failure")
	}
	if got.snap.Cards.Total != 100 {
		t.Fatalf("chart state should stay stale, not clear")
	}
}

func TestUpdateDiscardsStaleResults(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok"}
	m := New(testConfig(), repo, zap.NewNop())

	// two refreshes issued; result of the first arrives late
	m2, _ := m.refresh()
	m3, _ := m2.refresh()

	snap, _ := FetchAll(context.Background(), repo, testConfig())
	next, _ := m3.Update(fetchedMsg{seq: 2, snap: snap})
	got := next.(Model)

	if got.healthy || len(got.samples) != 0 {
		t.Fatalf("stale result should be discarded")
	}
	if !got.loading {
		t.Fatalf("latest batch is still in flight, loading should hold")
	}

	// the current batch's result still lands
	next, _ = got.Update(fetchedMsg{seq: 3, snap: snap})
	got = next.(Model)
	if !got.healthy {
		t.Fatalf("current batch result should apply")
	}
}

func TestViewShowsLoadingThenData(t *testing.T) {
	repo := &fakeRepo{pingStatus: "ok"}
	m := New(testConfig(), repo, zap.NewNop())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	if out := m.View(); !strings.Contains(out, "loading") {
		t.Fatalf("initial view should show loading state")
	}

	snap, _ := FetchAll(context.Background(), repo, testConfig())
	next, _ = m.Update(fetchedMsg{seq: 1, snap: snap})
	m = next.(Model)

	out := m.View()
	if !strings.Contains(out, "live") {
		t.Fatalf("view should show live health indicator")
	}
	if strings.Contains(out, "loading…") {
		t.Fatalf("loading placeholder should be gone after snapshot")
	}
}
