package api

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestRepo(t *testing.T, handler http.Handler) *Repo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zap.NewNop())
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	status, err := repo.Ping(context.Background())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if status != "ok" {
		t.Fatalf("status %q, want ok", status)
	}
}

func TestPingNonSuccessStatus(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	if _, err := repo.Ping(context.Background()); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestOverviewValidation(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":10,"anomalies":20,"anomaly_rate":0.1,"threshold":0.7}`))
	}))
	if _, err := repo.Overview(context.Background()); err == nil {
		t.Fatalf("expected validation error, anomalies > total")
	}
}

func TestTimelineQueryAndShape(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("bucket"); got != "hour" {
			t.Errorf("bucket %q, want hour", got)
		}
		if got := r.URL.Query().Get("tz"); got != "UTC" {
			t.Errorf("tz %q, want UTC", got)
		}
		w.Write([]byte(`{"labels":["a","b"],"series":[{"name":"tcp","data":[1,null]}]}`))
	}))
	tl, err := repo.Timeline(context.Background(), "hour", "UTC")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(tl.Series) != 1 || tl.Series[0].Name != "tcp" {
		t.Fatalf("unexpected series: %+v", tl.Series)
	}
	if tl.Series[0].Data[1] != nil {
		t.Fatalf("expected null point preserved as nil")
	}
}

func TestTimelineRejectsMisalignedSeries(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"labels":["a","b","c"],"series":[{"name":"tcp","data":[1]}]}`))
	}))
	if _, err := repo.Timeline(context.Background(), "hour", "UTC"); err == nil {
		t.Fatalf("expected validation error on misaligned series")
	}
}

func TestDistributionNullEdgeBecomesNaN(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bins":[0.0,null,1.0],"counts":[3,7]}`))
	}))
	d, err := repo.Distribution(context.Background())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if !math.IsNaN(d.Bins[1]) {
		t.Fatalf("null edge not normalized to NaN: %v", d.Bins[1])
	}
}

func TestDistributionRejectsCountMismatch(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bins":[0.0,0.5,1.0],"counts":[1]}`))
	}))
	if _, err := repo.Distribution(context.Background()); err == nil {
		t.Fatalf("expected validation error on count/bin mismatch")
	}
}

func TestFileTimelineNormalization(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"labels":["x","y"],"series":{"b.csv":[1,2],"a.csv":[3,4]}}`))
	}))
	tl, err := repo.FileTimeline(context.Background(), "day", "UTC")
	if err != nil {
		t.Fatalf("file timeline: %v", err)
	}
	if len(tl.Series) != 2 || tl.Series[0].Name != "a.csv" || tl.Series[1].Name != "b.csv" {
		t.Fatalf("series not sorted by name: %+v", tl.Series)
	}
}

func TestSamplesQueryAndSparseRows(t *testing.T) {
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("n"); got != "50" {
			t.Errorf("n %q, want 50", got)
		}
		w.Write([]byte(`{"rows":[{"src_ip":"10.0.0.1","score":0.93},{}]}`))
	}))
	rows, err := repo.Samples(context.Background(), 50)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].SrcIP == nil || *rows[0].SrcIP != "10.0.0.1" {
		t.Fatalf("src_ip lost: %+v", rows[0])
	}
	if rows[1].Score != nil {
		t.Fatalf("empty row grew a score")
	}
}
