// HTTP implementation of domain.AnalyticsRepo against the analytics
// backend's read-only JSON API. Every response is schema-validated here,
// at the fetch boundary; nothing downstream trusts shapes implicitly.
package api

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/anomdash/anomdash/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Repo struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Repo {
	return &Repo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{}, // single attempt, stack-default timeouts
		log:     logger.Named("api"),
	}
}

type validator interface{ Validate() error }

// getJSON issues one GET and decodes the body into out. Non-2xx statuses
// and validation failures are errors; there is no retry.
func (r *Repo) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("get %s: unexpected status %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
	}
	r.log.Debug("fetched", zap.String("path", path), zap.Int("bytes", len(body)))
	return nil
}

func (r *Repo) Ping(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := r.getJSON(ctx, "/ping", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (r *Repo) Overview(ctx context.Context) (domain.OverviewCards, error) {
	var out domain.OverviewCards
	err := r.getJSON(ctx, "/cards/overview", nil, &out)
	return out, err
}

func bucketQuery(bucket, tz string) url.Values {
	q := url.Values{}
	if bucket != "" {
		q.Set("bucket", bucket)
	}
	if tz != "" {
		q.Set("tz", tz)
	}
	return q
}

func (r *Repo) Timeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	var out domain.Timeline
	err := r.getJSON(ctx, "/charts/timeline", bucketQuery(bucket, tz), &out)
	return out, err
}

func (r *Repo) Severity(ctx context.Context) (domain.CategorySeries, error) {
	var out domain.CategorySeries
	err := r.getJSON(ctx, "/charts/severity", nil, &out)
	return out, err
}

// rawDistribution tolerates null bin edges before normalizing them to NaN.
type rawDistribution struct {
	Bins   []*float64 `json:"bins"`
	Counts []int64    `json:"counts"`
}

func (r *Repo) Distribution(ctx context.Context) (domain.Distribution, error) {
	var raw rawDistribution
	if err := r.getJSON(ctx, "/charts/distribution", nil, &raw); err != nil {
		return domain.Distribution{}, err
	}
	out := domain.Distribution{
		Bins:   make([]float64, len(raw.Bins)),
		Counts: raw.Counts,
	}
	for i, b := range raw.Bins {
		if b == nil {
			out.Bins[i] = math.NaN()
		} else {
			out.Bins[i] = *b
		}
	}
	if err := out.Validate(); err != nil {
		return domain.Distribution{}, fmt.Errorf("validate /charts/distribution: %w", err)
	}
	return out, nil
}

func (r *Repo) Trend(ctx context.Context, bucket, tz string) (domain.CategorySeries, error) {
	var out domain.CategorySeries
	err := r.getJSON(ctx, "/charts/trend", bucketQuery(bucket, tz), &out)
	return out, err
}

// rawFileTimeline is the keyed-by-series variant of the second chart slot.
type rawFileTimeline struct {
	Labels []string              `json:"labels"`
	Series map[string][]*float64 `json:"series"`
}

// FileTimeline normalizes the keyed shape into a Timeline with the series
// sorted by name, so downstream rendering is deterministic.
func (r *Repo) FileTimeline(ctx context.Context, bucket, tz string) (domain.Timeline, error) {
	var raw rawFileTimeline
	if err := r.getJSON(ctx, "/charts/file_timeline", bucketQuery(bucket, tz), &raw); err != nil {
		return domain.Timeline{}, err
	}
	names := make([]string, 0, len(raw.Series))
	for name := range raw.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	out := domain.Timeline{Labels: raw.Labels}
	for _, name := range names {
		out.Series = append(out.Series, domain.TimelineSeries{Name: name, Data: raw.Series[name]})
	}
	if err := out.Validate(); err != nil {
		return domain.Timeline{}, fmt.Errorf("validate /charts/file_timeline: %w", err)
	}
	return out, nil
}

func (r *Repo) TopDestinations(ctx context.Context, n int) (domain.CategorySeries, error) {
	var out domain.CategorySeries
	q := url.Values{}
	q.Set("n", strconv.Itoa(n))
	err := r.getJSON(ctx, "/charts/top/dst_ip", q, &out)
	return out, err
}

func (r *Repo) Samples(ctx context.Context, n int) ([]domain.SampleRow, error) {
	var out struct {
		Rows []domain.SampleRow `json:"rows"`
	}
	q := url.Values{}
	q.Set("n", strconv.Itoa(n))
	if err := r.getJSON(ctx, "/table/samples", q, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}
