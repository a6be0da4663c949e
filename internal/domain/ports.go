package domain

import "context"

// AnalyticsRepo is the read-only port onto the anomaly-analytics backend.
// Ping reports the raw liveness status string; IsLive decides what counts
// as healthy.
type AnalyticsRepo interface {
	Ping(ctx context.Context) (string, error)
	Overview(ctx context.Context) (OverviewCards, error)
	Timeline(ctx context.Context, bucket, tz string) (Timeline, error)
	Severity(ctx context.Context) (CategorySeries, error)
	Distribution(ctx context.Context) (Distribution, error)
	Trend(ctx context.Context, bucket, tz string) (CategorySeries, error)
	FileTimeline(ctx context.Context, bucket, tz string) (Timeline, error)
	TopDestinations(ctx context.Context, n int) (CategorySeries, error)
	Samples(ctx context.Context, n int) ([]SampleRow, error)
}

// IsLive is the single place that interprets the probe status string.
func IsLive(status string) bool {
	return status == "ok" || status == "alive"
}
