package provider

import (
	"context"
	"fmt"

	"github.com/groovili/gogtrends"
	"go.opentelemetry.io/otel/trace"
)

const (
	trendsLocale           = "EN"
	trendsTimeseriesWidget = "TIMESERIES"
)

// TrendsProvider fetches Google Trends interest-over-time for a fixed
// keyword and reports the most recent sample on a 0-100 scale.
type TrendsProvider struct {
	tracer    trace.Tracer
	keyword   string
	timeframe string

	// indirections over the gogtrends package functions for tests
	explore          func(ctx context.Context, r *gogtrends.ExploreRequest, hl string) ([]*gogtrends.ExploreWidget, error)
	interestOverTime func(ctx context.Context, w *gogtrends.ExploreWidget, hl string) ([]*gogtrends.Timeline, error)
}

func NewTrendsProvider(tracer trace.Tracer, keyword, timeframe string) *TrendsProvider {
	return &TrendsProvider{
		tracer:           tracer,
		keyword:          keyword,
		timeframe:        timeframe,
		explore: func(ctx context.Context, r *gogtrends.ExploreRequest, hl string) ([]*gogtrends.ExploreWidget, error) {
			return gogtrends.Explore(ctx, r, hl)
		},
		interestOverTime: gogtrends.InterestOverTime,
	}
}

// FetchLatestScore returns the newest interest-over-time sample for
// the configured keyword and timeframe.
func (p *TrendsProvider) FetchLatestScore(ctx context.Context) (int, error) {
	_, span := p.tracer.Start(ctx, "trends.fetch-latest-score")
	defer span.End()

	widgets, err := p.explore(ctx, &gogtrends.ExploreRequest{
		ComparisonItems: []*gogtrends.ComparisonItem{
			{Keyword: p.keyword, Time: p.timeframe},
		},
	}, trendsLocale)
	if err != nil {
		return 0, fmt.Errorf("explore trends: %w", err)
	}

	var timeseries *gogtrends.ExploreWidget
	for _, w := range widgets {
		if w.ID == trendsTimeseriesWidget {
			timeseries = w
			break
		}
	}
	if timeseries == nil {
		return 0, fmt.Errorf("trends explore returned no timeseries widget")
	}

	points, err := p.interestOverTime(ctx, timeseries, trendsLocale)
	if err != nil {
		return 0, fmt.Errorf("interest over time: %w", err)
	}

	// Trailing points can be empty while Google finalizes the
	// current bucket; walk back to the newest populated sample.
	for i := len(points) - 1; i >= 0; i-- {
		if len(points[i].Value) > 0 {
			return points[i].Value[0], nil
		}
	}
	return 0, fmt.Errorf("trends timeline has no samples")
}
