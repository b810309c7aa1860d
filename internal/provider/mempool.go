package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// MempoolProvider fetches chain height, fiat rates and the
// recommended fee schedule from a mempool.space instance.
type MempoolProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

// FeeSchedule is the recommended fee tiers in sat/vB.
type FeeSchedule struct {
	Fastest  float64 `json:"fastestFee"`
	HalfHour float64 `json:"halfHourFee"`
	Hour     float64 `json:"hourFee"`
	Economy  float64 `json:"economyFee"`
	Minimum  float64 `json:"minimumFee"`
}

func NewMempoolProvider(tracer trace.Tracer, baseURL string) *MempoolProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://mempool.space"
	}
	return &MempoolProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// FetchTipHeight returns the current chain tip height.
func (p *MempoolProvider) FetchTipHeight(ctx context.Context) (int64, error) {
	_, span := p.tracer.Start(ctx, "mempool.fetch-tip-height")
	defer span.End()

	body, err := p.doRequest(ctx, "/api/blocks/tip/height")
	if err != nil {
		return 0, fmt.Errorf("fetch tip height: %w", err)
	}

	// The endpoint returns a bare JSON number.
	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse tip height: %w", err)
	}
	if height < 0 {
		return 0, fmt.Errorf("negative tip height %d", height)
	}
	return height, nil
}

// FetchFiatRate returns the BTC exchange rate for the given currency
// code.
func (p *MempoolProvider) FetchFiatRate(ctx context.Context, currency string) (float64, error) {
	_, span := p.tracer.Start(ctx, "mempool.fetch-fiat-rate")
	defer span.End()

	body, err := p.doRequest(ctx, "/api/v1/prices")
	if err != nil {
		return 0, fmt.Errorf("fetch fiat rate: %w", err)
	}

	// Response shape: {"time": 1700000000, "USD": 97000, "EUR": ...}
	var raw map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse fiat rates: %w", err)
	}
	rate, ok := raw[currency]
	if !ok {
		return 0, fmt.Errorf("fiat rates payload missing %s", currency)
	}
	return rate, nil
}

// FetchRecommendedFees returns the current recommended fee schedule.
func (p *MempoolProvider) FetchRecommendedFees(ctx context.Context) (*FeeSchedule, error) {
	_, span := p.tracer.Start(ctx, "mempool.fetch-recommended-fees")
	defer span.End()

	body, err := p.doRequest(ctx, "/api/v1/fees/recommended")
	if err != nil {
		return nil, fmt.Errorf("fetch recommended fees: %w", err)
	}

	var fees FeeSchedule
	if err := json.Unmarshal(body, &fees); err != nil {
		return nil, fmt.Errorf("parse recommended fees: %w", err)
	}
	if fees.Fastest <= 0 {
		return nil, fmt.Errorf("recommended fees payload has no fastest tier")
	}
	return &fees, nil
}

func (p *MempoolProvider) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mempool API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
