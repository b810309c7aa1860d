package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches the current and historical Bitcoin price
// from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	now     func() time.Time
}

// NewCoinGeckoProvider creates a new provider with built-in rate
// limiting. Rate limited to 8 requests per minute (one token every
// 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
		now:     time.Now,
	}
}

// FetchSpotPrice returns the current BTC price in USD.
func (p *CoinGeckoProvider) FetchSpotPrice(ctx context.Context) (float64, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-spot-price")
	defer span.End()

	url := fmt.Sprintf("%s/simple/price?ids=bitcoin&vs_currencies=usd", p.baseURL)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch spot price: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse spot price: %w", err)
	}
	price, ok := raw["bitcoin"]["usd"]
	if !ok {
		return 0, fmt.Errorf("spot price payload missing bitcoin.usd")
	}
	return price, nil
}

// FetchHistoricalPrice returns the earliest price inside the range
// [now-lookback, now], the historical reference point for that
// lookback window.
func (p *CoinGeckoProvider) FetchHistoricalPrice(ctx context.Context, lookback time.Duration) (float64, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-historical-price")
	defer span.End()

	to := p.now().Unix()
	from := to - int64(lookback/time.Second)
	url := fmt.Sprintf("%s/coins/bitcoin/market_chart/range?vs_currency=usd&from=%d&to=%d",
		p.baseURL, from, to)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch historical price: %w", err)
	}

	// Response shape: {"prices": [[timestamp_ms, price], ...]}, ordered.
	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse historical price: %w", err)
	}
	if len(raw.Prices) == 0 {
		return 0, fmt.Errorf("market chart range has no prices")
	}
	first := raw.Prices[0]
	if len(first) < 2 {
		return 0, fmt.Errorf("market chart point has no price column")
	}
	return first[1], nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
