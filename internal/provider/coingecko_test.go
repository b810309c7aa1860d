package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body any) *http.Response {
	data, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func newTestCoinGecko(rt roundTripFunc) *CoinGeckoProvider {
	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{Transport: rt}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func TestCoinGeckoFetchSpotPrice(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/simple/price") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, map[string]map[string]float64{
			"bitcoin": {"usd": 97123.45},
		}), nil
	})

	price, err := p.FetchSpotPrice(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 97123.45 {
		t.Fatalf("expected 97123.45, got %f", price)
	}
}

func TestCoinGeckoFetchSpotPriceMissingField(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]map[string]float64{}), nil
	})

	if _, err := p.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("expected error for missing bitcoin.usd")
	}
}

func TestCoinGeckoFetchHistoricalPrice(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var gotFrom, gotTo string

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/market_chart/range") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		gotFrom = req.URL.Query().Get("from")
		gotTo = req.URL.Query().Get("to")
		return jsonResponse(http.StatusOK, map[string][][]float64{
			"prices": {
				{1753000000000, 64000.5},
				{1753100000000, 65500},
			},
		}), nil
	})
	p.now = func() time.Time { return now }

	price, err := p.FetchHistoricalPrice(context.Background(), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The earliest entry in range is the historical reference.
	if price != 64000.5 {
		t.Fatalf("expected 64000.5, got %f", price)
	}
	if gotTo != "1785542400" {
		t.Fatalf("unexpected to timestamp: %s", gotTo)
	}
	if gotFrom != "1784937600" {
		t.Fatalf("unexpected from timestamp: %s", gotFrom)
	}
}

func TestCoinGeckoFetchHistoricalPriceEmptyRange(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string][][]float64{"prices": {}}), nil
	})

	if _, err := p.FetchHistoricalPrice(context.Background(), time.Hour); err == nil {
		t.Fatal("expected error for empty price range")
	}
}

func TestCoinGeckoNonOKStatus(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("rate limited")),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := p.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("expected error for 429 response")
	}
}
