// Package fetch is the boundary where unreliable upstreams become
// explicit observations. Provider errors stop here: every slot of the
// cycle snapshot is either Available or Unavailable, and no source
// failure aborts fetching the others.
package fetch

import (
	"context"
	"log"
	"sync"
	"time"

	"bitcoin-roller-coaster/internal/domain"
	"bitcoin-roller-coaster/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type PriceReader interface {
	FetchSpotPrice(ctx context.Context) (float64, error)
	FetchHistoricalPrice(ctx context.Context, lookback time.Duration) (float64, error)
}

type ChainReader interface {
	FetchTipHeight(ctx context.Context) (int64, error)
	FetchFiatRate(ctx context.Context, currency string) (float64, error)
	FetchRecommendedFees(ctx context.Context) (*provider.FeeSchedule, error)
}

type TrendReader interface {
	FetchLatestScore(ctx context.Context) (int, error)
}

// snapshotTimeout bounds one whole fan-out. A source that has not
// answered by then is recorded as Unavailable; nothing may suspend
// the cycle indefinitely.
const snapshotTimeout = 30 * time.Second

type Fetcher struct {
	tracer   trace.Tracer
	prices   PriceReader
	chain    ChainReader
	trends   TrendReader
	currency string
	timeout  time.Duration
}

func New(tracer trace.Tracer, prices PriceReader, chain ChainReader, trends TrendReader, currency string) *Fetcher {
	return &Fetcher{
		tracer:   tracer,
		prices:   prices,
		chain:    chain,
		trends:   trends,
		currency: currency,
		timeout:  snapshotTimeout,
	}
}

// Snapshot issues every fetch for one cycle. The fetches run
// concurrently and each goroutine writes only its own slot; the
// historical map alone needs a mutex because map writes race.
func (f *Fetcher) Snapshot(ctx context.Context) domain.Snapshot {
	ctx, span := f.tracer.Start(ctx, "fetch.snapshot")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	snap := domain.Snapshot{
		Historical: make(map[string]domain.Observation, len(domain.Windows)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.SpotPrice = observe(domain.SourceSpotPrice, func() (float64, error) {
			return f.prices.FetchSpotPrice(ctx)
		})
	}()

	for _, w := range domain.Windows {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs := observe(domain.SourceHistorical+":"+w.Label, func() (float64, error) {
				return f.prices.FetchHistoricalPrice(ctx, w.Lookback)
			})
			mu.Lock()
			snap.Historical[w.Label] = obs
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.TrendScore = observe(domain.SourceTrend, func() (float64, error) {
			score, err := f.trends.FetchLatestScore(ctx)
			return float64(score), err
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.ChainHeight = observe(domain.SourceHeight, func() (float64, error) {
			height, err := f.chain.FetchTipHeight(ctx)
			return float64(height), err
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.FiatRate = observe(domain.SourceFiatRate, func() (float64, error) {
			return f.chain.FetchFiatRate(ctx, f.currency)
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snap.FastestFee = observe(domain.SourceFee, func() (float64, error) {
			fees, err := f.chain.FetchRecommendedFees(ctx)
			if err != nil {
				return 0, err
			}
			return fees.Fastest, nil
		})
	}()

	wg.Wait()
	return snap
}

// observe converts a provider result into an observation, absorbing
// the error with a boundary diagnostic.
func observe(source string, fn func() (float64, error)) domain.Observation {
	value, err := fn()
	if err != nil {
		log.Printf("source %s unavailable: %v", source, err)
		return domain.Unavailable(source)
	}
	return domain.Available(source, value)
}
