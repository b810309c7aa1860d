package service

import (
	"testing"

	"bitcoin-roller-coaster/internal/domain"
)

func completeResult() domain.CycleResult {
	return domain.CycleResult{
		Snapshot: domain.Snapshot{
			SpotPrice:   domain.Available(domain.SourceSpotPrice, 108000),
			TrendScore:  domain.Available(domain.SourceTrend, 64),
			ChainHeight: domain.Available(domain.SourceHeight, 910000),
			FiatRate:    domain.Available(domain.SourceFiatRate, 108000),
			FastestFee:  domain.Available(domain.SourceFee, 3),
		},
		Fee: domain.FeeEstimate{Sats: 750, USD: 0.81, OK: true},
		GIF: []byte("gif"),
	}
}

func TestGatePassesCompleteResult(t *testing.T) {
	ok, missing := EvaluateGate(completeResult())
	if !ok {
		t.Fatalf("expected gate to pass, missing %v", missing)
	}
}

func TestGateRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		strip func(*domain.CycleResult)
		want  string
	}{
		{"fee", func(r *domain.CycleResult) { r.Fee = domain.FeeEstimate{} }, "fee_estimate"},
		{"fiat rate", func(r *domain.CycleResult) { r.Snapshot.FiatRate = domain.Unavailable(domain.SourceFiatRate) }, domain.SourceFiatRate},
		{"chain height", func(r *domain.CycleResult) { r.Snapshot.ChainHeight = domain.Unavailable(domain.SourceHeight) }, domain.SourceHeight},
		{"trend score", func(r *domain.CycleResult) { r.Snapshot.TrendScore = domain.Unavailable(domain.SourceTrend) }, domain.SourceTrend},
		{"animation", func(r *domain.CycleResult) { r.GIF = nil }, "rendered_gif"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := completeResult()
			tc.strip(&res)
			ok, missing := EvaluateGate(res)
			if ok {
				t.Fatal("expected gate to block")
			}
			if len(missing) != 1 || missing[0] != tc.want {
				t.Fatalf("missing = %v, want [%s]", missing, tc.want)
			}
		})
	}
}

func TestGateIgnoresMissingPriceChanges(t *testing.T) {
	res := completeResult()
	res.Changes = map[string]domain.PriceChange{
		"1 Month": {Window: "1 Month"}, // unavailable
	}
	if ok, missing := EvaluateGate(res); !ok {
		t.Fatalf("missing price change must not block publishing, missing %v", missing)
	}
}

func TestGateReportsEveryMissingField(t *testing.T) {
	ok, missing := EvaluateGate(domain.CycleResult{})
	if ok {
		t.Fatal("empty result must not pass the gate")
	}
	if len(missing) != 5 {
		t.Fatalf("missing = %v, want all five required fields", missing)
	}
}
