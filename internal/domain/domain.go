package domain

import "time"

// Source identifiers tagged onto observations and used in skip
// diagnostics.
const (
	SourceSpotPrice  = "spot_price"
	SourceHistorical = "historical_price"
	SourceTrend      = "trend_score"
	SourceHeight     = "chain_height"
	SourceFiatRate   = "fiat_rate"
	SourceFee        = "fee_schedule"
)

// Observation is a single fetched value tagged with its source and an
// explicit availability marker. A missing value is always OK=false;
// zero never stands in for absent data.
type Observation struct {
	Source string
	Value  float64
	OK     bool
}

func Available(source string, value float64) Observation {
	return Observation{Source: source, Value: value, OK: true}
}

func Unavailable(source string) Observation {
	return Observation{Source: source}
}

// LookbackWindow is a named historical comparison duration.
type LookbackWindow struct {
	Label    string
	Lookback time.Duration
}

// Windows is the fixed, ordered set of comparison windows. Derivation
// and rendering both iterate this slice so the line order is stable.
var Windows = []LookbackWindow{
	{Label: "1 Hour", Lookback: time.Hour},
	{Label: "1 Week", Lookback: 7 * 24 * time.Hour},
	{Label: "1 Month", Lookback: 30 * 24 * time.Hour},
	{Label: "6 Months", Lookback: 180 * 24 * time.Hour},
}

type ChangeSign int

const (
	SignNonPositive ChangeSign = iota
	SignPositive
)

// PriceChange is the percentage move over one lookback window.
type PriceChange struct {
	Window string
	Pct    float64
	OK     bool
}

// Sign reports whether the change renders as a gain. Unavailable and
// zero changes both count as non-positive.
func (c PriceChange) Sign() ChangeSign {
	if c.OK && c.Pct > 0 {
		return SignPositive
	}
	return SignNonPositive
}

// FeeEstimate is the cost of a simple transaction at the fastest fee
// tier, in satoshis and in USD.
type FeeEstimate struct {
	Sats int64
	USD  float64
	OK   bool
}

// Snapshot holds every raw observation fetched for one cycle. It is
// owned by that cycle and discarded when the cycle ends.
type Snapshot struct {
	SpotPrice   Observation
	Historical  map[string]Observation // keyed by window label
	TrendScore  Observation
	ChainHeight Observation
	FiatRate    Observation
	FastestFee  Observation
}

// CycleResult aggregates the observations, derived metrics and the
// rendered artifact for one invocation.
type CycleResult struct {
	Snapshot Snapshot
	Changes  map[string]PriceChange
	Fee      FeeEstimate
	Angle    float64
	GIF      []byte
	Text     string
}

// CycleOutcome summarizes one run for logs and the status endpoint.
type CycleOutcome struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Published  bool      `json:"published"`
	TweetID    string    `json:"tweet_id,omitempty"`
	Missing    []string  `json:"missing,omitempty"`
	Err        string    `json:"error,omitempty"`
}
