// Package derive holds the pure arithmetic that turns raw
// observations into the metrics the renderer and tweet consume.
package derive

import (
	"math"

	"bitcoin-roller-coaster/internal/domain"
)

const (
	// AssumedTxVBytes is the virtual size of a simple transaction
	// used for the fee cost estimate.
	AssumedTxVBytes = 250

	// SatsPerBTC converts satoshi amounts to BTC for fiat pricing.
	SatsPerBTC = 100_000_000

	// RotationWindow names the window whose change drives the
	// roller-coaster rotation.
	RotationWindow = "1 Week"

	maxAngle = 90.0
)

// PriceChange computes the percentage move between the current and a
// historical price. The result is unavailable when either input is,
// or when the historical price is exactly zero.
func PriceChange(current, historical domain.Observation, window string) domain.PriceChange {
	if !current.OK || !historical.OK || historical.Value == 0 {
		return domain.PriceChange{Window: window}
	}
	pct := (current.Value - historical.Value) / historical.Value * 100
	return domain.PriceChange{Window: window, Pct: pct, OK: true}
}

// PriceChanges derives one change per configured lookback window.
func PriceChanges(current domain.Observation, historical map[string]domain.Observation) map[string]domain.PriceChange {
	changes := make(map[string]domain.PriceChange, len(domain.Windows))
	for _, w := range domain.Windows {
		changes[w.Label] = PriceChange(current, historical[w.Label], w.Label)
	}
	return changes
}

// FeeEstimate prices a simple transaction at the fastest fee tier.
// Unavailable iff the fee rate or the fiat rate is unavailable.
func FeeEstimate(fastestFee, fiatRate domain.Observation) domain.FeeEstimate {
	if !fastestFee.OK || !fiatRate.OK {
		return domain.FeeEstimate{}
	}
	sats := int64(fastestFee.Value * AssumedTxVBytes)
	usd := math.Round(float64(sats)*fiatRate.Value/SatsPerBTC*100) / 100
	return domain.FeeEstimate{Sats: sats, USD: usd, OK: true}
}

// RotationAngle maps the medium-term change onto a bounded rotation:
// +10% tilts the track a full 90 degrees up, -10% a full 90 down.
// An unavailable change leaves the track level rather than failing
// the cycle; the visual is still meaningful un-rotated.
func RotationAngle(weekChange domain.PriceChange) float64 {
	if !weekChange.OK {
		return 0
	}
	angle := weekChange.Pct / 10 * maxAngle
	if angle > maxAngle {
		return maxAngle
	}
	if angle < -maxAngle {
		return -maxAngle
	}
	return angle
}
