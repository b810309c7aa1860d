package service

import "bitcoin-roller-coaster/internal/domain"

// Gate field names surfaced in skip diagnostics.
const (
	gateFieldFeeEstimate = "fee_estimate"
	gateFieldRenderedGIF = "rendered_gif"
)

// EvaluateGate applies the all-or-nothing publish rule: publish only
// when the fee estimate, fiat rate, chain height, trend score and the
// rendered animation are all present. Per-window price changes are
// deliberately not in the required set; a missing window renders as
// an unavailable line but never blocks publishing.
func EvaluateGate(res domain.CycleResult) (bool, []string) {
	var missing []string
	if !res.Fee.OK {
		missing = append(missing, gateFieldFeeEstimate)
	}
	if !res.Snapshot.FiatRate.OK {
		missing = append(missing, domain.SourceFiatRate)
	}
	if !res.Snapshot.ChainHeight.OK {
		missing = append(missing, domain.SourceHeight)
	}
	if !res.Snapshot.TrendScore.OK {
		missing = append(missing, domain.SourceTrend)
	}
	if len(res.GIF) == 0 {
		missing = append(missing, gateFieldRenderedGIF)
	}
	return len(missing) == 0, missing
}
