package analytics

import (
	"fmt"
)

// Trade composition constants
const (
	DefaultTradeBand = 5.0
	// NeutralCV stands in for players without a consistency grade yet.
	NeutralCV = 0.5
)

// TradeWeights are the fixed blend weights of a composite value
type TradeWeights struct {
	Fantasy     float64 `json:"fantasy"`
	Consistency float64 `json:"consistency"`
	Trend       float64 `json:"trend"`
	Health      float64 `json:"health"`
}

// DefaultTradeWeights returns (0.5, 0.2, 0.2, 0.1).
func DefaultTradeWeights() TradeWeights {
	return TradeWeights{Fantasy: 0.5, Consistency: 0.2, Trend: 0.2, Health: 0.1}
}

// TradeLabel is the verdict on a proposed trade
type TradeLabel string

const (
	TradeAccept  TradeLabel = "ACCEPT"
	TradeDecline TradeLabel = "DECLINE"
	TradeNeutral TradeLabel = "NEUTRAL"
)

// HealthScore maps an injury tier onto [0,1].
func HealthScore(status InjuryStatus) float64 {
	switch status {
	case InjuryOut:
		return 0.0
	case InjuryDoubtful:
		return 0.3
	case InjuryQuestionable:
		return 0.6
	case InjuryProbable:
		return 0.9
	default:
		return 1.0
	}
}

// CompositeValue blends season production with consistency, trend and
// health. Fantasy points stay on their native scale; the other three are
// normalized to [0,1] and weighted on a 0-100 basis. Clamping trendValue
// to [-1,1] is the caller's job.
func CompositeValue(seasonAvg, coefficientOfVariation, trendValue, healthScore float64) (float64, error) {
	inputs := []struct {
		name  string
		value float64
	}{
		{"season_avg", seasonAvg},
		{"coefficient_of_variation", coefficientOfVariation},
		{"trend_value", trendValue},
		{"health_score", healthScore},
	}
	for _, in := range inputs {
		if err := checkFinite(in.name, in.value); err != nil {
			return 0, err
		}
	}
	if coefficientOfVariation < 0 {
		return 0, newValidationError("coefficient_of_variation", "must not be negative, got %v", coefficientOfVariation)
	}

	w := DefaultTradeWeights()
	consistency := 1 / (1 + coefficientOfVariation)
	trend := (trendValue + 1) / 2

	return w.Fantasy*seasonAvg +
		w.Consistency*consistency*100 +
		w.Trend*trend*100 +
		w.Health*healthScore*100, nil
}

// ClampTrend limits a trend value to [-1,1].
func ClampTrend(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// TradeAsset is one player on one side of a trade
type TradeAsset struct {
	PlayerID uint    `json:"player_id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
}

// PlayerTradeValue derives a composite value from computed analytics,
// substituting a neutral CV and a flat trend when history is too short.
func PlayerTradeValue(p PlayerAnalytics) (TradeAsset, error) {
	season := ValueOr(p.Averages.Season, 0)
	cv := NeutralCV
	if p.Consistency != nil {
		cv = p.Consistency.CoefficientOfVariation
	}
	trend := 0.0
	if p.ScoreTrend != nil {
		trend = ClampTrend(p.ScoreTrend.Value)
	}
	value, err := CompositeValue(season, cv, trend, HealthScore(p.InjuryStatus))
	if err != nil {
		return TradeAsset{}, fmt.Errorf("player %d: %w", p.PlayerID, err)
	}
	return TradeAsset{PlayerID: p.PlayerID, Name: p.Name, Value: value}, nil
}

// TradeEvaluation compares what is given against what is received
type TradeEvaluation struct {
	GiveValue        float64      `json:"give_value"`
	ReceiveValue     float64      `json:"receive_value"`
	RosterAdjustment float64      `json:"roster_adjustment"`
	ReplacementValue float64      `json:"replacement_value"`
	NetValue         float64      `json:"net_value"`
	Label            TradeLabel   `json:"label"`
	Give             []TradeAsset `json:"give"`
	Receive          []TradeAsset `json:"receive"`
}

// EvaluateTrade sums both sides, credits replacementValue for every roster
// slot freed (or debits it for every slot consumed) and labels the net
// against a ±band noise threshold.
func EvaluateTrade(give, receive []TradeAsset, replacementValue, band float64) (TradeEvaluation, error) {
	if len(give) == 0 && len(receive) == 0 {
		return TradeEvaluation{}, newValidationError("trade", "both sides are empty")
	}
	if err := checkFinite("replacement_value", replacementValue); err != nil {
		return TradeEvaluation{}, err
	}
	if err := checkFinite("band", band); err != nil {
		return TradeEvaluation{}, err
	}
	if band < 0 {
		return TradeEvaluation{}, newValidationError("band", "must not be negative, got %v", band)
	}

	eval := TradeEvaluation{
		ReplacementValue: replacementValue,
		Give:             give,
		Receive:          receive,
	}
	for _, a := range give {
		if err := checkFinite("give.value", a.Value); err != nil {
			return TradeEvaluation{}, err
		}
		eval.GiveValue += a.Value
	}
	for _, a := range receive {
		if err := checkFinite("receive.value", a.Value); err != nil {
			return TradeEvaluation{}, err
		}
		eval.ReceiveValue += a.Value
	}

	slotDelta := len(give) - len(receive)
	eval.RosterAdjustment = replacementValue * float64(slotDelta)
	eval.NetValue = eval.ReceiveValue - eval.GiveValue + eval.RosterAdjustment
	eval.Label = LabelTrade(eval.NetValue, band)

	return eval, nil
}

// LabelTrade applies the ±band dead-zone to a net value.
func LabelTrade(net, band float64) TradeLabel {
	switch {
	case net > band:
		return TradeAccept
	case net < -band:
		return TradeDecline
	default:
		return TradeNeutral
	}
}
