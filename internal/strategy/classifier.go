package strategy

import (
	"math"

	"github.com/rayhankar/whale-hunt/internal/market"
)

// Status is the qualitative bias attached to a classified symbol.
type Status string

const (
	Bullish Status = "bullish"
	Bearish Status = "bearish"
	Neutral Status = "neutral"
)

// Labels produced by Classify. Presentation renders these verbatim.
const (
	LabelAwaiting = "awaiting data"
	LabelObserving = "observing"
	LabelBreakout = "breakout"
	LabelMomentum = "momentum"
	LabelWhale    = "whale"
	LabelWeak     = "weak"
	LabelDump     = "dump"
	LabelStable   = "stable"
)

// Classify maps a symbol's recorded window plus the current sample to a label
// and bias. It is pure: same inputs, same answer. Rules are checked in fixed
// priority order and the first match wins.
func Classify(current market.Sample, window []market.Sample, ok bool) (string, Status) {
	if !ok {
		return LabelAwaiting, Neutral
	}
	if len(window) < 2 {
		return LabelObserving, Neutral
	}

	prices := make([]float64, 0, len(window)+1)
	volumes := make([]float64, 0, len(window)+1)
	for _, s := range window {
		prices = append(prices, s.Price)
		volumes = append(volumes, s.QuoteVolume)
	}
	prices = append(prices, current.Price)
	volumes = append(volumes, current.QuoteVolume)

	rvolNow := current.RVOL
	priceChg := 0.0
	if prev := prices[len(prices)-2]; prev > 0 {
		priceChg = (prices[len(prices)-1] - prev) / prev * 100
	}

	n := len(volumes)
	volumesRising := n >= 3 && volumes[n-3] < volumes[n-2] && volumes[n-2] < volumes[n-1]

	switch {
	case rvolNow > 3.0 && priceChg > 1.0:
		return LabelBreakout, Bullish
	case volumesRising && priceChg > 0.3:
		return LabelMomentum, Bullish
	case rvolNow > 5.0 && math.Abs(priceChg) < 0.5:
		return LabelWhale, Bullish
	case priceChg > 0 && rvolNow < 0.8:
		return LabelWeak, Bearish
	case priceChg < -1.0 && rvolNow > 2.0:
		return LabelDump, Bearish
	default:
		return LabelStable, Neutral
	}
}
