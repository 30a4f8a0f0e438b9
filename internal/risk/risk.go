package risk

import "github.com/rayhankar/whale-hunt/internal/strategy"

// EntryGate filters classified symbols before the books are asked to open.
type EntryGate struct {
	RSICeiling float64
}

// Allow admits bullish symbols whose RSI sits under the ceiling.
func (g EntryGate) Allow(status strategy.Status, rsi float64) bool {
	if status != strategy.Bullish {
		return false
	}
	return rsi < g.RSICeiling
}
