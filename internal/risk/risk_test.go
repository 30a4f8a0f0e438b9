package risk

import (
	"testing"

	"github.com/rayhankar/whale-hunt/internal/strategy"
)

func TestEntryGate(t *testing.T) {
	gate := EntryGate{RSICeiling: 70}

	if !gate.Allow(strategy.Bullish, 55) {
		t.Fatalf("bullish under ceiling should pass")
	}
	if gate.Allow(strategy.Bullish, 70) {
		t.Fatalf("rsi at ceiling should be rejected")
	}
	if gate.Allow(strategy.Bearish, 30) || gate.Allow(strategy.Neutral, 30) {
		t.Fatalf("non-bullish status should be rejected")
	}
}
