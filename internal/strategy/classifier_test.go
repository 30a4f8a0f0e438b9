package strategy

import (
	"testing"

	"github.com/rayhankar/whale-hunt/internal/market"
)

func samples(prices ...float64) []market.Sample {
	out := make([]market.Sample, len(prices))
	for i, p := range prices {
		out[i] = market.Sample{Price: p, QuoteVolume: 100}
	}
	return out
}

func TestClassifyColdStart(t *testing.T) {
	label, status := Classify(market.Sample{Price: 100, RVOL: 10}, nil, false)
	if label != LabelAwaiting || status != Neutral {
		t.Fatalf("expected awaiting/neutral, got %s/%s", label, status)
	}

	label, status = Classify(market.Sample{Price: 100, RVOL: 10}, samples(99), true)
	if label != LabelObserving || status != Neutral {
		t.Fatalf("expected observing/neutral, got %s/%s", label, status)
	}
}

func TestClassifyBreakoutPriority(t *testing.T) {
	// Rising volumes and high rvol satisfy momentum and whale too; breakout
	// must win on priority.
	window := []market.Sample{
		{Price: 100, QuoteVolume: 100},
		{Price: 100, QuoteVolume: 200},
	}
	current := market.Sample{Price: 102, QuoteVolume: 300, RVOL: 4}
	label, status := Classify(current, window, true)
	if label != LabelBreakout || status != Bullish {
		t.Fatalf("expected breakout/bullish, got %s/%s", label, status)
	}
}

func TestClassifyMomentum(t *testing.T) {
	window := []market.Sample{
		{Price: 100, QuoteVolume: 100},
		{Price: 100, QuoteVolume: 150},
	}
	current := market.Sample{Price: 100.5, QuoteVolume: 200, RVOL: 1}
	label, status := Classify(current, window, true)
	if label != LabelMomentum || status != Bullish {
		t.Fatalf("expected momentum/bullish, got %s/%s", label, status)
	}
}

func TestClassifyWhale(t *testing.T) {
	window := []market.Sample{
		{Price: 100, QuoteVolume: 300},
		{Price: 100, QuoteVolume: 200},
	}
	current := market.Sample{Price: 100.1, QuoteVolume: 100, RVOL: 6}
	label, status := Classify(current, window, true)
	if label != LabelWhale || status != Bullish {
		t.Fatalf("expected whale/bullish, got %s/%s", label, status)
	}
}

func TestClassifyWeakAndDump(t *testing.T) {
	window := samples(100, 100)
	label, status := Classify(market.Sample{Price: 100.2, QuoteVolume: 100, RVOL: 0.5}, window, true)
	if label != LabelWeak || status != Bearish {
		t.Fatalf("expected weak/bearish, got %s/%s", label, status)
	}

	label, status = Classify(market.Sample{Price: 98, QuoteVolume: 100, RVOL: 2.5}, window, true)
	if label != LabelDump || status != Bearish {
		t.Fatalf("expected dump/bearish, got %s/%s", label, status)
	}
}

func TestClassifyStableFallback(t *testing.T) {
	window := samples(100, 100)
	label, status := Classify(market.Sample{Price: 100, QuoteVolume: 100, RVOL: 1}, window, true)
	if label != LabelStable || status != Neutral {
		t.Fatalf("expected stable/neutral, got %s/%s", label, status)
	}
}

func TestClassifyZeroPreviousPrice(t *testing.T) {
	window := samples(0, 0)
	// Previous price of zero must not divide; change treated as zero.
	label, status := Classify(market.Sample{Price: 50, QuoteVolume: 100, RVOL: 1}, window, true)
	if label != LabelStable || status != Neutral {
		t.Fatalf("expected stable/neutral on zero prior price, got %s/%s", label, status)
	}
}
