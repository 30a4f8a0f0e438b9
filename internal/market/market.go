// Package market standardizes payloads shared between data ingestion and strategy layers.
package market

import "time"

// Ticker models one row of a 24h exchange snapshot.
type Ticker struct {
	Symbol      string
	LastPrice   float64
	PctChange   float64 // 24h percent change
	QuoteVolume float64
}

// Technicals carries the derived indicators computed from recent candles.
type Technicals struct {
	RSI  float64 // 0-100
	RVOL float64 // current volume over trailing baseline
}

// Sample is one observation appended to a symbol's rolling history.
type Sample struct {
	Price       float64
	QuoteVolume float64
	RVOL        float64
	Ts          time.Time
}
