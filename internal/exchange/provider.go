// Package exchange hosts connectors for the public market-data endpoints the
// bot polls.
package exchange

import (
	"context"

	"github.com/rayhankar/whale-hunt/internal/market"
)

// Provider supplies the bulk 24h snapshot and per-symbol technicals. Both
// calls degrade on failure: an empty slice or zero technicals, never an error
// the caller has to branch on. The feed is untrusted and the next cycle
// retries naturally.
type Provider interface {
	Snapshot(ctx context.Context) []market.Ticker
	Technicals(ctx context.Context, symbol string) market.Technicals
}

// Stub emits a fixed snapshot, useful for tests and offline work.
type Stub struct {
	Tickers []market.Ticker
	Tech    map[string]market.Technicals
}

// Snapshot returns the configured tickers.
func (s *Stub) Snapshot(ctx context.Context) []market.Ticker {
	out := make([]market.Ticker, len(s.Tickers))
	copy(out, s.Tickers)
	return out
}

// Technicals returns the configured indicators, zero when absent.
func (s *Stub) Technicals(ctx context.Context, symbol string) market.Technicals {
	return s.Tech[symbol]
}
