package paper

import (
	"sync"
	"time"
)

type spotPosition struct {
	Entry    float64
	Amount   float64
	Invested float64
	Reason   string
	Opened   time.Time
}

// SpotBook tracks virtual cash and un-leveraged long positions, at most one
// per symbol.
type SpotBook struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]spotPosition
}

// SpotPositionView is the read-only presentation of one holding.
type SpotPositionView struct {
	Entry    float64   `json:"entry"`
	Amount   float64   `json:"amount"`
	Invested float64   `json:"invested"`
	Value    float64   `json:"value"`
	PnLPct   float64   `json:"pnl_pct"`
	Reason   string    `json:"reason"`
	Opened   time.Time `json:"opened"`
}

// NewSpotBook constructs a book funded with starting cash.
func NewSpotBook(startingCash float64) *SpotBook {
	return &SpotBook{
		balance:   startingCash,
		positions: make(map[string]spotPosition),
	}
}

// Balance returns free cash.
func (b *SpotBook) Balance() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance
}

// Equity values the book against current prices. A symbol missing from the
// map is valued at its entry price: stale feed, assume no change.
func (b *SpotBook) Equity(prices map[string]float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.equityLocked(prices)
}

func (b *SpotBook) equityLocked(prices map[string]float64) float64 {
	total := b.balance
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.Entry
		}
		total += pos.Amount * price
	}
	return total
}

// Open buys into a symbol sized at tradePct of equity, capped at free cash.
// It is a no-op if the symbol is already held or the computed ticket is dust.
func (b *SpotBook) Open(symbol string, price float64, reason string, equity, tradePct float64) (Trade, bool) {
	if price <= 0 {
		return Trade{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.positions[symbol]; held {
		return Trade{}, false
	}

	invest := equity * tradePct / 100
	if invest > b.balance {
		invest = b.balance
	}
	if invest < MinTicket {
		return Trade{}, false
	}

	amount := invest / price
	b.balance -= invest
	b.positions[symbol] = spotPosition{
		Entry:    price,
		Amount:   amount,
		Invested: invest,
		Reason:   reason,
		Opened:   time.Now(),
	}
	return Trade{
		Ts:     time.Now(),
		Symbol: symbol,
		Book:   BookSpot,
		Event:  EventOpen,
		Price:  price,
		Entry:  price,
		Size:   amount,
		Value:  invest,
	}, true
}

// EvaluateExits closes every held symbol whose unrealized percent move crossed
// the take-profit or stop-loss threshold, returning the resulting trades.
func (b *SpotBook) EvaluateExits(prices map[string]float64, takeProfit, stopLoss float64) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	var trades []Trade
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok || pos.Entry <= 0 {
			continue
		}
		pnlPct := (price - pos.Entry) / pos.Entry * 100
		switch {
		case pnlPct >= takeProfit:
			trades = append(trades, b.closeLocked(sym, pos, price, EventTakeProfit))
		case pnlPct <= -stopLoss:
			trades = append(trades, b.closeLocked(sym, pos, price, EventStopLoss))
		}
	}
	return trades
}

// Close sells a holding at the supplied price. Returns false if the symbol is
// not held.
func (b *SpotBook) Close(symbol string, price float64) (Trade, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, held := b.positions[symbol]
	if !held {
		return Trade{}, false
	}
	return b.closeLocked(symbol, pos, price, EventManual), true
}

func (b *SpotBook) closeLocked(symbol string, pos spotPosition, price float64, event string) Trade {
	revenue := pos.Amount * price
	b.balance += revenue
	delete(b.positions, symbol)
	return Trade{
		Ts:     time.Now(),
		Symbol: symbol,
		Book:   BookSpot,
		Event:  event,
		Price:  price,
		Entry:  pos.Entry,
		Size:   pos.Amount,
		Value:  revenue,
		PnL:    revenue - pos.Invested,
	}
}

// Snapshot returns a copy of cash, equity, and positions marked to prices.
func (b *SpotBook) Snapshot(prices map[string]float64) (float64, float64, map[string]SpotPositionView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make(map[string]SpotPositionView, len(b.positions))
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.Entry
		}
		pnlPct := 0.0
		if pos.Entry > 0 {
			pnlPct = (price - pos.Entry) / pos.Entry * 100
		}
		views[sym] = SpotPositionView{
			Entry:    pos.Entry,
			Amount:   pos.Amount,
			Invested: pos.Invested,
			Value:    pos.Amount * price,
			PnLPct:   pnlPct,
			Reason:   pos.Reason,
			Opened:   pos.Opened,
		}
	}
	return b.balance, b.equityLocked(prices), views
}
