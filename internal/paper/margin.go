package paper

import (
	"sync"
	"time"
)

type marginPosition struct {
	Entry    float64
	Margin   float64 // collateral posted
	Coins    float64 // notional units
	Leverage float64
	Adds     int
	Reason   string
	Opened   time.Time
}

// MarginBook tracks virtual cash and leveraged positions. Losing positions can
// be rescued by posting more collateral, which re-averages the entry price
// instead of closing.
type MarginBook struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]marginPosition
}

// MarginPositionView is the read-only presentation of one leveraged position.
type MarginPositionView struct {
	Entry    float64   `json:"entry"`
	Margin   float64   `json:"margin"`
	Coins    float64   `json:"coins"`
	Leverage float64   `json:"leverage"`
	Adds     int       `json:"adds"`
	LevPct   float64   `json:"lev_pct"` // leveraged unrealized percent move
	PnL      float64   `json:"pnl"`     // unrealized, in cash
	Reason   string    `json:"reason"`
	Opened   time.Time `json:"opened"`
}

// NewMarginBook constructs a book funded with starting cash.
func NewMarginBook(startingCash float64) *MarginBook {
	return &MarginBook{
		balance:   startingCash,
		positions: make(map[string]marginPosition),
	}
}

// Balance returns free cash not posted as collateral.
func (b *MarginBook) Balance() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance
}

// Equity is cash plus posted margin plus leveraged unrealized PnL. Notional
// value never enters: margin, not notional, is the capital at risk. Symbols
// without a current price are valued at entry (zero unrealized).
func (b *MarginBook) Equity(prices map[string]float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.equityLocked(prices)
}

func (b *MarginBook) equityLocked(prices map[string]float64) float64 {
	total := b.balance
	for sym, pos := range b.positions {
		total += pos.Margin
		price, ok := prices[sym]
		if !ok || pos.Entry <= 0 {
			continue
		}
		total += pos.Margin * pos.Leverage * (price - pos.Entry) / pos.Entry
	}
	return total
}

// Open posts margin sized at tradePct of equity, capped at free cash, and buys
// leverage times that in notional. No-op when the symbol is already held, the
// ticket is dust, or leverage is not positive.
func (b *MarginBook) Open(symbol string, price float64, reason string, equity, tradePct, leverage float64) (Trade, bool) {
	if price <= 0 || leverage <= 0 {
		return Trade{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.positions[symbol]; held {
		return Trade{}, false
	}

	margin := equity * tradePct / 100
	if margin > b.balance {
		margin = b.balance
	}
	if margin < MinTicket {
		return Trade{}, false
	}

	coins := margin * leverage / price
	b.balance -= margin
	b.positions[symbol] = marginPosition{
		Entry:    price,
		Margin:   margin,
		Coins:    coins,
		Leverage: leverage,
		Reason:   reason,
		Opened:   time.Now(),
	}
	return Trade{
		Ts:     time.Now(),
		Symbol: symbol,
		Book:   BookMargin,
		Event:  EventOpen,
		Price:  price,
		Entry:  price,
		Size:   coins,
		Value:  margin,
	}, true
}

// AddMargin posts addPct of the position's current margin as fresh collateral,
// buying more coins at the current price and re-averaging the entry as the
// volume-weighted mean of the old and new cost bases. Fails when the symbol is
// not held, adds are exhausted, or free cash cannot cover the add.
func (b *MarginBook) AddMargin(symbol string, price, addPct float64, maxAdds int) (Trade, bool) {
	if price <= 0 {
		return Trade{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addMarginLocked(symbol, price, addPct, maxAdds)
}

func (b *MarginBook) addMarginLocked(symbol string, price, addPct float64, maxAdds int) (Trade, bool) {
	pos, held := b.positions[symbol]
	if !held || pos.Adds >= maxAdds {
		return Trade{}, false
	}
	add := pos.Margin * addPct / 100
	if add <= 0 || add > b.balance {
		return Trade{}, false
	}

	newCoins := add * pos.Leverage / price
	totalCoins := pos.Coins + newCoins
	if totalCoins > 0 {
		pos.Entry = (pos.Entry*pos.Coins + price*newCoins) / totalCoins
	}
	b.balance -= add
	pos.Margin += add
	pos.Coins = totalCoins
	pos.Adds++
	b.positions[symbol] = pos

	return Trade{
		Ts:     time.Now(),
		Symbol: symbol,
		Book:   BookMargin,
		Event:  EventMarginAdd,
		Price:  price,
		Entry:  pos.Entry,
		Size:   newCoins,
		Value:  add,
	}, true
}

// EvaluateExits walks every position with a current price. Take-profit closes
// credit margin plus PnL. Beyond the rescue trigger, posting more collateral
// takes priority over stopping out while margin mode is on and adds remain;
// a rescued (or even attempted) position skips further checks this cycle.
// Stop-outs credit margin plus PnL floored at zero: collateral cannot go
// negative, excess loss is absorbed.
func (b *MarginBook) EvaluateExits(prices map[string]float64, takeProfit, stopLoss float64, marginMode bool, triggerPct, addPct float64, maxAdds int) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	var trades []Trade
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok || pos.Entry <= 0 {
			continue
		}
		levPct := (price - pos.Entry) / pos.Entry * pos.Leverage * 100

		switch {
		case levPct >= takeProfit:
			trades = append(trades, b.closeLocked(sym, pos, price, EventTakeProfit, false))
		case levPct <= -triggerPct:
			if marginMode && pos.Adds < maxAdds {
				if trade, ok := b.addMarginLocked(sym, price, addPct, maxAdds); ok {
					trades = append(trades, trade)
				}
				continue
			}
			if levPct <= -stopLoss {
				trades = append(trades, b.closeLocked(sym, pos, price, EventStopLoss, true))
			}
		}
	}
	return trades
}

// Close liquidates a position at the supplied price, crediting margin plus
// PnL with no floor. Returns false if the symbol is not held.
func (b *MarginBook) Close(symbol string, price float64) (Trade, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, held := b.positions[symbol]
	if !held {
		return Trade{}, false
	}
	return b.closeLocked(symbol, pos, price, EventManual, false), true
}

func (b *MarginBook) closeLocked(symbol string, pos marginPosition, price float64, event string, floored bool) Trade {
	pnl := pos.Coins * (price - pos.Entry)
	credit := pos.Margin + pnl
	if floored && credit < 0 {
		credit = 0
	}
	b.balance += credit
	delete(b.positions, symbol)
	return Trade{
		Ts:     time.Now(),
		Symbol: symbol,
		Book:   BookMargin,
		Event:  event,
		Price:  price,
		Entry:  pos.Entry,
		Size:   pos.Coins,
		Value:  credit,
		PnL:    pnl,
	}
}

// Snapshot returns a copy of cash, equity, and positions marked to prices.
func (b *MarginBook) Snapshot(prices map[string]float64) (float64, float64, map[string]MarginPositionView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make(map[string]MarginPositionView, len(b.positions))
	for sym, pos := range b.positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.Entry
		}
		levPct, pnl := 0.0, 0.0
		if pos.Entry > 0 {
			levPct = (price - pos.Entry) / pos.Entry * pos.Leverage * 100
			pnl = pos.Coins * (price - pos.Entry)
		}
		views[sym] = MarginPositionView{
			Entry:    pos.Entry,
			Margin:   pos.Margin,
			Coins:    pos.Coins,
			Leverage: pos.Leverage,
			Adds:     pos.Adds,
			LevPct:   levPct,
			PnL:      pnl,
			Reason:   pos.Reason,
			Opened:   pos.Opened,
		}
	}
	return b.balance, b.equityLocked(prices), views
}
