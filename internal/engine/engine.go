// Package engine runs the trading policy: one sequential cycle pulls a market
// snapshot, evaluates exits, refreshes per-symbol technicals and history, and
// conditionally opens new positions. A single goroutine owns all mutation;
// presentation reads snapshots between cycles.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rayhankar/whale-hunt/internal/exchange"
	"github.com/rayhankar/whale-hunt/internal/market"
	"github.com/rayhankar/whale-hunt/internal/metrics"
	"github.com/rayhankar/whale-hunt/internal/paper"
	"github.com/rayhankar/whale-hunt/internal/risk"
	"github.com/rayhankar/whale-hunt/internal/strategy"
)

// SignalView is the latest classifier outcome for one scanned symbol.
type SignalView struct {
	Label     string          `json:"label"`
	Status    strategy.Status `json:"status"`
	Price     float64         `json:"price"`
	PctChange float64         `json:"pct_change"`
	RSI       float64         `json:"rsi"`
	RVOL      float64         `json:"rvol"`
}

// State is the read-only view served to presentation.
type State struct {
	Book            string                                `json:"book"`
	Awaiting        bool                                  `json:"awaiting"`
	Balance         float64                               `json:"balance"`
	Equity          float64                               `json:"equity"`
	SpotPositions   map[string]paper.SpotPositionView     `json:"spot_positions,omitempty"`
	MarginPositions map[string]paper.MarginPositionView   `json:"margin_positions,omitempty"`
	Signals         map[string]SignalView                 `json:"signals"`
	Events          []string                              `json:"events"`
	Params          Params                                `json:"params"`
}

// Options wires an Engine together.
type Options struct {
	Provider   exchange.Provider
	MarginBook bool // trade the leveraged book instead of spot
	Cash       float64
	Params     Params
	Recorder   paper.TradeSink       // optional
	PriceCache *exchange.PriceCache  // optional, presentation freshness only
	Log        zerolog.Logger
}

// Engine owns the books, history, and event log, and drives them cycle by
// cycle.
type Engine struct {
	log        zerolog.Logger
	provider   exchange.Provider
	marginMode bool
	spot       *paper.SpotBook
	margin     *paper.MarginBook
	history    *strategy.History
	events     *paper.EventLog
	recorder   paper.TradeSink
	priceCache *exchange.PriceCache

	mu         sync.RWMutex
	params     Params
	lastPrices map[string]float64
	signals    map[string]SignalView
	awaiting   bool
}

// New constructs an engine. Exactly one book is traded, chosen by
// Options.MarginBook; the other stays nil.
func New(opts Options) *Engine {
	e := &Engine{
		log:        opts.Log,
		provider:   opts.Provider,
		marginMode: opts.MarginBook,
		history:    strategy.NewHistory(),
		events:     paper.NewEventLog(),
		recorder:   opts.Recorder,
		priceCache: opts.PriceCache,
		params:     opts.Params,
		lastPrices: make(map[string]float64),
		signals:    make(map[string]SignalView),
		awaiting:   true,
	}
	if opts.MarginBook {
		e.margin = paper.NewMarginBook(opts.Cash)
	} else {
		e.spot = paper.NewSpotBook(opts.Cash)
	}
	e.events.Addf("bot started | balance: $%.2f", opts.Cash)
	return e
}

// Run drives cycles until the context is canceled, pausing the configured
// refresh interval between them. The pause is the sole suspension point.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.Cycle(ctx)

		refresh := time.Duration(e.Snapshot().Params.RefreshSecs) * time.Second
		if refresh <= 0 {
			refresh = 30 * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(refresh):
		}
	}
}

// Cycle performs one full pass: snapshot, exits, technicals, entries. An
// empty snapshot skips the cycle with no state mutation.
func (e *Engine) Cycle(ctx context.Context) {
	params := e.copyParams()

	tickers := e.provider.Snapshot(ctx)
	if len(tickers) == 0 {
		metrics.SnapshotFailures.Inc()
		e.mu.Lock()
		e.awaiting = true
		e.mu.Unlock()
		e.log.Warn().Msg("empty market snapshot, skipping cycle")
		return
	}

	prices := make(map[string]float64, len(tickers))
	eligible := tickers[:0]
	for _, tk := range tickers {
		prices[tk.Symbol] = tk.LastPrice
		if tk.QuoteVolume > params.MinVolume {
			eligible = append(eligible, tk)
		}
	}

	if params.Active {
		e.applyTrades(e.evaluateExits(prices, params))
	}

	e.scan(ctx, eligible, prices, params)

	equity := e.equity(prices)
	e.mu.Lock()
	e.lastPrices = prices
	e.awaiting = false
	e.mu.Unlock()

	metrics.Equity.Set(equity)
	metrics.CyclesTotal.Inc()
}

// scan refreshes technicals, history, and signals for the hottest symbols and
// opens positions on gated bullish ones.
func (e *Engine) scan(ctx context.Context, tickers []market.Ticker, prices map[string]float64, params Params) {
	sort.Slice(tickers, func(i, j int) bool {
		return tickers[i].PctChange > tickers[j].PctChange
	})
	topN := params.TopN
	if topN <= 0 {
		topN = 15
	}
	if len(tickers) > topN {
		tickers = tickers[:topN]
	}

	gate := risk.EntryGate{RSICeiling: params.RSIGate}
	signals := make(map[string]SignalView, len(tickers))

	for _, tk := range tickers {
		if ctx.Err() != nil {
			return
		}
		tech := e.provider.Technicals(ctx, tk.Symbol)
		sample := market.Sample{
			Price:       tk.LastPrice,
			QuoteVolume: tk.QuoteVolume,
			RVOL:        tech.RVOL,
			Ts:          time.Now(),
		}

		// Classify against the window as of the previous cycle, then record:
		// the current sample must not count as its own history.
		window, seen := e.history.Window(tk.Symbol)
		label, status := strategy.Classify(sample, window, seen)
		e.history.Record(tk.Symbol, sample)

		metrics.SignalsTotal.WithLabelValues(string(status)).Inc()
		signals[tk.Symbol] = SignalView{
			Label:     label,
			Status:    status,
			Price:     tk.LastPrice,
			PctChange: tk.PctChange,
			RSI:       tech.RSI,
			RVOL:      tech.RVOL,
		}

		if params.Active && gate.Allow(status, tech.RSI) {
			e.open(tk.Symbol, tk.LastPrice, label, prices, params)
		}
	}

	e.mu.Lock()
	for sym, view := range signals {
		e.signals[sym] = view
	}
	e.mu.Unlock()
}

func (e *Engine) evaluateExits(prices map[string]float64, params Params) []paper.Trade {
	if e.marginMode {
		return e.margin.EvaluateExits(prices, params.TakeProfit, params.StopLoss,
			params.MarginRescue, params.TriggerPct, params.AddAmountPct, params.MaxAdds)
	}
	return e.spot.EvaluateExits(prices, params.TakeProfit, params.StopLoss)
}

func (e *Engine) open(symbol string, price float64, reason string, prices map[string]float64, params Params) {
	equity := e.equity(prices)
	var trade paper.Trade
	var ok bool
	if e.marginMode {
		trade, ok = e.margin.Open(symbol, price, reason, equity, params.TradePct, params.Leverage)
	} else {
		trade, ok = e.spot.Open(symbol, price, reason, equity, params.TradePct)
	}
	if ok {
		e.applyTrades([]paper.Trade{trade})
	}
}

func (e *Engine) equity(prices map[string]float64) float64 {
	if e.marginMode {
		return e.margin.Equity(prices)
	}
	return e.spot.Equity(prices)
}

// applyTrades fans one batch of book mutations out to the event log, metrics,
// the structured log, and the recorder.
func (e *Engine) applyTrades(trades []paper.Trade) {
	for _, tr := range trades {
		metrics.TradesTotal.WithLabelValues(tr.Book, tr.Event).Inc()
		switch tr.Event {
		case paper.EventOpen:
			e.events.Addf("OPEN %s | $%.2f @ %g", tr.Symbol, tr.Value, tr.Price)
		case paper.EventMarginAdd:
			e.events.Addf("RESCUE %s | added $%.2f @ %g, entry now %g", tr.Symbol, tr.Value, tr.Price, tr.Entry)
		default:
			e.events.Addf("CLOSE %s (%s) | pnl $%.2f", tr.Symbol, tr.Event, tr.PnL)
		}
		e.log.Info().
			Str("book", tr.Book).
			Str("event", tr.Event).
			Str("sym", tr.Symbol).
			Float64("px", tr.Price).
			Float64("value", tr.Value).
			Float64("pnl", tr.PnL).
			Msg("trade")
		if e.recorder != nil {
			e.recorder.Record(tr)
		}
	}
}

// ManualClose liquidates one position at the freshest known price, falling
// back to the entry price when no price has been seen. Returns false if the
// symbol is not held.
func (e *Engine) ManualClose(symbol string) bool {
	price, ok := e.currentPrice(symbol)
	if !ok {
		if price, ok = e.entryPrice(symbol); !ok {
			return false
		}
	}

	var trade paper.Trade
	var closed bool
	if e.marginMode {
		trade, closed = e.margin.Close(symbol, price)
	} else {
		trade, closed = e.spot.Close(symbol, price)
	}
	if closed {
		e.applyTrades([]paper.Trade{trade})
	}
	return closed
}

func (e *Engine) currentPrice(symbol string) (float64, bool) {
	if e.priceCache != nil {
		if px, ok := e.priceCache.Get(symbol); ok {
			return px, true
		}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	px, ok := e.lastPrices[symbol]
	return px, ok
}

func (e *Engine) entryPrice(symbol string) (float64, bool) {
	if e.marginMode {
		_, _, views := e.margin.Snapshot(nil)
		if pos, held := views[symbol]; held {
			return pos.Entry, true
		}
		return 0, false
	}
	_, _, views := e.spot.Snapshot(nil)
	if pos, held := views[symbol]; held {
		return pos.Entry, true
	}
	return 0, false
}

// SetParam applies one named knob; it takes effect from the next cycle.
func (e *Engine) SetParam(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.params.Apply(name, value); err != nil {
		return err
	}
	e.log.Info().Str("param", name).Str("value", value).Msg("parameter updated")
	return nil
}

// SetActive toggles auto trading before the next cycle.
func (e *Engine) SetActive(on bool) {
	e.mu.Lock()
	e.params.Active = on
	e.mu.Unlock()
	if on {
		e.events.Addf("bot resumed")
	} else {
		e.events.Addf("bot paused")
	}
}

func (e *Engine) copyParams() Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// Snapshot assembles the presentation view, marking positions with the
// freshest prices available (live stream first, then the last cycle).
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	params := e.params
	awaiting := e.awaiting
	prices := make(map[string]float64, len(e.lastPrices))
	for sym, px := range e.lastPrices {
		prices[sym] = px
	}
	signals := make(map[string]SignalView, len(e.signals))
	for sym, view := range e.signals {
		signals[sym] = view
	}
	e.mu.RUnlock()

	if e.priceCache != nil {
		for sym := range prices {
			if px, ok := e.priceCache.Get(sym); ok {
				prices[sym] = px
			}
		}
	}

	state := State{
		Awaiting: awaiting,
		Signals:  signals,
		Events:   e.events.Entries(),
		Params:   params,
	}
	if e.marginMode {
		state.Book = paper.BookMargin
		state.Balance, state.Equity, state.MarginPositions = e.margin.Snapshot(prices)
	} else {
		state.Book = paper.BookSpot
		state.Balance, state.Equity, state.SpotPositions = e.spot.Snapshot(prices)
	}
	return state
}
