package paper

import (
	"math"
	"testing"
)

func TestSpotOpenRoundTrip(t *testing.T) {
	book := NewSpotBook(1000)

	trade, ok := book.Open("BTCUSDT", 100, "breakout", 1000, 10)
	if !ok {
		t.Fatalf("expected open to succeed")
	}
	if math.Abs(trade.Value-100) > 1e-9 {
		t.Fatalf("expected invest 100, got %.4f", trade.Value)
	}
	if math.Abs(book.Balance()-900) > 1e-9 {
		t.Fatalf("expected balance 900, got %.4f", book.Balance())
	}

	closed, ok := book.Close("BTCUSDT", 100)
	if !ok {
		t.Fatalf("expected close to succeed")
	}
	if math.Abs(closed.PnL) > 1e-9 {
		t.Fatalf("flat round trip should realize zero pnl, got %.6f", closed.PnL)
	}
	if math.Abs(book.Balance()-1000) > 1e-9 {
		t.Fatalf("flat round trip should restore balance, got %.6f", book.Balance())
	}
}

func TestSpotOpenSkipsHeldAndDust(t *testing.T) {
	book := NewSpotBook(1000)
	if _, ok := book.Open("BTCUSDT", 100, "breakout", 1000, 10); !ok {
		t.Fatalf("first open should succeed")
	}
	if _, ok := book.Open("BTCUSDT", 120, "momentum", 1000, 10); ok {
		t.Fatalf("second open on held symbol should be a no-op")
	}

	// 0.5% of 1000 equity is under the minimum ticket.
	if _, ok := book.Open("ETHUSDT", 10, "whale", 1000, 0.5); ok {
		t.Fatalf("dust open should be skipped")
	}
	if math.Abs(book.Balance()-900) > 1e-9 {
		t.Fatalf("skipped opens must not move balance, got %.4f", book.Balance())
	}
}

func TestSpotOpenCappedAtBalance(t *testing.T) {
	book := NewSpotBook(50)
	trade, ok := book.Open("BTCUSDT", 100, "breakout", 10000, 10)
	if !ok {
		t.Fatalf("expected capped open to succeed")
	}
	if math.Abs(trade.Value-50) > 1e-9 {
		t.Fatalf("expected invest capped at 50, got %.4f", trade.Value)
	}
	if book.Balance() < 0 {
		t.Fatalf("balance must never go negative, got %.4f", book.Balance())
	}
}

func TestSpotEquityFallbackToEntry(t *testing.T) {
	book := NewSpotBook(1000)
	book.Open("BTCUSDT", 100, "breakout", 1000, 10)

	// No current price: position valued at entry, equity unchanged.
	if eq := book.Equity(map[string]float64{}); math.Abs(eq-1000) > 1e-9 {
		t.Fatalf("expected equity 1000 on stale price, got %.4f", eq)
	}
	if eq := book.Equity(map[string]float64{"BTCUSDT": 110}); math.Abs(eq-1010) > 1e-9 {
		t.Fatalf("expected equity 1010, got %.4f", eq)
	}
}

func TestSpotEvaluateExits(t *testing.T) {
	book := NewSpotBook(1000)
	book.Open("TPUSDT", 100, "breakout", 1000, 10)
	book.Open("SLUSDT", 100, "momentum", 1000, 10)
	book.Open("HOLDUSDT", 100, "whale", 1000, 10)

	trades := book.EvaluateExits(map[string]float64{
		"TPUSDT":   104, // +4% >= TP 3
		"SLUSDT":   97,  // -3% <= -SL 2
		"HOLDUSDT": 101, // inside both thresholds
	}, 3, 2)

	if len(trades) != 2 {
		t.Fatalf("expected 2 exits, got %d", len(trades))
	}
	events := map[string]string{}
	for _, tr := range trades {
		events[tr.Symbol] = tr.Event
	}
	if events["TPUSDT"] != EventTakeProfit {
		t.Fatalf("expected take profit for TPUSDT, got %s", events["TPUSDT"])
	}
	if events["SLUSDT"] != EventStopLoss {
		t.Fatalf("expected stop loss for SLUSDT, got %s", events["SLUSDT"])
	}

	_, _, views := book.Snapshot(nil)
	if len(views) != 1 {
		t.Fatalf("expected one surviving position, got %d", len(views))
	}
}

func TestSpotCloseUnknownSymbol(t *testing.T) {
	book := NewSpotBook(1000)
	if _, ok := book.Close("NOPEUSDT", 100); ok {
		t.Fatalf("closing an unheld symbol must report failure")
	}
}

func TestSpotConservation(t *testing.T) {
	book := NewSpotBook(1000)
	book.Open("AUSDT", 10, "breakout", 1000, 10)
	book.Open("BUSDT", 20, "momentum", book.Equity(map[string]float64{"AUSDT": 10}), 25)

	var realized float64
	for _, tr := range book.EvaluateExits(map[string]float64{"AUSDT": 11, "BUSDT": 19}, 5, 4) {
		realized += tr.PnL
	}
	if tr, ok := book.Close("BUSDT", 19); ok {
		realized += tr.PnL
	}
	if tr, ok := book.Close("AUSDT", 11); ok {
		realized += tr.PnL
	}

	if math.Abs(book.Balance()-(1000+realized)) > 1e-6 {
		t.Fatalf("balance %.6f does not reconcile with realized pnl %.6f", book.Balance(), realized)
	}
}
