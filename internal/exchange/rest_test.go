package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const snapshotBody = `[
	{"symbol":"BTCUSDT","lastPrice":"50000","priceChangePercent":"2.5","quoteVolume":"9000000"},
	{"symbol":"ETHBTC","lastPrice":"0.05","priceChangePercent":"1.0","quoteVolume":"9000000"},
	{"symbol":"BTCUPUSDT","lastPrice":"10","priceChangePercent":"5.0","quoteVolume":"9000000"},
	{"symbol":"DOGEUSDT","lastPrice":"0.1","priceChangePercent":"9.0","quoteVolume":"500"},
	{"symbol":"PEPEUSDT","lastPrice":"bogus","priceChangePercent":"1.0","quoteVolume":"9000000"}
]`

func TestSnapshotFiltersUniverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(snapshotBody))
	}))
	defer server.Close()

	client := NewClient(VenueBinance, zerolog.Nop(), WithBaseURL(server.URL), WithMinQuoteVolume(1_000_000))
	tickers := client.Snapshot(context.Background())

	if len(tickers) != 1 {
		t.Fatalf("expected only BTCUSDT to survive filters, got %+v", tickers)
	}
	tk := tickers[0]
	if tk.Symbol != "BTCUSDT" || tk.LastPrice != 50000 || tk.PctChange != 2.5 {
		t.Fatalf("unexpected ticker: %+v", tk)
	}
}

func TestSnapshotCaching(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(snapshotBody))
	}))
	defer server.Close()

	client := NewClient(VenueBinance, zerolog.Nop(), WithBaseURL(server.URL), WithCacheTTL(time.Minute))
	client.Snapshot(context.Background())
	client.Snapshot(context.Background())

	if hits.Load() != 1 {
		t.Fatalf("expected cached second snapshot, got %d upstream hits", hits.Load())
	}
}

func TestSnapshotFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(VenueBinance, zerolog.Nop(), WithBaseURL(server.URL))
	if tickers := client.Snapshot(context.Background()); len(tickers) != 0 {
		t.Fatalf("expected empty snapshot on upstream failure, got %+v", tickers)
	}
}

func klinesBody(n int) string {
	rows := make([]string, n)
	for i := range rows {
		close := 100 + float64(i)
		rows[i] = fmt.Sprintf(`[0,"0","0","0","%.1f","3.0",0,"0",0,"0","0","0"]`, close)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestTechnicals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1h" {
			t.Fatalf("unexpected interval %s", got)
		}
		_, _ = w.Write([]byte(klinesBody(50)))
	}))
	defer server.Close()

	client := NewClient(VenueBinance, zerolog.Nop(), WithBaseURL(server.URL))
	tech := client.Technicals(context.Background(), "BTCUSDT")
	if tech.RSI != 100 {
		t.Fatalf("monotonic closes should read rsi 100, got %.4f", tech.RSI)
	}
	if tech.RVOL != 1 {
		t.Fatalf("flat volumes should read rvol 1, got %.4f", tech.RVOL)
	}
}

func TestTechnicalsFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(VenueBinance, zerolog.Nop(), WithBaseURL(server.URL))
	tech := client.Technicals(context.Background(), "BTCUSDT")
	if tech.RSI != 0 || tech.RVOL != 0 {
		t.Fatalf("expected zero technicals on failure, got %+v", tech)
	}
}

func TestMEXCUsesSixtyMinuteInterval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "60m" {
			t.Fatalf("unexpected interval %s", got)
		}
		_, _ = w.Write([]byte(klinesBody(50)))
	}))
	defer server.Close()

	client := NewClient(VenueMEXC, zerolog.Nop(), WithBaseURL(server.URL))
	client.Technicals(context.Background(), "BTCUSDT")
}

func TestTradableSymbol(t *testing.T) {
	cases := map[string]bool{
		"BTCUSDT":    true,
		"ETHBTC":     false,
		"BTCUPUSDT":  false,
		"ETHDOWNUSDT": false,
		"XBEARUSDT":  false,
		"TOMOBULLUSDT": false,
	}
	for sym, want := range cases {
		if got := tradableSymbol(sym); got != want {
			t.Fatalf("tradableSymbol(%s) = %v, want %v", sym, got, want)
		}
	}
}
