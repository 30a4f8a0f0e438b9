package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rayhankar/whale-hunt/internal/market"
)

// Supported venues.
const (
	VenueBinance = "binance"
	VenueMEXC    = "mexc"
)

const (
	defaultBinanceBaseURL = "https://api.binance.com"
	defaultMEXCBaseURL    = "https://api.mexc.com"

	snapshotTimeout   = 5 * time.Second
	technicalsTimeout = 2 * time.Second
	defaultCacheTTL   = 5 * time.Second
	klineLimit        = 50
)

// Leveraged-token symbols are excluded from the tradable universe.
var leveragedTokenMarkers = []string{"UP", "DOWN", "BEAR", "BULL"}

// Client polls a centralized exchange's public REST API. The bulk snapshot is
// cached briefly to bound request rate; any failure degrades to an empty or
// zero result after a log line.
type Client struct {
	venue          string
	baseURL        string
	minQuoteVolume float64
	cacheTTL       time.Duration
	log            zerolog.Logger
	snapshotHTTP   *http.Client
	technicalsHTTP *http.Client

	mu       sync.Mutex
	cached   []market.Ticker
	cachedAt time.Time
}

// ClientOption configures Client construction parameters.
type ClientOption func(*Client)

// WithBaseURL overrides the venue's default API host (used in tests).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithMinQuoteVolume drops snapshot rows under the given 24h quote volume.
func WithMinQuoteVolume(v float64) ClientOption {
	return func(c *Client) { c.minQuoteVolume = v }
}

// WithCacheTTL overrides how long a snapshot is served from cache.
func WithCacheTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.cacheTTL = d
		}
	}
}

// NewClient constructs a REST provider for the requested venue. Unknown venue
// names fall back to Binance.
func NewClient(venue string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		venue:          strings.ToLower(strings.TrimSpace(venue)),
		cacheTTL:       defaultCacheTTL,
		log:            log,
		snapshotHTTP:   &http.Client{Timeout: snapshotTimeout},
		technicalsHTTP: &http.Client{Timeout: technicalsTimeout},
	}
	switch c.venue {
	case VenueMEXC:
		c.baseURL = defaultMEXCBaseURL
	default:
		c.venue = VenueBinance
		c.baseURL = defaultBinanceBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Venue reports which exchange the client polls.
func (c *Client) Venue() string { return c.venue }

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// Snapshot fetches the 24h ticker table, filtered to liquid USDT pairs. The
// result is cached for the configured TTL; failures yield an empty slice.
func (c *Client) Snapshot(ctx context.Context) []market.Ticker {
	c.mu.Lock()
	if len(c.cached) > 0 && time.Since(c.cachedAt) < c.cacheTTL {
		out := make([]market.Ticker, len(c.cached))
		copy(out, c.cached)
		c.mu.Unlock()
		return out
	}
	c.mu.Unlock()

	rows, err := c.fetchSnapshot(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("venue", c.venue).Msg("snapshot fetch failed")
		return nil
	}

	tickers := make([]market.Ticker, 0, len(rows))
	for _, row := range rows {
		if !tradableSymbol(row.Symbol) {
			continue
		}
		price, err1 := strconv.ParseFloat(row.LastPrice, 64)
		change, err2 := strconv.ParseFloat(row.PriceChangePercent, 64)
		volume, err3 := strconv.ParseFloat(row.QuoteVolume, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		if volume <= c.minQuoteVolume {
			continue
		}
		tickers = append(tickers, market.Ticker{
			Symbol:      row.Symbol,
			LastPrice:   price,
			PctChange:   change,
			QuoteVolume: volume,
		})
	}

	c.mu.Lock()
	c.cached = tickers
	c.cachedAt = time.Now()
	c.mu.Unlock()

	out := make([]market.Ticker, len(tickers))
	copy(out, tickers)
	return out
}

func (c *Client) fetchSnapshot(ctx context.Context) ([]ticker24h, error) {
	url := c.baseURL + "/api/v3/ticker/24hr"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "whale-hunt/1.0 (paper)")
	resp, err := c.snapshotHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var rows []ticker24h
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

// Technicals derives RSI and relative volume from a 50-candle hourly series.
// Failures yield zero values.
func (c *Client) Technicals(ctx context.Context, symbol string) market.Technicals {
	interval := "1h"
	if c.venue == VenueMEXC {
		interval = "60m"
	}
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d", c.baseURL, symbol, interval, klineLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return market.Technicals{}
	}
	req.Header.Set("User-Agent", "whale-hunt/1.0 (paper)")
	resp, err := c.technicalsHTTP.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("klines fetch failed")
		return market.Technicals{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return market.Technicals{}
	}

	var rows [][]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("klines decode failed")
		return market.Technicals{}
	}

	closes := make([]float64, 0, len(rows))
	volumes := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		closes = append(closes, anyToFloat(row[4]))
		volumes = append(volumes, anyToFloat(row[5]))
	}
	return market.Technicals{RSI: rsi(closes), RVOL: rvol(volumes)}
}

// tradableSymbol keeps USDT-quoted pairs that are not leveraged tokens.
func tradableSymbol(symbol string) bool {
	if !strings.HasSuffix(symbol, "USDT") {
		return false
	}
	for _, marker := range leveragedTokenMarkers {
		if strings.Contains(symbol, marker) {
			return false
		}
	}
	return true
}

func anyToFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}
