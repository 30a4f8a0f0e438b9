package exchange

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// PriceCache holds the freshest last price per symbol, written by the live
// stream and read by presentation between polling cycles. The decision cycle
// never consults it.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewPriceCache returns an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]float64)}
}

// Set stores a price.
func (p *PriceCache) Set(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
}

// Get returns the cached price and whether one exists.
func (p *PriceCache) Get(symbol string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.prices[symbol]
	return price, ok
}

const defaultStreamURL = "wss://stream.binance.com:9443/ws/!miniTicker@arr"

// Stream subscribes to the Binance mini-ticker firehose over websocket and
// keeps a PriceCache warm. Disconnects are retried with capped backoff.
type Stream struct {
	url   string
	cache *PriceCache
	log   zerolog.Logger
}

// NewStream builds a stream writing into the supplied cache.
func NewStream(cache *PriceCache, log zerolog.Logger) *Stream {
	return &Stream{url: defaultStreamURL, cache: cache, log: log}
}

// NewStreamURL is NewStream with an explicit endpoint (used in tests).
func NewStreamURL(url string, cache *PriceCache, log zerolog.Logger) *Stream {
	return &Stream{url: url, cache: cache, log: log}
}

type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// Run consumes the stream until the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *Stream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("url", s.url).Msg("connected price stream")

	conn.SetReadLimit(1 << 22)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var tickers []miniTicker
		if err := json.Unmarshal(message, &tickers); err != nil {
			s.log.Debug().Err(err).Msg("failed to decode mini ticker batch")
			continue
		}
		for _, tk := range tickers {
			if px, err := strconv.ParseFloat(tk.Close, 64); err == nil && px > 0 {
				s.cache.Set(tk.Symbol, px)
			}
		}
	}
}
