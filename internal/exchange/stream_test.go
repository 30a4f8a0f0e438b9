package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestStreamUpdatesPriceCache(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		body := `[{"s":"BTCUSDT","c":"50000.5"},{"s":"ETHUSDT","c":"3000"},{"s":"BAD","c":"x"}]`
		_ = conn.WriteMessage(websocket.TextMessage, []byte(body))
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cache := NewPriceCache()
	stream := NewStreamURL("ws"+strings.TrimPrefix(server.URL, "http"), cache, zerolog.Nop())
	go func() { _ = stream.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if px, ok := cache.Get("BTCUSDT"); ok {
			if px != 50000.5 {
				t.Fatalf("unexpected cached price %.2f", px)
			}
			if _, ok := cache.Get("BAD"); ok {
				t.Fatalf("unparseable price must not be cached")
			}
			cancel()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for cache update")
}
