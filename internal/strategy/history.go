// Package strategy holds the rolling market history and the signal classifier
// that decides which symbols look worth buying.
package strategy

import (
	"sync"

	"github.com/rayhankar/whale-hunt/internal/market"
)

// HistorySize caps the per-symbol rolling window; older samples are evicted FIFO.
const HistorySize = 6

// History keeps a bounded window of recent samples per symbol. Symbols are
// created lazily on first record and never removed.
type History struct {
	mu      sync.RWMutex
	windows map[string][]market.Sample
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{windows: make(map[string][]market.Sample)}
}

// Record appends a sample to the symbol's window, evicting the oldest entry
// once the window exceeds HistorySize.
func (h *History) Record(symbol string, sample market.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	window := append(h.windows[symbol], sample)
	if len(window) > HistorySize {
		window = window[len(window)-HistorySize:]
	}
	h.windows[symbol] = window
}

// Window returns a copy of the symbol's samples, oldest first, and whether the
// symbol has ever been recorded.
func (h *History) Window(symbol string) ([]market.Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	window, ok := h.windows[symbol]
	if !ok {
		return nil, false
	}
	out := make([]market.Sample, len(window))
	copy(out, window)
	return out, true
}
