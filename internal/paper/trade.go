package paper

import "time"

// Trade events emitted by the books.
const (
	EventOpen       = "open"
	EventTakeProfit = "take_profit"
	EventStopLoss   = "stop_loss"
	EventManual     = "manual_close"
	EventMarginAdd  = "margin_add"
)

// Books.
const (
	BookSpot   = "spot"
	BookMargin = "margin"
)

// Trade describes one book mutation, returned to the caller for logging,
// metrics, and recording. PnL is realized profit for closes, zero otherwise.
type Trade struct {
	Ts     time.Time `json:"ts"`
	Symbol string    `json:"symbol"`
	Book   string    `json:"book"`
	Event  string    `json:"event"`
	Price  float64   `json:"price"`
	Entry  float64   `json:"entry"`
	Size   float64   `json:"size"`  // coins bought/sold
	Value  float64   `json:"value"` // cash debited or credited
	PnL    float64   `json:"pnl"`
}

// MinTicket is the smallest cash amount worth committing to a position;
// anything under it is skipped as dust.
const MinTicket = 10.0
