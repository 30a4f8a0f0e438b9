package engine

import (
	"fmt"
	"strconv"

	"github.com/rayhankar/whale-hunt/internal/config"
)

// Params are the runtime knobs presentation may edit between cycles. The
// engine copies them at the top of each cycle, so edits never land mid-cycle.
type Params struct {
	TradePct     float64 `json:"trade_pct"`
	TakeProfit   float64 `json:"take_profit"`
	StopLoss     float64 `json:"stop_loss"`
	RSIGate      float64 `json:"rsi_gate"`
	Leverage     float64 `json:"leverage"`
	MarginRescue bool    `json:"margin_rescue"`
	TriggerPct   float64 `json:"margin_trigger"`
	AddAmountPct float64 `json:"add_amount_pct"`
	MaxAdds      int     `json:"max_adds"`
	MinVolume    float64 `json:"min_volume"` // quote volume floor, USD
	TopN         int     `json:"top_n"`
	RefreshSecs  int     `json:"refresh_secs"`
	Active       bool    `json:"active"`
}

// ParamsFromConfig maps the static config onto runtime knobs.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		TradePct:     cfg.Strategy.TradePct,
		TakeProfit:   cfg.Strategy.TakeProfit,
		StopLoss:     cfg.Strategy.StopLoss,
		RSIGate:      cfg.Strategy.RSIGate,
		Leverage:     cfg.Margin.Leverage,
		MarginRescue: cfg.Margin.Enabled,
		TriggerPct:   cfg.Margin.TriggerPct,
		AddAmountPct: cfg.Margin.AddAmountPct,
		MaxAdds:      cfg.Margin.MaxAdds,
		MinVolume:    cfg.Exchange.MinVolumeMillions * 1_000_000,
		TopN:         cfg.Exchange.TopN,
		RefreshSecs:  cfg.Strategy.RefreshSecs,
		Active:       cfg.Strategy.Active,
	}
}

// Apply sets one named knob from its string form. Unknown names and
// unparseable values are reported; ranges are the caller's problem, the
// engine just has to survive boundary values.
func (p *Params) Apply(name, value string) error {
	setFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = f
		return nil
	}
	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = n
		return nil
	}
	setBool := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = b
		return nil
	}

	switch name {
	case "trade_pct":
		return setFloat(&p.TradePct)
	case "take_profit":
		return setFloat(&p.TakeProfit)
	case "stop_loss":
		return setFloat(&p.StopLoss)
	case "rsi_gate":
		return setFloat(&p.RSIGate)
	case "leverage":
		return setFloat(&p.Leverage)
	case "margin_rescue":
		return setBool(&p.MarginRescue)
	case "margin_trigger":
		return setFloat(&p.TriggerPct)
	case "add_amount_pct":
		return setFloat(&p.AddAmountPct)
	case "max_adds":
		return setInt(&p.MaxAdds)
	case "min_volume":
		return setFloat(&p.MinVolume)
	case "top_n":
		return setInt(&p.TopN)
	case "refresh_secs":
		return setInt(&p.RefreshSecs)
	case "active":
		return setBool(&p.Active)
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
}
