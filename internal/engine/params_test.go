package engine

import (
	"testing"

	"github.com/rayhankar/whale-hunt/internal/config"
)

func TestParamsFromConfig(t *testing.T) {
	cfg := config.Default()
	params := ParamsFromConfig(cfg)

	if params.TradePct != 10 || params.TakeProfit != 3 || params.StopLoss != 2 {
		t.Fatalf("unexpected strategy params: %+v", params)
	}
	if params.MinVolume != 1_000_000 {
		t.Fatalf("min volume should be scaled to USD, got %.0f", params.MinVolume)
	}
	if params.TopN != 15 || params.RefreshSecs != 30 {
		t.Fatalf("unexpected scan params: %+v", params)
	}
}

func TestParamsApply(t *testing.T) {
	var params Params
	cases := map[string]string{
		"trade_pct":      "12.5",
		"take_profit":    "4",
		"stop_loss":      "1.5",
		"leverage":       "20",
		"margin_trigger": "6",
		"add_amount_pct": "50",
		"max_adds":       "3",
		"min_volume":     "2000000",
		"refresh_secs":   "15",
		"active":         "true",
	}
	for name, value := range cases {
		if err := params.Apply(name, value); err != nil {
			t.Fatalf("Apply(%s) returned error: %v", name, err)
		}
	}
	if params.TradePct != 12.5 || params.Leverage != 20 || params.MaxAdds != 3 || !params.Active {
		t.Fatalf("unexpected params after apply: %+v", params)
	}

	if err := params.Apply("nope", "1"); err == nil {
		t.Fatalf("unknown parameter must error")
	}
	if err := params.Apply("trade_pct", "abc"); err == nil {
		t.Fatalf("unparseable value must error")
	}
}
