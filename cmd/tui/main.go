package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rayhankar/whale-hunt/internal/config"
	"github.com/rayhankar/whale-hunt/internal/engine"
)

const defaultConfigPath = "config.yaml"

var httpClient = &http.Client{Timeout: 5 * time.Second}

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v (using defaults)\n", err)
		cfg = config.Default()
	}

	for {
		fmt.Println("\n=== Whale Hunt Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit strategy knobs")
		fmt.Println("3) Edit margin knobs")
		fmt.Println("4) Save config")
		fmt.Println("5) Reload config from disk")
		fmt.Println("6) Show live bot state")
		fmt.Println("7) Close a position")
		fmt.Println("8) Pause / resume bot")
		fmt.Println("9) Push a knob to the running bot")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		switch strings.TrimSpace(input) {
		case "1":
			printSummary(cfg)
		case "2":
			editStrategy(reader, cfg)
		case "3":
			editMargin(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "6":
			showState(cfg)
		case "7":
			closePosition(reader, cfg)
		case "8":
			toggleActive(reader, cfg)
		case "9":
			pushParam(reader, cfg)
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Venue: %s | min 24h volume: $%.0fM | scan top %d\n",
		cfg.Exchange.Name, cfg.Exchange.MinVolumeMillions, cfg.Exchange.TopN)
	fmt.Printf("Starting cash: $%.2f\n", cfg.Paper.StartingCash)
	fmt.Printf("Trade size: %.1f%% of equity | TP %.1f%% | SL %.1f%% | RSI gate %.0f\n",
		cfg.Strategy.TradePct, cfg.Strategy.TakeProfit, cfg.Strategy.StopLoss, cfg.Strategy.RSIGate)
	fmt.Printf("Refresh: %ds | auto trading: %v\n", cfg.Strategy.RefreshSecs, cfg.Strategy.Active)
	if cfg.Margin.Enabled {
		fmt.Printf("Margin book: %gx leverage | rescue trigger %.1f%% | add %.0f%% up to %d times\n",
			cfg.Margin.Leverage, cfg.Margin.TriggerPct, cfg.Margin.AddAmountPct, cfg.Margin.MaxAdds)
	} else {
		fmt.Println("Margin book: disabled (spot)")
	}
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	cfg.Strategy.TradePct = promptFloat(reader, "Trade size (% of equity)", cfg.Strategy.TradePct)
	cfg.Strategy.TakeProfit = promptFloat(reader, "Take profit (%)", cfg.Strategy.TakeProfit)
	cfg.Strategy.StopLoss = promptFloat(reader, "Stop loss (%)", cfg.Strategy.StopLoss)
	cfg.Strategy.RSIGate = promptFloat(reader, "RSI ceiling", cfg.Strategy.RSIGate)
	cfg.Strategy.RefreshSecs = int(promptFloat(reader, "Refresh interval (secs)", float64(cfg.Strategy.RefreshSecs)))
	cfg.Exchange.MinVolumeMillions = promptFloat(reader, "Min 24h volume ($M)", cfg.Exchange.MinVolumeMillions)
}

func editMargin(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Margin ---")
	cfg.Margin.Enabled = promptBool(reader, "Margin book enabled", cfg.Margin.Enabled)
	cfg.Margin.Leverage = promptFloat(reader, "Leverage", cfg.Margin.Leverage)
	cfg.Margin.TriggerPct = promptFloat(reader, "Rescue trigger (leveraged %)", cfg.Margin.TriggerPct)
	cfg.Margin.AddAmountPct = promptFloat(reader, "Add amount (% of margin)", cfg.Margin.AddAmountPct)
	cfg.Margin.MaxAdds = int(promptFloat(reader, "Max rescue adds", float64(cfg.Margin.MaxAdds)))
}

func showState(cfg *config.Config) {
	state, err := fetchState(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch state: %v (is the bot running?)\n", err)
		return
	}

	fmt.Printf("\n--- Bot State (%s book) ---\n", state.Book)
	if state.Awaiting {
		fmt.Println("awaiting market data")
	}
	fmt.Printf("Balance: $%.2f | Equity: $%.2f | auto trading: %v\n",
		state.Balance, state.Equity, state.Params.Active)

	if len(state.SpotPositions) > 0 {
		fmt.Println("Positions:")
		for _, sym := range sortedKeys(state.SpotPositions) {
			pos := state.SpotPositions[sym]
			fmt.Printf("  %-12s entry %-10g invested $%-8.1f now $%-8.1f pnl %+.2f%%\n",
				sym, pos.Entry, pos.Invested, pos.Value, pos.PnLPct)
		}
	}
	if len(state.MarginPositions) > 0 {
		fmt.Println("Positions:")
		for _, sym := range sortedKeys(state.MarginPositions) {
			pos := state.MarginPositions[sym]
			fmt.Printf("  %-12s entry %-10g margin $%-8.1f %gx adds %d pnl $%+.2f (%+.1f%%)\n",
				sym, pos.Entry, pos.Margin, pos.Leverage, pos.Adds, pos.PnL, pos.LevPct)
		}
	}

	if len(state.Signals) > 0 {
		fmt.Println("Signals:")
		for _, sym := range sortedKeys(state.Signals) {
			sig := state.Signals[sym]
			fmt.Printf("  %-12s %-10s %-8s rsi %-6.1f rvol %-6.2f %+.2f%%\n",
				sym, sig.Label, sig.Status, sig.RSI, sig.RVOL, sig.PctChange)
		}
	}

	if len(state.Events) > 0 {
		fmt.Println("Recent events:")
		limit := len(state.Events)
		if limit > 10 {
			limit = 10
		}
		for _, line := range state.Events[:limit] {
			fmt.Println("  " + line)
		}
	}
}

func closePosition(reader *bufio.Reader, cfg *config.Config) {
	fmt.Print("Symbol to close: ")
	line, _ := reader.ReadString('\n')
	symbol := strings.ToUpper(strings.TrimSpace(line))
	if symbol == "" {
		return
	}
	resp, err := httpClient.Post(controlURL(cfg, "/close?symbol="+url.QueryEscape(symbol)), "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "close failed: %v\n", err)
		return
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent:
		fmt.Println("closed", symbol)
	case http.StatusNotFound:
		fmt.Println("not held:", symbol)
	default:
		fmt.Println("unexpected status", resp.StatusCode)
	}
}

func toggleActive(reader *bufio.Reader, cfg *config.Config) {
	on := promptBool(reader, "Auto trading on", true)
	resp, err := httpClient.Post(controlURL(cfg, fmt.Sprintf("/active?on=%v", on)), "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toggle failed: %v\n", err)
		return
	}
	resp.Body.Close()
	fmt.Println("auto trading set to", on)
}

func pushParam(reader *bufio.Reader, cfg *config.Config) {
	fmt.Print("Knob name (e.g. trade_pct): ")
	name, _ := reader.ReadString('\n')
	fmt.Print("Value: ")
	value, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return
	}
	resp, err := httpClient.Post(controlURL(cfg,
		"/param?name="+url.QueryEscape(name)+"&value="+url.QueryEscape(value)), "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "push failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		fmt.Println("rejected with status", resp.StatusCode)
		return
	}
	fmt.Printf("%s set to %s on the running bot\n", name, value)
}

func fetchState(cfg *config.Config) (*engine.State, error) {
	resp, err := httpClient.Get(controlURL(cfg, "/state"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var state engine.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

func controlURL(cfg *config.Config, path string) string {
	addr := cfg.App.ControlAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + path
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s [%v]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" {
		return current
	}
	val, err := strconv.ParseBool(line)
	if err != nil {
		fmt.Printf("invalid bool, keeping %v\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(configPath(), cfg)
}

func configPath() string {
	if path := os.Getenv("WHALEHUNT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
