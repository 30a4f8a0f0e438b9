// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	ControlAddr string `yaml:"control_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes which public market-data venue the bot polls and how the
// universe is filtered before analysis.
type Exchange struct {
	Name              string  `yaml:"name"` // binance or mexc
	MinVolumeMillions float64 `yaml:"min_volume_millions"`
	TopN              int     `yaml:"top_n"`
	SnapshotCacheSecs int     `yaml:"snapshot_cache_secs"`
	StreamEnabled     bool    `yaml:"stream_enabled"`
}

// Strategy groups the tunable knobs driving entries and exits.
type Strategy struct {
	TradePct    float64 `yaml:"trade_pct"`
	TakeProfit  float64 `yaml:"take_profit"`
	StopLoss    float64 `yaml:"stop_loss"`
	RSIGate     float64 `yaml:"rsi_gate"`
	RefreshSecs int     `yaml:"refresh_secs"`
	Active      bool    `yaml:"active"`
}

// Margin configures the leveraged book: when enabled the bot trades collateral
// with leverage and may rescue losing positions by averaging in.
type Margin struct {
	Enabled      bool    `yaml:"enabled"`
	Leverage     float64 `yaml:"leverage"`
	TriggerPct   float64 `yaml:"trigger_pct"`
	AddAmountPct float64 `yaml:"add_amount_pct"`
	MaxAdds      int     `yaml:"max_adds"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	TradesPath   string  `yaml:"trades_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Strategy Strategy `yaml:"strategy"`
	Margin   Margin   `yaml:"margin"`
	Paper    Paper    `yaml:"paper"`
}

// Default returns the knob values the original bot shipped with.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "whale-hunt",
			Env:         "dev",
			MetricsAddr: ":9109",
			ControlAddr: ":8087",
			LogLevel:    "info",
		},
		Exchange: Exchange{
			Name:              "binance",
			MinVolumeMillions: 1,
			TopN:              15,
			SnapshotCacheSecs: 5,
		},
		Strategy: Strategy{
			TradePct:    10,
			TakeProfit:  3,
			StopLoss:    2,
			RSIGate:     70,
			RefreshSecs: 30,
		},
		Margin: Margin{
			Leverage:     10,
			TriggerPct:   5,
			AddAmountPct: 100,
			MaxAdds:      2,
		},
		Paper: Paper{
			StartingCash: 1000,
			TradesPath:   "data/trades.jsonl",
		},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
