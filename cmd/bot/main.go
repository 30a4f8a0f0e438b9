package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rayhankar/whale-hunt/internal/config"
	"github.com/rayhankar/whale-hunt/internal/control"
	"github.com/rayhankar/whale-hunt/internal/engine"
	"github.com/rayhankar/whale-hunt/internal/exchange"
	"github.com/rayhankar/whale-hunt/internal/metrics"
	"github.com/rayhankar/whale-hunt/internal/paper"
	"github.com/rayhankar/whale-hunt/internal/util"
)

const defaultConfigPath = "config.yaml"

func main() {
	_ = godotenv.Load() // best-effort

	path := os.Getenv("WHALEHUNT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
	}
	log := util.NewLogger(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config not loaded, using defaults")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider := exchange.NewClient(cfg.Exchange.Name, log,
		exchange.WithMinQuoteVolume(cfg.Exchange.MinVolumeMillions*1_000_000))

	var cache *exchange.PriceCache
	if cfg.Exchange.StreamEnabled && provider.Venue() == exchange.VenueBinance {
		cache = exchange.NewPriceCache()
		stream := exchange.NewStream(cache, log)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("price stream stopped")
			}
		}()
	}

	var recorder paper.TradeSink
	if cfg.Paper.TradesPath != "" {
		jsonl, err := paper.NewJSONLRecorder(cfg.Paper.TradesPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Paper.TradesPath).Msg("trade recorder disabled")
		} else {
			defer jsonl.Close()
			recorder = jsonl
		}
	}

	bot := engine.New(engine.Options{
		Provider:   provider,
		MarginBook: cfg.Margin.Enabled,
		Cash:       cfg.Paper.StartingCash,
		Params:     engine.ParamsFromConfig(cfg),
		Recorder:   recorder,
		PriceCache: cache,
		Log:        log,
	})

	ctrl := control.NewServer(bot, log)
	_ = ctrl.Serve(cfg.App.ControlAddr)
	log.Info().Str("addr", cfg.App.ControlAddr).Msg("control surface up")

	book := "spot"
	if cfg.Margin.Enabled {
		book = "margin"
	}
	log.Info().
		Str("venue", provider.Venue()).
		Str("book", book).
		Float64("cash", cfg.Paper.StartingCash).
		Msg("bot engine started")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine stopped")
	}
	log.Info().Msg("shutting down")
}
