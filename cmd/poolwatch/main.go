package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bluegreen-ops/poolwatch/internal/alert"
	"github.com/bluegreen-ops/poolwatch/internal/api"
	"github.com/bluegreen-ops/poolwatch/internal/config"
	"github.com/bluegreen-ops/poolwatch/internal/storage"
	"github.com/bluegreen-ops/poolwatch/internal/storage/sqlite"
	"github.com/bluegreen-ops/poolwatch/internal/tail"
	"github.com/bluegreen-ops/poolwatch/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	configPath := flag.String("config", "", "optional YAML config file")

	overrides := config.Default()
	flag.StringVar(&overrides.LogFile, "log-file", overrides.LogFile, "access log to follow")
	flag.StringVar(&overrides.ActivePool, "active-pool", overrides.ActivePool, "designated primary pool")
	flag.IntVar(&overrides.WindowSize, "window-size", overrides.WindowSize, "sliding window size in requests")
	flag.Float64Var(&overrides.ErrorRateThreshold, "error-rate-threshold", overrides.ErrorRateThreshold, "error rate alert threshold in percent")
	flag.DurationVar(&overrides.AlertCooldown, "alert-cooldown", overrides.AlertCooldown, "minimum interval between alerts of the same type")
	flag.BoolVar(&overrides.MaintenanceMode, "maintenance", overrides.MaintenanceMode, "suppress alert delivery")
	flag.StringVar(&overrides.ListenAddr, "listen", overrides.ListenAddr, "status API listen address")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Precedence: defaults, then config file, then environment, then any
	// flag the operator passed explicitly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Msg("failed to load .env file")
	}

	cfg := config.Default()
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("invalid config file")
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("invalid environment configuration")
	}
	applyFlagOverrides(&cfg, overrides)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("log_file", cfg.LogFile).
		Str("active_pool", cfg.ActivePool).
		Int("window_size", cfg.WindowSize).
		Float64("error_rate_threshold", cfg.ErrorRateThreshold).
		Dur("alert_cooldown", cfg.AlertCooldown).
		Bool("maintenance_mode", cfg.MaintenanceMode).
		Bool("slack_enabled", cfg.WebhookURL != "").
		Msg("starting poolwatch")

	var sink alert.Sink
	if cfg.WebhookURL != "" {
		sink = alert.NewSlackSink(alert.DefaultSlackConfig(cfg.WebhookURL))
	} else {
		log.Warn().Msg("SLACK_WEBHOOK_URL not set, alerts will be logged only")
	}

	var history storage.AlertLog
	if cfg.HistoryDB != "" {
		store, err := sqlite.NewStore(cfg.HistoryDB)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.HistoryDB).Msg("failed to open alert history")
		}
		defer store.Close()
		history = store
	}

	dispatcher := alert.NewDispatcher(alert.DispatcherConfig{
		Sink:        sink,
		Cooldown:    cfg.AlertCooldown,
		Maintenance: cfg.MaintenanceMode,
		History:     history,
	})

	w := watcher.New(cfg, dispatcher)
	tailer := tail.New(tail.DefaultConfig(cfg.LogFile))
	apiServer := api.NewServer(w.Status(), history, cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(ctx, tailer.Follow(ctx))
	})

	g.Go(func() error {
		return apiServer.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("poolwatch exited with error")
	}

	log.Info().Msg("shutdown complete")
}

// applyFlagOverrides copies only explicitly-set flag values onto cfg.
func applyFlagOverrides(cfg *config.Config, overrides config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-file":
			cfg.LogFile = overrides.LogFile
		case "active-pool":
			cfg.ActivePool = overrides.ActivePool
		case "window-size":
			cfg.WindowSize = overrides.WindowSize
		case "error-rate-threshold":
			cfg.ErrorRateThreshold = overrides.ErrorRateThreshold
		case "alert-cooldown":
			cfg.AlertCooldown = overrides.AlertCooldown
		case "maintenance":
			cfg.MaintenanceMode = overrides.MaintenanceMode
		case "listen":
			cfg.ListenAddr = overrides.ListenAddr
		}
	})
}
