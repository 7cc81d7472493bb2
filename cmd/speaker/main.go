package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voicebox/config"
	"voicebox/internal/application"
	"voicebox/internal/domain"
	"voicebox/internal/infra/audio"
	"voicebox/internal/infra/openai"
	"voicebox/internal/infra/owm"
	"voicebox/internal/infra/trigger"
	"voicebox/internal/tools"
)

func main() {
	configPath := flag.String("config", "speaker.yaml", "path to config file")
	flag.Parse()

	loadEnvFiles()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	registry := tools.NewRegistry(logger)
	if cfg.Weather.APIKey != "" {
		weatherClient := owm.NewClient(
			cfg.Weather.APIKey,
			parseDuration(cfg.Weather.RequestTimeout, 10*time.Second, logger),
			parseDuration(cfg.Weather.CacheTTL, 5*time.Minute, logger),
		)
		weatherTool := tools.NewWeatherTool(
			weatherClient,
			owm.Coordinates{Lat: cfg.Weather.DefaultLat, Lon: cfg.Weather.DefaultLon},
			cfg.Weather.DefaultUnit,
		)
		if err := registry.Register(weatherTool); err != nil {
			logger.Error("registering weather tool", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("weather tool disabled: set OPENWEATHERMAP_API_KEY to enable it")
	}

	settings := domain.SessionSettings{
		Model:        cfg.OpenAI.Model,
		Voice:        cfg.OpenAI.Voice,
		Instructions: cfg.OpenAI.Instructions,
		Temperature:  cfg.OpenAI.Temperature,
		Modalities:   []string{"text", "audio"},
	}
	conversation := openai.NewRealtimeClientWithURL(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		settings,
		registry.Defs(),
		logger,
	)

	input := audio.NewCapture(cfg.Audio.InputSampleRate, cfg.Audio.FrameSize, logger)
	output := audio.NewPlayer(cfg.Audio.OutputSampleRate, cfg.Audio.FrameSize, logger)

	trig := createTrigger(cfg.Trigger, logger)
	defer trig.Close()

	var prompts application.PromptSource
	if cfg.Remote.Enabled {
		prompts = audio.NewRemoteServer(cfg.Remote.Addr, cfg.Remote.AuthToken, cfg.Audio.InputSampleRate, logger)
	}

	speakerCfg := application.SpeakerConfig{
		SilenceThreshold: cfg.Audio.SilenceThreshold,
		SilenceDuration:  parseDuration(cfg.Audio.SilenceDuration, time.Second, logger),
		MinUtterance:     time.Second,
		MaxUtterance:     parseDuration(cfg.Audio.MaxUtterance, 10*time.Second, logger),
		SampleRate:       cfg.Audio.InputSampleRate,
	}

	speaker := application.NewSpeaker(
		input,
		output,
		conversation,
		registry,
		trig,
		prompts,
		speakerCfg,
		logger,
	)

	logger.Info("starting smart speaker",
		"model", cfg.OpenAI.Model,
		"trigger", trig.Name(),
		"tools", registry.Names(),
	)

	if err := speaker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("speaker error", "error", err)
		os.Exit(1)
	}
}

// loadEnvFiles loads secrets from the project env files. godotenv
// never overrides variables that are already set, so loading
// .env.local first makes it win over .env.
func loadEnvFiles() {
	if err := godotenv.Load(".env.local"); err == nil {
		slog.Info("loaded .env.local")
	}
	if err := godotenv.Load(".env"); err == nil {
		slog.Info("loaded .env")
	}
}

func createTrigger(cfg config.TriggerConfig, logger *slog.Logger) application.Trigger {
	switch cfg.Source {
	case "button":
		button, err := trigger.NewButton(cfg.ButtonPin, time.Duration(cfg.DebounceMs)*time.Millisecond, logger)
		if err != nil {
			logger.Warn("button unavailable, falling back to stdin", "error", err)
			return trigger.NewStdin(logger)
		}
		return button
	case "stdin":
		return trigger.NewStdin(logger)
	default:
		logger.Warn("unknown trigger source, using stdin", "source", cfg.Source)
		return trigger.NewStdin(logger)
	}
}

func parseDuration(value string, fallback time.Duration, logger *slog.Logger) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid duration, using default", "value", value, "default", fallback)
		return fallback
	}
	return d
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
