package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/melsuly/Audio-File-Tools-Bot/internal/bot"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/config"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/download"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/metrics"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/server"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/transcode"
	"github.com/melsuly/Audio-File-Tools-Bot/internal/workdir"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-file-tools-bot"
	tokenEnvVar       = "BOT_TOKEN"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// A .env file is a convenience for local runs; its absence is fine
	_ = godotenv.Load()

	token := os.Getenv(tokenEnvVar)
	if token == "" {
		fmt.Fprintf(os.Stderr, "%s must be set to the bot access token\n", tokenEnvVar)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("update_timeout", cfg.Bot.UpdateTimeout),
		slog.String("ffmpeg_path", cfg.Transcode.FFmpegPath),
		slog.String("bitrate", cfg.Transcode.Bitrate),
		slog.Int("sample_rate", cfg.Transcode.SampleRate),
		slog.Int("channels", cfg.Transcode.Channels),
		slog.Int("download_timeout", cfg.Download.Timeout),
		slog.String("log_level", cfg.Logging.Level),
	)

	appMetrics := metrics.NewMetrics()

	work, err := workdir.New(cfg.Storage.TempDir)
	if err != nil {
		logger.Error("Failed to prepare temp directory", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Temp directory ready", slog.String("path", work.Path()))

	downloader := download.NewClient(download.Config{
		Timeout: cfg.Download.GetTimeoutDuration(),
	})

	transcoder := transcode.NewTranscoder(transcode.Config{
		FFmpegPath: cfg.Transcode.FFmpegPath,
		Bitrate:    cfg.Transcode.Bitrate,
		SampleRate: cfg.Transcode.SampleRate,
		Channels:   cfg.Transcode.Channels,
		Timeout:    cfg.Transcode.GetTimeoutDuration(),
	})

	botService, err := bot.New(bot.Options{
		Token:      token,
		Config:     cfg.Bot,
		Logger:     logger,
		Metrics:    appMetrics,
		Workdir:    work,
		Downloader: downloader,
		Transcoder: transcoder,
	})
	if err != nil {
		logger.Error("Failed to create bot service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpConfig := server.HTTPServerConfig{
			Port:    cfg.HTTP.Port,
			Address: cfg.HTTP.Address,
			Enabled: cfg.HTTP.Enabled,
		}
		httpServer = server.NewHTTPServer(httpConfig, logger, botService, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start monitoring HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	botService.Start()
	logger.Info("Bot online, waiting for audio",
		slog.String("username", botService.Username()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	botService.Stop()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping monitoring HTTP server", slog.String("error", err.Error()))
		}
	}

	stats := botService.Statistics()
	logger.Info("Final statistics",
		slog.Uint64("updates_received", stats.UpdatesReceived),
		slog.Uint64("audio_requests", stats.AudioRequests),
		slog.Uint64("requests_succeeded", stats.RequestsSucceeded),
		slog.Uint64("requests_failed", stats.RequestsFailed),
	)

	logger.Info("Service stopped")
}

// initLogger creates the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
