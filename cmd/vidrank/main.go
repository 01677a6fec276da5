package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidrank/vidrank/internal/acquire"
	"github.com/vidrank/vidrank/internal/compare"
	"github.com/vidrank/vidrank/internal/config"
	"github.com/vidrank/vidrank/internal/media"
	"github.com/vidrank/vidrank/internal/pipeline"
	"github.com/vidrank/vidrank/internal/server"
	"github.com/vidrank/vidrank/internal/summarize"
	"github.com/vidrank/vidrank/internal/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ScratchDir).Msg("failed to create scratch directory")
	}

	// Service handles are constructed once here and passed by reference;
	// they are shared, read-only capabilities for all concurrent items.
	runner := media.NewRunner()

	transcriber := transcribe.New(transcribe.Config{
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.TranscriptionModel,
		FFmpegBinary: cfg.AudioExtractorBinary,
		ScratchDir:   cfg.ScratchDir,
		RateLimitRPS: cfg.RateLimitRPS,
	}, runner, &logger)

	summarizer := summarize.NewChunker(summarize.New(summarize.Config{
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.SummaryModel,
		RateLimitRPS: cfg.RateLimitRPS,
	}, &logger), &logger)

	comparator := compare.New(compare.NewEmbedder(compare.EmbedderConfig{
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.EmbeddingModel,
		RateLimitRPS: cfg.RateLimitRPS,
	}, &logger))

	downloader := acquire.NewDownloader(acquire.DownloaderConfig{
		Binary:        cfg.DownloaderBinary,
		ScratchDir:    cfg.ScratchDir,
		MaxRetries:    cfg.DownloadRetries,
		SocketTimeout: cfg.SocketTimeout,
		PollInterval:  cfg.FilePollInterval,
		PollAttempts:  cfg.FilePollAttempts,
	}, runner, &logger)

	orchestrator := pipeline.New(transcriber, summarizer, comparator, pipeline.Bounds{
		MaxLen: cfg.SummaryMaxLen,
		MinLen: cfg.SummaryMinLen,
	}, &logger)

	srv := server.New(server.Config{
		Port:           cfg.HTTPPort,
		ScratchDir:     cfg.ScratchDir,
		RequestTimeout: cfg.RequestTimeout,
	}, downloader, orchestrator, &logger)

	if err := srv.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("server stopped")

			return
		}

		logger.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
