package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	// Inference services. An API key of "mock" selects the in-process mock
	// implementations.
	LLMAPIKey          string `env:"LLM_API_KEY,required"`
	SummaryModel       string `env:"SUMMARY_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	RateLimitRPS       int    `env:"RATE_LIMIT_RPS" envDefault:"2"`

	// Scratch area for transient uploads, downloads and audio extracts.
	ScratchDir string `env:"SCRATCH_DIR" envDefault:"./scratch"`

	// Remote acquisition hardening.
	DownloadRetries      int           `env:"DOWNLOAD_RETRIES" envDefault:"3"`
	SocketTimeout        time.Duration `env:"SOCKET_TIMEOUT" envDefault:"15s"`
	FilePollInterval     time.Duration `env:"FILE_POLL_INTERVAL" envDefault:"200ms"`
	FilePollAttempts     int           `env:"FILE_POLL_ATTEMPTS" envDefault:"25"`
	DownloaderBinary     string        `env:"DOWNLOADER_BINARY" envDefault:"yt-dlp"`
	AudioExtractorBinary string        `env:"AUDIO_EXTRACTOR_BINARY" envDefault:"ffmpeg"`

	// Whole-request bound. Zero keeps a request unbounded; a hung single
	// item then stalls its request but nothing else.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0"`

	// Summarization length bounds for the final pass.
	SummaryMaxLen int `env:"SUMMARY_MAX_LEN" envDefault:"180"`
	SummaryMinLen int `env:"SUMMARY_MIN_LEN" envDefault:"60"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
