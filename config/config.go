// Package config loads SDK settings from the environment. A .env file is
// loaded best-effort first, then KITBASE_* variables are parsed into Config.
// Programmatic client options override anything loaded here.
package config

import (
	"errors"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsingConfig = errors.New("config: failed to parse environment")

type Config struct {
	// APIKey is the environment credential sent with every request.
	APIKey string `env:"KITBASE_API_KEY"`
	// BaseURL is the root of the flags API.
	BaseURL string `env:"KITBASE_BASE_URL" envDefault:"https://api.kitbase.dev"`

	RequestTimeout time.Duration `env:"KITBASE_REQUEST_TIMEOUT" envDefault:"30s"`

	// PollInterval drives the background refresh; 0 disables polling.
	PollInterval time.Duration `env:"KITBASE_POLL_INTERVAL" envDefault:"60s"`
	// Streaming switches from polling to the server-push channel.
	Streaming bool `env:"KITBASE_STREAMING" envDefault:"false"`

	// CacheTTL bounds remote-mode response cache entries.
	CacheTTL time.Duration `env:"KITBASE_CACHE_TTL" envDefault:"60s"`
}

var defaultEnvLoaded sync.Once

// Load parses the environment into a Config. The .env file might not exist
// and that's ok.
func Load() (Config, error) {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
