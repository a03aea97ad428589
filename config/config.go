package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"chainview/core/pool"
)

// Environment variables read by Load. See .env.example.
const (
	EnvAPIBaseURL   = "CHAINVIEW_API_BASE_URL"
	EnvSecondsMS    = "CHAINVIEW_SECONDS_MS"
	EnvHTTPTimeout  = "CHAINVIEW_HTTP_TIMEOUT_MS"
	EnvJWTSecret    = "CHAINVIEW_JWT_SECRET"
	EnvAPIKey       = "CHAINVIEW_API_KEY"
	EnvCacheDir     = "CHAINVIEW_CACHE_DIR"
	EnvCacheKeep    = "CHAINVIEW_CACHE_KEEP"
	EnvLogFile      = "CHAINVIEW_LOG_FILE"
	EnvDevNodeAddr  = "CHAINVIEW_DEVNODE_ADDR"
	DefaultEnvFile  = ".env"
	DefaultBaseURL  = "http://localhost:5000"
	DefaultDevNode  = "localhost:5000"
	defaultSecondMS = 1000
	defaultTimeout  = 5000
	defaultKeep     = 500
)

// Config is the resolved client configuration.
type Config struct {
	APIBaseURL  string
	Second      time.Duration // one "second" of the UI; the pool polls every 10 of them
	HTTPTimeout time.Duration
	JWTSecret   string
	APIKey      string
	CacheDir    string
	CacheKeep   int
	LogFile     string
	DevNodeAddr string
}

// PollInterval is the transaction pool refresh period.
func (c Config) PollInterval() time.Duration {
	return pool.PollInterval(c.Second)
}

// Load reads envFile (if it exists) into the environment, then builds a Config from it.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, errors.Wrapf(err, "loading %s", envFile)
			}
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL:  getenv(EnvAPIBaseURL, DefaultBaseURL),
		JWTSecret:   os.Getenv(EnvJWTSecret),
		APIKey:      os.Getenv(EnvAPIKey),
		CacheDir:    os.Getenv(EnvCacheDir),
		LogFile:     os.Getenv(EnvLogFile),
		DevNodeAddr: getenv(EnvDevNodeAddr, DefaultDevNode),
	}
	secondMS, err := intEnv(EnvSecondsMS, defaultSecondMS)
	if err != nil {
		return Config{}, err
	}
	timeoutMS, err := intEnv(EnvHTTPTimeout, defaultTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheKeep, err = intEnv(EnvCacheKeep, defaultKeep)
	if err != nil {
		return Config{}, err
	}
	cfg.Second = time.Duration(secondMS) * time.Millisecond
	cfg.HTTPTimeout = time.Duration(timeoutMS) * time.Millisecond
	return cfg, cfg.Validate()
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.Errorf("%s must not be empty", EnvAPIBaseURL)
	}
	if c.Second <= 0 {
		return errors.Errorf("%s must be positive, got %s", EnvSecondsMS, c.Second)
	}
	if c.HTTPTimeout < 0 {
		return errors.Errorf("%s must not be negative, got %s", EnvHTTPTimeout, c.HTTPTimeout)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
